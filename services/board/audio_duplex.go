//go:build !audio_simplex

package board

import "boardcode-go/services/board/audio"

// AudioTopology names the I²S wiring compiled into this build.
const AudioTopology = "duplex"

func newAudioCodec(p Profile) audio.Codec {
	return audio.NewDuplex(p.AudioRates, p.AudioDuplex)
}
