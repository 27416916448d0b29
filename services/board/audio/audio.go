// Package audio models the board's codec-less I²S audio path. Sample
// handling lives elsewhere; this package owns wiring and output volume.
package audio

import (
	"sync/atomic"

	"boardcode-go/x/mathx"
)

const (
	MinVolume     = 0
	MaxVolume     = 100
	DefaultVolume = 70
)

// Codec is the audio capability handed to the application.
type Codec interface {
	InputSampleRate() int
	OutputSampleRate() int
	OutputVolume() int
	SetOutputVolume(v int)
	// AdjustOutputVolume adds delta, clamps to [0,100] and returns the
	// stored value. Concurrent callers never lose an update.
	AdjustOutputVolume(delta int) int
}

// Rates are the I²S sample rates in Hz.
type Rates struct {
	Input  int
	Output int
}

type base struct {
	rates  Rates
	volume atomic.Int32
}

func (b *base) init(r Rates) {
	b.rates = r
	b.volume.Store(DefaultVolume)
}

func (b *base) InputSampleRate() int  { return b.rates.Input }
func (b *base) OutputSampleRate() int { return b.rates.Output }
func (b *base) OutputVolume() int     { return int(b.volume.Load()) }

func (b *base) SetOutputVolume(v int) {
	b.volume.Store(int32(mathx.Clamp(v, MinVolume, MaxVolume)))
}

func (b *base) AdjustOutputVolume(delta int) int {
	for {
		old := b.volume.Load()
		nv := int32(mathx.StepClamped(int(old), delta, MinVolume, MaxVolume))
		if b.volume.CompareAndSwap(old, nv) {
			return int(nv)
		}
	}
}

// DuplexPins share bit and word clocks between speaker and microphone.
type DuplexPins struct {
	BCLK, WS, DOUT, DIN int
}

// Duplex drives speaker and microphone over one I²S port.
type Duplex struct {
	base
	pins DuplexPins
}

func NewDuplex(r Rates, p DuplexPins) *Duplex {
	d := &Duplex{pins: p}
	d.init(r)
	return d
}

func (d *Duplex) Pins() DuplexPins { return d.pins }

// SimplexPins give speaker and microphone their own clocks.
type SimplexPins struct {
	SpkBCLK, SpkLRCK, SpkDOUT int
	MicSCK, MicWS, MicDIN     int
}

// Simplex uses separate I²S ports for speaker and microphone.
type Simplex struct {
	base
	pins SimplexPins
}

func NewSimplex(r Rates, p SimplexPins) *Simplex {
	s := &Simplex{pins: p}
	s.init(r)
	return s
}

func (s *Simplex) Pins() SimplexPins { return s.pins }

var (
	_ Codec = (*Duplex)(nil)
	_ Codec = (*Simplex)(nil)
)
