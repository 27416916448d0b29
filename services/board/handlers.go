package board

import (
	"boardcode-go/services/board/audio"
	"boardcode-go/x/conv"
)

const (
	NoticeMaxVolume = "Max volume"
	NoticeMuted     = "Muted"
)

// VolumeNotice is the notification shown after a volume step.
func VolumeNotice(v int) string { return "Volume " + conv.Istr(v) }

func (b *CompactML307) wireHandlers() {
	a := b.deps.App
	for _, m := range b.buttons {
		switch m.Name() {
		case ButtonBoot:
			m.OnClick(a.ToggleChatState)
		case ButtonTouch:
			m.OnPressDown(a.StartListening)
			m.OnPressUp(a.StopListening)
		case ButtonVolumeUp:
			m.OnClick(func() { b.stepVolume(b.prof.VolumeStep) })
			m.OnLongPress(func() { b.jumpVolume(audio.MaxVolume, NoticeMaxVolume) })
		case ButtonVolumeDown:
			m.OnClick(func() { b.stepVolume(-b.prof.VolumeStep) })
			m.OnLongPress(func() { b.jumpVolume(audio.MinVolume, NoticeMuted) })
		}
	}
}

func (b *CompactML307) stepVolume(delta int) {
	v := b.GetAudioCodec().AdjustOutputVolume(delta)
	b.display.ShowNotification(VolumeNotice(v))
}

func (b *CompactML307) jumpVolume(v int, notice string) {
	b.GetAudioCodec().SetOutputVolume(v)
	b.display.ShowNotification(notice)
}
