package board

import (
	"context"

	"boardcode-go/bus"
	"boardcode-go/errcode"
	"boardcode-go/services/board/app"
	"boardcode-go/types"
	"boardcode-go/x/logx"
)

var (
	NotifyTopic    = bus.T("board", "control", "notify")
	GetVolumeTopic = bus.T("board", "audio", "control", "get_volume")
	SetVolumeTopic = bus.T("board", "audio", "control", "set_volume")
)

// Start subscribes to the board's control topics and serves them, and
// follows the application state, until ctx is cancelled. Requests published
// after Start returns are served. It needs Deps.Bus.
func (b *CompactML307) Start(ctx context.Context) error {
	if b.conn == nil {
		return &errcode.E{C: errcode.Unsupported, Op: "board_start", Msg: "no bus"}
	}
	subs := []*bus.Subscription{
		b.conn.Subscribe(NotifyTopic),
		b.conn.Subscribe(GetVolumeTopic),
		b.conn.Subscribe(SetVolumeTopic),
		b.conn.Subscribe(app.StateTopic),
	}
	go b.serve(ctx, subs)
	return nil
}

func (b *CompactML307) serve(ctx context.Context, subs []*bus.Subscription) {
	defer func() {
		for _, s := range subs {
			b.conn.Unsubscribe(s)
		}
	}()

	for {
		var m *bus.Message
		select {
		case <-ctx.Done():
			return
		case m = <-subs[0].Channel():
			b.handleNotify(m)
		case m = <-subs[1].Channel():
			b.conn.Reply(m, types.VolumeValue{Volume: b.GetAudioCodec().OutputVolume()}, false)
		case m = <-subs[2].Channel():
			b.handleSetVolume(m)
		case m = <-subs[3].Channel():
			b.handleAppState(m)
		}
	}
}

func (b *CompactML307) handleNotify(m *bus.Message) {
	n, ok := m.Payload.(types.Notify)
	if !ok {
		b.replyErr(m, errcode.InvalidPayload)
		return
	}
	b.display.ShowNotification(n.Text)
	b.conn.Reply(m, types.OKReply{OK: true}, false)
}

func (b *CompactML307) handleSetVolume(m *bus.Message) {
	p, ok := m.Payload.(types.SetVolume)
	if !ok {
		b.replyErr(m, errcode.InvalidPayload)
		return
	}
	c := b.GetAudioCodec()
	c.SetOutputVolume(p.Volume)
	b.conn.Reply(m, types.VolumeValue{Volume: c.OutputVolume()}, false)
}

func (b *CompactML307) handleAppState(m *bus.Message) {
	st, ok := m.Payload.(types.DeviceState)
	if !ok {
		logx.W(tag, "ignoring app state payload")
		return
	}
	b.GetLed().OnStateChanged(st)
	b.display.SetStatus(string(st))
}

func (b *CompactML307) replyErr(m *bus.Message, c errcode.Code) {
	b.conn.Reply(m, types.ErrorReply{OK: false, Error: string(c)}, false)
}
