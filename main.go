package main

import (
	"context"
	"time"

	"boardcode-go/bus"
	"boardcode-go/services/board"
	"boardcode-go/services/board/app"
	"boardcode-go/services/board/platform"
	"boardcode-go/services/heartbeat"
	"boardcode-go/x/conv"
	"boardcode-go/x/logx"
)

func main() {
	// Allow USB CDC to enumerate before we print.
	time.Sleep(2 * time.Second)
	logx.I("main", "boot")

	ctx := context.Background()
	b := bus.NewBus(8)

	// Local stand-in for the voice application's state machine.
	svc := app.NewService(b.NewConnection("app"))
	svc.Start(ctx)

	brd := board.MustInitialize(ctx, board.CompactML307Profile(), board.Deps{
		Platform: platform.Default(),
		App:      app.NewBusClient(b.NewConnection("buttons")),
		Bus:      b,
	})
	if err := brd.Start(ctx); err != nil {
		logx.E("main", "control plane:", err.Error())
	}
	_ = brd.GetLed()
	_ = brd.GetTransport()

	hb := &heartbeat.Service{
		Interval: heartbeat.DefaultInterval,
		Status: func() []string {
			return []string{"state", string(svc.State()), "volume", conv.Istr(brd.GetAudioCodec().OutputVolume())}
		},
	}
	hb.Start(ctx, b.NewConnection("heartbeat"))

	select {}
}
