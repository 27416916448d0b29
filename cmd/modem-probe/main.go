//go:build rp2040 || rp2350

// modem-probe checks the ML307 wiring: it opens the modem UART from the
// board profile, sends AT every two seconds and prints whatever comes back.
package main

import (
	"context"
	"time"

	"boardcode-go/services/board"
	"boardcode-go/services/board/modem"
	"boardcode-go/services/board/platform"
	"boardcode-go/x/conv"
	"boardcode-go/x/logx"
)

func main() {
	logx.I("probe", "boot")
	time.Sleep(1500 * time.Millisecond)

	ctx := context.Background()
	prof := board.CompactML307Profile()
	u, err := modem.Open(platform.DefaultUARTFactory(), prof.Modem)
	if err != nil {
		logx.E("probe", "open:", err.Error())
		return
	}
	go u.Run(ctx)

	buf := make([]byte, 128)
	for i := 1; ; i++ {
		if _, err := u.Write([]byte("AT\r\n")); err != nil {
			logx.E("probe", "write:", err.Error())
		}
		rctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		n, err := u.Read(rctx, buf)
		cancel()
		switch {
		case err != nil:
			logx.W("probe", "no reply to AT #", conv.Istr(i))
		default:
			logx.I("probe", "rx", conv.Istr(n), "bytes:", string(buf[:n]))
		}
		if d := u.Dropped(); d > 0 {
			logx.W("probe", "rx dropped", conv.Istr(int(d)))
		}
		time.Sleep(2 * time.Second)
	}
}
