// Package modem exposes the cellular module's UART as a raw byte
// transport. It does not speak the modem's AT protocol.
package modem

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"boardcode-go/errcode"
	"boardcode-go/services/board/platform"
	"boardcode-go/x/logx"
	"boardcode-go/x/shmring"
)

// errBackoff is the pause after a receive error that was not a timeout.
const errBackoff = 100 * time.Millisecond

// Transport is the board's link to the modem.
type Transport interface {
	Write(p []byte) (int, error)
	Read(ctx context.Context, p []byte) (int, error)
}

// UART buffers received bytes in a ring fed by Run.
type UART struct {
	port   platform.SerialPort
	rx     *shmring.Ring
	rxErrs atomic.Uint32
}

var _ Transport = (*UART)(nil)

func Open(f platform.UARTFactory, cfg platform.UARTConfig) (*UART, error) {
	if f == nil {
		return nil, errcode.Unsupported
	}
	port, err := f.Open(cfg)
	if err != nil {
		return nil, errcode.Wrap(errcode.Of(err), "modem_open", err)
	}
	size := cfg.RxBuffer
	if size <= 0 {
		size = 1024
	}
	return &UART{port: port, rx: shmring.New(size)}, nil
}

func (u *UART) Write(p []byte) (int, error) { return u.port.Write(p) }

// Read blocks until at least one byte is buffered or ctx ends.
func (u *UART) Read(ctx context.Context, p []byte) (int, error) {
	for {
		if n := u.rx.Read(p); n > 0 || len(p) == 0 {
			return n, nil
		}
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-u.rx.Readable():
		}
	}
}

// Dropped counts received bytes lost to a full buffer.
func (u *UART) Dropped() uint32 { return u.rx.Dropped() }

// RxErrors counts receive failures other than timeouts.
func (u *UART) RxErrors() uint32 { return u.rxErrs.Load() }

// Run pumps the port into the receive ring until ctx is cancelled. A port
// error is logged once per failing streak and retried after errBackoff.
func (u *UART) Run(ctx context.Context) {
	buf := make([]byte, 256)
	failing := false
	for ctx.Err() == nil {
		// Bound each wait so shutdown is prompt on ports that ignore ctx.
		rctx, cancel := context.WithTimeout(ctx, 250*time.Millisecond)
		n, err := u.port.RecvSomeContext(rctx, buf)
		cancel()
		if n > 0 {
			u.rx.Write(buf[:n])
		}
		switch {
		case err == nil || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
			failing = false
		default:
			u.rxErrs.Add(1)
			if !failing {
				logx.W("modem", "rx error:", err.Error())
				failing = true
			}
			t := time.NewTimer(errBackoff)
			select {
			case <-ctx.Done():
			case <-t.C:
			}
			t.Stop()
		}
	}
}

// Unavailable stands in when the UART could not be opened.
type Unavailable struct{ Err error }

func (u Unavailable) Write([]byte) (int, error) { return 0, u.Err }

func (u Unavailable) Read(context.Context, []byte) (int, error) { return 0, u.Err }
