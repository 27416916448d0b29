// Package board brings up the compact ML307 board and exposes its
// capabilities to the application.
package board

import (
	"context"
	"sync"

	"boardcode-go/bus"
	"boardcode-go/services/board/app"
	"boardcode-go/services/board/audio"
	"boardcode-go/services/board/button"
	"boardcode-go/services/board/display"
	"boardcode-go/services/board/iot"
	"boardcode-go/services/board/led"
	"boardcode-go/services/board/modem"
	"boardcode-go/services/board/panel"
	"boardcode-go/services/board/platform"
	"boardcode-go/x/logx"

	"tinygo.org/x/drivers"
)

const tag = "board"

// Board is the capability set the application works against.
type Board interface {
	GetLed() led.Led
	GetAudioCodec() audio.Codec
	GetDisplay() display.Display
	GetTransport() modem.Transport
}

// Deps are the collaborators bring-up consumes.
type Deps struct {
	Platform platform.Factories
	App      app.Application
	// Bus is optional. Without it nothing is published.
	Bus *bus.Bus
}

// CompactML307 is the board. Build it with Initialize.
type CompactML307 struct {
	prof Profile
	deps Deps
	ctx  context.Context
	conn *bus.Connection

	i2c     drivers.I2C
	panelIO *panel.IO
	panel   *panel.Panel // nil unless Init succeeded
	display display.Display
	// degraded holds the fault that put the board on the Null display.
	degraded error

	buttons []*button.Machine
	things  *iot.Registry

	ledOnce   sync.Once
	led       led.Led
	codecOnce sync.Once
	codec     audio.Codec
	xportOnce sync.Once
	xport     modem.Transport
}

var _ Board = (*CompactML307)(nil)

func (b *CompactML307) Profile() Profile { return b.prof }

// Degraded returns the non-fatal bring-up fault, if any.
func (b *CompactML307) Degraded() error { return b.degraded }

func (b *CompactML307) Things() *iot.Registry { return b.things }

// Button returns the named button machine.
func (b *CompactML307) Button(name string) (*button.Machine, bool) {
	for _, m := range b.buttons {
		if m.Name() == name {
			return m, true
		}
	}
	return nil, false
}

// GetDisplay returns the facade chosen during bring-up. It is never nil.
func (b *CompactML307) GetDisplay() display.Display { return b.display }

func (b *CompactML307) GetAudioCodec() audio.Codec {
	b.codecOnce.Do(func() {
		b.codec = newAudioCodec(b.prof)
		logx.I(tag, "audio codec", AudioTopology)
	})
	return b.codec
}

func (b *CompactML307) GetLed() led.Led {
	b.ledOnce.Do(func() {
		pin, ok := b.deps.Platform.Pins.ByNumber(b.prof.LEDPin)
		if !ok {
			logx.E(tag, "led pin unavailable")
			b.led = led.Nop{}
			return
		}
		s, err := led.NewSingle(pin, b.prof.LEDActiveLow)
		if err != nil {
			logx.E(tag, "led:", err.Error())
			b.led = led.Nop{}
			return
		}
		go s.Run(b.ctx)
		b.led = s
	})
	return b.led
}

// GetTransport returns the modem UART. A port that cannot be opened
// yields a transport whose calls fail with the open error.
func (b *CompactML307) GetTransport() modem.Transport {
	b.xportOnce.Do(func() {
		u, err := modem.Open(b.deps.Platform.UART, b.prof.Modem)
		if err != nil {
			logx.E(tag, "modem uart:", err.Error())
			b.xport = modem.Unavailable{Err: err}
			return
		}
		go u.Run(b.ctx)
		b.xport = u
	})
	return b.xport
}
