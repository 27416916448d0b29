// services/board/platform/factories_rp2xxx.go
//go:build rp2040 || rp2350

package platform

import (
	"context"
	"machine"

	"boardcode-go/errcode"
	"boardcode-go/x/mathx"

	uartx "github.com/jangala-dev/tinygo-uartx/uartx"
	"tinygo.org/x/drivers"
)

// ---- I²C ----

// The RP2 controller has a fixed glitch filter and no selectable clock
// source, so GlitchIgnoreCount and ClockSource are accepted and ignored.
type rp2I2CFactory struct{}

func DefaultI2CFactory() I2CFactory { return rp2I2CFactory{} }

func (rp2I2CFactory) NewBus(cfg I2CBusConfig) (drivers.I2C, error) {
	var hw *machine.I2C
	switch cfg.Port {
	case 0:
		hw = machine.I2C0
	case 1:
		hw = machine.I2C1
	default:
		return nil, errcode.UnknownBus
	}
	if cfg.SDA < 0 || cfg.SCL < 0 || cfg.SDA == cfg.SCL || cfg.Hz == 0 {
		return nil, errcode.InvalidParams
	}
	sda := machine.Pin(cfg.SDA)
	scl := machine.Pin(cfg.SCL)
	if err := hw.Configure(machine.I2CConfig{
		SDA:       sda,
		SCL:       scl,
		Frequency: cfg.Hz,
	}); err != nil {
		return nil, err
	}
	// machine configures both pads with pull-ups in I²C mode, which covers cfg.PullUp.
	return hw, nil
}

// ---- GPIO ----

type rp2PinFactory struct{}

func DefaultPinFactory() PinFactory { return rp2PinFactory{} }

func (rp2PinFactory) ByNumber(n int) (GPIOPin, bool) {
	// Constrain to RP2 user GPIOs (GP0..GP28).
	if !mathx.Between(n, 0, 28) {
		return nil, false
	}
	return &rp2Pin{p: machine.Pin(n), n: n}, true
}

type rp2Pin struct {
	p machine.Pin
	n int
}

func (r *rp2Pin) ConfigureInput(pull Pull) error {
	mode := machine.PinInput
	switch pull {
	case PullUp:
		mode = machine.PinInputPullup
	case PullDown:
		mode = machine.PinInputPulldown
	}
	r.p.Configure(machine.PinConfig{Mode: mode})
	return nil
}

func (r *rp2Pin) ConfigureOutput(initial bool) error {
	r.p.Configure(machine.PinConfig{Mode: machine.PinOutput})
	r.p.Set(initial)
	return nil
}

func (r *rp2Pin) Set(level bool) { r.p.Set(level) }
func (r *rp2Pin) Get() bool      { return r.p.Get() }
func (r *rp2Pin) Number() int    { return r.n }

func (r *rp2Pin) Toggle() {
	if r.p.Get() {
		r.p.Low()
	} else {
		r.p.High()
	}
}

// ---- UART ----

type rp2UARTFactory struct{}

func DefaultUARTFactory() UARTFactory { return rp2UARTFactory{} }

func (rp2UARTFactory) Open(cfg UARTConfig) (SerialPort, error) {
	var hw *uartx.UART
	switch cfg.Port {
	case 0:
		hw = uartx.UART0
	case 1:
		hw = uartx.UART1
	default:
		return nil, errcode.UnknownBus
	}
	// Defaults inside uartx apply when BaudRate is zero.
	if err := hw.Configure(uartx.UARTConfig{
		BaudRate: cfg.Baud,
		TX:       machine.Pin(cfg.TX),
		RX:       machine.Pin(cfg.RX),
	}); err != nil {
		return nil, err
	}
	return &rp2SerialPort{u: hw}, nil
}

type rp2SerialPort struct{ u *uartx.UART }

func (p *rp2SerialPort) Write(b []byte) (int, error) { return p.u.Write(b) }
func (p *rp2SerialPort) RecvSomeContext(ctx context.Context, buf []byte) (int, error) {
	return p.u.RecvSomeContext(ctx, buf)
}
