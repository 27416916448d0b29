// services/board/platform/platform.go
package platform

import (
	"context"

	"tinygo.org/x/drivers"
)

// ---- I²C ----

type ClockSource uint8

const (
	ClockDefault ClockSource = iota
	ClockXTAL
	ClockAPB
)

// I2CBusConfig describes the shared master bus. GlitchIgnoreCount and
// ClockSource are honoured where the controller supports them.
type I2CBusConfig struct {
	Port              int
	SDA, SCL          int
	ClockSource       ClockSource
	PullUp            bool
	GlitchIgnoreCount uint8
	Hz                uint32
}

type I2CFactory interface {
	NewBus(cfg I2CBusConfig) (drivers.I2C, error)
}

// ---- GPIO ----

type Pull uint8

const (
	PullNone Pull = iota
	PullUp
	PullDown
)

type GPIOPin interface {
	Number() int
	ConfigureInput(pull Pull) error
	ConfigureOutput(initial bool) error
	Set(bool)
	Get() bool
	Toggle()
}

type PinFactory interface {
	ByNumber(n int) (GPIOPin, bool)
}

// ---- UART ----

type UARTConfig struct {
	Port     int
	TX, RX   int
	Baud     uint32
	RxBuffer int // hint; providers may round or ignore
}

// SerialPort is a raw byte stream.
type SerialPort interface {
	Write(p []byte) (int, error)
	RecvSomeContext(ctx context.Context, buf []byte) (int, error)
}

type UARTFactory interface {
	Open(cfg UARTConfig) (SerialPort, error)
}

// Factories bundles what bring-up consumes from the platform.
type Factories struct {
	I2C  I2CFactory
	Pins PinFactory
	UART UARTFactory
}

// Default returns the factories for the build target.
func Default() Factories {
	return Factories{
		I2C:  DefaultI2CFactory(),
		Pins: DefaultPinFactory(),
		UART: DefaultUARTFactory(),
	}
}
