// Package panel drives the SSD1306 OLED controller that sits on the
// board's shared I²C bus.
package panel

import (
	"sync"

	"boardcode-go/errcode"
	"boardcode-go/x/mathx"

	"tinygo.org/x/drivers"
)

// IOConfig describes how the panel is reached over the bus.
type IOConfig struct {
	Addr              uint16 // 7-bit device address
	ControlPhaseBytes uint8
	DCBitOffset       uint8
	CmdBits           uint8
	ParamBits         uint8
	SCLHz             uint32
}

// IO is the panel I/O interface lent the shared bus. It implements
// drivers.I2C and remembers the first transfer error since the last
// TakeErr, because the vendor driver drops command errors.
type IO struct {
	bus drivers.I2C
	cfg IOConfig

	mu  sync.Mutex
	err error
}

var _ drivers.I2C = (*IO)(nil)

func NewIO(bus drivers.I2C, cfg IOConfig) (*IO, error) {
	if bus == nil {
		return nil, errcode.InvalidParams
	}
	if cfg.Addr == 0 || cfg.Addr > 0x7F {
		return nil, errcode.InvalidParams
	}
	// One control byte carrying the D/C bit is the only framing SSD1306 uses on I²C.
	if cfg.ControlPhaseBytes != 1 || cfg.DCBitOffset != 6 {
		return nil, errcode.Unsupported
	}
	if cfg.CmdBits != 8 || cfg.ParamBits != 8 {
		return nil, errcode.Unsupported
	}
	if !mathx.Between(cfg.SCLHz, 1, 1_000_000) {
		return nil, errcode.InvalidParams
	}
	return &IO{bus: bus, cfg: cfg}, nil
}

func (io *IO) Addr() uint16 { return io.cfg.Addr }

func (io *IO) Tx(addr uint16, w, r []byte) error {
	err := io.bus.Tx(addr, w, r)
	if err != nil {
		io.mu.Lock()
		if io.err == nil {
			io.err = err
		}
		io.mu.Unlock()
	}
	return err
}

// Command sends one command byte with a command control byte.
func (io *IO) Command(cmd uint8) error {
	return io.Tx(io.cfg.Addr, []byte{0x00, cmd}, nil)
}

// TakeErr returns and clears the first recorded transfer error.
func (io *IO) TakeErr() error {
	io.mu.Lock()
	defer io.mu.Unlock()
	err := io.err
	io.err = nil
	return err
}
