package panel

import (
	"errors"
	"image/color"
	"sync/atomic"

	"boardcode-go/errcode"

	"tinygo.org/x/drivers"
)

var ErrNotReady = errors.New("panel_not_ready")

const (
	cmdDisplayOff = 0xAE
	cmdDisplayOn  = 0xAF
)

// controller is the SSD1306 command set the panel needs. On rp2 it is the
// vendor driver; on the host it is a frame encoder over the same IO.
// Command errors are collected by IO, not returned here.
type controller interface {
	configure(width, height int16, addr uint16)
	sleep(on bool)
	clear()
	setPixel(x, y int16, c color.RGBA)
	flush() error
}

// Config holds the device-specific panel parameters.
type Config struct {
	Width        int16
	Height       int16
	BitsPerPixel uint8
	ResetPin     int // negative: no reset line
}

// Panel is an SSD1306 handle. Drawing is refused until Init succeeded.
type Panel struct {
	io    *IO
	dev   controller
	cfg   Config
	ready atomic.Bool
}

var _ drivers.Displayer = (*Panel)(nil)

func NewSSD1306(io *IO, cfg Config) (*Panel, error) {
	if io == nil {
		return nil, errcode.InvalidParams
	}
	if cfg.BitsPerPixel != 1 {
		return nil, errcode.Unsupported
	}
	if cfg.Width == 0 {
		cfg.Width = 128
	}
	if cfg.Width != 128 || (cfg.Height != 32 && cfg.Height != 64) {
		return nil, errcode.InvalidParams
	}
	if cfg.ResetPin >= 0 {
		return nil, errcode.Unsupported
	}
	return &Panel{io: io, dev: newController(io), cfg: cfg}, nil
}

// Reset puts the controller into a known state. Without a reset line this
// is a display-off command; a missing ack means the panel is unreachable.
func (p *Panel) Reset() error {
	p.ready.Store(false)
	_ = p.io.TakeErr()
	return p.io.Command(cmdDisplayOff)
}

// Init configures addressing and clears display memory. The panel is left
// dark until PowerOn.
func (p *Panel) Init() error {
	_ = p.io.TakeErr()
	p.dev.configure(p.cfg.Width, p.cfg.Height, p.io.Addr())
	p.dev.sleep(true)
	p.dev.clear()
	if err := p.dev.flush(); err != nil {
		return err
	}
	if err := p.io.TakeErr(); err != nil {
		return err
	}
	p.ready.Store(true)
	return nil
}

// PowerOn turns the panel output on.
func (p *Panel) PowerOn() error {
	if !p.ready.Load() {
		return ErrNotReady
	}
	_ = p.io.TakeErr()
	p.dev.sleep(false)
	return p.io.TakeErr()
}

func (p *Panel) Ready() bool { return p.ready.Load() }

func (p *Panel) Size() (x, y int16) { return p.cfg.Width, p.cfg.Height }

func (p *Panel) SetPixel(x, y int16, c color.RGBA) {
	if !p.ready.Load() {
		return
	}
	p.dev.setPixel(x, y, c)
}

func (p *Panel) ClearBuffer() {
	if p.ready.Load() {
		p.dev.clear()
	}
}

func (p *Panel) Display() error {
	if !p.ready.Load() {
		return ErrNotReady
	}
	_ = p.io.TakeErr()
	if err := p.dev.flush(); err != nil {
		return err
	}
	return p.io.TakeErr()
}
