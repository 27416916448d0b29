// services/board/platform/factories_host.go
//go:build !rp2040 && !rp2350

package platform

import (
	"context"
	"errors"
	"sync"

	"boardcode-go/errcode"
	"boardcode-go/x/mathx"

	"tinygo.org/x/drivers"
)

// ErrNack is returned by HostI2C when a transaction is told to fail.
var ErrNack = errors.New("i2c_nack")

// ----------------------------- I²C (host) ------------------------------------

// HostI2C implements drivers.I2C for host runs and tests. Transactions are
// recorded; FailFrom and Fail inject faults.
type HostI2C struct {
	mu  sync.Mutex
	cfg I2CBusConfig
	n   int

	// FailFrom makes every transaction with index >= FailFrom fail (negative disables).
	FailFrom int
	// Fail, when set, is consulted for every transaction.
	Fail func(addr uint16, w []byte) error

	LastTx struct {
		Addr uint16
		W    []byte
	}
	lastData []byte
}

func NewHostI2C(cfg I2CBusConfig) *HostI2C { return &HostI2C{cfg: cfg, FailFrom: -1} }

func (h *HostI2C) Tx(addr uint16, w, r []byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	idx := h.n
	h.n++
	if h.FailFrom >= 0 && idx >= h.FailFrom {
		return ErrNack
	}
	if h.Fail != nil {
		if err := h.Fail(addr, w); err != nil {
			return err
		}
	}
	h.LastTx.Addr = addr
	h.LastTx.W = append(h.LastTx.W[:0], w...)
	// SSD1306 data frames start with the 0x40 control byte.
	if len(w) > 2 && w[0] == 0x40 {
		h.lastData = append(h.lastData[:0], w[1:]...)
	}
	for i := range r {
		r[i] = 0
	}
	return nil
}

// Count returns the number of transactions attempted so far.
func (h *HostI2C) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.n
}

// LastFrame returns a copy of the most recent display data payload.
func (h *HostI2C) LastFrame() []byte {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]byte(nil), h.lastData...)
}

func (h *HostI2C) Config() I2CBusConfig { return h.cfg }

// HostI2CFactory creates HostI2C buses. FailCreate forces NewBus to fail;
// Prepare lets tests arm a bus before bring-up touches it.
type HostI2CFactory struct {
	mu         sync.Mutex
	buses      map[int]*HostI2C
	FailCreate error
	Prepare    func(*HostI2C)
}

func (f *HostI2CFactory) NewBus(cfg I2CBusConfig) (drivers.I2C, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailCreate != nil {
		return nil, f.FailCreate
	}
	if cfg.Port < 0 || cfg.Port > 1 {
		return nil, errcode.UnknownBus
	}
	if cfg.SDA < 0 || cfg.SCL < 0 || cfg.SDA == cfg.SCL || cfg.Hz == 0 {
		return nil, errcode.InvalidParams
	}
	if f.buses == nil {
		f.buses = make(map[int]*HostI2C)
	}
	if _, taken := f.buses[cfg.Port]; taken {
		return nil, errcode.PinInUse
	}
	b := NewHostI2C(cfg)
	if f.Prepare != nil {
		f.Prepare(b)
	}
	f.buses[cfg.Port] = b
	return b, nil
}

// Bus exposes a created bus for tests.
func (f *HostI2CFactory) Bus(port int) (*HostI2C, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.buses[port]
	return b, ok
}

// DefaultI2CFactory returns an inert host I²C factory.
func DefaultI2CFactory() I2CFactory { return &HostI2CFactory{} }

// ----------------------------- GPIO (host) -----------------------------------

// FakePin implements GPIOPin for host-side runs and tests.
type FakePin struct {
	mu      sync.RWMutex
	number  int
	level   bool
	modeOut bool
	pull    Pull
	claims  int
}

func (p *FakePin) ConfigureInput(pull Pull) error {
	p.mu.Lock()
	p.modeOut = false
	p.pull = pull
	// Idle level follows the pull resistor.
	p.level = pull == PullUp
	p.claims++
	p.mu.Unlock()
	return nil
}

func (p *FakePin) ConfigureOutput(initial bool) error {
	p.mu.Lock()
	p.modeOut = true
	p.level = initial
	p.claims++
	p.mu.Unlock()
	return nil
}

func (p *FakePin) Set(level bool) {
	p.mu.Lock()
	p.level = level
	p.mu.Unlock()
}

func (p *FakePin) Get() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.level
}

func (p *FakePin) Toggle() {
	p.mu.Lock()
	p.level = !p.level
	p.mu.Unlock()
}

func (p *FakePin) Number() int { return p.number }

// IsOutput reports the configured direction.
func (p *FakePin) IsOutput() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.modeOut
}

// Configured reports how many times the pin was configured.
func (p *FakePin) Configured() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.claims
}

// HostPinFactory returns stable *FakePin instances per number (GP0..GP29).
type HostPinFactory struct {
	mu   sync.Mutex
	pins map[int]*FakePin
}

func (f *HostPinFactory) ByNumber(n int) (GPIOPin, bool) {
	if !mathx.Between(n, 0, 29) {
		return nil, false
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pins == nil {
		f.pins = make(map[int]*FakePin)
	}
	p, ok := f.pins[n]
	if !ok {
		p = &FakePin{number: n}
		f.pins[n] = p
	}
	return p, true
}

// Get exposes the underlying *FakePin (e.g. to drive button levels).
func (f *HostPinFactory) Get(n int) (*FakePin, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.pins[n]
	return p, ok
}

// Claimed returns the number of distinct pins handed out.
func (f *HostPinFactory) Claimed() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pins)
}

func DefaultPinFactory() PinFactory { return &HostPinFactory{} }

// ----------------------------- UART (host) -----------------------------------

// LoopbackPort echoes writes back to its own receive side.
type LoopbackPort struct {
	cfg  UARTConfig
	mu   sync.Mutex
	buf  []byte
	cond chan struct{}
}

func newLoopbackPort(cfg UARTConfig) *LoopbackPort {
	return &LoopbackPort{cfg: cfg, cond: make(chan struct{}, 1)}
}

func (l *LoopbackPort) Write(p []byte) (int, error) {
	l.mu.Lock()
	room := l.cfg.RxBuffer - len(l.buf)
	if l.cfg.RxBuffer <= 0 {
		room = len(p)
	}
	if room < len(p) {
		p = p[:room] // overflow drops the tail
	}
	l.buf = append(l.buf, p...)
	l.mu.Unlock()
	select {
	case l.cond <- struct{}{}:
	default:
	}
	return len(p), nil
}

func (l *LoopbackPort) RecvSomeContext(ctx context.Context, buf []byte) (int, error) {
	for {
		l.mu.Lock()
		if len(l.buf) > 0 {
			n := copy(buf, l.buf)
			l.buf = l.buf[n:]
			l.mu.Unlock()
			return n, nil
		}
		l.mu.Unlock()
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-l.cond:
		}
	}
}

type HostUARTFactory struct {
	mu    sync.Mutex
	ports map[int]*LoopbackPort
}

func (f *HostUARTFactory) Open(cfg UARTConfig) (SerialPort, error) {
	if cfg.Port < 0 || cfg.Port > 1 {
		return nil, errcode.UnknownBus
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ports == nil {
		f.ports = make(map[int]*LoopbackPort)
	}
	if p, ok := f.ports[cfg.Port]; ok {
		return p, nil
	}
	p := newLoopbackPort(cfg)
	f.ports[cfg.Port] = p
	return p, nil
}

func DefaultUARTFactory() UARTFactory { return &HostUARTFactory{} }
