// Package button turns a sampled GPIO line into press-down, press-up,
// click and long-press events.
package button

import (
	"context"
	"sync/atomic"
	"time"
)

const (
	DefaultDebounce  = 30 * time.Millisecond
	DefaultLongPress = time.Second
)

type Kind uint8

const (
	PressDown Kind = iota
	PressUp
	Click
	LongPress
	numKinds
)

func (k Kind) String() string {
	switch k {
	case PressDown:
		return "press_down"
	case PressUp:
		return "press_up"
	case Click:
		return "click"
	case LongPress:
		return "long_press"
	}
	return "unknown"
}

type State uint8

const (
	Idle State = iota
	Pressed
	LongPressFired
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Pressed:
		return "pressed"
	case LongPressFired:
		return "long_press_fired"
	}
	return "unknown"
}

// Config is fixed once the machine is built.
type Config struct {
	Name      string
	Pin       int
	ActiveLow bool
	Debounce  time.Duration
	LongPress time.Duration
}

// Line is the sampled input.
type Line interface {
	Get() bool
}

type Event struct {
	Button string
	Kind   Kind
	TS     time.Time
}

// Machine is one button. Handlers and the observer run on the sampling
// goroutine and must not block.
type Machine struct {
	cfg  Config
	line Line

	handlers [numKinds]func()
	observer func(Event)
	sealed   atomic.Bool // set by the first sample
	running  atomic.Bool

	// Owned by the sampling path.
	state     State
	stable    bool // debounced asserted level
	pending   bool
	cand      bool
	candSince time.Time
	pressedAt time.Time
}

func New(cfg Config, line Line) *Machine {
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if cfg.LongPress <= 0 {
		cfg.LongPress = DefaultLongPress
	}
	return &Machine{cfg: cfg, line: line}
}

func (m *Machine) Name() string   { return m.cfg.Name }
func (m *Machine) Config() Config { return m.cfg }

func (m *Machine) OnPressDown(fn func()) { m.on(PressDown, fn) }
func (m *Machine) OnPressUp(fn func())   { m.on(PressUp, fn) }
func (m *Machine) OnClick(fn func())     { m.on(Click, fn) }
func (m *Machine) OnLongPress(fn func()) { m.on(LongPress, fn) }

// Observe sets a function that sees every event after its handler ran.
func (m *Machine) Observe(fn func(Event)) {
	m.mustNotBeStarted()
	m.observer = fn
}

func (m *Machine) on(k Kind, fn func()) {
	m.mustNotBeStarted()
	m.handlers[k] = fn
}

func (m *Machine) mustNotBeStarted() {
	if m.sealed.Load() {
		panic("button: handlers must be registered before sampling starts")
	}
}

// State is the current press state. Only meaningful from the sampling
// goroutine or once it has stopped.
func (m *Machine) State() State { return m.state }

// PollInterval is the sampling period used by Start.
func PollInterval(cfg Config) time.Duration {
	d := cfg.Debounce / 2
	if d < time.Millisecond {
		d = time.Millisecond
	}
	return d
}

// Start samples the line until ctx is cancelled. It may be called once.
func (m *Machine) Start(ctx context.Context) {
	if m.running.Swap(true) {
		panic("button: already started")
	}
	m.sealed.Store(true)
	go func() {
		t := time.NewTicker(PollInterval(m.cfg))
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-t.C:
				m.Step(m.line.Get(), now)
			}
		}
	}()
}

// Step feeds one raw sample taken at now. It must not be called
// concurrently with itself or with a running Start.
func (m *Machine) Step(level bool, now time.Time) {
	if !m.sealed.Load() {
		m.sealed.Store(true)
	}
	asserted := level != m.cfg.ActiveLow

	switch {
	case asserted == m.stable:
		m.pending = false
	case !m.pending || m.cand != asserted:
		m.pending = true
		m.cand = asserted
		m.candSince = now
	}

	if m.state == Pressed {
		// A release still inside its debounce window ends the hold at its
		// first edge.
		heldUntil := now
		if m.pending && !m.cand {
			heldUntil = m.candSince
		}
		if heldUntil.Sub(m.pressedAt) >= m.cfg.LongPress {
			m.state = LongPressFired
			m.fire(LongPress, now)
		}
	}

	if !m.pending || now.Sub(m.candSince) < m.cfg.Debounce {
		return
	}
	m.pending = false
	m.stable = m.cand

	if m.stable {
		m.state = Pressed
		m.pressedAt = now
		m.fire(PressDown, now)
		return
	}
	switch m.state {
	case Pressed:
		m.state = Idle
		m.fire(PressUp, now)
		m.fire(Click, now)
	case LongPressFired:
		m.state = Idle
		m.fire(PressUp, now)
	}
}

func (m *Machine) fire(k Kind, now time.Time) {
	if h := m.handlers[k]; h != nil {
		h()
	}
	if m.observer != nil {
		m.observer(Event{Button: m.cfg.Name, Kind: k, TS: now})
	}
}
