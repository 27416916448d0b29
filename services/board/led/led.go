// Package led drives the board's single status LED from application
// device states.
package led

import (
	"context"
	"sync"
	"time"

	"boardcode-go/errcode"
	"boardcode-go/services/board/platform"
	"boardcode-go/types"
	"boardcode-go/x/timex"
)

// Led is the status indicator handed to the application.
type Led interface {
	OnStateChanged(st types.DeviceState)
}

// Pattern is steady (BlinkHz == 0) or a square wave at BlinkHz.
type Pattern struct {
	On      bool
	BlinkHz uint32
}

var (
	Off   = Pattern{}
	On    = Pattern{On: true}
	Blink = Pattern{On: true, BlinkHz: 5}
)

// PatternFor maps a device state to what the LED shows.
func PatternFor(st types.DeviceState) Pattern {
	switch st {
	case types.StateStarting, types.StateConnecting, types.StateUpgrading:
		return Blink
	case types.StateListening, types.StateSpeaking:
		return On
	default:
		return Off
	}
}

// Single is one GPIO-driven LED.
type Single struct {
	pin       platform.GPIOPin
	activeLow bool

	mu  sync.Mutex
	pat Pattern
	lit bool

	wake chan struct{}
}

var _ Led = (*Single)(nil)

func NewSingle(pin platform.GPIOPin, activeLow bool) (*Single, error) {
	if pin == nil {
		return nil, errcode.UnknownPin
	}
	if err := pin.ConfigureOutput(activeLow); err != nil {
		return nil, errcode.Wrap(errcode.PinInUse, "led", err)
	}
	return &Single{pin: pin, activeLow: activeLow, wake: make(chan struct{}, 1)}, nil
}

func (s *Single) OnStateChanged(st types.DeviceState) { s.Set(PatternFor(st)) }

// Set applies p at once; blinking continues under Run.
func (s *Single) Set(p Pattern) {
	s.mu.Lock()
	s.pat = p
	s.drive(p.On)
	s.mu.Unlock()
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Single) Pattern() Pattern {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pat
}

// Lit reports the logical LED level.
func (s *Single) Lit() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lit
}

// drive must be called with mu held.
func (s *Single) drive(on bool) {
	s.lit = on
	s.pin.Set(on != s.activeLow)
}

// Run toggles the LED for blinking patterns until ctx is cancelled.
func (s *Single) Run(ctx context.Context) {
	t := time.NewTimer(time.Hour)
	defer t.Stop()
	for {
		p := s.Pattern()
		if p.BlinkHz > 0 {
			t.Reset(timex.HalfPeriod(p.BlinkHz))
		} else {
			t.Stop()
		}
		select {
		case <-ctx.Done():
			return
		case <-s.wake:
		case <-t.C:
			s.mu.Lock()
			if s.pat.BlinkHz > 0 {
				s.lit = !s.lit
				s.pin.Toggle()
			}
			s.mu.Unlock()
		}
	}
}

// Nop is used when the LED pin could not be claimed.
type Nop struct{}

func (Nop) OnStateChanged(types.DeviceState) {}
