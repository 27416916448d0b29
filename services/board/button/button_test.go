package button

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

const tick = 5 * time.Millisecond

type recorder struct {
	mu     sync.Mutex
	events []Kind
}

func (r *recorder) add(k Kind) func() {
	return func() {
		r.mu.Lock()
		r.events = append(r.events, k)
		r.mu.Unlock()
	}
}

func (r *recorder) count(k Kind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e == k {
			n++
		}
	}
	return n
}

func (r *recorder) snapshot() []Kind {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Kind(nil), r.events...)
}

func newRecorded(cfg Config) (*Machine, *recorder) {
	m := New(cfg, nil)
	r := &recorder{}
	m.OnPressDown(r.add(PressDown))
	m.OnPressUp(r.add(PressUp))
	m.OnClick(r.add(Click))
	m.OnLongPress(r.add(LongPress))
	return m, r
}

var baseCfg = Config{Name: "boot", Debounce: 30 * time.Millisecond, LongPress: time.Second}

// hold samples level every tick for d and returns the end time.
func hold(m *Machine, level bool, t time.Time, d time.Duration) time.Time {
	end := t.Add(d)
	for ; t.Before(end); t = t.Add(tick) {
		m.Step(level, t)
	}
	return t
}

func equalKinds(a, b []Kind) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestShortPressIsClick(t *testing.T) {
	m, r := newRecorded(baseCfg)
	now := time.Unix(0, 0)
	now = hold(m, false, now, 100*time.Millisecond)
	now = hold(m, true, now, 200*time.Millisecond)
	if m.State() != Pressed {
		t.Fatalf("state %s, want pressed", m.State())
	}
	hold(m, false, now, 100*time.Millisecond)

	want := []Kind{PressDown, PressUp, Click}
	if got := r.snapshot(); !equalKinds(got, want) {
		t.Fatalf("events %v, want %v", got, want)
	}
	if m.State() != Idle {
		t.Fatalf("state %s, want idle", m.State())
	}
}

func TestLongHoldFiresLongPressOnce(t *testing.T) {
	m, r := newRecorded(baseCfg)
	now := time.Unix(0, 0)
	now = hold(m, true, now, 5*time.Second) // far past the threshold
	if m.State() != LongPressFired {
		t.Fatalf("state %s, want long_press_fired", m.State())
	}
	hold(m, false, now, 100*time.Millisecond)

	want := []Kind{PressDown, LongPress, PressUp}
	if got := r.snapshot(); !equalKinds(got, want) {
		t.Fatalf("events %v, want %v", got, want)
	}
}

func TestClickAndLongPressAreExclusive(t *testing.T) {
	durations := []time.Duration{
		40 * time.Millisecond, 200 * time.Millisecond, 900 * time.Millisecond,
		990 * time.Millisecond, 1100 * time.Millisecond, 3 * time.Second,
	}
	for _, d := range durations {
		m, r := newRecorded(baseCfg)
		now := time.Unix(0, 0)
		now = hold(m, true, now, d)
		hold(m, false, now, 100*time.Millisecond)

		clicks, longs := r.count(Click), r.count(LongPress)
		if clicks+longs != 1 {
			t.Fatalf("hold %v: clicks=%d long=%d", d, clicks, longs)
		}
		// Press is accepted one debounce window after the edge.
		wantLong := d-baseCfg.Debounce >= baseCfg.LongPress
		if (longs == 1) != wantLong {
			t.Fatalf("hold %v: long press fired=%v, want %v", d, longs == 1, wantLong)
		}
		if r.count(PressDown) != 1 || r.count(PressUp) != 1 {
			t.Fatalf("hold %v: unpaired down/up in %v", d, r.snapshot())
		}
	}
}

func TestRepeatedPressesStayPaired(t *testing.T) {
	m, r := newRecorded(baseCfg)
	now := time.Unix(0, 0)
	for i := 0; i < 20; i++ {
		d := time.Duration(50+i*97) * time.Millisecond
		now = hold(m, true, now, d)
		now = hold(m, false, now, 60*time.Millisecond)
	}
	depth := 0
	for _, k := range r.snapshot() {
		switch k {
		case PressDown:
			depth++
		case PressUp:
			depth--
		}
		if depth < 0 || depth > 1 {
			t.Fatalf("press_down/press_up out of order: %v", r.snapshot())
		}
	}
	if depth != 0 || r.count(PressDown) != 20 {
		t.Fatalf("got %d presses, depth %d", r.count(PressDown), depth)
	}
	if r.count(Click)+r.count(LongPress) != 20 {
		t.Fatalf("each cycle needs exactly one click or long press: %v", r.snapshot())
	}
}

func TestGlitchesShorterThanDebounceAreIgnored(t *testing.T) {
	m, r := newRecorded(baseCfg)
	now := time.Unix(0, 0)
	for i := 0; i < 50; i++ {
		now = hold(m, true, now, 20*time.Millisecond)
		now = hold(m, false, now, 40*time.Millisecond)
	}
	if got := r.snapshot(); len(got) != 0 {
		t.Fatalf("glitches produced events: %v", got)
	}
}

func TestReleaseGlitchDoesNotSplitPress(t *testing.T) {
	m, r := newRecorded(baseCfg)
	now := time.Unix(0, 0)
	now = hold(m, true, now, 300*time.Millisecond)
	now = hold(m, false, now, 10*time.Millisecond)
	now = hold(m, true, now, 300*time.Millisecond)
	hold(m, false, now, 100*time.Millisecond)

	want := []Kind{PressDown, PressUp, Click}
	if got := r.snapshot(); !equalKinds(got, want) {
		t.Fatalf("events %v, want %v", got, want)
	}
}

func TestReleaseJustBeforeThresholdIsClick(t *testing.T) {
	// The line drops before the threshold; the debounced release lands after it.
	m, r := newRecorded(baseCfg)
	now := time.Unix(0, 0)
	now = hold(m, true, now, baseCfg.Debounce+baseCfg.LongPress-10*time.Millisecond)
	hold(m, false, now, 100*time.Millisecond)
	if r.count(LongPress) != 0 || r.count(Click) != 1 {
		t.Fatalf("events %v", r.snapshot())
	}
}

func TestActiveLowLine(t *testing.T) {
	cfg := baseCfg
	cfg.ActiveLow = true
	m, r := newRecorded(cfg)
	now := time.Unix(0, 0)
	now = hold(m, true, now, 200*time.Millisecond) // idle high
	now = hold(m, false, now, 200*time.Millisecond)
	hold(m, true, now, 100*time.Millisecond)
	want := []Kind{PressDown, PressUp, Click}
	if got := r.snapshot(); !equalKinds(got, want) {
		t.Fatalf("events %v, want %v", got, want)
	}
}

func TestObserverSeesEventsAfterHandler(t *testing.T) {
	m := New(baseCfg, nil)
	var order []string
	m.OnClick(func() { order = append(order, "handler") })
	m.Observe(func(e Event) {
		if e.Kind == Click {
			order = append(order, "observer:"+e.Button)
		}
	})
	now := time.Unix(0, 0)
	now = hold(m, true, now, 100*time.Millisecond)
	hold(m, false, now, 100*time.Millisecond)
	if len(order) != 2 || order[0] != "handler" || order[1] != "observer:boot" {
		t.Fatalf("order %v", order)
	}
}

func TestRegistrationAfterSamplingPanics(t *testing.T) {
	m := New(baseCfg, nil)
	m.Step(false, time.Unix(0, 0))
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	m.OnClick(func() {})
}

func TestDefaultsAndPollInterval(t *testing.T) {
	m := New(Config{Name: "x"}, nil)
	if c := m.Config(); c.Debounce != DefaultDebounce || c.LongPress != DefaultLongPress {
		t.Fatalf("defaults not applied: %+v", c)
	}
	if got := PollInterval(baseCfg); got != 15*time.Millisecond {
		t.Fatalf("poll interval %v", got)
	}
	if got := PollInterval(Config{Debounce: time.Microsecond}); got != time.Millisecond {
		t.Fatalf("poll interval floor %v", got)
	}
}

type atomicLine struct{ v atomic.Bool }

func (l *atomicLine) Get() bool { return l.v.Load() }

func TestStartSamplesLine(t *testing.T) {
	line := &atomicLine{}
	m := New(Config{Name: "touch", Debounce: 4 * time.Millisecond, LongPress: time.Second}, line)
	down := make(chan struct{}, 1)
	up := make(chan struct{}, 1)
	m.OnPressDown(func() { down <- struct{}{} })
	m.OnPressUp(func() { up <- struct{}{} })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m.Start(ctx)

	line.v.Store(true)
	recvWithin(t, down, time.Second, "press_down")
	line.v.Store(false)
	recvWithin(t, up, time.Second, "press_up")
}

func recvWithin(t *testing.T, ch <-chan struct{}, d time.Duration, what string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(d):
		t.Fatalf("timeout waiting for %s", what)
	}
}
