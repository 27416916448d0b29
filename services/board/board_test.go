package board

import (
	"context"
	"errors"
	"io"
	"os"
	"sync"
	"testing"
	"time"

	"boardcode-go/bus"
	"boardcode-go/errcode"
	"boardcode-go/services/board/app"
	"boardcode-go/services/board/display"
	"boardcode-go/services/board/iot"
	"boardcode-go/services/board/platform"
	"boardcode-go/types"
	"boardcode-go/x/logx"
)

func TestMain(m *testing.M) {
	logx.SetOutput(io.Discard)
	os.Exit(m.Run())
}

type recApp struct {
	mu    sync.Mutex
	calls []string
}

func (a *recApp) add(s string) {
	a.mu.Lock()
	a.calls = append(a.calls, s)
	a.mu.Unlock()
}

func (a *recApp) ToggleChatState() { a.add("toggle") }
func (a *recApp) StartListening()  { a.add("start") }
func (a *recApp) StopListening()   { a.add("stop") }

func (a *recApp) snapshot() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.calls...)
}

type rig struct {
	i2c  *platform.HostI2CFactory
	pins *platform.HostPinFactory
	app  *recApp
	bus  *bus.Bus
	deps Deps
}

func newRig() *rig {
	r := &rig{
		i2c:  &platform.HostI2CFactory{},
		pins: &platform.HostPinFactory{},
		app:  &recApp{},
		bus:  bus.NewBus(16),
	}
	r.deps = Deps{
		Platform: platform.Factories{I2C: r.i2c, Pins: r.pins, UART: &platform.HostUARTFactory{}},
		App:      r.app,
		Bus:      r.bus,
	}
	return r
}

// fastProfile shortens button timing so real-time tests stay quick.
func fastProfile() Profile {
	p := CompactML307Profile()
	for _, c := range []*struct{ d, l *time.Duration }{
		{&p.Boot.Debounce, &p.Boot.LongPress},
		{&p.Touch.Debounce, &p.Touch.LongPress},
		{&p.VolumeUp.Debounce, &p.VolumeUp.LongPress},
		{&p.VolumeDown.Debounce, &p.VolumeDown.LongPress},
	} {
		*c.d = 4 * time.Millisecond
		*c.l = 150 * time.Millisecond
	}
	return p
}

func (r *rig) start(t *testing.T, prof Profile) *CompactML307 {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	b, err := Initialize(ctx, prof, r.deps)
	if err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	return b
}

// press holds an active-low button down for d.
func (r *rig) press(t *testing.T, pinN int, d time.Duration) {
	t.Helper()
	p, ok := r.pins.Get(pinN)
	if !ok {
		t.Fatalf("pin %d not claimed", pinN)
	}
	p.Set(false)
	time.Sleep(d)
	p.Set(true)
}

func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timeout waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func retained(t *testing.T, b *bus.Bus, topic bus.Topic) any {
	t.Helper()
	sub := b.NewConnection("probe").Subscribe(topic)
	select {
	case m := <-sub.Channel():
		return m.Payload
	case <-time.After(200 * time.Millisecond):
		t.Fatalf("nothing retained at %v", topic)
	}
	return nil
}

func TestBringUpReady(t *testing.T) {
	r := newRig()
	b := r.start(t, fastProfile())

	if _, ok := b.GetDisplay().(*display.OLED); !ok {
		t.Fatalf("display is %T, want *display.OLED", b.GetDisplay())
	}
	if b.Degraded() != nil {
		t.Fatalf("unexpected degraded: %v", b.Degraded())
	}
	if r.pins.Claimed() != 4 {
		t.Fatalf("claimed %d pins, want 4 buttons", r.pins.Claimed())
	}
	st, _ := retained(t, r.bus, StateTopic).(types.BoardState)
	if st.Level != "ready" || st.Board != "compact-ml307" {
		t.Fatalf("board state %+v", st)
	}
	for _, name := range []string{"Speaker", "Lamp"} {
		if _, ok := b.Things().Get(name); !ok {
			t.Fatalf("thing %s missing", name)
		}
		if d, _ := retained(t, r.bus, iot.DescriptorTopic(name)).(types.ThingDescriptor); d.Name != name {
			t.Fatalf("descriptor for %s: %+v", name, d)
		}
	}
}

func TestPanelInitFailureFallsBackToNullDisplay(t *testing.T) {
	r := newRig()
	// Reset's single command is acked; everything after it fails.
	r.i2c.Prepare = func(h *platform.HostI2C) { h.FailFrom = 1 }
	b := r.start(t, fastProfile())

	if _, ok := b.GetDisplay().(display.Null); !ok {
		t.Fatalf("display is %T, want display.Null", b.GetDisplay())
	}
	if !errcode.IsDegraded(b.Degraded()) || errcode.Of(b.Degraded()) != errcode.PanelInit {
		t.Fatalf("degraded = %v", b.Degraded())
	}
	b.GetDisplay().ShowNotification("Volume 50")

	if r.pins.Claimed() != 4 {
		t.Fatal("buttons must still be wired after a display fault")
	}
	st, _ := retained(t, r.bus, StateTopic).(types.BoardState)
	if st.Level != "degraded" || st.Status != "display_unavailable" {
		t.Fatalf("board state %+v", st)
	}

	// Handlers keep working against the Null display.
	r.press(t, b.prof.VolumeUp.Pin, 40*time.Millisecond)
	eventually(t, "volume step", func() bool { return b.GetAudioCodec().OutputVolume() == 80 })
}

func TestFatalFaultsAbortBeforeButtons(t *testing.T) {
	cases := []struct {
		name string
		arm  func(*rig)
		prof func(*Profile)
		want errcode.Code
	}{
		{"bus create", func(r *rig) { r.i2c.FailCreate = errors.New("no controller") }, nil, errcode.BusCreate},
		{"panel io", nil, func(p *Profile) { p.PanelIO.Addr = 0 }, errcode.PanelIOCreate},
		{"panel create", nil, func(p *Profile) { p.Panel.Height = 48 }, errcode.PanelCreate},
		{"panel reset", func(r *rig) { r.i2c.Prepare = func(h *platform.HostI2C) { h.FailFrom = 0 } }, nil, errcode.PanelReset},
		{"panel power", func(r *rig) {
			// Init's own display-on passes; the one from PowerOn is refused.
			r.i2c.Prepare = func(h *platform.HostI2C) {
				ons := 0
				h.Fail = func(_ uint16, w []byte) error {
					if len(w) == 2 && w[0] == 0x00 && w[1] == 0xAF {
						ons++
						if ons > 1 {
							return platform.ErrNack
						}
					}
					return nil
				}
			}
		}, nil, errcode.PanelPower},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newRig()
			if tc.arm != nil {
				tc.arm(r)
			}
			prof := fastProfile()
			if tc.prof != nil {
				tc.prof(&prof)
			}
			b, err := Initialize(context.Background(), prof, r.deps)
			if b != nil || err == nil {
				t.Fatal("expected bring-up to fail")
			}
			if errcode.Of(err) != tc.want || !errcode.IsFatal(err) {
				t.Fatalf("err = %v, want fatal %s", err, tc.want)
			}
			if r.pins.Claimed() != 0 {
				t.Fatalf("%d pins claimed before abort", r.pins.Claimed())
			}
		})
	}
}

func TestMustInitializePanicsOnBusFailure(t *testing.T) {
	r := newRig()
	r.i2c.FailCreate = errors.New("no controller")
	defer func() {
		rec := recover()
		err, _ := rec.(error)
		if errcode.Of(err) != errcode.BusCreate {
			t.Fatalf("recovered %v", rec)
		}
		if r.pins.Claimed() != 0 {
			t.Fatal("buttons wired before abort")
		}
	}()
	MustInitialize(context.Background(), fastProfile(), r.deps)
}

func TestVolumeStepPolicy(t *testing.T) {
	r := newRig()
	b := r.start(t, fastProfile())
	oled := b.GetDisplay().(*display.OLED)
	codec := b.GetAudioCodec()

	for v := 0; v <= 100; v++ {
		codec.SetOutputVolume(v)
		b.stepVolume(10)
		want := min(v+10, 100)
		if codec.OutputVolume() != want || oled.Notification() != VolumeNotice(want) {
			t.Fatalf("up from %d: volume %d, notice %q", v, codec.OutputVolume(), oled.Notification())
		}

		codec.SetOutputVolume(v)
		b.stepVolume(-10)
		want = max(v-10, 0)
		if codec.OutputVolume() != want || oled.Notification() != VolumeNotice(want) {
			t.Fatalf("down from %d: volume %d, notice %q", v, codec.OutputVolume(), oled.Notification())
		}
	}
}

func TestVolumeUpClickAt95ShowsVolume100(t *testing.T) {
	r := newRig()
	b := r.start(t, fastProfile())
	oled := b.GetDisplay().(*display.OLED)
	b.GetAudioCodec().SetOutputVolume(95)

	r.press(t, b.prof.VolumeUp.Pin, 40*time.Millisecond)
	eventually(t, "Volume 100", func() bool { return oled.Notification() == "Volume 100" })
	if v := b.GetAudioCodec().OutputVolume(); v != 100 {
		t.Fatalf("volume %d", v)
	}
}

func TestVolumeDownClickAt5ShowsVolume0(t *testing.T) {
	r := newRig()
	b := r.start(t, fastProfile())
	oled := b.GetDisplay().(*display.OLED)
	b.GetAudioCodec().SetOutputVolume(5)

	r.press(t, b.prof.VolumeDown.Pin, 40*time.Millisecond)
	eventually(t, "Volume 0", func() bool { return oled.Notification() == "Volume 0" })
}

func TestLongPressJumpsToExtremes(t *testing.T) {
	r := newRig()
	b := r.start(t, fastProfile())
	oled := b.GetDisplay().(*display.OLED)
	codec := b.GetAudioCodec()

	codec.SetOutputVolume(50)
	r.press(t, b.prof.VolumeDown.Pin, 400*time.Millisecond)
	eventually(t, "Muted", func() bool { return oled.Notification() == NoticeMuted })
	time.Sleep(50 * time.Millisecond) // release settles; no click may follow
	if codec.OutputVolume() != 0 || oled.Notification() != NoticeMuted {
		t.Fatalf("after long down: volume %d, notice %q", codec.OutputVolume(), oled.Notification())
	}

	r.press(t, b.prof.VolumeUp.Pin, 400*time.Millisecond)
	eventually(t, "Max volume", func() bool { return oled.Notification() == NoticeMaxVolume })
	time.Sleep(50 * time.Millisecond)
	if codec.OutputVolume() != 100 || oled.Notification() != NoticeMaxVolume {
		t.Fatalf("after long up: volume %d, notice %q", codec.OutputVolume(), oled.Notification())
	}
}

func TestBootAndTouchDriveApplication(t *testing.T) {
	r := newRig()
	b := r.start(t, fastProfile())

	r.press(t, b.prof.Touch.Pin, 60*time.Millisecond)
	eventually(t, "touch release", func() bool { return len(r.app.snapshot()) == 2 })
	r.press(t, b.prof.Boot.Pin, 40*time.Millisecond)
	eventually(t, "boot click", func() bool { return len(r.app.snapshot()) == 3 })

	got := r.app.snapshot()
	if got[0] != "start" || got[1] != "stop" || got[2] != "toggle" {
		t.Fatalf("calls %v", got)
	}
}

func TestButtonEventsAreMirrored(t *testing.T) {
	r := newRig()
	b := r.start(t, fastProfile())
	sub := r.bus.NewConnection("probe").Subscribe(bus.T("board", "button", ButtonBoot, "event", "#"))

	r.press(t, b.prof.Boot.Pin, 40*time.Millisecond)
	var kinds []string
	deadline := time.After(time.Second)
	for len(kinds) < 3 {
		select {
		case m := <-sub.Channel():
			kinds = append(kinds, m.Payload.(types.ButtonEvent).Kind)
		case <-deadline:
			t.Fatalf("events so far %v", kinds)
		}
	}
	if kinds[0] != "press_down" || kinds[1] != "press_up" || kinds[2] != "click" {
		t.Fatalf("kinds %v", kinds)
	}
}

func TestAccessorsReturnOneInstance(t *testing.T) {
	r := newRig()
	b := r.start(t, fastProfile())

	const n = 16
	type got struct {
		led, codec, disp, xport any
	}
	res := make([]got, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res[i] = got{b.GetLed(), b.GetAudioCodec(), b.GetDisplay(), b.GetTransport()}
		}(i)
	}
	wg.Wait()
	for i := 1; i < n; i++ {
		if res[i] != res[0] {
			t.Fatalf("call %d returned different instances", i)
		}
	}
	if b.GetAudioCodec() != res[0].codec || b.GetLed() != res[0].led {
		t.Fatal("later calls returned different instances")
	}
}

func TestControlPlane(t *testing.T) {
	r := newRig()
	b := r.start(t, fastProfile())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := b.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	c := r.bus.NewConnection("client")
	ask := func(topic bus.Topic, payload any) any {
		t.Helper()
		rctx, rcancel := context.WithTimeout(ctx, time.Second)
		defer rcancel()
		rep, err := c.RequestWait(rctx, c.NewMessage(topic, payload, false))
		if err != nil {
			t.Fatalf("request %v: %v", topic, err)
		}
		return rep.Payload
	}

	if v := ask(SetVolumeTopic, types.SetVolume{Volume: 142}); v != (types.VolumeValue{Volume: 100}) {
		t.Fatalf("set_volume reply %#v", v)
	}
	if v := ask(GetVolumeTopic, nil); v != (types.VolumeValue{Volume: 100}) {
		t.Fatalf("get_volume reply %#v", v)
	}
	if v := ask(SetVolumeTopic, "loud"); v != (types.ErrorReply{Error: string(errcode.InvalidPayload)}) {
		t.Fatalf("bad payload reply %#v", v)
	}
	if v := ask(NotifyTopic, types.Notify{Text: "Hello"}); v != (types.OKReply{OK: true}) {
		t.Fatalf("notify reply %#v", v)
	}
	if got := b.GetDisplay().(*display.OLED).Notification(); got != "Hello" {
		t.Fatalf("notification %q", got)
	}

	c.Publish(c.NewMessage(app.StateTopic, types.StateListening, true))
	eventually(t, "LED on", func() bool {
		p, ok := r.pins.Get(b.prof.LEDPin)
		return ok && p.Get()
	})
}

func TestStartWithoutBus(t *testing.T) {
	r := newRig()
	r.deps.Bus = nil
	b := r.start(t, fastProfile())
	if err := b.Start(context.Background()); errcode.Of(err) != errcode.Unsupported {
		t.Fatalf("Start without bus: %v", err)
	}
}
