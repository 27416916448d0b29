package board

import (
	"context"

	"boardcode-go/bus"
	"boardcode-go/errcode"
	"boardcode-go/services/board/button"
	"boardcode-go/services/board/display"
	"boardcode-go/services/board/iot"
	"boardcode-go/services/board/panel"
	"boardcode-go/services/board/platform"
	"boardcode-go/types"
	"boardcode-go/x/logx"
	"boardcode-go/x/timex"
)

// Things registered on every board of this type.
var boardThings = []string{"Speaker", "Lamp"}

// Initialize brings the board up in a fixed order. Any returned error is
// fatal; a panel that fails to initialise only swaps in display.Null.
// ctx bounds the background loops started here and by the accessors.
func Initialize(ctx context.Context, prof Profile, deps Deps) (*CompactML307, error) {
	if deps.Platform.I2C == nil || deps.Platform.Pins == nil || deps.App == nil {
		return nil, &errcode.E{C: errcode.InvalidParams, Op: "board_init", Msg: "missing dependency"}
	}
	b := &CompactML307{prof: prof, deps: deps, ctx: ctx}
	if deps.Bus != nil {
		b.conn = deps.Bus.NewConnection(tag)
	}

	if err := b.initDisplayBus(); err != nil {
		return nil, err
	}
	if err := b.initDisplay(); err != nil {
		return nil, err
	}
	// Handlers reach the display, so buttons come strictly after it.
	if err := b.initButtons(); err != nil {
		return nil, err
	}
	if err := b.initThings(); err != nil {
		return nil, err
	}
	b.publishState()
	return b, nil
}

// MustInitialize is Initialize for firmware entry points: a fatal fault
// is logged and the process stops.
func MustInitialize(ctx context.Context, prof Profile, deps Deps) *CompactML307 {
	b, err := Initialize(ctx, prof, deps)
	if err != nil {
		logx.E(tag, "bring-up failed:", err.Error())
		panic(err)
	}
	return b
}

func (b *CompactML307) initDisplayBus() error {
	i2c, err := b.deps.Platform.I2C.NewBus(b.prof.Bus)
	if err != nil {
		return errcode.Wrap(errcode.BusCreate, "i2c_new_bus", err)
	}
	b.i2c = i2c
	return nil
}

func (b *CompactML307) initDisplay() error {
	io, err := panel.NewIO(b.i2c, b.prof.PanelIO)
	if err != nil {
		return errcode.Wrap(errcode.PanelIOCreate, "panel_io", err)
	}
	b.panelIO = io

	logx.I(tag, "install SSD1306 driver")
	p, err := panel.NewSSD1306(io, b.prof.Panel)
	if err != nil {
		return errcode.Wrap(errcode.PanelCreate, "panel_new", err)
	}
	logx.I(tag, "SSD1306 driver installed")

	if err := p.Reset(); err != nil {
		return errcode.Wrap(errcode.PanelReset, "panel_reset", err)
	}
	if err := p.Init(); err != nil {
		b.degraded = errcode.Wrap(errcode.PanelInit, "panel_init", err)
		logx.E(tag, "failed to initialize display:", err.Error())
		b.display = display.Null{}
		return nil
	}

	logx.I(tag, "turning display on")
	if err := p.PowerOn(); err != nil {
		return errcode.Wrap(errcode.PanelPower, "panel_on", err)
	}
	b.panel = p

	g := b.prof.Display
	oled := display.NewOLED(p, g.Width, g.Height, g.MirrorX, g.MirrorY, display.DefaultFonts())
	go oled.Run(b.ctx)
	b.display = oled
	return nil
}

func (b *CompactML307) initButtons() error {
	cfgs := []button.Config{b.prof.Boot, b.prof.Touch, b.prof.VolumeUp, b.prof.VolumeDown}
	ms := make([]*button.Machine, 0, len(cfgs))
	for _, cfg := range cfgs {
		pin, ok := b.deps.Platform.Pins.ByNumber(cfg.Pin)
		if !ok {
			return &errcode.E{C: errcode.UnknownPin, Op: "button", Msg: cfg.Name}
		}
		pull := platform.PullDown
		if cfg.ActiveLow {
			pull = platform.PullUp
		}
		if err := pin.ConfigureInput(pull); err != nil {
			return &errcode.E{C: errcode.PinInUse, Op: "button", Msg: cfg.Name, Err: err}
		}
		ms = append(ms, button.New(cfg, pin))
	}
	b.buttons = ms

	b.wireHandlers()
	for _, m := range ms {
		m.Observe(b.publishButtonEvent)
		m.Start(b.ctx)
	}
	return nil
}

func (b *CompactML307) initThings() error {
	b.things = iot.NewRegistry(b.conn)
	for _, name := range boardThings {
		d, err := iot.CreateThing(name)
		if err != nil {
			return err
		}
		if err := b.things.AddThing(d); err != nil {
			return err
		}
	}
	return nil
}

// ButtonEventTopic is where button events are mirrored.
func ButtonEventTopic(name string, k button.Kind) bus.Topic {
	return bus.T("board", "button", name, "event", k.String())
}

func (b *CompactML307) publishButtonEvent(ev button.Event) {
	if b.conn == nil {
		return
	}
	payload := types.ButtonEvent{Button: ev.Button, Kind: ev.Kind.String(), TS: timex.Ms(ev.TS)}
	b.conn.Publish(b.conn.NewMessage(ButtonEventTopic(ev.Button, ev.Kind), payload, false))
}

// StateTopic carries the retained types.BoardState.
var StateTopic = bus.T("board", "state")

func (b *CompactML307) publishState() {
	st := types.BoardState{Level: "ready", Board: b.prof.Name, TS: timex.NowMs()}
	if b.degraded != nil {
		st.Level = "degraded"
		st.Status = "display_unavailable"
	}
	logx.I(tag, b.prof.Name, st.Level)
	if b.conn != nil {
		b.conn.Publish(b.conn.NewMessage(StateTopic, st, true))
	}
}
