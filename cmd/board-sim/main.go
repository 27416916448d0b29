//go:build !rp2040 && !rp2350

// board-sim runs the board on host fakes and drives it from stdin or a
// YAML script:
//
//	click volume_up
//	hold volume_down 1500
//	volume 95
//	notify "hello there"
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"boardcode-go/bus"
	"boardcode-go/services/board"
	"boardcode-go/services/board/app"
	"boardcode-go/services/board/platform"
	"boardcode-go/types"
	"boardcode-go/x/logx"

	"github.com/google/shlex"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Script is a list of commands run before stdin is read.
type Script struct {
	Steps []string `yaml:"steps"`
}

type sim struct {
	prof board.Profile
	pins *platform.HostPinFactory
	b    *board.CompactML307
	svc  *app.Service
	conn *bus.Connection
	out  io.Writer
}

func main() {
	_ = godotenv.Load() // optional .env with BOARDSIM_* defaults

	failPanel := flag.Bool("fail-panel", envBool("BOARDSIM_FAIL_PANEL"), "make panel init fail (Null display)")
	script := flag.String("script", os.Getenv("BOARDSIM_SCRIPT"), "YAML script to run first")
	debug := flag.Bool("debug", envBool("BOARDSIM_DEBUG"), "debug logging")
	flag.Parse()
	if *debug {
		logx.SetLevel(logx.LevelDebug)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s, err := start(ctx, *failPanel, os.Stdout)
	if err != nil {
		fmt.Fprintln(os.Stderr, "bring-up:", err)
		os.Exit(1)
	}
	if *script != "" {
		if err := s.runScript(ctx, *script); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
	sc := bufio.NewScanner(os.Stdin)
	for sc.Scan() {
		if err := s.exec(ctx, sc.Text()); err != nil {
			fmt.Fprintln(s.out, "error:", err)
		}
	}
}

func envBool(k string) bool {
	v, _ := strconv.ParseBool(os.Getenv(k))
	return v
}

func start(ctx context.Context, failPanel bool, out io.Writer) (*sim, error) {
	b := bus.NewBus(32)
	i2c := &platform.HostI2CFactory{}
	if failPanel {
		i2c.Prepare = func(h *platform.HostI2C) { h.FailFrom = 1 }
	}
	pins := &platform.HostPinFactory{}

	svc := app.NewService(b.NewConnection("app"))
	svc.Start(ctx)

	prof := board.CompactML307Profile()
	brd, err := board.Initialize(ctx, prof, board.Deps{
		Platform: platform.Factories{I2C: i2c, Pins: pins, UART: &platform.HostUARTFactory{}},
		App:      app.NewBusClient(b.NewConnection("buttons")),
		Bus:      b,
	})
	if err != nil {
		return nil, err
	}
	if err := brd.Start(ctx); err != nil {
		return nil, err
	}

	s := &sim{prof: prof, pins: pins, b: brd, svc: svc, conn: b.NewConnection("sim"), out: out}
	s.watch(ctx)
	return s, nil
}

func (s *sim) runScript(ctx context.Context, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var sc Script
	if err := yaml.Unmarshal(raw, &sc); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	for i, step := range sc.Steps {
		if err := s.exec(ctx, step); err != nil {
			return fmt.Errorf("%s step %d (%q): %w", path, i+1, step, err)
		}
	}
	return nil
}

// watch prints button events and application state changes in the
// background. Subscriptions exist when it returns.
func (s *sim) watch(ctx context.Context) {
	btn := s.conn.Subscribe(bus.T("board", "button", "#"))
	st := s.conn.Subscribe(app.StateTopic)
	go s.print(ctx, btn, st)
}

func (s *sim) print(ctx context.Context, btn, st *bus.Subscription) {
	for {
		select {
		case <-ctx.Done():
			return
		case m := <-btn.Channel():
			if ev, ok := m.Payload.(types.ButtonEvent); ok {
				fmt.Fprintf(s.out, "event %s %s\n", ev.Button, ev.Kind)
			}
		case m := <-st.Channel():
			fmt.Fprintf(s.out, "app state %v\n", m.Payload)
		}
	}
}

var errUsage = errors.New("usage: click|hold|down|up <button> [ms] | volume [n] | notify <text> | state <name> | sleep <ms> | status")

func (s *sim) exec(ctx context.Context, line string) error {
	args, err := shlex.Split(line)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return nil
	}
	switch cmd, rest := args[0], args[1:]; cmd {
	case "click":
		return s.pressFor(rest, 80*time.Millisecond)
	case "hold":
		return s.pressFor(rest, 1500*time.Millisecond)
	case "down", "up":
		if len(rest) != 1 {
			return errUsage
		}
		pin, err := s.pin(rest[0])
		if err != nil {
			return err
		}
		pin.Set(cmd == "up") // active low
		return nil
	case "volume":
		return s.volume(ctx, rest)
	case "notify":
		return s.request(ctx, board.NotifyTopic, types.Notify{Text: strings.Join(rest, " ")})
	case "state":
		if len(rest) != 1 {
			return errUsage
		}
		s.svc.SetState(types.DeviceState(rest[0]))
		return nil
	case "sleep":
		ms, err := msArg(rest, 0)
		if err != nil {
			return err
		}
		time.Sleep(ms)
		return nil
	case "status":
		fmt.Fprintf(s.out, "board %s audio %s volume %d degraded %v\n",
			s.prof.Name, board.AudioTopology, s.b.GetAudioCodec().OutputVolume(), s.b.Degraded() != nil)
		return nil
	default:
		return errUsage
	}
}

func (s *sim) pressFor(args []string, def time.Duration) error {
	if len(args) < 1 || len(args) > 2 {
		return errUsage
	}
	pin, err := s.pin(args[0])
	if err != nil {
		return err
	}
	d, err := msArg(args[1:], def)
	if err != nil {
		return err
	}
	pin.Set(false)
	time.Sleep(d)
	pin.Set(true)
	// Let the release debounce before the next command.
	time.Sleep(2 * s.prof.Boot.Debounce)
	return nil
}

func (s *sim) pin(name string) (*platform.FakePin, error) {
	m, ok := s.b.Button(name)
	if !ok {
		return nil, fmt.Errorf("unknown button %q", name)
	}
	p, ok := s.pins.Get(m.Config().Pin)
	if !ok {
		return nil, fmt.Errorf("button %q has no pin", name)
	}
	return p, nil
}

func msArg(args []string, def time.Duration) (time.Duration, error) {
	if len(args) == 0 {
		if def == 0 {
			return 0, errUsage
		}
		return def, nil
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 0 {
		return 0, errUsage
	}
	return time.Duration(n) * time.Millisecond, nil
}

func (s *sim) volume(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return s.request(ctx, board.GetVolumeTopic, nil)
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return errUsage
	}
	return s.request(ctx, board.SetVolumeTopic, types.SetVolume{Volume: n})
}

func (s *sim) request(ctx context.Context, topic bus.Topic, payload any) error {
	rctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	rep, err := s.conn.RequestWait(rctx, s.conn.NewMessage(topic, payload, false))
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "%+v\n", rep.Payload)
	return nil
}
