package display

import (
	"context"
	"image/color"
	"sync"
	"sync/atomic"
	"time"

	"boardcode-go/x/logx"

	"tinygo.org/x/tinyfont"
	"tinygo.org/x/tinyfont/proggy"
)

// NotificationTTL is how long a notification stays on screen.
const NotificationTTL = 3 * time.Second

var white = color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}

// FontSet picks the faces for the two lines.
type FontSet struct {
	Status       tinyfont.Fonter
	Notification tinyfont.Fonter
}

// DefaultFonts fits a status line and a ~20 character notification on a
// 128 pixel wide panel.
func DefaultFonts() FontSet {
	return FontSet{
		Status:       &tinyfont.TomThumb,
		Notification: &proggy.TinySZ8pt7b,
	}
}

// OLED renders onto a monochrome panel. Callers post text into a one-slot
// mailbox and return immediately; Run owns the panel.
type OLED struct {
	dst   Canvas
	w, h  int16
	fonts FontSet

	mu       sync.Mutex
	status   string
	note     string
	noteSet  bool // note posted since the last render
	noteSeen time.Time

	wake chan struct{}

	flushes   atomic.Uint32
	flushErrs atomic.Uint32

	now func() time.Time
}

var _ Display = (*OLED)(nil)

// NewOLED wraps a ready panel. width and height describe the drawable area
// and mirrorX/mirrorY the mounting orientation.
func NewOLED(panel Canvas, width, height int16, mirrorX, mirrorY bool, fonts FontSet) *OLED {
	if fonts.Status == nil || fonts.Notification == nil {
		d := DefaultFonts()
		if fonts.Status == nil {
			fonts.Status = d.Status
		}
		if fonts.Notification == nil {
			fonts.Notification = d.Notification
		}
	}
	return &OLED{
		dst:   mirror(panel, mirrorX, mirrorY),
		w:     width,
		h:     height,
		fonts: fonts,
		wake:  make(chan struct{}, 1),
		now:   time.Now,
	}
}

func (o *OLED) ShowNotification(text string) {
	o.mu.Lock()
	o.note = text
	o.noteSet = true
	o.mu.Unlock()
	o.poke()
}

func (o *OLED) SetStatus(text string) {
	o.mu.Lock()
	o.status = text
	o.mu.Unlock()
	o.poke()
}

func (o *OLED) poke() {
	select {
	case o.wake <- struct{}{}:
	default:
	}
}

// Notification returns the text currently shown (or pending) on the
// notification line.
func (o *OLED) Notification() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.note
}

// Flushes counts successful frame transfers.
func (o *OLED) Flushes() uint32 { return o.flushes.Load() }

// FlushErrors counts frames the panel refused.
func (o *OLED) FlushErrors() uint32 { return o.flushErrs.Load() }

// Run draws the current state whenever it changes and expires the
// notification line. It returns when ctx is cancelled.
func (o *OLED) Run(ctx context.Context) {
	expire := time.NewTimer(time.Hour)
	expire.Stop()
	defer expire.Stop()

	o.render()
	for {
		select {
		case <-ctx.Done():
			return
		case <-o.wake:
			if d, ok := o.render(); ok {
				expire.Reset(d)
			}
		case <-expire.C:
			o.render()
		}
	}
}

// render draws one frame. It reports the time left until the notification
// expires, if one is showing.
func (o *OLED) render() (time.Duration, bool) {
	now := o.now()

	o.mu.Lock()
	if o.noteSet {
		o.noteSet = false
		o.noteSeen = now
	}
	if o.note != "" && now.Sub(o.noteSeen) >= NotificationTTL {
		o.note = ""
	}
	status, note := o.status, o.note
	left := NotificationTTL - now.Sub(o.noteSeen)
	o.mu.Unlock()

	o.dst.ClearBuffer()
	if status != "" {
		o.line(o.fonts.Status, 0, 6, status)
	}
	if note != "" {
		o.line(o.fonts.Notification, 0, o.h/2+6, note)
	}
	if err := o.dst.Display(); err != nil {
		if o.flushErrs.Add(1) == 1 {
			logx.W("display", "flush failed:", err.Error())
		}
	} else {
		o.flushes.Add(1)
	}
	return left, note != ""
}

func (o *OLED) line(f tinyfont.Fonter, x, y int16, s string) {
	s = fit(f, s, int(o.w-x))
	tinyfont.WriteLine(o.dst, f, x, y, s, white)
}

// fit cuts s until it is no wider than max pixels.
func fit(f tinyfont.Fonter, s string, max int) string {
	r := []rune(s)
	for len(r) > 0 {
		if _, w := tinyfont.LineWidth(f, string(r)); int(w) <= max {
			break
		}
		r = r[:len(r)-1]
	}
	return string(r)
}
