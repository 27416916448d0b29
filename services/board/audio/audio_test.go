package audio

import (
	"sync"
	"testing"
)

func TestVolumeClamps(t *testing.T) {
	c := NewDuplex(Rates{Input: 16000, Output: 24000}, DuplexPins{})
	if c.OutputVolume() != DefaultVolume {
		t.Fatalf("initial volume %d", c.OutputVolume())
	}
	cases := []struct{ from, delta, want int }{
		{95, 10, 100},
		{5, -10, 0},
		{50, 10, 60},
		{100, 10, 100},
		{0, -10, 0},
	}
	for _, tc := range cases {
		c.SetOutputVolume(tc.from)
		if got := c.AdjustOutputVolume(tc.delta); got != tc.want || c.OutputVolume() != tc.want {
			t.Fatalf("%d%+d: got %d (stored %d), want %d", tc.from, tc.delta, got, c.OutputVolume(), tc.want)
		}
	}
	c.SetOutputVolume(250)
	if c.OutputVolume() != MaxVolume {
		t.Fatalf("SetOutputVolume not clamped: %d", c.OutputVolume())
	}
}

func TestConcurrentAdjustLosesNothing(t *testing.T) {
	c := NewSimplex(Rates{Input: 16000, Output: 24000}, SimplexPins{})
	c.SetOutputVolume(50)
	var wg sync.WaitGroup
	for i := 0; i < 40; i++ {
		wg.Add(2)
		go func() { defer wg.Done(); c.AdjustOutputVolume(1) }()
		go func() { defer wg.Done(); c.AdjustOutputVolume(-1) }()
	}
	wg.Wait()
	if c.OutputVolume() != 50 {
		t.Fatalf("volume drifted to %d", c.OutputVolume())
	}
}

func TestTopologiesKeepTheirWiring(t *testing.T) {
	d := NewDuplex(Rates{16000, 24000}, DuplexPins{BCLK: 16, WS: 17, DOUT: 18, DIN: 19})
	if d.Pins().WS != 17 || d.InputSampleRate() != 16000 || d.OutputSampleRate() != 24000 {
		t.Fatalf("duplex: %+v", d.Pins())
	}
	s := NewSimplex(Rates{16000, 24000}, SimplexPins{SpkBCLK: 16, MicDIN: 21})
	if s.Pins().MicDIN != 21 {
		t.Fatalf("simplex: %+v", s.Pins())
	}
}
