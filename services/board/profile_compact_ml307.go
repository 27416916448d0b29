package board

import (
	"time"

	"boardcode-go/services/board/audio"
	"boardcode-go/services/board/button"
	"boardcode-go/services/board/panel"
	"boardcode-go/services/board/platform"
)

// Button names, also used in bus topics.
const (
	ButtonBoot       = "boot"
	ButtonTouch      = "touch"
	ButtonVolumeUp   = "volume_up"
	ButtonVolumeDown = "volume_down"
)

// Geometry is the drawable area and how the panel is mounted.
type Geometry struct {
	Width, Height    int16
	MirrorX, MirrorY bool
}

// Profile is the static wiring of one board SKU.
type Profile struct {
	Name string

	Bus     platform.I2CBusConfig
	PanelIO panel.IOConfig
	Panel   panel.Config
	Display Geometry

	Boot, Touch, VolumeUp, VolumeDown button.Config

	LEDPin       int
	LEDActiveLow bool

	Modem platform.UARTConfig

	AudioRates   audio.Rates
	AudioDuplex  audio.DuplexPins
	AudioSimplex audio.SimplexPins

	VolumeStep int
}

const (
	displayWidth  = 128
	displayHeight = 32

	debounce  = 30 * time.Millisecond
	longPress = time.Second
)

// CompactML307Profile is the breadboard build: SSD1306 on I²C0, four
// active-low buttons, ML307 cellular module on UART0 and a codec-less
// I²S microphone and amplifier.
func CompactML307Profile() Profile {
	btn := func(name string, pin int) button.Config {
		return button.Config{Name: name, Pin: pin, ActiveLow: true, Debounce: debounce, LongPress: longPress}
	}
	return Profile{
		Name: "compact-ml307",
		Bus: platform.I2CBusConfig{
			Port:              0,
			SDA:               4,
			SCL:               5,
			ClockSource:       platform.ClockDefault,
			PullUp:            true,
			GlitchIgnoreCount: 7,
			Hz:                400_000,
		},
		PanelIO: panel.IOConfig{
			Addr:              0x3C,
			ControlPhaseBytes: 1,
			DCBitOffset:       6,
			CmdBits:           8,
			ParamBits:         8,
			SCLHz:             400_000,
		},
		Panel: panel.Config{
			Width:        displayWidth,
			Height:       displayHeight,
			BitsPerPixel: 1,
			ResetPin:     -1,
		},
		Display: Geometry{Width: displayWidth, Height: displayHeight, MirrorX: true, MirrorY: true},

		Boot:       btn(ButtonBoot, 15),
		Touch:      btn(ButtonTouch, 14),
		VolumeUp:   btn(ButtonVolumeUp, 13),
		VolumeDown: btn(ButtonVolumeDown, 12),

		LEDPin: 25,

		Modem: platform.UARTConfig{Port: 0, TX: 0, RX: 1, Baud: 115200, RxBuffer: 4096},

		AudioRates:   audio.Rates{Input: 16000, Output: 24000},
		AudioDuplex:  audio.DuplexPins{BCLK: 16, WS: 17, DOUT: 18, DIN: 19},
		AudioSimplex: audio.SimplexPins{SpkBCLK: 16, SpkLRCK: 17, SpkDOUT: 18, MicSCK: 20, MicWS: 21, MicDIN: 19},

		VolumeStep: 10,
	}
}
