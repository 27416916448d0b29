//go:build rp2040 || rp2350

package panel

import (
	"image/color"

	"tinygo.org/x/drivers"
	"tinygo.org/x/drivers/ssd1306"
)

type ssd1306Controller struct{ dev *ssd1306.Device }

func newController(io *IO) controller { return ssd1306Controller{dev: ssd1306.NewI2C(io)} }

func (c ssd1306Controller) configure(width, height int16, addr uint16) {
	c.dev.Configure(ssd1306.Config{
		Width:   width,
		Height:  height,
		Address: addr,
		// Mirroring is applied by the display layer; keep the native scan order.
		Rotation: drivers.Rotation180,
	})
}

func (c ssd1306Controller) sleep(on bool)                     { _ = c.dev.Sleep(on) }
func (c ssd1306Controller) clear()                            { c.dev.ClearBuffer() }
func (c ssd1306Controller) setPixel(x, y int16, v color.RGBA) { c.dev.SetPixel(x, y, v) }
func (c ssd1306Controller) flush() error                      { return c.dev.Display() }
