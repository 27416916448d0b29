package display

import (
	"image/color"

	"tinygo.org/x/drivers"
)

// Canvas is a Displayer whose frame buffer can be cleared before redraw.
type Canvas interface {
	drivers.Displayer
	ClearBuffer()
}

// mirrored flips coordinates on the way to the panel. The controller keeps
// its native scan order; mounting orientation is a board property.
type mirrored struct {
	Canvas
	w, h   int16
	mx, my bool
}

func mirror(c Canvas, mx, my bool) Canvas {
	if !mx && !my {
		return c
	}
	w, h := c.Size()
	return &mirrored{Canvas: c, w: w, h: h, mx: mx, my: my}
}

func (m *mirrored) SetPixel(x, y int16, c color.RGBA) {
	if m.mx {
		x = m.w - 1 - x
	}
	if m.my {
		y = m.h - 1 - y
	}
	m.Canvas.SetPixel(x, y, c)
}
