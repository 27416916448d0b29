//go:build !rp2040 && !rp2350

package panel

import "image/color"

// frameController emits the SSD1306 I²C framing the vendor driver uses
// (0x00-prefixed commands, one 0x40-prefixed page-ordered data frame), so
// host buses see the same traffic as hardware. The vendor package itself
// imports machine and cannot build here.
type frameController struct {
	io     *IO
	addr   uint16
	width  int16
	height int16
	buf    []byte
}

func newController(io *IO) controller { return &frameController{io: io, addr: io.Addr()} }

func (c *frameController) cmd(bs ...uint8) {
	for _, b := range bs {
		_ = c.io.Command(b)
	}
}

func (c *frameController) configure(width, height int16, addr uint16) {
	c.width, c.height, c.addr = width, height, addr
	// buf[0] is the data control byte.
	c.buf = make([]byte, 1+int(width)*int(height)/8)
	c.buf[0] = 0x40

	compins, contrast := uint8(0x12), uint8(0xCF)
	if height == 32 {
		compins, contrast = 0x02, 0x8F
	}
	c.cmd(
		cmdDisplayOff,
		0xD5, 0x80, // clock divide
		0xA8, uint8(height-1), // multiplex
		0xD3, 0x00, // display offset
		0x40,       // start line 0
		0x8D, 0x14, // charge pump on
		0x20, 0x00, // horizontal addressing
		0xA0, 0xC0, // native segment and COM scan order
		0xDA, compins,
		0x81, contrast,
		0xD9, 0xF1, // precharge
		0xDB, 0x40, // VCOM detect
		0xA4, 0xA6, 0x2E,
		cmdDisplayOn,
	)
}

func (c *frameController) sleep(on bool) {
	if on {
		c.cmd(cmdDisplayOff)
	} else {
		c.cmd(cmdDisplayOn)
	}
}

func (c *frameController) clear() {
	for i := 1; i < len(c.buf); i++ {
		c.buf[i] = 0
	}
}

func (c *frameController) setPixel(x, y int16, v color.RGBA) {
	if x < 0 || x >= c.width || y < 0 || y >= c.height {
		return
	}
	i := 1 + int(x) + int(y/8)*int(c.width)
	if v.R != 0 || v.G != 0 || v.B != 0 {
		c.buf[i] |= 1 << uint8(y%8)
	} else {
		c.buf[i] &^= 1 << uint8(y%8)
	}
}

func (c *frameController) flush() error {
	c.cmd(0x21, 0, uint8(c.width-1), 0x22, 0, uint8(c.height/8-1))
	return c.io.Tx(c.addr, c.buf, nil)
}
