// Copyright (C) 2021  Antonio Lassandro

// This program is free software: you can redistribute it and/or modify it
// under the terms of the GNU General Public License as published by the Free
// Software Foundation, either version 3 of the License, or (at your option)
// any later version.

// This program is distributed in the hope that it will be useful, but WITHOUT
// ANY WARRANTY; without even the implied warranty of MERCHANTABILITY or
// FITNESS FOR A PARTICULAR PURPOSE.  See the GNU General Public License for
// more details.

// You should have received a copy of the GNU General Public License along
// with this program.  If not, see <http://www.gnu.org/licenses/>.

package devices

import (
	"time"

	"github.com/lassandro/godcpu/pkg/machine"
)

const (
	DISPLAY_WIDTH  = 128
	DISPLAY_HEIGHT = 96
	DISPLAY_COLS   = 32
	DISPLAY_ROWS   = 12
	GLYPH_WIDTH    = 4
	GLYPH_HEIGHT   = 8
)

const (
	DISPLAY_MAP_SCREEN   uint16 = 0
	DISPLAY_MAP_FONT     uint16 = 1
	DISPLAY_MAP_PALETTE  uint16 = 2
	DISPLAY_SET_BORDER   uint16 = 3
	DISPLAY_DUMP_FONT    uint16 = 4
	DISPLAY_DUMP_PALETTE uint16 = 5
)

// Sink receives every rendered frame as packed 0xRRGGBB pixels, row-major.
// The slice is reused by the next frame; a sink that keeps pixels past the
// call must copy them.
type Sink interface {
	Present(pixels []uint32, width int)
}

// Display is a LEM1802-compatible text-mode monitor with 32x12 cells of 4x8
// pixels.
type Display struct {
	Sink Sink

	// Now is the wall clock used for the blink phase. Nil selects time.Now.
	Now func() time.Time

	screen  uint16
	font    uint16
	palette uint16
	border  uint16
	pixels  []uint32
}

func NewDisplay(sink Sink) *Display {
	return &Display{Sink: sink}
}

func (dp *Display) Identity() machine.Identity {
	return machine.Identity{
		ID:           0x7349F615,
		Version:      0x1802,
		Manufacturer: 0x1C6C8B36,
	}
}

// Border returns the palette index of the border colour.
func (dp *Display) Border() uint16 {
	return dp.border
}

// BorderColor resolves the border palette index to 0xRRGGBB through the
// active palette.
func (dp *Display) BorderColor(mc *machine.Machine) uint32 {
	return dp.color(mc, dp.border)
}

func (dp *Display) Interrupt(mc *machine.Machine) int {
	regs := &mc.State.Registers

	switch regs[machine.REG_A] {
	case DISPLAY_MAP_SCREEN:
		dp.screen = regs[machine.REG_B]
		return 1
	case DISPLAY_MAP_FONT:
		dp.font = regs[machine.REG_B]
		return 1
	case DISPLAY_MAP_PALETTE:
		dp.palette = regs[machine.REG_B]
		return 1
	case DISPLAY_SET_BORDER:
		dp.border = regs[machine.REG_B] & 0xF
		return 1
	case DISPLAY_DUMP_FONT:
		return 256
	case DISPLAY_DUMP_PALETTE:
		return 16
	default:
		return 0
	}
}

func (dp *Display) color(mc *machine.Machine, index uint16) uint32 {
	var rgb uint16

	if dp.palette == 0 {
		rgb = DefaultPalette[index]
	} else {
		rgb = mc.State.Memory[dp.palette+index]
	}

	r := uint32(rgb>>8) & 0xF
	g := uint32(rgb>>4) & 0xF
	b := uint32(rgb) & 0xF

	return (r*0x11)<<16 | (g*0x11)<<8 | b*0x11
}

func (dp *Display) glyph(mc *machine.Machine, index uint16) uint16 {
	if dp.font == 0 {
		return DefaultFont[index]
	}

	return mc.State.Memory[dp.font+index]
}

func (dp *Display) Tick(mc *machine.Machine) {
	if dp.screen == 0 {
		return
	}

	if dp.pixels == nil {
		dp.pixels = make([]uint32, DISPLAY_WIDTH*DISPLAY_HEIGHT)
	}

	now := time.Now
	if dp.Now != nil {
		now = dp.Now
	}

	// Blinking cells show their background for the first half of every
	// second.
	blinkOff := now().Nanosecond() < int(500*time.Millisecond)

	for cell := uint16(0); cell < DISPLAY_COLS*DISPLAY_ROWS; cell++ {
		// |ffff|bbbb|k|ccccccc| fg, bg, blink, character
		word := mc.State.Memory[dp.screen+cell]
		char := word & 0x7F
		background := dp.color(mc, (word>>8)&0xF)
		foreground := dp.color(mc, (word>>12)&0xF)

		if word&0x80 != 0 && blinkOff {
			foreground = background
		}

		columns := [GLYPH_WIDTH]uint16{
			dp.glyph(mc, char*2) >> 8,
			dp.glyph(mc, char*2) & 0xFF,
			dp.glyph(mc, char*2+1) >> 8,
			dp.glyph(mc, char*2+1) & 0xFF,
		}

		x := int(cell%DISPLAY_COLS) * GLYPH_WIDTH
		y := int(cell/DISPLAY_COLS) * GLYPH_HEIGHT

		for dx, bits := range columns {
			for dy := 0; dy < GLYPH_HEIGHT; dy++ {
				pixel := background
				if (bits>>dy)&0x1 != 0 {
					pixel = foreground
				}
				dp.pixels[(y+dy)*DISPLAY_WIDTH+x+dx] = pixel
			}
		}
	}

	if dp.Sink != nil {
		dp.Sink.Present(dp.pixels, DISPLAY_WIDTH)
	}
}
