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
	"github.com/lassandro/godcpu/pkg/machine"
)

const KEY_QUEUE_SIZE = 100

const (
	KEY_CLEAR   uint16 = 0
	KEY_NEXT    uint16 = 1
	KEY_PRESSED uint16 = 2
	KEY_SET_INT uint16 = 3
)

// Key codes for non-printable keys. Printable ASCII 0x20-0x7e maps to itself.
const (
	KEY_BACKSPACE uint16 = 0x10
	KEY_RETURN    uint16 = 0x11
	KEY_INSERT    uint16 = 0x12
	KEY_DELETE    uint16 = 0x13
	KEY_UP        uint16 = 0x80
	KEY_DOWN      uint16 = 0x81
	KEY_LEFT      uint16 = 0x82
	KEY_RIGHT     uint16 = 0x83
	KEY_SHIFT     uint16 = 0x90
	KEY_CONTROL   uint16 = 0x91
)

// Keyboard buffers typed keys and tracks which keys are held. KeyDown and
// KeyUp must be called from the goroutine driving the machine.
type Keyboard struct {
	queue   []uint16
	pressed map[uint16]bool
	message uint16
	typed   bool
}

func NewKeyboard() *Keyboard {
	return &Keyboard{pressed: make(map[uint16]bool)}
}

func (kb *Keyboard) Identity() machine.Identity {
	return machine.Identity{ID: 0x30CF7406, Version: 1, Manufacturer: 0}
}

func (kb *Keyboard) KeyDown(code uint16) {
	kb.typed = true
	kb.queue = append(kb.queue, code)

	if len(kb.queue) > KEY_QUEUE_SIZE {
		kb.queue = kb.queue[len(kb.queue)-KEY_QUEUE_SIZE:]
	}

	if kb.pressed == nil {
		kb.pressed = make(map[uint16]bool)
	}
	kb.pressed[code] = true
}

func (kb *Keyboard) KeyUp(code uint16) {
	delete(kb.pressed, code)
}

// Queued returns the number of buffered keys.
func (kb *Keyboard) Queued() int {
	return len(kb.queue)
}

func (kb *Keyboard) Interrupt(mc *machine.Machine) int {
	regs := &mc.State.Registers

	switch regs[machine.REG_A] {
	case KEY_CLEAR:
		for code := range kb.pressed {
			delete(kb.pressed, code)
		}
		return 3

	case KEY_NEXT:
		if len(kb.queue) == 0 {
			regs[machine.REG_C] = 0
		} else {
			regs[machine.REG_C] = kb.queue[0]
			kb.queue = kb.queue[1:]
		}
		return 2

	case KEY_PRESSED:
		if kb.pressed[regs[machine.REG_B]] {
			regs[machine.REG_C] = 1
		} else {
			regs[machine.REG_C] = 0
		}
		return 2

	case KEY_SET_INT:
		kb.message = regs[machine.REG_B]
		return 1

	default:
		return 0
	}
}

// Tick raises one interrupt if any key went down since the previous tick.
func (kb *Keyboard) Tick(mc *machine.Machine) {
	typed := kb.typed
	kb.typed = false

	if typed && kb.message != 0 {
		mc.Interrupt(kb.message)
	}
}
