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
	CLOCK_SET_RATE  uint16 = 0
	CLOCK_GET_TICKS uint16 = 1
	CLOCK_SET_INT   uint16 = 2
)

// Clock is a programmable interval timer. Software arms it with a divisor of
// 60Hz and it raises its interrupt message once per period.
type Clock struct {
	// Now is the wall clock. Nil selects time.Now.
	Now func() time.Time

	period  time.Duration
	next    time.Time
	ticks   uint16
	message uint16
}

func NewClock() *Clock {
	return &Clock{}
}

func (clk *Clock) Identity() machine.Identity {
	return machine.Identity{ID: 0x12D0B402, Version: 1, Manufacturer: 0}
}

func (clk *Clock) now() time.Time {
	if clk.Now == nil {
		return time.Now()
	}
	return clk.Now()
}

func (clk *Clock) Armed() bool {
	return clk.period != 0
}

func (clk *Clock) Interrupt(mc *machine.Machine) int {
	regs := &mc.State.Registers

	switch regs[machine.REG_A] {
	case CLOCK_SET_RATE:
		divisor := regs[machine.REG_B]
		clk.ticks = 0

		if divisor == 0 {
			clk.period = 0
		} else {
			clk.period = time.Duration(divisor) * time.Second / 60
			clk.next = clk.now().Add(clk.period)
		}

		return 1

	case CLOCK_GET_TICKS:
		regs[machine.REG_C] = clk.ticks
		return 1

	case CLOCK_SET_INT:
		if regs[machine.REG_B] == 0 {
			clk.period = 0
		} else {
			clk.message = regs[machine.REG_B]
		}

		return 1

	default:
		return 0
	}
}

// Tick raises at most one interrupt per call. The deadline advances by a
// whole period rather than to now, so a late callback does not shift the
// phase.
func (clk *Clock) Tick(mc *machine.Machine) {
	if clk.period == 0 || clk.now().Before(clk.next) {
		return
	}

	clk.ticks++
	clk.next = clk.next.Add(clk.period)
	mc.Interrupt(clk.message)
}
