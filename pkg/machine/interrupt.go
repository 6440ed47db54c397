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

package machine

// Interrupt queues an interrupt carrying message. It is delivered by the
// dispatch step that follows each instruction.
func (mc *Machine) Interrupt(message uint16) {
	mc.Interrupts = append(mc.Interrupts, message)
}

// serviceInterrupt delivers the oldest queued interrupt unless queueing is
// enabled. Only one interrupt is in flight at a time: delivery sets the
// latch and RFI clears it.
func (mc *Machine) serviceInterrupt() {
	if mc.Queueing || len(mc.Interrupts) == 0 {
		return
	}

	message := mc.Interrupts[0]
	copy(mc.Interrupts, mc.Interrupts[1:])
	mc.Interrupts = mc.Interrupts[:len(mc.Interrupts)-1]

	mc.push(mc.State.Program)
	mc.push(mc.State.Registers[REG_A])
	mc.State.Program = mc.State.IntAddr
	mc.State.Registers[REG_A] = message
	mc.Queueing = true
}
