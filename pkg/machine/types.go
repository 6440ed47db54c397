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

// Identity is the triple reported to software by HWQ.
type Identity struct {
	ID           uint32
	Version      uint16
	Manufacturer uint32
}

// Device is the contract between the hardware bus and a peripheral. The
// machine only holds a handle to a device; whoever builds the bus owns it.
type Device interface {
	Identity() Identity

	// Interrupt is invoked by HWI. Arguments and results travel through the
	// machine registers, the return value is the extra cycle cost.
	Interrupt(mc *Machine) int

	// Tick is invoked once per scheduler grant.
	Tick(mc *Machine)
}

type MachineState struct {
	Registers [8]uint16
	Program   uint16
	Stack     uint16
	Extra     uint16
	IntAddr   uint16
	Memory    [MEMORY_SIZE]uint16
}

type MachineDebugger interface {
	Step(mc *Machine)
	Read(addr uint16, mc *Machine)
	Write(addr uint16, mc *Machine)
}

type Machine struct {
	State MachineState

	// Cycles is the signed cycle counter. Instructions add their cost, the
	// scheduler subtracts each grant and runs while it is negative.
	Cycles int64

	// Queueing is the interrupt-enable latch. While set, interrupts are
	// queued instead of dispatched.
	Queueing   bool
	Interrupts []uint16

	Devices  []Device
	Debugger MachineDebugger

	// PC of the instruction being executed, for error reports
	fetchPC uint16
}
