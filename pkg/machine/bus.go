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

// Attach appends dev to the hardware bus. Device indices follow attach
// order.
func (mc *Machine) Attach(dev Device) {
	mc.Devices = append(mc.Devices, dev)
}

// TickDevices runs every device's per-grant callback in bus order.
func (mc *Machine) TickDevices() {
	for _, dev := range mc.Devices {
		dev.Tick(mc)
	}
}

func (mc *Machine) queryDevice(index uint16) {
	if int(index) >= len(mc.Devices) {
		mc.State.Registers[REG_A] = 0
		mc.State.Registers[REG_B] = 0
		mc.State.Registers[REG_C] = 0
		mc.State.Registers[REG_X] = 0
		mc.State.Registers[REG_Y] = 0
		return
	}

	id := mc.Devices[index].Identity()

	mc.State.Registers[REG_A] = uint16(id.ID)
	mc.State.Registers[REG_B] = uint16(id.ID >> 16)
	mc.State.Registers[REG_C] = id.Version
	mc.State.Registers[REG_X] = uint16(id.Manufacturer)
	mc.State.Registers[REG_Y] = uint16(id.Manufacturer >> 16)
}

func (mc *Machine) interruptDevice(index uint16) {
	if int(index) >= len(mc.Devices) {
		return
	}

	mc.Cycles += int64(mc.Devices[index].Interrupt(mc))
}
