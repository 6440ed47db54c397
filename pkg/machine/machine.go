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

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"

	"github.com/lassandro/godcpu/pkg/encoding"
)

func (mc *MachineState) Reset() {
	for i, _ := range mc.Registers {
		mc.Registers[i] = 0x0000
	}

	for i, _ := range mc.Memory {
		mc.Memory[i] = 0x0000
	}

	mc.Program = 0x0000
	mc.Stack = 0x0000
	mc.Extra = 0x0000
	mc.IntAddr = 0x0000
}

// Reset clears the registers, memory and all interrupt and scheduling
// state. Attached devices stay attached.
func (mc *Machine) Reset() {
	mc.State.Reset()
	mc.Cycles = 0
	mc.Queueing = false
	mc.Interrupts = mc.Interrupts[:0]
}

// LoadWords resets the machine and copies words into memory starting at
// address 0. Words past the end of memory are ignored.
func (mc *Machine) LoadWords(words []uint16) {
	mc.Reset()

	if len(words) > MEMORY_SIZE {
		words = words[:MEMORY_SIZE]
	}

	copy(mc.State.Memory[:], words)
}

// LoadBin reads a program image of 16-bit words in the given byte order.
func (mc *Machine) LoadBin(reader io.Reader, order binary.ByteOrder) error {
	data, err := io.ReadAll(io.LimitReader(reader, MEMORY_SIZE*2))

	if err != nil {
		return errors.Wrap(err, "reading program image")
	}

	mc.LoadWords(encoding.Words(data, order))

	return nil
}

func (mc *Machine) push(value uint16) {
	mc.State.Stack--
	mc.write(mc.State.Stack, value)
}

func (mc *Machine) pop() uint16 {
	result := mc.read(mc.State.Stack)
	mc.State.Stack++
	return result
}

func (mc *Machine) read(addr uint16) uint16 {
	if mc.Debugger != nil {
		mc.Debugger.Read(addr, mc)
	}

	return mc.State.Memory[addr]
}

func (mc *Machine) write(addr uint16, value uint16) {
	mc.State.Memory[addr] = value

	if mc.Debugger != nil {
		mc.Debugger.Write(addr, mc)
	}
}

// nextWord fetches the word at PC and advances PC.
func (mc *Machine) nextWord() uint16 {
	value := mc.read(mc.State.Program)
	mc.State.Program++
	return value
}
