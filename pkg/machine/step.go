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
	"github.com/pkg/errors"
)

// Step executes one instruction followed by one interrupt dispatch.
func (mc *Machine) Step() error {
	if err := mc.Execute(); err != nil {
		return err
	}

	mc.serviceInterrupt()

	if mc.Debugger != nil {
		mc.Debugger.Step(mc)
	}

	return nil
}

func validOpcode(opcode uint16) bool {
	switch opcode {
	case 0x18, 0x19, 0x1C, 0x1D:
		return false
	default:
		return true
	}
}

func isConditional(opcode uint16) bool {
	return opcode >= OP_IFB && opcode <= OP_IFU
}

// Execute fetches, decodes and executes a single instruction without
// servicing interrupts.
func (mc *Machine) Execute() error {
	mc.fetchPC = mc.State.Program

	instruction := mc.nextWord()
	opcode := instruction & 0x1F
	b := (instruction >> 5) & 0x1F
	a := (instruction >> 10) & 0x3F

	if opcode == OP_SPECIAL {
		return mc.special(b, a)
	}

	if !validOpcode(opcode) {
		return errors.WithStack(&DecodeError{PC: mc.fetchPC, Code: opcode})
	}

	var va, vb uint16
	var la, lb location
	var err error

	// a is resolved before b. STI and STD write to a, so it is resolved
	// after b is read.
	if opcode != OP_STI && opcode != OP_STD {
		if la, err = mc.resolve(a, true); err != nil {
			return errors.WithStack(err)
		}
		va = mc.load(la)
	}

	if lb, err = mc.resolve(b, false); err != nil {
		return errors.WithStack(err)
	}

	if opcode != OP_SET {
		vb = mc.load(lb)
	}

	switch opcode {
	// SET  |aaaaaa|bbbbb|00001| b = a
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_SET:
		mc.Cycles += 1
		mc.store(lb, va)

	// ADD  |aaaaaa|bbbbb|00010| b = b + a, EX = carry
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_ADD:
		mc.Cycles += 2
		sum := uint32(vb) + uint32(va)
		mc.store(lb, uint16(sum))
		mc.State.Extra = uint16(sum >> 16)

	// SUB  |aaaaaa|bbbbb|00011| b = b - a, EX = 0xffff on borrow
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_SUB:
		mc.Cycles += 2
		diff := int32(vb) - int32(va)
		mc.store(lb, uint16(diff))
		if diff < 0 {
			mc.State.Extra = 0xFFFF
		} else {
			mc.State.Extra = 0x0000
		}

	// MUL  |aaaaaa|bbbbb|00100| b = b * a, EX = high word
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_MUL:
		mc.Cycles += 2
		product := uint32(vb) * uint32(va)
		mc.store(lb, uint16(product))
		mc.State.Extra = uint16(product >> 16)

	// MLI  |aaaaaa|bbbbb|00101| b = b * a (signed), EX = high word
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_MLI:
		mc.Cycles += 2
		product := int32(int16(vb)) * int32(int16(va))
		mc.store(lb, uint16(product))
		mc.State.Extra = uint16(uint32(product) >> 16)

	// DIV  |aaaaaa|bbbbb|00110| b = b / a, EX = ((b << 16) / a)
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_DIV:
		mc.Cycles += 3
		if va == 0 {
			mc.store(lb, 0)
			mc.State.Extra = 0
		} else {
			mc.store(lb, vb/va)
			mc.State.Extra = uint16((uint32(vb) << 16) / uint32(va))
		}

	// DVI  |aaaaaa|bbbbb|00111| b = b / a (signed, toward zero)
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_DVI:
		mc.Cycles += 3
		if va == 0 {
			mc.store(lb, 0)
			mc.State.Extra = 0
		} else {
			dividend := int32(int16(vb))
			divisor := int32(int16(va))
			mc.store(lb, uint16(dividend/divisor))
			mc.State.Extra = uint16((dividend << 16) / divisor)
		}

	// MOD  |aaaaaa|bbbbb|01000| b = b % a
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_MOD:
		mc.Cycles += 3
		if va == 0 {
			mc.store(lb, 0)
		} else {
			mc.store(lb, vb%va)
		}

	// MDI  |aaaaaa|bbbbb|01001| b = b % a (signed)
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_MDI:
		mc.Cycles += 3
		if va == 0 {
			mc.store(lb, 0)
		} else {
			mc.store(lb, uint16(int16(vb)%int16(va)))
		}

	// AND  |aaaaaa|bbbbb|01010| b = b & a
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_AND:
		mc.Cycles += 1
		mc.store(lb, vb&va)

	// BOR  |aaaaaa|bbbbb|01011| b = b | a
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_BOR:
		mc.Cycles += 1
		mc.store(lb, vb|va)

	// XOR  |aaaaaa|bbbbb|01100| b = b ^ a
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_XOR:
		mc.Cycles += 1
		mc.store(lb, vb^va)

	// SHR  |aaaaaa|bbbbb|01101| b = b >>> a, EX = ((b << 16) >> a)
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_SHR:
		mc.Cycles += 1
		shift := uint32(va & 0x1F)
		mc.store(lb, uint16(uint32(vb)>>shift))
		mc.State.Extra = uint16((uint32(vb) << 16) >> shift)

	// ASR  |aaaaaa|bbbbb|01110| b = b >> a (signed), EX = ((b << 16) >>> a)
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_ASR:
		mc.Cycles += 1
		shift := uint32(va & 0x1F)
		value := int32(int16(vb))
		mc.store(lb, uint16(value>>shift))
		mc.State.Extra = uint16((value << 16) >> shift)

	// SHL  |aaaaaa|bbbbb|01111| b = b << a, EX = ((b << a) >> 16)
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_SHL:
		mc.Cycles += 1
		shifted := uint32(vb) << uint32(va&0x1F)
		mc.store(lb, uint16(shifted))
		mc.State.Extra = uint16(shifted >> 16)

	// IFx  |aaaaaa|bbbbb|10xxx| run next instruction only if test passes
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_IFB, OP_IFC, OP_IFE, OP_IFN, OP_IFG, OP_IFA, OP_IFL, OP_IFU:
		mc.Cycles += 2
		if !test(opcode, vb, va) {
			mc.skip()
		}

	// ADX  |aaaaaa|bbbbb|11010| b = b + a + EX, EX = carry
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_ADX:
		mc.Cycles += 3
		sum := uint32(vb) + uint32(va) + uint32(mc.State.Extra)
		mc.store(lb, uint16(sum))
		if sum > 0xFFFF {
			mc.State.Extra = 0x0001
		} else {
			mc.State.Extra = 0x0000
		}

	// SBX  |aaaaaa|bbbbb|11011| b = b - a + EX, EX = borrow
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_SBX:
		mc.Cycles += 3
		diff := int32(vb) - int32(va) + int32(mc.State.Extra)
		mc.store(lb, uint16(diff))
		if diff < 0 || diff > 0xFFFF {
			mc.State.Extra = 0x0001
		} else {
			mc.State.Extra = 0x0000
		}

	// STI  |aaaaaa|bbbbb|11110| a = b, I++, J++
	// STD  |aaaaaa|bbbbb|11111| a = b, I--, J--
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_STI, OP_STD:
		mc.Cycles += 2
		if la, err = mc.resolve(a, true); err != nil {
			return errors.WithStack(err)
		}
		mc.store(la, vb)

		if opcode == OP_STI {
			mc.State.Registers[REG_I]++
			mc.State.Registers[REG_J]++
		} else {
			mc.State.Registers[REG_I]--
			mc.State.Registers[REG_J]--
		}
	}

	return nil
}

// test evaluates a conditional opcode against its destination (b) and
// source (a) values.
func test(opcode, b, a uint16) bool {
	switch opcode {
	case OP_IFB:
		return b&a != 0
	case OP_IFC:
		return b&a == 0
	case OP_IFE:
		return b == a
	case OP_IFN:
		return b != a
	case OP_IFG:
		return b > a
	case OP_IFA:
		return int16(b) > int16(a)
	case OP_IFL:
		return b < a
	default:
		return int16(b) < int16(a)
	}
}

// skip steps PC over the next instruction without executing it, continuing
// through any chain of conditionals. Each skipped instruction costs a cycle.
func (mc *Machine) skip() {
	for {
		instruction := mc.State.Memory[mc.State.Program]
		opcode := instruction & 0x1F
		b := (instruction >> 5) & 0x1F
		a := (instruction >> 10) & 0x3F

		mc.State.Program += 1 + operandWords(a)
		if opcode != OP_SPECIAL {
			mc.State.Program += operandWords(b)
		}

		mc.Cycles++

		if !isConditional(opcode) {
			return
		}
	}
}

func (mc *Machine) special(opcode, a uint16) error {
	var loc location
	var err error

	// Every valid special opcode takes a; an invalid one fails before a is
	// resolved so the operand has no side effects.
	switch opcode {
	case SOP_JSR, SOP_INT, SOP_IAG, SOP_IAS, SOP_IAQ, SOP_HWN, SOP_HWQ, SOP_HWI:
		if loc, err = mc.resolve(a, true); err != nil {
			return errors.WithStack(err)
		}
	case SOP_RFI:
	default:
		return errors.WithStack(&DecodeError{
			PC:      mc.fetchPC,
			Code:    opcode,
			Special: true,
		})
	}

	switch opcode {
	// JSR  |aaaaaa|00001|00000| push PC, PC = a
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case SOP_JSR:
		mc.Cycles += 3
		target := mc.load(loc)
		mc.push(mc.State.Program)
		mc.State.Program = target

	// INT  |aaaaaa|01000|00000| queue software interrupt with message a
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case SOP_INT:
		mc.Cycles += 4
		mc.Interrupt(mc.load(loc))

	// IAG  |aaaaaa|01001|00000| a = IA
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case SOP_IAG:
		mc.Cycles += 1
		mc.store(loc, mc.State.IntAddr)

	// IAS  |aaaaaa|01010|00000| IA = a
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case SOP_IAS:
		mc.Cycles += 1
		mc.State.IntAddr = mc.load(loc)

	// RFI  |aaaaaa|01011|00000| pop A, pop PC, stop queueing
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case SOP_RFI:
		mc.Cycles += 3
		mc.State.Registers[REG_A] = mc.pop()
		mc.State.Program = mc.pop()
		mc.Queueing = false

	// IAQ  |aaaaaa|01100|00000| queue interrupts if a != 0
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case SOP_IAQ:
		mc.Cycles += 2
		mc.Queueing = mc.load(loc) != 0

	// HWN  |aaaaaa|10000|00000| a = number of devices
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case SOP_HWN:
		mc.Cycles += 2
		mc.store(loc, uint16(len(mc.Devices)))

	// HWQ  |aaaaaa|10001|00000| A,B,C,X,Y = identity of device a
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case SOP_HWQ:
		mc.Cycles += 4
		mc.queryDevice(mc.load(loc))

	// HWI  |aaaaaa|10010|00000| interrupt device a
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case SOP_HWI:
		mc.Cycles += 4
		mc.interruptDevice(mc.load(loc))
	}

	return nil
}
