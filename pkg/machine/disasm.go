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
	"fmt"
)

var registerNames = [8]string{"A", "B", "C", "X", "Y", "Z", "I", "J"}

var opcodeNames = map[uint16]string{
	OP_SET: "SET", OP_ADD: "ADD", OP_SUB: "SUB", OP_MUL: "MUL",
	OP_MLI: "MLI", OP_DIV: "DIV", OP_DVI: "DVI", OP_MOD: "MOD",
	OP_MDI: "MDI", OP_AND: "AND", OP_BOR: "BOR", OP_XOR: "XOR",
	OP_SHR: "SHR", OP_ASR: "ASR", OP_SHL: "SHL", OP_IFB: "IFB",
	OP_IFC: "IFC", OP_IFE: "IFE", OP_IFN: "IFN", OP_IFG: "IFG",
	OP_IFA: "IFA", OP_IFL: "IFL", OP_IFU: "IFU", OP_ADX: "ADX",
	OP_SBX: "SBX", OP_STI: "STI", OP_STD: "STD",
}

var specialNames = map[uint16]string{
	SOP_JSR: "JSR", SOP_INT: "INT", SOP_IAG: "IAG", SOP_IAS: "IAS",
	SOP_RFI: "RFI", SOP_IAQ: "IAQ", SOP_HWN: "HWN", SOP_HWQ: "HWQ",
	SOP_HWI: "HWI",
}

// Disassemble renders the instruction at addr and returns it with its
// length in words. Undecodable words are rendered as DAT.
func Disassemble(mem *[MEMORY_SIZE]uint16, addr uint16) (string, uint16) {
	instruction := mem[addr]
	opcode := instruction & 0x1F
	b := (instruction >> 5) & 0x1F
	a := (instruction >> 10) & 0x3F
	next := addr + 1

	operand := func(code uint16, isInA bool) string {
		if operandWords(code) == 1 {
			word := mem[next]
			next++

			switch {
			case code < ARG_PUSHPOP:
				return fmt.Sprintf(
					"[%s+%#04x]", registerNames[code-ARG_REG_NEXT], word,
				)
			case code == ARG_PICK:
				return fmt.Sprintf("PICK %#04x", word)
			case code == ARG_NEXT_IND:
				return fmt.Sprintf("[%#04x]", word)
			default:
				return fmt.Sprintf("%#04x", word)
			}
		}

		switch {
		case code < ARG_REG_IND:
			return registerNames[code]
		case code < ARG_REG_NEXT:
			return "[" + registerNames[code-ARG_REG_IND] + "]"
		case code == ARG_PUSHPOP && isInA:
			return "POP"
		case code == ARG_PUSHPOP:
			return "PUSH"
		case code == ARG_PEEK:
			return "PEEK"
		case code == ARG_SP:
			return "SP"
		case code == ARG_PC:
			return "PC"
		case code == ARG_EX:
			return "EX"
		default:
			return fmt.Sprint(int16(code - 0x21))
		}
	}

	dat := fmt.Sprintf("DAT %#04x", instruction)

	if opcode == OP_SPECIAL {
		name, ok := specialNames[b]
		if !ok {
			return dat, 1
		}

		text := name + " " + operand(a, true)
		return text, next - addr
	}

	name, ok := opcodeNames[opcode]
	if !ok {
		return dat, 1
	}

	// a's inline word precedes b's
	textA := operand(a, true)
	textB := operand(b, false)

	return fmt.Sprintf("%s %s, %s", name, textB, textA), next - addr
}
