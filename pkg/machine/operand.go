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

type locationKind uint8

const (
	LOC_REGISTER locationKind = iota
	LOC_MEMORY
	LOC_SP
	LOC_PC
	LOC_EX
	LOC_LITERAL
)

// location is a resolved operand. Resolving consumes any inline word and its
// cycle exactly once, after which the location can be read and written
// freely.
type location struct {
	kind  locationKind
	index uint16 // register number or memory address
	value uint16 // literal value
}

// isInA: operand occupies the a (source) field, which selects POP over PUSH
// for ARG_PUSHPOP and is the only field allowed to hold short literals.
func (mc *Machine) resolve(code uint16, isInA bool) (location, error) {
	switch {
	case code < ARG_REG_IND:
		return location{kind: LOC_REGISTER, index: code}, nil

	case code < ARG_REG_NEXT:
		return location{
			kind:  LOC_MEMORY,
			index: mc.State.Registers[code-ARG_REG_IND],
		}, nil

	case code < ARG_PUSHPOP:
		mc.Cycles++
		offset := mc.nextWord()
		return location{
			kind:  LOC_MEMORY,
			index: mc.State.Registers[code-ARG_REG_NEXT] + offset,
		}, nil
	}

	switch code {
	case ARG_PUSHPOP:
		var addr uint16
		if isInA {
			addr = mc.State.Stack
			mc.State.Stack++
		} else {
			mc.State.Stack--
			addr = mc.State.Stack
		}
		return location{kind: LOC_MEMORY, index: addr}, nil

	case ARG_PEEK:
		return location{kind: LOC_MEMORY, index: mc.State.Stack}, nil

	case ARG_PICK:
		mc.Cycles++
		offset := mc.nextWord()
		return location{kind: LOC_MEMORY, index: mc.State.Stack + offset}, nil

	case ARG_SP:
		return location{kind: LOC_SP}, nil

	case ARG_PC:
		return location{kind: LOC_PC}, nil

	case ARG_EX:
		return location{kind: LOC_EX}, nil

	case ARG_NEXT_IND:
		mc.Cycles++
		return location{kind: LOC_MEMORY, index: mc.nextWord()}, nil

	case ARG_NEXT_LIT:
		mc.Cycles++
		return location{kind: LOC_LITERAL, value: mc.nextWord()}, nil
	}

	if isInA && code <= ARG_MAX {
		return location{kind: LOC_LITERAL, value: code - 0x21}, nil
	}

	return location{}, &DecodeError{
		PC:      mc.fetchPC,
		Code:    code,
		Operand: true,
	}
}

func (mc *Machine) load(loc location) uint16 {
	switch loc.kind {
	case LOC_REGISTER:
		return mc.State.Registers[loc.index]
	case LOC_MEMORY:
		return mc.read(loc.index)
	case LOC_SP:
		return mc.State.Stack
	case LOC_PC:
		return mc.State.Program
	case LOC_EX:
		return mc.State.Extra
	default:
		return loc.value
	}
}

// Stores to literals are silently discarded.
func (mc *Machine) store(loc location, value uint16) {
	switch loc.kind {
	case LOC_REGISTER:
		mc.State.Registers[loc.index] = value
	case LOC_MEMORY:
		mc.write(loc.index, value)
	case LOC_SP:
		mc.State.Stack = value
	case LOC_PC:
		mc.State.Program = value
	case LOC_EX:
		mc.State.Extra = value
	}
}

// operandWords is the number of inline words an operand code consumes.
func operandWords(code uint16) uint16 {
	switch {
	case code >= ARG_REG_NEXT && code < ARG_PUSHPOP:
		return 1
	case code == ARG_PICK, code == ARG_NEXT_IND, code == ARG_NEXT_LIT:
		return 1
	default:
		return 0
	}
}
