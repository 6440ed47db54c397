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

// Nominal clock rate in cycles per second
const CLOCK_RATE int64 = 100000

const MEMORY_SIZE = 1 << 16

const (
	REG_A uint16 = 0x0
	REG_B        = 0x1
	REG_C        = 0x2
	REG_X        = 0x3
	REG_Y        = 0x4
	REG_Z        = 0x5
	REG_I        = 0x6
	REG_J        = 0x7
)

// Operand addressing codes
const (
	ARG_REG      uint16 = 0x00 // 0x00-0x07 register
	ARG_REG_IND         = 0x08 // 0x08-0x0f [register]
	ARG_REG_NEXT        = 0x10 // 0x10-0x17 [register + next word]
	ARG_PUSHPOP         = 0x18
	ARG_PEEK            = 0x19
	ARG_PICK            = 0x1A
	ARG_SP              = 0x1B
	ARG_PC              = 0x1C
	ARG_EX              = 0x1D
	ARG_NEXT_IND        = 0x1E
	ARG_NEXT_LIT        = 0x1F
	ARG_LIT             = 0x20 // 0x20-0x3f literal -1..30
	ARG_MAX             = 0x3F
)

const (
	OP_SPECIAL uint16 = 0x00
	OP_SET     uint16 = 0x01
	OP_ADD     uint16 = 0x02
	OP_SUB     uint16 = 0x03
	OP_MUL     uint16 = 0x04
	OP_MLI     uint16 = 0x05
	OP_DIV     uint16 = 0x06
	OP_DVI     uint16 = 0x07
	OP_MOD     uint16 = 0x08
	OP_MDI     uint16 = 0x09
	OP_AND     uint16 = 0x0A
	OP_BOR     uint16 = 0x0B
	OP_XOR     uint16 = 0x0C
	OP_SHR     uint16 = 0x0D
	OP_ASR     uint16 = 0x0E
	OP_SHL     uint16 = 0x0F
	OP_IFB     uint16 = 0x10
	OP_IFC     uint16 = 0x11
	OP_IFE     uint16 = 0x12
	OP_IFN     uint16 = 0x13
	OP_IFG     uint16 = 0x14
	OP_IFA     uint16 = 0x15
	OP_IFL     uint16 = 0x16
	OP_IFU     uint16 = 0x17
	OP_ADX     uint16 = 0x1A
	OP_SBX     uint16 = 0x1B
	OP_STI     uint16 = 0x1E
	OP_STD     uint16 = 0x1F
)

// Special opcodes, selected by the b field when the opcode is OP_SPECIAL
const (
	SOP_JSR uint16 = 0x01
	SOP_INT uint16 = 0x08
	SOP_IAG uint16 = 0x09
	SOP_IAS uint16 = 0x0A
	SOP_RFI uint16 = 0x0B
	SOP_IAQ uint16 = 0x0C
	SOP_HWN uint16 = 0x10
	SOP_HWQ uint16 = 0x11
	SOP_HWI uint16 = 0x12
)
