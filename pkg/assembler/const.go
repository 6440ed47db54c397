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

package assembler

import "github.com/lassandro/godcpu/pkg/machine"

const (
	TOKEN_NONE TokenType = iota
	TOKEN_IDENT
	TOKEN_DIRECTIVE
	TOKEN_STRING
	TOKEN_LITERAL
	TOKEN_OPEN
	TOKEN_CLOSE
	TOKEN_PLUS
	TOKEN_COMMA
)

const (
	DIRECTIVE_INVALID DirectiveType = iota
	DIRECTIVE_ORG
	DIRECTIVE_DAT
	DIRECTIVE_FILL
	DIRECTIVE_RESERVE
	DIRECTIVE_STRINGZ
	DIRECTIVE_END
)

// Basic instructions take operands "b, a"
var basicInstructions = map[string]uint16{
	"SET": machine.OP_SET,
	"ADD": machine.OP_ADD,
	"SUB": machine.OP_SUB,
	"MUL": machine.OP_MUL,
	"MLI": machine.OP_MLI,
	"DIV": machine.OP_DIV,
	"DVI": machine.OP_DVI,
	"MOD": machine.OP_MOD,
	"MDI": machine.OP_MDI,
	"AND": machine.OP_AND,
	"BOR": machine.OP_BOR,
	"XOR": machine.OP_XOR,
	"SHR": machine.OP_SHR,
	"ASR": machine.OP_ASR,
	"SHL": machine.OP_SHL,
	"IFB": machine.OP_IFB,
	"IFC": machine.OP_IFC,
	"IFE": machine.OP_IFE,
	"IFN": machine.OP_IFN,
	"IFG": machine.OP_IFG,
	"IFA": machine.OP_IFA,
	"IFL": machine.OP_IFL,
	"IFU": machine.OP_IFU,
	"ADX": machine.OP_ADX,
	"SBX": machine.OP_SBX,
	"STI": machine.OP_STI,
	"STD": machine.OP_STD,
}

// Special instructions take a single operand "a"
var specialInstructions = map[string]uint16{
	"JSR": machine.SOP_JSR,
	"INT": machine.SOP_INT,
	"IAG": machine.SOP_IAG,
	"IAS": machine.SOP_IAS,
	"RFI": machine.SOP_RFI,
	"IAQ": machine.SOP_IAQ,
	"HWN": machine.SOP_HWN,
	"HWQ": machine.SOP_HWQ,
	"HWI": machine.SOP_HWI,
}

var registers = map[string]uint16{
	"A": machine.REG_A,
	"B": machine.REG_B,
	"C": machine.REG_C,
	"X": machine.REG_X,
	"Y": machine.REG_Y,
	"Z": machine.REG_Z,
	"I": machine.REG_I,
	"J": machine.REG_J,
}

// Operand keywords that are neither registers nor labels
var keywords = map[string]uint16{
	"SP":   machine.ARG_SP,
	"PC":   machine.ARG_PC,
	"EX":   machine.ARG_EX,
	"PUSH": machine.ARG_PUSHPOP,
	"POP":  machine.ARG_PUSHPOP,
	"PEEK": machine.ARG_PEEK,
	"PICK": machine.ARG_PICK,
}
