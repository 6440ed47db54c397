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

package machine_test

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/lassandro/godcpu/pkg/machine"
)

type testMachineState struct {
	Registers  [8]uint16
	Program    uint16
	Stack      uint16
	Extra      uint16
	IntAddr    uint16
	Queueing   bool
	Interrupts []uint16
	Cycles     int64
	Memory     map[uint16]uint16
}

type testCase struct {
	Name    string
	Steps   uint
	Devices []machine.Device
	Input   testMachineState
	Output  testMachineState
}

type testDevice struct {
	identity   machine.Identity
	cost       int
	interrupts int
	ticks      int
}

func (dev *testDevice) Identity() machine.Identity {
	return dev.identity
}

func (dev *testDevice) Interrupt(mc *machine.Machine) int {
	dev.interrupts++
	mc.State.Registers[machine.REG_C] = 0xBEEF
	return dev.cost
}

func (dev *testDevice) Tick(mc *machine.Machine) {
	dev.ticks++
}

// op encodes a basic instruction |aaaaaa|bbbbb|ooooo|
func op(opcode, b, a uint16) uint16 {
	return a<<10 | b<<5 | opcode
}

// sop encodes a special instruction |aaaaaa|ooooo|00000|
func sop(opcode, a uint16) uint16 {
	return a<<10 | opcode<<5
}

// lit encodes a short literal operand
func lit(value int) uint16 {
	return uint16(value + 0x21)
}

func testMachineSuccess(t *testing.T, test *testCase) {
	if test.Input.Memory == nil && test.Output.Memory == nil {
		panic("No memory maps provided")
	}

	var mc machine.Machine

	for _, dev := range test.Devices {
		mc.Attach(dev)
	}

	mc.State.Reset()
	mc.State.Registers = test.Input.Registers
	mc.State.Program = test.Input.Program
	mc.State.Stack = test.Input.Stack
	mc.State.Extra = test.Input.Extra
	mc.State.IntAddr = test.Input.IntAddr
	mc.Queueing = test.Input.Queueing
	mc.Interrupts = append(mc.Interrupts, test.Input.Interrupts...)

	for addr, value := range test.Input.Memory {
		mc.State.Memory[addr] = value
	}

	if test.Steps == 0 {
		test.Steps = 1
	}

	for i := uint(0); i < test.Steps; i++ {
		if err := mc.Step(); err != nil {
			t.Fatalf("Unexpected error\nhave:%+v", err)
		}
	}

	for i := 0; i < 8; i++ {
		want := test.Output.Registers[i]
		have := mc.State.Registers[i]
		if have != want {
			t.Errorf(
				"Register mismatch"+
					"\nwant:%#04x (test.Output.Registers[%d])\nhave:%#04x",
				want,
				i,
				have,
			)
		}
	}

	if mc.State.Program != test.Output.Program {
		t.Errorf(
			"Program register mismatch"+
				"\nwant:%#04x (test.Output.Program)\nhave:%#04x",
			test.Output.Program,
			mc.State.Program,
		)
	}

	if mc.State.Stack != test.Output.Stack {
		t.Errorf(
			"Stack pointer mismatch"+
				"\nwant:%#04x (test.Output.Stack)\nhave:%#04x",
			test.Output.Stack,
			mc.State.Stack,
		)
	}

	if mc.State.Extra != test.Output.Extra {
		t.Errorf(
			"Extra register mismatch"+
				"\nwant:%#04x (test.Output.Extra)\nhave:%#04x",
			test.Output.Extra,
			mc.State.Extra,
		)
	}

	if mc.State.IntAddr != test.Output.IntAddr {
		t.Errorf(
			"Interrupt address mismatch"+
				"\nwant:%#04x (test.Output.IntAddr)\nhave:%#04x",
			test.Output.IntAddr,
			mc.State.IntAddr,
		)
	}

	if mc.Queueing != test.Output.Queueing {
		t.Errorf(
			"Interrupt latch mismatch"+
				"\nwant:%t (test.Output.Queueing)\nhave:%t",
			test.Output.Queueing,
			mc.Queueing,
		)
	}

	if mc.Cycles != test.Output.Cycles {
		t.Errorf(
			"Cycle count mismatch"+
				"\nwant:%d (test.Output.Cycles)\nhave:%d",
			test.Output.Cycles,
			mc.Cycles,
		)
	}

	if len(mc.Interrupts) != len(test.Output.Interrupts) {
		t.Errorf(
			"Interrupt queue mismatch"+
				"\nwant:%#04x (test.Output.Interrupts)\nhave:%#04x",
			test.Output.Interrupts,
			mc.Interrupts,
		)
	} else {
		for i, message := range test.Output.Interrupts {
			if mc.Interrupts[i] != message {
				t.Errorf(
					"Interrupt queue mismatch"+
						"\nwant:%#04x (test.Output.Interrupts[%d])\nhave:%#04x",
					message,
					i,
					mc.Interrupts[i],
				)
			}
		}
	}

	for i, value := range mc.State.Memory {
		input, expectingInput := test.Input.Memory[uint16(i)]
		output, expectingOutput := test.Output.Memory[uint16(i)]

		if expectingOutput {
			// Value was supposed to change
			if value != output {
				t.Fatalf(
					"Memory value mismatch"+
						"\nwant:%#04x (test.Output.Memory[%#04x])\nhave:%#04x",
					output,
					i,
					value,
				)
			}
		} else if expectingInput {
			// Value was supposed to remain
			if value != input {
				t.Fatalf(
					"Memory value mismatch"+
						"\nwant:%#04x (test.Input.Memory[%#04x])\nhave:%#04x",
					input,
					i,
					value,
				)
			}
		} else if value != 0 {
			// Value was expected to remain unitialized
			t.Fatalf(
				"Memory unexpectedly changed"+
					"\nwant:0x00 (test.Output.Memory[%#04x])\nhave:%#04x",
				i,
				value,
			)
		}
	}
}

func testSuccess(t *testing.T, tests []testCase) {
	t.Run("Success", func(t *testing.T) {
		for _, test := range tests {
			t.Run(test.Name, func(t *testing.T) {
				testMachineSuccess(t, &test)
			})
		}
	})
}

// SET  |aaaaaa|bbbbb|00001| b = a
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func TestSet(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name: "SET Next Literal",
			Input: testMachineState{
				Memory: map[uint16]uint16{
					0x0000: 0x7C01, // SET A, 5
					0x0001: 0x0005,
				},
			},
			Output: testMachineState{
				Program:   0x0002,
				Cycles:    2,
				Registers: [8]uint16{0: 0x0005},
			},
		},
		{
			Name:  "SET Copy Register",
			Steps: 2,
			Input: testMachineState{
				Memory: map[uint16]uint16{
					0x0000: 0x7C01, // SET A, 5
					0x0001: 0x0005,
					0x0002: 0x0021, // SET B, A
				},
			},
			Output: testMachineState{
				Program:   0x0003,
				Cycles:    3,
				Registers: [8]uint16{0: 0x0005, 1: 0x0005},
			},
		},
		{
			Name: "SET Destination Is A",
			Input: testMachineState{
				Registers: [8]uint16{1: 0x0007},
				Memory: map[uint16]uint16{
					0x0000: 0x0401, // SET A, B
				},
			},
			Output: testMachineState{
				Program:   0x0001,
				Cycles:    1,
				Registers: [8]uint16{0: 0x0007, 1: 0x0007},
			},
		},
		{
			Name: "SET Short Literal Negative",
			Input: testMachineState{
				Memory: map[uint16]uint16{
					0x0000: op(machine.OP_SET, machine.REG_A, lit(-1)),
				},
			},
			Output: testMachineState{
				Program:   0x0001,
				Cycles:    1,
				Registers: [8]uint16{0: 0xFFFF},
			},
		},
		{
			Name: "SET Short Literal Max",
			Input: testMachineState{
				Memory: map[uint16]uint16{
					0x0000: op(machine.OP_SET, machine.REG_X, lit(30)),
				},
			},
			Output: testMachineState{
				Program:   0x0001,
				Cycles:    1,
				Registers: [8]uint16{3: 0x001E},
			},
		},
		{
			Name: "SET Register Indirect",
			Input: testMachineState{
				Registers: [8]uint16{0: 0x0100, 2: 0xCAFE},
				Memory: map[uint16]uint16{
					0x0000: op(machine.OP_SET, machine.ARG_REG_IND+machine.REG_A, machine.REG_C),
				},
			},
			Output: testMachineState{
				Program:   0x0001,
				Cycles:    1,
				Registers: [8]uint16{0: 0x0100, 2: 0xCAFE},
				Memory: map[uint16]uint16{
					0x0100: 0xCAFE,
				},
			},
		},
		{
			Name: "SET Register Offset",
			Input: testMachineState{
				Registers: [8]uint16{0: 0x1234, 1: 0x0100},
				Memory: map[uint16]uint16{
					0x0000: op(machine.OP_SET, machine.ARG_REG_NEXT+machine.REG_B, machine.REG_A),
					0x0001: 0x0010,
				},
			},
			Output: testMachineState{
				Program:   0x0002,
				Cycles:    2,
				Registers: [8]uint16{0: 0x1234, 1: 0x0100},
				Memory: map[uint16]uint16{
					0x0110: 0x1234,
				},
			},
		},
		{
			Name: "SET Register Offset Wraps",
			Input: testMachineState{
				Registers: [8]uint16{0: 0x00AA, 1: 0xFFFF},
				Memory: map[uint16]uint16{
					0x0000: op(machine.OP_SET, machine.ARG_REG_NEXT+machine.REG_B, machine.REG_A),
					0x0001: 0x0011,
				},
			},
			Output: testMachineState{
				Program:   0x0002,
				Cycles:    2,
				Registers: [8]uint16{0: 0x00AA, 1: 0xFFFF},
				Memory: map[uint16]uint16{
					0x0010: 0x00AA,
				},
			},
		},
		{
			Name: "SET Push",
			Input: testMachineState{
				Memory: map[uint16]uint16{
					0x0000: op(machine.OP_SET, machine.ARG_PUSHPOP, lit(3)),
				},
			},
			Output: testMachineState{
				Program: 0x0001,
				Stack:   0xFFFF,
				Cycles:  1,
				Memory: map[uint16]uint16{
					0xFFFF: 0x0003,
				},
			},
		},
		{
			Name: "SET Pop",
			Input: testMachineState{
				Stack: 0xFFFE,
				Memory: map[uint16]uint16{
					0x0000: op(machine.OP_SET, machine.REG_A, machine.ARG_PUSHPOP),
					0xFFFE: 0x0055,
				},
			},
			Output: testMachineState{
				Program:   0x0001,
				Stack:     0xFFFF,
				Cycles:    1,
				Registers: [8]uint16{0: 0x0055},
			},
		},
		{
			Name: "SET Peek",
			Input: testMachineState{
				Stack: 0xFFFE,
				Memory: map[uint16]uint16{
					0x0000: op(machine.OP_SET, machine.REG_A, machine.ARG_PEEK),
					0xFFFE: 0x0066,
				},
			},
			Output: testMachineState{
				Program:   0x0001,
				Stack:     0xFFFE,
				Cycles:    1,
				Registers: [8]uint16{0: 0x0066},
			},
		},
		{
			Name: "SET Pick",
			Input: testMachineState{
				Stack: 0xFFFD,
				Memory: map[uint16]uint16{
					0x0000: op(machine.OP_SET, machine.REG_A, machine.ARG_PICK),
					0x0001: 0x0001,
					0xFFFE: 0x0099,
				},
			},
			Output: testMachineState{
				Program:   0x0002,
				Stack:     0xFFFD,
				Cycles:    2,
				Registers: [8]uint16{0: 0x0099},
			},
		},
		{
			Name: "SET Next Indirect",
			Input: testMachineState{
				Memory: map[uint16]uint16{
					0x0000: op(machine.OP_SET, machine.ARG_NEXT_IND, machine.ARG_NEXT_IND),
					0x0001: 0x2000,
					0x0002: 0x1000,
					0x2000: 0xBEEF,
				},
			},
			Output: testMachineState{
				Program: 0x0003,
				Cycles:  3,
				Memory: map[uint16]uint16{
					0x1000: 0xBEEF,
				},
			},
		},
		{
			Name: "SET Literal Destination Discarded",
			Input: testMachineState{
				Memory: map[uint16]uint16{
					0x0000: op(machine.OP_SET, machine.ARG_NEXT_LIT, lit(5)),
					0x0001: 0x1234,
				},
			},
			Output: testMachineState{
				Program: 0x0002,
				Cycles:  2,
			},
		},
		{
			Name: "SET Program Counter",
			Input: testMachineState{
				Memory: map[uint16]uint16{
					0x0000: op(machine.OP_SET, machine.ARG_PC, machine.ARG_NEXT_LIT),
					0x0001: 0x0100,
				},
			},
			Output: testMachineState{
				Program: 0x0100,
				Cycles:  2,
			},
		},
		{
			Name:  "SET Stack Pointer And Extra",
			Steps: 2,
			Input: testMachineState{
				Registers: [8]uint16{0: 0x8000},
				Memory: map[uint16]uint16{
					0x0000: op(machine.OP_SET, machine.ARG_SP, machine.REG_A),
					0x0001: op(machine.OP_SET, machine.ARG_EX, machine.ARG_SP),
				},
			},
			Output: testMachineState{
				Program:   0x0002,
				Stack:     0x8000,
				Extra:     0x8000,
				Cycles:    2,
				Registers: [8]uint16{0: 0x8000},
			},
		},
	})
}

// ADD  |aaaaaa|bbbbb|00010| b = b + a
// SUB  |aaaaaa|bbbbb|00011| b = b - a
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func TestAddSub(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name: "ADD Carry",
			Input: testMachineState{
				Registers: [8]uint16{0: 0xFFFF, 1: 0x0002},
				Memory: map[uint16]uint16{
					0x0000: op(machine.OP_ADD, machine.REG_A, machine.REG_B),
				},
			},
			Output: testMachineState{
				Program:   0x0001,
				Extra:     0x0001,
				Cycles:    2,
				Registers: [8]uint16{0: 0x0001, 1: 0x0002},
			},
		},
		{
			Name: "ADD Clears Extra",
			Input: testMachineState{
				Extra:     0x0005,
				Registers: [8]uint16{0: 0x0001, 1: 0x0002},
				Memory: map[uint16]uint16{
					0x0000: op(machine.OP_ADD, machine.REG_A, machine.REG_B),
				},
			},
			Output: testMachineState{
				Program:   0x0001,
				Cycles:    2,
				Registers: [8]uint16{0: 0x0003, 1: 0x0002},
			},
		},
		{
			Name: "ADD Memory Offset Resolved Once",
			Input: testMachineState{
				Registers: [8]uint16{1: 0x0100},
				Memory: map[uint16]uint16{
					0x0000: op(machine.OP_ADD, machine.ARG_REG_NEXT+machine.REG_B, lit(4)),
					0x0001: 0x0002,
					0x0102: 0x0010,
				},
			},
			Output: testMachineState{
				Program:   0x0002,
				Cycles:    3,
				Registers: [8]uint16{1: 0x0100},
				Memory: map[uint16]uint16{
					0x0102: 0x0014,
				},
			},
		},
		{
			Name: "SUB Borrow",
			Input: testMachineState{
				Registers: [8]uint16{0: 0x0001, 1: 0x0002},
				Memory: map[uint16]uint16{
					0x0000: op(machine.OP_SUB, machine.REG_A, machine.REG_B),
				},
			},
			Output: testMachineState{
				Program:   0x0001,
				Extra:     0xFFFF,
				Cycles:    2,
				Registers: [8]uint16{0: 0xFFFF, 1: 0x0002},
			},
		},
		{
			Name: "SUB No Borrow",
			Input: testMachineState{
				Extra:     0xFFFF,
				Registers: [8]uint16{0: 0x0009, 1: 0x0002},
				Memory: map[uint16]uint16{
					0x0000: op(machine.OP_SUB, machine.REG_A, machine.REG_B),
				},
			},
			Output: testMachineState{
				Program:   0x0001,
				Cycles:    2,
				Registers: [8]uint16{0: 0x0007, 1: 0x0002},
			},
		},
		{
			Name: "ADX Carry In And Out",
			Input: testMachineState{
				Extra:     0x0001,
				Registers: [8]uint16{0: 0xFFFF},
				Memory: map[uint16]uint16{
					0x0000: op(machine.OP_ADX, machine.REG_A, lit(0)),
				},
			},
			Output: testMachineState{
				Program:   0x0001,
				Extra:     0x0001,
				Cycles:    3,
				Registers: [8]uint16{0: 0x0000},
			},
		},
		{
			Name: "ADX No Carry",
			Input: testMachineState{
				Extra:     0x0001,
				Registers: [8]uint16{0: 0x0010},
				Memory: map[uint16]uint16{
					0x0000: op(machine.OP_ADX, machine.REG_A, lit(2)),
				},
			},
			Output: testMachineState{
				Program:   0x0001,
				Cycles:    3,
				Registers: [8]uint16{0: 0x0013},
			},
		},
		{
			Name: "SBX Borrow",
			Input: testMachineState{
				Registers: [8]uint16{0: 0x0000},
				Memory: map[uint16]uint16{
					0x0000: op(machine.OP_SBX, machine.REG_A, lit(1)),
				},
			},
			Output: testMachineState{
				Program:   0x0001,
				Extra:     0x0001,
				Cycles:    3,
				Registers: [8]uint16{0: 0xFFFF},
			},
		},
		{
			Name: "SBX In Range",
			Input: testMachineState{
				Extra:     0x0001,
				Registers: [8]uint16{0: 0x0005},
				Memory: map[uint16]uint16{
					0x0000: op(machine.OP_SBX, machine.REG_A, lit(1)),
				},
			},
			Output: testMachineState{
				Program:   0x0001,
				Cycles:    3,
				Registers: [8]uint16{0: 0x0005},
			},
		},
	})
}

// MUL  |aaaaaa|bbbbb|00100| b = b * a
// MLI  |aaaaaa|bbbbb|00101| b = b * a (signed)
// DIV  |aaaaaa|bbbbb|00110| b = b / a
// DVI  |aaaaaa|bbbbb|00111| b = b / a (signed)
// MOD  |aaaaaa|bbbbb|01000| b = b % a
// MDI  |aaaaaa|bbbbb|01001| b = b % a (signed)
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func TestMulDiv(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name: "MUL High Word",
			Input: testMachineState{
				Registers: [8]uint16{0: 0x1000, 1: 0x0020},
				Memory: map[uint16]uint16{
					0x0000: op(machine.OP_MUL, machine.REG_A, machine.REG_B),
				},
			},
			Output: testMachineState{
				Program:   0x0001,
				Extra:     0x0002,
				Cycles:    2,
				Registers: [8]uint16{0: 0x0000, 1: 0x0020},
			},
		},
		{
			Name: "MLI Negative",
			Input: testMachineState{
				Registers: [8]uint16{0: 0xFFFF, 1: 0x0002},
				Memory: map[uint16]uint16{
					0x0000: op(machine.OP_MLI, machine.REG_A, machine.REG_B),
				},
			},
			Output: testMachineState{
				Program:   0x0001,
				Extra:     0xFFFF,
				Cycles:    2,
				Registers: [8]uint16{0: 0xFFFE, 1: 0x0002},
			},
		},
		{
			Name: "DIV Fraction In Extra",
			Input: testMachineState{
				Registers: [8]uint16{0: 0x0007, 1: 0x0002},
				Memory: map[uint16]uint16{
					0x0000: op(machine.OP_DIV, machine.REG_A, machine.REG_B),
				},
			},
			Output: testMachineState{
				Program:   0x0001,
				Extra:     0x8000,
				Cycles:    3,
				Registers: [8]uint16{0: 0x0003, 1: 0x0002},
			},
		},
		{
			Name: "DIV By Zero",
			Input: testMachineState{
				Extra:     0x1234,
				Registers: [8]uint16{0: 0x0007},
				Memory: map[uint16]uint16{
					0x0000: op(machine.OP_DIV, machine.REG_A, machine.REG_B),
				},
			},
			Output: testMachineState{
				Program: 0x0001,
				Cycles:  3,
			},
		},
		{
			Name: "DVI Toward Zero",
			Input: testMachineState{
				Registers: [8]uint16{0: 0xFFF9, 1: 0x0002},
				Memory: map[uint16]uint16{
					0x0000: op(machine.OP_DVI, machine.REG_A, machine.REG_B),
				},
			},
			Output: testMachineState{
				Program:   0x0001,
				Extra:     0x8000,
				Cycles:    3,
				Registers: [8]uint16{0: 0xFFFD, 1: 0x0002},
			},
		},
		{
			Name: "DVI By Zero",
			Input: testMachineState{
				Registers: [8]uint16{0: 0xFFF9},
				Memory: map[uint16]uint16{
					0x0000: op(machine.OP_DVI, machine.REG_A, lit(0)),
				},
			},
			Output: testMachineState{
				Program: 0x0001,
				Cycles:  3,
			},
		},
		{
			Name: "MOD",
			Input: testMachineState{
				Registers: [8]uint16{0: 0x0007},
				Memory: map[uint16]uint16{
					0x0000: op(machine.OP_MOD, machine.REG_A, lit(3)),
				},
			},
			Output: testMachineState{
				Program:   0x0001,
				Cycles:    3,
				Registers: [8]uint16{0: 0x0001},
			},
		},
		{
			Name: "MOD By Zero",
			Input: testMachineState{
				Registers: [8]uint16{0: 0x0007},
				Memory: map[uint16]uint16{
					0x0000: op(machine.OP_MOD, machine.REG_A, lit(0)),
				},
			},
			Output: testMachineState{
				Program: 0x0001,
				Cycles:  3,
			},
		},
		{
			Name: "MDI Sign Of Dividend",
			Input: testMachineState{
				Registers: [8]uint16{0: 0xFFF9},
				Memory: map[uint16]uint16{
					0x0000: op(machine.OP_MDI, machine.REG_A, lit(16)),
				},
			},
			Output: testMachineState{
				Program:   0x0001,
				Cycles:    3,
				Registers: [8]uint16{0: 0xFFF9},
			},
		},
	})
}

// AND  |aaaaaa|bbbbb|01010| b = b & a
// BOR  |aaaaaa|bbbbb|01011| b = b | a
// XOR  |aaaaaa|bbbbb|01100| b = b ^ a
// SHR  |aaaaaa|bbbbb|01101| b = b >>> a
// ASR  |aaaaaa|bbbbb|01110| b = b >> a
// SHL  |aaaaaa|bbbbb|01111| b = b << a
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func TestBitwise(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name: "AND",
			Input: testMachineState{
				Registers: [8]uint16{0: 0xFF0F, 1: 0x0FF0},
				Memory: map[uint16]uint16{
					0x0000: op(machine.OP_AND, machine.REG_A, machine.REG_B),
				},
			},
			Output: testMachineState{
				Program:   0x0001,
				Cycles:    1,
				Registers: [8]uint16{0: 0x0F00, 1: 0x0FF0},
			},
		},
		{
			Name: "BOR",
			Input: testMachineState{
				Registers: [8]uint16{0: 0xFF0F, 1: 0x0FF0},
				Memory: map[uint16]uint16{
					0x0000: op(machine.OP_BOR, machine.REG_A, machine.REG_B),
				},
			},
			Output: testMachineState{
				Program:   0x0001,
				Cycles:    1,
				Registers: [8]uint16{0: 0xFFFF, 1: 0x0FF0},
			},
		},
		{
			Name: "XOR",
			Input: testMachineState{
				Registers: [8]uint16{0: 0xFF0F, 1: 0x0FF0},
				Memory: map[uint16]uint16{
					0x0000: op(machine.OP_XOR, machine.REG_A, machine.REG_B),
				},
			},
			Output: testMachineState{
				Program:   0x0001,
				Cycles:    1,
				Registers: [8]uint16{0: 0xF0FF, 1: 0x0FF0},
			},
		},
		{
			Name: "SHR",
			Input: testMachineState{
				Registers: [8]uint16{0: 0x8001},
				Memory: map[uint16]uint16{
					0x0000: op(machine.OP_SHR, machine.REG_A, lit(1)),
				},
			},
			Output: testMachineState{
				Program:   0x0001,
				Extra:     0x8000,
				Cycles:    1,
				Registers: [8]uint16{0: 0x4000},
			},
		},
		{
			Name: "ASR",
			Input: testMachineState{
				Registers: [8]uint16{0: 0x8001},
				Memory: map[uint16]uint16{
					0x0000: op(machine.OP_ASR, machine.REG_A, lit(4)),
				},
			},
			Output: testMachineState{
				Program:   0x0001,
				Extra:     0x1000,
				Cycles:    1,
				Registers: [8]uint16{0: 0xF800},
			},
		},
		{
			Name: "SHL",
			Input: testMachineState{
				Registers: [8]uint16{0: 0x8001},
				Memory: map[uint16]uint16{
					0x0000: op(machine.OP_SHL, machine.REG_A, lit(4)),
				},
			},
			Output: testMachineState{
				Program:   0x0001,
				Extra:     0x0008,
				Cycles:    1,
				Registers: [8]uint16{0: 0x0010},
			},
		},
	})
}

// STI  |aaaaaa|bbbbb|11110| a = b, I++, J++
// STD  |aaaaaa|bbbbb|11111| a = b, I--, J--
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func TestStore(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name: "STI",
			Input: testMachineState{
				Registers: [8]uint16{1: 0x0077, 6: 0x0010, 7: 0x0020},
				Memory: map[uint16]uint16{
					0x0000: op(machine.OP_STI, machine.REG_B, machine.ARG_REG_IND+machine.REG_I),
				},
			},
			Output: testMachineState{
				Program:   0x0001,
				Cycles:    2,
				Registers: [8]uint16{1: 0x0077, 6: 0x0011, 7: 0x0021},
				Memory: map[uint16]uint16{
					0x0010: 0x0077,
				},
			},
		},
		{
			Name: "STD",
			Input: testMachineState{
				Registers: [8]uint16{1: 0x0077, 6: 0x0010, 7: 0x0020},
				Memory: map[uint16]uint16{
					0x0000: op(machine.OP_STD, machine.REG_B, machine.ARG_REG_IND+machine.REG_I),
				},
			},
			Output: testMachineState{
				Program:   0x0001,
				Cycles:    2,
				Registers: [8]uint16{1: 0x0077, 6: 0x000F, 7: 0x001F},
				Memory: map[uint16]uint16{
					0x0010: 0x0077,
				},
			},
		},
	})
}

// IFx  |aaaaaa|bbbbb|10xxx| run next instruction only if test passes
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func TestConditional(t *testing.T) {
	next := op(machine.OP_SET, machine.REG_C, lit(1))

	conditional := func(name string, opcode, b, a uint16, taken bool) testCase {
		test := testCase{
			Name: name,
			Input: testMachineState{
				Registers: [8]uint16{0: b, 1: a},
				Memory: map[uint16]uint16{
					0x0000: op(opcode, machine.REG_A, machine.REG_B),
					0x0001: next,
				},
			},
			Output: testMachineState{
				Program:   0x0001,
				Cycles:    2,
				Registers: [8]uint16{0: b, 1: a},
			},
		}

		if !taken {
			test.Output.Program = 0x0002
			test.Output.Cycles = 3
		}

		return test
	}

	testSuccess(t, []testCase{
		conditional("IFB Taken", machine.OP_IFB, 0x0011, 0x0010, true),
		conditional("IFB Skipped", machine.OP_IFB, 0x000F, 0x0010, false),
		conditional("IFC Taken", machine.OP_IFC, 0x000F, 0x0010, true),
		conditional("IFC Skipped", machine.OP_IFC, 0x0011, 0x0010, false),
		conditional("IFE Taken", machine.OP_IFE, 0x0005, 0x0005, true),
		conditional("IFE Skipped", machine.OP_IFE, 0x0001, 0x0002, false),
		conditional("IFN Taken", machine.OP_IFN, 0x0001, 0x0002, true),
		conditional("IFN Skipped", machine.OP_IFN, 0x0005, 0x0005, false),
		conditional("IFG Taken", machine.OP_IFG, 0x0003, 0x0002, true),
		conditional("IFG Unsigned", machine.OP_IFG, 0xFFFF, 0x0001, true),
		conditional("IFG Skipped", machine.OP_IFG, 0x0002, 0x0002, false),
		conditional("IFA Taken", machine.OP_IFA, 0x0001, 0xFFFF, true),
		conditional("IFA Skipped", machine.OP_IFA, 0xFFFF, 0x0001, false),
		conditional("IFL Taken", machine.OP_IFL, 0x0001, 0x0002, true),
		conditional("IFL Skipped", machine.OP_IFL, 0xFFFF, 0x0001, false),
		conditional("IFU Taken", machine.OP_IFU, 0xFFFF, 0x0000, true),
		conditional("IFU Skipped", machine.OP_IFU, 0x0000, 0xFFFF, false),
		{
			Name:  "IFE Taken Executes Next",
			Steps: 2,
			Input: testMachineState{
				Registers: [8]uint16{0: 0x0005, 1: 0x0005},
				Memory: map[uint16]uint16{
					0x0000: op(machine.OP_IFE, machine.REG_A, machine.REG_B),
					0x0001: next,
				},
			},
			Output: testMachineState{
				Program:   0x0002,
				Cycles:    3,
				Registers: [8]uint16{0: 0x0005, 1: 0x0005, 2: 0x0001},
			},
		},
		{
			Name:  "Skip Chain",
			Steps: 2,
			Input: testMachineState{
				Registers: [8]uint16{0: 0x0001, 1: 0x0002},
				Memory: map[uint16]uint16{
					0x0000: op(machine.OP_IFE, machine.REG_A, machine.REG_B),
					0x0001: op(machine.OP_IFN, machine.REG_A, machine.ARG_NEXT_LIT),
					0x0002: 0x1234,
					0x0003: op(machine.OP_SET, machine.REG_C, machine.ARG_NEXT_LIT),
					0x0004: 0x0005,
					0x0005: op(machine.OP_SET, machine.REG_X, lit(1)),
				},
			},
			Output: testMachineState{
				Program:   0x0006,
				Cycles:    5,
				Registers: [8]uint16{0: 0x0001, 1: 0x0002, 3: 0x0001},
			},
		},
		{
			Name: "Skip Leaves Stack",
			Input: testMachineState{
				Stack:     0xFFF0,
				Registers: [8]uint16{0: 0x0001},
				Memory: map[uint16]uint16{
					0x0000: op(machine.OP_IFE, machine.REG_A, lit(0)),
					0x0001: op(machine.OP_SET, machine.ARG_PUSHPOP, machine.ARG_PUSHPOP),
				},
			},
			Output: testMachineState{
				Program:   0x0002,
				Stack:     0xFFF0,
				Cycles:    3,
				Registers: [8]uint16{0: 0x0001},
			},
		},
		{
			Name: "Skip Special",
			Input: testMachineState{
				Registers: [8]uint16{0: 0x0001},
				Memory: map[uint16]uint16{
					0x0000: op(machine.OP_IFE, machine.REG_A, lit(0)),
					0x0001: sop(machine.SOP_JSR, machine.ARG_NEXT_LIT),
					0x0002: 0x1000,
				},
			},
			Output: testMachineState{
				Program:   0x0003,
				Cycles:    3,
				Registers: [8]uint16{0: 0x0001},
			},
		},
	})
}

// JSR  |aaaaaa|00001|00000| push PC, PC = a
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func TestJump(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name: "JSR Next Literal",
			Input: testMachineState{
				Memory: map[uint16]uint16{
					0x0000: sop(machine.SOP_JSR, machine.ARG_NEXT_LIT),
					0x0001: 0x0100,
				},
			},
			Output: testMachineState{
				Program: 0x0100,
				Stack:   0xFFFF,
				Cycles:  4,
				Memory: map[uint16]uint16{
					0xFFFF: 0x0002,
				},
			},
		},
		{
			Name: "JSR Pop Resolved Before Push",
			Input: testMachineState{
				Stack: 0xFFFE,
				Memory: map[uint16]uint16{
					0x0000: sop(machine.SOP_JSR, machine.ARG_PUSHPOP),
					0xFFFE: 0x0200,
				},
			},
			Output: testMachineState{
				Program: 0x0200,
				Stack:   0xFFFE,
				Cycles:  3,
				Memory: map[uint16]uint16{
					0xFFFE: 0x0001,
				},
			},
		},
	})
}

// INT  |aaaaaa|01000|00000| queue software interrupt
// IAG  |aaaaaa|01001|00000| a = IA
// IAS  |aaaaaa|01010|00000| IA = a
// RFI  |aaaaaa|01011|00000| pop A, pop PC, stop queueing
// IAQ  |aaaaaa|01100|00000| queue interrupts if a != 0
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func TestInterrupt(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name: "INT Dispatched",
			Input: testMachineState{
				IntAddr:   0x0100,
				Registers: [8]uint16{0: 0x0007},
				Memory: map[uint16]uint16{
					0x0000: sop(machine.SOP_INT, lit(5)),
				},
			},
			Output: testMachineState{
				Program:   0x0100,
				Stack:     0xFFFE,
				IntAddr:   0x0100,
				Queueing:  true,
				Cycles:    4,
				Registers: [8]uint16{0: 0x0005},
				Memory: map[uint16]uint16{
					0xFFFF: 0x0001,
					0xFFFE: 0x0007,
				},
			},
		},
		{
			Name: "INT While Queueing",
			Input: testMachineState{
				IntAddr:  0x0100,
				Queueing: true,
				Memory: map[uint16]uint16{
					0x0000: sop(machine.SOP_INT, lit(5)),
				},
			},
			Output: testMachineState{
				Program:    0x0001,
				IntAddr:    0x0100,
				Queueing:   true,
				Interrupts: []uint16{0x0005},
				Cycles:     4,
			},
		},
		{
			Name: "Dispatch Oldest First",
			Input: testMachineState{
				IntAddr:    0x0100,
				Interrupts: []uint16{0x0001, 0x0002},
				Memory: map[uint16]uint16{
					0x0000: op(machine.OP_SET, machine.REG_B, lit(0)),
				},
			},
			Output: testMachineState{
				Program:    0x0100,
				Stack:      0xFFFE,
				IntAddr:    0x0100,
				Queueing:   true,
				Interrupts: []uint16{0x0002},
				Cycles:     1,
				Registers:  [8]uint16{0: 0x0001},
				Memory: map[uint16]uint16{
					0xFFFF: 0x0001,
				},
			},
		},
		{
			Name: "RFI",
			Input: testMachineState{
				Stack:     0xFFFE,
				Queueing:  true,
				Registers: [8]uint16{0: 0x0005},
				Memory: map[uint16]uint16{
					0x0000: sop(machine.SOP_RFI, 0),
					0xFFFE: 0x0007,
					0xFFFF: 0x0042,
				},
			},
			Output: testMachineState{
				Program:   0x0042,
				Stack:     0x0000,
				Cycles:    3,
				Registers: [8]uint16{0: 0x0007},
			},
		},
		{
			Name: "RFI Delivers Pending",
			Input: testMachineState{
				Stack:      0xFFFE,
				IntAddr:    0x0200,
				Queueing:   true,
				Interrupts: []uint16{0x0009},
				Registers:  [8]uint16{0: 0x0005},
				Memory: map[uint16]uint16{
					0x0000: sop(machine.SOP_RFI, 0),
					0xFFFE: 0x0007,
					0xFFFF: 0x0042,
				},
			},
			Output: testMachineState{
				Program:   0x0200,
				Stack:     0xFFFE,
				IntAddr:   0x0200,
				Queueing:  true,
				Cycles:    3,
				Registers: [8]uint16{0: 0x0009},
			},
		},
		{
			Name: "IAQ Holds Pending",
			Input: testMachineState{
				IntAddr:    0x0100,
				Interrupts: []uint16{0x0003},
				Memory: map[uint16]uint16{
					0x0000: sop(machine.SOP_IAQ, lit(1)),
				},
			},
			Output: testMachineState{
				Program:    0x0001,
				IntAddr:    0x0100,
				Queueing:   true,
				Interrupts: []uint16{0x0003},
				Cycles:     2,
			},
		},
		{
			Name: "IAQ Release",
			Input: testMachineState{
				Queueing: true,
				Memory: map[uint16]uint16{
					0x0000: sop(machine.SOP_IAQ, lit(0)),
				},
			},
			Output: testMachineState{
				Program: 0x0001,
				Cycles:  2,
			},
		},
		{
			Name: "IAG",
			Input: testMachineState{
				IntAddr: 0x1234,
				Memory: map[uint16]uint16{
					0x0000: sop(machine.SOP_IAG, machine.REG_B),
				},
			},
			Output: testMachineState{
				Program:   0x0001,
				IntAddr:   0x1234,
				Cycles:    1,
				Registers: [8]uint16{1: 0x1234},
			},
		},
		{
			Name: "IAS",
			Input: testMachineState{
				Memory: map[uint16]uint16{
					0x0000: sop(machine.SOP_IAS, machine.ARG_NEXT_LIT),
					0x0001: 0x4000,
				},
			},
			Output: testMachineState{
				Program: 0x0002,
				IntAddr: 0x4000,
				Cycles:  2,
			},
		},
	})
}

// HWN  |aaaaaa|10000|00000| a = number of devices
// HWQ  |aaaaaa|10001|00000| A,B,C,X,Y = identity of device a
// HWI  |aaaaaa|10010|00000| interrupt device a
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func TestHardware(t *testing.T) {
	identity := machine.Identity{
		ID:           0x12345678,
		Version:      0x0102,
		Manufacturer: 0x9ABCDEF0,
	}

	testSuccess(t, []testCase{
		{
			Name: "HWN No Devices",
			Input: testMachineState{
				Registers: [8]uint16{0: 0xFFFF},
				Memory: map[uint16]uint16{
					0x0000: sop(machine.SOP_HWN, machine.REG_A),
				},
			},
			Output: testMachineState{
				Program: 0x0001,
				Cycles:  2,
			},
		},
		{
			Name:    "HWN Two Devices",
			Devices: []machine.Device{&testDevice{}, &testDevice{}},
			Input: testMachineState{
				Memory: map[uint16]uint16{
					0x0000: sop(machine.SOP_HWN, machine.REG_A),
				},
			},
			Output: testMachineState{
				Program:   0x0001,
				Cycles:    2,
				Registers: [8]uint16{0: 0x0002},
			},
		},
		{
			Name:    "HWQ",
			Devices: []machine.Device{&testDevice{identity: identity}},
			Input: testMachineState{
				Memory: map[uint16]uint16{
					0x0000: sop(machine.SOP_HWQ, machine.REG_A),
				},
			},
			Output: testMachineState{
				Program: 0x0001,
				Cycles:  4,
				Registers: [8]uint16{
					0: 0x5678,
					1: 0x1234,
					2: 0x0102,
					3: 0xDEF0,
					4: 0x9ABC,
				},
			},
		},
		{
			Name:    "HWQ Out Of Range",
			Devices: []machine.Device{&testDevice{identity: identity}},
			Input: testMachineState{
				Registers: [8]uint16{0: 0x0001, 1: 0x1111, 2: 0x2222, 3: 0x3333, 4: 0x4444, 5: 0x5555},
				Memory: map[uint16]uint16{
					0x0000: sop(machine.SOP_HWQ, machine.REG_A),
				},
			},
			Output: testMachineState{
				Program:   0x0001,
				Cycles:    4,
				Registers: [8]uint16{5: 0x5555},
			},
		},
		{
			Name:    "HWI Device Cost",
			Devices: []machine.Device{&testDevice{cost: 7}},
			Input: testMachineState{
				Memory: map[uint16]uint16{
					0x0000: sop(machine.SOP_HWI, lit(0)),
				},
			},
			Output: testMachineState{
				Program:   0x0001,
				Cycles:    11,
				Registers: [8]uint16{2: 0xBEEF},
			},
		},
		{
			Name: "HWI Out Of Range",
			Input: testMachineState{
				Memory: map[uint16]uint16{
					0x0000: sop(machine.SOP_HWI, lit(3)),
				},
			},
			Output: testMachineState{
				Program: 0x0001,
				Cycles:  4,
			},
		},
	})
}

func TestArithmeticProperties(t *testing.T) {
	var mc machine.Machine

	// One machine is reused so every 16-bit value stays cheap to cover
	run := func(opcode, b, a uint16) *machine.Machine {
		mc.State.Program = 0
		mc.State.Registers[machine.REG_A] = b
		mc.State.Registers[machine.REG_B] = a
		mc.State.Extra = 0x5555
		mc.State.Memory[0] = op(opcode, machine.REG_A, machine.REG_B)

		if err := mc.Step(); err != nil {
			t.Fatalf("Unexpected error\nhave:%+v", err)
		}

		return &mc
	}

	check := func(name string, x uint16, mc *machine.Machine, result, extra uint16) bool {
		if have := mc.State.Registers[machine.REG_A]; have != result {
			t.Errorf("%s result mismatch for x=%#04x\nwant:%#04x\nhave:%#04x", name, x, result, have)
			return false
		}

		if have := mc.State.Extra; have != extra {
			t.Errorf("%s EX mismatch for x=%#04x\nwant:%#04x\nhave:%#04x", name, x, extra, have)
			return false
		}

		return true
	}

	for v := 0; v <= 0xFFFF; v++ {
		x := uint16(v)

		ok := check("ADD x, 0", x, run(machine.OP_ADD, x, 0), x, 0) &&
			check("SUB x, x", x, run(machine.OP_SUB, x, x), 0, 0) &&
			check("DIV x, 0", x, run(machine.OP_DIV, x, 0), 0, 0) &&
			check("DVI x, 0", x, run(machine.OP_DVI, x, 0), 0, 0)

		if have := run(machine.OP_MOD, x, 0).State.Registers[machine.REG_A]; have != 0 {
			t.Errorf("MOD x, 0 result mismatch for x=%#04x\nwant:0x0000\nhave:%#04x", x, have)
			ok = false
		}

		if !ok {
			t.FailNow()
		}
	}

	check("ADD 0xFFFF, 1", 0xFFFF, run(machine.OP_ADD, 0xFFFF, 1), 0, 1)
	check("SUB 0, 1", 0, run(machine.OP_SUB, 0, 1), 0xFFFF, 0xFFFF)
}

func TestDecodeError(t *testing.T) {
	tests := []struct {
		Name    string
		Program uint16
		Word    uint16
		Code    uint16
		Special bool
	}{
		{Name: "Opcode 0x18", Program: 0x0000, Word: 0x0018, Code: 0x18},
		{Name: "Opcode 0x19", Program: 0x0000, Word: 0x0019, Code: 0x19},
		{Name: "Opcode 0x1C", Program: 0x0010, Word: 0x001C, Code: 0x1C},
		{Name: "Opcode 0x1D", Program: 0x0010, Word: 0x001D, Code: 0x1D},
		{Name: "Special 0x02", Program: 0x0020, Word: sop(0x02, 0), Code: 0x02, Special: true},
		{Name: "Special 0x1F", Program: 0x0020, Word: sop(0x1F, machine.ARG_PUSHPOP), Code: 0x1F, Special: true},
	}

	for _, test := range tests {
		t.Run(test.Name, func(t *testing.T) {
			var mc machine.Machine
			mc.State.Program = test.Program
			mc.State.Memory[test.Program] = test.Word
			mc.State.IntAddr = 0x0100
			mc.Interrupt(0x0001)

			err := mc.Step()

			if err == nil {
				t.Fatal("Expected decode error\nhave:nil")
			}

			decodeErr, ok := machine.AsDecodeError(err)

			if !ok || !machine.IsDecodeError(err) {
				t.Fatalf("Error type mismatch\nwant:*machine.DecodeError\nhave:%T", err)
			}

			if decodeErr.Code != test.Code {
				t.Errorf("Code mismatch\nwant:%#02x\nhave:%#02x", test.Code, decodeErr.Code)
			}

			if decodeErr.PC != test.Program {
				t.Errorf("PC mismatch\nwant:%#04x\nhave:%#04x", test.Program, decodeErr.PC)
			}

			if decodeErr.Special != test.Special {
				t.Errorf("Special mismatch\nwant:%t\nhave:%t", test.Special, decodeErr.Special)
			}

			if mc.State.Stack != 0 {
				t.Errorf("Stack pointer mismatch\nwant:0x0000\nhave:%#04x", mc.State.Stack)
			}

			if len(mc.Interrupts) != 1 || mc.Queueing {
				t.Error("Interrupt dispatched after a decode error")
			}
		})
	}
}

func TestDecodeErrorMessage(t *testing.T) {
	tests := []struct {
		Err  machine.DecodeError
		Want string
	}{
		{machine.DecodeError{PC: 0x0010, Code: 0x18}, "invalid opcode 0x18 at 0x0010"},
		{machine.DecodeError{PC: 0x0200, Code: 0x02, Special: true}, "invalid special opcode 0x02 at 0x0200"},
		{machine.DecodeError{PC: 0x1234, Code: 0x20, Operand: true}, "invalid operand code 0x20 at 0x1234"},
	}

	for _, test := range tests {
		if have := test.Err.Error(); have != test.Want {
			t.Errorf("Message mismatch\nwant:%s\nhave:%s", test.Want, have)
		}
	}
}

func TestLoadBin(t *testing.T) {
	tests := []struct {
		Name  string
		Order binary.ByteOrder
		Data  []byte
	}{
		{"Big Endian", binary.BigEndian, []byte{0x7C, 0x01, 0x00, 0x05, 0x00, 0x21, 0xAA}},
		{"Little Endian", binary.LittleEndian, []byte{0x01, 0x7C, 0x05, 0x00, 0x21, 0x00, 0xAA}},
	}

	for _, test := range tests {
		t.Run(test.Name, func(t *testing.T) {
			var mc machine.Machine
			mc.State.Registers[machine.REG_C] = 0x1234
			mc.State.Memory[0x0003] = 0xFFFF
			mc.Cycles = 10

			if err := mc.LoadBin(bytes.NewReader(test.Data), test.Order); err != nil {
				t.Fatalf("Unexpected error\nhave:%+v", err)
			}

			want := []uint16{0x7C01, 0x0005, 0x0021, 0x0000}

			for i, word := range want {
				if have := mc.State.Memory[i]; have != word {
					t.Errorf("Memory value mismatch\nwant:%#04x (Memory[%d])\nhave:%#04x", word, i, have)
				}
			}

			if mc.State.Registers[machine.REG_C] != 0 || mc.Cycles != 0 {
				t.Error("LoadBin did not reset the machine")
			}

			for i := 0; i < 2; i++ {
				if err := mc.Step(); err != nil {
					t.Fatalf("Unexpected error\nhave:%+v", err)
				}
			}

			if mc.State.Registers[machine.REG_A] != 5 || mc.State.Registers[machine.REG_B] != 5 {
				t.Errorf(
					"Register mismatch\nwant:A=0x0005 B=0x0005\nhave:A=%#04x B=%#04x",
					mc.State.Registers[machine.REG_A],
					mc.State.Registers[machine.REG_B],
				)
			}
		})
	}
}

func TestLoadWordsTruncates(t *testing.T) {
	var mc machine.Machine

	words := make([]uint16, machine.MEMORY_SIZE+10)
	for i := range words {
		words[i] = 0xAAAA
	}

	mc.LoadWords(words)

	if have := mc.State.Memory[machine.MEMORY_SIZE-1]; have != 0xAAAA {
		t.Errorf("Memory value mismatch\nwant:0xaaaa\nhave:%#04x", have)
	}
}

func TestResetKeepsDevices(t *testing.T) {
	var mc machine.Machine
	dev := &testDevice{}

	mc.Attach(dev)
	mc.State.Registers[machine.REG_A] = 0x1234
	mc.Cycles = -50
	mc.Queueing = true
	mc.Interrupt(0x0001)

	mc.Reset()

	if len(mc.Devices) != 1 || mc.Devices[0] != dev {
		t.Error("Reset detached devices")
	}

	if mc.State.Registers[machine.REG_A] != 0 || mc.Cycles != 0 || mc.Queueing || len(mc.Interrupts) != 0 {
		t.Error("Reset left machine state behind")
	}

	mc.TickDevices()

	if dev.ticks != 1 {
		t.Errorf("Tick count mismatch\nwant:1\nhave:%d", dev.ticks)
	}
}

type testDebugger struct {
	steps  int
	reads  []uint16
	writes []uint16
}

func (dbg *testDebugger) Step(mc *machine.Machine) {
	dbg.steps++
}

func (dbg *testDebugger) Read(addr uint16, mc *machine.Machine) {
	dbg.reads = append(dbg.reads, addr)
}

func (dbg *testDebugger) Write(addr uint16, mc *machine.Machine) {
	dbg.writes = append(dbg.writes, addr)
}

func TestDebuggerHooks(t *testing.T) {
	var mc machine.Machine
	dbg := &testDebugger{}
	mc.Debugger = dbg

	mc.State.Memory[0x0000] = op(machine.OP_SET, machine.ARG_NEXT_IND, machine.ARG_NEXT_IND)
	mc.State.Memory[0x0001] = 0x2000
	mc.State.Memory[0x0002] = 0x1000

	if err := mc.Step(); err != nil {
		t.Fatalf("Unexpected error\nhave:%+v", err)
	}

	wantReads := []uint16{0x0000, 0x0001, 0x2000, 0x0002}

	if len(dbg.reads) != len(wantReads) {
		t.Fatalf("Read hook mismatch\nwant:%#04x\nhave:%#04x", wantReads, dbg.reads)
	}

	for i, addr := range wantReads {
		if dbg.reads[i] != addr {
			t.Errorf("Read hook mismatch\nwant:%#04x\nhave:%#04x", wantReads, dbg.reads)
			break
		}
	}

	if len(dbg.writes) != 1 || dbg.writes[0] != 0x1000 {
		t.Errorf("Write hook mismatch\nwant:[0x1000]\nhave:%#04x", dbg.writes)
	}

	if dbg.steps != 1 {
		t.Errorf("Step hook mismatch\nwant:1\nhave:%d", dbg.steps)
	}
}
