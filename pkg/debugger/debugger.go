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

package debugger

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/lassandro/godcpu/pkg/encoding"
	"github.com/lassandro/godcpu/pkg/machine"
)

func (dbg *Debugger) out() io.Writer {
	if dbg.Output == nil {
		return os.Stdout
	}
	return dbg.Output
}

func (dbg *Debugger) Step(mc *machine.Machine) {
	if dbg.Break {
		if dbg.HandleBreak != nil {
			dbg.HandleBreak(dbg, mc)
		}
		return
	}

	for _, breakpoint := range dbg.Breakpoints {
		if mc.State.Program == breakpoint.Addr {
			if dbg.HandleBreak != nil {
				dbg.HandleBreak(dbg, mc)
			}
			break
		}
	}
}

func (dbg *Debugger) Read(addr uint16, mc *machine.Machine) {
	for _, watchpoint := range dbg.Watchpoints {
		if watchpoint.Type == WriteWatch {
			continue
		}

		if addr == watchpoint.Addr {
			if dbg.HandleRead != nil {
				dbg.HandleRead(addr, dbg, mc)
			}
			break
		}
	}
}

func (dbg *Debugger) Write(addr uint16, mc *machine.Machine) {
	for _, watchpoint := range dbg.Watchpoints {
		if watchpoint.Type == ReadWatch {
			continue
		}

		if addr == watchpoint.Addr {
			if dbg.HandleWrite != nil {
				dbg.HandleWrite(addr, dbg, mc)
			}
			break
		}
	}
}

// AddBreakpoint adds a breakpoint unless one already exists at addr.
func (dbg *Debugger) AddBreakpoint(addr uint16) bool {
	for _, breakpoint := range dbg.Breakpoints {
		if breakpoint.Addr == addr {
			return false
		}
	}

	dbg.Breakpoints = append(dbg.Breakpoints, Breakpoint{addr})
	return true
}

// AddWatchpoint adds a watchpoint unless an identical one already exists.
func (dbg *Debugger) AddWatchpoint(addr uint16, wtype WatchpointType) bool {
	for _, watchpoint := range dbg.Watchpoints {
		if watchpoint.Addr == addr && watchpoint.Type == wtype {
			return false
		}
	}

	dbg.Watchpoints = append(dbg.Watchpoints, Watchpoint{addr, wtype})
	return true
}

// Register returns a pointer to the named register (A-J, PC, SP, EX, IA).
func Register(mc *machine.MachineState, name string) (*uint16, bool) {
	switch strings.ToUpper(name) {
	case "A":
		return &mc.Registers[machine.REG_A], true
	case "B":
		return &mc.Registers[machine.REG_B], true
	case "C":
		return &mc.Registers[machine.REG_C], true
	case "X":
		return &mc.Registers[machine.REG_X], true
	case "Y":
		return &mc.Registers[machine.REG_Y], true
	case "Z":
		return &mc.Registers[machine.REG_Z], true
	case "I":
		return &mc.Registers[machine.REG_I], true
	case "J":
		return &mc.Registers[machine.REG_J], true
	case "PC":
		return &mc.Program, true
	case "SP":
		return &mc.Stack, true
	case "EX":
		return &mc.Extra, true
	case "IA":
		return &mc.IntAddr, true
	default:
		return nil, false
	}
}

// Label returns the address of a label from the loaded symbol table.
func (dbg *Debugger) Label(name string) (uint16, bool) {
	if dbg.SymTable == nil {
		return 0, false
	}

	return dbg.SymTable.Lookup(name)
}

// Resolve reads an address given either as a label or as a word.
func (dbg *Debugger) Resolve(arg string) (uint16, error) {
	if addr, ok := dbg.Label(arg); ok {
		return addr, nil
	}

	return encoding.DecodeWord(arg)
}

func (dbg *Debugger) PrintRegs(mc *machine.Machine) {
	out := dbg.out()
	names := [8]string{"A", "B", "C", "X", "Y", "Z", "I", "J"}

	for i, register := range mc.State.Registers {
		fmt.Fprintf(out, "\033[1m%s:\033[0m %#04x\t", names[i], register)
		if i == (len(mc.State.Registers)-1)/2 {
			fmt.Fprintln(out)
		}
	}

	fmt.Fprintln(out)
	fmt.Fprintf(
		out,
		"\033[1mPC:\033[0m %#04x\t\033[1mSP:\033[0m %#04x\t"+
			"\033[1mEX:\033[0m %#04x\t\033[1mIA:\033[0m %#04x\n",
		mc.State.Program,
		mc.State.Stack,
		mc.State.Extra,
		mc.State.IntAddr,
	)
	fmt.Fprintf(
		out,
		"\033[1mIAQ:\033[0m %t\t\033[1mqueued:\033[0m %d\t"+
			"\033[1mcycles:\033[0m %d\n",
		mc.Queueing,
		len(mc.Interrupts),
		mc.Cycles,
	)
}

// PrintDisasm lists count instructions starting at addr.
func (dbg *Debugger) PrintDisasm(mc *machine.MachineState, addr uint16, count uint16) {
	out := dbg.out()

	for i := uint16(0); i < count; i++ {
		text, size := machine.Disassemble(&mc.Memory, addr)

		if addr == mc.Program {
			fmt.Fprintf(out, "\033[1m[%#04x]\033[0m > %s\n", addr, text)
		} else {
			fmt.Fprintf(out, "\033[1m[%#04x]\033[0m   %s\n", addr, text)
		}

		addr += size
	}
}

// PrintSource lists count source lines starting at the line that assembled
// the word at addr.
func (dbg *Debugger) PrintSource(addr uint16, count uint16) {
	out := dbg.out()

	if dbg.SymTable == nil {
		fmt.Fprintln(out, "No symbol table loaded")
		return
	}

	if dbg.Source == nil {
		fmt.Fprintln(out, "No source file loaded")
		return
	}

	offset, exists := dbg.SymTable.Symbols[addr]

	if !exists {
		fmt.Fprintf(out, "No instruction found at %#04x\n", addr)
		return
	}

	if _, err := dbg.Source.Seek(offset, io.SeekStart); err != nil {
		fmt.Fprintln(out, err)
		return
	}

	lines := make(map[int64]uint16, len(dbg.SymTable.Symbols))
	for lineaddr, linebyte := range dbg.SymTable.Symbols {
		lines[linebyte] = lineaddr
	}

	scanner := bufio.NewScanner(dbg.Source)

	for i := uint16(0); i < count; i++ {
		if !scanner.Scan() {
			break
		}

		line := scanner.Text()

		if lineaddr, ok := lines[offset]; ok {
			fmt.Fprintf(out, "\033[1m[%#04x]\033[0m ", lineaddr)
		} else {
			fmt.Fprint(out, "\033[1;30m~~~~~~~~\033[0m ")
		}

		fmt.Fprintln(out, line)

		offset += int64(len(line) + 1)
	}

	if err := scanner.Err(); err != nil {
		fmt.Fprintln(out, err)
	}
}

func (dbg *Debugger) PrintMem(mc *machine.MachineState, addr, count uint16) {
	out := dbg.out()

	for i := uint16(0); i < count; i++ {
		current := addr + i

		if i == 0 {
			fmt.Fprintf(out, "\033[1m[%#04x]\033[0m ", current)
		} else if i%4 == 0 {
			fmt.Fprintln(out)
			fmt.Fprintf(out, "\033[1m[%#04x]\033[0m ", current)
		}

		result := mc.Memory[current]

		if result == 0 {
			fmt.Fprintf(out, "\033[1;30m%#04x\033[0m ", result)
		} else {
			fmt.Fprintf(out, "%#04x ", result)
		}
	}

	fmt.Fprintln(out)
}
