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
	"fmt"
	"strings"

	"github.com/pkg/errors"
	lua "github.com/yuin/gopher-lua"

	"github.com/lassandro/godcpu/pkg/machine"
)

// RunScript runs Lua source against the machine. The script sees:
//
//	reg(name)            register value
//	setreg(name, value)
//	peek(addr)           memory word
//	poke(addr, value)
//	step([n])            execute n instructions (default 1)
//	int(message)         queue an interrupt
//	hwn()                number of attached devices
//	disasm(addr)         instruction text and length in words
//	breakpoint(addr)
//	label(name)          label address, nil when unknown
//	print(...)           writes to the debugger output
//
// Breakpoints and watchpoints do not fire while the script steps.
func (dbg *Debugger) RunScript(mc *machine.Machine, name, source string) error {
	L := lua.NewState()
	defer L.Close()

	checkWord := func(L *lua.LState, n int) uint16 {
		return uint16(L.CheckInt(n))
	}

	checkReg := func(L *lua.LState, n int) *uint16 {
		name := L.CheckString(n)
		reg, ok := Register(&mc.State, name)
		if !ok {
			L.ArgError(n, fmt.Sprintf("unknown register %q", name))
		}
		return reg
	}

	functions := map[string]lua.LGFunction{
		"reg": func(L *lua.LState) int {
			L.Push(lua.LNumber(*checkReg(L, 1)))
			return 1
		},
		"setreg": func(L *lua.LState) int {
			*checkReg(L, 1) = checkWord(L, 2)
			return 0
		},
		"peek": func(L *lua.LState) int {
			L.Push(lua.LNumber(mc.State.Memory[checkWord(L, 1)]))
			return 1
		},
		"poke": func(L *lua.LState) int {
			mc.State.Memory[checkWord(L, 1)] = checkWord(L, 2)
			return 0
		},
		"step": func(L *lua.LState) int {
			count := L.OptInt(1, 1)

			// Script steps are outside the scheduler's cycle budget
			hook, cycles := mc.Debugger, mc.Cycles
			mc.Debugger = nil
			defer func() {
				mc.Debugger = hook
				mc.Cycles = cycles
			}()

			for i := 0; i < count; i++ {
				if err := mc.Step(); err != nil {
					L.RaiseError("%v", err)
				}
			}
			return 0
		},
		"int": func(L *lua.LState) int {
			mc.Interrupt(checkWord(L, 1))
			return 0
		},
		"hwn": func(L *lua.LState) int {
			L.Push(lua.LNumber(len(mc.Devices)))
			return 1
		},
		"disasm": func(L *lua.LState) int {
			text, size := machine.Disassemble(&mc.State.Memory, checkWord(L, 1))
			L.Push(lua.LString(text))
			L.Push(lua.LNumber(size))
			return 2
		},
		"breakpoint": func(L *lua.LState) int {
			dbg.AddBreakpoint(checkWord(L, 1))
			return 0
		},
		"label": func(L *lua.LState) int {
			if addr, ok := dbg.Label(L.CheckString(1)); ok {
				L.Push(lua.LNumber(addr))
			} else {
				L.Push(lua.LNil)
			}
			return 1
		},
		"print": func(L *lua.LState) int {
			args := make([]string, 0, L.GetTop())
			for i := 1; i <= L.GetTop(); i++ {
				args = append(args, L.ToStringMeta(L.Get(i)).String())
			}
			fmt.Fprintln(dbg.out(), strings.Join(args, "\t"))
			return 0
		},
	}

	for fname, fn := range functions {
		L.SetGlobal(fname, L.NewFunction(fn))
	}

	if err := L.DoString(source); err != nil {
		return errors.Wrapf(err, "running script %s", name)
	}

	return nil
}
