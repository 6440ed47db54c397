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

package main

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/lassandro/godcpu/pkg/debugger"
	"github.com/lassandro/godcpu/pkg/encoding"
	"github.com/lassandro/godcpu/pkg/machine"
	"github.com/lassandro/godcpu/pkg/snapshot"
)

var lastcmd []string

func debugBreak(dbg *debugger.Debugger, args []string) {
	const usage = "break [add|list|remove|clear]"

	if len(args) == 0 {
		args = append(args, "l")
	}

	cmd := args[0]
	args = args[1:]

	switch cmd {
	case "a", "add":
		const usage = "break add [0x####|label]"

		if len(args) != 1 {
			log.Println(usage)
			return
		}

		addr, err := dbg.Resolve(args[0])

		if err != nil {
			log.Println(err)
			return
		}

		if dbg.AddBreakpoint(addr) {
			fmt.Printf("Breakpoint added [%#04x]\n", addr)
		}

	case "l", "ls", "list":
		if len(args) != 0 {
			log.Println("break list")
			return
		}

		var fmtstring string
		{
			digits := math.Floor(math.Log10(float64(len(dbg.Breakpoints) + 1)))
			fmtstring = fmt.Sprintf("#%%0%dd: %%#04x\n", int64(digits)+1)
		}

		for i, breakpoint := range dbg.Breakpoints {
			fmt.Printf(fmtstring, i, breakpoint.Addr)
		}

	case "r", "rm", "remove":
		const usage = "break remove [#]"

		if len(args) != 1 {
			log.Println(usage)
			return
		}

		i, err := strconv.ParseInt(args[0], 10, 64)

		if err != nil {
			log.Println(err)
			return
		}

		if i < 0 || i >= int64(len(dbg.Breakpoints)) {
			log.Println("Invalid breakpoint number")
			return
		}

		dbg.Breakpoints[i] = dbg.Breakpoints[len(dbg.Breakpoints)-1]
		dbg.Breakpoints = dbg.Breakpoints[:len(dbg.Breakpoints)-1]
		fmt.Printf("Breakpoint removed [%d]\n", i)

	case "clear":
		dbg.Breakpoints = make([]debugger.Breakpoint, 0)
		fmt.Println("Breakpoints reset")

	default:
		log.Printf("break: '%s' is not a valid command\n", cmd)
		log.Println(usage)
	}
}

func watchName(wtype debugger.WatchpointType) string {
	switch wtype {
	case debugger.ReadWatch:
		return "read"
	case debugger.WriteWatch:
		return "write"
	default:
		return "rwrite"
	}
}

func debugWatch(dbg *debugger.Debugger, args []string) {
	const usage = "watch [add|list|rm|clear]"

	if len(args) == 0 {
		log.Println(usage)
		return
	}

	cmd := args[0]
	args = args[1:]

	switch cmd {
	case "a", "add":
		const usage = "watch add [0x####|label] [read|write|readwrite]"

		if len(args) != 2 {
			log.Println(usage)
			return
		}

		addr, err := dbg.Resolve(args[0])

		if err != nil {
			log.Println(err)
			return
		}

		var wtype debugger.WatchpointType

		switch args[1] {
		case "r", "read":
			wtype = debugger.ReadWatch
		case "w", "write":
			wtype = debugger.WriteWatch
		case "rw", "rwrite", "readwrite":
			wtype = debugger.ReadWriteWatch
		default:
			log.Println(usage)
			return
		}

		if dbg.AddWatchpoint(addr, wtype) {
			fmt.Printf("Watchpoint added [%#04x] (%s)\n", addr, watchName(wtype))
		}

	case "l", "ls", "list":
		if len(args) != 0 {
			log.Println("watch list")
			return
		}

		var fmtstring string
		{
			digits := math.Floor(math.Log10(float64(len(dbg.Watchpoints) + 1)))
			fmtstring = fmt.Sprintf("#%%0%dd: %%#04x %%s\n", int64(digits)+1)
		}

		for i, watchpoint := range dbg.Watchpoints {
			fmt.Printf(fmtstring, i, watchpoint.Addr, watchName(watchpoint.Type))
		}

	case "r", "rm", "remove":
		const usage = "watch rm [#]"

		if len(args) != 1 {
			log.Println(usage)
			return
		}

		i, err := strconv.ParseInt(args[0], 10, 64)

		if err != nil {
			log.Println(err)
			return
		}

		if i < 0 || i >= int64(len(dbg.Watchpoints)) {
			log.Println("Invalid watchpoint number")
			return
		}

		dbg.Watchpoints[i] = dbg.Watchpoints[len(dbg.Watchpoints)-1]
		dbg.Watchpoints = dbg.Watchpoints[:len(dbg.Watchpoints)-1]
		fmt.Printf("Watchpoint removed [%d]\n", i)

	case "clear":
		dbg.Watchpoints = make([]debugger.Watchpoint, 0)
		fmt.Println("Watchpoints reset")

	default:
		log.Printf("watch: '%s' is not a valid command\n", cmd)
	}
}

func debugReg(dbg *debugger.Debugger, mc *machine.Machine, args []string) {
	const usage = "register [A-J|PC|SP|EX|IA] [value]"

	if len(args) == 0 {
		dbg.PrintRegs(mc)
		return
	}

	if len(args) != 2 {
		log.Println(usage)
		return
	}

	reg, ok := debugger.Register(&mc.State, args[0])

	if !ok {
		log.Println("Invalid register")
		return
	}

	value, err := encoding.DecodeWord(args[1])

	if err != nil {
		log.Println(err)
		return
	}

	*reg = value
	fmt.Printf("\033[1m%s:\033[0m %#04x\n", strings.ToUpper(args[0]), value)
}

// parseRange reads the optional "[0x####|label|#] [#]" arguments shared by
// the listing commands. A lone decimal argument is a count from PC.
func parseRange(dbg *debugger.Debugger, mc *machine.MachineState, args []string, size uint16) (uint16, uint16, error) {
	addr := mc.Program

	if len(args) > 0 {
		if value, ok := dbg.Label(args[0]); ok {
			addr = value
		} else if value, err := encoding.DecodeHex(args[0]); err == nil {
			addr = value
		} else {
			count, err := strconv.ParseUint(args[0], 10, 16)

			if err != nil {
				return 0, 0, err
			}

			size = uint16(count)
		}
	}

	if len(args) > 1 {
		count, err := strconv.ParseUint(args[1], 10, 16)

		if err != nil {
			return 0, 0, err
		}

		size = uint16(count)
	}

	return addr, size, nil
}

func debugDisasm(dbg *debugger.Debugger, mc *machine.MachineState, args []string) {
	const usage = "disasm [0x####|label|#] [#]"

	if len(args) > 2 {
		log.Println(usage)
		return
	}

	addr, size, err := parseRange(dbg, mc, args, 4)

	if err != nil {
		log.Println(err)
		return
	}

	dbg.PrintDisasm(mc, addr, size)
}

func debugMemory(dbg *debugger.Debugger, mc *machine.MachineState, args []string) {
	const usage = "memory [0x####|label|#] [#]"

	if len(args) > 2 {
		log.Println(usage)
		return
	}

	addr, size, err := parseRange(dbg, mc, args, 1)

	if err != nil {
		log.Println(err)
		return
	}

	dbg.PrintMem(mc, addr, size)
}

func debugSet(dbg *debugger.Debugger, mc *machine.MachineState, args []string) {
	const usage = "set [0x####|label] [value]"

	if len(args) != 2 {
		log.Println(usage)
		return
	}

	addr, err := dbg.Resolve(args[0])

	if err != nil {
		log.Println(err)
		return
	}

	value, err := encoding.DecodeWord(args[1])

	if err != nil {
		log.Println(err)
		return
	}

	mc.Memory[addr] = value
	dbg.PrintMem(mc, addr, 1)
}

func debugSource(dbg *debugger.Debugger, mc *machine.MachineState, args []string) {
	const usage = "source [0x####|label|#] [#]"

	if len(args) > 2 {
		log.Println(usage)
		return
	}

	addr, size, err := parseRange(dbg, mc, args, 3)

	if err != nil {
		log.Println(err)
		return
	}

	dbg.PrintSource(addr, size)
}

func debugLabels(dbg *debugger.Debugger, args []string) {
	const usage = "labels"

	if len(args) > 0 {
		log.Println(usage)
		return
	}

	if dbg.SymTable == nil {
		fmt.Println("No symbol table loaded")
		return
	}

	keys := make([]uint16, 0, len(dbg.SymTable.Labels))
	for addr := range dbg.SymTable.Labels {
		keys = append(keys, addr)
	}

	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	for _, addr := range keys {
		fmt.Printf(
			"\033[1m[%#04x]\033[0m %s\n", addr, dbg.SymTable.Labels[addr],
		)
	}
}

func debugJump(dbg *debugger.Debugger, mc *machine.MachineState, args []string) {
	const usage = "jump [0x####|label]"

	if len(args) != 1 {
		log.Println(usage)
		return
	}

	addr, err := dbg.Resolve(args[0])

	if err != nil {
		log.Println(err)
		return
	}

	mc.Program = addr
	fmt.Printf("\033[1mPC:\033[0m %#04x\n", addr)
}

func debugInt(mc *machine.Machine, args []string) {
	const usage = "int [message]"

	if len(args) != 1 {
		log.Println(usage)
		return
	}

	message, err := encoding.DecodeWord(args[0])

	if err != nil {
		log.Println(err)
		return
	}

	mc.Interrupt(message)
	fmt.Printf("Interrupt queued [%#04x] (%d pending)\n", message, len(mc.Interrupts))
}

func debugHardware(mc *machine.Machine) {
	for i, dev := range mc.Devices {
		id := dev.Identity()
		fmt.Printf(
			"\033[1m#%d:\033[0m id %#08x version %#04x manufacturer %#08x\n",
			i,
			id.ID,
			id.Version,
			id.Manufacturer,
		)
	}
}

func debugSnapshot(emu *emulator, cmd string, args []string) {
	filename := savevar
	if len(args) > 0 {
		filename = args[0]
	}

	if filename == "" {
		log.Printf("%s [filename]\n", cmd)
		return
	}

	var err error

	if cmd == "save" {
		err = snapshot.SaveFile(filename, &emu.mc)
	} else {
		emu.sched.Reset()
		err = snapshot.LoadFile(filename, &emu.mc)
	}

	if err != nil {
		log.Println(err)
		return
	}

	fmt.Printf("Snapshot %s [%s]\n", cmd, filename)
}

func debugScript(emu *emulator, args []string) {
	const usage = "script [file.lua]"

	if len(args) != 1 {
		log.Println(usage)
		return
	}

	source, err := os.ReadFile(args[0])

	if err != nil {
		log.Println(err)
		return
	}

	if err := emu.dbg.RunScript(&emu.mc, args[0], string(source)); err != nil {
		log.Println(err)
	}
}

func debugREPL(emu *emulator) {
	dbg := emu.dbg
	mc := &emu.mc

	pauseInput()
	defer resumeInput()

	exitRawTerm()
	defer enterRawTerm()

	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("\033[1;30m(dbg)\033[0m ")

		if !scanner.Scan() {
			fmt.Println()
			shouldexit = true
			return
		}

		args := strings.Fields(scanner.Text())

		if len(args) == 0 {
			if len(lastcmd) == 0 {
				continue
			}
			args = lastcmd
		} else {
			lastcmd = make([]string, len(args))
			copy(lastcmd, args)
		}

		cmd := args[0]
		args = args[1:]

		switch cmd {
		case "b", "bp", "break", "breakpoint":
			debugBreak(dbg, args)

		case "w", "wp", "watch", "watchpoint":
			debugWatch(dbg, args)

		case "r", "reg", "register", "registers":
			debugReg(dbg, mc, args)

		case "d", "dis", "disasm", "l", "list":
			debugDisasm(dbg, &mc.State, args)

		case "j", "jmp", "jump":
			debugJump(dbg, &mc.State, args)

		case "src", "source":
			debugSource(dbg, &mc.State, args)

		case "labels":
			debugLabels(dbg, args)

		case "m", "mem", "memory":
			debugMemory(dbg, &mc.State, args)

		case "set":
			debugSet(dbg, &mc.State, args)

		case "i", "int", "interrupt":
			debugInt(mc, args)

		case "hw", "hardware":
			debugHardware(mc)

		case "save", "load":
			debugSnapshot(emu, cmd, args)

		case "script":
			debugScript(emu, args)

		case "c", "continue":
			dbg.Break = false
			return

		case "n", "next", "s", "step":
			dbg.Break = true
			return

		case "q", "quit", "exit":
			shouldexit = true
			return

		case "clear":
			fmt.Print("\033[H\033[2J")

		case "reset":
			if err := emu.load(); err != nil {
				log.Println(err)
			}

		default:
			fmt.Printf("error: '%s' is not a valid command\n", cmd)
		}
	}
}

func (emu *emulator) handleBreak(dbg *debugger.Debugger, mc *machine.Machine) {
	if shouldexit {
		return
	}

	if !dbg.Break {
		fmt.Println()
		fmt.Println("Program stopped")
	}
	dbg.PrintDisasm(&mc.State, mc.State.Program, 4)
	debugREPL(emu)
}

func (emu *emulator) handleRead(addr uint16, dbg *debugger.Debugger, mc *machine.Machine) {
	if shouldexit {
		return
	}

	fmt.Println()
	fmt.Println("Program stopped (read)")
	dbg.PrintMem(&mc.State, addr, 1)
	debugREPL(emu)
}

func (emu *emulator) handleWrite(addr uint16, dbg *debugger.Debugger, mc *machine.Machine) {
	if shouldexit {
		return
	}

	fmt.Println()
	fmt.Println("Program stopped (write)")
	dbg.PrintMem(&mc.State, addr, 1)
	debugREPL(emu)
}
