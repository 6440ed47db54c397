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
	"encoding/binary"
	"encoding/gob"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/lassandro/godcpu/pkg/assembler"
	"github.com/lassandro/godcpu/pkg/debugger"
	"github.com/lassandro/godcpu/pkg/devices"
	"github.com/lassandro/godcpu/pkg/machine"
	"github.com/lassandro/godcpu/pkg/scheduler"
	"github.com/lassandro/godcpu/pkg/snapshot"
)

var helpvar bool
var debugvar bool
var headlessvar bool
var littlevar bool
var verbosevar bool
var restorevar string
var savevar string
var scriptvar string
var scalevar int
var shouldexit bool

const usage = "godcpu [-debug] [-headless] [-le] [-restore snapshot] " +
	"[-save snapshot] [-script file.lua] [filename]"

var log = logrus.New()

func init() {
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
}

func init() {
	flag.BoolVar(&helpvar, "help", false, "Displays command usage")
	flag.BoolVar(&debugvar, "debug", false, "Runs the machine in a debug CLI")
	flag.BoolVar(
		&headlessvar, "headless", false,
		"Runs in the terminal without a display window",
	)
	flag.BoolVar(
		&littlevar, "le", false,
		"Reads the program image as little-endian words instead of big-endian",
	)
	flag.BoolVar(&verbosevar, "v", false, "Enables debug logging")
	flag.StringVar(
		&restorevar, "restore", "",
		"Restores machine state from a snapshot instead of loading an image",
	)
	flag.StringVar(
		&savevar, "save", "",
		"Writes a snapshot of the machine to this file on exit. "+
			"Also the target of the F5/F9 quick save keys",
	)
	flag.StringVar(
		&scriptvar, "script", "", "Runs a Lua debugger script before starting",
	)
	flag.IntVar(&scalevar, "scale", 4, "Window scale factor")
}

type emulator struct {
	mc       machine.Machine
	sched    *scheduler.Scheduler
	keyboard *devices.Keyboard
	display  *devices.Display
	clock    *devices.Clock
	dbg      *debugger.Debugger

	image  string
	source *os.File
}

func newEmulator() *emulator {
	emu := &emulator{
		keyboard: devices.NewKeyboard(),
		display:  devices.NewDisplay(nil),
		clock:    devices.NewClock(),
		dbg:      &debugger.Debugger{},
	}

	emu.mc.Attach(emu.keyboard)
	emu.mc.Attach(emu.display)
	emu.mc.Attach(emu.clock)

	emu.sched = scheduler.New(&emu.mc)
	emu.sched.Log = log

	return emu
}

// load fills the machine from the snapshot or program image given on the
// command line.
func (emu *emulator) load() error {
	emu.sched.Reset()

	if restorevar != "" {
		if err := snapshot.LoadFile(restorevar, &emu.mc); err != nil {
			return err
		}

		log.WithField("snapshot", restorevar).Info("restored machine state")
		return nil
	}

	file, err := os.Open(emu.image)

	if err != nil {
		return err
	}

	defer file.Close()

	var order binary.ByteOrder = binary.BigEndian
	if littlevar {
		order = binary.LittleEndian
	}

	if err := emu.mc.LoadBin(file, order); err != nil {
		return err
	}

	log.WithFields(logrus.Fields{
		"image":   emu.image,
		"devices": len(emu.mc.Devices),
	}).Info("loaded program image")

	return nil
}

// loadSymbols attaches the symbol table written by godcpu-asm -debug next to
// the program image, and the source file it names.
func (emu *emulator) loadSymbols() {
	filename := filepath.Join(
		filepath.Dir(emu.image),
		strings.TrimSuffix(filepath.Base(emu.image), filepath.Ext(emu.image))+".dcpudb",
	)

	file, err := os.Open(filename)

	if err != nil {
		log.WithError(err).Debug("no symbol table")
		return
	}

	defer file.Close()

	var symtable assembler.SymTable

	if err := gob.NewDecoder(file).Decode(&symtable); err != nil {
		log.WithError(err).Warn("error loading symbol table")
		return
	}

	emu.dbg.SymTable = &symtable

	if symtable.Source == "" {
		return
	}

	source, err := os.Open(symtable.Source)

	if err != nil {
		log.WithError(err).Warn("error loading source file")
		return
	}

	emu.source = source
	emu.dbg.Source = source

	log.WithFields(logrus.Fields{
		"symbols": filename,
		"labels":  len(symtable.Labels),
	}).Info("loaded symbol table")
}

func (emu *emulator) quickSave() {
	filename := savevar
	if filename == "" {
		filename = "godcpu.snap"
	}

	if err := snapshot.SaveFile(filename, &emu.mc); err != nil {
		log.WithError(err).Error("snapshot failed")
		return
	}

	log.WithField("snapshot", filename).Info("saved machine state")
}

func (emu *emulator) quickLoad() {
	filename := savevar
	if filename == "" {
		filename = "godcpu.snap"
	}

	emu.sched.Reset()

	if err := snapshot.LoadFile(filename, &emu.mc); err != nil {
		log.WithError(err).Error("restore failed")
		return
	}

	log.WithField("snapshot", filename).Info("restored machine state")
}

func logDecodeError(emu *emulator, err error) {
	fields := logrus.Fields{"cycles": emu.mc.Cycles}

	if decodeErr, ok := machine.AsDecodeError(err); ok {
		fields["pc"] = fmt.Sprintf("%#04x", decodeErr.PC)
		fields["code"] = fmt.Sprintf("%#02x", decodeErr.Code)
	}

	log.WithFields(fields).Errorf("%+v", err)
}

func godcpu() int {
	if helpvar {
		fmt.Println(usage)
		flag.PrintDefaults()
		return 0
	}

	if verbosevar {
		log.SetLevel(logrus.DebugLevel)
	}

	args := flag.Args()
	emu := newEmulator()

	if restorevar == "" {
		if len(args) != 1 {
			log.Println(usage)
			return 1
		}

		emu.image = args[0]
	}

	if err := emu.load(); err != nil {
		log.Println(err)
		return 1
	}

	if debugvar && emu.image != "" {
		emu.loadSymbols()

		if emu.source != nil {
			defer emu.source.Close()
		}
	}

	if scriptvar != "" {
		source, err := os.ReadFile(scriptvar)

		if err != nil {
			log.Println(err)
			return 1
		}

		if err := emu.dbg.RunScript(&emu.mc, scriptvar, string(source)); err != nil {
			log.Println(err)
			return 1
		}
	}

	var status int

	if debugvar || headlessvar {
		status = runTerminal(emu)
	} else {
		status = runWindow(emu)
	}

	if savevar != "" {
		if err := snapshot.SaveFile(savevar, &emu.mc); err != nil {
			log.Println(err)
			return 1
		}

		log.WithField("snapshot", savevar).Info("saved machine state")
	}

	return status
}

func main() {
	flag.Parse()
	os.Exit(godcpu())
}
