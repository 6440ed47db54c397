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
	"os"
	"sync"
	"time"

	"golang.org/x/sys/unix"

	"github.com/lassandro/godcpu/pkg/devices"
)

const ctrlC = 0x03

// translateByte maps a terminal input byte to a keyboard code.
func translateByte(b byte) (uint16, bool) {
	switch {
	case b == '\r' || b == '\n':
		return devices.KEY_RETURN, true
	case b == 0x7F || b == '\b':
		return devices.KEY_BACKSPACE, true
	case b >= 0x20 && b <= 0x7E:
		return uint16(b), true
	default:
		return 0, false
	}
}

// translateInput maps a chunk of raw terminal input to keyboard codes,
// recognising the ANSI escape sequences for arrows, insert and delete.
func translateInput(data []byte) []uint16 {
	var codes []uint16

	for i := 0; i < len(data); i++ {
		if data[i] == 0x1B && i+2 < len(data) && data[i+1] == '[' {
			switch data[i+2] {
			case 'A':
				codes = append(codes, devices.KEY_UP)
				i += 2
				continue
			case 'B':
				codes = append(codes, devices.KEY_DOWN)
				i += 2
				continue
			case 'C':
				codes = append(codes, devices.KEY_RIGHT)
				i += 2
				continue
			case 'D':
				codes = append(codes, devices.KEY_LEFT)
				i += 2
				continue
			case '2', '3':
				if i+3 < len(data) && data[i+3] == '~' {
					if data[i+2] == '2' {
						codes = append(codes, devices.KEY_INSERT)
					} else {
						codes = append(codes, devices.KEY_DELETE)
					}
					i += 3
					continue
				}
			}
		}

		if code, ok := translateByte(data[i]); ok {
			codes = append(codes, code)
		}
	}

	return codes
}

// pasteCodes maps pasted text to keyboard codes. A CRLF pair is a single
// return.
func pasteCodes(data []byte) []uint16 {
	codes := make([]uint16, 0, len(data))

	for i, b := range data {
		if b == '\n' && i > 0 && data[i-1] == '\r' {
			continue
		}

		if code, ok := translateByte(b); ok {
			codes = append(codes, code)
		}
	}

	return codes
}

// termHost reads raw stdin on its own goroutine. It never touches the
// machine: key codes are handed to the emulation loop over keys.
type termHost struct {
	keys      chan uint16
	interrupt chan struct{}
	stop      chan struct{}
	done      chan struct{}
	stopped   sync.Once
	fd        int
}

func newTermHost() *termHost {
	return &termHost{
		keys:      make(chan uint16, devices.KEY_QUEUE_SIZE),
		interrupt: make(chan struct{}, 1),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
		fd:        int(os.Stdin.Fd()),
	}
}

func (h *termHost) Start() error {
	if err := unix.SetNonblock(h.fd, true); err != nil {
		close(h.done)
		return err
	}

	go func() {
		defer close(h.done)
		buf := make([]byte, 64)

		for {
			select {
			case <-h.stop:
				return
			default:
			}

			n, err := unix.Read(h.fd, buf)

			if n > 0 {
				h.route(buf[:n])
			}

			if err != nil && err != unix.EAGAIN && err != unix.EINTR {
				return
			}

			if n <= 0 {
				time.Sleep(5 * time.Millisecond)
			}
		}
	}()

	return nil
}

func (h *termHost) route(data []byte) {
	for i, b := range data {
		if b == ctrlC {
			select {
			case h.interrupt <- struct{}{}:
			default:
			}

			data = data[:i]
			break
		}
	}

	for _, code := range translateInput(data) {
		select {
		case h.keys <- code:
		case <-h.stop:
			return
		}
	}
}

func (h *termHost) Stop() {
	h.stopped.Do(func() {
		close(h.stop)
	})

	<-h.done
	unix.SetNonblock(h.fd, false)
}

// termInput is the running stdin reader, paused while the debug REPL owns
// the terminal.
var termInput *termHost

func pauseInput() {
	if termInput != nil {
		termInput.Stop()
	}
}

func resumeInput() {
	if termInput == nil {
		return
	}

	replacement := newTermHost()

	if err := replacement.Start(); err != nil {
		log.WithError(err).Error("unable to read the terminal")
		shouldexit = true
		return
	}

	termInput = replacement
}

// runTerminal drives the machine from the terminal. Typed keys are pressed
// and released immediately since a terminal reports no key-up events.
func runTerminal(emu *emulator) int {
	enterRawTerm()
	defer exitRawTerm()

	if debugvar {
		emu.dbg.HandleBreak = emu.handleBreak
		emu.dbg.HandleRead = emu.handleRead
		emu.dbg.HandleWrite = emu.handleWrite
		emu.mc.Debugger = emu.dbg

		debugREPL(emu)
	}

	termInput = newTermHost()

	if err := termInput.Start(); err != nil {
		log.WithError(err).Error("unable to read the terminal")
		return 1
	}

	defer func() {
		termInput.Stop()
		termInput = nil
	}()

	for !shouldexit {
	drain:
		for {
			select {
			case code := <-termInput.keys:
				emu.keyboard.KeyDown(code)
				emu.keyboard.KeyUp(code)
			case <-termInput.interrupt:
				if !debugvar {
					shouldexit = true
					break drain
				}
				emu.dbg.Break = true
			default:
				break drain
			}
		}

		if shouldexit {
			break
		}

		if err := emu.sched.Run(); err != nil {
			logDecodeError(emu, err)

			if !debugvar {
				return 1
			}

			emu.dbg.PrintDisasm(&emu.mc.State, emu.mc.State.Program, 4)
			debugREPL(emu)
		}

		time.Sleep(time.Millisecond)
	}

	return 0
}
