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

package snapshot

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/lassandro/godcpu/pkg/machine"
)

// Change MAGIC if the layout ever changes.
const MAGIC uint32 = 0x0DABB1ED

var ErrBadMagic = errors.New("invalid snapshot magic number")

// header mirrors the fixed-size prefix of the record following the magic
// number.
type header struct {
	Registers [8]uint16
	Program   uint16
	Stack     uint16
	Extra     uint16
	IntAddr   uint16
	Queueing  bool
}

// Save writes the machine registers, interrupt latch and queue, and memory.
// Devices and the cycle counter are not part of a snapshot.
func Save(w io.Writer, mc *machine.Machine) error {
	bw := bufio.NewWriter(w)

	if err := binary.Write(bw, binary.LittleEndian, MAGIC); err != nil {
		return errors.Wrap(err, "writing snapshot magic")
	}

	hdr := header{
		Registers: mc.State.Registers,
		Program:   mc.State.Program,
		Stack:     mc.State.Stack,
		Extra:     mc.State.Extra,
		IntAddr:   mc.State.IntAddr,
		Queueing:  mc.Queueing,
	}

	if err := binary.Write(bw, binary.LittleEndian, &hdr); err != nil {
		return errors.Wrap(err, "writing snapshot header")
	}

	if err := writeWords(bw, mc.Interrupts); err != nil {
		return errors.Wrap(err, "writing interrupt queue")
	}

	if err := writeWords(bw, mc.State.Memory[:]); err != nil {
		return errors.Wrap(err, "writing memory")
	}

	return errors.Wrap(bw.Flush(), "flushing snapshot")
}

func writeWords(w io.Writer, words []uint16) error {
	if err := binary.Write(w, binary.LittleEndian, int32(len(words))); err != nil {
		return err
	}

	return binary.Write(w, binary.LittleEndian, words)
}

// Words are read in chunks so a corrupt count fails on truncation instead of
// forcing one large allocation up front.
const readChunk = 4096

// A negative max leaves the count unbounded.
func readWords(r io.Reader, max int) ([]uint16, error) {
	var count int32

	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, err
	}

	if count < 0 || (max >= 0 && int(count) > max) {
		return nil, errors.Errorf("invalid word count %d", count)
	}

	words := make([]uint16, 0, min(int(count), readChunk))
	chunk := make([]uint16, min(int(count), readChunk))

	for remaining := int(count); remaining > 0; {
		n := min(remaining, readChunk)

		if err := binary.Read(r, binary.LittleEndian, chunk[:n]); err != nil {
			return nil, err
		}

		words = append(words, chunk[:n]...)
		remaining -= n
	}

	return words, nil
}

// Load replaces the machine state with a snapshot. The record is decoded in
// full before the machine is touched; on failure the machine is reset, so it
// is never left partially restored. Attached devices are kept.
func Load(r io.Reader, mc *machine.Machine) error {
	br := bufio.NewReader(r)

	var magic uint32
	var hdr header

	if err := binary.Read(br, binary.LittleEndian, &magic); err != nil {
		mc.Reset()
		return errors.Wrap(err, "reading snapshot magic")
	}

	if magic != MAGIC {
		mc.Reset()
		return errors.WithStack(ErrBadMagic)
	}

	if err := binary.Read(br, binary.LittleEndian, &hdr); err != nil {
		mc.Reset()
		return errors.Wrap(err, "reading snapshot header")
	}

	interrupts, err := readWords(br, -1)
	if err != nil {
		mc.Reset()
		return errors.Wrap(err, "reading interrupt queue")
	}

	memory, err := readWords(br, machine.MEMORY_SIZE)
	if err != nil {
		mc.Reset()
		return errors.Wrap(err, "reading memory")
	}

	mc.Reset()
	mc.State.Registers = hdr.Registers
	mc.State.Program = hdr.Program
	mc.State.Stack = hdr.Stack
	mc.State.Extra = hdr.Extra
	mc.State.IntAddr = hdr.IntAddr
	mc.Queueing = hdr.Queueing
	mc.Interrupts = append(mc.Interrupts, interrupts...)
	copy(mc.State.Memory[:], memory)

	return nil
}

func SaveFile(filename string, mc *machine.Machine) error {
	file, err := os.Create(filename)

	if err != nil {
		return errors.Wrap(err, "creating snapshot")
	}

	if err := Save(file, mc); err != nil {
		file.Close()
		return errors.Wrapf(err, "saving snapshot %q", filename)
	}

	return errors.Wrapf(file.Close(), "closing snapshot %q", filename)
}

func LoadFile(filename string, mc *machine.Machine) error {
	file, err := os.Open(filename)

	if err != nil {
		return errors.Wrap(err, "opening snapshot")
	}

	defer file.Close()

	return errors.Wrapf(Load(file, mc), "loading snapshot %q", filename)
}
