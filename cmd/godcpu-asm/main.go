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
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/lassandro/godcpu/pkg/assembler"
)

var helpvar bool
var debugvar bool
var littlevar bool
var outvar string

const usage = "godcpu-asm [-debug] [-le] [-out outfile] filename"

var log = logrus.New()

func init() {
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: true,
		DisableQuote:     true,
	})
}

func init() {
	flag.BoolVar(&helpvar, "help", false, "Displays command usage")
	flag.BoolVar(
		&debugvar, "debug", false,
		"Specifies whether to generate debugging information as a symbol "+
			"table. The table will use the output filename with extension "+
			"'.dcpudb'",
	)
	flag.BoolVar(
		&littlevar, "le", false,
		"Writes little-endian words instead of big-endian",
	)
	flag.StringVar(
		&outvar, "out", "",
		"Specifies a precise name for the output file, "+
			"overriding the default means of determining it",
	)
}

// symbolFile returns the symbol table path that accompanies a binary.
func symbolFile(image string) string {
	return filepath.Join(
		filepath.Dir(image),
		strings.TrimSuffix(filepath.Base(image), filepath.Ext(image))+".dcpudb",
	)
}

func godcpu_asm() int {
	if helpvar {
		fmt.Println(usage)
		flag.PrintDefaults()
		return 0
	}

	args := flag.Args()

	var infile string
	var input io.ReadSeeker
	var source *logrus.Entry

	if stat, _ := os.Stdin.Stat(); stat.Mode()&os.ModeCharDevice == 0 {
		input = os.Stdin
		source = log.WithField("file", "<stdin>")

		if outvar == "" {
			outvar = "out.bin"
		}
	} else {
		if len(args) != 1 {
			log.Println(usage)
			return 1
		}

		file, err := os.Open(args[0])

		if err != nil {
			log.Println(err)
			return 1
		}

		defer file.Close()

		filename := filepath.Base(file.Name())

		if stat, err := file.Stat(); err != nil {
			log.Println(err)
			return 1
		} else if stat.IsDir() {
			log.Printf("%s is not a valid DCPU-16 assembly file", filename)
			return 1
		}

		input = file
		infile = file.Name()
		source = log.WithField("file", filename)

		if outvar == "" {
			outvar = strings.TrimSuffix(filename, filepath.Ext(filename)) + ".bin"
		}
	}

	var symtable assembler.SymTable
	var symtarget *assembler.SymTable = nil

	if debugvar {
		if input != os.Stdin {
			var err error
			if symtable.Source, err = filepath.Abs(infile); err != nil {
				source.WithError(err).Warn("unable to resolve source path")
				symtable.Source = ""
			}
		}
		symtable.Symbols = make(map[uint16]int64)
		symtable.Labels = make(map[uint16]string)
		symtarget = &symtable
	}

	result, errs := assembler.AssembleDCPUSource(input, symtarget)

	if len(errs) > 0 {
		for _, err := range errs {
			tokenErr, ok := err.(assembler.TokenError)

			if !ok || input == os.Stdin {
				source.Error(err)
				continue
			}

			cursor := tokenErr.GetPosition()

			if _, err := input.Seek(cursor.LineByte, io.SeekStart); err != nil {
				source.Error(err)
				continue
			}

			line, _ := bufio.NewReader(input).ReadString('\n')
			line = strings.TrimSuffix(line, "\n")

			underlinefmt := fmt.Sprintf(
				"%% %ds%s",
				int(cursor.Byte-cursor.LineByte)+1,
				strings.Repeat("~", int(max(cursor.Size, 1))-1),
			)

			source.Errorf(
				"%s\n%s\n\033[31m%s\033[0m",
				err,
				line,
				fmt.Sprintf(underlinefmt, "^"),
			)
		}

		return 1
	}

	{
		var order binary.ByteOrder = binary.BigEndian
		if littlevar {
			order = binary.LittleEndian
		}

		buffer := new(bytes.Buffer)

		if err := binary.Write(buffer, order, result); err != nil {
			source.WithError(err).Error("error writing output file")
			return 1
		}

		if err := os.WriteFile(outvar, buffer.Bytes(), 0666); err != nil {
			source.WithError(err).Error("error writing output file")
			return 1
		}
	}

	source.WithFields(logrus.Fields{
		"out":   outvar,
		"words": len(result),
	}).Debug("assembled")

	if debugvar {
		filename := symbolFile(outvar)

		file, err := os.Create(filename)

		if err != nil {
			source.WithError(err).Error("error creating symbol table")
			return 1
		}

		defer file.Close()

		if err := gob.NewEncoder(file).Encode(symtable); err != nil {
			source.WithError(err).Error("error writing symbol table")
			return 1
		}
	}

	return 0
}

func main() {
	flag.Parse()
	os.Exit(godcpu_asm())
}
