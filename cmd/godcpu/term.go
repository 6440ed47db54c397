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

	"golang.org/x/term"
)

var termRestore *term.State

func enterRawTerm() {
	fd := int(os.Stdin.Fd())

	if !term.IsTerminal(fd) {
		return
	}

	state, err := term.MakeRaw(fd)

	if err != nil {
		panic(err)
	}

	termRestore = state
}

func exitRawTerm() {
	if termRestore == nil {
		return
	}

	if err := term.Restore(int(os.Stdin.Fd()), termRestore); err != nil {
		panic(err)
	}

	termRestore = nil
}
