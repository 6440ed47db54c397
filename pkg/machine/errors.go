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

package machine

import (
	"fmt"

	"github.com/pkg/errors"
)

// DecodeError reports an instruction that cannot be decoded. The machine
// must not keep running after one; the host decides whether to halt or
// reset.
type DecodeError struct {
	PC   uint16
	Code uint16

	// Special is set when Code is a special opcode (b field of opcode 0x00)
	Special bool
	// Operand is set when Code is an operand addressing code
	Operand bool
}

func (err *DecodeError) Error() string {
	var kind string

	switch {
	case err.Operand:
		kind = "operand code"
	case err.Special:
		kind = "special opcode"
	default:
		kind = "opcode"
	}

	return fmt.Sprintf("invalid %s %#02x at %#04x", kind, err.Code, err.PC)
}

// AsDecodeError returns the DecodeError at the root of err, if any.
func AsDecodeError(err error) (*DecodeError, bool) {
	decodeErr, ok := errors.Cause(err).(*DecodeError)
	return decodeErr, ok
}

func IsDecodeError(err error) bool {
	_, ok := AsDecodeError(err)
	return ok
}
