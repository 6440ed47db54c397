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

package encoding

import (
	"encoding/binary"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Decodes a hexidecimal string in the formats: 0xFFFF, xFFFF, 0xFF, xFF
func DecodeHex(s string) (uint16, error) {
	if i := strings.IndexAny(s, "xX"); i == 0 {
		s = "0" + s
	} else if i == -1 || i != 1 {
		return 0, errors.New("Invalid hex string")
	}

	result, err := strconv.ParseUint(s, 0, 16)

	if err != nil {
		return 0, err
	}

	return uint16(result), nil
}

// Decodes a base-10 string in the formats: #123, 123
func DecodeInt(s string) (int16, error) {
	if i := strings.Index(s, "#"); i == 0 {
		s = s[1:]
	}

	result, err := strconv.ParseInt(s, 10, 16)

	if err != nil {
		return 0, err
	}

	return int16(result), nil
}

// Decodes a word given as hex (0x####) or base-10 (#123, 123, -1, 65535)
func DecodeWord(s string) (uint16, error) {
	if value, err := DecodeHex(s); err == nil {
		return value, nil
	}

	if value, err := DecodeInt(s); err == nil {
		return uint16(value), nil
	}

	value, err := strconv.ParseUint(strings.TrimPrefix(s, "#"), 10, 16)

	if err != nil {
		return 0, errors.Errorf("Invalid word %q", s)
	}

	return uint16(value), nil
}

// Converts a raw byte buffer into 16-bit words of the given byte order. A
// trailing odd byte is ignored.
func Words(data []byte, order binary.ByteOrder) []uint16 {
	result := make([]uint16, len(data)/2)

	for i := range result {
		result[i] = order.Uint16(data[2*i:])
	}

	return result
}
