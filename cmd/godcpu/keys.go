//go:build !headless

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
	"github.com/hajimehoshi/ebiten/v2"

	"github.com/lassandro/godcpu/pkg/devices"
)

// windowKeys are the keys whose code ignores shift.
var windowKeys = map[ebiten.Key]uint16{
	ebiten.KeyArrowUp:      devices.KEY_UP,
	ebiten.KeyArrowDown:    devices.KEY_DOWN,
	ebiten.KeyArrowLeft:    devices.KEY_LEFT,
	ebiten.KeyArrowRight:   devices.KEY_RIGHT,
	ebiten.KeyShiftLeft:    devices.KEY_SHIFT,
	ebiten.KeyShiftRight:   devices.KEY_SHIFT,
	ebiten.KeyControlLeft:  devices.KEY_CONTROL,
	ebiten.KeyControlRight: devices.KEY_CONTROL,
	ebiten.KeyEnter:        devices.KEY_RETURN,
	ebiten.KeyNumpadEnter:  devices.KEY_RETURN,
	ebiten.KeyBackspace:    devices.KEY_BACKSPACE,
	ebiten.KeyInsert:       devices.KEY_INSERT,
	ebiten.KeyDelete:       devices.KEY_DELETE,

	ebiten.KeySpace:          ' ',
	ebiten.KeyNumpad0:        '0',
	ebiten.KeyNumpad1:        '1',
	ebiten.KeyNumpad2:        '2',
	ebiten.KeyNumpad3:        '3',
	ebiten.KeyNumpad4:        '4',
	ebiten.KeyNumpad5:        '5',
	ebiten.KeyNumpad6:        '6',
	ebiten.KeyNumpad7:        '7',
	ebiten.KeyNumpad8:        '8',
	ebiten.KeyNumpad9:        '9',
	ebiten.KeyNumpadAdd:      '+',
	ebiten.KeyNumpadSubtract: '-',
	ebiten.KeyNumpadMultiply: '*',
	ebiten.KeyNumpadDivide:   '/',
	ebiten.KeyNumpadDecimal:  '.',
}

// shiftKeys are the US layout keys with a shifted character, as
// {unshifted, shifted}.
var shiftKeys = map[ebiten.Key][2]uint16{
	ebiten.KeyDigit1:       {'1', '!'},
	ebiten.KeyDigit2:       {'2', '@'},
	ebiten.KeyDigit3:       {'3', '#'},
	ebiten.KeyDigit4:       {'4', '$'},
	ebiten.KeyDigit5:       {'5', '%'},
	ebiten.KeyDigit6:       {'6', '^'},
	ebiten.KeyDigit7:       {'7', '&'},
	ebiten.KeyDigit8:       {'8', '*'},
	ebiten.KeyDigit9:       {'9', '('},
	ebiten.KeyDigit0:       {'0', ')'},
	ebiten.KeySemicolon:    {';', ':'},
	ebiten.KeyQuote:        {'\'', '"'},
	ebiten.KeyMinus:        {'-', '_'},
	ebiten.KeyEqual:        {'=', '+'},
	ebiten.KeyBackquote:    {'`', '~'},
	ebiten.KeyComma:        {',', '<'},
	ebiten.KeyPeriod:       {'.', '>'},
	ebiten.KeySlash:        {'/', '?'},
	ebiten.KeyBracketLeft:  {'[', '{'},
	ebiten.KeyBracketRight: {']', '}'},
	ebiten.KeyBackslash:    {'\\', '|'},
}

// keyChars holds every code a key in the tables can produce.
var keyChars = func() map[rune]bool {
	chars := make(map[rune]bool)

	for r := 'a'; r <= 'z'; r++ {
		chars[r] = true
		chars[r-'a'+'A'] = true
	}

	for _, code := range windowKeys {
		chars[rune(code)] = true
	}

	for _, codes := range shiftKeys {
		chars[rune(codes[0])] = true
		chars[rune(codes[1])] = true
	}

	return chars
}()

// keyCode maps a window key to a keyboard code given the shift state.
func keyCode(key ebiten.Key, shift bool) (uint16, bool) {
	if key >= ebiten.KeyA && key <= ebiten.KeyZ {
		if shift {
			return uint16('A' + key - ebiten.KeyA), true
		}
		return uint16('a' + key - ebiten.KeyA), true
	}

	if code, ok := windowKeys[key]; ok {
		return code, true
	}

	if codes, ok := shiftKeys[key]; ok {
		if shift {
			return codes[1], true
		}
		return codes[0], true
	}

	return 0, false
}

// keyInput tracks held window keys so a release reports the code its press
// did, even when shift changed in between.
type keyInput struct {
	held map[ebiten.Key]uint16
}

func (k *keyInput) press(key ebiten.Key, shift bool) (uint16, bool) {
	code, ok := keyCode(key, shift)

	if !ok {
		return 0, false
	}

	if k.held == nil {
		k.held = make(map[ebiten.Key]uint16)
	}

	k.held[key] = code

	return code, true
}

func (k *keyInput) release(key ebiten.Key) (uint16, bool) {
	code, ok := k.held[key]

	if ok {
		delete(k.held, key)
	}

	return code, ok
}

// typedCodes keeps the typed characters no key in the tables produces.
func typedCodes(chars []rune) []uint16 {
	var codes []uint16

	for _, r := range chars {
		if r < 0x20 || r > 0x7E || keyChars[r] {
			continue
		}
		codes = append(codes, uint16(r))
	}

	return codes
}
