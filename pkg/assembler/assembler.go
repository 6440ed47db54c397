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

package assembler

import (
	"bufio"
	"io"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/lassandro/godcpu/pkg/encoding"
	"github.com/lassandro/godcpu/pkg/machine"
)

type operand struct {
	Code  uint16
	Next  uint16
	Extra bool
	Label *Token
}

func parseDirective(ident string) DirectiveType {
	if strings.EqualFold(ident, ".ORG") {
		return DIRECTIVE_ORG
	} else if strings.EqualFold(ident, "DAT") || strings.EqualFold(ident, ".DAT") {
		return DIRECTIVE_DAT
	} else if strings.EqualFold(ident, ".FILL") {
		return DIRECTIVE_FILL
	} else if strings.EqualFold(ident, ".RESERVE") {
		return DIRECTIVE_RESERVE
	} else if strings.EqualFold(ident, ".STRINGZ") {
		return DIRECTIVE_STRINGZ
	} else if strings.EqualFold(ident, ".END") {
		return DIRECTIVE_END
	}

	return DIRECTIVE_INVALID
}

func isStatement(token *Token) bool {
	if token.Type != TOKEN_IDENT && token.Type != TOKEN_DIRECTIVE {
		return false
	}

	upper := strings.ToUpper(token.Value)

	if _, ok := basicInstructions[upper]; ok {
		return true
	}

	if _, ok := specialInstructions[upper]; ok {
		return true
	}

	return parseDirective(token.Value) != DIRECTIVE_INVALID
}

func isReserved(ident string) bool {
	upper := strings.ToUpper(ident)

	if _, ok := registers[upper]; ok {
		return true
	}

	_, ok := keywords[upper]
	return ok
}

// Accepts hex (0x2A), base 10 (#42, 42) and negative (-1) literals
func parseLiteral(token *Token) (uint16, error) {
	result, err := encoding.DecodeWord(token.Value)

	if err == nil {
		return result, nil
	}

	value, err := strconv.ParseInt(strings.TrimPrefix(token.Value, "#"), 0, 64)

	if err == nil {
		return 0, &OversizedLiteralError{token.Position, math.MaxUint16, value}
	}

	return 0, &InvalidLiteralError{token.Position}
}

// Returns either a literal value or the label token to be resolved later.
func parseValue(token *Token) (uint16, *Token, error) {
	switch token.Type {
	case TOKEN_LITERAL:
		value, err := parseLiteral(token)
		return value, nil, err

	case TOKEN_IDENT:
		if isReserved(token.Value) {
			return 0, nil, &InvalidAddressingError{token.Position}
		}

		return 0, token, nil
	}

	return 0, nil, &InvalidOperandError{
		token.Position,
		[]TokenType{TOKEN_LITERAL, TOKEN_IDENT},
		token.Type,
	}
}

// Returns the addressing code for a register or SP used inside brackets.
func parseBase(token *Token, offset bool) (uint16, bool) {
	if token.Type != TOKEN_IDENT {
		return 0, false
	}

	upper := strings.ToUpper(token.Value)

	if reg, ok := registers[upper]; ok {
		if offset {
			return machine.ARG_REG_NEXT + reg, true
		}

		return machine.ARG_REG_IND + reg, true
	}

	if upper == "SP" {
		if offset {
			return machine.ARG_PICK, true
		}

		return machine.ARG_PEEK, true
	}

	return 0, false
}

// [reg]        |0x08-0x0f
// [reg+next]   |0x10-0x17
// [SP]         |0x19
// [SP+next]    |0x1a
// [next]       |0x1e
func parseIndirect(inner []Token, open *Token) (operand, error) {
	var result operand

	switch len(inner) {
	case 1:
		if code, ok := parseBase(&inner[0], false); ok {
			result.Code = code
			return result, nil
		}

		value, label, err := parseValue(&inner[0])

		if err != nil {
			return result, err
		}

		result.Code = machine.ARG_NEXT_IND
		result.Next, result.Extra, result.Label = value, true, label
		return result, nil

	// [A-1]
	case 2:
		code, ok := parseBase(&inner[0], true)

		if !ok || inner[1].Type != TOKEN_LITERAL ||
			!strings.HasPrefix(inner[1].Value, "-") {
			break
		}

		value, err := parseLiteral(&inner[1])

		if err != nil {
			return result, err
		}

		result.Code = code
		result.Next, result.Extra = value, true
		return result, nil

	// [A+1], [1+A]
	case 3:
		if inner[1].Type != TOKEN_PLUS {
			break
		}

		base, offset := &inner[0], &inner[2]
		code, ok := parseBase(base, true)

		if !ok {
			base, offset = offset, base
			code, ok = parseBase(base, true)
		}

		if !ok {
			break
		}

		value, label, err := parseValue(offset)

		if err != nil {
			return result, err
		}

		result.Code = code
		result.Next, result.Extra, result.Label = value, true, label
		return result, nil
	}

	return result, &InvalidAddressingError{open.Position}
}

// reg          |0x00-0x07
// PUSH / POP   |0x18
// PEEK         |0x19
// PICK next    |0x1a
// SP, PC, EX   |0x1b-0x1d
// next         |0x1f
// literal      |0x20-0x3f (a only, -1..30)
func parseOperand(group []Token, isA bool) (operand, error) {
	var result operand

	first := &group[0]

	if first.Type == TOKEN_OPEN {
		if len(group) < 3 || group[len(group)-1].Type != TOKEN_CLOSE {
			return result, &InvalidAddressingError{first.Position}
		}

		return parseIndirect(group[1:len(group)-1], first)
	}

	switch len(group) {
	case 1:
		if first.Type == TOKEN_IDENT {
			upper := strings.ToUpper(first.Value)

			if reg, ok := registers[upper]; ok {
				result.Code = machine.ARG_REG + reg
				return result, nil
			}

			if code, ok := keywords[upper]; ok {
				if (upper == "PUSH" && isA) ||
					(upper == "POP" && !isA) ||
					upper == "PICK" {
					return result, &InvalidAddressingError{first.Position}
				}

				result.Code = code
				return result, nil
			}
		}

		value, label, err := parseValue(first)

		if err != nil {
			return result, err
		}

		if isA && label == nil && (value == 0xFFFF || value <= 30) {
			result.Code = machine.ARG_LIT + value + 1
			return result, nil
		}

		result.Code = machine.ARG_NEXT_LIT
		result.Next, result.Extra, result.Label = value, true, label
		return result, nil

	case 2:
		if first.Type != TOKEN_IDENT || !strings.EqualFold(first.Value, "PICK") {
			break
		}

		value, label, err := parseValue(&group[1])

		if err != nil {
			return result, err
		}

		result.Code = machine.ARG_PICK
		result.Next, result.Extra, result.Label = value, true, label
		return result, nil
	}

	return result, &InvalidAddressingError{first.Position}
}

func splitOperands(tokens []Token) ([][]Token, error) {
	groups := make([][]Token, 0, 2)
	start := 0

	for i := range tokens {
		if tokens[i].Type != TOKEN_COMMA {
			continue
		}

		if i == start {
			return nil, &UnexpectedCharacterError{tokens[i].Position, ','}
		}

		groups = append(groups, tokens[start:i])
		start = i + 1
	}

	if start < len(tokens) {
		groups = append(groups, tokens[start:])
	} else if len(tokens) > 0 {
		last := tokens[len(tokens)-1]
		return nil, &UnexpectedCharacterError{last.Position, ','}
	}

	return groups, nil
}

// Reads the single-token argument of a directive.
func directiveArg(group []Token, allowed ...TokenType) (*Token, error) {
	for _, tokenType := range allowed {
		if group[0].Type != tokenType {
			continue
		}

		if len(group) > 1 {
			return nil, &InvalidOperandError{
				group[1].Position, allowed, group[1].Type,
			}
		}

		return &group[0], nil
	}

	return nil, &InvalidOperandError{group[0].Position, allowed, group[0].Type}
}

func AssembleDCPUSource(input io.Reader, symtable *SymTable) (result []uint16, errs []error) {
	type LabelRef struct {
		Label    string
		Addr     uint16
		Position Cursor
	}

	var labels = make(map[string]uint16)
	var labelRefs []LabelRef

	var program uint32 = 0
	var end uint32 = 0
	var emitted int = 0
	var overflow bool = false

	var builder strings.Builder
	var scanner = bufio.NewScanner(input)

	var cursor = Cursor{Line: 1, Column: 0, Size: 0, Byte: 0}

	result = make([]uint16, 1<<16)
	errs = make([]error, 0)

	advance := func(size int) {
		cursor.Line++
		cursor.Byte += int64(size + 1)
		cursor.LineByte += int64(size + 1)
	}

	emit := func(word uint16) {
		if program > math.MaxUint16 {
			overflow = true
		} else {
			result[program] = word
		}

		program++
		emitted++
	}

	emitOperand := func(op operand) {
		if !op.Extra {
			return
		}

		if op.Label != nil {
			labelRefs = append(
				labelRefs,
				LabelRef{op.Label.Value, uint16(program), op.Label.Position},
			)
		}

		emit(op.Next)
	}

	emitValue := func(token *Token) error {
		value, label, err := parseValue(token)

		if err != nil {
			return err
		}

		emitOperand(operand{Next: value, Extra: true, Label: label})
		return nil
	}

	emitString := func(token *Token) error {
		s, err := strconv.Unquote(token.Value)

		if err != nil {
			return &InvalidStringError{token.Position}
		}

		for _, c := range s {
			emit(uint16(c))
		}

		return nil
	}

	// Process:
	// - Parse line
	// - Assemble line
	for scanner.Scan() {
		var tokens = make([]Token, 0, 8)
		var tokenStart int = 0
		var tokenType TokenType = TOKEN_NONE
		var escaped bool = false

		var lineErrs = len(errs)

		line := scanner.Text()
		builder.Grow(len(line))

		cursor.Size = int64(len(line))

		flush := func() {
			if tokenType != TOKEN_NONE {
				tokens = append(tokens, Token{
					Type: tokenType,
					Position: Cursor{
						Line:     cursor.Line,
						Column:   tokenStart,
						Byte:     cursor.Byte + int64(tokenStart-1),
						Size:     int64(builder.Len()),
						LineByte: cursor.LineByte,
					},
					Value: builder.String(),
				})
				builder.Reset()
			}

			tokenType = TOKEN_NONE
		}

		punct := func(punctType TokenType, char rune) {
			flush()
			tokens = append(tokens, Token{
				Type: punctType,
				Position: Cursor{
					Line:     cursor.Line,
					Column:   cursor.Column,
					Byte:     cursor.Byte + int64(cursor.Column-1),
					Size:     1,
					LineByte: cursor.LineByte,
				},
				Value: string(char),
			})
		}

		// Parse Line:
		// - Gather tokens and their types
		// - Check for syntax errors
		for column, char := range line {
			cursor.Column = column + 1

			if tokenType == TOKEN_STRING {
				if char > unicode.MaxASCII {
					errs = append(errs, &OversizedCharacterError{cursor})
				}

				builder.WriteRune(char)

				if escaped {
					escaped = false
				} else if char == '\\' {
					escaped = true
				} else if char == '"' {
					flush()
				}

				continue
			}

			if tokenType == TOKEN_NONE {
				tokenStart = cursor.Column
			}

			// Comments
			if char == ';' {
				break
			}

			switch {
			case unicode.IsSpace(char):
				flush()

			case char == ',':
				punct(TOKEN_COMMA, char)

			case char == '[':
				punct(TOKEN_OPEN, char)

			case char == ']':
				punct(TOKEN_CLOSE, char)

			case char == '+':
				punct(TOKEN_PLUS, char)

			// Label markers (:label, label:)
			case char == ':':
				if tokenType == TOKEN_IDENT {
					flush()
				} else if tokenType != TOKEN_NONE {
					errs = append(errs, &UnexpectedCharacterError{cursor, char})
				}

			// String Literal
			case char == '"':
				if tokenType == TOKEN_NONE {
					tokenType = TOKEN_STRING
					builder.WriteRune(char)
				} else {
					errs = append(errs, &UnexpectedCharacterError{cursor, char})
				}

			// Assembler Directives
			case char == '.':
				if tokenType == TOKEN_NONE {
					tokenType = TOKEN_DIRECTIVE
					builder.WriteRune(char)
				} else {
					errs = append(errs, &UnexpectedCharacterError{cursor, char})
				}

			// Base 10 Literal (i.e. #42)
			case char == '#':
				if tokenType == TOKEN_NONE {
					tokenType = TOKEN_LITERAL
					builder.WriteRune(char)
				} else {
					errs = append(errs, &UnexpectedCharacterError{cursor, char})
				}

			// Numeric Sign, also splits [A-1]
			case char == '-':
				if tokenType == TOKEN_IDENT {
					flush()
					tokenStart = cursor.Column
				}

				if tokenType == TOKEN_NONE {
					tokenType = TOKEN_LITERAL
					builder.WriteRune(char)
				} else {
					errs = append(errs, &UnexpectedCharacterError{cursor, char})
				}

			// Numeric Literal
			case unicode.IsDigit(char):
				if tokenType == TOKEN_NONE {
					tokenType = TOKEN_LITERAL
				}

				builder.WriteRune(char)

			// Underscore'd Identifier
			case char == '_':
				if tokenType == TOKEN_NONE {
					tokenType = TOKEN_IDENT
				}

				if tokenType == TOKEN_IDENT {
					builder.WriteRune(char)
				} else {
					errs = append(errs, &UnexpectedCharacterError{cursor, char})
				}

			// Identifier
			case unicode.IsLetter(char):
				if char > unicode.MaxASCII {
					errs = append(errs, &OversizedCharacterError{cursor})
				}

				if tokenType == TOKEN_NONE {
					tokenType = TOKEN_IDENT
				}

				builder.WriteRune(char)

			default:
				if char > unicode.MaxASCII {
					errs = append(errs, &OversizedCharacterError{cursor})
				} else {
					errs = append(
						errs, &UnexpectedCharacterError{cursor, char},
					)
				}
			}
		}

		if tokenType == TOKEN_STRING {
			errs = append(errs, &InvalidStringError{cursor})
			builder.Reset()
			tokenType = TOKEN_NONE
		}

		flush()

		if len(tokens) == 0 {
			advance(len(line))
			continue
		}

		// Pass any potential assembler errors if we already had parser errors
		if len(errs) > lineErrs {
			advance(len(line))
			continue
		}

		// Assemble line
		// - Write instruction words to result
		// - Save label refs for the final pass
		// - Type check instruction arguments
		var keyword *Token = nil
		var operands []Token

		if isStatement(&tokens[0]) {
			keyword = &tokens[0]
			operands = tokens[1:]
		} else {
			label := &tokens[0]

			if label.Type != TOKEN_IDENT || isReserved(label.Value) {
				errs = append(
					errs, &UnknownIdentifierError{label.Position, label.Value},
				)
				advance(len(line))
				continue
			}

			if _, exists := labels[label.Value]; !exists {
				labels[label.Value] = uint16(program)
			} else {
				errs = append(
					errs, &RedeclaredLabelError{label.Position, label.Value},
				)
			}

			// No need to assemble label-only statements
			if len(tokens) == 1 {
				advance(len(line))
				continue
			}

			if !isStatement(&tokens[1]) {
				errs = append(
					errs,
					&UnknownIdentifierError{tokens[1].Position, tokens[1].Value},
				)
				advance(len(line))
				continue
			}

			keyword = &tokens[1]
			operands = tokens[2:]
		}

		groups, err := splitOperands(operands)

		if err != nil {
			errs = append(errs, err)
			advance(len(line))
			continue
		}

		directive := parseDirective(keyword.Value)
		start := program
		emitted = 0

		if directive == DIRECTIVE_END {
			if count := len(groups); count != 0 {
				errs = append(
					errs, &InvalidNumArgumentsError{keyword.Position, 0, count},
				)
			}

			break
		}

		switch directive {
		// .ORG #
		case DIRECTIVE_ORG:
			if count := len(groups); count != 1 {
				errs = append(
					errs, &InvalidNumArgumentsError{keyword.Position, 1, count},
				)
				break
			}

			token, err := directiveArg(groups[0], TOKEN_LITERAL)

			if err != nil {
				errs = append(errs, err)
				break
			}

			literal, err := parseLiteral(token)

			if err != nil {
				errs = append(errs, err)
				break
			}

			program = uint32(literal)

		// DAT #|label|"...", ...
		case DIRECTIVE_DAT:
			if len(groups) == 0 {
				errs = append(
					errs, &InvalidNumArgumentsError{keyword.Position, 1, 0},
				)
				break
			}

			for _, group := range groups {
				token, err := directiveArg(
					group, TOKEN_LITERAL, TOKEN_IDENT, TOKEN_STRING,
				)

				if err == nil {
					if token.Type == TOKEN_STRING {
						err = emitString(token)
					} else {
						err = emitValue(token)
					}
				}

				if err != nil {
					errs = append(errs, err)
					break
				}
			}

		// .FILL #|label
		case DIRECTIVE_FILL:
			if count := len(groups); count != 1 {
				errs = append(
					errs, &InvalidNumArgumentsError{keyword.Position, 1, count},
				)
				break
			}

			token, err := directiveArg(groups[0], TOKEN_LITERAL, TOKEN_IDENT)

			if err == nil {
				err = emitValue(token)
			}

			if err != nil {
				errs = append(errs, err)
			}

		// .RESERVE #
		case DIRECTIVE_RESERVE:
			if count := len(groups); count != 1 {
				errs = append(
					errs, &InvalidNumArgumentsError{keyword.Position, 1, count},
				)
				break
			}

			token, err := directiveArg(groups[0], TOKEN_LITERAL)

			if err != nil {
				errs = append(errs, err)
				break
			}

			literal, err := parseLiteral(token)

			if err != nil {
				errs = append(errs, err)
				break
			}

			program += uint32(literal)

		// .STRINGZ "..."
		case DIRECTIVE_STRINGZ:
			if count := len(groups); count != 1 {
				errs = append(
					errs, &InvalidNumArgumentsError{keyword.Position, 1, count},
				)
				break
			}

			token, err := directiveArg(groups[0], TOKEN_STRING)

			if err == nil {
				err = emitString(token)
			}

			if err != nil {
				errs = append(errs, err)
				break
			}

			emit(0)
		}

		upper := strings.ToUpper(keyword.Value)

		// OP b, a |aaaaaa|bbbbb|ooooo|
		// ------- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
		if opcode, ok := basicInstructions[upper]; ok {
			if count := len(groups); count != 2 {
				errs = append(
					errs, &InvalidNumArgumentsError{keyword.Position, 2, count},
				)
			} else {
				a, aerr := parseOperand(groups[1], true)
				b, berr := parseOperand(groups[0], false)

				if aerr != nil {
					errs = append(errs, aerr)
				} else if berr != nil {
					errs = append(errs, berr)
				} else {
					emit(opcode | b.Code<<5 | a.Code<<10)
					emitOperand(a)
					emitOperand(b)
				}
			}
		}

		// OP a    |aaaaaa|ooooo|00000|
		// ------- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
		if opcode, ok := specialInstructions[upper]; ok {
			if count := len(groups); count != 1 {
				errs = append(
					errs, &InvalidNumArgumentsError{keyword.Position, 1, count},
				)
			} else if a, err := parseOperand(groups[0], true); err != nil {
				errs = append(errs, err)
			} else {
				emit(opcode<<5 | a.Code<<10)
				emitOperand(a)
			}
		}

		if symtable != nil && emitted > 0 {
			symtable.Symbols[uint16(start)] = cursor.LineByte
		}

		if overflow || program > math.MaxUint16+1 {
			errs = append(errs, &OversizedBinaryError{})
			return
		}

		if program > end {
			end = program
		}

		advance(len(line))
	}

	if err := scanner.Err(); err != nil {
		errs = append(errs, err)
	}

	// Label
	// - Validate and resolve label references
	// - Add labels to symbol table
	for _, ref := range labelRefs {
		addr, exists := labels[ref.Label]

		if !exists {
			errs = append(errs, &UnknownLabelError{ref.Position, ref.Label})
			continue
		}

		result[ref.Addr] = addr
	}

	if symtable != nil {
		for label, addr := range labels {
			symtable.Labels[addr] = label
		}
	}

	result = result[:end]

	return
}
