// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package document

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// =============================================================================
// ERRORS
// =============================================================================

// ErrMalformedDocument is returned (wrapped) for any text that is not a
// well-formed document.
var ErrMalformedDocument = errors.New("malformed document")

// SyntaxError describes where parsing failed.
type SyntaxError struct {
	Offset int    // Byte offset of the offending input
	Msg    string // What was wrong
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("malformed document at offset %d: %s", e.Offset, e.Msg)
}

// Unwrap lets errors.Is match ErrMalformedDocument.
func (e *SyntaxError) Unwrap() error {
	return ErrMalformedDocument
}

// =============================================================================
// PARSER
// =============================================================================

// frame is an open container on the parse stack.
type frame struct {
	mapping bool
	elems   []Value
	members *orderedmap.OrderedMap[string, Value]
	key     string
}

type parser struct {
	data string
	pos  int
}

// Parse parses text into a Value.
//
// Nesting depth is limited only by memory: containers are tracked on an
// explicit stack instead of the call stack.
func Parse(text string) (Value, error) {
	p := &parser{data: text}
	var stack []*frame

	for {
		p.skipSpace()
		if p.pos >= len(p.data) {
			return Value{}, p.errorf("unexpected end of input")
		}

		var v Value
		switch c := p.data[p.pos]; c {
		case '{':
			p.pos++
			p.skipSpace()
			if p.peek() == '}' {
				p.pos++
				v = Value{kind: KindMapping, m: orderedmap.New[string, Value]()}
				break
			}
			f := &frame{mapping: true, members: orderedmap.New[string, Value]()}
			if err := p.readKey(f); err != nil {
				return Value{}, err
			}
			stack = append(stack, f)
			continue
		case '[':
			p.pos++
			p.skipSpace()
			if p.peek() == ']' {
				p.pos++
				v = Value{kind: KindSequence, seq: []Value{}}
				break
			}
			stack = append(stack, &frame{})
			continue
		case '"':
			s, err := p.readString()
			if err != nil {
				return Value{}, err
			}
			v = String(s)
		case 't':
			if err := p.expectLiteral("true"); err != nil {
				return Value{}, err
			}
			v = Bool(true)
		case 'f':
			if err := p.expectLiteral("false"); err != nil {
				return Value{}, err
			}
			v = Bool(false)
		case 'n':
			if err := p.expectLiteral("null"); err != nil {
				return Value{}, err
			}
			v = Null()
		default:
			if c == '-' || (c >= '0' && c <= '9') {
				n, err := p.readNumber()
				if err != nil {
					return Value{}, err
				}
				v = n
				break
			}
			return Value{}, p.errorf("unexpected character %q", c)
		}

		// Attach the completed value to its parents, closing as many
		// containers as the input closes.
		for {
			if len(stack) == 0 {
				p.skipSpace()
				if p.pos != len(p.data) {
					return Value{}, p.errorf("unexpected content after document")
				}
				return v, nil
			}
			top := stack[len(stack)-1]
			if top.mapping {
				if _, dup := top.members.Get(top.key); dup {
					return Value{}, p.errorf("duplicate key %q", top.key)
				}
				top.members.Set(top.key, v)
			} else {
				top.elems = append(top.elems, v)
			}

			p.skipSpace()
			if p.pos >= len(p.data) {
				return Value{}, p.errorf("unexpected end of input")
			}
			c := p.data[p.pos]
			p.pos++
			if c == ',' {
				if top.mapping {
					p.skipSpace()
					if err := p.readKey(top); err != nil {
						return Value{}, err
					}
				}
				break
			}
			if top.mapping && c == '}' {
				v = Value{kind: KindMapping, m: top.members}
			} else if !top.mapping && c == ']' {
				v = Value{kind: KindSequence, seq: top.elems}
			} else {
				p.pos--
				return Value{}, p.errorf("expected ',' or closing bracket, got %q", c)
			}
			stack = stack[:len(stack)-1]
		}
	}
}

// MustParse is like Parse but panics on error. Intended for tests and
// compile-time constant documents.
func MustParse(text string) Value {
	v, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return v
}

func (p *parser) errorf(format string, args ...interface{}) error {
	return &SyntaxError{Offset: p.pos, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) peek() byte {
	if p.pos >= len(p.data) {
		return 0
	}
	return p.data[p.pos]
}

func (p *parser) skipSpace() {
	for p.pos < len(p.data) {
		switch p.data[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

func (p *parser) expectLiteral(lit string) error {
	if !strings.HasPrefix(p.data[p.pos:], lit) {
		return p.errorf("invalid literal, expected %s", lit)
	}
	p.pos += len(lit)
	return nil
}

// readKey reads `"key" :` into f.key.
func (p *parser) readKey(f *frame) error {
	if p.peek() != '"' {
		return p.errorf("expected string key")
	}
	key, err := p.readString()
	if err != nil {
		return err
	}
	p.skipSpace()
	if p.peek() != ':' {
		return p.errorf("expected ':' after key")
	}
	p.pos++
	f.key = key
	return nil
}

// readString reads a quoted string starting at the opening quote.
func (p *parser) readString() (string, error) {
	p.pos++ // opening quote
	var sb strings.Builder
	start := p.pos
	for {
		if p.pos >= len(p.data) {
			return "", p.errorf("unterminated string")
		}
		c := p.data[p.pos]
		switch {
		case c == '"':
			sb.WriteString(p.data[start:p.pos])
			p.pos++
			return sb.String(), nil
		case c == '\\':
			sb.WriteString(p.data[start:p.pos])
			if err := p.readEscape(&sb); err != nil {
				return "", err
			}
			start = p.pos
		case c < 0x20:
			return "", p.errorf("unescaped control character %#02x in string", c)
		case c < utf8.RuneSelf:
			p.pos++
		default:
			r, size := utf8.DecodeRuneInString(p.data[p.pos:])
			if r == utf8.RuneError && size == 1 {
				return "", p.errorf("invalid UTF-8 in string")
			}
			p.pos += size
		}
	}
}

func (p *parser) readEscape(sb *strings.Builder) error {
	p.pos++ // backslash
	if p.pos >= len(p.data) {
		return p.errorf("unterminated escape")
	}
	c := p.data[p.pos]
	p.pos++
	switch c {
	case '"', '\\', '/':
		sb.WriteByte(c)
	case 'b':
		sb.WriteByte('\b')
	case 'f':
		sb.WriteByte('\f')
	case 'n':
		sb.WriteByte('\n')
	case 'r':
		sb.WriteByte('\r')
	case 't':
		sb.WriteByte('\t')
	case 'u':
		r, err := p.readHex4()
		if err != nil {
			return err
		}
		if utf16.IsSurrogate(r) {
			if strings.HasPrefix(p.data[p.pos:], `\u`) {
				save := p.pos
				p.pos += 2
				r2, err := p.readHex4()
				if err != nil {
					return err
				}
				if dec := utf16.DecodeRune(r, r2); dec != utf8.RuneError {
					sb.WriteRune(dec)
					return nil
				}
				p.pos = save
			}
			r = utf8.RuneError
		}
		sb.WriteRune(r)
	default:
		p.pos--
		return p.errorf("invalid escape character %q", c)
	}
	return nil
}

func (p *parser) readHex4() (rune, error) {
	if p.pos+4 > len(p.data) {
		return 0, p.errorf("short unicode escape")
	}
	n, err := strconv.ParseUint(p.data[p.pos:p.pos+4], 16, 32)
	if err != nil {
		return 0, p.errorf("invalid unicode escape")
	}
	p.pos += 4
	return rune(n), nil
}

// readNumber reads a number following the JSON grammar. Integers without
// fraction or exponent stay integers unless they overflow int64.
func (p *parser) readNumber() (Value, error) {
	start := p.pos
	if p.peek() == '-' {
		p.pos++
	}
	switch c := p.peek(); {
	case c == '0':
		p.pos++
	case c >= '1' && c <= '9':
		p.digits()
	default:
		return Value{}, p.errorf("invalid number")
	}

	isFloat := false
	if p.peek() == '.' {
		isFloat = true
		p.pos++
		if p.digits() == 0 {
			return Value{}, p.errorf("expected digit after decimal point")
		}
	}
	if c := p.peek(); c == 'e' || c == 'E' {
		isFloat = true
		p.pos++
		if c := p.peek(); c == '+' || c == '-' {
			p.pos++
		}
		if p.digits() == 0 {
			return Value{}, p.errorf("expected digit in exponent")
		}
	}

	lit := p.data[start:p.pos]
	if !isFloat {
		if i, err := strconv.ParseInt(lit, 10, 64); err == nil {
			return Int(i), nil
		}
	}
	f, err := strconv.ParseFloat(lit, 64)
	if err != nil || math.IsInf(f, 0) {
		p.pos = start
		return Value{}, p.errorf("number %s out of range", lit)
	}
	return Float(f), nil
}

func (p *parser) digits() int {
	n := 0
	for p.pos < len(p.data) && p.data[p.pos] >= '0' && p.data[p.pos] <= '9' {
		p.pos++
		n++
	}
	return n
}
