// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package document

import (
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

const hexDigits = "0123456789abcdef"

// Serialize returns the compact, deterministic text form of v.
// Parse(Serialize(v)) is structurally equal to v for every value holding
// valid UTF-8 strings and finite numbers.
func Serialize(v Value) string {
	e := &encoder{}
	e.encode(v)
	return e.sb.String()
}

// Indent returns the pretty-printed text form of v. Each nested line starts
// with prefix followed by one copy of indent per nesting level.
func Indent(v Value, prefix, indent string) string {
	e := &encoder{pretty: true, prefix: prefix, indent: indent}
	e.encode(v)
	return e.sb.String()
}

// =============================================================================
// ENCODER
// =============================================================================

type encoder struct {
	sb     strings.Builder
	pretty bool
	prefix string
	indent string
}

// item is either a value to encode or literal text to copy.
type item struct {
	v     Value
	lit   string
	isLit bool
	depth int
}

func (e *encoder) newline(depth int) string {
	if !e.pretty {
		return ""
	}
	return "\n" + e.prefix + strings.Repeat(e.indent, depth)
}

// encode walks v with an explicit stack so deep documents do not grow the
// call stack.
func (e *encoder) encode(root Value) {
	stack := []item{{v: root}}
	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if it.isLit {
			e.sb.WriteString(it.lit)
			continue
		}

		v := it.v
		switch v.kind {
		case KindSequence:
			if len(v.seq) == 0 {
				e.sb.WriteString("[]")
				continue
			}
			e.sb.WriteByte('[')
			stack = append(stack, item{isLit: true, lit: e.newline(it.depth) + "]"})
			for i := len(v.seq) - 1; i >= 0; i-- {
				stack = append(stack, item{v: v.seq[i], depth: it.depth + 1})
				sep := e.newline(it.depth + 1)
				if i > 0 {
					sep = "," + sep
				}
				stack = append(stack, item{isLit: true, lit: sep})
			}
		case KindMapping:
			if v.m.Len() == 0 {
				e.sb.WriteString("{}")
				continue
			}
			e.sb.WriteByte('{')
			stack = append(stack, item{isLit: true, lit: e.newline(it.depth) + "}"})
			colon := ":"
			if e.pretty {
				colon = ": "
			}
			for p := v.m.Newest(); p != nil; p = p.Prev() {
				stack = append(stack, item{v: p.Value, depth: it.depth + 1})
				sep := e.newline(it.depth + 1)
				if p.Prev() != nil {
					sep = "," + sep
				}
				stack = append(stack, item{isLit: true, lit: sep + quote(p.Key) + colon})
			}
		default:
			e.sb.WriteString(scalar(v))
		}
	}
}

// scalar renders a non-container value.
func scalar(v Value) string {
	switch v.kind {
	case KindBool:
		if v.b {
			return "true"
		}
		return "false"
	case KindNumber:
		if !v.isFloat {
			return strconv.FormatInt(v.i, 10)
		}
		return formatFloat(v.f)
	case KindString:
		return quote(v.s)
	default:
		return "null"
	}
}

// formatFloat renders f in shortest round-trip form, always marked as a
// float by a decimal point or exponent.
func formatFloat(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "null"
	}
	format := byte('f')
	if abs := math.Abs(f); abs != 0 && (abs < 1e-6 || abs >= 1e21) {
		format = 'e'
	}
	s := strconv.FormatFloat(f, format, -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

// quote returns s as a quoted string literal. Quotes, backslashes, control
// characters and the JavaScript line separators are escaped. Invalid UTF-8
// bytes become U+FFFD.
func quote(s string) string {
	var sb strings.Builder
	sb.Grow(len(s) + 2)
	sb.WriteByte('"')
	start := 0
	for i := 0; i < len(s); {
		c := s[i]
		if c < utf8.RuneSelf {
			if c >= 0x20 && c != '"' && c != '\\' {
				i++
				continue
			}
			sb.WriteString(s[start:i])
			switch c {
			case '"', '\\':
				sb.WriteByte('\\')
				sb.WriteByte(c)
			case '\b':
				sb.WriteString(`\b`)
			case '\f':
				sb.WriteString(`\f`)
			case '\n':
				sb.WriteString(`\n`)
			case '\r':
				sb.WriteString(`\r`)
			case '\t':
				sb.WriteString(`\t`)
			default:
				sb.WriteString(`\u00`)
				sb.WriteByte(hexDigits[c>>4])
				sb.WriteByte(hexDigits[c&0xf])
			}
			i++
			start = i
			continue
		}
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			sb.WriteString(s[start:i])
			sb.WriteString(`\ufffd`)
			i += size
			start = i
			continue
		}
		if r == '\u2028' || r == '\u2029' {
			sb.WriteString(s[start:i])
			sb.WriteString(`\u202`)
			sb.WriteByte(hexDigits[r&0xf])
			i += size
			start = i
			continue
		}
		i += size
	}
	sb.WriteString(s[start:])
	sb.WriteByte('"')
	return sb.String()
}
