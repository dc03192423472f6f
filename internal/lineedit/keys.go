// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package lineedit

import (
	"bufio"
	"io"
	"unicode/utf8"
)

// KeyCode identifies an editing key.
type KeyCode int

const (
	KeyRune      KeyCode = iota // Printable rune in Key.Rune
	KeyEnter                    // Submit
	KeyBackspace                // Delete before cursor
	KeyDelete                   // Delete under cursor
	KeyLeft                     // Cursor left
	KeyRight                    // Cursor right
	KeyUp                       // Previous history entry
	KeyDown                     // Next history entry
	KeyHome                     // Start of line
	KeyEnd                      // End of line
	KeyKillEnd                  // Ctrl+K
	KeyKillStart                // Ctrl+U
	KeyTab                      // Completion
	KeyEOF                      // Ctrl+D
	KeyInterrupt                // Ctrl+C
	KeyUnknown                  // Anything else, ignored
)

// Key is a single decoded keystroke.
type Key struct {
	Code KeyCode
	Rune rune
}

// RuneKey returns the key event for typing r.
func RuneKey(r rune) Key { return Key{Code: KeyRune, Rune: r} }

// =============================================================================
// DECODER
// =============================================================================

// KeyDecoder turns a raw byte stream into key events. It understands the
// control characters and ANSI escape sequences sent by common terminals, and
// treats CR, LF and CRLF line endings from pipes and sockets as one Enter.
type KeyDecoder struct {
	r         *bufio.Reader
	pendingCR bool
}

// NewKeyDecoder creates a decoder reading from r.
func NewKeyDecoder(r io.Reader) *KeyDecoder {
	return &KeyDecoder{r: bufio.NewReader(r)}
}

// Next returns the next key. The stream's error (io.EOF when exhausted) is
// returned once no complete key remains.
func (d *KeyDecoder) Next() (Key, error) {
	for {
		r, size, err := d.r.ReadRune()
		if err != nil {
			return Key{}, err
		}
		wasCR := d.pendingCR
		d.pendingCR = false

		if r == utf8.RuneError && size == 1 {
			return Key{Code: KeyUnknown}, nil
		}

		switch r {
		case '\r':
			d.pendingCR = true
			return Key{Code: KeyEnter}, nil
		case '\n':
			if wasCR {
				continue
			}
			return Key{Code: KeyEnter}, nil
		case 0x7f, 0x08:
			return Key{Code: KeyBackspace}, nil
		case '\t':
			return Key{Code: KeyTab}, nil
		case 0x01:
			return Key{Code: KeyHome}, nil
		case 0x02:
			return Key{Code: KeyLeft}, nil
		case 0x03:
			return Key{Code: KeyInterrupt}, nil
		case 0x04:
			return Key{Code: KeyEOF}, nil
		case 0x05:
			return Key{Code: KeyEnd}, nil
		case 0x06:
			return Key{Code: KeyRight}, nil
		case 0x0b:
			return Key{Code: KeyKillEnd}, nil
		case 0x0e:
			return Key{Code: KeyDown}, nil
		case 0x10:
			return Key{Code: KeyUp}, nil
		case 0x15:
			return Key{Code: KeyKillStart}, nil
		case 0x1b:
			return d.escape(), nil
		}
		if r < 0x20 {
			return Key{Code: KeyUnknown}, nil
		}
		return RuneKey(r), nil
	}
}

// escape decodes the sequence following ESC. A truncated sequence decodes
// as KeyUnknown; the stream error surfaces on the next call.
func (d *KeyDecoder) escape() Key {
	b, err := d.r.ReadByte()
	if err != nil {
		return Key{Code: KeyUnknown}
	}
	switch b {
	case '[':
		return d.csi()
	case 'O':
		f, err := d.r.ReadByte()
		if err != nil {
			return Key{Code: KeyUnknown}
		}
		return finalKey(f, 0)
	}
	return Key{Code: KeyUnknown}
}

// csi decodes "ESC [ params final".
func (d *KeyDecoder) csi() Key {
	param := 0
	for {
		b, err := d.r.ReadByte()
		if err != nil {
			return Key{Code: KeyUnknown}
		}
		switch {
		case b >= '0' && b <= '9':
			param = param*10 + int(b-'0')
		case b == ';':
			// Modifier parameters are ignored.
			param = 0
		case b >= 0x40 && b <= 0x7e:
			return finalKey(b, param)
		default:
			return Key{Code: KeyUnknown}
		}
	}
}

func finalKey(final byte, param int) Key {
	switch final {
	case 'A':
		return Key{Code: KeyUp}
	case 'B':
		return Key{Code: KeyDown}
	case 'C':
		return Key{Code: KeyRight}
	case 'D':
		return Key{Code: KeyLeft}
	case 'H':
		return Key{Code: KeyHome}
	case 'F':
		return Key{Code: KeyEnd}
	case '~':
		switch param {
		case 1, 7:
			return Key{Code: KeyHome}
		case 3:
			return Key{Code: KeyDelete}
		case 4, 8:
			return Key{Code: KeyEnd}
		}
	}
	return Key{Code: KeyUnknown}
}
