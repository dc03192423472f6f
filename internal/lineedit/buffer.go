// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package lineedit

import (
	"github.com/mattn/go-runewidth"
)

// Buffer is the in-progress line with a cursor (the "dot") between runes.
type Buffer struct {
	runes []rune
	dot   int
}

// String returns the buffer contents.
func (b *Buffer) String() string { return string(b.runes) }

// Len returns the number of runes in the buffer.
func (b *Buffer) Len() int { return len(b.runes) }

// Cursor returns the rune index of the cursor.
func (b *Buffer) Cursor() int { return b.dot }

// Insert inserts runes at the cursor and moves the cursor past them.
func (b *Buffer) Insert(rs ...rune) {
	if len(rs) == 0 {
		return
	}
	tail := append([]rune(nil), b.runes[b.dot:]...)
	b.runes = append(append(b.runes[:b.dot], rs...), tail...)
	b.dot += len(rs)
}

// InsertString inserts s at the cursor.
func (b *Buffer) InsertString(s string) {
	b.Insert([]rune(s)...)
}

// MoveLeft moves the cursor one rune left. Returns false at the start.
func (b *Buffer) MoveLeft() bool {
	if b.dot == 0 {
		return false
	}
	b.dot--
	return true
}

// MoveRight moves the cursor one rune right. Returns false at the end.
func (b *Buffer) MoveRight() bool {
	if b.dot == len(b.runes) {
		return false
	}
	b.dot++
	return true
}

// Home moves the cursor to the start of the line.
func (b *Buffer) Home() { b.dot = 0 }

// End moves the cursor to the end of the line.
func (b *Buffer) End() { b.dot = len(b.runes) }

// DeleteBackward removes the rune before the cursor.
func (b *Buffer) DeleteBackward() bool {
	if b.dot == 0 {
		return false
	}
	b.runes = append(b.runes[:b.dot-1], b.runes[b.dot:]...)
	b.dot--
	return true
}

// DeleteForward removes the rune under the cursor.
func (b *Buffer) DeleteForward() bool {
	if b.dot == len(b.runes) {
		return false
	}
	b.runes = append(b.runes[:b.dot], b.runes[b.dot+1:]...)
	return true
}

// KillToEnd removes everything from the cursor to the end of the line.
func (b *Buffer) KillToEnd() {
	b.runes = b.runes[:b.dot]
}

// KillToStart removes everything before the cursor.
func (b *Buffer) KillToStart() {
	b.runes = append(b.runes[:0], b.runes[b.dot:]...)
	b.dot = 0
}

// Replace swaps the contents for s and puts the cursor at the end.
func (b *Buffer) Replace(s string) {
	b.runes = []rune(s)
	b.dot = len(b.runes)
}

// Reset empties the buffer.
func (b *Buffer) Reset() {
	b.runes = nil
	b.dot = 0
}

// DisplayColumn returns the terminal column of the cursor, counting wide
// characters as two cells.
func (b *Buffer) DisplayColumn() int {
	return runewidth.StringWidth(string(b.runes[:b.dot]))
}

// TailWidth returns the display width of the text after the cursor.
func (b *Buffer) TailWidth() int {
	return runewidth.StringWidth(string(b.runes[b.dot:]))
}
