// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package lineedit

import (
	"strings"
	"unicode/utf8"
)

// Action is what a key did to the line being edited.
type Action int

const (
	ActionEdit      Action = iota // Buffer changed or key ignored; keep reading
	ActionSubmit                  // Line complete, see Editor.Submitted
	ActionEOF                     // End of input requested on an empty line
	ActionInterrupt               // Line discarded
)

// Completer returns the candidates for a partially typed command name.
type Completer func(prefix string) []string

// Editor applies key events to a Buffer and a History. Only an explicit
// submit completes a line.
type Editor struct {
	buf       Buffer
	history   *History
	completer Completer
	draft     string
	submitted string
}

// NewEditor creates an editor recording into history.
func NewEditor(history *History, completer Completer) *Editor {
	if history == nil {
		history = NewHistory(0)
	}
	return &Editor{history: history, completer: completer}
}

// Buffer exposes the line being edited.
func (e *Editor) Buffer() *Buffer { return &e.buf }

// History returns the history the editor records into.
func (e *Editor) History() *History { return e.history }

// Submitted returns the line completed by the last ActionSubmit.
func (e *Editor) Submitted() string { return e.submitted }

// Apply applies one key. On ActionSubmit the finalized line has been
// appended to the history; a non-nil error reports a history store failure
// and does not cancel the submit.
func (e *Editor) Apply(k Key) (Action, error) {
	switch k.Code {
	case KeyRune:
		e.buf.Insert(k.Rune)
	case KeyLeft:
		e.buf.MoveLeft()
	case KeyRight:
		e.buf.MoveRight()
	case KeyHome:
		e.buf.Home()
	case KeyEnd:
		e.buf.End()
	case KeyBackspace:
		e.buf.DeleteBackward()
	case KeyDelete:
		e.buf.DeleteForward()
	case KeyKillEnd:
		e.buf.KillToEnd()
	case KeyKillStart:
		e.buf.KillToStart()
	case KeyUp:
		e.recallPrev()
	case KeyDown:
		e.recallNext()
	case KeyTab:
		e.complete()
	case KeyEOF:
		if e.buf.Len() == 0 {
			return ActionEOF, nil
		}
		e.buf.DeleteForward()
	case KeyInterrupt:
		e.buf.Reset()
		e.draft = ""
		e.history.ResetCursor()
		return ActionInterrupt, nil
	case KeyEnter:
		return ActionSubmit, e.Submit()
	}
	return ActionEdit, nil
}

// Submit finalizes the current buffer as a line, even without an Enter key.
func (e *Editor) Submit() error {
	e.submitted = e.buf.String()
	e.buf.Reset()
	e.draft = ""
	e.history.ResetCursor()
	return e.history.Append(e.submitted)
}

func (e *Editor) recallPrev() {
	navigating := e.history.Navigating()
	line, ok := e.history.Prev()
	if !ok {
		return
	}
	if !navigating {
		e.draft = e.buf.String()
	}
	e.buf.Replace(line)
}

func (e *Editor) recallNext() {
	if !e.history.Navigating() {
		return
	}
	if line, ok := e.history.Next(); ok {
		e.buf.Replace(line)
		return
	}
	e.buf.Replace(e.draft)
	e.draft = ""
}

// complete extends the command name when the cursor is still inside the
// first word. A single candidate is completed with a trailing space.
func (e *Editor) complete() {
	if e.completer == nil {
		return
	}
	text := e.buf.String()
	if strings.ContainsAny(text, " \t") || e.buf.Cursor() != e.buf.Len() {
		return
	}
	candidates := e.completer(text)
	switch len(candidates) {
	case 0:
		return
	case 1:
		e.buf.Replace(candidates[0] + " ")
	default:
		if prefix := commonPrefix(candidates); len(prefix) > len(text) {
			e.buf.Replace(prefix)
		}
	}
}

func commonPrefix(items []string) string {
	prefix := items[0]
	for _, s := range items[1:] {
		for !strings.HasPrefix(s, prefix) {
			prefix = prefix[:len(prefix)-1]
		}
	}
	for !utf8.ValidString(prefix) {
		prefix = prefix[:len(prefix)-1]
	}
	return prefix
}
