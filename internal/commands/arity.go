// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import "fmt"

// Unbounded is the Max of an Arity without an upper limit.
const Unbounded = -1

// Arity is the accepted argument count range of a command. The zero value
// accepts no arguments.
type Arity struct {
	Min int
	Max int // Unbounded for no limit
}

// Exactly accepts n arguments.
func Exactly(n int) Arity { return Arity{Min: n, Max: n} }

// AtLeast accepts n or more arguments.
func AtLeast(n int) Arity { return Arity{Min: n, Max: Unbounded} }

// Between accepts lo through hi arguments.
func Between(lo, hi int) Arity { return Arity{Min: lo, Max: hi} }

// None accepts no arguments.
func None() Arity { return Arity{} }

// Accepts reports whether n arguments are allowed.
func (a Arity) Accepts(n int) bool {
	return n >= a.Min && (a.Max == Unbounded || n <= a.Max)
}

// Check returns an *ArityError when n arguments are not allowed.
func (a Arity) Check(n int) error {
	if a.Accepts(n) {
		return nil
	}
	return &ArityError{Arity: a, Got: n}
}

func (a Arity) String() string {
	switch {
	case a.Max == Unbounded:
		return fmt.Sprintf("at least %s", plural(a.Min))
	case a.Min == a.Max && a.Min == 0:
		return "no arguments"
	case a.Min == a.Max:
		return fmt.Sprintf("exactly %s", plural(a.Min))
	default:
		return fmt.Sprintf("%d to %d arguments", a.Min, a.Max)
	}
}

func plural(n int) string {
	if n == 1 {
		return "1 argument"
	}
	return fmt.Sprintf("%d arguments", n)
}
