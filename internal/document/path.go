// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package document

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrPathNotFound is returned by Lookup when a path segment does not resolve.
var ErrPathNotFound = errors.New("path not found")

// SplitPath splits a dotted path into segments. A segment may be quoted with
// double quotes to include dots: a."b.c".0
func SplitPath(path string) ([]string, error) {
	if path == "" || path == "." {
		return nil, nil
	}
	var segs []string
	var cur strings.Builder
	inQuote := false
	for _, r := range path {
		switch {
		case r == '"':
			inQuote = !inQuote
		case r == '.' && !inQuote:
			segs = append(segs, cur.String())
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}
	if inQuote {
		return nil, fmt.Errorf("unterminated quote in path %q", path)
	}
	segs = append(segs, cur.String())
	return segs, nil
}

// Lookup resolves a dotted path inside v. Sequence segments are zero based
// indexes; mapping segments are keys. An empty path returns v itself.
func Lookup(v Value, path string) (Value, error) {
	segs, err := SplitPath(path)
	if err != nil {
		return Value{}, err
	}
	cur := v
	for i, seg := range segs {
		switch cur.kind {
		case KindMapping:
			next, ok := cur.Get(seg)
			if !ok {
				return Value{}, fmt.Errorf("%w: no key %q at %s", ErrPathNotFound, seg, joinPath(segs[:i]))
			}
			cur = next
		case KindSequence:
			idx, convErr := strconv.Atoi(seg)
			if convErr != nil {
				return Value{}, fmt.Errorf("%w: %q is not an index at %s", ErrPathNotFound, seg, joinPath(segs[:i]))
			}
			next, ok := cur.Index(idx)
			if !ok {
				return Value{}, fmt.Errorf("%w: index %d out of range at %s", ErrPathNotFound, idx, joinPath(segs[:i]))
			}
			cur = next
		default:
			return Value{}, fmt.Errorf("%w: cannot descend into %s at %s", ErrPathNotFound, cur.kind, joinPath(segs[:i]))
		}
	}
	return cur, nil
}

func joinPath(segs []string) string {
	if len(segs) == 0 {
		return "root"
	}
	return strings.Join(segs, ".")
}
