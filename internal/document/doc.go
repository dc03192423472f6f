// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package document provides the JSON document model used by the shell.
//
// A Value is an immutable tagged variant over null, booleans, numbers,
// strings, sequences and mappings. Mappings keep insertion order for
// serialization while equality ignores key order.
//
// # Key Types
//
//   - Value: the document value
//   - Member: a key/value pair used to build mappings
//   - SyntaxError: parse failure with byte offset
//
// # Usage
//
// Parse and serialize a document:
//
//	v, err := document.Parse(`{"name": "paper", "builds": [1, 2]}`)
//	if err != nil {
//	    return err // errors.Is(err, document.ErrMalformedDocument)
//	}
//	fmt.Println(document.Serialize(v))
//
// Build a value programmatically:
//
//	v := document.Mapping(
//	    document.Pair("id", document.Int(7)),
//	    document.Pair("tags", document.Sequence(document.String("a"))),
//	)
package document
