// Copyright 2026 The nixdex Authors. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package varint implements the small unsigned LEB128 varints used by
// package frcode to encode the "shared" and "rest_len" fields of a record.
//
// This mirrors the teacher's tradition of keeping low level bit-packing
// primitives in their own small, independently tested file rather than
// inline in the codec itself; the encoding itself is exactly
// encoding/binary's own Uvarint/PutUvarint, wrapped here so the rest of
// package frcode has a single, package-local API to depend on.
package varint

import "encoding/binary"

// MaxLen is the maximum number of bytes PutUvarint will ever write for a
// uint64.
const MaxLen = binary.MaxVarintLen64

// PutUvarint encodes x into buf and returns the number of bytes written.
// buf must be at least MaxLen bytes long.
func PutUvarint(buf []byte, x uint64) int {
	return binary.PutUvarint(buf, x)
}

// Uvarint decodes a uint64 from the front of buf, returning the value, the
// number of bytes consumed, and whether decoding succeeded. It fails if buf
// ends before a terminating byte (high bit clear) is found, or if the value
// would overflow 64 bits.
func Uvarint(buf []byte) (uint64, int, bool) {
	x, n := binary.Uvarint(buf)
	if n <= 0 {
		return 0, 0, false
	}
	return x, n, true
}
