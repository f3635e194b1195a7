// Copyright 2026 The nixdex Authors. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package varint_test

import (
	"testing"

	"github.com/cosnicolaou/nixdex/frcode/varint"
)

func TestRoundTrip(t *testing.T) {
	for _, v := range []uint64{
		0, 1, 2, 127, 128, 129, 255, 256,
		1 << 20, 1<<63 - 1, 1 << 63, ^uint64(0),
	} {
		buf := make([]byte, varint.MaxLen)
		n := varint.PutUvarint(buf, v)
		got, consumed, ok := varint.Uvarint(buf[:n])
		if !ok {
			t.Fatalf("Uvarint(%v): decoding failed", v)
		}
		if got != v || consumed != n {
			t.Errorf("Uvarint(%v): got (%v, %v), want (%v, %v)", v, got, consumed, v, n)
		}
	}
}

func TestTruncated(t *testing.T) {
	buf := []byte{0x80, 0x80, 0x80}
	if _, _, ok := varint.Uvarint(buf); ok {
		t.Errorf("Uvarint: expected failure on truncated input")
	}
}

func TestEmpty(t *testing.T) {
	if _, _, ok := varint.Uvarint(nil); ok {
		t.Errorf("Uvarint(nil): expected failure")
	}
}
