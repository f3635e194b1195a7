// Copyright 2026 The nixdex Authors. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package nixdex

import "testing"

func TestStorePathRoundTrip(t *testing.T) {
	want := StorePath{
		Hash: "aabbccdd",
		Name: "demo-1.0",
		Origin: Origin{
			Attr:     "pkgs.demo",
			Output:   "out",
			Toplevel: true,
		},
	}
	buf, err := MarshalStorePath(want)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	got, err := UnmarshalStorePath(buf)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestMarshalEscapesControlCharacters(t *testing.T) {
	// encoding/json escapes NUL and newline bytes inside string fields, so
	// MarshalStorePath's own safety check is a backstop against a future
	// field type (or custom MarshalJSON) that could emit them raw, not
	// something reachable through the current string-only StorePath shape.
	buf, err := MarshalStorePath(StorePath{Name: "has\x00nul\nand-newline"})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	got, err := UnmarshalStorePath(buf)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got.Name != "has\x00nul\nand-newline" {
		t.Errorf("got name %q, want round-tripped control characters preserved", got.Name)
	}
}

func TestUnmarshalRejectsInvalidJSON(t *testing.T) {
	_, err := UnmarshalStorePath([]byte("not json"))
	if _, ok := err.(*StorePathParseError); !ok {
		t.Fatalf("got %v (%T), want *StorePathParseError", err, err)
	}
}
