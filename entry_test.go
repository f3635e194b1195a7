// Copyright 2026 The nixdex Authors. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package nixdex

import (
	"bytes"
	"testing"
)

func TestFileTreeEntryRoundTrip(t *testing.T) {
	cases := []FileTreeEntry{
		{Path: []byte("/bin/foo"), Node: Node{Kind: NodeRegular, Size: 1234, Executable: true}},
		{Path: []byte("/bin/bar"), Node: Node{Kind: NodeRegular, Size: 0}},
		{Path: []byte("/usr/lib/libfoo.so"), Node: Node{Kind: NodeSymlink, Target: "libfoo.so.1.2.3"}},
		{Path: []byte("/usr/share/doc"), Node: Node{Kind: NodeDirectory}},
	}
	for _, want := range cases {
		body, err := EncodeFileTreeEntry(want)
		if err != nil {
			t.Fatalf("Encode %+v: %v", want, err)
		}
		got, err := DecodeFileTreeEntry(body)
		if err != nil {
			t.Fatalf("Decode %q: %v", body, err)
		}
		if !bytes.Equal(got.Path, want.Path) || got.Node != want.Node {
			t.Errorf("round trip mismatch: got %+v, want %+v", got, want)
		}
	}
}

func TestEncodeRejectsNewlineInPath(t *testing.T) {
	_, err := EncodeFileTreeEntry(FileTreeEntry{Path: []byte("/bin/foo\nbar"), Node: Node{Kind: NodeDirectory}})
	if err == nil {
		t.Fatalf("expected an error for a path containing a newline")
	}
}

func TestDecodeRejectsMissingSeparator(t *testing.T) {
	_, err := DecodeFileTreeEntry([]byte("no-separator-here"))
	if _, ok := err.(*EntryParseError); !ok {
		t.Fatalf("got %v (%T), want *EntryParseError", err, err)
	}
}

func TestDecodeRejectsUnknownKind(t *testing.T) {
	_, err := DecodeFileTreeEntry([]byte("z\x00/bin/foo"))
	if _, ok := err.(*EntryParseError); !ok {
		t.Fatalf("got %v (%T), want *EntryParseError", err, err)
	}
}
