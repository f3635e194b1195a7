// Copyright 2026 The nixdex Authors. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package frcode_test

import (
	"bytes"
	"testing"

	"github.com/cosnicolaou/nixdex/frcode"
)

func encodeAll(t *testing.T, recs []struct {
	kind frcode.Kind
	body string
}) []byte {
	t.Helper()
	var buf bytes.Buffer
	enc := frcode.NewEncoder(&buf)
	for _, r := range recs {
		var err error
		if r.kind == frcode.Package {
			err = enc.EncodePackage([]byte(r.body))
		} else {
			err = enc.EncodeFile([]byte(r.body))
		}
		if err != nil {
			t.Fatalf("encode %q: %v", r.body, err)
		}
	}
	return buf.Bytes()
}

func decodeAll(t *testing.T, encoded []byte) []string {
	t.Helper()
	dec := frcode.NewDecoder(bytes.NewReader(encoded))
	var got []string
	for {
		block, err := dec.Decode()
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(block) == 0 {
			break
		}
		for _, line := range bytes.Split(bytes.TrimSuffix(block, []byte("\n")), []byte("\n")) {
			got = append(got, string(line))
		}
	}
	return got
}

func TestRoundTrip(t *testing.T) {
	recs := []struct {
		kind frcode.Kind
		body string
	}{
		{frcode.File, "f\x00/bin/aa"},
		{frcode.File, "f\x00/bin/ab"},
		{frcode.File, "f\x00/bin/abc"},
		{frcode.Package, "p\x00{\"hash\":\"a\"}"},
		{frcode.File, "f\x00/usr/bin/zz"},
		{frcode.Package, "p\x00{\"hash\":\"b\"}"},
	}
	encoded := encodeAll(t, recs)
	got := decodeAll(t, encoded)

	var want []string
	for _, r := range recs {
		want = append(want, r.body)
	}
	if len(got) != len(want) {
		t.Fatalf("got %d records, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("record %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestFrontCodingIsPerKind(t *testing.T) {
	// A package record spliced between two file records with a common
	// prefix must not disturb the file/file front coding, nor should the
	// package record borrow a shared prefix from a file record.
	recs := []struct {
		kind frcode.Kind
		body string
	}{
		{frcode.File, "f\x00/bin/aaaaaaaa"},
		{frcode.Package, "p\x00{\"hash\":\"aaaaaaaa\"}"},
		{frcode.File, "f\x00/bin/aaaaaaab"},
	}
	encoded := encodeAll(t, recs)
	got := decodeAll(t, encoded)
	want := []string{recs[0].body, recs[1].body, recs[2].body}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("record %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestEmptyStream(t *testing.T) {
	dec := frcode.NewDecoder(bytes.NewReader(nil))
	block, err := dec.Decode()
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(block) != 0 {
		t.Fatalf("Decode on empty input: got %q, want empty", block)
	}
}

func TestTruncatedStreamIsAnError(t *testing.T) {
	var buf bytes.Buffer
	enc := frcode.NewEncoder(&buf)
	if err := enc.EncodeFile([]byte("f\x00/bin/truncate-me")); err != nil {
		t.Fatal(err)
	}
	truncated := buf.Bytes()[:buf.Len()-3]
	dec := frcode.NewDecoder(bytes.NewReader(truncated))
	if _, err := dec.Decode(); err == nil {
		t.Fatalf("Decode on truncated input: got nil error, want an error")
	}
}

func TestBlockBatchingNeverSplitsARecord(t *testing.T) {
	var buf bytes.Buffer
	enc := frcode.NewEncoder(&buf)
	for i := 0; i < 200; i++ {
		if err := enc.EncodeFile([]byte("f\x00/bin/entry-number-of-this-file")); err != nil {
			t.Fatal(err)
		}
	}
	dec := frcode.NewDecoder(bytes.NewReader(buf.Bytes()), frcode.TargetBlockSize(64))
	total := 0
	for {
		block, err := dec.Decode()
		if err != nil {
			t.Fatalf("Decode: %v", err)
		}
		if len(block) == 0 {
			break
		}
		if block[len(block)-1] != '\n' {
			t.Fatalf("block does not end on a record boundary: %q", block)
		}
		total += bytes.Count(block, []byte("\n"))
	}
	if total != 200 {
		t.Fatalf("got %d records across all blocks, want 200", total)
	}
}
