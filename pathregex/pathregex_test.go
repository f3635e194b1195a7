// Copyright 2026 The nixdex Authors. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package pathregex_test

import (
	"testing"

	"github.com/cosnicolaou/nixdex/pathregex"
)

func record(meta, path string) string {
	return meta + "\x00" + path + "\n"
}

func TestAnchorRewriteMatchesAtPathBoundaryOnly(t *testing.T) {
	m, err := pathregex.Compile(`^/bin/foo$`)
	if err != nil {
		t.Fatal(err)
	}
	buf := []byte(record("f", "/bin/foo"))
	if _, _, ok := m.NextLine(buf, 0); !ok {
		t.Errorf("expected a match for %q", buf)
	}

	m2, err := pathregex.Compile(`^bin`)
	if err != nil {
		t.Fatal(err)
	}
	if _, _, ok := m2.NextLine(buf, 0); ok {
		t.Errorf("pattern ^bin unexpectedly matched %q", buf)
	}
}

func TestCandidateFalsePositiveIsFiltered(t *testing.T) {
	// The pre-filter literal "bin/tool" occurs inside the path
	// "/usr/bin/tool", so the substring scan flags the line as a
	// candidate; the anchor-rewritten regex must reject it because that
	// occurrence is not preceded by the \0 path-start marker. The "bin" in
	// the metadata field does not contain the literal and is never a
	// candidate.
	m, err := pathregex.Compile(`^bin/tool$`)
	if err != nil {
		t.Fatal(err)
	}
	buf := []byte(record("f-metadata-mentions-bin", "/usr/bin/tool"))
	if _, _, ok := m.NextLine(buf, 0); ok {
		t.Errorf("expected no match, an unanchored occurrence of %q should not satisfy the anchored pattern", "bin/tool")
	}
}

func TestPackageLineDetection(t *testing.T) {
	pkgLine := []byte("p\x00{\"hash\":\"aaaa\"}\n")
	if !pathregex.IsPackageLine(pkgLine) {
		t.Errorf("expected %q to be detected as a package line", pkgLine)
	}
	fileLine := []byte(record("f", "/bin/foo"))
	if pathregex.IsPackageLine(fileLine) {
		t.Errorf("did not expect %q to be detected as a package line", fileLine)
	}
}

func TestMultipleLinesScansForward(t *testing.T) {
	m, err := pathregex.Compile(`^/bin/tool$`)
	if err != nil {
		t.Fatal(err)
	}
	buf := []byte(record("f", "/bin/other") + record("f", "/bin/tool"))
	start, end, ok := m.NextLine(buf, 0)
	if !ok {
		t.Fatalf("expected a match")
	}
	got := string(buf[start:end])
	want := record("f", "/bin/tool")
	if got != want {
		t.Errorf("got line %q, want %q", got, want)
	}
}
