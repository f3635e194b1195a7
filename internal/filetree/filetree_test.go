// Copyright 2026 The nixdex Authors. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package filetree_test

import (
	"testing"

	"github.com/cosnicolaou/nixdex"
	"github.com/cosnicolaou/nixdex/internal/filetree"
)

func TestListOrderingAndPrefixFilter(t *testing.T) {
	tr := filetree.New()
	tr.Insert("/bin/ab", nixdex.Node{Kind: nixdex.NodeRegular})
	tr.Insert("/bin/aa", nixdex.Node{Kind: nixdex.NodeRegular})
	tr.Insert("/usr/lib/x", nixdex.Node{Kind: nixdex.NodeRegular})

	all := tr.List(nil)
	if len(all) != 3 {
		t.Fatalf("got %d entries, want 3: %+v", len(all), all)
	}
	// basename-sorted depth-first: "bin" sorts before "usr", and within
	// bin, "aa" sorts before "ab".
	want := []string{"/bin/aa", "/bin/ab", "/usr/lib/x"}
	for i, w := range want {
		if string(all[i].Path) != w {
			t.Errorf("entry %d: got %q, want %q", i, all[i].Path, w)
		}
	}

	filtered := tr.List([]byte("bin"))
	if len(filtered) != 2 {
		t.Fatalf("got %d entries for prefix bin, want 2: %+v", len(filtered), filtered)
	}
}
