// +build ignore

// Command gendb builds small on-disk nixdex databases for the scenarios
// this repository's test suite exercises, the way gentestdata.go built
// bzip2 fixtures for the teacher package: run it manually with `go run
// gendb.go`. The test suite does not read these files; it builds its own
// databases in temporary directories.
package main

import (
	"log"
	"os"

	"github.com/cosnicolaou/nixdex"
	"github.com/cosnicolaou/nixdex/internal/filetree"
)

type fileSpec struct {
	path string
	size int64
}

type pkgSpec struct {
	hash  string
	name  string
	files []fileSpec
}

func buildTree(files []fileSpec) *filetree.Tree {
	t := filetree.New()
	for _, f := range files {
		t.Insert(f.path, nixdex.Node{Kind: nixdex.NodeRegular, Size: f.size})
	}
	return t
}

func write(path string, pkgs []pkgSpec, blockSize int) {
	os.Remove(path)
	w, err := nixdex.Create(path)
	if err != nil {
		log.Fatalf("create %v: %v", path, err)
	}
	for _, p := range pkgs {
		sp := nixdex.StorePath{Hash: p.hash, Name: p.name}
		if err := w.Add(sp, buildTree(p.files), nil); err != nil {
			log.Fatalf("add %v: %v", p.name, err)
		}
	}
	size, err := w.Finish()
	if err != nil {
		log.Fatalf("finish %v: %v", path, err)
	}
	log.Printf("wrote %v (%d bytes)", path, size)
}

func main() {
	write("minimal.nixdex", []pkgSpec{
		{hash: "aaaa", name: "demo", files: []fileSpec{{"/bin/foo", 0}}},
	}, 64<<10)

	write("two-packages.nixdex", []pkgSpec{
		{hash: "a", name: "x", files: []fileSpec{{"/bin/tool", 10}}},
		{hash: "b", name: "x", files: []fileSpec{{"/bin/tool", 20}}},
	}, 64<<10)

	// cross-block.nixdex is meant to be opened with a small
	// nixdex.ReaderBlockSize so that the package record for "bigpkg" lands
	// in a block after some of its file entries, exercising property 4
	// (cross-block package resolution carry).
	var many []fileSpec
	for i := 0; i < 200; i++ {
		many = append(many, fileSpec{path: "/share/doc/bigpkg/file" + string(rune('a'+i%26)), size: int64(i)})
	}
	write("cross-block.nixdex", []pkgSpec{
		{hash: "big", name: "bigpkg", files: many},
	}, 64<<10)
}
