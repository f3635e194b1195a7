// Copyright 2026 The nixdex Authors. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package nixdex

import (
	"bytes"
	"fmt"
	"os"
	"runtime"

	"github.com/hashicorp/go-hclog"

	"github.com/cosnicolaou/nixdex/container"
	"github.com/cosnicolaou/nixdex/frcode"
)

// FileTree is the minimal interface the writer needs from whatever
// in-memory file tree a caller built while walking a package: produce the
// entries whose path starts with prefix (after a single leading '/' has
// been stripped from prefix by Add), in an order that maximizes shared
// prefixes between consecutive entries. Building and populating a
// FileTree is outside this package's scope; see internal/filetree for a
// minimal implementation used by this repository's own tests and CLI.
type FileTree interface {
	List(prefix []byte) []FileTreeEntry
}

type writerOpts struct {
	level  int
	logger hclog.Logger
}

// WriterOption configures Create.
type WriterOption func(*writerOpts)

// WriterLevel sets the zstd compression level (0..=22, default matches
// zstd's own "default" speed preset).
func WriterLevel(level int) WriterOption {
	return func(o *writerOpts) { o.level = level }
}

// WriterLogger attaches a structured logger; a debug message is emitted as
// each package is added, and an error is logged if a writer is garbage
// collected without Finish or Close having been called.
func WriterLogger(l hclog.Logger) WriterOption {
	return func(o *writerOpts) { o.logger = l }
}

// Writer builds a new nixdex database. Every successful call to Add
// appends exactly one package record, preceded by the file records for
// that package's retained entries.
type Writer struct {
	f      *os.File
	cw     *container.Writer
	enc    *frcode.Encoder
	log    hclog.Logger
	closed bool
}

// Create opens path and begins writing a new database at the given zstd
// compression level.
func Create(path string, opts ...WriterOption) (*Writer, error) {
	o := writerOpts{level: 3, logger: hclog.NewNullLogger()}
	for _, fn := range opts {
		fn(&o)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	cw, err := container.Create(f, o.level)
	if err != nil {
		f.Close()
		return nil, err
	}
	w := &Writer{
		f:   f,
		cw:  cw,
		enc: frcode.NewEncoder(cw),
		log: o.logger,
	}
	// Guard against a writer being dropped without Finish/Close being
	// called: an un-finalized zstd frame produces a file that opens but
	// never reaches end of stream. We can't rely on this running
	// (finalizers are best-effort) so it is a backstop, not the primary
	// contract: callers must still call Finish or Close.
	runtime.SetFinalizer(w, func(w *Writer) {
		if !w.closed {
			w.log.Error("nixdex writer finalized without Finish/Close; database is truncated", "path", path)
			w.cw.Close()
			w.f.Close()
		}
	})
	return w, nil
}

// Add appends the file tree's entries under filterPrefix, then a single
// package record for sp, completing one group of the Group Invariant: all
// file records emitted since the previous package record belong to sp.
func (w *Writer) Add(sp StorePath, tree FileTree, filterPrefix []byte) error {
	if w.closed {
		return fmt.Errorf("nixdex: Add called after Finish")
	}
	prefix := bytes.TrimPrefix(filterPrefix, []byte("/"))
	entries := tree.List(prefix)
	for _, e := range entries {
		body, err := EncodeFileTreeEntry(e)
		if err != nil {
			return err
		}
		if err := w.enc.EncodeFile(body); err != nil {
			return err
		}
	}

	pkgJSON, err := MarshalStorePath(sp)
	if err != nil {
		return err
	}
	body := make([]byte, 0, 2+len(pkgJSON))
	body = append(body, 'p', 0)
	body = append(body, pkgJSON...)
	if err := w.enc.EncodePackage(body); err != nil {
		return err
	}
	w.log.Debug("added package", "hash", sp.Hash, "name", sp.Name, "entries", len(entries))
	return nil
}

// Finish closes the frcode stream and finalizes the zstd frame, returning
// the final size in bytes of the compressed database file. Add must not be
// called after Finish.
func (w *Writer) Finish() (int64, error) {
	if w.closed {
		return 0, fmt.Errorf("nixdex: Finish called twice")
	}
	w.closed = true
	runtime.SetFinalizer(w, nil)
	if err := w.cw.Close(); err != nil {
		w.f.Close()
		return 0, err
	}
	info, err := w.f.Stat()
	if err != nil {
		w.f.Close()
		return 0, err
	}
	return info.Size(), w.f.Close()
}

// Close abandons the writer, finalizing the underlying zstd frame (so the
// file is at least readable up to whatever was written) without returning
// a size. It is safe to call after Finish.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	_, err := w.Finish()
	return err
}
