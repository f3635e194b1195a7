// Copyright 2026 The nixdex Authors. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package nixdex

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/klauspost/compress/zstd"

	"github.com/cosnicolaou/nixdex/container"
	"github.com/cosnicolaou/nixdex/frcode"
)

type readerOpts struct {
	logger      hclog.Logger
	blockTarget int
}

// ReaderOption configures Open.
type ReaderOption func(*readerOpts)

// ReaderLogger attaches a structured logger to the reader. The reader keeps
// it, but neither Dump nor a Query run against the reader emits any log
// messages.
func ReaderLogger(l hclog.Logger) ReaderOption {
	return func(o *readerOpts) { o.logger = l }
}

// ReaderBlockSize overrides the decoder's target block size; mostly useful
// for tests exercising the cross-block package-resolution carry (§4.5).
func ReaderBlockSize(n int) ReaderOption {
	return func(o *readerOpts) { o.blockTarget = n }
}

// Reader allows querying a nixdex database. At most one Query may be run
// against a Reader at a time (§5).
type Reader struct {
	f   *os.File
	zr  *zstd.Decoder
	dec *frcode.Decoder
	log hclog.Logger
}

// Open opens the database located at path, verifying its container header.
func Open(path string, opts ...ReaderOption) (*Reader, error) {
	o := readerOpts{logger: hclog.NewNullLogger(), blockTarget: 64 << 10}
	for _, fn := range opts {
		fn(&o)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	zr, err := container.Open(bufio.NewReader(f))
	if err != nil {
		f.Close()
		var badMagic *container.UnsupportedFileTypeError
		var badVersion *container.UnsupportedVersionError
		switch {
		case errors.As(err, &badMagic):
			return nil, &UnsupportedFileTypeError{Got: badMagic.Got}
		case errors.As(err, &badVersion):
			return nil, &UnsupportedVersionError{Got: badVersion.Got, Want: container.FormatVersion}
		}
		return nil, err
	}
	dec := frcode.NewDecoder(zr, frcode.TargetBlockSize(o.blockTarget))
	return &Reader{f: f, zr: zr, dec: dec, log: o.logger}, nil
}

// Close releases the reader's file handle and decompressor state. zstd's
// Decoder.Close has no failure mode worth reporting (it only tears down
// internal worker goroutines), so only the file close error is returned.
func (r *Reader) Close() error {
	r.zr.Close()
	return r.f.Close()
}

// Dump decodes the database sequentially and writes every reconstructed
// record line to w, with a block-boundary marker between decode calls. It
// is a diagnostic aid, not part of the query contract.
func (r *Reader) Dump(w io.Writer) error {
	for {
		block, err := r.dec.Decode()
		if err != nil {
			return err
		}
		if len(block) == 0 {
			return nil
		}
		start := 0
		for i, b := range block {
			if b == '\n' {
				fmt.Fprintf(w, "%q\n", block[start:i])
				start = i + 1
			}
		}
		fmt.Fprintln(w, "--- block ---")
	}
}
