// Copyright 2026 The nixdex Authors. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package container implements the on-disk framing around a nixdex
// database: four magic bytes, an 8-byte little-endian format version, and a
// zstd-compressed frame carrying the frcode record stream.
package container

import (
	"encoding/binary"
	"io"
	"runtime"

	"github.com/klauspost/compress/zstd"
)

// Magic is the fixed 4-byte prefix of every nixdex database file.
var Magic = [4]byte{'N', 'I', 'X', 'I'}

// FormatVersion is the only container version this package knows how to
// read or write. There is no forward-compatibility story: a reader that
// sees any other version refuses to open the file.
const FormatVersion uint64 = 1

// MinLevel and MaxLevel bound the zstd compression level accepted by
// Create, mirroring the 0..=22 range of the reference zstd CLI.
const (
	MinLevel = 0
	MaxLevel = 22
)

// Writer is the open handle returned by Create. Close must be called
// exactly once to finalize the zstd frame; failing to do so leaves a
// truncated, unreadable file.
type Writer struct {
	enc *zstd.Encoder
}

// Create writes the magic and version header to w, then opens a streaming
// zstd encoder around the remainder of w configured at the given
// compression level (0..=22) and multithreaded across the available CPUs,
// mirroring the reference implementation's use of num_cpus::get().
func Create(w io.Writer, level int) (*Writer, error) {
	encLevel := zstd.SpeedDefault
	if level >= MinLevel && level <= MaxLevel {
		encLevel = zstd.EncoderLevelFromZstd(level)
	}
	if _, err := w.Write(Magic[:]); err != nil {
		return nil, err
	}
	var versionBuf [8]byte
	binary.LittleEndian.PutUint64(versionBuf[:], FormatVersion)
	if _, err := w.Write(versionBuf[:]); err != nil {
		return nil, err
	}
	enc, err := zstd.NewWriter(w,
		zstd.WithEncoderLevel(encLevel),
		zstd.WithEncoderConcurrency(runtime.NumCPU()),
	)
	if err != nil {
		return nil, err
	}
	return &Writer{enc: enc}, nil
}

// Write implements io.Writer, feeding bytes into the open zstd frame.
func (w *Writer) Write(p []byte) (int, error) { return w.enc.Write(p) }

// Close finalizes the zstd frame. It must be called exactly once.
func (w *Writer) Close() error { return w.enc.Close() }

// UnsupportedFileTypeError and UnsupportedVersionError are returned by
// Open; they are deliberately simple value types so callers in package
// nixdex can wrap them into the exported error taxonomy without an import
// cycle.
type UnsupportedFileTypeError struct{ Got [4]byte }

func (e *UnsupportedFileTypeError) Error() string {
	return "container: unexpected magic bytes " + string(e.Got[:])
}

type UnsupportedVersionError struct{ Got uint64 }

func (e *UnsupportedVersionError) Error() string {
	return "container: unsupported format version"
}

// Open verifies the magic and version header read from r and returns a
// streaming zstd decompressor wrapping the remainder of r.
func Open(r io.Reader) (*zstd.Decoder, error) {
	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return nil, err
	}
	if magic != Magic {
		return nil, &UnsupportedFileTypeError{Got: magic}
	}
	var versionBuf [8]byte
	if _, err := io.ReadFull(r, versionBuf[:]); err != nil {
		return nil, err
	}
	version := binary.LittleEndian.Uint64(versionBuf[:])
	if version != FormatVersion {
		return nil, &UnsupportedVersionError{Got: version}
	}
	return zstd.NewReader(r)
}
