// Copyright 2026 The nixdex Authors. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package nixdex

import "fmt"

// UnsupportedFileTypeError is returned when a file's leading bytes do not
// match the nixdex container magic.
type UnsupportedFileTypeError struct {
	Got [4]byte
}

func (e *UnsupportedFileTypeError) Error() string {
	return fmt.Sprintf("nixdex: unsupported file type, magic bytes are %x", e.Got[:])
}

// UnsupportedVersionError is returned when a file's container version does
// not match the version this package knows how to read.
type UnsupportedVersionError struct {
	Got, Want uint64
}

func (e *UnsupportedVersionError) Error() string {
	return fmt.Sprintf("nixdex: unsupported database version %v, want %v", e.Got, e.Want)
}

// FrcodeError wraps a low level record-stream corruption detected by
// package frcode.
type FrcodeError struct {
	Kind string
	Err  error
}

func (e *FrcodeError) Error() string {
	return fmt.Sprintf("nixdex: frcode %v: %v", e.Kind, e.Err)
}

func (e *FrcodeError) Unwrap() error { return e.Err }

// EntryParseError is returned when a file record's METADATA\0PATH body
// could not be decoded into a FileTreeEntry.
type EntryParseError struct {
	Bytes []byte
	Err   error
}

func (e *EntryParseError) Error() string {
	return fmt.Sprintf("nixdex: failed to parse file entry %q: %v", string(e.Bytes), e.Err)
}

func (e *EntryParseError) Unwrap() error { return e.Err }

// StorePathParseError is returned when a package record's JSON payload
// could not be parsed as a StorePath.
type StorePathParseError struct {
	Bytes []byte
	Err   error
}

func (e *StorePathParseError) Error() string {
	return fmt.Sprintf("nixdex: failed to parse store path %q: %v", string(e.Bytes), e.Err)
}

func (e *StorePathParseError) Unwrap() error { return e.Err }

// MissingPackageEntryError is returned when end-of-stream is reached while
// file entries are still waiting on an owning package record.
type MissingPackageEntryError struct {
	Pending int
}

func (e *MissingPackageEntryError) Error() string {
	return fmt.Sprintf("nixdex: end of stream reached with %v file entries missing their owning package", e.Pending)
}

// RegexCompileError is returned when the rewritten path regex, or the fixed
// auxiliary package-line regex, fails to compile.
type RegexCompileError struct {
	Pattern string
	Err     error
}

func (e *RegexCompileError) Error() string {
	return fmt.Sprintf("nixdex: failed to compile regex %q: %v", e.Pattern, e.Err)
}

func (e *RegexCompileError) Unwrap() error { return e.Err }
