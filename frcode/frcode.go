// Copyright 2026 The nixdex Authors. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package frcode implements the front-coded, length-prefixed record stream
// described by the nixdex database format: records go in, identical
// records come out, and the decoder never yields a partial record.
//
// Front-coding context (the "previous record" used to compute the shared
// prefix length) is kept separately for each of the two record kinds that
// interleave in the stream, so that a run of file records compresses well
// even though a package record is spliced in after every group.
package frcode

import (
	"bufio"
	"errors"
	"io"

	"github.com/cosnicolaou/nixdex/frcode/varint"
)

// Kind distinguishes the two record kinds carried by the stream.
type Kind byte

const (
	// File tags a file-entry record.
	File Kind = 'F'
	// Package tags a package (group terminator) record.
	Package Kind = 'P'
)

// MaxRecordSize bounds how large a single reconstructed record may be; it
// guards the decoder against a corrupt restLen value driving an
// unreasonable allocation.
const MaxRecordSize = 16 << 20 // 16MiB

// Error reports frcode-level stream corruption: an unexpected EOF
// mid-record, a negative or out-of-range shared-prefix length, or a
// reconstructed record exceeding MaxRecordSize.
type Error struct {
	Kind string
	Err  error
}

func (e *Error) Error() string { return "frcode: " + e.Kind + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }

var (
	errShortRecord    = errors.New("unexpected end of stream mid-record")
	errSharedTooLarge = errors.New("shared prefix longer than the previous record of this kind")
	errRecordTooLarge = errors.New("record exceeds the maximum allowed size")
	errBadKindTag     = errors.New("unrecognized record kind tag")
)

// Encoder writes records to an underlying byte stream using the front
// coding scheme: each record is preceded by its kind tag and the length of
// the prefix (in bytes) it shares with the previously emitted record of the
// same kind.
type Encoder struct {
	w           io.Writer
	lastFile    []byte
	lastPackage []byte
}

// NewEncoder returns an Encoder that writes to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

// EncodeFile emits body (the caller's already-built METADATA\0PATH bytes,
// without a trailing newline) as a file record.
func (e *Encoder) EncodeFile(body []byte) error {
	return e.encode(File, body)
}

// EncodePackage emits body (the caller's already-built p\0JSON bytes,
// without a trailing newline) as a package record.
func (e *Encoder) EncodePackage(body []byte) error {
	return e.encode(Package, body)
}

func (e *Encoder) encode(kind Kind, body []byte) error {
	last := e.lastFor(kind)
	shared := commonPrefixLen(last, body)
	rest := body[shared:]

	var hdr [1 + 2*varint.MaxLen]byte
	hdr[0] = byte(kind)
	n := 1
	n += varint.PutUvarint(hdr[n:], uint64(shared))
	n += varint.PutUvarint(hdr[n:], uint64(len(rest)))
	if _, err := e.w.Write(hdr[:n]); err != nil {
		return err
	}
	if _, err := e.w.Write(rest); err != nil {
		return err
	}

	saved := make([]byte, len(body))
	copy(saved, body)
	e.setLastFor(kind, saved)
	return nil
}

func (e *Encoder) lastFor(kind Kind) []byte {
	if kind == Package {
		return e.lastPackage
	}
	return e.lastFile
}

func (e *Encoder) setLastFor(kind Kind, body []byte) {
	if kind == Package {
		e.lastPackage = body
	} else {
		e.lastFile = body
	}
}

func commonPrefixLen(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	return i
}

// Decoder reads records previously written by an Encoder and reassembles
// them a block at a time: Decode returns a byte slice containing zero or
// more whole, newline-terminated records, never a partial one.
type Decoder struct {
	br          *bufio.Reader
	lastFile    []byte
	lastPackage []byte
	targetBlock int
	eof         bool
}

// DecoderOption configures a Decoder.
type DecoderOption func(*Decoder)

// TargetBlockSize sets the approximate number of reconstructed bytes Decode
// tries to batch into one block before returning. It is a soft target: a
// single record larger than this will still be returned whole in one
// block, and the final block of the stream may be smaller.
func TargetBlockSize(n int) DecoderOption {
	return func(d *Decoder) { d.targetBlock = n }
}

// NewDecoder returns a Decoder reading from r.
func NewDecoder(r io.Reader, opts ...DecoderOption) *Decoder {
	d := &Decoder{
		br:          bufio.NewReaderSize(r, 64<<10),
		targetBlock: 64 << 10,
	}
	for _, fn := range opts {
		fn(d)
	}
	return d
}

// Decode returns the next block: the concatenation of one or more
// reconstructed records, each terminated by '\n'. It returns a nil/empty
// slice with a nil error once the stream is exhausted. Records never
// straddle two blocks.
func (d *Decoder) Decode() ([]byte, error) {
	if d.eof {
		return nil, nil
	}
	var out []byte
	for {
		rec, err := d.decodeOne()
		if err == io.EOF {
			d.eof = true
			break
		}
		if err != nil {
			return nil, err
		}
		out = append(out, rec...)
		out = append(out, '\n')
		if len(out) >= d.targetBlock {
			break
		}
	}
	return out, nil
}

// decodeOne reads and reconstructs exactly one record, or returns io.EOF if
// the stream ends cleanly on a record boundary.
func (d *Decoder) decodeOne() ([]byte, error) {
	tagByte, err := d.br.ReadByte()
	if err == io.EOF {
		return nil, io.EOF
	}
	if err != nil {
		return nil, &Error{Kind: "kind tag", Err: err}
	}
	kind := Kind(tagByte)
	if kind != File && kind != Package {
		return nil, &Error{Kind: "kind tag", Err: errBadKindTag}
	}

	shared, err := d.readUvarint()
	if err != nil {
		return nil, &Error{Kind: "shared length", Err: err}
	}
	restLen, err := d.readUvarint()
	if err != nil {
		return nil, &Error{Kind: "rest length", Err: err}
	}
	if restLen > MaxRecordSize || shared > MaxRecordSize {
		return nil, &Error{Kind: "record size", Err: errRecordTooLarge}
	}

	last := d.lastFile
	if kind == Package {
		last = d.lastPackage
	}
	if shared > uint64(len(last)) {
		return nil, &Error{Kind: "shared length", Err: errSharedTooLarge}
	}

	rest := make([]byte, restLen)
	if _, err := io.ReadFull(d.br, rest); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, &Error{Kind: "record body", Err: errShortRecord}
		}
		return nil, &Error{Kind: "record body", Err: err}
	}

	if uint64(len(rest))+shared > MaxRecordSize {
		return nil, &Error{Kind: "record size", Err: errRecordTooLarge}
	}

	rec := make([]byte, shared, shared+uint64(len(rest)))
	copy(rec, last[:shared])
	rec = append(rec, rest...)

	if kind == Package {
		d.lastPackage = rec
	} else {
		d.lastFile = rec
	}
	return rec, nil
}

func (d *Decoder) readUvarint() (uint64, error) {
	var buf [varint.MaxLen]byte
	for i := 0; i < varint.MaxLen; i++ {
		b, err := d.br.ReadByte()
		if err != nil {
			return 0, errShortRecord
		}
		buf[i] = b
		if b < 0x80 {
			v, _, ok := varint.Uvarint(buf[:i+1])
			if !ok {
				return 0, errShortRecord
			}
			return v, nil
		}
	}
	return 0, errShortRecord
}
