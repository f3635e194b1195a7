// Copyright 2026 The nixdex Authors. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package nixdex

import (
	"bytes"
	"encoding/json"
)

// Origin records where a package came from in the package manager's own
// terms: an attribute path, the output it refers to, and whether it was a
// top-level (as opposed to transitively pulled in) reference.
type Origin struct {
	Attr     string `json:"attr"`
	Output   string `json:"output"`
	Toplevel bool   `json:"toplevel"`
}

// StorePath identifies a single immutable package instance: its
// content-address hash, its human name, and the origin it was discovered
// under. It is encoded in the index as a single JSON object and is opaque
// to the frcode stream except that its encoding must contain neither a NUL
// byte nor a newline.
type StorePath struct {
	Hash   string `json:"hash"`
	Name   string `json:"name"`
	Origin Origin `json:"origin"`
}

// MarshalStorePath encodes p as the JSON payload carried by a package
// record. It returns an error if the encoding would contain a NUL byte or
// a newline, both of which are reserved by the frcode record format.
func MarshalStorePath(p StorePath) ([]byte, error) {
	buf, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	if bytes.IndexByte(buf, 0) >= 0 || bytes.IndexByte(buf, '\n') >= 0 {
		return nil, &StorePathParseError{Bytes: buf, Err: errStorePathUnsafeBytes}
	}
	return buf, nil
}

// UnmarshalStorePath decodes the JSON payload of a package record.
func UnmarshalStorePath(buf []byte) (StorePath, error) {
	var p StorePath
	if err := json.Unmarshal(buf, &p); err != nil {
		return StorePath{}, &StorePathParseError{Bytes: buf, Err: err}
	}
	return p, nil
}

var errStorePathUnsafeBytes = errUnsafeBytes("store path JSON encoding contains a NUL or newline byte")

type errUnsafeBytes string

func (e errUnsafeBytes) Error() string { return string(e) }
