// Copyright 2026 The nixdex Authors. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package nixdex

import (
	"bytes"
	"fmt"

	"github.com/cosnicolaou/nixdex/frcode/varint"
)

// NodeKind distinguishes the three kinds of filesystem object a
// FileTreeEntry can describe.
type NodeKind byte

const (
	// NodeRegular is a regular file, carrying a size and an executable bit.
	NodeRegular NodeKind = 'f'
	// NodeSymlink is a symbolic link, carrying its target.
	NodeSymlink NodeKind = 'l'
	// NodeDirectory is a directory; it carries no further attributes.
	NodeDirectory NodeKind = 'd'
)

// Node is the tagged union of attributes attached to a FileTreeEntry.
// Exactly one of the fields is meaningful, selected by Kind.
type Node struct {
	Kind NodeKind

	// Size and Executable apply only when Kind == NodeRegular.
	Size       int64
	Executable bool

	// Target applies only when Kind == NodeSymlink. It must not contain a
	// NUL byte, the same restriction placed on Path.
	Target string
}

// FileTreeEntry is a single filesystem entry inside a package: its raw path
// bytes plus the kind-specific Node attributes.
type FileTreeEntry struct {
	Path []byte
	Node Node
}

// EncodeFileTreeEntry produces the record body METADATA\0PATH described in
// §4.1/§6 of the format: a fixed-structure, NUL-free metadata prefix, a
// single NUL separator, and the raw path bytes.
//
// Metadata layout (all integers are LEB128 varints, see package varint):
//
//	byte 0       node kind tag ('f', 'l' or 'd')
//	'f'          varint size, then a single 0/1 executable byte
//	'l'          varint len(target), then len(target) raw target bytes
//	'd'          (no further bytes)
func EncodeFileTreeEntry(e FileTreeEntry) ([]byte, error) {
	if bytes.IndexByte(e.Path, '\n') >= 0 {
		return nil, fmt.Errorf("nixdex: file entry path contains a newline: %q", e.Path)
	}
	var meta bytes.Buffer
	meta.WriteByte(byte(e.Node.Kind))
	switch e.Node.Kind {
	case NodeRegular:
		var szbuf [binaryMaxVarintLen]byte
		n := varint.PutUvarint(szbuf[:], uint64(e.Node.Size))
		meta.Write(szbuf[:n])
		if e.Node.Executable {
			meta.WriteByte(1)
		} else {
			meta.WriteByte(0)
		}
	case NodeSymlink:
		target := []byte(e.Node.Target)
		if bytes.IndexByte(target, 0) >= 0 {
			return nil, fmt.Errorf("nixdex: symlink target contains a NUL byte: %q", e.Node.Target)
		}
		var lbuf [binaryMaxVarintLen]byte
		n := varint.PutUvarint(lbuf[:], uint64(len(target)))
		meta.Write(lbuf[:n])
		meta.Write(target)
	case NodeDirectory:
		// no further attributes
	default:
		return nil, fmt.Errorf("nixdex: unknown node kind %q", e.Node.Kind)
	}

	if bytes.IndexByte(meta.Bytes(), 0) >= 0 {
		return nil, fmt.Errorf("nixdex: encoded metadata unexpectedly contains a NUL byte")
	}

	out := make([]byte, 0, meta.Len()+1+len(e.Path))
	out = append(out, meta.Bytes()...)
	out = append(out, 0)
	out = append(out, e.Path...)
	return out, nil
}

// DecodeFileTreeEntry recovers (node, path) from a record body of the form
// METADATA\0PATH. It returns an *EntryParseError if the body is malformed.
func DecodeFileTreeEntry(buf []byte) (FileTreeEntry, error) {
	sep := bytes.IndexByte(buf, 0)
	if sep < 0 {
		return FileTreeEntry{}, &EntryParseError{Bytes: buf, Err: fmt.Errorf("no NUL separator between metadata and path")}
	}
	meta, path := buf[:sep], buf[sep+1:]
	if len(meta) == 0 {
		return FileTreeEntry{}, &EntryParseError{Bytes: buf, Err: fmt.Errorf("empty metadata")}
	}

	kind := NodeKind(meta[0])
	rest := meta[1:]
	node := Node{Kind: kind}
	switch kind {
	case NodeRegular:
		size, n, ok := varint.Uvarint(rest)
		if !ok || n >= len(rest) {
			return FileTreeEntry{}, &EntryParseError{Bytes: buf, Err: fmt.Errorf("truncated regular-file metadata")}
		}
		node.Size = int64(size)
		node.Executable = rest[n] != 0
	case NodeSymlink:
		targetLen, n, ok := varint.Uvarint(rest)
		if !ok || n+int(targetLen) != len(rest) {
			return FileTreeEntry{}, &EntryParseError{Bytes: buf, Err: fmt.Errorf("truncated symlink metadata")}
		}
		node.Target = string(rest[n:])
	case NodeDirectory:
		if len(rest) != 0 {
			return FileTreeEntry{}, &EntryParseError{Bytes: buf, Err: fmt.Errorf("directory metadata carries unexpected bytes")}
		}
	default:
		return FileTreeEntry{}, &EntryParseError{Bytes: buf, Err: fmt.Errorf("unknown node kind %q", meta[0])}
	}

	pathCopy := make([]byte, len(path))
	copy(pathCopy, path)
	return FileTreeEntry{Path: pathCopy, Node: node}, nil
}

const binaryMaxVarintLen = 10
