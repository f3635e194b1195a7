// Copyright 2026 The nixdex Authors. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package filetree provides a minimal in-memory implementation of the
// nixdex.FileTree collaborator, sufficient to exercise the writer pipeline
// in this repository's own tests and CLI. Building a tree from a real
// package's contents (walking a store path on disk) is outside the scope
// spec.md assigns to the core; this package only has to produce entries in
// an order that compresses well, per §4.3's "entry ordering requirement".
package filetree

import (
	"bytes"
	"sort"
	"strings"

	"github.com/cosnicolaou/nixdex"
)

type node struct {
	node     nixdex.Node
	isLeaf   bool
	children map[string]*node
}

// Tree is an in-memory file tree. The zero value is not usable; use New.
type Tree struct {
	root *node
}

// New returns an empty Tree.
func New() *Tree {
	return &Tree{root: &node{children: map[string]*node{}}}
}

// Insert adds a single entry at path (absolute, slash-separated) with the
// given node attributes. Intermediate directories are created implicitly.
func (t *Tree) Insert(path string, n nixdex.Node) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	cur := t.root
	for i, p := range parts {
		if p == "" {
			continue
		}
		child, ok := cur.children[p]
		if !ok {
			child = &node{children: map[string]*node{}}
			cur.children[p] = child
		}
		if i == len(parts)-1 {
			child.node = n
			child.isLeaf = true
		}
		cur = child
	}
}

// List implements nixdex.FileTree: it returns every inserted entry whose
// path (relative, without the leading '/' that Writer.Add already trimmed
// from prefix) starts with prefix, depth-first with children visited in
// basename order, which maximizes the shared-prefix length between
// consecutive entries handed to the frcode encoder.
func (t *Tree) List(prefix []byte) []nixdex.FileTreeEntry {
	var out []nixdex.FileTreeEntry
	walk(t.root, "", func(path string, n *node) {
		if !n.isLeaf || !bytes.HasPrefix([]byte(path), prefix) {
			return
		}
		out = append(out, nixdex.FileTreeEntry{Path: []byte("/" + path), Node: n.node})
	})
	return out
}

func walk(n *node, path string, visit func(string, *node)) {
	names := make([]string, 0, len(n.children))
	for name := range n.children {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		child := n.children[name]
		childPath := name
		if path != "" {
			childPath = path + "/" + name
		}
		visit(childPath, child)
		walk(child, childPath, visit)
	}
}
