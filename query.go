// Copyright 2026 The nixdex Authors. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package nixdex

import (
	"errors"

	"github.com/cosnicolaou/nixdex/frcode"
	"github.com/cosnicolaou/nixdex/pathregex"
)

// Result is a single (package, entry) pair yielded by a Query.
type Result struct {
	Package StorePath
	Entry   FileTreeEntry
}

// Query configures and runs a path-regex search against a Reader. It is
// built by Reader.Query and finalized by Run, following the fluent builder
// shape described by §6 (`query(exact).package_pattern(p).hash(h).run()`).
type Query struct {
	r       *Reader
	matcher *pathregex.Matcher

	packagePattern *regexNameFilter
	hash           string
}

// regexNameFilter is split out only to keep Query's zero value ("no filter
// configured") distinguishable from "an empty-but-present pattern".
type regexNameFilter struct {
	pattern string
	re      *pathregex.Matcher
}

// Query begins building a query for pattern, the user's path regex.
func (r *Reader) Query(pattern string) (*Query, error) {
	m, err := pathregex.Compile(pattern)
	if err != nil {
		return nil, &RegexCompileError{Pattern: pattern, Err: err}
	}
	return &Query{r: r, matcher: m}, nil
}

// PackagePattern restricts results to packages whose name matches pattern.
func (q *Query) PackagePattern(pattern string) (*Query, error) {
	m, err := pathregex.Compile(pattern)
	if err != nil {
		return nil, &RegexCompileError{Pattern: pattern, Err: err}
	}
	q.packagePattern = &regexNameFilter{pattern: pattern, re: m}
	return q, nil
}

// Hash restricts results to the package whose content-address hash equals h.
func (q *Query) Hash(h string) *Query {
	q.hash = h
	return q
}

// shouldSearchPackage implements the predicate from §4.5: true iff no
// package-name filter was configured or it matches pkg.Name, AND no hash
// filter was configured or it equals pkg.Hash.
func (q *Query) shouldSearchPackage(pkg StorePath) bool {
	if q.packagePattern != nil && !q.packagePattern.re.Exact.MatchString(pkg.Name) {
		return false
	}
	if q.hash != "" && pkg.Hash != q.hash {
		return false
	}
	return true
}

// Run starts the streaming search and returns a pull iterator over its
// results.
func (q *Query) Run() *ResultIter {
	return &ResultIter{q: q}
}

// pendingEntry is a file entry whose owning package record had not yet
// appeared in the block it was scanned in.
type pendingEntry struct {
	entry FileTreeEntry
}

// packageCacheEntry memoizes the most recently resolved package within the
// current block, per §4.5's find_package optimization.
type packageCacheEntry struct {
	pkg       StorePath
	endOffset int
	valid     bool
	noMore    bool // memoized "no further package line in this block"
}

// ResultIter is the pull-driven iterator returned by Query.Run. Call Next
// until it returns false, then check Err.
type ResultIter struct {
	q *Query

	block []byte
	pos   int // scan cursor within block

	found   []Result       // LIFO buffer of resolved results awaiting delivery
	pending []pendingEntry // entries awaiting their owning package (§4.5)

	cache packageCacheEntry

	cur  Result
	err  error
	done bool
}

// Err returns the first error encountered, if any. Once non-nil, Next
// always returns false.
func (it *ResultIter) Err() error { return it.err }

// Result returns the result produced by the most recent successful call to
// Next.
func (it *ResultIter) Result() Result { return it.cur }

// Next advances the iterator, refilling from the underlying blocks as
// needed. It returns false when the stream is exhausted or an error (now
// available via Err) terminated iteration.
func (it *ResultIter) Next() bool {
	if it.done || it.err != nil {
		return false
	}
	for len(it.found) == 0 {
		if !it.fillBuf() || it.err != nil {
			it.done = true
			return false
		}
	}
	it.cur = it.found[len(it.found)-1]
	it.found = it.found[:len(it.found)-1]
	return true
}

// fillBuf implements one iteration of the refill algorithm in §4.5. It
// returns false (with it.err set on failure, left nil on clean end of
// stream) when no more results can ever be produced.
func (it *ResultIter) fillBuf() bool {
	block, err := it.q.r.dec.Decode()
	if err != nil {
		it.err = wrapFrcodeErr(err)
		return false
	}
	if len(block) == 0 {
		if len(it.pending) > 0 {
			it.err = &MissingPackageEntryError{Pending: len(it.pending)}
		}
		return false
	}
	it.block = block
	it.pos = 0
	it.cache = packageCacheEntry{}

	// Drain deferred entries first: the package record they were waiting
	// on, if it exists, must be the very first package line of this block.
	if len(it.pending) > 0 {
		pkg, ok := it.findPackage(0)
		if ok {
			if it.q.shouldSearchPackage(pkg) {
				for _, p := range it.pending {
					it.found = append(it.found, Result{Package: pkg, Entry: p.entry})
				}
				// Leave it.pos at 0: the main scan below still needs to walk
				// this block's own file records, including any preceding the
				// package line we just resolved against.
			} else {
				it.pos = it.cache.endOffset
			}
			it.pending = it.pending[:0]
		}
		// If no package line exists at all in this (non-empty) block, the
		// deferred entries remain pending into the next block.
	}

	it.scanBlock()
	return true
}

// scanBlock implements the main-scan loop of §4.5 over the current block
// starting at it.pos.
func (it *ResultIter) scanBlock() {
	for {
		lineStart, lineEnd, ok := it.q.matcher.NextLine(it.block, it.pos)
		if !ok {
			return
		}
		line := it.block[lineStart:lineEnd]
		if pathregex.IsPackageLine(line) {
			// Package lines are never results themselves; the package cache
			// picks them up lazily via findPackage.
			it.pos = lineEnd
			continue
		}

		pkg, known := it.findPackage(lineEnd)
		if known && !it.q.shouldSearchPackage(pkg) {
			it.pos = it.cache.endOffset
			continue
		}

		entryBody := trimTrailingNewline(line)
		entry, err := DecodeFileTreeEntry(entryBody)
		if err != nil {
			it.err = err
			it.pos = lineEnd
			it.block = nil // stop further scanning; Next will surface err next
			return
		}
		if !it.q.matcher.Exact.Match(entry.Path) {
			it.pos = lineEnd
			continue
		}

		if known {
			it.found = append(it.found, Result{Package: pkg, Entry: entry})
		} else {
			it.pending = append(it.pending, pendingEntry{entry: entry})
		}
		it.pos = lineEnd
	}
}

// findPackage implements find_package(item_end) from §4.5: returns the
// package owning every record ending before some offset >= itemEnd within
// the current block, using and updating the per-block cache.
func (it *ResultIter) findPackage(itemEnd int) (StorePath, bool) {
	if it.cache.valid && itemEnd < it.cache.endOffset {
		return it.cache.pkg, true
	}
	if it.cache.noMore {
		return StorePath{}, false
	}

	pos := itemEnd
	if it.cache.valid && it.cache.endOffset > pos {
		pos = it.cache.endOffset
	}
	idx := indexPackageLine(it.block, pos)
	if idx < 0 {
		it.cache = packageCacheEntry{noMore: true}
		return StorePath{}, false
	}
	lineEnd := idx
	for lineEnd < len(it.block) && it.block[lineEnd] != '\n' {
		lineEnd++
	}
	if lineEnd < len(it.block) {
		lineEnd++ // include the newline
	}
	body := trimTrailingNewline(it.block[idx:lineEnd])
	sp, err := UnmarshalStorePath(body[2:]) // skip "p\0"
	if err != nil {
		it.cache = packageCacheEntry{noMore: true}
		return StorePath{}, false
	}
	it.cache = packageCacheEntry{pkg: sp, endOffset: lineEnd, valid: true}
	return sp, true
}

// indexPackageLine returns the offset of the next "p\0"-prefixed line start
// at or after pos, scanning line by line, or -1 if none remains.
func indexPackageLine(block []byte, pos int) int {
	for pos < len(block) {
		lineEnd := pos
		for lineEnd < len(block) && block[lineEnd] != '\n' {
			lineEnd++
		}
		end := lineEnd
		if end < len(block) {
			end++
		}
		if pathregex.IsPackageLine(block[pos:end]) {
			return pos
		}
		pos = end
	}
	return -1
}

func trimTrailingNewline(line []byte) []byte {
	if n := len(line); n > 0 && line[n-1] == '\n' {
		return line[:n-1]
	}
	return line
}

func wrapFrcodeErr(err error) error {
	var fe *frcode.Error
	if errors.As(err, &fe) {
		return &FrcodeError{Kind: fe.Kind, Err: fe.Unwrap()}
	}
	return err
}
