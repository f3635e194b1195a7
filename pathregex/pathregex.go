// Copyright 2026 The nixdex Authors. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package pathregex turns a user-supplied path regex into a matcher that
// can be run directly against the concatenated METADATA\0PATH\n record
// stream, and implements the candidate/confirmed two-stage matching the
// query engine relies on to stay cheap on the common (non-matching) case.
package pathregex

import (
	"bytes"
	"fmt"
	"regexp"
	"regexp/syntax"
)

// PackageLinePattern matches the fixed "p\0" prefix that identifies a
// package record once a line has been isolated from the record stream.
var PackageLinePattern = regexp.MustCompile(`^p\x00`)

// Matcher runs a user's path regex against the raw, multi-record byte
// buffers produced by the frcode decoder.
type Matcher struct {
	// Exact is the user's original, unmodified regex; it is re-applied to
	// an extracted path to reject candidate-line false positives.
	Exact *regexp.Regexp

	rewritten *regexp.Regexp
	literal   []byte // required literal substring, or nil if none could be derived
}

// Compile rewrites pattern's start-of-line assertions into literal NUL
// bytes (so that `^` means "start of the path field within a record", per
// the METADATA\0PATH layout) and builds a Matcher that can scan a
// multi-record buffer for candidate lines.
func Compile(pattern string) (*Matcher, error) {
	exact, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("pathregex: compiling exact pattern: %w", err)
	}

	ast, err := syntax.Parse(pattern, syntax.Perl)
	if err != nil {
		return nil, fmt.Errorf("pathregex: parsing pattern: %w", err)
	}
	rewriteAnchors(ast)

	// (?m) makes ^ / $ operate per-line against the buffer, matching the
	// line_terminator('\n')+multi_line(true) configuration used by the
	// reference line-oriented matcher.
	rewrittenSrc := "(?m)" + ast.String()
	rewritten, err := regexp.Compile(rewrittenSrc)
	if err != nil {
		return nil, fmt.Errorf("pathregex: compiling rewritten pattern %q: %w", rewrittenSrc, err)
	}

	return &Matcher{
		Exact:     exact,
		rewritten: rewritten,
		literal:   requiredLiteral(ast),
	}, nil
}

// rewriteAnchors replaces every start-of-line/start-of-text assertion
// reachable through a sub-AST (groups, repetitions, concatenations,
// alternations) with a literal NUL-byte node, and rebinds `$` to the
// per-line end-of-line assertion rather than the absolute end-of-text one
// syntax.Parse gives it under syntax.Perl. Other node kinds, including leaf
// literals, character classes, and a bare `\z`, are left untouched.
func rewriteAnchors(re *syntax.Regexp) {
	switch {
	case re.Op == syntax.OpBeginLine || re.Op == syntax.OpBeginText:
		re.Op = syntax.OpLiteral
		re.Rune = []rune{0}
		return
	case re.Op == syntax.OpEndText && re.Flags&syntax.WasDollar != 0:
		// syntax.Parse, given syntax.Perl, parses a user's `$` as OpEndText
		// with WasDollar set (true end-of-text, "like \z"), and writeRegexp
		// re-stringifies that exact node as "(?-m:$)", which explicitly
		// disables the (?m) prepended below. Rebind it to OpEndLine so it
		// matches before the record's trailing newline instead of only at
		// the very end of the buffer.
		re.Op = syntax.OpEndLine
	}
	for _, sub := range re.Sub {
		rewriteAnchors(sub)
	}
}

// requiredLiteral extracts a literal byte run that must appear verbatim in
// any string the regex matches, for use as a cheap bytes.Index pre-filter.
// It only looks at a top-level literal or the direct (unconditional)
// children of a top-level concatenation, so it never reports a literal
// that a match could avoid by taking another branch of an alternation or
// by a repetition matching zero times; when no such literal can be proven,
// it returns nil and the matcher falls back to scanning with the compiled
// regex itself.
func requiredLiteral(re *syntax.Regexp) []byte {
	candidates := [][]rune{}
	switch re.Op {
	case syntax.OpLiteral:
		if re.Flags&syntax.FoldCase == 0 {
			candidates = append(candidates, re.Rune)
		}
	case syntax.OpConcat:
		for _, sub := range re.Sub {
			if sub.Op == syntax.OpLiteral && sub.Flags&syntax.FoldCase == 0 {
				candidates = append(candidates, sub.Rune)
			}
		}
	}
	best := []rune{}
	for _, c := range candidates {
		if len(c) > len(best) {
			best = c
		}
	}
	if len(best) < 2 {
		return nil
	}
	return []byte(string(best))
}

// NextLine scans buf starting at pos for the next line containing a match,
// returning the byte offsets of the start and end (inclusive of the
// trailing newline, or end-of-buffer for the last line) of that line. It
// implements the candidate-then-confirm two-stage match described by the
// database format: a fast literal pre-filter (or, when none is available,
// the compiled regex itself) proposes positions, and any position reached
// via the literal pre-filter is re-checked against the full rewritten
// pattern restricted to the isolated line before being accepted.
func (m *Matcher) NextLine(buf []byte, pos int) (lineStart, lineEnd int, ok bool) {
	for pos < len(buf) {
		candPos, confirmed, found := m.nextCandidate(buf, pos)
		if !found {
			return 0, 0, false
		}
		lineStart = 0
		if idx := bytes.LastIndexByte(buf[:candPos], '\n'); idx >= 0 {
			lineStart = idx + 1
		}
		lineEnd = len(buf)
		if idx := bytes.IndexByte(buf[candPos:], '\n'); idx >= 0 {
			lineEnd = candPos + idx + 1
		}
		if !confirmed && !m.rewritten.Match(buf[lineStart:lineEnd]) {
			pos = lineEnd
			continue
		}
		return lineStart, lineEnd, true
	}
	return 0, 0, false
}

// nextCandidate returns the next position at or after pos that might start
// a match, and whether that position is already a confirmed (exact) match
// or merely a candidate requiring the isolated-line recheck in NextLine.
func (m *Matcher) nextCandidate(buf []byte, pos int) (at int, confirmed, found bool) {
	if m.literal != nil {
		idx := bytes.Index(buf[pos:], m.literal)
		if idx < 0 {
			return 0, false, false
		}
		return pos + idx, false, true
	}
	loc := m.rewritten.FindIndex(buf[pos:])
	if loc == nil {
		return 0, false, false
	}
	return pos + loc[0], true, true
}

// IsPackageLine reports whether line (with or without its trailing
// newline) is a package record, i.e. begins with the literal bytes "p\0".
func IsPackageLine(line []byte) bool {
	return PackageLinePattern.Match(line)
}
