// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package marker

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"gitlab.com/tozd/go/errors"
)

// ErrBinaryContent is returned for content that cannot be treated as text
var ErrBinaryContent = errors.Base("binary content")

type state int

const (
	stateOutside state = iota
	stateInside
)

// 📏 Span is an inclusive, 1-based range of removed lines
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Lines returns how many lines the span covers, markers included
func (s Span) Lines() int {
	return s.End - s.Start + 1
}

// 📦 Result is the outcome of scanning one file
type Result struct {
	Spans   []Span // Removed spans, in file order
	Content []byte // Cleaned content, the input itself when nothing changed
	Changed bool   // At least one span was removed

	// Unterminated is the line of a START that never saw its END, 0 if none.
	// Everything from that line on is kept as is.
	Unterminated int
}

// 🔎 Scanner removes marker-delimited spans from text
type Scanner struct {
	pairs []Pair
}

// 🏭 NewScanner creates a scanner for the given pairs, DefaultPair when none are given
func NewScanner(pairs ...Pair) *Scanner {
	if len(pairs) == 0 {
		pairs = []Pair{DefaultPair}
	}
	return &Scanner{pairs: pairs}
}

// Scan runs the default scanner over content
func Scan(content []byte) (*Result, error) {
	return NewScanner().Scan(content)
}

// 🧹 Scan removes every complete span from content.
//
// Lines are split on "\n" only, so a "\r" stays attached to its line and the
// original terminators survive the rejoin. Marker lines are compared after
// trimming surrounding whitespace. Lines of a span are buffered and only
// dropped once the matching END is seen.
func (s *Scanner) Scan(content []byte) (*Result, error) {
	if bytes.IndexByte(content, 0) >= 0 || !utf8.Valid(content) {
		return nil, errors.Errorf("%w: content is not valid UTF-8 text", ErrBinaryContent)
	}

	result := &Result{Content: content}
	lines := strings.Split(string(content), "\n")
	kept := make([]string, 0, len(lines))

	var (
		current = stateOutside
		open    Pair
		start   int
		pending []string
	)

	for i, line := range lines {
		trimmed := strings.TrimSpace(line)

		switch current {
		case stateOutside:
			if p, ok := s.opening(trimmed); ok {
				current = stateInside
				open = p
				start = i + 1
				pending = append(pending[:0], line)
				continue
			}
			kept = append(kept, line)
		case stateInside:
			if trimmed == open.End {
				result.Spans = append(result.Spans, Span{Start: start, End: i + 1})
				current = stateOutside
				pending = pending[:0]
				continue
			}
			pending = append(pending, line)
		}
	}

	if current == stateInside {
		result.Unterminated = start
		kept = append(kept, pending...)
	}

	if len(result.Spans) == 0 {
		return result, nil
	}

	result.Changed = true
	result.Content = []byte(strings.Join(kept, "\n"))
	return result, nil
}

// RemovedLines returns the total number of lines dropped across all spans
func (r *Result) RemovedLines() int {
	n := 0
	for _, s := range r.Spans {
		n += s.Lines()
	}
	return n
}

func (s *Scanner) opening(line string) (Pair, bool) {
	for _, p := range s.pairs {
		if line == p.Start {
			return p, true
		}
	}
	return Pair{}, false
}
