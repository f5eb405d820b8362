// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
// Package diff compares prompt versions: content text and parameter sets.
//
// Text diffs are computed with diffmatchpatch in character mode. Span
// positions are rune offsets; EQUAL and DELETION spans index into the
// original text, ADDITION spans index into the modified text.
package diff

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Type is the kind of a text span.
type Type string

const (
	Equal    Type = "EQUAL"
	Addition Type = "ADDITION"
	Deletion Type = "DELETION"
)

// Span is one run of text of a single kind.
type Span struct {
	Type     Type   `json:"type" yaml:"type"`
	Text     string `json:"text" yaml:"text"`
	Position int    `json:"position" yaml:"position"`
}

// Text returns the edit sequence converting a into b.
func Text(a, b string) []Span {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(a, b, false)

	spans := make([]Span, 0, len(diffs))
	posA, posB := 0, 0
	for _, d := range diffs {
		n := len([]rune(d.Text))
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			spans = append(spans, Span{Type: Equal, Text: d.Text, Position: posA})
			posA += n
			posB += n
		case diffmatchpatch.DiffDelete:
			spans = append(spans, Span{Type: Deletion, Text: d.Text, Position: posA})
			posA += n
		case diffmatchpatch.DiffInsert:
			spans = append(spans, Span{Type: Addition, Text: d.Text, Position: posB})
			posB += n
		}
	}
	return spans
}

// Consolidate merges adjacent spans of the same type. A merged span keeps
// the position of its first span.
func Consolidate(spans []Span) []Span {
	out := make([]Span, 0, len(spans))
	for _, s := range spans {
		if last := len(out) - 1; last >= 0 && out[last].Type == s.Type {
			out[last].Text += s.Text
			continue
		}
		out = append(out, s)
	}
	return out
}

// Changed reports whether spans contain any addition or deletion.
func Changed(spans []Span) bool {
	for _, s := range spans {
		if s.Type != Equal {
			return true
		}
	}
	return false
}

// Similarity scores a and b between 0.0 and 1.0 by the share of text the
// diff leaves unchanged.
func Similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}

	common, total := 0, 0
	for _, s := range Text(a, b) {
		n := len(s.Text)
		if s.Type == Equal {
			common += n
		}
		total += n
	}
	if total == 0 {
		return 1.0
	}
	return float64(common) / float64(total)
}

// Unified renders spans for humans. Added text is prefixed with "+ ",
// removed text with "- " and long unchanged runs are elided.
func Unified(spans []Span, fromLabel, toLabel string) string {
	var result strings.Builder
	result.WriteString("--- " + fromLabel + "\n")
	result.WriteString("+++ " + toLabel + "\n")

	for _, s := range spans {
		switch s.Type {
		case Addition:
			result.WriteString("+ ")
			result.WriteString(strings.ReplaceAll(s.Text, "\n", "\n+ "))
			result.WriteString("\n")
		case Deletion:
			result.WriteString("- ")
			result.WriteString(strings.ReplaceAll(s.Text, "\n", "\n- "))
			result.WriteString("\n")
		case Equal:
			lines := strings.Split(s.Text, "\n")
			if len(lines) > 4 {
				result.WriteString("  " + lines[0] + "\n")
				result.WriteString("  ...\n")
				result.WriteString("  " + lines[len(lines)-1] + "\n")
			} else {
				for _, line := range lines {
					if line != "" {
						result.WriteString("  " + line + "\n")
					}
				}
			}
		}
	}

	return result.String()
}
