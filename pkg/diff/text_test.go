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
package diff

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// apply rebuilds b from a and spans, checking positions along the way.
func apply(t *testing.T, a string, spans []Span) string {
	t.Helper()
	ra := []rune(a)
	var out []rune
	for _, s := range spans {
		text := []rune(s.Text)
		switch s.Type {
		case Equal:
			require.Equal(t, s.Text, string(ra[s.Position:s.Position+len(text)]))
			out = append(out, text...)
		case Deletion:
			require.Equal(t, s.Text, string(ra[s.Position:s.Position+len(text)]))
		case Addition:
			require.Equal(t, len(out), s.Position)
			out = append(out, text...)
		}
	}
	return string(out)
}

func TestText_Reconstructs(t *testing.T) {
	tests := []struct {
		name string
		a, b string
	}{
		{"identical", "Hello world", "Hello world"},
		{"append", "Hello", "Hello world"},
		{"prepend", "world", "Hello world"},
		{"replace word", "Summarize the text", "Translate the text"},
		{"empty original", "", "new content"},
		{"empty modified", "old content", ""},
		{"multibyte", "héllo wörld", "hello wörld!"},
		{"multiline", "line one\nline two\n", "line one\nline 2\nline three\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spans := Text(tt.a, tt.b)
			assert.Equal(t, tt.b, apply(t, tt.a, spans))

			var fromA strings.Builder
			for _, s := range spans {
				if s.Type != Addition {
					fromA.WriteString(s.Text)
				}
			}
			assert.Equal(t, tt.a, fromA.String())
		})
	}
}

func TestText_Identical(t *testing.T) {
	spans := Text("same", "same")
	require.Len(t, spans, 1)
	assert.Equal(t, Span{Type: Equal, Text: "same", Position: 0}, spans[0])
	assert.False(t, Changed(spans))
	assert.Empty(t, Text("", ""))
}

func TestConsolidate(t *testing.T) {
	in := []Span{
		{Type: Equal, Text: "a", Position: 0},
		{Type: Equal, Text: "b", Position: 1},
		{Type: Deletion, Text: "c", Position: 2},
		{Type: Deletion, Text: "d", Position: 3},
		{Type: Addition, Text: "x", Position: 2},
		{Type: Equal, Text: "e", Position: 4},
	}

	got := Consolidate(in)
	assert.Equal(t, []Span{
		{Type: Equal, Text: "ab", Position: 0},
		{Type: Deletion, Text: "cd", Position: 2},
		{Type: Addition, Text: "x", Position: 2},
		{Type: Equal, Text: "e", Position: 4},
	}, got)
	assert.Equal(t, "a", in[0].Text)
	assert.Empty(t, Consolidate(nil))
}

func TestSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, Similarity("abc", "abc"))
	assert.Equal(t, 1.0, Similarity("", ""))
	assert.Equal(t, 0.0, Similarity("abc", ""))

	s := Similarity("Summarize the text", "Summarize the document")
	assert.Greater(t, s, 0.0)
	assert.Less(t, s, 1.0)
}

func TestUnified(t *testing.T) {
	out := Unified(Text("Hello world", "Hello there"), "1.0.0", "1.1.0")
	assert.True(t, strings.HasPrefix(out, "--- 1.0.0\n+++ 1.1.0\n"))
	assert.Contains(t, out, "+ ")
	assert.Contains(t, out, "- ")
}
