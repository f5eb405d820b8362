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
package lifecycle

import (
	"context"

	"github.com/teradata-labs/promptver/pkg/diff"
	"github.com/teradata-labs/promptver/pkg/observability"
	"github.com/teradata-labs/promptver/pkg/prompts"
)

// ComparisonResult is the difference between two versions of a template.
type ComparisonResult struct {
	VersionID1      string             `json:"version_id_1" yaml:"version_id_1"`
	VersionNumber1  string             `json:"version_number_1" yaml:"version_number_1"`
	VersionID2      string             `json:"version_id_2" yaml:"version_id_2"`
	VersionNumber2  string             `json:"version_number_2" yaml:"version_number_2"`
	OriginalContent string             `json:"original_content" yaml:"original_content"`
	ModifiedContent string             `json:"modified_content" yaml:"modified_content"`
	ContentDiffs    []diff.Span        `json:"content_diffs" yaml:"content_diffs"`
	Similarity      float64            `json:"similarity" yaml:"similarity"`
	Parameters      diff.ParameterDiff `json:"parameters" yaml:"parameters"`
}

// Identical reports whether neither content nor parameters differ.
func (r *ComparisonResult) Identical() bool {
	return !diff.Changed(r.ContentDiffs) && r.Parameters.Empty()
}

// Compare diffs version id2 against version id1. Versions of different
// templates cannot be compared. Equal contents yield no content spans.
func (e *Engine) Compare(ctx context.Context, id1, id2 string) (res *ComparisonResult, err error) {
	ctx, _, done := e.instrument(ctx, "compare",
		observability.WithAttribute(observability.AttrVersionID, id1))
	defer func() { done(err) }()

	a, err := e.Get(ctx, id1)
	if err != nil {
		return nil, err
	}
	b, err := e.Get(ctx, id2)
	if err != nil {
		return nil, err
	}
	if a.TemplateID != b.TemplateID {
		return nil, prompts.NewValidation("Cannot compare versions from different templates")
	}

	spans := []diff.Span{}
	if a.Content != b.Content {
		spans = diff.Consolidate(diff.Text(a.Content, b.Content))
	}

	return &ComparisonResult{
		VersionID1:      a.ID,
		VersionNumber1:  a.Number,
		VersionID2:      b.ID,
		VersionNumber2:  b.Number,
		OriginalContent: a.Content,
		ModifiedContent: b.Content,
		ContentDiffs:    spans,
		Similarity:      diff.Similarity(a.Content, b.Content),
		Parameters:      diff.Parameters(a.Parameters, b.Parameters),
	}, nil
}
