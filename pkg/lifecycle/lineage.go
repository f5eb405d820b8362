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
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/teradata-labs/promptver/pkg/observability"
	"github.com/teradata-labs/promptver/pkg/prompts"
)

// BranchRequest describes a branch. Nil Content and SystemPrompt and a nil
// Parameters slice inherit from the source version.
type BranchRequest struct {
	VersionNumber string
	Content       *string
	SystemPrompt  *string
	Parameters    []prompts.Parameter
}

// CreateBranch creates a DRAFT version whose parent is sourceID.
func (e *Engine) CreateBranch(ctx context.Context, sourceID string, req BranchRequest) (v *prompts.Version, err error) {
	ctx, span, done := e.instrument(ctx, "branch",
		observability.WithAttribute(observability.AttrVersionID, sourceID),
		observability.WithAttribute(observability.AttrVersionNumber, req.VersionNumber))
	defer func() { done(err) }()

	templateID, err := e.templateOf(ctx, sourceID)
	if err != nil {
		return nil, sourceNotFound(err, sourceID)
	}
	if err := validateBranch(req); err != nil {
		return nil, err
	}

	err = e.mutate(ctx, templateID, func(ctx context.Context, tx prompts.Tx, w *work) error {
		source, err := tx.Versions().Get(ctx, sourceID)
		if err != nil {
			return sourceNotFound(err, sourceID)
		}
		if err := requireUnusedNumber(ctx, tx, source.TemplateID, req.VersionNumber); err != nil {
			return err
		}

		v = e.derive(source, req.VersionNumber, w.actor)
		if req.Content != nil {
			v.Content = *req.Content
		}
		if req.SystemPrompt != nil {
			v.SystemPrompt = *req.SystemPrompt
		}
		if req.Parameters != nil {
			v.Parameters = prompts.CloneParameters(req.Parameters)
		}
		if err := saveVersion(ctx, tx, v); err != nil {
			return err
		}

		if err := e.appendAudit(ctx, tx, w, prompts.AuditEntry{
			VersionID:          v.ID,
			Action:             prompts.ActionBranched,
			Details:            "Created as branch from version " + source.Number,
			NewStatus:          prompts.StatusDraft,
			ReferenceVersionID: source.ID,
		}); err != nil {
			return fmt.Errorf("failed to write audit entry: %w", err)
		}

		w.touch(v.ID)
		return nil
	})
	if err != nil {
		return nil, err
	}

	span.SetAttribute(observability.AttrTemplateID, v.TemplateID)
	e.logger.Info("Created branch",
		zap.String("version_id", v.ID),
		zap.String("template_id", v.TemplateID),
		zap.String("parent_version_id", sourceID))
	return v.Clone(), nil
}

// derive returns a new DRAFT child of source carrying deep copies of its
// content and parameters.
func (e *Engine) derive(source *prompts.Version, number, actor string) *prompts.Version {
	now := e.now()
	return &prompts.Version{
		ID:           e.newID(),
		TemplateID:   source.TemplateID,
		Number:       number,
		Content:      source.Content,
		SystemPrompt: source.SystemPrompt,
		Status:       prompts.StatusDraft,
		CreatedBy:    actor,
		CreatedAt:    now,
		UpdatedAt:    now,
		ParentID:     source.ID,
		Parameters:   prompts.CloneParameters(source.Parameters),
	}
}

// Lineage returns the version with id followed by its ancestors, nearest
// first. The walk stops at a root, at a parent id that no longer
// resolves, at the first repeated id, or after the configured maximum
// depth.
func (e *Engine) Lineage(ctx context.Context, versionID string) (chain []*prompts.Version, err error) {
	ctx, span, done := e.instrument(ctx, "lineage",
		observability.WithAttribute(observability.AttrVersionID, versionID))
	defer func() { done(err) }()

	current, err := e.store.Versions().Get(ctx, versionID)
	if err != nil {
		return nil, err
	}

	visited := map[string]bool{current.ID: true}
	chain = []*prompts.Version{current}
	for len(chain) < e.maxLineageDepth && current.ParentID != "" {
		if visited[current.ParentID] {
			e.logger.Warn("Lineage cycle detected",
				zap.String("version_id", versionID),
				zap.String("repeated_id", current.ParentID))
			break
		}
		parent, err := e.store.Versions().Get(ctx, current.ParentID)
		if errors.Is(err, prompts.ErrNotFound) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load ancestor %s: %w", current.ParentID, err)
		}
		visited[parent.ID] = true
		chain = append(chain, parent)
		current = parent
	}

	span.SetAttribute(observability.AttrLineageDepth, len(chain))
	return chain, nil
}

func sourceNotFound(err error, id string) error {
	if errors.Is(err, prompts.ErrNotFound) {
		return prompts.NewNotFound("Source version", id)
	}
	return err
}
