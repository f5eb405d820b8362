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
	"github.com/teradata-labs/promptver/pkg/semver"
)

// CreateRequest describes a new version.
type CreateRequest struct {
	TemplateID      string
	VersionNumber   string
	Content         string
	SystemPrompt    string
	Parameters      []prompts.Parameter
	ParentVersionID string
}

// Create validates req and stores a new DRAFT version with one CREATED
// audit entry.
func (e *Engine) Create(ctx context.Context, req CreateRequest) (v *prompts.Version, err error) {
	ctx, span, done := e.instrument(ctx, "create",
		observability.WithAttribute(observability.AttrTemplateID, req.TemplateID),
		observability.WithAttribute(observability.AttrVersionNumber, req.VersionNumber))
	defer func() { done(err) }()

	if err := validateCreate(req); err != nil {
		return nil, err
	}

	err = e.mutate(ctx, req.TemplateID, func(ctx context.Context, tx prompts.Tx, w *work) error {
		if err := requireTemplate(ctx, tx, req.TemplateID); err != nil {
			return err
		}

		var parent *prompts.Version
		if req.ParentVersionID != "" {
			p, err := tx.Versions().Get(ctx, req.ParentVersionID)
			if err != nil {
				if errors.Is(err, prompts.ErrNotFound) {
					return prompts.NewNotFound("Parent version", req.ParentVersionID)
				}
				return err
			}
			if p.TemplateID != req.TemplateID {
				return prompts.NewValidation("Parent version must belong to the same template")
			}
			parent = p
		}

		if err := requireUnusedNumber(ctx, tx, req.TemplateID, req.VersionNumber); err != nil {
			return err
		}

		now := e.now()
		v = &prompts.Version{
			ID:           e.newID(),
			TemplateID:   req.TemplateID,
			Number:       req.VersionNumber,
			Content:      req.Content,
			SystemPrompt: req.SystemPrompt,
			Status:       prompts.StatusDraft,
			CreatedBy:    w.actor,
			CreatedAt:    now,
			UpdatedAt:    now,
			ParentID:     req.ParentVersionID,
			Parameters:   prompts.CloneParameters(req.Parameters),
		}
		if err := saveVersion(ctx, tx, v); err != nil {
			return err
		}

		details := "Version created"
		if parent != nil {
			details += " from parent " + parent.Number
		}
		if err := e.appendAudit(ctx, tx, w, prompts.AuditEntry{
			VersionID:          v.ID,
			Action:             prompts.ActionCreated,
			Details:            details,
			NewStatus:          prompts.StatusDraft,
			ReferenceVersionID: req.ParentVersionID,
		}); err != nil {
			return fmt.Errorf("failed to write audit entry: %w", err)
		}

		w.touch(v.ID)
		return nil
	})
	if err != nil {
		return nil, err
	}

	span.SetAttribute(observability.AttrVersionID, v.ID)
	e.logger.Info("Created version",
		zap.String("version_id", v.ID),
		zap.String("template_id", v.TemplateID),
		zap.String("version_number", v.Number))
	return v.Clone(), nil
}

// Get returns the version with id through the cache.
func (e *Engine) Get(ctx context.Context, id string) (v *prompts.Version, err error) {
	ctx, _, done := e.instrument(ctx, "get",
		observability.WithAttribute(observability.AttrVersionID, id))
	defer func() { done(err) }()

	return e.cache.Get(ctx, id, func(ctx context.Context) (*prompts.Version, error) {
		return e.store.Versions().Get(ctx, id)
	})
}

// Versions lists the versions of templateID in creation order.
func (e *Engine) Versions(ctx context.Context, templateID string, page prompts.Page) (vs []*prompts.Version, err error) {
	ctx, _, done := e.instrument(ctx, "versions",
		observability.WithAttribute(observability.AttrTemplateID, templateID))
	defer func() { done(err) }()

	if err := requireTemplate(ctx, e.store, templateID); err != nil {
		return nil, err
	}
	return e.store.Versions().ListByTemplate(ctx, templateID, page)
}

// History returns every version of templateID, oldest first.
func (e *Engine) History(ctx context.Context, templateID string) (vs []*prompts.Version, err error) {
	ctx, _, done := e.instrument(ctx, "history",
		observability.WithAttribute(observability.AttrTemplateID, templateID))
	defer func() { done(err) }()

	if err := requireTemplate(ctx, e.store, templateID); err != nil {
		return nil, err
	}
	return e.store.Versions().ListByTemplate(ctx, templateID, prompts.All)
}

// PublishedVersion returns the PUBLISHED version of templateID.
func (e *Engine) PublishedVersion(ctx context.Context, templateID string) (v *prompts.Version, err error) {
	ctx, _, done := e.instrument(ctx, "published",
		observability.WithAttribute(observability.AttrTemplateID, templateID))
	defer func() { done(err) }()

	if err := requireTemplate(ctx, e.store, templateID); err != nil {
		return nil, err
	}
	vs, err := e.store.Versions().ListByTemplateAndStatus(ctx, templateID, prompts.StatusPublished,
		prompts.Page{Limit: 1, Descending: true})
	if err != nil {
		return nil, err
	}
	if len(vs) == 0 {
		return nil, prompts.NewNotFound("Published version for template", templateID)
	}
	return vs[0], nil
}

// AuditTrail returns the audit entries of versionID, newest first.
func (e *Engine) AuditTrail(ctx context.Context, versionID string) (entries []*prompts.AuditEntry, err error) {
	ctx, _, done := e.instrument(ctx, "audit_trail",
		observability.WithAttribute(observability.AttrVersionID, versionID))
	defer func() { done(err) }()

	ok, err := e.store.Versions().ExistsByID(ctx, versionID)
	if err != nil {
		return nil, fmt.Errorf("failed to check version: %w", err)
	}
	if !ok {
		return nil, prompts.NewNotFound("Version", versionID)
	}
	return e.store.Audit().ListByVersionDesc(ctx, versionID)
}

// NextVersionNumber derives the number the next version of templateID
// should carry.
func (e *Engine) NextVersionNumber(ctx context.Context, templateID string) (next string, err error) {
	ctx, _, done := e.instrument(ctx, "next_version_number",
		observability.WithAttribute(observability.AttrTemplateID, templateID))
	defer func() { done(err) }()

	if err := requireTemplate(ctx, e.store, templateID); err != nil {
		return "", err
	}
	return nextNumber(ctx, e.store, templateID)
}

func nextNumber(ctx context.Context, tx prompts.Tx, templateID string) (string, error) {
	vs, err := tx.Versions().ListByTemplate(ctx, templateID, prompts.All)
	if err != nil {
		return "", fmt.Errorf("failed to list versions: %w", err)
	}
	numbers := make([]string, len(vs))
	for i, v := range vs {
		numbers[i] = v.Number
	}
	next, err := semver.Next(numbers)
	if err != nil {
		return "", &prompts.ValidationError{
			Message: "Cannot derive next version number",
			Fields:  map[string]string{FieldVersionNumber: err.Error()},
		}
	}
	return next, nil
}

func requireTemplate(ctx context.Context, tx prompts.Tx, templateID string) error {
	ok, err := tx.Templates().ExistsByID(ctx, templateID)
	if err != nil {
		return fmt.Errorf("failed to check template: %w", err)
	}
	if !ok {
		return prompts.NewNotFound("Template", templateID)
	}
	return nil
}

func requireUnusedNumber(ctx context.Context, tx prompts.Tx, templateID, number string) error {
	_, err := tx.Versions().GetByTemplateAndNumber(ctx, templateID, number)
	switch {
	case err == nil:
		return &prompts.AlreadyExistsError{TemplateID: templateID, VersionNumber: number}
	case errors.Is(err, prompts.ErrNotFound):
		return nil
	default:
		return fmt.Errorf("failed to check version number: %w", err)
	}
}

// saveVersion writes v. Uniqueness violations surface unwrapped so callers
// see the same error as the pre-check.
func saveVersion(ctx context.Context, tx prompts.Tx, v *prompts.Version) error {
	if err := tx.Versions().Save(ctx, v); err != nil {
		var exists *prompts.AlreadyExistsError
		if errors.As(err, &exists) {
			return exists
		}
		return fmt.Errorf("failed to save version %s: %w", v.ID, err)
	}
	return nil
}

// Render fills the content of version id with vars. See prompts.Render.
func (e *Engine) Render(ctx context.Context, id string, vars map[string]string) (out string, err error) {
	ctx, _, done := e.instrument(ctx, "render",
		observability.WithAttribute(observability.AttrVersionID, id))
	defer func() { done(err) }()

	v, err := e.cache.Get(ctx, id, func(ctx context.Context) (*prompts.Version, error) {
		return e.store.Versions().Get(ctx, id)
	})
	if err != nil {
		return "", err
	}
	return prompts.Render(v, vars)
}
