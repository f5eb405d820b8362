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
	"fmt"

	"go.uber.org/zap"

	"github.com/teradata-labs/promptver/pkg/observability"
	"github.com/teradata-labs/promptver/pkg/prompts"
	"github.com/teradata-labs/promptver/pkg/semver"
)

// Rollback restores the content and parameters of sourceID.
//
// With preserveHistory the source is copied into a new DRAFT child carrying
// the template's next version number. Without it the template's most
// recently created version is overwritten in place: it takes the source's
// content and parameters and becomes PUBLISHED when the source is
// PUBLISHED, DRAFT otherwise. Rolling back onto the current version itself
// changes nothing.
func (e *Engine) Rollback(ctx context.Context, sourceID string, preserveHistory bool) (v *prompts.Version, err error) {
	ctx, span, done := e.instrument(ctx, "rollback",
		observability.WithAttribute(observability.AttrVersionID, sourceID),
		observability.WithAttribute(observability.AttrPreserveHistory, preserveHistory))
	defer func() { done(err) }()

	templateID, err := e.templateOf(ctx, sourceID)
	if err != nil {
		return nil, err
	}

	err = e.mutate(ctx, templateID, func(ctx context.Context, tx prompts.Tx, w *work) error {
		source, err := tx.Versions().Get(ctx, sourceID)
		if err != nil {
			return err
		}
		if source.Status == prompts.StatusArchived {
			return prompts.NewValidation("Cannot rollback to an archived version")
		}

		if preserveHistory {
			v, err = e.rollbackAsNewVersion(ctx, tx, w, source)
		} else {
			v, err = e.rollbackInPlace(ctx, tx, w, source)
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	span.SetAttribute(observability.AttrTemplateID, v.TemplateID)
	e.logger.Info("Rolled back version",
		zap.String("version_id", v.ID),
		zap.String("source_version_id", sourceID),
		zap.String("template_id", v.TemplateID),
		zap.Bool("preserve_history", preserveHistory))
	return v.Clone(), nil
}

func (e *Engine) rollbackAsNewVersion(ctx context.Context, tx prompts.Tx, w *work, source *prompts.Version) (*prompts.Version, error) {
	number, err := nextNumber(ctx, tx, source.TemplateID)
	if err != nil {
		return nil, err
	}
	if !semver.IsValid(number) {
		return nil, &prompts.ValidationError{
			Message: "Cannot derive next version number",
			Fields:  map[string]string{FieldVersionNumber: versionNumberFormat},
		}
	}

	v := e.derive(source, number, w.actor)
	if err := saveVersion(ctx, tx, v); err != nil {
		return nil, err
	}

	if err := e.appendAudit(ctx, tx, w, prompts.AuditEntry{
		VersionID:          v.ID,
		Action:             prompts.ActionRollback,
		Details:            "Rollback to version " + source.Number + " with history preservation",
		NewStatus:          prompts.StatusDraft,
		ReferenceVersionID: source.ID,
	}); err != nil {
		return nil, fmt.Errorf("failed to write audit entry: %w", err)
	}

	w.touch(v.ID)
	return v, nil
}

func (e *Engine) rollbackInPlace(ctx context.Context, tx prompts.Tx, w *work, source *prompts.Version) (*prompts.Version, error) {
	latest, err := tx.Versions().ListByTemplate(ctx, source.TemplateID, prompts.Page{Limit: 1, Descending: true})
	if err != nil {
		return nil, fmt.Errorf("failed to find current version: %w", err)
	}
	if len(latest) == 0 {
		return nil, prompts.NewValidation("No active version found to rollback")
	}

	current := latest[0]
	if current.ID == source.ID {
		e.logger.Debug("Rollback target is the current version",
			zap.String("version_id", current.ID))
		return current, nil
	}

	// Other PUBLISHED versions, the source among them, give way before
	// the current version is republished.
	newStatus := prompts.StatusDraft
	if source.Status == prompts.StatusPublished {
		newStatus = prompts.StatusPublished
		if _, err := e.demotePublished(ctx, tx, w, current); err != nil {
			return nil, err
		}
	}

	previous := current.Status
	current.Content = source.Content
	current.Parameters = prompts.CloneParameters(source.Parameters)
	current.Status = newStatus
	current.UpdatedAt = e.now()
	if err := saveVersion(ctx, tx, current); err != nil {
		return nil, err
	}

	if err := e.appendAudit(ctx, tx, w, prompts.AuditEntry{
		VersionID:          current.ID,
		Action:             prompts.ActionRollback,
		Details:            "Direct rollback to version " + source.Number,
		PreviousStatus:     previous,
		NewStatus:          newStatus,
		ReferenceVersionID: source.ID,
	}); err != nil {
		return nil, fmt.Errorf("failed to write audit entry: %w", err)
	}

	if previous != newStatus {
		e.queueEvent(w, current, previous)
	}
	w.touch(current.ID)
	return current, nil
}
