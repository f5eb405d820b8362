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
)

// transitions is the complete set of allowed status changes. ARCHIVED is
// terminal and no status may move to itself.
var transitions = map[prompts.Status][]prompts.Status{
	prompts.StatusDraft:      {prompts.StatusReview},
	prompts.StatusReview:     {prompts.StatusApproved, prompts.StatusPublished},
	prompts.StatusApproved:   {prompts.StatusPublished},
	prompts.StatusPublished:  {prompts.StatusDeprecated},
	prompts.StatusDeprecated: {prompts.StatusArchived},
	prompts.StatusArchived:   {},
}

// CanTransition reports whether a version in status from may move to to.
func CanTransition(from, to prompts.Status) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// AllowedTransitions returns the statuses reachable from status in one step.
func AllowedTransitions(from prompts.Status) []prompts.Status {
	out := make([]prompts.Status, len(transitions[from]))
	copy(out, transitions[from])
	return out
}

// CanTransitionTo reports whether the version with id may move to target.
func (e *Engine) CanTransitionTo(ctx context.Context, versionID string, target prompts.Status) (bool, error) {
	v, err := e.Get(ctx, versionID)
	if err != nil {
		return false, err
	}
	return CanTransition(v.Status, target), nil
}

// Transition moves a version to newStatus. Publishing a version demotes
// every other PUBLISHED version of its template to DEPRECATED in the same
// unit of work; each changed version gets one STATUS_CHANGED audit entry
// and one notification.
func (e *Engine) Transition(ctx context.Context, versionID string, newStatus prompts.Status) (v *prompts.Version, err error) {
	ctx, span, done := e.instrument(ctx, "transition",
		observability.WithAttribute(observability.AttrVersionID, versionID),
		observability.WithAttribute(observability.AttrStatusTo, string(newStatus)))
	defer func() { done(err) }()

	templateID, err := e.templateOf(ctx, versionID)
	if err != nil {
		return nil, err
	}

	var from prompts.Status
	var demoted int
	err = e.mutate(ctx, templateID, func(ctx context.Context, tx prompts.Tx, w *work) error {
		current, err := tx.Versions().Get(ctx, versionID)
		if err != nil {
			return err
		}
		from = current.Status
		if !CanTransition(current.Status, newStatus) {
			return prompts.NewValidation("Cannot transition from %s to %s", current.Status, newStatus)
		}

		if newStatus == prompts.StatusPublished {
			demoted, err = e.demotePublished(ctx, tx, w, current)
			if err != nil {
				return err
			}
		}

		if err := e.changeStatus(ctx, tx, w, current, newStatus, "Status changed"); err != nil {
			return err
		}
		v = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	span.SetAttribute(observability.AttrStatusFrom, string(from))
	span.SetAttribute(observability.AttrDemotedCount, demoted)
	e.logger.Info("Changed version status",
		zap.String("version_id", v.ID),
		zap.String("template_id", v.TemplateID),
		zap.String("status_from", string(from)),
		zap.String("status_to", string(newStatus)),
		zap.Int("demoted", demoted))
	return v.Clone(), nil
}

// demotePublished moves every PUBLISHED version of target's template other
// than target to DEPRECATED.
func (e *Engine) demotePublished(ctx context.Context, tx prompts.Tx, w *work, target *prompts.Version) (int, error) {
	published, err := tx.Versions().ListByTemplateAndStatus(ctx, target.TemplateID, prompts.StatusPublished, prompts.All)
	if err != nil {
		return 0, fmt.Errorf("failed to list published versions: %w", err)
	}

	demoted := 0
	for _, p := range published {
		if p.ID == target.ID {
			continue
		}
		if err := e.changeStatus(ctx, tx, w, p, prompts.StatusDeprecated,
			"Status changed due to new published version"); err != nil {
			return demoted, err
		}
		demoted++
	}
	return demoted, nil
}

// changeStatus saves v with status to, audits the change and queues its
// notification.
func (e *Engine) changeStatus(ctx context.Context, tx prompts.Tx, w *work, v *prompts.Version, to prompts.Status, details string) error {
	from := v.Status
	v.Status = to
	v.UpdatedAt = e.now()
	if err := saveVersion(ctx, tx, v); err != nil {
		return err
	}

	if err := e.appendAudit(ctx, tx, w, prompts.AuditEntry{
		VersionID:      v.ID,
		Action:         prompts.ActionStatusChanged,
		Details:        details,
		PreviousStatus: from,
		NewStatus:      to,
	}); err != nil {
		return fmt.Errorf("failed to write audit entry: %w", err)
	}

	e.queueEvent(w, v, from)
	w.touch(v.ID)
	return nil
}
