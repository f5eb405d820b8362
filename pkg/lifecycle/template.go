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
	"strings"

	"go.uber.org/zap"

	"github.com/teradata-labs/promptver/pkg/observability"
	"github.com/teradata-labs/promptver/pkg/prompts"
)

// TemplateRequest describes a new template.
type TemplateRequest struct {
	Name        string
	Description string
}

// CreateTemplate stores a new template owned by the actor on ctx.
func (e *Engine) CreateTemplate(ctx context.Context, req TemplateRequest) (t *prompts.Template, err error) {
	ctx, span, done := e.instrument(ctx, "create_template")
	defer func() { done(err) }()

	if strings.TrimSpace(req.Name) == "" {
		return nil, prompts.NewValidation("Template name is required")
	}

	t = &prompts.Template{
		ID:          e.newID(),
		Name:        req.Name,
		Description: req.Description,
		CreatedBy:   ActorFrom(ctx),
		CreatedAt:   e.now(),
	}
	err = e.mutate(ctx, t.ID, func(ctx context.Context, tx prompts.Tx, _ *work) error {
		return tx.Templates().Save(ctx, t)
	})
	if err != nil {
		return nil, err
	}

	span.SetAttribute(observability.AttrTemplateID, t.ID)
	e.logger.Info("Created template", zap.String("template_id", t.ID), zap.String("name", t.Name))
	return t, nil
}

// Template returns the template with id.
func (e *Engine) Template(ctx context.Context, id string) (t *prompts.Template, err error) {
	ctx, _, done := e.instrument(ctx, "get_template",
		observability.WithAttribute(observability.AttrTemplateID, id))
	defer func() { done(err) }()

	return e.store.Templates().Get(ctx, id)
}

// Templates lists every template in creation order.
func (e *Engine) Templates(ctx context.Context) (ts []*prompts.Template, err error) {
	ctx, _, done := e.instrument(ctx, "list_templates")
	defer func() { done(err) }()

	return e.store.Templates().List(ctx)
}

// DeleteTemplate removes a template and all of its versions. Audit entries
// of the removed versions are kept. It returns the number of versions
// removed.
func (e *Engine) DeleteTemplate(ctx context.Context, id string) (removed int, err error) {
	ctx, _, done := e.instrument(ctx, "delete_template",
		observability.WithAttribute(observability.AttrTemplateID, id))
	defer func() { done(err) }()

	err = e.mutate(ctx, id, func(ctx context.Context, tx prompts.Tx, w *work) error {
		if err := requireTemplate(ctx, tx, id); err != nil {
			return err
		}
		vs, err := tx.Versions().ListByTemplate(ctx, id, prompts.All)
		if err != nil {
			return err
		}
		if err := tx.Templates().Delete(ctx, id); err != nil {
			return fmt.Errorf("failed to delete template: %w", err)
		}
		for _, v := range vs {
			w.touch(v.ID)
		}
		removed = len(vs)
		return nil
	})
	if err != nil {
		return 0, err
	}

	e.logger.Info("Deleted template", zap.String("template_id", id), zap.Int("versions", removed))
	return removed, nil
}
