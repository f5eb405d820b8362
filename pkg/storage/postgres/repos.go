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

package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"

	"github.com/teradata-labs/promptver/internal/pgxdriver"
	"github.com/teradata-labs/promptver/pkg/prompts"
)

const (
	versionColumns = `id, template_id, version_number, content, system_prompt, status,
	created_by, created_at, updated_at, parent_version_id`

	constraintVersionNumber = "prompt_versions_number_key"
	constraintParameterName = "prompt_parameters_name_key"
)

type versions struct{ v *view }

func (r versions) Get(ctx context.Context, id string) (*prompts.Version, error) {
	vs, err := r.query(ctx, `SELECT `+versionColumns+` FROM prompt_versions WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	if len(vs) == 0 {
		return nil, prompts.NewNotFound("Version", id)
	}
	return vs[0], nil
}

func (r versions) GetByTemplateAndNumber(ctx context.Context, templateID, number string) (*prompts.Version, error) {
	vs, err := r.query(ctx, `SELECT `+versionColumns+` FROM prompt_versions
		WHERE template_id = $1 AND version_number = $2`, templateID, number)
	if err != nil {
		return nil, err
	}
	if len(vs) == 0 {
		return nil, prompts.NewNotFound("Version", templateID+"/"+number)
	}
	return vs[0], nil
}

func (r versions) ListByTemplate(ctx context.Context, templateID string, page prompts.Page) ([]*prompts.Version, error) {
	query, args := paged(`SELECT `+versionColumns+` FROM prompt_versions WHERE template_id = $1`, page, templateID)
	return r.query(ctx, query, args...)
}

func (r versions) ListByTemplateAndStatus(ctx context.Context, templateID string, status prompts.Status, page prompts.Page) ([]*prompts.Version, error) {
	query, args := paged(`SELECT `+versionColumns+` FROM prompt_versions WHERE template_id = $1 AND status = $2`,
		page, templateID, string(status))
	return r.query(ctx, query, args...)
}

func (r versions) ExistsByID(ctx context.Context, id string) (bool, error) {
	var exists bool
	if err := r.v.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM prompt_versions WHERE id = $1)`, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check version: %w", err)
	}
	return exists, nil
}

// Save upserts v and replaces its parameter rows.
func (r versions) Save(ctx context.Context, v *prompts.Version) error {
	seen := make(map[string]bool, len(v.Parameters))
	for _, p := range v.Parameters {
		if seen[p.Name] {
			return prompts.NewValidation("Duplicate parameter name: %s", p.Name)
		}
		seen[p.Name] = true
	}

	return r.v.write(ctx, func(q querier) error {
		_, err := q.Exec(ctx, `
		INSERT INTO prompt_versions (`+versionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			template_id = EXCLUDED.template_id,
			version_number = EXCLUDED.version_number,
			content = EXCLUDED.content,
			system_prompt = EXCLUDED.system_prompt,
			status = EXCLUDED.status,
			created_by = EXCLUDED.created_by,
			created_at = EXCLUDED.created_at,
			updated_at = EXCLUDED.updated_at,
			parent_version_id = EXCLUDED.parent_version_id`,
			v.ID, v.TemplateID, v.Number, v.Content, v.SystemPrompt, string(v.Status),
			v.CreatedBy, v.CreatedAt, v.UpdatedAt, nullableString(v.ParentID),
		)
		if err != nil {
			return saveError(err, v)
		}

		if _, err := q.Exec(ctx, `DELETE FROM prompt_parameters WHERE version_id = $1`, v.ID); err != nil {
			return fmt.Errorf("failed to clear parameters: %w", err)
		}
		for i, p := range v.Parameters {
			if _, err := q.Exec(ctx, `
			INSERT INTO prompt_parameters (version_id, position, name, description, type, default_value, required, validation_pattern)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
				v.ID, i, p.Name, p.Description, string(p.Type), p.DefaultValue, p.Required, p.ValidationPattern,
			); err != nil {
				return saveError(err, v)
			}
		}
		return nil
	})
}

func (r versions) Delete(ctx context.Context, id string) error {
	// Parameters go with the version through ON DELETE CASCADE.
	if _, err := r.v.q.Exec(ctx, `DELETE FROM prompt_versions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete version: %w", err)
	}
	return nil
}

func (r versions) query(ctx context.Context, query string, args ...any) ([]*prompts.Version, error) {
	rows, err := r.v.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query versions: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*prompts.Version, error) {
		var (
			v        prompts.Version
			status   string
			parentID *string
		)
		if err := row.Scan(&v.ID, &v.TemplateID, &v.Number, &v.Content, &v.SystemPrompt, &status,
			&v.CreatedBy, &v.CreatedAt, &v.UpdatedAt, &parentID); err != nil {
			return nil, err
		}
		v.Status = prompts.Status(status)
		v.CreatedAt = v.CreatedAt.UTC()
		v.UpdatedAt = v.UpdatedAt.UTC()
		if parentID != nil {
			v.ParentID = *parentID
		}
		return &v, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan versions: %w", err)
	}
	if len(out) == 0 {
		return []*prompts.Version{}, nil
	}

	ids := make([]string, len(out))
	byID := make(map[string]*prompts.Version, len(out))
	for i, v := range out {
		ids[i] = v.ID
		byID[v.ID] = v
	}

	prows, err := r.v.q.Query(ctx, `
		SELECT version_id, name, description, type, default_value, required, validation_pattern
		FROM prompt_parameters WHERE version_id = ANY($1)
		ORDER BY version_id, position`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to query parameters: %w", err)
	}
	defer prows.Close()

	for prows.Next() {
		var (
			versionID string
			p         prompts.Parameter
			typ       string
		)
		if err := prows.Scan(&versionID, &p.Name, &p.Description, &typ, &p.DefaultValue, &p.Required, &p.ValidationPattern); err != nil {
			return nil, fmt.Errorf("failed to scan parameter: %w", err)
		}
		p.Type = prompts.ParameterType(typ)
		byID[versionID].Parameters = append(byID[versionID].Parameters, p)
	}
	if err := prows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate parameters: %w", err)
	}
	return out, nil
}

type templates struct{ v *view }

func (r templates) ExistsByID(ctx context.Context, id string) (bool, error) {
	var exists bool
	if err := r.v.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM prompt_templates WHERE id = $1)`, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check template: %w", err)
	}
	return exists, nil
}

func (r templates) Get(ctx context.Context, id string) (*prompts.Template, error) {
	var t prompts.Template
	err := r.v.q.QueryRow(ctx, `
		SELECT id, name, description, created_by, created_at FROM prompt_templates WHERE id = $1`, id,
	).Scan(&t.ID, &t.Name, &t.Description, &t.CreatedBy, &t.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, prompts.NewNotFound("Template", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load template: %w", err)
	}
	t.CreatedAt = t.CreatedAt.UTC()
	return &t, nil
}

func (r templates) Save(ctx context.Context, t *prompts.Template) error {
	_, err := r.v.q.Exec(ctx, `
		INSERT INTO prompt_templates (id, name, description, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			created_by = EXCLUDED.created_by,
			created_at = EXCLUDED.created_at`,
		t.ID, t.Name, t.Description, t.CreatedBy, t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save template: %w", err)
	}
	return nil
}

// Delete removes the template. Versions and parameters cascade; audit rows
// stay.
func (r templates) Delete(ctx context.Context, id string) error {
	if _, err := r.v.q.Exec(ctx, `DELETE FROM prompt_templates WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete template: %w", err)
	}
	return nil
}

func (r templates) List(ctx context.Context) ([]*prompts.Template, error) {
	rows, err := r.v.q.Query(ctx, `
		SELECT id, name, description, created_by, created_at FROM prompt_templates
		ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*prompts.Template, error) {
		var t prompts.Template
		if err := row.Scan(&t.ID, &t.Name, &t.Description, &t.CreatedBy, &t.CreatedAt); err != nil {
			return nil, err
		}
		t.CreatedAt = t.CreatedAt.UTC()
		return &t, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan templates: %w", err)
	}
	return out, nil
}

type audit struct{ v *view }

func (r audit) Append(ctx context.Context, e *prompts.AuditEntry) error {
	_, err := r.v.q.Exec(ctx, `
		INSERT INTO prompt_audit_log (id, version_id, action, performed_by, performed_at, details,
			previous_status, new_status, reference_version_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		e.ID, e.VersionID, string(e.Action), e.PerformedBy, e.PerformedAt, e.Details,
		string(e.PreviousStatus), string(e.NewStatus), e.ReferenceVersionID,
	)
	if err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}
	return nil
}

func (r audit) ListByVersionDesc(ctx context.Context, versionID string) ([]*prompts.AuditEntry, error) {
	rows, err := r.v.q.Query(ctx, `
		SELECT id, version_id, action, performed_by, performed_at, details,
			previous_status, new_status, reference_version_id
		FROM prompt_audit_log WHERE version_id = $1
		ORDER BY performed_at DESC, seq DESC`, versionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*prompts.AuditEntry, error) {
		var (
			e                  prompts.AuditEntry
			action, prev, next string
		)
		if err := row.Scan(&e.ID, &e.VersionID, &action, &e.PerformedBy, &e.PerformedAt, &e.Details,
			&prev, &next, &e.ReferenceVersionID); err != nil {
			return nil, err
		}
		e.Action = prompts.AuditAction(action)
		e.PerformedAt = e.PerformedAt.UTC()
		e.PreviousStatus = prompts.Status(prev)
		e.NewStatus = prompts.Status(next)
		return &e, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan audit entries: %w", err)
	}
	return out, nil
}

// paged appends ordering and the window for page. Rows tied on created_at
// keep insertion order.
func paged(query string, page prompts.Page, args ...any) (string, []any) {
	if page.Descending {
		query += ` ORDER BY created_at DESC, seq DESC`
	} else {
		query += ` ORDER BY created_at ASC, seq ASC`
	}
	if page.Limit > 0 {
		args = append(args, page.Limit)
		query += ` LIMIT $` + strconv.Itoa(len(args))
	}
	if page.Offset > 0 {
		args = append(args, page.Offset)
		query += ` OFFSET $` + strconv.Itoa(len(args))
	}
	return query, args
}

func saveError(err error, v *prompts.Version) error {
	if constraint, ok := pgxdriver.UniqueViolation(err); ok {
		switch constraint {
		case constraintVersionNumber:
			return &prompts.AlreadyExistsError{TemplateID: v.TemplateID, VersionNumber: v.Number}
		case constraintParameterName:
			return prompts.NewValidation("Duplicate parameter name")
		}
	}
	return fmt.Errorf("failed to save version: %w", err)
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
