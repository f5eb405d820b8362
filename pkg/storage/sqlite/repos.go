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

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/teradata-labs/promptver/internal/sqlitedriver"
	"github.com/teradata-labs/promptver/pkg/prompts"
)

const versionColumns = `id, template_id, version_number, content, system_prompt, status,
	created_by, created_at, updated_at, parent_version_id`

// Rows tie on created_at are ordered by insertion (rowid).
const orderAsc = ` ORDER BY created_at ASC, rowid ASC`
const orderDesc = ` ORDER BY created_at DESC, rowid DESC`

type versions struct{ v *view }

func (r versions) Get(ctx context.Context, id string) (*prompts.Version, error) {
	vs, err := r.query(ctx, `SELECT `+versionColumns+` FROM prompt_versions WHERE id = ?`, id)
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
		WHERE template_id = ? AND version_number = ?`, templateID, number)
	if err != nil {
		return nil, err
	}
	if len(vs) == 0 {
		return nil, prompts.NewNotFound("Version", templateID+"/"+number)
	}
	return vs[0], nil
}

func (r versions) ListByTemplate(ctx context.Context, templateID string, page prompts.Page) ([]*prompts.Version, error) {
	query, args := paged(`SELECT `+versionColumns+` FROM prompt_versions WHERE template_id = ?`, page, templateID)
	return r.query(ctx, query, args...)
}

func (r versions) ListByTemplateAndStatus(ctx context.Context, templateID string, status prompts.Status, page prompts.Page) ([]*prompts.Version, error) {
	query, args := paged(`SELECT `+versionColumns+` FROM prompt_versions WHERE template_id = ? AND status = ?`,
		page, templateID, string(status))
	return r.query(ctx, query, args...)
}

func (r versions) ExistsByID(ctx context.Context, id string) (bool, error) {
	var n int
	if err := r.v.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM prompt_versions WHERE id = ?`, id).Scan(&n); err != nil {
		return false, fmt.Errorf("failed to check version: %w", err)
	}
	return n > 0, nil
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
		_, err := q.ExecContext(ctx, `
		INSERT INTO prompt_versions (`+versionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			template_id = excluded.template_id,
			version_number = excluded.version_number,
			content = excluded.content,
			system_prompt = excluded.system_prompt,
			status = excluded.status,
			created_by = excluded.created_by,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at,
			parent_version_id = excluded.parent_version_id`,
			v.ID, v.TemplateID, v.Number, v.Content, v.SystemPrompt, string(v.Status),
			v.CreatedBy, v.CreatedAt.UnixNano(), v.UpdatedAt.UnixNano(), nullableString(v.ParentID),
		)
		if err != nil {
			return saveError(err, v)
		}

		if _, err := q.ExecContext(ctx, `DELETE FROM prompt_parameters WHERE version_id = ?`, v.ID); err != nil {
			return fmt.Errorf("failed to clear parameters: %w", err)
		}
		for i, p := range v.Parameters {
			if _, err := q.ExecContext(ctx, `
			INSERT INTO prompt_parameters (version_id, position, name, description, type, default_value, required, validation_pattern)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				v.ID, i, p.Name, p.Description, string(p.Type), p.DefaultValue, p.Required, p.ValidationPattern,
			); err != nil {
				return saveError(err, v)
			}
		}
		return nil
	})
}

func (r versions) Delete(ctx context.Context, id string) error {
	return r.v.write(ctx, func(q querier) error {
		if _, err := q.ExecContext(ctx, `DELETE FROM prompt_parameters WHERE version_id = ?`, id); err != nil {
			return fmt.Errorf("failed to delete parameters: %w", err)
		}
		if _, err := q.ExecContext(ctx, `DELETE FROM prompt_versions WHERE id = ?`, id); err != nil {
			return fmt.Errorf("failed to delete version: %w", err)
		}
		return nil
	})
}

// query scans versions and then loads their parameters. Rows are closed
// before the parameter query runs on the same connection.
func (r versions) query(ctx context.Context, query string, args ...any) ([]*prompts.Version, error) {
	rows, err := r.v.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query versions: %w", err)
	}

	var out []*prompts.Version
	byID := make(map[string]*prompts.Version)
	for rows.Next() {
		var (
			v         prompts.Version
			status    string
			createdAt int64
			updatedAt int64
			parentID  sql.NullString
		)
		if err := rows.Scan(&v.ID, &v.TemplateID, &v.Number, &v.Content, &v.SystemPrompt, &status,
			&v.CreatedBy, &createdAt, &updatedAt, &parentID); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("failed to scan version: %w", err)
		}
		v.Status = prompts.Status(status)
		v.CreatedAt = fromNanos(createdAt)
		v.UpdatedAt = fromNanos(updatedAt)
		v.ParentID = parentID.String
		out = append(out, &v)
		byID[v.ID] = &v
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("failed to iterate versions: %w", err)
	}
	_ = rows.Close()

	if len(out) == 0 {
		return []*prompts.Version{}, nil
	}
	if err := r.loadParameters(ctx, byID); err != nil {
		return nil, err
	}
	return out, nil
}

func (r versions) loadParameters(ctx context.Context, byID map[string]*prompts.Version) error {
	ids := make([]any, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", ")

	rows, err := r.v.q.QueryContext(ctx, `
		SELECT version_id, name, description, type, default_value, required, validation_pattern
		FROM prompt_parameters WHERE version_id IN (`+placeholders+`)
		ORDER BY version_id, position`, ids...)
	if err != nil {
		return fmt.Errorf("failed to query parameters: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			versionID string
			p         prompts.Parameter
			typ       string
		)
		if err := rows.Scan(&versionID, &p.Name, &p.Description, &typ, &p.DefaultValue, &p.Required, &p.ValidationPattern); err != nil {
			return fmt.Errorf("failed to scan parameter: %w", err)
		}
		p.Type = prompts.ParameterType(typ)
		v := byID[versionID]
		v.Parameters = append(v.Parameters, p)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate parameters: %w", err)
	}
	return nil
}

type templates struct{ v *view }

func (r templates) ExistsByID(ctx context.Context, id string) (bool, error) {
	var n int
	if err := r.v.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM prompt_templates WHERE id = ?`, id).Scan(&n); err != nil {
		return false, fmt.Errorf("failed to check template: %w", err)
	}
	return n > 0, nil
}

func (r templates) Get(ctx context.Context, id string) (*prompts.Template, error) {
	var (
		t         prompts.Template
		createdAt int64
	)
	err := r.v.q.QueryRowContext(ctx, `
		SELECT id, name, description, created_by, created_at FROM prompt_templates WHERE id = ?`, id,
	).Scan(&t.ID, &t.Name, &t.Description, &t.CreatedBy, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, prompts.NewNotFound("Template", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load template: %w", err)
	}
	t.CreatedAt = fromNanos(createdAt)
	return &t, nil
}

func (r templates) Save(ctx context.Context, t *prompts.Template) error {
	_, err := r.v.q.ExecContext(ctx, `
		INSERT INTO prompt_templates (id, name, description, created_by, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			created_by = excluded.created_by,
			created_at = excluded.created_at`,
		t.ID, t.Name, t.Description, t.CreatedBy, t.CreatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to save template: %w", err)
	}
	return nil
}

// Delete removes the template, its versions and their parameters. Audit
// rows stay.
func (r templates) Delete(ctx context.Context, id string) error {
	return r.v.write(ctx, func(q querier) error {
		for _, stmt := range []string{
			`DELETE FROM prompt_parameters WHERE version_id IN (SELECT id FROM prompt_versions WHERE template_id = ?)`,
			`DELETE FROM prompt_versions WHERE template_id = ?`,
			`DELETE FROM prompt_templates WHERE id = ?`,
		} {
			if _, err := q.ExecContext(ctx, stmt, id); err != nil {
				return fmt.Errorf("failed to delete template: %w", err)
			}
		}
		return nil
	})
}

func (r templates) List(ctx context.Context) ([]*prompts.Template, error) {
	rows, err := r.v.q.QueryContext(ctx, `
		SELECT id, name, description, created_by, created_at FROM prompt_templates
		ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	defer rows.Close()

	out := make([]*prompts.Template, 0)
	for rows.Next() {
		var (
			t         prompts.Template
			createdAt int64
		)
		if err := rows.Scan(&t.ID, &t.Name, &t.Description, &t.CreatedBy, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan template: %w", err)
		}
		t.CreatedAt = fromNanos(createdAt)
		out = append(out, &t)
	}
	return out, rows.Err()
}

type audit struct{ v *view }

func (r audit) Append(ctx context.Context, e *prompts.AuditEntry) error {
	_, err := r.v.q.ExecContext(ctx, `
		INSERT INTO prompt_audit_log (id, version_id, action, performed_by, performed_at, details,
			previous_status, new_status, reference_version_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.VersionID, string(e.Action), e.PerformedBy, e.PerformedAt.UnixNano(), e.Details,
		string(e.PreviousStatus), string(e.NewStatus), e.ReferenceVersionID,
	)
	if err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}
	return nil
}

func (r audit) ListByVersionDesc(ctx context.Context, versionID string) ([]*prompts.AuditEntry, error) {
	rows, err := r.v.q.QueryContext(ctx, `
		SELECT id, version_id, action, performed_by, performed_at, details,
			previous_status, new_status, reference_version_id
		FROM prompt_audit_log WHERE version_id = ?
		ORDER BY performed_at DESC, rowid DESC`, versionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	defer rows.Close()

	out := make([]*prompts.AuditEntry, 0)
	for rows.Next() {
		var (
			e                  prompts.AuditEntry
			action, prev, next string
			performedAt        int64
		)
		if err := rows.Scan(&e.ID, &e.VersionID, &action, &e.PerformedBy, &performedAt, &e.Details,
			&prev, &next, &e.ReferenceVersionID); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		e.Action = prompts.AuditAction(action)
		e.PerformedAt = fromNanos(performedAt)
		e.PreviousStatus = prompts.Status(prev)
		e.NewStatus = prompts.Status(next)
		out = append(out, &e)
	}
	return out, rows.Err()
}

// paged appends the ordering and window for page to query.
func paged(query string, page prompts.Page, args ...any) (string, []any) {
	if page.Descending {
		query += orderDesc
	} else {
		query += orderAsc
	}
	switch {
	case page.Limit > 0:
		query += ` LIMIT ? OFFSET ?`
		args = append(args, page.Limit, page.Offset)
	case page.Offset > 0:
		query += ` LIMIT -1 OFFSET ?`
		args = append(args, page.Offset)
	}
	return query, args
}

func saveError(err error, v *prompts.Version) error {
	if cols, ok := sqlitedriver.UniqueViolation(err); ok {
		switch {
		case strings.Contains(cols, "version_number"):
			return &prompts.AlreadyExistsError{TemplateID: v.TemplateID, VersionNumber: v.Number}
		case strings.Contains(cols, "prompt_parameters"):
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

func fromNanos(n int64) time.Time {
	return time.Unix(0, n).UTC()
}
