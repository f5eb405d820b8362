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
package memory

import (
	"context"
	"sort"

	"github.com/teradata-labs/promptver/pkg/prompts"
)

type versions struct{ t *txView }

func (r versions) Get(_ context.Context, id string) (*prompts.Version, error) {
	row, ok := r.t.read().versions[id]
	if !ok {
		return nil, prompts.NewNotFound("Version", id)
	}
	return row.v.Clone(), nil
}

func (r versions) GetByTemplateAndNumber(_ context.Context, templateID, number string) (*prompts.Version, error) {
	for _, row := range r.t.read().versions {
		if row.v.TemplateID == templateID && row.v.Number == number {
			return row.v.Clone(), nil
		}
	}
	return nil, prompts.NewNotFound("Version", templateID+"/"+number)
}

func (r versions) ListByTemplate(_ context.Context, templateID string, page prompts.Page) ([]*prompts.Version, error) {
	return prompts.Apply(r.t.read().byTemplate(templateID, nil), page), nil
}

func (r versions) ListByTemplateAndStatus(_ context.Context, templateID string, status prompts.Status, page prompts.Page) ([]*prompts.Version, error) {
	all := r.t.read().byTemplate(templateID, func(v *prompts.Version) bool { return v.Status == status })
	return prompts.Apply(all, page), nil
}

func (r versions) ExistsByID(_ context.Context, id string) (bool, error) {
	_, ok := r.t.read().versions[id]
	return ok, nil
}

func (r versions) Save(_ context.Context, v *prompts.Version) error {
	return r.t.write(func(st *state) error {
		for id, row := range st.versions {
			if id != v.ID && row.v.TemplateID == v.TemplateID && row.v.Number == v.Number {
				return &prompts.AlreadyExistsError{TemplateID: v.TemplateID, VersionNumber: v.Number}
			}
		}
		seen := make(map[string]bool, len(v.Parameters))
		for _, p := range v.Parameters {
			if seen[p.Name] {
				return prompts.NewValidation("Duplicate parameter name: %s", p.Name)
			}
			seen[p.Name] = true
		}

		row, ok := st.versions[v.ID]
		if !ok {
			row.seq = st.next()
		}
		row.v = v.Clone()
		st.versions[v.ID] = row
		return nil
	})
}

func (r versions) Delete(_ context.Context, id string) error {
	return r.t.write(func(st *state) error {
		delete(st.versions, id)
		return nil
	})
}

type templates struct{ t *txView }

func (r templates) ExistsByID(_ context.Context, id string) (bool, error) {
	_, ok := r.t.read().templates[id]
	return ok, nil
}

func (r templates) Get(_ context.Context, id string) (*prompts.Template, error) {
	t, ok := r.t.read().templates[id]
	if !ok {
		return nil, prompts.NewNotFound("Template", id)
	}
	c := *t
	return &c, nil
}

func (r templates) Save(_ context.Context, t *prompts.Template) error {
	return r.t.write(func(st *state) error {
		c := *t
		st.templates[t.ID] = &c
		return nil
	})
}

// Delete removes the template and its versions. Audit entries stay.
func (r templates) Delete(_ context.Context, id string) error {
	return r.t.write(func(st *state) error {
		delete(st.templates, id)
		for vid, row := range st.versions {
			if row.v.TemplateID == id {
				delete(st.versions, vid)
			}
		}
		return nil
	})
}

func (r templates) List(_ context.Context) ([]*prompts.Template, error) {
	st := r.t.read()
	out := make([]*prompts.Template, 0, len(st.templates))
	for _, t := range st.templates {
		c := *t
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

type audit struct{ t *txView }

func (r audit) Append(_ context.Context, entry *prompts.AuditEntry) error {
	return r.t.write(func(st *state) error {
		c := *entry
		st.audit = append(st.audit, auditRow{e: &c, seq: st.next()})
		return nil
	})
}

func (r audit) ListByVersionDesc(_ context.Context, versionID string) ([]*prompts.AuditEntry, error) {
	rows := make([]auditRow, 0)
	for _, row := range r.t.read().audit {
		if row.e.VersionID == versionID {
			rows = append(rows, row)
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if !a.e.PerformedAt.Equal(b.e.PerformedAt) {
			return a.e.PerformedAt.After(b.e.PerformedAt)
		}
		return a.seq > b.seq
	})
	out := make([]*prompts.AuditEntry, len(rows))
	for i, row := range rows {
		c := *row.e
		out[i] = &c
	}
	return out, nil
}
