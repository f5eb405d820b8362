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
// Package prompts defines the prompt version domain: templates, versions,
// parameters, audit entries and the collaborator contracts the lifecycle
// engine runs against.
//
// Versions belong to a template and are identified by a UUID and by a
// semantic version number that is unique within the template. They move
// through a fixed set of statuses (see Status) and may point at a parent
// version of the same template, forming a forest.
//
// Example usage:
//
//	v, err := store.Versions().Get(ctx, id)
//	if errors.Is(err, prompts.ErrNotFound) {
//	    ...
//	}
package prompts

import (
	"time"
)

// Status is the lifecycle status of a version.
type Status string

const (
	StatusDraft      Status = "DRAFT"
	StatusReview     Status = "REVIEW"
	StatusApproved   Status = "APPROVED"
	StatusPublished  Status = "PUBLISHED"
	StatusDeprecated Status = "DEPRECATED"
	StatusArchived   Status = "ARCHIVED"
)

// Statuses lists every status in lifecycle order.
var Statuses = []Status{
	StatusDraft,
	StatusReview,
	StatusApproved,
	StatusPublished,
	StatusDeprecated,
	StatusArchived,
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

func (s Status) String() string { return string(s) }

// ParameterType is the declared type of a prompt parameter.
type ParameterType string

const (
	ParameterString   ParameterType = "STRING"
	ParameterNumber   ParameterType = "NUMBER"
	ParameterBoolean  ParameterType = "BOOLEAN"
	ParameterArray    ParameterType = "ARRAY"
	ParameterObject   ParameterType = "OBJECT"
	ParameterDate     ParameterType = "DATE"
	ParameterDateTime ParameterType = "DATETIME"
)

// Valid reports whether t is a known parameter type.
func (t ParameterType) Valid() bool {
	switch t {
	case ParameterString, ParameterNumber, ParameterBoolean, ParameterArray,
		ParameterObject, ParameterDate, ParameterDateTime:
		return true
	}
	return false
}

// AuditAction is the kind of lifecycle action an audit entry records.
type AuditAction string

const (
	ActionCreated       AuditAction = "CREATED"
	ActionStatusChanged AuditAction = "STATUS_CHANGED"
	ActionBranched      AuditAction = "BRANCHED"
	ActionRollback      AuditAction = "ROLLBACK"
)

// Template owns a family of versions.
type Template struct {
	ID          string    `json:"id" yaml:"id"`
	Name        string    `json:"name" yaml:"name"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
	CreatedBy   string    `json:"created_by,omitempty" yaml:"created_by,omitempty"`
	CreatedAt   time.Time `json:"created_at" yaml:"created_at"`
}

// Parameter is a named input a prompt version declares.
type Parameter struct {
	Name              string        `json:"name" yaml:"name"`
	Description       string        `json:"description,omitempty" yaml:"description,omitempty"`
	Type              ParameterType `json:"type" yaml:"type"`
	DefaultValue      string        `json:"default_value,omitempty" yaml:"default_value,omitempty"`
	Required          bool          `json:"required" yaml:"required"`
	ValidationPattern string        `json:"validation_pattern,omitempty" yaml:"validation_pattern,omitempty"`
}

// Version is one versioned prompt artifact.
type Version struct {
	ID           string      `json:"id" yaml:"id"`
	TemplateID   string      `json:"template_id" yaml:"template_id"`
	Number       string      `json:"version_number" yaml:"version_number"`
	Content      string      `json:"content" yaml:"content"`
	SystemPrompt string      `json:"system_prompt,omitempty" yaml:"system_prompt,omitempty"`
	Status       Status      `json:"status" yaml:"status"`
	CreatedBy    string      `json:"created_by" yaml:"created_by"`
	CreatedAt    time.Time   `json:"created_at" yaml:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at" yaml:"updated_at"`
	ParentID     string      `json:"parent_version_id,omitempty" yaml:"parent_version_id,omitempty"`
	Parameters   []Parameter `json:"parameters,omitempty" yaml:"parameters,omitempty"`
}

// Clone returns a deep copy of v. Parameters are copied into a new slice so
// edits to the clone never reach v.
func (v *Version) Clone() *Version {
	if v == nil {
		return nil
	}
	c := *v
	c.Parameters = CloneParameters(v.Parameters)
	return &c
}

// CloneParameters copies params into a new slice. A nil input stays nil.
func CloneParameters(params []Parameter) []Parameter {
	if params == nil {
		return nil
	}
	out := make([]Parameter, len(params))
	copy(out, params)
	return out
}

// AuditEntry is an immutable record of a lifecycle action on a version.
type AuditEntry struct {
	ID                 string      `json:"id" yaml:"id"`
	VersionID          string      `json:"version_id" yaml:"version_id"`
	Action             AuditAction `json:"action" yaml:"action"`
	PerformedBy        string      `json:"performed_by" yaml:"performed_by"`
	PerformedAt        time.Time   `json:"performed_at" yaml:"performed_at"`
	Details            string      `json:"details,omitempty" yaml:"details,omitempty"`
	PreviousStatus     Status      `json:"previous_status,omitempty" yaml:"previous_status,omitempty"`
	NewStatus          Status      `json:"new_status,omitempty" yaml:"new_status,omitempty"`
	ReferenceVersionID string      `json:"reference_version_id,omitempty" yaml:"reference_version_id,omitempty"`
}

// StatusChangeEvent is published after a status change commits.
// ID is unique per event and is the de-duplication key for at-least-once
// transports.
type StatusChangeEvent struct {
	ID             string    `json:"id"`
	VersionID      string    `json:"version_id"`
	TemplateID     string    `json:"template_id"`
	VersionNumber  string    `json:"version_number"`
	PreviousStatus Status    `json:"previous_status"`
	NewStatus      Status    `json:"new_status"`
	Actor          string    `json:"actor"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// Page selects a window of a creation-time ordered listing.
// A zero Limit means no limit.
type Page struct {
	Offset     int
	Limit      int
	Descending bool
}

// All is the page covering a full listing in creation order.
var All = Page{}

// Apply slices items, already in ascending creation order, according to p.
func Apply[T any](items []T, p Page) []T {
	n := len(items)
	out := make([]T, 0, n)
	if p.Descending {
		for i := n - 1; i >= 0; i-- {
			out = append(out, items[i])
		}
	} else {
		out = append(out, items...)
	}
	if p.Offset > 0 {
		if p.Offset >= len(out) {
			return out[:0]
		}
		out = out[p.Offset:]
	}
	if p.Limit > 0 && p.Limit < len(out) {
		out = out[:p.Limit]
	}
	return out
}
