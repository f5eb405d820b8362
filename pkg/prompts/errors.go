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
package prompts

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Sentinel errors. Typed errors below match them with errors.Is.
var (
	ErrNotFound      = errors.New("not found")
	ErrValidation    = errors.New("validation failed")
	ErrAlreadyExists = errors.New("already exists")

	// ErrCacheInvalidation is returned when a write committed but its cache
	// entries could not be invalidated.
	ErrCacheInvalidation = errors.New("cache invalidation failed")
)

// NotFoundError reports an id that did not resolve.
type NotFoundError struct {
	Resource string
	ID       string
}

// NewNotFound returns a NotFoundError for resource and id.
func NewNotFound(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found with id: %s", e.Resource, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// ValidationError reports a rejected request. Fields maps a request field to
// its message and holds every failure found for the request.
type ValidationError struct {
	Message string
	Fields  map[string]string
}

// NewValidation returns a ValidationError with no field errors.
func NewValidation(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return e.Message + " (" + strings.Join(parts, "; ") + ")"
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// FieldErrors collects field level validation failures for one request.
type FieldErrors map[string]string

// Add records msg for field unless the field already has a message.
func (f FieldErrors) Add(field, msg string) {
	if _, ok := f[field]; !ok {
		f[field] = msg
	}
}

// Err returns nil when no failures were collected.
func (f FieldErrors) Err() error {
	if len(f) == 0 {
		return nil
	}
	return &ValidationError{Message: "Validation failed", Fields: map[string]string(f)}
}

// AlreadyExistsError reports a version number collision within a template.
// It matches both ErrAlreadyExists and ErrValidation.
type AlreadyExistsError struct {
	TemplateID    string
	VersionNumber string
}

func (e *AlreadyExistsError) Error() string {
	return "Version number already exists for this template: " + e.VersionNumber
}

func (e *AlreadyExistsError) Is(target error) bool {
	return target == ErrAlreadyExists || target == ErrValidation
}

// IsNotFound reports whether err is a not-found error.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
