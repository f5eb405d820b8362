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
// Package observability provides tracing for promptver operations.
//
// Every engine operation and every store unit of work opens a span. The
// default tracer is a no-op; tests use MockTracer to inspect spans.
//
// Example usage:
//
//	ctx, span := tracer.StartSpan(ctx, "lifecycle.transition")
//	defer tracer.EndSpan(span)
//	span.SetAttribute(observability.AttrVersionID, id)
package observability

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// StatusCode is the outcome recorded on a span.
type StatusCode int

const (
	StatusUnset StatusCode = iota
	StatusOK
	StatusError
)

func (s StatusCode) String() string {
	switch s {
	case StatusUnset:
		return "unset"
	case StatusOK:
		return "ok"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Status is a span outcome. Message carries the error text of failed spans.
type Status struct {
	Code    StatusCode
	Message string
}

// Span is one traced operation. A child span shares its parent's TraceID.
type Span struct {
	TraceID  string
	SpanID   string
	ParentID string

	Name       string
	Attributes map[string]interface{}

	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration

	Status Status
}

// newSpan starts a span named name, linked to the span carried by ctx.
func newSpan(ctx context.Context, name string, opts []SpanOption) *Span {
	span := &Span{
		TraceID:    uuid.NewString(),
		SpanID:     uuid.NewString(),
		Name:       name,
		StartTime:  time.Now(),
		Attributes: make(map[string]interface{}),
	}
	for _, opt := range opts {
		opt(span)
	}
	if parent := SpanFromContext(ctx); parent != nil {
		span.TraceID = parent.TraceID
		span.ParentID = parent.SpanID
	}
	return span
}

// finish stamps the end time and duration of span.
func finish(span *Span) {
	span.EndTime = time.Now()
	span.Duration = span.EndTime.Sub(span.StartTime)
}

// SetAttribute sets key on the span.
func (s *Span) SetAttribute(key string, value interface{}) {
	if s.Attributes == nil {
		s.Attributes = make(map[string]interface{})
	}
	s.Attributes[key] = value
}

// RecordError marks the span failed with err. A nil err is ignored.
func (s *Span) RecordError(err error) {
	if err == nil {
		return
	}
	s.Status = Status{Code: StatusError, Message: err.Error()}
	s.SetAttribute(AttrErrorMessage, err.Error())
	s.SetAttribute(AttrErrorType, "error")
}

// SpanOption configures a span at start.
type SpanOption func(*Span)

// WithAttribute sets key on the span at start.
func WithAttribute(key string, value interface{}) SpanOption {
	return func(s *Span) {
		s.SetAttribute(key, value)
	}
}
