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
package observability

import (
	"context"
	"sync"
)

// MockTracer keeps every ended span for inspection in tests.
// Thread-safe: All methods can be called concurrently.
type MockTracer struct {
	mu    sync.RWMutex
	spans []*Span
}

// NewMockTracer creates an empty mock tracer.
func NewMockTracer() *MockTracer {
	return &MockTracer{}
}

func (m *MockTracer) StartSpan(ctx context.Context, name string, opts ...SpanOption) (context.Context, *Span) {
	span := newSpan(ctx, name, opts)
	return ContextWithSpan(ctx, span), span
}

// EndSpan finishes span and keeps it.
func (m *MockTracer) EndSpan(span *Span) {
	if span == nil {
		return
	}
	finish(span)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.spans = append(m.spans, span)
}

// GetSpans returns the ended spans in end order.
func (m *MockTracer) GetSpans() []*Span {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*Span(nil), m.spans...)
}

// GetSpansByName returns the ended spans called name.
func (m *MockTracer) GetSpansByName(name string) []*Span {
	var out []*Span
	for _, span := range m.GetSpans() {
		if span.Name == name {
			out = append(out, span)
		}
	}
	return out
}

// GetSpanByName returns the first ended span called name, or nil.
func (m *MockTracer) GetSpanByName(name string) *Span {
	if spans := m.GetSpansByName(name); len(spans) > 0 {
		return spans[0]
	}
	return nil
}

var _ Tracer = (*MockTracer)(nil)
