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
package observability_test

import (
	"context"
	"fmt"

	"github.com/teradata-labs/promptver/pkg/observability"
)

// Example traces a status transition with a nested store span.
func Example() {
	tracer := observability.NewMockTracer()

	ctx, span := tracer.StartSpan(context.Background(), observability.SpanLifecyclePrefix+"transition",
		observability.WithAttribute(observability.AttrVersionID, "v-1"),
		observability.WithAttribute(observability.AttrStatusTo, "PUBLISHED"),
	)

	_, tx := tracer.StartSpan(ctx, observability.SpanSQLiteInTx,
		observability.WithAttribute(observability.AttrStoreBackend, "sqlite"),
	)
	tracer.EndSpan(tx)

	span.SetAttribute(observability.AttrDemotedCount, 1)
	span.Status = observability.Status{Code: observability.StatusOK}
	tracer.EndSpan(span)

	child := tracer.GetSpanByName(observability.SpanSQLiteInTx)
	fmt.Println(child.ParentID == span.SpanID, len(tracer.GetSpans()))
	// Output: true 2
}

// ExampleNoOpTracer shows using the no-op tracer when tracing is disabled.
func ExampleNoOpTracer() {
	tracer := observability.OrNoOp(nil)

	_, span := tracer.StartSpan(context.Background(), "test_operation")
	defer tracer.EndSpan(span)

	fmt.Println("Operation completed")
	// Output: Operation completed
}
