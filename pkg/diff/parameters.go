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
package diff

import (
	"github.com/teradata-labs/promptver/pkg/prompts"
)

// ParameterChange describes a parameter present in both sets whose
// definition differs.
type ParameterChange struct {
	Name          string            `json:"name" yaml:"name"`
	Before        prompts.Parameter `json:"before" yaml:"before"`
	After         prompts.Parameter `json:"after" yaml:"after"`
	ChangedFields []string          `json:"changed_fields" yaml:"changed_fields"`
}

// ParameterDiff is the difference between two parameter sets.
type ParameterDiff struct {
	Added    []prompts.Parameter `json:"added" yaml:"added"`
	Removed  []prompts.Parameter `json:"removed" yaml:"removed"`
	Modified []ParameterChange   `json:"modified" yaml:"modified"`
}

// Empty reports whether the sets are identical.
func (d ParameterDiff) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Modified) == 0
}

// Parameters compares parameter sets by name. Added follows b's order;
// Removed and Modified follow a's order. A parameter is modified when its
// description, type, required flag, default value or validation pattern
// differ.
func Parameters(a, b []prompts.Parameter) ParameterDiff {
	inA := make(map[string]prompts.Parameter, len(a))
	for _, p := range a {
		inA[p.Name] = p
	}
	inB := make(map[string]prompts.Parameter, len(b))
	for _, p := range b {
		inB[p.Name] = p
	}

	d := ParameterDiff{
		Added:    []prompts.Parameter{},
		Removed:  []prompts.Parameter{},
		Modified: []ParameterChange{},
	}
	for _, p := range b {
		if _, ok := inA[p.Name]; !ok {
			d.Added = append(d.Added, p)
		}
	}
	for _, before := range a {
		after, ok := inB[before.Name]
		if !ok {
			d.Removed = append(d.Removed, before)
			continue
		}
		if fields := changedFields(before, after); len(fields) > 0 {
			d.Modified = append(d.Modified, ParameterChange{
				Name:          before.Name,
				Before:        before,
				After:         after,
				ChangedFields: fields,
			})
		}
	}
	return d
}

func changedFields(a, b prompts.Parameter) []string {
	var fields []string
	if a.Description != b.Description {
		fields = append(fields, "description")
	}
	if a.Type != b.Type {
		fields = append(fields, "type")
	}
	if a.Required != b.Required {
		fields = append(fields, "required")
	}
	if a.DefaultValue != b.DefaultValue {
		fields = append(fields, "defaultValue")
	}
	if a.ValidationPattern != b.ValidationPattern {
		fields = append(fields, "validationPattern")
	}
	return fields
}
