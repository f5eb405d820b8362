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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teradata-labs/promptver/pkg/prompts"
)

func TestParameters(t *testing.T) {
	a := []prompts.Parameter{
		{Name: "topic", Type: prompts.ParameterString, Required: true},
		{Name: "length", Type: prompts.ParameterNumber, DefaultValue: "100"},
		{Name: "tone", Type: prompts.ParameterString},
	}
	b := []prompts.Parameter{
		{Name: "style", Type: prompts.ParameterString},
		{Name: "topic", Type: prompts.ParameterString, Required: true},
		{Name: "length", Type: prompts.ParameterNumber, DefaultValue: "200", Required: true},
	}

	d := Parameters(a, b)

	require.Len(t, d.Added, 1)
	assert.Equal(t, "style", d.Added[0].Name)
	require.Len(t, d.Removed, 1)
	assert.Equal(t, "tone", d.Removed[0].Name)
	require.Len(t, d.Modified, 1)

	change := d.Modified[0]
	assert.Equal(t, "length", change.Name)
	assert.Equal(t, "100", change.Before.DefaultValue)
	assert.Equal(t, "200", change.After.DefaultValue)
	assert.Equal(t, []string{"required", "defaultValue"}, change.ChangedFields)
	assert.False(t, d.Empty())
}

func TestParameters_EachField(t *testing.T) {
	base := prompts.Parameter{Name: "p", Type: prompts.ParameterString}

	tests := []struct {
		name   string
		mutate func(*prompts.Parameter)
		field  string
	}{
		{"description", func(p *prompts.Parameter) { p.Description = "d" }, "description"},
		{"type", func(p *prompts.Parameter) { p.Type = prompts.ParameterArray }, "type"},
		{"required", func(p *prompts.Parameter) { p.Required = true }, "required"},
		{"default", func(p *prompts.Parameter) { p.DefaultValue = "x" }, "defaultValue"},
		{"pattern", func(p *prompts.Parameter) { p.ValidationPattern = "^a$" }, "validationPattern"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			after := base
			tt.mutate(&after)
			d := Parameters([]prompts.Parameter{base}, []prompts.Parameter{after})
			require.Len(t, d.Modified, 1)
			assert.Equal(t, []string{tt.field}, d.Modified[0].ChangedFields)
		})
	}
}

func TestParameters_Identical(t *testing.T) {
	params := []prompts.Parameter{{Name: "p", Type: prompts.ParameterBoolean}}
	d := Parameters(params, prompts.CloneParameters(params))
	assert.True(t, d.Empty())
	assert.NotNil(t, d.Added)
	assert.True(t, Parameters(nil, nil).Empty())
}
