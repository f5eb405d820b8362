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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teradata-labs/promptver/pkg/prompts"
	"github.com/teradata-labs/promptver/pkg/storage/storetest"
)

func TestStoreConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) prompts.Store {
		return New()
	})
}

func TestStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := New()
	tpl := storetest.Template(t, s)
	v := storetest.Version(tpl.ID, "1.0.0", tpl.CreatedAt, prompts.Parameter{Name: "p", Type: prompts.ParameterString})
	require.NoError(t, s.Versions().Save(ctx, v))

	v.Parameters[0].Name = "changed-after-save"
	got, err := s.Versions().Get(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, "p", got.Parameters[0].Name)

	got.Content = "changed-after-get"
	again, err := s.Versions().Get(ctx, v.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "changed-after-get", again.Content)
}

func TestStore_CanceledContext(t *testing.T) {
	s := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := s.InTx(ctx, "k", func(context.Context, prompts.Tx) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
	assert.Equal(t, "memory", s.Name())
}
