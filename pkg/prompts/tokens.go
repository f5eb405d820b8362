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
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// TokenEncoding is the BPE encoding used to count prompt tokens.
const TokenEncoding = "cl100k_base"

// TokenCounter counts tokens in prompt text. Without an encoder it
// estimates four characters per token.
type TokenCounter struct {
	encoder *tiktoken.Tiktoken
	mu      sync.Mutex
}

var (
	globalTokenCounter *TokenCounter
	counterInitOnce    sync.Once
)

// GetTokenCounter returns the shared counter, loading the encoding on first
// use. A load failure falls back to estimation.
func GetTokenCounter() *TokenCounter {
	counterInitOnce.Do(func() {
		tkm, err := tiktoken.GetEncoding(TokenEncoding)
		if err != nil {
			globalTokenCounter = &TokenCounter{}
			return
		}
		globalTokenCounter = &TokenCounter{encoder: tkm}
	})
	return globalTokenCounter
}

// Exact reports whether counts come from the encoder rather than an estimate.
func (tc *TokenCounter) Exact() bool {
	return tc.encoder != nil
}

// CountTokens returns the number of tokens in text.
func (tc *TokenCounter) CountTokens(text string) int {
	if tc.encoder == nil {
		return (len(text) + 3) / 4
	}

	tc.mu.Lock()
	defer tc.mu.Unlock()
	return len(tc.encoder.Encode(text, nil, nil))
}

// TokenUsage is the token count of a version's prompt text.
type TokenUsage struct {
	VersionID    string `json:"versionId" yaml:"version_id"`
	Content      int    `json:"content" yaml:"content"`
	SystemPrompt int    `json:"systemPrompt" yaml:"system_prompt"`
	Total        int    `json:"total" yaml:"total"`
	Exact        bool   `json:"exact" yaml:"exact"`
}

// Usage counts the tokens of v's content and system prompt.
func (tc *TokenCounter) Usage(v *Version) TokenUsage {
	u := TokenUsage{
		VersionID:    v.ID,
		Content:      tc.CountTokens(v.Content),
		SystemPrompt: tc.CountTokens(v.SystemPrompt),
		Exact:        tc.Exact(),
	}
	u.Total = u.Content + u.SystemPrompt
	return u
}
