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

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/teradata-labs/promptver/pkg/prompts"
)

// print writes v in the selected output format.
func (c *cli) print(v any) error {
	switch c.output {
	case "json":
		enc := json.NewEncoder(c.out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml", "":
		enc := yaml.NewEncoder(c.out)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported output format %q (expected yaml or json)", c.output)
	}
}

// withRuntime opens the runtime for the duration of fn.
func (c *cli) withRuntime(cmd *cobra.Command, fn func(rt *runtime) error) error {
	rt, err := c.open(cmd.Context())
	if err != nil {
		return err
	}
	defer rt.Close()
	return fn(rt)
}

// readText returns inline when set, otherwise the contents of path.
func readText(inline, path string) (string, error) {
	if path == "" {
		return inline, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(data), nil
}

// readParameters decodes a YAML or JSON list of parameters from path.
func readParameters(path string) ([]prompts.Parameter, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	var params []prompts.Parameter
	if err := yaml.Unmarshal(data, &params); err != nil {
		return nil, fmt.Errorf("failed to parse parameters in %s: %w", path, err)
	}
	if params == nil {
		params = []prompts.Parameter{}
	}
	return params, nil
}

func parseStatus(text string) (prompts.Status, error) {
	s := prompts.Status(text)
	if !s.Valid() {
		return "", prompts.NewValidation("Unknown status: %s", text)
	}
	return s, nil
}
