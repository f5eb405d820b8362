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
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/teradata-labs/promptver/pkg/config"
)

func newConfigCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or initialize configuration and manage secrets",
	}
	cmd.AddCommand(
		newConfigShowCmd(c),
		newConfigInitCmd(c),
		newConfigSetSecretCmd(c),
		newConfigGetSecretCmd(c),
		newConfigDeleteSecretCmd(c),
	)
	return cmd
}

func newConfigShowCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration with secrets masked",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg := c.cfg.Redacted()
			if c.output == "json" {
				return c.print(cfg)
			}
			out, err := cfg.YAML()
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(c.out, out)
			return err
		},
	}
}

func newConfigInitCmd(c *cli) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config file to the data directory",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			path := filepath.Join(c.cfg.DataDir, config.DefaultConfigFileName+".yaml")
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}

			out, err := config.Default().YAML()
			if err != nil {
				return err
			}
			if err := os.MkdirAll(c.cfg.DataDir, 0o750); err != nil {
				return fmt.Errorf("failed to create %s: %w", c.cfg.DataDir, err)
			}
			if err := os.WriteFile(path, []byte(out), 0o600); err != nil {
				return fmt.Errorf("failed to write %s: %w", path, err)
			}
			_, err = fmt.Fprintf(c.out, "Wrote %s\n", path)
			return err
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")
	return cmd
}

func newConfigSetSecretCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "set-secret <key>",
		Short: "Save a secret to the system keyring",
		Long: "Save a secret to the system keyring. Empty config fields are filled from the keyring at startup.\n\nAvailable keys: " +
			strings.Join(config.ListAvailableSecretKeys(), ", "),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			secret, err := readSecret(cmd.InOrStdin(), c.errOut, args[0])
			if err != nil {
				return err
			}
			if err := config.SaveSecret(args[0], secret); err != nil {
				return err
			}
			_, err = fmt.Fprintf(c.out, "Saved %s to system keyring\n", args[0])
			return err
		},
	}
}

func newConfigGetSecretCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "get-secret <key>",
		Short: "Show a masked secret from the system keyring",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			secret, err := config.GetSecret(args[0])
			if err != nil {
				return fmt.Errorf("%w (set it with: promptver config set-secret %s)", err, args[0])
			}
			_, err = fmt.Fprintf(c.out, "%s: %s\n", args[0], config.MaskSecret(secret))
			return err
		},
	}
}

func newConfigDeleteSecretCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "delete-secret <key>",
		Short: "Remove a secret from the system keyring",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			if err := config.DeleteSecret(args[0]); err != nil {
				return err
			}
			_, err := fmt.Fprintf(c.out, "Deleted %s from system keyring\n", args[0])
			return err
		},
	}
}

// readSecret reads without echo from a terminal, or one line otherwise.
func readSecret(in io.Reader, prompt io.Writer, key string) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprintf(prompt, "Enter %s (input hidden): ", key)
		secret, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(prompt)
		if err != nil {
			return "", fmt.Errorf("failed to read input: %w", err)
		}
		return string(secret), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
