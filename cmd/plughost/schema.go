// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"os"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/plughost/internal/plugin"
)

// NewSchemaCmd creates the schema subcommand.
func NewSchemaCmd() *cobra.Command {
	var validate string

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the plugin.yaml JSON schema",
		Long: `Print the JSON schema for plugin.yaml manifests, or validate a manifest
file against it with --validate.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if validate != "" {
				return runValidateManifest(cmd, validate)
			}

			data, err := plugin.GenerateSchema()
			if err != nil {
				return err
			}
			cmd.Println(string(data))
			return nil
		},
	}

	cmd.Flags().StringVar(&validate, "validate", "", "validate the manifest at this path instead of printing the schema")
	return cmd
}

func runValidateManifest(cmd *cobra.Command, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // path is an explicit CLI argument
	if err != nil {
		return oops.With("path", path).Wrapf(err, "read manifest")
	}

	if err := plugin.ValidateSchema(data); err != nil {
		return oops.With("path", path).Errorf("%s", plugin.FormatSchemaError(err))
	}
	m, err := plugin.ParseManifest(data)
	if err != nil {
		return oops.With("path", path).Wrap(err)
	}

	cmd.Printf("%s: %s %s is valid\n", path, m.Name, m.Version)
	return nil
}
