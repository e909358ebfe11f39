/*
   Copyright 2025 The DIRPX Authors.

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/

package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/runplat/runir"
)

var errNoManifest = errors.New("a manifest is required (-f)")

func newDescribeCmd() *cobra.Command {
	var (
		file   string
		output string
	)
	cmd := &cobra.Command{
		Use:   "describe",
		Short: "Render every manifest resource",
		Long:  "describe links each manifest resource and prints it as markdown, or as YAML with --output yaml.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			built, err := buildFromFile(cmd, file)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			switch strings.ToLower(output) {
			case "", "markdown", "md":
				for i, b := range built {
					if i > 0 {
						fmt.Fprintln(out)
					}
					fmt.Fprint(out, runir.Describe(b.Repr))
				}
				return nil
			case "yaml":
				reg, res := runir.Registry(), runir.Resolver()
				docs := make([]described, 0, len(built))
				for _, b := range built {
					docs = append(docs, describe(reg, res, b))
				}
				enc := yaml.NewEncoder(out)
				enc.SetIndent(2)
				if err := enc.Encode(docs); err != nil {
					return err
				}
				return enc.Close()
			default:
				return fmt.Errorf("unknown output %q", output)
			}
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "manifest to describe")
	cmd.Flags().StringVarP(&output, "output", "o", "markdown", "output format: markdown or yaml")
	return cmd
}

// buildFromFile loads and links a manifest with the configured runtime workers.
func buildFromFile(cmd *cobra.Command, file string) ([]Built, error) {
	if file == "" {
		return nil, errNoManifest
	}
	m, err := loadManifest(file)
	if err != nil {
		return nil, err
	}
	built, err := m.Build(cmd.Context(), runir.Config().RuntimeWorkers)
	if err != nil {
		return nil, err
	}
	runir.Logger().Debug("manifest linked", zap.String("file", file), zap.Int("count", len(built)))
	return built, nil
}
