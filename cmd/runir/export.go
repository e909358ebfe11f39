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
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/runplat/runir"
	"github.com/runplat/runir/snapshot"
)

func newExportCmd() *cobra.Command {
	var (
		file string
		db   string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Save the linked registry to a snapshot store",
		Long:  "export links every manifest resource and writes all registry tables to a badger store.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := buildFromFile(cmd, file); err != nil {
				return err
			}
			cfg := runir.Config().Snapshot
			if db != "" {
				cfg.Path = db
				cfg.InMemory = false
			}
			log := runir.Logger()
			store, err := snapshot.Open(cfg, log)
			if err != nil {
				return err
			}
			defer func() {
				if cerr := store.Close(); cerr != nil {
					log.Warn("close snapshot", zap.Error(cerr))
				}
			}()
			stats, err := store.Save(cmd.Context(), runir.Registry())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "tables: %d\nentries: %d\nskipped: %d\n", stats.Tables, stats.Entries, stats.Skipped)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "manifest to export")
	cmd.Flags().StringVar(&db, "db", "", "snapshot directory, overrides the configured path")
	return cmd
}
