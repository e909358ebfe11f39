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
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/runplat/runir"
	"github.com/runplat/runir/schema"
)

func newFlagsCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "flags [-- args...]",
		Short: "Expose manifest fields as command-line flags",
		Long: "flags turns every manifest field that has an FFI type into a flag. " +
			"Without args it prints their usage; with args it parses them and prints the values.",
		RunE: func(cmd *cobra.Command, args []string) error {
			built, err := buildFromFile(cmd, file)
			if err != nil {
				return err
			}
			fs, values := flagSet(built)
			out := cmd.OutOrStdout()
			if len(args) == 0 {
				fmt.Fprint(out, fs.FlagUsages())
				return nil
			}
			if err := fs.Parse(args); err != nil {
				return err
			}
			names := make([]string, 0, len(values))
			for name := range values {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				if v, ok := values[name].Value(); ok {
					fmt.Fprintf(out, "%s=%v\n", name, v)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "manifest to read fields from")
	return cmd
}

// flagSet builds one flag per field representation. Later duplicates of a
// flag name are skipped.
func flagSet(built []Built) (*pflag.FlagSet, map[string]*schema.FlagValue) {
	reg := runir.Registry()
	fs := pflag.NewFlagSet("fields", pflag.ContinueOnError)
	values := map[string]*schema.FlagValue{}
	for _, b := range built {
		arg, ok := schema.SplitForArg(reg, b.Repr)
		if !ok {
			continue
		}
		name := schema.FlagName(arg.Name)
		if fs.Lookup(name) != nil {
			continue
		}
		values[name] = schema.AddFlag(fs, arg)
	}
	return fs, values
}
