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
	"go.uber.org/zap/zapcore"

	"github.com/runplat/runir"
	"github.com/runplat/runir/apis"
	"github.com/runplat/runir/config"
)

type rootOptions struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "runir",
		Short:         "Inspect runtime representations",
		Long:          "runir links the resources declared in a manifest into representations and renders, exports or turns them into flags.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.setup()
		},
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to a runir config file")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override the configured log level")

	cmd.AddCommand(newDescribeCmd(), newExportCmd(), newFlagsCmd())
	return cmd
}

// setup loads the config and installs it with a matching logger.
func (o *rootOptions) setup() error {
	var opts []config.Option
	if o.logLevel != "" {
		opts = append(opts, config.WithLogLevel(o.logLevel))
	}
	var (
		cfg apis.Config
		err error
	)
	if o.configPath != "" {
		cfg, err = config.Load(o.configPath, opts...)
		if err != nil {
			return err
		}
	} else {
		cfg = config.NewConfig(opts...)
	}

	log, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	if err := runir.SetLogger(log); err != nil {
		return err
	}
	return runir.SetConfig(cfg)
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level %q: %w", level, err)
	}
	zc := zap.NewProductionConfig()
	if lvl == zapcore.DebugLevel {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(lvl)
	zc.OutputPaths = []string{"stderr"}
	return zc.Build()
}
