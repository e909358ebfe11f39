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
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeManifest(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "manifest.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testManifest), 0o600))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--log-level", "error"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestDescribe_Markdown(t *testing.T) {
	out, err := run(t, "describe", "-f", writeManifest(t))
	require.NoError(t, err)
	assert.Contains(t, out, "# How many times to retry")
	assert.Contains(t, out, "| field_name | MaxRetries |")
	assert.Contains(t, out, "| ffi-type | `int` |")
	assert.Contains(t, out, "| addr | engine://local |")
}

func TestDescribe_YAML(t *testing.T) {
	out, err := run(t, "describe", "-f", writeManifest(t), "-o", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "label: retries")
	assert.Contains(t, out, "name: engine")
	assert.Contains(t, out, "LEVEL_3")
}

func TestDescribe_Errors(t *testing.T) {
	_, err := run(t, "describe")
	assert.ErrorIs(t, err, errNoManifest)

	_, err = run(t, "describe", "-f", writeManifest(t), "-o", "toml")
	assert.Error(t, err)

	_, err = run(t, "--log-level", "loud", "describe", "-f", writeManifest(t))
	assert.Error(t, err)
}

func TestExport(t *testing.T) {
	db := t.TempDir()
	out, err := run(t, "export", "-f", writeManifest(t), "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "tables:")
	assert.NotContains(t, out, "entries: 0\n")

	entries, err := os.ReadDir(db)
	require.NoError(t, err)
	assert.NotEmpty(t, entries)
}

func TestFlags(t *testing.T) {
	path := writeManifest(t)

	out, err := run(t, "flags", "-f", path)
	require.NoError(t, err)
	assert.Contains(t, out, "--max-retries int")
	assert.Contains(t, out, "How many times to retry")

	out, err = run(t, "flags", "-f", path, "--", "--max-retries", "0x10")
	require.NoError(t, err)
	assert.Equal(t, "max-retries=16\n", out)

	_, err = run(t, "flags", "-f", path, "--", "--max-retries", "many")
	assert.Error(t, err)
}

func TestConfigFile(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "runir.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("digest: xxhash\nruntime_workers: 2\n"), 0o600))
	_, err := run(t, "--config", cfg, "describe", "-f", writeManifest(t))
	require.NoError(t, err)

	_, err = run(t, "--config", filepath.Join(t.TempDir(), "missing.yaml"), "describe")
	assert.Error(t, err)
}
