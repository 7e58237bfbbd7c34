/*
 * Copyright 2025 CloudWeGo Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
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

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(bytes.NewReader(nil))
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		memoryMiB, width, noColor, verbose, quiet, scriptFile = 16, 64, false, false, false, ""
		rootCmd.PersistentFlags().Lookup("memory").Changed = false
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func TestScriptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "script.txt")
	require.NoError(t, os.WriteFile(path, []byte("alloc 5 A\nalloc 3 B\nfrag\n"), 0o644))

	out, err := runCmd(t, "--no-color", "-q", "-f", path)
	require.NoError(t, err)
	assert.Equal(t, "Memory allocated with label 'A'.\n"+
		"Memory allocated with label 'B'.\n"+
		"Internal Fragmentation: 4.00 MB\n"+
		"External Fragmentation: 4.00 MB\n", out)
}

func TestInvalidMemory(t *testing.T) {
	_, err := runCmd(t, "-q", "--memory", "3")
	assert.Error(t, err)
}

func TestMissingScript(t *testing.T) {
	_, err := runCmd(t, "-q", "-f", filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestVerboseAndQuiet(t *testing.T) {
	_, err := runCmd(t, "-v", "-q")
	assert.Error(t, err)
}

func TestDemo(t *testing.T) {
	out, err := runCmd(t, "demo", "-q", "--no-color", "--width", "16")
	require.NoError(t, err)
	assert.Contains(t, out, "> free B\nMemory deallocated for label 'B'.\n")
	assert.Contains(t, out, "External Fragmentation: 16.00 MB\n")
	assert.Contains(t, out, "................\n")
}

func TestDemoMemory(t *testing.T) {
	_, err := runCmd(t, "-m", "64", "demo", "-q")
	assert.ErrorContains(t, err, "demo runs on 16 MB")

	out, err := runCmd(t, "-m", "16", "demo", "-q", "--no-color")
	require.NoError(t, err)
	assert.Contains(t, out, "External Fragmentation: 16.00 MB\n")
}

func TestVersion(t *testing.T) {
	out, err := runCmd(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "buddyctl dev")
}
