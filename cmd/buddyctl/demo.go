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
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

const demoMemoryMiB = 16

// demoScript walks through splitting and coalescing on a 16 MB region.
var demoScript = []string{
	"alloc 5 A",
	"alloc 3 B",
	"show",
	"free A",
	"show",
	"free B",
	"show",
}

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Replay a short allocate/free walkthrough",
	Long: `The demo command allocates 5 MB and 3 MB on a 16 MB region,
then frees both blocks and shows the layout after each step, ending
with the whole region merged back into one free block.

The walkthrough is written for 16 MB, so --memory is rejected unless it is 16.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("memory") && memoryMiB != demoMemoryMiB {
			return fmt.Errorf("demo runs on %d MB, got --memory %d", demoMemoryMiB, memoryMiB)
		}
		memoryMiB = demoMemoryMiB
		return runDemo(cmd, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(demoCmd)
}

func runDemo(cmd *cobra.Command, out io.Writer) error {
	s, err := newSession(out)
	if err != nil {
		return err
	}
	for _, line := range demoScript {
		fmt.Fprintf(out, "> %s\n", line)
		if err := s.Exec(cmd.Context(), line); err != nil {
			return err
		}
	}
	return nil
}
