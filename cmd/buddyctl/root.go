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
	"context"
	"fmt"
	"io"
	"os"

	"github.com/bytedance/gopkg/util/logger"
	"github.com/spf13/cobra"

	"github.com/cloudwego/buddyalloc/console"
	"github.com/cloudwego/buddyalloc/report"
)

var (
	// Global flags
	memoryMiB uint64
	width     int
	noColor   bool
	verbose   bool
	quiet     bool

	scriptFile string
)

var rootCmd = &cobra.Command{
	Use:   "buddyctl",
	Short: "Drive a buddy memory allocator from text commands",
	Long: `buddyctl manages a power-of-two memory region with a buddy allocator.
Commands are read one per line from --file or stdin:

  alloc 5 A      allocate 5 MB under label A
  free A         release A and merge free buddies
  show           draw the memory layout and fragmentation

Run "help" inside a session for the full command list.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupLogger()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSession(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.PersistentFlags().Uint64VarP(&memoryMiB, "memory", "m", 16, "Region size in MB (a power of two from 2 to 2048)")
	rootCmd.PersistentFlags().IntVar(&width, "width", report.DefaultWidth, "Width of the layout bar")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Only log warnings and errors")
	rootCmd.Flags().StringVarP(&scriptFile, "file", "f", "", "Read commands from file instead of stdin")
}

func execute(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func setupLogger() error {
	if verbose && quiet {
		return fmt.Errorf("--verbose and --quiet are mutually exclusive")
	}
	switch {
	case verbose:
		logger.SetLevel(logger.LevelDebug)
	case quiet:
		logger.SetLevel(logger.LevelWarn)
	default:
		logger.SetLevel(logger.LevelNotice)
	}
	return nil
}

func newSession(out io.Writer) (*console.Session, error) {
	return console.NewSession(memoryMiB, out, &report.Renderer{Width: width, NoColor: noColor})
}

func runSession(ctx context.Context, in io.Reader, out io.Writer) error {
	s, err := newSession(out)
	if err != nil {
		return err
	}
	if scriptFile != "" {
		f, err := os.Open(scriptFile)
		if err != nil {
			return fmt.Errorf("failed to open script: %w", err)
		}
		defer f.Close()
		in = f
	}
	logger.CtxDebugf(ctx, "buddyctl: %d MB region, reading commands", memoryMiB)
	return s.Run(ctx, in)
}
