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

// Package console drives one buddy allocator from text commands.
// Sizes are entered in MiB, allocations are named by labels, and a
// selected label is kept for deallocation the way a picker would.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/bytedance/gopkg/util/logger"
	"github.com/pkg/errors"

	"github.com/cloudwego/buddyalloc/buddy"
	"github.com/cloudwego/buddyalloc/report"
)

// Errors returned by Session.Exec. Run prints them as user messages.
var (
	ErrInvalidMemorySize = errors.New("please select a valid memory size")
	ErrInvalidInput      = errors.New("invalid input for memory allocation")
	ErrEmptyLabel        = errors.New("label cannot be empty")
	ErrLabelInUse        = errors.New("label already in use")
	ErrAllocationFailed  = errors.New("memory allocation failed")
	ErrFreeFailed        = errors.New("memory deallocation failed")
	ErrNoSelection       = errors.New("no label selected for deallocation")
	ErrUnknownCommand    = errors.New("unknown command")
)

// MemorySizes are the region sizes in MiB a session can be created with.
var MemorySizes = func() []uint64 {
	sizes := make([]uint64, 0, 11)
	for i := 1; i <= 11; i++ {
		sizes = append(sizes, 1<<i)
	}
	return sizes
}()

const helpText = `commands:
  alloc <MB> <label>   allocate MB megabytes under label
  free [label]         deallocate label, or the selected label
  select <label>       select a label for free
  labels               list live labels, * marks the selection
  show                 draw the memory layout
  frag                 print fragmentation
  reset                drop every allocation
  help                 print this text
  quit                 stop reading commands
`

// Session is one allocator plus the state of the front end around it.
type Session struct {
	alloc    *buddy.Allocator
	renderer *report.Renderer
	out      io.Writer
	selected string
}

// NewSession creates a session over a region of memoryMiB mebibytes.
// memoryMiB must be one of MemorySizes. A nil rd renders with defaults.
func NewSession(memoryMiB uint64, out io.Writer, rd *report.Renderer) (*Session, error) {
	if !validMemorySize(memoryMiB) {
		return nil, errors.Wrapf(ErrInvalidMemorySize, "%d MB", memoryMiB)
	}
	total, err := report.FromMiB(memoryMiB)
	if err != nil {
		return nil, err
	}
	a, err := buddy.New(total)
	if err != nil {
		return nil, err
	}
	return NewSessionWithAllocator(a, out, rd), nil
}

// NewSessionWithAllocator creates a session that drives a.
func NewSessionWithAllocator(a *buddy.Allocator, out io.Writer, rd *report.Renderer) *Session {
	if rd == nil {
		rd = &report.Renderer{}
	}
	s := &Session{alloc: a, renderer: rd, out: out}
	s.refreshSelection()
	return s
}

// Allocator returns the allocator driven by the session.
func (s *Session) Allocator() *buddy.Allocator {
	return s.alloc
}

// Selected returns the label a bare free command releases.
func (s *Session) Selected() string {
	return s.selected
}

// ErrQuit is returned by Exec for the quit command.
var ErrQuit = errors.New("quit")

// Exec runs one command line. User mistakes come back as errors
// and leave the allocator unchanged.
func (s *Session) Exec(ctx context.Context, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	cmd, args := fields[0], fields[1:]
	switch cmd {
	case "alloc", "allocate":
		if len(args) < 1 {
			return errors.Wrap(ErrInvalidInput, "usage: alloc <MB> <label>")
		}
		return s.allocate(ctx, args[0], strings.Join(args[1:], " "))
	case "free", "dealloc", "deallocate":
		label := strings.Join(args, " ")
		if label == "" {
			label = s.selected
		}
		return s.deallocate(ctx, label)
	case "select":
		return s.sel(strings.Join(args, " "))
	case "labels":
		return s.labels()
	case "show":
		return s.renderer.Render(s.out, report.Build(s.alloc.Snapshot(), s.alloc.TotalSize()))
	case "frag":
		internal, external := s.alloc.Fragmentation()
		return report.WriteFragmentation(s.out, internal, external)
	case "reset":
		s.alloc.Reset()
		s.refreshSelection()
		logger.CtxInfof(ctx, "console: allocator reset, %d bytes free", s.alloc.Available())
		return s.printf("Memory reset.\n")
	case "help":
		_, err := io.WriteString(s.out, helpText)
		return err
	case "quit", "exit":
		return ErrQuit
	}
	return errors.Wrapf(ErrUnknownCommand, "%q", cmd)
}

// Run executes commands from r until EOF, quit, or ctx is done.
// Blank lines and lines starting with '#' are skipped. Command errors are
// printed and do not stop the loop.
//
// ctx is checked between lines only: a Run blocked reading an idle
// terminal returns once the next line or EOF arrives.
func (s *Session) Run(ctx context.Context, r io.Reader) error {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		err := s.Exec(ctx, line)
		if errors.Is(err, ErrQuit) {
			return nil
		}
		if err != nil {
			logger.CtxDebugf(ctx, "console: %q failed: %v", line, err)
			if perr := s.printf("Error: %s\n", userMessage(err)); perr != nil {
				return perr
			}
		}
	}
	return sc.Err()
}

func (s *Session) allocate(ctx context.Context, sizeArg, label string) error {
	mb, err := strconv.ParseUint(sizeArg, 10, 64)
	if err != nil || mb == 0 {
		return errors.Wrapf(ErrInvalidInput, "size %q", sizeArg)
	}
	if label == "" {
		return ErrEmptyLabel
	}
	if _, ok := s.alloc.Lookup(label); ok {
		return errors.Wrapf(ErrLabelInUse, "%q", label)
	}
	size, err := report.FromMiB(mb)
	if err != nil {
		return errors.Wrap(ErrInvalidInput, err.Error())
	}

	addr, err := s.alloc.Allocate(size, label)
	if err != nil {
		logger.CtxInfof(ctx, "console: allocate %d MB for %q: %v", mb, label, err)
		return &labelError{kind: ErrAllocationFailed, label: label, err: err}
	}
	logger.CtxDebugf(ctx, "console: allocated %q at %d (%d bytes)", label, addr, size)
	s.refreshSelection()
	return s.printf("Memory allocated with label '%s'.\n", label)
}

func (s *Session) deallocate(ctx context.Context, label string) error {
	if label == "" {
		return ErrNoSelection
	}
	if err := s.alloc.Deallocate(label); err != nil {
		logger.CtxInfof(ctx, "console: deallocate %q: %v", label, err)
		return &labelError{kind: ErrFreeFailed, label: label, err: err}
	}
	logger.CtxDebugf(ctx, "console: deallocated %q, %d bytes free", label, s.alloc.Available())
	s.refreshSelection()
	return s.printf("Memory deallocated for label '%s'.\n", label)
}

func (s *Session) sel(label string) error {
	if _, ok := s.alloc.Lookup(label); !ok {
		return errors.Wrapf(buddy.ErrUnknownLabel, "label %q", label)
	}
	s.selected = label
	return nil
}

func (s *Session) labels() error {
	var sb strings.Builder
	for _, label := range s.alloc.Labels() {
		mark := " "
		if label == s.selected {
			mark = "*"
		}
		blk, _ := s.alloc.Lookup(label)
		sb.WriteString(fmt.Sprintf("%s %s\t%.2f MB at %.2f MB\n", mark, label, report.ToMiB(blk.Size), report.ToMiB(blk.Address)))
	}
	_, err := io.WriteString(s.out, sb.String())
	return err
}

// refreshSelection selects the first live label, like the picker
// does after every change.
func (s *Session) refreshSelection() {
	s.selected = ""
	if labels := s.alloc.Labels(); len(labels) > 0 {
		s.selected = labels[0]
	}
}

func (s *Session) printf(format string, args ...interface{}) error {
	_, err := fmt.Fprintf(s.out, format, args...)
	return err
}

// labelError is an allocator failure on behalf of one label.
// It matches kind under errors.Is and unwraps to the allocator error.
type labelError struct {
	kind  error
	label string
	err   error
}

func (e *labelError) Error() string {
	return e.message() + ": " + e.err.Error()
}

func (e *labelError) Unwrap() error {
	return e.err
}

func (e *labelError) Is(target error) bool {
	return target == e.kind
}

func (e *labelError) message() string {
	if e.kind == ErrFreeFailed {
		return fmt.Sprintf("failed to deallocate memory for label '%s'", e.label)
	}
	return e.kind.Error()
}

// userMessage returns the text shown for err: the front-end message
// with the first letter upper-cased and a trailing period.
func userMessage(err error) string {
	msg := err.Error()
	var le *labelError
	if errors.As(err, &le) {
		msg = le.message()
		return strings.ToUpper(msg[:1]) + msg[1:] + "."
	}
	for _, known := range []error{
		ErrInvalidInput, ErrEmptyLabel, ErrLabelInUse, ErrAllocationFailed,
		ErrNoSelection, ErrInvalidMemorySize,
	} {
		if errors.Is(err, known) {
			msg = known.Error()
			break
		}
	}
	if msg == "" {
		return msg
	}
	return strings.ToUpper(msg[:1]) + msg[1:] + "."
}

func validMemorySize(mb uint64) bool {
	for _, size := range MemorySizes {
		if size == mb {
			return true
		}
	}
	return false
}
