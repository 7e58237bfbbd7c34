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

// Package report turns a buddy.Layout into something a front end can draw:
// a sorted list of used, slack and free segments over the region, the
// fragmentation totals, and the labels offered for deallocation.
package report

import (
	"math"
	"sort"

	"github.com/pkg/errors"

	"github.com/cloudwego/buddyalloc/buddy"
)

// MiB is the unit sizes are entered and displayed in.
const MiB = 1 << 20

// ErrSizeOverflow is returned when a MiB value does not fit in 64 bits of bytes.
var ErrSizeOverflow = errors.New("report: size overflows uint64")

// FromMiB converts mb mebibytes to bytes.
func FromMiB(mb uint64) (uint64, error) {
	if mb > math.MaxUint64/MiB {
		return 0, errors.Wrapf(ErrSizeOverflow, "%d MiB", mb)
	}
	return mb * MiB, nil
}

// ToMiB converts bytes to mebibytes.
func ToMiB(n uint64) float64 {
	return float64(n) / MiB
}

// Kind classifies a Segment.
type Kind int

const (
	// KindUsed is the requested part of an allocated block.
	KindUsed Kind = iota
	// KindSlack is the rounded-up tail of an allocated block (internal fragmentation).
	KindSlack
	// KindFree is a free block.
	KindFree
)

func (k Kind) String() string {
	switch k {
	case KindUsed:
		return "used"
	case KindSlack:
		return "slack"
	case KindFree:
		return "free"
	}
	return "unknown"
}

// Segment is a contiguous range of the region with a single Kind.
// Label is empty for free segments.
type Segment struct {
	Kind   Kind
	Offset uint64
	Length uint64
	Label  string
}

// End returns the first offset after the segment.
func (s Segment) End() uint64 {
	return s.Offset + s.Length
}

// Report is the presentation model of one allocator state.
type Report struct {
	Total    uint64
	Segments []Segment

	Internal uint64
	External uint64

	// Labels are the live labels in sorted order, Selected is the default
	// choice for deallocation (the first label, or empty).
	Labels   []string
	Selected string
}

// Build creates a Report from a layout snapshot of a region of total bytes.
func Build(l buddy.Layout, total uint64) *Report {
	r := &Report{
		Total:    total,
		Segments: make([]Segment, 0, 2*len(l.Allocated)+len(l.Free)),
		Labels:   make([]string, 0, len(l.Allocated)),
	}
	for _, b := range l.Allocated {
		r.Segments = append(r.Segments, Segment{Kind: KindUsed, Offset: b.Address, Length: b.Requested, Label: b.Label})
		if slack := b.Size - b.Requested; slack > 0 {
			r.Segments = append(r.Segments, Segment{Kind: KindSlack, Offset: b.Address + b.Requested, Length: slack, Label: b.Label})
			r.Internal += slack
		}
		r.Labels = append(r.Labels, b.Label)
	}
	for _, fb := range l.Free {
		r.Segments = append(r.Segments, Segment{Kind: KindFree, Offset: fb.Address, Length: fb.Size})
		r.External += fb.Size
	}
	sort.Slice(r.Segments, func(i, j int) bool {
		return r.Segments[i].Offset < r.Segments[j].Offset
	})
	sort.Strings(r.Labels)
	if len(r.Labels) > 0 {
		r.Selected = r.Labels[0]
	}
	return r
}

// Coverage returns the total length of all segments.
// For a consistent allocator it equals Total.
func (r *Report) Coverage() uint64 {
	var n uint64
	for _, s := range r.Segments {
		n += s.Length
	}
	return n
}

// At returns the segment containing offset.
func (r *Report) At(offset uint64) (Segment, bool) {
	i := sort.Search(len(r.Segments), func(i int) bool {
		return r.Segments[i].End() > offset
	})
	if i == len(r.Segments) || r.Segments[i].Offset > offset {
		return Segment{}, false
	}
	return r.Segments[i], true
}
