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

package report

import (
	"fmt"
	"io"
	"math/bits"
	"strings"

	"github.com/bytedance/gopkg/lang/mcache"
	"github.com/bytedance/gopkg/util/xxhash3"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// DefaultWidth is the default number of cells of the bar.
const DefaultWidth = 64

const (
	slackGlyph = '~'
	freeGlyph  = '.'
)

// usedGlyphs are assigned to labels by hash so one label keeps its glyph across renders.
var usedGlyphs = []byte("#@%&*+=ox$")

var (
	usedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))  // green
	slackStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10")) // light green
	freeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("7"))  // light grey
)

// Renderer draws a Report as text.
type Renderer struct {
	// Width is the number of cells of the bar, DefaultWidth if <= 0.
	Width int
	// NoColor disables terminal styling.
	NoColor bool
}

// Render writes the bar, the segment table and the fragmentation lines to w.
func (rd *Renderer) Render(w io.Writer, r *Report) error {
	var sb strings.Builder
	sb.WriteString(rd.Bar(r))
	sb.WriteByte('\n')

	p := message.NewPrinter(language.English)
	sb.WriteString(fmt.Sprintf("%-6s %12s %12s %16s  %s\n", "KIND", "START(MB)", "SIZE(MB)", "BYTES", "LABEL"))
	for _, s := range r.Segments {
		sb.WriteString(fmt.Sprintf("%-6s %12.2f %12.2f %16s  %s\n",
			s.Kind, ToMiB(s.Offset), ToMiB(s.Length), p.Sprintf("%d", s.Length), s.Label))
	}
	writeFragmentation(&sb, r.Internal, r.External)

	_, err := io.WriteString(w, sb.String())
	return err
}

// Bar returns one line of Width cells. Each cell shows the segment found at
// the start offset of the cell: a label glyph for used space, '~' for slack
// and '.' for free space.
func (rd *Renderer) Bar(r *Report) string {
	width := rd.Width
	if width <= 0 {
		width = DefaultWidth
	}
	if r.Total == 0 || len(r.Segments) == 0 {
		return strings.Repeat(" ", width)
	}

	buf := mcache.Malloc(0, width)
	defer mcache.Free(buf)

	var (
		out     strings.Builder
		runKind = Kind(-1)
		seg     int
	)
	flush := func() {
		if len(buf) == 0 {
			return
		}
		if rd.NoColor {
			out.Write(buf)
		} else {
			out.WriteString(styleOf(runKind).Render(string(buf)))
		}
		buf = buf[:0]
	}
	for i := 0; i < width; i++ {
		offset := cellOffset(i, r.Total, width)
		for seg < len(r.Segments)-1 && r.Segments[seg].End() <= offset {
			seg++
		}
		s := r.Segments[seg]
		if s.Kind != runKind {
			flush()
			runKind = s.Kind
		}
		buf = append(buf, glyphOf(s))
	}
	flush()
	return out.String()
}

// WriteFragmentation writes the two fragmentation lines in MB.
func WriteFragmentation(w io.Writer, internal, external uint64) error {
	var sb strings.Builder
	writeFragmentation(&sb, internal, external)
	_, err := io.WriteString(w, sb.String())
	return err
}

func writeFragmentation(sb *strings.Builder, internal, external uint64) {
	sb.WriteString(fmt.Sprintf("Internal Fragmentation: %.2f MB\n", ToMiB(internal)))
	sb.WriteString(fmt.Sprintf("External Fragmentation: %.2f MB\n", ToMiB(external)))
}

// cellOffset returns i*total/width without overflowing.
func cellOffset(i int, total uint64, width int) uint64 {
	hi, lo := bits.Mul64(uint64(i), total)
	q, _ := bits.Div64(hi, lo, uint64(width))
	return q
}

func glyphOf(s Segment) byte {
	switch s.Kind {
	case KindSlack:
		return slackGlyph
	case KindFree:
		return freeGlyph
	}
	return labelGlyph(s.Label)
}

func labelGlyph(label string) byte {
	return usedGlyphs[xxhash3.HashString(label)%uint64(len(usedGlyphs))]
}

func styleOf(k Kind) lipgloss.Style {
	switch k {
	case KindSlack:
		return slackStyle
	case KindFree:
		return freeStyle
	}
	return usedStyle
}
