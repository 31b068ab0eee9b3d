// seehuhn.de/go/fontgen - build OpenType fonts from FontForge sources
// Copyright (C) 2026  Jochen Voss <voss@seehuhn.de>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package fontgen

import (
	"fmt"
	"math"
	"strings"

	"seehuhn.de/go/sfnt/glyph"

	"seehuhn.de/go/fontgen/sfd"
)

// ProblemKind classifies the problems found by [Font.Validate].
type ProblemKind int

// These are the problems detected by [Font.Validate].
const (
	OpenContour ProblemKind = iota + 1
	DegenerateContour
	PointOutOfRange
	BadGlyphName
	DuplicateGlyphName
	MissingNotdef
	BadAdvanceWidth
	BadUnitsPerEm
	TooManyGlyphs
	BadGlyphBBox
	BadCMapEntry
)

func (k ProblemKind) String() string {
	switch k {
	case OpenContour:
		return "open contour"
	case DegenerateContour:
		return "degenerate contour"
	case PointOutOfRange:
		return "point out of range"
	case BadGlyphName:
		return "invalid glyph name"
	case DuplicateGlyphName:
		return "duplicate glyph name"
	case MissingNotdef:
		return "missing .notdef glyph"
	case BadAdvanceWidth:
		return "invalid advance width"
	case BadUnitsPerEm:
		return "invalid units per em"
	case TooManyGlyphs:
		return "too many glyphs"
	case BadGlyphBBox:
		return "invalid glyph bounding box"
	case BadCMapEntry:
		return "invalid cmap entry"
	default:
		return fmt.Sprintf("ProblemKind(%d)", int(k))
	}
}

// Problem is an error found in a font.
type Problem struct {
	Kind ProblemKind

	// GID and Glyph identify the affected glyph.  For problems which
	// affect the font as a whole, Glyph is empty and GID is 0.
	GID   glyph.ID
	Glyph string

	// Detail gives additional information, for example the affected
	// contour.
	Detail string
}

func (p Problem) String() string {
	var b strings.Builder
	if p.Glyph != "" {
		fmt.Fprintf(&b, "glyph %d (%s): ", p.GID, p.Glyph)
	} else if p.GID != 0 {
		fmt.Fprintf(&b, "glyph %d: ", p.GID)
	}
	b.WriteString(p.Kind.String())
	if p.Detail != "" {
		b.WriteString(" (" + p.Detail + ")")
	}
	return b.String()
}

// Report lists the problems found by [Font.Validate].
type Report struct {
	Problems []Problem
}

// ErrorCount returns the number of problems found.
func (r *Report) ErrorCount() int {
	return len(r.Problems)
}

// Has reports whether a problem of the given kind was found.
func (r *Report) Has(kind ProblemKind) bool {
	for _, p := range r.Problems {
		if p.Kind == kind {
			return true
		}
	}
	return false
}

func (r *Report) String() string {
	if len(r.Problems) == 0 {
		return "no problems found"
	}
	lines := make([]string, len(r.Problems))
	for i, p := range r.Problems {
		lines[i] = p.String()
	}
	return strings.Join(lines, "\n")
}

func (r *Report) add(kind ProblemKind, gid glyph.ID, name, detail string) {
	r.Problems = append(r.Problems, Problem{
		Kind:   kind,
		GID:    gid,
		Glyph:  name,
		Detail: detail,
	})
}

const (
	maxGlyphNameLength = 63
	minUnitsPerEm      = 16
	maxUnitsPerEm      = 16384
)

// Validate checks the font for errors which prevent the generation of a
// usable font file.  The font is not modified.
func (f *Font) Validate() *Report {
	r := &Report{}

	upem := int(f.info.UnitsPerEm)
	numGlyphs := f.info.NumGlyphs()
	if f.source != nil {
		upem = f.source.UnitsPerEm
		numGlyphs = f.source.NumGlyphs
	}

	if upem < minUnitsPerEm || upem > maxUnitsPerEm {
		r.add(BadUnitsPerEm, 0, "", fmt.Sprintf("%d", upem))
	}
	if numGlyphs > math.MaxUint16 {
		r.add(TooManyGlyphs, 0, "", fmt.Sprintf("%d", numGlyphs))
		numGlyphs = math.MaxUint16
	}

	haveNames := false
	for i := 0; i < numGlyphs; i++ {
		if f.info.GlyphName(glyph.ID(i)) != "" {
			haveNames = true
			break
		}
	}
	if numGlyphs == 0 || haveNames && f.info.GlyphName(0) != notdefName {
		r.add(MissingNotdef, 0, "", "")
	}

	seen := make(map[string]glyph.ID, numGlyphs)
	for i := 0; i < numGlyphs; i++ {
		gid := glyph.ID(i)
		name := f.info.GlyphName(gid)

		if haveNames {
			if !isValidGlyphName(name) {
				r.add(BadGlyphName, gid, name, fmt.Sprintf("%q", name))
			} else if first, dup := seen[name]; dup {
				r.add(DuplicateGlyphName, gid, name, fmt.Sprintf("also used by glyph %d", first))
			} else {
				seen[name] = gid
			}
		}

		width := f.info.GlyphWidth(gid)
		if width < 0 || width > math.MaxUint16 {
			r.add(BadAdvanceWidth, gid, name, fmt.Sprintf("%g", width))
		}

		outOfRange := false
		if f.source != nil {
			outOfRange = checkContours(r, gid, name, f.source.Contours[gid])
		}
		if !outOfRange {
			bbox := f.info.GlyphBBox(gid)
			if bbox.LLx > bbox.URx || bbox.LLy > bbox.URy {
				r.add(BadGlyphBBox, gid, name,
					fmt.Sprintf("[%d %d %d %d]", bbox.LLx, bbox.LLy, bbox.URx, bbox.URy))
			}
		}
	}

	f.checkCMap(r)

	return r
}

// checkContours adds problems for open, degenerate and out-of-range
// contours.  The return value indicates whether any point is outside
// the range of 16-bit font units.
func checkContours(r *Report, gid glyph.ID, name string, contours []sfd.Contour) bool {
	outOfRange := false
	for i, c := range contours {
		points := c.Points()
		degenerate := true
		for _, p := range points[1:] {
			if p != points[0] {
				degenerate = false
				break
			}
		}
		if degenerate {
			r.add(DegenerateContour, gid, name, fmt.Sprintf("contour %d", i))
		} else if !c.Closed() {
			r.add(OpenContour, gid, name, fmt.Sprintf("contour %d", i))
		}

		for _, p := range points {
			if p.X < math.MinInt16 || p.X > math.MaxInt16 ||
				p.Y < math.MinInt16 || p.Y > math.MaxInt16 {
				r.add(PointOutOfRange, gid, name,
					fmt.Sprintf("contour %d, point (%g, %g)", i, p.X, p.Y))
				outOfRange = true
				break
			}
		}
	}
	return outOfRange
}

func (f *Font) checkCMap(r *Report) {
	if f.info.CMapTable == nil {
		return
	}
	subtable, err := f.info.CMapTable.GetBest()
	if err != nil || subtable == nil {
		return
	}
	numGlyphs := f.info.NumGlyphs()
	low, high := subtable.CodeRange()
	for c := low; c <= high; c++ {
		gid := subtable.Lookup(c)
		if int(gid) >= numGlyphs {
			r.add(BadCMapEntry, 0, "", fmt.Sprintf("%U maps to glyph %d", c, gid))
		}
	}
}

// isValidGlyphName checks the rules for PostScript glyph names used in
// OpenType fonts.  Names may not start with a digit.
func isValidGlyphName(name string) bool {
	if name == "" || len(name) > maxGlyphNameLength {
		return false
	}
	if c := name[0]; c >= '0' && c <= '9' {
		return false
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9':
		case c == '.', c == '_':
		default:
			return false
		}
	}
	return true
}
