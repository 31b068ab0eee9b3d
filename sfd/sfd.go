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

// Package sfd reads FontForge "Spline Font Database" files.
//
// Only the parts of the format which describe outline fonts are
// interpreted: the font-wide naming and metrics keys, the PostScript
// private dictionary, and the glyph outlines of the foreground layer.
// Everything else (bitmap strikes, TrueType instructions, OpenType
// lookups stored by FontForge, background layers, ...) is skipped.
//
// The format is described at
// https://fontforge.org/docs/techref/sfdformat.html .
package sfd

import (
	"time"

	"seehuhn.de/go/geom/vec"
)

// Font is the content of an SFD file.
type Font struct {
	FontName   string
	FullName   string
	FamilyName string
	Weight     string
	Copyright  string
	Version    string

	ItalicAngle       float64
	UnderlinePosition float64
	UnderlineWidth    float64

	// Ascent and Descent are both non-negative; the size of the em square
	// is Ascent+Descent.
	Ascent  int
	Descent int
	LineGap int

	// TTFWeight and TTFWidth are the OS/2 usWeightClass and usWidthClass
	// values.  Zero means "not set".
	TTFWeight int
	TTFWidth  int

	CreationTime     time.Time
	ModificationTime time.Time

	Private *Private

	// Glyphs is ordered by the glyph index stored in the file.
	Glyphs []*Glyph
}

// Private holds the PostScript private dictionary entries which are used
// for hinting CFF outlines.
type Private struct {
	BlueValues []float64
	OtherBlues []float64
	BlueScale  float64
	BlueShift  float64
	BlueFuzz   float64
	StdHW      float64
	StdVW      float64
}

// UnitsPerEm returns the size of the em square in font design units.
func (f *Font) UnitsPerEm() int {
	return f.Ascent + f.Descent
}

// Glyph is a single glyph of an SFD font.
type Glyph struct {
	Name string

	// Unicode is the primary code point of the glyph, or -1 if the glyph
	// is not mapped.  AltUnicode lists additional code points.
	Unicode    rune
	AltUnicode []rune

	Width int

	Contours []Contour
	Refs     []Reference

	// Pos is the glyph index as stored in the file.
	Pos int
}

// Contour is one closed or open sub-path of a glyph outline.
type Contour struct {
	Start    vec.Vec2
	Segments []Segment
}

// Segment is a straight line (if Curve is false) or a cubic Bézier curve
// from the end of the previous segment to End.
type Segment struct {
	Curve  bool
	C1, C2 vec.Vec2
	End    vec.Vec2
}

// Closed reports whether the contour ends where it started.
func (c Contour) Closed() bool {
	if len(c.Segments) == 0 {
		return false
	}
	return c.Segments[len(c.Segments)-1].End == c.Start
}

// Points returns all points of the contour, including control points.
func (c Contour) Points() []vec.Vec2 {
	res := make([]vec.Vec2, 0, 1+3*len(c.Segments))
	res = append(res, c.Start)
	for _, s := range c.Segments {
		if s.Curve {
			res = append(res, s.C1, s.C2)
		}
		res = append(res, s.End)
	}
	return res
}

// Transform returns a copy of the contour with the affine transformation
// m applied to all points.
func (c Contour) Transform(m [6]float64) Contour {
	apply := func(p vec.Vec2) vec.Vec2 {
		return vec.Vec2{
			X: m[0]*p.X + m[2]*p.Y + m[4],
			Y: m[1]*p.X + m[3]*p.Y + m[5],
		}
	}
	res := Contour{
		Start:    apply(c.Start),
		Segments: make([]Segment, len(c.Segments)),
	}
	for i, s := range c.Segments {
		res.Segments[i] = Segment{
			Curve: s.Curve,
			C1:    apply(s.C1),
			C2:    apply(s.C2),
			End:   apply(s.End),
		}
	}
	return res
}

// Reference is a reference from a composite glyph to another glyph.
type Reference struct {
	// Pos is the glyph index of the referenced glyph.
	Pos    int
	Matrix [6]float64
}

// Outline returns the contours of the glyph, with all references resolved.
// References to glyphs which are not in the font are ignored.
func (f *Font) Outline(g *Glyph) []Contour {
	byPos := make(map[int]*Glyph, len(f.Glyphs))
	for _, g := range f.Glyphs {
		byPos[g.Pos] = g
	}
	return f.outline(g, byPos, 0)
}

// maxRefDepth limits the nesting of references, to break reference cycles.
const maxRefDepth = 16

func (f *Font) outline(g *Glyph, byPos map[int]*Glyph, depth int) []Contour {
	res := append([]Contour(nil), g.Contours...)
	if depth >= maxRefDepth {
		return res
	}
	for _, ref := range g.Refs {
		other, ok := byPos[ref.Pos]
		if !ok {
			continue
		}
		for _, c := range f.outline(other, byPos, depth+1) {
			res = append(res, c.Transform(ref.Matrix))
		}
	}
	return res
}
