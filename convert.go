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
	"math"
	"time"

	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/vec"
	"seehuhn.de/go/postscript/funit"
	"seehuhn.de/go/postscript/psenc"
	"seehuhn.de/go/postscript/type1"

	"seehuhn.de/go/sfnt"
	"seehuhn.de/go/sfnt/cff"
	"seehuhn.de/go/sfnt/cmap"
	"seehuhn.de/go/sfnt/glyph"
	"seehuhn.de/go/sfnt/head"
	"seehuhn.de/go/sfnt/os2"

	"seehuhn.de/go/fontgen/sfd"
)

const notdefName = ".notdef"

// fromSFD converts an SFD source into a font with CFF outlines.
//
// Glyph IDs are assigned in the order of the glyph indices stored in the
// source.  If the source has no ".notdef" glyph, an empty one is inserted
// at glyph ID 0.
func fromSFD(src *sfd.Font, mtime time.Time) (*sfnt.Font, *sourceInfo) {
	upem := src.UnitsPerEm()

	glyphs := src.Glyphs
	if !hasGlyph(src, notdefName) {
		notdef := &sfd.Glyph{
			Name:    notdefName,
			Unicode: -1,
			Width:   upem / 2,
			Pos:     -1,
		}
		glyphs = append([]*sfd.Glyph{notdef}, glyphs...)
	}

	source := &sourceInfo{
		NumGlyphs:  len(glyphs),
		UnitsPerEm: upem,
		Contours:   make(map[glyph.ID][]sfd.Contour, len(glyphs)),
	}

	outlines := &cff.Outlines{
		Private:  []*type1.PrivateDict{makePrivate(src.Private)},
		FDSelect: func(glyph.ID) int { return 0 },
	}
	cmapData := cmap.Format4{}
	byName := make(map[string]glyph.ID, len(glyphs))
	var capHeight, xHeight float64
	for i, g := range glyphs {
		gid := glyph.ID(i)
		source.Contours[gid] = g.Contours
		contours := src.Outline(g)

		newGlyph := cff.NewGlyph(g.Name, float64(g.Width))
		for _, c := range contours {
			drawContour(newGlyph, c)
		}
		outlines.Glyphs = append(outlines.Glyphs, newGlyph)

		if _, seen := byName[g.Name]; !seen {
			byName[g.Name] = gid
		}
		for _, r := range append([]rune{g.Unicode}, g.AltUnicode...) {
			if r < 0 || r > 0xFFFF {
				continue
			}
			if _, seen := cmapData[uint16(r)]; !seen {
				cmapData[uint16(r)] = gid
			}
		}
		switch g.Unicode {
		case 'H':
			capHeight = top(contours)
		case 'x':
			xHeight = top(contours)
		}
	}

	encoding := make([]glyph.ID, 256)
	for i, name := range psenc.StandardEncoding {
		encoding[i] = byName[name]
	}
	outlines.Encoding = encoding

	var cmapTable cmap.Table
	if len(cmapData) > 0 {
		subtable := cmapData.Encode(0)
		cmapTable = cmap.Table{
			{PlatformID: 0, EncodingID: 3}: subtable,
			{PlatformID: 3, EncodingID: 1}: subtable,
		}
	}

	familyName := src.FamilyName
	if familyName == "" {
		familyName = src.FontName
	}
	version, err := head.VersionFromString(src.Version)
	if err != nil {
		version = 0x00010000
	}
	creation, modification := src.CreationTime, src.ModificationTime
	if creation.IsZero() {
		creation = mtime
	}
	if modification.IsZero() {
		modification = creation
	}

	weight := os2.WeightNormal
	if src.TTFWeight > 0 {
		weight = os2.Weight(src.TTFWeight)
	}
	width := os2.WidthNormal
	if src.TTFWidth >= 1 && src.TTFWidth <= 9 {
		width = os2.Width(src.TTFWidth)
	}
	isBold := weight >= 600
	isItalic := src.ItalicAngle != 0

	q := 1 / float64(upem)
	info := &sfnt.Font{
		FamilyName: familyName,
		Width:      width,
		Weight:     weight,
		IsItalic:   isItalic,
		IsBold:     isBold,
		IsRegular:  !isBold && !isItalic,

		Version:          version,
		CreationTime:     creation,
		ModificationTime: modification,

		Copyright: src.Copyright,
		PermUse:   os2.PermInstall,

		UnitsPerEm: uint16(min(upem, math.MaxUint16)),
		FontMatrix: matrix.Matrix{q, 0, 0, q, 0, 0},

		Ascent:    toInt16(float64(src.Ascent)),
		Descent:   toInt16(-float64(src.Descent)),
		LineGap:   toInt16(float64(src.LineGap)),
		CapHeight: toInt16(capHeight),
		XHeight:   toInt16(xHeight),

		ItalicAngle:        src.ItalicAngle,
		UnderlinePosition:  funit.Float64(src.UnderlinePosition),
		UnderlineThickness: funit.Float64(src.UnderlineWidth),

		CMapTable: cmapTable,
		Outlines:  outlines,
	}
	return info, source
}

func hasGlyph(src *sfd.Font, name string) bool {
	for _, g := range src.Glyphs {
		if g.Name == name {
			return true
		}
	}
	return false
}

// drawContour appends a contour to a CFF glyph.  CFF paths are closed
// implicitly, so a final straight line back to the start point is
// omitted.
func drawContour(g *cff.Glyph, c sfd.Contour) {
	if len(c.Segments) == 0 {
		return
	}
	segs := c.Segments
	if last := segs[len(segs)-1]; !last.Curve && last.End == c.Start {
		segs = segs[:len(segs)-1]
	}

	g.MoveTo(c.Start.X, c.Start.Y)
	for _, s := range segs {
		if s.Curve {
			g.CurveTo(s.C1.X, s.C1.Y, s.C2.X, s.C2.Y, s.End.X, s.End.Y)
		} else {
			g.LineTo(s.End.X, s.End.Y)
		}
	}
}

func makePrivate(p *sfd.Private) *type1.PrivateDict {
	res := &type1.PrivateDict{
		BlueScale: 0.039625,
		BlueShift: 7,
		BlueFuzz:  1,
	}
	if p == nil {
		return res
	}
	res.BlueValues = toInt16Slice(p.BlueValues)
	res.OtherBlues = toInt16Slice(p.OtherBlues)
	if p.BlueScale > 0 {
		res.BlueScale = p.BlueScale
	}
	if p.BlueShift > 0 {
		res.BlueShift = int32(math.Round(p.BlueShift))
	}
	if p.BlueFuzz > 0 {
		res.BlueFuzz = int32(math.Round(p.BlueFuzz))
	}
	res.StdHW = p.StdHW
	res.StdVW = p.StdVW
	return res
}

// top returns the largest y coordinate of the on-curve points.
func top(contours []sfd.Contour) float64 {
	var res float64
	first := true
	for _, c := range contours {
		points := []vec.Vec2{c.Start}
		for _, s := range c.Segments {
			points = append(points, s.End)
		}
		for _, p := range points {
			if first || p.Y > res {
				res = p.Y
				first = false
			}
		}
	}
	return res
}

func toInt16(x float64) funit.Int16 {
	x = math.Round(x)
	switch {
	case x < math.MinInt16:
		return math.MinInt16
	case x > math.MaxInt16:
		return math.MaxInt16
	default:
		return funit.Int16(x)
	}
}

func toInt16Slice(xx []float64) []funit.Int16 {
	if xx == nil {
		return nil
	}
	res := make([]funit.Int16, len(xx))
	for i, x := range xx {
		res[i] = toInt16(x)
	}
	return res
}
