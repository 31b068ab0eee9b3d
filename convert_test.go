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
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"seehuhn.de/go/postscript/funit"
	"seehuhn.de/go/sfnt/cff"
	"seehuhn.de/go/sfnt/glyph"
	"seehuhn.de/go/sfnt/os2"

	"seehuhn.de/go/fontgen/internal/testfont"
)

func TestConvertMetrics(t *testing.T) {
	info := loadSFD(t, testfont.SFD).Info()

	if info.FamilyName != "Fontgen Test" {
		t.Errorf("wrong family name %q", info.FamilyName)
	}
	if info.UnitsPerEm != 1000 {
		t.Errorf("wrong units per em %d", info.UnitsPerEm)
	}
	if info.Ascent != 800 || info.Descent != -200 || info.LineGap != 90 {
		t.Errorf("wrong vertical metrics %d %d %d",
			info.Ascent, info.Descent, info.LineGap)
	}
	if info.Weight != os2.WeightNormal || info.Width != os2.WidthNormal {
		t.Errorf("wrong weight/width %d/%d", info.Weight, info.Width)
	}
	if !info.IsRegular || info.IsBold || info.IsItalic {
		t.Error("wrong style flags")
	}
	if info.UnderlinePosition != -100 || info.UnderlineThickness != 50 {
		t.Errorf("wrong underline %g %g",
			info.UnderlinePosition, info.UnderlineThickness)
	}
	stamp := time.Unix(1767225600, 0)
	if !info.CreationTime.Equal(stamp) || !info.ModificationTime.Equal(stamp) {
		t.Errorf("wrong time stamps %s %s", info.CreationTime, info.ModificationTime)
	}
	if info.FontMatrix[0] != 0.001 || info.FontMatrix[3] != 0.001 {
		t.Errorf("wrong font matrix %v", info.FontMatrix)
	}
}

func TestConvertCMap(t *testing.T) {
	info := loadSFD(t, testfont.SFD).Info()
	subtable, err := info.CMapTable.GetBest()
	if err != nil {
		t.Fatal(err)
	}
	cases := []struct {
		r   rune
		gid glyph.ID
	}{
		{' ', 1},
		{'f', 2},
		{'i', 3},
		{'o', 4},
		{0xFB01, 5},
		{'z', 0},
	}
	for _, test := range cases {
		if got := subtable.Lookup(test.r); got != test.gid {
			t.Errorf("%U: got glyph %d, want %d", test.r, got, test.gid)
		}
	}
}

func TestConvertNotdef(t *testing.T) {
	font := loadSFD(t, testfont.NoNotdefSFD)
	info := font.Info()
	if font.NumGlyphs() != 7 || info.NumGlyphs() != 7 {
		t.Fatalf("wrong number of glyphs %d", info.NumGlyphs())
	}
	if name := info.GlyphName(0); name != ".notdef" {
		t.Errorf("glyph 0 is %q", name)
	}
	if w := info.GlyphWidth(0); w != 500 {
		t.Errorf("wrong .notdef width %g", w)
	}
	if name := info.GlyphName(1); name != "space" {
		t.Errorf("glyph 1 is %q", name)
	}

	// without time stamps in the source or a file, the zero time is used
	if !info.CreationTime.IsZero() {
		t.Errorf("unexpected creation time %s", info.CreationTime)
	}
}

func TestConvertPrivate(t *testing.T) {
	outlines := loadSFD(t, testfont.SFD).Info().Outlines.(*cff.Outlines)
	if len(outlines.Private) != 1 {
		t.Fatalf("wrong number of private dicts %d", len(outlines.Private))
	}
	priv := outlines.Private[0]
	want := []funit.Int16{-12, 0, 500, 512, 700, 712}
	if d := cmp.Diff(want, priv.BlueValues); d != "" {
		t.Errorf("BlueValues (-want +got):\n%s", d)
	}
	if priv.BlueScale != 0.039 || priv.BlueShift != 7 || priv.BlueFuzz != 1 {
		t.Errorf("wrong blue parameters %g %d %d",
			priv.BlueScale, priv.BlueShift, priv.BlueFuzz)
	}
	if priv.StdHW != 50 || priv.StdVW != 80 {
		t.Errorf("wrong stems %g %g", priv.StdHW, priv.StdVW)
	}

	def := makePrivate(nil)
	if def.BlueScale != 0.039625 || def.BlueShift != 7 || def.BlueFuzz != 1 {
		t.Errorf("wrong default private dict %v", def)
	}
}

func TestConvertOutlines(t *testing.T) {
	outlines := loadSFD(t, testfont.SFD).Info().Outlines.(*cff.Outlines)

	cases := []struct {
		gid      glyph.ID
		moveTo   int
		lineTo   int
		curveTo  int
		advWidth float64
	}{
		{1, 0, 0, 0, 250},  // space
		{2, 2, 6, 0, 320},  // f
		{4, 1, 0, 4, 500},  // o
		{6, 4, 12, 0, 540}, // f_i.calt
	}
	for _, test := range cases {
		g := outlines.Glyphs[test.gid]
		var moveTo, lineTo, curveTo int
		for _, cmd := range g.Cmds {
			switch cmd.Op {
			case cff.OpMoveTo:
				moveTo++
			case cff.OpLineTo:
				lineTo++
			case cff.OpCurveTo:
				curveTo++
			}
		}
		if moveTo != test.moveTo || lineTo != test.lineTo || curveTo != test.curveTo {
			t.Errorf("%s: got %d/%d/%d commands, want %d/%d/%d", g.Name,
				moveTo, lineTo, curveTo, test.moveTo, test.lineTo, test.curveTo)
		}
		if g.Width != test.advWidth {
			t.Errorf("%s: wrong width %g", g.Name, g.Width)
		}
	}

	// "f_i.calt" is "f" followed by "i" shifted by 320 units
	composite := outlines.Glyphs[6].Cmds
	i := outlines.Glyphs[3].Cmds
	tail := composite[len(composite)-len(i):]
	for k, cmd := range i {
		got := tail[k].Args
		if got[0] != cmd.Args[0]+320 || got[1] != cmd.Args[1] {
			t.Errorf("command %d: got %v, want %v shifted", k, got, cmd.Args)
		}
	}
}

func TestConvertEncoding(t *testing.T) {
	outlines := loadSFD(t, testfont.SFD).Info().Outlines.(*cff.Outlines)
	enc := outlines.Encoding
	if len(enc) != 256 {
		t.Fatalf("wrong encoding length %d", len(enc))
	}
	want := map[int]glyph.ID{' ': 1, 'f': 2, 'i': 3, 'o': 4, 'A': 0}
	for c, gid := range want {
		if enc[c] != gid {
			t.Errorf("code %d: got glyph %d, want %d", c, enc[c], gid)
		}
	}
}

func TestToInt16(t *testing.T) {
	cases := []struct {
		in  float64
		out funit.Int16
	}{
		{0, 0},
		{1.4, 1},
		{-1.6, -2},
		{40000, 32767},
		{-40000, -32768},
	}
	for _, test := range cases {
		if got := toInt16(test.in); got != test.out {
			t.Errorf("toInt16(%g) = %d, want %d", test.in, got, test.out)
		}
	}
}
