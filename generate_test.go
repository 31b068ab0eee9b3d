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
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	xsfnt "golang.org/x/image/font/sfnt"

	"seehuhn.de/go/fontgen/internal/testfont"
)

// generateSample builds the test font the way the command line tool does.
func generateSample(t *testing.T, fname string) {
	t.Helper()
	font := loadSFD(t, testfont.SFD)
	if r := font.Validate(); r.ErrorCount() > 0 {
		t.Fatalf("validation failed:\n%s", r)
	}
	err := font.MergeFeatureSource("calt.fea", []byte(testfont.Calt))
	if err != nil {
		t.Fatal(err)
	}
	err = font.SetVersion(DefaultVersion)
	if err != nil {
		t.Fatal(err)
	}
	err = font.Generate(fname)
	if err != nil {
		t.Fatal(err)
	}
}

func TestGenerate(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "out.otf")
	generateSample(t, fname)

	fi, err := os.Stat(fname)
	if err != nil {
		t.Fatal(err)
	}
	if mode := fi.Mode().Perm(); mode != 0o644 {
		t.Errorf("wrong permissions %o", mode)
	}

	font, err := Open(fname)
	if err != nil {
		t.Fatal(err)
	}
	if font.Format() != FormatSFNT || !font.Info().IsCFF() {
		t.Errorf("output is not a CFF-based OpenType font")
	}
	if v := font.Version(); v != "1.001" {
		t.Errorf("wrong version %q", v)
	}
	if n := font.NumGlyphs(); n != 7 {
		t.Errorf("wrong number of glyphs %d", n)
	}
	if name := font.Info().GlyphName(6); name != "f_i.calt" {
		t.Errorf("glyph 6 is %q", name)
	}

	gsub := font.Info().Gsub
	if gsub == nil {
		t.Fatal("output has no GSUB table")
	}
	var calt []int
	for _, feat := range gsub.FeatureList {
		if feat.Tag == "calt" {
			for _, idx := range feat.Lookups {
				calt = append(calt, int(idx))
			}
		}
	}
	if len(calt) == 0 {
		t.Fatal("output has no calt feature")
	}
	for _, idx := range calt {
		if idx >= len(gsub.LookupList) {
			t.Errorf("calt refers to missing lookup %d", idx)
		}
	}

	if r := font.Validate(); r.Has(BadCMapEntry) || r.Has(MissingNotdef) {
		t.Errorf("problems in generated font:\n%s", r)
	}
}

// TestGenerateReadBack reads the output with an independent OpenType
// implementation.
func TestGenerateReadBack(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "out.otf")
	generateSample(t, fname)

	data, err := os.ReadFile(fname)
	if err != nil {
		t.Fatal(err)
	}
	f, err := xsfnt.Parse(data)
	if err != nil {
		t.Fatal(err)
	}
	if n := f.NumGlyphs(); n != 7 {
		t.Errorf("wrong number of glyphs %d", n)
	}
	var buf xsfnt.Buffer
	for r, want := range map[rune]xsfnt.GlyphIndex{'f': 2, 'i': 3, 0xFB01: 5} {
		gid, err := f.GlyphIndex(&buf, r)
		if err != nil {
			t.Error(err)
			continue
		}
		if gid != want {
			t.Errorf("%U: got glyph %d, want %d", r, gid, want)
		}
	}
}

func TestGenerateDeterministic(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.otf")
	b := filepath.Join(dir, "b.otf")
	generateSample(t, a)
	generateSample(t, b)

	dataA, err := os.ReadFile(a)
	if err != nil {
		t.Fatal(err)
	}
	dataB, err := os.ReadFile(b)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(dataA, dataB) {
		t.Error("output differs between runs")
	}
}

func TestGenerateReplace(t *testing.T) {
	dir := t.TempDir()
	fname := writeFile(t, dir, "out.otf", "old contents")
	generateSample(t, fname)

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "out.otf" {
		t.Errorf("unexpected directory contents %v", entries)
	}
	if _, err := Open(fname); err != nil {
		t.Error(err)
	}
}

func TestGenerateError(t *testing.T) {
	dir := t.TempDir()
	font := loadSFD(t, testfont.SFD)
	err := font.Generate(filepath.Join(dir, "missing", "out.otf"))
	if err == nil {
		t.Fatal("missing directory not detected")
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("unexpected files %v", entries)
	}
}

func TestGenerateTrueType(t *testing.T) {
	font := &Font{info: testfont.GlyfFont(), name: "goregular", format: FormatSFNT}
	err := font.MergeFeatureSource("calt.fea", []byte(testfont.CaltTrueType))
	if err != nil {
		t.Fatal(err)
	}
	err = font.SetVersion(DefaultVersion)
	if err != nil {
		t.Fatal(err)
	}
	buf := &bytes.Buffer{}
	n, err := font.WriteTo(buf)
	if err != nil {
		t.Fatal(err)
	}
	if n != int64(buf.Len()) {
		t.Errorf("WriteTo returned %d, wrote %d bytes", n, buf.Len())
	}

	out, err := Read(buf, "out.ttf", FormatAuto)
	if err != nil {
		t.Fatal(err)
	}
	if !out.Info().IsGlyf() {
		t.Error("outline flavour changed")
	}
	if v := out.Version(); v != "1.001" {
		t.Errorf("wrong version %q", v)
	}
	if out.Info().Gsub == nil || len(out.Info().Gsub.FeatureList) == 0 {
		t.Error("GSUB table lost")
	}
}

const langSysSample = `languagesystem DFLT dflt;
languagesystem latn dflt;
languagesystem latn NOR;
languagesystem latn IRI;

feature calt {
	sub f' i by f_i.calt;
	script latn;
	language NOR exclude_dflt;
	sub o by i;
} calt;
`

// TestGenerateLanguageSystems checks that language systems survive
// writing and reading the font, and that the output does not depend on
// map iteration order.
func TestGenerateLanguageSystems(t *testing.T) {
	font := loadSFD(t, testfont.SFD)
	err := font.MergeFeatureSource("calt.fea", []byte(langSysSample))
	if err != nil {
		t.Fatal(err)
	}
	before := font.Info().Gsub
	if len(before.ScriptList) != 4 {
		t.Fatalf("got %d language systems, want 4", len(before.ScriptList))
	}

	var first []byte
	for range 5 {
		buf := &bytes.Buffer{}
		_, err := font.WriteTo(buf)
		if err != nil {
			t.Fatal(err)
		}
		if first == nil {
			first = buf.Bytes()
		} else if !bytes.Equal(first, buf.Bytes()) {
			t.Fatal("output differs between runs")
		}
	}

	out, err := Read(bytes.NewReader(first), "out.otf", FormatSFNT)
	if err != nil {
		t.Fatal(err)
	}
	after := out.Info().Gsub
	if d := cmp.Diff(before.ScriptList, after.ScriptList); d != "" {
		t.Errorf("script list (-before +after):\n%s", d)
	}
	if d := cmp.Diff(before.FeatureList, after.FeatureList); d != "" {
		t.Errorf("feature list (-before +after):\n%s", d)
	}
}
