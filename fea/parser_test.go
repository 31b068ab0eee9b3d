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

package fea

import (
	"errors"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

const caltSample = `
languagesystem DFLT dflt;
languagesystem latn dflt;

@lc = [a-e];
@uc = [A - E];

lookup upper {
	sub @lc by @uc;
} upper;

feature calt {
	sub f' i by f_i.calt;
	sub @lc' lookup upper @lc;
	ignore sub x a', a' x;
} calt;

feature liga {
	sub f i by f_i;
	sub f f i by f_f_i;
} liga;
`

func TestParseSample(t *testing.T) {
	file, err := Parse("calt.fea", []byte(caltSample))
	if err != nil {
		t.Fatal(err)
	}

	wantLS := []LangSys{{"DFLT", "dflt"}, {"latn", "dflt"}}
	if d := cmp.Diff(wantLS, file.LangSys); d != "" {
		t.Error(d)
	}

	var kinds []RuleKind
	var names []string
	for _, l := range file.Lookups {
		kinds = append(kinds, l.Kind)
		names = append(names, l.Name)
	}
	wantKinds := []RuleKind{KindSingle, KindChain, KindLigature}
	if d := cmp.Diff(wantKinds, kinds); d != "" {
		t.Error(d)
	}
	if d := cmp.Diff([]string{"upper", "", ""}, names); d != "" {
		t.Error(d)
	}

	if len(file.Features) != 2 {
		t.Fatalf("got %d features, want 2", len(file.Features))
	}
	calt := file.Features[0]
	if calt.Tag != "calt" || len(calt.Entries) != 1 {
		t.Fatalf("unexpected calt feature %v", calt)
	}
	rules := calt.Entries[0].Lookup.Rules
	if len(rules) != 3 {
		t.Fatalf("got %d calt rules, want 3", len(rules))
	}
	if !rules[2].Ignore || len(rules[2].Contexts) != 2 {
		t.Errorf("ignore rule not parsed correctly: %v", rules[2])
	}
	if got := rules[1].Input[0].Lookups; !cmp.Equal(got, []string{"upper"}) {
		t.Errorf("wrong lookup references %q", got)
	}
}

func TestParseImplicitLookups(t *testing.T) {
	src := `
feature test {
	sub a by b;
	sub c by d;
	sub a b by c;
	lookupflag IgnoreMarks;
	sub x by y;
	script latn;
	sub y by z;
	language DEU exclude_dflt;
	sub z by w;
} test;
`
	file, err := Parse("test.fea", []byte(src))
	if err != nil {
		t.Fatal(err)
	}

	type summary struct {
		Kind   RuleKind
		Flags  LookupFlag
		NRules int
	}
	var got []summary
	for _, l := range file.Lookups {
		got = append(got, summary{l.Kind, l.Flags, len(l.Rules)})
	}
	want := []summary{
		{KindSingle, 0, 2},
		{KindLigature, 0, 1},
		{KindSingle, IgnoreMarks, 1},
		{KindSingle, IgnoreMarks, 1},
		{KindSingle, IgnoreMarks, 1},
	}
	if d := cmp.Diff(want, got); d != "" {
		t.Error(d)
	}

	var ls []LangSys
	for _, e := range file.Features[0].Entries {
		if e.InheritFrom != nil {
			t.Errorf("unexpected inheritance entry for %s/%s", e.Script, e.Language)
		}
		ls = append(ls, LangSys{e.Script, e.Language})
	}
	wantLS := []LangSys{{"", ""}, {"", ""}, {"", ""}, {"latn", "dflt"}, {"latn", "DEU"}}
	if d := cmp.Diff(wantLS, ls); d != "" {
		t.Error(d)
	}
}

func TestParseLanguageInheritance(t *testing.T) {
	src := `
feature test {
	script latn;
	sub a by b;
	language TRK;
	sub i by i.dot;
} test;
`
	file, err := Parse("test.fea", []byte(src))
	if err != nil {
		t.Fatal(err)
	}
	entries := file.Features[0].Entries
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(entries))
	}
	want := &LangSys{Script: "latn", Language: "dflt"}
	if d := cmp.Diff(want, entries[1].InheritFrom); d != "" {
		t.Error(d)
	}
	if entries[1].Lookup != nil {
		t.Error("inheritance entry has a lookup")
	}
}

func TestParseGlyphItems(t *testing.T) {
	src := `@x = [a-z \a-b a.sc - z.sc];`
	file, err := Parse("test.fea", []byte(src+`feature test { sub @x by a; } test;`))
	if err != nil {
		t.Fatal(err)
	}
	got := file.Lookups[0].Rules[0].Input[0].Glyphs
	want := []GlyphItem{
		{Name: "a-z", MaybeRange: true},
		{Name: "a-b"},
		{Name: "a.sc", To: "z.sc"},
	}
	if d := cmp.Diff(want, got, cmpopts.IgnoreFields(GlyphItem{}, "Pos")); d != "" {
		t.Error(d)
	}
}

func TestParseErrors(t *testing.T) {
	cases := []struct {
		src string
		msg string
	}{
		{"feature test { sub a by b; } tset;", "to close block"},
		{"feature test { pos a 10; } test;", "positioning"},
		{"feature test { sub a by b c; } test;", "multiple substitution"},
		{"feature test { sub a from [b c]; } test;", "alternate substitution"},
		{"feature test { sub a b by [c d]; } test;", "single glyph"},
		{"feature test { sub a' b c' by d; } test;", "contiguous"},
		{"feature test { sub a' lookup missing; } test;", "undefined lookup"},
		{"feature test { sub @nope by a; } test;", "undefined glyph class"},
		{"lookup x { sub a by b; sub a b by c; } x;", "mixes"},
		{"lookup x { } x;", "empty"},
		{"lookup x { sub a by b; } x; lookup x { sub a by b; } x;", "defined twice"},
		{"@a = [b]; @a = [c];", "defined twice"},
		{"@a = [];", "empty glyph class"},
		{"include(other.fea);", "include statements are not supported"},
		{"table GDEF { } GDEF;", "table blocks"},
		{"feature test { sub a by b; }", "to close block"},
		{"languagesystem toolong dflt;", "expected OpenType tag"},
		{"feature test { lookupflag Bogus; sub a by b; } test;", "unknown lookup flag"},
		{"feature test { sub a' by b c; } test;", "not supported"},
		{"feature test { sub a'; } test;", "without action"},
		{"sub a by b;", "unexpected"},
	}
	for i, test := range cases {
		_, err := Parse("test.fea", []byte(test.src))
		if err == nil {
			t.Errorf("%d: %q: missing error", i, test.src)
			continue
		}
		var feaErr *Error
		if !errors.As(err, &feaErr) {
			t.Errorf("%d: wrong error type %T", i, err)
		}
		if !strings.Contains(err.Error(), test.msg) {
			t.Errorf("%d: %q: error %q does not mention %q", i, test.src, err, test.msg)
		}
	}
}

func TestParseErrorPosition(t *testing.T) {
	_, err := Parse("calt.fea", []byte("feature calt {\n  sub a by b c;\n} calt;\n"))
	var feaErr *Error
	if !errors.As(err, &feaErr) {
		t.Fatalf("wrong error %v", err)
	}
	if feaErr.File != "calt.fea" || feaErr.Line != 2 || feaErr.Col != 3 {
		t.Errorf("wrong position %s", feaErr.Pos)
	}
}

func TestParseFileInclude(t *testing.T) {
	fsys := fstest.MapFS{
		"fea/main.fea":         {Data: []byte("include(classes.fea);\nfeature calt { sub @lc by a; } calt;\n")},
		"fea/classes.fea":      {Data: []byte("@lc = [b c];\ninclude(sub/more.fea)\n")},
		"fea/sub/more.fea":     {Data: []byte("languagesystem latn dflt;\n")},
		"fea/loop.fea":         {Data: []byte("include(loop.fea);\n")},
		"fea/missing-incl.fea": {Data: []byte("include(nothere.fea);\n")},
		"fea/order.fea":        {Data: []byte("include(first.fea)\nlanguagesystem latn DEU;\n")},
		"fea/first.fea":        {Data: []byte("languagesystem latn dflt;\n")},
	}

	file, err := ParseFile(fsys, "fea/main.fea")
	if err != nil {
		t.Fatal(err)
	}
	if d := cmp.Diff([]LangSys{{"latn", "dflt"}}, file.LangSys); d != "" {
		t.Error(d)
	}
	if n := len(file.Lookups[0].Rules[0].Input[0].Glyphs); n != 2 {
		t.Errorf("class has %d glyphs, want 2", n)
	}

	// an include without semicolon is read before the rest of the file
	file, err = ParseFile(fsys, "fea/order.fea")
	if err != nil {
		t.Fatal(err)
	}
	want := []LangSys{{"latn", "dflt"}, {"latn", "DEU"}}
	if d := cmp.Diff(want, file.LangSys); d != "" {
		t.Error(d)
	}

	_, err = ParseFile(fsys, "fea/loop.fea")
	if err == nil || !strings.Contains(err.Error(), "nested too deeply") {
		t.Errorf("include loop: wrong error %v", err)
	}

	_, err = ParseFile(fsys, "fea/missing-incl.fea")
	if err == nil || !strings.Contains(err.Error(), "include") {
		t.Errorf("missing include: wrong error %v", err)
	}
}

func FuzzParse(f *testing.F) {
	f.Add(caltSample)
	f.Add("feature test { sub a' b by c; } test;")
	f.Add("@x = [a-z]; lookup l { lookupflag 8; sub @x by a; } l;")
	f.Fuzz(func(t *testing.T, src string) {
		file, err := Parse("fuzz.fea", []byte(src))
		if err != nil {
			var feaErr *Error
			if !errors.As(err, &feaErr) {
				t.Fatalf("wrong error type %T", err)
			}
			return
		}
		for _, l := range file.Lookups {
			if len(l.Rules) == 0 {
				t.Error("empty lookup")
			}
			for _, r := range l.Rules {
				if r.Kind != l.Kind {
					t.Errorf("rule of kind %s in lookup of kind %s", r.Kind, l.Kind)
				}
			}
		}
	})
}
