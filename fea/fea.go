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

// Package fea reads OpenType feature files and compiles the glyph
// substitution rules they contain into GSUB lookups.
//
// The supported subset of the Adobe feature file syntax covers
// language system declarations, glyph classes, feature and lookup
// blocks, lookup flags, and single, ligature, chained contextual and
// "ignore" substitution rules.  Positioning rules are not supported.
//
// The syntax is described at
// https://adobe-type-tools.github.io/afdko/OpenTypeFeatureFileSpecification.html .
package fea

import "fmt"

// File is a parsed feature file, with all include statements resolved.
type File struct {
	// LangSys lists the language systems declared with "languagesystem"
	// statements, in order of declaration.
	LangSys []LangSys

	// Lookups lists all lookups, in order of definition.  This includes
	// named lookups (top-level ones and ones defined inside feature
	// blocks) as well as the unnamed lookups implied by rules written
	// directly inside feature blocks.
	Lookups []*Lookup

	Features []*Feature
}

// LangSys is an OpenType script and language system tag pair, for example
// "latn"/"dflt".
type LangSys struct {
	Script   string
	Language string
}

func (ls LangSys) String() string {
	return ls.Script + "/" + ls.Language
}

// LookupFlag is the set of flags of a lookup.  The bit values are the ones
// used in the binary LookupFlag field.
type LookupFlag uint16

// These are the lookup flags which can be set in a "lookupflag" statement.
const (
	RightToLeft      LookupFlag = 0x0001
	IgnoreBaseGlyphs LookupFlag = 0x0002
	IgnoreLigatures  LookupFlag = 0x0004
	IgnoreMarks      LookupFlag = 0x0008
)

var lookupFlagNames = map[string]LookupFlag{
	"RightToLeft":      RightToLeft,
	"IgnoreBaseGlyphs": IgnoreBaseGlyphs,
	"IgnoreLigatures":  IgnoreLigatures,
	"IgnoreMarks":      IgnoreMarks,
}

// Lookup is a group of substitution rules of a single type.
type Lookup struct {
	// Name is empty for lookups which are implied by rules written
	// directly inside a feature block.
	Name  string
	Flags LookupFlag
	Kind  RuleKind
	Rules []*Rule

	Pos Pos
}

// Feature is the content of a feature block.
type Feature struct {
	Tag     string
	Entries []*FeatureEntry

	Pos Pos
}

// FeatureEntry attaches a lookup to a feature, for the language systems
// selected by the preceding script and language statements.
type FeatureEntry struct {
	// Lookup is nil for entries which only copy the lookups registered
	// so far for InheritFrom.
	Lookup *Lookup

	// Script and Language select the language system.  If Script is
	// empty, the entry applies to all declared language systems.
	Script   string
	Language string

	// InheritFrom, if non-empty, is the default language system of the
	// current script.  Its lookups are copied into the language system
	// given by Script and Language.
	InheritFrom *LangSys
}

// RuleKind distinguishes the types of substitution rules.
type RuleKind int

// These are the supported kinds of substitution rules.
const (
	KindSingle RuleKind = iota + 1
	KindLigature
	KindChain
)

func (k RuleKind) String() string {
	switch k {
	case KindSingle:
		return "single substitution"
	case KindLigature:
		return "ligature substitution"
	case KindChain:
		return "chained contextual substitution"
	default:
		return fmt.Sprintf("RuleKind(%d)", int(k))
	}
}

// Rule is a single "sub" or "ignore sub" statement.
type Rule struct {
	Kind RuleKind

	// Ignore is set for "ignore sub" statements.  In this case, Contexts
	// lists the comma-separated glyph sequences and Input and By are
	// unused.
	Ignore   bool
	Contexts [][]*Pattern

	Input []*Pattern
	By    []*Pattern

	Pos Pos
}

// Pattern is one position in a glyph sequence: either a single glyph or a
// glyph class.
type Pattern struct {
	Glyphs  []GlyphItem
	IsClass bool

	// Marked is set for glyphs followed by "'" in contextual rules.
	Marked bool

	// Lookups lists the names of the lookups applied at this position.
	Lookups []string
}

// GlyphItem is a glyph name or a range of glyph names.
type GlyphItem struct {
	Name string

	// To is non-empty for ranges like "a.sc - z.sc".
	To string

	// MaybeRange is set for hyphenated names like "a-z" which denote a
	// range if the font has no glyph of this name.
	MaybeRange bool

	Pos Pos
}

// Pos gives a location in a feature file.
type Pos struct {
	File string
	Line int
	Col  int
}

func (p Pos) String() string {
	if p.File == "" {
		return fmt.Sprintf("%d:%d", p.Line, p.Col)
	}
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Col)
}

// Error describes a problem in a feature file.
type Error struct {
	Pos
	Msg string
}

func (err *Error) Error() string {
	return "fea: " + err.Pos.String() + ": " + err.Msg
}
