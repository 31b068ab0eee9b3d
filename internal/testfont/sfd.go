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

// Package testfont provides small font sources and feature files for use
// in tests.
package testfont

import "strings"

// SFD is a minimal FontForge source with CFF-style cubic outlines.  The
// glyph "f_i.calt" is a composite of "f" and "i".
const SFD = `SplineFontDB: 3.2
FontName: FontgenTest-Regular
FullName: Fontgen Test Regular
FamilyName: Fontgen Test
Weight: Regular
Copyright: Copyright (c) 2026 Jochen Voss
Version: 001.000
ItalicAngle: 0
UnderlinePosition: -100
UnderlineWidth: 50
Ascent: 800
Descent: 200
LineGap: 90
TTFWeight: 400
TTFWidth: 5
CreationTime: 1767225600
ModificationTime: 1767225600
Encoding: UnicodeBmp
BeginPrivate: 5
BlueValues 23 [-12 0 500 512 700 712]
BlueScale 5 0.039
BlueShift 1 7
StdHW 4 [50]
StdVW 4 [80]
EndPrivate
BeginChars: 65539 7

StartChar: .notdef
Encoding: 65536 -1 0
Width: 500
LayerCount: 2
Fore
SplineSet
50 0 m 1
 450 0 l 1
 450 700 l 1
 50 700 l 1
 50 0 l 1
EndSplineSet
EndChar

StartChar: space
Encoding: 32 32 1
Width: 250
LayerCount: 2
EndChar

StartChar: f
Encoding: 102 102 2
Width: 320
LayerCount: 2
Fore
SplineSet
60 0 m 1
 140 0 l 1
 140 650 l 1
 60 650 l 1
 60 0 l 1
20 450 m 1
 300 450 l 1
 300 500 l 1
 20 500 l 1
 20 450 l 1
EndSplineSet
EndChar

StartChar: i
Encoding: 105 105 3
Width: 220
LayerCount: 2
Fore
SplineSet
70 0 m 1
 150 0 l 1
 150 500 l 1
 70 500 l 1
 70 0 l 1
70 600 m 1
 150 600 l 1
 150 680 l 1
 70 680 l 1
 70 600 l 1
EndSplineSet
EndChar

StartChar: o
Encoding: 111 111 4
Width: 500
LayerCount: 2
Fore
SplineSet
250 -10 m 1
 380 -10 450 100 450 250 c 1
 450 400 380 510 250 510 c 1
 120 510 50 400 50 250 c 1
 50 100 120 -10 250 -10 c 1
EndSplineSet
EndChar

StartChar: f_i
Encoding: 64257 64257 5
Width: 520
LayerCount: 2
Fore
SplineSet
60 0 m 1
 140 0 l 1
 140 650 l 1
 60 650 l 1
 60 0 l 1
360 0 m 1
 440 0 l 1
 440 500 l 1
 360 500 l 1
 360 0 l 1
EndSplineSet
EndChar

StartChar: f_i.calt
Encoding: 65537 -1 6
Width: 540
LayerCount: 2
Fore
Refer: 2 102 N 1 0 0 1 0 0 2
Refer: 3 105 N 1 0 0 1 320 0 2
EndChar
EndChars
EndSplineFont
`

// Calt is a feature file which replaces "f" by "f_i.calt" before "i".
const Calt = `# contextual alternates for the test font
languagesystem DFLT dflt;
languagesystem latn dflt;

lookup FI {
	sub f by f_i.calt;
} FI;

feature calt {
	sub f' lookup FI i;
} calt;
`

// CaltTrueType is a feature file which only uses glyph names present in
// the Go Regular font.
const CaltTrueType = `languagesystem DFLT dflt;
languagesystem latn dflt;

feature calt {
	sub [a e]' x by [A E];
	ignore sub x x';
	sub x' [a e] by X;
} calt;
`

// BadFeatures is a feature file with a syntax error on line 2.
const BadFeatures = `feature calt {
	sub f' i by;
} calt;
`

// OpenContourSFD is a variant of SFD where the outline of "i" is not
// closed.
var OpenContourSFD = strings.Replace(SFD, `70 0 m 1
 150 0 l 1
 150 500 l 1
 70 500 l 1
 70 0 l 1
`, `70 0 m 1
 150 0 l 1
 150 500 l 1
 70 500 l 1
`, 1)

// NoNotdefSFD is a variant of SFD without a ".notdef" glyph and without
// time stamps.
var NoNotdefSFD = strings.NewReplacer(
	`StartChar: .notdef
Encoding: 65536 -1 0
Width: 500
LayerCount: 2
Fore
SplineSet
50 0 m 1
 450 0 l 1
 450 700 l 1
 50 700 l 1
 50 0 l 1
EndSplineSet
EndChar
`, "",
	"CreationTime: 1767225600\n", "",
	"ModificationTime: 1767225600\n", "",
).Replace(SFD)
