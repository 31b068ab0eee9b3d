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

// Package fontgen builds OpenType font files from font sources.
//
// A font is loaded with [Open], from a FontForge source file (".sfd") or
// from an existing OpenType or TrueType font.  The font can then be checked
// for errors, OpenType substitution rules from a feature file can be
// added, and the font version can be set, before the font is written to a
// new file:
//
//	font, err := fontgen.Open("MyFont.sfd")
//	if err != nil {
//		log.Fatal(err)
//	}
//	if report := font.Validate(); report.ErrorCount() > 0 {
//		log.Fatal(report)
//	}
//	err = font.MergeFeature("calt.fea")
//	if err != nil {
//		log.Fatal(err)
//	}
//	err = font.SetVersion("1.001")
//	if err != nil {
//		log.Fatal(err)
//	}
//	err = font.Generate("MyFont.otf")
//	if err != nil {
//		log.Fatal(err)
//	}
//
// Fonts generated from SFD sources use CFF outlines.  Fonts loaded from
// OpenType or TrueType files keep their outline format.
package fontgen

const (
	// DefaultVersion is the font version set by the "generate" tool.
	DefaultVersion = "1.001"

	// DefaultFeatureFile is the feature file merged by the "generate"
	// tool.
	DefaultFeatureFile = "calt.fea"
)
