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
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"seehuhn.de/go/sfnt"
	"seehuhn.de/go/sfnt/glyph"

	"seehuhn.de/go/fontgen/sfd"
)

// Format identifies the file format of a font source.
type Format int

// These are the supported source formats.
const (
	// FormatAuto selects the format from the content of the data.
	FormatAuto Format = iota

	// FormatSFD is the text format used by FontForge.
	FormatSFD

	// FormatSFNT covers OpenType and TrueType font files.
	FormatSFNT
)

func (f Format) String() string {
	switch f {
	case FormatAuto:
		return "auto"
	case FormatSFD:
		return "SFD"
	case FormatSFNT:
		return "OpenType"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// Font is a font loaded from a source file.
//
// The font data is kept in memory.  Methods of a Font must not be called
// concurrently.
type Font struct {
	info   *sfnt.Font
	name   string
	format Format

	// source holds information from SFD sources which is lost when
	// the outlines are converted to CFF format.
	source *sourceInfo
}

// sourceInfo describes the glyphs of an SFD source.
type sourceInfo struct {
	// NumGlyphs is the number of glyphs in the font, including a
	// synthesised .notdef glyph.
	NumGlyphs int

	// UnitsPerEm is the size of the em square in the source, before
	// conversion to uint16.
	UnitsPerEm int

	// Contours gives the contours stored in each glyph itself.  Contours
	// of referenced glyphs are not included, so that every problem is
	// reported only for the glyph where it occurs.
	Contours map[glyph.ID][]sfd.Contour
}

// Open loads a font source file.
//
// Files with extension ".sfd" are read as FontForge sources, files with
// extensions ".otf" and ".ttf" as OpenType fonts.  For all other
// files, the format is detected from the file content.
func Open(fname string) (*Font, error) {
	data, err := os.ReadFile(fname)
	if err != nil {
		return nil, err
	}

	format := FormatAuto
	switch strings.ToLower(filepath.Ext(fname)) {
	case ".sfd":
		format = FormatSFD
	case ".otf", ".ttf":
		format = FormatSFNT
	}

	// SFD files without time stamps get the modification time of the
	// source file, so that generated fonts do not depend on the clock.
	var mtime time.Time
	if fi, err := os.Stat(fname); err == nil {
		mtime = fi.ModTime().UTC().Truncate(time.Second)
	}

	return load(fname, data, format, mtime)
}

// Read loads a font source from r.  The name is used in error messages.
func Read(r io.Reader, name string, format Format) (*Font, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return load(name, data, format, time.Time{})
}

func load(name string, data []byte, format Format, mtime time.Time) (*Font, error) {
	if format == FormatAuto {
		format = sniff(data)
	}

	switch format {
	case FormatSFD:
		src, err := sfd.Read(bytes.NewReader(data))
		if err != nil {
			return nil, &FormatError{Name: name, Err: err}
		}
		info, source := fromSFD(src, mtime)
		return &Font{info: info, name: name, format: FormatSFD, source: source}, nil

	case FormatSFNT:
		info, err := sfnt.Read(bytes.NewReader(data))
		if err != nil {
			return nil, &FormatError{Name: name, Err: err}
		}
		return &Font{info: info, name: name, format: FormatSFNT}, nil

	default:
		return nil, fmt.Errorf("%s: unsupported source format %s", name, format)
	}
}

// sniff determines the format of font data from its first bytes.
// Everything which is not an SFD source is treated as an sfnt font file.
func sniff(data []byte) Format {
	if bytes.HasPrefix(bytes.TrimLeft(data, "\ufeff \t\r\n"), []byte(sfd.Magic)) {
		return FormatSFD
	}
	return FormatSFNT
}

// Name returns the file name the font was loaded from.
func (f *Font) Name() string {
	return f.name
}

// Format returns the format of the font source.
func (f *Font) Format() Format {
	return f.format
}

// Info returns the in-memory representation of the font.
// Changes to the returned value affect the font.
func (f *Font) Info() *sfnt.Font {
	return f.info
}

// NumGlyphs returns the number of glyphs in the font.
func (f *Font) NumGlyphs() int {
	if f.source != nil {
		return f.source.NumGlyphs
	}
	return f.info.NumGlyphs()
}

// glyphNames maps glyph names to glyph IDs.  If a name is used more than
// once, the first glyph with this name is used.
func (f *Font) glyphNames() (map[string]glyph.ID, error) {
	n := f.info.NumGlyphs()
	res := make(map[string]glyph.ID, n)
	for i := 0; i < n; i++ {
		gid := glyph.ID(i)
		name := f.info.GlyphName(gid)
		if name == "" {
			continue
		}
		if _, seen := res[name]; !seen {
			res[name] = gid
		}
	}
	if len(res) == 0 && n > 0 {
		return nil, errNoGlyphNames
	}
	return res, nil
}
