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

package sfd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"seehuhn.de/go/geom/vec"
)

// ParseError is returned when an SFD file cannot be parsed.
type ParseError struct {
	Line int
	Err  error
}

func (err *ParseError) Error() string {
	if err.Line > 0 {
		return "sfd: line " + strconv.Itoa(err.Line) + ": " + err.Err.Error()
	}
	return "sfd: " + err.Err.Error()
}

func (err *ParseError) Unwrap() error {
	return err.Err
}

var errNotSFD = errors.New("missing SplineFontDB header")

// Magic is the prefix of every SFD file.
const Magic = "SplineFontDB:"

// ReadFile reads an SFD file from disk.
func ReadFile(fname string) (*Font, error) {
	fd, err := os.Open(fname)
	if err != nil {
		return nil, err
	}
	defer fd.Close()
	return Read(fd)
}

// Read parses an SFD file.
func Read(r io.Reader) (*Font, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	p := &reader{
		scanner: scanner,
		font: &Font{
			Ascent:  800,
			Descent: 200,
		},
	}
	err := p.read()
	if err != nil {
		return nil, err
	}
	return p.font, nil
}

type reader struct {
	scanner *bufio.Scanner
	line    int

	font *Font

	refLines map[*Glyph][]int
}

// next returns the next non-empty line, without surrounding white space.
func (p *reader) next() (string, bool) {
	for p.scanner.Scan() {
		p.line++
		line := strings.TrimSpace(p.scanner.Text())
		if line != "" {
			return line, true
		}
	}
	return "", false
}

func (p *reader) errorf(format string, args ...any) error {
	return &ParseError{Line: p.line, Err: fmt.Errorf(format, args...)}
}

// splitKey splits a line of the form "Key: value".
// Lines without a colon are returned as the key, with an empty value.
func splitKey(line string) (key, value string) {
	key, value, found := strings.Cut(line, ":")
	if !found {
		return line, ""
	}
	if strings.ContainsAny(key, " \t\"") {
		// not a keyword line
		return "", line
	}
	return key, strings.TrimSpace(value)
}

// topLevelBlocks lists blocks which are skipped, together with the line
// which terminates them.
var topLevelBlocks = map[string]string{
	"TtTable":      "EndTTInstrs",
	"TtInstrs":     "EndTTInstrs",
	"ShortTable":   "EndShort",
	"BeginSubrs":   "EndSubrs",
	"Grid":         "EndSplineSet",
	"BitmapFont":   "EndBitmapFont",
	"BeginMMFonts": "EndMMFonts",
}

func (p *reader) read() error {
	line, ok := p.next()
	if err := p.scanner.Err(); err != nil {
		return err
	}
	if !ok || !strings.HasPrefix(line, Magic) {
		return &ParseError{Line: p.line, Err: errNotSFD}
	}

	f := p.font
	for {
		line, ok := p.next()
		if !ok {
			break
		}
		key, value := splitKey(line)
		var err error
		switch key {
		case "FontName":
			f.FontName = value
		case "FullName":
			f.FullName = value
		case "FamilyName":
			f.FamilyName = value
		case "Weight":
			f.Weight = value
		case "Copyright":
			f.Copyright = unescape(value)
		case "Version":
			f.Version = value
		case "ItalicAngle":
			f.ItalicAngle, err = p.float(value)
		case "UnderlinePosition":
			f.UnderlinePosition, err = p.float(value)
		case "UnderlineWidth":
			f.UnderlineWidth, err = p.float(value)
		case "Ascent":
			f.Ascent, err = p.int(value)
		case "Descent":
			f.Descent, err = p.int(value)
		case "LineGap":
			f.LineGap, err = p.int(value)
		case "TTFWeight":
			f.TTFWeight, err = p.int(value)
		case "TTFWidth":
			f.TTFWidth, err = p.int(value)
		case "CreationTime":
			f.CreationTime, err = p.time(value)
		case "ModificationTime":
			f.ModificationTime, err = p.time(value)
		case "BeginPrivate":
			err = p.readPrivate()
		case "BeginChars":
			err = p.readChars()
		case "EndSplineFont":
			return p.finish()
		default:
			if end, isBlock := topLevelBlocks[key]; isBlock {
				err = p.skipTo(end)
			}
		}
		if err != nil {
			return err
		}
	}
	if err := p.scanner.Err(); err != nil {
		return err
	}
	return p.finish()
}

func (p *reader) finish() error {
	f := p.font
	if f.Ascent < 0 || f.Descent < 0 || f.Ascent+f.Descent <= 0 {
		return &ParseError{Err: fmt.Errorf("invalid em size %d+%d", f.Ascent, f.Descent)}
	}

	sort.SliceStable(f.Glyphs, func(i, j int) bool {
		return f.Glyphs[i].Pos < f.Glyphs[j].Pos
	})
	seen := make(map[int]bool, len(f.Glyphs))
	for _, g := range f.Glyphs {
		if seen[g.Pos] {
			return &ParseError{Err: fmt.Errorf("glyph %q: duplicate glyph index %d", g.Name, g.Pos)}
		}
		seen[g.Pos] = true
	}
	for _, g := range f.Glyphs {
		for i, ref := range g.Refs {
			if !seen[ref.Pos] {
				return &ParseError{
					Line: p.refLines[g][i],
					Err:  fmt.Errorf("glyph %q: reference to unknown glyph %d", g.Name, ref.Pos),
				}
			}
		}
	}
	return nil
}

func (p *reader) skipTo(end string) error {
	start := p.line
	for {
		line, ok := p.next()
		if !ok {
			return &ParseError{Line: start, Err: fmt.Errorf("unterminated block, missing %s", end)}
		}
		if key, _ := splitKey(line); key == end {
			return nil
		}
	}
}

func (p *reader) readPrivate() error {
	priv := &Private{}
	for {
		line, ok := p.next()
		if !ok {
			return p.errorf("unterminated private dictionary")
		}
		if line == "EndPrivate" {
			break
		}
		// Each entry has the form "Key length value".
		fields := strings.SplitN(line, " ", 3)
		if len(fields) < 3 {
			continue
		}
		key, value := fields[0], strings.TrimSpace(fields[2])
		var err error
		switch key {
		case "BlueValues":
			priv.BlueValues, err = p.array(value)
		case "OtherBlues":
			priv.OtherBlues, err = p.array(value)
		case "BlueScale":
			priv.BlueScale, err = p.float(value)
		case "BlueShift":
			priv.BlueShift, err = p.float(value)
		case "BlueFuzz":
			priv.BlueFuzz, err = p.float(value)
		case "StdHW":
			priv.StdHW, err = p.firstOfArray(value)
		case "StdVW":
			priv.StdVW, err = p.firstOfArray(value)
		}
		if err != nil {
			return err
		}
	}
	p.font.Private = priv
	return nil
}

func (p *reader) readChars() error {
	for {
		line, ok := p.next()
		if !ok {
			return p.errorf("unterminated BeginChars block")
		}
		key, value := splitKey(line)
		switch key {
		case "EndChars":
			return nil
		case "StartChar":
			g, err := p.readChar(value)
			if err != nil {
				return err
			}
			p.font.Glyphs = append(p.font.Glyphs, g)
		}
	}
}

func (p *reader) readChar(name string) (*Glyph, error) {
	start := p.line
	g := &Glyph{
		Name:    name,
		Unicode: -1,
		Pos:     -1,
	}
	if len(name) >= 2 && name[0] == '"' && name[len(name)-1] == '"' {
		g.Name = name[1 : len(name)-1]
	}

	layer := 1
	for {
		line, ok := p.next()
		if !ok {
			return nil, &ParseError{Line: start, Err: fmt.Errorf("glyph %q: missing EndChar", g.Name)}
		}
		key, value := splitKey(line)
		var err error
		switch key {
		case "EndChar":
			if g.Pos < 0 {
				return nil, &ParseError{Line: start, Err: fmt.Errorf("glyph %q: missing Encoding", g.Name)}
			}
			return g, nil
		case "Encoding":
			err = p.readEncoding(g, value)
		case "AltUni2":
			err = p.readAltUni(g, value)
		case "Width":
			g.Width, err = p.int(value)
		case "Fore":
			layer = 1
		case "Back":
			layer = 0
		case "Layer":
			layer, err = p.int(value)
		case "SplineSet":
			var contours []Contour
			contours, err = p.readSplineSet()
			if layer == 1 {
				g.Contours = append(g.Contours, contours...)
			}
		case "Refer":
			if layer == 1 {
				err = p.readRef(g, value)
			}
		case "Image":
			err = p.skipTo("EndImage")
		case "Image2":
			err = p.skipTo("EndImage2")
		case "TtInstrs":
			err = p.skipTo("EndTTInstrs")
		}
		if err != nil {
			return nil, err
		}
	}
}

func (p *reader) readEncoding(g *Glyph, value string) error {
	fields := strings.Fields(value)
	if len(fields) < 2 {
		return p.errorf("glyph %q: malformed Encoding %q", g.Name, value)
	}
	nums := make([]int, len(fields))
	for i, s := range fields {
		x, err := strconv.Atoi(s)
		if err != nil {
			return p.errorf("glyph %q: malformed Encoding %q", g.Name, value)
		}
		nums[i] = x
	}
	if nums[1] >= 0 {
		g.Unicode = rune(nums[1])
	}
	if len(nums) >= 3 {
		g.Pos = nums[2]
	} else {
		g.Pos = nums[0]
	}
	if g.Pos < 0 {
		return p.errorf("glyph %q: negative glyph index", g.Name)
	}
	return nil
}

// readAltUni reads entries of the form "unicode.selector.flags" in hex.
// Only entries without a variation selector are used.
func (p *reader) readAltUni(g *Glyph, value string) error {
	for _, entry := range strings.Fields(value) {
		parts := strings.Split(entry, ".")
		if len(parts) < 2 {
			return p.errorf("glyph %q: malformed AltUni2 entry %q", g.Name, entry)
		}
		u, err := strconv.ParseUint(parts[0], 16, 32)
		if err != nil {
			return p.errorf("glyph %q: malformed AltUni2 entry %q", g.Name, entry)
		}
		if parts[1] != "ffffffff" {
			continue
		}
		g.AltUnicode = append(g.AltUnicode, rune(u))
	}
	return nil
}

// readRef reads a line of the form "pos unicode flag a b c d e f ...".
func (p *reader) readRef(g *Glyph, value string) error {
	fields := strings.Fields(value)
	if len(fields) < 9 {
		return p.errorf("glyph %q: malformed Refer %q", g.Name, value)
	}
	pos, err := strconv.Atoi(fields[0])
	if err != nil || pos < 0 {
		return p.errorf("glyph %q: malformed Refer %q", g.Name, value)
	}
	ref := Reference{Pos: pos}
	for i := range ref.Matrix {
		ref.Matrix[i], err = p.float(fields[3+i])
		if err != nil {
			return err
		}
	}
	g.Refs = append(g.Refs, ref)
	if p.refLines == nil {
		p.refLines = make(map[*Glyph][]int)
	}
	p.refLines[g] = append(p.refLines[g], p.line)
	return nil
}

// readSplineSet reads path commands up to the next "EndSplineSet" line.
func (p *reader) readSplineSet() ([]Contour, error) {
	var res []Contour
	var cur *Contour
	flush := func() {
		if cur != nil {
			res = append(res, *cur)
			cur = nil
		}
	}

	for {
		line, ok := p.next()
		if !ok {
			return nil, p.errorf("unterminated SplineSet")
		}
		if line == "EndSplineSet" {
			flush()
			return res, nil
		}
		if line == "Spiro" {
			if err := p.skipTo("EndSpiro"); err != nil {
				return nil, err
			}
			continue
		}

		fields := strings.Fields(line)
		opIdx := -1
		for i, f := range fields {
			if f == "m" || f == "l" || f == "c" {
				opIdx = i
				break
			}
		}
		if opIdx < 0 {
			// hint masks, named points and similar
			continue
		}
		args := make([]float64, opIdx)
		for i := range args {
			x, err := p.float(fields[i])
			if err != nil {
				return nil, err
			}
			args[i] = x
		}

		switch fields[opIdx] {
		case "m":
			if len(args) != 2 {
				return nil, p.errorf("moveto needs 2 arguments, got %d", len(args))
			}
			flush()
			cur = &Contour{Start: vec.Vec2{X: args[0], Y: args[1]}}
		case "l":
			if len(args) != 2 {
				return nil, p.errorf("lineto needs 2 arguments, got %d", len(args))
			}
			if cur == nil {
				return nil, p.errorf("lineto without current point")
			}
			cur.Segments = append(cur.Segments, Segment{
				End: vec.Vec2{X: args[0], Y: args[1]},
			})
		case "c":
			if len(args) != 6 {
				return nil, p.errorf("curveto needs 6 arguments, got %d", len(args))
			}
			if cur == nil {
				return nil, p.errorf("curveto without current point")
			}
			cur.Segments = append(cur.Segments, Segment{
				Curve: true,
				C1:    vec.Vec2{X: args[0], Y: args[1]},
				C2:    vec.Vec2{X: args[2], Y: args[3]},
				End:   vec.Vec2{X: args[4], Y: args[5]},
			})
		}
	}
}

func (p *reader) float(s string) (float64, error) {
	x, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, p.errorf("invalid number %q", s)
	}
	return x, nil
}

func (p *reader) int(s string) (int, error) {
	x, err := strconv.Atoi(s)
	if err != nil {
		// some writers use "800.0" for integer values
		f, err2 := strconv.ParseFloat(s, 64)
		if err2 != nil || f != float64(int(f)) {
			return 0, p.errorf("invalid integer %q", s)
		}
		x = int(f)
	}
	return x, nil
}

func (p *reader) time(s string) (time.Time, error) {
	sec, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}, p.errorf("invalid time stamp %q", s)
	}
	return time.Unix(sec, 0).UTC(), nil
}

// array parses a PostScript array like "[-12 0 500 512]".
func (p *reader) array(s string) ([]float64, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 || s[0] != '[' || s[len(s)-1] != ']' {
		return nil, p.errorf("invalid array %q", s)
	}
	var res []float64
	for _, f := range strings.Fields(s[1 : len(s)-1]) {
		x, err := p.float(f)
		if err != nil {
			return nil, err
		}
		res = append(res, x)
	}
	return res, nil
}

func (p *reader) firstOfArray(s string) (float64, error) {
	vals, err := p.array(s)
	if err != nil {
		return 0, err
	}
	if len(vals) == 0 {
		return 0, nil
	}
	return vals[0], nil
}

// unescape resolves the "\n" escapes FontForge uses in multi-line strings.
func unescape(s string) string {
	if !strings.Contains(s, "\\") {
		return s
	}
	var b strings.Builder
	escape := false
	for _, r := range s {
		if escape {
			escape = false
			if r == 'n' {
				b.WriteRune('\n')
			} else {
				b.WriteRune(r)
			}
			continue
		}
		if r == '\\' {
			escape = true
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
