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

import "errors"

var errNoGlyphNames = errors.New("font has no glyph names")

// FormatError indicates that a font source could not be loaded.
type FormatError struct {
	// Name is the file name of the source, or the name passed to [Read].
	Name string
	Err  error
}

func (err *FormatError) Error() string {
	msg := "invalid font source"
	if err.Name != "" {
		msg = err.Name + ": " + msg
	}
	if err.Err != nil {
		msg += ": " + err.Err.Error()
	}
	return msg
}

func (err *FormatError) Unwrap() error {
	return err.Err
}
