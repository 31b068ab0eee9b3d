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
	"fmt"

	"seehuhn.de/go/sfnt/head"
)

// SetVersion sets the font version.  The version must be a decimal number
// like "1.001".
func (f *Font) SetVersion(v string) error {
	version, err := head.VersionFromString(v)
	if err != nil {
		return fmt.Errorf("invalid font version %q: %w", v, err)
	}
	f.info.Version = version
	return nil
}

// Version returns the font version, formatted with three decimal
// places.
func (f *Font) Version() string {
	return f.info.Version.String()
}
