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
	"io"
	"os"
	"path/filepath"
)

// Generate writes the font to the file fname.
//
// The font is first written to a temporary file in the same directory,
// which is renamed to fname once writing has succeeded.  If an error
// occurs, no file is created and an existing file is left unchanged.
func (f *Font) Generate(fname string) error {
	dir, base := filepath.Split(fname)
	if dir == "" {
		dir = "."
	}
	tmp, err := os.CreateTemp(dir, "."+base+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	_, err = f.WriteTo(tmp)
	if err == nil {
		err = tmp.Chmod(0o644)
	}
	err2 := tmp.Close()
	if err == nil {
		err = err2
	}
	if err == nil {
		err = os.Rename(tmpName, fname)
	}
	if err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

// WriteTo writes the font in OpenType format to w.
// This implements the [io.WriterTo] interface.
func (f *Font) WriteTo(w io.Writer) (int64, error) {
	n, err := f.info.Write(w)
	return int64(n), err
}
