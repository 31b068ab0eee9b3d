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
	"strings"
	"testing"

	"seehuhn.de/go/fontgen/internal/testfont"
)

func TestVersion(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"1.001", "1.001", true},
		{"1.0", "1.000", true},
		{"2.5", "2.500", true},
		{"001.000", "1.000", true},
		{"", "", false},
		{"abc", "", false},
	}
	for _, test := range cases {
		font := loadSFD(t, testfont.SFD)
		err := font.SetVersion(test.in)
		if (err == nil) != test.ok {
			t.Errorf("%q: unexpected err = %v", test.in, err)
			continue
		}
		if !test.ok {
			if v := font.Version(); v != "1.000" {
				t.Errorf("%q: failed SetVersion changed the version to %s", test.in, v)
			}
			continue
		}
		if v := font.Version(); v != test.out {
			t.Errorf("wrong version %q != %q", v, test.out)
		}
	}
}

func TestSourceVersion(t *testing.T) {
	src := strings.Replace(testfont.SFD, "Version: 001.000", "Version: 2.1", 1)
	font := loadSFD(t, src)
	if v := font.Version(); v != "2.100" {
		t.Errorf("wrong version %q", v)
	}

	src = strings.Replace(testfont.SFD, "Version: 001.000", "Version: beta", 1)
	font = loadSFD(t, src)
	if v := font.Version(); v != "1.000" {
		t.Errorf("wrong default version %q", v)
	}
}
