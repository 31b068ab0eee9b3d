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
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/language"
)

// otfScripts maps OpenType script tags to ISO 15924 script codes, for
// the cases where the two are not related by capitalisation.
var otfScripts = map[string]string{
	"DFLT": "Zzzz",
	"hani": "Hani",
	"kana": "Kana",
	"hang": "Hang",
	"dev2": "Deva",
	"bng2": "Beng",
	"gjr2": "Gujr",
	"gur2": "Guru",
	"knd2": "Knda",
	"mlm2": "Mlym",
	"ory2": "Orya",
	"tml2": "Taml",
	"tel2": "Telu",
	"nko":  "Nkoo",
	"vai":  "Vaii",
	"yi":   "Yiii",
}

// otfLanguages maps OpenType language system tags to BCP 47 language
// subtags.
var otfLanguages = map[string]string{
	"dflt": "und",
	"ARA":  "ar",
	"AZE":  "az",
	"BGR":  "bg",
	"CAT":  "ca",
	"CRT":  "crh",
	"CSY":  "cs",
	"DAN":  "da",
	"DEU":  "de",
	"ELL":  "el",
	"ENG":  "en",
	"ESP":  "es",
	"ETI":  "et",
	"FIN":  "fi",
	"FRA":  "fr",
	"HEB":  "he",
	"HRV":  "hr",
	"HUN":  "hu",
	"IRI":  "ga",
	"ISL":  "is",
	"ITA":  "it",
	"KAZ":  "kk",
	"LTH":  "lt",
	"LVI":  "lv",
	"MKD":  "mk",
	"MOL":  "ro",
	"NLD":  "nl",
	"NOR":  "nb",
	"PLK":  "pl",
	"PTG":  "pt",
	"ROM":  "ro",
	"RUS":  "ru",
	"SKY":  "sk",
	"SLV":  "sl",
	"SRB":  "sr",
	"SVE":  "sv",
	"TAT":  "tt",
	"TRK":  "tr",
	"UKR":  "uk",
	"VIT":  "vi",
	"WEL":  "cy",
}

// Tag returns the BCP 47 language tag corresponding to the language
// system.  The default script "DFLT" maps to the script code "Zzzz" and
// the default language "dflt" maps to "und".
//
// The OpenType tags are kept in a private use extension, for example
// "nb-Latn-x-latn-nor" for "latn NOR" and "und-Zzzz-x-dflt" for
// "DFLT dflt", so that the GSUB writer recovers them exactly.
func (ls LangSys) Tag() (language.Tag, error) {
	otfScript := strings.TrimSpace(ls.Script)
	otfLang := strings.TrimSpace(ls.Language)

	script, ok := otfScripts[otfScript]
	if !ok {
		if len(otfScript) != 4 {
			return language.Und, fmt.Errorf("unknown OpenType script %q", ls.Script)
		}
		r := []rune(otfScript)
		r[0] = unicode.ToUpper(r[0])
		script = string(r)
	}
	lang, ok := otfLanguages[otfLang]
	if !ok {
		return language.Und, fmt.Errorf("unknown OpenType language system %q", ls.Language)
	}

	private := strings.ToLower(otfScript)
	if otfLang != "dflt" {
		private += "-" + strings.ToLower(otfLang)
	}
	tag, err := language.Parse(lang + "-" + script + "-x-" + private)
	if err != nil {
		return language.Und, fmt.Errorf("language system %s: %w", ls, err)
	}
	return tag, nil
}
