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
	"slices"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"seehuhn.de/go/sfnt/glyph"
	"seehuhn.de/go/sfnt/opentype/coverage"
	"seehuhn.de/go/sfnt/opentype/gtab"
)

// maxSequences limits the number of glyph sequences a single ligature rule
// with glyph classes may expand to.
const maxSequences = 10000

// Compile converts the rules of a feature file into the content of a
// GSUB table.  The map byName gives the glyph ID for every glyph name of
// the font.
//
// Lookups are numbered in order of definition, followed by the anonymous
// lookups created for contextual rules with inline replacements.
func Compile(file *File, byName map[string]glyph.ID) (info *gtab.Info, err error) {
	c := &compiler{
		file:   file,
		byName: byName,
		index:  make(map[*Lookup]gtab.LookupIndex, len(file.Lookups)),
		named:  make(map[string]*Lookup),
	}
	for i, l := range file.Lookups {
		c.index[l] = gtab.LookupIndex(i)
		if l.Name != "" {
			c.named[l.Name] = l
		}
	}

	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(*parseError); ok {
				info = nil
				err = e.err
			} else {
				panic(r)
			}
		}
	}()

	if len(file.Lookups)+1 > 0xFFFF {
		c.fatal(Pos{}, "too many lookups")
	}
	lookups := make(gtab.LookupList, 0, len(file.Lookups))
	for _, l := range file.Lookups {
		lookups = append(lookups, c.compileLookup(l))
	}
	lookups = append(lookups, c.anon...)
	if len(lookups) > 0xFFFF {
		c.fatal(Pos{}, "too many lookups")
	}

	scripts, features := c.compileFeatures()

	return &gtab.Info{
		ScriptList:  scripts,
		FeatureList: features,
		LookupList:  lookups,
	}, nil
}

type compiler struct {
	file   *File
	byName map[string]glyph.ID

	index map[*Lookup]gtab.LookupIndex
	named map[string]*Lookup
	anon  []*gtab.LookupTable
}

func (c *compiler) compileLookup(l *Lookup) *gtab.LookupTable {
	switch l.Kind {
	case KindSingle:
		return c.singleLookup(l.Flags, l.Rules)
	case KindLigature:
		return c.ligatureLookup(l.Flags, l.Rules)
	case KindChain:
		return c.chainLookup(l)
	default:
		c.fatal(l.Pos, "lookup %s has unknown type", l.Name)
		return nil
	}
}

func (c *compiler) singleLookup(flags LookupFlag, rules []*Rule) *gtab.LookupTable {
	res := make(map[glyph.ID]glyph.ID)
	for _, r := range rules {
		c.addSingle(res, r.Pos, r.Input[0], r.By[0])
	}
	return makeSingleLookup(flags, res)
}

func (c *compiler) addSingle(res map[glyph.ID]glyph.ID, pos Pos, from, to *Pattern) {
	in := c.resolve(from)
	out := c.resolve(to)
	if to.IsClass && len(in) != len(out) {
		c.fatal(pos, "glyph class sizes differ: %d vs. %d", len(in), len(out))
	}
	if !to.IsClass && len(out) != 1 {
		c.fatal(pos, "replacement must be a single glyph")
	}
	for i, gid := range in {
		repl := out[0]
		if to.IsClass {
			repl = out[i]
		}
		if old, seen := res[gid]; seen && old != repl {
			c.fatal(pos, "conflicting substitutions for glyph %d", gid)
		}
		res[gid] = repl
	}
}

func makeSingleLookup(flags LookupFlag, res map[glyph.ID]glyph.ID) *gtab.LookupTable {
	in := sortedKeys(res)
	cov := make(coverage.Table, len(in))
	for i, gid := range in {
		cov[gid] = i
	}

	isConstDelta := len(in) > 0
	var delta glyph.ID
	for i, gid := range in {
		if i == 0 {
			delta = res[gid] - gid
		} else if res[gid] != delta+gid {
			isConstDelta = false
			break
		}
	}
	var subtable gtab.Subtable
	if isConstDelta {
		set := make(coverage.Set, len(in))
		for _, gid := range in {
			set[gid] = true
		}
		subtable = &gtab.Gsub1_1{
			Cov:   set,
			Delta: delta,
		}
	} else {
		subst := make([]glyph.ID, len(in))
		for i, gid := range in {
			subst[i] = res[gid]
		}
		subtable = &gtab.Gsub1_2{
			Cov:                cov,
			SubstituteGlyphIDs: subst,
		}
	}
	return &gtab.LookupTable{
		Meta: &gtab.LookupMetaInfo{
			LookupType:  1,
			LookupFlags: gtab.LookupFlags(flags),
		},
		Subtables: []gtab.Subtable{subtable},
	}
}

func (c *compiler) ligatureLookup(flags LookupFlag, rules []*Rule) *gtab.LookupTable {
	data := make(map[glyph.ID][]gtab.Ligature)
	for _, r := range rules {
		c.addLigatures(data, r.Pos, r.Input, r.By[0])
	}
	return makeLigatureLookup(flags, data)
}

func (c *compiler) addLigatures(data map[glyph.ID][]gtab.Ligature, pos Pos, input []*Pattern, to *Pattern) {
	out := c.resolve(to)
	if len(out) != 1 {
		c.fatal(pos, "ligature replacement must be a single glyph")
	}
	classes := make([][]glyph.ID, len(input))
	total := 1
	for i, pat := range input {
		classes[i] = c.resolve(pat)
		total *= len(classes[i])
		if total > maxSequences {
			c.fatal(pos, "ligature rule expands to too many glyph sequences")
		}
	}

	for _, seq := range product(classes) {
		first := seq[0]
		lig := gtab.Ligature{In: seq[1:], Out: out[0]}
		dup := false
		for _, old := range data[first] {
			if slices.Equal(old.In, lig.In) {
				if old.Out != lig.Out {
					c.fatal(pos, "conflicting ligature substitutions for glyphs %v", seq)
				}
				dup = true
			}
		}
		if !dup {
			data[first] = append(data[first], lig)
		}
	}
}

func makeLigatureLookup(flags LookupFlag, data map[glyph.ID][]gtab.Ligature) *gtab.LookupTable {
	in := sortedKeys(data)
	cov := make(coverage.Table, len(in))
	for i, gid := range in {
		cov[gid] = i
	}

	repl := make([][]gtab.Ligature, len(in))
	for i, gid := range in {
		ligs := data[gid]
		// longer ligatures must be tried first
		slices.SortStableFunc(ligs, func(a, b gtab.Ligature) int {
			return len(b.In) - len(a.In)
		})
		repl[i] = ligs
	}

	return &gtab.LookupTable{
		Meta: &gtab.LookupMetaInfo{
			LookupType:  4,
			LookupFlags: gtab.LookupFlags(flags),
		},
		Subtables: []gtab.Subtable{
			&gtab.Gsub4_1{
				Cov:  cov,
				Repl: repl,
			},
		},
	}
}

func (c *compiler) chainLookup(l *Lookup) *gtab.LookupTable {
	lookup := &gtab.LookupTable{
		Meta: &gtab.LookupMetaInfo{
			LookupType:  6,
			LookupFlags: gtab.LookupFlags(l.Flags),
		},
	}
	for _, r := range l.Rules {
		if r.Ignore {
			for _, ctx := range r.Contexts {
				lookup.Subtables = append(lookup.Subtables, c.chainSubtable(l, r, ctx))
			}
		} else {
			lookup.Subtables = append(lookup.Subtables, c.chainSubtable(l, r, r.Input))
		}
	}
	return lookup
}

// chainSubtable builds a format 3 chained sequence context subtable for a
// single glyph sequence of a contextual rule.
func (c *compiler) chainSubtable(l *Lookup, r *Rule, seq []*Pattern) *gtab.ChainedSeqContext3 {
	res := &gtab.ChainedSeqContext3{}
	var marked []*Pattern
	for _, pat := range seq {
		set := c.resolveSet(pat)
		switch {
		case pat.Marked:
			res.Input = append(res.Input, set)
			marked = append(marked, pat)
		case len(res.Input) == 0:
			res.Backtrack = append(res.Backtrack, set)
		default:
			res.Lookahead = append(res.Lookahead, set)
		}
	}
	// The backtrack sequence is stored starting with the glyph closest to
	// the input sequence.
	slices.Reverse(res.Backtrack)

	if r.Ignore {
		return res
	}

	if r.By != nil {
		var anon *gtab.LookupTable
		if len(marked) == 1 {
			m := make(map[glyph.ID]glyph.ID)
			c.addSingle(m, r.Pos, marked[0], r.By[0])
			anon = makeSingleLookup(l.Flags, m)
		} else {
			data := make(map[glyph.ID][]gtab.Ligature)
			c.addLigatures(data, r.Pos, marked, r.By[0])
			anon = makeLigatureLookup(l.Flags, data)
		}
		idx := len(c.file.Lookups) + len(c.anon)
		c.anon = append(c.anon, anon)
		res.Actions = []gtab.SeqLookup{
			{SequenceIndex: 0, LookupListIndex: gtab.LookupIndex(idx)},
		}
		return res
	}

	for i, pat := range marked {
		for _, name := range pat.Lookups {
			ref := c.named[name]
			if ref == nil {
				c.fatal(r.Pos, "undefined lookup %s", name)
			}
			res.Actions = append(res.Actions, gtab.SeqLookup{
				SequenceIndex:   uint16(i),
				LookupListIndex: c.index[ref],
			})
		}
	}
	return res
}

func (c *compiler) compileFeatures() (gtab.ScriptListInfo, gtab.FeatureListInfo) {
	declared := c.file.LangSys
	if len(declared) == 0 {
		declared = []LangSys{{Script: "DFLT", Language: "dflt"}}
	}

	scripts := gtab.ScriptListInfo{}
	var features gtab.FeatureListInfo

	tags := make(map[LangSys]language.Tag)
	tagFor := func(ls LangSys, pos Pos) language.Tag {
		if tag, ok := tags[ls]; ok {
			return tag
		}
		tag, err := ls.Tag()
		if err != nil {
			c.fatal(pos, "%v", err)
		}
		tags[ls] = tag
		if _, exists := scripts[tag]; !exists {
			scripts[tag] = &gtab.Features{Required: 0xFFFF}
		}
		return tag
	}
	for _, ls := range declared {
		tagFor(ls, Pos{})
	}

	for _, feat := range c.file.Features {
		var order []LangSys
		lists := make(map[LangSys][]gtab.LookupIndex)
		ensure := func(ls LangSys) {
			if _, ok := lists[ls]; !ok {
				order = append(order, ls)
				lists[ls] = nil
			}
		}
		add := func(ls LangSys, idx ...gtab.LookupIndex) {
			ensure(ls)
			for _, i := range idx {
				if !slices.Contains(lists[ls], i) {
					lists[ls] = append(lists[ls], i)
				}
			}
		}
		for _, ls := range declared {
			ensure(ls)
		}

		for _, e := range feat.Entries {
			switch {
			case e.InheritFrom != nil:
				add(LangSys{Script: e.Script, Language: e.Language}, lists[*e.InheritFrom]...)
			case e.Script == "":
				for _, ls := range declared {
					add(ls, c.index[e.Lookup])
				}
			default:
				add(LangSys{Script: e.Script, Language: e.Language}, c.index[e.Lookup])
			}
		}

		var records []gtab.FeatureIndex
		for _, ls := range order {
			list := lists[ls]
			if len(list) == 0 {
				continue
			}
			slices.Sort(list)

			fidx := -1
			for _, k := range records {
				if slices.Equal(features[k].Lookups, list) {
					fidx = int(k)
					break
				}
			}
			if fidx < 0 {
				fidx = len(features)
				features = append(features, &gtab.Feature{
					Tag:     feat.Tag,
					Lookups: list,
				})
				records = append(records, gtab.FeatureIndex(fidx))
			}

			tag := tagFor(ls, feat.Pos)
			f := scripts[tag]
			if !slices.Contains(f.Optional, gtab.FeatureIndex(fidx)) {
				f.Optional = append(f.Optional, gtab.FeatureIndex(fidx))
			}
		}
	}

	return scripts, features
}

// resolve returns the glyph IDs matched by a pattern.
func (c *compiler) resolve(pat *Pattern) []glyph.ID {
	var res []glyph.ID
	seen := make(map[glyph.ID]bool)
	for _, item := range pat.Glyphs {
		for _, gid := range c.resolveItem(item) {
			if !seen[gid] {
				seen[gid] = true
				res = append(res, gid)
			}
		}
	}
	return res
}

func (c *compiler) resolveSet(pat *Pattern) coverage.Set {
	set := make(coverage.Set)
	for _, gid := range c.resolve(pat) {
		set[gid] = true
	}
	return set
}

func (c *compiler) resolveItem(item GlyphItem) []glyph.ID {
	if item.To != "" {
		return c.resolveRange(item.Pos, item.Name, item.To)
	}
	if gid, ok := c.byName[item.Name]; ok {
		return []glyph.ID{gid}
	}
	if item.MaybeRange {
		for i := 1; i < len(item.Name)-1; i++ {
			if item.Name[i] != '-' {
				continue
			}
			from, to := item.Name[:i], item.Name[i+1:]
			_, ok1 := c.byName[from]
			_, ok2 := c.byName[to]
			if ok1 && ok2 {
				return c.resolveRange(item.Pos, from, to)
			}
		}
	}
	c.fatal(item.Pos, "glyph %q not found in font", item.Name)
	return nil
}

func (c *compiler) resolveRange(pos Pos, from, to string) []glyph.ID {
	names, err := expandRange(from, to)
	if err != nil {
		c.fatal(pos, "%v", err)
	}
	res := make([]glyph.ID, len(names))
	for i, name := range names {
		gid, ok := c.byName[name]
		if !ok {
			c.fatal(pos, "glyph %q not found in font", name)
		}
		res[i] = gid
	}
	return res
}

// expandRange lists the glyph names in a range like "a.sc-z.sc" or
// "a.001-a.120".  The two names must have the same length and differ in a
// single run of decimal digits, or in a single letter.
func expandRange(from, to string) ([]string, error) {
	if len(from) != len(to) {
		return nil, fmt.Errorf("invalid glyph range %s-%s", from, to)
	}
	first, last := -1, -1
	for i := 0; i < len(from); i++ {
		if from[i] != to[i] {
			if first < 0 {
				first = i
			}
			last = i
		}
	}
	if first < 0 {
		return []string{from}, nil
	}

	prefix, suffix := from[:first], from[last+1:]
	a, b := from[first:last+1], to[first:last+1]

	if first == last && isLetter(a[0]) && isLetter(b[0]) && isUpper(a[0]) == isUpper(b[0]) {
		if a[0] > b[0] {
			return nil, fmt.Errorf("invalid glyph range %s-%s", from, to)
		}
		var res []string
		for ch := a[0]; ch <= b[0]; ch++ {
			res = append(res, prefix+string(ch)+suffix)
		}
		return res, nil
	}

	// extend the differing part to the full run of digits
	for first > 0 && isDigit(from[first-1]) {
		first--
	}
	for last+1 < len(from) && isDigit(from[last+1]) {
		last++
	}
	prefix, suffix = from[:first], from[last+1:]
	a, b = from[first:last+1], to[first:last+1]
	x, err1 := strconv.Atoi(a)
	y, err2 := strconv.Atoi(b)
	if err1 != nil || err2 != nil || !allDigits(a) || !allDigits(b) || x > y {
		return nil, fmt.Errorf("invalid glyph range %s-%s", from, to)
	}
	if y-x >= maxSequences {
		return nil, fmt.Errorf("glyph range %s-%s is too large", from, to)
	}
	width := len(a)
	var res []string
	for k := x; k <= y; k++ {
		num := strconv.Itoa(k)
		num = strings.Repeat("0", width-len(num)) + num
		res = append(res, prefix+num+suffix)
	}
	return res, nil
}

func isLetter(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

func isUpper(c byte) bool {
	return c >= 'A' && c <= 'Z'
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if !isDigit(s[i]) {
			return false
		}
	}
	return s != ""
}

// product returns all sequences which take one element from each class.
func product(classes [][]glyph.ID) [][]glyph.ID {
	res := [][]glyph.ID{nil}
	for _, class := range classes {
		var next [][]glyph.ID
		for _, prefix := range res {
			for _, gid := range class {
				seq := make([]glyph.ID, len(prefix), len(prefix)+1)
				copy(seq, prefix)
				next = append(next, append(seq, gid))
			}
		}
		res = next
	}
	return res
}

func sortedKeys[V any](m map[glyph.ID]V) []glyph.ID {
	keys := make([]glyph.ID, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func (c *compiler) fatal(pos Pos, format string, a ...any) {
	panic(&parseError{&Error{Pos: pos, Msg: fmt.Sprintf(format, a...)}})
}
