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
	"io/fs"
	"path"
	"strconv"
)

// maxIncludeDepth limits the nesting of include statements.
const maxIncludeDepth = 50

// Parse parses the feature file src.  The name is only used in error
// messages.  Include statements are not allowed.
func Parse(name string, src []byte) (*File, error) {
	return parse(nil, name, src)
}

// ParseFile reads and parses the feature file name from fsys.  Include
// statements are resolved relative to the directory of the including file.
func ParseFile(fsys fs.FS, name string) (*File, error) {
	src, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, err
	}
	return parse(fsys, name, src)
}

func parse(fsys fs.FS, name string, src []byte) (res *File, err error) {
	p := &parser{
		fsys:    fsys,
		stack:   []*source{{name: name, lex: newLexer(string(src))}},
		classes: make(map[string][]GlyphItem),
		lookups: make(map[string]*Lookup),
		res:     &File{},
	}

	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(*parseError); ok {
				res = nil
				err = e.err
			} else {
				panic(r)
			}
		}
	}()

	p.parse()
	return p.res, nil
}

type source struct {
	name string
	lex  *lexer
}

type parser struct {
	fsys    fs.FS
	stack   []*source
	backlog []item

	classes map[string][]GlyphItem
	lookups map[string]*Lookup

	res *File
}

func (p *parser) parse() {
	for {
		it := p.readItem()
		switch {
		case it.typ == itemEOF:
			return
		case it.typ == itemSemicolon:
			// pass
		case it.typ == itemClassName:
			p.parseClassDef(it)
		case p.isKeyword(it, "languagesystem"):
			p.parseLangSys()
		case p.isKeyword(it, "include"):
			p.parseInclude(it)
		case p.isKeyword(it, "lookup"):
			p.parseLookupBlock(it)
		case p.isKeyword(it, "feature"):
			p.parseFeature(it)
		case p.isKeyword(it, "table"):
			p.fatalAt(it, "table blocks are not supported")
		case p.isKeyword(it, "anon"), p.isKeyword(it, "anonymous"):
			p.fatalAt(it, "anonymous data blocks are not supported")
		default:
			p.fatalAt(it, "unexpected %s", it)
		}
	}
}

func (p *parser) parseLangSys() {
	script := p.readTag()
	lang := p.readTag()
	p.required(itemSemicolon)
	ls := LangSys{Script: script, Language: lang}
	for _, old := range p.res.LangSys {
		if old == ls {
			return
		}
	}
	p.res.LangSys = append(p.res.LangSys, ls)
}

func (p *parser) parseInclude(kw item) {
	p.required(itemParenOpen)
	if len(p.backlog) > 0 {
		p.fatalAt(kw, "malformed include statement")
	}
	top := p.stack[len(p.stack)-1]
	fname, ok := top.lex.rawUntil(')')
	if !ok || fname == "" {
		p.fatalAt(kw, "malformed include statement")
	}
	p.required(itemParenClose)
	// The semicolon is optional.  It must be looked for in the including
	// file before the included file is pushed.
	top.lex.skipByte(';')

	if p.fsys == nil {
		p.fatalAt(kw, "include statements are not supported here")
	}
	if len(p.stack) >= maxIncludeDepth {
		p.fatalAt(kw, "include statements nested too deeply")
	}
	if !path.IsAbs(fname) {
		fname = path.Join(path.Dir(top.name), fname)
	}
	if !fs.ValidPath(fname) {
		p.fatalAt(kw, "invalid include path %q", fname)
	}
	src, err := fs.ReadFile(p.fsys, fname)
	if err != nil {
		p.fatalAt(kw, "include: %v", err)
	}
	p.stack = append(p.stack, &source{name: fname, lex: newLexer(string(src))})
}

func (p *parser) parseClassDef(name item) {
	if _, exists := p.classes[name.val]; exists {
		p.fatalAt(name, "glyph class @%s defined twice", name.val)
	}
	p.required(itemEqual)
	var glyphs []GlyphItem
	it := p.readItem()
	switch it.typ {
	case itemClassName:
		glyphs = p.classRef(it)
	case itemSquareBracketOpen:
		glyphs = p.readClassBody()
	default:
		p.fatalAt(it, "expected glyph class, got %s", it)
	}
	p.required(itemSemicolon)
	p.classes[name.val] = glyphs
}

func (p *parser) classRef(it item) []GlyphItem {
	glyphs, ok := p.classes[it.val]
	if !ok {
		p.fatalAt(it, "undefined glyph class @%s", it.val)
	}
	return glyphs
}

// readClassBody reads the content of a glyph class, after the opening "[".
func (p *parser) readClassBody() []GlyphItem {
	var res []GlyphItem
	for {
		it := p.readItem()
		switch {
		case it.typ == itemSquareBracketClose:
			if len(res) == 0 {
				p.fatalAt(it, "empty glyph class")
			}
			return res
		case it.typ == itemClassName:
			res = append(res, p.classRef(it)...)
		case it.typ == itemIdentifier:
			g := p.glyphItem(it)
			if p.optional(itemHyphen) {
				to := p.readItem()
				if to.typ != itemIdentifier {
					p.fatalAt(to, "expected glyph name after \"-\", got %s", to)
				}
				g.To = to.val
				g.MaybeRange = false
			}
			res = append(res, g)
		default:
			p.fatalAt(it, "unexpected %s in glyph class", it)
		}
	}
}

func (p *parser) glyphItem(it item) GlyphItem {
	return GlyphItem{
		Name:       it.val,
		MaybeRange: !it.escaped && containsHyphen(it.val),
		Pos:        p.pos(it),
	}
}

func containsHyphen(s string) bool {
	for i := 1; i < len(s)-1; i++ {
		if s[i] == '-' {
			return true
		}
	}
	return false
}

func (p *parser) parseLookupBlock(kw item) *Lookup {
	nameItem := p.readItem()
	if nameItem.typ != itemIdentifier {
		p.fatalAt(nameItem, "expected lookup name, got %s", nameItem)
	}
	name := nameItem.val
	if _, exists := p.lookups[name]; exists {
		p.fatalAt(nameItem, "lookup %s defined twice", name)
	}
	p.optionalKeyword("useExtension")
	p.required(itemBraceOpen)

	l := &Lookup{Name: name, Pos: p.pos(kw)}
	for {
		it := p.readItem()
		switch {
		case it.typ == itemBraceClose:
			p.closeBlock(name)
			if len(l.Rules) == 0 {
				p.fatalAt(kw, "lookup %s is empty", name)
			}
			p.lookups[name] = l
			p.res.Lookups = append(p.res.Lookups, l)
			return l
		case it.typ == itemSemicolon:
			// pass
		case it.typ == itemClassName:
			p.parseClassDef(it)
		case p.isKeyword(it, "include"):
			p.parseInclude(it)
		case p.isKeyword(it, "lookupflag"):
			l.Flags = p.parseLookupFlag()
		case p.isKeyword(it, "subtable"):
			p.required(itemSemicolon)
		case p.isKeyword(it, "sub"), p.isKeyword(it, "substitute"):
			p.addToLookup(l, p.parseSub(it))
		case p.isKeyword(it, "ignore"):
			p.addToLookup(l, p.parseIgnore(it))
		case p.isKeyword(it, "script"), p.isKeyword(it, "language"):
			p.fatalAt(it, "%s statement inside lookup block", it.val)
		case p.isKeyword(it, "lookup"):
			p.fatalAt(it, "nested lookup blocks are not allowed")
		default:
			p.checkUnsupported(it)
			p.fatalAt(it, "unexpected %s in lookup %s", it, name)
		}
	}
}

func (p *parser) addToLookup(l *Lookup, r *Rule) {
	if l.Kind != 0 && l.Kind != r.Kind {
		p.fatal(r.Pos, "lookup %s mixes %s and %s rules", l.Name, l.Kind, r.Kind)
	}
	l.Kind = r.Kind
	l.Rules = append(l.Rules, r)
}

func (p *parser) parseFeature(kw item) {
	tag := p.readTag()
	p.optionalKeyword("useExtension")
	p.required(itemBraceOpen)

	feat := &Feature{Tag: tag, Pos: p.pos(kw)}
	script, lang := "", ""
	var flags LookupFlag
	var implicit *Lookup

	for {
		it := p.readItem()
		switch {
		case it.typ == itemBraceClose:
			p.closeBlock(tag)
			p.res.Features = append(p.res.Features, feat)
			return
		case it.typ == itemSemicolon:
			// pass
		case it.typ == itemClassName:
			p.parseClassDef(it)
		case p.isKeyword(it, "include"):
			p.parseInclude(it)
		case p.isKeyword(it, "script"):
			script = p.readTag()
			lang = "dflt"
			p.required(itemSemicolon)
			implicit = nil
		case p.isKeyword(it, "language"):
			if script == "" {
				script = "DFLT"
			}
			lang = p.readTag()
			inherit := true
			for {
				switch {
				case p.optionalKeyword("exclude_dflt"), p.optionalKeyword("excludeDFLT"):
					inherit = false
					continue
				case p.optionalKeyword("include_dflt"), p.optionalKeyword("includeDFLT"):
					continue
				case p.optionalKeyword("required"):
					p.fatalAt(it, "required features are not supported")
				}
				break
			}
			p.required(itemSemicolon)
			if inherit && lang != "dflt" {
				feat.Entries = append(feat.Entries, &FeatureEntry{
					Script:      script,
					Language:    lang,
					InheritFrom: &LangSys{Script: script, Language: "dflt"},
				})
			}
			implicit = nil
		case p.isKeyword(it, "lookupflag"):
			flags = p.parseLookupFlag()
			implicit = nil
		case p.isKeyword(it, "subtable"):
			p.required(itemSemicolon)
		case p.isKeyword(it, "lookup"):
			var l *Lookup
			if p.peek().typ == itemIdentifier && p.peekN(2).typ == itemSemicolon {
				ref := p.readItem()
				p.required(itemSemicolon)
				l = p.lookups[ref.val]
				if l == nil {
					p.fatalAt(ref, "undefined lookup %s", ref.val)
				}
			} else {
				l = p.parseLookupBlock(it)
			}
			feat.Entries = append(feat.Entries, &FeatureEntry{
				Lookup:   l,
				Script:   script,
				Language: lang,
			})
			implicit = nil
		case p.isKeyword(it, "sub"), p.isKeyword(it, "substitute"), p.isKeyword(it, "ignore"):
			var r *Rule
			if it.val == "ignore" {
				r = p.parseIgnore(it)
			} else {
				r = p.parseSub(it)
			}
			if implicit == nil || implicit.Kind != r.Kind {
				implicit = &Lookup{Flags: flags, Kind: r.Kind, Pos: r.Pos}
				p.res.Lookups = append(p.res.Lookups, implicit)
				feat.Entries = append(feat.Entries, &FeatureEntry{
					Lookup:   implicit,
					Script:   script,
					Language: lang,
				})
			}
			implicit.Rules = append(implicit.Rules, r)
		default:
			p.checkUnsupported(it)
			p.fatalAt(it, "unexpected %s in feature %s", it, tag)
		}
	}
}

// closeBlock reads the "NAME ;" which follows the closing brace of a
// feature or lookup block.
func (p *parser) closeBlock(name string) {
	it := p.readItem()
	if it.typ != itemIdentifier || it.val != name {
		p.fatalAt(it, "expected %q to close block %s, got %s", name, name, it)
	}
	p.required(itemSemicolon)
}

func (p *parser) parseLookupFlag() LookupFlag {
	var flags LookupFlag
	first := true
	for {
		it := p.readItem()
		switch {
		case it.typ == itemSemicolon:
			if first {
				p.fatalAt(it, "empty lookupflag statement")
			}
			return flags
		case it.typ == itemNumber && first:
			x, err := strconv.Atoi(it.val)
			if err != nil || x < 0 || x > 0xFFFF {
				p.fatalAt(it, "invalid lookup flag %s", it.val)
			}
			flags = LookupFlag(x)
		case it.typ == itemIdentifier:
			flag, ok := lookupFlagNames[it.val]
			if !ok {
				if it.val == "MarkAttachmentType" || it.val == "UseMarkFilteringSet" {
					p.fatalAt(it, "lookup flag %s is not supported", it.val)
				}
				p.fatalAt(it, "unknown lookup flag %s", it.val)
			}
			flags |= flag
		default:
			p.fatalAt(it, "unexpected %s in lookupflag statement", it)
		}
		first = false
	}
}

// parseIgnore parses the remainder of an "ignore sub" statement.
func (p *parser) parseIgnore(kw item) *Rule {
	sub := p.readItem()
	if !p.isKeyword(sub, "sub") && !p.isKeyword(sub, "substitute") {
		p.checkUnsupported(sub)
		p.fatalAt(sub, "expected \"sub\" after \"ignore\", got %s", sub)
	}
	r := &Rule{Kind: KindChain, Ignore: true, Pos: p.pos(kw)}
	for {
		seq := p.readSequence(true)
		if len(seq) == 0 {
			p.fatal(r.Pos, "empty context in ignore statement")
		}
		marked := false
		for _, pat := range seq {
			if len(pat.Lookups) > 0 {
				p.fatal(r.Pos, "lookup references in ignore statement")
			}
			marked = marked || pat.Marked
		}
		if !marked {
			seq[0].Marked = true
		}
		p.checkMarks(r.Pos, seq)
		r.Contexts = append(r.Contexts, seq)
		if !p.optional(itemComma) {
			break
		}
	}
	p.required(itemSemicolon)
	return r
}

// parseSub parses the remainder of a "sub" statement.
func (p *parser) parseSub(kw item) *Rule {
	r := &Rule{Pos: p.pos(kw)}
	r.Input = p.readSequence(true)
	if len(r.Input) == 0 {
		p.fatal(r.Pos, "missing input glyphs")
	}
	if p.optionalKeyword("by") {
		r.By = p.readSequence(false)
		if len(r.By) == 0 {
			p.fatal(r.Pos, "missing replacement glyphs")
		}
	} else if p.optionalKeyword("from") {
		p.fatal(r.Pos, "alternate substitution is not supported")
	}
	p.required(itemSemicolon)

	marked := 0
	hasLookups := false
	for _, pat := range r.Input {
		if pat.Marked {
			marked++
		}
		if len(pat.Lookups) > 0 {
			hasLookups = true
		}
	}

	switch {
	case marked > 0:
		r.Kind = KindChain
		p.checkMarks(r.Pos, r.Input)
		if r.By != nil && hasLookups {
			p.fatal(r.Pos, "both lookup references and replacement glyphs given")
		}
		if r.By == nil && !hasLookups {
			p.fatal(r.Pos, "contextual substitution without action")
		}
		if r.By != nil && len(r.By) != 1 {
			p.fatal(r.Pos, "contextual multiple substitution is not supported")
		}
		if r.By != nil && marked > 1 && r.By[0].IsClass {
			p.fatal(r.Pos, "ligature replacement must be a single glyph")
		}
	case r.By == nil:
		p.fatal(r.Pos, "missing \"by\" in substitution")
	case len(r.Input) == 1 && len(r.By) == 1:
		r.Kind = KindSingle
	case len(r.Input) > 1 && len(r.By) == 1:
		if r.By[0].IsClass {
			p.fatal(r.Pos, "ligature replacement must be a single glyph")
		}
		r.Kind = KindLigature
	case len(r.Input) == 1:
		p.fatal(r.Pos, "multiple substitution is not supported")
	default:
		p.fatal(r.Pos, "unsupported substitution")
	}
	return r
}

// checkMarks verifies that the marked glyphs of a contextual rule form a
// contiguous run.
func (p *parser) checkMarks(pos Pos, seq []*Pattern) {
	state := 0 // 0 = backtrack, 1 = input, 2 = lookahead
	for _, pat := range seq {
		switch {
		case pat.Marked && state == 2:
			p.fatal(pos, "marked glyphs must be contiguous")
		case pat.Marked:
			state = 1
		case state == 1:
			state = 2
		}
	}
}

// readSequence reads glyphs and glyph classes, up to the next keyword or
// punctuation which cannot be part of a sequence.  If allowMarks is true,
// glyphs may be marked with "'" and followed by lookup references.
func (p *parser) readSequence(allowMarks bool) []*Pattern {
	var res []*Pattern
	for {
		it := p.readItem()
		var pat *Pattern
		switch {
		case it.typ == itemIdentifier && !it.escaped && isRuleKeyword(it.val):
			p.backlog = append(p.backlog, it)
			return res
		case it.typ == itemIdentifier:
			pat = &Pattern{Glyphs: []GlyphItem{p.glyphItem(it)}}
		case it.typ == itemClassName:
			pat = &Pattern{Glyphs: p.classRef(it), IsClass: true}
		case it.typ == itemSquareBracketOpen:
			pat = &Pattern{Glyphs: p.readClassBody(), IsClass: true}
		default:
			p.backlog = append(p.backlog, it)
			return res
		}

		if p.optional(itemQuote) {
			if !allowMarks {
				p.fatalAt(it, "marked glyph in replacement sequence")
			}
			pat.Marked = true
			for p.optionalKeyword("lookup") {
				ref := p.readItem()
				if ref.typ != itemIdentifier {
					p.fatalAt(ref, "expected lookup name, got %s", ref)
				}
				if _, ok := p.lookups[ref.val]; !ok {
					p.fatalAt(ref, "undefined lookup %s", ref.val)
				}
				pat.Lookups = append(pat.Lookups, ref.val)
			}
		}
		res = append(res, pat)
	}
}

func isRuleKeyword(s string) bool {
	switch s {
	case "by", "from", "lookup":
		return true
	}
	return false
}

// checkUnsupported reports a clear error for statements which are valid in
// feature files but not supported here.
func (p *parser) checkUnsupported(it item) {
	if it.typ != itemIdentifier || it.escaped {
		return
	}
	switch it.val {
	case "pos", "position", "enum", "enumerate":
		p.fatalAt(it, "glyph positioning rules are not supported")
	case "rsub", "reversesub":
		p.fatalAt(it, "reverse chaining substitution is not supported")
	case "markClass":
		p.fatalAt(it, "mark classes are not supported")
	case "parameters", "sizemenuname", "featureNames", "cvParameters":
		p.fatalAt(it, "%s statements are not supported", it.val)
	}
}

func (p *parser) readTag() string {
	it := p.readItem()
	if it.typ != itemIdentifier || len(it.val) == 0 || len(it.val) > 4 {
		p.fatalAt(it, "expected OpenType tag, got %s", it)
	}
	return it.val
}

func (p *parser) isKeyword(it item, kw string) bool {
	return it.typ == itemIdentifier && !it.escaped && it.val == kw
}

func (p *parser) optionalKeyword(kw string) bool {
	it := p.readItem()
	if p.isKeyword(it, kw) {
		return true
	}
	p.backlog = append(p.backlog, it)
	return false
}

func (p *parser) readItem() item {
	if len(p.backlog) > 0 {
		n := len(p.backlog) - 1
		it := p.backlog[n]
		p.backlog = p.backlog[:n]
		return it
	}
	for {
		top := p.stack[len(p.stack)-1]
		it := top.lex.nextItem()
		it.file = top.name
		if it.typ == itemError {
			p.fatalAt(it, "%s", it.val)
		}
		if it.typ == itemEOF && len(p.stack) > 1 {
			p.stack = p.stack[:len(p.stack)-1]
			continue
		}
		return it
	}
}

func (p *parser) peek() item {
	return p.peekN(1)
}

// peekN returns the n-th next item, without consuming it.
func (p *parser) peekN(n int) item {
	items := make([]item, n)
	for i := range items {
		items[i] = p.readItem()
	}
	for i := n - 1; i >= 0; i-- {
		p.backlog = append(p.backlog, items[i])
	}
	return items[n-1]
}

func (p *parser) required(typ itemType) item {
	it := p.readItem()
	if it.typ != typ {
		p.fatalAt(it, "expected %s, got %s", typ, it)
	}
	return it
}

func (p *parser) optional(typ itemType) bool {
	it := p.readItem()
	if it.typ != typ {
		p.backlog = append(p.backlog, it)
		return false
	}
	return true
}

func (p *parser) pos(it item) Pos {
	return Pos{File: it.file, Line: it.line, Col: it.col}
}

type parseError struct {
	err *Error
}

func (p *parser) fatal(pos Pos, format string, a ...any) {
	panic(&parseError{&Error{Pos: pos, Msg: fmt.Sprintf(format, a...)}})
}

func (p *parser) fatalAt(it item, format string, a ...any) {
	p.fatal(p.pos(it), format, a...)
}
