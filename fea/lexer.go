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
	"unicode/utf8"
)

type itemType int

const (
	itemError itemType = iota
	itemEOF
	itemIdentifier // glyph names and keywords
	itemClassName  // @NAME
	itemNumber
	itemSemicolon
	itemComma
	itemEqual
	itemQuote // the "'" which marks input glyphs
	itemHyphen
	itemBraceOpen
	itemBraceClose
	itemSquareBracketOpen
	itemSquareBracketClose
	itemParenOpen
	itemParenClose
)

func (typ itemType) String() string {
	switch typ {
	case itemError:
		return "error"
	case itemEOF:
		return "end of file"
	case itemIdentifier:
		return "identifier"
	case itemClassName:
		return "class name"
	case itemNumber:
		return "number"
	case itemSemicolon:
		return "\";\""
	case itemComma:
		return "\",\""
	case itemEqual:
		return "\"=\""
	case itemQuote:
		return "\"'\""
	case itemHyphen:
		return "\"-\""
	case itemBraceOpen:
		return "\"{\""
	case itemBraceClose:
		return "\"}\""
	case itemSquareBracketOpen:
		return "\"[\""
	case itemSquareBracketClose:
		return "\"]\""
	case itemParenOpen:
		return "\"(\""
	case itemParenClose:
		return "\")\""
	default:
		return fmt.Sprintf("itemType(%d)", int(typ))
	}
}

type item struct {
	typ  itemType
	val  string
	file string
	line int
	col  int

	// escaped is set for identifiers written with a leading backslash.
	// These are always glyph names, never keywords.
	escaped bool
}

func (i item) String() string {
	switch i.typ {
	case itemEOF:
		return "end of file"
	case itemError:
		return i.val
	case itemIdentifier, itemClassName, itemNumber:
		return fmt.Sprintf("%s %q", i.typ, i.val)
	default:
		return i.typ.String()
	}
}

// lexer splits a feature file into items.
type lexer struct {
	input string
	pos   int

	line    int
	linePos int // byte offset of the start of the current line
}

func newLexer(input string) *lexer {
	return &lexer{input: input, line: 1}
}

func (l *lexer) emit(typ itemType, start int, val string) item {
	return item{
		typ:  typ,
		val:  val,
		line: l.line,
		col:  start - l.linePos + 1,
	}
}

// nextItem returns the next item from the input.  After the end of input
// has been reached, all further calls return itemEOF.
func (l *lexer) nextItem() item {
	l.skipSpaceAndComments()
	start := l.pos
	if l.pos >= len(l.input) {
		return l.emit(itemEOF, start, "")
	}

	c := l.input[l.pos]
	if typ, ok := punctuation[c]; ok {
		l.pos++
		return l.emit(typ, start, string(c))
	}

	switch {
	case c == '@':
		l.pos++
		name := l.scanName()
		if name == "" {
			return l.emit(itemError, start, "empty class name")
		}
		return l.emit(itemClassName, start, name)
	case c == '\\':
		l.pos++
		name := l.scanName()
		if name == "" {
			return l.emit(itemError, start, "empty glyph name after \"\\\"")
		}
		it := l.emit(itemIdentifier, start, name)
		it.escaped = true
		return it
	case c == '-' && (l.pos+1 >= len(l.input) || !isDigit(l.input[l.pos+1])):
		l.pos++
		return l.emit(itemHyphen, start, "-")
	case c == '-' || isDigit(c):
		l.pos++
		for l.pos < len(l.input) && isDigit(l.input[l.pos]) {
			l.pos++
		}
		return l.emit(itemNumber, start, l.input[start:l.pos])
	case isNameStart(c):
		name := l.scanName()
		return l.emit(itemIdentifier, start, name)
	}

	r, _ := utf8.DecodeRuneInString(l.input[l.pos:])
	l.pos = len(l.input)
	return l.emit(itemError, start, fmt.Sprintf("unexpected character %q", r))
}

var punctuation = map[byte]itemType{
	';':  itemSemicolon,
	',':  itemComma,
	'=':  itemEqual,
	'\'': itemQuote,
	'{':  itemBraceOpen,
	'}':  itemBraceClose,
	'[':  itemSquareBracketOpen,
	']':  itemSquareBracketClose,
	'(':  itemParenOpen,
	')':  itemParenClose,
}

func (l *lexer) skipSpaceAndComments() {
	for l.pos < len(l.input) {
		c := l.input[l.pos]
		switch {
		case c == '\n':
			l.pos++
			l.line++
			l.linePos = l.pos
		case c == ' ' || c == '\t' || c == '\r':
			l.pos++
		case c == '#':
			end := strings.IndexByte(l.input[l.pos:], '\n')
			if end < 0 {
				l.pos = len(l.input)
			} else {
				l.pos += end
			}
		default:
			return
		}
	}
}

// rawUntil returns the input up to the next occurrence of delim, with
// surrounding white space removed.  The delimiter itself is not consumed.
func (l *lexer) rawUntil(delim byte) (string, bool) {
	end := strings.IndexByte(l.input[l.pos:], delim)
	if end < 0 {
		return "", false
	}
	raw := l.input[l.pos : l.pos+end]
	if strings.Contains(raw, "\n") {
		return "", false
	}
	l.pos += end
	return strings.TrimSpace(raw), true
}

// skipByte consumes the next non-space character if it equals c.
func (l *lexer) skipByte(c byte) bool {
	l.skipSpaceAndComments()
	if l.pos < len(l.input) && l.input[l.pos] == c {
		l.pos++
		return true
	}
	return false
}

func (l *lexer) scanName() string {
	start := l.pos
	for l.pos < len(l.input) && isNameChar(l.input[l.pos]) {
		l.pos++
	}
	return l.input[start:l.pos]
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isNameStart(c byte) bool {
	return c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z' || c == '_' || c == '.'
}

func isNameChar(c byte) bool {
	return isNameStart(c) || isDigit(c) || c == '-' || c == '+' || c == '*' || c == '~' || c == '^' || c == '|'
}
