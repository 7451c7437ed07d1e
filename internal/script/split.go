// Package script splits SQL script text into executable statements.
//
// The splitter understands enough SQL surface to never cut a statement in
// half: quoted literals and identifiers, line and block comments, Postgres
// dollar-quoted bodies, SQL Server bracket identifiers, and trigger bodies
// delimited by BEGIN ... END. It does not parse SQL beyond that; statements
// are classified by their first keyword only.
package script

import (
	"fmt"
	"strings"
)

// Statement is one executable statement extracted from a script.
type Statement struct {
	// SQL is the statement text with surrounding whitespace and the
	// trailing semicolon removed.
	SQL string

	// Label is the first line of the comment block immediately preceding
	// the statement, stripped of comment markers. Empty when the
	// statement has no preceding comment.
	Label string

	// Doc is the full preceding comment block, marker-stripped, one
	// entry per line.
	Doc []string

	// Line is the 1-based source line the statement starts on.
	Line int
}

// ReturnsRows reports whether executing the statement is expected to
// produce a result set, judged by its first keyword.
func (s *Statement) ReturnsRows() bool {
	return IsRowReturning(s.SQL)
}

// rowKeywords are the statement-leading keywords that produce result sets.
// "declare" covers T-SQL batches that bind a variable and select through
// it in one statement, as FOR SYSTEM_TIME AS OF requires.
var rowKeywords = map[string]bool{
	"select":    true,
	"with":      true,
	"values":    true,
	"table":     true,
	"show":      true,
	"pragma":    true,
	"explain":   true,
	"declare":   true,
	"describe":  true,
	"summarize": true,
}

// IsRowReturning reports whether a statement's first keyword marks it as
// row-returning. Leading comments and parentheses are skipped.
func IsRowReturning(sqlStr string) bool {
	word := firstKeyword(sqlStr)
	return rowKeywords[word]
}

// firstKeyword returns the first bare keyword of the statement, lowercased.
func firstKeyword(sqlStr string) string {
	s := sqlStr
	for {
		s = strings.TrimLeft(s, " \t\r\n(")
		switch {
		case strings.HasPrefix(s, "--"):
			if idx := strings.IndexByte(s, '\n'); idx >= 0 {
				s = s[idx+1:]
				continue
			}
			return ""
		case strings.HasPrefix(s, "/*"):
			if idx := strings.Index(s, "*/"); idx >= 0 {
				s = s[idx+2:]
				continue
			}
			return ""
		}
		break
	}

	end := 0
	for end < len(s) && isWordByte(s[end]) {
		end++
	}
	return strings.ToLower(s[:end])
}

// splitter is a single-pass scanner over script source.
type splitter struct {
	src  string
	pos  int
	line int // 1-based line of src[pos]

	// statement under construction
	start     int // byte offset of statement start, -1 when between statements
	startLine int
	bodyDepth int  // BEGIN/CASE nesting inside a compound body
	compound  bool // statement may contain a BEGIN ... END body (CREATE TRIGGER etc.)

	// comment block preceding the next statement
	pending []string

	stmts []Statement
}

// Split breaks script source into statements. It returns an error for
// unterminated strings, comments, and dollar-quoted bodies; everything else
// is left for the target engine to judge.
func Split(src string) ([]Statement, error) {
	s := &splitter{src: src, line: 1, start: -1}
	if err := s.run(); err != nil {
		return nil, err
	}
	return s.stmts, nil
}

func (s *splitter) run() error {
	for s.pos < len(s.src) {
		c := s.src[s.pos]

		switch {
		case c == '\n':
			if s.start < 0 {
				// A blank line between statements detaches any
				// comment block seen so far (file headers stay
				// file headers).
				if s.blankLineAhead() {
					s.pending = nil
				}
			}
			s.line++
			s.pos++

		case c == ' ' || c == '\t' || c == '\r':
			s.pos++

		case strings.HasPrefix(s.src[s.pos:], "--"):
			text := s.scanLineComment()
			if s.start < 0 {
				s.pending = append(s.pending, text)
			}

		case strings.HasPrefix(s.src[s.pos:], "/*"):
			lines, err := s.scanBlockComment()
			if err != nil {
				return err
			}
			if s.start < 0 {
				s.pending = append(s.pending, lines...)
			}

		case c == '\'':
			s.ensureStarted()
			if err := s.scanQuoted('\'', "string literal"); err != nil {
				return err
			}

		case c == '"':
			s.ensureStarted()
			if err := s.scanQuoted('"', "quoted identifier"); err != nil {
				return err
			}

		case c == '[':
			s.ensureStarted()
			if err := s.scanBracketIdent(); err != nil {
				return err
			}

		case c == '$':
			s.ensureStarted()
			if err := s.scanDollarQuoted(); err != nil {
				return err
			}

		case c == ';':
			if s.start >= 0 && s.bodyDepth > 0 {
				// Semicolon inside a trigger body
				s.pos++
				break
			}
			s.flush(s.pos)
			s.pos++

		case isWordByte(c):
			s.ensureStarted()
			word := s.scanWord()
			s.trackCompound(word)

		default:
			s.ensureStarted()
			s.pos++
		}
	}

	if s.start >= 0 && s.bodyDepth > 0 {
		return fmt.Errorf("line %d: unterminated BEGIN block", s.startLine)
	}

	// Statement without trailing semicolon at EOF
	s.flush(len(s.src))
	return nil
}

// ensureStarted marks the current position as the start of a statement.
func (s *splitter) ensureStarted() {
	if s.start < 0 {
		s.start = s.pos
		s.startLine = s.line
		s.bodyDepth = 0
		s.compound = false
	}
}

// flush emits the statement accumulated up to end, if any.
func (s *splitter) flush(end int) {
	if s.start < 0 {
		return
	}
	text := strings.TrimSpace(s.src[s.start:end])
	s.start = -1
	s.bodyDepth = 0
	s.compound = false
	if text == "" {
		s.pending = nil
		return
	}

	stmt := Statement{SQL: text, Line: s.startLine, Doc: s.pending}
	if len(s.pending) > 0 {
		stmt.Label = s.pending[0]
	}
	s.pending = nil
	s.stmts = append(s.stmts, stmt)
}

// blankLineAhead reports whether the newline at s.pos is followed by
// another newline with only spaces in between, i.e. ends a paragraph.
func (s *splitter) blankLineAhead() bool {
	for i := s.pos + 1; i < len(s.src); i++ {
		switch s.src[i] {
		case ' ', '\t', '\r':
		case '\n':
			return true
		default:
			return false
		}
	}
	return true
}

// scanLineComment consumes a -- comment and returns its marker-stripped text.
func (s *splitter) scanLineComment() string {
	end := strings.IndexByte(s.src[s.pos:], '\n')
	var text string
	if end < 0 {
		text = s.src[s.pos:]
		s.pos = len(s.src)
	} else {
		text = s.src[s.pos : s.pos+end]
		s.pos += end // leave the newline for the main loop
	}
	return strings.TrimSpace(strings.TrimLeft(text, "-"))
}

// scanBlockComment consumes a /* */ comment, honoring nesting, and returns
// its marker-stripped lines.
func (s *splitter) scanBlockComment() ([]string, error) {
	startLine := s.line
	depth := 0
	i := s.pos
	for i < len(s.src) {
		switch {
		case strings.HasPrefix(s.src[i:], "/*"):
			depth++
			i += 2
		case strings.HasPrefix(s.src[i:], "*/"):
			depth--
			i += 2
			if depth == 0 {
				body := s.src[s.pos+2 : i-2]
				s.pos = i
				return commentLines(body), nil
			}
		case s.src[i] == '\n':
			s.line++
			i++
		default:
			i++
		}
	}
	return nil, fmt.Errorf("line %d: unterminated block comment", startLine)
}

// commentLines trims comment decoration from each line of a block comment.
func commentLines(body string) []string {
	var lines []string
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimPrefix(line, "*")
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// scanQuoted consumes a quoted region delimited by quote, where a doubled
// quote is an escape.
func (s *splitter) scanQuoted(quote byte, what string) error {
	startLine := s.line
	i := s.pos + 1
	for i < len(s.src) {
		switch s.src[i] {
		case quote:
			if i+1 < len(s.src) && s.src[i+1] == quote {
				i += 2
				continue
			}
			s.pos = i + 1
			return nil
		case '\n':
			s.line++
		}
		i++
	}
	return fmt.Errorf("line %d: unterminated %s", startLine, what)
}

// scanBracketIdent consumes a [bracketed] identifier. A doubled ]] is an
// escape, matching SQL Server rules.
func (s *splitter) scanBracketIdent() error {
	startLine := s.line
	i := s.pos + 1
	for i < len(s.src) {
		switch s.src[i] {
		case ']':
			if i+1 < len(s.src) && s.src[i+1] == ']' {
				i += 2
				continue
			}
			s.pos = i + 1
			return nil
		case '\n':
			s.line++
		}
		i++
	}
	return fmt.Errorf("line %d: unterminated bracket identifier", startLine)
}

// scanDollarQuoted consumes a Postgres dollar-quoted region ($$ ... $$ or
// $tag$ ... $tag$). A lone $ that does not open a tag is consumed as-is.
func (s *splitter) scanDollarQuoted() error {
	tagEnd := s.pos + 1
	for tagEnd < len(s.src) && isWordByte(s.src[tagEnd]) {
		tagEnd++
	}
	if tagEnd >= len(s.src) || s.src[tagEnd] != '$' {
		// Not a dollar quote ($1 placeholders land here too)
		s.pos++
		return nil
	}

	tag := s.src[s.pos : tagEnd+1]
	startLine := s.line
	i := tagEnd + 1
	for i < len(s.src) {
		if s.src[i] == '$' && strings.HasPrefix(s.src[i:], tag) {
			s.pos = i + len(tag)
			return nil
		}
		if s.src[i] == '\n' {
			s.line++
		}
		i++
	}
	return fmt.Errorf("line %d: unterminated dollar-quoted string %s", startLine, tag)
}

// scanWord consumes an identifier or keyword and returns it lowercased.
func (s *splitter) scanWord() string {
	i := s.pos
	for i < len(s.src) && isWordByte(s.src[i]) {
		i++
	}
	word := strings.ToLower(s.src[s.pos:i])
	s.pos = i
	return word
}

// trackCompound maintains BEGIN/END nesting for statements that carry a
// procedural body. Only CREATE TRIGGER-style statements arm the tracking,
// so a bare BEGIN transaction statement still terminates at its semicolon.
// CASE expressions inside a body pair with their own END.
func (s *splitter) trackCompound(word string) {
	switch word {
	case "trigger", "function", "procedure":
		s.compound = true
	case "begin", "case":
		if s.compound {
			s.bodyDepth++
		}
	case "end":
		if s.compound && s.bodyDepth > 0 {
			s.bodyDepth--
		}
	}
}

// isWordByte reports whether c can appear in an identifier or keyword.
func isWordByte(c byte) bool {
	return c == '_' || ('0' <= c && c <= '9') || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}
