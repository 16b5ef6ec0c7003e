package engine

import "strings"

// IsBlank reports whether src contains nothing but whitespace, comments and
// semicolons, i.e. nothing the engine would compile into a statement.
func IsBlank(src string) bool {
	s := scanner{src: src}
	for s.pos < len(src) {
		switch c := src[s.pos]; {
		case isSpace(c) || c == ';':
			s.pos++
		case s.skipComment():
		default:
			return false
		}
	}
	return true
}

// StatementEnd returns the offset just past the first top-level semicolon in
// src, or len(src) when there is none. Quoted strings, quoted identifiers,
// comments and the BEGIN...END body of CREATE TRIGGER are skipped.
//
// It is only used to resynchronise after a compile error; successful
// compiles use the engine's own end position.
func StatementEnd(src string) int {
	s := scanner{src: src}
	var words []string
	inTrigger := false
	depth := 0

	for s.pos < len(src) {
		c := src[s.pos]
		switch {
		case s.skipComment():
		case c == '\'' || c == '"' || c == '`':
			s.skipQuoted(c, c)
		case c == '[':
			s.skipQuoted('[', ']')
		case isWordStart(c):
			word := strings.ToUpper(s.word())
			if len(words) < 4 {
				words = append(words, word)
				if isCreateTrigger(words) {
					inTrigger = true
				}
			}
			if inTrigger {
				switch word {
				case "BEGIN", "CASE":
					depth++
				case "END":
					depth--
				}
			}
		case c == ';':
			s.pos++
			if !inTrigger || depth <= 0 {
				return s.pos
			}
		default:
			s.pos++
		}
	}
	return len(src)
}

func isCreateTrigger(words []string) bool {
	if len(words) < 2 || words[0] != "CREATE" {
		return false
	}
	for _, w := range words[1:] {
		switch w {
		case "TRIGGER":
			return true
		case "TEMP", "TEMPORARY":
		default:
			return false
		}
	}
	return false
}

type scanner struct {
	src string
	pos int
}

// skipComment advances past a comment at the current position.
func (s *scanner) skipComment() bool {
	rest := s.src[s.pos:]
	switch {
	case strings.HasPrefix(rest, "--"):
		if i := strings.IndexByte(rest, '\n'); i >= 0 {
			s.pos += i + 1
		} else {
			s.pos = len(s.src)
		}
		return true
	case strings.HasPrefix(rest, "/*"):
		if i := strings.Index(rest[2:], "*/"); i >= 0 {
			s.pos += i + 4
		} else {
			s.pos = len(s.src)
		}
		return true
	}
	return false
}

// skipQuoted advances past a quoted run. A doubled closing quote is an
// escaped quote and does not end the run.
func (s *scanner) skipQuoted(open, close byte) {
	s.pos++ // opening quote
	for s.pos < len(s.src) {
		c := s.src[s.pos]
		s.pos++
		if c != close {
			continue
		}
		if open == close && s.pos < len(s.src) && s.src[s.pos] == close {
			s.pos++
			continue
		}
		return
	}
}

func (s *scanner) word() string {
	start := s.pos
	for s.pos < len(s.src) && isWordPart(s.src[s.pos]) {
		s.pos++
	}
	return s.src[start:s.pos]
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v'
}

func isWordStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c >= 0x80
}

func isWordPart(c byte) bool {
	return isWordStart(c) || (c >= '0' && c <= '9') || c == '$'
}
