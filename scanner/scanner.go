// Package scanner provides string-boundary-aware scanning for Perl source
// text. It encapsulates the tracking of double-quoted, single-quoted, and
// backtick literals plus escape sequences, eliminating the need for every
// rewrite pass to re-implement this logic.
package scanner

// closingKind tracks which type of string delimiter was just closed.
type closingKind byte

const (
	noClosing       closingKind = iota
	closingDouble               // just closed a "..." string
	closingSingle               // just closed a '...' string
	closingBacktick             // just closed a `...` command
)

// CodeScanner iterates byte-by-byte over source text, tracking string
// literal boundaries (double-quoted, single-quoted, backtick) and escape
// sequences. Callers check InString() instead of maintaining their own
// inDouble/inSingle/escaped flags.
//
// InString() returns true for the entire string span including both
// opening and closing delimiters, matching the rewriter's convention of
// skipping all bytes that are part of string literals.
type CodeScanner struct {
	src     string
	pos     int
	line    int
	inDbl   bool
	inSgl   bool
	inBt    bool
	escaped bool
	closing closingKind
}

// New creates a CodeScanner for the given source text.
// Call Next() to advance to the first byte.
func New(src string) *CodeScanner {
	return &CodeScanner{src: src, pos: -1, line: 1}
}

// Next advances to the next byte, updating string/escape state.
// Returns the byte and true, or (0, false) at end of input.
func (s *CodeScanner) Next() (byte, bool) {
	s.closing = noClosing
	s.pos++
	if s.pos >= len(s.src) {
		return 0, false
	}
	ch := s.src[s.pos]
	if ch == '\n' {
		s.line++
	}

	if s.escaped {
		s.escaped = false
		return ch, true
	}
	if ch == '\\' && (s.inDbl || s.inSgl) {
		s.escaped = true
		return ch, true
	}
	if ch == '"' && !s.inSgl && !s.inBt {
		if s.inDbl {
			s.closing = closingDouble
		}
		s.inDbl = !s.inDbl
	} else if ch == '\'' && !s.inDbl && !s.inBt {
		if s.inSgl {
			s.closing = closingSingle
		}
		s.inSgl = !s.inSgl
	} else if ch == '`' && !s.inDbl && !s.inSgl {
		if s.inBt {
			s.closing = closingBacktick
		}
		s.inBt = !s.inBt
	}

	return ch, true
}

// InString reports whether the current position is inside a string literal
// (double-quoted, single-quoted, or backtick), including both opening and
// closing delimiters.
func (s *CodeScanner) InString() bool {
	return s.inDbl || s.inSgl || s.inBt || s.closing != noClosing
}

// InCode reports whether the current position is outside all string literals.
func (s *CodeScanner) InCode() bool { return !s.InString() }

// Pos returns the current byte offset (the position of the last byte
// returned by Next). Returns -1 before the first call to Next.
func (s *CodeScanner) Pos() int { return s.pos }

// Line returns the current 1-based line number.
func (s *CodeScanner) Line() int { return s.line }

// Mask returns one bool per byte of src, true where the byte lies inside
// a string literal (delimiters included). Rewrite passes use the mask to
// skip matches that fall inside quoted text.
func Mask(src string) []bool {
	mask := make([]bool, len(src))
	sc := New(src)
	for _, ok := sc.Next(); ok; _, ok = sc.Next() {
		mask[sc.Pos()] = sc.InString()
	}
	return mask
}

// ScanBalanced scans src starting at offset start with an already-open
// brace count of depth, and returns the offset one past the brace that
// brings the count back to zero. Braces inside string literals do not
// count. Returns -1 if the braces never balance.
func ScanBalanced(src string, start, depth int) int {
	sc := New(src[start:])
	for ch, ok := sc.Next(); ok; ch, ok = sc.Next() {
		if sc.InString() {
			continue
		}
		switch ch {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return start + sc.Pos() + 1
			}
		}
	}
	return -1
}
