// Package extract locates the top-level constructs of a Perl source file:
// package declarations, use/require statements, named subroutine
// definitions, and the residual top-level code that forms the main script.
//
// Extraction is deliberately regex-based and best-effort. The one place
// that needs real nesting awareness — finding the end of a subroutine
// body — uses a balanced-brace scan instead, since a regex cannot match
// balanced delimiters.
package extract

import (
	"regexp"
	"sort"
	"strings"

	"github.com/rubiojr/pl2py/scanner"
)

// Kind identifies the type of an extracted element.
type Kind int

const (
	Package Kind = iota
	Import
	Subroutine
	MainScript
)

func (k Kind) String() string {
	switch k {
	case Package:
		return "package"
	case Import:
		return "import"
	case Subroutine:
		return "subroutine"
	case MainScript:
		return "main_script"
	}
	return "unknown"
}

// MainSentinel marks the main-script pseudo span. It is not a real byte
// offset; the main script is the complement of all claimed spans.
const MainSentinel = -1

// Element is one extracted top-level construct. Start and End are byte
// offsets into the cleaned source, except for MainScript which carries
// MainSentinel in both.
type Element struct {
	Kind       Kind
	Name       string // package name, module name, or sub name
	ImportType string // "use" or "require" for Import elements
	Args       string // trailing import arguments, e.g. qw(...) lists
	Body       string // sub body (braces excluded) or main script text
	Start, End int
}

var (
	packageRe = regexp.MustCompile(`package\s+([A-Za-z0-9:]+)\s*;`)
	importRe  = regexp.MustCompile(`(use|require)\s+([A-Za-z0-9:]+)(\s+.*?)?;`)
	subRe     = regexp.MustCompile(`sub\s+([A-Za-z0-9_]+)\s*\{`)
)

// Extract scans cleaned source text and returns its elements sorted by
// start offset, with the MainScript element (if any) always last.
//
// Unrecognized constructs are never an error: anything not claimed by a
// package, import, or subroutine span ends up in the main script.
func Extract(text string) []Element {
	var elements []Element

	for _, m := range packageRe.FindAllStringSubmatchIndex(text, -1) {
		elements = append(elements, Element{
			Kind:  Package,
			Name:  text[m[2]:m[3]],
			Start: m[0],
			End:   m[1],
		})
	}

	for _, m := range importRe.FindAllStringSubmatchIndex(text, -1) {
		args := ""
		if m[6] >= 0 {
			args = strings.TrimSpace(text[m[6]:m[7]])
		}
		elements = append(elements, Element{
			Kind:       Import,
			Name:       text[m[4]:m[5]],
			ImportType: text[m[2]:m[3]],
			Args:       args,
			Start:      m[0],
			End:        m[1],
		})
	}

	for _, m := range subRe.FindAllStringSubmatchIndex(text, -1) {
		bodyStart := m[1] // one past the opening brace
		end := scanner.ScanBalanced(text, bodyStart, 1)
		var body string
		if end < 0 {
			// Malformed input: braces never balance. The body silently
			// truncates at end of text rather than failing the extraction.
			body = text[bodyStart:]
			end = len(text)
		} else {
			body = text[bodyStart : end-1]
		}
		elements = append(elements, Element{
			Kind:  Subroutine,
			Name:  text[m[2]:m[3]],
			Body:  body,
			Start: m[0],
			End:   end,
		})
	}

	if main := complement(text, elements); main != "" {
		elements = append(elements, Element{
			Kind:  MainScript,
			Body:  main,
			Start: MainSentinel,
			End:   MainSentinel,
		})
	}

	sort.SliceStable(elements, func(i, j int) bool {
		// MainScript sorts after every real span regardless of its
		// sentinel offset.
		if elements[i].Kind == MainScript {
			return false
		}
		if elements[j].Kind == MainScript {
			return true
		}
		return elements[i].Start < elements[j].Start
	})

	return elements
}

// complement collects the text not claimed by any element span,
// concatenated in original order and trimmed.
func complement(text string, elements []Element) string {
	spans := make([][2]int, 0, len(elements))
	for _, e := range elements {
		spans = append(spans, [2]int{e.Start, e.End})
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i][0] < spans[j][0] })

	var parts []string
	last := 0
	for _, s := range spans {
		if s[0] > last {
			parts = append(parts, text[last:s[0]])
		}
		if s[1] > last {
			last = s[1]
		}
	}
	if last < len(text) {
		parts = append(parts, text[last:])
	}
	return strings.TrimSpace(strings.Join(parts, ""))
}
