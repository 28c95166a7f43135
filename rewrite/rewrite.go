// Package rewrite converts one Perl element body at a time into Python
// statement lines. There is no parse tree: an ordered cascade of
// pattern-recognition rules is applied per line, first match wins, while
// an explicit indentation stack tracks block nesting. Unmatched lines
// pass through a sequential substitution pipeline and are emitted
// best-effort — the rewriter never fails on unrecognized input.
package rewrite

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/rubiojr/pl2py/scanner"
)

// indentUnit is the number of spaces per block nesting level.
const indentUnit = 4

// Rewriter holds the per-body rewrite state: the current indentation and
// the stack of saved indents pushed by block openers. A Rewriter is
// created fresh per element body and discarded afterwards.
type Rewriter struct {
	body   string // stripped body, consulted by the interpolation rule
	indent int
	stack  []int
}

// rule is one entry of the dispatch cascade: a recognizer that either
// claims the line (returning its output lines) or passes. Rules earlier
// in the list always win, even when a later pattern would also match —
// block-structure rules mutate indentation state and must not be
// shadowed by generic substitutions.
type rule struct {
	name  string
	apply func(r *Rewriter, line string) ([]string, bool)
}

var rules = []rule{
	{"blank", (*Rewriter).blankLine},
	{"comment", (*Rewriter).commentLine},
	{"block-close", (*Rewriter).blockClose},
	{"die", (*Rewriter).dieStatement},
	{"unless", (*Rewriter).unlessBlock},
	{"if", (*Rewriter).ifBlock},
	{"foreach", (*Rewriter).foreachBlock},
	{"while", (*Rewriter).whileBlock},
	{"until", (*Rewriter).untilBlock},
	{"my-list", (*Rewriter).listDeclaration},
	{"fallthrough", (*Rewriter).pipeline},
}

var (
	shebangRe = regexp.MustCompile(`\A#!.*\n`)
	useRe     = regexp.MustCompile(`use\s+[^;]+;`)
	requireRe = regexp.MustCompile(`require\s+[^;]+;`)

	dieRe        = regexp.MustCompile(`die\s+"([^"]+)"`)
	varRefRe     = regexp.MustCompile(`\$(\w+)`)
	arrayRefRe   = regexp.MustCompile(`@(\w+)`)
	hashSigilRe  = regexp.MustCompile(`%(\w+)`)
	unlessRe     = regexp.MustCompile(`unless\s*\((.*?)\)\s*\{`)
	ifRe         = regexp.MustCompile(`if\s*\((.*?)\)\s*\{`)
	foreachRe    = regexp.MustCompile(`(?:foreach|for)\s+(?:my\s+)?\$(\w+)\s+\((.*?)\)\s*\{`)
	whileRe      = regexp.MustCompile(`while\s*\((.*?)\)\s*\{`)
	untilRe      = regexp.MustCompile(`until\s*\((.*?)\)\s*\{`)
	rangeRe      = regexp.MustCompile(`^(\d+)\.\.(\d+)$`)
	listDeclRe   = regexp.MustCompile(`my\s+\(([^)]+)\)\s*=\s*(.+)`)
	wordRe       = regexp.MustCompile(`\w+`)
	myScalarRe   = regexp.MustCompile(`my\s+\$(\w+)\s*=\s*`)
	myArrayRe    = regexp.MustCompile(`my\s+@(\w+)\s*=\s*`)
	myHashRe     = regexp.MustCompile(`my\s+%(\w+)\s*=\s*`)
	elemIdxRe    = regexp.MustCompile(`\$(\w+)\[(\d+|"\w+"|'[^']+'|\$\w+)\]`)
	elemKeyRe    = regexp.MustCompile(`\$(\w+)\{(\w+|"\w+"|'[^']+'|\$\w+)\}`)
	argvAssignRe = regexp.MustCompile(`(\w+(?:\s*,\s*\w+)*)\s*=\s*@ARGV`)
	definedRe    = regexp.MustCompile(`defined\s+(\$?\w+)`)
	definedPnRe  = regexp.MustCompile(`defined\s*\(\s*(\$?\w+)\s*\)`)
	refRe        = regexp.MustCompile(`ref\s*\(\s*(\$?\w+)\s*\)`)
	ourRe        = regexp.MustCompile(`our\s+([$@%]?\w+)`)
	qwRe         = regexp.MustCompile(`qw\s*\(\s*(.*?)\s*\)`)
	matchOpRe    = regexp.MustCompile(`(\$\w+)\s*=~\s*m/([^/]+)/([a-z]*)`)
	subOpRe      = regexp.MustCompile(`(\$\w+)\s*=~\s*s/([^/]+)/([^/]*)/([a-z]*)`)
	trOpRe       = regexp.MustCompile(`(\$\w+)\s*=~\s*tr/([^/]+)/([^/]*)/`)
	concatRe     = regexp.MustCompile(`\s+\.\s+`)
	hashAccessRe = regexp.MustCompile(`(\w+)\{(['"]?\w+['"]?)\}`)
	arrayLastRe  = regexp.MustCompile(`\$#(\w+)`)
	printRe      = regexp.MustCompile(`print\s+"([^"]+)"`)
	chompStdinRe = regexp.MustCompile(`chomp\s*\(\s*\$?(\w+)\s*=\s*<STDIN>\s*\)`)
)

// pythonReserved are words never wrapped as interpolation placeholders
// inside rewritten print statements. "sum" is included because it is both
// a Python builtin and a common Perl variable name; the collision is
// handled separately below.
var pythonReserved = map[string]bool{
	"and": true, "or": true, "not": true, "is": true, "in": true,
	"for": true, "while": true, "if": true, "else": true, "elif": true,
	"try": true, "except": true, "finally": true, "with": true, "as": true,
	"def": true, "class": true, "return": true, "yield": true,
	"from": true, "import": true, "True": true, "False": true,
	"None": true, "sum": true,
}

// Convert rewrites a Perl body into Python lines: inferred imports first,
// then one pass of the rule cascade per input line.
func Convert(body string) []string {
	body = stripHandled(body)
	if strings.TrimSpace(body) == "" {
		return nil
	}
	r := &Rewriter{body: body}

	var out []string
	out = append(out, InferImports(body)...)
	for _, line := range strings.Split(strings.TrimSpace(body), "\n") {
		out = append(out, r.rewriteLine(line)...)
	}
	return out
}

// Body rewrites a Perl body and, when addExceptions is set and the body
// shows no error handling of its own, wraps the result in a generic
// exception scaffold.
func Body(body string, addExceptions bool) []string {
	converted := Convert(body)
	if !addExceptions || HasErrorHandling(body) {
		return converted
	}
	return wrapExceptionScaffold(converted)
}

// stripHandled removes the shebang line and use/require statements — they
// are handled by extraction and assembly, not by the line rewriter.
func stripHandled(body string) string {
	body = shebangRe.ReplaceAllString(body, "")
	body = useRe.ReplaceAllString(body, "")
	body = requireRe.ReplaceAllString(body, "")
	return body
}

// rewriteLine dispatches one input line through the rule cascade. The
// fallthrough rule always claims the line, so every input line produces
// deterministic output (possibly none, for block closers).
func (r *Rewriter) rewriteLine(line string) []string {
	for _, rl := range rules {
		if out, ok := rl.apply(r, line); ok {
			return out
		}
	}
	// Unreachable: the fallthrough rule never passes. Kept explicit so
	// an unmatched line is copied unchanged rather than dropped.
	return []string{r.pad(strings.TrimSpace(line))}
}

func (r *Rewriter) pad(line string) string {
	return strings.Repeat(" ", r.indent) + line
}

// push saves the current indent and opens one nesting level.
func (r *Rewriter) push() {
	r.stack = append(r.stack, r.indent)
	r.indent += indentUnit
}

func (r *Rewriter) blankLine(line string) ([]string, bool) {
	if strings.TrimSpace(line) != "" {
		return nil, false
	}
	return []string{""}, true
}

func (r *Rewriter) commentLine(line string) ([]string, bool) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "#") {
		return nil, false
	}
	return []string{r.pad(trimmed)}, true
}

// blockClose pops the indent stack on a lone closing brace. The stack
// never pops below its initial depth: extra closers are ignored.
func (r *Rewriter) blockClose(line string) ([]string, bool) {
	if strings.TrimSpace(line) != "}" {
		return nil, false
	}
	if n := len(r.stack); n > 0 {
		r.indent = r.stack[n-1]
		r.stack = r.stack[:n-1]
	}
	return nil, true
}

// dieStatement rewrites `die "message"` to a raise statement. Variable
// references inside the message become f-string placeholders.
func (r *Rewriter) dieStatement(line string) ([]string, bool) {
	if !strings.Contains(line, "die") {
		return nil, false
	}
	m := dieRe.FindStringSubmatch(line)
	if m == nil {
		return nil, false
	}
	msg := varRefRe.ReplaceAllString(m[1], "{$1}")
	return []string{r.pad(fmt.Sprintf(`raise Exception(f"%s")`, msg))}, true
}

// unlessBlock rewrites `unless (COND) {` to an inverted conditional.
// Sigils are stripped before the defined-check and logical-operator
// translations so `defined $x` collapses to `x is not None`.
func (r *Rewriter) unlessBlock(line string) ([]string, bool) {
	m := unlessRe.FindStringSubmatch(line)
	if m == nil {
		return nil, false
	}
	cond := varRefRe.ReplaceAllString(m[1], "$1")
	cond = definedRe.ReplaceAllString(cond, "$1 is not None")
	cond = definedPnRe.ReplaceAllString(cond, "$1 is not None")
	cond = strings.ReplaceAll(cond, "&&", " and ")
	cond = strings.ReplaceAll(cond, "||", " or ")
	cond = strings.ReplaceAll(cond, "!", " not ")
	out := r.pad(fmt.Sprintf("if not (%s):", cond))
	r.push()
	return []string{out}, true
}

func (r *Rewriter) ifBlock(line string) ([]string, bool) {
	m := ifRe.FindStringSubmatch(line)
	if m == nil {
		return nil, false
	}
	out := r.pad(fmt.Sprintf("if %s:", convertCondition(m[1])))
	r.push()
	return []string{out}, true
}

// foreachBlock rewrites the four iteration shapes: array variables, hash
// variables (expanded to a keys() iteration), inclusive numeric ranges
// (a..b becomes the exclusive range(a, b+1)), and anything else verbatim.
func (r *Rewriter) foreachBlock(line string) ([]string, bool) {
	m := foreachRe.FindStringSubmatch(line)
	if m == nil {
		return nil, false
	}
	iterable := m[2]
	switch {
	case strings.HasPrefix(iterable, "@"):
		iterable = iterable[1:]
	case strings.HasPrefix(iterable, "%"):
		iterable = iterable[1:] + ".keys()"
	default:
		if rm := rangeRe.FindStringSubmatch(strings.TrimSpace(iterable)); rm != nil {
			iterable = fmt.Sprintf("range(%s, %s)", rm[1], incr(rm[2]))
		}
	}
	out := r.pad(fmt.Sprintf("for %s in %s:", m[1], iterable))
	r.push()
	return []string{out}, true
}

func (r *Rewriter) whileBlock(line string) ([]string, bool) {
	m := whileRe.FindStringSubmatch(line)
	if m == nil {
		return nil, false
	}
	out := r.pad(fmt.Sprintf("while %s:", convertCondition(m[1])))
	r.push()
	return []string{out}, true
}

func (r *Rewriter) untilBlock(line string) ([]string, bool) {
	m := untilRe.FindStringSubmatch(line)
	if m == nil {
		return nil, false
	}
	out := r.pad(fmt.Sprintf("while not (%s):", convertCondition(m[1])))
	r.push()
	return []string{out}, true
}

// listDeclaration rewrites `my (LIST) = RHS`. When the right-hand side is
// @ARGV, the unpack is guarded: too few command-line arguments yield None
// for every variable, matching Perl's undef behavior.
func (r *Rewriter) listDeclaration(line string) ([]string, bool) {
	m := listDeclRe.FindStringSubmatch(line)
	if m == nil {
		return nil, false
	}
	vars := varRefRe.ReplaceAllString(m[1], "$1")
	value := varRefRe.ReplaceAllString(strings.TrimSpace(m[2]), "$1")
	value = strings.TrimRight(value, ";")

	if value == "@ARGV" {
		count := len(wordRe.FindAllString(vars, -1))
		nones := make([]string, count)
		for i := range nones {
			nones[i] = "None"
		}
		out := fmt.Sprintf("%s = sys.argv[1:] if len(sys.argv) > %d else (%s)",
			vars, count, strings.Join(nones, ", "))
		return []string{r.pad(out)}, true
	}
	return []string{r.pad(fmt.Sprintf("%s = %s", vars, value))}, true
}

// pipeline is the fallthrough: a fixed sequence of substitutions applied
// to the line. Passes that touch sigils or operators skip matches inside
// string literals so quoted text survives to the interpolation rule.
func (r *Rewriter) pipeline(line string) ([]string, bool) {
	// Variable declarations lose the `my` keyword.
	line = subOutsideStrings(line, myScalarRe, "$1 = ")
	line = subOutsideStrings(line, myArrayRe, "$1 = ")
	line = subOutsideStrings(line, myHashRe, "$1 = ")

	// Element access: $a[0], $h{key} → a[0], h[key].
	line = subOutsideStrings(line, elemIdxRe, "$1[$2]")
	line = subOutsideStrings(line, elemKeyRe, "$1[$2]")

	// Assignment from the arguments array.
	if strings.Contains(line, "=") && strings.Contains(line, "@ARGV") {
		line = subOutsideStrings(line, argvAssignRe, "$1 = sys.argv[1:]")
	}

	// Special pseudo-variables, before generic sigil stripping.
	line = replaceOutsideStrings(line, "@ARGV", "sys.argv[1:]")
	line = replaceOutsideStrings(line, "@_", "args")
	line = replaceOutsideStrings(line, "$_", "item")
	line = replaceOutsideStrings(line, "$!", "os.strerror(errno.errno)")
	line = replaceOutsideStrings(line, "$?", "os.system_exit_code")
	line = replaceOutsideStrings(line, "$0", "sys.argv[0]")

	// defined/ref predicates.
	line = subOutsideStrings(line, definedRe, "$1 is not None")
	line = subOutsideStrings(line, definedPnRe, "$1 is not None")
	line = subOutsideStrings(line, refRe, "isinstance($1, (list, dict, object))")

	// our declarations and qw() word lists.
	line = subOutsideStrings(line, ourRe, "$1")
	line = qwRe.ReplaceAllString(line, "[$1]")

	// Regex operators, while the $var references still carry sigils.
	// These replace the whole statement and return immediately: the
	// builtins pass below would otherwise rewrite names like re.sub.
	if out := r.matchOperator(line); out != line {
		return []string{r.pad(out)}, true
	}
	if out := r.substituteOperator(line); out != line {
		return []string{r.pad(out)}, true
	}
	if out := r.translateOperator(line); out != line {
		return []string{r.pad(out)}, true
	}

	// Sigil stripping, outside string literals only.
	line = subOutsideStrings(line, varRefRe, "$1")
	line = subOutsideStrings(line, arrayRefRe, "$1")
	line = subOutsideStrings(line, hashSigilRe, "$1")

	// String concatenation and collection access leftovers.
	line = subOutsideStrings(line, concatRe, " + ")
	line = subOutsideStrings(line, hashAccessRe, "$1[$2]")
	line = subOutsideStrings(line, arrayLastRe, "len($1) - 1")

	// print with a double-quoted string becomes an f-string print.
	if m := printRe.FindStringSubmatch(line); m != nil {
		return []string{r.pad(r.interpolatePrint(m[1]))}, true
	}

	// Blocking read with trim: chomp($x = <STDIN>).
	if m := chompStdinRe.FindStringSubmatch(line); m != nil {
		return []string{r.pad(fmt.Sprintf("%s = input().rstrip()", m[1]))}, true
	}
	line = strings.ReplaceAll(line, "<STDIN>", "input()")

	line = strings.TrimSpace(line)

	// The trailing `1;` of a Perl module has no Python counterpart.
	if strings.TrimRight(line, ";") == "1" {
		line = "# Return value from Perl module (not needed in Python)"
	}

	line = strings.TrimRight(line, ";")
	line = ReplaceBuiltins(line)
	return []string{r.pad(line)}, true
}

// interpolatePrint turns the quoted text of a print statement into an
// f-string. $var references become {var} placeholders; bare words that
// are assigned somewhere in the body are wrapped too, guarded against
// Python reserved words. The `sum` special case mirrors the known
// variable/builtin collision: a body assigning `sum` forces the wrap even
// though `sum` is on the reserved list.
func (r *Rewriter) interpolatePrint(text string) string {
	text = varRefRe.ReplaceAllString(text, "{$1}")
	for _, word := range wordRe.FindAllString(text, -1) {
		if pythonReserved[word] {
			continue
		}
		assignRe := regexp.MustCompile(`\b` + regexp.QuoteMeta(word) + `\s*=`)
		if assignRe.MatchString(r.body) {
			text = wrapWord(text, word)
		}
	}
	if strings.Contains(text, "sum") && regexp.MustCompile(`\bsum\s*=`).MatchString(r.body) {
		text = wrapWord(text, "sum")
	}
	return fmt.Sprintf(`print(f"%s")`, text)
}

// wrapWord braces standalone occurrences of word in text, skipping
// occurrences that are already inside a {placeholder}.
func wrapWord(text, word string) string {
	re := regexp.MustCompile(`\b` + regexp.QuoteMeta(word) + `\b`)
	var sb strings.Builder
	last := 0
	for _, loc := range re.FindAllStringIndex(text, -1) {
		if loc[0] > 0 && text[loc[0]-1] == '{' {
			continue
		}
		sb.WriteString(text[last:loc[0]])
		sb.WriteString("{" + word + "}")
		last = loc[1]
	}
	sb.WriteString(text[last:])
	return sb.String()
}

// matchOperator rewrites `$var =~ m/pat/flags` to a re.search call.
func (r *Rewriter) matchOperator(line string) string {
	m := matchOpRe.FindStringSubmatch(line)
	if m == nil {
		return line
	}
	name := strings.TrimPrefix(m[1], "$")
	if fl := reFlags(m[3]); fl != "" {
		return fmt.Sprintf("re.search(r'%s', %s, %s)", m[2], name, fl)
	}
	return fmt.Sprintf("re.search(r'%s', %s)", m[2], name)
}

// substituteOperator rewrites `$var =~ s/pat/rep/flags` to re.sub. The
// `g` flag selects a global replace; without it the call carries an
// explicit count=1.
func (r *Rewriter) substituteOperator(line string) string {
	m := subOpRe.FindStringSubmatch(line)
	if m == nil {
		return line
	}
	name := strings.TrimPrefix(m[1], "$")
	global := strings.Contains(m[4], "g")
	fl := reFlags(m[4])
	switch {
	case global && fl != "":
		return fmt.Sprintf("%s = re.sub(r'%s', r'%s', %s, flags=%s)", name, m[2], m[3], name, fl)
	case global:
		return fmt.Sprintf("%s = re.sub(r'%s', r'%s', %s)", name, m[2], m[3], name)
	case fl != "":
		return fmt.Sprintf("%s = re.sub(r'%s', r'%s', %s, count=1, flags=%s)", name, m[2], m[3], name, fl)
	default:
		return fmt.Sprintf("%s = re.sub(r'%s', r'%s', %s, count=1)", name, m[2], m[3], name)
	}
}

// translateOperator rewrites `$var =~ tr/from/to/` to str.translate.
func (r *Rewriter) translateOperator(line string) string {
	m := trOpRe.FindStringSubmatch(line)
	if m == nil {
		return line
	}
	name := strings.TrimPrefix(m[1], "$")
	return fmt.Sprintf("%s = %s.translate(str.maketrans('%s', '%s'))", name, name, m[2], m[3])
}

// reFlags maps Perl regex modifier letters to the Python re flag list.
func reFlags(flags string) string {
	var out []string
	if strings.Contains(flags, "i") {
		out = append(out, "re.IGNORECASE")
	}
	if strings.Contains(flags, "m") {
		out = append(out, "re.MULTILINE")
	}
	if strings.Contains(flags, "s") {
		out = append(out, "re.DOTALL")
	}
	return strings.Join(out, ", ")
}

// convertCondition translates a Perl condition into Python: logical
// operators, string comparison operators, defined checks, and sigil
// stripping, in that order. The translation is textual — an identifier
// containing a substring like "eq" is mangled; that generality/false-
// positive trade-off is inherent to the cascade design.
func convertCondition(cond string) string {
	cond = strings.ReplaceAll(cond, "&&", " and ")
	cond = strings.ReplaceAll(cond, "||", " or ")
	cond = strings.ReplaceAll(cond, "!", " not ")
	cond = strings.ReplaceAll(cond, "eq", "==")
	cond = strings.ReplaceAll(cond, "ne", "!=")
	cond = strings.ReplaceAll(cond, "lt", "<")
	cond = strings.ReplaceAll(cond, "gt", ">")
	cond = strings.ReplaceAll(cond, "le", "<=")
	cond = strings.ReplaceAll(cond, "ge", ">=")
	cond = definedRe.ReplaceAllString(cond, "$1 is not None")
	cond = definedPnRe.ReplaceAllString(cond, "$1 is not None")
	cond = varRefRe.ReplaceAllString(cond, "$1")
	return cond
}

// incr returns the decimal string n+1, for the inclusive-to-exclusive
// range end conversion.
func incr(n string) string {
	v := 0
	fmt.Sscanf(n, "%d", &v)
	return fmt.Sprintf("%d", v+1)
}

// subOutsideStrings applies re with the given template replacement,
// skipping matches that start inside a string literal.
func subOutsideStrings(line string, re *regexp.Regexp, repl string) string {
	mask := scanner.Mask(line)
	var sb strings.Builder
	last := 0
	for _, loc := range re.FindAllStringSubmatchIndex(line, -1) {
		if loc[0] < len(mask) && mask[loc[0]] {
			continue
		}
		sb.WriteString(line[last:loc[0]])
		sb.Write(re.ExpandString(nil, repl, line, loc))
		last = loc[1]
	}
	sb.WriteString(line[last:])
	return sb.String()
}

// replaceOutsideStrings replaces literal occurrences of old with new,
// skipping occurrences inside string literals.
func replaceOutsideStrings(line, old, new string) string {
	mask := scanner.Mask(line)
	var sb strings.Builder
	for i := 0; i < len(line); {
		if !mask[i] && strings.HasPrefix(line[i:], old) {
			sb.WriteString(new)
			i += len(old)
			continue
		}
		sb.WriteByte(line[i])
		i++
	}
	return sb.String()
}
