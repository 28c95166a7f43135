package rewrite

import "regexp"

// errorIdioms is the fixed list of Perl error-signaling patterns: direct
// signal keywords and their aliases, signal-with-guard idioms, and
// signal-via-short-circuit idioms. Presence of any of them means the body
// already handles its own errors.
var errorIdioms = []*regexp.Regexp{
	regexp.MustCompile(`\bdie\b`),
	regexp.MustCompile(`\bcroak\b`),
	regexp.MustCompile(`\bconfess\b`),
	regexp.MustCompile(`\beval\s*\{`),
	regexp.MustCompile(`\btry\s*\{`),
	regexp.MustCompile(`\bwarn\b`),
	regexp.MustCompile(`\bor\s+die\b`),
	regexp.MustCompile(`(?s)\bunless\b.*?\bdie\b`),
	regexp.MustCompile(`(?s)\bif\b.*?\bdie\b`),
	regexp.MustCompile(`die\s+"[^"]+"`),
	regexp.MustCompile(`die\s+'[^']+'`),
	regexp.MustCompile(`die\s+\$\w+`),
	regexp.MustCompile(`die\s+\w+\(`),
	regexp.MustCompile(`or\s+die`),
	regexp.MustCompile(`\|\|\s+die`),
}

// HasErrorHandling reports whether the body contains any known Perl
// error-signaling idiom. This is a textual check, not a semantic one.
func HasErrorHandling(body string) bool {
	for _, re := range errorIdioms {
		if re.MatchString(body) {
			return true
		}
	}
	return false
}

// wrapExceptionScaffold indents the converted lines one level and wraps
// them in a generic try/except scaffold with three descending-specificity
// clauses, each printing a formatted message and re-raising.
func wrapExceptionScaffold(lines []string) []string {
	out := make([]string, 0, len(lines)+7)
	out = append(out, "try:")
	body := 0
	for _, l := range lines {
		if l == "" {
			out = append(out, "")
			continue
		}
		out = append(out, "    "+l)
		body++
	}
	if body == 0 {
		out = append(out, "    pass")
	}
	out = append(out,
		"except ValueError as e:",
		`    print(f"Value Error: {e}")`,
		"    raise",
		"except FileNotFoundError as e:",
		`    print(f"File Error: {e}")`,
		"    raise",
		"except Exception as e:",
		`    print(f"Error: {e}")`,
		"    raise",
	)
	return out
}
