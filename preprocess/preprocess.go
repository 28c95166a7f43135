// Package preprocess cleans raw Perl source before element extraction:
// POD documentation blocks are removed and backslash line continuations
// are collapsed into single logical lines.
package preprocess

import "regexp"

var (
	// Non-greedy so back-to-back POD blocks don't swallow the code between them.
	podRe  = regexp.MustCompile(`(?s)=pod.*?=cut`)
	contRe = regexp.MustCompile(`\\\n\s*`)
)

// Clean strips POD blocks and joins continuation lines. An unterminated
// =pod marker simply fails to match and is left in place; Clean never
// fails.
func Clean(src string) string {
	return JoinContinuations(StripPod(src))
}

// StripPod removes =pod ... =cut documentation blocks, which may span
// multiple lines.
func StripPod(src string) string {
	return podRe.ReplaceAllString(src, "")
}

// JoinContinuations collapses a trailing backslash plus newline into a
// single space, preserving token adjacency on the joined line.
func JoinContinuations(src string) string {
	return contRe.ReplaceAllString(src, " ")
}
