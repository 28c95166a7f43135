package rewrite

import (
	"regexp"
	"sort"
	"strings"
)

var (
	osFuncsRe   = regexp.MustCompile(`(?:chmod|chown|mkdir|rmdir|unlink|rename|system|exec|fork|wait|getpid|getppid|getpgrp|setpgrp)\b`)
	randFuncsRe = regexp.MustCompile(`(?:rand|srand)\b`)
	timeFuncsRe = regexp.MustCompile(`(?:time|localtime|gmtime|sleep)\b`)
	regexOpsRe  = regexp.MustCompile(`(?:m/|s/|tr/|qr/|quotemeta)`)
	mathFuncsRe = regexp.MustCompile(`(?:sin|cos|tan|exp|log|sqrt)\b`)
	packRe      = regexp.MustCompile(`(?:pack|unpack)\b`)
)

// InferImports inspects a Perl body for token presence implying Python
// imports: exit idioms need sys, regex operators need re, and so on.
// The returned lines are sorted, followed by one blank separator line,
// and are meant to be prepended once per element body.
func InferImports(body string) []string {
	var imports []string

	if strings.Contains(body, "@ARGV") || strings.Contains(body, "$0") ||
		strings.Contains(body, "getc") || strings.Contains(body, "eof") ||
		strings.Contains(body, "exit") {
		imports = append(imports, "import sys")
	}
	if strings.Contains(body, "$!") || strings.Contains(body, "$?") || osFuncsRe.MatchString(body) {
		imports = append(imports, "import os", "import errno")
	}
	if randFuncsRe.MatchString(body) {
		imports = append(imports, "import random")
	}
	if timeFuncsRe.MatchString(body) {
		imports = append(imports, "import time")
	}
	if regexOpsRe.MatchString(body) || strings.Contains(body, "=~") || strings.Contains(body, "!~") {
		imports = append(imports, "import re")
	}
	if mathFuncsRe.MatchString(body) {
		imports = append(imports, "import math")
	}
	if packRe.MatchString(body) {
		imports = append(imports, "import struct")
	}
	if strings.Contains(body, "alarm") {
		imports = append(imports, "import signal")
	}
	if strings.Contains(body, "warn") {
		imports = append(imports, "import warnings")
	}

	if len(imports) == 0 {
		return nil
	}
	sort.Strings(imports)
	return append(imports, "")
}
