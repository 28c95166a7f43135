package rewrite

import (
	"sort"
	"strings"
)

// Builtins maps Perl built-in function and operator names to Python
// equivalents, or to human-readable advisory notes where no direct
// equivalent exists. The map is data, not code: it is never mutated
// after package initialization and is shared by every conversion.
var Builtins = map[string]string{
	// Basic I/O
	"print":    "print",
	"say":      "print",
	"printf":   "print(f-string)",
	"sprintf":  "f-string",
	"readline": "input",
	"getc":     "sys.stdin.read(1)",
	"eof":      "not sys.stdin.readable()",

	// String manipulation
	"chomp":     "str.rstrip",
	"chop":      "str[:-1]",
	"length":    "len",
	"substr":    "str[start:end]",
	"index":     "str.find",
	"rindex":    "str.rfind",
	"split":     "str.split",
	"join":      "str.join",
	"uc":        "str.upper",
	"lc":        "str.lower",
	"ucfirst":   "str.capitalize",
	"lcfirst":   "lambda s: s[0].lower() + s[1:] if s else s",
	"quotemeta": "re.escape",
	"reverse":   "reversed",
	"pack":      "struct.pack",
	"unpack":    "struct.unpack",

	// Array/list operations
	"push":    "list.append or list.extend",
	"pop":     "list.pop",
	"shift":   "list.pop(0)",
	"unshift": "list.insert(0, item)",
	"splice":  "list[start:end] = new_items",
	"sort":    "sorted",
	"map":     "map or list comprehension",
	"grep":    "filter or list comprehension",
	"foreach": "for item in iterable",
	"for":     "for item in iterable",
	"while":   "while condition",
	"until":   "while not condition",

	// Hash/dictionary operations
	"keys":   "dict.keys",
	"values": "dict.values",
	"each":   "dict.items",
	"exists": "key in dict",
	"delete": "del dict[key]",

	// File operations
	"open":    "open",
	"close":   "file.close",
	"read":    "file.read",
	"write":   "file.write",
	"seek":    "file.seek",
	"tell":    "file.tell",
	"binmode": `# Python handles binary mode with "b" flag in open`,
	"chmod":   "os.chmod",
	"chown":   "os.chown",
	"mkdir":   "os.mkdir",
	"rmdir":   "os.rmdir",
	"unlink":  "os.unlink or os.remove",
	"rename":  "os.rename",

	// Type checking and conversion
	"defined":           "is not None",
	"undef":             "None",
	"scalar":            "len",
	"ref":               "type",
	"bless":             "# Use Python classes instead",
	"int":               "int",
	"hex":               "hex",
	"oct":               "oct",
	"chr":               "chr",
	"ord":               "ord",
	"looks_like_number": "looks_like_number",

	// Error handling
	"die":   "raise Exception",
	"warn":  "warnings.warn",
	"eval":  "try/except block",
	"try":   "try",
	"catch": "except",

	// Module handling
	"require": "import",
	"use":     "import",
	"package": "class",
	"sub":     "def",

	// System operations
	"system":  "os.system or subprocess.run",
	"exec":    "os.execv",
	"fork":    "os.fork",
	"wait":    "os.wait",
	"exit":    "sys.exit",
	"getpid":  "os.getpid",
	"getppid": "os.getppid",
	"getpgrp": "os.getpgrp",
	"setpgrp": "os.setpgrp",

	// Time operations
	"time":      "time.time",
	"localtime": "time.localtime",
	"gmtime":    "time.gmtime",
	"sleep":     "time.sleep",
	"alarm":     "signal.alarm",

	// Math operations
	"rand":  "random.random",
	"srand": "random.seed",
	"sin":   "math.sin",
	"cos":   "math.cos",
	"tan":   "math.tan",
	"exp":   "math.exp",
	"log":   "math.log",
	"sqrt":  "math.sqrt",
	"abs":   "abs",

	// Regular expressions
	"m/":  "re.search",
	"s/":  "re.sub",
	"tr/": "str.translate",
	"qr/": "re.compile",
}

// builtinKeys holds the map keys ordered longest-first (ties broken
// alphabetically) so that substring replacement is deterministic and
// "foreach" is replaced before "for", "printf" before "print", and so on.
var builtinKeys = func() []string {
	keys := make([]string, 0, len(Builtins))
	for k := range Builtins {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	return keys
}()

// ReplaceBuiltins applies the builtins table as a single-pass substring
// substitution over the original line: longer keys claim their spans
// first and replacement text is never rescanned, so a mapping whose
// value contains another key (foreach → "for item in iterable") cannot
// trigger a second rewrite. A line containing none of the mapped
// identifiers passes through unchanged. The pass is still textual: a
// user identifier that happens to contain a builtin name is rewritten
// too. That risk is inherited from the cascade design and accepted.
func ReplaceBuiltins(line string) string {
	type span struct {
		start, end int
		repl       string
	}
	claimed := make([]bool, len(line))
	var spans []span
	for _, perl := range builtinKeys {
		py := Builtins[perl]
		if perl == py {
			continue
		}
		for from := 0; ; {
			i := strings.Index(line[from:], perl)
			if i < 0 {
				break
			}
			start := from + i
			end := start + len(perl)
			from = end
			taken := false
			for j := start; j < end; j++ {
				if claimed[j] {
					taken = true
					break
				}
			}
			if taken {
				continue
			}
			for j := start; j < end; j++ {
				claimed[j] = true
			}
			spans = append(spans, span{start, end, py})
		}
	}
	if len(spans) == 0 {
		return line
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].start < spans[j].start })

	var sb strings.Builder
	last := 0
	for _, s := range spans {
		sb.WriteString(line[last:s.start])
		sb.WriteString(s.repl)
		last = s.end
	}
	sb.WriteString(line[last:])
	return sb.String()
}
