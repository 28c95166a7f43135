package rewrite

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertControlStructures(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect []string
	}{
		{
			name:   "if block",
			input:  "if ($x == 1) {\n    y();\n}\n",
			expect: []string{"if x == 1:", "    y()"},
		},
		{
			name:   "while block",
			input:  "while ($i < 10) {\n    step();\n}\n",
			expect: []string{"while i < 10:", "    step()"},
		},
		{
			name:   "until becomes inverted while",
			input:  "until ($count > 10) {\n    poll();\n}\n",
			expect: []string{"while not (count > 10):", "    poll()"},
		},
		{
			name:   "unless becomes inverted if",
			input:  "unless (defined $x) {\n    init();\n}\n",
			expect: []string{"if not (x is not None):", "    init()"},
		},
		{
			name:   "foreach over array",
			input:  "foreach my $item (@list) {\n    handle();\n}\n",
			expect: []string{"for item in list:", "    handle()"},
		},
		{
			name:   "foreach over hash iterates keys",
			input:  "foreach my $k (%config) {\n    handle();\n}\n",
			expect: []string{"for k in config.keys():", "    handle()"},
		},
		{
			name:   "range loop is inclusive-to-exclusive",
			input:  "foreach my $i (1..5) {\n    step();\n}\n",
			expect: []string{"for i in range(1, 6):", "    step()"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Convert(tt.input)
			for _, want := range tt.expect {
				assert.Contains(t, got, want, "output:\n%s", strings.Join(got, "\n"))
			}
		})
	}
}

func TestConvertIndentationTracking(t *testing.T) {
	input := "if ($a) {\n    if ($b) {\n        deep();\n    }\n    mid();\n}\nafter();\n"
	got := Convert(input)

	assert.Contains(t, got, "        deep()")
	assert.Contains(t, got, "    mid()")
	assert.Contains(t, got, "after()")
}

func TestConvertExtraClosersNeverPopBelowZero(t *testing.T) {
	// More closers than openers: the stack must not pop below its
	// initial depth, and following lines stay at indent zero.
	input := "if ($a) {\n    x();\n}\n}\n}\nafter();\n"
	got := Convert(input)
	assert.Contains(t, got, "after()")
	for _, l := range got {
		assert.False(t, strings.HasPrefix(l, " ") && strings.Contains(l, "after"),
			"after() must be back at indent zero, got %q", l)
	}
}

func TestConvertDieStatement(t *testing.T) {
	got := Convert("die \"cannot open $file\";\n")
	assert.Contains(t, got, `raise Exception(f"cannot open {file}")`)
}

func TestConvertDestructuringFromArgv(t *testing.T) {
	got := Convert("my ($a, $b) = @ARGV;\n")
	assert.Contains(t, got,
		"a, b = sys.argv[1:] if len(sys.argv) > 2 else (None, None)")
	// @ARGV implies the sys import.
	assert.Contains(t, got, "import sys")
}

func TestConvertDestructuringPlain(t *testing.T) {
	got := Convert("my ($x, $y) = (1, 2);\n")
	assert.Contains(t, got, "x, y = (1, 2)")
}

func TestConvertRegexOperators(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect string
		reject string
	}{
		{
			name:   "match",
			input:  "$str =~ m/abc/;\n",
			expect: "re.search(r'abc', str)",
		},
		{
			name:   "match with flags",
			input:  "$str =~ m/abc/i;\n",
			expect: "re.search(r'abc', str, re.IGNORECASE)",
		},
		{
			name:   "substitute global omits count",
			input:  "$text =~ s/foo/bar/g;\n",
			expect: "text = re.sub(r'foo', r'bar', text)",
			reject: "count",
		},
		{
			name:   "substitute single carries count",
			input:  "$text =~ s/foo/bar/;\n",
			expect: "text = re.sub(r'foo', r'bar', text, count=1)",
		},
		{
			name:   "substitute with flags and count",
			input:  "$text =~ s/foo/bar/i;\n",
			expect: "text = re.sub(r'foo', r'bar', text, count=1, flags=re.IGNORECASE)",
		},
		{
			name:   "translate",
			input:  "$s =~ tr/abc/xyz/;\n",
			expect: "s = s.translate(str.maketrans('abc', 'xyz'))",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := strings.Join(Convert(tt.input), "\n")
			assert.Contains(t, got, tt.expect)
			if tt.reject != "" {
				for _, l := range strings.Split(got, "\n") {
					if strings.Contains(l, "re.sub") {
						assert.NotContains(t, l, tt.reject)
					}
				}
			}
		})
	}
}

func TestConvertPrintInterpolation(t *testing.T) {
	got := Convert("print \"Hello, $name!\\n\";\n")
	assert.Contains(t, got, `print(f"Hello, {name}!\n")`)
}

func TestConvertPrintBareVariableAssignedInBody(t *testing.T) {
	// A bare word assigned in the body is wrapped, without double-wrapping
	// the placeholders the sigil pass already produced.
	input := "my $total = 5;\nprint \"Total: $total units\\n\";\n"
	got := strings.Join(Convert(input), "\n")
	assert.Contains(t, got, "{total}")
	assert.NotContains(t, got, "{{total}}")
}

func TestConvertStdinIdioms(t *testing.T) {
	got := Convert("chomp($name = <STDIN>);\n")
	assert.Contains(t, got, "name = input().rstrip()")

	got = Convert("my $line = <STDIN>;\n")
	assert.Contains(t, got, "line = input()")
}

func TestConvertSpecialVariables(t *testing.T) {
	got := strings.Join(Convert("my $prog = $0;\nexit(1);\n"), "\n")
	assert.Contains(t, got, "prog = sys.argv[0]")
	assert.Contains(t, got, "sys.exit(1)")
	assert.Contains(t, got, "import sys")
}

func TestConvertModuleReturnValue(t *testing.T) {
	got := Convert("1;\n")
	assert.Contains(t, got, "# Return value from Perl module (not needed in Python)")
}

func TestConvertCommentsPassThrough(t *testing.T) {
	got := Convert("# leading comment\nmy $x = 1;\n")
	assert.Contains(t, got, "# leading comment")
	assert.Contains(t, got, "x = 1")
}

func TestConvertQwList(t *testing.T) {
	got := Convert("my @words = qw(a b c);\n")
	assert.Contains(t, got, "words = [a b c]")
}

func TestConvertElementAccess(t *testing.T) {
	got := strings.Join(Convert("$items[0] = $map{key};\n"), "\n")
	assert.Contains(t, got, "items[0] = map or list comprehension[key]")
}

func TestReplaceBuiltinsIdempotentOnUnmappedLine(t *testing.T) {
	line := "alpha = beta + 2"
	assert.Equal(t, line, ReplaceBuiltins(line))
}

func TestReplaceBuiltinsLongestKeyFirst(t *testing.T) {
	// "foreach" must be replaced as a unit, not as "for" + "each".
	got := ReplaceBuiltins("foreach")
	assert.Equal(t, "for item in iterable", got)
}

func TestInferImports(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		expect []string
	}{
		{"argv needs sys", "my ($a) = @ARGV;", []string{"import sys"}},
		{"errno var needs os", "print $!;", []string{"import errno", "import os"}},
		{"regex op needs re", "$x =~ s/a/b/;", []string{"import re"}},
		{"sqrt needs math", "my $r = sqrt(2);", []string{"import math"}},
		{"rand needs random", "my $r = rand();", []string{"import random"}},
		{"sleep needs time", "sleep(1);", []string{"import time"}},
		{"warn needs warnings", "warn \"careful\";", []string{"import warnings"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := InferImports(tt.body)
			for _, want := range tt.expect {
				assert.Contains(t, got, want)
			}
		})
	}
}

func TestInferImportsNoneForPlainBody(t *testing.T) {
	assert.Nil(t, InferImports("my $x = 1;"))
}

func TestBodyWrapsWhenNoErrorHandling(t *testing.T) {
	got := Body("my $x = compute();\n", true)
	joined := strings.Join(got, "\n")

	require.Equal(t, "try:", got[0])
	assert.Contains(t, joined, "except ValueError as e:")
	assert.Contains(t, joined, "except FileNotFoundError as e:")
	assert.Contains(t, joined, "except Exception as e:")
	assert.Contains(t, joined, "    raise")
}

func TestBodySkipsWrapWhenErrorHandlingPresent(t *testing.T) {
	got := strings.Join(Body("open(my $fh, $file) or die \"no file\";\n", true), "\n")
	assert.NotContains(t, got, "except ValueError")
}

func TestBodySkipsWrapWhenDisabled(t *testing.T) {
	got := strings.Join(Body("my $x = compute();\n", false), "\n")
	assert.NotContains(t, got, "try:")
}
