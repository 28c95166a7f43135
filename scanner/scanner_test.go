package scanner

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMask(t *testing.T) {
	src := `x = "a$b" . 'c';`
	mask := Mask(src)

	// The $ inside the double-quoted string is masked.
	assert.True(t, mask[6], "byte inside double-quoted string should be masked")
	// The concatenation dot is code.
	assert.False(t, mask[10], "concatenation operator should not be masked")
	// The single-quoted c is masked.
	assert.True(t, mask[13], "byte inside single-quoted string should be masked")
}

func TestMaskEscapes(t *testing.T) {
	src := `"a\"b" + c`
	mask := Mask(src)
	// The escaped quote does not close the string.
	assert.True(t, mask[4], "byte after escaped quote is still inside the string")
	assert.False(t, mask[7], "operator after the string is code")
}

func TestScanBalanced(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		start int
		want  int
	}{
		{"flat", `a(); }`, 0, 6},
		{"nested", `if (1) { b(); } }`, 0, 17},
		{"brace in string", `my $s = "}"; }`, 0, 14},
		{"brace in single quotes", `my $s = '}{'; }`, 0, 15},
		{"never balances", `a(); { b();`, 0, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ScanBalanced(tt.src, tt.start, 1))
		})
	}
}

func TestScannerLineTracking(t *testing.T) {
	sc := New("a\nb\nc")
	for _, ok := sc.Next(); ok; _, ok = sc.Next() {
	}
	assert.Equal(t, 3, sc.Line())
}
