package converter

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const greetSource = `#!/usr/bin/perl
use strict;
use warnings;

sub greet {
    my ($name) = @_;
    print "Hello, $name!\n";
}

greet("World");
`

func TestConvertCodeGreet(t *testing.T) {
	conv := New(Config{Timestamp: "2026-01-02 03:04:05"})
	got := conv.ConvertCode(greetSource)

	assert.Contains(t, got, "#!/usr/bin/env python3")
	assert.Contains(t, got, "# Conversion date: 2026-01-02 03:04:05")
	assert.Contains(t, got, "def greet(name):")
	assert.Contains(t, got, `print(f"Hello, {name}!\n")`)
	assert.Contains(t, got, "if __name__ == '__main__':")
	assert.Contains(t, got, `greet("World")`)
	// The strict/warnings pragmas have no Python counterpart.
	assert.NotContains(t, got, "strict")
}

func TestConvertCodeDefaultConfigWrapsExceptions(t *testing.T) {
	conv := New(DefaultConfig())
	got := conv.ConvertCode(greetSource)

	assert.Contains(t, got, "try:")
	assert.Contains(t, got, "except Exception as e:")
}

func TestConvertCodeNeverFails(t *testing.T) {
	conv := New(Config{})
	got := conv.ConvertCode("this is (not) valid perl }{;")
	assert.Contains(t, got, "#!/usr/bin/env python3")
}

func TestConvertCodeModuleMap(t *testing.T) {
	conv := New(Config{ModuleMap: map[string]string{
		"Text::CSV": "import csv",
	}})
	got := conv.ConvertCode("use Text::CSV;\nmy $x = 1;\n")
	assert.Contains(t, got, "import csv")
}

func TestConvertFileMissingInput(t *testing.T) {
	conv := New(Config{})
	_, err := conv.ConvertFile("/nonexistent/input.pl", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "perl file not found")
}

func TestConvertFileWritesOutput(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "greet.pl")
	require.NoError(t, os.WriteFile(in, []byte(greetSource), 0644))

	// Output in a directory that does not exist yet.
	out := filepath.Join(dir, "converted", "greet.py")
	conv := New(Config{Timestamp: "x"})
	python, err := conv.ConvertFile(in, out)
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, python, string(data))
	assert.Contains(t, string(data), "def greet(name):")
}

func TestConvertDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "lib"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.pl"), []byte(greetSource), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "lib", "util.pm"), []byte("sub id { my ($x) = @_; return $x; }\n1;\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("not perl"), 0644))

	outDir := t.TempDir()
	conv := New(Config{Timestamp: "x"})
	res, err := conv.ConvertDir(dir, outDir, 2)
	require.NoError(t, err)

	assert.Equal(t, 2, res.Converted)
	assert.Equal(t, 0, res.Failed)

	// The directory layout is mirrored with a .py extension.
	assert.FileExists(t, filepath.Join(outDir, "main.py"))
	assert.FileExists(t, filepath.Join(outDir, "lib", "util.py"))
	assert.NoFileExists(t, filepath.Join(outDir, "notes.py"))
}

func TestConvertDirEmpty(t *testing.T) {
	conv := New(Config{})
	_, err := conv.ConvertDir(t.TempDir(), t.TempDir(), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no .pl or .pm files found")
}
