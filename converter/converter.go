// Package converter orchestrates the full conversion pipeline:
// preprocess → extract → rewrite → assemble. A Converter is built once
// from a Config and can convert any number of inputs; no mutable state
// crosses conversions.
package converter

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rubiojr/pl2py/assemble"
	"github.com/rubiojr/pl2py/extract"
	"github.com/rubiojr/pl2py/preprocess"
)

// Config controls a Converter. The zero value disables exception
// wrapping; use DefaultConfig for the usual defaults.
type Config struct {
	// AddExceptionHandling wraps bodies that show no error handling of
	// their own in a generic try/except scaffold.
	AddExceptionHandling bool

	// ModuleMap remaps Perl module names to Python import statements,
	// consulted before the built-in defaults.
	ModuleMap map[string]string

	// Timestamp is the conversion timestamp placed in the output header.
	// When empty, New reads the clock once at construction.
	Timestamp string

	// PostProcess optionally transforms the assembled output. Failures
	// are logged and ignored; the unprocessed text is used instead.
	PostProcess func(string) (string, error)
}

// DefaultConfig returns the standard configuration: exception handling
// enabled, no extra module mappings, no post-processing.
func DefaultConfig() Config {
	return Config{AddExceptionHandling: true}
}

// Converter converts Perl source to Python source.
type Converter struct {
	cfg Config
}

// New creates a Converter from cfg, stamping the conversion timestamp if
// the config leaves it empty.
func New(cfg Config) *Converter {
	if cfg.Timestamp == "" {
		cfg.Timestamp = time.Now().Format("2006-01-02 15:04:05")
	}
	return &Converter{cfg: cfg}
}

// ConvertCode converts a Perl source string to Python source. It never
// fails: unrecognized constructs pass through unrewritten.
func (c *Converter) ConvertCode(perl string) string {
	cleaned := preprocess.Clean(perl)
	elements := extract.Extract(cleaned)
	asm := &assemble.Assembler{
		ModuleMap:            c.cfg.ModuleMap,
		Timestamp:            c.cfg.Timestamp,
		AddExceptionHandling: c.cfg.AddExceptionHandling,
		PostProcess:          c.cfg.PostProcess,
	}
	return asm.Assemble(elements)
}

// ConvertFile converts the Perl file at in and, when out is non-empty,
// writes the result there, creating parent directories as needed.
// Missing input and write failures are the only errors; they abort the
// conversion of this one input.
func (c *Converter) ConvertFile(in, out string) (string, error) {
	if _, err := os.Stat(in); err != nil {
		return "", fmt.Errorf("perl file not found: %s", in)
	}
	data, err := os.ReadFile(in)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", in, err)
	}

	python := c.ConvertCode(string(data))

	if out != "" {
		if dir := filepath.Dir(out); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return "", fmt.Errorf("creating output directory %s: %w", dir, err)
			}
		}
		if err := os.WriteFile(out, []byte(python), 0644); err != nil {
			return "", fmt.Errorf("writing %s: %w", out, err)
		}
	}
	return python, nil
}

// BatchResult summarizes a directory conversion.
type BatchResult struct {
	Converted int
	Failed    int
}

// ConvertDir converts every .pl and .pm file under dir, mirroring the
// directory layout below outDir with a .py extension. Up to jobs files
// convert concurrently. One file's failure is counted and reported on
// stderr; the batch continues with the next file.
func (c *Converter) ConvertDir(dir, outDir string, jobs int) (BatchResult, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := filepath.Ext(path)
		if ext == ".pl" || ext == ".pm" {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return BatchResult{}, fmt.Errorf("walking %s: %w", dir, err)
	}
	if len(files) == 0 {
		return BatchResult{}, fmt.Errorf("no .pl or .pm files found under %s", dir)
	}

	if jobs < 1 {
		jobs = 1
	}

	var mu sync.Mutex
	var res BatchResult
	var g errgroup.Group
	g.SetLimit(jobs)

	for _, f := range files {
		f := f
		g.Go(func() error {
			rel, err := filepath.Rel(dir, f)
			if err != nil {
				rel = filepath.Base(f)
			}
			out := filepath.Join(outDir, strings.TrimSuffix(rel, filepath.Ext(rel))+".py")
			_, err = c.ConvertFile(f, out)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				fmt.Fprintf(os.Stderr, "pl2py: %v\n", err)
				res.Failed++
				return nil
			}
			res.Converted++
			return nil
		})
	}
	g.Wait()
	return res, nil
}
