// Package assemble orders extracted elements into the final Python
// source: header banner, imports, package comment banners, function
// definitions, and the trailing main entry guard.
package assemble

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/rubiojr/pl2py/extract"
	"github.com/rubiojr/pl2py/rewrite"
)

// defaultModuleMap translates common Perl modules to Python import
// statements. User-supplied mappings (Assembler.ModuleMap) take
// precedence; unmapped third-party modules degrade to a TODO comment
// naming the module.
var defaultModuleMap = map[string]string{
	"Data::Dumper":   "import pprint",
	"Getopt::Long":   "import argparse",
	"File::Basename": "import os.path",
	"Time::Local":    "import time",
	"JSON":           "import json",
}

var (
	argsUsageRe   = regexp.MustCompile(`@_|\$_\[\d+\]`)
	tupleParamsRe = regexp.MustCompile(`my\s*\(\s*\$([\w,\s$]+)\s*\)\s*=\s*@_;`)
	tupleRemoveRe = regexp.MustCompile(`my\s*\(\s*\$[\w,\s$]+\s*\)\s*=\s*@_\s*;?\n?`)
	indexParamRe  = regexp.MustCompile(`my\s+\$(\w+)\s*=\s*\$_\[(\d+)\]`)
	argsArrayRe   = regexp.MustCompile(`@_`)
	argsIndexRe   = regexp.MustCompile(`\$_\[(\d+)\]`)
)

// Assembler builds the output Python source from extracted elements.
// The conversion timestamp is an explicit field, not ambient state;
// callers read it once and pass it in.
type Assembler struct {
	ModuleMap            map[string]string
	Timestamp            string
	AddExceptionHandling bool

	// PostProcess optionally transforms the assembled text. It is
	// best-effort: when it fails, the unprocessed text is returned.
	PostProcess func(string) (string, error)
}

// Assemble produces the final Python source for the given elements.
func (a *Assembler) Assemble(elements []extract.Element) string {
	out := []string{
		"#!/usr/bin/env python3",
		"# -*- coding: utf-8 -*-",
		"# Generated by pl2py - Perl to Python converter",
		fmt.Sprintf("# Conversion date: %s", a.Timestamp),
		"# Note: this is an automated conversion and may require manual review",
		"",
	}

	out = append(out, a.importLines(elements)...)
	out = append(out, "")

	for _, e := range elements {
		if e.Kind != extract.Package {
			continue
		}
		out = append(out,
			fmt.Sprintf("# Perl package: %s", e.Name),
			"# In Python, modules take the place of packages",
			"")
	}

	for _, e := range elements {
		if e.Kind != extract.Subroutine {
			continue
		}
		out = append(out, a.functionDef(e)...)
		out = append(out, "")
	}

	out = append(out, a.mainGuard(elements)...)

	text := strings.Join(out, "\n")
	if a.PostProcess != nil {
		processed, err := a.PostProcess(text)
		if err != nil {
			fmt.Fprintf(os.Stderr, "pl2py: post-processing failed, using unprocessed output: %v\n", err)
			return text
		}
		return processed
	}
	return text
}

// importLines translates import elements through the module map,
// de-duplicated and sorted. strict and warnings are Perl pragmas with no
// Python counterpart and are dropped.
func (a *Assembler) importLines(elements []extract.Element) []string {
	seen := make(map[string]bool)
	for _, e := range elements {
		if e.Kind != extract.Import {
			continue
		}
		if e.Name == "strict" || e.Name == "warnings" {
			continue
		}
		if stmt, ok := a.ModuleMap[e.Name]; ok {
			seen[stmt] = true
		} else if stmt, ok := defaultModuleMap[e.Name]; ok {
			seen[stmt] = true
		} else {
			seen[fmt.Sprintf("# TODO: Import equivalent for Perl module '%s'", e.Name)] = true
		}
	}
	lines := make([]string, 0, len(seen))
	for l := range seen {
		lines = append(lines, l)
	}
	sort.Strings(lines)
	return lines
}

// functionDef emits one Python def for a subroutine element. The
// parameter list comes from the body's argument-unpacking idioms; when
// @_ is used without a recognizable pattern the function takes *args.
func (a *Assembler) functionDef(e extract.Element) []string {
	params, body := deriveParams(e.Body)

	var def string
	switch {
	case len(params) > 0:
		def = fmt.Sprintf("def %s(%s):", e.Name, strings.Join(params, ", "))
	case argsUsageRe.MatchString(body):
		def = fmt.Sprintf("def %s(*args):", e.Name)
	default:
		def = fmt.Sprintf("def %s():", e.Name)
	}

	out := []string{def}
	lines := rewrite.Body(body, a.AddExceptionHandling)
	if len(lines) == 0 {
		return append(out, "    pass")
	}
	for _, l := range lines {
		if l == "" {
			out = append(out, "")
			continue
		}
		out = append(out, "    "+l)
	}
	return out
}

// deriveParams detects named parameters at the top of a subroutine body.
// Two idioms are recognized: a single destructuring assignment
// `my ($a, $b) = @_;` and by-index positional assignments
// `my $a = $_[0];`. Matched idioms are removed from the body and any
// remaining @_ / $_[i] references are renamed to args / args[i].
func deriveParams(body string) ([]string, string) {
	var params []string

	if m := tupleParamsRe.FindStringSubmatch(body); m != nil {
		for _, p := range strings.Split(m[1], ",") {
			p = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(p), "$"))
			if p != "" {
				params = append(params, p)
			}
		}
		body = tupleRemoveRe.ReplaceAllString(body, "")
	} else if matches := indexParamRe.FindAllStringSubmatch(body, -1); len(matches) > 0 {
		sort.Slice(matches, func(i, j int) bool {
			a, _ := strconv.Atoi(matches[i][2])
			b, _ := strconv.Atoi(matches[j][2])
			return a < b
		})
		for _, m := range matches {
			params = append(params, m[1])
			assignRe := regexp.MustCompile(`my\s+\$` + regexp.QuoteMeta(m[1]) + `\s*=\s*\$_\[` + m[2] + `\]\s*;?\n?`)
			body = assignRe.ReplaceAllString(body, "")
		}
	}

	if len(params) > 0 {
		body = argsArrayRe.ReplaceAllString(body, "args")
		body = argsIndexRe.ReplaceAllString(body, "args[$1]")
	}
	return params, body
}

// mainGuard emits the trailing entry guard with the rewritten main
// script, or a placeholder when the source had no top-level code.
func (a *Assembler) mainGuard(elements []extract.Element) []string {
	out := []string{"if __name__ == '__main__':"}

	var main *extract.Element
	for i := range elements {
		if elements[i].Kind == extract.MainScript {
			main = &elements[i]
			break
		}
	}
	if main == nil {
		return append(out,
			"    # No main script code found in the Perl file",
			"    pass")
	}

	lines := rewrite.Body(main.Body, a.AddExceptionHandling)
	if len(lines) == 0 {
		return append(out, "    pass")
	}
	for _, l := range lines {
		if l == "" {
			out = append(out, "")
			continue
		}
		out = append(out, "    "+l)
	}
	return out
}
