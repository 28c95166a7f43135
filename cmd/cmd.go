// Package cmd implements the pl2py command line interface.
package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rubiojr/pl2py/converter"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"
)

// Execute runs the pl2py CLI with the given version string.
func Execute(version string) {
	cmd := &cli.Command{
		Name:                   "pl2py",
		Usage:                  "Convert Perl source files to Python",
		Version:                version,
		UseShortOptionHandling: true,
		// Allow `pl2py script.pl` as shorthand for `pl2py convert script.pl`
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.NArg() > 0 {
				arg := cmd.Args().First()
				if strings.HasSuffix(arg, ".pl") || strings.HasSuffix(arg, ".pm") {
					return convertOne(cmd, arg, "")
				}
			}
			return cli.ShowAppHelp(cmd)
		},
		Commands: []*cli.Command{
			{
				Name:      "convert",
				Usage:     "Convert a Perl file, writing the Python output to a file or stdout",
				ArgsUsage: "<file.pl>",
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file (stdout when omitted)",
					},
				}, conversionFlags()...),
				Action: convertAction,
			},
			{
				Name:      "emit",
				Usage:     "Convert a Perl file and print the Python output",
				ArgsUsage: "<file.pl>",
				Flags:     conversionFlags(),
				Action:    emitAction,
			},
			{
				Name:      "batch",
				Usage:     "Convert every .pl/.pm file under a directory",
				ArgsUsage: "<dir>",
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output directory",
						Value:   ".",
					},
					&cli.IntFlag{
						Name:    "jobs",
						Aliases: []string{"j"},
						Usage:   "Parallel conversions",
						Value:   1,
					},
					&cli.BoolFlag{
						Name:    "no-color",
						Aliases: []string{"C"},
						Usage:   "Disable ANSI color output",
					},
				}, conversionFlags()...),
				Action: batchAction,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func conversionFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "no-exceptions",
			Usage: "Do not wrap converted bodies in try/except scaffolds",
		},
		&cli.StringSliceFlag{
			Name:    "map",
			Aliases: []string{"m"},
			Usage:   "Module remapping, e.g. --map 'Text::CSV=import csv'",
		},
	}
}

// buildConverter assembles a Converter from the command flags.
func buildConverter(cmd *cli.Command) (*converter.Converter, error) {
	cfg := converter.DefaultConfig()
	if cmd.Bool("no-exceptions") {
		cfg.AddExceptionHandling = false
	}
	for _, m := range cmd.StringSlice("map") {
		name, stmt, ok := strings.Cut(m, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --map %q, want 'Perl::Module=import statement'", m)
		}
		if cfg.ModuleMap == nil {
			cfg.ModuleMap = make(map[string]string)
		}
		cfg.ModuleMap[strings.TrimSpace(name)] = strings.TrimSpace(stmt)
	}
	return converter.New(cfg), nil
}

func convertOne(cmd *cli.Command, in, out string) error {
	conv, err := buildConverter(cmd)
	if err != nil {
		return err
	}
	python, err := conv.ConvertFile(in, out)
	if err != nil {
		return err
	}
	if out == "" {
		fmt.Print(python)
	}
	return nil
}

func convertAction(ctx context.Context, cmd *cli.Command) error {
	if cmd.NArg() < 1 {
		return fmt.Errorf("usage: pl2py convert [-o output] <file.pl>")
	}
	return convertOne(cmd, cmd.Args().First(), cmd.String("output"))
}

func emitAction(ctx context.Context, cmd *cli.Command) error {
	if cmd.NArg() < 1 {
		return fmt.Errorf("usage: pl2py emit <file.pl>")
	}
	return convertOne(cmd, cmd.Args().First(), "")
}

func batchAction(ctx context.Context, cmd *cli.Command) error {
	if cmd.NArg() < 1 {
		return fmt.Errorf("usage: pl2py batch [-o outdir] [-j jobs] <dir>")
	}

	conv, err := buildConverter(cmd)
	if err != nil {
		return err
	}
	res, err := conv.ConvertDir(cmd.Args().First(), cmd.String("output"), int(cmd.Int("jobs")))
	if err != nil {
		return err
	}

	noColor := cmd.Bool("no-color") || os.Getenv("NO_COLOR") != "" ||
		!term.IsTerminal(int(os.Stderr.Fd()))
	colorOK, colorFail, colorReset := "\033[32m", "\033[31m", "\033[0m"
	if noColor {
		colorOK, colorFail, colorReset = "", "", ""
	}

	total := res.Converted + res.Failed
	if res.Failed > 0 {
		fmt.Fprintf(os.Stderr, "%d files, %d converted, %s%d failed%s\n",
			total, res.Converted, colorFail, res.Failed, colorReset)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "%d files, %s%d converted%s, 0 failed\n",
		total, colorOK, res.Converted, colorReset)
	return nil
}
