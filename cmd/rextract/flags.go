package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/infracollect/rextract/internal/archive"
	"github.com/infracollect/rextract/internal/report"
)

func extractOptionFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Directory to extract into (default: next to the archive)",
		},
		&cli.BoolFlag{
			Name:  "no-recursive",
			Usage: "Do not extract archives found inside the extracted files",
		},
		&cli.BoolFlag{
			Name:  "keep-nested",
			Usage: "Keep nested archives after extracting them",
		},
		&cli.BoolFlag{
			Name:  "no-create-dir",
			Usage: "Extract nested tar archives next to themselves instead of into their own directory",
		},
		&cli.BoolFlag{
			Name:  "gz-create-dir",
			Usage: "Decompress nested .gz and .zst files into their own directory",
		},
		&cli.IntFlag{
			Name:  "max-depth",
			Value: archive.DefaultMaxDepth,
			Usage: "Maximum nesting depth of archives to follow",
			Action: func(ctx context.Context, command *cli.Command, v int) error {
				if v < 1 {
					return fmt.Errorf("max-depth must be at least 1, got %d", v)
				}
				return nil
			},
		},
	}
}

func extractOptionsFromFlags(command *cli.Command) archive.Options {
	opts := archive.DefaultOptions()
	opts.ExtractTo = command.String("output")
	opts.Recursive = !command.Bool("no-recursive")
	opts.DeleteNested = !command.Bool("keep-nested")
	opts.CreateDir = !command.Bool("no-create-dir")
	opts.GzCreateDir = command.Bool("gz-create-dir")
	opts.MaxDepth = command.Int("max-depth")
	return opts
}

func formatFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "format",
		Usage: "Report format (text, json, yaml). Defaults to text on a terminal and json otherwise",
		Action: func(ctx context.Context, command *cli.Command, s string) error {
			_, err := report.ParseFormat(s)
			return err
		},
	}
}

// writeReport prints entries to stdout in the format chosen with --format.
func writeReport(ctx context.Context, command *cli.Command, entries []report.Entry) error {
	format := report.FormatJSON
	if isInteractive(ctx) {
		format = report.FormatText
	}
	if name := command.String("format"); name != "" {
		f, err := report.ParseFormat(name)
		if err != nil {
			return err
		}
		format = f
	}

	encoder, err := report.NewEncoder(format)
	if err != nil {
		return err
	}
	return encoder.Encode(os.Stdout, entries)
}
