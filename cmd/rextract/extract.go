package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/infracollect/rextract/internal/archive"
	"github.com/infracollect/rextract/internal/report"
	"github.com/infracollect/rextract/internal/sources"
)

var extractCommand = &cli.Command{
	Name:  "extract",
	Usage: "Extract archives and every archive nested inside them",
	Description: "Each argument is a local file, a local directory, an s3://bucket/key URI or an http(s) URL.\n" +
		"Directories are scanned and every archive found in them is extracted. Remote archives\n" +
		"are downloaded into --work-dir first. Files that are not archives are left untouched.",
	Flags: append(extractOptionFlags(),
		&cli.StringFlag{
			Name:  "work-dir",
			Usage: "Directory remote archives are downloaded to (default: the system temp directory)",
		},
		&cli.StringFlag{
			Name:  "s3-region",
			Usage: "Region of the S3 bucket",
		},
		&cli.StringFlag{
			Name:  "s3-endpoint",
			Usage: "Custom endpoint for S3 compatible storage",
		},
		&cli.BoolFlag{
			Name:  "s3-force-path-style",
			Usage: "Use path-style S3 addressing",
		},
		&cli.StringMapFlag{
			Name:  "header",
			Usage: "HTTP header sent when downloading archives, as name=value (can be repeated)",
		},
		formatFlag(),
	),
	Arguments: []cli.Argument{
		&cli.StringArgs{
			Name:      "paths",
			UsageText: "Archives or directories to extract",
			Min:       1,
			Max:       -1,
		},
	},
	Action: func(ctx context.Context, command *cli.Command) error {
		logger := getLogger(ctx)

		refs := command.StringArgs("paths")
		if len(refs) == 0 {
			return fmt.Errorf("no path provided")
		}

		workDir := command.String("work-dir")
		if workDir == "" {
			workDir = filepath.Join(os.TempDir(), "rextract")
		}

		cfg := sources.Config{
			S3: sources.S3Config{
				Region:         command.String("s3-region"),
				Endpoint:       command.String("s3-endpoint"),
				ForcePathStyle: command.Bool("s3-force-path-style"),
			},
			HTTP: sources.HTTPConfig{
				Headers: command.StringMap("header"),
			},
		}

		opts := extractOptionsFromFlags(command)
		extractor := archive.New(logger.Named("archive"), afero.NewOsFs())

		entries := make([]report.Entry, 0, len(refs))
		for _, ref := range refs {
			entry, err := extractRef(ctx, logger, extractor, ref, workDir, cfg, opts)
			if err != nil {
				if reportErr := writeReport(ctx, command, entries); reportErr != nil {
					logger.Warn("failed to write report", zap.Error(reportErr))
				}
				return fmt.Errorf("failed to extract '%s': %w", ref, err)
			}
			entries = append(entries, entry)
		}

		return writeReport(ctx, command, entries)
	},
}

func extractRef(ctx context.Context, logger *zap.Logger, extractor *archive.Extractor, ref, workDir string, cfg sources.Config, opts archive.Options) (report.Entry, error) {
	source, err := sources.Resolve(ctx, logger, ref, cfg)
	if err != nil {
		return report.Entry{}, err
	}

	path, err := source.Fetch(ctx, extractor.Fs(), workDir)
	if err != nil {
		return report.Entry{}, err
	}

	result, err := extractor.ExtractPath(ctx, path, opts)
	if err != nil {
		return report.Entry{}, err
	}

	return report.Entry{
		Source:    source.Name(),
		Archive:   path,
		Root:      result.Root,
		Extracted: result.Extracted,
		Files:     result.Files,
	}, nil
}
