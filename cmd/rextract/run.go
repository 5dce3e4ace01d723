package main

import (
	"context"
	"fmt"

	"github.com/samber/lo"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/infracollect/rextract/internal/report"
	"github.com/infracollect/rextract/internal/runner"
)

var runCommand = &cli.Command{
	Name:      "run",
	Usage:     "Fetch and extract every source of a job file",
	Flags:     []cli.Flag{allowedEnvFlag(), formatFlag()},
	Arguments: []cli.Argument{jobArgument("The job file to run, or - for stdin")},
	Action: func(ctx context.Context, command *cli.Command) error {
		logger := getLogger(ctx)

		job, err := loadJob(command)
		if err != nil {
			return fmt.Errorf("failed to load job: %w", formatValidationError(err))
		}

		r, err := runner.New(logger.Named("runner"), job)
		if err != nil {
			return fmt.Errorf("failed to create runner: %w", err)
		}

		results, runErr := r.Run(ctx)

		entries := lo.Map(results, func(res runner.SourceResult, _ int) report.Entry {
			return report.Entry{
				ID:        res.ID,
				Source:    res.Source,
				Archive:   res.Archive,
				Root:      res.Result.Root,
				Extracted: res.Result.Extracted,
				Files:     res.Result.Files,
			}
		})
		if err := writeReport(ctx, command, entries); err != nil {
			logger.Warn("failed to write report", zap.Error(err))
		}

		if runErr != nil {
			return fmt.Errorf("failed to run job: %w", runErr)
		}
		return nil
	},
}
