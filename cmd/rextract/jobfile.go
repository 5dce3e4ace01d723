package main

import (
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"

	v1 "github.com/infracollect/rextract/apis/v1"
	"github.com/infracollect/rextract/internal/runner"
)

// readJobFile reads a job file, or stdin when name is "-".
func readJobFile(name string) ([]byte, error) {
	if name == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		return data, nil
	}
	return os.ReadFile(name)
}

// errInvalidJob wraps parse and validation failures so callers can print them
// per field.
type errInvalidJob struct {
	err error
}

func (e *errInvalidJob) Error() string { return e.err.Error() }
func (e *errInvalidJob) Unwrap() error { return e.err }

// loadJob reads the "job" argument, parses it and expands its templates with
// the variables allowed by --allowed-env.
func loadJob(command *cli.Command) (v1.ExtractJob, error) {
	jobFilename := command.StringArg("job")
	if jobFilename == "" {
		return v1.ExtractJob{}, fmt.Errorf("no job file provided")
	}

	data, err := readJobFile(jobFilename)
	if err != nil {
		return v1.ExtractJob{}, fmt.Errorf("failed to read job file '%s': %w", jobFilename, err)
	}

	job, err := runner.ParseExtractJob(data)
	if err != nil {
		return v1.ExtractJob{}, &errInvalidJob{err: err}
	}

	variables, err := runner.BuildVariables(job, command.StringSlice("allowed-env"))
	if err != nil {
		return v1.ExtractJob{}, fmt.Errorf("failed to build variables: %w", err)
	}

	if err := runner.ExpandTemplates(&job, variables); err != nil {
		return v1.ExtractJob{}, fmt.Errorf("failed to expand templates: %w", err)
	}

	return job, nil
}

func allowedEnvFlag() cli.Flag {
	return &cli.StringSliceFlag{
		Name:  "allowed-env",
		Usage: "Environment variables allowed in job configuration (can be repeated)",
	}
}

func jobArgument(usage string) cli.Argument {
	return &cli.StringArg{
		Name:      "job",
		UsageText: usage,
	}
}
