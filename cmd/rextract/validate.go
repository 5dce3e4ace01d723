package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

var validateCommand = &cli.Command{
	Name:      "validate",
	Usage:     "Check a job file without fetching or extracting anything",
	Flags:     []cli.Flag{allowedEnvFlag()},
	Arguments: []cli.Argument{jobArgument("The job file to validate, or - for stdin")},
	Action: func(ctx context.Context, command *cli.Command) error {
		logger := getLogger(ctx).With(zap.String("job_filename", command.StringArg("job")))
		logger.Debug("validating job file")

		job, err := loadJob(command)
		var invalid *errInvalidJob
		if errors.As(err, &invalid) {
			fmt.Println(formatValidationError(err))
			return fmt.Errorf("job file '%s' is invalid", command.StringArg("job"))
		}
		if err != nil {
			return err
		}

		fmt.Printf("✓ Job '%s' is valid (%d sources)\n", job.Metadata.Name, len(job.Spec.Sources))
		return nil
	},
}

// formatValidationError lists validator failures one per line. Other errors
// are returned unchanged.
func formatValidationError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	lines := make([]string, 0, len(validationErrs)+1)
	lines = append(lines, fmt.Sprintf("job file has %d validation error(s):", len(validationErrs)))
	for _, fe := range validationErrs {
		line := fmt.Sprintf("  • %s: failed '%s' validation", fe.Namespace(), fe.Tag())
		if fe.Param() != "" {
			line += fmt.Sprintf(" (param: %s)", fe.Param())
		}
		lines = append(lines, line)
	}
	return errors.New(strings.Join(lines, "\n"))
}
