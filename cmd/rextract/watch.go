package main

import (
	"context"
	"fmt"

	"github.com/spf13/afero"
	"github.com/urfave/cli/v3"

	"github.com/infracollect/rextract/internal/archive"
	"github.com/infracollect/rextract/internal/watch"
)

var watchCommand = &cli.Command{
	Name:  "watch",
	Usage: "Extract archives as they are dropped into a directory",
	Flags: append(extractOptionFlags(),
		&cli.BoolFlag{
			Name:  "existing",
			Usage: "Also extract archives already in the directory",
		},
		&cli.DurationFlag{
			Name:  "settle",
			Value: watch.DefaultSettleDelay,
			Usage: "How long a file must stay unchanged before it is extracted",
		},
	),
	Arguments: []cli.Argument{
		&cli.StringArg{
			Name:      "dir",
			UsageText: "The directory to watch",
		},
	},
	Action: func(ctx context.Context, command *cli.Command) error {
		logger := getLogger(ctx)

		dir := command.StringArg("dir")
		if dir == "" {
			return fmt.Errorf("no directory provided")
		}

		options := []watch.Option{watch.WithSettleDelay(command.Duration("settle"))}
		if command.Bool("existing") {
			options = append(options, watch.WithExisting())
		}

		extractor := archive.New(logger.Named("archive"), afero.NewOsFs())
		w := watch.New(logger.Named("watch"), extractor, dir, extractOptionsFromFlags(command), options...)

		if err := w.Run(ctx); err != nil {
			return fmt.Errorf("failed to watch '%s': %w", dir, err)
		}
		return nil
	},
}

