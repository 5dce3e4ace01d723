package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var logger *zap.Logger
	app := newApp(func(l *zap.Logger) { logger = l })

	err := app.Run(ctx, os.Args)
	if logger != nil {
		_ = logger.Sync()
	}
	if err != nil {
		os.Exit(1)
	}
}

// newApp builds the root command. onLogger receives the logger once the
// global flags are parsed so main can flush it on exit.
func newApp(onLogger func(*zap.Logger)) *cli.Command {
	return &cli.Command{
		Name:    "rextract",
		Usage:   "Extract archives and every archive nested inside them",
		Version: Version,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "debug",
				Aliases: []string{"d"},
				Usage:   "Enable debug logging",
				Sources: cli.EnvVars("REXTRACT_DEBUG"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Value:   "info",
				Usage:   "Log Level (debug, info, warn, error, fatal)",
				Sources: cli.EnvVars("REXTRACT_LOG_LEVEL"),
				Action: func(ctx context.Context, command *cli.Command, s string) error {
					if _, err := zapcore.ParseLevel(s); err != nil {
						return fmt.Errorf("invalid log level %s: %w", s, err)
					}
					return nil
				},
			},
		},
		Commands: []*cli.Command{
			extractCommand,
			runCommand,
			validateCommand,
			watchCommand,
			versionCommand,
		},
		Before: func(ctx context.Context, command *cli.Command) (context.Context, error) {
			logger, _, err := createLogger(command.Bool("debug"), command.String("log-level"))
			if err != nil {
				return nil, err
			}
			onLogger(logger)

			ctx = withInteractive(ctx, isInteractiveEnvironment())
			return withLogger(ctx, logger), nil
		},
		ExitErrHandler: func(ctx context.Context, command *cli.Command, err error) {
			if err == nil {
				return
			}

			if logger := tryLogger(ctx); logger != nil {
				logger.Error("rextract failed", zap.String("command", command.Name), zap.Error(err))
			} else {
				log.Printf("rextract failed: %v", err)
			}
		},
	}
}
