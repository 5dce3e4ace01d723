package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

type loggerCtxKeyType struct{}

var loggerCtxKey = loggerCtxKeyType{}

func createLogger(debug bool, logLevel string) (logger *zap.Logger, level zap.AtomicLevel, err error) {
	level, err = zap.ParseAtomicLevel(logLevel)
	if err != nil {
		return nil, zap.NewAtomicLevel(), fmt.Errorf("invalid log level %s: %w", logLevel, err)
	}

	var loggerCfg zap.Config
	if debug {
		loggerCfg = zap.NewDevelopmentConfig()
		loggerCfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	} else {
		loggerCfg = zap.NewProductionConfig()
		loggerCfg.Level = level
	}
	// Reports go to stdout, logs stay on stderr.
	loggerCfg.OutputPaths = []string{"stderr"}

	logger, err = loggerCfg.Build()
	if err != nil {
		return nil, zap.NewAtomicLevel(), fmt.Errorf("failed to build logger: %w", err)
	}

	return logger.Named("rextract"), level, nil
}

func withLogger(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerCtxKey, logger)
}

func tryLogger(ctx context.Context) *zap.Logger {
	logger, ok := ctx.Value(loggerCtxKey).(*zap.Logger)
	if !ok {
		return nil
	}
	return logger
}

func getLogger(ctx context.Context) *zap.Logger {
	logger := tryLogger(ctx)
	if logger == nil {
		panic("logger not found in context")
	}
	return logger
}
