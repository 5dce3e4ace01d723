package runner

import (
	"errors"
	"fmt"
	"os"
	"time"

	v1 "github.com/infracollect/rextract/apis/v1"
	"github.com/infracollect/rextract/internal/archive"
	"github.com/infracollect/rextract/internal/sources"
)

const (
	// ISO8601Basic is a path-safe timestamp format without colons.
	ISO8601Basic = "20060102T150405Z"
)

// OptionsFromSpec applies the job's option overrides on top of archive.DefaultOptions.
func OptionsFromSpec(spec *v1.ExtractOptions) archive.Options {
	opts := archive.DefaultOptions()
	if spec == nil {
		return opts
	}

	if spec.Recursive != nil {
		opts.Recursive = *spec.Recursive
	}
	if spec.DeleteNested != nil {
		opts.DeleteNested = *spec.DeleteNested
	}
	if spec.CreateDir != nil {
		opts.CreateDir = *spec.CreateDir
	}
	if spec.GzCreateDir != nil {
		opts.GzCreateDir = *spec.GzCreateDir
	}
	if spec.MaxDepth != nil {
		opts.MaxDepth = *spec.MaxDepth
	}

	return opts
}

// SourcesConfigFromSpec converts the job's remote source settings.
func SourcesConfigFromSpec(spec v1.ExtractJobSpec) sources.Config {
	var cfg sources.Config

	if spec.S3 != nil {
		cfg.S3 = sources.S3Config{
			Region:          spec.S3.Region,
			Endpoint:        spec.S3.Endpoint,
			AccessKeyID:     spec.S3.AccessKeyID,
			SecretAccessKey: spec.S3.SecretAccessKey,
			ForcePathStyle:  spec.S3.ForcePathStyle,
		}
	}

	if spec.HTTP != nil {
		cfg.HTTP = sources.HTTPConfig{
			Headers:  spec.HTTP.Headers,
			Insecure: spec.HTTP.Insecure,
		}
		if spec.HTTP.Timeout != nil {
			cfg.HTTP.Timeout = time.Duration(*spec.HTTP.Timeout) * time.Second
		}
	}

	return cfg
}

// BuildVariables returns the variables available to ${VAR} templates: a few
// job built-ins plus the allowed environment variables.
func BuildVariables(job v1.ExtractJob, allowedEnv []string) (map[string]string, error) {
	date := time.Now().UTC()
	variables := map[string]string{
		"JOB_NAME":         job.Metadata.Name,
		"JOB_DATE_ISO8601": date.Format(ISO8601Basic),
		"JOB_DATE_RFC3339": date.Format(time.RFC3339),
	}

	var errs error
	for _, envName := range allowedEnv {
		val, ok := os.LookupEnv(envName)
		if !ok {
			errs = errors.Join(errs, fmt.Errorf("environment variable %q is not set", envName))
			continue
		}
		variables[envName] = val
	}

	if errs != nil {
		return nil, errs
	}

	return variables, nil
}
