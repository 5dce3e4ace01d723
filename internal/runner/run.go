package runner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-yaml"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	v1 "github.com/infracollect/rextract/apis/v1"
	"github.com/infracollect/rextract/internal/archive"
	"github.com/infracollect/rextract/internal/sources"
)

var (
	defaultValidator = validator.New(validator.WithRequiredStructEnabled())
)

// ParseExtractJob parses a YAML or JSON job file and validates it. It returns
// a validated ExtractJob or an error if parsing or validation fails.
func ParseExtractJob(data []byte) (v1.ExtractJob, error) {
	var job v1.ExtractJob
	if err := yaml.Unmarshal(data, &job); err != nil {
		return v1.ExtractJob{}, fmt.Errorf("failed to unmarshal job data: %w", err)
	}

	if err := defaultValidator.Struct(job); err != nil {
		return v1.ExtractJob{}, fmt.Errorf("failed to validate job: %w", err)
	}

	return job, nil
}

// Resolver turns a source reference into a Source.
type Resolver func(ctx context.Context, logger *zap.Logger, ref string, cfg sources.Config) (sources.Source, error)

type Option func(*Runner)

// WithFs runs the job against fsys instead of the OS filesystem.
func WithFs(fsys afero.Fs) Option {
	return func(r *Runner) {
		r.fs = fsys
	}
}

// WithResolver replaces sources.Resolve.
func WithResolver(resolve Resolver) Option {
	return func(r *Runner) {
		r.resolve = resolve
	}
}

// SourceResult is the outcome of one job source.
type SourceResult struct {
	ID      string         `json:"id"`
	Source  string         `json:"source"`
	Archive string         `json:"archive"`
	Result  archive.Result `json:"result"`
}

type Runner struct {
	logger    *zap.Logger
	job       v1.ExtractJob
	fs        afero.Fs
	resolve   Resolver
	extractor *archive.Extractor
	options   archive.Options
	sources   sources.Config
	workDir   string
}

func New(logger *zap.Logger, job v1.ExtractJob, opts ...Option) (*Runner, error) {
	logger.Info("creating runner", zap.String("job_name", job.Metadata.Name))

	if len(job.Spec.Sources) == 0 {
		return nil, fmt.Errorf("job '%s' has no sources", job.Metadata.Name)
	}

	r := &Runner{
		logger:  logger,
		job:     job,
		fs:      afero.NewOsFs(),
		resolve: sources.Resolve,
		options: OptionsFromSpec(job.Spec.Options),
		sources: SourcesConfigFromSpec(job.Spec),
		workDir: job.Spec.WorkDir,
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.workDir == "" {
		r.workDir = filepath.Join(os.TempDir(), "rextract", job.Metadata.Name)
	}

	r.extractor = archive.New(logger.Named("archive"), r.fs)

	return r, nil
}

// Run fetches and extracts every source in order. The first failure stops the
// run; results for the sources finished before it are still returned.
func (r *Runner) Run(ctx context.Context) ([]SourceResult, error) {
	results := make([]SourceResult, 0, len(r.job.Spec.Sources))

	for _, spec := range r.job.Spec.Sources {
		result, err := r.runSource(ctx, spec)
		if err != nil {
			return results, fmt.Errorf("source '%s': %w", spec.ID, err)
		}
		results = append(results, result)
	}

	return results, nil
}

func (r *Runner) runSource(ctx context.Context, spec v1.Source) (SourceResult, error) {
	logger := r.logger.With(zap.String("source_id", spec.ID))

	source, err := r.resolve(ctx, logger, spec.Path, r.sources)
	if err != nil {
		return SourceResult{}, fmt.Errorf("failed to resolve source: %w", err)
	}

	path, err := source.Fetch(ctx, r.fs, r.workDir)
	if err != nil {
		return SourceResult{}, fmt.Errorf("failed to fetch %s: %w", source.Name(), err)
	}

	opts := r.options
	if spec.ExtractTo != nil {
		opts.ExtractTo = *spec.ExtractTo
	}

	start := time.Now()
	result, err := r.extractor.ExtractPath(ctx, path, opts)
	if err != nil {
		return SourceResult{}, fmt.Errorf("failed to extract %s: %w", path, err)
	}

	logger.Info("source extracted",
		zap.String("source", source.Name()),
		zap.String("root", result.Root),
		zap.Int("archives", len(result.Extracted)),
		zap.Int("files", result.Files),
		zap.Duration("duration", time.Since(start)),
	)

	return SourceResult{
		ID:      spec.ID,
		Source:  source.Name(),
		Archive: path,
		Result:  result,
	}, nil
}
