package sources

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// S3Downloader is an interface for downloading objects from S3.
// This allows for easy mocking in tests.
type S3Downloader interface {
	Download(ctx context.Context, w io.WriterAt, input *s3.GetObjectInput, opts ...func(*manager.Downloader)) (int64, error)
}

// S3Config contains configuration for S3 sources.
type S3Config struct {
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	ForcePathStyle  bool
}

// S3Source downloads an archive from S3-compatible object storage.
type S3Source struct {
	logger     *zap.Logger
	bucket     string
	key        string
	downloader S3Downloader
}

// NewS3Source creates a new S3 source for s3://bucket/key.
func NewS3Source(ctx context.Context, logger *zap.Logger, cfg S3Config, bucket, key string) (*S3Source, error) {
	var opts []func(*config.LoadOptions) error

	if cfg.Region != "" {
		opts = append(opts, config.WithRegion(cfg.Region))
	}

	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var s3Opts []func(*s3.Options)

	// Custom endpoint for S3-compatible services (R2, MinIO, etc.)
	if cfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		})
	}

	if cfg.ForcePathStyle {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}

	client := s3.NewFromConfig(awsCfg, s3Opts...)

	return NewS3SourceWithDownloader(logger, bucket, key, manager.NewDownloader(client)), nil
}

// NewS3SourceWithDownloader creates a new S3 source with a custom downloader.
// This is useful for testing.
func NewS3SourceWithDownloader(logger *zap.Logger, bucket, key string, downloader S3Downloader) *S3Source {
	return &S3Source{
		logger:     logger,
		bucket:     bucket,
		key:        key,
		downloader: downloader,
	}
}

func (s *S3Source) Name() string {
	return fmt.Sprintf("s3(%s/%s)", s.bucket, s.key)
}

func (s *S3Source) Kind() string {
	return "s3"
}

func (s *S3Source) Fetch(ctx context.Context, fsys afero.Fs, workDir string) (_ string, err error) {
	f, err := createDownload(fsys, workDir, s.key)
	if err != nil {
		return "", err
	}
	defer func() {
		err = errors.Join(err, f.Close())
	}()

	n, err := s.downloader.Download(ctx, f, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		return "", fmt.Errorf("failed to download s3://%s/%s: %w", s.bucket, s.key, err)
	}

	s.logger.Info("downloaded archive",
		zap.String("bucket", s.bucket),
		zap.String("key", s.key),
		zap.String("path", f.Name()),
		zap.Int64("bytes", n),
	)

	return f.Name(), nil
}
