package sources

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/samber/lo"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

const (
	DefaultHTTPTimeout = 5 * time.Minute
)

var (
	defaultHeaders = map[string]string{
		"User-Agent": "rextract",
		"Accept":     "*/*",
	}
)

// HTTPConfig contains configuration for HTTP sources.
type HTTPConfig struct {
	Headers  map[string]string
	Timeout  time.Duration
	Insecure bool
}

// HTTPSource downloads an archive over HTTP(S).
type HTTPSource struct {
	logger     *zap.Logger
	url        *url.URL
	headers    map[string]string
	httpClient *http.Client
}

type HTTPOption func(*HTTPSource)

func WithHTTPClient(httpClient *http.Client) HTTPOption {
	return func(s *HTTPSource) {
		s.httpClient = httpClient
	}
}

func NewHTTPSource(logger *zap.Logger, rawURL string, cfg HTTPConfig, opts ...HTTPOption) (*HTTPSource, error) {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse url '%s': %w", rawURL, err)
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return nil, fmt.Errorf("url must use http or https scheme, got: %s", parsedURL.Scheme)
	}

	if _, err := downloadName(parsedURL.Path); err != nil {
		return nil, err
	}

	source := &HTTPSource{
		logger:  logger,
		url:     parsedURL,
		headers: lo.Assign(defaultHeaders, cfg.Headers),
	}

	for _, opt := range opts {
		opt(source)
	}

	if source.httpClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = DefaultHTTPTimeout
		}

		transport := cleanhttp.DefaultPooledTransport()
		// Archives must arrive byte for byte, not transparently gunzipped.
		transport.DisableCompression = true
		if cfg.Insecure {
			if transport.TLSClientConfig == nil {
				transport.TLSClientConfig = &tls.Config{}
			}

			transport.TLSClientConfig.InsecureSkipVerify = true
		}

		source.httpClient = &http.Client{
			Transport: transport,
			Timeout:   timeout,
		}
	}

	return source, nil
}

func (s *HTTPSource) Name() string {
	return fmt.Sprintf("http(%s)", s.url.Host)
}

func (s *HTTPSource) Kind() string {
	return "http"
}

func (s *HTTPSource) Fetch(ctx context.Context, fsys afero.Fs, workDir string) (_ string, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url.String(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	for k, v := range s.headers {
		req.Header.Set(k, v)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to get %s: %w", s.url.Redacted(), err)
	}
	defer func() {
		err = errors.Join(err, resp.Body.Close())
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("unexpected status code %d from %s", resp.StatusCode, s.url.Redacted())
	}

	f, err := createDownload(fsys, workDir, s.url.Path)
	if err != nil {
		return "", err
	}
	defer func() {
		err = errors.Join(err, f.Close())
	}()

	n, err := io.Copy(f, resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to write %s: %w", f.Name(), err)
	}

	s.logger.Info("downloaded archive",
		zap.String("url", s.url.Redacted()),
		zap.String("path", f.Name()),
		zap.Int64("bytes", n),
	)

	return f.Name(), nil
}
