package runner

import (
	"archive/tar"
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	v1 "github.com/infracollect/rextract/apis/v1"
	"github.com/infracollect/rextract/internal/archive"
	"github.com/infracollect/rextract/internal/sources"
)

func TestParseExtractJob(t *testing.T) {
	tests := []struct {
		name        string
		data        string
		wantErr     bool
		errContains string
	}{
		{
			name: "minimal yaml job",
			data: `
kind: ExtractJob
metadata:
  name: nightly
spec:
  sources:
    - id: logs
      path: /data/logs.tgz
`,
		},
		{
			name: "json job with options",
			data: `{"kind":"ExtractJob","metadata":{"name":"nightly"},"spec":{"sources":[{"id":"a","path":"a.tar"}],"options":{"recursive":false,"max_depth":3}}}`,
		},
		{
			name: "wrong kind",
			data: `
kind: CollectJob
metadata:
  name: nightly
spec:
  sources:
    - id: logs
      path: /data/logs.tgz
`,
			wantErr:     true,
			errContains: "Kind",
		},
		{
			name: "no sources",
			data: `
kind: ExtractJob
metadata:
  name: nightly
spec:
  sources: []
`,
			wantErr:     true,
			errContains: "Sources",
		},
		{
			name: "duplicate source ids",
			data: `
kind: ExtractJob
metadata:
  name: nightly
spec:
  sources:
    - id: logs
      path: /data/a.tgz
    - id: logs
      path: /data/b.tgz
`,
			wantErr:     true,
			errContains: "unique",
		},
		{
			name: "source without path",
			data: `
kind: ExtractJob
metadata:
  name: nightly
spec:
  sources:
    - id: logs
`,
			wantErr:     true,
			errContains: "Path",
		},
		{
			name: "max depth out of range",
			data: `
kind: ExtractJob
metadata:
  name: nightly
spec:
  options:
    max_depth: 0
  sources:
    - id: logs
      path: /data/a.tgz
`,
			wantErr:     true,
			errContains: "MaxDepth",
		},
		{
			name:        "not yaml",
			data:        "kind: [",
			wantErr:     true,
			errContains: "unmarshal",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job, err := ParseExtractJob([]byte(tt.data))
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContains)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, v1.ExtractJobKind, job.Kind)
			assert.Equal(t, "nightly", job.Metadata.Name)
		})
	}
}

func TestParseExtractJob_ValidationErrors(t *testing.T) {
	_, err := ParseExtractJob([]byte(`kind: ExtractJob`))
	require.Error(t, err)

	var validationErrs validator.ValidationErrors
	require.True(t, errors.As(err, &validationErrs))
	assert.NotEmpty(t, validationErrs)
}

func TestOptionsFromSpec(t *testing.T) {
	assert.Equal(t, archive.DefaultOptions(), OptionsFromSpec(nil))

	opts := OptionsFromSpec(&v1.ExtractOptions{
		Recursive:   lo.ToPtr(false),
		GzCreateDir: lo.ToPtr(true),
		MaxDepth:    lo.ToPtr(4),
	})
	assert.False(t, opts.Recursive)
	assert.True(t, opts.GzCreateDir)
	assert.True(t, opts.DeleteNested, "unset fields keep their defaults")
	assert.True(t, opts.CreateDir)
	assert.Equal(t, 4, opts.MaxDepth)
}

func TestSourcesConfigFromSpec(t *testing.T) {
	cfg := SourcesConfigFromSpec(v1.ExtractJobSpec{
		S3:   &v1.S3Config{Region: "eu-west-1", ForcePathStyle: true},
		HTTP: &v1.HTTPConfig{Timeout: lo.ToPtr(10), Headers: map[string]string{"X": "y"}},
	})

	assert.Equal(t, "eu-west-1", cfg.S3.Region)
	assert.True(t, cfg.S3.ForcePathStyle)
	assert.Equal(t, 10*time.Second, cfg.HTTP.Timeout)
	assert.Equal(t, "y", cfg.HTTP.Headers["X"])
}

func TestBuildVariables(t *testing.T) {
	job := v1.ExtractJob{
		Metadata: v1.Metadata{
			Name: "test-job",
		},
	}

	t.Run("built-in variables are set", func(t *testing.T) {
		variables, err := BuildVariables(job, nil)
		require.NoError(t, err)

		assert.Equal(t, "test-job", variables["JOB_NAME"])

		_, err = time.Parse(ISO8601Basic, variables["JOB_DATE_ISO8601"])
		require.NoError(t, err)

		_, err = time.Parse(time.RFC3339, variables["JOB_DATE_RFC3339"])
		require.NoError(t, err)
	})

	t.Run("allowed env variables are included", func(t *testing.T) {
		t.Setenv("TEST_VAR", "test-value")

		variables, err := BuildVariables(job, []string{"TEST_VAR"})
		require.NoError(t, err)

		assert.Equal(t, "test-value", variables["TEST_VAR"])
	})

	t.Run("error accumulates for multiple missing env variables", func(t *testing.T) {
		_, err := BuildVariables(job, []string{"MISSING1", "MISSING2"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "MISSING1")
		assert.Contains(t, err.Error(), "MISSING2")
	})
}

func tarBytes(t *testing.T, files map[string]string) []byte {
	t.Helper()
	buf := new(bytes.Buffer)
	tw := tar.NewWriter(buf)
	for name, content := range files {
		require.NoError(t, tw.WriteHeader(&tar.Header{Name: name, Mode: 0o644, Size: int64(len(content)), Typeflag: tar.TypeReg}))
		_, err := tw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	return buf.Bytes()
}

// localResolver keeps every reference local so tests never reach the network.
func localResolver(_ context.Context, _ *zap.Logger, ref string, _ sources.Config) (sources.Source, error) {
	return sources.NewLocalSource(ref), nil
}

func TestRunner_Run(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/data/a.tar", tarBytes(t, map[string]string{"a.txt": "a"}), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/data/b.tar", tarBytes(t, map[string]string{"b.txt": "b"}), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/data/notes.txt", []byte("notes"), 0o644))

	job := v1.ExtractJob{
		Kind:     v1.ExtractJobKind,
		Metadata: v1.Metadata{Name: "test"},
		Spec: v1.ExtractJobSpec{
			Sources: []v1.Source{
				{ID: "a", Path: "/data/a.tar"},
				{ID: "b", Path: "/data/b.tar", ExtractTo: lo.ToPtr("/restore")},
				{ID: "notes", Path: "/data/notes.txt"},
			},
		},
	}

	r, err := New(zap.NewNop(), job, WithFs(fs), WithResolver(localResolver))
	require.NoError(t, err)

	results, err := r.Run(t.Context())
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "a", results[0].ID)
	assert.Equal(t, "/data/a", results[0].Result.Root)
	assert.Equal(t, "/restore/b", results[1].Result.Root)
	assert.Equal(t, "/data/notes.txt", results[2].Result.Root)
	assert.Empty(t, results[2].Result.Extracted)

	data, err := afero.ReadFile(fs, "/restore/b/b.txt")
	require.NoError(t, err)
	assert.Equal(t, "b", string(data))
}

func TestRunner_RunStopsOnFirstError(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/data/a.tar", tarBytes(t, map[string]string{"a.txt": "a"}), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/data/c.tar", tarBytes(t, map[string]string{"c.txt": "c"}), 0o644))

	job := v1.ExtractJob{
		Kind:     v1.ExtractJobKind,
		Metadata: v1.Metadata{Name: "test"},
		Spec: v1.ExtractJobSpec{
			Sources: []v1.Source{
				{ID: "a", Path: "/data/a.tar"},
				{ID: "missing", Path: "/data/missing.tar"},
				{ID: "c", Path: "/data/c.tar"},
			},
		},
	}

	r, err := New(zap.NewNop(), job, WithFs(fs), WithResolver(localResolver))
	require.NoError(t, err)

	results, err := r.Run(t.Context())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "source 'missing'")
	assert.Len(t, results, 1)

	exists, err := afero.Exists(fs, "/data/c")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRunner_RunDirectorySource(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/drop/a.tar", tarBytes(t, map[string]string{"a.txt": "a"}), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/drop/nested/b.tar", tarBytes(t, map[string]string{"b.txt": "b"}), 0o644))

	job := v1.ExtractJob{
		Kind:     v1.ExtractJobKind,
		Metadata: v1.Metadata{Name: "test"},
		Spec: v1.ExtractJobSpec{
			Sources: []v1.Source{{ID: "drop", Path: "/drop"}},
		},
	}

	r, err := New(zap.NewNop(), job, WithFs(fs), WithResolver(localResolver))
	require.NoError(t, err)

	results, err := r.Run(t.Context())
	require.NoError(t, err)
	require.Len(t, results, 1)

	assert.Equal(t, "/drop", results[0].Result.Root)
	assert.ElementsMatch(t, []string{"/drop/a.tar", "/drop/nested/b.tar"}, results[0].Result.Extracted)

	data, err := afero.ReadFile(fs, "/drop/nested/b/b.txt")
	require.NoError(t, err)
	assert.Equal(t, "b", string(data))
}

func TestNew_NoSources(t *testing.T) {
	_, err := New(zap.NewNop(), v1.ExtractJob{Metadata: v1.Metadata{Name: "empty"}})
	require.Error(t, err)
}
