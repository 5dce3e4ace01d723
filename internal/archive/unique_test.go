package archive

import (
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/samber/lo"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMakeUniqueDirectoryName(t *testing.T) {
	tests := []struct {
		name     string
		existing []string
		files    []string
		want     string
	}{
		{
			name: "free path is returned unchanged",
			want: "/home/test",
		},
		{
			name:     "taken path gets first disambiguator",
			existing: []string{"/home/test"},
			want:     "/home/test 1",
		},
		{
			name:     "skips every taken disambiguator",
			existing: []string{"/home/test", "/home/test 1", "/home/test 2", "/home/test 3"},
			want:     "/home/test 4",
		},
		{
			name:  "a file counts as taken",
			files: []string{"/home/test"},
			want:  "/home/test 1",
		},
		{
			name:     "gaps after the first free candidate are ignored",
			existing: []string{"/home/test", "/home/test 2"},
			want:     "/home/test 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			for _, p := range tt.existing {
				require.NoError(t, fs.MkdirAll(p, 0o755))
			}
			for _, p := range tt.files {
				require.NoError(t, afero.WriteFile(fs, p, []byte("x"), 0o644))
			}

			got, err := MakeUniqueDirectoryName(fs, "/home/test")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMakeUniqueDirectoryName_Idempotent(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/home/test", 0o755))

	first, err := MakeUniqueDirectoryName(fs, "/home/test")
	require.NoError(t, err)
	second, err := MakeUniqueDirectoryName(fs, "/home/test")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, "/home/test 1", first)
}

func TestCreateUniqueDirectory(t *testing.T) {
	fs := afero.NewMemMapFs()

	var got []string
	for range 3 {
		dir, err := CreateUniqueDirectory(fs, "/out/bundle")
		require.NoError(t, err)
		got = append(got, dir)
	}

	assert.Equal(t, []string{"/out/bundle", "/out/bundle 1", "/out/bundle 2"}, got)
	for _, dir := range got {
		info, err := fs.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}

func TestCreateUniqueDirectory_Concurrent(t *testing.T) {
	fs := afero.NewOsFs()
	base := filepath.Join(t.TempDir(), "bundle")

	const workers = 8
	var wg sync.WaitGroup
	results := make([]string, workers)
	errs := make([]error, workers)
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = CreateUniqueDirectory(fs, base)
		}()
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	assert.Len(t, lo.Uniq(results), workers, "every caller must get its own directory")

	want := []string{base}
	for n := 1; n < workers; n++ {
		want = append(want, fmt.Sprintf("%s %d", base, n))
	}
	assert.ElementsMatch(t, want, results)
}

func TestCreateUniqueFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/out/data.json", []byte("old"), 0o644))

	f, err := CreateUniqueFile(fs, "/out/data.json", 0o644)
	require.NoError(t, err)
	_, err = f.WriteString("new")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	assert.Equal(t, "/out/data.json 1", f.Name())
	assert.Equal(t, "old", readFile(t, fs, "/out/data.json"))
	assert.Equal(t, "new", readFile(t, fs, "/out/data.json 1"))
}

func TestCreateUniqueFile_KeepsArchiveExtension(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/out/a.tar.gz", []byte("old"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/out/a 1.tar.gz", []byte("old"), 0o644))

	f, err := CreateUniqueFile(fs, "/out/a.tar.gz", 0o644)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	assert.Equal(t, "/out/a 2.tar.gz", f.Name())
	assert.Equal(t, FormatTarGzip, DetectFormat(f.Name()))
}
