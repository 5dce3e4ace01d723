package archive

import (
	"archive/tar"
	"bytes"
	"encoding/hex"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/samber/lo"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// bzip2TarHex is a bzip2-compressed tar holding a.txt with "hello bz2".
const bzip2TarHex = "425a68393141592653594d72c33d00006efb80ca80002040017580000872449e50080820005434a683d0468da2686ca09249ea0d346803407dd44821049d0846349dc4e51b5021818a6d9389d846b020e3e51779ea679b8224bc6f7e1d2b36164d322203f1772453850904d72c33d0"

func newTestExtractor(t *testing.T) (*Extractor, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/work", 0o755))
	return New(zap.NewNop(), fs), fs
}

// buildTar writes a tar stream with one regular file per entry, in name order.
func buildTar(t *testing.T, files map[string]string) []byte {
	t.Helper()
	buf := new(bytes.Buffer)
	tw := tar.NewWriter(buf)

	names := lo.Keys(files)
	slices.Sort(names)
	for _, name := range names {
		content := files[name]
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name:     name,
			Mode:     0o644,
			Size:     int64(len(content)),
			Typeflag: tar.TypeReg,
		}))
		_, err := tw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	return buf.Bytes()
}

func gzipBytes(t *testing.T, data []byte) []byte {
	t.Helper()
	buf := new(bytes.Buffer)
	gw := gzip.NewWriter(buf)
	_, err := gw.Write(data)
	require.NoError(t, err)
	require.NoError(t, gw.Close())
	return buf.Bytes()
}

func zstdBytes(t *testing.T, data []byte) []byte {
	t.Helper()
	buf := new(bytes.Buffer)
	zw, err := zstd.NewWriter(buf)
	require.NoError(t, err)
	_, err = zw.Write(data)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func bzip2Tar(t *testing.T) []byte {
	t.Helper()
	return lo.Must(hex.DecodeString(bzip2TarHex))
}

func writeFile(t *testing.T, fs afero.Fs, path string, data []byte) {
	t.Helper()
	require.NoError(t, fs.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, afero.WriteFile(fs, path, data, 0o644))
}

func readFile(t *testing.T, fs afero.Fs, path string) string {
	t.Helper()
	data, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	return string(data)
}

func dirNames(t *testing.T, fs afero.Fs, dir string) []string {
	t.Helper()
	entries, err := afero.ReadDir(fs, dir)
	require.NoError(t, err)
	return lo.Map(entries, func(e os.FileInfo, _ int) string {
		return e.Name()
	})
}
