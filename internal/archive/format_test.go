package archive

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name            string
		path            string
		wantFormat      Format
		wantCompression CompressionType
		wantTrimmed     string
	}{
		{name: "plain tar", path: "/data/logs.tar", wantFormat: FormatTar, wantCompression: CompressionNone, wantTrimmed: "logs"},
		{name: "tar gzip", path: "logs.tar.gz", wantFormat: FormatTarGzip, wantCompression: CompressionGzip, wantTrimmed: "logs"},
		{name: "tgz", path: "logs.tgz", wantFormat: FormatTarGzip, wantCompression: CompressionGzip, wantTrimmed: "logs"},
		{name: "tar bzip2", path: "logs.tar.bz2", wantFormat: FormatTarBzip2, wantCompression: CompressionBzip2, wantTrimmed: "logs"},
		{name: "tbz2", path: "logs.tbz2", wantFormat: FormatTarBzip2, wantCompression: CompressionBzip2, wantTrimmed: "logs"},
		{name: "tbz", path: "logs.tbz", wantFormat: FormatTarBzip2, wantCompression: CompressionBzip2, wantTrimmed: "logs"},
		{name: "tb2", path: "logs.tb2", wantFormat: FormatTarBzip2, wantCompression: CompressionBzip2, wantTrimmed: "logs"},
		{name: "tar zstd", path: "logs.tar.zst", wantFormat: FormatTarZstd, wantCompression: CompressionZstd, wantTrimmed: "logs"},
		{name: "tzst", path: "logs.tzst", wantFormat: FormatTarZstd, wantCompression: CompressionZstd, wantTrimmed: "logs"},
		{name: "plain gzip", path: "dump.sql.gz", wantFormat: FormatGzip, wantCompression: CompressionGzip, wantTrimmed: "dump.sql"},
		{name: "plain zstd", path: "dump.sql.zst", wantFormat: FormatZstd, wantCompression: CompressionZstd, wantTrimmed: "dump.sql"},
		{name: "upper case", path: "LOGS.TGZ", wantFormat: FormatTarGzip, wantCompression: CompressionGzip, wantTrimmed: "LOGS"},
		{name: "text file", path: "notes.txt", wantFormat: FormatUnknown, wantCompression: CompressionNone, wantTrimmed: "notes.txt"},
		{name: "no extension", path: "README", wantFormat: FormatUnknown, wantCompression: CompressionNone, wantTrimmed: "README"},
		{name: "bare extension", path: ".gz", wantFormat: FormatUnknown, wantCompression: CompressionNone, wantTrimmed: ".gz"},
		{name: "zip is not handled", path: "bundle.zip", wantFormat: FormatUnknown, wantCompression: CompressionNone, wantTrimmed: "bundle.zip"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			format := DetectFormat(tt.path)
			assert.Equal(t, tt.wantFormat, format)
			assert.Equal(t, tt.wantCompression, format.Compression())
			assert.Equal(t, tt.wantTrimmed, TrimExtension(tt.path))
		})
	}
}

func TestFormat_IsTar(t *testing.T) {
	for _, f := range []Format{FormatTar, FormatTarGzip, FormatTarBzip2, FormatTarZstd} {
		assert.True(t, f.IsTar(), f.String())
		assert.True(t, f.IsArchive(), f.String())
	}
	for _, f := range []Format{FormatGzip, FormatZstd} {
		assert.False(t, f.IsTar(), f.String())
		assert.True(t, f.IsArchive(), f.String())
	}
	assert.False(t, FormatUnknown.IsArchive())
	assert.Equal(t, "unknown", FormatUnknown.String())
}
