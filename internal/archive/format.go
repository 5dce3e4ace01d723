package archive

import (
	"path/filepath"
	"strings"
)

// Format identifies how an archive file is encoded.
type Format int

const (
	FormatUnknown Format = iota
	FormatTar
	FormatTarGzip
	FormatTarBzip2
	FormatTarZstd
	FormatGzip
	FormatZstd
)

// CompressionType defines the compression wrapped around an archive stream.
type CompressionType string

const (
	CompressionNone  CompressionType = "none"
	CompressionGzip  CompressionType = "gzip"
	CompressionBzip2 CompressionType = "bzip2"
	CompressionZstd  CompressionType = "zstd"
)

// suffixes is ordered longest first so ".tar.gz" wins over ".gz".
var suffixes = []struct {
	suffix string
	format Format
}{
	{".tar.bz2", FormatTarBzip2},
	{".tar.zst", FormatTarZstd},
	{".tar.gz", FormatTarGzip},
	{".tbz2", FormatTarBzip2},
	{".tzst", FormatTarZstd},
	{".tar", FormatTar},
	{".tgz", FormatTarGzip},
	{".tbz", FormatTarBzip2},
	{".tb2", FormatTarBzip2},
	{".zst", FormatZstd},
	{".gz", FormatGzip},
}

// DetectFormat returns the format implied by the file name's extension.
// Matching is case-insensitive. Names without a recognized extension yield FormatUnknown.
func DetectFormat(name string) Format {
	format, _ := matchSuffix(name)
	return format
}

// TrimExtension strips the archive extension from the base of name.
// "logs.tar.gz" becomes "logs" and "notes.txt" is returned unchanged.
func TrimExtension(name string) string {
	base := filepath.Base(name)
	if _, suffix := matchSuffix(base); suffix != "" {
		return base[:len(base)-len(suffix)]
	}
	return base
}

func matchSuffix(name string) (Format, string) {
	lower := strings.ToLower(filepath.Base(name))
	for _, s := range suffixes {
		// A bare ".gz" file has no name left to extract into.
		if strings.HasSuffix(lower, s.suffix) && len(lower) > len(s.suffix) {
			return s.format, s.suffix
		}
	}
	return FormatUnknown, ""
}

// IsTar reports whether the format is a tar stream, compressed or not.
func (f Format) IsTar() bool {
	switch f {
	case FormatTar, FormatTarGzip, FormatTarBzip2, FormatTarZstd:
		return true
	default:
		return false
	}
}

// IsArchive reports whether the format is anything the extractor can open.
func (f Format) IsArchive() bool {
	return f != FormatUnknown
}

// Compression returns the compression wrapped around the format's payload.
func (f Format) Compression() CompressionType {
	switch f {
	case FormatTarGzip, FormatGzip:
		return CompressionGzip
	case FormatTarBzip2:
		return CompressionBzip2
	case FormatTarZstd, FormatZstd:
		return CompressionZstd
	default:
		return CompressionNone
	}
}

func (f Format) String() string {
	switch f {
	case FormatTar:
		return "tar"
	case FormatTarGzip:
		return "tar.gz"
	case FormatTarBzip2:
		return "tar.bz2"
	case FormatTarZstd:
		return "tar.zst"
	case FormatGzip:
		return "gz"
	case FormatZstd:
		return "zst"
	default:
		return "unknown"
	}
}
