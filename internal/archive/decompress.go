package archive

import (
	"bufio"
	"compress/bzip2"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// newDecompressor wraps r with the reader for the given compression.
// The returned closer releases decoder resources and never closes r.
func newDecompressor(r io.Reader, compression CompressionType) (io.ReadCloser, error) {
	br := bufio.NewReader(r)

	switch compression {
	case CompressionNone:
		return io.NopCloser(br), nil
	case CompressionGzip:
		gr, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		return gr, nil
	case CompressionBzip2:
		return io.NopCloser(bzip2.NewReader(br)), nil
	case CompressionZstd:
		zr, err := zstd.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd reader: %w", err)
		}
		return &zstdReadCloser{zr}, nil
	default:
		return nil, fmt.Errorf("unsupported compression type: %s", compression)
	}
}

// zstdReadCloser adapts zstd.Decoder, whose Close returns nothing.
type zstdReadCloser struct {
	*zstd.Decoder
}

func (z *zstdReadCloser) Close() error {
	z.Decoder.Close()
	return nil
}
