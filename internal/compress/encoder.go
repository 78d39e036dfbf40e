// Package compress provides the run-wide compression algorithm selection and
// the bounded worker pool that turns selected files into archive entries.
package compress

import (
	"fmt"
	"io"

	"github.com/dsnet/compress/bzip2"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

type Algorithm string

const (
	LZMA  Algorithm = "lzma"
	Bzip2 Algorithm = "bzip2"
	Zstd  Algorithm = "zstd"
)

func ParseAlgorithm(s string) (Algorithm, error) {
	switch Algorithm(s) {
	case LZMA, Bzip2, Zstd:
		return Algorithm(s), nil
	}
	return "", fmt.Errorf("unsupported compression algorithm: %q", s)
}

// Extension is appended to the original file name to form its archive entry
// name, so a reader of the container knows how to decode each entry.
func (a Algorithm) Extension() string {
	switch a {
	case LZMA:
		return ".xz"
	case Bzip2:
		return ".bz2"
	case Zstd:
		return ".zst"
	}
	return ""
}

// EncodeError marks an algorithm-level failure on a single file. It is
// recorded per job and never aborts the batch.
type EncodeError struct {
	Name string
	Err  error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("encoding %s: %v", e.Name, e.Err)
}

func (e *EncodeError) Unwrap() error { return e.Err }

// lzma dictionary sizes per level; level 9 matches the 32 MiB dictionary
// used by the historical tool.
var lzmaDictCaps = []int{
	1 << 16, 1 << 17, 1 << 18, 1 << 19, 1 << 20,
	1 << 21, 1 << 22, 1 << 23, 32 << 20,
}

// NewEncoder wraps w with a streaming encoder for the given algorithm and
// level (1-9). Close must be called to flush the stream.
func NewEncoder(w io.Writer, algo Algorithm, level int) (io.WriteCloser, error) {
	if level < 1 || level > 9 {
		return nil, fmt.Errorf("compression level %d out of range [1..9]", level)
	}
	switch algo {
	case LZMA:
		enc, err := xz.WriterConfig{DictCap: lzmaDictCaps[level-1]}.NewWriter(w)
		if err != nil {
			return nil, fmt.Errorf("xz writer: %w", err)
		}
		return enc, nil
	case Bzip2:
		enc, err := bzip2.NewWriter(w, &bzip2.WriterConfig{Level: level})
		if err != nil {
			return nil, fmt.Errorf("bzip2 writer: %w", err)
		}
		return enc, nil
	case Zstd:
		enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(level)))
		if err != nil {
			return nil, fmt.Errorf("zstd writer: %w", err)
		}
		return enc, nil
	}
	return nil, fmt.Errorf("unsupported compression algorithm: %q", algo)
}

// NewDecoder is the inverse of NewEncoder; it is what a consumer of the
// archive container uses to restore an entry.
func NewDecoder(r io.Reader, algo Algorithm) (io.ReadCloser, error) {
	switch algo {
	case LZMA:
		dec, err := xz.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("xz reader: %w", err)
		}
		return io.NopCloser(dec), nil
	case Bzip2:
		dec, err := bzip2.NewReader(r, nil)
		if err != nil {
			return nil, fmt.Errorf("bzip2 reader: %w", err)
		}
		return dec, nil
	case Zstd:
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("zstd reader: %w", err)
		}
		return closerFunc{dec, func() error { dec.Close(); return nil }}, nil
	}
	return nil, fmt.Errorf("unsupported compression algorithm: %q", algo)
}

type closerFunc struct {
	io.Reader
	close func() error
}

func (c closerFunc) Close() error { return c.close() }
