package protocol

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
)

// Decompressor turns one compressed payload into raw pixel bytes.
type Decompressor interface {
	Decompress(payload []byte) ([]byte, error)
}

// DecompressorFunc adapts a function to Decompressor.
type DecompressorFunc func(payload []byte) ([]byte, error)

func (f DecompressorFunc) Decompress(payload []byte) ([]byte, error) {
	return f(payload)
}

// GzipDecompressor decodes gzip payloads. Concatenated gzip members are
// decoded as one stream.
type GzipDecompressor struct {
	// Limit caps the decompressed size when positive.
	Limit int64
}

func (g GzipDecompressor) Decompress(payload []byte) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	var src io.Reader = zr
	if g.Limit > 0 {
		src = io.LimitReader(zr, g.Limit+1)
	}

	var out bytes.Buffer
	if _, err := io.Copy(&out, src); err != nil {
		return nil, err
	}
	if g.Limit > 0 && int64(out.Len()) > g.Limit {
		return nil, fmt.Errorf("decompressed size exceeds %d bytes", g.Limit)
	}
	return out.Bytes(), nil
}

// Compress gzips raw at the given level (gzip.DefaultCompression, or 1-9).
func Compress(raw []byte, level int) ([]byte, error) {
	var out bytes.Buffer
	zw, err := gzip.NewWriterLevel(&out, level)
	if err != nil {
		return nil, err
	}
	if _, err := zw.Write(raw); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
