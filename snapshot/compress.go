package snapshot

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression selects the body compression scheme for a snapshot.
type Compression uint8

const (
	// CompressionNone stores the body uncompressed.
	CompressionNone Compression = iota
	// CompressionZstd compresses the body with zstandard. Best ratio for
	// large indexes.
	CompressionZstd
	// CompressionLZ4 compresses the body with LZ4. Fastest decode, lighter
	// ratio than zstd.
	CompressionLZ4
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionZstd:
		return "zstd"
	case CompressionLZ4:
		return "lz4"
	default:
		return fmt.Sprintf("compression(%d)", uint8(c))
	}
}

func compress(c Compression, data []byte) ([]byte, error) {
	switch c {
	case CompressionNone:
		return data, nil
	case CompressionZstd:
		var buf bytes.Buffer

		zw, err := zstd.NewWriter(&buf)
		if err != nil {
			return nil, err
		}

		if _, err := zw.Write(data); err != nil {
			zw.Close()
			return nil, err
		}

		if err := zw.Close(); err != nil {
			return nil, err
		}

		return buf.Bytes(), nil
	case CompressionLZ4:
		var buf bytes.Buffer

		lw := lz4.NewWriter(&buf)
		if _, err := lw.Write(data); err != nil {
			_ = lw.Close()
			return nil, err
		}

		if err := lw.Close(); err != nil {
			return nil, err
		}

		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("unknown compression scheme: %d", uint8(c))
	}
}

func decompress(c Compression, data []byte) ([]byte, error) {
	switch c {
	case CompressionNone:
		return data, nil
	case CompressionZstd:
		zr, err := zstd.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		defer zr.Close()

		return io.ReadAll(zr)
	case CompressionLZ4:
		return io.ReadAll(lz4.NewReader(bytes.NewReader(data)))
	default:
		return nil, fmt.Errorf("unknown compression scheme: %d", uint8(c))
	}
}
