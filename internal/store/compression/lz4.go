package compression

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/pierrec/lz4"
)

// maxDecompressedSize bounds the length prefix read back from storage.
const maxDecompressedSize = 64 << 20

// NoCompressor implements a pass-through compressor that doesn't compress data.
type NoCompressor struct{}

func (c *NoCompressor) Name() string { return "none" }

func (c *NoCompressor) Tag() byte { return 0 }

// Compress returns a copy of data.
func (c *NoCompressor) Compress(data []byte) ([]byte, error) {
	result := make([]byte, len(data))
	copy(result, data)
	return result, nil
}

// Decompress returns a copy of data.
func (c *NoCompressor) Decompress(data []byte) ([]byte, error) {
	result := make([]byte, len(data))
	copy(result, data)
	return result, nil
}

// LZ4Compressor compresses with LZ4 blocks. The block is preceded by the
// uncompressed length as a uvarint.
type LZ4Compressor struct{}

func (c *LZ4Compressor) Name() string { return "lz4" }

func (c *LZ4Compressor) Tag() byte { return 1 }

// Compress compresses data using LZ4.
func (c *LZ4Compressor) Compress(data []byte) ([]byte, error) {
	out := make([]byte, binary.MaxVarintLen64+lz4.CompressBlockBound(len(data)))
	n := binary.PutUvarint(out, uint64(len(data)))
	if len(data) == 0 {
		return out[:n], nil
	}

	size, err := lz4.CompressBlock(data, out[n:], nil)
	if err != nil {
		return nil, fmt.Errorf("lz4 compression failed: %w", err)
	}
	if size == 0 {
		// incompressible: lz4 v2 reports 0 and leaves dst untouched
		return nil, errIncompressible
	}
	return out[:n+size], nil
}

var errIncompressible = errors.New("lz4: data is incompressible")

// Decompress decompresses LZ4 data.
func (c *LZ4Compressor) Decompress(data []byte) ([]byte, error) {
	length, n := binary.Uvarint(data)
	if n <= 0 {
		return nil, fmt.Errorf("lz4 decompression failed: bad length prefix")
	}
	if length > maxDecompressedSize {
		return nil, fmt.Errorf("lz4 decompression failed: length %d too large", length)
	}
	if length == 0 {
		return []byte{}, nil
	}

	out := make([]byte, length)
	size, err := lz4.UncompressBlock(data[n:], out)
	if err != nil {
		return nil, fmt.Errorf("lz4 decompression failed: %w", err)
	}
	if uint64(size) != length {
		return nil, fmt.Errorf("lz4 decompression failed: got %d bytes, want %d", size, length)
	}
	return out, nil
}

// Encode compresses data with c and prepends c's tag. Data c cannot shrink is
// stored uncompressed.
func Encode(c Compressor, data []byte) ([]byte, error) {
	payload, err := c.Compress(data)
	tag := c.Tag()
	if errors.Is(err, errIncompressible) {
		payload, tag = data, (&NoCompressor{}).Tag()
	} else if err != nil {
		return nil, err
	}

	out := make([]byte, 1+len(payload))
	out[0] = tag
	copy(out[1:], payload)
	return out, nil
}

// Decode reverses Encode, whatever compressor wrote the data.
func Decode(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty stored value")
	}
	c, err := ByTag(data[0])
	if err != nil {
		return nil, err
	}
	return c.Decompress(data[1:])
}
