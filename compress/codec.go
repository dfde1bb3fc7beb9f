// Package compress provides the compression codecs used to read FCS files
// that were archived with an outer compression wrapper (.fcs.gz and
// friends).
//
// FCS files themselves are uncompressed by the standard; repositories and
// instrument exports frequently gzip or zstd them. The codecs here operate
// on whole frames so a wrapped file can be inflated into memory before the
// codec parses it.
package compress

import (
	"bytes"
	"fmt"

	"github.com/cytolib/fcs/format"
)

// Compressor compresses a complete payload into a self-describing frame.
type Compressor interface {
	// Compress compresses the input data and returns the compressed result.
	//
	// Memory management:
	//   - Returned slice is newly allocated and owned by the caller
	//   - Input slice is not modified
	Compress(data []byte) ([]byte, error)
}

// Decompressor inflates a complete frame produced by the matching
// Compressor.
type Decompressor interface {
	// Decompress decompresses the input data and returns the original
	// result. Returns an error if the data is corrupted or uses an
	// incompatible format.
	Decompress(data []byte) ([]byte, error)
}

// Codec combines both compression and decompression capabilities.
type Codec interface {
	Compressor
	Decompressor
}

// Frame magic prefixes for the supported wrappers.
var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
	lz4Magic  = []byte{0x04, 0x22, 0x4d, 0x18}
	// stream identifier chunk shared by S2 and Snappy framed streams
	s2Magic = []byte{0xff, 0x06, 0x00, 0x00}
)

// Detect sniffs the leading bytes of data and reports which compression
// wrapper, if any, it carries. Unwrapped FCS data reports CompressionNone.
func Detect(data []byte) format.CompressionType {
	switch {
	case bytes.HasPrefix(data, gzipMagic):
		return format.CompressionGzip
	case bytes.HasPrefix(data, zstdMagic):
		return format.CompressionZstd
	case bytes.HasPrefix(data, lz4Magic):
		return format.CompressionLZ4
	case bytes.HasPrefix(data, s2Magic):
		return format.CompressionS2
	default:
		return format.CompressionNone
	}
}

// GetCodec retrieves a built-in Codec for the specified compression type.
func GetCodec(compressionType format.CompressionType) (Codec, error) {
	if codec, ok := builtinCodecs[compressionType]; ok {
		return codec, nil
	}

	return nil, fmt.Errorf("unsupported compression type: %s", compressionType)
}

var builtinCodecs = map[format.CompressionType]Codec{
	format.CompressionNone: NewNoOpCompressor(),
	format.CompressionGzip: NewGzipCompressor(),
	format.CompressionZstd: NewZstdCompressor(),
	format.CompressionS2:   NewS2Compressor(),
	format.CompressionLZ4:  NewLZ4Compressor(),
}
