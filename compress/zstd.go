package compress

// ZstdCompressor handles Zstandard frame streams.
//
// Two implementations exist: a pure-Go one built on klauspost/compress
// (default) and a cgo one built on valyala/gozstd, selected with the
// cgozstd build tag for deployments that prefer the reference library.
type ZstdCompressor struct{}

var _ Codec = (*ZstdCompressor)(nil)

// NewZstdCompressor creates a new Zstd compressor with default settings.
func NewZstdCompressor() ZstdCompressor {
	return ZstdCompressor{}
}
