package hash

import "github.com/cespare/xxhash/v2"

// Digest accumulates an xxHash64 over multiple segments. It backs the
// data set fingerprints used as dedup and cache keys.
type Digest struct {
	d xxhash.Digest
}

// NewDigest returns a Digest ready for use.
func NewDigest() *Digest {
	var dg Digest
	dg.d.Reset()

	return &dg
}

// Write adds data to the running hash. It never fails.
func (dg *Digest) Write(data []byte) {
	_, _ = dg.d.Write(data)
}

// Sum64 returns the current hash value.
func (dg *Digest) Sum64() uint64 {
	return dg.d.Sum64()
}
