package dataset

import (
	"github.com/cytolib/fcs/format"
	"github.com/cytolib/fcs/internal/hash"
)

// Parameter describes one channel (column) of a data set, assembled from
// the $PnX keyword family.
type Parameter struct {
	// Index is the 1-based parameter number n in the $PnX keywords.
	Index int

	// BitWidth is the $PnB value. For integer data it is the storage
	// width in bits; for fixed-width ASCII data it is the number of
	// characters per value. Zero when Variable is set.
	BitWidth int

	// Variable reports $PnB of "*": variable-width ASCII values.
	Variable bool

	// Range is the $PnR logical range. Integer values are reduced modulo
	// the next power of two at or above it.
	Range uint64

	// ShortName is $PnN, LongName the optional $PnS.
	ShortName string
	LongName  string

	// Decades and LogZero are the two $PnE amplification fields
	// ("decades,offset"). Both zero means linear scale.
	Decades float64
	LogZero float64

	// Gain is $PnG (3.0+), 1 when absent.
	Gain float64
}

// Mask returns the integer range mask for the parameter: one less than
// the smallest power of two at or above Range. In-range stored values
// pass through it unchanged.
func (p Parameter) Mask() uint64 {
	return nextPowerOfTwo(p.Range) - 1
}

// nextPowerOfTwo returns the smallest power of two >= x, treating 0 as 1.
func nextPowerOfTwo(x uint64) uint64 {
	if x <= 1 {
		return 1
	}
	v := uint64(1)
	for v < x {
		v <<= 1
	}

	return v
}

// DataSet is one decoded FCS data set: the keyword maps plus the flat
// event buffer.
//
// A DataSet is immutable once returned by a Decoder and safe to share
// across goroutines for read-only access. The event buffer is a single
// contiguous slice of length ParameterCount x EventCount in row-major
// (event-major) order: event i, channel j lives at index
// i*ParameterCount + j. Reshaping into a 2-D view is the caller's
// concern.
type DataSet struct {
	// Version is the FCS version from the HEADER magic.
	Version format.Version

	// Text maps normalized (lower-cased) keywords to verbatim values,
	// including everything from a supplemental TEXT segment.
	Text map[string]string

	// Analysis holds the ANALYSIS segment keywords, empty if absent.
	Analysis map[string]string

	// Parameters holds one record per channel, ordered by index.
	Parameters []Parameter

	// ParameterCount is $PAR, EventCount $TOT (possibly derived for 2.0
	// files that omit it).
	ParameterCount int
	EventCount     int

	// NextDataOffset is the $NEXTDATA byte offset to the next data set,
	// relative to this data set's first byte, or 0 for the last set.
	NextDataOffset int64

	// Warnings lists the non-fatal conditions noticed during parsing.
	Warnings []format.Warning

	floats      []float64
	ints        []uint64
	fingerprint uint64
}

// Len returns the number of scalars in the event buffer,
// ParameterCount x EventCount.
func (ds *DataSet) Len() int {
	if ds.floats != nil {
		return len(ds.floats)
	}

	return len(ds.ints)
}

// Floats returns the events as float64 values. For float and double data
// this is the decoded buffer itself (callers must not modify it); for
// integer and ASCII data a converted copy is allocated per call.
// Returns nil when the data set was decoded in text-only mode.
func (ds *DataSet) Floats() []float64 {
	if ds.floats != nil || ds.ints == nil {
		return ds.floats
	}

	out := make([]float64, len(ds.ints))
	for i, v := range ds.ints {
		out[i] = float64(v)
	}

	return out
}

// Ints returns the events as unsigned integers when the data set stores
// integer or ASCII data. The second result is false for float data.
// Callers must not modify the returned slice.
func (ds *DataSet) Ints() ([]uint64, bool) {
	if ds.ints == nil {
		return nil, false
	}

	return ds.ints, true
}

// At returns event i, channel j as a float64.
func (ds *DataSet) At(event, channel int) float64 {
	idx := event*ds.ParameterCount + channel
	if ds.floats != nil {
		return ds.floats[idx]
	}

	return float64(ds.ints[idx])
}

// Keyword looks up a TEXT keyword case-insensitively, accepting the name
// with or without its leading '$'.
func (ds *DataSet) Keyword(name string) (string, bool) {
	key := normalizeKeyword(name)
	if v, ok := ds.Text[key]; ok {
		return v, true
	}
	if v, ok := ds.Text["$"+key]; ok {
		return v, true
	}

	return "", false
}

// Fingerprint returns the xxHash64 of the data set's raw TEXT and DATA
// bytes, computed while decoding. Two data sets with identical segment
// bytes share a fingerprint, which makes it usable as a dedup or cache
// key.
func (ds *DataSet) Fingerprint() uint64 {
	return ds.fingerprint
}

func fingerprintSegments(segments ...[]byte) uint64 {
	dg := hash.NewDigest()
	for _, s := range segments {
		dg.Write(s)
	}

	return dg.Sum64()
}
