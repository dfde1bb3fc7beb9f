// Package errs defines the sentinel errors returned by the fcs module.
//
// Errors returned from parsing and writing wrap one of these values when
// the failure is of one of the kinds below, so callers can classify them
// with errors.Is regardless of the context added at the failure site.
// Some failures, such as a keyword value that is not a valid number or an
// I/O error from the sink, are returned without a sentinel.
package errs

import "errors"

var (
	// ErrMalformedHeader indicates bad magic bytes, an unrecognized FCS
	// version, or a non-numeric offset field in the 58-byte HEADER.
	ErrMalformedHeader = errors.New("malformed HEADER segment")

	// ErrMalformedText indicates an undecodable TEXT segment: an odd
	// token count, a NUL delimiter, a segment too short to hold a
	// delimiter and a token, or an end offset before the begin offset.
	ErrMalformedText = errors.New("malformed TEXT segment")

	// ErrMissingKeyword indicates a keyword required by the FCS standard
	// is absent from the TEXT segment.
	ErrMissingKeyword = errors.New("missing required keyword")

	// ErrUnsupportedDataType indicates $DATATYPE outside {I, F, D, A}.
	ErrUnsupportedDataType = errors.New("unsupported $DATATYPE")

	// ErrUnsupportedMode indicates $MODE other than list mode. The
	// histogram modes C and U are deprecated by FCS 3.1 and not decoded.
	ErrUnsupportedMode = errors.New("unsupported $MODE, only list mode is supported")

	// ErrUnsupportedBitWidth indicates a $PnB the integer decoder cannot
	// handle: wider than 64 bits, or not byte aligned without the
	// bit-packing option, or bit packed with a mixed $BYTEORD.
	ErrUnsupportedBitWidth = errors.New("unsupported $PnB bit width")

	// ErrUnsupportedByteOrder indicates a $BYTEORD value that is not a
	// permutation of 1..n, or a mixed permutation for float data.
	ErrUnsupportedByteOrder = errors.New("unsupported $BYTEORD")

	// ErrInconsistentOffsets indicates the declared DATA span does not
	// match $PAR x $TOT x element width.
	ErrInconsistentOffsets = errors.New("inconsistent segment offsets")

	// ErrTruncatedData indicates the source ended before a declared
	// segment end offset.
	ErrTruncatedData = errors.New("truncated data")

	// ErrInvalidEventShape indicates writer input whose length is not a
	// multiple of the channel count.
	ErrInvalidEventShape = errors.New("event count not divisible by channel count")

	// ErrNegativeNextData indicates a $NEXTDATA offset that would move
	// the cursor backwards.
	ErrNegativeNextData = errors.New("negative $NEXTDATA offset")

	// ErrNextDataLoop indicates a $NEXTDATA chain that revisits an
	// already-read data set offset.
	ErrNextDataLoop = errors.New("$NEXTDATA offset loop")

	// ErrInvalidDelimiter indicates a writer delimiter of NUL or a byte
	// above 126.
	ErrInvalidDelimiter = errors.New("invalid TEXT delimiter")
)
