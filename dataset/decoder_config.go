package dataset

import (
	"github.com/cytolib/fcs/internal/options"
)

// DecoderConfig holds the tunables for reading a data set. All defaults
// follow the FCS 3.1 standard reading of a well-formed file; the options
// exist for the long tail of slightly wrong files real instruments write.
type DecoderConfig struct {
	useHeaderOffsets  bool
	ignoreOffsetError bool
	bitPacking        bool
	textOnly          bool
}

// DecoderOption configures a Decoder.
type DecoderOption = options.Option[*DecoderConfig]

// WithHeaderOffsets forces the DATA segment location to be taken from the
// HEADER rather than the $BEGINDATA/$ENDDATA TEXT keywords. It also
// suppresses the offset-mismatch warning, since TEXT is never consulted.
func WithHeaderOffsets() DecoderOption {
	return options.NoError(func(c *DecoderConfig) {
		c.useHeaderOffsets = true
	})
}

// WithIgnoreOffsetError tolerates DATA spans that are one byte longer
// than $PAR x $TOT x element width. Some writers record the end offset
// exclusive rather than inclusive; with this option the span is shrunk by
// one byte and a warning is attached instead of failing with
// ErrInconsistentOffsets.
func WithIgnoreOffsetError() DecoderOption {
	return options.NoError(func(c *DecoderConfig) {
		c.ignoreOffsetError = true
	})
}

// WithBitPacking opts in to decoding integer data whose $PnB widths are
// not byte aligned, treating the DATA segment as a bit stream packed
// big-endian within bytes. Without it such files fail with
// ErrUnsupportedBitWidth, because writers disagree on the packing and
// guessing silently corrupts events. Only pure little- or big-endian
// $BYTEORD values are accepted in this mode.
func WithBitPacking() DecoderOption {
	return options.NoError(func(c *DecoderConfig) {
		c.bitPacking = true
	})
}

// WithTextOnly skips the DATA segment entirely: the returned DataSet has
// full metadata but no events. Useful for indexing large files.
func WithTextOnly() DecoderOption {
	return options.NoError(func(c *DecoderConfig) {
		c.textOnly = true
	})
}
