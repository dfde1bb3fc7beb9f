package dataset

import (
	"fmt"

	"github.com/cytolib/fcs/errs"
	"github.com/cytolib/fcs/format"
	"github.com/cytolib/fcs/internal/options"
)

// DefaultDelimiter separates TEXT tokens in written files unless
// overridden.
const DefaultDelimiter byte = '|'

// DefaultRange is the $PnR written for channels that do not declare one.
const DefaultRange uint64 = 262144

// Channel describes one column of events handed to the Encoder.
type Channel struct {
	// ShortName becomes $PnN; LongName, if set, $PnS.
	ShortName string
	LongName  string

	// BitWidth is the stored width in bits. Zero selects the default for
	// the configured data type: 32 for float and integer, 64 for double.
	BitWidth int

	// Range becomes $PnR; zero selects DefaultRange. For integer data it
	// should cover every stored value or readers will mask them.
	Range uint64

	// Decades and LogZero become $PnE. The zero values declare linear
	// scale, which is what raw event exports want.
	Decades float64
	LogZero float64

	// Gain, if non-zero, is written as $PnG.
	Gain float64
}

// EncoderConfig holds the writer tunables.
type EncoderConfig struct {
	delimiter byte
	bigEndian bool
	dataType  format.DataType
	extra     map[string]string
	analysis  map[string]string
}

// EncoderOption configures an Encoder.
type EncoderOption = options.Option[*EncoderConfig]

// WithDelimiter sets the TEXT delimiter byte. The standard allows the
// printable ASCII range; NUL and bytes past 126 are rejected.
func WithDelimiter(d byte) EncoderOption {
	return options.New(func(c *EncoderConfig) error {
		if d == 0 || d > 126 {
			return fmt.Errorf("%w: 0x%02x", errs.ErrInvalidDelimiter, d)
		}
		c.delimiter = d

		return nil
	})
}

// WithBigEndianData stores DATA scalars big-endian ($BYTEORD=4,3,2,1).
func WithBigEndianData() EncoderOption {
	return options.NoError(func(c *EncoderConfig) {
		c.bigEndian = true
	})
}

// WithIntegerData stores events as fixed-width unsigned integers
// ($DATATYPE=I) honoring each channel's BitWidth.
func WithIntegerData() EncoderOption {
	return options.NoError(func(c *EncoderConfig) {
		c.dataType = format.TypeInteger
	})
}

// WithDoubleData stores events as IEEE-754 binary64 ($DATATYPE=D).
func WithDoubleData() EncoderOption {
	return options.NoError(func(c *EncoderConfig) {
		c.dataType = format.TypeDouble
	})
}

// WithExtraKeywords adds user keywords to the TEXT segment. Keys that
// collide with the standard keywords the writer owns are skipped, since
// those values are derived from the actual layout.
func WithExtraKeywords(kw map[string]string) EncoderOption {
	return options.NoError(func(c *EncoderConfig) {
		c.extra = kw
	})
}

// WithAnalysis emits an ANALYSIS segment holding the given keywords.
func WithAnalysis(kw map[string]string) EncoderOption {
	return options.NoError(func(c *EncoderConfig) {
		c.analysis = kw
	})
}
