package dataset

import (
	"fmt"
	"math"

	"github.com/cytolib/fcs/errs"
	"github.com/cytolib/fcs/format"
)

// decodeFloatData decodes a $DATATYPE=F or D segment into a flat
// []float64. Scalars are IEEE-754 binary32 or binary64 in the declared
// byte order; only pure little- or big-endian $BYTEORD values are
// standard-conformant for float data.
func decodeFloatData(raw []byte, m *metadata, cfg *DecoderConfig) ([]float64, error) {
	size := 4
	if m.dataType == format.TypeDouble {
		size = 8
	}

	for _, p := range m.params {
		if p.Variable || p.BitWidth != size*8 {
			return nil, fmt.Errorf("%w: $P%dB must be %d for $DATATYPE=%s",
				errs.ErrUnsupportedBitWidth, p.Index, size*8, m.dataType)
		}
	}

	engine, ok := m.byteOrder.Engine()
	if !ok {
		return nil, fmt.Errorf("%w: float data with mixed permutation", errs.ErrUnsupportedByteOrder)
	}

	tot, err := settleEventCount(len(raw), size*m.par, m, cfg)
	if err != nil {
		return nil, err
	}

	out := make([]float64, tot*m.par)
	if size == 4 {
		for i := range out {
			out[i] = float64(math.Float32frombits(engine.Uint32(raw[i*4:])))
		}
	} else {
		for i := range out {
			out[i] = math.Float64frombits(engine.Uint64(raw[i*8:]))
		}
	}

	return out, nil
}
