package dataset

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/cytolib/fcs/errs"
)

// decodeASCIIData decodes a $DATATYPE=A segment into a flat []uint64.
//
// With $PnB="*" on any parameter the whole segment is variable width:
// whitespace-delimited decimal integers, of which exactly $PAR x $TOT are
// consumed. With numeric $PnB every value occupies exactly that many
// characters.
func decodeASCIIData(raw []byte, m *metadata) ([]uint64, error) {
	if m.hasVariableWidth() {
		return decodeVariableASCII(raw, m)
	}

	return decodeFixedASCII(raw, m)
}

func decodeVariableASCII(raw []byte, m *metadata) ([]uint64, error) {
	fields := bytes.Fields(raw)

	if !m.totKnown {
		m.tot = len(fields) / m.par
		m.totKnown = true
	}

	need := m.par * m.tot
	if len(fields) < need {
		return nil, fmt.Errorf("%w: %d ASCII values, need %d", errs.ErrTruncatedData, len(fields), need)
	}

	out := make([]uint64, need)
	for i, f := range fields[:need] {
		v, err := strconv.ParseUint(string(f), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid ASCII value %q at index %d", f, i)
		}
		out[i] = v
	}

	return out, nil
}

func decodeFixedASCII(raw []byte, m *metadata) ([]uint64, error) {
	rowSize := 0
	for _, p := range m.params {
		// For ASCII data $PnB counts characters, not bits.
		rowSize += p.BitWidth
	}
	if rowSize == 0 {
		return nil, fmt.Errorf("%w: zero row size", errs.ErrInconsistentOffsets)
	}

	if !m.totKnown {
		m.tot = len(raw) / rowSize
		m.totKnown = true
	}

	need := m.tot * rowSize
	if len(raw) < need {
		return nil, fmt.Errorf("%w: DATA span %d bytes, need %d", errs.ErrTruncatedData, len(raw), need)
	}

	out := make([]uint64, m.tot*m.par)
	pos := 0
	for i := 0; i < len(out); i += m.par {
		for j, p := range m.params {
			field := bytes.TrimSpace(raw[pos : pos+p.BitWidth])
			v, err := strconv.ParseUint(string(field), 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid ASCII value %q for parameter %d", field, p.Index)
			}
			out[i+j] = v
			pos += p.BitWidth
		}
	}

	return out, nil
}
