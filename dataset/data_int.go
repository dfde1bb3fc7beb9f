package dataset

import (
	"fmt"

	"github.com/cytolib/fcs/errs"
	"github.com/cytolib/fcs/format"
)

// decodeIntData decodes a $DATATYPE=I segment into a flat []uint64.
//
// The common case is byte-aligned widths: each parameter occupies
// $PnB/8 bytes and is assembled with the $BYTEORD permutation, then
// reduced with the parameter's range mask. Widths that are not a multiple
// of 8 are decoded as a big-endian-packed bit stream, but only when the
// caller opted in with WithBitPacking — writers disagree on the packing,
// so guessing is worse than refusing.
func decodeIntData(raw []byte, m *metadata, cfg *DecoderConfig) ([]uint64, error) {
	aligned := true
	rowBits := 0
	for _, p := range m.params {
		if p.Variable {
			return nil, fmt.Errorf("%w: $P%dB=* is only valid for ASCII data", errs.ErrUnsupportedBitWidth, p.Index)
		}
		if p.BitWidth > 64 {
			return nil, fmt.Errorf("%w: $P%dB=%d", errs.ErrUnsupportedBitWidth, p.Index, p.BitWidth)
		}
		if p.BitWidth%8 != 0 {
			aligned = false
		}
		rowBits += p.BitWidth
	}

	if aligned {
		return decodeAlignedInts(raw, m, cfg)
	}

	if !cfg.bitPacking {
		return nil, fmt.Errorf("%w: bit-unaligned widths need the bit-packing option", errs.ErrUnsupportedBitWidth)
	}
	if m.byteOrder.IsMixed() {
		return nil, fmt.Errorf("%w: bit-packed data with mixed $BYTEORD", errs.ErrUnsupportedBitWidth)
	}

	return decodePackedInts(raw, m, rowBits)
}

// decodeAlignedInts handles the byte-aligned layout.
func decodeAlignedInts(raw []byte, m *metadata, cfg *DecoderConfig) ([]uint64, error) {
	widths := make([]int, len(m.params))
	masks := make([]uint64, len(m.params))
	rowSize := 0
	for i, p := range m.params {
		w := p.BitWidth / 8
		if m.byteOrder.IsMixed() && w != m.byteOrder.Size() {
			return nil, fmt.Errorf("%w: $P%dB=%d with %d-byte $BYTEORD permutation",
				errs.ErrUnsupportedByteOrder, p.Index, p.BitWidth, m.byteOrder.Size())
		}
		widths[i] = w
		masks[i] = p.Mask()
		rowSize += w
	}

	tot, err := settleEventCount(len(raw), rowSize, m, cfg)
	if err != nil {
		return nil, err
	}

	out := make([]uint64, tot*m.par)
	pos := 0
	for i := 0; i < len(out); i += m.par {
		for j := range m.params {
			w := widths[j]
			out[i+j] = m.byteOrder.Uint(raw[pos:pos+w], w) & masks[j]
			pos += w
		}
	}

	return out, nil
}

// decodePackedInts handles bit-unaligned widths as a tight bit stream,
// bits packed big-endian within bytes per the FCS 3.x clarifications.
func decodePackedInts(raw []byte, m *metadata, rowBits int) ([]uint64, error) {
	if !m.totKnown {
		if rowBits == 0 {
			return nil, fmt.Errorf("%w: zero row width", errs.ErrInconsistentOffsets)
		}
		m.tot = len(raw) * 8 / rowBits
		m.totKnown = true
	}

	needBits := rowBits * m.tot
	if len(raw)*8 < needBits {
		return nil, fmt.Errorf("%w: DATA holds %d bits, need %d", errs.ErrTruncatedData, len(raw)*8, needBits)
	}

	out := make([]uint64, m.tot*m.par)
	bitPos := 0
	for i := 0; i < len(out); i += m.par {
		for j, p := range m.params {
			out[i+j] = readBits(raw, bitPos, p.BitWidth) & p.Mask()
			bitPos += p.BitWidth
		}
	}

	return out, nil
}

// readBits extracts width bits starting at bit position pos, MSB-first.
func readBits(raw []byte, pos, width int) uint64 {
	var v uint64
	for i := 0; i < width; i++ {
		b := raw[(pos+i)/8]
		bit := (b >> (7 - uint((pos+i)%8))) & 1
		v = v<<1 | uint64(bit)
	}

	return v
}

// settleEventCount reconciles the declared DATA span with the expected
// row size, deriving $TOT for 2.0 files that omit it and repairing the
// widespread off-by-one end offset when the caller allows it.
func settleEventCount(rawLen, rowSize int, m *metadata, cfg *DecoderConfig) (int, error) {
	if rowSize == 0 {
		return 0, fmt.Errorf("%w: zero row size", errs.ErrInconsistentOffsets)
	}

	if !m.totKnown {
		m.tot = rawLen / rowSize
		m.totKnown = true
	}

	expect := m.tot * rowSize
	switch {
	case rawLen == expect:
	case rawLen == expect+1 && cfg.ignoreOffsetError:
		m.warnings = append(m.warnings, format.Warnf(format.WarnOffsetRepaired,
			"DATA span is one byte too long (%d vs %d), trimming", rawLen, expect))
	case rawLen < expect:
		return 0, fmt.Errorf("%w: DATA span %d bytes, need %d", errs.ErrTruncatedData, rawLen, expect)
	default:
		return 0, fmt.Errorf("%w: DATA span %d bytes, expected %d for %d events x %d bytes",
			errs.ErrInconsistentOffsets, rawLen, expect, m.tot, rowSize)
	}

	return m.tot, nil
}
