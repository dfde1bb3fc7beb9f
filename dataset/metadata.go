package dataset

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cytolib/fcs/endian"
	"github.com/cytolib/fcs/errs"
	"github.com/cytolib/fcs/format"
	"github.com/cytolib/fcs/section"
)

// metadata is the typed picture resolved from the TEXT keyword map: the
// decoding mode plus the segment spans the HEADER alone could not settle.
type metadata struct {
	dataType  format.DataType
	byteOrder endian.ByteOrder
	par       int
	tot       int
	totKnown  bool
	params    []Parameter

	dataBegin     int64
	dataEnd       int64
	analysisBegin int64
	analysisEnd   int64
	nextData      int64

	warnings []format.Warning
}

// normalizeKeyword lower-cases a keyword name and strips surrounding
// space, without touching a leading '$'.
func normalizeKeyword(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func keywordInt(kw map[string]string, key string) (int64, bool, error) {
	raw, ok := kw[key]
	if !ok {
		return 0, false, nil
	}
	v, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, true, fmt.Errorf("keyword %s: invalid integer %q", key, raw)
	}

	return v, true, nil
}

func requireKeyword(kw map[string]string, key string) (string, error) {
	v, ok := kw[key]
	if !ok {
		return "", fmt.Errorf("%w: %s", errs.ErrMissingKeyword, key)
	}

	return strings.TrimSpace(v), nil
}

// resolveMetadata interprets the standard keywords against the HEADER,
// applying the offset decision rules of §3.2 of the standard: FCS 2.0
// trusts the HEADER, later versions prefer the TEXT offsets, and a
// disagreement between the two resolves in favor of TEXT with a warning.
func resolveMetadata(h section.Header, kw map[string]string, cfg *DecoderConfig) (*metadata, error) {
	m := &metadata{}

	mode, err := requireKeyword(kw, "$mode")
	if err != nil {
		return nil, err
	}
	if mode == "" {
		return nil, fmt.Errorf("%w: empty $MODE", errs.ErrUnsupportedMode)
	}
	switch format.Mode(strings.ToUpper(mode)[0]) {
	case format.ModeList:
	case format.ModeCorrelated, format.ModeUncorrelated:
		return nil, fmt.Errorf("%w: $MODE=%s", errs.ErrUnsupportedMode, mode)
	default:
		return nil, fmt.Errorf("%w: $MODE=%s", errs.ErrUnsupportedMode, mode)
	}

	dt, err := requireKeyword(kw, "$datatype")
	if err != nil {
		return nil, err
	}
	if dt == "" {
		return nil, fmt.Errorf("%w: empty $DATATYPE", errs.ErrUnsupportedDataType)
	}
	m.dataType = format.DataType(strings.ToUpper(dt)[0])
	if !m.dataType.Valid() {
		return nil, fmt.Errorf("%w: $DATATYPE=%s", errs.ErrUnsupportedDataType, dt)
	}

	bo, err := requireKeyword(kw, "$byteord")
	if err != nil {
		return nil, err
	}
	m.byteOrder, err = endian.ParseByteOrder(bo)
	if err != nil {
		return nil, fmt.Errorf("$BYTEORD=%q: %w", bo, err)
	}
	if m.byteOrder.IsMixed() {
		if h.Version == format.Version3_1 || m.dataType == format.TypeFloat || m.dataType == format.TypeDouble {
			return nil, fmt.Errorf("%w: mixed permutation %q", errs.ErrUnsupportedByteOrder, bo)
		}
		m.warnings = append(m.warnings,
			format.Warnf(format.WarnMixedByteOrder, "mixed $BYTEORD permutation %q", bo))
	}

	par, ok, err := keywordInt(kw, "$par")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: $PAR", errs.ErrMissingKeyword)
	}
	if par <= 0 {
		return nil, fmt.Errorf("invalid $PAR value %d", par)
	}
	m.par = int(par)

	tot, ok, err := keywordInt(kw, "$tot")
	if err != nil {
		return nil, err
	}
	switch {
	case ok && tot < 0:
		return nil, fmt.Errorf("invalid $TOT value %d", tot)
	case ok:
		m.tot = int(tot)
		m.totKnown = true
	case h.Version != format.Version2_0:
		// $TOT is required from 3.0 on; 2.0 files may omit it, in which
		// case the event count is derived from the DATA span.
		return nil, fmt.Errorf("%w: $TOT", errs.ErrMissingKeyword)
	}

	if err := m.resolveParameters(kw); err != nil {
		return nil, err
	}
	if err := m.resolveOffsets(h, kw, cfg); err != nil {
		return nil, err
	}

	return m, nil
}

// resolveParameters builds the per-channel records from the $PnX family.
func (m *metadata) resolveParameters(kw map[string]string) error {
	m.params = make([]Parameter, m.par)
	for n := 1; n <= m.par; n++ {
		p := Parameter{Index: n, Gain: 1}

		bits, err := requireKeyword(kw, fmt.Sprintf("$p%db", n))
		if err != nil {
			return err
		}
		if bits == "*" {
			p.Variable = true
		} else {
			w, err := strconv.Atoi(bits)
			if err != nil || w <= 0 {
				return fmt.Errorf("%w: $P%dB=%q", errs.ErrUnsupportedBitWidth, n, bits)
			}
			p.BitWidth = w
		}

		rng, err := requireKeyword(kw, fmt.Sprintf("$p%dr", n))
		if err != nil {
			return err
		}
		// $PnR is an integer by the standard, but some writers emit it in
		// float syntax ("1024.0").
		rngVal, err := strconv.ParseFloat(rng, 64)
		if err != nil || rngVal < 1 {
			return fmt.Errorf("invalid $P%dR value %q", n, rng)
		}
		p.Range = uint64(rngVal)

		p.ShortName, err = requireKeyword(kw, fmt.Sprintf("$p%dn", n))
		if err != nil {
			return err
		}
		p.LongName = kw[fmt.Sprintf("$p%ds", n)]

		if raw, ok := kw[fmt.Sprintf("$p%de", n)]; ok {
			decades, logZero, fixed, err := parseAmplification(raw)
			if err != nil {
				return fmt.Errorf("$P%dE: %w", n, err)
			}
			if fixed {
				m.warnings = append(m.warnings, format.Warnf(format.WarnAmplificationFix,
					"$P%dE log offset 0 replaced with 1.0", n))
			}
			p.Decades, p.LogZero = decades, logZero
		}

		if raw, ok := kw[fmt.Sprintf("$p%dg", n)]; ok {
			g, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
			if err != nil {
				return fmt.Errorf("invalid $P%dG value %q", n, raw)
			}
			p.Gain = g
		}

		m.params[n-1] = p
	}

	return nil
}

// parseAmplification parses a "decades,offset" $PnE value. An offset of 0
// with non-zero decades is invalid per the standard, which directs
// readers to substitute 1.0; fixed reports that repair.
func parseAmplification(raw string) (decades, logZero float64, fixed bool, err error) {
	parts := strings.Split(raw, ",")
	if len(parts) != 2 {
		return 0, 0, false, fmt.Errorf("invalid amplification %q", raw)
	}
	decades, err = strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, false, fmt.Errorf("invalid amplification %q", raw)
	}
	logZero, err = strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, false, fmt.Errorf("invalid amplification %q", raw)
	}
	if logZero == 0 && decades != 0 {
		logZero = 1
		fixed = true
	}

	return decades, logZero, fixed, nil
}

// resolveOffsets settles the DATA and ANALYSIS spans from HEADER and
// TEXT, and reads $NEXTDATA. The supplemental TEXT span is handled by the
// Decoder before resolution.
func (m *metadata) resolveOffsets(h section.Header, kw map[string]string, cfg *DecoderConfig) error {
	textBegin, beginOK, err := keywordInt(kw, "$begindata")
	if err != nil {
		return err
	}
	textEnd, endOK, err := keywordInt(kw, "$enddata")
	if err != nil {
		return err
	}

	switch {
	case h.Version == format.Version2_0, cfg.useHeaderOffsets, !beginOK, !endOK:
		// 2.0 files carry offsets only in the HEADER; later versions fall
		// back to it when the TEXT keywords are absent.
		m.dataBegin, m.dataEnd = h.DataBegin, h.DataEnd
	default:
		m.dataBegin, m.dataEnd = textBegin, textEnd
		if h.DataBegin != 0 && h.DataBegin != textBegin {
			m.warnings = append(m.warnings, format.Warnf(format.WarnOffsetMismatch,
				"DATA begin offset mismatch: %d (HEADER) vs %d (TEXT), using TEXT", h.DataBegin, textBegin))
		}
		if h.DataEnd != 0 && h.DataEnd != textEnd {
			m.warnings = append(m.warnings, format.Warnf(format.WarnOffsetMismatch,
				"DATA end offset mismatch: %d (HEADER) vs %d (TEXT), using TEXT", h.DataEnd, textEnd))
		}
	}

	m.analysisBegin, m.analysisEnd = h.AnalysisBegin, h.AnalysisEnd
	if v, ok, err := keywordInt(kw, "$beginanalysis"); err != nil {
		return err
	} else if ok && v > 0 {
		m.analysisBegin = v
	}
	if v, ok, err := keywordInt(kw, "$endanalysis"); err != nil {
		return err
	} else if ok && v > 0 {
		m.analysisEnd = v
	}

	if v, ok, err := keywordInt(kw, "$nextdata"); err != nil {
		return err
	} else if ok {
		m.nextData = v
	}

	if m.dataEnd != 0 && m.dataEnd < m.dataBegin {
		return fmt.Errorf("%w: DATA end %d before begin %d", errs.ErrInconsistentOffsets, m.dataEnd, m.dataBegin)
	}

	return nil
}

// hasVariableWidth reports whether any parameter uses $PnB="*".
func (m *metadata) hasVariableWidth() bool {
	for _, p := range m.params {
		if p.Variable {
			return true
		}
	}

	return false
}
