// Package dataset implements the FCS data set codec: reading HEADER,
// TEXT, ANALYSIS and DATA segments into an immutable DataSet, and the
// symmetric writer producing standards-conforming files.
package dataset

import (
	"errors"
	"fmt"
	"io"
	"iter"

	"github.com/cytolib/fcs/errs"
	"github.com/cytolib/fcs/format"
	"github.com/cytolib/fcs/internal/options"
	"github.com/cytolib/fcs/section"
)

// Decoder reads one or more data sets from a positioned byte source.
//
// The zero offset data set is read first; files chaining further data
// sets through $NEXTDATA are walked sequentially with Next or All. The
// Decoder reads every byte it needs before returning a DataSet and
// retains no views into the source.
type Decoder struct {
	r       io.ReadSeeker
	cfg     DecoderConfig
	base    int64
	visited map[int64]struct{}
	done    bool
}

// NewDecoder creates a Decoder for the FCS formats 2.0, 3.0 and 3.1.
func NewDecoder(r io.ReadSeeker, opts ...DecoderOption) (*Decoder, error) {
	d := &Decoder{
		r:       r,
		visited: make(map[int64]struct{}),
	}
	if err := options.Apply(&d.cfg, opts...); err != nil {
		return nil, err
	}

	return d, nil
}

// Decode parses the first data set of the source. It does not advance
// the multi-data-set cursor; use Next or All to walk a chained file.
func (d *Decoder) Decode() (*DataSet, error) {
	return d.decodeAt(0)
}

// Next returns the next data set in the $NEXTDATA chain, starting with
// the one at offset 0. It returns io.EOF after the last data set.
//
// $NEXTDATA offsets are relative to the first byte of the current data
// set, so the cursor accumulates them. Offsets that move backwards or
// revisit a data set fail with ErrNegativeNextData or ErrNextDataLoop;
// without that guard a crafted chain could loop forever.
func (d *Decoder) Next() (*DataSet, error) {
	if d.done {
		return nil, io.EOF
	}
	if _, seen := d.visited[d.base]; seen {
		d.done = true
		return nil, fmt.Errorf("%w: offset %d revisited", errs.ErrNextDataLoop, d.base)
	}
	d.visited[d.base] = struct{}{}

	ds, err := d.decodeAt(d.base)
	if err != nil {
		d.done = true
		return nil, err
	}

	switch {
	case ds.NextDataOffset == 0:
		d.done = true
	case ds.NextDataOffset < 0:
		d.done = true
		return nil, fmt.Errorf("%w: %d", errs.ErrNegativeNextData, ds.NextDataOffset)
	default:
		d.base += ds.NextDataOffset
	}

	return ds, nil
}

// All returns an iterator over every data set in the file, in chain
// order. Iteration stops at the first error; the sequence is finite and
// not restartable.
func (d *Decoder) All() iter.Seq2[*DataSet, error] {
	return func(yield func(*DataSet, error) bool) {
		for {
			ds, err := d.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if !yield(ds, err) || err != nil {
				return
			}
		}
	}
}

// decodeAt parses the complete data set whose HEADER starts at base.
func (d *Decoder) decodeAt(base int64) (*DataSet, error) {
	headerRaw, err := readRange(d.r, base, base+section.HeaderSize-1)
	if err != nil {
		return nil, fmt.Errorf("reading HEADER: %w", err)
	}
	hdr, err := section.ParseHeader(headerRaw)
	if err != nil {
		return nil, err
	}

	if hdr.TextEnd < hdr.TextBegin {
		return nil, fmt.Errorf("%w: TEXT span %d..%d", errs.ErrMalformedText, hdr.TextBegin, hdr.TextEnd)
	}
	textRaw, err := readRange(d.r, base+hdr.TextBegin, base+hdr.TextEnd)
	if err != nil {
		return nil, fmt.Errorf("reading TEXT: %w", err)
	}
	text, err := section.ParseText(textRaw)
	if err != nil {
		return nil, err
	}
	warnings := text.Warnings

	// Absorb a supplemental TEXT segment before resolving, so late
	// keywords participate in resolution. Primary TEXT wins conflicts.
	stextWarns, err := d.mergeSupplementalText(base, text.Keywords)
	if err != nil {
		return nil, err
	}
	warnings = append(warnings, stextWarns...)

	meta, err := resolveMetadata(hdr, text.Keywords, &d.cfg)
	if err != nil {
		return nil, err
	}

	analysis, err := d.parseAnalysis(base, meta)
	if err != nil {
		return nil, err
	}

	ds := &DataSet{
		Version:        hdr.Version,
		Text:           text.Keywords,
		Analysis:       analysis,
		NextDataOffset: meta.nextData,
	}

	var dataRaw []byte
	if !d.cfg.textOnly {
		dataRaw, err = d.readDataSegment(base, meta)
		if err != nil {
			return nil, err
		}

		switch meta.dataType {
		case format.TypeInteger:
			ds.ints, err = decodeIntData(dataRaw, meta, &d.cfg)
		case format.TypeFloat, format.TypeDouble:
			ds.floats, err = decodeFloatData(dataRaw, meta, &d.cfg)
		case format.TypeASCII:
			ds.ints, err = decodeASCIIData(dataRaw, meta)
		}
		if err != nil {
			return nil, err
		}
	} else if !meta.totKnown {
		meta.tot = 0
	}

	ds.Parameters = meta.params
	ds.ParameterCount = meta.par
	ds.EventCount = meta.tot
	ds.Warnings = append(warnings, meta.warnings...)
	ds.fingerprint = fingerprintSegments(textRaw, dataRaw)

	return ds, nil
}

// readDataSegment slices the declared DATA span out of the source. An
// end offset below the begin offset means an empty segment, which is how
// $TOT=0 files usually look.
func (d *Decoder) readDataSegment(base int64, m *metadata) ([]byte, error) {
	if m.dataBegin <= 0 || m.dataEnd < m.dataBegin {
		return nil, nil
	}

	raw, err := readRange(d.r, base+m.dataBegin, base+m.dataEnd)
	if err != nil {
		return nil, fmt.Errorf("reading DATA: %w", err)
	}

	return raw, nil
}

// mergeSupplementalText reads the $BEGINSTEXT..$ENDSTEXT span, if any,
// and folds its keywords into kw without overwriting primary keys.
func (d *Decoder) mergeSupplementalText(base int64, kw map[string]string) ([]format.Warning, error) {
	begin, beginOK, err := keywordInt(kw, "$beginstext")
	if err != nil {
		return nil, err
	}
	end, _, err := keywordInt(kw, "$endstext")
	if err != nil {
		return nil, err
	}
	if !beginOK || begin <= 0 || end < begin {
		return nil, nil
	}

	raw, err := readRange(d.r, base+begin, base+end)
	if err != nil {
		return nil, fmt.Errorf("reading supplemental TEXT: %w", err)
	}
	stext, err := section.ParseText(raw)
	if err != nil {
		return nil, fmt.Errorf("supplemental TEXT: %w", err)
	}

	warnings := stext.Warnings
	for k, v := range stext.Keywords {
		if _, exists := kw[k]; exists {
			if kw[k] != v {
				warnings = append(warnings, format.Warnf(format.WarnSupplementalClash,
					"supplemental TEXT keyword %q conflicts with primary TEXT, keeping primary", k))
			}
			continue
		}
		kw[k] = v
	}

	return warnings, nil
}

// parseAnalysis reads the ANALYSIS segment with the TEXT grammar. Equal
// or inverted offsets mean the segment is absent.
func (d *Decoder) parseAnalysis(base int64, m *metadata) (map[string]string, error) {
	if m.analysisBegin <= 0 || m.analysisEnd <= m.analysisBegin {
		return map[string]string{}, nil
	}

	raw, err := readRange(d.r, base+m.analysisBegin, base+m.analysisEnd)
	if err != nil {
		return nil, fmt.Errorf("reading ANALYSIS: %w", err)
	}
	seg, err := section.ParseText(raw)
	if err != nil {
		return nil, fmt.Errorf("ANALYSIS: %w", err)
	}
	m.warnings = append(m.warnings, seg.Warnings...)

	return seg.Keywords, nil
}

// readRange reads the inclusive byte range [start, end] from r.
func readRange(r io.ReadSeeker, start, end int64) ([]byte, error) {
	if end < start {
		return nil, nil
	}
	if _, err := r.Seek(start, io.SeekStart); err != nil {
		return nil, fmt.Errorf("%w: seek to %d: %v", errs.ErrTruncatedData, start, err)
	}

	buf := make([]byte, end-start+1)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("%w: %d bytes at offset %d: %v", errs.ErrTruncatedData, len(buf), start, err)
	}

	return buf, nil
}
