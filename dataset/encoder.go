package dataset

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"

	"github.com/cytolib/fcs/endian"
	"github.com/cytolib/fcs/errs"
	"github.com/cytolib/fcs/format"
	"github.com/cytolib/fcs/internal/options"
	"github.com/cytolib/fcs/internal/pool"
	"github.com/cytolib/fcs/section"
)

// offsetFieldWidth is the fixed width of offset values inside TEXT.
// Writing placeholders of a known width first and back-patching after the
// DATA layout breaks the cycle between TEXT length and offset values.
const offsetFieldWidth = 20

// Encoder writes FCS 3.1 files from flat row-major event buffers.
//
// The writer lays the whole data set out in a pooled buffer: a
// placeholder HEADER, the TEXT segment with fixed-width offset values,
// DATA, an optional ANALYSIS segment, then back-patches the offsets and
// flushes to the sink in a single write. Output round-trips: decoding it
// yields the input events and the user-supplied keywords.
type Encoder struct {
	cfg EncoderConfig
}

// NewEncoder creates an Encoder. Defaults: delimiter '|', little-endian
// float32 data, no extra keywords, no ANALYSIS segment.
func NewEncoder(opts ...EncoderOption) (*Encoder, error) {
	e := &Encoder{
		cfg: EncoderConfig{
			delimiter: DefaultDelimiter,
			dataType:  format.TypeFloat,
		},
	}
	if err := options.Apply(&e.cfg, opts...); err != nil {
		return nil, err
	}

	return e, nil
}

// Encode writes events as one FCS data set. The events slice is
// row-major (event-major) and its length must be a multiple of
// len(channels); integer data types truncate each value toward zero.
func (e *Encoder) Encode(w io.Writer, events []float64, channels []Channel) error {
	return e.encode(w, events, nil, channels)
}

// EncodeInts writes unsigned integer events. The configured data type
// must be integer (WithIntegerData); float types would lose the widths.
func (e *Encoder) EncodeInts(w io.Writer, events []uint64, channels []Channel) error {
	if e.cfg.dataType != format.TypeInteger {
		return fmt.Errorf("%w: EncodeInts requires WithIntegerData", errs.ErrUnsupportedDataType)
	}

	return e.encode(w, nil, events, channels)
}

func (e *Encoder) encode(w io.Writer, fev []float64, iev []uint64, channels []Channel) error {
	n := len(fev) + len(iev)
	if len(channels) == 0 {
		return fmt.Errorf("%w: no channels", errs.ErrInvalidEventShape)
	}
	if n%len(channels) != 0 {
		return fmt.Errorf("%w: %d events across %d channels", errs.ErrInvalidEventShape, n, len(channels))
	}
	tot := n / len(channels)

	chans, err := e.fillChannelDefaults(channels)
	if err != nil {
		return err
	}

	buf := pool.FileBufferPool.Get()
	defer pool.FileBufferPool.Put(buf)

	// Placeholder HEADER, patched once the layout is known.
	for i := 0; i < section.HeaderSize; i++ {
		_ = buf.WriteByte(' ')
	}

	textBegin := int64(buf.Len())
	layout := segmentLayout{}
	buf.B = section.AppendText(buf.B, e.cfg.delimiter, e.textPairs(chans, tot, layout))
	textEnd := int64(buf.Len()) - 1

	dataBegin := int64(buf.Len())
	e.appendData(buf, fev, iev, chans)
	dataEnd := int64(buf.Len()) - 1
	if buf.Len() == int(dataBegin) {
		// $TOT=0: no DATA segment to point at
		dataBegin, dataEnd = 0, 0
	}

	var analysisBegin, analysisEnd int64
	if len(e.cfg.analysis) > 0 {
		analysisBegin = int64(buf.Len())
		buf.B = section.AppendText(buf.B, e.cfg.delimiter, sortedPairs(e.cfg.analysis))
		analysisEnd = int64(buf.Len()) - 1
	}

	// Back-patch: real offsets into both the HEADER and the TEXT
	// placeholders. The rebuilt TEXT is byte-for-byte the same length
	// because offset values have a fixed width.
	layout = segmentLayout{
		dataBegin: dataBegin, dataEnd: dataEnd,
		analysisBegin: analysisBegin, analysisEnd: analysisEnd,
	}
	patched := section.AppendText(nil, e.cfg.delimiter, e.textPairs(chans, tot, layout))
	if int64(len(patched)) != textEnd-textBegin+1 {
		return fmt.Errorf("TEXT layout changed size during back-patch: %d vs %d",
			len(patched), textEnd-textBegin+1)
	}
	buf.Overwrite(int(textBegin), patched)

	hdr := section.Header{
		Version:       format.Version3_1,
		TextBegin:     textBegin,
		TextEnd:       textEnd,
		DataBegin:     dataBegin,
		DataEnd:       dataEnd,
		AnalysisBegin: analysisBegin,
		AnalysisEnd:   analysisEnd,
	}
	buf.Overwrite(0, hdr.Bytes())

	if _, err := buf.WriteTo(w); err != nil {
		return fmt.Errorf("writing data set: %w", err)
	}

	return nil
}

// segmentLayout carries the offsets written into the TEXT placeholders.
// The zero value produces the first-pass placeholders.
type segmentLayout struct {
	dataBegin, dataEnd         int64
	analysisBegin, analysisEnd int64
}

// fillChannelDefaults applies per-datatype defaults and validates widths.
func (e *Encoder) fillChannelDefaults(channels []Channel) ([]Channel, error) {
	defaultWidth := 32
	if e.cfg.dataType == format.TypeDouble {
		defaultWidth = 64
	}

	out := make([]Channel, len(channels))
	for i, c := range channels {
		if c.BitWidth == 0 {
			c.BitWidth = defaultWidth
		}
		if c.Range == 0 {
			c.Range = DefaultRange
		}

		switch e.cfg.dataType {
		case format.TypeFloat:
			if c.BitWidth != 32 {
				return nil, fmt.Errorf("%w: $PnB must be 32 for float data, got %d", errs.ErrUnsupportedBitWidth, c.BitWidth)
			}
		case format.TypeDouble:
			if c.BitWidth != 64 {
				return nil, fmt.Errorf("%w: $PnB must be 64 for double data, got %d", errs.ErrUnsupportedBitWidth, c.BitWidth)
			}
		case format.TypeInteger:
			if c.BitWidth%8 != 0 || c.BitWidth < 8 || c.BitWidth > 64 {
				return nil, fmt.Errorf("%w: integer $PnB %d", errs.ErrUnsupportedBitWidth, c.BitWidth)
			}
		}
		out[i] = c
	}

	return out, nil
}

// textPairs assembles the ordered TEXT keyword list. Offset values use a
// fixed zero-padded width so the segment length is independent of the
// final offsets.
func (e *Encoder) textPairs(channels []Channel, tot int, layout segmentLayout) []section.KeywordPair {
	byteOrd := "1,2,3,4"
	if e.cfg.bigEndian {
		byteOrd = "4,3,2,1"
	}

	pairs := []section.KeywordPair{
		{Key: "$BEGINANALYSIS", Value: offsetValue(layout.analysisBegin)},
		{Key: "$BEGINDATA", Value: offsetValue(layout.dataBegin)},
		{Key: "$BEGINSTEXT", Value: offsetValue(0)},
		{Key: "$BYTEORD", Value: byteOrd},
		{Key: "$DATATYPE", Value: e.cfg.dataType.String()},
		{Key: "$ENDANALYSIS", Value: offsetValue(layout.analysisEnd)},
		{Key: "$ENDDATA", Value: offsetValue(layout.dataEnd)},
		{Key: "$ENDSTEXT", Value: offsetValue(0)},
		{Key: "$MODE", Value: "L"},
		{Key: "$NEXTDATA", Value: "0"},
		{Key: "$PAR", Value: strconv.Itoa(len(channels))},
		{Key: "$TOT", Value: strconv.Itoa(tot)},
	}

	reserved := make(map[string]struct{}, len(pairs))
	for _, p := range pairs {
		reserved[normalizeKeyword(p.Key)] = struct{}{}
	}

	for i, c := range channels {
		n := i + 1
		pairs = append(pairs,
			section.KeywordPair{Key: fmt.Sprintf("$P%dB", n), Value: strconv.Itoa(c.BitWidth)},
			section.KeywordPair{Key: fmt.Sprintf("$P%dE", n), Value: amplificationValue(c)},
			section.KeywordPair{Key: fmt.Sprintf("$P%dN", n), Value: c.ShortName},
			section.KeywordPair{Key: fmt.Sprintf("$P%dR", n), Value: strconv.FormatUint(c.Range, 10)},
		)
		reserved[fmt.Sprintf("$p%db", n)] = struct{}{}
		reserved[fmt.Sprintf("$p%de", n)] = struct{}{}
		reserved[fmt.Sprintf("$p%dn", n)] = struct{}{}
		reserved[fmt.Sprintf("$p%dr", n)] = struct{}{}
		if c.LongName != "" {
			pairs = append(pairs, section.KeywordPair{Key: fmt.Sprintf("$P%dS", n), Value: c.LongName})
			reserved[fmt.Sprintf("$p%ds", n)] = struct{}{}
		}
		if c.Gain != 0 {
			pairs = append(pairs, section.KeywordPair{
				Key:   fmt.Sprintf("$P%dG", n),
				Value: strconv.FormatFloat(c.Gain, 'g', -1, 64),
			})
			reserved[fmt.Sprintf("$p%dg", n)] = struct{}{}
		}
	}

	for _, p := range sortedPairs(e.cfg.extra) {
		if _, owned := reserved[normalizeKeyword(p.Key)]; owned {
			continue
		}
		pairs = append(pairs, p)
	}

	return pairs
}

func offsetValue(v int64) string {
	return fmt.Sprintf("%0*d", offsetFieldWidth, v)
}

func amplificationValue(c Channel) string {
	if c.Decades == 0 && c.LogZero == 0 {
		return "0,0"
	}

	return strconv.FormatFloat(c.Decades, 'g', -1, 64) + "," +
		strconv.FormatFloat(c.LogZero, 'g', -1, 64)
}

// sortedPairs renders a keyword map in deterministic order.
func sortedPairs(kw map[string]string) []section.KeywordPair {
	keys := make([]string, 0, len(kw))
	for k := range kw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]section.KeywordPair, len(keys))
	for i, k := range keys {
		pairs[i] = section.KeywordPair{Key: k, Value: kw[k]}
	}

	return pairs
}

// appendData lays out the DATA segment per the configured type.
func (e *Encoder) appendData(buf *pool.ByteBuffer, fev []float64, iev []uint64, channels []Channel) {
	engine := endian.GetLittleEndianEngine()
	if e.cfg.bigEndian {
		engine = endian.GetBigEndianEngine()
	}

	switch e.cfg.dataType {
	case format.TypeFloat:
		for _, v := range fev {
			buf.B = engine.AppendUint32(buf.B, math.Float32bits(float32(v)))
		}
	case format.TypeDouble:
		for _, v := range fev {
			buf.B = engine.AppendUint64(buf.B, math.Float64bits(v))
		}
	case format.TypeInteger:
		values := iev
		if values == nil {
			values = make([]uint64, len(fev))
			for i, v := range fev {
				values[i] = uint64(v)
			}
		}
		e.appendIntRows(buf, values, channels)
	}
}

// appendIntRows writes integer events channel by channel, masking each
// value to its channel width.
func (e *Encoder) appendIntRows(buf *pool.ByteBuffer, values []uint64, channels []Channel) {
	par := len(channels)
	widths := make([]int, par)
	masks := make([]uint64, par)
	for i, c := range channels {
		widths[i] = c.BitWidth / 8
		if c.BitWidth == 64 {
			masks[i] = math.MaxUint64
		} else {
			masks[i] = (uint64(1) << uint(c.BitWidth)) - 1
		}
	}

	var scratch [8]byte
	big := e.cfg.bigEndian
	for i, v := range values {
		j := i % par
		w := widths[j]
		v &= masks[j]
		for b := 0; b < w; b++ {
			if big {
				scratch[b] = byte(v >> (8 * uint(w-1-b)))
			} else {
				scratch[b] = byte(v >> (8 * uint(b)))
			}
		}
		buf.B = append(buf.B, scratch[:w]...)
	}
}
