package dataset

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cytolib/fcs/errs"
	"github.com/cytolib/fcs/format"
)

// testFile describes a hand-built data set for decoder tests. Keywords
// are written in order with '/' as delimiter; segments are laid out as
// HEADER, supplemental TEXT, TEXT, DATA, ANALYSIS, with HEADER offsets
// computed from the actual layout.
type testFile struct {
	version  string
	keywords [][2]string
	data     []byte
	analysis [][2]string
	stext    [][2]string

	// overrides for deliberately wrong headers
	headerDataBegin int64
	headerDataEnd   int64
	zeroHeaderData  bool
}

func appendPairs(dst []byte, pairs [][2]string) []byte {
	dst = append(dst, '/')
	for _, kv := range pairs {
		dst = append(dst, kv[0]...)
		dst = append(dst, '/')
		dst = append(dst, kv[1]...)
		dst = append(dst, '/')
	}

	return dst
}

func (tf testFile) build(t *testing.T) []byte {
	t.Helper()

	keywords := tf.keywords
	pos := int64(58)

	var stextBegin, stextEnd int64
	var stextRaw []byte
	if len(tf.stext) > 0 {
		stextRaw = appendPairs(nil, tf.stext)
		stextBegin = pos
		stextEnd = pos + int64(len(stextRaw)) - 1
		pos = stextEnd + 1
		keywords = append(keywords,
			[2]string{"$BEGINSTEXT", fmt.Sprintf("%d", stextBegin)},
			[2]string{"$ENDSTEXT", fmt.Sprintf("%d", stextEnd)},
		)
	}

	textRaw := appendPairs(nil, keywords)
	textBegin := pos
	textEnd := pos + int64(len(textRaw)) - 1
	pos = textEnd + 1

	var dataBegin, dataEnd int64
	if len(tf.data) > 0 {
		dataBegin = pos
		dataEnd = pos + int64(len(tf.data)) - 1
		pos = dataEnd + 1
	}

	var analysisRaw []byte
	var analysisBegin, analysisEnd int64
	if len(tf.analysis) > 0 {
		analysisRaw = appendPairs(nil, tf.analysis)
		analysisBegin = pos
		analysisEnd = pos + int64(len(analysisRaw)) - 1
	}

	hdrDataBegin, hdrDataEnd := dataBegin, dataEnd
	if tf.zeroHeaderData {
		hdrDataBegin, hdrDataEnd = 0, 0
	}
	if tf.headerDataBegin != 0 {
		hdrDataBegin = tf.headerDataBegin
	}
	if tf.headerDataEnd != 0 {
		hdrDataEnd = tf.headerDataEnd
	}

	var sb strings.Builder
	sb.WriteString("FCS" + tf.version + "    ")
	for _, o := range []int64{textBegin, textEnd, hdrDataBegin, hdrDataEnd, analysisBegin, analysisEnd} {
		fmt.Fprintf(&sb, "%8d", o)
	}

	var out []byte
	out = append(out, sb.String()...)
	out = append(out, stextRaw...)
	out = append(out, textRaw...)
	out = append(out, tf.data...)
	out = append(out, analysisRaw...)

	return out
}

func baseKeywords(datatype string, par, tot int) [][2]string {
	kw := [][2]string{
		{"$MODE", "L"},
		{"$DATATYPE", datatype},
		{"$BYTEORD", "1,2,3,4"},
		{"$PAR", fmt.Sprintf("%d", par)},
		{"$TOT", fmt.Sprintf("%d", tot)},
		{"$NEXTDATA", "0"},
	}
	for n := 1; n <= par; n++ {
		width := "32"
		if datatype == "I" {
			width = "16"
		}
		kw = append(kw,
			[2]string{fmt.Sprintf("$P%dB", n), width},
			[2]string{fmt.Sprintf("$P%dN", n), fmt.Sprintf("CH%d", n)},
			[2]string{fmt.Sprintf("$P%dR", n), "65536"},
			[2]string{fmt.Sprintf("$P%dE", n), "0,0"},
		)
	}

	return kw
}

func floatBytes(values ...float32) []byte {
	var out []byte
	for _, v := range values {
		out = binary.LittleEndian.AppendUint32(out, math.Float32bits(v))
	}

	return out
}

func decodeBytes(t *testing.T, raw []byte, opts ...DecoderOption) (*DataSet, error) {
	t.Helper()
	dec, err := NewDecoder(bytes.NewReader(raw), opts...)
	require.NoError(t, err)

	return dec.Decode()
}

func TestDecodeFloat(t *testing.T) {
	t.Run("TinyFloatFile", func(t *testing.T) {
		raw := testFile{
			version:  "3.1",
			keywords: baseKeywords("F", 2, 3),
			data:     floatBytes(1, 2, 3, 4, 5, 6),
		}.build(t)

		ds, err := decodeBytes(t, raw)
		require.NoError(t, err)
		require.Equal(t, format.Version3_1, ds.Version)
		require.Equal(t, 2, ds.ParameterCount)
		require.Equal(t, 3, ds.EventCount)
		require.Equal(t, []float64{1, 2, 3, 4, 5, 6}, ds.Floats())
		require.Equal(t, 6, ds.Len())
		require.Equal(t, float64(4), ds.At(1, 1))

		_, isInt := ds.Ints()
		require.False(t, isInt)

		require.Len(t, ds.Parameters, 2)
		require.Equal(t, "CH1", ds.Parameters[0].ShortName)
		require.Equal(t, 32, ds.Parameters[0].BitWidth)
		require.Equal(t, uint64(65536), ds.Parameters[0].Range)
		require.Equal(t, 1.0, ds.Parameters[0].Gain)
	})

	t.Run("BigEndianFloat", func(t *testing.T) {
		kw := baseKeywords("F", 1, 1)
		kw[2] = [2]string{"$BYTEORD", "4,3,2,1"}
		var data []byte
		data = binary.BigEndian.AppendUint32(data, math.Float32bits(2.5))

		ds, err := decodeBytes(t, testFile{version: "3.1", keywords: kw, data: data}.build(t))
		require.NoError(t, err)
		require.Equal(t, []float64{2.5}, ds.Floats())
	})

	t.Run("DoubleData", func(t *testing.T) {
		kw := baseKeywords("D", 1, 2)
		kw[6] = [2]string{"$P1B", "64"}
		var data []byte
		data = binary.LittleEndian.AppendUint64(data, math.Float64bits(1.25))
		data = binary.LittleEndian.AppendUint64(data, math.Float64bits(-3.5))

		ds, err := decodeBytes(t, testFile{version: "3.1", keywords: kw, data: data}.build(t))
		require.NoError(t, err)
		require.Equal(t, []float64{1.25, -3.5}, ds.Floats())
	})

	t.Run("WrongBitWidthForFloat", func(t *testing.T) {
		kw := baseKeywords("F", 1, 1)
		kw[6] = [2]string{"$P1B", "16"}
		_, err := decodeBytes(t, testFile{version: "3.1", keywords: kw, data: floatBytes(1)}.build(t))
		require.ErrorIs(t, err, errs.ErrUnsupportedBitWidth)
	})

	t.Run("ZeroEvents", func(t *testing.T) {
		ds, err := decodeBytes(t, testFile{version: "3.1", keywords: baseKeywords("F", 2, 0)}.build(t))
		require.NoError(t, err)
		require.Equal(t, 0, ds.EventCount)
		require.Empty(t, ds.Floats())
	})
}

func TestDecodeOffsets(t *testing.T) {
	t.Run("HeaderZeroTextProvides", func(t *testing.T) {
		// Build once to learn the layout, then rebuild with the real
		// offsets in TEXT and zeros in the HEADER.
		probe := testFile{version: "3.1", keywords: baseKeywords("F", 1, 2), data: floatBytes(7, 8)}
		built := probe.build(t)
		dataBegin := len(built) - 8
		dataEnd := len(built) - 1

		tf := probe
		tf.zeroHeaderData = true
		tf.keywords = append([][2]string{
			{"$BEGINDATA", fmt.Sprintf("%08d", dataBegin)},
			{"$ENDDATA", fmt.Sprintf("%08d", dataEnd)},
		}, probe.keywords...)
		// the two added pairs change the layout; compensate by probing again
		shift := len(tf.build(t)) - len(built)
		tf.keywords[0][1] = fmt.Sprintf("%08d", dataBegin+shift)
		tf.keywords[1][1] = fmt.Sprintf("%08d", dataEnd+shift)

		ds, err := decodeBytes(t, tf.build(t))
		require.NoError(t, err)
		require.Equal(t, []float64{7, 8}, ds.Floats())
		require.Empty(t, ds.Warnings)
	})

	t.Run("MismatchTextWinsWithWarning", func(t *testing.T) {
		probe := testFile{version: "3.1", keywords: baseKeywords("F", 1, 2), data: floatBytes(7, 8)}
		built := probe.build(t)
		dataBegin := len(built) - 8
		dataEnd := len(built) - 1

		tf := probe
		tf.keywords = append([][2]string{
			{"$BEGINDATA", fmt.Sprintf("%08d", dataBegin)},
			{"$ENDDATA", fmt.Sprintf("%08d", dataEnd)},
		}, probe.keywords...)
		shift := len(tf.build(t)) - len(built)
		tf.keywords[0][1] = fmt.Sprintf("%08d", dataBegin+shift)
		tf.keywords[1][1] = fmt.Sprintf("%08d", dataEnd+shift)
		// deliberately wrong, non-zero HEADER offsets
		tf.headerDataBegin = 57
		tf.headerDataEnd = 57

		ds, err := decodeBytes(t, tf.build(t))
		require.NoError(t, err)
		require.Equal(t, []float64{7, 8}, ds.Floats())
		require.NotEmpty(t, ds.Warnings)
		require.Equal(t, format.WarnOffsetMismatch, ds.Warnings[0].Code)
	})

	t.Run("HeaderOffsetsOptionIgnoresText", func(t *testing.T) {
		probe := testFile{version: "3.1", keywords: baseKeywords("F", 1, 2), data: floatBytes(7, 8)}
		tf := probe
		tf.keywords = append([][2]string{
			{"$BEGINDATA", "00000001"},
			{"$ENDDATA", "00000002"},
		}, probe.keywords...)

		ds, err := decodeBytes(t, tf.build(t), WithHeaderOffsets())
		require.NoError(t, err)
		require.Equal(t, []float64{7, 8}, ds.Floats())
	})

	t.Run("Version20UsesHeaderOnly", func(t *testing.T) {
		probe := testFile{version: "2.0", keywords: baseKeywords("F", 1, 2), data: floatBytes(7, 8)}
		tf := probe
		tf.keywords = append([][2]string{
			{"$BEGINDATA", "00000001"},
			{"$ENDDATA", "00000002"},
		}, probe.keywords...)

		ds, err := decodeBytes(t, tf.build(t))
		require.NoError(t, err)
		require.Equal(t, []float64{7, 8}, ds.Floats())
	})

	t.Run("OffByOneRejectedByDefault", func(t *testing.T) {
		tf := testFile{
			version:  "3.1",
			keywords: baseKeywords("F", 1, 2),
			data:     append(floatBytes(7, 8), 0x00),
		}
		_, err := decodeBytes(t, tf.build(t))
		require.ErrorIs(t, err, errs.ErrInconsistentOffsets)
	})

	t.Run("OffByOneRepairedWithOption", func(t *testing.T) {
		tf := testFile{
			version:  "3.1",
			keywords: baseKeywords("F", 1, 2),
			data:     append(floatBytes(7, 8), 0x00),
		}
		ds, err := decodeBytes(t, tf.build(t), WithIgnoreOffsetError())
		require.NoError(t, err)
		require.Equal(t, []float64{7, 8}, ds.Floats())
		require.NotEmpty(t, ds.Warnings)
		require.Equal(t, format.WarnOffsetRepaired, ds.Warnings[0].Code)
	})

	t.Run("TruncatedData", func(t *testing.T) {
		raw := testFile{
			version:  "3.1",
			keywords: baseKeywords("F", 1, 4),
			data:     floatBytes(1, 2, 3, 4),
		}.build(t)
		_, err := decodeBytes(t, raw[:len(raw)-4])
		require.ErrorIs(t, err, errs.ErrTruncatedData)
	})
}

func TestDecodeMetadataErrors(t *testing.T) {
	t.Run("HistogramModeRejected", func(t *testing.T) {
		kw := baseKeywords("F", 1, 1)
		kw[0] = [2]string{"$MODE", "C"}
		_, err := decodeBytes(t, testFile{version: "3.1", keywords: kw, data: floatBytes(1)}.build(t))
		require.ErrorIs(t, err, errs.ErrUnsupportedMode)
	})

	t.Run("UnknownDataType", func(t *testing.T) {
		kw := baseKeywords("F", 1, 1)
		kw[1] = [2]string{"$DATATYPE", "X"}
		_, err := decodeBytes(t, testFile{version: "3.1", keywords: kw, data: floatBytes(1)}.build(t))
		require.ErrorIs(t, err, errs.ErrUnsupportedDataType)
	})

	t.Run("MissingTot31", func(t *testing.T) {
		kw := baseKeywords("F", 1, 1)
		kw = append(kw[:4], kw[5:]...) // drop $TOT
		_, err := decodeBytes(t, testFile{version: "3.1", keywords: kw, data: floatBytes(1)}.build(t))
		require.ErrorIs(t, err, errs.ErrMissingKeyword)
	})

	t.Run("MissingParameterName", func(t *testing.T) {
		var kw [][2]string
		for _, p := range baseKeywords("F", 1, 1) {
			if p[0] == "$P1N" {
				continue
			}
			kw = append(kw, p)
		}
		_, err := decodeBytes(t, testFile{version: "3.1", keywords: kw, data: floatBytes(1)}.build(t))
		require.ErrorIs(t, err, errs.ErrMissingKeyword)
	})

	t.Run("MixedByteOrderRejectedFor31", func(t *testing.T) {
		kw := baseKeywords("I", 1, 1)
		kw[2] = [2]string{"$BYTEORD", "2,1,3,4"}
		_, err := decodeBytes(t, testFile{version: "3.1", keywords: kw, data: []byte{0, 0}}.build(t))
		require.ErrorIs(t, err, errs.ErrUnsupportedByteOrder)
	})
}

func TestDecodeTotDerivation(t *testing.T) {
	// FCS 2.0 files may omit $TOT; the event count falls out of the DATA
	// span divided by the row size.
	var kw [][2]string
	for _, p := range baseKeywords("F", 2, 0) {
		if p[0] == "$TOT" {
			continue
		}
		kw = append(kw, p)
	}
	raw := testFile{version: "2.0", keywords: kw, data: floatBytes(1, 2, 3, 4, 5, 6)}.build(t)

	ds, err := decodeBytes(t, raw)
	require.NoError(t, err)
	require.Equal(t, 3, ds.EventCount)
	require.Equal(t, []float64{1, 2, 3, 4, 5, 6}, ds.Floats())
}

func TestDecodeTextOnly(t *testing.T) {
	raw := testFile{
		version:  "3.1",
		keywords: baseKeywords("F", 2, 3),
		data:     floatBytes(1, 2, 3, 4, 5, 6),
	}.build(t)

	ds, err := decodeBytes(t, raw, WithTextOnly())
	require.NoError(t, err)
	require.Equal(t, 2, ds.ParameterCount)
	require.Equal(t, 3, ds.EventCount)
	require.Nil(t, ds.Floats())
	require.Equal(t, "2", ds.Text["$par"])
}

func TestDecodeAnalysis(t *testing.T) {
	raw := testFile{
		version:  "3.1",
		keywords: baseKeywords("F", 1, 1),
		data:     floatBytes(1),
		analysis: [][2]string{{"GATE1", "positive"}},
	}.build(t)

	ds, err := decodeBytes(t, raw)
	require.NoError(t, err)
	require.Equal(t, "positive", ds.Analysis["gate1"])
}

func TestDecodeSupplementalText(t *testing.T) {
	raw := testFile{
		version:  "3.1",
		keywords: baseKeywords("F", 1, 1),
		data:     floatBytes(1),
		stext:    [][2]string{{"EXTRAKEY", "extravalue"}, {"$MODE", "L"}},
	}.build(t)

	ds, err := decodeBytes(t, raw)
	require.NoError(t, err)
	require.Equal(t, "extravalue", ds.Text["extrakey"])
	// primary $MODE untouched, no conflict warning for equal values
	require.Equal(t, "L", ds.Text["$mode"])
}

func TestDecodeKeywordLookup(t *testing.T) {
	kw := append(baseKeywords("F", 1, 1), [2]string{"$CYT", "Instrument"})
	ds, err := decodeBytes(t, testFile{version: "3.1", keywords: kw, data: floatBytes(1)}.build(t))
	require.NoError(t, err)

	v, ok := ds.Keyword("CYT")
	require.True(t, ok)
	require.Equal(t, "Instrument", v)

	v, ok = ds.Keyword("$Cyt")
	require.True(t, ok)
	require.Equal(t, "Instrument", v)

	_, ok = ds.Keyword("NOPE")
	require.False(t, ok)
}

func TestDecodeMultipleDataSets(t *testing.T) {
	second := testFile{
		version:  "3.1",
		keywords: baseKeywords("F", 1, 1),
		data:     floatBytes(9),
	}.build(t)

	firstSpec := testFile{
		version:  "3.1",
		keywords: baseKeywords("F", 1, 2),
		data:     floatBytes(1, 2),
	}
	firstLen := len(firstSpec.build(t))
	// replace the $NEXTDATA placeholder with the real relative offset;
	// the longer value shifts the layout, so measure once more if it did
	for i, kv := range firstSpec.keywords {
		if kv[0] == "$NEXTDATA" {
			firstSpec.keywords[i][1] = fmt.Sprintf("%d", firstLen)
		}
	}
	first := firstSpec.build(t)
	shift := len(first) - firstLen
	if shift != 0 {
		for i, kv := range firstSpec.keywords {
			if kv[0] == "$NEXTDATA" {
				firstSpec.keywords[i][1] = fmt.Sprintf("%d", len(firstSpec.build(t)))
			}
		}
		first = firstSpec.build(t)
	}

	file := append(append([]byte{}, first...), second...)

	t.Run("NextWalksChain", func(t *testing.T) {
		dec, err := NewDecoder(bytes.NewReader(file))
		require.NoError(t, err)

		ds1, err := dec.Next()
		require.NoError(t, err)
		require.Equal(t, []float64{1, 2}, ds1.Floats())
		require.NotZero(t, ds1.NextDataOffset)

		ds2, err := dec.Next()
		require.NoError(t, err)
		require.Equal(t, []float64{9}, ds2.Floats())
		require.Zero(t, ds2.NextDataOffset)

		_, err = dec.Next()
		require.ErrorIs(t, err, io.EOF)
	})

	t.Run("AllYieldsBoth", func(t *testing.T) {
		dec, err := NewDecoder(bytes.NewReader(file))
		require.NoError(t, err)

		var sets []*DataSet
		for ds, err := range dec.All() {
			require.NoError(t, err)
			sets = append(sets, ds)
		}
		require.Len(t, sets, 2)
		require.NotEqual(t, sets[0].Fingerprint(), sets[1].Fingerprint())
	})

	t.Run("DecodeReadsFirstOnly", func(t *testing.T) {
		ds, err := decodeBytes(t, file)
		require.NoError(t, err)
		require.Equal(t, []float64{1, 2}, ds.Floats())
	})
}
