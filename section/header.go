package section

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/cytolib/fcs/errs"
	"github.com/cytolib/fcs/format"
)

// Header represents the fixed 58-byte segment at the start of every FCS
// data set: the version magic followed by six right-justified ASCII
// decimal byte offsets naming the TEXT, DATA and ANALYSIS segments.
//
// All offsets are relative to the first byte of the data set, which for
// multi-data-set files is not byte 0 of the file. End offsets are
// inclusive. A zero DATA or ANALYSIS offset means the segment location
// must be resolved from TEXT keywords instead (or that the segment is
// absent).
type Header struct {
	Version       format.Version
	TextBegin     int64
	TextEnd       int64
	DataBegin     int64
	DataEnd       int64
	AnalysisBegin int64
	AnalysisEnd   int64
}

// ParseHeader parses the header from a byte slice.
//
// Returns:
//   - Header: Parsed header struct
//   - error: ErrMalformedHeader if the magic, version or an offset field
//     cannot be decoded
func ParseHeader(data []byte) (Header, error) {
	var h Header

	if len(data) < HeaderSize {
		return h, fmt.Errorf("%w: %d bytes, need %d", errs.ErrMalformedHeader, len(data), HeaderSize)
	}
	if string(data[0:3]) != "FCS" {
		return h, fmt.Errorf("%w: bad magic %q", errs.ErrMalformedHeader, data[0:6])
	}

	h.Version = format.ParseVersion(string(data[3:6]))
	if h.Version == format.VersionUnknown {
		return h, fmt.Errorf("%w: unsupported version %q", errs.ErrMalformedHeader, data[3:6])
	}

	var err error
	if h.TextBegin, err = parseOffsetField(data, textBeginOffset, false); err != nil {
		return h, err
	}
	if h.TextEnd, err = parseOffsetField(data, textEndOffset, false); err != nil {
		return h, err
	}
	if h.DataBegin, err = parseOffsetField(data, dataBeginOffset, false); err != nil {
		return h, err
	}
	if h.DataEnd, err = parseOffsetField(data, dataEndOffset, false); err != nil {
		return h, err
	}
	// Some writers leave the ANALYSIS fields blank instead of zero.
	if h.AnalysisBegin, err = parseOffsetField(data, analysisBeginOffset, true); err != nil {
		return h, err
	}
	if h.AnalysisEnd, err = parseOffsetField(data, analysisEndOffset, true); err != nil {
		return h, err
	}

	return h, nil
}

// parseOffsetField decodes one 8-byte right-justified ASCII decimal field.
// When blankOK is set, an all-space field decodes as 0.
func parseOffsetField(data []byte, pos int, blankOK bool) (int64, error) {
	field := bytes.TrimSpace(data[pos : pos+OffsetFieldSize])
	if len(field) == 0 {
		if blankOK {
			return 0, nil
		}

		return 0, fmt.Errorf("%w: blank offset field at byte %d", errs.ErrMalformedHeader, pos)
	}

	v, err := strconv.ParseInt(string(field), 10, 64)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%w: offset field %q at byte %d", errs.ErrMalformedHeader, field, pos)
	}

	return v, nil
}

// Bytes serializes the Header into its fixed 58-byte layout. Offsets
// larger than MaxHeaderOffset are written as 0, per the standard; the
// true values must then be carried by TEXT keywords.
func (h Header) Bytes() []byte {
	b := make([]byte, HeaderSize)
	for i := range b {
		b[i] = ' '
	}
	copy(b[0:6], h.Version.String())

	putOffsetField(b, textBeginOffset, h.TextBegin)
	putOffsetField(b, textEndOffset, h.TextEnd)
	putOffsetField(b, dataBeginOffset, h.DataBegin)
	putOffsetField(b, dataEndOffset, h.DataEnd)
	putOffsetField(b, analysisBeginOffset, h.AnalysisBegin)
	putOffsetField(b, analysisEndOffset, h.AnalysisEnd)

	return b
}

func putOffsetField(b []byte, pos int, v int64) {
	if v > MaxHeaderOffset || v < 0 {
		v = 0
	}
	s := strconv.FormatInt(v, 10)
	copy(b[pos+OffsetFieldSize-len(s):], s)
}

// HasAnalysis reports whether the header names a non-empty ANALYSIS span.
func (h Header) HasAnalysis() bool {
	return h.AnalysisBegin > 0 && h.AnalysisEnd > h.AnalysisBegin
}
