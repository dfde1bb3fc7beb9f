package section

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/cytolib/fcs/errs"
	"github.com/cytolib/fcs/format"
)

// TextSegment is the decoded form of a TEXT (or ANALYSIS, which shares
// the grammar) segment: the delimiter byte and the keyword map.
//
// Keys are case-folded to lower case with the leading '$' of standard
// keywords preserved; values are stored verbatim. Duplicate keys keep the
// last value seen and record a warning.
type TextSegment struct {
	Delimiter byte
	Keywords  map[string]string
	Warnings  []format.Warning
}

// ParseText tokenizes a raw TEXT segment byte range (first byte is the
// delimiter, inclusive of the trailing delimiter if present).
//
// A doubled delimiter inside a token is an escaped literal delimiter; the
// escape applies to keys and values alike. Tokens must pair up into
// (key, value); an odd token count fails with ErrMalformedText.
func ParseText(data []byte) (*TextSegment, error) {
	if len(data) < 2 {
		return nil, fmt.Errorf("%w: segment too short (%d bytes)", errs.ErrMalformedText, len(data))
	}

	delim := data[0]
	if delim == 0 {
		return nil, fmt.Errorf("%w: NUL delimiter", errs.ErrMalformedText)
	}

	tokens := tokenize(data[1:], delim)
	if len(tokens)%2 != 0 {
		return nil, fmt.Errorf("%w: odd token count %d", errs.ErrMalformedText, len(tokens))
	}

	seg := &TextSegment{
		Delimiter: delim,
		Keywords:  make(map[string]string, len(tokens)/2),
	}
	for i := 0; i < len(tokens); i += 2 {
		key := strings.ToLower(decodeText(tokens[i]))
		value := decodeText(tokens[i+1])
		if _, dup := seg.Keywords[key]; dup {
			seg.Warnings = append(seg.Warnings,
				format.Warnf(format.WarnDuplicateKeyword, "duplicate keyword %q, keeping last value", key))
		}
		seg.Keywords[key] = value
	}

	return seg, nil
}

// tokenize splits body on single delimiter bytes, resolving doubled
// delimiters to literal delimiter bytes within a token. A trailing
// delimiter after the final token is tolerated, as is a final token
// terminated by the end of the segment.
func tokenize(body []byte, delim byte) [][]byte {
	var tokens [][]byte
	var cur []byte

	i := 0
	for i < len(body) {
		c := body[i]
		if c != delim {
			cur = append(cur, c)
			i++
			continue
		}
		if i+1 < len(body) && body[i+1] == delim {
			// escaped literal delimiter
			cur = append(cur, delim)
			i += 2
			continue
		}
		tokens = append(tokens, cur)
		cur = nil
		i++
	}
	if len(cur) > 0 {
		tokens = append(tokens, cur)
	}

	return tokens
}

// decodeText interprets token bytes as UTF-8, falling back to Latin-1 for
// the instrument exports that predate UTF-8 TEXT segments.
func decodeText(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}

	runes := make([]rune, len(b))
	for i, c := range b {
		runes[i] = rune(c)
	}

	return string(runes)
}

// AppendText serializes keyword pairs in TEXT grammar: a leading
// delimiter, then key<d>value<d> for every pair, with delimiter bytes in
// keys and values escaped by doubling.
func AppendText(dst []byte, delim byte, pairs []KeywordPair) []byte {
	dst = append(dst, delim)
	for _, p := range pairs {
		dst = appendEscaped(dst, delim, p.Key)
		dst = append(dst, delim)
		dst = appendEscaped(dst, delim, p.Value)
		dst = append(dst, delim)
	}

	return dst
}

// KeywordPair is one ordered TEXT keyword/value pair for serialization.
type KeywordPair struct {
	Key   string
	Value string
}

func appendEscaped(dst []byte, delim byte, s string) []byte {
	for i := 0; i < len(s); i++ {
		if s[i] == delim {
			dst = append(dst, delim, delim)
			continue
		}
		dst = append(dst, s[i])
	}

	return dst
}
