package section

const (
	// HeaderSize is the fixed size of the FCS HEADER segment in bytes.
	HeaderSize = 58

	// MagicSize covers the "FCSx.y" magic plus version characters.
	MagicSize = 6

	// OffsetFieldSize is the width of each right-justified ASCII decimal
	// offset field in the HEADER.
	OffsetFieldSize = 8

	// MaxHeaderOffset is the largest offset representable in an 8-byte
	// ASCII HEADER field. Segments beyond it record 0 in the HEADER and
	// their true offsets in TEXT.
	MaxHeaderOffset = 99_999_999

	// byte offsets of the HEADER fields
	textBeginOffset     = 10
	textEndOffset       = 18
	dataBeginOffset     = 26
	dataEndOffset       = 34
	analysisBeginOffset = 42
	analysisEndOffset   = 50
)
