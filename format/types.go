package format

type (
	// DataType is the $DATATYPE keyword value: the storage type of the
	// DATA segment.
	DataType byte

	// Mode is the $MODE keyword value. Only list mode is decodable;
	// the histogram modes are deprecated by FCS 3.1.
	Mode byte

	// Version identifies the FCS standard version from the HEADER magic.
	Version uint8

	// CompressionType identifies the outer compression wrapper of an FCS
	// input stream, if any. FCS files themselves are uncompressed; this
	// covers compressed archives of them (e.g. .fcs.gz).
	CompressionType uint8
)

const (
	TypeInteger DataType = 'I' // TypeInteger represents fixed-width unsigned integer data.
	TypeFloat   DataType = 'F' // TypeFloat represents IEEE-754 binary32 data.
	TypeDouble  DataType = 'D' // TypeDouble represents IEEE-754 binary64 data.
	TypeASCII   DataType = 'A' // TypeASCII represents ASCII-encoded integer data.

	ModeList         Mode = 'L' // ModeList represents list mode data.
	ModeCorrelated   Mode = 'C' // ModeCorrelated is deprecated multivariate histogram mode.
	ModeUncorrelated Mode = 'U' // ModeUncorrelated is deprecated univariate histogram mode.

	VersionUnknown Version = 0
	Version2_0     Version = 20 // FCS2.0
	Version3_0     Version = 30 // FCS3.0
	Version3_1     Version = 31 // FCS3.1

	CompressionNone CompressionType = 0x1 // CompressionNone represents an uncompressed input.
	CompressionGzip CompressionType = 0x2 // CompressionGzip represents a gzip wrapped input.
	CompressionZstd CompressionType = 0x3 // CompressionZstd represents a Zstandard wrapped input.
	CompressionS2   CompressionType = 0x4 // CompressionS2 represents an S2 wrapped input.
	CompressionLZ4  CompressionType = 0x5 // CompressionLZ4 represents an LZ4 frame wrapped input.
)

func (d DataType) String() string {
	switch d {
	case TypeInteger, TypeFloat, TypeDouble, TypeASCII:
		return string(rune(d))
	default:
		return "Unknown"
	}
}

// Valid reports whether the data type is one the codec can decode.
func (d DataType) Valid() bool {
	switch d {
	case TypeInteger, TypeFloat, TypeDouble, TypeASCII:
		return true
	default:
		return false
	}
}

func (m Mode) String() string {
	switch m {
	case ModeList, ModeCorrelated, ModeUncorrelated:
		return string(rune(m))
	default:
		return "Unknown"
	}
}

func (v Version) String() string {
	switch v {
	case Version2_0:
		return "FCS2.0"
	case Version3_0:
		return "FCS3.0"
	case Version3_1:
		return "FCS3.1"
	default:
		return "Unknown"
	}
}

// ParseVersion maps the three version characters following the FCS magic
// (e.g. "3.1") to a Version value.
func ParseVersion(s string) Version {
	switch s {
	case "2.0":
		return Version2_0
	case "3.0":
		return Version3_0
	case "3.1":
		return Version3_1
	default:
		return VersionUnknown
	}
}

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "None"
	case CompressionGzip:
		return "Gzip"
	case CompressionZstd:
		return "Zstd"
	case CompressionS2:
		return "S2"
	case CompressionLZ4:
		return "LZ4"
	default:
		return "Unknown"
	}
}
