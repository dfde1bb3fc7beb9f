package format

import "fmt"

// WarningCode classifies a non-fatal condition noticed while parsing.
type WarningCode uint8

const (
	WarnDuplicateKeyword WarningCode = iota + 1 // duplicate TEXT keyword, last value kept
	WarnOffsetMismatch                          // HEADER and TEXT disagree on a segment offset
	WarnOffsetRepaired                          // off-by-one DATA end offset shrunk by one byte
	WarnAmplificationFix                        // $PnE log offset of 0 replaced with 1.0
	WarnSupplementalClash                       // supplemental TEXT key already set by primary TEXT
	WarnMixedByteOrder                          // non little/big $BYTEORD permutation accepted
)

// Warning is a recoverable condition attached to a decoded data set.
// Warnings never stop a parse; callers that care inspect them after the
// fact.
type Warning struct {
	Code    WarningCode
	Message string
}

func (w Warning) String() string {
	return w.Message
}

// Warnf builds a Warning with a formatted message.
func Warnf(code WarningCode, format string, args ...any) Warning {
	return Warning{Code: code, Message: fmt.Sprintf(format, args...)}
}
