// Package fcs reads and writes Flow Cytometry Standard (FCS) files in
// versions 2.0, 3.0 and 3.1.
//
// An FCS file is a single-file binary container holding one or more data
// sets, each pairing a free-form keyword/value TEXT segment with a dense
// numeric DATA segment of measurement events (rows) across parameters
// (columns). The codec exposes raw events and raw metadata; gating,
// compensation and other interpretation belong to downstream libraries.
//
// # Basic Usage
//
// Reading a file:
//
//	ds, err := fcs.ReadFile("sample.fcs")
//	if err != nil {
//	    return err
//	}
//	events := ds.Floats() // flat, row-major: event i channel j at i*ds.ParameterCount+j
//
// Writing one:
//
//	channels := []fcs.Channel{{ShortName: "FSC-A"}, {ShortName: "SSC-A"}}
//	err := fcs.Write(w, []float64{1, 2, 3, 4, 5, 6}, channels)
//
// Files chaining multiple data sets through $NEXTDATA are walked with a
// Decoder:
//
//	dec, _ := fcs.NewDecoder(r)
//	for ds, err := range dec.All() {
//	    ...
//	}
//
// # Compressed inputs
//
// ReadFile and Open transparently inflate gzip, zstd, s2 and lz4 wrapped
// files (.fcs.gz and friends) before parsing; FCS data itself is always
// stored uncompressed, per the standard.
//
// # Package Structure
//
// This package provides convenient top-level wrappers around the dataset
// package, which holds the codec itself. The section, endian and
// compress packages carry the segment, byte order and decompression
// building blocks.
package fcs

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/cytolib/fcs/compress"
	"github.com/cytolib/fcs/dataset"
	"github.com/cytolib/fcs/format"
)

// Re-exported core types, so common use needs only this package.
type (
	DataSet       = dataset.DataSet
	Parameter     = dataset.Parameter
	Channel       = dataset.Channel
	Decoder       = dataset.Decoder
	Encoder       = dataset.Encoder
	DecoderOption = dataset.DecoderOption
	EncoderOption = dataset.EncoderOption
)

// Re-exported option constructors for the common cases.
var (
	WithHeaderOffsets     = dataset.WithHeaderOffsets
	WithIgnoreOffsetError = dataset.WithIgnoreOffsetError
	WithBitPacking        = dataset.WithBitPacking
	WithTextOnly          = dataset.WithTextOnly
	WithDelimiter         = dataset.WithDelimiter
	WithBigEndianData     = dataset.WithBigEndianData
	WithIntegerData       = dataset.WithIntegerData
	WithDoubleData        = dataset.WithDoubleData
	WithExtraKeywords     = dataset.WithExtraKeywords
	WithAnalysis          = dataset.WithAnalysis
)

// NewDecoder creates a Decoder over a positioned byte source.
func NewDecoder(r io.ReadSeeker, opts ...DecoderOption) (*Decoder, error) {
	return dataset.NewDecoder(r, opts...)
}

// NewEncoder creates an Encoder.
func NewEncoder(opts ...EncoderOption) (*Encoder, error) {
	return dataset.NewEncoder(opts...)
}

// Read parses the first data set of the source.
func Read(r io.ReadSeeker, opts ...DecoderOption) (*DataSet, error) {
	dec, err := dataset.NewDecoder(r, opts...)
	if err != nil {
		return nil, err
	}

	return dec.Decode()
}

// ReadAll parses every data set in the source, following the $NEXTDATA
// chain until it terminates.
func ReadAll(r io.ReadSeeker, opts ...DecoderOption) ([]*DataSet, error) {
	dec, err := dataset.NewDecoder(r, opts...)
	if err != nil {
		return nil, err
	}

	var sets []*DataSet
	for ds, err := range dec.All() {
		if err != nil {
			return sets, err
		}
		sets = append(sets, ds)
	}

	return sets, nil
}

// Open loads the named file into memory, inflating a compression wrapper
// if one is detected, and returns a byte source positioned at the start.
func Open(path string) (io.ReadSeeker, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return OpenBytes(raw)
}

// OpenBytes wraps raw file content as a byte source, inflating a
// compression wrapper if one is detected.
func OpenBytes(raw []byte) (io.ReadSeeker, error) {
	kind := compress.Detect(raw)
	if kind != format.CompressionNone {
		codec, err := compress.GetCodec(kind)
		if err != nil {
			return nil, err
		}
		if raw, err = codec.Decompress(raw); err != nil {
			return nil, fmt.Errorf("inflating %s wrapper: %w", kind, err)
		}
	}

	return bytes.NewReader(raw), nil
}

// ReadFile parses the first data set of the named file, transparently
// inflating compressed inputs.
func ReadFile(path string, opts ...DecoderOption) (*DataSet, error) {
	r, err := Open(path)
	if err != nil {
		return nil, err
	}

	return Read(r, opts...)
}

// ReadFileAll parses every data set of the named file.
func ReadFileAll(path string, opts ...DecoderOption) ([]*DataSet, error) {
	r, err := Open(path)
	if err != nil {
		return nil, err
	}

	return ReadAll(r, opts...)
}

// Write emits events as a single FCS 3.1 data set with default options:
// delimiter '|', little-endian float32 data.
func Write(w io.Writer, events []float64, channels []Channel, opts ...EncoderOption) error {
	enc, err := dataset.NewEncoder(opts...)
	if err != nil {
		return err
	}

	return enc.Encode(w, events, channels)
}
