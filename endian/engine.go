// Package endian provides byte order utilities for decoding and encoding
// FCS DATA segments.
//
// This package extends Go's standard encoding/binary package by combining
// ByteOrder and AppendByteOrder interfaces into a unified EndianEngine
// interface, and adds support for the $BYTEORD keyword, which expresses
// byte order as a permutation of byte indices rather than a simple
// little/big flag. FCS 2.0 and 3.0 permit arbitrary permutations for
// integer data; 3.1 restricts $BYTEORD to "1,2,3,4" and "4,3,2,1".
package endian

import (
	"encoding/binary"
	"strconv"
	"strings"

	"github.com/cytolib/fcs/errs"
)

// EndianEngine combines ByteOrder and AppendByteOrder interfaces from
// encoding/binary into a single interface for convenient byte order
// operations.
//
// This interface is satisfied by binary.LittleEndian and binary.BigEndian
// from the standard library, making it fully compatible with existing Go
// code while providing access to both read/write and append operations.
type EndianEngine interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

// GetLittleEndianEngine returns the little-endian engine.
func GetLittleEndianEngine() EndianEngine {
	return binary.LittleEndian
}

// GetBigEndianEngine returns the big-endian engine.
func GetBigEndianEngine() EndianEngine {
	return binary.BigEndian
}

// ByteOrder is a resolved $BYTEORD value: the byte positions of an N-byte
// integer listed from least to most significant, zero-based.
//
// "1,2,3,4" resolves to perm [0 1 2 3] (little-endian) and "4,3,2,1" to
// [3 2 1 0] (big-endian). Mixed permutations such as "3,4,1,2" are kept
// verbatim and applied per scalar by Uint.
type ByteOrder struct {
	perm []int
}

// ParseByteOrder parses a $BYTEORD keyword value.
//
// The value must be a comma-separated permutation of 1..n with n between
// 1 and 8. Returns ErrUnsupportedByteOrder otherwise.
func ParseByteOrder(value string) (ByteOrder, error) {
	fields := strings.Split(strings.TrimSpace(value), ",")
	if len(fields) == 0 || len(fields) > 8 {
		return ByteOrder{}, errs.ErrUnsupportedByteOrder
	}

	perm := make([]int, len(fields))
	seen := make([]bool, len(fields))
	for i, f := range fields {
		v, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil || v < 1 || v > len(fields) || seen[v-1] {
			return ByteOrder{}, errs.ErrUnsupportedByteOrder
		}
		seen[v-1] = true
		perm[i] = v - 1
	}

	return ByteOrder{perm: perm}, nil
}

// LittleEndian returns the ByteOrder for "1,2,...,n".
func LittleEndian(n int) ByteOrder {
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}

	return ByteOrder{perm: perm}
}

// BigEndian returns the ByteOrder for "n,...,2,1".
func BigEndian(n int) ByteOrder {
	perm := make([]int, n)
	for i := range perm {
		perm[i] = n - 1 - i
	}

	return ByteOrder{perm: perm}
}

// Size returns the number of bytes the permutation covers.
func (o ByteOrder) Size() int {
	return len(o.perm)
}

// IsLittleEndian reports whether the permutation is 1,2,...,n.
func (o ByteOrder) IsLittleEndian() bool {
	for i, p := range o.perm {
		if p != i {
			return false
		}
	}

	return len(o.perm) > 0
}

// IsBigEndian reports whether the permutation is n,...,2,1.
func (o ByteOrder) IsBigEndian() bool {
	n := len(o.perm)
	for i, p := range o.perm {
		if p != n-1-i {
			return false
		}
	}

	return n > 0
}

// IsMixed reports whether the permutation is neither pure little- nor
// pure big-endian.
func (o ByteOrder) IsMixed() bool {
	return !o.IsLittleEndian() && !o.IsBigEndian()
}

// Engine returns the stdlib engine for pure little- or big-endian orders.
// The second result is false for mixed permutations, which have no stdlib
// equivalent.
func (o ByteOrder) Engine() (EndianEngine, bool) {
	switch {
	case o.IsLittleEndian():
		return binary.LittleEndian, true
	case o.IsBigEndian():
		return binary.BigEndian, true
	default:
		return nil, false
	}
}

// Uint assembles an unsigned integer from slab, which must be at least
// width bytes long, applying the declared byte permutation. Widths other
// than the permutation's size are read as a plain big-endian run when the
// permutation is big-endian and as a little-endian run otherwise, so a
// 4-byte $BYTEORD still decodes 1- and 2-byte parameters.
func (o ByteOrder) Uint(slab []byte, width int) uint64 {
	var v uint64
	if width == len(o.perm) {
		for i, p := range o.perm {
			v |= uint64(slab[p]) << (8 * i)
		}

		return v
	}

	// Narrow scalar: treat as its own little/big-endian run since a wider
	// permutation carries no information about sub-width layout.
	if o.IsBigEndian() {
		for i := 0; i < width; i++ {
			v = v<<8 | uint64(slab[i])
		}

		return v
	}
	for i := width - 1; i >= 0; i-- {
		v = v<<8 | uint64(slab[i])
	}

	return v
}

// String renders the order back in $BYTEORD syntax.
func (o ByteOrder) String() string {
	var sb strings.Builder
	for i, p := range o.perm {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.Itoa(p + 1))
	}

	return sb.String()
}
