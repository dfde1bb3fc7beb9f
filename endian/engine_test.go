package endian

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cytolib/fcs/errs"
)

func TestParseByteOrder(t *testing.T) {
	t.Run("LittleEndian", func(t *testing.T) {
		o, err := ParseByteOrder("1,2,3,4")
		require.NoError(t, err)
		require.True(t, o.IsLittleEndian())
		require.False(t, o.IsBigEndian())
		require.False(t, o.IsMixed())
		require.Equal(t, 4, o.Size())

		engine, ok := o.Engine()
		require.True(t, ok)
		require.NotNil(t, engine)
	})

	t.Run("BigEndian", func(t *testing.T) {
		o, err := ParseByteOrder("4,3,2,1")
		require.NoError(t, err)
		require.True(t, o.IsBigEndian())
		require.False(t, o.IsMixed())
	})

	t.Run("TwoByte", func(t *testing.T) {
		o, err := ParseByteOrder("2,1")
		require.NoError(t, err)
		require.True(t, o.IsBigEndian())
	})

	t.Run("Mixed", func(t *testing.T) {
		o, err := ParseByteOrder("3,4,1,2")
		require.NoError(t, err)
		require.True(t, o.IsMixed())

		_, ok := o.Engine()
		require.False(t, ok)
	})

	t.Run("SpacesTolerated", func(t *testing.T) {
		o, err := ParseByteOrder(" 1, 2, 3, 4 ")
		require.NoError(t, err)
		require.True(t, o.IsLittleEndian())
	})

	t.Run("Invalid", func(t *testing.T) {
		for _, v := range []string{"", "0,1", "1,1,2,3", "1,2,3,5", "a,b", "1,2,3,4,5,6,7,8,9"} {
			_, err := ParseByteOrder(v)
			require.ErrorIs(t, err, errs.ErrUnsupportedByteOrder, "value %q", v)
		}
	})

	t.Run("RoundTripString", func(t *testing.T) {
		o, err := ParseByteOrder("3,4,1,2")
		require.NoError(t, err)
		require.Equal(t, "3,4,1,2", o.String())
	})
}

func TestByteOrderUint(t *testing.T) {
	t.Run("LittleEndianFullWidth", func(t *testing.T) {
		o := LittleEndian(4)
		require.Equal(t, uint64(0x2A), o.Uint([]byte{0x2A, 0, 0, 0}, 4))
	})

	t.Run("BigEndianFullWidth", func(t *testing.T) {
		o := BigEndian(4)
		require.Equal(t, uint64(0x2A), o.Uint([]byte{0, 0, 0, 0x2A}, 4))
	})

	t.Run("MixedPermutation", func(t *testing.T) {
		o, err := ParseByteOrder("3,4,1,2")
		require.NoError(t, err)
		// significance order: byte 2 is least significant, then 3, 0, 1
		require.Equal(t, uint64(0x44332211), o.Uint([]byte{0x33, 0x44, 0x11, 0x22}, 4))
	})

	t.Run("NarrowScalarLittle", func(t *testing.T) {
		o := LittleEndian(4)
		require.Equal(t, uint64(0x0201), o.Uint([]byte{0x01, 0x02}, 2))
	})

	t.Run("NarrowScalarBig", func(t *testing.T) {
		o := BigEndian(4)
		require.Equal(t, uint64(0x0102), o.Uint([]byte{0x01, 0x02}, 2))
	})
}
