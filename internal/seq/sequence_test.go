package seq

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestV3HexRoundTrip(t *testing.T) {
	cases := []Number{0, 1, 255, V3Max}
	for _, n := range cases {
		hex := ToV3Hex(n)
		require.Len(t, hex, 6)
		got, err := FromV3Hex(hex)
		require.NoError(t, err)
		require.Equal(t, n, got)
	}
}

func TestV3HexCaseInsensitiveParse(t *testing.T) {
	n, err := FromV3Hex("00ff1a")
	require.NoError(t, err)
	require.Equal(t, Number(0x00ff1a), n)
}

func TestV3HexRejectsWrongLength(t *testing.T) {
	_, err := FromV3Hex("FFF")
	require.ErrorIs(t, err, ErrInvalidSequence)
	_, err = FromV3Hex("0000000")
	require.ErrorIs(t, err, ErrInvalidSequence)
}

func TestV3HexRejectsNonHex(t *testing.T) {
	_, err := FromV3Hex("GGGGGG")
	require.ErrorIs(t, err, ErrInvalidSequence)
}

func TestV4DecimalRoundTrip(t *testing.T) {
	cases := []Number{0, 1, V3Max, Number(^uint64(0)) - 2}
	for _, n := range cases {
		got, err := FromV4Decimal(ToV4Decimal(n))
		require.NoError(t, err)
		require.Equal(t, n, got)
	}
}

func TestV4LEBytesRoundTrip(t *testing.T) {
	cases := []Number{0, 1, V3Max, Unset, AllData}
	for _, n := range cases {
		b := ToV4LEBytes(n)
		got, err := FromV4LEBytes(b[:])
		require.NoError(t, err)
		require.Equal(t, n, got)
	}
}

func TestSentinelDisplay(t *testing.T) {
	require.Equal(t, "UNSET", Unset.String())
	require.Equal(t, "ALL_DATA", AllData.String())
	require.Equal(t, "42", Number(42).String())
}

func TestNextWrapsAtV3MaxNeverZero(t *testing.T) {
	require.Equal(t, Number(1), Next(V3Max))
	require.Equal(t, Number(V3Max), Next(V3Max-1))
}

func TestIsHexLike(t *testing.T) {
	require.True(t, IsHexLike("00001A"))
	require.False(t, IsHexLike("123456789"))
	require.False(t, IsHexLike("12345"))
	require.False(t, IsHexLike("GGGGGG"))
}
