package selectpattern

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func makeMseedPayload(location [2]byte, channel [3]byte, quality byte) []byte {
	payload := make([]byte, 512)
	payload[6] = quality
	payload[13], payload[14] = location[0], location[1]
	payload[15], payload[16], payload[17] = channel[0], channel[1], channel[2]
	return payload
}

func TestChannelOnly(t *testing.T) {
	pat, ok := Parse("BHZ")
	require.True(t, ok)
	require.False(t, pat.hasLocation)
	require.False(t, pat.hasType)

	require.True(t, pat.MatchesPayload(makeMseedPayload([2]byte{'0', '0'}, [3]byte{'B', 'H', 'Z'}, 'D')))
	require.False(t, pat.MatchesPayload(makeMseedPayload([2]byte{'0', '0'}, [3]byte{'B', 'H', 'N'}, 'D')))
}

func TestLocationChannel(t *testing.T) {
	pat, ok := Parse("00BHZ")
	require.True(t, ok)
	require.True(t, pat.hasLocation)

	require.True(t, pat.MatchesPayload(makeMseedPayload([2]byte{'0', '0'}, [3]byte{'B', 'H', 'Z'}, 'D')))
	require.False(t, pat.MatchesPayload(makeMseedPayload([2]byte{'1', '0'}, [3]byte{'B', 'H', 'Z'}, 'D')))
}

func TestTypeSuffix(t *testing.T) {
	pat, ok := Parse("BHZ.D")
	require.True(t, ok)
	require.True(t, pat.hasType)

	require.True(t, pat.MatchesPayload(makeMseedPayload([2]byte{'0', '0'}, [3]byte{'B', 'H', 'Z'}, 'D')))
	require.False(t, pat.MatchesPayload(makeMseedPayload([2]byte{'0', '0'}, [3]byte{'B', 'H', 'Z'}, 'R')))
}

func TestWildcardChannel(t *testing.T) {
	pat, ok := Parse("BH?")
	require.True(t, ok)

	require.True(t, pat.MatchesPayload(makeMseedPayload([2]byte{'0', '0'}, [3]byte{'B', 'H', 'Z'}, 'D')))
	require.True(t, pat.MatchesPayload(makeMseedPayload([2]byte{'0', '0'}, [3]byte{'B', 'H', 'N'}, 'D')))
	require.False(t, pat.MatchesPayload(makeMseedPayload([2]byte{'0', '0'}, [3]byte{'L', 'H', 'Z'}, 'D')))
}

func TestWildcardLocation(t *testing.T) {
	pat, ok := Parse("??BHZ")
	require.True(t, ok)
	require.True(t, pat.hasLocation)

	require.True(t, pat.MatchesPayload(makeMseedPayload([2]byte{'0', '0'}, [3]byte{'B', 'H', 'Z'}, 'D')))
	require.True(t, pat.MatchesPayload(makeMseedPayload([2]byte{'1', '0'}, [3]byte{'B', 'H', 'Z'}, 'D')))
}

func TestShortPayloadReturnsFalse(t *testing.T) {
	pat, ok := Parse("BHZ")
	require.True(t, ok)
	require.False(t, pat.MatchesPayload(make([]byte, 10)))
}

func TestEmptyPatternReturnsFalse(t *testing.T) {
	_, ok := Parse("")
	require.False(t, ok)
}

func TestFullPatternWithLocationAndType(t *testing.T) {
	pat, ok := Parse("00BHZ.D")
	require.True(t, ok)
	require.True(t, pat.hasLocation)
	require.True(t, pat.hasType)

	require.True(t, pat.MatchesPayload(makeMseedPayload([2]byte{'0', '0'}, [3]byte{'B', 'H', 'Z'}, 'D')))
	require.False(t, pat.MatchesPayload(makeMseedPayload([2]byte{'1', '0'}, [3]byte{'B', 'H', 'Z'}, 'D')))
	require.False(t, pat.MatchesPayload(makeMseedPayload([2]byte{'0', '0'}, [3]byte{'B', 'H', 'Z'}, 'R')))
}

func TestSingleCharPadded(t *testing.T) {
	pat, ok := Parse("Z")
	require.True(t, ok)
	require.True(t, pat.MatchesPayload(makeMseedPayload([2]byte{'0', '0'}, [3]byte{'B', 'H', 'Z'}, 'D')))
	require.False(t, pat.MatchesPayload(makeMseedPayload([2]byte{'0', '0'}, [3]byte{'B', 'H', 'N'}, 'D')))
}
