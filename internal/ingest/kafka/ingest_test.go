package kafka

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseKeyExtractsNetworkStation(t *testing.T) {
	network, station, err := parseKey([]byte("IU.ANMO"))
	require.NoError(t, err)
	require.Equal(t, "IU", network)
	require.Equal(t, "ANMO", station)
}

func TestParseKeyRejectsTooShort(t *testing.T) {
	_, _, err := parseKey([]byte("ANMO"))
	require.ErrorIs(t, err, ErrBadKey)
}

func TestParseKeyRejectsEmptyComponents(t *testing.T) {
	_, _, err := parseKey([]byte("IU."))
	require.ErrorIs(t, err, ErrBadKey)
}

func TestParseKeyRejectsEmptyKey(t *testing.T) {
	_, _, err := parseKey(nil)
	require.ErrorIs(t, err, ErrBadKey)
}
