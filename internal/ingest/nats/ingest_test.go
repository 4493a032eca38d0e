package nats

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseSubjectExtractsNetworkStation(t *testing.T) {
	network, station, err := parseSubject("seedlink.IU.ANMO")
	require.NoError(t, err)
	require.Equal(t, "IU", network)
	require.Equal(t, "ANMO", station)
}

func TestParseSubjectAcceptsDeeperHierarchy(t *testing.T) {
	network, station, err := parseSubject("seedlink.raw.IU.ANMO")
	require.NoError(t, err)
	require.Equal(t, "IU", network)
	require.Equal(t, "ANMO", station)
}

func TestParseSubjectRejectsTooShort(t *testing.T) {
	_, _, err := parseSubject("seedlink.IU")
	require.ErrorIs(t, err, ErrBadSubject)
}

func TestParseSubjectRejectsEmptyComponents(t *testing.T) {
	_, _, err := parseSubject("seedlink..ANMO")
	require.ErrorIs(t, err, ErrBadSubject)
}
