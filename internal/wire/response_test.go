package wire

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseOK(t *testing.T) {
	r, err := ParseResponseLine("OK")
	require.NoError(t, err)
	require.Equal(t, RespOk, r.Kind)

	r, err = ParseResponseLine("ok\r\n")
	require.NoError(t, err)
	require.Equal(t, RespOk, r.Kind)
}

func TestParseEnd(t *testing.T) {
	r, err := ParseResponseLine("END")
	require.NoError(t, err)
	require.Equal(t, RespEnd, r.Kind)
}

func TestParseErrorNoCode(t *testing.T) {
	r, err := ParseResponseLine("ERROR")
	require.NoError(t, err)
	require.Equal(t, RespError, r.Kind)
	require.False(t, r.HasCode)
	require.Equal(t, "", r.Description)
}

func TestParseErrorWithCode(t *testing.T) {
	r, err := ParseResponseLine("ERROR UNSUPPORTED unknown command")
	require.NoError(t, err)
	require.True(t, r.HasCode)
	require.Equal(t, ErrCodeUnsupported, r.Code)
	require.Equal(t, "unknown command", r.Description)
}

func TestParseErrorUnknownCodeBecomesDescription(t *testing.T) {
	r, err := ParseResponseLine("ERROR something went wrong")
	require.NoError(t, err)
	require.False(t, r.HasCode)
	require.Equal(t, "something went wrong", r.Description)
}

func TestParseHelloWithCapabilities(t *testing.T) {
	r, err := ParseHello("SeedLink v3.1 (2020.075) :: SLPROTO:4.0 SLPROTO:3.1", "IRIS DMC")
	require.NoError(t, err)
	require.Equal(t, "SeedLink", r.Software)
	require.Equal(t, "v3.1", r.VersionLabel)
	require.Equal(t, "(2020.075) :: SLPROTO:4.0 SLPROTO:3.1", r.Extra)
	require.Equal(t, "IRIS DMC", r.Organization)
}

func TestParseHelloWithoutCapabilities(t *testing.T) {
	r, err := ParseHello("SeedLink v3.1", "GFZ Potsdam")
	require.NoError(t, err)
	require.Equal(t, "", r.Extra)
	require.Equal(t, "GFZ Potsdam", r.Organization)
}

func TestToBytesOK(t *testing.T) {
	require.Equal(t, []byte("OK\r\n"), Response{Kind: RespOk}.ToBytes())
}

func TestToBytesErrorWithCode(t *testing.T) {
	r := Response{Kind: RespError, HasCode: true, Code: ErrCodeUnsupported, Description: "unknown command"}
	require.Equal(t, []byte("ERROR UNSUPPORTED unknown command\r\n"), r.ToBytes())
}

func TestRoundTripErrorWithCode(t *testing.T) {
	original := Response{Kind: RespError, HasCode: true, Code: ErrCodeUnauthorized, Description: "access denied"}
	parsed, err := ParseResponseLine(string(original.ToBytes()))
	require.NoError(t, err)
	require.Equal(t, original, parsed)
}
