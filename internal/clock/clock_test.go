package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFormatParseRoundTrip(t *testing.T) {
	in := time.Date(2026, 3, 5, 12, 30, 0, 123000000, time.UTC)
	s := Format(in)
	require.Equal(t, "2026-03-05T12:30:00.123000Z", s)

	out, err := Parse(s)
	require.NoError(t, err)
	require.True(t, in.Equal(out))
}

func TestParseInvalid(t *testing.T) {
	_, err := Parse("not-a-timestamp")
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid timestamp format")
}

func TestNowStringIsParseable(t *testing.T) {
	_, err := Parse(NowString())
	require.NoError(t, err)
}
