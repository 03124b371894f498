package timing

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func ptr(s string) *string { return &s }

func TestElapsed_Valid(t *testing.T) {
	tests := []struct {
		name     string
		started  string
		finished string
		want     time.Duration
	}{
		{"microseconds", "2024-03-01T10:00:00.000000Z", "2024-03-01T10:00:10.500000Z", 10500 * time.Millisecond},
		{"milliseconds", "2016-08-11T11:28:34.085Z", "2016-08-11T11:32:35.169Z", 4*time.Minute + 1084*time.Millisecond},
		{"no_fraction", "2024-03-01T10:00:00Z", "2024-03-01T11:00:00Z", time.Hour},
		{"offset", "2024-03-01T12:00:00.000+02:00", "2024-03-01T10:00:30.000Z", 30 * time.Second},
		{"zero", "2024-03-01T10:00:00.000Z", "2024-03-01T10:00:00.000Z", 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Elapsed(ptr(tc.started), ptr(tc.finished))
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestElapsed_Unavailable(t *testing.T) {
	tests := []struct {
		name     string
		started  *string
		finished *string
		wantErr  error
	}{
		{"no_start", nil, ptr("2024-03-01T10:00:00.000Z"), ErrMissingTimestamp},
		{"no_finish", ptr("2024-03-01T10:00:00.000Z"), nil, ErrMissingTimestamp},
		{"both_missing", nil, nil, ErrMissingTimestamp},
		{"empty", ptr(""), ptr("2024-03-01T10:00:00.000Z"), ErrMissingTimestamp},
		{"malformed_start", ptr("2024-03-01 10:00:00"), ptr("2024-03-01T10:00:00.000Z"), ErrMalformedTimestamp},
		{"malformed_finish", ptr("2024-03-01T10:00:00.000Z"), ptr("yesterday"), ErrMalformedTimestamp},
		{"negative", ptr("2024-03-01T10:00:10.000Z"), ptr("2024-03-01T10:00:00.000Z"), ErrNegativeDuration},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Elapsed(tc.started, tc.finished)
			require.Error(t, err)
			require.True(t, errors.Is(err, tc.wantErr), "got %v", err)
			require.Zero(t, got)
		})
	}
}

func TestReason(t *testing.T) {
	_, err := Elapsed(nil, nil)
	require.Equal(t, "missing_timestamp", Reason(err))

	_, err = Elapsed(ptr("x"), ptr("y"))
	require.Equal(t, "malformed_timestamp", Reason(err))

	_, err = Elapsed(ptr("2024-03-01T10:00:10Z"), ptr("2024-03-01T10:00:00Z"))
	require.Equal(t, "negative_duration", Reason(err))

	require.Equal(t, "unknown", Reason(errors.New("other")))
}
