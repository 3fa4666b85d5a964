package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstantUnmarshal(t *testing.T) {
	want := time.Date(2026, 9, 12, 10, 30, 0, 0, time.UTC)

	tests := []struct {
		name string
		raw  string
	}{
		{name: "rfc3339 string", raw: `"2026-09-12T10:30:00Z"`},
		{name: "epoch milliseconds", raw: `1789209000000`},
		{name: "seconds wrapper", raw: `{"_seconds":1789209000,"_nanoseconds":0}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var i Instant
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &i))
			assert.True(t, i.Time.Equal(want), "got %s, want %s", i.Time, want)
		})
	}
}

func TestInstantRepresentationsCompareEqual(t *testing.T) {
	var asString, asMillis, asWrapper Instant
	require.NoError(t, json.Unmarshal([]byte(`"2026-09-12T10:30:00Z"`), &asString))
	require.NoError(t, json.Unmarshal([]byte(`1789209000000`), &asMillis))
	require.NoError(t, json.Unmarshal([]byte(`{"_seconds":1789209000,"_nanoseconds":0}`), &asWrapper))

	assert.True(t, asString.Equal(asMillis))
	assert.True(t, asMillis.Equal(asWrapper))
}

func TestInstantEpochZeroWrapper(t *testing.T) {
	var i Instant
	require.NoError(t, json.Unmarshal([]byte(`{"_seconds":0,"_nanoseconds":0}`), &i))
	assert.True(t, i.Time.Equal(time.Unix(0, 0)), "got %s", i.Time)
}

func TestInstantNull(t *testing.T) {
	var i Instant
	require.NoError(t, json.Unmarshal([]byte(`null`), &i))
	assert.True(t, i.IsZero())

	out, err := json.Marshal(i)
	require.NoError(t, err)
	assert.Equal(t, "null", string(out))
}

func TestInstantRoundTrip(t *testing.T) {
	orig := NewInstant(time.Date(2026, 9, 12, 10, 30, 0, 500000000, time.UTC))
	raw, err := json.Marshal(orig)
	require.NoError(t, err)

	var decoded Instant
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.True(t, orig.Equal(decoded))
}

func TestInstantRejectsGarbage(t *testing.T) {
	var i Instant
	assert.Error(t, json.Unmarshal([]byte(`"not-a-date"`), &i))
	assert.Error(t, json.Unmarshal([]byte(`true`), &i))
}
