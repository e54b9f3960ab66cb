package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-02-29")
	require.NoError(t, err)
	assert.Equal(t, NewDate(2024, time.February, 29), d)

	_, err = ParseDate("2024-2-29")
	assert.Error(t, err)

	_, err = ParseDate("not a date")
	assert.Error(t, err)
}

func TestDate_AddDays(t *testing.T) {
	tests := []struct {
		name string
		from Date
		n    int
		want Date
	}{
		{"within month", NewDate(2024, time.January, 10), 5, NewDate(2024, time.January, 15)},
		{"month boundary", NewDate(2024, time.January, 31), 1, NewDate(2024, time.February, 1)},
		{"leap day", NewDate(2024, time.February, 28), 1, NewDate(2024, time.February, 29)},
		{"non-leap year", NewDate(2023, time.February, 28), 1, NewDate(2023, time.March, 1)},
		{"year boundary", NewDate(2023, time.December, 31), 1, NewDate(2024, time.January, 1)},
		{"backwards", NewDate(2024, time.March, 1), -1, NewDate(2024, time.February, 29)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.AddDays(tt.n))
		})
	}
}

func TestDate_Ordering(t *testing.T) {
	a := NewDate(2021, time.September, 30)
	b := NewDate(2021, time.October, 1)

	assert.True(t, a.Before(b))
	assert.True(t, b.After(a))
	assert.False(t, a.Before(a))
	assert.Equal(t, -1, a.Compare(b))
	assert.Equal(t, 1, b.Compare(a))
	assert.Zero(t, a.Compare(a))

	assert.Equal(t, b, MaxDate(a, b))
	assert.Equal(t, b, MaxDate(b, a))
}

func TestDate_Zero(t *testing.T) {
	var d Date
	assert.True(t, d.IsZero())
	assert.False(t, NewDate(2024, time.January, 1).IsZero())
}

func TestDate_JSONMapKey(t *testing.T) {
	// sourceUsage is keyed by date; the key must round-trip through
	// encoding/json via TextMarshaler.
	usage := map[Date]string{
		NewDate(2021, time.October, 1): "A",
		NewDate(2023, time.May, 14):    "B",
	}

	raw, err := json.Marshal(usage)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"2021-10-01":"A"`)

	var back map[Date]string
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, usage, back)
}

func TestDate_String(t *testing.T) {
	assert.Equal(t, "1993-01-05", NewDate(1993, time.January, 5).String())
}
