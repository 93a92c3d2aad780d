package recurrence

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	testCases := []struct {
		input   string
		want    Date
		wantErr bool
	}{
		{input: "2024-02-29", want: NewDate(2024, time.February, 29)},
		{input: "1999-12-31", want: NewDate(1999, time.December, 31)},
		{input: "2023-02-29", wantErr: true},
		{input: "2024-00-10", wantErr: true},
		{input: "2024-1-10", wantErr: true},
		{input: "2024-01-10T10:00:00Z", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			got, err := ParseDate(tc.input)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrInvalidDate)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, tc.input, got.String())
		})
	}
}

func TestDate_AddMonths(t *testing.T) {
	d := NewDate(2024, time.January, 31)
	assert.Equal(t, NewDate(2024, time.February, 29), d.AddMonths(1))
	assert.Equal(t, NewDate(2023, time.December, 31), d.AddMonths(-1))
	assert.Equal(t, NewDate(2022, time.November, 30), d.AddMonths(-14))
	assert.Equal(t, NewDate(2026, time.January, 31), d.AddMonths(24))
}

func TestDate_JSON(t *testing.T) {
	var payload struct {
		Date Date `json:"date"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"date":"2024-06-01"}`), &payload))
	assert.Equal(t, NewDate(2024, time.June, 1), payload.Date)

	out, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"date":"2024-06-01"}`, string(out))

	assert.ErrorIs(t, json.Unmarshal([]byte(`{"date":"June 1st"}`), &payload), ErrInvalidDate)
}

func TestDate_Compare(t *testing.T) {
	a := NewDate(2024, time.May, 1)
	b := NewDate(2024, time.May, 2)
	assert.True(t, a.Before(b))
	assert.True(t, b.After(a))
	assert.Equal(t, 0, a.Compare(a))
}

func TestDate_ValidStaysWithinFourDigitYears(t *testing.T) {
	assert.True(t, MaxDate.Valid())
	assert.False(t, MaxDate.AddMonths(1).Valid())

	parsed, err := ParseDate(MaxDate.String())
	require.NoError(t, err)
	assert.Equal(t, MaxDate, parsed)
}
