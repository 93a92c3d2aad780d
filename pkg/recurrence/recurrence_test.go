package recurrence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpand(t *testing.T) {
	testCases := []struct {
		name        string
		date        string
		frequency   Frequency
		occurrences int
		want        []string
	}{
		{
			name:        "none ignores occurrences",
			date:        "2024-05-10",
			frequency:   None,
			occurrences: 12,
			want:        []string{"2024-05-10"},
		},
		{
			name:        "single occurrence",
			date:        "2024-05-10",
			frequency:   Monthly,
			occurrences: 1,
			want:        []string{"2024-05-10"},
		},
		{
			name:        "monthly clamps to leap february",
			date:        "2024-01-31",
			frequency:   Monthly,
			occurrences: 3,
			want:        []string{"2024-01-31", "2024-02-29", "2024-03-31"},
		},
		{
			name:        "monthly clamps to non-leap february",
			date:        "2023-01-31",
			frequency:   Monthly,
			occurrences: 2,
			want:        []string{"2023-01-31", "2023-02-28"},
		},
		{
			name:        "bimonthly",
			date:        "2024-08-31",
			frequency:   Bimonthly,
			occurrences: 3,
			want:        []string{"2024-08-31", "2024-10-31", "2024-12-31"},
		},
		{
			name:        "quarterly carries into next year",
			date:        "2024-11-30",
			frequency:   Quarterly,
			occurrences: 3,
			want:        []string{"2024-11-30", "2025-02-28", "2025-05-30"},
		},
		{
			name:        "semiannual",
			date:        "2024-08-31",
			frequency:   Semiannual,
			occurrences: 2,
			want:        []string{"2024-08-31", "2025-02-28"},
		},
		{
			name:        "annual from leap day",
			date:        "2024-02-29",
			frequency:   Annual,
			occurrences: 3,
			want:        []string{"2024-02-29", "2025-02-28", "2026-02-28"},
		},
		{
			name:        "malformed date is returned unchanged",
			date:        "2024-13-45",
			frequency:   Monthly,
			occurrences: 2,
			want:        []string{"2024-13-45", "2024-13-45"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Expand(tc.date, tc.frequency, tc.occurrences))
		})
	}
}

func TestExpand_NoneAlwaysYieldsInputDate(t *testing.T) {
	for _, n := range []int{-5, 0, 1, 2, 24, 100} {
		assert.Equal(t, []string{"2025-07-04"}, Expand("2025-07-04", None, n))
	}
}

func TestExpand_OccurrencesAreClamped(t *testing.T) {
	assert.Len(t, Expand("2024-01-15", Monthly, 25), 24)
	assert.Len(t, Expand("2024-01-15", Monthly, 1000), 24)
	assert.Len(t, Expand("2024-01-15", Monthly, 0), 1)
	assert.Len(t, Expand("2024-01-15", Monthly, -3), 1)
}

func TestExpand_ClampingDoesNotRememberOriginalDay(t *testing.T) {
	// given
	first := Expand("2024-01-31", Monthly, 2)
	require.Equal(t, "2024-02-29", first[1])

	// when
	second := Expand(first[1], Monthly, 1)

	// then
	assert.Equal(t, []string{"2024-02-29"}, second)
	assert.Equal(t, []string{"2024-02-29", "2024-03-29"}, Expand(first[1], Monthly, 2))
}

func TestExpandDate_FirstElementIsInput(t *testing.T) {
	start := NewDate(2024, time.March, 31)
	for _, f := range []Frequency{None, Monthly, Bimonthly, Quarterly, Semiannual, Annual} {
		dates := ExpandDate(start, Spec{Frequency: f, Occurrences: 6})
		require.NotEmpty(t, dates)
		assert.Equal(t, start, dates[0], "frequency %s", f)
		for i, d := range dates {
			assert.Equal(t, start.AddMonths(f.Interval()*i), d)
		}
	}
}

func TestParseFrequency(t *testing.T) {
	f, err := ParseFrequency("quarterly")
	require.NoError(t, err)
	assert.Equal(t, Quarterly, f)

	f, err = ParseFrequency("")
	require.NoError(t, err)
	assert.Equal(t, None, f)

	_, err = ParseFrequency("weekly")
	assert.Error(t, err)
}

func TestSpec_Last(t *testing.T) {
	start := NewDate(2024, time.January, 31)

	assert.Equal(t, start, Once.Last(start))
	assert.Equal(t, NewDate(2024, time.July, 31), Spec{Frequency: Quarterly, Occurrences: 3}.Last(start))
	assert.Equal(t, NewDate(2024, time.March, 31), Spec{Frequency: Monthly, Occurrences: 3}.Last(start))
}
