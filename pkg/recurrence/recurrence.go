package recurrence

import (
	"fmt"
)

type Frequency string

const (
	None       Frequency = "none"
	Monthly    Frequency = "monthly"
	Bimonthly  Frequency = "bimonthly"
	Quarterly  Frequency = "quarterly"
	Semiannual Frequency = "semiannual"
	Annual     Frequency = "annual"
)

const (
	MinOccurrences = 1
	MaxOccurrences = 24
)

var intervals = map[Frequency]int{
	Monthly:    1,
	Bimonthly:  2,
	Quarterly:  3,
	Semiannual: 6,
	Annual:     12,
}

// Interval returns the number of months between two occurrences, 0 for None.
func (f Frequency) Interval() int {
	return intervals[f]
}

func (f Frequency) Valid() bool {
	if f == None {
		return true
	}
	_, ok := intervals[f]
	return ok
}

func ParseFrequency(s string) (Frequency, error) {
	if s == "" {
		return None, nil
	}
	f := Frequency(s)
	if !f.Valid() {
		return None, fmt.Errorf("unknown frequency: %q", s)
	}
	return f, nil
}

// Spec is the wire and storage shape of a recurrence request.
type Spec struct {
	Frequency   Frequency `json:"frequency"`
	Occurrences int       `json:"occurrences"`
}

// Once is the spec of a single, non-recurring entry.
var Once = Spec{Frequency: None, Occurrences: 1}

// Count returns the number of dates the spec expands to.
func (s Spec) Count() int {
	if s.Frequency == None || s.Frequency == "" || !s.Frequency.Valid() {
		return 1
	}
	return ClampOccurrences(s.Occurrences)
}

// ClampOccurrences silently limits n to [MinOccurrences, MaxOccurrences].
func ClampOccurrences(n int) int {
	return max(MinOccurrences, min(n, MaxOccurrences))
}

// ExpandDate returns the schedule of the spec starting at date. Element 0 is always date.
func ExpandDate(date Date, spec Spec) []Date {
	count := spec.Count()
	interval := spec.Frequency.Interval()
	dates := make([]Date, 0, count)
	for i := 0; i < count; i++ {
		dates = append(dates, date.AddMonths(interval*i))
	}
	return dates
}

// Last returns the final date of the schedule starting at date.
func (s Spec) Last(date Date) Date {
	return date.AddMonths(s.Frequency.Interval() * (s.Count() - 1))
}

// Expand is the string form of ExpandDate used at the wire boundary.
// A malformed date does not fail: every element of the schedule is the input unchanged.
func Expand(date string, frequency Frequency, occurrences int) []string {
	spec := Spec{Frequency: frequency, Occurrences: occurrences}
	parsed, err := ParseDate(date)
	if err != nil {
		out := make([]string, spec.Count())
		for i := range out {
			out[i] = date
		}
		return out
	}
	dates := ExpandDate(parsed, spec)
	out := make([]string, 0, len(dates))
	for _, d := range dates {
		out = append(out, d.String())
	}
	return out
}
