package core

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidPeriod is returned when a period id is not in YYYY-MM form.
var ErrInvalidPeriod = errors.New("invalid period")

const periodLayout = "2006-01"

// Period is a calendar month identified as "YYYY-MM".
type Period struct {
	Year  int
	Month time.Month
}

// ParsePeriod parses a "YYYY-MM" period id.
func ParsePeriod(id string) (Period, error) {
	t, err := time.Parse(periodLayout, id)
	if err != nil {
		return Period{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, id)
	}
	return Period{Year: t.Year(), Month: t.Month()}, nil
}

// String returns the period id.
func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

// DaysInMonth returns the number of calendar days in the period.
func (p Period) DaysInMonth() int {
	return time.Date(p.Year, p.Month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Previous returns the period n months earlier.
func (p Period) Previous(n int) Period {
	t := time.Date(p.Year, p.Month-time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	return Period{Year: t.Year(), Month: t.Month()}
}
