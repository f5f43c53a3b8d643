package scoring

import (
	"fmt"
	"time"
)

type Period string

const (
	Quarter1  Period = "quarter1"
	Quarter2  Period = "quarter2"
	Quarter3  Period = "quarter3"
	Quarter4  Period = "quarter4"
	Semester1 Period = "semester1"
	Semester2 Period = "semester2"
	Year      Period = "year"
)

var Periods = []Period{Quarter1, Quarter2, Quarter3, Quarter4, Semester1, Semester2, Year}

// month spans relative to the academic year start; year offset 1 means the
// calendar year after the one in which September falls
type span struct {
	fromYear, fromMonth int
	toYear, toMonth     int
}

var periodSpans = map[Period]span{
	Quarter1:  {0, 9, 0, 10},
	Quarter2:  {0, 11, 0, 12},
	Quarter3:  {1, 1, 1, 3},
	Quarter4:  {1, 4, 1, 6},
	Semester1: {0, 9, 0, 12},
	Semester2: {1, 1, 1, 6},
	Year:      {0, 9, 1, 6},
}

func ParsePeriod(s string) (Period, error) {
	p := Period(s)
	if _, ok := periodSpans[p]; !ok {
		return "", fmt.Errorf("unknown period %q, want one of %v", s, Periods)
	}
	return p, nil
}

// Range is a half-open interval [Start, End) covering whole days.
type Range struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether unix timestamp ts falls inside the range.
func (r Range) Contains(ts int64) bool {
	return ts >= r.Start.Unix() && ts < r.End.Unix()
}

// LastDay is the inclusive end date of the range.
func (r Range) LastDay() time.Time {
	return r.End.AddDate(0, 0, -1)
}

// PeriodRange resolves a period of the academic year starting on September 1
// of academicYear into concrete dates in loc.
func PeriodRange(p Period, academicYear int, loc *time.Location) (Range, error) {
	sp, ok := periodSpans[p]
	if !ok {
		return Range{}, fmt.Errorf("unknown period %q", p)
	}
	if loc == nil {
		loc = time.UTC
	}
	start := time.Date(academicYear+sp.fromYear, time.Month(sp.fromMonth), 1, 0, 0, 0, 0, loc)
	// first day of the month after the last one
	end := time.Date(academicYear+sp.toYear, time.Month(sp.toMonth)+1, 1, 0, 0, 0, 0, loc)
	return Range{Start: start, End: end}, nil
}

// AcademicYear returns the year in which the academic year containing t began.
func AcademicYear(t time.Time) int {
	if t.Month() >= time.September {
		return t.Year()
	}
	return t.Year() - 1
}
