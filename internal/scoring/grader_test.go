package scoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v float64) *float64 { return &v }

func TestGrader_WeightedAverage(t *testing.T) {
	grader := NewGrader(map[string]float64{"test": 2, "homework": 1}, 1)

	testCases := []struct {
		name      string
		marks     []Mark
		wantAvg   float64
		wantCount int
	}{
		{
			name:      "weighted five and three",
			marks:     []Mark{{Value: 5, GradeType: "test"}, {Value: 3, GradeType: "homework"}},
			wantAvg:   4.3,
			wantCount: 2,
		},
		{
			name:      "unknown type uses default weight",
			marks:     []Mark{{Value: 4, GradeType: "oral"}, {Value: 5, GradeType: "oral"}},
			wantAvg:   4.5,
			wantCount: 2,
		},
		{
			name:      "single grade",
			marks:     []Mark{{Value: 2, GradeType: "test"}},
			wantAvg:   2,
			wantCount: 1,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			res := grader.WeightedAverage(tc.marks)
			require.NotNil(t, res.Average)
			assert.Equal(t, tc.wantAvg, *res.Average)
			assert.Nil(t, res.Percentage)
			assert.Equal(t, tc.wantCount, res.GradeCount)
			assert.False(t, res.NoData)
		})
	}
}

func TestGrader_CumulativePercentage(t *testing.T) {
	grader := NewGrader(nil, 1)

	t.Run("seven and nine out of ten", func(t *testing.T) {
		res := grader.CumulativePercentage([]Mark{
			{Value: 7, MaxScore: ptr(10)},
			{Value: 9, MaxScore: ptr(10)},
		})
		require.NotNil(t, res.Percentage)
		assert.Equal(t, 80.0, *res.Percentage)
		assert.Equal(t, 2, res.GradeCount)
	})

	t.Run("marks without assignment are excluded", func(t *testing.T) {
		res := grader.CumulativePercentage([]Mark{
			{Value: 5, MaxScore: ptr(20)},
			{Value: 100},
		})
		require.NotNil(t, res.Percentage)
		assert.Equal(t, 25.0, *res.Percentage)
		assert.Equal(t, 1, res.GradeCount)
	})

	t.Run("rounds to one decimal", func(t *testing.T) {
		res := grader.CumulativePercentage([]Mark{{Value: 1, MaxScore: ptr(3)}})
		require.NotNil(t, res.Percentage)
		assert.Equal(t, 33.3, *res.Percentage)
	})

	t.Run("only unresolvable marks is no data", func(t *testing.T) {
		res := grader.CumulativePercentage([]Mark{{Value: 5}})
		assert.True(t, res.NoData)
		assert.Nil(t, res.Percentage)
	})
}

func TestGrader_NoData(t *testing.T) {
	grader := NewGrader(nil, 0)
	for _, system := range []GradingSystem{Ordinal, Cumulative} {
		res := grader.Aggregate(system, nil)
		assert.True(t, res.NoData, system)
		assert.Nil(t, res.Average, system)
		assert.Nil(t, res.Percentage, system)
		assert.Zero(t, res.GradeCount, system)
	}
}

func TestParseGradingSystem(t *testing.T) {
	gs, err := ParseGradingSystem("cumulative")
	require.NoError(t, err)
	assert.Equal(t, Cumulative, gs)

	_, err = ParseGradingSystem("letters")
	assert.Error(t, err)
}

func TestPeriodRange(t *testing.T) {
	testCases := []struct {
		period    Period
		wantStart string
		wantLast  string
	}{
		{Quarter1, "2024-09-01", "2024-10-31"},
		{Quarter2, "2024-11-01", "2024-12-31"},
		{Quarter3, "2025-01-01", "2025-03-31"},
		{Quarter4, "2025-04-01", "2025-06-30"},
		{Semester1, "2024-09-01", "2024-12-31"},
		{Semester2, "2025-01-01", "2025-06-30"},
		{Year, "2024-09-01", "2025-06-30"},
	}

	for _, tc := range testCases {
		t.Run(string(tc.period), func(t *testing.T) {
			r, err := PeriodRange(tc.period, 2024, time.UTC)
			require.NoError(t, err)
			assert.Equal(t, tc.wantStart, r.Start.Format(time.DateOnly))
			assert.Equal(t, tc.wantLast, r.LastDay().Format(time.DateOnly))
		})
	}

	_, err := PeriodRange("trimester", 2024, time.UTC)
	assert.Error(t, err)
}

func TestRange_ContainsWholeLastDay(t *testing.T) {
	loc := time.FixedZone("MSK", 3*60*60)

	r, err := PeriodRange(Quarter1, 2024, loc)
	require.NoError(t, err)

	lateOnLastDay := time.Date(2024, 10, 31, 23, 59, 59, 0, loc)
	nextDay := time.Date(2024, 11, 1, 0, 0, 0, 0, loc)
	beforeStart := time.Date(2024, 8, 31, 23, 59, 59, 0, loc)

	assert.True(t, r.Contains(lateOnLastDay.Unix()))
	assert.False(t, r.Contains(nextDay.Unix()))
	assert.False(t, r.Contains(beforeStart.Unix()))
}

func TestAcademicYear(t *testing.T) {
	assert.Equal(t, 2024, AcademicYear(time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 2024, AcademicYear(time.Date(2025, 5, 20, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 2023, AcademicYear(time.Date(2024, 8, 31, 0, 0, 0, 0, time.UTC)))
}
