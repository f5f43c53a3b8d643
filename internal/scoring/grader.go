// internal/scoring/grader.go
package scoring

import (
	"fmt"
	"math"
)

type GradingSystem string

const (
	// Ordinal is the five-point scale with type-weighted means.
	Ordinal GradingSystem = "ordinal"
	// Cumulative is point-based: earned points over possible points.
	Cumulative GradingSystem = "cumulative"
)

func ParseGradingSystem(s string) (GradingSystem, error) {
	switch GradingSystem(s) {
	case Ordinal, Cumulative:
		return GradingSystem(s), nil
	default:
		return "", fmt.Errorf("unknown grading system %q", s)
	}
}

const (
	OrdinalMin = 1
	OrdinalMax = 5
)

// Mark is a qualifying grade as seen by the aggregator. MaxScore is nil when
// the grade has no resolvable assignment.
type Mark struct {
	Value     float64
	GradeType string
	MaxScore  *float64
}

// Result of an aggregation. NoData is set instead of a zero average when
// nothing qualified.
type Result struct {
	Average    *float64 `json:"average"`
	Percentage *float64 `json:"percentage"`
	GradeCount int      `json:"gradeCount"`
	NoData     bool     `json:"noData"`
}

func NoData() Result {
	return Result{NoData: true}
}

type Grader struct {
	Weights       map[string]float64 `toml:"weights"`
	DefaultWeight float64            `toml:"default_weight"`
}

func NewGrader(weights map[string]float64, defaultWeight float64) *Grader {
	if defaultWeight <= 0 {
		defaultWeight = 1
	}
	return &Grader{
		Weights:       weights,
		DefaultWeight: defaultWeight,
	}
}

func (g *Grader) Weight(gradeType string) float64 {
	if w, ok := g.Weights[gradeType]; ok && w > 0 {
		return w
	}
	return g.DefaultWeight
}

// Aggregate dispatches to the algorithm of the given grading system.
func (g *Grader) Aggregate(system GradingSystem, marks []Mark) Result {
	if system == Cumulative {
		return g.CumulativePercentage(marks)
	}
	return g.WeightedAverage(marks)
}

// WeightedAverage is sum(value*weight)/sum(weight), one decimal.
func (g *Grader) WeightedAverage(marks []Mark) Result {
	var sum, weights float64
	for _, m := range marks {
		w := g.Weight(m.GradeType)
		sum += m.Value * w
		weights += w
	}
	if len(marks) == 0 || weights == 0 {
		return NoData()
	}

	avg := roundTo(sum/weights, 1)
	return Result{
		Average:    &avg,
		GradeCount: len(marks),
	}
}

// CumulativePercentage is sum(earned)/sum(maxScore)*100, one decimal.
// Marks without a max score are left out of both sums.
func (g *Grader) CumulativePercentage(marks []Mark) Result {
	var earned, possible float64
	var count int
	for _, m := range marks {
		if m.MaxScore == nil || *m.MaxScore <= 0 {
			continue
		}
		earned += m.Value
		possible += *m.MaxScore
		count++
	}
	if count == 0 {
		return NoData()
	}

	pct := roundTo(earned/possible*100, 1)
	return Result{
		Percentage: &pct,
		GradeCount: count,
	}
}

func roundTo(v float64, digits int) float64 {
	p := math.Pow(10, float64(digits))
	return math.Round(v*p) / p
}
