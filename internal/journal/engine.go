package journal

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/dagbok/internal/metrics"
	"github.com/shrimpsizemoose/dagbok/internal/scoring"
	"github.com/shrimpsizemoose/dagbok/internal/store"
)

type Config struct {
	DefaultGradingSystem scoring.GradingSystem
	DefaultGradeType     string
	Location             *time.Location
}

// Engine enforces the journal rules on top of a JournalStore. Every public
// operation runs in exactly one store transaction.
type Engine struct {
	store  store.JournalStore
	grader *scoring.Grader
	cfg    Config
	now    func() time.Time
}

type Option func(*Engine)

// WithClock replaces time.Now, tests use it to move past lesson end times.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

func NewEngine(s store.JournalStore, grader *scoring.Grader, cfg Config, opts ...Option) *Engine {
	if cfg.DefaultGradingSystem == "" {
		cfg.DefaultGradingSystem = scoring.Ordinal
	}
	if cfg.DefaultGradeType == "" {
		cfg.DefaultGradeType = "classwork"
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if grader == nil {
		grader = scoring.NewGrader(nil, 1)
	}

	e := &Engine{
		store:  s,
		grader: grader,
		cfg:    cfg,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Location() *time.Location {
	return e.cfg.Location
}

// Now is the engine clock in the configured timezone.
func (e *Engine) Now() time.Time {
	return e.now().In(e.cfg.Location)
}

// done counts and logs rejections; infrastructure errors pass through.
func (e *Engine) done(op string, err error) error {
	if err == nil {
		return nil
	}
	if kind := KindOf(err); kind != "" {
		metrics.RejectionsTotal.WithLabelValues(string(kind)).Inc()
		logger.Debug.Printf("%s rejected: %v", op, err)
		return err
	}
	logger.Error.Printf("%s failed: %v", op, err)
	return fmt.Errorf("%s: %w", op, err)
}

func (e *Engine) gradingSystem(ctx context.Context, q store.Queries, classID int64) (scoring.GradingSystem, error) {
	cs, err := q.GetClassSettings(ctx, classID)
	if err != nil {
		return "", err
	}
	if cs == nil {
		return e.cfg.DefaultGradingSystem, nil
	}
	system, err := scoring.ParseGradingSystem(cs.GradingSystem)
	if err != nil {
		return "", fmt.Errorf("class %d: %w", classID, err)
	}
	return system, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
