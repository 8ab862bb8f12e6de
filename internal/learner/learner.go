// Package learner adapts AI marks to each course's faculty marking habits.
// Every faculty override is recorded; once enough history exists, a per-course
// strictness factor nudges future AI marks toward what the faculty would give.
package learner

import (
	"fmt"
	"math"
	"time"

	"github.com/kartavya4874/AI-Exam-Checker/internal/model"
)

// minAdjustments is the history size below which no strictness is applied.
const minAdjustments = 5

// recentWindow bounds how much history feeds the strictness factor, so old
// semesters fade out.
const recentWindow = 20

// PatternStore persists faculty adjustments.
type PatternStore interface {
	SaveAdjustment(adj model.Adjustment) error
	RecentAdjustments(courseCode string, limit int) ([]model.Adjustment, error)
	CountAdjustments(courseCode string) (int, error)
}

// Insights summarizes a course's marking history for faculty display.
type Insights struct {
	AdjustmentsCount  int                `json:"adjustments_count"`
	AvgDifference     float64            `json:"avg_difference"`
	StrictnessFactor  float64            `json:"strictness_factor"`
	Recommendation    string             `json:"recommendation"`
	RecentAdjustments []model.Adjustment `json:"recent_adjustments"`
}

// Learner computes and applies per-course strictness factors.
type Learner struct {
	store PatternStore
}

// New creates a learner over the given store.
func New(store PatternStore) *Learner {
	return &Learner{store: store}
}

// RecordAdjustment stores one faculty override of AI marks.
func (l *Learner) RecordAdjustment(adj model.Adjustment) error {
	adj.Difference = adj.FacultyMarks - adj.AIMarks
	if adj.CreatedAt.IsZero() {
		adj.CreatedAt = time.Now()
	}
	if err := l.store.SaveAdjustment(adj); err != nil {
		return fmt.Errorf("record adjustment: %w", err)
	}
	return nil
}

// StrictnessFactor derives the marks multiplier for a course from its recent
// adjustment history. A positive average difference means faculty grade more
// leniently than the AI, so AI marks get scaled up. Below minAdjustments the
// factor stays neutral.
func (l *Learner) StrictnessFactor(courseCode string) (float64, error) {
	avgDiff, n, err := l.recentAvgDifference(courseCode)
	if err != nil {
		return 1.0, err
	}
	if n < minAdjustments {
		return 1.0, nil
	}
	return 1.0 + avgDiff/10.0, nil
}

// AdjustMarks applies the course's strictness factor to AI marks, clamped to
// [0, maxMarks] and rounded to one decimal.
func (l *Learner) AdjustMarks(courseCode string, aiMarks, maxMarks float64) (float64, error) {
	strictness, err := l.StrictnessFactor(courseCode)
	if err != nil {
		return aiMarks, err
	}

	adjusted := aiMarks * strictness
	adjusted = math.Max(0, math.Min(adjusted, maxMarks))
	return math.Round(adjusted*10) / 10, nil
}

// MarkingInsights reports the course's adjustment history and what the
// learner will do about it.
func (l *Learner) MarkingInsights(courseCode string) (Insights, error) {
	count, err := l.store.CountAdjustments(courseCode)
	if err != nil {
		return Insights{}, fmt.Errorf("marking insights: %w", err)
	}
	if count == 0 {
		return Insights{
			StrictnessFactor:  1.0,
			Recommendation:    "No data yet. System will learn as faculty reviews answers.",
			RecentAdjustments: []model.Adjustment{},
		}, nil
	}

	avgDiff, n, err := l.recentAvgDifference(courseCode)
	if err != nil {
		return Insights{}, fmt.Errorf("marking insights: %w", err)
	}

	strictness := 1.0
	if n >= minAdjustments {
		strictness = 1.0 + avgDiff/10.0
	}

	recent, err := l.store.RecentAdjustments(courseCode, 5)
	if err != nil {
		return Insights{}, fmt.Errorf("marking insights: %w", err)
	}

	return Insights{
		AdjustmentsCount:  count,
		AvgDifference:     math.Round(avgDiff*100) / 100,
		StrictnessFactor:  math.Round(strictness*100) / 100,
		Recommendation:    recommendation(avgDiff),
		RecentAdjustments: recent,
	}, nil
}

func (l *Learner) recentAvgDifference(courseCode string) (float64, int, error) {
	recent, err := l.store.RecentAdjustments(courseCode, recentWindow)
	if err != nil {
		return 0, 0, fmt.Errorf("load adjustments: %w", err)
	}
	if len(recent) == 0 {
		return 0, 0, nil
	}

	var sum float64
	for _, a := range recent {
		sum += a.Difference
	}
	return sum / float64(len(recent)), len(recent), nil
}

func recommendation(avgDiff float64) string {
	switch {
	case avgDiff > 1.0:
		return "Faculty tends to be more lenient. AI will adjust marks upward."
	case avgDiff < -1.0:
		return "Faculty tends to be stricter. AI will adjust marks downward."
	default:
		return "AI marking aligns well with faculty expectations."
	}
}
