package learner

import (
	"math"
	"strings"
	"testing"

	"github.com/kartavya4874/AI-Exam-Checker/internal/model"
)

// memStore is an in-memory PatternStore keeping adjustments newest-first,
// matching the ordering the SQL store returns.
type memStore struct {
	adjustments map[string][]model.Adjustment
}

func newMemStore() *memStore {
	return &memStore{adjustments: make(map[string][]model.Adjustment)}
}

func (s *memStore) SaveAdjustment(adj model.Adjustment) error {
	s.adjustments[adj.CourseCode] = append([]model.Adjustment{adj}, s.adjustments[adj.CourseCode]...)
	return nil
}

func (s *memStore) RecentAdjustments(courseCode string, limit int) ([]model.Adjustment, error) {
	all := s.adjustments[courseCode]
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (s *memStore) CountAdjustments(courseCode string) (int, error) {
	return len(s.adjustments[courseCode]), nil
}

func record(t *testing.T, l *Learner, course string, ai, faculty float64) {
	t.Helper()
	err := l.RecordAdjustment(model.Adjustment{
		CourseCode:   course,
		QuestionType: model.ContentText,
		AIMarks:      ai,
		FacultyMarks: faculty,
	})
	if err != nil {
		t.Fatalf("RecordAdjustment: %v", err)
	}
}

func TestStrictnessFactorNeedsMinimumData(t *testing.T) {
	l := New(newMemStore())

	// Four adjustments is not enough history.
	for i := 0; i < 4; i++ {
		record(t, l, "CS101", 5, 7)
	}
	got, err := l.StrictnessFactor("CS101")
	if err != nil {
		t.Fatalf("StrictnessFactor: %v", err)
	}
	if got != 1.0 {
		t.Errorf("expected neutral factor below minimum data, got %v", got)
	}
}

func TestStrictnessFactorLenientFaculty(t *testing.T) {
	l := New(newMemStore())

	// Faculty consistently gives 2 marks more than the AI.
	for i := 0; i < 6; i++ {
		record(t, l, "CS101", 5, 7)
	}
	got, err := l.StrictnessFactor("CS101")
	if err != nil {
		t.Fatalf("StrictnessFactor: %v", err)
	}
	if math.Abs(got-1.2) > 1e-9 {
		t.Errorf("expected factor 1.2 for avg difference +2, got %v", got)
	}
}

func TestAdjustMarks(t *testing.T) {
	l := New(newMemStore())
	for i := 0; i < 6; i++ {
		record(t, l, "CS101", 5, 7)
	}

	tests := []struct {
		name    string
		course  string
		ai, max float64
		want    float64
	}{
		{"scaled up", "CS101", 5, 10, 6},
		{"clamped to max", "CS101", 9, 10, 10},
		{"zero stays zero", "CS101", 0, 10, 0},
		{"unknown course untouched", "EE999", 5.5, 10, 5.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := l.AdjustMarks(tt.course, tt.ai, tt.max)
			if err != nil {
				t.Fatalf("AdjustMarks: %v", err)
			}
			if got != tt.want {
				t.Errorf("AdjustMarks(%v) = %v, want %v", tt.ai, got, tt.want)
			}
		})
	}
}

func TestAdjustMarksRoundsToOneDecimal(t *testing.T) {
	l := New(newMemStore())
	// Avg difference +1 gives strictness 1.1.
	for i := 0; i < 5; i++ {
		record(t, l, "CS101", 5, 6)
	}

	got, err := l.AdjustMarks("CS101", 4.3, 10)
	if err != nil {
		t.Fatalf("AdjustMarks: %v", err)
	}
	// 4.3 * 1.1 = 4.73 rounds to 4.7.
	if got != 4.7 {
		t.Errorf("expected 4.7, got %v", got)
	}
}

func TestStrictnessUsesRecentWindowOnly(t *testing.T) {
	l := New(newMemStore())

	// Old history says lenient (+2), recent 20 say aligned (0).
	for i := 0; i < 10; i++ {
		record(t, l, "CS101", 5, 7)
	}
	for i := 0; i < 20; i++ {
		record(t, l, "CS101", 5, 5)
	}

	got, err := l.StrictnessFactor("CS101")
	if err != nil {
		t.Fatalf("StrictnessFactor: %v", err)
	}
	if got != 1.0 {
		t.Errorf("expected old adjustments outside window ignored, got %v", got)
	}
}

func TestMarkingInsights(t *testing.T) {
	t.Run("no data", func(t *testing.T) {
		l := New(newMemStore())
		ins, err := l.MarkingInsights("CS101")
		if err != nil {
			t.Fatalf("MarkingInsights: %v", err)
		}
		if ins.AdjustmentsCount != 0 || ins.StrictnessFactor != 1.0 {
			t.Errorf("unexpected insights: %+v", ins)
		}
		if !strings.Contains(ins.Recommendation, "No data yet") {
			t.Errorf("recommendation: %q", ins.Recommendation)
		}
	})

	t.Run("lenient faculty", func(t *testing.T) {
		l := New(newMemStore())
		for i := 0; i < 6; i++ {
			record(t, l, "CS101", 5, 7)
		}
		ins, err := l.MarkingInsights("CS101")
		if err != nil {
			t.Fatalf("MarkingInsights: %v", err)
		}
		if ins.AdjustmentsCount != 6 {
			t.Errorf("count: expected 6, got %d", ins.AdjustmentsCount)
		}
		if ins.AvgDifference != 2 {
			t.Errorf("avg difference: expected 2, got %v", ins.AvgDifference)
		}
		if !strings.Contains(ins.Recommendation, "more lenient") {
			t.Errorf("recommendation: %q", ins.Recommendation)
		}
		if len(ins.RecentAdjustments) != 5 {
			t.Errorf("recent: expected 5, got %d", len(ins.RecentAdjustments))
		}
	})

	t.Run("strict faculty", func(t *testing.T) {
		l := New(newMemStore())
		for i := 0; i < 6; i++ {
			record(t, l, "CS101", 7, 5)
		}
		ins, err := l.MarkingInsights("CS101")
		if err != nil {
			t.Fatalf("MarkingInsights: %v", err)
		}
		if !strings.Contains(ins.Recommendation, "stricter") {
			t.Errorf("recommendation: %q", ins.Recommendation)
		}
		if ins.StrictnessFactor != 0.8 {
			t.Errorf("strictness: expected 0.8, got %v", ins.StrictnessFactor)
		}
	})
}
