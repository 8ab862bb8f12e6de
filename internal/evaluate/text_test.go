package evaluate

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/kartavya4874/AI-Exam-Checker/internal/model"
)

func TestTextEvaluator(t *testing.T) {
	gen := &stubGenerator{reply: "MARKS: 7/10\n" +
		"FEEDBACK: Covers the main ideas with some gaps.\n" +
		"STRENGTHS: - accurate definitions\n- good examples\n" +
		"IMPROVEMENTS: - expand on edge cases"}
	ev := &TextEvaluator{gen: gen}

	ref := model.ModelAnswer{
		Text:     "Photosynthesis converts light energy into chemical energy.",
		Keywords: []string{"chlorophyll", "light energy", "glucose"},
	}
	answer := testAnswer("Plants use light energy and chlorophyll to make food.", model.ContentText)

	res := ev.Evaluate(context.Background(), answer, ref, testQuestion(model.ContentText))

	if res.MarksAwarded != 7 {
		t.Errorf("marks: expected 7, got %v", res.MarksAwarded)
	}
	if res.NeedsReview {
		t.Error("clean evaluation should not need review")
	}
	if res.Text.KeywordsMatched != 2 {
		t.Errorf("keywords matched: expected 2 (chlorophyll, light energy), got %d", res.Text.KeywordsMatched)
	}
	if res.Text.TotalKeywords != 3 {
		t.Errorf("total keywords: expected 3, got %d", res.Text.TotalKeywords)
	}
	if len(res.Text.Strengths) != 2 {
		t.Errorf("strengths: expected 2 items, got %v", res.Text.Strengths)
	}
	if gen.lastTokens != 1500 {
		t.Errorf("max tokens: expected 1500, got %d", gen.lastTokens)
	}
	if !strings.Contains(gen.lastPrompt, ref.Text) {
		t.Error("prompt should include the model answer")
	}
}

func TestTextEvaluatorClampsExcessMarks(t *testing.T) {
	gen := &stubGenerator{reply: "MARKS: 12/10\nFEEDBACK: generous"}
	ev := &TextEvaluator{gen: gen}

	res := ev.Evaluate(context.Background(), testAnswer("an answer", model.ContentText), model.ModelAnswer{}, testQuestion(model.ContentText))
	if res.MarksAwarded != 10 {
		t.Errorf("expected 12/10 to clamp to 10, got %v", res.MarksAwarded)
	}
}

func TestTextEvaluatorGeneratorFailure(t *testing.T) {
	tests := []struct {
		name string
		gen  *stubGenerator
	}{
		{"generator error", &stubGenerator{err: errors.New("connection refused")}},
		{"unparseable reply", &stubGenerator{reply: "I cannot grade this answer."}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := &TextEvaluator{gen: tt.gen}
			res := ev.Evaluate(context.Background(), testAnswer("an answer", model.ContentText), model.ModelAnswer{}, testQuestion(model.ContentText))
			if res.MarksAwarded != 0 {
				t.Errorf("expected 0 marks, got %v", res.MarksAwarded)
			}
			if !res.NeedsReview {
				t.Error("expected needs review")
			}
			if res.Feedback != feedbackManualReview {
				t.Errorf("expected manual review feedback, got %q", res.Feedback)
			}
		})
	}
}

func TestCountKeywordMatches(t *testing.T) {
	tests := []struct {
		name     string
		answer   string
		keywords []string
		want     int
	}{
		{"case insensitive", "The MITOCHONDRIA produces ATP", []string{"mitochondria", "atp"}, 2},
		{"partial coverage", "osmosis moves water", []string{"osmosis", "diffusion", "membrane"}, 1},
		{"no keywords", "anything", nil, 0},
		{"empty keyword ignored", "anything", []string{""}, 0},
		{"substring match", "photosynthesis", []string{"synthesis"}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CountKeywordMatches(tt.answer, tt.keywords); got != tt.want {
				t.Errorf("CountKeywordMatches() = %d, want %d", got, tt.want)
			}
		})
	}
}
