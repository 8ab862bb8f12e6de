// Package evaluate scores mapped answers per content type. Each evaluator is
// independent and registered in a lookup table keyed by content type; a shared
// result envelope carries the common fields plus a type-specific payload.
package evaluate

import (
	"context"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/kartavya4874/AI-Exam-Checker/internal/model"
)

// feedbackManualReview is the feedback text used whenever an evaluation
// cannot be trusted and a human has to look at the answer.
const feedbackManualReview = "requires manual review"

// Generator is the opaque text-generation capability evaluators delegate to.
// Implementations may return empty, truncated, or reordered output; callers
// must tolerate all of it.
type Generator interface {
	Generate(ctx context.Context, prompt string, maxTokens int) (string, error)
}

// Evaluator scores one answer against its model answer. Evaluators never
// fail: malformed generator output degrades to a zero-marks result flagged
// for manual review, with every field left at a safe default.
type Evaluator interface {
	Evaluate(ctx context.Context, answer model.AnswerRecord, ref model.ModelAnswer, q model.Question) model.EvaluationResult
}

// Registry maps content types to their evaluators.
type Registry map[model.ContentType]Evaluator

// NewRegistry builds the evaluator table. MCQ and diagram grading are
// deterministic and never touch the generator.
func NewRegistry(gen Generator) Registry {
	return Registry{
		model.ContentText:    &TextEvaluator{gen: gen},
		model.ContentMath:    &MathEvaluator{gen: gen},
		model.ContentCode:    &CodeEvaluator{gen: gen},
		model.ContentDiagram: &DiagramEvaluator{},
		model.ContentMCQ:     &MCQEvaluator{},
	}
}

// Evaluate dispatches to the evaluator for the answer's content type.
// Unknown or mixed content gets a zero result flagged for review rather than
// an error; a single odd sheet must not abort batch processing.
func (r Registry) Evaluate(ctx context.Context, answer model.AnswerRecord, ref model.ModelAnswer, q model.Question) model.EvaluationResult {
	ev, ok := r[answer.ContentType]
	if !ok {
		return model.EvaluationResult{
			MaxMarks:    q.MaxMarks,
			Feedback:    feedbackManualReview,
			NeedsReview: true,
		}
	}
	return ev.Evaluate(ctx, answer, ref, q)
}

var (
	studentAnswerRegex      = regexp.MustCompile(`(?i)</?\s*student-answer\b[^>]*>`)
	systemInstructionsRegex = regexp.MustCompile(`(?i)</?\s*system-instructions\b[^>]*>`)
)

const maxAnswerRunes = 10000

// sanitizeAnswer strips prompt-injection style tags from a student answer and
// truncates pathologically long ones before they reach a prompt.
func sanitizeAnswer(answer string) string {
	answer = studentAnswerRegex.ReplaceAllString(answer, "")
	answer = systemInstructionsRegex.ReplaceAllString(answer, "")
	answer = strings.TrimSpace(answer)

	if answer == "" {
		return "[No answer provided]"
	}

	if utf8.RuneCountInString(answer) > maxAnswerRunes {
		runes := []rune(answer)
		answer = string(runes[:maxAnswerRunes]) + "\n\n[Answer truncated due to length]"
	}

	return answer
}

// clampMarks bounds awarded marks to [0, maxMarks]. Generators occasionally
// report marks above the maximum ("12/10"); those must never leak through.
func clampMarks(marks float64, maxMarks int) float64 {
	if marks < 0 {
		return 0
	}
	if marks > float64(maxMarks) {
		return float64(maxMarks)
	}
	return marks
}
