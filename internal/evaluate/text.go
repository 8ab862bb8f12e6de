package evaluate

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kartavya4874/AI-Exam-Checker/internal/model"
)

var textParser = newResponseParser("MARKS", "FEEDBACK", "STRENGTHS", "IMPROVEMENTS")

// TextEvaluator grades theory/descriptive answers through the generator,
// backed by an auditable keyword-coverage count that is computed locally and
// never depends on generator output.
type TextEvaluator struct {
	gen Generator
}

func (e *TextEvaluator) Evaluate(ctx context.Context, answer model.AnswerRecord, ref model.ModelAnswer, q model.Question) model.EvaluationResult {
	result := model.EvaluationResult{
		MaxMarks: q.MaxMarks,
		Text: &model.TextEvaluation{
			KeywordsMatched: CountKeywordMatches(answer.RawText, ref.Keywords),
			TotalKeywords:   len(ref.Keywords),
			Strengths:       []string{},
			Improvements:    []string{},
		},
	}

	prompt := buildTextPrompt(answer.RawText, ref, q)
	reply, err := e.gen.Generate(ctx, prompt, 1500)
	if err != nil {
		slog.Warn("text evaluation generation failed", "question", q.Number, "error", err)
		result.Feedback = feedbackManualReview
		result.NeedsReview = true
		return result
	}

	fields := textParser.parse(reply)
	if fields == nil {
		slog.Warn("text evaluation reply had no recognizable fields", "question", q.Number)
		result.Feedback = feedbackManualReview
		result.NeedsReview = true
		return result
	}

	if n, ok := firstNumber(fields["MARKS"]); ok {
		result.MarksAwarded = clampMarks(n, q.MaxMarks)
	}
	result.Feedback = fields["FEEDBACK"]
	result.Text.Strengths = bulletList(fields["STRENGTHS"])
	result.Text.Improvements = bulletList(fields["IMPROVEMENTS"])

	return result
}

// CountKeywordMatches counts keywords whose lowercase form appears as a
// literal substring of the lowercased answer.
func CountKeywordMatches(answer string, keywords []string) int {
	lower := strings.ToLower(answer)
	matches := 0
	for _, kw := range keywords {
		if kw != "" && strings.Contains(lower, strings.ToLower(kw)) {
			matches++
		}
	}
	return matches
}

func buildTextPrompt(studentAnswer string, ref model.ModelAnswer, q model.Question) string {
	var sb strings.Builder
	sb.WriteString("You are an expert examiner evaluating a student's answer for a university exam.\n\n")
	sb.WriteString("QUESTION: " + q.Text + "\n\n")
	sb.WriteString(fmt.Sprintf("MAXIMUM MARKS: %d\n\n", q.MaxMarks))
	sb.WriteString("MODEL ANSWER:\n" + ref.Text + "\n\n")
	if len(ref.Keywords) > 0 {
		sb.WriteString("KEY CONCEPTS (must be covered):\n" + strings.Join(ref.Keywords, ", ") + "\n\n")
	}
	if ref.Scheme.FullMarksCriteria != "" {
		sb.WriteString("MARKING SCHEME:\n" + ref.Scheme.FullMarksCriteria + "\n\n")
	}
	sb.WriteString("STUDENT'S ANSWER:\n" + sanitizeAnswer(studentAnswer) + "\n\n")
	sb.WriteString("INSTRUCTIONS:\n")
	sb.WriteString("- Be STRICT on factual accuracy and core concepts.\n")
	sb.WriteString("- Be CONTEXT-AWARE on wording differences; same meaning is acceptable.\n")
	sb.WriteString("- Award partial credit for partially correct concepts.\n")
	sb.WriteString("- Check coverage of the key concepts listed above.\n")
	sb.WriteString("- Evaluate completeness and depth of explanation.\n\n")
	sb.WriteString("Provide your evaluation in this EXACT format:\n\n")
	sb.WriteString(fmt.Sprintf("MARKS: [X/%d]\n", q.MaxMarks))
	sb.WriteString("FEEDBACK: [Overall assessment in 2-3 sentences]\n")
	sb.WriteString("STRENGTHS: [What the student did well, bullet points]\n")
	sb.WriteString("IMPROVEMENTS: [What could be improved, bullet points]\n\n")
	sb.WriteString("Be fair but strict. Focus on conceptual understanding over exact wording.\n")
	return sb.String()
}
