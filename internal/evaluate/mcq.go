package evaluate

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/kartavya4874/AI-Exam-Checker/internal/model"
)

// Option-extraction patterns, tried in order on the trimmed answer. Earlier
// patterns are more specific. The bare-letter fallback matches capitals only;
// a lowercase letter floating in prose is almost never a deliberate choice.
var optionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^([A-H])$`),
	regexp.MustCompile(`(?i)\(([A-H])\)`),
	regexp.MustCompile(`(?i)([A-H])\.`),
	regexp.MustCompile(`(?i)(?:OPTION|ANSWER|ANS)[:\s]*([A-H])`),
	regexp.MustCompile(`([A-H])`),
}

// MCQEvaluator grades multiple-choice answers deterministically. All-or-
// nothing marks; review is only needed when no option letter can be read
// out of the answer at all.
type MCQEvaluator struct{}

// ExtractOption pulls the selected option letter out of an answer, or ""
// when none is recognizable.
func ExtractOption(answer string) string {
	text := strings.TrimSpace(answer)
	for _, re := range optionPatterns {
		if m := re.FindStringSubmatch(text); m != nil {
			return strings.ToUpper(m[1])
		}
	}
	return ""
}

func (e *MCQEvaluator) Evaluate(_ context.Context, answer model.AnswerRecord, ref model.ModelAnswer, q model.Question) model.EvaluationResult {
	selected := ExtractOption(answer.RawText)
	correct := strings.ToUpper(strings.TrimSpace(ref.CorrectOption))

	result := model.EvaluationResult{
		MaxMarks: q.MaxMarks,
		MCQ: &model.MCQEvaluation{
			SelectedOption: selected,
			CorrectOption:  correct,
		},
	}

	if selected == "" {
		result.Feedback = "Could not determine the selected option from the answer. Manual review required."
		result.NeedsReview = true
		return result
	}

	if selected == correct {
		result.MarksAwarded = float64(q.MaxMarks)
		result.MCQ.IsCorrect = true
		result.Feedback = fmt.Sprintf("Correct. Option %s is the right answer.", selected)
	} else {
		result.Feedback = fmt.Sprintf("Incorrect. Selected option %s; the correct answer is %s.", selected, correct)
	}
	return result
}
