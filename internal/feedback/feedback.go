// Package feedback turns evaluation results into student-facing feedback,
// per answer and per sheet. All display strings go through the i18n bundle
// so reports can be produced in any configured language.
package feedback

import (
	"context"
	"math"

	"github.com/kartavya4874/AI-Exam-Checker/internal/i18n"
	"github.com/kartavya4874/AI-Exam-Checker/internal/model"
)

const questionPreviewLen = 100

// AnswerFeedback is the per-answer feedback block of a report.
type AnswerFeedback struct {
	QuestionNumber   string                   `json:"question_number"`
	QuestionText     string                   `json:"question_text"`
	MarksAwarded     float64                  `json:"marks_awarded"`
	MaxMarks         int                      `json:"max_marks"`
	Percentage       float64                  `json:"percentage"`
	EvaluationType   model.ContentType        `json:"evaluation_type"`
	OCRConfidence    float64                  `json:"ocr_confidence"`
	NeedsReview      bool                     `json:"needs_review"`
	ReviewReasons    []string                 `json:"review_reasons"`
	DetailedFeedback string                   `json:"detailed_feedback"`
	Strengths        []string                 `json:"strengths"`
	Improvements     []string                 `json:"improvements"`
	KeywordsMatched  int                      `json:"keywords_matched"`
	TotalKeywords    int                      `json:"total_keywords"`
	Suggestions      []string                 `json:"suggestions"`
	StepAnalysis     *model.MathEvaluation    `json:"step_analysis,omitempty"`
	CodeAnalysis     *model.CodeEvaluation    `json:"code_analysis,omitempty"`
	DiagramAnalysis  *model.DiagramEvaluation `json:"diagram_analysis,omitempty"`
}

// SheetSummary is the whole-sheet feedback block of a report.
type SheetSummary struct {
	StudentName           string         `json:"student_name"`
	RollNumber            string         `json:"roll_number"`
	TotalMarks            float64        `json:"total_marks"`
	MaxMarks              int            `json:"max_marks"`
	Percentage            float64        `json:"percentage"`
	OverallAssessment     string         `json:"overall_assessment"`
	PerformanceBreakdown  map[string]int `json:"performance_breakdown"`
	FlaggedForReview      int            `json:"flagged_for_review"`
	TotalQuestions        int            `json:"total_questions"`
	Strengths             []string       `json:"strengths"`
	AreasForImprovement   []string       `json:"areas_for_improvement"`
	FacultyActionRequired bool           `json:"faculty_action_required"`
}

// ForAnswer builds the feedback block for one graded answer.
func ForAnswer(ctx context.Context, q model.Question, ans model.AnswerRecord, eval model.EvaluationResult, conf model.ConfidenceRecord) AnswerFeedback {
	pct := percentage(eval.MarksAwarded, q.MaxMarks)

	fb := AnswerFeedback{
		QuestionNumber:   q.Number,
		QuestionText:     truncate(q.Text, questionPreviewLen),
		MarksAwarded:     eval.MarksAwarded,
		MaxMarks:         q.MaxMarks,
		Percentage:       pct,
		EvaluationType:   ans.ContentType,
		OCRConfidence:    ans.OCRConfidence,
		NeedsReview:      conf.NeedsReview,
		ReviewReasons:    localizeReasons(ctx, conf.Reasons),
		DetailedFeedback: eval.Feedback,
		Strengths:        []string{},
		Improvements:     []string{},
		StepAnalysis:     eval.Math,
		CodeAnalysis:     eval.Code,
		DiagramAnalysis:  eval.Diagram,
	}

	if eval.Text != nil {
		fb.KeywordsMatched = eval.Text.KeywordsMatched
		fb.TotalKeywords = eval.Text.TotalKeywords
		fb.Strengths = eval.Text.Strengths
		fb.Improvements = eval.Text.Improvements
	}

	fb.Suggestions = suggestions(ctx, pct, fb.KeywordsMatched, fb.TotalKeywords)
	return fb
}

func suggestions(ctx context.Context, pct float64, keywordsMatched, totalKeywords int) []string {
	var out []string
	switch {
	case pct < 40:
		out = append(out, i18n.T(ctx, "SuggestReviewFundamentals"), i18n.T(ctx, "SuggestPracticeSimilar"))
	case pct < 70:
		out = append(out, i18n.T(ctx, "SuggestMoreDetail"), i18n.T(ctx, "SuggestCoverConcepts"))
	default:
		out = append(out, i18n.T(ctx, "SuggestExcellent"))
	}

	if totalKeywords > 0 && float64(keywordsMatched) < float64(totalKeywords)*0.5 {
		out = append(out, i18n.Td(ctx, "SuggestKeywordCoverage", map[string]any{
			"Matched": keywordsMatched,
			"Total":   totalKeywords,
		}))
	}
	return out
}

func localizeReasons(ctx context.Context, reasons []model.ReviewReason) []string {
	out := make([]string, 0, len(reasons))
	for _, r := range reasons {
		out = append(out, i18n.T(ctx, reasonMsgID(r)))
	}
	return out
}

func reasonMsgID(r model.ReviewReason) string {
	switch r {
	case model.ReasonLowOCRConfidence:
		return "ReasonLowOCRConfidence"
	case model.ReasonDiagramContent:
		return "ReasonDiagramContent"
	case model.ReasonAmbiguousContent:
		return "ReasonAmbiguousContent"
	case model.ReasonEvaluationUncertainty:
		return "ReasonEvaluationUncertainty"
	case model.ReasonMissingAnswer:
		return "ReasonMissingAnswer"
	default:
		return string(r)
	}
}

// contentTypes fixes the iteration order for per-type aggregation so reports
// are stable across runs.
var contentTypes = []model.ContentType{
	model.ContentText, model.ContentMath, model.ContentCode,
	model.ContentDiagram, model.ContentMCQ, model.ContentMixed, model.ContentUnknown,
}

// ForSheet builds the whole-sheet summary from its per-answer feedback.
func ForSheet(ctx context.Context, exam model.StudentExam, answers []AnswerFeedback) SheetSummary {
	pct := percentage(exam.TotalObtained, exam.TotalMax)

	breakdown := map[string]int{"excellent": 0, "good": 0, "average": 0, "poor": 0}
	flagged := 0
	for _, fb := range answers {
		switch {
		case fb.Percentage >= 80:
			breakdown["excellent"]++
		case fb.Percentage >= 60:
			breakdown["good"]++
		case fb.Percentage >= 40:
			breakdown["average"]++
		default:
			breakdown["poor"]++
		}
		if fb.NeedsReview {
			flagged++
		}
	}

	return SheetSummary{
		StudentName:           exam.StudentName,
		RollNumber:            exam.RollNumber,
		TotalMarks:            exam.TotalObtained,
		MaxMarks:              exam.TotalMax,
		Percentage:            pct,
		OverallAssessment:     assessment(ctx, pct),
		PerformanceBreakdown:  breakdown,
		FlaggedForReview:      flagged,
		TotalQuestions:        len(answers),
		Strengths:             identifyStrengths(ctx, answers),
		AreasForImprovement:   identifyImprovements(ctx, answers),
		FacultyActionRequired: flagged > 0,
	}
}

func assessment(ctx context.Context, pct float64) string {
	switch {
	case pct >= 80:
		return i18n.T(ctx, "AssessExcellent")
	case pct >= 60:
		return i18n.T(ctx, "AssessGood")
	case pct >= 40:
		return i18n.T(ctx, "AssessAverage")
	default:
		return i18n.T(ctx, "AssessNeedsImprovement")
	}
}

func identifyStrengths(ctx context.Context, answers []AnswerFeedback) []string {
	var strengths []string

	highScoring := 0
	for _, fb := range answers {
		if fb.Percentage >= 80 {
			highScoring++
		}
	}
	if float64(highScoring) > float64(len(answers))*0.5 {
		strengths = append(strengths, i18n.T(ctx, "StrengthOverall"))
	}

	for _, ctype := range contentTypes {
		if avg, ok := typeAverage(answers, ctype); ok && avg >= 75 {
			strengths = append(strengths, i18n.Td(ctx, "StrengthType", map[string]any{"Type": string(ctype)}))
		}
	}

	return capAt(strengths, 3)
}

func identifyImprovements(ctx context.Context, answers []AnswerFeedback) []string {
	var improvements []string

	lowScoring := 0
	for _, fb := range answers {
		if fb.Percentage < 50 {
			lowScoring++
		}
	}
	if lowScoring > 0 {
		improvements = append(improvements, i18n.Tp(ctx, "ImproveFocusQuestions", lowScoring))
	}

	matched, total := 0, 0
	for _, fb := range answers {
		matched += fb.KeywordsMatched
		total += fb.TotalKeywords
	}
	if total > 0 && float64(matched)/float64(total) < 0.6 {
		improvements = append(improvements, i18n.T(ctx, "ImproveKeywordCoverage"))
	}

	for _, ctype := range contentTypes {
		if avg, ok := typeAverage(answers, ctype); ok && avg < 50 {
			improvements = append(improvements, i18n.Td(ctx, "ImproveType", map[string]any{"Type": string(ctype)}))
		}
	}

	return capAt(improvements, 3)
}

func typeAverage(answers []AnswerFeedback, ctype model.ContentType) (float64, bool) {
	var sum float64
	n := 0
	for _, fb := range answers {
		if fb.EvaluationType == ctype {
			sum += fb.Percentage
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

func percentage(obtained float64, max int) float64 {
	if max < 1 {
		max = 1
	}
	return math.Round(obtained/float64(max)*100*10) / 10
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

func capAt(items []string, n int) []string {
	if len(items) > n {
		return items[:n]
	}
	return items
}
