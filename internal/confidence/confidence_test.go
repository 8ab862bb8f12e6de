package confidence

import (
	"math"
	"reflect"
	"testing"

	"github.com/kartavya4874/AI-Exam-Checker/internal/model"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestEvaluationConfidence(t *testing.T) {
	tests := []struct {
		name   string
		ctype  model.ContentType
		result model.EvaluationResult
		want   float64
	}{
		{"mcq is fully trusted", model.ContentMCQ, model.EvaluationResult{}, 1.0},
		{"diagram is always suspect", model.ContentDiagram, model.EvaluationResult{}, 0.3},
		{
			"text full keyword coverage capped",
			model.ContentText,
			model.EvaluationResult{Text: &model.TextEvaluation{KeywordsMatched: 5, TotalKeywords: 5}},
			0.9,
		},
		{
			"text half coverage",
			model.ContentText,
			model.EvaluationResult{Text: &model.TextEvaluation{KeywordsMatched: 2, TotalKeywords: 4}},
			0.7,
		},
		{
			"text zero keywords uses floor",
			model.ContentText,
			model.EvaluationResult{Text: &model.TextEvaluation{KeywordsMatched: 0, TotalKeywords: 0}},
			0.5,
		},
		{
			"math all steps correct capped",
			model.ContentMath,
			model.EvaluationResult{Math: &model.MathEvaluation{CorrectSteps: 4, TotalSteps: 4}},
			0.9,
		},
		{
			"math half steps",
			model.ContentMath,
			model.EvaluationResult{Math: &model.MathEvaluation{CorrectSteps: 2, TotalSteps: 4}},
			0.75,
		},
		{
			"code perfect logic capped",
			model.ContentCode,
			model.EvaluationResult{Code: &model.CodeEvaluation{LogicScore: 10}},
			0.85,
		},
		{
			"code mid logic",
			model.ContentCode,
			model.EvaluationResult{Code: &model.CodeEvaluation{LogicScore: 5}},
			0.675,
		},
		{"unknown type", model.ContentUnknown, model.EvaluationResult{}, 0.5},
		{"text payload missing", model.ContentText, model.EvaluationResult{}, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EvaluationConfidence(tt.ctype, tt.result)
			if !almostEqual(got, tt.want) {
				t.Errorf("EvaluationConfidence() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestScoreWeights(t *testing.T) {
	// mcq with poor OCR: overall = 0.4*0.5 + 0.6*1.0 = 0.8, still flagged
	// because the OCR itself is below threshold.
	rec := Score(0.5, 1.0, model.ContentMCQ, true, DefaultOCRThreshold)

	if !almostEqual(rec.OverallConfidence, 0.8) {
		t.Errorf("overall: expected 0.8, got %v", rec.OverallConfidence)
	}
	if !rec.NeedsReview {
		t.Error("expected review flag for low OCR confidence")
	}
	if !reflect.DeepEqual(rec.Reasons, []model.ReviewReason{model.ReasonLowOCRConfidence}) {
		t.Errorf("reasons: got %v", rec.Reasons)
	}
}

func TestScoreReviewReasons(t *testing.T) {
	tests := []struct {
		name      string
		ocr, eval float64
		ctype     model.ContentType
		attempted bool
		want      []model.ReviewReason
	}{
		{
			"clean answer",
			0.95, 0.9, model.ContentText, true,
			nil,
		},
		{
			"missing answer",
			0.95, 0.9, model.ContentText, false,
			[]model.ReviewReason{model.ReasonMissingAnswer},
		},
		{
			"diagram always flagged",
			0.95, 0.9, model.ContentDiagram, true,
			[]model.ReviewReason{model.ReasonDiagramContent},
		},
		{
			"uncertain evaluation",
			0.95, 0.55, model.ContentText, true,
			[]model.ReviewReason{model.ReasonEvaluationUncertainty},
		},
		{
			"ambiguous content",
			0.95, 0.9, model.ContentMixed, true,
			[]model.ReviewReason{model.ReasonAmbiguousContent},
		},
		{
			"reasons accumulate",
			0.5, 0.3, model.ContentDiagram, false,
			[]model.ReviewReason{
				model.ReasonMissingAnswer,
				model.ReasonLowOCRConfidence,
				model.ReasonDiagramContent,
				model.ReasonEvaluationUncertainty,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := Score(tt.ocr, tt.eval, tt.ctype, tt.attempted, DefaultOCRThreshold)
			if !reflect.DeepEqual(rec.Reasons, tt.want) {
				t.Errorf("reasons: got %v, want %v", rec.Reasons, tt.want)
			}
			if rec.NeedsReview != (len(tt.want) > 0) {
				t.Errorf("needs review: got %v with reasons %v", rec.NeedsReview, rec.Reasons)
			}
		})
	}
}

func TestLevelBoundaries(t *testing.T) {
	tests := []struct {
		overall float64
		want    model.ConfidenceLevel
	}{
		{0.95, model.ConfidenceVeryHigh},
		{0.9, model.ConfidenceVeryHigh},
		{0.75, model.ConfidenceHigh},
		{0.749999, model.ConfidenceMedium},
		{0.6, model.ConfidenceMedium},
		{0.4, model.ConfidenceLow},
		{0.399999, model.ConfidenceVeryLow},
		{0, model.ConfidenceVeryLow},
	}

	for _, tt := range tests {
		if got := Level(tt.overall); got != tt.want {
			t.Errorf("Level(%v) = %q, want %q", tt.overall, got, tt.want)
		}
	}
}
