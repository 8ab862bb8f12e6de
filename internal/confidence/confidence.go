// Package confidence derives a review decision for each graded answer from
// OCR quality and evaluation certainty. Scoring is pure arithmetic over the
// evaluation payload; nothing here talks to a model or a store.
package confidence

import (
	"github.com/kartavya4874/AI-Exam-Checker/internal/model"
)

// DefaultOCRThreshold is the OCR confidence below which an answer is routed
// to manual review.
const DefaultOCRThreshold = 0.70

// EvaluationConfidence computes how much the grading itself can be trusted,
// per content type, bounded to [0,1]. MCQ matching is deterministic so it is
// fully trusted; diagrams are always suspect because OCR cannot see spatial
// structure.
func EvaluationConfidence(ctype model.ContentType, result model.EvaluationResult) float64 {
	switch ctype {
	case model.ContentMCQ:
		return 1.0
	case model.ContentDiagram:
		return 0.3
	case model.ContentText:
		if result.Text == nil {
			return 0.5
		}
		ratio := float64(result.Text.KeywordsMatched) / float64(max(result.Text.TotalKeywords, 1))
		return min(0.9, 0.5+0.4*ratio)
	case model.ContentMath:
		if result.Math == nil {
			return 0.5
		}
		ratio := float64(result.Math.CorrectSteps) / float64(max(result.Math.TotalSteps, 1))
		return min(0.9, 0.6+0.3*ratio)
	case model.ContentCode:
		if result.Code == nil {
			return 0.5
		}
		return min(0.85, 0.5+0.35*(result.Code.LogicScore/10))
	default:
		return 0.5
	}
}

// Score combines OCR and evaluation confidence into an overall score and
// the review decision. Weights are fixed: OCR quality is necessary but
// evaluation certainty dominates. Review reasons are cumulative; one answer
// can carry several.
func Score(ocrConfidence, evalConfidence float64, ctype model.ContentType, isAttempted bool, threshold float64) model.ConfidenceRecord {
	overall := 0.4*ocrConfidence + 0.6*evalConfidence

	var reasons []model.ReviewReason
	if !isAttempted {
		reasons = append(reasons, model.ReasonMissingAnswer)
	}
	if ocrConfidence < threshold {
		reasons = append(reasons, model.ReasonLowOCRConfidence)
	}
	if ctype == model.ContentDiagram {
		reasons = append(reasons, model.ReasonDiagramContent)
	}
	if evalConfidence < 0.6 {
		reasons = append(reasons, model.ReasonEvaluationUncertainty)
	}
	if ctype == model.ContentMixed || ctype == model.ContentUnknown {
		reasons = append(reasons, model.ReasonAmbiguousContent)
	}

	return model.ConfidenceRecord{
		OCRConfidence:        ocrConfidence,
		EvaluationConfidence: evalConfidence,
		OverallConfidence:    overall,
		Level:                Level(overall),
		NeedsReview:          len(reasons) > 0,
		Reasons:              reasons,
	}
}

// Level buckets an overall confidence score for display. Tiers are closed on
// their lower bound, so exactly 0.75 is High.
func Level(overall float64) model.ConfidenceLevel {
	switch {
	case overall >= 0.9:
		return model.ConfidenceVeryHigh
	case overall >= 0.75:
		return model.ConfidenceHigh
	case overall >= 0.6:
		return model.ConfidenceMedium
	case overall >= 0.4:
		return model.ConfidenceLow
	default:
		return model.ConfidenceVeryLow
	}
}
