package evaluate

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/kartavya4874/AI-Exam-Checker/internal/model"
)

var (
	arrowRe      = regexp.MustCompile(`[→←↑↓⟶⟵⟷]`)
	labelSplitRe = regexp.MustCompile(`[\n,;]`)
)

// DiagramEvaluator grades diagram answers by matching OCR-extracted labels
// against the question's required components. Spatial structure is invisible
// to OCR, so the result is always flagged for manual review regardless of how
// well the labels match.
type DiagramEvaluator struct{}

// ExtractLabels splits OCR text from a diagram region into candidate labels.
// Arrow glyphs are treated as separators-in-spirit and removed; fragments of
// one character or less are OCR debris and dropped.
func ExtractLabels(answer string) []string {
	cleaned := arrowRe.ReplaceAllString(answer, " ")
	var labels []string
	for _, frag := range labelSplitRe.Split(cleaned, -1) {
		frag = strings.TrimSpace(frag)
		if len(frag) > 1 {
			labels = append(labels, frag)
		}
	}
	return labels
}

func (e *DiagramEvaluator) Evaluate(_ context.Context, answer model.AnswerRecord, ref model.ModelAnswer, q model.Question) model.EvaluationResult {
	labels := ExtractLabels(answer.RawText)

	var matched, missing []string
	for _, comp := range ref.RequiredComponents {
		if componentPresent(comp, labels) {
			matched = append(matched, comp)
		} else {
			missing = append(missing, comp)
		}
	}

	matchPct := 0.0
	if len(ref.RequiredComponents) > 0 {
		matchPct = float64(len(matched)) / float64(len(ref.RequiredComponents)) * 100
	}

	marks := math.Round(matchPct/100*float64(q.MaxMarks)*10) / 10

	return model.EvaluationResult{
		MarksAwarded: marks,
		MaxMarks:     q.MaxMarks,
		Feedback:     diagramFeedback(matchPct, missing),
		NeedsReview:  true,
		Diagram: &model.DiagramEvaluation{
			ExtractedLabels:   labels,
			MatchedComponents: matched,
			MissingComponents: missing,
			MatchPercentage:   matchPct,
		},
	}
}

// componentPresent matches a required component against extracted labels by
// case-insensitive substring in either direction, so "CPU" matches the label
// "CPU unit" and "central processing unit" matches the component "processing".
func componentPresent(component string, labels []string) bool {
	comp := strings.ToLower(component)
	for _, l := range labels {
		label := strings.ToLower(l)
		if strings.Contains(label, comp) || strings.Contains(comp, label) {
			return true
		}
	}
	return false
}

func diagramFeedback(matchPct float64, missing []string) string {
	switch {
	case matchPct >= 80:
		return "Most required components are labeled in the diagram. Manual review is required to verify the diagram's structure."
	case matchPct >= 50:
		return fmt.Sprintf("Several required components are present but some are missing: %s. Manual review is required to verify the diagram's structure.", strings.Join(missing, ", "))
	default:
		return fmt.Sprintf("Few required components were found in the diagram. Missing: %s. Manual review is required to verify the diagram's structure.", strings.Join(missing, ", "))
	}
}
