// Package segment locates question markers inside raw OCR text and maps the
// text between them to the questions of a paper. Students answer questions in
// whatever order they like, so physical position in the sheet always wins over
// numeric order.
package segment

import (
	"regexp"
	"sort"
	"strings"

	"github.com/kartavya4874/AI-Exam-Checker/internal/model"
)

// DefaultAttemptThreshold is the minimum trimmed answer length, in bytes,
// for an answer to count as attempted.
const DefaultAttemptThreshold = 5

// markerPattern pairs a compiled marker regexp with the index of the capture
// group holding the question number. Patterns are tried in priority order;
// adding a new marker format means adding a row here, not new control flow.
type markerPattern struct {
	re *regexp.Regexp
}

var markerPatterns = []markerPattern{
	{regexp.MustCompile(`(?i)Q\.?\s*(\d+[a-z]?)\s*[:.)]`)},        // Q1: or Q.1)
	{regexp.MustCompile(`(?i)Question\s+(\d+[a-z]?)\s*[:.)]`)},    // Question 1:
	{regexp.MustCompile(`(?im)^[ \t]*(\d+[a-z]?)\s*[.)]`)},        // 1. or 1) at start of line
	{regexp.MustCompile(`\((\d+[a-z]?)\)`)},                       // (1) or (1a)
}

// Marker prefixes stripped from the start of an answer span. Applied in
// order; the parenthesized form is deliberately not stripped because "(1)"
// often begins a list item inside the answer itself.
var markerStrips = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^Q\.?\s*\d+[a-z]?[:.)]\s*`),
	regexp.MustCompile(`(?i)^Question\s+\d+[a-z]?[:.)]\s*`),
	regexp.MustCompile(`^\s*\d+[a-z]?[.)]\s*`),
}

// ScanQuestionMarkers finds every question-number marker in fullText and
// returns one occurrence per distinct number, ordered by byte offset
// ascending. All patterns scan the whole text; duplicates by number keep the
// first hit in scan order (pattern priority, then offset). Sorting by offset
// rather than by number is what keeps out-of-order submissions from being
// marked "not attempted".
func ScanQuestionMarkers(fullText string) []model.QuestionOccurrence {
	var found []model.QuestionOccurrence

	for _, p := range markerPatterns {
		for _, m := range p.re.FindAllStringSubmatchIndex(fullText, -1) {
			found = append(found, model.QuestionOccurrence{
				Number: strings.ToLower(fullText[m[2]:m[3]]),
				Offset: m[0],
			})
		}
	}

	seen := make(map[string]bool, len(found))
	unique := make([]model.QuestionOccurrence, 0, len(found))
	for _, occ := range found {
		if seen[occ.Number] {
			continue
		}
		seen[occ.Number] = true
		unique = append(unique, occ)
	}

	sort.SliceStable(unique, func(i, j int) bool {
		return unique[i].Offset < unique[j].Offset
	})

	return unique
}

// MapAnswers slices fullText at the given occurrences and produces exactly
// one AnswerRecord per question in questions. Markers whose number is not in
// the paper are dropped without a record (OCR noise routinely fabricates
// marker-like substrings). Questions never located get an empty record with
// PositionInSheet -1. An empty question list yields an empty result, not an
// error; malformed setup is the caller's problem to catch.
func MapAnswers(fullText string, occs []model.QuestionOccurrence, questions []model.Question, attemptThreshold int) []model.AnswerRecord {
	if len(questions) == 0 {
		return nil
	}

	questionByNumber := make(map[string]model.Question, len(questions))
	for _, q := range questions {
		questionByNumber[q.Number] = q
	}

	var answers []model.AnswerRecord
	mapped := make(map[string]bool, len(occs))

	for i, occ := range occs {
		end := len(fullText)
		if i < len(occs)-1 {
			end = occs[i+1].Offset
		}

		text := strings.TrimSpace(fullText[occ.Offset:end])
		for _, strip := range markerStrips {
			text = strip.ReplaceAllString(text, "")
		}

		q, ok := questionByNumber[occ.Number]
		if !ok {
			continue
		}

		answers = append(answers, model.AnswerRecord{
			QuestionNumber:  occ.Number,
			RawText:         text,
			IsAttempted:     len(strings.TrimSpace(text)) > attemptThreshold,
			PositionInSheet: i + 1,
			ContentType:     q.Type,
		})
		mapped[occ.Number] = true
	}

	for _, q := range questions {
		if mapped[q.Number] {
			continue
		}
		answers = append(answers, model.AnswerRecord{
			QuestionNumber:  q.Number,
			RawText:         "",
			IsAttempted:     false,
			PositionInSheet: -1,
			ContentType:     q.Type,
		})
	}

	return answers
}
