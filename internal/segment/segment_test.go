package segment

import (
	"reflect"
	"strings"
	"testing"

	"github.com/kartavya4874/AI-Exam-Checker/internal/model"
)

func question(number string, ctype model.ContentType) model.Question {
	return model.Question{Number: number, Text: "question " + number, MaxMarks: 10, Type: ctype}
}

func TestScanQuestionMarkersPhysicalOrder(t *testing.T) {
	// Markers inserted in decreasing numeric order; the scan must return
	// them in offset order, not number order.
	var sb strings.Builder
	var wantOffsets []int
	for _, num := range []string{"5", "3", "1"} {
		wantOffsets = append(wantOffsets, sb.Len())
		sb.WriteString("Q" + num + ": some answer content for this question\n")
	}

	occs := ScanQuestionMarkers(sb.String())
	if len(occs) != 3 {
		t.Fatalf("expected 3 occurrences, got %d: %v", len(occs), occs)
	}

	wantNumbers := []string{"5", "3", "1"}
	for i, occ := range occs {
		if occ.Number != wantNumbers[i] {
			t.Errorf("occurrence %d: expected number %q, got %q", i, wantNumbers[i], occ.Number)
		}
		if occ.Offset != wantOffsets[i] {
			t.Errorf("occurrence %d: expected offset %d, got %d", i, wantOffsets[i], occ.Offset)
		}
	}
}

func TestScanQuestionMarkersPatterns(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"q prefix", "Q1: answer", []string{"1"}},
		{"q prefix with dot", "Q.2) answer", []string{"2"}},
		{"question word", "Question 3: answer", []string{"3"}},
		{"line leading", "intro line\n4. answer", []string{"4"}},
		{"parenthesized", "text before (5) answer", []string{"5"}},
		{"subpart letter", "Q2a: answer", []string{"2a"}},
		{"mixed styles", "Q1: first\nQuestion 2: second\n3. third", []string{"1", "2", "3"}},
		{"no markers", "plain prose with no numbering at all", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			occs := ScanQuestionMarkers(tt.text)
			var got []string
			for _, o := range occs {
				got = append(got, o.Number)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("expected numbers %v, got %v", tt.want, got)
			}
		})
	}
}

func TestScanQuestionMarkersDeduplicates(t *testing.T) {
	// The same number seen by two patterns must yield one occurrence,
	// keeping the first hit in scan order.
	text := "Q1: real answer start\nmore of the answer\n1. a list item inside it"
	occs := ScanQuestionMarkers(text)
	if len(occs) != 1 {
		t.Fatalf("expected 1 occurrence after dedupe, got %d: %v", len(occs), occs)
	}
	if occs[0].Offset != 0 {
		t.Errorf("expected first occurrence kept (offset 0), got offset %d", occs[0].Offset)
	}
}

func TestMapAnswersOnePerQuestion(t *testing.T) {
	questions := []model.Question{
		question("1", model.ContentText),
		question("2", model.ContentText),
		question("3", model.ContentMath),
	}
	text := "Q1: The mitochondria is the powerhouse of the cell.\n" +
		"Q3: We solve by substitution and simplify both sides."

	occs := ScanQuestionMarkers(text)
	answers := MapAnswers(text, occs, questions, DefaultAttemptThreshold)

	if len(answers) != len(questions) {
		t.Fatalf("expected %d records, got %d", len(questions), len(answers))
	}

	byNumber := make(map[string]model.AnswerRecord)
	for _, a := range answers {
		byNumber[a.QuestionNumber] = a
	}

	q1 := byNumber["1"]
	if !q1.IsAttempted {
		t.Error("Q1 should be attempted")
	}
	if q1.PositionInSheet != 1 {
		t.Errorf("Q1 position: expected 1, got %d", q1.PositionInSheet)
	}
	if strings.HasPrefix(q1.RawText, "Q1") {
		t.Errorf("marker not stripped from answer text: %q", q1.RawText)
	}
	if !strings.HasPrefix(q1.RawText, "The mitochondria") {
		t.Errorf("unexpected answer text: %q", q1.RawText)
	}

	q2 := byNumber["2"]
	if q2.IsAttempted {
		t.Error("Q2 should not be attempted")
	}
	if q2.PositionInSheet != -1 {
		t.Errorf("Q2 position: expected -1, got %d", q2.PositionInSheet)
	}
	if q2.RawText != "" {
		t.Errorf("Q2 raw text: expected empty, got %q", q2.RawText)
	}

	if byNumber["3"].ContentType != model.ContentMath {
		t.Errorf("Q3 content type: expected math, got %q", byNumber["3"].ContentType)
	}
}

func TestMapAnswersDropsUnknownMarkers(t *testing.T) {
	questions := []model.Question{question("1", model.ContentText)}
	// Q9 looks like a marker but is not in the paper; it must not produce
	// a record, and it still ends the preceding answer's span.
	text := "Q1: a perfectly reasonable answer\nQ9: OCR noise pretending to be a question"

	occs := ScanQuestionMarkers(text)
	answers := MapAnswers(text, occs, questions, DefaultAttemptThreshold)

	if len(answers) != 1 {
		t.Fatalf("expected 1 record, got %d", len(answers))
	}
	if strings.Contains(answers[0].RawText, "OCR noise") {
		t.Errorf("answer span should end at the next marker: %q", answers[0].RawText)
	}
}

func TestMapAnswersOutOfOrderSheet(t *testing.T) {
	questions := []model.Question{
		question("1", model.ContentText),
		question("2", model.ContentText),
		question("3", model.ContentText),
	}
	// Student answered Q3 first, then Q1, then Q2.
	text := "Q3: third question answered first with plenty of words\n" +
		"Q1: first question answered second with plenty of words\n" +
		"Q2: second question answered last with plenty of words"

	occs := ScanQuestionMarkers(text)
	answers := MapAnswers(text, occs, questions, DefaultAttemptThreshold)

	positions := make(map[string]int)
	for _, a := range answers {
		positions[a.QuestionNumber] = a.PositionInSheet
		if !a.IsAttempted {
			t.Errorf("Q%s should be attempted", a.QuestionNumber)
		}
		if !strings.Contains(a.RawText, "question answered") {
			t.Errorf("Q%s got wrong span: %q", a.QuestionNumber, a.RawText)
		}
	}

	if positions["3"] != 1 || positions["1"] != 2 || positions["2"] != 3 {
		t.Errorf("expected physical positions 3→1, 1→2, 2→3; got %v", positions)
	}
}

func TestMapAnswersAttemptThreshold(t *testing.T) {
	questions := []model.Question{question("1", model.ContentText)}
	tests := []struct {
		name      string
		text      string
		attempted bool
	}{
		{"short answer", "Q1: yes", false},
		{"exactly at threshold", "Q1: abcde", false},
		{"just over threshold", "Q1: abcdef", true},
		{"whitespace only", "Q1:    \n\t  ", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			occs := ScanQuestionMarkers(tt.text)
			answers := MapAnswers(tt.text, occs, questions, DefaultAttemptThreshold)
			if len(answers) != 1 {
				t.Fatalf("expected 1 record, got %d", len(answers))
			}
			if answers[0].IsAttempted != tt.attempted {
				t.Errorf("attempted: expected %v, got %v (raw %q)", tt.attempted, answers[0].IsAttempted, answers[0].RawText)
			}
		})
	}
}

func TestMapAnswersEmptyQuestions(t *testing.T) {
	text := "Q1: some answer"
	occs := ScanQuestionMarkers(text)
	answers := MapAnswers(text, occs, nil, DefaultAttemptThreshold)
	if len(answers) != 0 {
		t.Fatalf("expected empty result for empty question list, got %d records", len(answers))
	}
}

func TestMapAnswersIdempotent(t *testing.T) {
	questions := []model.Question{
		question("1", model.ContentText),
		question("2", model.ContentMCQ),
	}
	text := "Q2: (B)\nQ1: a longer descriptive answer about the topic"

	occs := ScanQuestionMarkers(text)
	first := MapAnswers(text, occs, questions, DefaultAttemptThreshold)
	second := MapAnswers(text, occs, questions, DefaultAttemptThreshold)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("re-running MapAnswers changed the output:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestExtractHeader(t *testing.T) {
	tests := []struct {
		name string
		text string
		want model.HeaderInfo
	}{
		{
			"full header",
			"Name: John Smith\nRoll No: CS2021001\nCourse: CS101\nDate: 12/05/2024",
			model.HeaderInfo{RollNumber: "CS2021001", Name: "John Smith", CourseCode: "CS101", Date: "12/05/2024"},
		},
		{
			"bare roll pattern",
			"EE2019042 attempting final exam",
			model.HeaderInfo{RollNumber: "EE2019042", Name: "UNKNOWN", CourseCode: "EE2019042", Date: ""},
		},
		{
			"nothing recognizable",
			"smudged illegible header",
			model.HeaderInfo{RollNumber: "UNKNOWN", Name: "UNKNOWN", CourseCode: "UNKNOWN", Date: ""},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractHeader(tt.text)
			if got != tt.want {
				t.Errorf("ExtractHeader() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
