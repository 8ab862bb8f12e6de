package paper

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/kartavya4874/AI-Exam-Checker/internal/model"
)

type stubGenerator struct {
	reply string
	err   error
}

func (g *stubGenerator) Generate(_ context.Context, _ string, _ int) (string, error) {
	return g.reply, g.err
}

func TestExtractQuestions(t *testing.T) {
	text := "Q1: Explain photosynthesis in detail. [10 marks]\n" +
		"Q2: Solve the quadratic equation x^2 - 4 = 0. (5 marks)\n" +
		"Q3: Draw and label the human heart. [8 marks]"

	questions := ExtractQuestions(text)
	if len(questions) != 3 {
		t.Fatalf("expected 3 questions, got %d: %+v", len(questions), questions)
	}

	q1 := questions[0]
	if q1.Number != "1" {
		t.Errorf("number: expected 1, got %q", q1.Number)
	}
	if q1.MaxMarks != 10 {
		t.Errorf("marks: expected 10, got %d", q1.MaxMarks)
	}
	if q1.Type != model.ContentText {
		t.Errorf("type: expected text, got %q", q1.Type)
	}
	if q1.BloomLevel != model.BloomUnderstand {
		t.Errorf("bloom: expected Understand, got %q", q1.BloomLevel)
	}

	if questions[1].Type != model.ContentMath {
		t.Errorf("Q2 type: expected math, got %q", questions[1].Type)
	}
	if questions[2].Type != model.ContentDiagram {
		t.Errorf("Q3 type: expected diagram, got %q", questions[2].Type)
	}
}

func TestExtractQuestionsSkipsShortBlocks(t *testing.T) {
	questions := ExtractQuestions("Q1: ok\nQ2: a real question about biology")
	if len(questions) != 1 {
		t.Fatalf("expected short block skipped, got %d questions", len(questions))
	}
	if questions[0].Number != "2" {
		t.Errorf("expected question 2 kept, got %q", questions[0].Number)
	}
}

func TestExtractMarks(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"Explain X. [10 marks]", 10},
		{"Explain X. (3 marks)", 3},
		{"Explain X. Marks: 7", 7},
		{"Explain X for 4 marks", 4},
		{"Explain X. [1 mark]", 1},
		{"Explain X with no allocation", DefaultMarks},
	}
	for _, tt := range tests {
		if got := ExtractMarks(tt.text); got != tt.want {
			t.Errorf("ExtractMarks(%q) = %d, want %d", tt.text, got, tt.want)
		}
	}
}

func TestExtractBloomLevel(t *testing.T) {
	tests := []struct {
		text string
		want model.BloomLevel
	}{
		{"Define the term osmosis", model.BloomRemember},
		{"Explain how rainfall forms", model.BloomUnderstand},
		{"Calculate the resultant force", model.BloomApply},
		{"Differentiate between mitosis and meiosis", model.BloomAnalyze},
		{"Justify your choice of data structure", model.BloomEvaluate},
		{"Design a traffic light controller", model.BloomCreate},
		{"Something with no verbs we know", model.BloomUnderstand},
	}
	for _, tt := range tests {
		if got := ExtractBloomLevel(tt.text); got != tt.want {
			t.Errorf("ExtractBloomLevel(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}

func TestDetectQuestionType(t *testing.T) {
	tests := []struct {
		text string
		want model.ContentType
	}{
		{"Which gas is most abundant? (a) O2 (b) N2 (c) CO2", model.ContentMCQ},
		{"Draw the circuit diagram", model.ContentDiagram},
		{"Write a program to reverse a string", model.ContentCode},
		{"Solve for x: 2x + 3 = 9", model.ContentMath},
		{"Explain the causes of World War I", model.ContentText},
	}
	for _, tt := range tests {
		if got := DetectQuestionType(tt.text); got != tt.want {
			t.Errorf("DetectQuestionType(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}

func TestExtractModelAnswers(t *testing.T) {
	questions := []model.Question{
		{ID: 11, Number: "1", Text: "q1", MaxMarks: 10},
		{ID: 12, Number: "2", Text: "q2", MaxMarks: 5},
	}
	text := "Ans 1: Photosynthesis converts light into chemical energy.\n" +
		"Ans 2: x equals two.\n" +
		"Ans 9: an answer for a question that does not exist"

	answers := ExtractModelAnswers(text, questions)
	if len(answers) != 2 {
		t.Fatalf("expected 2 answers, got %d: %+v", len(answers), answers)
	}
	if answers[0].QuestionID != 11 || answers[0].QuestionNumber != "1" {
		t.Errorf("answer 1 pairing: %+v", answers[0])
	}
	if answers[1].Text != "x equals two." {
		t.Errorf("answer 2 text: %q", answers[1].Text)
	}
}

func TestParseKeywordList(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  []string
	}{
		{
			"clean list",
			"photosynthesis, chlorophyll, glucose",
			[]string{"photosynthesis", "chlorophyll", "glucose"},
		},
		{
			"drops chatter",
			"Sure! Here are the keywords you asked for based on the model answer provided above, osmosis, membrane",
			[]string{"osmosis", "membrane"},
		},
		{
			"caps at ten",
			"a1, a2, a3, a4, a5, a6, a7, a8, a9, a10, a11, a12",
			[]string{"a1", "a2", "a3", "a4", "a5", "a6", "a7", "a8", "a9", "a10"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseKeywordList(tt.reply)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("parseKeywordList() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCreateMarkingScheme(t *testing.T) {
	t.Run("parses json reply", func(t *testing.T) {
		gen := &stubGenerator{reply: `Here is the scheme:
{"full_marks_criteria": "all concepts", "partial_credit": [{"marks": 7, "criteria": "most concepts"}], "deductions": ["factual errors"]}`}
		p := NewProcessor(gen)

		scheme := p.CreateMarkingScheme(context.Background(), "answer", []string{"k1"}, 10, "question")
		if scheme.FullMarksCriteria != "all concepts" {
			t.Errorf("criteria: %q", scheme.FullMarksCriteria)
		}
		if len(scheme.PartialCredit) != 1 || scheme.PartialCredit[0].Marks != 7 {
			t.Errorf("partial credit: %+v", scheme.PartialCredit)
		}
	})

	t.Run("falls back on junk reply", func(t *testing.T) {
		p := NewProcessor(&stubGenerator{reply: "I cannot produce JSON today."})
		scheme := p.CreateMarkingScheme(context.Background(), "answer", []string{"k1", "k2"}, 10, "question")
		if len(scheme.PartialCredit) != 2 {
			t.Fatalf("expected fallback tiers, got %+v", scheme.PartialCredit)
		}
		if scheme.PartialCredit[0].Marks != 7 || scheme.PartialCredit[1].Marks != 5 {
			t.Errorf("fallback tiers: %+v", scheme.PartialCredit)
		}
	})

	t.Run("falls back on generator error", func(t *testing.T) {
		p := NewProcessor(&stubGenerator{err: errors.New("down")})
		scheme := p.CreateMarkingScheme(context.Background(), "answer", nil, 8, "question")
		if scheme.FullMarksCriteria == "" {
			t.Error("expected fallback scheme")
		}
	})
}

func TestProcessAnswerKey(t *testing.T) {
	questions := []model.Question{
		{ID: 1, Number: "1", Text: "Which option? (a) x (b) y", MaxMarks: 1, Type: model.ContentMCQ},
		{ID: 2, Number: "2", Text: "Draw the water cycle", MaxMarks: 5, Type: model.ContentDiagram},
	}
	text := "Ans 1: (B)\nAns 2: evaporation, condensation, precipitation"

	p := NewProcessor(&stubGenerator{reply: "evaporation, condensation"})
	answers := p.ProcessAnswerKey(context.Background(), text, questions)
	if len(answers) != 2 {
		t.Fatalf("expected 2 answers, got %d", len(answers))
	}
	if answers[0].CorrectOption != "B" {
		t.Errorf("mcq correct option: %q", answers[0].CorrectOption)
	}
	if len(answers[1].RequiredComponents) != 3 {
		t.Errorf("diagram components: %v", answers[1].RequiredComponents)
	}
}
