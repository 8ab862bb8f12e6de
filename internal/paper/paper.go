// Package paper turns OCR text of question papers and answer keys into
// structured questions and model answers. Marks, Bloom level, and question
// type come from local pattern matching; keywords and marking schemes are
// generated through the grading model.
package paper

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/kartavya4874/AI-Exam-Checker/internal/evaluate"
	"github.com/kartavya4874/AI-Exam-Checker/internal/model"
)

// DefaultMarks is assumed when a question states no marks allocation.
const DefaultMarks = 5

// minQuestionLength filters out marker matches whose trailing text is too
// short to be a real question.
const minQuestionLength = 5

// Question-start marker families, tried in order; the first family that
// matches anything wins for the whole paper. Mixing numbering styles within
// one paper is not supported.
var questionMarkers = []*regexp.Regexp{
	regexp.MustCompile(`(?i)Q\.?\s*(\d+[a-z]?)\s*[:.)]`),
	regexp.MustCompile(`(?i)Question\s+(\d+[a-z]?)\s*[:.)]`),
	regexp.MustCompile(`(?im)^(\d+[a-z]?)\s*[.)]`),
}

// Answer-key marker families. "A" alone is accepted as an answer prefix, so
// this family must run before the bare-number one.
var answerMarkers = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:Ans|Answer|A)\.?\s*(\d+[a-z]?)\s*[:.)]`),
	regexp.MustCompile(`(?i)Q\.?\s*(\d+[a-z]?)\s*[:.)]`),
	regexp.MustCompile(`(?im)^(\d+[a-z]?)\s*[.)]`),
}

var marksPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\[(\d+)\s*marks?\]`),
	regexp.MustCompile(`(?i)\((\d+)\s*marks?\)`),
	regexp.MustCompile(`(?i)Marks?\s*[:\-]\s*(\d+)`),
	regexp.MustCompile(`(?i)(\d+)\s*marks?`),
}

// Bloom classification table. Ordered: an explicit level name in the question
// beats keyword inference, and earlier levels win ties.
var bloomLevels = []struct {
	level    model.BloomLevel
	keywords []string
}{
	{model.BloomRemember, []string{"define", "list", "name", "identify", "recall", "state", "what is"}},
	{model.BloomUnderstand, []string{"explain", "describe", "summarize", "interpret", "discuss", "compare"}},
	{model.BloomApply, []string{"apply", "demonstrate", "calculate", "solve", "use", "implement"}},
	{model.BloomAnalyze, []string{"analyze", "examine", "differentiate", "distinguish", "investigate"}},
	{model.BloomEvaluate, []string{"evaluate", "assess", "justify", "critique", "argue", "defend"}},
	{model.BloomCreate, []string{"design", "create", "develop", "formulate", "construct", "propose"}},
}

var mcqOptionsRe = regexp.MustCompile(`(?i)\(a\)|\(b\)|\(c\)|\(d\)`)

// ExtractQuestions parses a question paper's OCR text into questions.
func ExtractQuestions(ocrText string) []model.Question {
	var questions []model.Question
	for _, block := range splitNumberedBlocksOrdered(ocrText, questionMarkers) {
		if len(block.text) < minQuestionLength {
			continue
		}
		questions = append(questions, model.Question{
			Number:     block.number,
			Text:       block.text,
			MaxMarks:   ExtractMarks(block.text),
			Type:       DetectQuestionType(block.text),
			BloomLevel: ExtractBloomLevel(block.text),
		})
	}
	return questions
}

// ExtractMarks reads the marks allocation out of a question's text, falling
// back to DefaultMarks when nothing matches.
func ExtractMarks(questionText string) int {
	for _, re := range marksPatterns {
		if m := re.FindStringSubmatch(questionText); m != nil {
			var n int
			fmt.Sscanf(m[1], "%d", &n)
			return n
		}
	}
	return DefaultMarks
}

// ExtractBloomLevel classifies a question on Bloom's taxonomy from its verb
// phrasing. Defaults to Understand.
func ExtractBloomLevel(questionText string) model.BloomLevel {
	lower := strings.ToLower(questionText)

	for _, bl := range bloomLevels {
		if strings.Contains(lower, strings.ToLower(string(bl.level))) {
			return bl.level
		}
	}
	for _, bl := range bloomLevels {
		for _, kw := range bl.keywords {
			if strings.Contains(lower, kw) {
				return bl.level
			}
		}
	}
	return model.BloomUnderstand
}

// DetectQuestionType infers the expected answer type from a question's
// wording. Option lists mean MCQ; otherwise indicator words decide, with
// plain text as the default.
func DetectQuestionType(questionText string) model.ContentType {
	lower := strings.ToLower(questionText)

	if mcqOptionsRe.MatchString(lower) {
		return model.ContentMCQ
	}
	if containsAny(lower, "draw", "diagram", "sketch", "illustrate", "label") {
		return model.ContentDiagram
	}
	if containsAny(lower, "program", "code", "algorithm", "function", "class") {
		return model.ContentCode
	}
	if containsAny(lower, "solve", "calculate", "prove", "derive", "integrate") {
		return model.ContentMath
	}
	return model.ContentText
}

// ExtractModelAnswers parses an answer key's OCR text and pairs each answer
// block with its question. Blocks whose number matches no question are
// dropped.
func ExtractModelAnswers(ocrText string, questions []model.Question) []model.ModelAnswer {
	byNumber := make(map[string]model.Question, len(questions))
	for _, q := range questions {
		byNumber[q.Number] = q
	}

	var answers []model.ModelAnswer
	for _, block := range splitNumberedBlocksOrdered(ocrText, answerMarkers) {
		q, ok := byNumber[block.number]
		if !ok {
			continue
		}
		answers = append(answers, model.ModelAnswer{
			QuestionID:     q.ID,
			QuestionNumber: block.number,
			Text:           block.text,
			Keywords:       []string{},
		})
	}
	return answers
}

type numberedBlock struct {
	number string
	text   string
}

// splitNumberedBlocksOrdered slices text into numbered blocks using the first
// marker family that matches. Each block runs from the end of its marker to
// the start of the next one.
func splitNumberedBlocksOrdered(text string, families []*regexp.Regexp) []numberedBlock {
	for _, re := range families {
		locs := re.FindAllStringSubmatchIndex(text, -1)
		if len(locs) == 0 {
			continue
		}
		blocks := make([]numberedBlock, 0, len(locs))
		for i, loc := range locs {
			end := len(text)
			if i+1 < len(locs) {
				end = locs[i+1][0]
			}
			blocks = append(blocks, numberedBlock{
				number: strings.ToLower(text[loc[2]:loc[3]]),
				text:   strings.TrimSpace(text[loc[1]:end]),
			})
		}
		return blocks
	}
	return nil
}

func containsAny(s string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

// Processor enriches extracted model answers with generated keywords and
// marking schemes.
type Processor struct {
	gen evaluate.Generator
}

// NewProcessor creates an answer key processor backed by the given generator.
func NewProcessor(gen evaluate.Generator) *Processor {
	return &Processor{gen: gen}
}

// ExtractKeywords asks the model for the concepts a full-marks answer must
// mention. The reply is a comma-separated list; anything suspiciously long is
// discarded as chatter and at most ten keywords are kept.
func (p *Processor) ExtractKeywords(ctx context.Context, answerText, questionText string) ([]string, error) {
	prompt := buildKeywordPrompt(answerText, questionText)
	reply, err := p.gen.Generate(ctx, prompt, 500)
	if err != nil {
		return nil, fmt.Errorf("keyword extraction: %w", err)
	}
	return parseKeywordList(reply), nil
}

func parseKeywordList(reply string) []string {
	var keywords []string
	for _, k := range strings.Split(reply, ",") {
		k = strings.TrimSpace(k)
		if k == "" || len(k) >= 50 {
			continue
		}
		keywords = append(keywords, k)
		if len(keywords) == 10 {
			break
		}
	}
	return keywords
}

var jsonObjectRe = regexp.MustCompile(`(?s)\{.*\}`)

// CreateMarkingScheme asks the model for a marks distribution. A reply
// without usable JSON falls back to a generic coverage-based scheme rather
// than failing; answer key import must never abort on one bad reply.
func (p *Processor) CreateMarkingScheme(ctx context.Context, answerText string, keywords []string, maxMarks int, questionText string) model.MarkingScheme {
	prompt := buildSchemePrompt(answerText, keywords, maxMarks, questionText)
	reply, err := p.gen.Generate(ctx, prompt, 1000)
	if err == nil {
		if raw := jsonObjectRe.FindString(reply); raw != "" {
			var scheme model.MarkingScheme
			if jsonErr := json.Unmarshal([]byte(raw), &scheme); jsonErr == nil {
				return scheme
			}
		}
	}
	if err != nil {
		slog.Warn("marking scheme generation failed", "error", err)
	}

	return fallbackScheme(keywords, maxMarks)
}

func fallbackScheme(keywords []string, maxMarks int) model.MarkingScheme {
	return model.MarkingScheme{
		FullMarksCriteria: fmt.Sprintf("Complete answer covering all %d key concepts", len(keywords)),
		PartialCredit: []model.PartialCredit{
			{Marks: float64(maxMarks) * 0.7, Criteria: "Covers most key concepts"},
			{Marks: float64(maxMarks) * 0.5, Criteria: "Covers some key concepts"},
		},
		Deductions: []string{"Missing key concepts", "Factual errors"},
	}
}

// ProcessAnswerKey extracts model answers from answer key text and enriches
// each with keywords and a marking scheme. Enrichment failures degrade to
// empty keywords and the fallback scheme.
func (p *Processor) ProcessAnswerKey(ctx context.Context, ocrText string, questions []model.Question) []model.ModelAnswer {
	byNumber := make(map[string]model.Question, len(questions))
	for _, q := range questions {
		byNumber[q.Number] = q
	}

	answers := ExtractModelAnswers(ocrText, questions)
	for i := range answers {
		q := byNumber[answers[i].QuestionNumber]

		keywords, err := p.ExtractKeywords(ctx, answers[i].Text, q.Text)
		if err != nil {
			slog.Warn("keyword extraction failed", "question", q.Number, "error", err)
			keywords = []string{}
		}
		answers[i].Keywords = keywords
		answers[i].Scheme = p.CreateMarkingScheme(ctx, answers[i].Text, keywords, q.MaxMarks, q.Text)

		if q.Type == model.ContentMCQ {
			answers[i].CorrectOption = evaluate.ExtractOption(answers[i].Text)
		}
		if q.Type == model.ContentDiagram {
			answers[i].RequiredComponents = evaluate.ExtractLabels(answers[i].Text)
		}
	}
	return answers
}

func buildKeywordPrompt(answerText, questionText string) string {
	if questionText == "" {
		questionText = "Not provided"
	}
	var sb strings.Builder
	sb.WriteString("Extract the KEY CONCEPTS and KEYWORDS from this model answer that students MUST mention to get full marks.\n\n")
	sb.WriteString("Question: " + questionText + "\n\n")
	sb.WriteString("Model Answer:\n" + answerText + "\n\n")
	sb.WriteString("Instructions:\n")
	sb.WriteString("1. Identify 5-10 essential concepts/keywords\n")
	sb.WriteString("2. Focus on technical terms, important facts, and core ideas\n")
	sb.WriteString("3. These will be used to evaluate student answers\n\n")
	sb.WriteString("Provide ONLY a comma-separated list of keywords, nothing else.\n")
	sb.WriteString("Example: photosynthesis, chlorophyll, light energy, glucose, carbon dioxide\n")
	return sb.String()
}

func buildSchemePrompt(answerText string, keywords []string, maxMarks int, questionText string) string {
	if questionText == "" {
		questionText = "Not provided"
	}
	var sb strings.Builder
	sb.WriteString("Create a detailed marking scheme for this question.\n\n")
	sb.WriteString("Question: " + questionText + "\n")
	sb.WriteString(fmt.Sprintf("Maximum Marks: %d\n\n", maxMarks))
	sb.WriteString("Model Answer:\n" + answerText + "\n\n")
	sb.WriteString("Key Concepts:\n" + strings.Join(keywords, ", ") + "\n\n")
	sb.WriteString("Create a marking scheme that specifies:\n")
	sb.WriteString("1. How marks should be distributed across concepts\n")
	sb.WriteString("2. Partial credit guidelines\n")
	sb.WriteString("3. What constitutes a complete answer\n\n")
	sb.WriteString("Format as JSON:\n")
	sb.WriteString(`{
  "full_marks_criteria": "Description of what gets full marks",
  "partial_credit": [
    {"marks": X, "criteria": "What gets X marks"}
  ],
  "deductions": ["Common mistakes that lose marks"]
}
`)
	return sb.String()
}
