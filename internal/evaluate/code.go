package evaluate

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/kartavya4874/AI-Exam-Checker/internal/model"
)

var codeParser = newResponseParser(
	"MARKS", "LOGIC_SCORE", "APPROACH_CORRECT", "FEEDBACK",
	"STRENGTHS", "IMPROVEMENTS", "EDGE_CASES",
)

var fencedBlockRe = regexp.MustCompile("(?s)```[\\w]*\\n(.*?)```")

// CodeEvaluator grades program answers on logic and approach only. Student
// code is never executed; the prompt forbids the generator from pretending
// to run it either.
type CodeEvaluator struct {
	gen Generator
}

// ExtractCodeBlocks pulls code out of an answer: fenced blocks first, then
// indented runs, then the whole text when neither convention is present.
func ExtractCodeBlocks(answer string) []string {
	var blocks []string
	for _, m := range fencedBlockRe.FindAllStringSubmatch(answer, -1) {
		if b := strings.TrimSpace(m[1]); b != "" {
			blocks = append(blocks, b)
		}
	}
	if len(blocks) > 0 {
		return blocks
	}

	var run []string
	inCode := false
	for _, line := range strings.Split(answer, "\n") {
		indented := strings.HasPrefix(line, "    ") || strings.HasPrefix(line, "\t")
		switch {
		case indented:
			inCode = true
			run = append(run, line)
		case inCode && strings.TrimSpace(line) != "":
			// A non-blank unindented line ends the run.
			inCode = false
			if b := strings.TrimSpace(strings.Join(run, "\n")); b != "" {
				blocks = append(blocks, b)
			}
			run = nil
		case inCode:
			run = append(run, line)
		}
	}
	if b := strings.TrimSpace(strings.Join(run, "\n")); b != "" {
		blocks = append(blocks, b)
	}
	if len(blocks) > 0 {
		return blocks
	}

	return []string{answer}
}

func (e *CodeEvaluator) Evaluate(ctx context.Context, answer model.AnswerRecord, ref model.ModelAnswer, q model.Question) model.EvaluationResult {
	blocks := ExtractCodeBlocks(answer.RawText)

	result := model.EvaluationResult{
		MaxMarks: q.MaxMarks,
		Code:     &model.CodeEvaluation{},
	}

	prompt := buildCodePrompt(blocks, ref, q)
	reply, err := e.gen.Generate(ctx, prompt, 2000)
	if err != nil {
		slog.Warn("code evaluation generation failed", "question", q.Number, "error", err)
		result.Feedback = feedbackManualReview
		result.NeedsReview = true
		return result
	}

	fields := codeParser.parse(reply)
	if fields == nil {
		slog.Warn("code evaluation reply had no recognizable fields", "question", q.Number)
		result.Feedback = feedbackManualReview
		result.NeedsReview = true
		return result
	}

	if n, ok := firstNumber(fields["MARKS"]); ok {
		result.MarksAwarded = clampMarks(n, q.MaxMarks)
	}
	if n, ok := firstNumber(fields["LOGIC_SCORE"]); ok {
		result.Code.LogicScore = n
	}
	result.Code.ApproachCorrect = strings.TrimSpace(fields["APPROACH_CORRECT"])
	result.Feedback = fields["FEEDBACK"]
	result.Code.Strengths = fields["STRENGTHS"]
	result.Code.Improvements = fields["IMPROVEMENTS"]
	result.Code.EdgeCases = fields["EDGE_CASES"]

	return result
}

func buildCodePrompt(blocks []string, ref model.ModelAnswer, q model.Question) string {
	var sb strings.Builder
	sb.WriteString("You are an expert programming examiner evaluating a student's code on paper.\n\n")
	sb.WriteString("QUESTION: " + q.Text + "\n\n")
	sb.WriteString(fmt.Sprintf("MAXIMUM MARKS: %d\n\n", q.MaxMarks))
	sb.WriteString("MODEL SOLUTION:\n" + ref.Text + "\n\n")
	sb.WriteString("STUDENT'S CODE:\n")
	for _, b := range blocks {
		sb.WriteString(sanitizeAnswer(b) + "\n\n")
	}
	sb.WriteString("INSTRUCTIONS:\n")
	sb.WriteString("- DO NOT execute the code. Evaluate LOGIC and APPROACH only.\n")
	sb.WriteString("- This is handwritten code transcribed by OCR; ignore minor syntax slips.\n")
	sb.WriteString("- Focus on algorithm correctness, control flow, and data handling.\n")
	sb.WriteString("- Award partial credit for a correct approach with flawed details.\n")
	sb.WriteString("- Consider whether edge cases are handled.\n\n")
	sb.WriteString("Provide your evaluation in this EXACT format:\n\n")
	sb.WriteString(fmt.Sprintf("MARKS: [X/%d]\n", q.MaxMarks))
	sb.WriteString("LOGIC_SCORE: [0-10 score for logical correctness]\n")
	sb.WriteString("APPROACH_CORRECT: [Yes/No/Partial]\n")
	sb.WriteString("FEEDBACK: [Overall assessment]\n")
	sb.WriteString("STRENGTHS: [What the student did well]\n")
	sb.WriteString("IMPROVEMENTS: [What could be improved]\n")
	sb.WriteString("EDGE_CASES: [Edge cases handled or missed]\n\n")
	sb.WriteString("Grade the thinking, not the typing.\n")
	return sb.String()
}
