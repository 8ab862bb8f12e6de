package evaluate

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/kartavya4874/AI-Exam-Checker/internal/model"
)

var mathParser = newResponseParser(
	"MARKS", "CORRECT_STEPS", "TOTAL_STEPS", "FINAL_ANSWER",
	"METHOD_SCORE", "FEEDBACK", "STEP_BREAKDOWN",
)

// Step-delimiter families, tried in order until one yields at least one
// step. Table-driven so a new handwriting convention is one more row.
var stepMarkers = []*regexp.Regexp{
	regexp.MustCompile(`(?i)Step\s+\d+[:.]?`), // Step 1: or Step 2.
	regexp.MustCompile(`\d+\.`),               // 1. 2. 3.
	regexp.MustCompile(`\(\d+\)`),             // (1) (2)
}

// MathEvaluator grades worked solutions with step-wise partial credit.
type MathEvaluator struct {
	gen Generator
}

// ExtractSteps splits a worked solution into ordered steps. Falls back from
// explicit step markers to line breaks to the whole text as a single step,
// so it never comes back empty for non-empty input.
func ExtractSteps(answer string) []string {
	for _, marker := range stepMarkers {
		if steps := splitByMarkers(answer, marker); len(steps) > 0 {
			return steps
		}
	}

	var lines []string
	for _, line := range strings.Split(answer, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) > 1 {
		return lines
	}

	return []string{answer}
}

func splitByMarkers(text string, marker *regexp.Regexp) []string {
	locs := marker.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return nil
	}
	var steps []string
	for i, loc := range locs {
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		if s := strings.TrimSpace(text[loc[1]:end]); s != "" {
			steps = append(steps, s)
		}
	}
	return steps
}

func (e *MathEvaluator) Evaluate(ctx context.Context, answer model.AnswerRecord, ref model.ModelAnswer, q model.Question) model.EvaluationResult {
	studentSteps := ExtractSteps(answer.RawText)
	modelSteps := ExtractSteps(ref.Text)

	result := model.EvaluationResult{
		MaxMarks: q.MaxMarks,
		Math: &model.MathEvaluation{
			TotalSteps: len(studentSteps),
		},
	}

	prompt := buildMathPrompt(answer.RawText, studentSteps, ref.Text, modelSteps, q)
	reply, err := e.gen.Generate(ctx, prompt, 2000)
	if err != nil {
		slog.Warn("math evaluation generation failed", "question", q.Number, "error", err)
		result.Feedback = feedbackManualReview
		result.NeedsReview = true
		return result
	}

	fields := mathParser.parse(reply)
	if fields == nil {
		slog.Warn("math evaluation reply had no recognizable fields", "question", q.Number)
		result.Feedback = feedbackManualReview
		result.NeedsReview = true
		return result
	}

	if n, ok := firstNumber(fields["MARKS"]); ok {
		result.MarksAwarded = clampMarks(n, q.MaxMarks)
	}
	if n, ok := firstInt(fields["CORRECT_STEPS"]); ok {
		result.Math.CorrectSteps = n
	}
	if n, ok := firstInt(fields["TOTAL_STEPS"]); ok {
		result.Math.TotalSteps = n
	}
	result.Math.FinalAnswerCorrect = strings.EqualFold(strings.TrimSpace(fields["FINAL_ANSWER"]), "correct")
	if n, ok := firstNumber(fields["METHOD_SCORE"]); ok {
		result.Math.MethodScore = n
	}
	result.Feedback = fields["FEEDBACK"]
	result.Math.StepBreakdown = fields["STEP_BREAKDOWN"]

	return result
}

func buildMathPrompt(studentAnswer string, studentSteps []string, modelAnswer string, modelSteps []string, q model.Question) string {
	var sb strings.Builder
	sb.WriteString("You are an expert mathematics examiner evaluating a student's solution.\n\n")
	sb.WriteString("QUESTION: " + q.Text + "\n\n")
	sb.WriteString(fmt.Sprintf("MAXIMUM MARKS: %d\n\n", q.MaxMarks))
	sb.WriteString("MODEL SOLUTION:\n" + modelAnswer + "\n\n")
	sb.WriteString(fmt.Sprintf("MODEL STEPS (%d):\n", len(modelSteps)))
	writeNumbered(&sb, modelSteps)
	sb.WriteString("\nSTUDENT'S SOLUTION:\n" + sanitizeAnswer(studentAnswer) + "\n\n")
	sb.WriteString(fmt.Sprintf("STUDENT'S STEPS (%d):\n", len(studentSteps)))
	writeNumbered(&sb, studentSteps)
	sb.WriteString("\nINSTRUCTIONS:\n")
	sb.WriteString("- Award PARTIAL CREDIT for each correct step.\n")
	sb.WriteString("- If the METHOD is correct but a CALCULATION is wrong, give partial marks.\n")
	sb.WriteString("- Check whether the final answer is correct.\n")
	sb.WriteString("- Evaluate mathematical reasoning and approach.\n")
	sb.WriteString("- Be strict on mathematical accuracy but fair on minor errors.\n\n")
	sb.WriteString("Provide your evaluation in this EXACT format:\n\n")
	sb.WriteString(fmt.Sprintf("MARKS: [X/%d]\n", q.MaxMarks))
	sb.WriteString("CORRECT_STEPS: [Number of correct steps]\n")
	sb.WriteString("TOTAL_STEPS: [Total number of steps]\n")
	sb.WriteString("FINAL_ANSWER: [Correct/Incorrect]\n")
	sb.WriteString("METHOD_SCORE: [Score for approach out of 10]\n")
	sb.WriteString("FEEDBACK: [Overall assessment]\n")
	sb.WriteString("STEP_BREAKDOWN: [Brief note on each step's correctness]\n\n")
	sb.WriteString("Provide fair step-wise partial credit.\n")
	return sb.String()
}

func writeNumbered(sb *strings.Builder, items []string) {
	for i, item := range items {
		fmt.Fprintf(sb, "%d. %s\n", i+1, item)
	}
}
