// Package pipeline wires segmentation, evaluation, confidence scoring, and
// feedback into the end-to-end grading flow, one sheet at a time or as a
// concurrent batch. A malformed sheet degrades to flagged zero-mark records;
// it never aborts the batch.
package pipeline

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/kartavya4874/AI-Exam-Checker/internal/confidence"
	"github.com/kartavya4874/AI-Exam-Checker/internal/evaluate"
	"github.com/kartavya4874/AI-Exam-Checker/internal/feedback"
	"github.com/kartavya4874/AI-Exam-Checker/internal/i18n"
	"github.com/kartavya4874/AI-Exam-Checker/internal/learner"
	"github.com/kartavya4874/AI-Exam-Checker/internal/model"
	"github.com/kartavya4874/AI-Exam-Checker/internal/segment"
)

// DefaultWorkers bounds batch concurrency when the config does not.
const DefaultWorkers = 4

// SheetInput is one student's OCR output ready for grading.
type SheetInput struct {
	HeaderText    string
	BodyText      string
	OCRConfidence float64
}

// GradedAnswer bundles everything derived for one answer.
type GradedAnswer struct {
	Answer     model.AnswerRecord      `json:"answer"`
	Evaluation model.EvaluationResult  `json:"evaluation"`
	Confidence model.ConfidenceRecord  `json:"confidence"`
	Feedback   feedback.AnswerFeedback `json:"feedback"`
}

// SheetResult is one fully graded sheet.
type SheetResult struct {
	Exam    model.StudentExam     `json:"exam"`
	Header  model.HeaderInfo      `json:"header"`
	Answers []GradedAnswer        `json:"answers"`
	Summary feedback.SheetSummary `json:"summary"`
}

// BatchResult is a batch of graded sheets in input order.
type BatchResult struct {
	BatchID string        `json:"batch_id"`
	Sheets  []SheetResult `json:"sheets"`
}

// Grader runs the grading flow. The learner is optional; without one, AI
// marks are used as-is.
type Grader struct {
	registry evaluate.Registry
	learner  *learner.Learner
	cfg      model.GradeConfig
}

// New creates a grader.
func New(registry evaluate.Registry, l *learner.Learner, cfg model.GradeConfig) *Grader {
	if cfg.AttemptThreshold == nil {
		n := segment.DefaultAttemptThreshold
		cfg.AttemptThreshold = &n
	}
	if cfg.OCRThreshold == 0 {
		cfg.OCRThreshold = confidence.DefaultOCRThreshold
	}
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	return &Grader{registry: registry, learner: l, cfg: cfg}
}

// GradeSheet grades one sheet against the paper's questions and model
// answers.
func (g *Grader) GradeSheet(ctx context.Context, in SheetInput, questions []model.Question, modelAnswers []model.ModelAnswer) SheetResult {
	if g.cfg.Lang != "" {
		ctx = i18n.WithLocalizer(ctx, i18n.NewLocalizer(g.cfg.Lang))
	}

	header := segment.ExtractHeader(in.HeaderText)

	occs := segment.ScanQuestionMarkers(in.BodyText)
	answers := segment.MapAnswers(in.BodyText, occs, questions, *g.cfg.AttemptThreshold)

	refByNumber := make(map[string]model.ModelAnswer, len(modelAnswers))
	for _, ma := range modelAnswers {
		refByNumber[ma.QuestionNumber] = ma
	}
	questionByNumber := make(map[string]model.Question, len(questions))
	for _, q := range questions {
		questionByNumber[q.Number] = q
	}

	var (
		graded   []GradedAnswer
		fbs      []feedback.AnswerFeedback
		total    float64
		totalMax int
	)
	for _, ans := range answers {
		ans.OCRConfidence = in.OCRConfidence
		q := questionByNumber[ans.QuestionNumber]

		ga := g.gradeAnswer(ctx, ans, refByNumber[ans.QuestionNumber], q, header.CourseCode)
		graded = append(graded, ga)
		fbs = append(fbs, ga.Feedback)
		total += ga.Evaluation.MarksAwarded
		totalMax += q.MaxMarks
	}

	exam := model.StudentExam{
		CourseCode:    header.CourseCode,
		RollNumber:    header.RollNumber,
		StudentName:   header.Name,
		Status:        model.SheetEvaluated,
		TotalObtained: total,
		TotalMax:      totalMax,
	}

	return SheetResult{
		Exam:    exam,
		Header:  header,
		Answers: graded,
		Summary: feedback.ForSheet(ctx, exam, fbs),
	}
}

func (g *Grader) gradeAnswer(ctx context.Context, ans model.AnswerRecord, ref model.ModelAnswer, q model.Question, courseCode string) GradedAnswer {
	var eval model.EvaluationResult
	if ans.IsAttempted {
		eval = g.registry.Evaluate(ctx, ans, ref, q)
	} else {
		eval = model.EvaluationResult{MaxMarks: q.MaxMarks, Feedback: "No answer provided"}
	}

	if g.learner != nil && ans.IsAttempted {
		adjusted, err := g.learner.AdjustMarks(courseCode, eval.MarksAwarded, float64(q.MaxMarks))
		if err != nil {
			slog.Warn("marks adjustment failed", "question", q.Number, "error", err)
		} else {
			eval.MarksAwarded = adjusted
		}
	}

	evalConf := confidence.EvaluationConfidence(ans.ContentType, eval)
	conf := confidence.Score(ans.OCRConfidence, evalConf, ans.ContentType, ans.IsAttempted, g.cfg.OCRThreshold)

	// An evaluator can demand review on its own, typically after a parse
	// failure; the confidence record carries the final decision.
	if eval.NeedsReview && !conf.NeedsReview {
		conf.NeedsReview = true
		conf.Reasons = append(conf.Reasons, model.ReasonEvaluationUncertainty)
	}

	return GradedAnswer{
		Answer:     ans,
		Evaluation: eval,
		Confidence: conf,
		Feedback:   feedback.ForAnswer(ctx, q, ans, eval, conf),
	}
}

// GradeBatch grades many sheets concurrently with a bounded worker pool.
// Results come back in input order under a fresh batch ID.
func (g *Grader) GradeBatch(ctx context.Context, inputs []SheetInput, questions []model.Question, modelAnswers []model.ModelAnswer) BatchResult {
	batchID := uuid.NewString()
	results := make([]SheetResult, len(inputs))

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < g.cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = g.GradeSheet(ctx, inputs[i], questions, modelAnswers)
				results[i].Exam.BatchID = batchID
			}
		}()
	}
	for i := range inputs {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	slog.Info("batch graded", "batch_id", batchID, "sheets", len(inputs))
	return BatchResult{BatchID: batchID, Sheets: results}
}
