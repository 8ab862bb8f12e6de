package store

import (
	"fmt"
	"math"

	"github.com/kartavya4874/AI-Exam-Checker/internal/model"
)

// BuildExport assembles the full export document from stored results.
func (s *Store) BuildExport() (*model.ExamExport, error) {
	info, err := s.GetExamInfo()
	if err != nil {
		return nil, fmt.Errorf("exam info: %w", err)
	}
	questions, err := s.ListQuestions()
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	questionByNumber := make(map[string]model.Question, len(questions))
	for _, q := range questions {
		questionByNumber[q.Number] = q
	}

	exams, err := s.ListStudentExams()
	if err != nil {
		return nil, fmt.Errorf("list exams: %w", err)
	}

	var results []model.SheetResult
	for _, exam := range exams {
		rows, err := s.ListAnswersForExam(exam.ID)
		if err != nil {
			return nil, fmt.Errorf("answers for exam %d: %w", exam.ID, err)
		}

		var answers []model.AnswerResult
		for _, row := range rows {
			q := questionByNumber[row.Answer.QuestionNumber]
			answers = append(answers, model.AnswerResult{
				QuestionNumber:    row.Answer.QuestionNumber,
				QuestionText:      q.Text,
				ContentType:       row.Answer.ContentType,
				MaxMarks:          row.Evaluation.MaxMarks,
				MarksAwarded:      row.Evaluation.MarksAwarded,
				IsAttempted:       row.Answer.IsAttempted,
				PositionInSheet:   row.Answer.PositionInSheet,
				Feedback:          row.Evaluation.Feedback,
				OverallConfidence: row.Confidence.OverallConfidence,
				ConfidenceLevel:   row.Confidence.Level,
				NeedsReview:       row.Confidence.NeedsReview,
				ReviewReasons:     row.Confidence.Reasons,
			})
		}

		var pct float64
		if exam.TotalMax > 0 {
			pct = math.Round(exam.TotalObtained/float64(exam.TotalMax)*10000) / 100
		}
		results = append(results, model.SheetResult{
			RollNumber:    exam.RollNumber,
			StudentName:   exam.StudentName,
			Status:        exam.Status,
			TotalObtained: exam.TotalObtained,
			TotalMax:      exam.TotalMax,
			Percentage:    pct,
			GradedAt:      exam.CreatedAt,
			Answers:       answers,
		})
	}

	return &model.ExamExport{
		ExamID:       info.ExamID,
		Subject:      info.Subject,
		CourseCode:   info.CourseCode,
		Date:         info.Date,
		NumQuestions: len(questions),
		Results:      results,
	}, nil
}
