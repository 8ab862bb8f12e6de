package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/kartavya4874/AI-Exam-Checker/internal/model"
)

// AnswerRow bundles one stored answer with its evaluation and confidence.
// The scalar marks and review-flag columns are authoritative; after a faculty
// review they supersede what the evaluation JSON recorded at grading time.
type AnswerRow struct {
	Answer     model.AnswerRecord     `json:"answer"`
	Evaluation model.EvaluationResult `json:"evaluation"`
	Confidence model.ConfidenceRecord `json:"confidence"`
}

// FlaggedAnswer is an answer awaiting faculty review, with sheet context.
type FlaggedAnswer struct {
	AnswerRow
	ExamID      int64  `json:"exam_id"`
	RollNumber  string `json:"roll_number"`
	StudentName string `json:"student_name"`
	CourseCode  string `json:"course_code"`
}

// InsertStudentExam stores a graded sheet record.
func (s *Store) InsertStudentExam(e model.StudentExam) (int64, error) {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	res, err := s.db.Exec(
		`INSERT INTO student_exams (batch_id, course_code, roll_number, student_name, status, total_obtained, total_max, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.BatchID, e.CourseCode, e.RollNumber, e.StudentName, e.Status, e.TotalObtained, e.TotalMax, e.CreatedAt,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetStudentExam returns a sheet by ID, or nil.
func (s *Store) GetStudentExam(id int64) (*model.StudentExam, error) {
	var e model.StudentExam
	err := s.db.QueryRow(
		`SELECT id, batch_id, course_code, roll_number, student_name, status, total_obtained, total_max, created_at
		 FROM student_exams WHERE id = ?`, id,
	).Scan(&e.ID, &e.BatchID, &e.CourseCode, &e.RollNumber, &e.StudentName, &e.Status, &e.TotalObtained, &e.TotalMax, &e.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// ListStudentExams returns all sheets, newest first.
func (s *Store) ListStudentExams() ([]model.StudentExam, error) {
	return s.listExams(`SELECT id, batch_id, course_code, roll_number, student_name, status, total_obtained, total_max, created_at
		 FROM student_exams ORDER BY id DESC`)
}

// ListExamsByRoll returns a student's sheets, newest first.
func (s *Store) ListExamsByRoll(rollNumber string) ([]model.StudentExam, error) {
	return s.listExams(`SELECT id, batch_id, course_code, roll_number, student_name, status, total_obtained, total_max, created_at
		 FROM student_exams WHERE roll_number = ? ORDER BY id DESC`, rollNumber)
}

// ListExamsByBatch returns the sheets graded under one batch ID.
func (s *Store) ListExamsByBatch(batchID string) ([]model.StudentExam, error) {
	return s.listExams(`SELECT id, batch_id, course_code, roll_number, student_name, status, total_obtained, total_max, created_at
		 FROM student_exams WHERE batch_id = ? ORDER BY id`, batchID)
}

func (s *Store) listExams(query string, args ...any) ([]model.StudentExam, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var exams []model.StudentExam
	for rows.Next() {
		var e model.StudentExam
		if err := rows.Scan(&e.ID, &e.BatchID, &e.CourseCode, &e.RollNumber, &e.StudentName, &e.Status, &e.TotalObtained, &e.TotalMax, &e.CreatedAt); err != nil {
			return nil, err
		}
		exams = append(exams, e)
	}
	return exams, rows.Err()
}

// UpdateExamStatus updates the processing state of a sheet.
func (s *Store) UpdateExamStatus(id int64, status model.SheetStatus) error {
	_, err := s.db.Exec(`UPDATE student_exams SET status = ? WHERE id = ?`, status, id)
	return err
}

// InsertAnswer stores one graded answer under its sheet.
func (s *Store) InsertAnswer(row AnswerRow) (int64, error) {
	evaluation, err := json.Marshal(row.Evaluation)
	if err != nil {
		return 0, err
	}
	confidence, err := json.Marshal(row.Confidence)
	if err != nil {
		return 0, err
	}
	a := row.Answer
	res, err := s.db.Exec(
		`INSERT INTO answers (student_exam_id, question_number, raw_text, is_attempted, position_in_sheet, content_type,
			ocr_confidence, marks_awarded, max_marks, feedback, evaluation, overall_confidence, confidence, needs_review)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.StudentExamID, a.QuestionNumber, a.RawText, a.IsAttempted, a.PositionInSheet, a.ContentType,
		a.OCRConfidence, row.Evaluation.MarksAwarded, row.Evaluation.MaxMarks, row.Evaluation.Feedback,
		string(evaluation), row.Confidence.OverallConfidence, string(confidence), row.Confidence.NeedsReview,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

const answerColumns = `id, student_exam_id, question_number, raw_text, is_attempted, position_in_sheet, content_type,
	ocr_confidence, marks_awarded, max_marks, feedback, evaluation, overall_confidence, confidence, needs_review`

// GetAnswer returns one answer by ID, or nil.
func (s *Store) GetAnswer(id int64) (*AnswerRow, error) {
	row := s.db.QueryRow(`SELECT `+answerColumns+` FROM answers WHERE id = ?`, id)
	ar, err := scanAnswerRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return ar, nil
}

// ListAnswersForExam returns a sheet's answers in sheet order.
func (s *Store) ListAnswersForExam(examID int64) ([]AnswerRow, error) {
	rows, err := s.db.Query(`SELECT `+answerColumns+` FROM answers WHERE student_exam_id = ? ORDER BY id`, examID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var answers []AnswerRow
	for rows.Next() {
		ar, err := scanAnswerRow(rows)
		if err != nil {
			return nil, err
		}
		answers = append(answers, *ar)
	}
	return answers, rows.Err()
}

// ListFlaggedAnswers returns every answer still awaiting review, with the
// student context faculty need to act on it.
func (s *Store) ListFlaggedAnswers() ([]FlaggedAnswer, error) {
	rows, err := s.db.Query(
		`SELECT a.id, a.student_exam_id, a.question_number, a.raw_text, a.is_attempted, a.position_in_sheet, a.content_type,
			a.ocr_confidence, a.marks_awarded, a.max_marks, a.feedback, a.evaluation, a.overall_confidence, a.confidence, a.needs_review,
			e.id, e.roll_number, e.student_name, e.course_code
		 FROM answers a JOIN student_exams e ON a.student_exam_id = e.id
		 WHERE a.needs_review = 1 ORDER BY a.id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var flagged []FlaggedAnswer
	for rows.Next() {
		var f FlaggedAnswer
		var evaluation, confidence string
		a := &f.Answer
		err := rows.Scan(&a.ID, &a.StudentExamID, &a.QuestionNumber, &a.RawText, &a.IsAttempted, &a.PositionInSheet, &a.ContentType,
			&a.OCRConfidence, &f.Evaluation.MarksAwarded, &f.Evaluation.MaxMarks, &f.Evaluation.Feedback,
			&evaluation, &f.Confidence.OverallConfidence, &confidence, &f.Confidence.NeedsReview,
			&f.ExamID, &f.RollNumber, &f.StudentName, &f.CourseCode)
		if err != nil {
			return nil, err
		}
		if err := decodeAnswerJSON(evaluation, confidence, &f.AnswerRow); err != nil {
			return nil, err
		}
		flagged = append(flagged, f)
	}
	return flagged, rows.Err()
}

func scanAnswerRow(row rowScanner) (*AnswerRow, error) {
	var ar AnswerRow
	var evaluation, confidence string
	a := &ar.Answer
	err := row.Scan(&a.ID, &a.StudentExamID, &a.QuestionNumber, &a.RawText, &a.IsAttempted, &a.PositionInSheet, &a.ContentType,
		&a.OCRConfidence, &ar.Evaluation.MarksAwarded, &ar.Evaluation.MaxMarks, &ar.Evaluation.Feedback,
		&evaluation, &ar.Confidence.OverallConfidence, &confidence, &ar.Confidence.NeedsReview)
	if err != nil {
		return nil, err
	}
	if err := decodeAnswerJSON(evaluation, confidence, &ar); err != nil {
		return nil, err
	}
	return &ar, nil
}

// decodeAnswerJSON restores the evaluation and confidence payloads, then
// reapplies the scalar columns so reviewed marks win over the grading-time
// snapshot.
func decodeAnswerJSON(evaluation, confidence string, ar *AnswerRow) error {
	marks, maxMarks, feedback := ar.Evaluation.MarksAwarded, ar.Evaluation.MaxMarks, ar.Evaluation.Feedback
	overall, needsReview := ar.Confidence.OverallConfidence, ar.Confidence.NeedsReview

	if err := json.Unmarshal([]byte(evaluation), &ar.Evaluation); err != nil {
		return fmt.Errorf("decode evaluation: %w", err)
	}
	if err := json.Unmarshal([]byte(confidence), &ar.Confidence); err != nil {
		return fmt.Errorf("decode confidence: %w", err)
	}

	ar.Evaluation.MarksAwarded = marks
	ar.Evaluation.MaxMarks = maxMarks
	ar.Evaluation.Feedback = feedback
	ar.Confidence.OverallConfidence = overall
	ar.Confidence.NeedsReview = needsReview
	ar.Evaluation.NeedsReview = needsReview
	return nil
}
