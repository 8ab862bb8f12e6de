package store

import (
	"database/sql"
	"time"

	"github.com/kartavya4874/AI-Exam-Checker/internal/model"
)

// ApplyReview records a faculty review and applies it in one transaction:
// the answer takes the reviewed marks and drops its review flag, and the
// sheet total is recomputed from its answers.
func (s *Store) ApplyReview(r model.Review) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var examID int64
	if err := tx.QueryRow(`SELECT student_exam_id FROM answers WHERE id = ?`, r.AnswerID).Scan(&examID); err != nil {
		return 0, err
	}

	if r.ReviewedAt.IsZero() {
		r.ReviewedAt = time.Now()
	}
	res, err := tx.Exec(
		`INSERT INTO reviews (answer_id, faculty_id, original_marks, reviewed_marks, comment, approved, reviewed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.AnswerID, r.FacultyID, r.OriginalMarks, r.ReviewedMarks, r.Comment, r.Approved, r.ReviewedAt,
	)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	if _, err := tx.Exec(
		`UPDATE answers SET marks_awarded = ?, needs_review = 0 WHERE id = ?`,
		r.ReviewedMarks, r.AnswerID,
	); err != nil {
		return 0, err
	}
	if _, err := tx.Exec(
		`UPDATE student_exams
		 SET total_obtained = (SELECT COALESCE(SUM(marks_awarded), 0) FROM answers WHERE student_exam_id = ?)
		 WHERE id = ?`,
		examID, examID,
	); err != nil {
		return 0, err
	}

	return id, tx.Commit()
}

// GetReviewForAnswer returns the review recorded for an answer, or nil.
func (s *Store) GetReviewForAnswer(answerID int64) (*model.Review, error) {
	var r model.Review
	err := s.db.QueryRow(
		`SELECT id, answer_id, faculty_id, original_marks, reviewed_marks, comment, approved, reviewed_at
		 FROM reviews WHERE answer_id = ? ORDER BY id DESC LIMIT 1`, answerID,
	).Scan(&r.ID, &r.AnswerID, &r.FacultyID, &r.OriginalMarks, &r.ReviewedMarks, &r.Comment, &r.Approved, &r.ReviewedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// SaveAdjustment stores one faculty marks override for the pattern learner.
func (s *Store) SaveAdjustment(adj model.Adjustment) error {
	if adj.CreatedAt.IsZero() {
		adj.CreatedAt = time.Now()
	}
	_, err := s.db.Exec(
		`INSERT INTO adjustments (course_code, question_type, ai_marks, faculty_marks, difference, reason, faculty_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		adj.CourseCode, adj.QuestionType, adj.AIMarks, adj.FacultyMarks, adj.Difference, adj.Reason, adj.FacultyID, adj.CreatedAt,
	)
	return err
}

// RecentAdjustments returns a course's newest adjustments, newest first.
func (s *Store) RecentAdjustments(courseCode string, limit int) ([]model.Adjustment, error) {
	rows, err := s.db.Query(
		`SELECT id, course_code, question_type, ai_marks, faculty_marks, difference, reason, faculty_id, created_at
		 FROM adjustments WHERE course_code = ? ORDER BY id DESC LIMIT ?`,
		courseCode, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var adjustments []model.Adjustment
	for rows.Next() {
		var a model.Adjustment
		if err := rows.Scan(&a.ID, &a.CourseCode, &a.QuestionType, &a.AIMarks, &a.FacultyMarks, &a.Difference, &a.Reason, &a.FacultyID, &a.CreatedAt); err != nil {
			return nil, err
		}
		adjustments = append(adjustments, a)
	}
	return adjustments, rows.Err()
}

// CountAdjustments returns how many adjustments a course has recorded.
func (s *Store) CountAdjustments(courseCode string) (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM adjustments WHERE course_code = ?`, courseCode).Scan(&count)
	return count, err
}
