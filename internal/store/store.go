// Package store persists papers, graded sheets, reviews, and marking history
// in SQLite. Lookups by key return a nil record, not an error, when the row
// is missing.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/kartavya4874/AI-Exam-Checker/internal/model"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		display_name TEXT NOT NULL DEFAULT '',
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'faculty',
		active INTEGER NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS auth_sessions (
		id TEXT PRIMARY KEY,
		user_id INTEGER NOT NULL,
		created_at DATETIME NOT NULL,
		expires_at DATETIME NOT NULL,
		FOREIGN KEY (user_id) REFERENCES users(id)
	);

	CREATE TABLE IF NOT EXISTS questions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		paper_id INTEGER NOT NULL DEFAULT 0,
		number TEXT NOT NULL,
		text TEXT NOT NULL,
		max_marks INTEGER NOT NULL DEFAULT 5,
		type TEXT NOT NULL DEFAULT 'text',
		bloom_level TEXT NOT NULL DEFAULT 'Understand'
	);

	CREATE TABLE IF NOT EXISTS model_answers (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		question_id INTEGER NOT NULL DEFAULT 0,
		question_number TEXT NOT NULL,
		text TEXT NOT NULL,
		keywords TEXT NOT NULL DEFAULT '[]',
		marking_scheme TEXT NOT NULL DEFAULT '{}',
		correct_option TEXT NOT NULL DEFAULT '',
		required_components TEXT NOT NULL DEFAULT '[]'
	);

	CREATE TABLE IF NOT EXISTS student_exams (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		batch_id TEXT NOT NULL DEFAULT '',
		course_code TEXT NOT NULL DEFAULT '',
		roll_number TEXT NOT NULL DEFAULT '',
		student_name TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'uploaded',
		total_obtained REAL NOT NULL DEFAULT 0,
		total_max INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS answers (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		student_exam_id INTEGER NOT NULL,
		question_number TEXT NOT NULL,
		raw_text TEXT NOT NULL DEFAULT '',
		is_attempted INTEGER NOT NULL DEFAULT 0,
		position_in_sheet INTEGER NOT NULL DEFAULT -1,
		content_type TEXT NOT NULL DEFAULT 'text',
		ocr_confidence REAL NOT NULL DEFAULT 0,
		marks_awarded REAL NOT NULL DEFAULT 0,
		max_marks INTEGER NOT NULL DEFAULT 0,
		feedback TEXT NOT NULL DEFAULT '',
		evaluation TEXT NOT NULL DEFAULT '{}',
		overall_confidence REAL NOT NULL DEFAULT 0,
		confidence TEXT NOT NULL DEFAULT '{}',
		needs_review INTEGER NOT NULL DEFAULT 0,
		UNIQUE (student_exam_id, question_number),
		FOREIGN KEY (student_exam_id) REFERENCES student_exams(id)
	);

	CREATE TABLE IF NOT EXISTS reviews (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		answer_id INTEGER NOT NULL,
		faculty_id INTEGER NOT NULL,
		original_marks REAL NOT NULL DEFAULT 0,
		reviewed_marks REAL NOT NULL DEFAULT 0,
		comment TEXT NOT NULL DEFAULT '',
		approved INTEGER NOT NULL DEFAULT 0,
		reviewed_at DATETIME NOT NULL,
		FOREIGN KEY (answer_id) REFERENCES answers(id)
	);

	CREATE TABLE IF NOT EXISTS adjustments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		course_code TEXT NOT NULL,
		question_type TEXT NOT NULL DEFAULT 'text',
		ai_marks REAL NOT NULL DEFAULT 0,
		faculty_marks REAL NOT NULL DEFAULT 0,
		difference REAL NOT NULL DEFAULT 0,
		reason TEXT NOT NULL DEFAULT '',
		faculty_id TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS exam_metadata (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS imported_files (
		path TEXT PRIMARY KEY,
		hash TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// InsertQuestion stores a question extracted from a question paper.
func (s *Store) InsertQuestion(q model.Question) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO questions (paper_id, number, text, max_marks, type, bloom_level)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		q.PaperID, q.Number, q.Text, q.MaxMarks, q.Type, q.BloomLevel,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ListQuestions returns all questions in paper order.
func (s *Store) ListQuestions() ([]model.Question, error) {
	rows, err := s.db.Query(`SELECT id, paper_id, number, text, max_marks, type, bloom_level FROM questions ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var questions []model.Question
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(&q.ID, &q.PaperID, &q.Number, &q.Text, &q.MaxMarks, &q.Type, &q.BloomLevel); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// GetQuestionByNumber returns the question with the given number, or nil.
func (s *Store) GetQuestionByNumber(number string) (*model.Question, error) {
	var q model.Question
	err := s.db.QueryRow(
		`SELECT id, paper_id, number, text, max_marks, type, bloom_level FROM questions WHERE number = ?`, number,
	).Scan(&q.ID, &q.PaperID, &q.Number, &q.Text, &q.MaxMarks, &q.Type, &q.BloomLevel)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// QuestionCount returns the number of stored questions.
func (s *Store) QuestionCount() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM questions`).Scan(&count)
	return count, err
}

// InsertModelAnswer stores a reference answer. Keywords, marking scheme, and
// required components are kept as JSON text columns.
func (s *Store) InsertModelAnswer(ma model.ModelAnswer) (int64, error) {
	keywords, err := json.Marshal(ma.Keywords)
	if err != nil {
		return 0, err
	}
	scheme, err := json.Marshal(ma.Scheme)
	if err != nil {
		return 0, err
	}
	components, err := json.Marshal(ma.RequiredComponents)
	if err != nil {
		return 0, err
	}
	res, err := s.db.Exec(
		`INSERT INTO model_answers (question_id, question_number, text, keywords, marking_scheme, correct_option, required_components)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		ma.QuestionID, ma.QuestionNumber, ma.Text, string(keywords), string(scheme), ma.CorrectOption, string(components),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ListModelAnswers returns all reference answers.
func (s *Store) ListModelAnswers() ([]model.ModelAnswer, error) {
	rows, err := s.db.Query(
		`SELECT id, question_id, question_number, text, keywords, marking_scheme, correct_option, required_components
		 FROM model_answers ORDER BY id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var answers []model.ModelAnswer
	for rows.Next() {
		ma, err := scanModelAnswer(rows)
		if err != nil {
			return nil, err
		}
		answers = append(answers, *ma)
	}
	return answers, rows.Err()
}

// GetModelAnswerByNumber returns the reference answer for a question number,
// or nil.
func (s *Store) GetModelAnswerByNumber(number string) (*model.ModelAnswer, error) {
	row := s.db.QueryRow(
		`SELECT id, question_id, question_number, text, keywords, marking_scheme, correct_option, required_components
		 FROM model_answers WHERE question_number = ?`, number,
	)
	ma, err := scanModelAnswer(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return ma, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanModelAnswer(row rowScanner) (*model.ModelAnswer, error) {
	var ma model.ModelAnswer
	var keywords, scheme, components string
	err := row.Scan(&ma.ID, &ma.QuestionID, &ma.QuestionNumber, &ma.Text, &keywords, &scheme, &ma.CorrectOption, &components)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(keywords), &ma.Keywords); err != nil {
		return nil, fmt.Errorf("decode keywords: %w", err)
	}
	if err := json.Unmarshal([]byte(scheme), &ma.Scheme); err != nil {
		return nil, fmt.Errorf("decode marking scheme: %w", err)
	}
	if err := json.Unmarshal([]byte(components), &ma.RequiredComponents); err != nil {
		return nil, fmt.Errorf("decode required components: %w", err)
	}
	return &ma, nil
}
