package model

import "time"

// ExamExport is the top-level JSON structure for exam result export.
type ExamExport struct {
	ExamID       string        `json:"exam_id"`
	Subject      string        `json:"subject"`
	CourseCode   string        `json:"course_code"`
	Date         string        `json:"date"`
	NumQuestions int           `json:"num_questions"`
	Results      []SheetResult `json:"results"`
}

// SheetResult holds one student's graded sheet for export.
type SheetResult struct {
	RollNumber    string         `json:"roll_number"`
	StudentName   string         `json:"student_name"`
	Status        SheetStatus    `json:"status"`
	TotalObtained float64        `json:"total_obtained"`
	TotalMax      int            `json:"total_max"`
	Percentage    float64        `json:"percentage"`
	GradedAt      time.Time      `json:"graded_at"`
	Answers       []AnswerResult `json:"answers"`
}

// AnswerResult holds per-answer data for export.
type AnswerResult struct {
	QuestionNumber    string          `json:"question_number"`
	QuestionText      string          `json:"question_text"`
	ContentType       ContentType     `json:"content_type"`
	MaxMarks          int             `json:"max_marks"`
	MarksAwarded      float64         `json:"marks_awarded"`
	IsAttempted       bool            `json:"is_attempted"`
	PositionInSheet   int             `json:"position_in_sheet"`
	Feedback          string          `json:"feedback"`
	OverallConfidence float64         `json:"overall_confidence"`
	ConfidenceLevel   ConfidenceLevel `json:"confidence_level"`
	NeedsReview       bool            `json:"needs_review"`
	ReviewReasons     []ReviewReason  `json:"review_reasons"`
}
