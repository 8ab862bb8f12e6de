package model

import (
	"context"
	"time"
)

// UserRole represents a user's access level.
type UserRole string

const (
	// UserRoleFaculty is a faculty reviewer role.
	UserRoleFaculty UserRole = "faculty"
	// UserRoleAdmin is an admin user role.
	UserRoleAdmin UserRole = "admin"
)

// User represents a system user.
type User struct {
	ID           int64
	Username     string
	DisplayName  string
	PasswordHash string
	Role         UserRole
	Active       bool
	CreatedAt    time.Time
}

// AuthSession represents an authentication session.
type AuthSession struct {
	ID        string
	UserID    int64
	CreatedAt time.Time
	ExpiresAt time.Time
}

type userCtxKey struct{}

// ContextWithUser stores a user in the request context.
func ContextWithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, userCtxKey{}, u)
}

// UserFromContext retrieves the authenticated user from context, or nil.
func UserFromContext(ctx context.Context) *User {
	u, _ := ctx.Value(userCtxKey{}).(*User)
	return u
}

// ContentType classifies what kind of answer a question expects.
type ContentType string

const (
	ContentText    ContentType = "text"
	ContentMath    ContentType = "math"
	ContentCode    ContentType = "code"
	ContentDiagram ContentType = "diagram"
	ContentMCQ     ContentType = "mcq"
	ContentMixed   ContentType = "mixed"
	ContentUnknown ContentType = "unknown"
)

// BloomLevel is a Bloom's taxonomy classification for a question.
// Used for reporting only; the evaluation core does not consume it.
type BloomLevel string

const (
	BloomRemember   BloomLevel = "Remember"
	BloomUnderstand BloomLevel = "Understand"
	BloomApply      BloomLevel = "Apply"
	BloomAnalyze    BloomLevel = "Analyze"
	BloomEvaluate   BloomLevel = "Evaluate"
	BloomCreate     BloomLevel = "Create"
)

// SheetStatus represents the processing state of a student answer sheet.
type SheetStatus string

const (
	SheetUploaded  SheetStatus = "uploaded"
	SheetGrading   SheetStatus = "grading"
	SheetEvaluated SheetStatus = "evaluated"
	SheetReviewed  SheetStatus = "reviewed"
)

// Question represents one question extracted from a question paper.
// Number is the stable join key ("1", "2a"); it never changes once extracted.
type Question struct {
	ID         int64       `json:"id"`
	PaperID    int64       `json:"paper_id"`
	Number     string      `json:"number"`
	Text       string      `json:"text"`
	MaxMarks   int         `json:"max_marks"`
	Type       ContentType `json:"type"`
	BloomLevel BloomLevel  `json:"bloom_level"`
}

// MarkingScheme describes how marks are distributed for a question.
type MarkingScheme struct {
	FullMarksCriteria string          `json:"full_marks_criteria"`
	PartialCredit     []PartialCredit `json:"partial_credit"`
	Deductions        []string        `json:"deductions"`
}

// PartialCredit is one tier of a marking scheme.
type PartialCredit struct {
	Marks    float64 `json:"marks"`
	Criteria string  `json:"criteria"`
}

// ModelAnswer is the reference answer for one question, with the grading
// metadata generated from the answer key.
type ModelAnswer struct {
	ID                 int64         `json:"id"`
	QuestionID         int64         `json:"question_id"`
	QuestionNumber     string        `json:"question_number"`
	Text               string        `json:"text"`
	Keywords           []string      `json:"keywords"`
	Scheme             MarkingScheme `json:"marking_scheme"`
	CorrectOption      string        `json:"correct_option,omitempty"`
	RequiredComponents []string      `json:"required_components,omitempty"`
}

// QuestionOccurrence is one detected question marker in a sheet's OCR text.
type QuestionOccurrence struct {
	Number string `json:"number"`
	Offset int    `json:"offset"`
}

// AnswerRecord is one student answer mapped to a question. Exactly one exists
// per question of the paper; PositionInSheet is -1 when the question was never
// located in the sheet (treated as unattempted, not an error).
type AnswerRecord struct {
	ID              int64       `json:"id"`
	StudentExamID   int64       `json:"student_exam_id"`
	QuestionNumber  string      `json:"question_number"`
	RawText         string      `json:"raw_text"`
	IsAttempted     bool        `json:"is_attempted"`
	PositionInSheet int         `json:"position_in_sheet"`
	ContentType     ContentType `json:"content_type"`
	OCRConfidence   float64     `json:"ocr_confidence"`
}

// HeaderInfo holds student identity fields extracted from a sheet header.
type HeaderInfo struct {
	RollNumber string `json:"roll_number"`
	Name       string `json:"name"`
	CourseCode string `json:"course_code"`
	Date       string `json:"date"`
}

// StudentExam represents one student's graded answer sheet.
type StudentExam struct {
	ID            int64       `json:"id"`
	BatchID       string      `json:"batch_id"`
	CourseCode    string      `json:"course_code"`
	RollNumber    string      `json:"roll_number"`
	StudentName   string      `json:"student_name"`
	Status        SheetStatus `json:"status"`
	TotalObtained float64     `json:"total_obtained"`
	TotalMax      int         `json:"total_max"`
	CreatedAt     time.Time   `json:"created_at"`
}

// EvaluationResult is the shared envelope produced by every evaluator.
// Exactly one of the per-type payload pointers is set, matching the answer's
// content type; the common fields are always populated so aggregation never
// needs type-specific nil checks.
type EvaluationResult struct {
	MarksAwarded float64 `json:"marks_awarded"`
	MaxMarks     int     `json:"max_marks"`
	Feedback     string  `json:"feedback"`
	NeedsReview  bool    `json:"needs_review"`

	Text    *TextEvaluation    `json:"text,omitempty"`
	Math    *MathEvaluation    `json:"math,omitempty"`
	Code    *CodeEvaluation    `json:"code,omitempty"`
	Diagram *DiagramEvaluation `json:"diagram,omitempty"`
	MCQ     *MCQEvaluation     `json:"mcq,omitempty"`
}

// TextEvaluation holds text-answer specific signals.
type TextEvaluation struct {
	KeywordsMatched int      `json:"keywords_matched"`
	TotalKeywords   int      `json:"total_keywords"`
	Strengths       []string `json:"strengths"`
	Improvements    []string `json:"improvements"`
}

// MathEvaluation holds step-wise grading signals.
type MathEvaluation struct {
	CorrectSteps       int     `json:"correct_steps"`
	TotalSteps         int     `json:"total_steps"`
	FinalAnswerCorrect bool    `json:"final_answer_correct"`
	MethodScore        float64 `json:"method_score"`
	StepBreakdown      string  `json:"step_breakdown"`
}

// CodeEvaluation holds logic-only code grading signals.
type CodeEvaluation struct {
	LogicScore      float64 `json:"logic_score"`
	ApproachCorrect string  `json:"approach_correct"`
	Strengths       string  `json:"strengths"`
	Improvements    string  `json:"improvements"`
	EdgeCases       string  `json:"edge_cases"`
}

// DiagramEvaluation holds label-matching results for diagram answers.
type DiagramEvaluation struct {
	ExtractedLabels   []string `json:"extracted_labels"`
	MatchedComponents []string `json:"matched_components"`
	MissingComponents []string `json:"missing_components"`
	MatchPercentage   float64  `json:"match_percentage"`
}

// MCQEvaluation holds option-matching results.
type MCQEvaluation struct {
	SelectedOption string `json:"selected_option"`
	CorrectOption  string `json:"correct_option"`
	IsCorrect      bool   `json:"is_correct"`
}

// ReviewReason is a machine-readable cause for routing an answer to manual
// review. Display text is resolved through the i18n bundle.
type ReviewReason string

const (
	ReasonLowOCRConfidence      ReviewReason = "low_ocr_confidence"
	ReasonDiagramContent        ReviewReason = "diagram_content"
	ReasonAmbiguousContent      ReviewReason = "ambiguous_content"
	ReasonEvaluationUncertainty ReviewReason = "evaluation_uncertainty"
	ReasonMissingAnswer         ReviewReason = "missing_answer"
)

// ConfidenceLevel buckets an overall confidence score for display.
type ConfidenceLevel string

const (
	ConfidenceVeryHigh ConfidenceLevel = "Very High"
	ConfidenceHigh     ConfidenceLevel = "High"
	ConfidenceMedium   ConfidenceLevel = "Medium"
	ConfidenceLow      ConfidenceLevel = "Low"
	ConfidenceVeryLow  ConfidenceLevel = "Very Low"
)

// ConfidenceRecord is the derived confidence and review decision for one
// answer. Its lifecycle matches the parent AnswerRecord; it is never stored
// on its own.
type ConfidenceRecord struct {
	OCRConfidence        float64         `json:"ocr_confidence"`
	EvaluationConfidence float64         `json:"evaluation_confidence"`
	OverallConfidence    float64         `json:"overall_confidence"`
	Level                ConfidenceLevel `json:"confidence_level"`
	NeedsReview          bool            `json:"needs_review"`
	Reasons              []ReviewReason  `json:"review_reasons"`
}

// Review is a faculty override of AI-awarded marks.
type Review struct {
	ID            int64     `json:"id"`
	AnswerID      int64     `json:"answer_id"`
	FacultyID     int64     `json:"faculty_id"`
	OriginalMarks float64   `json:"original_marks"`
	ReviewedMarks float64   `json:"reviewed_marks"`
	Comment       string    `json:"comment"`
	Approved      bool      `json:"approved"`
	ReviewedAt    time.Time `json:"reviewed_at"`
}

// Adjustment records one faculty marks override used by the pattern learner.
type Adjustment struct {
	ID           int64       `json:"id"`
	CourseCode   string      `json:"course_code"`
	QuestionType ContentType `json:"question_type"`
	AIMarks      float64     `json:"ai_marks"`
	FacultyMarks float64     `json:"faculty_marks"`
	Difference   float64     `json:"difference"`
	Reason       string      `json:"reason"`
	FacultyID    string      `json:"faculty_id"`
	CreatedAt    time.Time   `json:"created_at"`
}

// GradeConfig holds runtime grading parameters set via CLI flags.
type GradeConfig struct {
	AttemptThreshold *int    // Min trimmed answer length to count as attempted; nil picks the default, zero is honored
	OCRThreshold     float64 // OCR confidence below this flags for review
	Workers          int     // Concurrent sheets graded in one batch
	SecureCookies    bool    // Set Secure flag on session cookies
	Lang             string  // Language for feedback strings
}

// ExamInfo is exam-level metadata stored alongside graded sheets.
type ExamInfo struct {
	ExamID     string
	Subject    string
	CourseCode string
	Date       string
}
