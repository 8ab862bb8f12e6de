package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/kartavya4874/AI-Exam-Checker/internal/model"
	"github.com/kartavya4874/AI-Exam-Checker/internal/store"
)

func (h *Handler) handlePendingReviews(w http.ResponseWriter, r *http.Request) {
	flagged, err := h.store.ListFlaggedAnswers()
	if err != nil {
		slog.Error("failed to list flagged answers", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if flagged == nil {
		flagged = []store.FlaggedAnswer{}
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"count":   len(flagged),
		"answers": flagged,
	})
}

func (h *Handler) handleGetAnswer(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "answerID"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid answer ID")
		return
	}
	row, err := h.store.GetAnswer(id)
	if err != nil {
		slog.Error("failed to get answer", "id", id, "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if row == nil {
		respondError(w, http.StatusNotFound, "answer not found")
		return
	}
	respondJSON(w, http.StatusOK, row)
}

type reviewRequest struct {
	ReviewedMarks float64 `json:"reviewed_marks"`
	Comment       string  `json:"comment"`
	Approved      bool    `json:"approved"`
}

// handleSubmitReview records a faculty override: the review is applied to the
// answer and sheet total, and the adjustment feeds the marking-pattern
// learner for the sheet's course.
func (h *Handler) handleSubmitReview(w http.ResponseWriter, r *http.Request) {
	answerID, err := strconv.ParseInt(chi.URLParam(r, "answerID"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid answer ID")
		return
	}
	var req reviewRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	row, err := h.store.GetAnswer(answerID)
	if err != nil {
		slog.Error("failed to get answer", "id", answerID, "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if row == nil {
		respondError(w, http.StatusNotFound, "answer not found")
		return
	}
	if req.ReviewedMarks < 0 || req.ReviewedMarks > float64(row.Evaluation.MaxMarks) {
		respondError(w, http.StatusBadRequest, "reviewed marks out of range")
		return
	}

	exam, err := h.store.GetStudentExam(row.Answer.StudentExamID)
	if err != nil || exam == nil {
		slog.Error("failed to get exam for answer", "answer_id", answerID, "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	user := model.UserFromContext(r.Context())
	reviewID, err := h.store.ApplyReview(model.Review{
		AnswerID:      answerID,
		FacultyID:     user.ID,
		OriginalMarks: row.Evaluation.MarksAwarded,
		ReviewedMarks: req.ReviewedMarks,
		Comment:       req.Comment,
		Approved:      req.Approved,
	})
	if err != nil {
		slog.Error("failed to apply review", "answer_id", answerID, "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	if h.learner != nil {
		err := h.learner.RecordAdjustment(model.Adjustment{
			CourseCode:   exam.CourseCode,
			QuestionType: row.Answer.ContentType,
			AIMarks:      row.Evaluation.MarksAwarded,
			FacultyMarks: req.ReviewedMarks,
			Reason:       req.Comment,
			FacultyID:    user.Username,
		})
		if err != nil {
			slog.Warn("failed to record adjustment", "course", exam.CourseCode, "error", err)
		}
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"review_id":      reviewID,
		"reviewed_marks": req.ReviewedMarks,
	})
}

func (h *Handler) handleInsights(w http.ResponseWriter, r *http.Request) {
	courseCode := chi.URLParam(r, "courseCode")
	insights, err := h.learner.MarkingInsights(courseCode)
	if err != nil {
		slog.Error("failed to compute insights", "course", courseCode, "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusOK, insights)
}
