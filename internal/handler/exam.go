package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/kartavya4874/AI-Exam-Checker/internal/model"
)

func (h *Handler) handleListExams(w http.ResponseWriter, r *http.Request) {
	var (
		exams []model.StudentExam
		err   error
	)
	if batch := r.URL.Query().Get("batch"); batch != "" {
		exams, err = h.store.ListExamsByBatch(batch)
	} else {
		exams, err = h.store.ListStudentExams()
	}
	if err != nil {
		slog.Error("failed to list exams", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if exams == nil {
		exams = []model.StudentExam{}
	}
	respondJSON(w, http.StatusOK, exams)
}

func (h *Handler) handleGetExam(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "examID"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid exam ID")
		return
	}
	exam, err := h.store.GetStudentExam(id)
	if err != nil {
		slog.Error("failed to get exam", "id", id, "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if exam == nil {
		respondError(w, http.StatusNotFound, "exam not found")
		return
	}
	answers, err := h.store.ListAnswersForExam(id)
	if err != nil {
		slog.Error("failed to list answers", "exam_id", id, "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"exam":    exam,
		"answers": answers,
	})
}

// handleApproveExam marks a sheet as fully reviewed. Sheets with answers
// still flagged cannot be approved.
func (h *Handler) handleApproveExam(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "examID"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid exam ID")
		return
	}
	exam, err := h.store.GetStudentExam(id)
	if err != nil {
		slog.Error("failed to get exam", "id", id, "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if exam == nil {
		respondError(w, http.StatusNotFound, "exam not found")
		return
	}

	answers, err := h.store.ListAnswersForExam(id)
	if err != nil {
		slog.Error("failed to list answers", "exam_id", id, "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	for _, a := range answers {
		if a.Confidence.NeedsReview {
			respondError(w, http.StatusConflict, "sheet has answers awaiting review")
			return
		}
	}

	if err := h.store.UpdateExamStatus(id, model.SheetReviewed); err != nil {
		slog.Error("failed to update exam status", "id", id, "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"exam_id": id, "status": model.SheetReviewed})
}

func (h *Handler) handleStudentMarks(w http.ResponseWriter, r *http.Request) {
	roll := chi.URLParam(r, "rollNumber")
	exams, err := h.store.ListExamsByRoll(roll)
	if err != nil {
		slog.Error("failed to list exams for student", "roll", roll, "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if exams == nil {
		exams = []model.StudentExam{}
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"roll_number": roll,
		"exams":       exams,
	})
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	export, err := h.store.BuildExport()
	if err != nil {
		slog.Error("failed to build export", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusOK, export)
}
