// Package handler exposes the faculty-facing JSON API: review queues, marks
// overrides, per-student results, marking insights, and result export.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/kartavya4874/AI-Exam-Checker/internal/i18n"
	"github.com/kartavya4874/AI-Exam-Checker/internal/learner"
	"github.com/kartavya4874/AI-Exam-Checker/internal/model"
	"github.com/kartavya4874/AI-Exam-Checker/internal/store"
)

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	store   *store.Store
	learner *learner.Learner
	config  model.GradeConfig
}

// New creates a new Handler.
func New(s *store.Store, l *learner.Learner, cfg model.GradeConfig) *Handler {
	return &Handler{store: s, learner: l, config: cfg}
}

// Router builds the full route tree.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(i18n.Middleware(h.config.Lang))

	r.Post("/api/login", h.handleLogin)
	r.Post("/api/logout", h.handleLogout)
	r.Get("/api/health", h.handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(h.requireAuth)

		r.Get("/api/reviews/pending", h.handlePendingReviews)
		r.Get("/api/answers/{answerID}", h.handleGetAnswer)
		r.Post("/api/answers/{answerID}/review", h.handleSubmitReview)

		r.Get("/api/exams", h.handleListExams)
		r.Get("/api/exams/{examID}", h.handleGetExam)
		r.Post("/api/exams/{examID}/approve", h.handleApproveExam)
		r.Get("/api/students/{rollNumber}/marks", h.handleStudentMarks)

		r.Get("/api/insights/{courseCode}", h.handleInsights)
		r.Get("/api/export", h.handleExport)

		r.Group(func(r chi.Router) {
			r.Use(requireRole(model.UserRoleAdmin))
			r.Get("/api/users", h.handleListUsers)
			r.Post("/api/users", h.handleCreateUser)
			r.Post("/api/users/{userID}/active", h.handleSetUserActive)
		})
	})

	return r
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}
