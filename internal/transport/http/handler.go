package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	"travelpro-gamification/internal/app"
	"travelpro-gamification/internal/domain"
)

// Handler exposes the gamification REST API. Responses use the
// {success, data|error} envelope the frontend expects.
type Handler struct {
	submissions *app.SubmissionService
	stats       *app.StatsService
	catalog     app.QuizCatalog
	auth        *JWTAuth
	validate    *validator.Validate
	log         *slog.Logger
}

func NewHandler(submissions *app.SubmissionService, stats *app.StatsService, catalog app.QuizCatalog, auth *JWTAuth, log *slog.Logger) *Handler {
	return &Handler{
		submissions: submissions,
		stats:       stats,
		catalog:     catalog,
		auth:        auth,
		validate:    validator.New(),
		log:         log,
	}
}

// Routes wires every endpoint onto a mux. All /api and /ws routes require a
// valid bearer token.
func (h *Handler) Routes(ws *WSHandler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("ok"))
	})

	api := http.NewServeMux()
	api.HandleFunc("GET /api/quizzes", h.listQuizzes)
	api.HandleFunc("GET /api/quizzes/{quizID}", h.getQuiz)
	api.HandleFunc("POST /api/quizzes/{quizID}/submit", h.submitQuiz)
	api.HandleFunc("GET /api/users/{userID}/stats", h.userStats)
	api.HandleFunc("GET /api/companies/{companyID}/leaderboard", h.leaderboard)
	api.HandleFunc("GET /api/badges", h.badges)
	if ws != nil {
		api.HandleFunc("GET /ws/notifications", ws.ServeWS)
	}
	mux.Handle("/", h.auth.Middleware(api))
	return mux
}

type submitRequest struct {
	Answers   []json.RawMessage `json:"answers" validate:"required"`
	TimeSpent int               `json:"timeSpent" validate:"gte=0"`
}

func (h *Handler) submitQuiz(w http.ResponseWriter, r *http.Request) {
	caller, ok := IdentityFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	quizID, err := pathID(r, "quizID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid quiz id")
		return
	}

	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid submission payload")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid submission payload")
		return
	}

	summary, err := h.submissions.SubmitQuiz(r.Context(), caller.UserID, quizID, req.Answers, req.TimeSpent)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrQuizNotFound):
			writeError(w, http.StatusNotFound, "Quiz not found")
		case errors.Is(err, domain.ErrInvalidSubmission):
			writeError(w, http.StatusBadRequest, "Invalid submission payload")
		default:
			h.log.Error("submit quiz", "quizId", quizID, "userId", caller.UserID, "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to submit quiz")
		}
		return
	}
	writeData(w, http.StatusOK, summary)
}

func (h *Handler) listQuizzes(w http.ResponseWriter, r *http.Request) {
	listings, err := h.catalog.ListQuizzes(r.Context())
	if err != nil {
		h.log.Error("list quizzes", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch quizzes")
		return
	}
	writeData(w, http.StatusOK, listings)
}

type quizResponse struct {
	domain.Quiz
	Questions []domain.Question `json:"questions"`
}

func (h *Handler) getQuiz(w http.ResponseWriter, r *http.Request) {
	quizID, err := pathID(r, "quizID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid quiz id")
		return
	}
	// Question.CorrectAnswer is excluded from serialization, so takers never
	// see the answer key.
	quiz, questions, err := h.catalog.GetQuiz(r.Context(), quizID)
	if err != nil {
		if errors.Is(err, domain.ErrQuizNotFound) {
			writeError(w, http.StatusNotFound, "Quiz not found")
			return
		}
		h.log.Error("get quiz", "quizId", quizID, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch quiz")
		return
	}
	writeData(w, http.StatusOK, quizResponse{Quiz: quiz, Questions: questions})
}

func (h *Handler) userStats(w http.ResponseWriter, r *http.Request) {
	caller, _ := IdentityFrom(r.Context())
	userID, err := pathID(r, "userID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid user id")
		return
	}
	if caller.UserID != userID && !caller.IsAdmin() {
		writeError(w, http.StatusForbidden, "Access denied")
		return
	}
	overview, err := h.stats.UserOverview(r.Context(), caller.CompanyID, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			writeError(w, http.StatusNotFound, "User not found")
			return
		}
		h.log.Error("user stats", "userId", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch user statistics")
		return
	}
	writeData(w, http.StatusOK, overview)
}

func (h *Handler) leaderboard(w http.ResponseWriter, r *http.Request) {
	caller, _ := IdentityFrom(r.Context())
	companyID, err := pathID(r, "companyID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid company id")
		return
	}
	if caller.CompanyID != companyID && caller.Role != RoleSuperAdmin {
		writeError(w, http.StatusForbidden, "Access denied")
		return
	}
	entries, err := h.stats.Leaderboard(r.Context(), companyID)
	if err != nil {
		h.log.Error("leaderboard", "companyId", companyID, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch leaderboard")
		return
	}
	writeData(w, http.StatusOK, entries)
}

func (h *Handler) badges(w http.ResponseWriter, r *http.Request) {
	badges, err := h.stats.Badges(r.Context())
	if err != nil {
		h.log.Error("badge catalog", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch badges")
		return
	}
	writeData(w, http.StatusOK, badges)
}

func pathID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(r.PathValue(name), 10, 64)
}

type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, envelope{Success: true, Data: data})
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, envelope{Success: false, Error: message})
}

func writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
