package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"adaptive-quiz-service/internal/app"
	"adaptive-quiz-service/internal/cognitive"
	"adaptive-quiz-service/internal/domain"
)

// RouterOptions tunes the HTTP surface.
type RouterOptions struct {
	AllowedOrigins []string
	Logger         *slog.Logger
}

// NewRouter mounts the REST API, the websocket endpoint and the health check.
func NewRouter(service *app.QuizService, opts RouterOptions) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	api := &restHandler{service: service, logger: logger}
	ws := NewWSHandler(service, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Get("/ws", ws.ServeWS)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(30 * time.Second))
		r.Get("/categories", api.categories)
		r.Get("/reference", api.reference)
		r.Get("/users/{userID}/results/latest", api.latestResult)
		r.Post("/sessions", api.startSession)
		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Get("/question", api.question)
			r.Post("/answer", api.answer)
			r.Post("/upgrade", api.upgrade)
			r.Get("/progress", api.progress)
			r.Get("/state", api.state)
			r.Post("/finish", api.finish)
		})
	})
	return r
}

type restHandler struct {
	service *app.QuizService
	logger  *slog.Logger
}

type answerRequest struct {
	SelectedIndex *int `json:"selectedIndex"`
}

type questionResponse struct {
	Question domain.QuestionView `json:"question"`
	Progress domain.Progress     `json:"progress"`
}

type answerResponse struct {
	Result   domain.AnswerResult `json:"result"`
	Complete bool                `json:"complete"`
}

func (h *restHandler) startSession(w http.ResponseWriter, r *http.Request) {
	var req app.StartRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid session request")
			return
		}
	}
	info, err := h.service.StartSession(r.Context(), req)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, info)
}

func (h *restHandler) question(w http.ResponseWriter, r *http.Request) {
	q, progress, err := h.service.CurrentQuestion(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, questionResponse{Question: q, Progress: progress})
}

func (h *restHandler) answer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SelectedIndex == nil {
		writeError(w, http.StatusBadRequest, "selectedIndex is required")
		return
	}
	res, complete, err := h.service.SubmitAnswer(r.Context(), chi.URLParam(r, "id"), *req.SelectedIndex)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, answerResponse{Result: res, Complete: complete})
}

func (h *restHandler) upgrade(w http.ResponseWriter, r *http.Request) {
	state, err := h.service.UpgradeLevel(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (h *restHandler) progress(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.Progress(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *restHandler) state(w http.ResponseWriter, r *http.Request) {
	st, err := h.service.State(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (h *restHandler) finish(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Finish(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *restHandler) latestResult(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.LatestResult(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *restHandler) categories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.service.Categories(r.Context(), r.URL.Query().Get("pool"))
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"categories": cats})
}

func (h *restHandler) reference(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, cognitive.Reference())
}

func (h *restHandler) fail(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", "err", err)
		writeError(w, status, "internal error")
		return
	}
	writeError(w, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrResultNotFound),
		errors.Is(err, domain.ErrPoolEmpty):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrNoActiveQuestion),
		errors.Is(err, domain.ErrSessionComplete),
		errors.Is(err, domain.ErrUpgradeUnavailable):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorPayload{Message: msg})
}
