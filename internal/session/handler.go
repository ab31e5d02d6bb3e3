package session

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/learnloop/backend/internal/auth"
	"github.com/learnloop/backend/internal/models"
)

type Handler struct {
	service *Service
	log     *zap.Logger
}

func NewHandler(service *Service, log *zap.Logger) *Handler {
	return &Handler{service: service, log: log.Named("session.http")}
}

// RegisterRoutes mounts the session and mastery routes on an authenticated router.
func (h *Handler) RegisterRoutes(protected *mux.Router) {
	protected.HandleFunc("/sessions", h.StartSession).Methods("POST")
	protected.HandleFunc("/sessions/{id}", h.GetSession).Methods("GET")
	protected.HandleFunc("/sessions/{id}/answers", h.SubmitAnswer).Methods("POST")
	protected.HandleFunc("/sessions/{id}/end", h.EndSession).Methods("POST")
	protected.HandleFunc("/mastery", h.GetMastery).Methods("GET")
}

func (h *Handler) StartSession(w http.ResponseWriter, r *http.Request) {
	childID, ok := auth.ChildID(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Unauthorized"})
		return
	}

	var req models.StartSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}

	resp, err := h.service.StartSession(r.Context(), childID, req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	childID, ok := auth.ChildID(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Unauthorized"})
		return
	}

	snapshot, err := h.service.GetSession(childID, mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

func (h *Handler) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	childID, ok := auth.ChildID(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Unauthorized"})
		return
	}

	var req models.SubmitAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}
	if req.ExerciseID == "" {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "exercise_id is required"})
		return
	}

	resp, err := h.service.SubmitAnswer(r.Context(), childID, mux.Vars(r)["id"], req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) EndSession(w http.ResponseWriter, r *http.Request) {
	childID, ok := auth.ChildID(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Unauthorized"})
		return
	}

	resp, err := h.service.EndSession(r.Context(), childID, mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) GetMastery(w http.ResponseWriter, r *http.Request) {
	childID, ok := auth.ChildID(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Unauthorized"})
		return
	}

	query := r.URL.Query()
	grade, err := strconv.Atoi(query.Get("grade_level"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "grade_level must be an integer"})
		return
	}

	state, err := h.service.GetMastery(r.Context(), childID, query.Get("subject"), grade)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// writeError maps service errors to status codes.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrSessionNotFound):
		writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "Session not found"})
	case errors.Is(err, ErrExerciseMismatch):
		writeJSON(w, http.StatusConflict, models.ErrorResponse{Error: err.Error()})
	case errors.Is(err, ErrSessionEnded):
		writeJSON(w, http.StatusConflict, models.ErrorResponse{Error: err.Error()})
	case errors.Is(err, models.ErrPersistenceConflict):
		writeJSON(w, http.StatusConflict, models.ErrorResponse{Error: "Mastery was updated concurrently, retry", Retryable: true})
	case errors.Is(err, ErrXPNotRecorded):
		h.log.Warn("xp not recorded", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, models.ErrorResponse{Error: "Session saved but XP is pending, retry", Retryable: true})
	case errors.Is(err, models.ErrValidation):
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
	default:
		h.log.Error("request failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Internal server error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
