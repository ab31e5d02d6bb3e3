package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/learnloop/backend/internal/models"
)

var usernamePattern = regexp.MustCompile(`^[a-z0-9_]{3,32}$`)

type Handler struct {
	store  Store
	tokens *Tokens
	log    *zap.Logger
}

func NewHandler(store Store, tokens *Tokens, log *zap.Logger) *Handler {
	return &Handler{store: store, tokens: tokens, log: log.Named("auth")}
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}

	req.Username = strings.TrimSpace(strings.ToLower(req.Username))
	req.Name = strings.TrimSpace(req.Name)

	if req.Username == "" || req.Name == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Username, name, and password are required"})
		return
	}
	if !usernamePattern.MatchString(req.Username) {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Username must be 3-32 lowercase letters, digits or underscores"})
		return
	}
	if len(req.Password) < 8 {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Password must be at least 8 characters"})
		return
	}
	if req.GradeLevel < 0 || req.GradeLevel > 12 {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "grade_level must be between 0 and 12"})
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Internal server error"})
		return
	}

	learner := models.Learner{
		Username:   req.Username,
		Name:       req.Name,
		GradeLevel: req.GradeLevel,
		Password:   string(hashedPassword),
	}
	if err := h.store.Create(r.Context(), &learner); err != nil {
		if errors.Is(err, ErrUsernameTaken) {
			writeJSON(w, http.StatusConflict, models.ErrorResponse{Error: "That username is already taken"})
			return
		}
		h.log.Error("create learner failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to create account"})
		return
	}

	token, err := h.tokens.Issue(learner.ID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to generate token"})
		return
	}

	h.log.Info("learner registered", zap.Int64("child_id", learner.ID))
	writeJSON(w, http.StatusCreated, models.AuthResponse{Token: token, Learner: learner})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}

	req.Username = strings.TrimSpace(strings.ToLower(req.Username))

	if req.Username == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Username and password are required"})
		return
	}

	learner, err := h.store.GetByUsername(r.Context(), req.Username)
	if errors.Is(err, ErrLearnerNotFound) {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Invalid username or password"})
		return
	}
	if err != nil {
		h.log.Error("login lookup failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Internal server error"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(learner.Password), []byte(req.Password)); err != nil {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Invalid username or password"})
		return
	}

	token, err := h.tokens.Issue(learner.ID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to generate token"})
		return
	}

	writeJSON(w, http.StatusOK, models.AuthResponse{Token: token, Learner: *learner})
}

func (h *Handler) GetCurrentLearner(w http.ResponseWriter, r *http.Request) {
	childID, ok := ChildID(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Unauthorized"})
		return
	}

	learner, err := h.store.GetByID(r.Context(), childID)
	if err != nil {
		writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "Learner not found"})
		return
	}

	writeJSON(w, http.StatusOK, learner)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
