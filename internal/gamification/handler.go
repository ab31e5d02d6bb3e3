package gamification

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/learnloop/backend/internal/auth"
	"github.com/learnloop/backend/internal/models"
)

type XPSummary struct {
	ChildID int64 `json:"child_id"`
	TotalXP int   `json:"total_xp"`
}

type Handler struct {
	ledger Ledger
	log    *zap.Logger
}

func NewHandler(ledger Ledger, log *zap.Logger) *Handler {
	return &Handler{ledger: ledger, log: log.Named("gamification.http")}
}

func (h *Handler) RegisterRoutes(protected *mux.Router) {
	protected.HandleFunc("/xp", h.GetXP).Methods("GET")
}

// ── XP ──────────────────────────────────────────────────

func (h *Handler) GetXP(w http.ResponseWriter, r *http.Request) {
	childID, ok := auth.ChildID(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Authentication required"})
		return
	}

	total, err := h.ledger.TotalXP(r.Context(), childID)
	if err != nil {
		h.log.Error("total xp lookup failed", zap.Int64("child_id", childID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to get XP total"})
		return
	}

	writeJSON(w, http.StatusOK, XPSummary{ChildID: childID, TotalXP: total})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
