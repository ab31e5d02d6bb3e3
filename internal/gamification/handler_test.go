package gamification

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/learnloop/backend/internal/auth"
)

func TestHandler_GetXP(t *testing.T) {
	ledger := NewMemoryLedger()
	ctx := context.Background()
	for _, e := range []LedgerEntry{
		{SessionID: "a", ChildID: 3, XP: 11},
		{SessionID: "b", ChildID: 3, XP: 32},
		{SessionID: "c", ChildID: 4, XP: 8},
	} {
		_, err := ledger.Record(ctx, e)
		require.NoError(t, err)
	}

	h := NewHandler(ledger, zap.NewNop())
	req := httptest.NewRequest("GET", "/xp", nil)
	req = req.WithContext(auth.WithChildID(req.Context(), 3))
	rec := httptest.NewRecorder()
	h.GetXP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var got XPSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, XPSummary{ChildID: 3, TotalXP: 43}, got)
}

func TestHandler_GetXPRequiresLearner(t *testing.T) {
	h := NewHandler(NewMemoryLedger(), zap.NewNop())
	rec := httptest.NewRecorder()
	h.GetXP(rec, httptest.NewRequest("GET", "/xp", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
