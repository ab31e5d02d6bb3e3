package session

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/learnloop/backend/internal/auth"
	"github.com/learnloop/backend/internal/mastery"
	"github.com/learnloop/backend/internal/middleware"
	"github.com/learnloop/backend/internal/models"
)

type apiClient struct {
	t      *testing.T
	router http.Handler
	token  string
}

func newAPI(t *testing.T, store mastery.Store) (*apiClient, *fixture) {
	t.Helper()
	f := newFixture(t, store)
	tokens := auth.NewTokens("test-secret", time.Hour)

	r := mux.NewRouter()
	protected := r.PathPrefix("/api/v1").Subrouter()
	protected.Use(middleware.Auth(tokens))
	NewHandler(f.svc, zap.NewNop()).RegisterRoutes(protected)

	token, err := tokens.Issue(42)
	require.NoError(t, err)
	return &apiClient{t: t, router: r, token: token}, f
}

func (c *apiClient) do(method, path string, body any, out any) int {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	rec := httptest.NewRecorder()
	c.router.ServeHTTP(rec, req)

	if out != nil {
		require.NoError(c.t, json.Unmarshal(rec.Body.Bytes(), out), rec.Body.String())
	}
	return rec.Code
}

func TestHandler_SessionLifecycle(t *testing.T) {
	api, _ := newAPI(t, nil)

	var start models.StartSessionResponse
	code := api.do("POST", "/api/v1/sessions", models.StartSessionRequest{Subject: "math", GradeLevel: 3}, &start)
	require.Equal(t, http.StatusCreated, code)
	require.NotNil(t, start.Exercise)

	var submitted models.SubmitAnswerResponse
	code = api.do("POST", "/api/v1/sessions/"+start.SessionID+"/answers", calcAnswer(start.Exercise.ID, 2), &submitted)
	require.Equal(t, http.StatusOK, code)
	assert.True(t, submitted.Evaluation.IsCorrect)

	// The answer log holds interface values, so decode loosely.
	var snap map[string]any
	code = api.do("GET", "/api/v1/sessions/"+start.SessionID, nil, &snap)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(42), snap["child_id"])
	perf, ok := snap["performance"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(1), perf["total_answered"])

	var ended models.EndSessionResponse
	code = api.do("POST", "/api/v1/sessions/"+start.SessionID+"/end", nil, &ended)
	require.Equal(t, http.StatusOK, code)
	assert.True(t, ended.Committed)
	assert.Equal(t, 11, ended.XPEarned)

	var state models.LearnerMasteryState
	code = api.do("GET", "/api/v1/mastery?subject=math&grade_level=3", nil, &state)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 1, state.TotalSessions)
}

func TestHandler_ExerciseSolutionIsNotExposed(t *testing.T) {
	api, _ := newAPI(t, nil)

	var raw map[string]any
	code := api.do("POST", "/api/v1/sessions", models.StartSessionRequest{Subject: "math", GradeLevel: 3}, &raw)
	require.Equal(t, http.StatusCreated, code)

	exercise, ok := raw["exercise"].(map[string]any)
	require.True(t, ok)
	assert.NotContains(t, exercise, "solution")
}

func TestHandler_ErrorMapping(t *testing.T) {
	api, _ := newAPI(t, nil)

	var start models.StartSessionResponse
	require.Equal(t, http.StatusCreated,
		api.do("POST", "/api/v1/sessions", models.StartSessionRequest{Subject: "math", GradeLevel: 3}, &start))

	var errResp models.ErrorResponse
	assert.Equal(t, http.StatusNotFound,
		api.do("POST", "/api/v1/sessions/missing/answers", calcAnswer("x", 2), &errResp))

	assert.Equal(t, http.StatusConflict,
		api.do("POST", "/api/v1/sessions/"+start.SessionID+"/answers", calcAnswer("not-current", 2), &errResp))
	assert.False(t, errResp.Retryable)

	assert.Equal(t, http.StatusBadRequest,
		api.do("POST", "/api/v1/sessions", models.StartSessionRequest{GradeLevel: 3}, &errResp))

	assert.Equal(t, http.StatusBadRequest,
		api.do("GET", "/api/v1/mastery?subject=math&grade_level=three", nil, &errResp))
}

func TestHandler_CommitConflictIsRetryable(t *testing.T) {
	api, _ := newAPI(t, &stubStore{MemoryStore: mastery.NewMemoryStore(), conflicts: 1})

	var start models.StartSessionResponse
	require.Equal(t, http.StatusCreated,
		api.do("POST", "/api/v1/sessions", models.StartSessionRequest{Subject: "math", GradeLevel: 3}, &start))
	require.Equal(t, http.StatusOK,
		api.do("POST", "/api/v1/sessions/"+start.SessionID+"/answers", calcAnswer(start.Exercise.ID, 2), nil))

	var errResp models.ErrorResponse
	assert.Equal(t, http.StatusConflict, api.do("POST", "/api/v1/sessions/"+start.SessionID+"/end", nil, &errResp))
	assert.True(t, errResp.Retryable)

	var ended models.EndSessionResponse
	assert.Equal(t, http.StatusOK, api.do("POST", "/api/v1/sessions/"+start.SessionID+"/end", nil, &ended))
	assert.True(t, ended.Committed)
}

func TestHandler_UnrecordedXPIsRetryable(t *testing.T) {
	f := newFixture(t, nil)
	ledger := &flakyLedger{MemoryLedger: f.ledger, failures: 1}
	svc := NewService(f.store, f.source, ledger, f.pub, Options{IdleTTL: time.Hour, BatchSize: 2, Metrics: f.metrics}, zap.NewNop())

	tokens := auth.NewTokens("test-secret", time.Hour)
	r := mux.NewRouter()
	protected := r.PathPrefix("/api/v1").Subrouter()
	protected.Use(middleware.Auth(tokens))
	NewHandler(svc, zap.NewNop()).RegisterRoutes(protected)
	token, err := tokens.Issue(42)
	require.NoError(t, err)
	api := &apiClient{t: t, router: r, token: token}

	var start models.StartSessionResponse
	require.Equal(t, http.StatusCreated,
		api.do("POST", "/api/v1/sessions", models.StartSessionRequest{Subject: "math", GradeLevel: 3}, &start))
	require.Equal(t, http.StatusOK,
		api.do("POST", "/api/v1/sessions/"+start.SessionID+"/answers", calcAnswer(start.Exercise.ID, 2), nil))

	var errResp models.ErrorResponse
	assert.Equal(t, http.StatusServiceUnavailable, api.do("POST", "/api/v1/sessions/"+start.SessionID+"/end", nil, &errResp))
	assert.True(t, errResp.Retryable)

	var ended models.EndSessionResponse
	assert.Equal(t, http.StatusOK, api.do("POST", "/api/v1/sessions/"+start.SessionID+"/end", nil, &ended))
	assert.True(t, ended.Committed)
	total, _ := f.ledger.TotalXP(t.Context(), 42)
	assert.Equal(t, ended.XPEarned, total)
}

func TestHandler_RequiresToken(t *testing.T) {
	api, _ := newAPI(t, nil)

	api.token = ""
	assert.Equal(t, http.StatusUnauthorized,
		api.do("POST", "/api/v1/sessions", models.StartSessionRequest{Subject: "math", GradeLevel: 3}, nil))

	api.token = "not-a-jwt"
	assert.Equal(t, http.StatusUnauthorized, api.do("GET", "/api/v1/mastery?subject=math&grade_level=3", nil, nil))
}
