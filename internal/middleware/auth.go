package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/learnloop/backend/internal/auth"
	"github.com/learnloop/backend/internal/models"
)

// Auth rejects requests without a valid bearer token and stores the
// learner id in the request context.
func Auth(tokens *auth.Tokens) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			tokenString, found := strings.CutPrefix(header, "Bearer ")
			if !found || tokenString == "" {
				unauthorized(w)
				return
			}

			childID, err := tokens.Parse(tokenString)
			if err != nil {
				unauthorized(w)
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithChildID(r.Context(), childID)))
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(models.ErrorResponse{Error: "Unauthorized"})
}
