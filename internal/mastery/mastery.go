// Package mastery persists per-(learner, subject, grade) mastery state.
//
// State is read at session start and written exactly once when a session
// ends. Writes are guarded by an optimistic version counter: a commit built
// from a stale read fails with ErrConflict instead of overwriting the newer
// row, and the caller decides whether to reload and retry.
package mastery

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/learnloop/backend/internal/models"
)

var (
	// ErrConflict means another commit for the same key won the race.
	ErrConflict = fmt.Errorf("mastery commit conflict: %w", models.ErrPersistenceConflict)
	// ErrEmptySession is returned when asked to commit a session with no answers.
	ErrEmptySession = errors.New("session has no answers")
)

type Store interface {
	// Load returns the state for key, creating a default row if none exists.
	Load(ctx context.Context, key models.MasteryKey) (*models.LearnerMasteryState, error)
	// CommitSession folds perf into state and persists it if state is still
	// the latest version. The returned state carries the new version.
	CommitSession(ctx context.Context, state *models.LearnerMasteryState, perf *models.SessionPerformance, final models.Difficulty) (*models.LearnerMasteryState, error)
}

// DifficultyWeight scales how far one session moves the mastery estimate.
func DifficultyWeight(d models.Difficulty) float64 {
	switch d {
	case models.DifficultyEasy:
		return 0.5
	case models.DifficultyHard:
		return 1.5
	default:
		return 1.0
	}
}

// ApplySession returns state updated with one completed session. It does
// not modify its arguments.
func ApplySession(state models.LearnerMasteryState, perf *models.SessionPerformance, final models.Difficulty, now time.Time) models.LearnerMasteryState {
	next := state
	if perf == nil {
		return next
	}

	accuracy := perf.Accuracy()
	sessions := float64(state.TotalSessions)

	next.HistoricalAccuracy = (state.HistoricalAccuracy*sessions + accuracy) / (sessions + 1)
	next.MasteryLevel = clamp(state.MasteryLevel+(accuracy-50)/10*DifficultyWeight(final), 0, 100)
	if perf.BestStreak > next.BestStreak {
		next.BestStreak = perf.BestStreak
	}
	next.TotalSessions = state.TotalSessions + 1

	next.ConsecutiveCorrect = perf.ConsecutiveCorrect
	next.ConsecutiveWrong = perf.ConsecutiveWrong
	if next.ConsecutiveCorrect > 0 {
		next.ConsecutiveWrong = 0
	}

	if models.ValidDifficulties[final] {
		next.LastDifficulty = final
	}
	next.Version = state.Version + 1
	next.UpdatedAt = now.UTC()
	return next
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func validateCommit(state *models.LearnerMasteryState, perf *models.SessionPerformance) error {
	if state == nil {
		return fmt.Errorf("commit session: nil state")
	}
	if perf == nil || perf.TotalAnswered == 0 {
		return ErrEmptySession
	}
	return nil
}
