// Package adaptive decides how hard the next exercise should be.
package adaptive

import (
	"fmt"

	"github.com/learnloop/backend/internal/models"
)

const (
	// EscalateAfter is the run of correct answers that moves difficulty up a level.
	EscalateAfter = 3
	// DeescalateAfter is the run of wrong answers that moves difficulty down a level.
	DeescalateAfter = 2

	easyBelow = 40.0
	hardAbove = 75.0
)

// InitialDifficulty picks the starting difficulty of a session from the
// learner's persisted mastery. A nil state (never seen, or a failed read)
// starts at medium.
func InitialDifficulty(state *models.LearnerMasteryState) models.Difficulty {
	if state == nil {
		return models.DifficultyMedium
	}
	switch {
	case state.MasteryLevel < easyBelow:
		return models.DifficultyEasy
	case state.MasteryLevel > hardAbove:
		return models.DifficultyHard
	default:
		return models.DifficultyMedium
	}
}

// DecideNextDifficulty looks at the running session performance and decides
// whether to move one level. It never mutates perf; callers spend the
// triggering streak with SpendStreak once a move fires.
func DecideNextDifficulty(current models.Difficulty, perf *models.SessionPerformance) models.AdaptationDecision {
	current = normalize(current)
	decision := models.AdaptationDecision{
		PreviousDifficulty: current,
		CurrentDifficulty:  current,
	}
	if perf == nil {
		return decision
	}

	switch {
	case perf.ConsecutiveCorrect >= EscalateAfter && current != models.DifficultyHard:
		decision.CurrentDifficulty = Escalate(current)
		reason := fmt.Sprintf("%d correct in a row, moving up to %s", perf.ConsecutiveCorrect, decision.CurrentDifficulty)
		decision.Reason = &reason
	case perf.ConsecutiveWrong >= DeescalateAfter && current != models.DifficultyEasy:
		decision.CurrentDifficulty = Deescalate(current)
		reason := fmt.Sprintf("%d wrong in a row, moving down to %s", perf.ConsecutiveWrong, decision.CurrentDifficulty)
		decision.Reason = &reason
	}

	decision.DifficultyChanged = decision.CurrentDifficulty != decision.PreviousDifficulty
	return decision
}

// SpendStreak resets the counter that triggered a difficulty move so the
// same run cannot fire twice.
func SpendStreak(perf *models.SessionPerformance, decision models.AdaptationDecision) {
	if perf == nil || !decision.DifficultyChanged {
		return
	}
	if decision.CurrentDifficulty.Level() > decision.PreviousDifficulty.Level() {
		perf.ConsecutiveCorrect = 0
	} else {
		perf.ConsecutiveWrong = 0
	}
}

// Escalate returns the next harder level, or d itself at the top.
func Escalate(d models.Difficulty) models.Difficulty {
	switch normalize(d) {
	case models.DifficultyEasy:
		return models.DifficultyMedium
	default:
		return models.DifficultyHard
	}
}

// Deescalate returns the next easier level, or d itself at the bottom.
func Deescalate(d models.Difficulty) models.Difficulty {
	switch normalize(d) {
	case models.DifficultyHard:
		return models.DifficultyMedium
	default:
		return models.DifficultyEasy
	}
}

func normalize(d models.Difficulty) models.Difficulty {
	if models.ValidDifficulties[d] {
		return d
	}
	return models.DifficultyMedium
}
