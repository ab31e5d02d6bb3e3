package gamification

import "github.com/learnloop/backend/internal/models"

// StreakLength is the run of correct answers that earns a streak bonus.
const StreakLength = 3

// PerfectMinimum is the fewest results a session needs before it can be perfect.
const PerfectMinimum = 3

// Rewards holds the XP amounts awarded for a session.
type Rewards struct {
	PerCorrect  int
	StreakBonus int
	Complete    int
	Perfect     int
}

// DefaultRewards are the amounts used when none are configured.
var DefaultRewards = Rewards{
	PerCorrect:  3,
	StreakBonus: 5,
	Complete:    8,
	Perfect:     10,
}

// CalculateXP returns the XP for a session's results using DefaultRewards.
func CalculateXP(results []models.EvaluationResult) int {
	return DefaultRewards.Calculate(results)
}

// Calculate returns the total XP for results, processed in submission order.
func (r Rewards) Calculate(results []models.EvaluationResult) int {
	return r.Breakdown(results).Total
}

// Breakdown returns the per-component XP for results.
//
// The streak counter resets to zero as soon as a bonus fires, so a run of
// six correct answers earns two bonuses, not four.
func (r Rewards) Breakdown(results []models.EvaluationResult) models.XPBreakdown {
	var b models.XPBreakdown
	if len(results) == 0 {
		return b
	}

	streak := 0
	allCorrect := true
	for _, res := range results {
		if !res.IsCorrect {
			allCorrect = false
			streak = 0
			continue
		}
		b.Correct += r.PerCorrect
		streak++
		if streak == StreakLength {
			b.StreakBonus += r.StreakBonus
			streak = 0
		}
	}

	b.Completion = r.Complete
	if allCorrect && len(results) >= PerfectMinimum {
		b.Perfect = r.Perfect
	}
	b.Total = b.Correct + b.StreakBonus + b.Completion + b.Perfect
	return b
}

// IsPerfect reports whether results earn the perfect-session bonus.
func IsPerfect(results []models.EvaluationResult) bool {
	if len(results) < PerfectMinimum {
		return false
	}
	for _, res := range results {
		if !res.IsCorrect {
			return false
		}
	}
	return true
}
