package models

import "time"

// EvaluationResult is the outcome of scoring one answer.
type EvaluationResult struct {
	IsCorrect     bool     `json:"is_correct"`
	Score         int      `json:"score"`
	PartialCredit *float64 `json:"partial_credit,omitempty"`
}

// AdaptationDecision records what the difficulty controller decided after
// an answer. Reason is nil when nothing changed.
type AdaptationDecision struct {
	PreviousDifficulty Difficulty `json:"previous_difficulty"`
	CurrentDifficulty  Difficulty `json:"current_difficulty"`
	DifficultyChanged  bool       `json:"difficulty_changed"`
	Reason             *string    `json:"reason"`
}

// AnswerRecord is one entry of a session's ordered answer log.
type AnswerRecord struct {
	ExerciseID     string       `json:"exercise_id"`
	Type           ExerciseType `json:"type"`
	SelectedAnswer Answer       `json:"selected_answer"`
	CorrectAnswer  any          `json:"correct_answer"`
	IsCorrect      bool         `json:"is_correct"`
	Difficulty     Difficulty   `json:"difficulty"`
	Points         int          `json:"points"`
	PossiblePoints int          `json:"possible_points"`
	AnsweredAt     time.Time    `json:"answered_at"`
}

// SessionPerformance is the in-memory running tally of one session. It is
// folded into LearnerMasteryState at commit and then discarded.
//
// ConsecutiveCorrect/ConsecutiveWrong drive adaptation and are reset when a
// difficulty move spends them. CurrentStreak/BestStreak track the plain run
// of correct answers and are never spent.
type SessionPerformance struct {
	TotalAnswered       int            `json:"total_answered"`
	CorrectCount        int            `json:"correct_count"`
	ConsecutiveCorrect  int            `json:"consecutive_correct"`
	ConsecutiveWrong    int            `json:"consecutive_wrong"`
	CurrentStreak       int            `json:"current_streak"`
	BestStreak          int            `json:"best_streak"`
	QuestionIDs         []string       `json:"question_ids"`
	DifficultyHistory   []Difficulty   `json:"difficulty_history"`
	EarnedPoints        int            `json:"earned_points"`
	TotalPossiblePoints int            `json:"total_possible_points"`
	Answers             []AnswerRecord `json:"answers"`
}

// NewSessionPerformance seeds a session from the learner's persisted streak
// counters so streaks continue across sessions.
func NewSessionPerformance(state *LearnerMasteryState) *SessionPerformance {
	p := &SessionPerformance{
		QuestionIDs:       []string{},
		DifficultyHistory: []Difficulty{},
		Answers:           []AnswerRecord{},
	}
	if state != nil {
		p.ConsecutiveCorrect = state.ConsecutiveCorrect
		p.ConsecutiveWrong = state.ConsecutiveWrong
		if p.ConsecutiveCorrect > 0 && p.ConsecutiveWrong > 0 {
			p.ConsecutiveWrong = 0
		}
		// A run of correct answers continues from the last session.
		p.CurrentStreak = p.ConsecutiveCorrect
		p.BestStreak = p.CurrentStreak
	}
	return p
}

// Record appends an answer and updates every counter. Exactly one of the
// consecutive counters is nonzero afterwards.
func (p *SessionPerformance) Record(rec AnswerRecord) {
	p.TotalAnswered++
	p.QuestionIDs = append(p.QuestionIDs, rec.ExerciseID)
	p.DifficultyHistory = append(p.DifficultyHistory, rec.Difficulty)
	p.EarnedPoints += rec.Points
	p.TotalPossiblePoints += rec.PossiblePoints
	p.Answers = append(p.Answers, rec)

	if rec.IsCorrect {
		p.CorrectCount++
		p.ConsecutiveCorrect++
		p.ConsecutiveWrong = 0
		p.CurrentStreak++
		if p.CurrentStreak > p.BestStreak {
			p.BestStreak = p.CurrentStreak
		}
		return
	}
	p.ConsecutiveWrong++
	p.ConsecutiveCorrect = 0
	p.CurrentStreak = 0
}

// Accuracy returns the percentage of correct answers, or 0 for an empty session.
func (p *SessionPerformance) Accuracy() float64 {
	if p.TotalAnswered == 0 {
		return 0
	}
	return float64(p.CorrectCount) / float64(p.TotalAnswered) * 100
}

// Results returns the evaluation outcomes in submission order.
func (p *SessionPerformance) Results() []EvaluationResult {
	out := make([]EvaluationResult, 0, len(p.Answers))
	for _, a := range p.Answers {
		out = append(out, EvaluationResult{IsCorrect: a.IsCorrect, Score: a.Points})
	}
	return out
}
