package models

import "time"

// DefaultMasteryLevel is the neutral starting estimate for a learner who has
// never been seen in a subject/grade.
const DefaultMasteryLevel = 50.0

// MasteryKey identifies one LearnerMasteryState row.
type MasteryKey struct {
	ChildID    int64  `json:"child_id"`
	Subject    string `json:"subject"`
	GradeLevel int    `json:"grade_level"`
}

type LearnerMasteryState struct {
	ChildID            int64      `json:"child_id"`
	Subject            string     `json:"subject"`
	GradeLevel         int        `json:"grade_level"`
	MasteryLevel       float64    `json:"mastery_level"`
	TotalSessions      int        `json:"total_sessions"`
	BestStreak         int        `json:"best_streak"`
	HistoricalAccuracy float64    `json:"historical_accuracy"`
	ConsecutiveCorrect int        `json:"consecutive_correct"`
	ConsecutiveWrong   int        `json:"consecutive_wrong"`
	LastDifficulty     Difficulty `json:"last_difficulty"`
	Version            int64      `json:"version"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

func (s *LearnerMasteryState) Key() MasteryKey {
	return MasteryKey{ChildID: s.ChildID, Subject: s.Subject, GradeLevel: s.GradeLevel}
}

// NewMasteryState returns the zero-initialized state used for a key that has
// no persisted row yet.
func NewMasteryState(key MasteryKey) *LearnerMasteryState {
	return &LearnerMasteryState{
		ChildID:        key.ChildID,
		Subject:        key.Subject,
		GradeLevel:     key.GradeLevel,
		MasteryLevel:   DefaultMasteryLevel,
		LastDifficulty: DifficultyMedium,
	}
}
