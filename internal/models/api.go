package models

// ── API Request/Response Types ────────────────────────────

type StartSessionRequest struct {
	Subject       string `json:"subject"`
	GradeLevel    int    `json:"grade_level"`
	LessonID      string `json:"lesson_id,omitempty"`
	LessonContent string `json:"lesson_content,omitempty"`
}

type StartSessionResponse struct {
	SessionID         string          `json:"session_id"`
	InitialDifficulty Difficulty      `json:"initial_difficulty"`
	Exercise          *PublicExercise `json:"exercise"`
}

type SubmitAnswerRequest struct {
	ExerciseID string         `json:"exercise_id"`
	Answer     AnswerEnvelope `json:"answer"`
}

type SubmitAnswerResponse struct {
	Evaluation   EvaluationResult   `json:"evaluation"`
	Adaptation   AdaptationDecision `json:"adaptation"`
	NextExercise *PublicExercise    `json:"next_exercise"`
}

type XPBreakdown struct {
	Correct     int `json:"correct"`
	StreakBonus int `json:"streak_bonus"`
	Completion  int `json:"completion"`
	Perfect     int `json:"perfect"`
	Total       int `json:"total"`
}

type EndSessionResponse struct {
	SessionID      string               `json:"session_id"`
	XPEarned       int                  `json:"xp_earned"`
	XPBreakdown    XPBreakdown          `json:"xp_breakdown"`
	UpdatedMastery *LearnerMasteryState `json:"updated_mastery"`
	Committed      bool                 `json:"committed"`
}

type SessionSnapshot struct {
	SessionID         string              `json:"session_id"`
	ChildID           int64               `json:"child_id"`
	Subject           string              `json:"subject"`
	GradeLevel        int                 `json:"grade_level"`
	CurrentDifficulty Difficulty          `json:"current_difficulty"`
	Performance       *SessionPerformance `json:"performance"`
	Ended             bool                `json:"ended"`
}
