package models

import (
	"strings"
	"time"
)

// Learner is an account that owns mastery rows. Its ID is the childId used
// throughout the engine.
type Learner struct {
	ID         int64     `json:"id"`
	Username   string    `json:"username"`
	Name       string    `json:"name"`
	GradeLevel int       `json:"grade_level"`
	Password   string    `json:"-"`
	CreatedAt  time.Time `json:"created_at"`
}

// DisplayName returns the first name only, which is what learners see of
// each other.
func (l Learner) DisplayName() string {
	fields := strings.Fields(l.Name)
	if len(fields) == 0 {
		return l.Username
	}
	return fields[0]
}

type RegisterRequest struct {
	Username   string `json:"username"`
	Name       string `json:"name"`
	GradeLevel int    `json:"grade_level"`
	Password   string `json:"password"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Token   string  `json:"token"`
	Learner Learner `json:"learner"`
}
