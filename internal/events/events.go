// Package events emits engine events to downstream collaborators: XP deltas
// for the ledger service and completion events for daily challenges.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	XPQueue         = "engine.xp"
	ChallengesQueue = "engine.challenges"
)

// ChallengeKind names a completion transition a daily challenge may count.
type ChallengeKind string

const (
	LessonCompleted ChallengeKind = "lesson_completed"
	QuizCompleted   ChallengeKind = "quiz_completed"
	QuizPerfect     ChallengeKind = "quiz_perfect"
)

// XPAwarded is the one XP delta emitted per completed session. Consumers
// dedupe on SessionID.
type XPAwarded struct {
	ID         uuid.UUID `json:"id"`
	SessionID  string    `json:"session_id"`
	ChildID    int64     `json:"child_id"`
	Subject    string    `json:"subject"`
	GradeLevel int       `json:"grade_level"`
	XP         int       `json:"xp"`
	AwardedAt  time.Time `json:"awarded_at"`
}

type ChallengeEvent struct {
	ID         uuid.UUID     `json:"id"`
	Kind       ChallengeKind `json:"kind"`
	SessionID  string        `json:"session_id"`
	ChildID    int64         `json:"child_id"`
	Subject    string        `json:"subject"`
	GradeLevel int           `json:"grade_level"`
	LessonID   string        `json:"lesson_id,omitempty"`
	OccurredAt time.Time     `json:"occurred_at"`
}

type Publisher interface {
	PublishXP(ctx context.Context, ev XPAwarded) error
	PublishChallenge(ctx context.Context, ev ChallengeEvent) error
}

func stamp(id *uuid.UUID, at *time.Time) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
	if at.IsZero() {
		*at = time.Now().UTC()
	}
}

// LogPublisher writes events to the log. It is used when no broker is
// configured.
type LogPublisher struct {
	log *zap.Logger
}

func NewLogPublisher(log *zap.Logger) *LogPublisher {
	return &LogPublisher{log: log.Named("events")}
}

func (p *LogPublisher) PublishXP(_ context.Context, ev XPAwarded) error {
	stamp(&ev.ID, &ev.AwardedAt)
	p.log.Info("xp awarded",
		zap.String("session_id", ev.SessionID),
		zap.Int64("child_id", ev.ChildID),
		zap.Int("xp", ev.XP),
	)
	return nil
}

func (p *LogPublisher) PublishChallenge(_ context.Context, ev ChallengeEvent) error {
	stamp(&ev.ID, &ev.OccurredAt)
	p.log.Info("challenge event",
		zap.String("kind", string(ev.Kind)),
		zap.String("session_id", ev.SessionID),
		zap.Int64("child_id", ev.ChildID),
	)
	return nil
}
