// Package session runs adaptive exercise sessions: it serves exercises at the
// controller's difficulty, scores answers, and commits mastery and XP once
// the session ends.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/learnloop/backend/internal/adaptive"
	"github.com/learnloop/backend/internal/evaluator"
	"github.com/learnloop/backend/internal/events"
	"github.com/learnloop/backend/internal/gamification"
	"github.com/learnloop/backend/internal/generator"
	"github.com/learnloop/backend/internal/mastery"
	"github.com/learnloop/backend/internal/metrics"
	"github.com/learnloop/backend/internal/models"
)

var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrExerciseMismatch = errors.New("exercise is not the outstanding exercise for this session")
	ErrSessionEnded     = errors.New("session has ended")
	// ErrXPNotRecorded means mastery was committed but the XP delta was not
	// written. Ending the session again retries the write.
	ErrXPNotRecorded = errors.New("session xp not recorded")
)

// ExerciseSource supplies exercises at a requested difficulty. It must
// always return at least one exercise.
type ExerciseSource interface {
	Exercises(ctx context.Context, req generator.GenerateRequest) []models.Exercise
}

type Options struct {
	Rewards   gamification.Rewards
	IdleTTL   time.Duration
	BatchSize int
	Metrics   *metrics.Metrics
}

type Service struct {
	store     mastery.Store
	exercises ExerciseSource
	ledger    gamification.Ledger
	events    events.Publisher
	rewards   gamification.Rewards
	idleTTL   time.Duration
	batchSize int
	metrics   *metrics.Metrics
	log       *zap.Logger
	now       func() time.Time

	mu       sync.RWMutex
	sessions map[string]*activeSession
}

// activeSession is the in-memory state of one session. Every field except
// lastActive is guarded by mu.
type activeSession struct {
	mu sync.Mutex

	id            string
	childID       int64
	subject       string
	gradeLevel    int
	lessonID      string
	lessonContent string

	difficulty models.Difficulty
	perf       *models.SessionPerformance
	current    *models.Exercise
	queue      []models.Exercise

	ended      bool
	result     *models.EndSessionResponse
	xpRecorded bool

	lastActive atomic.Int64
}

func (a *activeSession) touch(now time.Time) {
	a.lastActive.Store(now.UnixNano())
}

func (a *activeSession) key() models.MasteryKey {
	return models.MasteryKey{ChildID: a.childID, Subject: a.subject, GradeLevel: a.gradeLevel}
}

func NewService(store mastery.Store, exercises ExerciseSource, ledger gamification.Ledger, pub events.Publisher, opts Options, log *zap.Logger) *Service {
	if opts.Rewards == (gamification.Rewards{}) {
		opts.Rewards = gamification.DefaultRewards
	}
	if opts.IdleTTL <= 0 {
		opts.IdleTTL = 2 * time.Hour
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 5
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.New()
	}

	return &Service{
		store:     store,
		exercises: exercises,
		ledger:    ledger,
		events:    pub,
		rewards:   opts.Rewards,
		idleTTL:   opts.IdleTTL,
		batchSize: opts.BatchSize,
		metrics:   opts.Metrics,
		log:       log.Named("session"),
		now:       time.Now,
		sessions:  make(map[string]*activeSession),
	}
}

// ── Start ───────────────────────────────────────────────

func (s *Service) StartSession(ctx context.Context, childID int64, req models.StartSessionRequest) (*models.StartSessionResponse, error) {
	req.Subject = strings.TrimSpace(req.Subject)
	if req.Subject == "" {
		return nil, fmt.Errorf("%w: subject is required", models.ErrValidation)
	}
	if req.GradeLevel <= 0 {
		return nil, fmt.Errorf("%w: grade_level must be positive", models.ErrValidation)
	}

	s.pruneIdle()

	key := models.MasteryKey{ChildID: childID, Subject: req.Subject, GradeLevel: req.GradeLevel}
	state, err := s.store.Load(ctx, key)
	if err != nil {
		s.log.Warn("mastery load failed, starting at medium",
			zap.Int64("child_id", childID),
			zap.String("subject", req.Subject),
			zap.Error(err),
		)
		state = nil
	}

	sess := &activeSession{
		id:            uuid.NewString(),
		childID:       childID,
		subject:       req.Subject,
		gradeLevel:    req.GradeLevel,
		lessonID:      req.LessonID,
		lessonContent: req.LessonContent,
		difficulty:    adaptive.InitialDifficulty(state),
		perf:          models.NewSessionPerformance(state),
	}
	sess.current = s.nextExercise(ctx, sess)
	sess.touch(s.now())

	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()
	s.metrics.ActiveSessions.Inc()

	s.log.Info("session started",
		zap.String("session_id", sess.id),
		zap.Int64("child_id", childID),
		zap.String("subject", sess.subject),
		zap.Int("grade_level", sess.gradeLevel),
		zap.String("difficulty", string(sess.difficulty)),
	)

	return &models.StartSessionResponse{
		SessionID:         sess.id,
		InitialDifficulty: sess.difficulty,
		Exercise:          sess.current.Public(),
	}, nil
}

// nextExercise pops the next queued exercise, refilling the queue from the
// exercise source when it is empty. Caller holds sess.mu.
func (s *Service) nextExercise(ctx context.Context, sess *activeSession) *models.Exercise {
	if len(sess.queue) == 0 {
		sess.queue = s.exercises.Exercises(ctx, generator.GenerateRequest{
			Subject:             sess.subject,
			GradeLevel:          sess.gradeLevel,
			LessonContent:       sess.lessonContent,
			Difficulty:          sess.difficulty,
			Count:               s.batchSize,
			PreviousPerformance: generator.SummarizePerformance(sess.perf),
		})
	}
	if len(sess.queue) == 0 {
		// Sources promise at least one exercise; templates cover a source that breaks it.
		sess.queue = generator.Templates(sess.difficulty)
	}

	ex := sess.queue[0]
	sess.queue = sess.queue[1:]
	return &ex
}

// ── Answer ──────────────────────────────────────────────

func (s *Service) SubmitAnswer(ctx context.Context, childID int64, sessionID string, req models.SubmitAnswerRequest) (*models.SubmitAnswerResponse, error) {
	sess, err := s.get(childID, sessionID)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.ended {
		return nil, ErrSessionEnded
	}
	ex := sess.current
	if ex == nil || ex.ID != req.ExerciseID {
		return nil, ErrExerciseMismatch
	}

	answer, err := models.DecodeAnswer(req.Answer)
	if err != nil {
		s.log.Debug("undecodable answer scored as incorrect",
			zap.String("session_id", sess.id),
			zap.String("exercise_id", ex.ID),
			zap.Error(err),
		)
		answer = nil
	} else if answer.ExerciseType() != ex.Type {
		s.log.Debug("answer type mismatch scored as incorrect",
			zap.String("session_id", sess.id),
			zap.String("exercise_type", string(ex.Type)),
			zap.String("answer_type", string(answer.ExerciseType())),
		)
	}

	now := s.now()
	result := evaluator.Evaluate(ex, answer)
	sess.perf.Record(models.AnswerRecord{
		ExerciseID:     ex.ID,
		Type:           ex.Type,
		SelectedAnswer: answer,
		CorrectAnswer:  evaluator.CorrectAnswer(ex),
		IsCorrect:      result.IsCorrect,
		Difficulty:     ex.Difficulty,
		Points:         result.Score,
		PossiblePoints: ex.Points,
		AnsweredAt:     now,
	})
	s.metrics.ObserveAnswer(string(ex.Type), result.IsCorrect)

	decision := adaptive.DecideNextDifficulty(sess.difficulty, sess.perf)
	adaptive.SpendStreak(sess.perf, decision)
	s.metrics.ObserveAdaptation(direction(decision))
	if decision.DifficultyChanged {
		s.log.Info("difficulty changed",
			zap.String("session_id", sess.id),
			zap.String("from", string(decision.PreviousDifficulty)),
			zap.String("to", string(decision.CurrentDifficulty)),
		)
		sess.difficulty = decision.CurrentDifficulty
		// Queued exercises were generated for the old difficulty.
		sess.queue = nil
	}

	sess.current = s.nextExercise(ctx, sess)
	sess.touch(now)

	return &models.SubmitAnswerResponse{
		Evaluation:   result,
		Adaptation:   decision,
		NextExercise: sess.current.Public(),
	}, nil
}

func direction(d models.AdaptationDecision) string {
	switch {
	case !d.DifficultyChanged:
		return "hold"
	case d.CurrentDifficulty.Level() > d.PreviousDifficulty.Level():
		return "up"
	default:
		return "down"
	}
}

// ── End ─────────────────────────────────────────────────

// EndSession computes the session's XP and commits its mastery update. It
// is idempotent: once a session has ended, the same result is returned. A
// commit conflict leaves the session open so the caller can retry against
// the latest mastery state. If the XP ledger write fails after the commit,
// ErrXPNotRecorded is returned and a retry writes the delta without
// committing mastery again.
func (s *Service) EndSession(ctx context.Context, childID int64, sessionID string) (*models.EndSessionResponse, error) {
	sess, err := s.get(childID, sessionID)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.result != nil {
		if sess.result.Committed && !sess.xpRecorded {
			if err := s.award(ctx, sess, sess.result.XPBreakdown); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrXPNotRecorded, err)
			}
		}
		return sess.result, nil
	}

	breakdown := s.rewards.Breakdown(sess.perf.Results())
	resp := &models.EndSessionResponse{
		SessionID:   sess.id,
		XPEarned:    breakdown.Total,
		XPBreakdown: breakdown,
	}

	state, err := s.store.Load(ctx, sess.key())
	if err != nil {
		return nil, fmt.Errorf("load mastery: %w", err)
	}

	if sess.perf.TotalAnswered == 0 {
		resp.UpdatedMastery = state
		s.finish(sess, resp)
		s.log.Info("empty session ended without commit", zap.String("session_id", sess.id))
		return resp, nil
	}

	updated, err := s.store.CommitSession(ctx, state, sess.perf, sess.difficulty)
	if err != nil {
		if errors.Is(err, models.ErrPersistenceConflict) {
			s.metrics.CommitConflicts.Inc()
			s.log.Warn("mastery commit conflict", zap.String("session_id", sess.id))
		}
		return nil, fmt.Errorf("commit session: %w", err)
	}
	resp.UpdatedMastery = updated
	resp.Committed = true
	s.finish(sess, resp)

	if err := s.award(ctx, sess, breakdown); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrXPNotRecorded, err)
	}

	s.log.Info("session committed",
		zap.String("session_id", sess.id),
		zap.Int64("child_id", sess.childID),
		zap.Int("answered", sess.perf.TotalAnswered),
		zap.Int("xp", breakdown.Total),
		zap.Float64("mastery", updated.MasteryLevel),
	)
	return resp, nil
}

// award records the XP delta and, once it is recorded, emits completion
// events. A ledger failure is returned so the caller can retry; publish
// failures are only logged. Caller holds sess.mu.
func (s *Service) award(ctx context.Context, sess *activeSession, breakdown models.XPBreakdown) error {
	now := s.now().UTC()

	inserted, err := s.ledger.Record(ctx, gamification.LedgerEntry{
		SessionID:  sess.id,
		ChildID:    sess.childID,
		Subject:    sess.subject,
		GradeLevel: sess.gradeLevel,
		XP:         breakdown.Total,
		Breakdown:  breakdown,
		CreatedAt:  now,
	})
	if err != nil {
		s.log.Error("failed to record xp", zap.String("session_id", sess.id), zap.Error(err))
		return err
	}
	sess.xpRecorded = true
	if inserted {
		s.metrics.XPAwarded.Add(float64(breakdown.Total))
		if err := s.events.PublishXP(ctx, events.XPAwarded{
			SessionID:  sess.id,
			ChildID:    sess.childID,
			Subject:    sess.subject,
			GradeLevel: sess.gradeLevel,
			XP:         breakdown.Total,
			AwardedAt:  now,
		}); err != nil {
			s.log.Warn("failed to publish xp event", zap.String("session_id", sess.id), zap.Error(err))
		}
	}

	kinds := []events.ChallengeKind{events.QuizCompleted}
	if breakdown.Perfect > 0 {
		kinds = append(kinds, events.QuizPerfect)
	}
	if sess.lessonID != "" {
		kinds = append(kinds, events.LessonCompleted)
	}
	for _, kind := range kinds {
		if err := s.events.PublishChallenge(ctx, events.ChallengeEvent{
			Kind:       kind,
			SessionID:  sess.id,
			ChildID:    sess.childID,
			Subject:    sess.subject,
			GradeLevel: sess.gradeLevel,
			LessonID:   sess.lessonID,
			OccurredAt: now,
		}); err != nil {
			s.log.Warn("failed to publish challenge event",
				zap.String("kind", string(kind)),
				zap.String("session_id", sess.id),
				zap.Error(err),
			)
		}
	}
	return nil
}

// finish marks sess ended with resp as its cached result. Caller holds sess.mu.
func (s *Service) finish(sess *activeSession, resp *models.EndSessionResponse) {
	sess.ended = true
	sess.result = resp
	sess.current = nil
	sess.queue = nil
	sess.touch(s.now())
	s.metrics.ActiveSessions.Dec()
}

// ── Reads ───────────────────────────────────────────────

// GetSession returns a copy of the session's running performance.
func (s *Service) GetSession(childID int64, sessionID string) (*models.SessionSnapshot, error) {
	sess, err := s.get(childID, sessionID)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	perf := *sess.perf
	perf.QuestionIDs = append([]string(nil), sess.perf.QuestionIDs...)
	perf.DifficultyHistory = append([]models.Difficulty(nil), sess.perf.DifficultyHistory...)
	perf.Answers = append([]models.AnswerRecord(nil), sess.perf.Answers...)

	return &models.SessionSnapshot{
		SessionID:         sess.id,
		ChildID:           sess.childID,
		Subject:           sess.subject,
		GradeLevel:        sess.gradeLevel,
		CurrentDifficulty: sess.difficulty,
		Performance:       &perf,
		Ended:             sess.ended,
	}, nil
}

func (s *Service) GetMastery(ctx context.Context, childID int64, subject string, gradeLevel int) (*models.LearnerMasteryState, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" || gradeLevel <= 0 {
		return nil, fmt.Errorf("%w: subject and grade_level are required", models.ErrValidation)
	}
	return s.store.Load(ctx, models.MasteryKey{ChildID: childID, Subject: subject, GradeLevel: gradeLevel})
}

// ── Registry ────────────────────────────────────────────

// get returns the session only to the learner who owns it.
func (s *Service) get(childID int64, sessionID string) (*activeSession, error) {
	s.mu.RLock()
	sess, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok || sess.childID != childID {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// pruneIdle drops sessions idle for longer than the TTL. Abandoned sessions
// are discarded without a mastery commit.
func (s *Service) pruneIdle() {
	cutoff := s.now().Add(-s.idleTTL).UnixNano()

	s.mu.Lock()
	defer s.mu.Unlock()
	for id, sess := range s.sessions {
		if sess.lastActive.Load() >= cutoff {
			continue
		}
		// A session whose lock is held is in use right now.
		if !sess.mu.TryLock() {
			continue
		}
		ended := sess.ended
		sess.mu.Unlock()

		delete(s.sessions, id)
		if !ended {
			s.metrics.ActiveSessions.Dec()
			s.log.Info("discarded abandoned session",
				zap.String("session_id", id),
				zap.Int64("child_id", sess.childID),
			)
		}
	}
}

// ActiveSessions returns how many sessions are held in memory.
func (s *Service) ActiveSessions() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
