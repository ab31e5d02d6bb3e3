package mastery

import (
	"context"
	"fmt"
	"time"

	"github.com/learnloop/backend/internal/database"
	"github.com/learnloop/backend/internal/models"
)

type SQLStore struct {
	db  *database.DB
	now func() time.Time
}

func NewSQLStore(db *database.DB) *SQLStore {
	return &SQLStore{db: db, now: time.Now}
}

func (s *SQLStore) Load(ctx context.Context, key models.MasteryKey) (*models.LearnerMasteryState, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO learner_mastery (child_id, subject, grade_level, mastery_level, last_difficulty)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (child_id, subject, grade_level) DO NOTHING`,
		key.ChildID, key.Subject, key.GradeLevel, models.DefaultMasteryLevel, models.DifficultyMedium,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert mastery: %w", err)
	}

	var st models.LearnerMasteryState
	var lastDifficulty string
	err = s.db.QueryRowContext(ctx,
		`SELECT child_id, subject, grade_level, mastery_level, total_sessions,
		        best_streak, historical_accuracy, consecutive_correct, consecutive_wrong,
		        last_difficulty, version, updated_at
		 FROM learner_mastery
		 WHERE child_id = ? AND subject = ? AND grade_level = ?`,
		key.ChildID, key.Subject, key.GradeLevel,
	).Scan(&st.ChildID, &st.Subject, &st.GradeLevel, &st.MasteryLevel, &st.TotalSessions,
		&st.BestStreak, &st.HistoricalAccuracy, &st.ConsecutiveCorrect, &st.ConsecutiveWrong,
		&lastDifficulty, &st.Version, &st.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("get mastery: %w", err)
	}
	st.LastDifficulty = models.Difficulty(lastDifficulty)
	return &st, nil
}

func (s *SQLStore) CommitSession(ctx context.Context, state *models.LearnerMasteryState, perf *models.SessionPerformance, final models.Difficulty) (*models.LearnerMasteryState, error) {
	if err := validateCommit(state, perf); err != nil {
		return nil, err
	}
	next := ApplySession(*state, perf, final, s.now())

	res, err := s.db.ExecContext(ctx,
		`UPDATE learner_mastery SET
		    mastery_level = ?, total_sessions = ?, best_streak = ?,
		    historical_accuracy = ?, consecutive_correct = ?, consecutive_wrong = ?,
		    last_difficulty = ?, version = ?, updated_at = ?
		 WHERE child_id = ? AND subject = ? AND grade_level = ? AND version = ?`,
		next.MasteryLevel, next.TotalSessions, next.BestStreak,
		next.HistoricalAccuracy, next.ConsecutiveCorrect, next.ConsecutiveWrong,
		string(next.LastDifficulty), next.Version, next.UpdatedAt,
		state.ChildID, state.Subject, state.GradeLevel, state.Version,
	)
	if err != nil {
		return nil, fmt.Errorf("update mastery: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("update mastery rows: %w", err)
	}
	if n == 0 {
		return nil, ErrConflict
	}
	return &next, nil
}
