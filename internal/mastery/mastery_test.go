package mastery

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnloop/backend/internal/database"
	"github.com/learnloop/backend/internal/models"
)

func perfWith(pattern string) *models.SessionPerformance {
	p := models.NewSessionPerformance(nil)
	for i, c := range pattern {
		p.Record(models.AnswerRecord{
			ExerciseID: string(rune('a' + i)),
			IsCorrect:  c == 'c',
			Difficulty: models.DifficultyMedium,
		})
	}
	return p
}

func TestApplySessionHistoricalAccuracy(t *testing.T) {
	state := models.LearnerMasteryState{HistoricalAccuracy: 60, TotalSessions: 4, MasteryLevel: 50}
	got := ApplySession(state, perfWith("cccc"), models.DifficultyMedium, time.Now())

	if got.HistoricalAccuracy != 68 {
		t.Errorf("HistoricalAccuracy = %v, want 68", got.HistoricalAccuracy)
	}
	if got.TotalSessions != 5 {
		t.Errorf("TotalSessions = %d, want 5", got.TotalSessions)
	}
	if got.Version != 1 {
		t.Errorf("Version = %d, want 1", got.Version)
	}
}

func TestApplySessionMasteryNudge(t *testing.T) {
	tests := []struct {
		start   float64
		pattern string
		final   models.Difficulty
		want    float64
	}{
		{50, "cccc", models.DifficultyEasy, 52.5},
		{50, "cccc", models.DifficultyMedium, 55},
		{50, "cccc", models.DifficultyHard, 57.5},
		{50, "wwww", models.DifficultyHard, 42.5},
		{50, "cw", models.DifficultyMedium, 50},
		{99, "cccc", models.DifficultyHard, 100},
		{2, "wwww", models.DifficultyMedium, 0},
	}

	for _, tt := range tests {
		state := models.LearnerMasteryState{MasteryLevel: tt.start}
		got := ApplySession(state, perfWith(tt.pattern), tt.final, time.Now())
		if math.Abs(got.MasteryLevel-tt.want) > 1e-9 {
			t.Errorf("ApplySession(%v, %s, %s).MasteryLevel = %v, want %v", tt.start, tt.pattern, tt.final, got.MasteryLevel, tt.want)
		}
	}
}

func TestApplySessionStreaks(t *testing.T) {
	state := models.LearnerMasteryState{BestStreak: 2, ConsecutiveWrong: 1}
	perf := perfWith("ccccwcc")
	got := ApplySession(state, perf, models.DifficultyHard, time.Now())

	assert.Equal(t, 4, got.BestStreak)
	assert.Equal(t, 2, got.ConsecutiveCorrect)
	assert.Equal(t, 0, got.ConsecutiveWrong)
	assert.Equal(t, models.DifficultyHard, got.LastDifficulty)

	// A lower session best never lowers the stored best.
	state = models.LearnerMasteryState{BestStreak: 9}
	got = ApplySession(state, perfWith("cwcw"), models.DifficultyMedium, time.Now())
	assert.Equal(t, 9, got.BestStreak)
	assert.Equal(t, 0, got.ConsecutiveCorrect)
	assert.Equal(t, 1, got.ConsecutiveWrong)
}

func TestApplySessionStreakSpansSessions(t *testing.T) {
	state := models.LearnerMasteryState{BestStreak: 2, ConsecutiveCorrect: 2}
	perf := models.NewSessionPerformance(&state)
	for _, id := range []string{"a", "b"} {
		perf.Record(models.AnswerRecord{ExerciseID: id, IsCorrect: true, Difficulty: models.DifficultyMedium})
	}

	got := ApplySession(state, perf, models.DifficultyMedium, time.Now())
	assert.Equal(t, 4, got.BestStreak)
	assert.Equal(t, 4, got.ConsecutiveCorrect)

	// A wrong answer first breaks the carried run.
	perf = models.NewSessionPerformance(&state)
	perf.Record(models.AnswerRecord{ExerciseID: "a", Difficulty: models.DifficultyMedium})
	perf.Record(models.AnswerRecord{ExerciseID: "b", IsCorrect: true, Difficulty: models.DifficultyMedium})
	got = ApplySession(state, perf, models.DifficultyMedium, time.Now())
	assert.Equal(t, 2, got.BestStreak)
	assert.Equal(t, 1, got.ConsecutiveCorrect)
}

func TestApplySessionDoesNotMutateInput(t *testing.T) {
	state := models.LearnerMasteryState{MasteryLevel: 50, TotalSessions: 1}
	_ = ApplySession(state, perfWith("ccc"), models.DifficultyMedium, time.Now())
	assert.Equal(t, 50.0, state.MasteryLevel)
	assert.Equal(t, 1, state.TotalSessions)
}

// ── Store implementations ───────────────────────────────

func newSQLStore(t *testing.T) *SQLStore {
	t.Helper()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "mastery.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(db))
	return NewSQLStore(db)
}

func stores(t *testing.T) map[string]Store {
	return map[string]Store{
		"sql":    newSQLStore(t),
		"memory": NewMemoryStore(),
	}
}

func TestStoreLoadDefaults(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			key := models.MasteryKey{ChildID: 7, Subject: "french", GradeLevel: 4}
			st, err := store.Load(context.Background(), key)
			require.NoError(t, err)

			assert.Equal(t, key, st.Key())
			assert.Equal(t, models.DefaultMasteryLevel, st.MasteryLevel)
			assert.Equal(t, 0, st.TotalSessions)
			assert.Equal(t, models.DifficultyMedium, st.LastDifficulty)
			assert.Equal(t, int64(0), st.Version)

			// Loading again returns the same row.
			again, err := store.Load(context.Background(), key)
			require.NoError(t, err)
			assert.Equal(t, st.Version, again.Version)
		})
	}
}

func TestStoreCommitAndReload(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			key := models.MasteryKey{ChildID: 1, Subject: "math", GradeLevel: 3}
			st, err := store.Load(ctx, key)
			require.NoError(t, err)

			next, err := store.CommitSession(ctx, st, perfWith("cccwc"), models.DifficultyHard)
			require.NoError(t, err)
			assert.Equal(t, int64(1), next.Version)
			assert.Equal(t, 1, next.TotalSessions)
			assert.Equal(t, 80.0, next.HistoricalAccuracy)
			assert.Equal(t, 54.5, next.MasteryLevel)
			assert.Equal(t, 3, next.BestStreak)

			reloaded, err := store.Load(ctx, key)
			require.NoError(t, err)
			assert.Equal(t, next.Version, reloaded.Version)
			assert.Equal(t, next.MasteryLevel, reloaded.MasteryLevel)
			assert.Equal(t, next.HistoricalAccuracy, reloaded.HistoricalAccuracy)
			assert.Equal(t, next.ConsecutiveCorrect, reloaded.ConsecutiveCorrect)
			assert.Equal(t, models.DifficultyHard, reloaded.LastDifficulty)
		})
	}
}

func TestStoreStaleCommitConflicts(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			key := models.MasteryKey{ChildID: 2, Subject: "science", GradeLevel: 5}
			stale, err := store.Load(ctx, key)
			require.NoError(t, err)

			_, err = store.CommitSession(ctx, stale, perfWith("ccc"), models.DifficultyMedium)
			require.NoError(t, err)

			_, err = store.CommitSession(ctx, stale, perfWith("www"), models.DifficultyMedium)
			require.ErrorIs(t, err, ErrConflict)
			assert.True(t, errors.Is(err, models.ErrPersistenceConflict))

			// The winning commit is intact.
			current, err := store.Load(ctx, key)
			require.NoError(t, err)
			assert.Equal(t, 1, current.TotalSessions)
			assert.Equal(t, 100.0, current.HistoricalAccuracy)
		})
	}
}

func TestStoreConcurrentCommitsOneWins(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			key := models.MasteryKey{ChildID: 3, Subject: "history", GradeLevel: 6}
			st, err := store.Load(ctx, key)
			require.NoError(t, err)

			const workers = 8
			var (
				wg        sync.WaitGroup
				mu        sync.Mutex
				wins      int
				conflicts int
			)
			for i := 0; i < workers; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					snapshot := *st
					_, err := store.CommitSession(ctx, &snapshot, perfWith("cc"), models.DifficultyMedium)
					mu.Lock()
					defer mu.Unlock()
					switch {
					case err == nil:
						wins++
					case errors.Is(err, ErrConflict):
						conflicts++
					default:
						t.Errorf("unexpected error: %v", err)
					}
				}()
			}
			wg.Wait()

			assert.Equal(t, 1, wins)
			assert.Equal(t, workers-1, conflicts)

			current, err := store.Load(ctx, key)
			require.NoError(t, err)
			assert.Equal(t, 1, current.TotalSessions)
		})
	}
}

func TestStoreRejectsEmptySession(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			st, err := store.Load(ctx, models.MasteryKey{ChildID: 4, Subject: "art", GradeLevel: 1})
			require.NoError(t, err)

			_, err = store.CommitSession(ctx, st, models.NewSessionPerformance(st), models.DifficultyMedium)
			require.ErrorIs(t, err, ErrEmptySession)
		})
	}
}
