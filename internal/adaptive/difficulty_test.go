package adaptive

import (
	"testing"

	"github.com/learnloop/backend/internal/models"
)

func TestInitialDifficulty(t *testing.T) {
	tests := []struct {
		mastery float64
		want    models.Difficulty
	}{
		{0, models.DifficultyEasy},
		{39.9, models.DifficultyEasy},
		{40, models.DifficultyMedium},
		{50, models.DifficultyMedium},
		{75, models.DifficultyMedium},
		{75.1, models.DifficultyHard},
		{100, models.DifficultyHard},
	}

	for _, tt := range tests {
		got := InitialDifficulty(&models.LearnerMasteryState{MasteryLevel: tt.mastery})
		if got != tt.want {
			t.Errorf("InitialDifficulty(%v) = %s, want %s", tt.mastery, got, tt.want)
		}
	}

	if got := InitialDifficulty(nil); got != models.DifficultyMedium {
		t.Errorf("InitialDifficulty(nil) = %s, want medium", got)
	}

	fresh := models.NewMasteryState(models.MasteryKey{ChildID: 1, Subject: "math", GradeLevel: 3})
	if got := InitialDifficulty(fresh); got != models.DifficultyMedium {
		t.Errorf("InitialDifficulty(fresh) = %s, want medium", got)
	}
}

func TestDecideNextDifficulty(t *testing.T) {
	tests := []struct {
		current     models.Difficulty
		correct     int
		wrong       int
		want        models.Difficulty
		wantChanged bool
	}{
		{models.DifficultyEasy, 3, 0, models.DifficultyMedium, true},
		{models.DifficultyMedium, 3, 0, models.DifficultyHard, true},
		{models.DifficultyHard, 3, 0, models.DifficultyHard, false},
		{models.DifficultyHard, 10, 0, models.DifficultyHard, false},
		{models.DifficultyEasy, 2, 0, models.DifficultyEasy, false},
		{models.DifficultyHard, 0, 2, models.DifficultyMedium, true},
		{models.DifficultyMedium, 0, 2, models.DifficultyEasy, true},
		{models.DifficultyEasy, 0, 5, models.DifficultyEasy, false},
		{models.DifficultyMedium, 0, 1, models.DifficultyMedium, false},
		{models.DifficultyEasy, 7, 0, models.DifficultyMedium, true},
	}

	for _, tt := range tests {
		perf := &models.SessionPerformance{ConsecutiveCorrect: tt.correct, ConsecutiveWrong: tt.wrong}
		got := DecideNextDifficulty(tt.current, perf)
		if got.PreviousDifficulty != tt.current {
			t.Errorf("Decide(%s, %d/%d).Previous = %s, want %s", tt.current, tt.correct, tt.wrong, got.PreviousDifficulty, tt.current)
		}
		if got.CurrentDifficulty != tt.want || got.DifficultyChanged != tt.wantChanged {
			t.Errorf("Decide(%s, %d/%d) = %s changed=%v, want %s changed=%v",
				tt.current, tt.correct, tt.wrong, got.CurrentDifficulty, got.DifficultyChanged, tt.want, tt.wantChanged)
		}
		if got.DifficultyChanged && got.Reason == nil {
			t.Errorf("Decide(%s, %d/%d) changed without a reason", tt.current, tt.correct, tt.wrong)
		}
		if !got.DifficultyChanged && got.Reason != nil {
			t.Errorf("Decide(%s, %d/%d) held with reason %q", tt.current, tt.correct, tt.wrong, *got.Reason)
		}
		step := got.CurrentDifficulty.Level() - got.PreviousDifficulty.Level()
		if step > 1 || step < -1 {
			t.Errorf("Decide(%s, %d/%d) moved %d levels", tt.current, tt.correct, tt.wrong, step)
		}
	}
}

func TestDecideNextDifficultyMediumStreak(t *testing.T) {
	perf := &models.SessionPerformance{ConsecutiveCorrect: 3, ConsecutiveWrong: 0}
	got := DecideNextDifficulty(models.DifficultyMedium, perf)

	if got.PreviousDifficulty != models.DifficultyMedium || got.CurrentDifficulty != models.DifficultyHard || !got.DifficultyChanged {
		t.Errorf("Decide(medium, 3 correct) = %+v, want medium → hard", got)
	}
	if perf.ConsecutiveCorrect != 3 {
		t.Errorf("DecideNextDifficulty mutated perf: ConsecutiveCorrect = %d", perf.ConsecutiveCorrect)
	}
}

func TestDecideNextDifficultyNilPerf(t *testing.T) {
	got := DecideNextDifficulty(models.DifficultyEasy, nil)
	if got.DifficultyChanged || got.CurrentDifficulty != models.DifficultyEasy {
		t.Errorf("Decide(easy, nil) = %+v, want hold", got)
	}
}

func TestSpendStreak(t *testing.T) {
	perf := &models.SessionPerformance{ConsecutiveCorrect: 3, CurrentStreak: 3, BestStreak: 3}
	SpendStreak(perf, DecideNextDifficulty(models.DifficultyEasy, perf))
	if perf.ConsecutiveCorrect != 0 {
		t.Errorf("after escalation ConsecutiveCorrect = %d, want 0", perf.ConsecutiveCorrect)
	}
	if perf.CurrentStreak != 3 || perf.BestStreak != 3 {
		t.Errorf("SpendStreak touched the answer streak: %d/%d", perf.CurrentStreak, perf.BestStreak)
	}

	perf = &models.SessionPerformance{ConsecutiveWrong: 2}
	SpendStreak(perf, DecideNextDifficulty(models.DifficultyHard, perf))
	if perf.ConsecutiveWrong != 0 {
		t.Errorf("after de-escalation ConsecutiveWrong = %d, want 0", perf.ConsecutiveWrong)
	}

	// A hold leaves the counters alone
	perf = &models.SessionPerformance{ConsecutiveCorrect: 5}
	SpendStreak(perf, DecideNextDifficulty(models.DifficultyHard, perf))
	if perf.ConsecutiveCorrect != 5 {
		t.Errorf("after hold ConsecutiveCorrect = %d, want 5", perf.ConsecutiveCorrect)
	}
}

func TestEscalateDeescalate(t *testing.T) {
	tests := []struct {
		in       models.Difficulty
		wantUp   models.Difficulty
		wantDown models.Difficulty
	}{
		{models.DifficultyEasy, models.DifficultyMedium, models.DifficultyEasy},
		{models.DifficultyMedium, models.DifficultyHard, models.DifficultyEasy},
		{models.DifficultyHard, models.DifficultyHard, models.DifficultyMedium},
	}

	for _, tt := range tests {
		if got := Escalate(tt.in); got != tt.wantUp {
			t.Errorf("Escalate(%s) = %s, want %s", tt.in, got, tt.wantUp)
		}
		if got := Deescalate(tt.in); got != tt.wantDown {
			t.Errorf("Deescalate(%s) = %s, want %s", tt.in, got, tt.wantDown)
		}
	}
}
