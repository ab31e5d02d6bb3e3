package gamification

import (
	"testing"

	"github.com/learnloop/backend/internal/models"
)

func results(pattern string) []models.EvaluationResult {
	out := make([]models.EvaluationResult, 0, len(pattern))
	for _, c := range pattern {
		out = append(out, models.EvaluationResult{IsCorrect: c == 'c'})
	}
	return out
}

func TestCalculateXP(t *testing.T) {
	tests := []struct {
		pattern string
		want    int
	}{
		{"", 0},
		{"w", 8},
		{"c", 3 + 8},
		{"cc", 6 + 8},
		{"ccc", 9 + 5 + 8 + 10},
		{"cccwc", 12 + 5 + 8},
		{"cccccc", 18 + 10 + 8 + 10},
		{"ccwccwcc", 18 + 8},
		{"wwww", 8},
	}

	for _, tt := range tests {
		got := CalculateXP(results(tt.pattern))
		if got != tt.want {
			t.Errorf("CalculateXP(%q) = %d, want %d", tt.pattern, got, tt.want)
		}
	}
}

func TestCalculateXPStreakWithoutPerfect(t *testing.T) {
	r := Rewards{PerCorrect: 3, StreakBonus: 5, Complete: 8}
	got := r.Calculate(results("cccwc"))
	if got != 25 {
		t.Errorf("Calculate(cccwc) = %d, want 25", got)
	}
}

func TestBreakdown(t *testing.T) {
	got := DefaultRewards.Breakdown(results("cccccc"))
	want := models.XPBreakdown{Correct: 18, StreakBonus: 10, Completion: 8, Perfect: 10, Total: 46}
	if got != want {
		t.Errorf("Breakdown(cccccc) = %+v, want %+v", got, want)
	}

	if got := DefaultRewards.Breakdown(nil); got != (models.XPBreakdown{}) {
		t.Errorf("Breakdown(nil) = %+v, want zero", got)
	}
}

func TestCalculateXPDeterministic(t *testing.T) {
	in := results("cwcccwwcc")
	first := CalculateXP(in)
	for i := 0; i < 3; i++ {
		if got := CalculateXP(in); got != first {
			t.Fatalf("CalculateXP run %d = %d, want %d", i, got, first)
		}
	}
}

func TestCalculateXPMonotonicInCorrects(t *testing.T) {
	// Flipping a wrong answer to correct never lowers XP.
	base := "wcwcwcw"
	prev := CalculateXP(results(base))
	cur := []byte(base)
	for i := range cur {
		if cur[i] != 'w' {
			continue
		}
		cur[i] = 'c'
		got := CalculateXP(results(string(cur)))
		if got < prev {
			t.Errorf("CalculateXP(%s) = %d, less than %d before the flip", cur, got, prev)
		}
		prev = got
	}
}

func TestIsPerfect(t *testing.T) {
	tests := []struct {
		pattern string
		want    bool
	}{
		{"", false},
		{"cc", false},
		{"ccc", true},
		{"cccw", false},
	}
	for _, tt := range tests {
		if got := IsPerfect(results(tt.pattern)); got != tt.want {
			t.Errorf("IsPerfect(%q) = %v, want %v", tt.pattern, got, tt.want)
		}
	}
}
