package evaluator

import (
	"math"
	"testing"

	"github.com/learnloop/backend/internal/models"
)

func fillInBlank(points int) *models.Exercise {
	return &models.Exercise{
		ID:     "ex-1",
		Type:   models.ExerciseFillInBlank,
		Points: points,
		Solution: models.FillInBlankSolution{Blanks: map[string]models.BlankAnswer{
			"b1": {Answer: "pomme"},
			"b2": {Answer: "rouge", Variations: []string{"rouges"}},
		}},
	}
}

func TestEvaluateFillInBlankPartial(t *testing.T) {
	got := Evaluate(fillInBlank(10), models.FillInBlankAnswer{Blanks: map[string]string{
		"b1": "Pomme",
		"b2": "bleu",
	}})
	if got.IsCorrect {
		t.Errorf("IsCorrect = true, want false")
	}
	if got.Score != 5 {
		t.Errorf("Score = %d, want 5", got.Score)
	}
	if got.PartialCredit == nil || *got.PartialCredit != 0.5 {
		t.Errorf("PartialCredit = %v, want 0.5", got.PartialCredit)
	}
}

func TestEvaluateFillInBlankVariationsAndWhitespace(t *testing.T) {
	got := Evaluate(fillInBlank(10), models.FillInBlankAnswer{Blanks: map[string]string{
		"b1": "  POMME ",
		"b2": "Rouges",
	}})
	if !got.IsCorrect || got.Score != 10 {
		t.Errorf("Evaluate = %+v, want correct with score 10", got)
	}
}

func TestEvaluateFillInBlankMissingBlank(t *testing.T) {
	got := Evaluate(fillInBlank(10), models.FillInBlankAnswer{Blanks: map[string]string{"b1": "pomme"}})
	if got.IsCorrect || got.Score != 5 {
		t.Errorf("Evaluate = %+v, want incorrect with score 5", got)
	}

	got = Evaluate(fillInBlank(10), models.FillInBlankAnswer{})
	if got.IsCorrect || got.Score != 0 {
		t.Errorf("Evaluate(empty) = %+v, want score 0", got)
	}
}

func TestEvaluateOrdering(t *testing.T) {
	ex := &models.Exercise{
		Type:     models.ExerciseOrdering,
		Points:   15,
		Solution: models.OrderingSolution{Order: []string{"i1", "i2", "i3"}},
	}

	tests := []struct {
		order       []string
		wantCorrect bool
		wantScore   int
	}{
		{[]string{"i1", "i2", "i3"}, true, 15},
		{[]string{"i1", "i3", "i2"}, false, 0},
		{[]string{"i1", "i2"}, false, 0},
		{[]string{"i1", "i2", "i3", "i4"}, false, 0},
		{nil, false, 0},
	}

	for _, tt := range tests {
		got := Evaluate(ex, models.OrderingAnswer{Order: tt.order})
		if got.IsCorrect != tt.wantCorrect || got.Score != tt.wantScore {
			t.Errorf("Evaluate(%v) = %+v, want correct=%v score=%d", tt.order, got, tt.wantCorrect, tt.wantScore)
		}
		if got.PartialCredit != nil {
			t.Errorf("Evaluate(%v) PartialCredit = %v, want nil", tt.order, *got.PartialCredit)
		}
	}
}

func TestEvaluateMatching(t *testing.T) {
	ex := &models.Exercise{
		Type:   models.ExerciseMatching,
		Points: 20,
		Solution: models.MatchingSolution{Pairs: map[string]string{
			"l1": "r2", "l2": "r1", "l3": "r4", "l4": "r3",
		}},
	}

	got := Evaluate(ex, models.MatchingAnswer{Pairs: map[string]string{
		"l1": "r2", "l2": "r1", "l3": "r3",
	}})
	if got.IsCorrect || got.Score != 10 {
		t.Errorf("Evaluate = %+v, want incorrect with score 10", got)
	}

	got = Evaluate(ex, models.MatchingAnswer{Pairs: map[string]string{
		"l1": "r2", "l2": "r1", "l3": "r4", "l4": "r3",
	}})
	if !got.IsCorrect || got.Score != 20 {
		t.Errorf("Evaluate(all) = %+v, want correct with score 20", got)
	}
}

func TestEvaluateTrueFalse(t *testing.T) {
	ex := &models.Exercise{
		Type:     models.ExerciseTrueFalse,
		Points:   10,
		Solution: models.TrueFalseSolution{Values: map[string]bool{"s1": true, "s2": false, "s3": true}},
	}

	got := Evaluate(ex, models.TrueFalseAnswer{Values: map[string]bool{"s1": true, "s2": true, "s3": true}})
	if got.IsCorrect || got.Score != 7 {
		t.Errorf("Evaluate = %+v, want incorrect with score 7", got)
	}
	if got.PartialCredit == nil || math.Abs(*got.PartialCredit-2.0/3.0) > 1e-9 {
		t.Errorf("PartialCredit = %v, want 2/3", got.PartialCredit)
	}
}

func TestEvaluateCalculation(t *testing.T) {
	tests := []struct {
		value       float64
		tolerance   float64
		answer      float64
		wantCorrect bool
	}{
		{12, 0, 12, true},
		{12, 0, 12.01, false},
		{3.14, 0.01, 3.15, true},
		{3.14, 0.01, 3.16, false},
		{10, -1, 10, true},
		{10, 0, math.NaN(), false},
	}

	for _, tt := range tests {
		ex := &models.Exercise{
			Type:     models.ExerciseCalculation,
			Points:   15,
			Solution: models.CalculationSolution{Value: tt.value, Tolerance: tt.tolerance},
		}
		got := Evaluate(ex, models.CalculationAnswer{Value: &tt.answer})
		if got.IsCorrect != tt.wantCorrect {
			t.Errorf("Evaluate(%v ± %v, %v) correct = %v, want %v", tt.value, tt.tolerance, tt.answer, got.IsCorrect, tt.wantCorrect)
		}
	}
}

func TestEvaluateShortAnswer(t *testing.T) {
	ex := &models.Exercise{
		Type:   models.ExerciseShortAnswer,
		Points: 20,
		Solution: models.ShortAnswerSolution{
			Accepted: []string{"Photosynthesis"},
			Keywords: []string{"light", "energy", "plants", "sugar"},
		},
	}

	// Exact match
	got := Evaluate(ex, models.ShortAnswerAnswer{Text: " photosynthesis "})
	if !got.IsCorrect || got.Score != 20 || got.PartialCredit != nil {
		t.Errorf("Evaluate(exact) = %+v, want full credit", got)
	}

	// 3 of 4 keywords → round(20 * 0.75 * 0.5) = 8
	got = Evaluate(ex, models.ShortAnswerAnswer{Text: "Plants turn light into energy"})
	if got.IsCorrect || got.Score != 8 {
		t.Errorf("Evaluate(keywords) = %+v, want incorrect with score 8", got)
	}

	// 1 of 4 keywords is below threshold
	got = Evaluate(ex, models.ShortAnswerAnswer{Text: "something with light"})
	if got.IsCorrect || got.Score != 0 {
		t.Errorf("Evaluate(few keywords) = %+v, want score 0", got)
	}

	// Keywords match whole words only: "flight", "energyless" and "sugary" are not keywords.
	got = Evaluate(ex, models.ShortAnswerAnswer{Text: "Plants' flight, energyless and sugary!"})
	if got.Score != 0 {
		t.Errorf("Evaluate(substrings) = %+v, want score 0", got)
	}

	// Punctuation around a word does not hide it.
	got = Evaluate(ex, models.ShortAnswerAnswer{Text: "Plants, light, sugar."})
	if got.Score != 8 {
		t.Errorf("Evaluate(punctuated keywords) = %+v, want score 8", got)
	}
}

func TestEvaluateDecodedCalculationWithoutValue(t *testing.T) {
	ex := &models.Exercise{
		Type:     models.ExerciseCalculation,
		Points:   10,
		Solution: models.CalculationSolution{Value: 0},
	}

	for _, payload := range []string{`{}`, `{"value":null}`} {
		ans, err := models.DecodeAnswer(models.AnswerEnvelope{Type: models.ExerciseCalculation, Payload: []byte(payload)})
		if err != nil {
			t.Fatalf("DecodeAnswer(%s) error = %v", payload, err)
		}
		if got := Evaluate(ex, ans); got.IsCorrect || got.Score != 0 {
			t.Errorf("Evaluate(%s) = %+v, want zero result", payload, got)
		}
	}

	zero := 0.0
	if got := Evaluate(ex, models.CalculationAnswer{Value: &zero}); !got.IsCorrect {
		t.Errorf("Evaluate(0) = %+v, want correct", got)
	}
}

func TestEvaluateMalformedInput(t *testing.T) {
	ex := fillInBlank(10)

	tests := []struct {
		name string
		ex   *models.Exercise
		ans  models.Answer
	}{
		{"nil exercise", nil, models.FillInBlankAnswer{}},
		{"nil answer", ex, nil},
		{"type mismatch", ex, models.OrderingAnswer{Order: []string{"b1"}}},
		{"nil solution", &models.Exercise{Type: models.ExerciseOrdering, Points: 10}, models.OrderingAnswer{}},
		{"empty solution", &models.Exercise{
			Type: models.ExerciseMatching, Points: 10, Solution: models.MatchingSolution{},
		}, models.MatchingAnswer{}},
		{"nil answer pointer", ex, (*models.FillInBlankAnswer)(nil)},
		{"nil solution pointer", &models.Exercise{
			Type: models.ExerciseFillInBlank, Points: 10, Solution: (*models.FillInBlankSolution)(nil),
		}, models.FillInBlankAnswer{Blanks: map[string]string{"b1": "pomme"}}},
		{"missing calculation value", &models.Exercise{
			Type: models.ExerciseCalculation, Points: 10, Solution: models.CalculationSolution{Value: 0},
		}, models.CalculationAnswer{}},
	}

	for _, tt := range tests {
		got := Evaluate(tt.ex, tt.ans)
		if got.IsCorrect || got.Score != 0 {
			t.Errorf("%s: Evaluate = %+v, want zero result", tt.name, got)
		}
	}
}

func TestEvaluateIsIdempotentAndBounded(t *testing.T) {
	ex := fillInBlank(15)
	ans := &models.FillInBlankAnswer{Blanks: map[string]string{"b1": "pomme", "b2": "x"}}

	first := Evaluate(ex, ans)
	for i := 0; i < 5; i++ {
		got := Evaluate(ex, ans)
		if got.IsCorrect != first.IsCorrect || got.Score != first.Score {
			t.Fatalf("Evaluate run %d = %+v, want %+v", i, got, first)
		}
		if got.Score < 0 || got.Score > ex.Points {
			t.Fatalf("Score %d out of [0, %d]", got.Score, ex.Points)
		}
	}
}

func TestCorrectAnswer(t *testing.T) {
	got, ok := CorrectAnswer(fillInBlank(10)).(models.FillInBlankAnswer)
	if !ok {
		t.Fatalf("CorrectAnswer type = %T, want FillInBlankAnswer", got)
	}
	if got.Blanks["b2"] != "rouge" {
		t.Errorf("CorrectAnswer b2 = %q, want rouge", got.Blanks["b2"])
	}
	if CorrectAnswer(nil) != nil {
		t.Errorf("CorrectAnswer(nil) != nil")
	}
}
