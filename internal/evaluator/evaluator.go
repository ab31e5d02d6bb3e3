// Package evaluator scores learner answers against exercise solutions.
// Every function here is pure: the same exercise and answer always produce
// the same result, and malformed input yields a zero score rather than an
// error.
package evaluator

import (
	"math"
	"strings"
	"unicode"

	"github.com/learnloop/backend/internal/models"
)

// shortAnswerKeywordThreshold is the minimum keyword ratio that earns
// partial credit on a SHORT_ANSWER exercise.
const shortAnswerKeywordThreshold = 0.5

// shortAnswerPartialWeight scales keyword-based partial credit.
const shortAnswerPartialWeight = 0.5

// Evaluate scores answer against ex. A nil exercise, nil answer, nil
// solution or an answer whose type does not match the exercise scores zero.
func Evaluate(ex *models.Exercise, answer models.Answer) models.EvaluationResult {
	if ex == nil || isNil(answer) || isNil(ex.Solution) {
		return models.EvaluationResult{}
	}
	if answer.ExerciseType() != ex.Type || ex.Solution.ExerciseType() != ex.Type {
		return models.EvaluationResult{}
	}

	points := ex.Points
	if points < 0 {
		points = 0
	}

	var res models.EvaluationResult
	switch ex.Type {
	case models.ExerciseFillInBlank:
		res = evaluateFillInBlank(points, asFillInBlankSolution(ex.Solution), asFillInBlankAnswer(answer))
	case models.ExerciseMatching:
		res = evaluateMatching(points, asMatchingSolution(ex.Solution), asMatchingAnswer(answer))
	case models.ExerciseOrdering:
		res = evaluateOrdering(points, asOrderingSolution(ex.Solution), asOrderingAnswer(answer))
	case models.ExerciseTrueFalse:
		res = evaluateTrueFalse(points, asTrueFalseSolution(ex.Solution), asTrueFalseAnswer(answer))
	case models.ExerciseCalculation:
		sol, okSol := asCalculationSolution(ex.Solution)
		ans, okAns := asCalculationAnswer(answer)
		if !okSol || !okAns {
			return models.EvaluationResult{}
		}
		res = evaluateCalculation(points, sol, ans)
	case models.ExerciseShortAnswer:
		res = evaluateShortAnswer(points, asShortAnswerSolution(ex.Solution), asShortAnswerAnswer(answer))
	default:
		return models.EvaluationResult{}
	}

	res.Score = clamp(res.Score, 0, points)
	return res
}

// ── Per-type scoring ─────────────────────────────────────

func evaluateFillInBlank(points int, sol models.FillInBlankSolution, ans models.FillInBlankAnswer) models.EvaluationResult {
	total := len(sol.Blanks)
	if total == 0 {
		return models.EvaluationResult{}
	}
	correct := 0
	for id, want := range sol.Blanks {
		got, ok := ans.Blanks[id]
		if !ok {
			continue
		}
		if matchesBlank(got, want) {
			correct++
		}
	}
	return ratioResult(points, correct, total)
}

func matchesBlank(got string, want models.BlankAnswer) bool {
	g := normalize(got)
	if g == "" {
		return false
	}
	if g == normalize(want.Answer) {
		return true
	}
	for _, v := range want.Variations {
		if g == normalize(v) {
			return true
		}
	}
	return false
}

func evaluateMatching(points int, sol models.MatchingSolution, ans models.MatchingAnswer) models.EvaluationResult {
	total := len(sol.Pairs)
	if total == 0 {
		return models.EvaluationResult{}
	}
	correct := 0
	for left, right := range sol.Pairs {
		if got, ok := ans.Pairs[left]; ok && got == right {
			correct++
		}
	}
	return ratioResult(points, correct, total)
}

func evaluateOrdering(points int, sol models.OrderingSolution, ans models.OrderingAnswer) models.EvaluationResult {
	if len(sol.Order) == 0 || len(ans.Order) != len(sol.Order) {
		return models.EvaluationResult{}
	}
	for i := range sol.Order {
		if ans.Order[i] != sol.Order[i] {
			return models.EvaluationResult{}
		}
	}
	return models.EvaluationResult{IsCorrect: true, Score: points}
}

func evaluateTrueFalse(points int, sol models.TrueFalseSolution, ans models.TrueFalseAnswer) models.EvaluationResult {
	total := len(sol.Values)
	if total == 0 {
		return models.EvaluationResult{}
	}
	correct := 0
	for id, want := range sol.Values {
		if got, ok := ans.Values[id]; ok && got == want {
			correct++
		}
	}
	return ratioResult(points, correct, total)
}

func evaluateCalculation(points int, sol models.CalculationSolution, ans models.CalculationAnswer) models.EvaluationResult {
	if ans.Value == nil {
		return models.EvaluationResult{}
	}
	value := *ans.Value
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return models.EvaluationResult{}
	}
	tolerance := sol.Tolerance
	if tolerance < 0 || math.IsNaN(tolerance) {
		tolerance = 0
	}
	if math.Abs(value-sol.Value) <= tolerance {
		return models.EvaluationResult{IsCorrect: true, Score: points}
	}
	return models.EvaluationResult{}
}

func evaluateShortAnswer(points int, sol models.ShortAnswerSolution, ans models.ShortAnswerAnswer) models.EvaluationResult {
	text := normalize(ans.Text)
	if text == "" {
		return models.EvaluationResult{}
	}
	words := make(map[string]bool)
	for _, w := range tokenize(text) {
		words[w] = true
	}
	for _, accepted := range sol.Accepted {
		if text == normalize(accepted) {
			return models.EvaluationResult{IsCorrect: true, Score: points}
		}
	}

	keywords := 0
	matched := 0
	for _, kw := range sol.Keywords {
		kwWords := tokenize(normalize(kw))
		if len(kwWords) == 0 {
			continue
		}
		keywords++
		if containsAll(words, kwWords) {
			matched++
		}
	}
	if keywords == 0 {
		return models.EvaluationResult{}
	}

	ratio := float64(matched) / float64(keywords)
	if ratio < shortAnswerKeywordThreshold {
		return models.EvaluationResult{}
	}
	credit := ratio * shortAnswerPartialWeight
	return models.EvaluationResult{
		IsCorrect:     false,
		Score:         int(math.Round(float64(points) * credit)),
		PartialCredit: &credit,
	}
}

// CorrectAnswer returns the learner-facing form of ex's answer key, used in
// the session answer log once the exercise has been answered.
func CorrectAnswer(ex *models.Exercise) any {
	if ex == nil || ex.Solution == nil {
		return nil
	}
	switch ex.Type {
	case models.ExerciseFillInBlank:
		sol := asFillInBlankSolution(ex.Solution)
		out := make(map[string]string, len(sol.Blanks))
		for id, b := range sol.Blanks {
			out[id] = b.Answer
		}
		return models.FillInBlankAnswer{Blanks: out}
	case models.ExerciseMatching:
		return models.MatchingAnswer{Pairs: asMatchingSolution(ex.Solution).Pairs}
	case models.ExerciseOrdering:
		return models.OrderingAnswer{Order: asOrderingSolution(ex.Solution).Order}
	case models.ExerciseTrueFalse:
		return models.TrueFalseAnswer{Values: asTrueFalseSolution(ex.Solution).Values}
	case models.ExerciseCalculation:
		sol, ok := asCalculationSolution(ex.Solution)
		if !ok {
			return nil
		}
		return models.CalculationAnswer{Value: &sol.Value}
	case models.ExerciseShortAnswer:
		sol := asShortAnswerSolution(ex.Solution)
		if len(sol.Accepted) == 0 {
			return nil
		}
		return models.ShortAnswerAnswer{Text: sol.Accepted[0]}
	}
	return nil
}

// ── Helpers ─────────────────────────────────────────────

func ratioResult(points, correct, total int) models.EvaluationResult {
	ratio := float64(correct) / float64(total)
	return models.EvaluationResult{
		IsCorrect:     correct == total,
		Score:         int(math.Round(float64(points) * ratio)),
		PartialCredit: &ratio,
	}
}

// tokenize splits s into words, dropping punctuation around and inside them.
func tokenize(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// containsAll reports whether every word of a keyword appears in the answer.
func containsAll(words map[string]bool, kw []string) bool {
	for _, w := range kw {
		if !words[w] {
			return false
		}
	}
	return true
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
