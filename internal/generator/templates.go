package generator

import (
	"github.com/google/uuid"

	"github.com/learnloop/backend/internal/models"
)

// Templates returns a fixed, subject-agnostic set of exercises at the given
// difficulty, one per exercise type. Each call returns fresh ids.
func Templates(d models.Difficulty) []models.Exercise {
	if !models.ValidDifficulties[d] {
		d = models.DifficultyMedium
	}
	set := templateSets[d]

	out := make([]models.Exercise, len(set))
	for i, t := range set {
		t.ID = "tpl-" + uuid.NewString()
		t.Difficulty = d
		t.Points = models.PointsFor(d)
		t.Template = true
		out[i] = scrambleItems(t)
	}
	return out
}

func items(texts ...string) []models.Item {
	out := make([]models.Item, len(texts))
	for i, text := range texts {
		out[i] = models.Item{ID: string(rune('a' + i)), Text: text}
	}
	return out
}

var templateSets = map[models.Difficulty][]models.Exercise{
	models.DifficultyEasy: {
		{
			Type:     models.ExerciseFillInBlank,
			Question: "Fill in the blank: there are ___ days in a week.",
			Content:  models.ExerciseContent{Blanks: items("days in a week")},
			Solution: models.FillInBlankSolution{Blanks: map[string]models.BlankAnswer{
				"a": {Answer: "7", Variations: []string{"seven"}},
			}},
		},
		{
			Type:     models.ExerciseMatching,
			Question: "Match each animal to the sound it makes.",
			Content: models.ExerciseContent{
				Left:  items("Dog", "Cat"),
				Right: items("Meow", "Woof"),
			},
			Solution: models.MatchingSolution{Pairs: map[string]string{"a": "b", "b": "a"}},
		},
		{
			Type:     models.ExerciseOrdering,
			Question: "Put these numbers in order from smallest to largest.",
			Content:  models.ExerciseContent{Items: items("1", "3", "5")},
			Solution: models.OrderingSolution{Order: []string{"a", "b", "c"}},
		},
		{
			Type:     models.ExerciseTrueFalse,
			Question: "Decide whether each statement is true or false.",
			Content:  models.ExerciseContent{Statements: items("Ice is frozen water.", "A triangle has four sides.")},
			Solution: models.TrueFalseSolution{Values: map[string]bool{"a": true, "b": false}},
		},
		{
			Type:     models.ExerciseCalculation,
			Question: "What is 4 + 5?",
			Solution: models.CalculationSolution{Value: 9},
		},
		{
			Type:     models.ExerciseShortAnswer,
			Question: "What color do you get when you mix blue and yellow?",
			Solution: models.ShortAnswerSolution{Accepted: []string{"green"}, Keywords: []string{"green"}},
		},
	},
	models.DifficultyMedium: {
		{
			Type:     models.ExerciseFillInBlank,
			Question: "Fill in the blanks: a year has ___ months and a leap year has ___ days.",
			Content:  models.ExerciseContent{Blanks: items("months in a year", "days in a leap year")},
			Solution: models.FillInBlankSolution{Blanks: map[string]models.BlankAnswer{
				"a": {Answer: "12", Variations: []string{"twelve"}},
				"b": {Answer: "366"},
			}},
		},
		{
			Type:     models.ExerciseMatching,
			Question: "Match each shape to its number of sides.",
			Content: models.ExerciseContent{
				Left:  items("Triangle", "Square", "Pentagon"),
				Right: items("5", "3", "4"),
			},
			Solution: models.MatchingSolution{Pairs: map[string]string{"a": "b", "b": "c", "c": "a"}},
		},
		{
			Type:     models.ExerciseOrdering,
			Question: "Put these units of time in order from shortest to longest.",
			Content:  models.ExerciseContent{Items: items("Minute", "Hour", "Day", "Week")},
			Solution: models.OrderingSolution{Order: []string{"a", "b", "c", "d"}},
		},
		{
			Type:     models.ExerciseTrueFalse,
			Question: "Decide whether each statement is true or false.",
			Content: models.ExerciseContent{Statements: items(
				"Half of 30 is 15.",
				"The sun rises in the west.",
				"Water boils at 100 degrees Celsius at sea level.",
			)},
			Solution: models.TrueFalseSolution{Values: map[string]bool{"a": true, "b": false, "c": true}},
		},
		{
			Type:     models.ExerciseCalculation,
			Question: "A book costs $12.50. How much do 4 books cost?",
			Content:  models.ExerciseContent{Unit: "$"},
			Solution: models.CalculationSolution{Value: 50, Tolerance: 0.01},
		},
		{
			Type:     models.ExerciseShortAnswer,
			Question: "What do plants need from sunlight to make their food?",
			Solution: models.ShortAnswerSolution{
				Accepted: []string{"energy", "light energy"},
				Keywords: []string{"energy", "light"},
			},
		},
	},
	models.DifficultyHard: {
		{
			Type:     models.ExerciseFillInBlank,
			Question: "Fill in the blanks: 25% of 80 is ___ and 3/4 written as a decimal is ___.",
			Content:  models.ExerciseContent{Blanks: items("25% of 80", "3/4 as a decimal")},
			Solution: models.FillInBlankSolution{Blanks: map[string]models.BlankAnswer{
				"a": {Answer: "20", Variations: []string{"twenty"}},
				"b": {Answer: "0.75", Variations: []string{".75"}},
			}},
		},
		{
			Type:     models.ExerciseMatching,
			Question: "Match each fraction to its equivalent percentage.",
			Content: models.ExerciseContent{
				Left:  items("1/2", "1/4", "1/5", "3/4"),
				Right: items("20%", "75%", "50%", "25%"),
			},
			Solution: models.MatchingSolution{Pairs: map[string]string{"a": "c", "b": "d", "c": "a", "d": "b"}},
		},
		{
			Type:     models.ExerciseOrdering,
			Question: "Put these values in order from smallest to largest.",
			Content:  models.ExerciseContent{Items: items("0.05", "1/8", "0.2", "30%", "1/2")},
			Solution: models.OrderingSolution{Order: []string{"a", "b", "c", "d", "e"}},
		},
		{
			Type:     models.ExerciseTrueFalse,
			Question: "Decide whether each statement is true or false.",
			Content: models.ExerciseContent{Statements: items(
				"Every square is a rectangle.",
				"Every rectangle is a square.",
				"The product of two negative numbers is positive.",
				"0.3 is greater than 0.25.",
			)},
			Solution: models.TrueFalseSolution{Values: map[string]bool{"a": true, "b": false, "c": true, "d": true}},
		},
		{
			Type:     models.ExerciseCalculation,
			Question: "A rectangle is 7.5 cm long and 4 cm wide. What is its area?",
			Content:  models.ExerciseContent{Unit: "cm²"},
			Solution: models.CalculationSolution{Value: 30, Tolerance: 0.01},
		},
		{
			Type:     models.ExerciseShortAnswer,
			Question: "Why does a metal spoon feel colder than a wooden spoon at the same temperature?",
			Solution: models.ShortAnswerSolution{
				Accepted: []string{"metal conducts heat better", "metal is a better conductor"},
				Keywords: []string{"metal", "conduct", "heat"},
			},
		},
	},
}
