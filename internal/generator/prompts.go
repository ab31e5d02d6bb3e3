package generator

import (
	"fmt"
	"strings"

	"github.com/learnloop/backend/internal/models"
)

var difficultyGuidance = map[models.Difficulty]string{
	models.DifficultyEasy: `- Single-step recall or recognition
- Vocabulary the learner has already seen in the lesson
- For CALCULATION: one operation, whole numbers`,
	models.DifficultyMedium: `- Two-step reasoning or applying a rule to a new example
- Distractors that share surface features with the right answer
- For CALCULATION: two operations, may involve simple fractions or decimals`,
	models.DifficultyHard: `- Multi-step reasoning, transfer to an unfamiliar context
- Distractors that reflect the most common misconception
- For CALCULATION: multi-step word problems, answers may be non-integer`,
}

var typeShapes = map[models.ExerciseType]string{
	models.ExerciseFillInBlank: `{"type": "FILL_IN_BLANK", "question": "The capital of France is ___.",
   "content": {"blanks": [{"id": "b1", "text": "capital"}]},
   "solution": {"blanks": {"b1": {"answer": "Paris", "variations": ["paris"]}}}}`,
	models.ExerciseMatching: `{"type": "MATCHING", "question": "Match each animal to its group.",
   "content": {"left": [{"id": "l1", "text": "Frog"}, {"id": "l2", "text": "Eagle"}],
               "right": [{"id": "r1", "text": "Bird"}, {"id": "r2", "text": "Amphibian"}]},
   "solution": {"pairs": {"l1": "r2", "l2": "r1"}}}`,
	models.ExerciseOrdering: `{"type": "ORDERING", "question": "Put the stages in order.",
   "content": {"items": [{"id": "i1", "text": "Adult"}, {"id": "i2", "text": "Egg"}, {"id": "i3", "text": "Larva"}]},
   "solution": {"order": ["i2", "i3", "i1"]}}`,
	models.ExerciseTrueFalse: `{"type": "TRUE_FALSE", "question": "Decide whether each statement is true.",
   "content": {"statements": [{"id": "s1", "text": "Water boils at 100°C at sea level."}]},
   "solution": {"values": {"s1": true}}}`,
	models.ExerciseCalculation: `{"type": "CALCULATION", "question": "What is 12 × 4?",
   "content": {"unit": ""},
   "solution": {"value": 48, "tolerance": 0}}`,
	models.ExerciseShortAnswer: `{"type": "SHORT_ANSWER", "question": "What process do plants use to make food?",
   "content": {},
   "solution": {"accepted": ["photosynthesis"], "keywords": ["light", "energy", "sugar"]}}`,
}

// exerciseTypeOrder fixes the order types appear in the prompt.
var exerciseTypeOrder = []models.ExerciseType{
	models.ExerciseFillInBlank,
	models.ExerciseMatching,
	models.ExerciseOrdering,
	models.ExerciseTrueFalse,
	models.ExerciseCalculation,
	models.ExerciseShortAnswer,
}

func SystemPrompt() string {
	return `You are an experienced primary and middle school teacher who writes short practice exercises for an adaptive learning app.

EXERCISE TYPES:
- FILL_IN_BLANK: a sentence with one or more blanks; each blank has one canonical answer and optional accepted variations
- MATCHING: two columns of items; every left item maps to exactly one right item
- ORDERING: 3-6 items the learner must put in the correct sequence; list the items out of order
- TRUE_FALSE: 2-5 statements, each true or false
- CALCULATION: a numeric question with a single numeric answer and an allowed tolerance
- SHORT_ANSWER: a one-phrase answer, with a list of accepted answers and 2-5 keywords that a partially correct answer would contain

RULES:
- Every exercise must be answerable from the lesson content and the learner's grade level
- Ids inside an exercise (b1, l1, r1, i1, s1) must be unique within that exercise
- Solutions must only reference ids that appear in the exercise content
- Never reveal the solution in the question text
- Use age-appropriate language for the grade level given

DIFFICULTY:
- Exercises must match the requested difficulty exactly (easy, medium or hard)

You must respond with valid JSON only. No markdown, no explanation outside the JSON.`
}

// BuildUserPrompt renders the per-request prompt.
func BuildUserPrompt(req GenerateRequest) string {
	var shapes strings.Builder
	for _, t := range exerciseTypeOrder {
		shapes.WriteString(typeShapes[t])
		shapes.WriteString("\n")
	}

	lesson := strings.TrimSpace(req.LessonContent)
	if lesson == "" {
		lesson = "(no lesson text provided; use core curriculum for the subject and grade)"
	}

	return fmt.Sprintf(`Generate exactly %d exercises.

Subject: %s
Grade level: %d
Difficulty: %s

Difficulty guidance:
%s

Lesson content:
%s
%s
Respond with this exact JSON structure:
{
  "exercises": [ ... ]
}

Each element of "exercises" must have one of these shapes:
%s
Requirements:
- Mix at least three different exercise types across the batch
- Do not include ids, points or difficulty fields on the exercises; they are assigned by the app`,
		req.Count, req.Subject, req.GradeLevel, string(req.Difficulty),
		difficultyGuidance[req.Difficulty], lesson, performanceNotes(req.PreviousPerformance), shapes.String())
}

func performanceNotes(p *PerformanceSummary) string {
	if p == nil || p.TotalAnswered == 0 {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "\nLearner performance so far this session: %d of %d correct.\n", p.CorrectCount, p.TotalAnswered)
	if len(p.MissedTypes) > 0 {
		types := make([]string, len(p.MissedTypes))
		for i, t := range p.MissedTypes {
			types[i] = string(t)
		}
		fmt.Fprintf(&b, "They struggled with: %s. Include at least one of these types.\n", strings.Join(types, ", "))
	}
	return b.String()
}
