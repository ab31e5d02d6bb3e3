package models

type ExerciseType string

const (
	ExerciseFillInBlank ExerciseType = "FILL_IN_BLANK"
	ExerciseMatching    ExerciseType = "MATCHING"
	ExerciseOrdering    ExerciseType = "ORDERING"
	ExerciseTrueFalse   ExerciseType = "TRUE_FALSE"
	ExerciseCalculation ExerciseType = "CALCULATION"
	ExerciseShortAnswer ExerciseType = "SHORT_ANSWER"
)

var ValidExerciseTypes = map[ExerciseType]bool{
	ExerciseFillInBlank: true,
	ExerciseMatching:    true,
	ExerciseOrdering:    true,
	ExerciseTrueFalse:   true,
	ExerciseCalculation: true,
	ExerciseShortAnswer: true,
}

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

var ValidDifficulties = map[Difficulty]bool{
	DifficultyEasy:   true,
	DifficultyMedium: true,
	DifficultyHard:   true,
}

// Level returns the position of d on the easy→hard ladder (0, 1, 2).
// Unknown values sort as medium.
func (d Difficulty) Level() int {
	switch d {
	case DifficultyEasy:
		return 0
	case DifficultyHard:
		return 2
	default:
		return 1
	}
}

// PointsFor returns the points an exercise is worth at the given difficulty.
func PointsFor(d Difficulty) int {
	switch d {
	case DifficultyEasy:
		return 10
	case DifficultyHard:
		return 20
	default:
		return 15
	}
}

// ── Exercise ─────────────────────────────────────────────

// Exercise is a single item served to a learner. Solution must never be
// sent to the answering party; use Public for that.
type Exercise struct {
	ID         string          `json:"id"`
	Type       ExerciseType    `json:"type"`
	Difficulty Difficulty      `json:"difficulty"`
	Question   string          `json:"question"`
	Points     int             `json:"points"`
	Content    ExerciseContent `json:"content"`
	Solution   Solution        `json:"-"`
	// Template is set on exercises that came from the fixed fallback set.
	Template bool `json:"-"`
}

// Item is a labelled, id-addressable piece of exercise content
// (a blank, a matching column entry, an ordering step, a statement).
type Item struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// ExerciseContent carries the learner-visible, type-specific fields.
// Only the field matching the exercise type is populated.
type ExerciseContent struct {
	Blanks     []Item `json:"blanks,omitempty"`
	Left       []Item `json:"left,omitempty"`
	Right      []Item `json:"right,omitempty"`
	Items      []Item `json:"items,omitempty"`
	Statements []Item `json:"statements,omitempty"`
	Unit       string `json:"unit,omitempty"`
}

// Solution is the answer key for an exercise. Implementations are the
// *Solution types below, one per exercise type.
type Solution interface {
	ExerciseType() ExerciseType
}

type BlankAnswer struct {
	Answer     string   `json:"answer"`
	Variations []string `json:"variations,omitempty"`
}

type FillInBlankSolution struct {
	Blanks map[string]BlankAnswer `json:"blanks"`
}

type MatchingSolution struct {
	Pairs map[string]string `json:"pairs"`
}

type OrderingSolution struct {
	Order []string `json:"order"`
}

type TrueFalseSolution struct {
	Values map[string]bool `json:"values"`
}

type CalculationSolution struct {
	Value     float64 `json:"value"`
	Tolerance float64 `json:"tolerance"`
}

type ShortAnswerSolution struct {
	Accepted []string `json:"accepted"`
	Keywords []string `json:"keywords,omitempty"`
}

func (FillInBlankSolution) ExerciseType() ExerciseType { return ExerciseFillInBlank }
func (MatchingSolution) ExerciseType() ExerciseType    { return ExerciseMatching }
func (OrderingSolution) ExerciseType() ExerciseType    { return ExerciseOrdering }
func (TrueFalseSolution) ExerciseType() ExerciseType   { return ExerciseTrueFalse }
func (CalculationSolution) ExerciseType() ExerciseType { return ExerciseCalculation }
func (ShortAnswerSolution) ExerciseType() ExerciseType { return ExerciseShortAnswer }

// PublicExercise is the learner-facing view of an Exercise.
type PublicExercise struct {
	ID         string          `json:"id"`
	Type       ExerciseType    `json:"type"`
	Difficulty Difficulty      `json:"difficulty"`
	Question   string          `json:"question"`
	Points     int             `json:"points"`
	Content    ExerciseContent `json:"content"`
}

func (e *Exercise) Public() *PublicExercise {
	if e == nil {
		return nil
	}
	return &PublicExercise{
		ID:         e.ID,
		Type:       e.Type,
		Difficulty: e.Difficulty,
		Question:   e.Question,
		Points:     e.Points,
		Content:    e.Content,
	}
}
