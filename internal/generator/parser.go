package generator

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"

	"github.com/learnloop/backend/internal/models"
)

type GeneratedBatch struct {
	Exercises []GeneratedExercise `json:"exercises"`
}

type GeneratedExercise struct {
	Type     models.ExerciseType    `json:"type"`
	Question string                 `json:"question"`
	Content  models.ExerciseContent `json:"content"`
	Solution json.RawMessage        `json:"solution"`
}

// ParsedBatch is the usable part of a response. Rejected lists why any
// individual exercises were dropped.
type ParsedBatch struct {
	Exercises []models.Exercise
	Rejected  []string
}

type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s", strings.Join(e.Errors, "; "))
}

// ParseResponse decodes a model response into exercises at difficulty.
// Exercises that fail structural checks are dropped; a response with no
// usable exercises is a *ValidationError.
func ParseResponse(responseBody string, difficulty models.Difficulty) (*ParsedBatch, error) {
	cleaned := stripCodeFences(responseBody)

	var raw any
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		return nil, fmt.Errorf("failed to parse JSON response: %w", err)
	}
	if err := validateSchema(raw); err != nil {
		return nil, &ValidationError{Errors: []string{err.Error()}}
	}

	var batch GeneratedBatch
	if err := json.Unmarshal([]byte(cleaned), &batch); err != nil {
		return nil, &ValidationError{Errors: []string{err.Error()}}
	}

	out := &ParsedBatch{}
	for i, g := range batch.Exercises {
		ex, err := buildExercise(g, difficulty)
		if err != nil {
			out.Rejected = append(out.Rejected, fmt.Sprintf("exercise %d: %v", i+1, err))
			continue
		}
		out.Exercises = append(out.Exercises, *ex)
	}

	if len(out.Exercises) == 0 {
		errs := out.Rejected
		if len(errs) == 0 {
			errs = []string{"no exercises in batch"}
		}
		return nil, &ValidationError{Errors: errs}
	}
	return out, nil
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```json") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimSpace(s)
	} else if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSpace(s)
	}
	if strings.HasSuffix(s, "```") {
		s = strings.TrimSuffix(s, "```")
		s = strings.TrimSpace(s)
	}
	return s
}

// buildExercise decodes the solution for g's type, checks that it agrees
// with the content, and stamps id, difficulty and points.
func buildExercise(g GeneratedExercise, difficulty models.Difficulty) (*models.Exercise, error) {
	if !models.ValidExerciseTypes[g.Type] {
		return nil, fmt.Errorf("unknown type %q", g.Type)
	}
	if strings.TrimSpace(g.Question) == "" {
		return nil, fmt.Errorf("empty question")
	}

	sol, err := decodeSolution(g.Type, g.Solution)
	if err != nil {
		return nil, err
	}
	if err := checkStructure(g.Content, sol); err != nil {
		return nil, err
	}

	ex := scrambleItems(models.Exercise{
		ID:         uuid.NewString(),
		Type:       g.Type,
		Difficulty: difficulty,
		Question:   strings.TrimSpace(g.Question),
		Points:     models.PointsFor(difficulty),
		Content:    g.Content,
		Solution:   sol,
	})
	return &ex, nil
}

func decodeSolution(t models.ExerciseType, raw json.RawMessage) (models.Solution, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("missing solution")
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()

	var (
		sol models.Solution
		err error
	)
	switch t {
	case models.ExerciseFillInBlank:
		var s models.FillInBlankSolution
		err = dec.Decode(&s)
		sol = s
	case models.ExerciseMatching:
		var s models.MatchingSolution
		err = dec.Decode(&s)
		sol = s
	case models.ExerciseOrdering:
		var s models.OrderingSolution
		err = dec.Decode(&s)
		sol = s
	case models.ExerciseTrueFalse:
		var s models.TrueFalseSolution
		err = dec.Decode(&s)
		sol = s
	case models.ExerciseCalculation:
		var s models.CalculationSolution
		err = dec.Decode(&s)
		sol = s
	case models.ExerciseShortAnswer:
		var s models.ShortAnswerSolution
		err = dec.Decode(&s)
		sol = s
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s solution: %w", t, err)
	}
	return sol, nil
}

func checkStructure(c models.ExerciseContent, sol models.Solution) error {
	switch s := sol.(type) {
	case models.FillInBlankSolution:
		ids, err := itemIDs("blank", c.Blanks)
		if err != nil {
			return err
		}
		if len(s.Blanks) != len(ids) {
			return fmt.Errorf("solution has %d blanks, content has %d", len(s.Blanks), len(ids))
		}
		for id, b := range s.Blanks {
			if !ids[id] {
				return fmt.Errorf("solution blank %q not in content", id)
			}
			if strings.TrimSpace(b.Answer) == "" {
				return fmt.Errorf("blank %q has empty answer", id)
			}
		}

	case models.MatchingSolution:
		left, err := itemIDs("left item", c.Left)
		if err != nil {
			return err
		}
		right, err := itemIDs("right item", c.Right)
		if err != nil {
			return err
		}
		if len(s.Pairs) != len(left) {
			return fmt.Errorf("solution has %d pairs, content has %d left items", len(s.Pairs), len(left))
		}
		for l, r := range s.Pairs {
			if !left[l] {
				return fmt.Errorf("pair left %q not in content", l)
			}
			if !right[r] {
				return fmt.Errorf("pair right %q not in content", r)
			}
		}

	case models.OrderingSolution:
		ids, err := itemIDs("item", c.Items)
		if err != nil {
			return err
		}
		if len(ids) < 2 {
			return fmt.Errorf("ordering needs at least 2 items")
		}
		if len(s.Order) != len(ids) {
			return fmt.Errorf("order has %d ids, content has %d items", len(s.Order), len(ids))
		}
		seen := make(map[string]bool, len(s.Order))
		for _, id := range s.Order {
			if !ids[id] || seen[id] {
				return fmt.Errorf("order is not a permutation of the items")
			}
			seen[id] = true
		}

	case models.TrueFalseSolution:
		ids, err := itemIDs("statement", c.Statements)
		if err != nil {
			return err
		}
		if len(s.Values) != len(ids) {
			return fmt.Errorf("solution has %d values, content has %d statements", len(s.Values), len(ids))
		}
		for id := range s.Values {
			if !ids[id] {
				return fmt.Errorf("statement %q not in content", id)
			}
		}

	case models.CalculationSolution:
		if math.IsNaN(s.Value) || math.IsInf(s.Value, 0) {
			return fmt.Errorf("calculation value is not finite")
		}
		if s.Tolerance < 0 || math.IsNaN(s.Tolerance) {
			return fmt.Errorf("calculation tolerance must be >= 0")
		}

	case models.ShortAnswerSolution:
		ok := false
		for _, a := range s.Accepted {
			if strings.TrimSpace(a) != "" {
				ok = true
				break
			}
		}
		if !ok {
			return fmt.Errorf("short answer has no accepted answers")
		}
	}
	return nil
}

// itemIDs returns the set of ids in items, rejecting empty or duplicate ids.
func itemIDs(kind string, items []models.Item) (map[string]bool, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("no %ss in content", kind)
	}
	ids := make(map[string]bool, len(items))
	for _, it := range items {
		if it.ID == "" {
			return nil, fmt.Errorf("%s with empty id", kind)
		}
		if ids[it.ID] {
			return nil, fmt.Errorf("duplicate %s id %q", kind, it.ID)
		}
		ids[it.ID] = true
	}
	return ids, nil
}
