package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Answer is a learner's submission for one exercise. Each exercise type has
// exactly one answer shape; the evaluator rejects mismatches as incorrect.
type Answer interface {
	ExerciseType() ExerciseType
}

type FillInBlankAnswer struct {
	Blanks map[string]string `json:"blanks"`
}

type MatchingAnswer struct {
	Pairs map[string]string `json:"pairs"`
}

type OrderingAnswer struct {
	Order []string `json:"order"`
}

type TrueFalseAnswer struct {
	Values map[string]bool `json:"values"`
}

// CalculationAnswer holds a pointer so a missing value is told apart from 0.
type CalculationAnswer struct {
	Value *float64 `json:"value"`
}

type ShortAnswerAnswer struct {
	Text string `json:"text"`
}

func (FillInBlankAnswer) ExerciseType() ExerciseType { return ExerciseFillInBlank }
func (MatchingAnswer) ExerciseType() ExerciseType    { return ExerciseMatching }
func (OrderingAnswer) ExerciseType() ExerciseType    { return ExerciseOrdering }
func (TrueFalseAnswer) ExerciseType() ExerciseType   { return ExerciseTrueFalse }
func (CalculationAnswer) ExerciseType() ExerciseType { return ExerciseCalculation }
func (ShortAnswerAnswer) ExerciseType() ExerciseType { return ExerciseShortAnswer }

// AnswerEnvelope is the wire form of an Answer: a type tag plus the
// type-specific payload.
type AnswerEnvelope struct {
	Type    ExerciseType    `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// DecodeAnswer turns an envelope into a typed Answer. Any failure wraps
// ErrValidation; callers score such submissions as incorrect.
func DecodeAnswer(env AnswerEnvelope) (Answer, error) {
	if len(env.Payload) == 0 {
		return nil, fmt.Errorf("%w: empty payload for %s", ErrValidation, env.Type)
	}

	var (
		ans Answer
		err error
	)
	switch env.Type {
	case ExerciseFillInBlank:
		var a FillInBlankAnswer
		err = decodeStrict(env.Payload, &a)
		ans = a
	case ExerciseMatching:
		var a MatchingAnswer
		err = decodeStrict(env.Payload, &a)
		ans = a
	case ExerciseOrdering:
		var a OrderingAnswer
		err = decodeStrict(env.Payload, &a)
		ans = a
	case ExerciseTrueFalse:
		var a TrueFalseAnswer
		err = decodeStrict(env.Payload, &a)
		ans = a
	case ExerciseCalculation:
		var a CalculationAnswer
		err = decodeStrict(env.Payload, &a)
		ans = a
	case ExerciseShortAnswer:
		var a ShortAnswerAnswer
		err = decodeStrict(env.Payload, &a)
		ans = a
	default:
		return nil, fmt.Errorf("%w: unknown answer type %q", ErrValidation, env.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s answer: %v", ErrValidation, env.Type, err)
	}
	return ans, nil
}

func decodeStrict(raw json.RawMessage, dst any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
