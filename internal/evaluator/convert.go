package evaluator

import (
	"reflect"

	"github.com/learnloop/backend/internal/models"
)

// isNil reports whether v is nil or a nil pointer. Answer and solution
// methods have value receivers, so calling them through a nil pointer panics.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}

// The as* helpers accept both value and pointer forms. A nil pointer or an
// unexpected concrete type yields the zero value, which scores zero.

func asFillInBlankSolution(s models.Solution) models.FillInBlankSolution {
	switch v := s.(type) {
	case models.FillInBlankSolution:
		return v
	case *models.FillInBlankSolution:
		if v != nil {
			return *v
		}
	}
	return models.FillInBlankSolution{}
}

func asMatchingSolution(s models.Solution) models.MatchingSolution {
	switch v := s.(type) {
	case models.MatchingSolution:
		return v
	case *models.MatchingSolution:
		if v != nil {
			return *v
		}
	}
	return models.MatchingSolution{}
}

func asOrderingSolution(s models.Solution) models.OrderingSolution {
	switch v := s.(type) {
	case models.OrderingSolution:
		return v
	case *models.OrderingSolution:
		if v != nil {
			return *v
		}
	}
	return models.OrderingSolution{}
}

func asTrueFalseSolution(s models.Solution) models.TrueFalseSolution {
	switch v := s.(type) {
	case models.TrueFalseSolution:
		return v
	case *models.TrueFalseSolution:
		if v != nil {
			return *v
		}
	}
	return models.TrueFalseSolution{}
}

// asCalculationSolution reports ok=false for a missing solution so that a
// zero-valued answer does not match a zero-valued key.
func asCalculationSolution(s models.Solution) (models.CalculationSolution, bool) {
	switch v := s.(type) {
	case models.CalculationSolution:
		return v, true
	case *models.CalculationSolution:
		if v != nil {
			return *v, true
		}
	}
	return models.CalculationSolution{}, false
}

func asShortAnswerSolution(s models.Solution) models.ShortAnswerSolution {
	switch v := s.(type) {
	case models.ShortAnswerSolution:
		return v
	case *models.ShortAnswerSolution:
		if v != nil {
			return *v
		}
	}
	return models.ShortAnswerSolution{}
}

func asFillInBlankAnswer(a models.Answer) models.FillInBlankAnswer {
	switch v := a.(type) {
	case models.FillInBlankAnswer:
		return v
	case *models.FillInBlankAnswer:
		if v != nil {
			return *v
		}
	}
	return models.FillInBlankAnswer{}
}

func asMatchingAnswer(a models.Answer) models.MatchingAnswer {
	switch v := a.(type) {
	case models.MatchingAnswer:
		return v
	case *models.MatchingAnswer:
		if v != nil {
			return *v
		}
	}
	return models.MatchingAnswer{}
}

func asOrderingAnswer(a models.Answer) models.OrderingAnswer {
	switch v := a.(type) {
	case models.OrderingAnswer:
		return v
	case *models.OrderingAnswer:
		if v != nil {
			return *v
		}
	}
	return models.OrderingAnswer{}
}

func asTrueFalseAnswer(a models.Answer) models.TrueFalseAnswer {
	switch v := a.(type) {
	case models.TrueFalseAnswer:
		return v
	case *models.TrueFalseAnswer:
		if v != nil {
			return *v
		}
	}
	return models.TrueFalseAnswer{}
}

func asCalculationAnswer(a models.Answer) (models.CalculationAnswer, bool) {
	switch v := a.(type) {
	case models.CalculationAnswer:
		return v, true
	case *models.CalculationAnswer:
		if v != nil {
			return *v, true
		}
	}
	return models.CalculationAnswer{}, false
}

func asShortAnswerAnswer(a models.Answer) models.ShortAnswerAnswer {
	switch v := a.(type) {
	case models.ShortAnswerAnswer:
		return v
	case *models.ShortAnswerAnswer:
		if v != nil {
			return *v
		}
	}
	return models.ShortAnswerAnswer{}
}
