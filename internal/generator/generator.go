package generator

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/learnloop/backend/internal/models"
)

// ErrGenerationFailure wraps every error a ContentGenerator returns. The
// Gateway recovers from it with template exercises.
var ErrGenerationFailure = errors.New("generation failure")

// PerformanceSummary is the slice of session performance shared with the
// generator so it can target weak spots.
type PerformanceSummary struct {
	TotalAnswered int                   `json:"total_answered"`
	CorrectCount  int                   `json:"correct_count"`
	MissedTypes   []models.ExerciseType `json:"missed_types,omitempty"`
}

// SummarizePerformance builds a PerformanceSummary from a running session.
func SummarizePerformance(perf *models.SessionPerformance) *PerformanceSummary {
	if perf == nil || perf.TotalAnswered == 0 {
		return nil
	}
	s := &PerformanceSummary{TotalAnswered: perf.TotalAnswered, CorrectCount: perf.CorrectCount}
	seen := make(map[models.ExerciseType]bool)
	for _, a := range perf.Answers {
		if !a.IsCorrect && !seen[a.Type] {
			seen[a.Type] = true
			s.MissedTypes = append(s.MissedTypes, a.Type)
		}
	}
	return s
}

type GenerateRequest struct {
	Subject             string
	GradeLevel          int
	LessonContent       string
	Difficulty          models.Difficulty
	Count               int
	PreviousPerformance *PerformanceSummary
}

// ContentGenerator produces exercises at a requested difficulty. Returned
// exercises carry ids, points and the requested difficulty.
type ContentGenerator interface {
	Generate(ctx context.Context, req GenerateRequest) ([]models.Exercise, error)
}

// LLMGenerator turns an LLMClient into a ContentGenerator.
type LLMGenerator struct {
	llm   LLMClient
	model string
	log   *zap.Logger
}

func NewLLMGenerator(llm LLMClient, model string, log *zap.Logger) *LLMGenerator {
	return &LLMGenerator{llm: llm, model: model, log: log.Named("generator")}
}

func (g *LLMGenerator) ModelName() string {
	return g.model
}

func (g *LLMGenerator) Generate(ctx context.Context, req GenerateRequest) ([]models.Exercise, error) {
	resp, err := g.llm.Generate(ctx, SystemPrompt(), BuildUserPrompt(req))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrGenerationFailure, g.model, err)
	}

	batch, err := ParseResponse(resp.Content, req.Difficulty)
	if err != nil {
		return nil, fmt.Errorf("%w: parse response: %w", ErrGenerationFailure, err)
	}
	for _, reason := range batch.Rejected {
		g.log.Warn("discarded generated exercise", zap.String("reason", reason))
	}

	g.log.Debug("generated exercises",
		zap.String("model", g.model),
		zap.String("difficulty", string(req.Difficulty)),
		zap.Int("count", len(batch.Exercises)),
		zap.Int("prompt_tokens", resp.PromptTokens),
		zap.Int("output_tokens", resp.OutputTokens),
	)
	return batch.Exercises, nil
}
