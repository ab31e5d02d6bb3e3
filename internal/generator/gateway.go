package generator

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/learnloop/backend/internal/metrics"
	"github.com/learnloop/backend/internal/models"
)

// Fallback reasons, used as the metric label.
const (
	FallbackTimeout = "timeout"
	FallbackInvalid = "invalid"
	FallbackEmpty   = "empty"
	FallbackError   = "error"
)

// Gateway is the session layer's view of content generation. It never
// fails: any generation problem is logged and answered with templates.
type Gateway struct {
	gen     ContentGenerator
	timeout time.Duration
	log     *zap.Logger
	metrics *metrics.Metrics
}

func NewGateway(gen ContentGenerator, timeout time.Duration, log *zap.Logger, m *metrics.Metrics) *Gateway {
	return &Gateway{gen: gen, timeout: timeout, log: log.Named("gateway"), metrics: m}
}

// Exercises returns exercises at req.Difficulty, from the generator when it
// delivers in time and from templates otherwise.
func (g *Gateway) Exercises(ctx context.Context, req GenerateRequest) []models.Exercise {
	if !models.ValidDifficulties[req.Difficulty] {
		req.Difficulty = models.DifficultyMedium
	}

	genCtx := ctx
	if g.timeout > 0 {
		var cancel context.CancelFunc
		genCtx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	start := time.Now()
	exercises, err := g.gen.Generate(genCtx, req)
	if err == nil {
		exercises = usable(exercises, req.Difficulty)
		if len(exercises) > 0 {
			g.log.Debug("generated exercises",
				zap.String("subject", req.Subject),
				zap.String("difficulty", string(req.Difficulty)),
				zap.Int("count", len(exercises)),
				zap.Duration("took", time.Since(start)),
			)
			return exercises
		}
	}

	reason := fallbackReason(genCtx, err)
	g.log.Warn("generation failure, serving templates",
		zap.String("reason", reason),
		zap.String("subject", req.Subject),
		zap.String("difficulty", string(req.Difficulty)),
		zap.Duration("took", time.Since(start)),
		zap.Error(err),
	)
	if g.metrics != nil {
		g.metrics.ObserveFallback(reason)
	}
	return Templates(req.Difficulty)
}

// usable drops anything a generator returned that the session could not
// serve, and pins difficulty and points to the request.
func usable(in []models.Exercise, d models.Difficulty) []models.Exercise {
	out := in[:0:0]
	for _, ex := range in {
		if ex.ID == "" || ex.Solution == nil || ex.Solution.ExerciseType() != ex.Type {
			continue
		}
		ex.Difficulty = d
		ex.Points = models.PointsFor(d)
		out = append(out, ex)
	}
	return out
}

func fallbackReason(ctx context.Context, err error) string {
	var ve *ValidationError
	switch {
	case err == nil:
		return FallbackEmpty
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		return FallbackTimeout
	case errors.As(err, &ve):
		return FallbackInvalid
	default:
		return FallbackError
	}
}
