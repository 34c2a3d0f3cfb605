package prediction

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dvloznov/edufin/internal/cache"
	"github.com/dvloznov/edufin/internal/logger"
)

// CachedPredictor memoizes Next's answers. Cache failures are logged and
// bypassed.
type CachedPredictor struct {
	Next  Predictor
	Cache cache.Cache
	TTL   time.Duration
}

func (c *CachedPredictor) PredictFee(ctx context.Context, req FeeRequest) (FeePrediction, error) {
	key := fmt.Sprintf("predict:fee:%s:%.0f:%t", normalizeCourse(req.Course), req.Income, req.Scholarship)
	return cached(ctx, c, key, func() (FeePrediction, error) { return c.Next.PredictFee(ctx, req) })
}

func (c *CachedPredictor) PredictBudget(ctx context.Context, req BudgetRequest) (BudgetPrediction, error) {
	key := fmt.Sprintf("predict:budget:%.2f", req.Expenses)
	return cached(ctx, c, key, func() (BudgetPrediction, error) { return c.Next.PredictBudget(ctx, req) })
}

func (c *CachedPredictor) Insights(ctx context.Context) (Insights, error) {
	return cached(ctx, c, "predict:insights", func() (Insights, error) { return c.Next.Insights(ctx) })
}

func cached[T any](ctx context.Context, c *CachedPredictor, key string, compute func() (T, error)) (T, error) {
	log := logger.FromContext(ctx)

	var v T
	err := cache.GetJSON(ctx, c.Cache, key, &v)
	if err == nil {
		return v, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		log.Warn().Err(err).Str("key", key).Msg("Prediction cache read failed")
	}

	v, err = compute()
	if err != nil {
		return v, err
	}
	if err := cache.SetJSON(ctx, c.Cache, key, v, c.TTL); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Prediction cache write failed")
	}
	return v, nil
}

func normalizeCourse(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

var _ Predictor = (*CachedPredictor)(nil)
