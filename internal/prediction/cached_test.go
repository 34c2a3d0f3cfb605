package prediction

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/dvloznov/edufin/internal/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingPredictor struct {
	RuleBased
	fees int
}

func (c *countingPredictor) PredictFee(ctx context.Context, req FeeRequest) (FeePrediction, error) {
	c.fees++
	return c.RuleBased.PredictFee(ctx, req)
}

func TestCachedPredictor(t *testing.T) {
	mr := miniredis.RunT(t)
	next := &countingPredictor{}
	p := &CachedPredictor{
		Next:  next,
		Cache: cache.NewRedisCache(mr.Addr(), "", 0, "edufin"),
		TTL:   time.Minute,
	}
	ctx := context.Background()

	for range 3 {
		got, err := p.PredictFee(ctx, FeeRequest{Course: "Science", Income: 400000})
		require.NoError(t, err)
		assert.Equal(t, 300000.0, got.PredictedFee)
	}
	assert.Equal(t, 1, next.fees)
	assert.True(t, mr.Exists("edufin:predict:fee:science:400000:false"))

	mr.FastForward(2 * time.Minute)
	_, err := p.PredictFee(ctx, FeeRequest{Course: "science", Income: 400000})
	require.NoError(t, err)
	assert.Equal(t, 2, next.fees)
}

func TestCachedPredictor_ErrorsNotCached(t *testing.T) {
	next := &countingPredictor{}
	p := &CachedPredictor{Next: next, Cache: cache.NewMemoryCache(), TTL: time.Minute}

	_, err := p.PredictFee(context.Background(), FeeRequest{})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = p.PredictFee(context.Background(), FeeRequest{})
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, 2, next.fees)
}
