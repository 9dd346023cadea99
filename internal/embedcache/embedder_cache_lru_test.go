package embedcache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/keenlabs/docvec/internal/ai"
)

type countingEmbedder struct {
	calls int
	vec   []float32
}

func (c *countingEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	c.calls++
	return c.vec, nil
}

func (c *countingEmbedder) ModelName() string {
	return "test-model"
}

func TestLruEmbedderCachesRepeatedText(t *testing.T) {
	inner := &countingEmbedder{vec: []float32{0.1, 0.2, 0.3}}
	e := WrapLruCacheToEmbedder(inner, 16, time.Minute)

	first, err := e.Embed(context.Background(), "hello", ai.TaskTypeDocument)
	require.NoError(t, err)
	second, err := e.Embed(context.Background(), "hello", ai.TaskTypeDocument)
	require.NoError(t, err)

	require.Equal(t, first, second)
	require.Equal(t, 1, inner.calls)
}

func TestLruEmbedderKeySeparatesTaskTypes(t *testing.T) {
	inner := &countingEmbedder{vec: []float32{0.5}}
	e := WrapLruCacheToEmbedder(inner, 16, time.Minute)

	_, err := e.Embed(context.Background(), "same text", ai.TaskTypeDocument)
	require.NoError(t, err)
	_, err = e.Embed(context.Background(), "same text", ai.TaskTypeQuery)
	require.NoError(t, err)

	require.Equal(t, 2, inner.calls)
}

func TestLruEmbedderReturnsDefensiveCopy(t *testing.T) {
	inner := &countingEmbedder{vec: []float32{1, 2, 3}}
	e := WrapLruCacheToEmbedder(inner, 16, time.Minute)

	first, err := e.Embed(context.Background(), "mutate me", ai.TaskTypeDocument)
	require.NoError(t, err)
	first[0] = 999

	second, err := e.Embed(context.Background(), "mutate me", ai.TaskTypeDocument)
	require.NoError(t, err)
	require.Equal(t, float32(1), second[0])
}

func TestWrapLruCacheDisabled(t *testing.T) {
	inner := &countingEmbedder{vec: []float32{1}}
	require.Equal(t, ai.IEmbedder(inner), WrapLruCacheToEmbedder(inner, 0, time.Minute))
	require.Equal(t, ai.IEmbedder(inner), WrapLruCacheToEmbedder(inner, 16, 0))
}
