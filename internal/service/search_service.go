package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/keenlabs/docvec/internal/ai"
	"github.com/keenlabs/docvec/internal/model"
	apperr "github.com/keenlabs/docvec/internal/pkg/errors"
)

type SearchService struct {
	store    DocumentStore
	embedder ai.IEmbedder
}

func NewSearchService(store DocumentStore, embedder ai.IEmbedder) *SearchService {
	return &SearchService{store: store, embedder: embedder}
}

// Retrieve embeds the query and returns the chunks above threshold, most
// similar first. An empty result is a valid answer, distinct from a
// provider failure.
func (s *SearchService) Retrieve(ctx context.Context, query string, topK int, threshold float64) ([]*model.ScoredChunk, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: query is empty", apperr.ErrInvalid)
	}
	if topK <= 0 {
		return nil, fmt.Errorf("%w: top_k must be positive", apperr.ErrInvalid)
	}
	if threshold < 0 || threshold > 1 {
		return nil, fmt.Errorf("%w: threshold must be in [0, 1]", apperr.ErrInvalid)
	}
	embedding, err := s.embedder.Embed(ctx, query, ai.TaskTypeQuery)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	return s.store.Search(ctx, embedding, topK, threshold)
}
