package service

import (
	"context"

	"github.com/keenlabs/docvec/internal/model"
)

type StatsService struct {
	store DocumentStore
}

func NewStatsService(store DocumentStore) *StatsService {
	return &StatsService{store: store}
}

func (s *StatsService) Snapshot(ctx context.Context) (*model.StoreStats, error) {
	return s.store.Stats(ctx)
}
