package source

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/keenlabs/docvec/internal/config"
)

// Entry is one candidate file in a source. Name is the bare filename used
// as the store key; relative paths are flattened by each source.
type Entry struct {
	Name string
	Size int64
}

// Source enumerates ingestable files and materializes them on local disk.
// Fetch's cleanup must be called once the file has been consumed.
type Source interface {
	Name() string
	List(ctx context.Context) ([]Entry, error)
	Fetch(ctx context.Context, entry Entry) (string, func(), error)
}

type Factory func(args interface{}) (Source, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

func Register(name string, factory Factory) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" || factory == nil {
		return
	}
	registryMu.Lock()
	registry[key] = factory
	registryMu.Unlock()
}

func New(cfg config.SourceConfig) (Source, error) {
	key := strings.ToLower(strings.TrimSpace(cfg.Type))
	if key == "" {
		return nil, fmt.Errorf("source.type is required")
	}
	registryMu.RLock()
	factory := registry[key]
	registryMu.RUnlock()
	if factory == nil {
		return nil, fmt.Errorf("unsupported source type: %s", cfg.Type)
	}
	return factory(cfg.Data)
}

func decodeConfig(args interface{}, dst interface{}) error {
	if args == nil {
		return fmt.Errorf("source config is required")
	}
	data, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("encode source config: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode source config: %w", err)
	}
	return nil
}
