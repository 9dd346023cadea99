package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/keenlabs/docvec/internal/chunker"
	"github.com/keenlabs/docvec/internal/config"
	"github.com/keenlabs/docvec/internal/model"
	apperr "github.com/keenlabs/docvec/internal/pkg/errors"
	"github.com/keenlabs/docvec/internal/source"
)

type fakeStore struct {
	mu        sync.Mutex
	inserted  []*model.DocumentChunk
	insertErr error
	searchRes []*model.ScoredChunk
	searchErr error
}

func (f *fakeStore) Insert(ctx context.Context, chunk *model.DocumentChunk) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return f.insertErr
	}
	f.inserted = append(f.inserted, chunk)
	return nil
}

func (f *fakeStore) Search(ctx context.Context, embedding []float32, topK int, threshold float64) ([]*model.ScoredChunk, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.searchRes, nil
}

func (f *fakeStore) ListFilenames(ctx context.Context) (map[string]struct{}, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	res := make(map[string]struct{})
	for _, chunk := range f.inserted {
		res[chunk.Filename] = struct{}{}
	}
	return res, nil
}

func (f *fakeStore) DeleteByPattern(ctx context.Context, pattern string) (int64, error) {
	return 0, nil
}

func (f *fakeStore) SetMetadataField(ctx context.Context, filename, key string, value interface{}) (int64, error) {
	return 0, nil
}

func (f *fakeStore) Stats(ctx context.Context) (*model.StoreStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &model.StoreStats{TotalChunks: int64(len(f.inserted))}, nil
}

type fakeEmbedder struct {
	calls  int
	failAt map[int]error
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	f.calls++
	if err, ok := f.failAt[f.calls]; ok {
		return nil, err
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

func (f *fakeEmbedder) ModelName() string {
	return "fake-model"
}

func localSource(t *testing.T, files map[string]string) source.Source {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	src, err := source.New(config.SourceConfig{Type: "local", Data: map[string]interface{}{"dir": dir}})
	require.NoError(t, err)
	return src
}

func newChunker(t *testing.T, size, overlap int) *chunker.Chunker {
	t.Helper()
	c, err := chunker.New(size, overlap)
	require.NoError(t, err)
	return c
}

func TestIngestSourceStoresChunks(t *testing.T) {
	store := &fakeStore{}
	svc := NewIngestService(store, &fakeEmbedder{}, newChunker(t, 1000, 200), true)
	src := localSource(t, map[string]string{
		"a.txt": "hello world",
		"b.md":  "# title\n\nsome body",
	})

	res, err := svc.IngestSource(context.Background(), src)
	require.NoError(t, err)
	require.Equal(t, 2, res.Done)
	require.Zero(t, res.Skipped)
	require.Zero(t, res.Failed)
	require.NotEmpty(t, res.RunID)
	require.Len(t, store.inserted, 2)

	first := store.inserted[0]
	require.Equal(t, "a.txt", first.Filename)
	require.Equal(t, model.FileTypeText, first.FileType)
	require.Equal(t, 1, first.TotalChunks)
	require.Contains(t, first.Metadata, model.MetaFileHash)
	require.Contains(t, first.Metadata, model.MetaOriginalFilename)
}

func TestIngestSourceResumeSkipsStoredFiles(t *testing.T) {
	store := &fakeStore{}
	svc := NewIngestService(store, &fakeEmbedder{}, newChunker(t, 1000, 200), true)
	src := localSource(t, map[string]string{
		"a.txt": "hello world",
		"b.txt": "more text",
	})

	first, err := svc.IngestSource(context.Background(), src)
	require.NoError(t, err)
	require.Equal(t, 2, first.Done)

	second, err := svc.IngestSource(context.Background(), src)
	require.NoError(t, err)
	require.Zero(t, second.Done)
	require.Equal(t, 2, second.Skipped)
	require.Len(t, store.inserted, 2)
}

func TestIngestSourceIgnoresUnsupportedFiles(t *testing.T) {
	store := &fakeStore{}
	svc := NewIngestService(store, &fakeEmbedder{}, newChunker(t, 1000, 200), false)
	src := localSource(t, map[string]string{
		"data.csv":  "a,b,c",
		"image.png": "not really",
		"ok.txt":    "real content",
	})

	res, err := svc.IngestSource(context.Background(), src)
	require.NoError(t, err)
	require.Equal(t, 1, res.Done)
	require.Len(t, res.Files, 1)
	require.Equal(t, "ok.txt", res.Files[0].Filename)
}

func TestIngestSourceSkipsEmptyFile(t *testing.T) {
	store := &fakeStore{}
	svc := NewIngestService(store, &fakeEmbedder{}, newChunker(t, 1000, 200), false)
	src := localSource(t, map[string]string{
		"empty.txt": "   \n\n  ",
		"full.txt":  "actual words",
	})

	res, err := svc.IngestSource(context.Background(), src)
	require.NoError(t, err)
	require.Equal(t, 1, res.Done)
	require.Equal(t, 1, res.Failed)
	for _, f := range res.Files {
		if f.Filename == "empty.txt" {
			require.Equal(t, FileFailedEmpty, f.Status)
		}
	}
	require.Len(t, store.inserted, 1)
}

func TestIngestContinuesAfterChunkEmbedFailure(t *testing.T) {
	store := &fakeStore{}
	embedder := &fakeEmbedder{failAt: map[int]error{1: fmt.Errorf("%w: rate limited", apperr.ErrProvider)}}
	svc := NewIngestService(store, embedder, newChunker(t, 10, 2), false)
	src := localSource(t, map[string]string{
		"long.txt": "0123456789012345678901234",
	})

	res, err := svc.IngestSource(context.Background(), src)
	require.NoError(t, err)
	require.Equal(t, 1, res.Done)
	fileRes := res.Files[0]
	require.Equal(t, 1, fileRes.ChunksFailed)
	require.Greater(t, fileRes.ChunksStored, 0)
}

func TestIngestAbortsWhenStoreUnavailable(t *testing.T) {
	store := &fakeStore{insertErr: fmt.Errorf("%w: connection refused", apperr.ErrStoreUnavailable)}
	svc := NewIngestService(store, &fakeEmbedder{}, newChunker(t, 1000, 200), false)
	src := localSource(t, map[string]string{
		"a.txt": "hello",
		"b.txt": "world",
	})

	_, err := svc.IngestSource(context.Background(), src)
	require.Error(t, err)
	require.True(t, errors.Is(err, apperr.ErrStoreUnavailable))
}
