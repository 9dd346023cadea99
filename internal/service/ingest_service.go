package service

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/keenlabs/docvec/internal/ai"
	"github.com/keenlabs/docvec/internal/chunker"
	"github.com/keenlabs/docvec/internal/extract"
	"github.com/keenlabs/docvec/internal/model"
	apperr "github.com/keenlabs/docvec/internal/pkg/errors"
	"github.com/keenlabs/docvec/internal/source"
)

// DocumentStore is the persistence surface the services need. It is
// satisfied by repo.DocumentRepo.
type DocumentStore interface {
	Insert(ctx context.Context, chunk *model.DocumentChunk) error
	Search(ctx context.Context, embedding []float32, topK int, threshold float64) ([]*model.ScoredChunk, error)
	ListFilenames(ctx context.Context) (map[string]struct{}, error)
	DeleteByPattern(ctx context.Context, pattern string) (int64, error)
	SetMetadataField(ctx context.Context, filename, key string, value interface{}) (int64, error)
	Stats(ctx context.Context) (*model.StoreStats, error)
}

type FileStatus string

const (
	FileDone        FileStatus = "done"
	FileSkipped     FileStatus = "skipped"
	FileFailedRead  FileStatus = "failed_read"
	FileFailedEmpty FileStatus = "failed_empty"
)

type FileResult struct {
	Filename     string     `json:"filename"`
	Status       FileStatus `json:"status"`
	ChunksStored int        `json:"chunks_stored"`
	ChunksFailed int        `json:"chunks_failed"`
	Err          string     `json:"error,omitempty"`
}

type BatchResult struct {
	RunID   string       `json:"run_id"`
	Files   []FileResult `json:"files"`
	Done    int          `json:"done"`
	Skipped int          `json:"skipped"`
	Failed  int          `json:"failed"`
	Elapsed string       `json:"elapsed"`
}

type IngestService struct {
	store    DocumentStore
	embedder ai.IEmbedder
	chunker  *chunker.Chunker
	resume   bool
}

func NewIngestService(store DocumentStore, embedder ai.IEmbedder, chunker *chunker.Chunker, resume bool) *IngestService {
	return &IngestService{
		store:    store,
		embedder: embedder,
		chunker:  chunker,
		resume:   resume,
	}
}

// IngestSource walks every supported file of src and stores its chunks.
// With resume enabled, filenames already present in the store are skipped;
// the snapshot is taken once, before the first file, so a file partially
// stored by an earlier crashed run still counts as done.
//
// Per-file failures (unreadable, empty after extraction) skip the file.
// A store outage aborts the whole batch.
func (s *IngestService) IngestSource(ctx context.Context, src source.Source) (*BatchResult, error) {
	start := time.Now()
	result := &BatchResult{RunID: uuid.NewString()}
	logger := logutil.GetLogger(ctx).With(
		zap.String("run_id", result.RunID),
		zap.String("source", src.Name()),
	)

	entries, err := src.List(ctx)
	if err != nil {
		return nil, err
	}

	var done map[string]struct{}
	if s.resume {
		done, err = s.store.ListFilenames(ctx)
		if err != nil {
			return nil, err
		}
	}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if !extract.Supported(entry.Name) {
			continue
		}
		if _, ok := done[entry.Name]; ok {
			logger.Info("file already stored, skipping", zap.String("filename", entry.Name))
			result.Files = append(result.Files, FileResult{Filename: entry.Name, Status: FileSkipped})
			result.Skipped++
			continue
		}

		fileRes, err := s.ingestEntry(ctx, src, entry)
		result.Files = append(result.Files, *fileRes)
		if err != nil {
			return result, err
		}
		switch fileRes.Status {
		case FileDone:
			result.Done++
		case FileSkipped:
			result.Skipped++
		default:
			result.Failed++
		}
	}
	result.Elapsed = time.Since(start).Round(time.Millisecond).String()
	logger.Info("ingest finished",
		zap.Int("done", result.Done),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", result.Failed),
		zap.String("elapsed", result.Elapsed),
	)
	return result, nil
}

func (s *IngestService) ingestEntry(ctx context.Context, src source.Source, entry source.Entry) (*FileResult, error) {
	path, cleanup, err := src.Fetch(ctx, entry)
	if err != nil {
		return &FileResult{Filename: entry.Name, Status: FileFailedRead, Err: err.Error()}, nil
	}
	defer cleanup()
	return s.ingestPath(ctx, path, entry.Name, entry.Size)
}

// IngestFile stores a single local file under its base name.
func (s *IngestService) IngestFile(ctx context.Context, path, name string, size int64) (*FileResult, error) {
	return s.ingestPath(ctx, path, name, size)
}

func (s *IngestService) ingestPath(ctx context.Context, path, name string, size int64) (*FileResult, error) {
	logger := logutil.GetLogger(ctx).With(zap.String("filename", name))
	res := &FileResult{Filename: name, Status: FileDone}

	text, err := extract.Text(path)
	if err != nil {
		logger.Warn("extract failed, skipping file", zap.Error(err))
		res.Status = FileFailedRead
		res.Err = err.Error()
		return res, nil
	}
	chunks := s.chunker.Split(text)
	if len(chunks) == 0 {
		logger.Warn("no content after extraction, skipping file")
		res.Status = FileFailedEmpty
		res.Err = apperr.ErrEmptyContent.Error()
		return res, nil
	}

	hash := md5.Sum([]byte(text))
	fileHash := hex.EncodeToString(hash[:])
	fileType := extract.TypeOf(name)

	for i, content := range chunks {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		embedding, err := s.embedder.Embed(ctx, content, ai.TaskTypeDocument)
		if err != nil {
			logger.Warn("embed chunk failed, skipping chunk", zap.Int("chunk_index", i), zap.Error(err))
			res.ChunksFailed++
			continue
		}
		chunk := &model.DocumentChunk{
			Filename:    name,
			FileType:    fileType,
			Content:     content,
			ChunkIndex:  i,
			TotalChunks: len(chunks),
			Embedding:   embedding,
			Metadata: map[string]interface{}{
				model.MetaOriginalFilename: name,
				model.MetaFileSize:         size,
				model.MetaChunkSize:        len(content),
				model.MetaFileHash:         fileHash,
			},
		}
		if err := s.store.Insert(ctx, chunk); err != nil {
			if errors.Is(err, apperr.ErrStoreUnavailable) {
				return res, fmt.Errorf("store chunk %d of %s: %w", i, name, err)
			}
			logger.Warn("store chunk failed, skipping chunk", zap.Int("chunk_index", i), zap.Error(err))
			res.ChunksFailed++
			continue
		}
		res.ChunksStored++
	}
	logger.Info("file ingested",
		zap.Int("chunks_stored", res.ChunksStored),
		zap.Int("chunks_failed", res.ChunksFailed),
	)
	return res, nil
}
