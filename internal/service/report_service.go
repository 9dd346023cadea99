package service

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/keenlabs/docvec/internal/ai"
	"github.com/keenlabs/docvec/internal/model"
	apperr "github.com/keenlabs/docvec/internal/pkg/errors"
)

// ReportService replaces generated report documents wholesale. Reports
// arrive pre-chunked, one document per entry, and are stored as single
// chunks so a regeneration can delete-by-pattern and reinsert.
type ReportService struct {
	store    DocumentStore
	embedder ai.IEmbedder
}

func NewReportService(store DocumentStore, embedder ai.IEmbedder) *ReportService {
	return &ReportService{store: store, embedder: embedder}
}

// LoadReports reads a JSON bundle of report documents.
func LoadReports(path string) ([]*model.ReportDocument, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrRead, err)
	}
	var docs []*model.ReportDocument
	if err := json.Unmarshal(raw, &docs); err != nil {
		return nil, fmt.Errorf("%w: decode reports: %v", apperr.ErrInvalid, err)
	}
	for _, doc := range docs {
		if doc.Filename == "" || doc.Content == "" {
			return nil, fmt.Errorf("%w: report entries need filename and content", apperr.ErrInvalid)
		}
	}
	return docs, nil
}

// Replace deletes everything matching the given filename patterns, then
// embeds and inserts each document. Deletion happens first so a failed
// insert never leaves stale duplicates behind.
func (s *ReportService) Replace(ctx context.Context, docs []*model.ReportDocument, patterns []string) (int, error) {
	logger := logutil.GetLogger(ctx)
	for _, pattern := range patterns {
		n, err := s.store.DeleteByPattern(ctx, pattern)
		if err != nil {
			return 0, err
		}
		logger.Info("purged old report chunks", zap.String("pattern", pattern), zap.Int64("deleted", n))
	}
	stored := 0
	for _, doc := range docs {
		embedding, err := s.embedder.Embed(ctx, doc.Content, ai.TaskTypeDocument)
		if err != nil {
			return stored, fmt.Errorf("embed report %s: %w", doc.Filename, err)
		}
		metadata := doc.Metadata
		if metadata == nil {
			metadata = map[string]interface{}{}
		}
		metadata[model.MetaOriginalFilename] = doc.Filename
		metadata[model.MetaChunkSize] = len(doc.Content)
		chunk := &model.DocumentChunk{
			Filename:    doc.Filename,
			FileType:    model.FileTypeReport,
			Content:     doc.Content,
			ChunkIndex:  0,
			TotalChunks: 1,
			Embedding:   embedding,
			Metadata:    metadata,
		}
		if err := s.store.Insert(ctx, chunk); err != nil {
			return stored, fmt.Errorf("store report %s: %w", doc.Filename, err)
		}
		stored++
	}
	logger.Info("reports replaced", zap.Int("stored", stored))
	return stored, nil
}
