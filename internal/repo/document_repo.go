package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/didi/gendry/builder"
	"github.com/pgvector/pgvector-go"

	"github.com/keenlabs/docvec/internal/model"
	"github.com/keenlabs/docvec/internal/pkg/dbutil"
	apperr "github.com/keenlabs/docvec/internal/pkg/errors"
)

// DocumentRepo persists chunks and runs similarity search against the
// match_documents function installed by the migrations.
type DocumentRepo struct {
	db         *sql.DB
	dimensions int
}

func NewDocumentRepo(db *sql.DB, dimensions int) *DocumentRepo {
	return &DocumentRepo{db: db, dimensions: dimensions}
}

func (r *DocumentRepo) Insert(ctx context.Context, chunk *model.DocumentChunk) error {
	if len(chunk.Embedding) != r.dimensions {
		return fmt.Errorf("%w: embedding has %d dimensions, store expects %d",
			apperr.ErrSchema, len(chunk.Embedding), r.dimensions)
	}
	metadata, err := json.Marshal(chunk.Metadata)
	if err != nil {
		return fmt.Errorf("%w: marshal metadata: %v", apperr.ErrInvalid, err)
	}
	data := map[string]interface{}{
		"filename":     chunk.Filename,
		"file_type":    string(chunk.FileType),
		"content":      chunk.Content,
		"chunk_index":  chunk.ChunkIndex,
		"total_chunks": chunk.TotalChunks,
		"embedding":    pgvector.NewVector(chunk.Embedding),
		"metadata":     metadata,
	}
	sqlStr, args, err := builder.BuildInsert("documents", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, dbutil.Rebind(sqlStr), args...)
	return r.classify(err)
}

// Search delegates ranking to Postgres; similarity is cosine, the threshold
// filter is strictly greater-than.
func (r *DocumentRepo) Search(ctx context.Context, embedding []float32, topK int, threshold float64) ([]*model.ScoredChunk, error) {
	if len(embedding) != r.dimensions {
		return nil, fmt.Errorf("%w: query embedding has %d dimensions, store expects %d",
			apperr.ErrSchema, len(embedding), r.dimensions)
	}
	const query = `SELECT id, filename, file_type, content, chunk_index, similarity
FROM match_documents($1, $2, $3)`
	rows, err := r.db.QueryContext(ctx, query, pgvector.NewVector(embedding), threshold, topK)
	if err != nil {
		return nil, r.classify(err)
	}
	defer rows.Close()
	var res []*model.ScoredChunk
	for rows.Next() {
		item := &model.ScoredChunk{}
		var fileType string
		if err := rows.Scan(&item.ID, &item.Filename, &fileType, &item.Content, &item.ChunkIndex, &item.Similarity); err != nil {
			return nil, err
		}
		item.FileType = model.FileType(fileType)
		res = append(res, item)
	}
	if err := rows.Err(); err != nil {
		return nil, r.classify(err)
	}
	return res, nil
}

// ListFilenames returns the set of filenames with at least one stored chunk.
// Callers use it as a resume snapshot; it is filename-granular on purpose.
func (r *DocumentRepo) ListFilenames(ctx context.Context) (map[string]struct{}, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT filename FROM documents`)
	if err != nil {
		return nil, r.classify(err)
	}
	defer rows.Close()
	res := make(map[string]struct{})
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		res[name] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, r.classify(err)
	}
	return res, nil
}

// DeleteByPattern removes every chunk whose filename matches the glob
// pattern. Returns the number of deleted rows.
func (r *DocumentRepo) DeleteByPattern(ctx context.Context, pattern string) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM documents WHERE filename LIKE $1`, globToLike(pattern))
	if err != nil {
		return 0, r.classify(err)
	}
	return res.RowsAffected()
}

// SetMetadataField patches a single metadata key on every chunk of a file
// without touching embeddings or content.
func (r *DocumentRepo) SetMetadataField(ctx context.Context, filename, key string, value interface{}) (int64, error) {
	encoded, err := json.Marshal(value)
	if err != nil {
		return 0, fmt.Errorf("%w: marshal metadata value: %v", apperr.ErrInvalid, err)
	}
	res, err := r.db.ExecContext(ctx, `UPDATE documents
SET metadata = jsonb_set(COALESCE(metadata, '{}'::jsonb), ARRAY[$1], $2::jsonb),
    updated_at = NOW()
WHERE filename = $3`, key, string(encoded), filename)
	if err != nil {
		return 0, r.classify(err)
	}
	return res.RowsAffected()
}

func (r *DocumentRepo) Stats(ctx context.Context) (*model.StoreStats, error) {
	stats := &model.StoreStats{}
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COUNT(DISTINCT filename) FROM documents`).
		Scan(&stats.TotalChunks, &stats.TotalFiles)
	if err != nil {
		return nil, r.classify(err)
	}

	rows, err := r.db.QueryContext(ctx, `SELECT file_type, COUNT(*), COUNT(DISTINCT filename)
FROM documents GROUP BY file_type ORDER BY file_type`)
	if err != nil {
		return nil, r.classify(err)
	}
	defer rows.Close()
	for rows.Next() {
		var item model.FileTypeStat
		var fileType string
		if err := rows.Scan(&fileType, &item.Chunks, &item.Files); err != nil {
			return nil, err
		}
		item.FileType = model.FileType(fileType)
		stats.ByType = append(stats.ByType, item)
	}
	if err := rows.Err(); err != nil {
		return nil, r.classify(err)
	}

	recent, err := r.db.QueryContext(ctx, `SELECT filename, MAX(created_at) AS latest
FROM documents GROUP BY filename ORDER BY latest DESC LIMIT 5`)
	if err != nil {
		return nil, r.classify(err)
	}
	defer recent.Close()
	for recent.Next() {
		var item model.RecentFile
		if err := recent.Scan(&item.Filename, &item.CreatedAt); err != nil {
			return nil, err
		}
		stats.Recent = append(stats.Recent, item)
	}
	if err := recent.Err(); err != nil {
		return nil, r.classify(err)
	}
	return stats, nil
}

func (r *DocumentRepo) classify(err error) error {
	if err == nil {
		return nil
	}
	if dbutil.IsUnavailable(err) {
		return fmt.Errorf("%w: %v", apperr.ErrStoreUnavailable, err)
	}
	if dbutil.IsVectorDimMismatch(err) {
		return fmt.Errorf("%w: %v", apperr.ErrSchema, err)
	}
	return err
}

// globToLike converts shell-style wildcards to a LIKE pattern, escaping
// characters LIKE treats specially.
func globToLike(pattern string) string {
	var b strings.Builder
	for _, r := range pattern {
		switch r {
		case '*':
			b.WriteByte('%')
		case '?':
			b.WriteByte('_')
		case '%', '_', '\\':
			b.WriteByte('\\')
			b.WriteRune(r)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
