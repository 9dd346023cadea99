package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/keenlabs/docvec/internal/model"
	apperr "github.com/keenlabs/docvec/internal/pkg/errors"
)

func TestLoadReports(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports.json")
	content := `[
  {"filename": "report-q1.txt", "content": "first quarter summary"},
  {"filename": "report-q2.txt", "content": "second quarter summary", "metadata": {"source_url": "https://example.com"}}
]`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	docs, err := LoadReports(path)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	require.Equal(t, "report-q1.txt", docs[0].Filename)
	require.Equal(t, "https://example.com", docs[1].Metadata["source_url"])
}

func TestLoadReportsRejectsMissingFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"filename": "x.txt"}]`), 0o644))

	_, err := LoadReports(path)
	require.ErrorIs(t, err, apperr.ErrInvalid)
}

func TestLoadReportsMissingFile(t *testing.T) {
	_, err := LoadReports(filepath.Join(t.TempDir(), "nope.json"))
	require.ErrorIs(t, err, apperr.ErrRead)
}

func TestReplaceStoresSingleChunkDocuments(t *testing.T) {
	store := &fakeStore{}
	svc := NewReportService(store, &fakeEmbedder{})

	docs := []*model.ReportDocument{
		{Filename: "report-a.txt", Content: "alpha report"},
		{Filename: "report-b.txt", Content: "beta report"},
	}
	n, err := svc.Replace(context.Background(), docs, []string{"report-*.txt"})
	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.Len(t, store.inserted, 2)
	for _, chunk := range store.inserted {
		require.Equal(t, model.FileTypeReport, chunk.FileType)
		require.Zero(t, chunk.ChunkIndex)
		require.Equal(t, 1, chunk.TotalChunks)
		require.Equal(t, chunk.Filename, chunk.Metadata[model.MetaOriginalFilename])
	}
}
