package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/keenlabs/docvec/internal/model"
	apperr "github.com/keenlabs/docvec/internal/pkg/errors"
)

type fakeRetriever struct {
	gotTopK      int
	gotThreshold float64
	res          []*model.ScoredChunk
	err          error
}

func (f *fakeRetriever) Retrieve(ctx context.Context, query string, topK int, threshold float64) ([]*model.ScoredChunk, error) {
	f.gotTopK = topK
	f.gotThreshold = threshold
	return f.res, f.err
}

type fakeStats struct {
	snapshot *model.StoreStats
	err      error
}

func (f *fakeStats) Snapshot(ctx context.Context) (*model.StoreStats, error) {
	return f.snapshot, f.err
}

func newTestRouter(search Retriever, stats StatsProvider) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	RegisterRoutes(engine, RouterDeps{Search: NewSearchHandler(search, stats, 10, 0.5)})
	return engine
}

func doJSON(t *testing.T, engine *gin.Engine, method, path, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept-Encoding", "identity")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	return rec, decoded
}

func TestSearchEndpointAppliesDefaults(t *testing.T) {
	retriever := &fakeRetriever{res: []*model.ScoredChunk{
		{ID: "1", Filename: "a.txt", Content: "hit", Similarity: 0.9},
	}}
	engine := newTestRouter(retriever, &fakeStats{})

	rec, body := doJSON(t, engine, http.MethodPost, "/api/v1/search", `{"query": "what is the plan"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 10, retriever.gotTopK)
	require.InDelta(t, 0.5, retriever.gotThreshold, 1e-9)

	data := body["data"].(map[string]interface{})
	require.Equal(t, "en", data["language"])
	require.Len(t, data["results"], 1)
}

func TestSearchEndpointOverridesDefaults(t *testing.T) {
	retriever := &fakeRetriever{}
	engine := newTestRouter(retriever, &fakeStats{})

	rec, _ := doJSON(t, engine, http.MethodPost, "/api/v1/search", `{"query": "q", "top_k": 3, "threshold": 0.8}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 3, retriever.gotTopK)
	require.InDelta(t, 0.8, retriever.gotThreshold, 1e-9)
}

func TestSearchEndpointErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{fmt.Errorf("%w: bad query", apperr.ErrInvalid), http.StatusBadRequest},
		{fmt.Errorf("embed query: %w", apperr.ErrProvider), http.StatusBadGateway},
		{fmt.Errorf("%w: conn refused", apperr.ErrStoreUnavailable), http.StatusServiceUnavailable},
		{fmt.Errorf("something else"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		engine := newTestRouter(&fakeRetriever{err: c.err}, &fakeStats{})
		rec, _ := doJSON(t, engine, http.MethodPost, "/api/v1/search", `{"query": "q"}`)
		require.Equal(t, c.code, rec.Code, "err: %v", c.err)
	}
}

func TestStatsEndpoint(t *testing.T) {
	stats := &fakeStats{snapshot: &model.StoreStats{TotalChunks: 42, TotalFiles: 7}}
	engine := newTestRouter(&fakeRetriever{}, stats)

	rec, body := doJSON(t, engine, http.MethodGet, "/api/v1/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	data := body["data"].(map[string]interface{})
	require.EqualValues(t, 42, data["total_chunks"])
	require.EqualValues(t, 7, data["total_files"])
}
