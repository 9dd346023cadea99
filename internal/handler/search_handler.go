package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/keenlabs/docvec/internal/lang"
	"github.com/keenlabs/docvec/internal/model"
	"github.com/keenlabs/docvec/internal/pkg/errcode"
	apperr "github.com/keenlabs/docvec/internal/pkg/errors"
	"github.com/keenlabs/docvec/internal/pkg/response"
)

// Retriever is the slice of the search service the handler needs.
type Retriever interface {
	Retrieve(ctx context.Context, query string, topK int, threshold float64) ([]*model.ScoredChunk, error)
}

type StatsProvider interface {
	Snapshot(ctx context.Context) (*model.StoreStats, error)
}

type SearchHandler struct {
	search           Retriever
	stats            StatsProvider
	defaultTopK      int
	defaultThreshold float64
}

func NewSearchHandler(search Retriever, stats StatsProvider, defaultTopK int, defaultThreshold float64) *SearchHandler {
	return &SearchHandler{
		search:           search,
		stats:            stats,
		defaultTopK:      defaultTopK,
		defaultThreshold: defaultThreshold,
	}
}

type searchRequest struct {
	Query     string   `json:"query"`
	TopK      int      `json:"top_k"`
	Threshold *float64 `json:"threshold"`
}

type searchResponse struct {
	Query    string               `json:"query"`
	Language lang.Language        `json:"language"`
	Results  []*model.ScoredChunk `json:"results"`
}

func (h *SearchHandler) Search(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, errcode.ErrInvalid, "invalid request")
		return
	}
	if req.TopK == 0 {
		req.TopK = h.defaultTopK
	}
	threshold := h.defaultThreshold
	if req.Threshold != nil {
		threshold = *req.Threshold
	}
	results, err := h.search.Retrieve(c.Request.Context(), req.Query, req.TopK, threshold)
	if err != nil {
		handleError(c, err)
		return
	}
	if results == nil {
		results = []*model.ScoredChunk{}
	}
	response.Success(c, searchResponse{
		Query:    req.Query,
		Language: lang.Detect(req.Query),
		Results:  results,
	})
}

func (h *SearchHandler) Stats(c *gin.Context) {
	snapshot, err := h.stats.Snapshot(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, snapshot)
}

func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	logutil.GetLogger(c.Request.Context()).Warn("request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Error(err),
	)
	switch {
	case errors.Is(err, apperr.ErrInvalid):
		response.Error(c, http.StatusBadRequest, errcode.ErrInvalid, "invalid request")
	case errors.Is(err, apperr.ErrProvider):
		response.Error(c, http.StatusBadGateway, errcode.ErrProviderUnavailable, "embedding provider unavailable")
	case errors.Is(err, apperr.ErrStoreUnavailable):
		response.Error(c, http.StatusServiceUnavailable, errcode.ErrStoreUnavailable, "document store unavailable")
	default:
		response.Error(c, http.StatusInternalServerError, errcode.ErrInternal, "internal error")
	}
}
