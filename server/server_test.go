package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/librarian/core"
	"github.com/poiesic/librarian/ingestion"
	"github.com/poiesic/librarian/retrieval"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubService struct {
	QueryFunc  func(ctx context.Context, req *core.QueryRequest) (*core.RetrievalResult, error)
	IngestFunc func(ctx context.Context, fragments ...*ingestion.Fragment) ([]core.ID, error)
	StatsFunc  func(ctx context.Context) (*core.LibraryStats, error)
}

func (s *stubService) Query(ctx context.Context, req *core.QueryRequest) (*core.RetrievalResult, error) {
	return s.QueryFunc(ctx, req)
}

func (s *stubService) Ingest(ctx context.Context, fragments ...*ingestion.Fragment) ([]core.ID, error) {
	return s.IngestFunc(ctx, fragments...)
}

func (s *stubService) Stats(ctx context.Context) (*core.LibraryStats, error) {
	if s.StatsFunc == nil {
		return &core.LibraryStats{Chunks: 1, Dimension: 3}, nil
	}
	return s.StatsFunc(ctx)
}

func newTestServer(t *testing.T, service Service) *Server {
	t.Helper()
	s, err := New(DefaultConfig(), service)
	require.NoError(t, err)
	return s
}

func postJSON(t *testing.T, s *Server, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestNewRequiresService(t *testing.T) {
	_, err := New(DefaultConfig(), nil)
	assert.ErrorIs(t, err, ErrServiceRequired)
}

func TestHandleQuery(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		service := &stubService{
			QueryFunc: func(ctx context.Context, req *core.QueryRequest) (*core.RetrievalResult, error) {
				assert.Equal(t, "bridges", req.Text)
				assert.Equal(t, core.ModeLateral, req.Mode)
				return &core.RetrievalResult{
					Mode: core.ModeLateral,
					Chunks: []*core.ScoredChunk{
						{Chunk: &core.DocumentChunk{Id: "doc-a", Text: "a"}, Relevance: 0.9},
					},
					Confidence: 0.9,
				}, nil
			},
		}
		s := newTestServer(t, service)

		w := postJSON(t, s, "/query", map[string]any{
			"text": "bridges", "mode": "lateral", "top_k": 1,
		})
		require.Equal(t, http.StatusOK, w.Code)

		var result core.RetrievalResult
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
		assert.Equal(t, core.ModeLateral, result.Mode)
		require.Len(t, result.Chunks, 1)
		assert.False(t, result.Degraded)
	})

	t.Run("malformed body", func(t *testing.T) {
		s := newTestServer(t, &stubService{})
		req := httptest.NewRequest(http.MethodPost, "/query", bytes.NewReader([]byte("{not json")))
		w := httptest.NewRecorder()
		s.Handler().ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("error mapping", func(t *testing.T) {
		cases := []struct {
			err    error
			status int
		}{
			{fmt.Errorf("%w: empty text", retrieval.ErrInvalidRequest), http.StatusBadRequest},
			{fmt.Errorf("%w: got 2 of 5", retrieval.ErrInsufficientResults), http.StatusUnprocessableEntity},
			{fmt.Errorf("%w: deadline", retrieval.ErrTimeout), http.StatusGatewayTimeout},
			{fmt.Errorf("%w: down", retrieval.ErrEmbeddingUnavailable), http.StatusServiceUnavailable},
			{fmt.Errorf("%w: down", retrieval.ErrStoreUnavailable), http.StatusServiceUnavailable},
			{errors.New("boom"), http.StatusInternalServerError},
		}
		for _, tc := range cases {
			service := &stubService{
				QueryFunc: func(ctx context.Context, req *core.QueryRequest) (*core.RetrievalResult, error) {
					return nil, tc.err
				},
			}
			s := newTestServer(t, service)
			w := postJSON(t, s, "/query", map[string]any{"text": "q", "mode": "foundation"})
			assert.Equal(t, tc.status, w.Code, tc.err.Error())
		}
	})

	t.Run("query context carries deadline", func(t *testing.T) {
		service := &stubService{
			QueryFunc: func(ctx context.Context, req *core.QueryRequest) (*core.RetrievalResult, error) {
				_, ok := ctx.Deadline()
				assert.True(t, ok)
				return &core.RetrievalResult{Mode: req.Mode}, nil
			},
		}
		s := newTestServer(t, service)
		w := postJSON(t, s, "/query", map[string]any{"text": "q", "mode": "foundation"})
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestHandleIngest(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		service := &stubService{
			IngestFunc: func(ctx context.Context, fragments ...*ingestion.Fragment) ([]core.ID, error) {
				require.Len(t, fragments, 2)
				return []core.ID{"id-1", "id-2"}, nil
			},
		}
		s := newTestServer(t, service)

		w := postJSON(t, s, "/chunks", map[string]any{
			"fragments": []map[string]any{
				{"text": "first"},
				{"text": "second", "metadata": map[string]string{"title": "Second"}},
			},
		})
		require.Equal(t, http.StatusCreated, w.Code)

		var resp ingestResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, 2, resp.Count)
		assert.Equal(t, []core.ID{"id-1", "id-2"}, resp.Ids)
	})

	t.Run("missing fragments field", func(t *testing.T) {
		s := newTestServer(t, &stubService{})
		w := postJSON(t, s, "/chunks", map[string]any{})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("invalid fragment", func(t *testing.T) {
		service := &stubService{
			IngestFunc: func(ctx context.Context, fragments ...*ingestion.Fragment) ([]core.ID, error) {
				return nil, fmt.Errorf("%w: fragment 0 has no text", ingestion.ErrInvalidFragment)
			},
		}
		s := newTestServer(t, service)
		w := postJSON(t, s, "/chunks", map[string]any{
			"fragments": []map[string]any{{"text": ""}},
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("provider outage", func(t *testing.T) {
		service := &stubService{
			IngestFunc: func(ctx context.Context, fragments ...*ingestion.Fragment) ([]core.ID, error) {
				return nil, fmt.Errorf("%w: provider down", ingestion.ErrEmbeddingFailed)
			},
		}
		s := newTestServer(t, service)
		w := postJSON(t, s, "/chunks", map[string]any{
			"fragments": []map[string]any{{"text": "x"}},
		})
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}

func TestHandleHealth(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		s := newTestServer(t, &stubService{})
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		w := httptest.NewRecorder()
		s.Handler().ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)

		var body map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "ok", body["status"])
	})

	t.Run("store down", func(t *testing.T) {
		service := &stubService{
			StatsFunc: func(ctx context.Context) (*core.LibraryStats, error) {
				return nil, errors.New("store closed")
			},
		}
		s := newTestServer(t, service)
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		w := httptest.NewRecorder()
		s.Handler().ServeHTTP(w, req)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}
