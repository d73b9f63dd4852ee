package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/poiesic/librarian/core"
	"github.com/poiesic/librarian/ingestion"
)

// handleQuery serves POST /query.
func (s *Server) handleQuery(c *gin.Context) {
	var req core.QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed request body: " + err.Error()})
		return
	}

	ctx := c.Request.Context()
	if s.cfg.QueryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.QueryTimeout)
		defer cancel()
	}

	result, err := s.service.Query(ctx, &req)
	if err != nil {
		status := statusForError(err)
		if status == http.StatusInternalServerError {
			s.logger.Error("query failed", "err", err)
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

type ingestRequest struct {
	Fragments []*ingestion.Fragment `json:"fragments" binding:"required"`
}

type ingestResponse struct {
	Ids   []core.ID `json:"ids"`
	Count int       `json:"count"`
}

// handleIngest serves POST /chunks.
func (s *Server) handleIngest(c *gin.Context) {
	var req ingestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed request body: " + err.Error()})
		return
	}

	ids, err := s.service.Ingest(c.Request.Context(), req.Fragments...)
	if err != nil {
		status := statusForError(err)
		if status == http.StatusInternalServerError {
			s.logger.Error("ingest failed", "err", err)
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, ingestResponse{Ids: ids, Count: len(ids)})
}

// handleHealth serves GET /healthz.
func (s *Server) handleHealth(c *gin.Context) {
	stats, err := s.service.Stats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"chunks":    stats.Chunks,
		"dimension": stats.Dimension,
	})
}
