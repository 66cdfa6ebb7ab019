package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sievelabs/opalfix/internal/log"
	"github.com/sievelabs/opalfix/internal/opal"
	"github.com/sievelabs/opalfix/internal/types"
)

// queryRequest is the body of both query endpoints.
type queryRequest struct {
	Query      string            `json:"query"`
	TimeWindow *types.TimeWindow `json:"time_window,omitempty"`
	DatasetIDs []string          `json:"dataset_ids,omitempty"`
}

func (r queryRequest) context() types.QueryContext {
	return types.QueryContext{TimeWindow: r.TimeWindow, DatasetIDs: r.DatasetIDs}
}

// runResponse is the success body of POST /v1/query/run.
type runResponse struct {
	Data         []types.Row        `json:"data"`
	Feedback     string             `json:"feedback,omitempty"`
	AppliedFixes []types.AppliedFix `json:"applied_fixes,omitempty"`
}

func (s *Service) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleValidate runs the transform engine without executing anything.
func (s *Service) handleValidate(c *gin.Context) {
	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": types.ErrEmptyQuery.Error()})
		return
	}

	c.JSON(http.StatusOK, s.engine.Apply(req.Query, req.context()))
}

// handleRun validates strictly before executing. A blocked query answers
// 422 and never reaches the platform.
func (s *Service) handleRun(c *gin.Context) {
	if s.executor == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no execution platform configured"})
		return
	}

	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": types.ErrEmptyQuery.Error()})
		return
	}

	result := s.engine.Apply(req.Query, req.context())
	if result.Blocked != "" {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":  result.Blocked,
			"result": result,
		})
		return
	}

	rows, err := s.executor.Execute(c.Request.Context(), result.TransformedQuery, req.context())
	if err != nil {
		status := http.StatusBadGateway
		body := gin.H{"error": err.Error()}

		var structured *types.StructuredError
		if errors.As(err, &structured) && structured.OffendingFragment != "" {
			body["offending_fragment"] = structured.OffendingFragment
		}
		log.Warn("query execution failed",
			zap.String("request_id", c.GetString(requestIDKey)),
			zap.Error(err))
		c.JSON(status, body)
		return
	}

	c.JSON(http.StatusOK, runResponse{
		Data:         rows,
		Feedback:     opal.FormatFeedback(result.Applied),
		AppliedFixes: result.Applied,
	})
}

// handleListDatasets serves catalog metadata, optionally filtered by
// dataset id or assigned category.
func (s *Service) handleListDatasets(c *gin.Context) {
	if s.store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no catalog store configured"})
		return
	}

	if id := c.Query("id"); id != "" {
		ds, err := s.store.GetDataset(c.Request.Context(), types.DatasetID(id))
		if errors.Is(err, types.ErrDatasetNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"datasets": []types.Dataset{ds}})
		return
	}

	var (
		datasets []types.Dataset
		err      error
	)
	if category := c.Query("category"); category != "" {
		datasets, err = s.store.ListDatasetsByCategory(c.Request.Context(), category)
	} else {
		datasets, err = s.store.ListDatasets(c.Request.Context())
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"datasets": datasets})
}

// handleListMetrics serves metric metadata, optionally scoped to one
// dataset.
func (s *Service) handleListMetrics(c *gin.Context) {
	if s.store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no catalog store configured"})
		return
	}

	var (
		metrics []types.Metric
		err     error
	)
	if id := c.Query("dataset_id"); id != "" {
		metrics, err = s.store.ListMetricsForDataset(c.Request.Context(), types.DatasetID(id))
	} else {
		metrics, err = s.store.ListMetrics(c.Request.Context())
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"metrics": metrics})
}

// handleDocsSearch serves GET /v1/docs/search?q=&limit=.
func (s *Service) handleDocsSearch(c *gin.Context) {
	if s.docs == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no documentation index configured"})
		return
	}

	q := c.Query("q")
	if strings.TrimSpace(q) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter 'q' is required"})
		return
	}

	limit := 10
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 100 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be an integer between 1 and 100"})
			return
		}
		limit = parsed
	}

	results, err := s.docs.Search(q, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"query": q, "results": results})
}
