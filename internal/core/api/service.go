// Package api implements the orchestrator HTTP surface: query validation
// and execution, catalog metadata, and documentation search. Handlers are
// thin; the transform engine, execution client, and catalog store do the
// work.
package api

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/sievelabs/opalfix/internal/catalog"
	"github.com/sievelabs/opalfix/internal/core/auth"
	"github.com/sievelabs/opalfix/internal/docsearch"
	"github.com/sievelabs/opalfix/internal/execution"
	"github.com/sievelabs/opalfix/internal/opal"
)

// Service holds the handler dependencies. Engine and authenticator are
// required; executor, store, and docs index are optional and their
// endpoints answer 503 when absent.
type Service struct {
	engine        *opal.Engine
	authenticator *auth.Authenticator
	executor      execution.Executor
	store         *catalog.Store
	docs          *docsearch.Index
}

// NewService creates the API service.
func NewService(engine *opal.Engine, authenticator *auth.Authenticator,
	executor execution.Executor, store *catalog.Store, docs *docsearch.Index) (*Service, error) {
	if engine == nil {
		return nil, fmt.Errorf("api: engine is required")
	}
	if authenticator == nil {
		return nil, fmt.Errorf("api: authenticator is required")
	}
	return &Service{
		engine:        engine,
		authenticator: authenticator,
		executor:      executor,
		store:         store,
		docs:          docs,
	}, nil
}

// Router builds the gin engine with middleware and all routes. /healthz
// bypasses authentication.
func (s *Service) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestID(), RequestLogger())

	router.GET("/healthz", s.handleHealth)

	v1 := router.Group("/v1", s.authenticator.Middleware())
	v1.POST("/query/validate", s.handleValidate)
	v1.POST("/query/run", s.handleRun)
	v1.GET("/datasets", s.handleListDatasets)
	v1.GET("/metrics", s.handleListMetrics)
	v1.GET("/docs/search", s.handleDocsSearch)

	return router
}
