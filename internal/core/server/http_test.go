package server

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sievelabs/opalfix/internal/core/api"
	"github.com/sievelabs/opalfix/internal/core/auth"
	"github.com/sievelabs/opalfix/internal/core/config"
	"github.com/sievelabs/opalfix/internal/opal"
)

func TestNewHTTPServer_NilChecks(t *testing.T) {
	_, err := NewHTTPServer(nil, nil)
	assert.Error(t, err)

	_, err = NewHTTPServer(config.DefaultServiceConfig(), nil)
	assert.Error(t, err)
}

func TestServerLifecycle(t *testing.T) {
	gin.SetMode(gin.TestMode)

	svc, err := api.NewService(opal.NewEngine(), auth.NewAuthenticator(""), nil, nil, nil)
	require.NoError(t, err)

	cfg := config.DefaultServiceConfig()
	cfg.Host = "127.0.0.1"
	cfg.Port = 0

	srv, err := NewHTTPServer(cfg, svc)
	require.NoError(t, err)

	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.Start(context.Background()) }()

	// Wait for the listener to come up.
	var resp *http.Response
	for i := 0; i < 50; i++ {
		if addr := srv.Addr(); addr != "" {
			resp, err = http.Get(fmt.Sprintf("http://%s/healthz", addr))
			if err == nil {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
	}
	require.NotNil(t, resp, "server never became reachable: %v", err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, srv.Shutdown(context.Background()))

	select {
	case err := <-serveErr:
		assert.NoError(t, err, "Start() should return nil after graceful shutdown")
	case <-time.After(5 * time.Second):
		t.Fatal("Start() did not return after Shutdown()")
	}
}
