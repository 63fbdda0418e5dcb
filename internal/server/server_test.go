// AngelaMos | 2026
// server_test.go

package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/carterperez-dev/lifelessons-api/internal/config"
)

type lifecycle struct {
	ready, shutdown bool
}

func (l *lifecycle) SetReady(v bool)    { l.ready = v }
func (l *lifecycle) SetShutdown(v bool) { l.shutdown = v }

func TestRouterRendersJSONErrors(t *testing.T) {
	srv := New(Config{ServerConfig: config.ServerConfig{Host: "127.0.0.1", Port: 0}})
	srv.Router().Get("/lessons", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	srv.Router().Get("/panic", func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})

	tests := []struct {
		method string
		path   string
		status int
	}{
		{http.MethodGet, "/nowhere", http.StatusNotFound},
		{http.MethodDelete, "/lessons", http.StatusMethodNotAllowed},
		{http.MethodGet, "/panic", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		rec := httptest.NewRecorder()
		srv.Router().ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
		assert.Equal(t, tt.status, rec.Code, tt.path)
	}
}

func TestShutdownFlipsLifecycle(t *testing.T) {
	lc := &lifecycle{ready: true}
	srv := New(Config{
		ServerConfig:  config.ServerConfig{Host: "127.0.0.1", ShutdownTimeout: time.Second},
		HealthHandler: lc,
	})

	assert.NoError(t, srv.Shutdown(context.Background(), 0))
	assert.True(t, lc.shutdown)
	assert.False(t, lc.ready)
}
