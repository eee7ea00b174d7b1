package controllers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/angelmondragon/workshop-backend/pkg/config"
)

func TestHealthReady(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "dev"}}
	tests := []struct {
		name   string
		db     Pinger
		redis  Pinger
		status int
	}{
		{"db and redis up", stubPinger{}, stubPinger{}, http.StatusOK},
		{"redis disabled", stubPinger{}, nil, http.StatusOK},
		{"db down", stubPinger{err: errors.New("dial tcp")}, nil, http.StatusServiceUnavailable},
		{"redis down", stubPinger{}, stubPinger{err: errors.New("timeout")}, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			HealthReady(cfg, nil, tt.db, tt.redis).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, "dev", rec.Header().Get("X-Workshop-Env"))
		})
	}
}
