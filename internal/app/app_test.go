package app_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/boddenberg/tys-station-agent/internal/app"
	"github.com/boddenberg/tys-station-agent/internal/config"
	"github.com/boddenberg/tys-station-agent/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func baseConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Setenv("STATION_API_KEY", "k")
	t.Setenv("PROFILE_PATH", filepath.Join(t.TempDir(), "memory.json"))
	cfg, err := config.Load()
	require.NoError(t, err)
	return cfg
}

func TestNew_DirectBackend(t *testing.T) {
	a, err := app.New(baseConfig(t), zap.NewNop())
	require.NoError(t, err)
	defer a.Close()

	assert.Equal(t, "direct", a.Provisioner.Backend())
	require.Len(t, a.HealthChecks, 2)
	assert.Equal(t, "stations", a.HealthChecks[0].Name)
	assert.Equal(t, "store", a.HealthChecks[1].Name)
}

func TestNew_OrchestratorBackend(t *testing.T) {
	cfg := baseConfig(t)
	cfg.Backend = config.BackendOrchestrator

	a, err := app.New(cfg, zap.NewNop())
	require.NoError(t, err)
	defer a.Close()

	assert.Equal(t, "orchestrator", a.Provisioner.Backend())
	assert.Equal(t, "orchestrator", a.HealthChecks[0].Name)
}

func TestNew_UnknownBackend(t *testing.T) {
	cfg := baseConfig(t)
	cfg.Backend = "carrier-pigeon"

	_, err := app.New(cfg, zap.NewNop())
	assert.Error(t, err)
}

func TestRouter_StatusCreatesDefaultProfile(t *testing.T) {
	a, err := app.New(baseConfig(t), zap.NewNop())
	require.NoError(t, err)
	defer a.Close()

	rec := httptest.NewRecorder()
	a.Router(zap.NewNop()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"business_type":null,"plan":null,"role":"admin","payment":{"status":"trial","billing_cycle":null,"next_due":null}}`, rec.Body.String())
	assert.FileExists(t, a.Store.Path())
}

func TestHealthz_DoesNotCreateProfile(t *testing.T) {
	stations := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer stations.Close()

	cfg := baseConfig(t)
	cfg.StationAPIURL = stations.URL
	a, err := app.New(cfg, zap.NewNop())
	require.NoError(t, err)
	defer a.Close()

	rec := httptest.NewRecorder()
	a.Router(zap.NewNop()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	var health domain.HealthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "healthy", health.Status)
	assert.NoFileExists(t, a.Store.Path())
}

func TestHealthz_FailingProbesLeaveLiveBreakerClosed(t *testing.T) {
	dead := httptest.NewServer(http.NotFoundHandler())
	deadURL := dead.URL
	dead.Close()

	cfg := baseConfig(t)
	cfg.StationAPIURL = deadURL
	a, err := app.New(cfg, zap.NewNop())
	require.NoError(t, err)
	defer a.Close()
	router := a.Router(zap.NewNop())

	for i := 0; i < 10; i++ {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stations", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "circuit breaker open")
}
