package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stationServer struct {
	mu       sync.Mutex
	stations []map[string]any
	toggled  map[string]bool
}

func newStationServer(t *testing.T) (*stationServer, string) {
	t.Helper()
	s := &stationServer{toggled: map[string]bool{}}
	mux := http.NewServeMux()
	mux.HandleFunc("/admin/stations", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		if r.Method == http.MethodPost {
			var body map[string]any
			_ = json.NewDecoder(r.Body).Decode(&body)
			st := map[string]any{"id": len(s.stations) + 1, "short_name": body["short_name"], "name": body["name"], "is_enabled": true}
			s.stations = append(s.stations, st)
			_ = json.NewEncoder(w).Encode(st)
			return
		}
		_ = json.NewEncoder(w).Encode(s.stations)
	})
	mux.HandleFunc("/admin/stations/", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		var body map[string]bool
		_ = json.NewDecoder(r.Body).Decode(&body)
		s.toggled[r.URL.Path] = body["is_enabled"]
		_, _ = w.Write([]byte(`{}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return s, srv.URL
}

func setupEnv(t *testing.T, stationURL string) string {
	t.Helper()
	dir := t.TempDir()
	profilePath := filepath.Join(dir, "memory.json")
	t.Setenv("STATION_BACKEND", "direct")
	t.Setenv("STATION_API_URL", stationURL)
	t.Setenv("STATION_API_KEY", "cli-key")
	t.Setenv("PROFILE_PATH", profilePath)
	t.Setenv("LOG_LEVEL", "error")
	return dir
}

func executeCLI(t *testing.T, dir string, args ...string) (string, string, error) {
	t.Helper()

	root := newRootCmd()
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetArgs(append([]string{"--env-file", filepath.Join(dir, "missing.env")}, args...))

	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func TestStatusPrintsDefaultProfile(t *testing.T) {
	_, url := newStationServer(t)
	dir := setupEnv(t, url)

	stdout, _, err := executeCLI(t, dir, "status")
	require.NoError(t, err)
	assert.True(t, json.Valid([]byte(stdout)))
	assert.Contains(t, stdout, `"role": "admin"`)
	assert.Contains(t, stdout, `"status": "trial"`)
}

func TestSetProfileRequiresFlags(t *testing.T) {
	_, url := newStationServer(t)
	dir := setupEnv(t, url)

	_, _, err := executeCLI(t, dir, "set-profile", "--business-type", "bar")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `required flag(s) "plan" not set`)
}

func TestCreateStationFlow(t *testing.T) {
	srv, url := newStationServer(t)
	dir := setupEnv(t, url)

	stdout, _, err := executeCLI(t, dir, "create-station")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Profilo non configurato")

	_, _, err = executeCLI(t, dir, "set-profile", "--business-type", "bar", "--plan", "29")
	require.NoError(t, err)

	stdout, _, err = executeCLI(t, dir, "create-station")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Stazione creata con successo (station_id: 1, short_name: radio-bar-1)")

	stdout, _, err = executeCLI(t, dir, "create-station")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Limite stazioni raggiunto (1/1)")
	assert.Len(t, srv.stations, 1)

	stdout, _, err = executeCLI(t, dir, "stations")
	require.NoError(t, err)
	assert.Contains(t, stdout, "SHORT NAME")
	assert.Contains(t, stdout, "radio-bar-1")
}

func TestToggleStation(t *testing.T) {
	srv, url := newStationServer(t)
	dir := setupEnv(t, url)

	stdout, _, err := executeCLI(t, dir, "disable", "7")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Station 7 disabled")
	assert.Equal(t, map[string]bool{"/admin/stations/7": false}, srv.toggled)

	_, _, err = executeCLI(t, dir, "enable", "abc")
	require.Error(t, err)
}

func TestCreateClientUnsupportedOnDirect(t *testing.T) {
	_, url := newStationServer(t)
	dir := setupEnv(t, url)

	_, _, err := executeCLI(t, dir, "create-client")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not supported by the direct backend")
}

func TestInvalidConfigFails(t *testing.T) {
	_, url := newStationServer(t)
	dir := setupEnv(t, url)
	t.Setenv("STATION_BACKEND", "satellite")

	_, _, err := executeCLI(t, dir, "status")
	require.Error(t, err)
}
