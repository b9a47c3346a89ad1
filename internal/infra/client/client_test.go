package client_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/boddenberg/tys-station-agent/internal/domain"
	"github.com/boddenberg/tys-station-agent/internal/infra/client"
	"github.com/boddenberg/tys-station-agent/internal/infra/resilience"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

func newStationClient(t *testing.T, h http.HandlerFunc) *client.StationClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return client.NewStationClient(srv.Client(), srv.URL+"/api", "secret",
		resilience.NewCircuitBreaker("stations-test", zap.NewNop()), zap.NewNop())
}

func TestStationClient_ListStations(t *testing.T) {
	c := newStationClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/api/admin/stations" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("expected bearer key, got %q", got)
		}
		if got := r.Header.Get("Accept"); got != "application/json" {
			t.Errorf("expected Accept application/json, got %q", got)
		}
		if r.Header.Get("X-Request-Id") == "" {
			t.Error("expected a request id header")
		}
		w.Write([]byte(`[{"id":1,"short_name":"radio-bar-1","name":"Radio bar 1","is_enabled":true,"frontend":"icecast"}]`))
	})

	stations, err := c.ListStations(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(stations) != 1 || stations[0].ShortName != "radio-bar-1" {
		t.Fatalf("unexpected stations: %+v", stations)
	}

	// Unknown fields survive a round trip so the listing can be relayed as-is.
	out, err := json.Marshal(stations)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(out), `"frontend":"icecast"`) {
		t.Errorf("expected verbatim pass-through, got %s", out)
	}
}

func TestStationClient_CreateStation(t *testing.T) {
	var body domain.CreateStationRequest
	c := newStationClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/admin/stations" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Write([]byte(`{"id":7,"short_name":"radio-bar-2","name":"Radio bar 2"}`))
	})

	st, err := c.CreateStation(context.Background(), "radio-bar-2", "Radio bar 2")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if st.ID != 7 {
		t.Errorf("expected id 7, got %d", st.ID)
	}
	if body.ShortName != "radio-bar-2" || body.Name != "Radio bar 2" || body.Description != "Created by TYS CRM" {
		t.Errorf("unexpected request body: %+v", body)
	}
}

func TestStationClient_RemoteRejectionKeepsBody(t *testing.T) {
	c := newStationClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"message":"short name taken"}`))
	})

	_, err := c.CreateStation(context.Background(), "radio-bar-1", "Radio bar 1")
	var remote *domain.ErrRemote
	if !errors.As(err, &remote) {
		t.Fatalf("expected ErrRemote, got %T %v", err, err)
	}
	if remote.Status != http.StatusConflict {
		t.Errorf("expected status 409, got %d", remote.Status)
	}
	if remote.Error() != `{"message":"short name taken"}` {
		t.Errorf("expected raw body as message, got %q", remote.Error())
	}
}

func TestStationClient_UndecodableBody(t *testing.T) {
	c := newStationClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>oops</html>`))
	})

	_, err := c.ListStations(context.Background())
	var remote *domain.ErrRemote
	if !errors.As(err, &remote) {
		t.Fatalf("expected ErrRemote, got %T %v", err, err)
	}
}

func TestStationClient_SetStationEnabled(t *testing.T) {
	c := newStationClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/api/admin/stations/3" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		raw, _ := io.ReadAll(r.Body)
		if string(raw) != `{"is_enabled":false}` {
			t.Errorf("unexpected body %s", raw)
		}
		w.WriteHeader(http.StatusOK)
	})

	if err := c.SetStationEnabled(context.Background(), 3, false); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestStationClient_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := client.NewStationClient(http.DefaultClient, url, "k",
		resilience.NewCircuitBreaker("stations-down", zap.NewNop()), zap.NewNop())

	_, err := c.ListStations(context.Background())
	var transport *domain.ErrTransport
	if !errors.As(err, &transport) {
		t.Fatalf("expected ErrTransport, got %T %v", err, err)
	}
	if transport.Service != "stations" {
		t.Errorf("expected service 'stations', got %q", transport.Service)
	}
}

func TestStationClient_TimeoutIsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := client.NewStationClient(&http.Client{Timeout: 50 * time.Millisecond}, srv.URL, "k",
		resilience.NewCircuitBreaker("stations-slow", zap.NewNop()), zap.NewNop())

	start := time.Now()
	_, err := c.ListStations(context.Background())
	var transport *domain.ErrTransport
	if !errors.As(err, &transport) {
		t.Fatalf("expected ErrTransport, got %T %v", err, err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("expected the call to give up after the client timeout, took %s", elapsed)
	}
}

func TestStationClient_ForwardsRequestID(t *testing.T) {
	var got string
	c := newStationClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("X-Request-Id")
		w.Write([]byte(`[]`))
	})

	ctx := context.WithValue(context.Background(), middleware.RequestIDKey, "req-42")
	if _, err := c.ListStations(ctx); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got != "req-42" {
		t.Errorf("expected forwarded request id 'req-42', got %q", got)
	}
}

func TestOrchestratorClient_Flow(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/clients", func(w http.ResponseWriter, r *http.Request) {
		var req domain.CreateClientRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Name != "bar" || req.Plan != 69 {
			t.Errorf("unexpected create-client body %+v", req)
		}
		w.Write([]byte(`{"client_id":"c-1"}`))
	})
	mux.HandleFunc("/clients/c-1/stations", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		w.Write([]byte(`{"message":"Station created","station_id":11}`))
	})
	mux.HandleFunc("/stations", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id":11,"short_name":"c-1-1","client_id":"c-1"}]`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := client.NewOrchestratorClient(srv.Client(), srv.URL,
		resilience.NewCircuitBreaker("orch-test", zap.NewNop()), zap.NewNop())

	id, err := c.CreateClient(context.Background(), "bar", 69)
	if err != nil || id != "c-1" {
		t.Fatalf("expected client c-1, got %q (%v)", id, err)
	}

	resp, err := c.CreateStationForClient(context.Background(), id)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if resp.Message != "Station created" || resp.StationID.String() != "11" {
		t.Errorf("unexpected response %+v", resp)
	}

	stations, err := c.ListStations(context.Background())
	if err != nil || len(stations) != 1 {
		t.Fatalf("expected one station, got %v (%v)", stations, err)
	}
}

func TestOrchestratorClient_IDsOfAnyType(t *testing.T) {
	tests := []struct {
		name        string
		clientBody  string
		stationBody string
		wantClient  string
		wantStation string
		wantJSON    string
	}{
		{"numeric", `{"client_id":7}`, `{"message":"ok","station_id":11}`, "7", "11", `"station_id":11`},
		{"string", `{"client_id":"c-7"}`, `{"message":"ok","station_id":"st-9"}`, "c-7", "st-9", `"station_id":"st-9"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path == "/clients" {
					w.Write([]byte(tt.clientBody))
					return
				}
				w.Write([]byte(tt.stationBody))
			}))
			defer srv.Close()

			c := client.NewOrchestratorClient(srv.Client(), srv.URL,
				resilience.NewCircuitBreaker("orch-ids", zap.NewNop()), zap.NewNop())

			id, err := c.CreateClient(context.Background(), "bar", 69)
			if err != nil || id != tt.wantClient {
				t.Fatalf("expected client %q, got %q (%v)", tt.wantClient, id, err)
			}
			resp, err := c.CreateStationForClient(context.Background(), id)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if resp.StationID.String() != tt.wantStation {
				t.Errorf("expected station %q, got %q", tt.wantStation, resp.StationID.String())
			}

			out, err := json.Marshal(resp)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			if !strings.Contains(string(out), tt.wantJSON) {
				t.Errorf("expected %s in %s", tt.wantJSON, out)
			}
		})
	}
}

func TestOrchestratorClient_ListingWithStringIDs(t *testing.T) {
	const listing = `[{"id":"st-9","short_name":"c-7-1","client_id":7},{"id":12,"short_name":"c-7-2"}]`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(listing))
	}))
	defer srv.Close()

	c := client.NewOrchestratorClient(srv.Client(), srv.URL,
		resilience.NewCircuitBreaker("orch-list", zap.NewNop()), zap.NewNop())

	stations, err := c.ListStations(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(stations) != 2 {
		t.Fatalf("expected two stations, got %d", len(stations))
	}
	if stations[0].ID != 0 || stations[0].Ref() != "st-9" || stations[0].ClientID != "7" {
		t.Errorf("unexpected first station: id=%d ref=%q client=%q", stations[0].ID, stations[0].Ref(), stations[0].ClientID)
	}
	if stations[1].ID != 12 || stations[1].Ref() != "12" {
		t.Errorf("unexpected second station: id=%d ref=%q", stations[1].ID, stations[1].Ref())
	}

	out, err := json.Marshal(stations)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != listing {
		t.Errorf("expected listing relayed verbatim, got %s", out)
	}
}

func TestOrchestratorClient_MissingClientID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := client.NewOrchestratorClient(srv.Client(), srv.URL,
		resilience.NewCircuitBreaker("orch-empty", zap.NewNop()), zap.NewNop())

	if _, err := c.CreateClient(context.Background(), "bar", 29); err == nil {
		t.Fatal("expected error for missing client_id")
	}
}

func TestLLMClient_Generate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req domain.GenerateRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Model != "llama3" || req.Stream || req.Prompt != "ciao" {
			t.Errorf("unexpected request %+v", req)
		}
		w.Write([]byte(`{"response":"{\"business_type\":\"cafe\"}","done":true}`))
	}))
	defer srv.Close()

	c, err := client.NewLLMClient(srv.Client(), srv.URL+"/api/generate", "llama3",
		resilience.NewCircuitBreaker("llm-test", zap.NewNop()), zap.NewNop())
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	text, err := c.Generate(context.Background(), "ciao")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if text != `{"business_type":"cafe"}` {
		t.Errorf("unexpected completion %q", text)
	}
}

func TestLLMClient_TimeoutIsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
		w.Write([]byte(`{"response":"late"}`))
	}))
	defer srv.Close()

	c, err := client.NewLLMClient(&http.Client{Timeout: 50 * time.Millisecond}, srv.URL+"/api/generate", "llama3",
		resilience.NewCircuitBreaker("llm-slow", zap.NewNop()), zap.NewNop())
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	_, err = c.Generate(context.Background(), "ciao")
	var transport *domain.ErrTransport
	if !errors.As(err, &transport) {
		t.Fatalf("expected ErrTransport, got %T %v", err, err)
	}
	if transport.Service != "llm" {
		t.Errorf("expected service 'llm', got %q", transport.Service)
	}
}
