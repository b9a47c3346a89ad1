package service_test

import (
	"context"
	"sync"

	"github.com/boddenberg/tys-station-agent/internal/domain"
)

// --- Mocks ---

type mockStore struct {
	mu      sync.Mutex
	profile domain.CustomerProfile
	loadErr error
	saveErr error
	loads   int
	saves   int
}

func newMockStore(p domain.CustomerProfile) *mockStore {
	return &mockStore{profile: p}
}

func (m *mockStore) Load(_ context.Context) (*domain.CustomerProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loads++
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return m.profile.Clone(), nil
}

func (m *mockStore) Save(_ context.Context, p *domain.CustomerProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	m.profile = *p.Clone()
	return nil
}

func (m *mockStore) current() domain.CustomerProfile {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.profile.Clone()
}

type createCall struct {
	ShortName   string
	DisplayName string
}

type mockStationAPI struct {
	mu        sync.Mutex
	stations  []domain.Station
	listErr   error
	createErr error
	toggleErr error
	lists     int
	creates   []createCall
	toggles   map[int]bool
	nextID    int
}

func (m *mockStationAPI) ListStations(_ context.Context) ([]domain.Station, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lists++
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]domain.Station, len(m.stations))
	copy(out, m.stations)
	return out, nil
}

func (m *mockStationAPI) CreateStation(_ context.Context, shortName, displayName string) (*domain.Station, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creates = append(m.creates, createCall{ShortName: shortName, DisplayName: displayName})
	if m.createErr != nil {
		return nil, m.createErr
	}
	m.nextID++
	st := domain.Station{ID: m.nextID, ShortName: shortName, Name: displayName}
	m.stations = append(m.stations, st)
	return &st, nil
}

func (m *mockStationAPI) SetStationEnabled(_ context.Context, id int, enabled bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.toggleErr != nil {
		return m.toggleErr
	}
	if m.toggles == nil {
		m.toggles = make(map[int]bool)
	}
	m.toggles[id] = enabled
	return nil
}

func (m *mockStationAPI) calls() (lists, creates int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lists, len(m.creates)
}

type mockOrchestrator struct {
	clientID     string
	createErr    error
	stationResp  *domain.ClientStationResponse
	stationErr   error
	stations     []domain.Station
	clientCalls  []domain.CreateClientRequest
	stationCalls []string
	listCalls    int
}

func (m *mockOrchestrator) CreateClient(_ context.Context, name string, plan int) (string, error) {
	m.clientCalls = append(m.clientCalls, domain.CreateClientRequest{Name: name, Plan: plan})
	return m.clientID, m.createErr
}

func (m *mockOrchestrator) CreateStationForClient(_ context.Context, clientID string) (*domain.ClientStationResponse, error) {
	m.stationCalls = append(m.stationCalls, clientID)
	return m.stationResp, m.stationErr
}

func (m *mockOrchestrator) ListStations(_ context.Context) ([]domain.Station, error) {
	m.listCalls++
	return m.stations, nil
}

type mockLLM struct {
	response string
	err      error
	prompts  []string
}

func (m *mockLLM) Generate(_ context.Context, prompt string) (string, error) {
	m.prompts = append(m.prompts, prompt)
	return m.response, m.err
}

// --- Fixtures ---

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func configuredProfile(businessType string, plan int, status domain.PaymentStatus) domain.CustomerProfile {
	p := domain.DefaultProfile()
	p.SetBusiness(businessType, plan)
	p.Payment.Status = status
	return p
}
