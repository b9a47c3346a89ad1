package domain

// ============================================================
// Health & Metrics API Responses
// ============================================================

// HealthStatus is returned by GET /healthz.
type HealthStatus struct {
	Status   string          `json:"status"` // healthy, degraded
	Backend  string          `json:"backend"`
	Services []ServiceHealth `json:"services"`
}

// ServiceHealth represents the health of an individual collaborator.
type ServiceHealth struct {
	Name        string `json:"name"`
	Status      string `json:"status"`
	LatencyMs   int64  `json:"latencyMs"`
	Error       string `json:"error,omitempty"`
	LastChecked string `json:"lastChecked"`
}

// ProvisioningMetrics is returned by GET /v1/metrics/provisioning.
type ProvisioningMetrics struct {
	Attempts        int64            `json:"attempts"`
	Outcomes        map[string]int64 `json:"outcomes"`
	ExternalErrors  map[string]int64 `json:"externalErrors"`
	ProfilingCalls  int64            `json:"profilingCalls"`
	ProfileCacheHit float64          `json:"profileCacheHitRate"`
}
