package domain

// ============================================================
// Provisioning outcomes
// ============================================================

// Outcome classifies the result of a provisioning attempt.
// Negative outcomes are normal results, not errors.
type Outcome string

const (
	OutcomeCreated              Outcome = "created"
	OutcomeDelegated            Outcome = "delegated"
	OutcomeProfileNotConfigured Outcome = "profile_not_configured"
	OutcomeClientNotConfigured  Outcome = "client_not_configured"
	OutcomePaymentInactive      Outcome = "payment_inactive"
	OutcomeQuotaExceeded        Outcome = "quota_exceeded"
)

// Operator-facing replies. The dashboard matches on these strings.
const (
	ReplyStationCreated       = "Stazione creata con successo"
	ReplyProfileNotConfigured = "Profilo non configurato"
	ReplyClientNotConfigured  = "Cliente non configurato"
	ReplyPaymentInactive      = "Pagamento non attivo"
	ReplyQuotaExceeded        = "Limite stazioni raggiunto"
	ReplyProfileUpdated       = "Profilo aggiornato"
	ReplyAIProfileUpdated     = "AI Profilo aggiornato"
	ReplyClientCreated        = "Cliente creato"
)

// ProvisionResult is the structured result of Provisioner.Provision.
type ProvisionResult struct {
	Outcome   Outcome    `json:"outcome"`
	Reply     string     `json:"reply"`
	StationID ExternalID `json:"station_id,omitempty"`
	ShortName string     `json:"short_name,omitempty"`
	Existing  int        `json:"existing"`
	Limit     int        `json:"limit"`
}

// Succeeded reports whether a station was created or requested.
func (r *ProvisionResult) Succeeded() bool {
	return r.Outcome == OutcomeCreated || r.Outcome == OutcomeDelegated
}

// NewNegativeResult builds a refusal with its canned reply.
func NewNegativeResult(o Outcome) *ProvisionResult {
	return &ProvisionResult{Outcome: o, Reply: replyFor(o)}
}

func replyFor(o Outcome) string {
	switch o {
	case OutcomeCreated, OutcomeDelegated:
		return ReplyStationCreated
	case OutcomeProfileNotConfigured:
		return ReplyProfileNotConfigured
	case OutcomeClientNotConfigured:
		return ReplyClientNotConfigured
	case OutcomePaymentInactive:
		return ReplyPaymentInactive
	case OutcomeQuotaExceeded:
		return ReplyQuotaExceeded
	default:
		return string(o)
	}
}

// ClientResult is returned by the orchestrator client-registration step.
type ClientResult struct {
	Outcome  Outcome `json:"outcome,omitempty"`
	Reply    string  `json:"reply"`
	ClientID string  `json:"client_id,omitempty"`
}

// ============================================================
// Business profiling
// ============================================================

// ProfileSuggestion is the structured answer parsed out of the language model.
type ProfileSuggestion struct {
	BusinessType    string `json:"business_type"`
	RecommendedPlan int    `json:"recommended_plan"`
	Reason          string `json:"reason"`
	Upsell          string `json:"upsell"`
}

// GenerateRequest is the text-generation collaborator request.
type GenerateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

// GenerateResponse is the text-generation collaborator response.
type GenerateResponse struct {
	Response string `json:"response"`
}
