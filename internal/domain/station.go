package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ExternalID is an identifier assigned by a backend, kept exactly as it was sent.
// Backends disagree on whether ids are numbers or strings.
type ExternalID json.RawMessage

// IntID wraps a numeric id.
func IntID(n int) ExternalID {
	return ExternalID(strconv.Itoa(n))
}

// IsZero reports whether the backend sent no usable id.
func (id ExternalID) IsZero() bool {
	v := bytes.TrimSpace(id)
	return len(v) == 0 || bytes.Equal(v, []byte("null")) || bytes.Equal(v, []byte(`""`))
}

// String returns a string id unquoted and any other literal as written.
func (id ExternalID) String() string {
	if id.IsZero() {
		return ""
	}
	var s string
	if err := json.Unmarshal(id, &s); err == nil {
		return s
	}
	return string(bytes.TrimSpace(id))
}

// MarshalJSON implements json.Marshaler.
func (id ExternalID) MarshalJSON() ([]byte, error) {
	if len(id) == 0 {
		return []byte("null"), nil
	}
	return id, nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (id *ExternalID) UnmarshalJSON(data []byte) error {
	*id = append((*id)[:0], data...)
	return nil
}

// ============================================================
// Stations (remote resources)
// ============================================================

// Station is a radio station as reported by a backend inventory listing.
type Station struct {
	ID          int    `json:"id"`
	ShortName   string `json:"short_name"`
	Name        string `json:"name"`
	IsEnabled   bool   `json:"is_enabled"`
	Description string `json:"description,omitempty"`
	ListenURL   string `json:"listen_url,omitempty"`
	ClientID    string `json:"client_id,omitempty"`

	// raw keeps the backend document so listings pass through unchanged.
	raw   json.RawMessage
	rawID ExternalID
}

type stationFields Station

// UnmarshalJSON decodes the known fields and remembers the original document.
// Ids of any JSON type are accepted; ID stays zero when the backend id is not
// an integer and RemoteID reports it instead.
func (s *Station) UnmarshalJSON(data []byte) error {
	var f struct {
		stationFields
		ID       ExternalID `json:"id"`
		ClientID ExternalID `json:"client_id"`
	}
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*s = Station(f.stationFields)
	if n, err := strconv.Atoi(f.ID.String()); err == nil {
		s.ID = n
	}
	s.ClientID = f.ClientID.String()
	s.rawID = f.ID
	s.raw = append(json.RawMessage(nil), data...)
	return nil
}

// RemoteID is the station id as the backend wrote it.
func (s Station) RemoteID() ExternalID {
	if !s.rawID.IsZero() {
		return s.rawID
	}
	return IntID(s.ID)
}

// Ref is RemoteID in printable form.
func (s Station) Ref() string {
	return s.RemoteID().String()
}

// MarshalJSON re-emits the backend document when there is one.
func (s Station) MarshalJSON() ([]byte, error) {
	if len(s.raw) > 0 {
		return s.raw, nil
	}
	return json.Marshal(stationFields(s))
}

// CreateStationRequest is the body sent to the station-hosting API.
type CreateStationRequest struct {
	Name        string `json:"name"`
	ShortName   string `json:"short_name"`
	Description string `json:"description"`
}

// StationDescription tags every station this agent creates.
const StationDescription = "Created by TYS CRM"

// StationPrefix is the short-name namespace of a business type.
func StationPrefix(businessType string) string {
	return "radio-" + businessType + "-"
}

// StationNames derives the short and display name of the n-th station.
func StationNames(businessType string, n int) (shortName, displayName string) {
	return fmt.Sprintf("%s%d", StationPrefix(businessType), n),
		fmt.Sprintf("Radio %s %d", businessType, n)
}

// CountWithPrefix counts stations whose short name falls in the namespace.
func CountWithPrefix(stations []Station, prefix string) int {
	n := 0
	for _, s := range stations {
		if strings.HasPrefix(s.ShortName, prefix) {
			n++
		}
	}
	return n
}

// ============================================================
// Orchestrator
// ============================================================

// CreateClientRequest registers a customer with the orchestrator.
type CreateClientRequest struct {
	Name string `json:"name"`
	Plan int    `json:"plan"`
}

// CreateClientResponse carries the orchestrator-assigned client id.
type CreateClientResponse struct {
	ClientID ExternalID `json:"client_id"`
}

// ClientStationResponse is what the orchestrator returns after a station request.
// The orchestrator owns quota and naming, so both fields pass through untouched.
type ClientStationResponse struct {
	Message   string     `json:"message"`
	StationID ExternalID `json:"station_id,omitempty"`
}
