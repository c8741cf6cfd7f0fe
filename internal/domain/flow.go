package domain

import (
	"time"

	"github.com/google/uuid"
)

// Endpoint is a named URL on the external finishing system, optionally scoped
// to one store.
type Endpoint struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	Name      string     `db:"name" json:"name"`
	URL       string     `db:"url" json:"url"`
	StoreID   *uuid.UUID `db:"store_id" json:"store_id,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
}

// Flow names the endpoints for each finishing phase. A line picks its flow
// explicitly or through its product default.
type Flow struct {
	ID                 uuid.UUID  `db:"id" json:"id"`
	Name               string     `db:"name" json:"name"`
	PreprintEndpointID *uuid.UUID `db:"preprint_endpoint_id" json:"preprint_endpoint_id,omitempty"`
	PrintEndpointID    *uuid.UUID `db:"print_endpoint_id" json:"print_endpoint_id,omitempty"`
	LabelEndpointID    *uuid.UUID `db:"label_endpoint_id" json:"label_endpoint_id,omitempty"`
	CreatedAt          time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at" json:"updated_at"`
}

// EndpointID returns the endpoint configured for a phase, or nil.
func (f Flow) EndpointID(phase Phase) *uuid.UUID {
	switch phase {
	case PhasePreprint:
		return f.PreprintEndpointID
	case PhasePrint:
		return f.PrintEndpointID
	case PhaseLabel:
		return f.LabelEndpointID
	default:
		return nil
	}
}
