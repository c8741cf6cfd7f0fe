package domain

import (
	"time"

	"github.com/google/uuid"
)

// Store is an upstream shop whose orders land on the feed. Code is the key
// feed files use to reference it (store_id / site_name).
type Store struct {
	ID              uuid.UUID `db:"id" json:"id"`
	Code            string    `db:"code" json:"code"`
	Name            string    `db:"name" json:"name"`
	Active          bool      `db:"active" json:"active"`
	WidegestBaseURL *string   `db:"widegest_base_url" json:"widegest_base_url,omitempty"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// Product maps a feed SKU to a printable product and its dispatch defaults.
type Product struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	SKU           string     `db:"sku" json:"sku"`
	Name          string     `db:"name" json:"name"`
	DefaultFlowID *uuid.UUID `db:"default_flow_id" json:"default_flow_id,omitempty"`
	Material      *string    `db:"material" json:"material,omitempty"`
	PrintOptions  JSONMap    `db:"print_options" json:"print_options,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

// Machine is a physical output device selectable for the print phase.
type Machine struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
