package domain

import (
	"time"

	"github.com/google/uuid"
)

// ImportError records one feed file the poller rejected. Append-only;
// operators browse these by filename, the core never reads them back.
type ImportError struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Filename  string    `db:"filename" json:"filename"`
	Reason    string    `db:"reason" json:"reason"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
