package domain

import (
	"time"

	"github.com/google/uuid"
)

type AssetRole string

const (
	AssetRolePrint      AssetRole = "print"
	AssetRoleScreenshot AssetRole = "screenshot"
	AssetRoleOutput     AssetRole = "output"
	AssetRoleLabel      AssetRole = "label"
)

// Asset is one file attached to an order item. SourceURL is immutable and
// comes verbatim from the feed; ObjectKey is set once the file has been
// retrieved into the asset bucket and stays nil until then.
type Asset struct {
	ID        uuid.UUID `db:"id" json:"id"`
	ItemID    int64     `db:"item_id" json:"item_id"`
	Role      AssetRole `db:"role" json:"role"`
	SourceURL string    `db:"source_url" json:"source_url"`
	ObjectKey *string   `db:"object_key" json:"object_key,omitempty"`
	SizeBytes *int64    `db:"size_bytes" json:"size_bytes,omitempty"`
	Position  int       `db:"position" json:"position"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Retrieved reports whether the asset is locally available.
func (a Asset) Retrieved() bool {
	return a.ObjectKey != nil && *a.ObjectKey != ""
}
