package entities

import (
	"time"

	"github.com/google/uuid"
)

// AssetType is a distinct category of virtual currency (GOLD_COINS,
// DIAMONDS, LOYALTY_POINTS), identified by a stable string code.
// Immutable during a movement; read-only for the ledger core.
type AssetType struct {
	ID        uuid.UUID
	Code      string
	Name      string
	CreatedAt time.Time
}
