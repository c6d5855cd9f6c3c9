// Package dtos carries data across the application boundary. Commands and
// queries flow in from the HTTP adapter; DTOs flow out. Entities never cross
// the boundary directly.
package dtos

import "time"

// MovementCommand is the input for top-up, bonus and purchase operations.
// Amount is a decimal string; the use case parses and validates it.
type MovementCommand struct {
	UserID         string
	AssetTypeCode  string
	Amount         string
	ReferenceID    string
	Metadata       map[string]any
	IdempotencyKey string
}

// GetTransactionQuery fetches one transaction by id.
type GetTransactionQuery struct {
	ID string
}

// GetTransactionByIdempotencyKeyQuery fetches one transaction by key.
type GetTransactionByIdempotencyKeyQuery struct {
	IdempotencyKey string
}

// ListTransactionsQuery lists transactions with optional filters.
type ListTransactionsQuery struct {
	UserID string // optional
	Type   string // optional: TOP_UP | BONUS | PURCHASE
	Offset int
	Limit  int
}

// LedgerEntryDTO is one side of the double entry.
type LedgerEntryDTO struct {
	ID            string    `json:"id"`
	TransactionID string    `json:"transaction_id"`
	WalletID      string    `json:"wallet_id"`
	EntryType     string    `json:"entry_type"`
	Amount        string    `json:"amount"`
	BalanceAfter  string    `json:"balance_after"`
	CreatedAt     time.Time `json:"created_at"`
}

// TransactionDTO is the materialized movement returned to callers.
type TransactionDTO struct {
	ID                  string           `json:"id"`
	IdempotencyKey      string           `json:"idempotency_key"`
	Type                string           `json:"type"`
	Status              string           `json:"status"`
	SourceWalletID      string           `json:"source_wallet_id"`
	DestinationWalletID string           `json:"destination_wallet_id"`
	Amount              string           `json:"amount"`
	ReferenceID         string           `json:"reference_id,omitempty"`
	Metadata            map[string]any   `json:"metadata,omitempty"`
	ErrorMessage        string           `json:"error_message,omitempty"`
	CreatedAt           time.Time        `json:"created_at"`
	UpdatedAt           time.Time        `json:"updated_at"`
	CompletedAt         *time.Time       `json:"completed_at,omitempty"`
	Entries             []LedgerEntryDTO `json:"entries,omitempty"`

	// Replayed marks a response served from a previously completed
	// transaction with the same idempotency key. Surfaced as a response
	// header, not in the body.
	Replayed bool `json:"-"`
}

// TransactionListDTO is a paginated listing.
type TransactionListDTO struct {
	Items  []TransactionDTO `json:"items"`
	Offset int              `json:"offset"`
	Limit  int              `json:"limit"`
}
