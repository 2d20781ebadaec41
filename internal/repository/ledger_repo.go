package repository

import "context"

// AdoptionLedgerRepository keeps the per-user record of completed adoptions.
// Append is idempotent: appending a listing already on the user's ledger is
// a no-op, which lets the approval path retry safely.
type AdoptionLedgerRepository interface {
	Append(ctx context.Context, userID, listingID string) error
	List(ctx context.Context, userID string) ([]string, error)
	Contains(ctx context.Context, userID, listingID string) (bool, error)
}
