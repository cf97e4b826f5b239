package repository

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/openhrm/victimdb/internal/model"
)

// VictimRepository provides CRUD and filtered listing for victim/witness records.
// Records are stored with sensitive contact fields already encrypted; the
// repository never touches plaintext.
type VictimRepository interface {
	// Create inserts a new record.
	Create(ctx context.Context, rec *model.VictimRecord) error
	// Get returns a single record by ID.
	Get(ctx context.Context, id uuid.UUID) (*model.VictimRecord, error)
	// List returns records matching the filter, newest first, with skip/limit paging.
	List(ctx context.Context, f model.VictimFilter) ([]model.VictimRecord, error)
	// ListByCase returns all records linked to the given case.
	ListByCase(ctx context.Context, caseID uuid.UUID) ([]model.VictimRecord, error)
	// Update replaces the stored record with rec (the service applies partial
	// updates before calling).
	Update(ctx context.Context, rec *model.VictimRecord) error
	// Delete removes a record.
	Delete(ctx context.Context, id uuid.UUID) error
}

// RiskAuditRepository is the append-only ledger of risk assessment changes.
type RiskAuditRepository interface {
	// Append inserts one immutable audit entry.
	Append(ctx context.Context, e *model.RiskAuditEntry) error
	// HistoryFor returns entries for a record ordered by assessment instant
	// descending, ties broken by insertion order (newest insert first).
	HistoryFor(ctx context.Context, victimID uuid.UUID) ([]model.RiskAuditEntry, error)
	// DeleteAllFor removes all entries for a record. Used only by cascading
	// record deletion.
	DeleteAllFor(ctx context.Context, victimID uuid.UUID) error
}
