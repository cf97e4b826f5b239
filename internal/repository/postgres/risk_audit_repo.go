package postgres

import (
	"context"
	"fmt"

	"github.com/gofrs/uuid/v5"

	"github.com/openhrm/victimdb/internal/errs"
	"github.com/openhrm/victimdb/internal/model"
)

// RiskAuditRepo implements the append-only risk audit ledger using PostgreSQL.
// Rows are never updated; deletion happens only as part of cascading record
// deletion.
type RiskAuditRepo struct{ db *DB }

// NewRiskAuditRepo constructs a risk audit repository.
func NewRiskAuditRepo(db *DB) *RiskAuditRepo { return &RiskAuditRepo{db: db} }

// Append inserts one audit entry.
func (r *RiskAuditRepo) Append(ctx context.Context, e *model.RiskAuditEntry) error {
	const q = `
INSERT INTO risk_audit (victim_id, risk_level, previous_level, assessed_by, assessed_at, notes)
VALUES ($1, $2, $3, $4, $5, $6)`
	var prev *string
	if e.PreviousLevel != nil {
		s := string(*e.PreviousLevel)
		prev = &s
	}
	if _, err := r.db.Pool.Exec(ctx, q, e.VictimID, string(e.RiskLevel), prev, e.AssessedBy, e.AssessedAt, e.Notes); err != nil {
		return fmt.Errorf("%w: %v", errs.ErrStorage, err)
	}
	return nil
}

// HistoryFor returns entries for a record, newest assessment first. Ties on
// assessed_at resolve to the newest insert via the serial id.
func (r *RiskAuditRepo) HistoryFor(ctx context.Context, victimID uuid.UUID) ([]model.RiskAuditEntry, error) {
	const q = `
SELECT id, victim_id, risk_level, previous_level, assessed_by, assessed_at, notes
FROM risk_audit
WHERE victim_id=$1
ORDER BY assessed_at DESC, id DESC`
	rows, err := r.db.Pool.Query(ctx, q, victimID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrStorage, err)
	}
	defer rows.Close()

	out := []model.RiskAuditEntry{}
	for rows.Next() {
		var (
			e     model.RiskAuditEntry
			level string
			prev  *string
		)
		if err := rows.Scan(&e.ID, &e.VictimID, &level, &prev, &e.AssessedBy, &e.AssessedAt, &e.Notes); err != nil {
			return nil, fmt.Errorf("%w: %v", errs.ErrStorage, err)
		}
		e.RiskLevel = model.RiskLevel(level)
		if prev != nil {
			p := model.RiskLevel(*prev)
			e.PreviousLevel = &p
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrStorage, err)
	}
	return out, nil
}

// DeleteAllFor removes all entries for a record.
func (r *RiskAuditRepo) DeleteAllFor(ctx context.Context, victimID uuid.UUID) error {
	const q = `DELETE FROM risk_audit WHERE victim_id=$1`
	if _, err := r.db.Pool.Exec(ctx, q, victimID); err != nil {
		return fmt.Errorf("%w: %v", errs.ErrStorage, err)
	}
	return nil
}
