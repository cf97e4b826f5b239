package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"

	"github.com/openhrm/victimdb/internal/errs"
	"github.com/openhrm/victimdb/internal/model"
)

// VictimRepo implements VictimRepository using PostgreSQL. Structured blocks
// (demographics, contact info, risk assessment, support services) persist as
// JSONB; contact email/phone arrive here already encrypted.
type VictimRepo struct{ db *DB }

// NewVictimRepo constructs a victim record repository.
func NewVictimRepo(db *DB) *VictimRepo { return &VictimRepo{db: db} }

const victimColumns = `id, type, anonymous, pseudonym, demographics, contact_info,
cases_involved, risk_assessment, support_services, notes, created_by, created_at, updated_at`

// Create inserts a new record row.
func (r *VictimRepo) Create(ctx context.Context, rec *model.VictimRecord) error {
	const q = `
INSERT INTO victims (` + victimColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	args, err := victimArgs(rec)
	if err != nil {
		return err
	}
	if _, err := r.db.Pool.Exec(ctx, q, args...); err != nil {
		return fmt.Errorf("%w: %v", errs.ErrStorage, err)
	}
	return nil
}

// Get selects a single record by ID.
func (r *VictimRepo) Get(ctx context.Context, id uuid.UUID) (*model.VictimRecord, error) {
	const q = `SELECT ` + victimColumns + ` FROM victims WHERE id=$1`
	rec, err := scanVictim(r.db.Pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", errs.ErrStorage, err)
	}
	return rec, nil
}

// List selects records matching the filter, newest first, with paging.
func (r *VictimRepo) List(ctx context.Context, f model.VictimFilter) ([]model.VictimRecord, error) {
	q := `SELECT ` + victimColumns + ` FROM victims WHERE true`
	args := []any{}
	if f.RiskLevel != nil {
		args = append(args, string(*f.RiskLevel))
		q += fmt.Sprintf(" AND risk_assessment->>'level' = $%d", len(args))
	}
	if f.Type != nil {
		args = append(args, string(*f.Type))
		q += fmt.Sprintf(" AND type = $%d", len(args))
	}
	args = append(args, f.Limit, f.Skip)
	q += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.db.Pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrStorage, err)
	}
	defer rows.Close()
	return collectVictims(rows)
}

// ListByCase selects all records linked to the given case.
func (r *VictimRepo) ListByCase(ctx context.Context, caseID uuid.UUID) ([]model.VictimRecord, error) {
	const q = `SELECT ` + victimColumns + ` FROM victims WHERE $1 = ANY(cases_involved) ORDER BY created_at DESC`
	rows, err := r.db.Pool.Query(ctx, q, caseID.String())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrStorage, err)
	}
	defer rows.Close()
	return collectVictims(rows)
}

// Update replaces the stored row for rec.ID.
func (r *VictimRepo) Update(ctx context.Context, rec *model.VictimRecord) error {
	const q = `
UPDATE victims SET
  type=$2, anonymous=$3, pseudonym=$4, demographics=$5, contact_info=$6,
  cases_involved=$7, risk_assessment=$8, support_services=$9, notes=$10,
  created_by=$11, created_at=$12, updated_at=$13
WHERE id=$1`
	args, err := victimArgs(rec)
	if err != nil {
		return err
	}
	tag, err := r.db.Pool.Exec(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("%w: %v", errs.ErrStorage, err)
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// Delete removes a record row.
func (r *VictimRepo) Delete(ctx context.Context, id uuid.UUID) error {
	const q = `DELETE FROM victims WHERE id=$1`
	tag, err := r.db.Pool.Exec(ctx, q, id)
	if err != nil {
		return fmt.Errorf("%w: %v", errs.ErrStorage, err)
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// victimArgs builds the positional arguments matching victimColumns.
func victimArgs(rec *model.VictimRecord) ([]any, error) {
	var demo, contact []byte
	var err error
	if rec.Demographics != nil {
		if demo, err = json.Marshal(rec.Demographics); err != nil {
			return nil, fmt.Errorf("%w: %v", errs.ErrStorage, err)
		}
	}
	if rec.ContactInfo != nil {
		if contact, err = json.Marshal(rec.ContactInfo); err != nil {
			return nil, fmt.Errorf("%w: %v", errs.ErrStorage, err)
		}
	}
	risk, err := json.Marshal(rec.RiskAssessment)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrStorage, err)
	}
	support := rec.SupportServices
	if support == nil {
		support = []model.SupportService{}
	}
	services, err := json.Marshal(support)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrStorage, err)
	}
	cases := make([]string, len(rec.CasesInvolved))
	for i, c := range rec.CasesInvolved {
		cases[i] = c.String()
	}
	return []any{
		rec.ID, string(rec.Type), rec.Anonymous, rec.Pseudonym, demo, contact,
		cases, risk, services, rec.Notes, rec.CreatedBy, rec.CreatedAt, rec.UpdatedAt,
	}, nil
}

func scanVictim(row pgx.Row) (*model.VictimRecord, error) {
	var (
		rec      model.VictimRecord
		typ      string
		demo     []byte
		contact  []byte
		cases    []string
		risk     []byte
		services []byte
	)
	if err := row.Scan(&rec.ID, &typ, &rec.Anonymous, &rec.Pseudonym, &demo, &contact,
		&cases, &risk, &services, &rec.Notes, &rec.CreatedBy, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return nil, err
	}
	rec.Type = model.VictimType(typ)
	if len(demo) > 0 {
		rec.Demographics = &model.Demographics{}
		if err := json.Unmarshal(demo, rec.Demographics); err != nil {
			return nil, err
		}
	}
	if len(contact) > 0 {
		rec.ContactInfo = &model.ContactInfo{}
		if err := json.Unmarshal(contact, rec.ContactInfo); err != nil {
			return nil, err
		}
	}
	if len(risk) > 0 {
		if err := json.Unmarshal(risk, &rec.RiskAssessment); err != nil {
			return nil, err
		}
	}
	if len(services) > 0 {
		if err := json.Unmarshal(services, &rec.SupportServices); err != nil {
			return nil, err
		}
	}
	rec.CasesInvolved = make([]uuid.UUID, 0, len(cases))
	for _, c := range cases {
		id, err := uuid.FromString(c)
		if err != nil {
			return nil, err
		}
		rec.CasesInvolved = append(rec.CasesInvolved, id)
	}
	return &rec, nil
}

func collectVictims(rows pgx.Rows) ([]model.VictimRecord, error) {
	out := []model.VictimRecord{}
	for rows.Next() {
		rec, err := scanVictim(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errs.ErrStorage, err)
		}
		out = append(out, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrStorage, err)
	}
	return out, nil
}
