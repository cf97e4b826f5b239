package service

import (
	"context"
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/openhrm/victimdb/internal/crypto/fieldcipher"
	"github.com/openhrm/victimdb/internal/errs"
	"github.com/openhrm/victimdb/internal/model"
	"github.com/openhrm/victimdb/internal/repository"
)

// Pagination bounds for listing.
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// VictimService orchestrates victim/witness record operations: per-operation
// role enforcement, field encryption on write, redaction on read, and the
// risk audit trail.
type VictimService interface {
	// Create stores a new record and appends the initial risk audit entry.
	Create(ctx context.Context, p model.Principal, in model.NewVictim) (uuid.UUID, error)
	// Get returns a single redacted record.
	Get(ctx context.Context, p model.Principal, id string) (model.VictimRecord, error)
	// List returns redacted records matching the filter.
	List(ctx context.Context, p model.Principal, f model.VictimFilter) ([]model.VictimRecord, error)
	// ListByCase returns redacted records linked to a case.
	ListByCase(ctx context.Context, p model.Principal, caseID string) ([]model.VictimRecord, error)
	// Update applies a partial update, auditing risk assessment changes.
	Update(ctx context.Context, p model.Principal, id string, upd model.UpdateVictim) error
	// Delete removes a record and cascades to its audit entries. Admin only.
	Delete(ctx context.Context, p model.Principal, id string) error
	// RiskHistory returns the record's risk audit entries, newest first.
	RiskHistory(ctx context.Context, p model.Principal, id string) ([]model.RiskAuditEntry, error)
}

type VictimServiceImpl struct {
	victims repository.VictimRepository
	audit   repository.RiskAuditRepository
	cipher  *fieldcipher.Cipher
	redact  *Redactor
	log     *zap.Logger
}

// NewVictimService constructs VictimService with required dependencies.
func NewVictimService(
	victims repository.VictimRepository,
	audit repository.RiskAuditRepository,
	cipher *fieldcipher.Cipher,
	redact *Redactor,
	log *zap.Logger,
) *VictimServiceImpl {
	if log == nil {
		log = zap.NewNop()
	}
	return &VictimServiceImpl{victims: victims, audit: audit, cipher: cipher, redact: redact, log: log}
}

// ParseID parses a record or case identifier, mapping malformed input to
// ErrInvalidInput. All operations use this single entry point.
func ParseID(s string) (uuid.UUID, error) {
	id, err := uuid.FromString(s)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, fmt.Errorf("%w: malformed id %q", errs.ErrInvalidInput, s)
	}
	return id, nil
}

// Create validates and stores a new record. The risk assessment is required on
// creation; sensitive contact fields are encrypted before they reach storage.
// The initial audit entry is appended after the record insert succeeds: a crash
// between the two steps loses the audit entry, never the record.
func (s *VictimServiceImpl) Create(ctx context.Context, p model.Principal, in model.NewVictim) (uuid.UUID, error) {
	if Authorize(p, []model.Role{model.RoleAdmin, model.RoleCaseManager}) != Allow {
		return uuid.Nil, errs.ErrForbidden
	}
	if !in.Type.Valid() {
		return uuid.Nil, fmt.Errorf("%w: unknown type %q", errs.ErrInvalidInput, in.Type)
	}
	if !in.RiskAssessment.Level.Valid() {
		return uuid.Nil, fmt.Errorf("%w: unknown risk level %q", errs.ErrInvalidInput, in.RiskAssessment.Level)
	}

	id, err := uuid.NewV4()
	if err != nil {
		return uuid.Nil, err
	}
	now := time.Now().UTC()

	risk := in.RiskAssessment
	risk.AssessedBy = p.Username
	risk.AssessedAt = now

	rec := &model.VictimRecord{
		ID:              id,
		Type:            in.Type,
		Anonymous:       in.Anonymous,
		Pseudonym:       in.Pseudonym,
		Demographics:    in.Demographics,
		ContactInfo:     s.encryptContact(in.ContactInfo),
		CasesInvolved:   []uuid.UUID{},
		RiskAssessment:  risk,
		SupportServices: in.SupportServices,
		Notes:           in.Notes,
		CreatedBy:       p.Username,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.victims.Create(ctx, rec); err != nil {
		return uuid.Nil, err
	}

	entry := &model.RiskAuditEntry{
		VictimID:   id,
		RiskLevel:  risk.Level,
		AssessedBy: p.Username,
		AssessedAt: now,
		Notes:      risk.Notes,
	}
	if err := s.audit.Append(ctx, entry); err != nil {
		// record is in place; losing the audit entry is preferred over
		// reverting the record
		s.log.Error("risk audit append failed after create",
			zap.String("victim_id", id.String()), zap.Error(err))
	}
	return id, nil
}

// Get returns one redacted record.
func (s *VictimServiceImpl) Get(ctx context.Context, p model.Principal, id string) (model.VictimRecord, error) {
	if Authorize(p, []model.Role{model.RoleAdmin, model.RoleCaseManager, model.RoleAnalyst}) != Allow {
		return model.VictimRecord{}, errs.ErrForbidden
	}
	rid, err := ParseID(id)
	if err != nil {
		return model.VictimRecord{}, err
	}
	rec, err := s.victims.Get(ctx, rid)
	if err != nil {
		return model.VictimRecord{}, err
	}
	return s.redact.Redact(*rec, p), nil
}

// List returns redacted records matching the filter. Any authenticated role
// may list; redaction limits what each role sees.
func (s *VictimServiceImpl) List(ctx context.Context, p model.Principal, f model.VictimFilter) ([]model.VictimRecord, error) {
	if Authorize(p, AllRoles) != Allow {
		return nil, errs.ErrForbidden
	}
	if f.Skip < 0 {
		return nil, fmt.Errorf("%w: negative skip", errs.ErrInvalidInput)
	}
	if f.Limit == 0 {
		f.Limit = DefaultPageSize
	}
	if f.Limit < 1 || f.Limit > MaxPageSize {
		return nil, fmt.Errorf("%w: limit must be within 1..%d", errs.ErrInvalidInput, MaxPageSize)
	}
	if f.RiskLevel != nil && !f.RiskLevel.Valid() {
		return nil, fmt.Errorf("%w: unknown risk level %q", errs.ErrInvalidInput, *f.RiskLevel)
	}
	if f.Type != nil && !f.Type.Valid() {
		return nil, fmt.Errorf("%w: unknown type %q", errs.ErrInvalidInput, *f.Type)
	}

	recs, err := s.victims.List(ctx, f)
	if err != nil {
		return nil, err
	}
	return s.redactAll(recs, p), nil
}

// ListByCase returns redacted records linked to the given case. Unknown cases
// yield an empty slice, not an error.
func (s *VictimServiceImpl) ListByCase(ctx context.Context, p model.Principal, caseID string) ([]model.VictimRecord, error) {
	if Authorize(p, []model.Role{model.RoleAdmin, model.RoleCaseManager, model.RoleAnalyst}) != Allow {
		return nil, errs.ErrForbidden
	}
	cid, err := ParseID(caseID)
	if err != nil {
		return nil, err
	}
	recs, err := s.victims.ListByCase(ctx, cid)
	if err != nil {
		return nil, err
	}
	return s.redactAll(recs, p), nil
}

// Update applies a partial update: only non-nil fields change. A risk
// assessment change appends an audit entry carrying the previous level; the
// append happens after the record update succeeds.
func (s *VictimServiceImpl) Update(ctx context.Context, p model.Principal, id string, upd model.UpdateVictim) error {
	if Authorize(p, []model.Role{model.RoleAdmin, model.RoleCaseManager}) != Allow {
		return errs.ErrForbidden
	}
	rid, err := ParseID(id)
	if err != nil {
		return err
	}

	rec, err := s.victims.Get(ctx, rid)
	if err != nil {
		return err
	}
	now := time.Now().UTC()

	if upd.Type != nil {
		if !upd.Type.Valid() {
			return fmt.Errorf("%w: unknown type %q", errs.ErrInvalidInput, *upd.Type)
		}
		rec.Type = *upd.Type
	}
	if upd.Anonymous != nil {
		rec.Anonymous = *upd.Anonymous
	}
	if upd.Pseudonym != nil {
		rec.Pseudonym = upd.Pseudonym
	}
	if upd.Demographics != nil {
		rec.Demographics = upd.Demographics
	}
	if upd.ContactInfo != nil {
		rec.ContactInfo = s.encryptContact(upd.ContactInfo)
	}
	if upd.SupportServices != nil {
		rec.SupportServices = *upd.SupportServices
	}
	if upd.Notes != nil {
		rec.Notes = upd.Notes
	}

	var entry *model.RiskAuditEntry
	if upd.RiskAssessment != nil {
		if !upd.RiskAssessment.Level.Valid() {
			return fmt.Errorf("%w: unknown risk level %q", errs.ErrInvalidInput, upd.RiskAssessment.Level)
		}
		prev := rec.RiskAssessment.Level
		risk := *upd.RiskAssessment
		risk.AssessedBy = p.Username
		risk.AssessedAt = now
		rec.RiskAssessment = risk

		entry = &model.RiskAuditEntry{
			VictimID:      rid,
			RiskLevel:     risk.Level,
			PreviousLevel: &prev,
			AssessedBy:    p.Username,
			AssessedAt:    now,
			Notes:         risk.Notes,
		}
	}

	rec.UpdatedAt = now
	if err := s.victims.Update(ctx, rec); err != nil {
		return err
	}
	if entry != nil {
		if err := s.audit.Append(ctx, entry); err != nil {
			s.log.Error("risk audit append failed after update",
				zap.String("victim_id", rid.String()), zap.Error(err))
		}
	}
	return nil
}

// Delete removes a record and all its risk audit entries.
func (s *VictimServiceImpl) Delete(ctx context.Context, p model.Principal, id string) error {
	if Authorize(p, []model.Role{model.RoleAdmin}) != Allow {
		return errs.ErrForbidden
	}
	rid, err := ParseID(id)
	if err != nil {
		return err
	}
	if err := s.victims.Delete(ctx, rid); err != nil {
		return err
	}
	return s.audit.DeleteAllFor(ctx, rid)
}

// RiskHistory returns the audit trail for a record, newest first.
func (s *VictimServiceImpl) RiskHistory(ctx context.Context, p model.Principal, id string) ([]model.RiskAuditEntry, error) {
	if Authorize(p, []model.Role{model.RoleAdmin, model.RoleCaseManager}) != Allow {
		return nil, errs.ErrForbidden
	}
	rid, err := ParseID(id)
	if err != nil {
		return nil, err
	}
	return s.audit.HistoryFor(ctx, rid)
}

// encryptContact returns a copy of ci with sensitive subfields encrypted.
func (s *VictimServiceImpl) encryptContact(ci *model.ContactInfo) *model.ContactInfo {
	if ci == nil {
		return nil
	}
	out := *ci
	if out.Email != nil {
		v := s.cipher.Encrypt(*out.Email)
		out.Email = &v
	}
	if out.Phone != nil {
		v := s.cipher.Encrypt(*out.Phone)
		out.Phone = &v
	}
	return &out
}

func (s *VictimServiceImpl) redactAll(recs []model.VictimRecord, p model.Principal) []model.VictimRecord {
	out := make([]model.VictimRecord, len(recs))
	for i := range recs {
		out[i] = s.redact.Redact(recs[i], p)
	}
	return out
}
