package postgres

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"

	"github.com/openhrm/victimdb/internal/errs"
	"github.com/openhrm/victimdb/internal/model"
)

var victimCols = []string{
	"id", "type", "anonymous", "pseudonym", "demographics", "contact_info",
	"cases_involved", "risk_assessment", "support_services", "notes",
	"created_by", "created_at", "updated_at",
}

func sampleVictim(t *testing.T) *model.VictimRecord {
	t.Helper()
	email := "ciphertext=="
	now := time.Now().UTC().Truncate(time.Second)
	return &model.VictimRecord{
		ID:          uuid.Must(uuid.NewV4()),
		Type:        model.TypeVictim,
		ContactInfo: &model.ContactInfo{Email: &email},
		CasesInvolved: []uuid.UUID{
			uuid.Must(uuid.NewV4()),
		},
		RiskAssessment: model.RiskAssessment{
			Level:      model.RiskHigh,
			AssessedBy: "cm",
			AssessedAt: now,
		},
		CreatedBy: "cm",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// victimRow renders rec the way scanVictim expects a stored row.
func victimRow(t *testing.T, rec *model.VictimRecord) *pgxmock.Rows {
	t.Helper()
	mustJSON := func(v any) []byte {
		b, err := json.Marshal(v)
		require.NoError(t, err)
		return b
	}
	var demo, contact []byte
	if rec.Demographics != nil {
		demo = mustJSON(rec.Demographics)
	}
	if rec.ContactInfo != nil {
		contact = mustJSON(rec.ContactInfo)
	}
	cases := make([]string, len(rec.CasesInvolved))
	for i, c := range rec.CasesInvolved {
		cases[i] = c.String()
	}
	return pgxmock.NewRows(victimCols).AddRow(
		rec.ID, string(rec.Type), rec.Anonymous, rec.Pseudonym, demo, contact,
		cases, mustJSON(rec.RiskAssessment), mustJSON(rec.SupportServices),
		rec.Notes, rec.CreatedBy, rec.CreatedAt, rec.UpdatedAt,
	)
}

func TestVictimRepo_Create(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewVictimRepo(db)
	rec := sampleVictim(t)

	mock.ExpectExec(`INSERT INTO victims`).
		WithArgs(rec.ID, "victim", false, (*string)(nil), []byte(nil), pgxmock.AnyArg(),
			[]string{rec.CasesInvolved[0].String()}, pgxmock.AnyArg(), pgxmock.AnyArg(),
			(*string)(nil), "cm", rec.CreatedAt, rec.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	require.NoError(t, r.Create(context.Background(), rec))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestVictimRepo_Get(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewVictimRepo(db)
	ctx := context.Background()
	rec := sampleVictim(t)

	mock.ExpectQuery(`FROM victims WHERE id=\$1`).
		WithArgs(rec.ID).
		WillReturnRows(victimRow(t, rec))
	got, err := r.Get(ctx, rec.ID)
	require.NoError(t, err)
	require.Equal(t, rec.ID, got.ID)
	require.Equal(t, model.TypeVictim, got.Type)
	require.Equal(t, "ciphertext==", *got.ContactInfo.Email)
	require.Equal(t, rec.CasesInvolved, got.CasesInvolved)
	require.Equal(t, model.RiskHigh, got.RiskAssessment.Level)

	mock.ExpectQuery(`FROM victims WHERE id=\$1`).
		WithArgs(rec.ID).
		WillReturnError(pgx.ErrNoRows)
	_, err = r.Get(ctx, rec.ID)
	require.ErrorIs(t, err, errs.ErrNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestVictimRepo_List_FilterPlacement(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewVictimRepo(db)
	ctx := context.Background()
	rec := sampleVictim(t)

	// no filters: limit/offset only
	mock.ExpectQuery(`FROM victims WHERE true ORDER BY created_at DESC LIMIT \$1 OFFSET \$2`).
		WithArgs(10, 0).
		WillReturnRows(victimRow(t, rec))
	got, err := r.List(ctx, model.VictimFilter{Limit: 10})
	require.NoError(t, err)
	require.Len(t, got, 1)

	// both filters shift the limit/offset placeholders
	lvl := model.RiskHigh
	typ := model.TypeVictim
	mock.ExpectQuery(`WHERE true AND risk_assessment->>'level' = \$1 AND type = \$2 ORDER BY created_at DESC LIMIT \$3 OFFSET \$4`).
		WithArgs("high", "victim", 5, 20).
		WillReturnRows(pgxmock.NewRows(victimCols))
	got, err = r.List(ctx, model.VictimFilter{RiskLevel: &lvl, Type: &typ, Skip: 20, Limit: 5})
	require.NoError(t, err)
	require.Empty(t, got)
	require.NotNil(t, got)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestVictimRepo_ListByCase(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewVictimRepo(db)
	rec := sampleVictim(t)
	caseID := rec.CasesInvolved[0]

	mock.ExpectQuery(`WHERE \$1 = ANY\(cases_involved\) ORDER BY created_at DESC`).
		WithArgs(caseID.String()).
		WillReturnRows(victimRow(t, rec))
	got, err := r.ListByCase(context.Background(), caseID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, rec.ID, got[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestVictimRepo_Update(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewVictimRepo(db)
	ctx := context.Background()
	rec := sampleVictim(t)

	mock.ExpectExec(`UPDATE victims SET`).
		WithArgs(rec.ID, "victim", false, (*string)(nil), []byte(nil), pgxmock.AnyArg(),
			[]string{rec.CasesInvolved[0].String()}, pgxmock.AnyArg(), pgxmock.AnyArg(),
			(*string)(nil), "cm", rec.CreatedAt, rec.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	require.NoError(t, r.Update(ctx, rec))

	mock.ExpectExec(`UPDATE victims SET`).
		WithArgs(rec.ID, "victim", false, (*string)(nil), []byte(nil), pgxmock.AnyArg(),
			[]string{rec.CasesInvolved[0].String()}, pgxmock.AnyArg(), pgxmock.AnyArg(),
			(*string)(nil), "cm", rec.CreatedAt, rec.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	require.ErrorIs(t, r.Update(ctx, rec), errs.ErrNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestVictimRepo_Delete(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewVictimRepo(db)
	ctx := context.Background()
	id := uuid.Must(uuid.NewV4())

	mock.ExpectExec(`DELETE FROM victims WHERE id=\$1`).
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	require.NoError(t, r.Delete(ctx, id))

	mock.ExpectExec(`DELETE FROM victims WHERE id=\$1`).
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	require.ErrorIs(t, r.Delete(ctx, id), errs.ErrNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}
