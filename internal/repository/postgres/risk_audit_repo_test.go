package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"

	"github.com/openhrm/victimdb/internal/errs"
	"github.com/openhrm/victimdb/internal/model"
)

func TestRiskAuditRepo_Append(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewRiskAuditRepo(db)
	ctx := context.Background()
	vid := uuid.Must(uuid.NewV4())
	at := time.Now().UTC()

	// initial entry: no previous level
	e := &model.RiskAuditEntry{VictimID: vid, RiskLevel: model.RiskHigh, AssessedBy: "cm", AssessedAt: at}
	mock.ExpectExec(`INSERT INTO risk_audit`).
		WithArgs(vid, "high", (*string)(nil), "cm", at, (*string)(nil)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	require.NoError(t, r.Append(ctx, e))

	// level change carries the previous level
	prev := model.RiskHigh
	prevStr := "high"
	e2 := &model.RiskAuditEntry{VictimID: vid, RiskLevel: model.RiskMedium, PreviousLevel: &prev, AssessedBy: "cm", AssessedAt: at}
	mock.ExpectExec(`INSERT INTO risk_audit`).
		WithArgs(vid, "medium", &prevStr, "cm", at, (*string)(nil)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	require.NoError(t, r.Append(ctx, e2))

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRiskAuditRepo_HistoryFor(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewRiskAuditRepo(db)
	vid := uuid.Must(uuid.NewV4())
	at := time.Now().UTC()
	prev := "high"
	cols := []string{"id", "victim_id", "risk_level", "previous_level", "assessed_by", "assessed_at", "notes"}

	mock.ExpectQuery(`ORDER BY assessed_at DESC, id DESC`).
		WithArgs(vid).
		WillReturnRows(pgxmock.NewRows(cols).
			AddRow(int64(2), vid, "medium", &prev, "cm", at, (*string)(nil)).
			AddRow(int64(1), vid, "high", (*string)(nil), "cm", at.Add(-time.Hour), (*string)(nil)))
	hist, err := r.HistoryFor(context.Background(), vid)
	require.NoError(t, err)
	require.Len(t, hist, 2)
	require.Equal(t, model.RiskMedium, hist[0].RiskLevel)
	require.NotNil(t, hist[0].PreviousLevel)
	require.Equal(t, model.RiskHigh, *hist[0].PreviousLevel)
	require.Nil(t, hist[1].PreviousLevel)

	// no entries yields an empty slice
	mock.ExpectQuery(`ORDER BY assessed_at DESC, id DESC`).
		WithArgs(vid).
		WillReturnRows(pgxmock.NewRows(cols))
	hist, err = r.HistoryFor(context.Background(), vid)
	require.NoError(t, err)
	require.NotNil(t, hist)
	require.Empty(t, hist)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRiskAuditRepo_DeleteAllFor(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewRiskAuditRepo(db)
	vid := uuid.Must(uuid.NewV4())

	mock.ExpectExec(`DELETE FROM risk_audit WHERE victim_id=\$1`).
		WithArgs(vid).
		WillReturnResult(pgxmock.NewResult("DELETE", 3))
	require.NoError(t, r.DeleteAllFor(context.Background(), vid))

	mock.ExpectExec(`DELETE FROM risk_audit WHERE victim_id=\$1`).
		WithArgs(vid).
		WillReturnError(context.DeadlineExceeded)
	require.ErrorIs(t, r.DeleteAllFor(context.Background(), vid), errs.ErrStorage)

	require.NoError(t, mock.ExpectationsWereMet())
}
