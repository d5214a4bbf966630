package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/smpn3pacet/database-siswa-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestCorrectionRepositoryCreateSupersedesPending(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewCorrectionRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM corrections WHERE student_id = $1 AND field_path = $2 AND status = $3")).
		WithArgs("student-1", "father.name", models.CorrectionStatusPending).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO corrections")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	correction := &models.CorrectionRequest{
		StudentID:     "student-1",
		FieldPath:     "father.name",
		Label:         "Nama Ayah",
		OriginalValue: "Nama Ayah",
		ProposedValue: "Budi Santoso",
		Evidence: models.CorrectionEvidence{
			FilePath:  "corrections/ktp.jpg",
			Name:      "ktp.jpg",
			MediaKind: models.MediaImage,
		},
		SubmittedBy: "user-1",
	}
	require.NoError(t, repo.Create(context.Background(), correction))
	require.NotEmpty(t, correction.ID)
	require.Equal(t, models.CorrectionStatusPending, correction.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCorrectionRepositoryGetByID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewCorrectionRepository(db)
	rows := sqlmock.NewRows([]string{
		"id", "student_id", "field_path", "label", "original_value", "proposed_value",
		"evidence.file_path", "evidence.name", "evidence.media_kind",
		"status", "note", "submitted_by", "reviewed_by", "submitted_at", "processed_at",
	}).AddRow("corr-1", "student-1", "father.name", "Nama Ayah", "Nama Ayah", "Budi Santoso",
		"corrections/ktp.jpg", "ktp.jpg", "IMAGE",
		"PENDING", nil, "user-1", nil, time.Now(), nil)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, student_id, field_path")).
		WithArgs("corr-1").
		WillReturnRows(rows)

	found, err := repo.GetByID(context.Background(), "corr-1")
	require.NoError(t, err)
	require.Equal(t, "corr-1", found.ID)
	require.Equal(t, "ktp.jpg", found.Evidence.Name)
	require.Equal(t, models.CorrectionStatusPending, found.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCorrectionRepositoryUpdateStatusGuarded(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewCorrectionRepository(db)
	note := "bukti valid"
	mock.ExpectExec(regexp.QuoteMeta("UPDATE corrections SET")).WillReturnResult(sqlmock.NewResult(0, 1))
	err := repo.UpdateStatus(context.Background(), UpdateReviewParams{
		ID:          "corr-1",
		Status:      models.CorrectionStatusApproved,
		ReviewedBy:  "admin-1",
		ProcessedAt: time.Now(),
		Note:        &note,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	// Second review of the same request hits the pending guard.
	mock.ExpectExec(regexp.QuoteMeta("UPDATE corrections SET")).WillReturnResult(sqlmock.NewResult(0, 0))
	err = repo.UpdateStatus(context.Background(), UpdateReviewParams{
		ID:          "corr-1",
		Status:      models.CorrectionStatusRejected,
		ReviewedBy:  "admin-2",
		ProcessedAt: time.Now(),
	})
	require.Error(t, err)
}
