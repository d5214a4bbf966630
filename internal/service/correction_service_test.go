package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/smpn3pacet/database-siswa-api/internal/dto"
	"github.com/smpn3pacet/database-siswa-api/internal/models"
	appErrors "github.com/smpn3pacet/database-siswa-api/pkg/errors"
)

func correctionFixture() (*CorrectionService, *stubCorrectionStore, *stubStudentStore, *stubInvalidator, *models.StudentRecord) {
	record := &models.StudentRecord{ID: "student-1", NIS: "2024001", FullName: "Siti Rahma"}
	record.Father.Name = "Nama Ayah"
	students := newStubStudentStore(record)
	corrections := newStubCorrectionStore()
	invalidator := &stubInvalidator{}
	svc := NewCorrectionService(corrections, students, &stubAudit{}, invalidator, nil)
	return svc, corrections, students, invalidator, record
}

func evidence() models.CorrectionEvidence {
	return models.CorrectionEvidence{
		FilePath:  "corrections/ktp.jpg",
		Name:      "ktp.jpg",
		MediaKind: models.MediaImage,
	}
}

func TestProposeRequiresEvidence(t *testing.T) {
	svc, corrections, _, _, record := correctionFixture()

	_, err := svc.Propose(context.Background(), record.ID, dto.ProposeCorrectionRequest{
		FieldPath:     "father.name",
		ProposedValue: "Budi Santoso",
	}, models.CorrectionEvidence{}, "user-1")
	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	pending, err := corrections.ListPending(context.Background())
	require.NoError(t, err)
	require.Empty(t, pending)
}

func TestProposeRejectsUnknownFieldPath(t *testing.T) {
	svc, _, _, _, record := correctionFixture()

	_, err := svc.Propose(context.Background(), record.ID, dto.ProposeCorrectionRequest{
		FieldPath:     "father.shoe_size",
		ProposedValue: "42",
	}, evidence(), "user-1")
	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestProposeSupersedesPendingForSamePath(t *testing.T) {
	svc, corrections, students, _, record := correctionFixture()

	first, err := svc.Propose(context.Background(), record.ID, dto.ProposeCorrectionRequest{
		FieldPath:     "father.name",
		ProposedValue: "Budi",
	}, evidence(), "user-1")
	require.NoError(t, err)

	second, err := svc.Propose(context.Background(), record.ID, dto.ProposeCorrectionRequest{
		FieldPath:     "father.name",
		ProposedValue: "Budi Santoso",
	}, evidence(), "user-1")
	require.NoError(t, err)
	require.NotEqual(t, first.ID, second.ID)

	ledger, err := corrections.ListByStudent(context.Background(), record.ID)
	require.NoError(t, err)
	require.Nil(t, models.FindPendingCorrection(ledger, "father.name").ProcessedAt)
	pendingCount := 0
	for _, c := range ledger {
		if c.FieldPath == "father.name" && c.Status == models.CorrectionStatusPending {
			pendingCount++
			require.Equal(t, "Budi Santoso", c.ProposedValue)
		}
	}
	require.Equal(t, 1, pendingCount)

	// Record value untouched until approval.
	current, err := students.FindByID(context.Background(), record.ID)
	require.NoError(t, err)
	require.Equal(t, "Nama Ayah", current.Father.Name)
}

func TestApproveWritesValueBack(t *testing.T) {
	svc, corrections, students, invalidator, record := correctionFixture()

	proposed, err := svc.Propose(context.Background(), record.ID, dto.ProposeCorrectionRequest{
		FieldPath:     "father.name",
		ProposedValue: "Budi Santoso",
	}, evidence(), "user-1")
	require.NoError(t, err)

	approved, err := svc.Approve(context.Background(), proposed.ID, "bukti valid", "admin-1")
	require.NoError(t, err)
	require.Equal(t, models.CorrectionStatusApproved, approved.Status)
	require.NotNil(t, approved.ProcessedAt)

	current, err := students.FindByID(context.Background(), record.ID)
	require.NoError(t, err)
	require.Equal(t, "Budi Santoso", current.Father.Name)

	ledger, err := corrections.ListByStudent(context.Background(), record.ID)
	require.NoError(t, err)
	require.Nil(t, models.FindPendingCorrection(ledger, "father.name"))
	require.NotNil(t, models.FindApprovedCorrection(ledger, "father.name"))
	require.Equal(t, []string{record.ID}, invalidator.calls)
}

func TestApproveNonPendingIsStateConflict(t *testing.T) {
	svc, _, students, _, record := correctionFixture()

	proposed, err := svc.Propose(context.Background(), record.ID, dto.ProposeCorrectionRequest{
		FieldPath:     "father.name",
		ProposedValue: "Budi Santoso",
	}, evidence(), "user-1")
	require.NoError(t, err)

	_, err = svc.Approve(context.Background(), proposed.ID, "", "admin-1")
	require.NoError(t, err)

	_, err = svc.Approve(context.Background(), proposed.ID, "", "admin-2")
	require.Error(t, err)
	require.Equal(t, appErrors.ErrStateConflict.Code, appErrors.FromError(err).Code)

	_, err = svc.Reject(context.Background(), proposed.ID, "sudah diproses", "admin-2")
	require.Error(t, err)
	require.Equal(t, appErrors.ErrStateConflict.Code, appErrors.FromError(err).Code)

	// Approved value survives the failed second review.
	current, err := students.FindByID(context.Background(), record.ID)
	require.NoError(t, err)
	require.Equal(t, "Budi Santoso", current.Father.Name)
}

func TestRejectRequiresNote(t *testing.T) {
	svc, _, students, _, record := correctionFixture()

	proposed, err := svc.Propose(context.Background(), record.ID, dto.ProposeCorrectionRequest{
		FieldPath:     "father.name",
		ProposedValue: "Budi Santoso",
	}, evidence(), "user-1")
	require.NoError(t, err)

	_, err = svc.Reject(context.Background(), proposed.ID, "  ", "admin-1")
	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	rejected, err := svc.Reject(context.Background(), proposed.ID, "bukti tidak jelas", "admin-1")
	require.NoError(t, err)
	require.Equal(t, models.CorrectionStatusRejected, rejected.Status)
	require.NotNil(t, rejected.Note)

	current, err := students.FindByID(context.Background(), record.ID)
	require.NoError(t, err)
	require.Equal(t, "Nama Ayah", current.Father.Name)
}

func TestCorrectableFieldsMarksPending(t *testing.T) {
	svc, _, _, _, record := correctionFixture()

	_, err := svc.Propose(context.Background(), record.ID, dto.ProposeCorrectionRequest{
		FieldPath:     "father.name",
		ProposedValue: "Budi Santoso",
	}, evidence(), "user-1")
	require.NoError(t, err)

	fields, err := svc.CorrectableFields(context.Background(), record.ID)
	require.NoError(t, err)
	require.NotEmpty(t, fields)
	for _, field := range fields {
		if field.FieldPath == "father.name" {
			require.True(t, field.HasPending)
			require.Equal(t, "Nama Ayah", field.CurrentValue)
		} else {
			require.False(t, field.HasPending)
		}
	}
}
