package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/smpn3pacet/database-siswa-api/internal/dto"
	"github.com/smpn3pacet/database-siswa-api/internal/models"
	appErrors "github.com/smpn3pacet/database-siswa-api/pkg/errors"
)

func studentFixture(records ...*models.StudentRecord) (*StudentService, *stubStudentStore, *stubInvalidator) {
	students := newStubStudentStore(records...)
	invalidator := &stubInvalidator{}
	summaries := NewCompletenessService(students, newStubDocumentStore(), newStubAcademicStore(), nil, false, 0, nil)
	svc := NewStudentService(students, newStubDocumentStore(), newStubAcademicStore(),
		newStubCorrectionStore(), &stubNotificationStore{}, summaries, invalidator, nil, nil)
	return svc, students, invalidator
}

func createRequest() dto.CreateStudentRequest {
	return dto.CreateStudentRequest{
		NIS:       "2024001",
		NISN:      "0061234567",
		FullName:  "Siti Rahma",
		Gender:    "P",
		BirthDate: time.Date(2011, 3, 14, 0, 0, 0, 0, time.UTC),
	}
}

func TestCreateStudentValidatesPayload(t *testing.T) {
	svc, _, _ := studentFixture()

	req := createRequest()
	req.NISN = "123" // must be exactly 10 digits
	_, err := svc.Create(context.Background(), req)
	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	req = createRequest()
	req.Gender = "X"
	_, err = svc.Create(context.Background(), req)
	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestCreateStudentRejectsDuplicateNISN(t *testing.T) {
	svc, _, _ := studentFixture()

	first, err := svc.Create(context.Background(), createRequest())
	require.NoError(t, err)
	require.NotEmpty(t, first.ID)
	require.True(t, first.Active)

	dup := createRequest()
	dup.NIS = "2024002"
	_, err = svc.Create(context.Background(), dup)
	require.Error(t, err)
	require.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestUpdateStudentMergesPointerFields(t *testing.T) {
	record := analyzerFixture()
	svc, students, invalidator := studentFixture(record)

	nik := "3201010101010001"
	father := models.Guardian{Name: "Dadang Supriadi", Occupation: "Petani"}
	updated, err := svc.Update(context.Background(), record.ID, dto.UpdateStudentRequest{
		NIK:    &nik,
		Father: &father,
	})
	require.NoError(t, err)
	require.Equal(t, nik, updated.NIK)
	require.Equal(t, "Dadang Supriadi", updated.Father.Name)
	// Untouched fields survive the merge.
	require.Equal(t, "Siti Rahma", updated.FullName)
	require.Equal(t, "Kp. Pasirhuni RT 02", updated.Address.Street)

	stored, err := students.FindByID(context.Background(), record.ID)
	require.NoError(t, err)
	require.Equal(t, nik, stored.NIK)
	require.Equal(t, []string{record.ID}, invalidator.calls)
}

func TestUpdateStudentNotFound(t *testing.T) {
	svc, _, _ := studentFixture()

	name := "Baru"
	_, err := svc.Update(context.Background(), "missing", dto.UpdateStudentRequest{FullName: &name})
	require.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestListCarriesCompleteness(t *testing.T) {
	record := analyzerFixture()
	svc, _, _ := studentFixture(record)

	resp, err := svc.List(context.Background(), models.StudentFilter{Page: 1, PageSize: 20}, 1)
	require.NoError(t, err)
	require.Len(t, resp.Students, 1)
	require.Equal(t, 10, resp.Students[0].Overall)
	require.Positive(t, resp.Students[0].GapCount)
	require.Equal(t, 1, resp.Pagination.TotalCount)
}

func TestDeactivateKeepsHistory(t *testing.T) {
	record := analyzerFixture()
	svc, students, invalidator := studentFixture(record)

	require.NoError(t, svc.Deactivate(context.Background(), record.ID))
	stored, err := students.FindByID(context.Background(), record.ID)
	require.NoError(t, err)
	require.False(t, stored.Active)
	require.Equal(t, []string{record.ID}, invalidator.calls)

	require.ErrorIs(t, svc.Deactivate(context.Background(), "missing"), appErrors.ErrNotFound)
}
