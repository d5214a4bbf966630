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

func notificationFixture(record *models.StudentRecord) (*NotificationService, *stubNotificationStore, *stubQueue) {
	store := &stubNotificationStore{}
	queue := &stubQueue{}
	reports := NewCompletenessService(newStubStudentStore(record), newStubDocumentStore(), newStubAcademicStore(), nil, false, 0, nil)
	svc := NewNotificationService(store, reports, queue, nil)
	return svc, store, queue
}

func TestCreateComposesMessageFromGaps(t *testing.T) {
	record := analyzerFixture()
	svc, store, queue := notificationFixture(record)

	msg, err := svc.Create(context.Background(), record.ID, dto.CreateNotificationRequest{}, 1, "admin-1")
	require.NoError(t, err)
	require.Contains(t, msg.Content, "Mohon lengkapi data berikut:")
	require.Contains(t, msg.Content, "NIK")
	require.Contains(t, msg.Content, "Halaman rapor semester 1 (0 dari 5)")
	require.Len(t, store.items, 1)

	require.Len(t, queue.jobs, 1)
	require.Equal(t, "notification.deliver", queue.jobs[0].Type)
	payload, ok := queue.jobs[0].Payload.(NotificationDeliveryJob)
	require.True(t, ok)
	require.Equal(t, msg.ID, payload.NotificationID)
	require.Equal(t, record.ID, payload.StudentID)
}

func TestCreateWithExplicitContent(t *testing.T) {
	record := analyzerFixture()
	svc, store, _ := notificationFixture(record)

	msg, err := svc.Create(context.Background(), record.ID, dto.CreateNotificationRequest{
		Content: "Harap bawa akta kelahiran asli besok.",
	}, 1, "admin-1")
	require.NoError(t, err)
	require.Equal(t, "Harap bawa akta kelahiran asli besok.", msg.Content)
	require.Len(t, store.items, 1)
}

func TestCreateRejectsCompleteRecord(t *testing.T) {
	record := analyzerFixture()
	record.NIK = "3201010101010001"
	record.Father.Name = "Dadang"
	record.Mother.Name = "Euis"

	store := &stubNotificationStore{}
	students := newStubStudentStore(record)
	documents := newStubDocumentStore()
	for _, category := range models.RequiredDocumentCategories {
		require.NoError(t, documents.Insert(context.Background(), &models.DocumentEntity{
			StudentID: record.ID,
			Category:  category,
			Status:    models.DocumentStatusApproved,
		}))
	}
	for page := 1; page <= models.RaporPagesPerSemester; page++ {
		p := page
		semester := 1
		require.NoError(t, documents.Insert(context.Background(), &models.DocumentEntity{
			StudentID: record.ID,
			Category:  models.CategoryRapor,
			Semester:  &semester,
			Page:      &p,
			Status:    models.DocumentStatusApproved,
		}))
	}
	academics := newStubAcademicStore()
	require.NoError(t, academics.Upsert(context.Background(), &models.AcademicRecord{
		StudentID: record.ID,
		Semester:  1,
		Subjects:  []models.SubjectGrade{{Subject: "IPA"}},
	}))
	reports := NewCompletenessService(students, documents, academics, nil, false, 0, nil)
	svc := NewNotificationService(store, reports, nil, nil)

	_, err := svc.Create(context.Background(), record.ID, dto.CreateNotificationRequest{}, 1, "admin-1")
	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	require.Empty(t, store.items)
}

func TestMarkReadAndCountUnread(t *testing.T) {
	record := analyzerFixture()
	svc, store, _ := notificationFixture(record)

	msg, err := svc.Create(context.Background(), record.ID, dto.CreateNotificationRequest{Content: "Cek data"}, 1, "admin-1")
	require.NoError(t, err)

	count, err := svc.CountUnread(context.Background(), record.ID)
	require.NoError(t, err)
	require.Equal(t, 1, count)

	require.NoError(t, svc.MarkRead(context.Background(), msg.ID))
	count, err = svc.CountUnread(context.Background(), record.ID)
	require.NoError(t, err)
	require.Equal(t, 0, count)

	require.ErrorIs(t, svc.MarkRead(context.Background(), "missing"), appErrors.ErrNotFound)
	require.True(t, store.items[0].Read)
	require.False(t, store.items[0].CreatedAt.After(time.Now()))
}
