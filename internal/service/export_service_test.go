package service

import (
	"bytes"
	"context"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/smpn3pacet/database-siswa-api/internal/models"
	appErrors "github.com/smpn3pacet/database-siswa-api/pkg/errors"
	"github.com/smpn3pacet/database-siswa-api/pkg/storage"
)

func exportFixture(t *testing.T) (*ExportService, *storage.LocalStorage) {
	t.Helper()
	record := &models.StudentRecord{ID: "student-1", NIS: "2024001", NISN: "0061234567", FullName: "Siti Rahma", Active: true}
	students := newStubStudentStore(record)
	documents := newStubDocumentStore()
	academics := newStubAcademicStore()
	reports := NewCompletenessService(students, documents, academics, nil, false, 0, nil)

	archive, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	svc := NewExportService(students, documents, academics, reports, archive, nil)
	return svc, archive
}

func TestCompletenessRecapCSV(t *testing.T) {
	svc, archive := exportFixture(t)

	result, err := svc.CompletenessRecap(context.Background(), 1, "csv")
	require.NoError(t, err)
	require.Equal(t, "text/csv", result.ContentType)
	require.True(t, bytes.HasPrefix(result.Content, []byte{0xEF, 0xBB, 0xBF}))

	body := string(result.Content)
	require.Contains(t, body, "NIS,NISN,Nama,Biodata,Nilai,Berkas,Rapor,Total")
	require.Contains(t, body, "2024001")
	require.Contains(t, body, "Siti Rahma")

	// Archived copy on disk.
	info, err := os.Stat(archive.Path(result.Filename))
	require.NoError(t, err)
	require.Equal(t, int64(len(result.Content)), info.Size())
}

func TestCompletenessRecapPDF(t *testing.T) {
	svc, archive := exportFixture(t)

	result, err := svc.CompletenessRecap(context.Background(), 2, "pdf")
	require.NoError(t, err)
	require.Equal(t, "application/pdf", result.ContentType)
	require.True(t, strings.HasPrefix(result.Filename, "rekap-kelengkapan-semester-2-"))
	require.True(t, bytes.HasPrefix(result.Content, []byte("%PDF")))

	_, err = os.Stat(archive.Path(result.Filename))
	require.NoError(t, err)
}

func TestCompletenessRecapValidatesInput(t *testing.T) {
	svc, _ := exportFixture(t)

	_, err := svc.CompletenessRecap(context.Background(), 0, "csv")
	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.CompletenessRecap(context.Background(), 1, "xlsx")
	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
