package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/smpn3pacet/database-siswa-api/internal/models"
)

func TestDocumentRepositoryInsertAndGet(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewDocumentRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO documents")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	doc := &models.DocumentEntity{
		StudentID:  "student-1",
		Name:       "akta.pdf",
		MediaKind:  models.MediaPDF,
		FilePath:   "documents/student-1/akta.pdf",
		Category:   models.CategoryAktaKelahiran,
		Status:     models.DocumentStatusPending,
		SizeBytes:  2048,
		UploadedBy: "user-1",
	}
	require.NoError(t, repo.Insert(context.Background(), doc))
	require.NotEmpty(t, doc.ID)

	rows := sqlmock.NewRows([]string{
		"id", "student_id", "name", "media_kind", "file_path", "category",
		"semester", "page", "status", "review_note", "size_bytes", "uploaded_by", "uploaded_at",
	}).AddRow(doc.ID, "student-1", "akta.pdf", "PDF", "documents/student-1/akta.pdf", "AKTA_KELAHIRAN",
		nil, nil, "PENDING", nil, 2048, "user-1", time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, student_id, name")).
		WithArgs(doc.ID).
		WillReturnRows(rows)

	found, err := repo.GetByID(context.Background(), doc.ID)
	require.NoError(t, err)
	require.Equal(t, doc.ID, found.ID)
	require.Nil(t, found.Semester)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentRepositoryReplaceSlotReturnsDisplacedPaths(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewDocumentRepository(db)
	semester, page := 2, 3
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("DELETE FROM documents WHERE student_id = $1 AND category = $2 AND semester = $3 AND page = $4 RETURNING file_path")).
		WithArgs("student-1", models.CategoryRapor, &semester, &page).
		WillReturnRows(sqlmock.NewRows([]string{"file_path"}).AddRow("documents/student-1/rapor-old.jpg"))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO documents")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	doc := &models.DocumentEntity{
		StudentID:  "student-1",
		Name:       "rapor-2-3.jpg",
		MediaKind:  models.MediaImage,
		FilePath:   "documents/student-1/rapor-2-3.jpg",
		Category:   models.CategoryRapor,
		Semester:   &semester,
		Page:       &page,
		Status:     models.DocumentStatusPending,
		SizeBytes:  1024,
		UploadedBy: "user-1",
	}
	displaced, err := repo.ReplaceSlot(context.Background(), doc)
	require.NoError(t, err)
	require.Equal(t, []string{"documents/student-1/rapor-old.jpg"}, displaced)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentRepositoryUpdateStatusGuardsPending(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewDocumentRepository(db)
	note := "foto buram, unggah ulang"
	mock.ExpectExec(regexp.QuoteMeta("UPDATE documents SET status = $2, review_note = $3 WHERE id = $1 AND status = 'PENDING'")).
		WithArgs("doc-1", models.DocumentStatusNeedsRevision, &note).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.UpdateStatus(context.Background(), "doc-1", models.DocumentStatusNeedsRevision, &note))

	// Already-reviewed or missing rows match nothing.
	mock.ExpectExec(regexp.QuoteMeta("UPDATE documents SET status = $2, review_note = $3 WHERE id = $1 AND status = 'PENDING'")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	err := repo.UpdateStatus(context.Background(), "doc-1", models.DocumentStatusApproved, nil)
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentRepositoryDeleteReturnsFilePath(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewDocumentRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("DELETE FROM documents WHERE id = $1 RETURNING file_path")).
		WithArgs("doc-1").
		WillReturnRows(sqlmock.NewRows([]string{"file_path"}).AddRow("documents/student-1/kia.pdf"))

	path, err := repo.DeleteByID(context.Background(), "doc-1")
	require.NoError(t, err)
	require.Equal(t, "documents/student-1/kia.pdf", path)
	require.NoError(t, mock.ExpectationsWereMet())
}
