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

var studentRowColumns = []string{
	"id", "nis", "nisn", "nik", "full_name", "gender", "birth_place", "birth_date", "phone",
	"address.street", "address.village", "address.district", "address.regency", "address.postal_code",
	"father.name", "father.nik", "father.occupation", "father.phone",
	"mother.name", "mother.nik", "mother.occupation", "mother.phone",
	"wali.name", "wali.nik", "wali.occupation", "wali.phone",
	"active", "created_at", "updated_at",
}

func TestStudentRepositoryFindByIDScansNestedStructs(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewStudentRepository(db)
	now := time.Now()
	rows := sqlmock.NewRows(studentRowColumns).AddRow(
		"student-1", "2024001", "0061234567", "3201010101010001", "Siti Rahma", "P", "Cianjur", now, "08123",
		"Kp. Pasirhuni", "Cipendawa", "Pacet", "Cianjur", "43253",
		"Dadang", "3201010101010002", "Petani", "08124",
		"Euis", "3201010101010003", "IRT", "",
		"", "", "", "",
		true, now, now,
	)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, nis, nisn, nik, full_name")).
		WithArgs("student-1").
		WillReturnRows(rows)

	record, err := repo.FindByID(context.Background(), "student-1")
	require.NoError(t, err)
	require.Equal(t, "Siti Rahma", record.FullName)
	require.Equal(t, "Dadang", record.Father.Name)
	require.Equal(t, "Cipendawa", record.Address.Village)
	require.Empty(t, record.Wali.Name)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryListWithSearch(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewStudentRepository(db)
	now := time.Now()
	rows := sqlmock.NewRows(studentRowColumns).AddRow(
		"student-1", "2024001", "0061234567", "", "Siti Rahma", "P", "", now, "",
		"", "", "", "", "",
		"", "", "", "",
		"", "", "", "",
		"", "", "", "",
		true, now, now,
	)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, nis, nisn, nik, full_name")).
		WithArgs("%siti%").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*)")).
		WithArgs("%siti%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	students, total, err := repo.List(context.Background(), models.StudentFilter{Search: "Siti"})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Len(t, students, 1)
	require.Equal(t, "student-1", students[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryCreateAssignsID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewStudentRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO students")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	record := &models.StudentRecord{
		NIS:      "2024001",
		NISN:     "0061234567",
		FullName: "Siti Rahma",
		Gender:   "P",
		Active:   true,
	}
	require.NoError(t, repo.Create(context.Background(), record))
	require.NotEmpty(t, record.ID)
	require.False(t, record.CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryDeactivate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewStudentRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE students SET active = false")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Deactivate(context.Background(), "student-1"))
	require.NoError(t, mock.ExpectationsWereMet())
}
