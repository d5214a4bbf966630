package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/smpn3pacet/database-siswa-api/internal/models"
	appErrors "github.com/smpn3pacet/database-siswa-api/pkg/errors"
)

func intPtr(v int) *int { return &v }

func analyzerFixture() *models.StudentRecord {
	record := &models.StudentRecord{ID: "student-1", NIS: "2024001", NISN: "0061234567", FullName: "Siti Rahma"}
	record.Address.Street = "Kp. Pasirhuni RT 02"
	record.Father.Name = "Nama Ayah"
	record.Mother.Name = "Nama Ibu"
	return record
}

func TestAnalyzeIncompleteRecord(t *testing.T) {
	svc := NewCompletenessService(nil, nil, nil, nil, false, 0, nil)
	record := analyzerFixture()

	report := svc.Analyze(record, 1)

	// NIK empty plus both guardian placeholders leave 2 of 5 checks filled.
	require.Equal(t, 40, report.Biographical.Percent)
	require.Len(t, report.FieldGaps, 3)
	require.Equal(t, 0, report.Grades.Percent)
	require.Equal(t, 0, report.Documents.Percent)
	require.Len(t, report.DocumentGaps, len(models.RequiredDocumentCategories))
	require.Equal(t, 0, report.Rapor.Percent)
	require.Equal(t, 10, report.Overall)
}

func TestAnalyzeCompleteRecord(t *testing.T) {
	svc := NewCompletenessService(nil, nil, nil, nil, false, 0, nil)
	record := analyzerFixture()
	record.NIK = "3201010101010001"
	record.Father.Name = "Dadang"
	record.Mother.Name = "Euis"
	record.AcademicRecords = map[int]*models.AcademicRecord{
		2: {Semester: 2, Subjects: []models.SubjectGrade{{Subject: "Matematika", Knowledge: 85, Skill: 80}}},
	}
	for _, category := range models.RequiredDocumentCategories {
		record.Documents = append(record.Documents, models.DocumentEntity{
			StudentID: record.ID,
			Category:  category,
			Status:    models.DocumentStatusPending,
		})
	}
	for page := 1; page <= models.RaporPagesPerSemester; page++ {
		record.Documents = append(record.Documents, models.DocumentEntity{
			StudentID: record.ID,
			Category:  models.CategoryRapor,
			Semester:  intPtr(2),
			Page:      intPtr(page),
			Status:    models.DocumentStatusNeedsRevision,
		})
	}

	report := svc.Analyze(record, 2)

	// Presence counts regardless of verification status.
	require.Equal(t, 100, report.Biographical.Percent)
	require.Equal(t, 100, report.Grades.Percent)
	require.Equal(t, 100, report.Documents.Percent)
	require.Equal(t, 100, report.Rapor.Percent)
	require.Equal(t, 100, report.Overall)
	require.Empty(t, report.FieldGaps)
	require.Empty(t, report.DocumentGaps)
	require.Nil(t, report.RaporGap)
}

func TestAnalyzePercentGranularity(t *testing.T) {
	svc := NewCompletenessService(nil, nil, nil, nil, false, 0, nil)
	record := analyzerFixture()
	record.Documents = []models.DocumentEntity{
		{StudentID: record.ID, Category: models.CategoryAktaKelahiran, Status: models.DocumentStatusPending},
		{StudentID: record.ID, Category: models.CategoryRapor, Semester: intPtr(1), Page: intPtr(1), Status: models.DocumentStatusPending},
		{StudentID: record.ID, Category: models.CategoryRapor, Semester: intPtr(1), Page: intPtr(2), Status: models.DocumentStatusPending},
	}

	report := svc.Analyze(record, 1)

	require.Equal(t, 17, report.Documents.Percent)
	require.Equal(t, 40, report.Rapor.Percent)
	require.NotNil(t, report.RaporGap)
	require.Equal(t, []int{3, 4, 5}, report.RaporGap.MissingPages)
	for _, percent := range []int{report.Biographical.Percent, report.Grades.Percent, report.Documents.Percent, report.Rapor.Percent, report.Overall} {
		require.GreaterOrEqual(t, percent, 0)
		require.LessOrEqual(t, percent, 100)
	}
}

type memoryCache struct {
	values map[string][]byte
	sets   int
}

func (c *memoryCache) Get(_ context.Context, key string, dest interface{}) error {
	raw, ok := c.values[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (c *memoryCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if c.values == nil {
		c.values = map[string][]byte{}
	}
	c.values[key] = raw
	c.sets++
	return nil
}

func (c *memoryCache) DeleteByPattern(_ context.Context, _ string) error {
	c.values = map[string][]byte{}
	return nil
}

func TestReportUsesCache(t *testing.T) {
	record := analyzerFixture()
	students := newStubStudentStore(record)
	documents := newStubDocumentStore()
	academics := newStubAcademicStore()
	cache := &memoryCache{}

	svc := NewCompletenessService(students, documents, academics, cache, true, time.Minute, nil)

	first, err := svc.Report(context.Background(), record.ID, 1)
	require.NoError(t, err)
	require.Equal(t, 40, first.Biographical.Percent)
	require.Equal(t, 1, cache.sets)

	second, err := svc.Report(context.Background(), record.ID, 1)
	require.NoError(t, err)
	require.Equal(t, first.Overall, second.Overall)
	require.Equal(t, 1, cache.sets)

	svc.Invalidate(context.Background(), record.ID)
	_, err = svc.Report(context.Background(), record.ID, 1)
	require.NoError(t, err)
	require.Equal(t, 2, cache.sets)
}

func TestReportValidatesSemester(t *testing.T) {
	svc := NewCompletenessService(newStubStudentStore(), newStubDocumentStore(), newStubAcademicStore(), nil, false, 0, nil)
	_, err := svc.Report(context.Background(), "student-1", 0)
	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
