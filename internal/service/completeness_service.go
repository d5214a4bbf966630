package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/smpn3pacet/database-siswa-api/internal/dto"
	"github.com/smpn3pacet/database-siswa-api/internal/fieldpath"
	"github.com/smpn3pacet/database-siswa-api/internal/models"
	appErrors "github.com/smpn3pacet/database-siswa-api/pkg/errors"
)

// biographicalChecks are the five equally weighted scalar checks, paired with
// the field path reported when the check fails.
var biographicalChecks = []struct {
	path  string
	value func(*models.StudentRecord) string
}{
	{"nisn", func(r *models.StudentRecord) string { return r.NISN }},
	{"nik", func(r *models.StudentRecord) string { return r.NIK }},
	{"address.street", func(r *models.StudentRecord) string { return r.Address.Street }},
	{"father.name", func(r *models.StudentRecord) string { return r.Father.Name }},
	{"mother.name", func(r *models.StudentRecord) string { return r.Mother.Name }},
}

type completenessStudentStore interface {
	FindByID(ctx context.Context, id string) (*models.StudentRecord, error)
}

type completenessDocumentStore interface {
	ListByStudent(ctx context.Context, studentID string) ([]models.DocumentEntity, error)
}

type completenessAcademicStore interface {
	ListByStudent(ctx context.Context, studentID string) (map[int]*models.AcademicRecord, error)
}

type reportCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// CompletenessService computes record completeness. Analyze is pure over an
// assembled record; Report loads the aggregate and caches the result.
type CompletenessService struct {
	students  completenessStudentStore
	documents completenessDocumentStore
	academics completenessAcademicStore
	cache     reportCache

	cacheEnabled bool
	cacheTTL     time.Duration
	logger       *zap.Logger
}

// NewCompletenessService constructs the service. Cache is optional.
func NewCompletenessService(
	students completenessStudentStore,
	documents completenessDocumentStore,
	academics completenessAcademicStore,
	cache reportCache,
	cacheEnabled bool,
	cacheTTL time.Duration,
	logger *zap.Logger,
) *CompletenessService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 10 * time.Minute
	}
	return &CompletenessService{
		students:     students,
		documents:    documents,
		academics:    academics,
		cache:        cache,
		cacheEnabled: cacheEnabled && cache != nil,
		cacheTTL:     cacheTTL,
		logger:       logger,
	}
}

// Analyze scores one student record against the fixed requirement sets for
// the given semester. Pure: no I/O, the record must carry its collections.
func (s *CompletenessService) Analyze(record *models.StudentRecord, semester int) dto.CompletenessReport {
	report := dto.CompletenessReport{
		StudentID:   record.ID,
		Semester:    semester,
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
	}

	filled := 0
	for _, check := range biographicalChecks {
		if models.IsPlaceholder(check.value(record)) {
			report.FieldGaps = append(report.FieldGaps, dto.FieldGap{
				FieldPath: check.path,
				Label:     fieldpath.Label(check.path),
			})
			continue
		}
		filled++
	}
	report.Biographical = score(filled, len(biographicalChecks))

	gradesFilled := 0
	if rec, ok := record.AcademicRecords[semester]; ok && rec != nil && len(rec.Subjects) > 0 {
		gradesFilled = 1
	}
	report.Grades = score(gradesFilled, 1)

	present := 0
	for _, category := range models.RequiredDocumentCategories {
		if models.FindDocumentByCategory(record.Documents, category) != nil {
			present++
			continue
		}
		report.DocumentGaps = append(report.DocumentGaps, dto.DocumentGap{
			Category: string(category),
			Label:    models.CategoryLabels[category],
		})
	}
	report.Documents = score(present, len(models.RequiredDocumentCategories))

	uploaded := models.CountRaporPages(record.Documents, semester)
	if uploaded > models.RaporPagesPerSemester {
		uploaded = models.RaporPagesPerSemester
	}
	report.Rapor = score(uploaded, models.RaporPagesPerSemester)
	if uploaded < models.RaporPagesPerSemester {
		var missing []int
		for page := 1; page <= models.RaporPagesPerSemester; page++ {
			if models.FindRaporPage(record.Documents, semester, page) == nil {
				missing = append(missing, page)
			}
		}
		report.RaporGap = &dto.RaporGap{
			Semester:     semester,
			Uploaded:     uploaded,
			Expected:     models.RaporPagesPerSemester,
			MissingPages: missing,
		}
	}

	report.Overall = roundMean(
		report.Biographical.Percent,
		report.Grades.Percent,
		report.Documents.Percent,
		report.Rapor.Percent,
	)
	return report
}

// Summary reduces a report to the row used in listings and exports.
func (s *CompletenessService) Summary(record *models.StudentRecord, semester int) dto.CompletenessSummary {
	report := s.Analyze(record, semester)
	gapCount := len(report.FieldGaps) + len(report.DocumentGaps)
	if report.RaporGap != nil {
		gapCount += report.RaporGap.Expected - report.RaporGap.Uploaded
	}
	if report.Grades.Percent == 0 {
		gapCount++
	}
	return dto.CompletenessSummary{
		StudentID:    record.ID,
		NIS:          record.NIS,
		NISN:         record.NISN,
		FullName:     record.FullName,
		Biographical: report.Biographical.Percent,
		Grades:       report.Grades.Percent,
		Documents:    report.Documents.Percent,
		Rapor:        report.Rapor.Percent,
		Overall:      report.Overall,
		GapCount:     gapCount,
	}
}

// Report loads the aggregate, runs the analyzer and caches the outcome.
func (s *CompletenessService) Report(ctx context.Context, studentID string, semester int) (*dto.CompletenessReport, error) {
	if semester < models.SemesterMin || semester > models.SemesterMax {
		return nil, appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("semester must be between %d and %d", models.SemesterMin, models.SemesterMax))
	}

	key := completenessCacheKey(studentID, semester)
	if s.cacheEnabled {
		var cached dto.CompletenessReport
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return &cached, nil
		} else if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("completeness cache read failed", zap.Error(err))
		}
	}

	record, err := s.loadAggregate(ctx, studentID)
	if err != nil {
		return nil, err
	}
	report := s.Analyze(record, semester)

	if s.cacheEnabled {
		if err := s.cache.Set(ctx, key, report, s.cacheTTL); err != nil {
			s.logger.Warn("completeness cache write failed", zap.Error(err))
		}
	}
	return &report, nil
}

// Invalidate drops all cached reports of one student. Called after any
// mutation of the record, its documents or its corrections.
func (s *CompletenessService) Invalidate(ctx context.Context, studentID string) {
	if !s.cacheEnabled {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, fmt.Sprintf("completeness:%s:*", studentID)); err != nil {
		s.logger.Warn("completeness cache invalidation failed", zap.Error(err), zap.String("student_id", studentID))
	}
}

func (s *CompletenessService) loadAggregate(ctx context.Context, studentID string) (*models.StudentRecord, error) {
	record, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if record.Documents, err = s.documents.ListByStudent(ctx, studentID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load documents")
	}
	if record.AcademicRecords, err = s.academics.ListByStudent(ctx, studentID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load academic records")
	}
	return record, nil
}

func completenessCacheKey(studentID string, semester int) string {
	return fmt.Sprintf("completeness:%s:%d", studentID, semester)
}

func score(filled, total int) dto.CategoryScore {
	if total <= 0 {
		return dto.CategoryScore{Percent: 100}
	}
	return dto.CategoryScore{
		Percent: int(math.Round(float64(filled) / float64(total) * 100)),
		Filled:  filled,
		Total:   total,
	}
}

func roundMean(values ...int) int {
	if len(values) == 0 {
		return 0
	}
	sum := 0
	for _, v := range values {
		sum += v
	}
	return int(math.Round(float64(sum) / float64(len(values))))
}
