package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/smpn3pacet/database-siswa-api/internal/models"
	appErrors "github.com/smpn3pacet/database-siswa-api/pkg/errors"
	"github.com/smpn3pacet/database-siswa-api/pkg/export"
)

var (
	recapHeaders = []string{"NIS", "NISN", "Nama", "Biodata", "Nilai", "Berkas", "Rapor", "Total"}
	recapNumeric = map[string]bool{"Biodata": true, "Nilai": true, "Berkas": true, "Rapor": true, "Total": true}
)

// ExportResult bundles rendered bytes with response metadata.
type ExportResult struct {
	Content     []byte
	Filename    string
	ContentType string
}

type exportArchive interface {
	Save(filename string, data []byte) (string, error)
}

// ExportService renders the completeness recap for one semester as CSV or
// PDF, one row per active student. Rendered files are archived for the
// school's records; the archive has its own retention sweep.
type ExportService struct {
	students  studentStore
	documents completenessDocumentStore
	academics completenessAcademicStore
	summaries recordSummarizer
	archive   exportArchive
	csv       *export.CSVExporter
	pdf       *export.PDFExporter
	logger    *zap.Logger
}

// NewExportService constructs the service. Archive is optional.
func NewExportService(
	students studentStore,
	documents completenessDocumentStore,
	academics completenessAcademicStore,
	summaries recordSummarizer,
	archive exportArchive,
	logger *zap.Logger,
) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		students:  students,
		documents: documents,
		academics: academics,
		summaries: summaries,
		archive:   archive,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		logger:    logger,
	}
}

// CompletenessRecap renders the per-student category percentages for one
// semester. Format is "csv" or "pdf".
func (s *ExportService) CompletenessRecap(ctx context.Context, semester int, format string) (*ExportResult, error) {
	if semester < models.SemesterMin || semester > models.SemesterMax {
		return nil, appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("semester must be between %d and %d", models.SemesterMin, models.SemesterMax))
	}
	format = strings.ToLower(strings.TrimSpace(format))
	if format != "csv" && format != "pdf" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}

	active := true
	students, _, err := s.students.List(ctx, models.StudentFilter{
		Active:   &active,
		Page:     1,
		PageSize: 100,
		SortBy:   "full_name",
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}

	dataset := export.Dataset{
		Title:    fmt.Sprintf("Rekap Kelengkapan Data Semester %d", semester),
		Subtitle: fmt.Sprintf("SMPN 3 Pacet, %d siswa aktif", len(students)),
		Headers:  recapHeaders,
		Numeric:  recapNumeric,
	}
	for i := range students {
		record := &students[i]
		if record.Documents, err = s.documents.ListByStudent(ctx, record.ID); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load documents")
		}
		if record.AcademicRecords, err = s.academics.ListByStudent(ctx, record.ID); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load academic records")
		}
		summary := s.summaries.Summary(record, semester)
		dataset.Rows = append(dataset.Rows, map[string]string{
			"NIS":     summary.NIS,
			"NISN":    summary.NISN,
			"Nama":    summary.FullName,
			"Biodata": strconv.Itoa(summary.Biographical),
			"Nilai":   strconv.Itoa(summary.Grades),
			"Berkas":  strconv.Itoa(summary.Documents),
			"Rapor":   strconv.Itoa(summary.Rapor),
			"Total":   strconv.Itoa(summary.Overall),
		})
	}

	stamp := time.Now().UTC().Format("20060102")
	result := &ExportResult{
		Filename:    fmt.Sprintf("rekap-kelengkapan-semester-%d-%s.%s", semester, stamp, format),
		ContentType: "application/pdf",
	}
	if format == "csv" {
		result.ContentType = "text/csv"
		if result.Content, err = s.csv.Render(dataset); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv recap")
		}
	} else {
		if result.Content, err = s.pdf.Render(dataset); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf recap")
		}
	}

	// Archive copy is best effort; the response already carries the bytes.
	if s.archive != nil {
		if _, err := s.archive.Save(result.Filename, result.Content); err != nil {
			s.logger.Warn("failed to archive recap export", zap.Error(err), zap.String("filename", result.Filename))
		}
	}
	return result, nil
}
