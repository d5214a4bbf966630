package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/smpn3pacet/database-siswa-api/internal/dto"
	"github.com/smpn3pacet/database-siswa-api/internal/models"
	appErrors "github.com/smpn3pacet/database-siswa-api/pkg/errors"
)

type studentStore interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.StudentRecord, int, error)
	FindByID(ctx context.Context, id string) (*models.StudentRecord, error)
	ExistsByNISN(ctx context.Context, nisn string, excludeID string) (bool, error)
	Create(ctx context.Context, record *models.StudentRecord) error
	Update(ctx context.Context, record *models.StudentRecord) error
	Deactivate(ctx context.Context, id string) error
}

type studentCorrectionLister interface {
	ListByStudent(ctx context.Context, studentID string) ([]models.CorrectionRequest, error)
}

type studentNotificationLister interface {
	ListByStudent(ctx context.Context, studentID string) ([]models.NotificationMessage, error)
}

type recordSummarizer interface {
	Summary(record *models.StudentRecord, semester int) dto.CompletenessSummary
}

// StudentService handles roster use-cases: listing with per-row completeness,
// full aggregate detail, intake, staff edits and deactivation.
type StudentService struct {
	repo          studentStore
	documents     completenessDocumentStore
	academics     completenessAcademicStore
	corrections   studentCorrectionLister
	notifications studentNotificationLister
	summaries     recordSummarizer
	reports       reportInvalidator
	validator     *validator.Validate
	logger        *zap.Logger
}

// NewStudentService constructs the student service.
func NewStudentService(
	repo studentStore,
	documents completenessDocumentStore,
	academics completenessAcademicStore,
	corrections studentCorrectionLister,
	notifications studentNotificationLister,
	summaries recordSummarizer,
	reports reportInvalidator,
	validate *validator.Validate,
	logger *zap.Logger,
) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{
		repo:          repo,
		documents:     documents,
		academics:     academics,
		corrections:   corrections,
		notifications: notifications,
		summaries:     summaries,
		reports:       reports,
		validator:     validate,
		logger:        logger,
	}
}

// List returns roster rows with pagination metadata. Each row carries the
// overall completeness percent for the requested semester.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter, semester int) (*dto.StudentListResponse, error) {
	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}

	items := make([]dto.StudentListItem, 0, len(students))
	for i := range students {
		record := &students[i]
		item := dto.StudentListItem{
			ID:       record.ID,
			NIS:      record.NIS,
			NISN:     record.NISN,
			FullName: record.FullName,
			Gender:   record.Gender,
			Active:   record.Active,
		}
		if s.summaries != nil {
			if err := s.loadAnalyzerInput(ctx, record); err != nil {
				return nil, err
			}
			summary := s.summaries.Summary(record, semester)
			item.Overall = summary.Overall
			item.GapCount = summary.GapCount
		}
		items = append(items, item)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	return &dto.StudentListResponse{
		Students:   items,
		Pagination: &models.Pagination{Page: page, PageSize: size, TotalCount: total},
	}, nil
}

// Detail returns the full aggregate of one student: scalars plus documents,
// corrections, notifications and academic records.
func (s *StudentService) Detail(ctx context.Context, id string) (*models.StudentRecord, error) {
	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if err := s.loadAnalyzerInput(ctx, record); err != nil {
		return nil, err
	}
	if s.corrections != nil {
		if record.Corrections, err = s.corrections.ListByStudent(ctx, id); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load corrections")
		}
	}
	if s.notifications != nil {
		if record.Notifications, err = s.notifications.ListByStudent(ctx, id); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load notifications")
		}
	}
	return record, nil
}

// Create registers a new student record at intake.
func (s *StudentService) Create(ctx context.Context, req dto.CreateStudentRequest) (*models.StudentRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	exists, err := s.repo.ExistsByNISN(ctx, req.NISN, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate nisn")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "nisn already registered")
	}

	record := &models.StudentRecord{
		NIS:        req.NIS,
		NISN:       req.NISN,
		NIK:        req.NIK,
		FullName:   req.FullName,
		Gender:     req.Gender,
		BirthPlace: req.BirthPlace,
		BirthDate:  req.BirthDate,
		Phone:      req.Phone,
		Address:    req.Address,
		Father:     req.Father,
		Mother:     req.Mother,
		Wali:       req.Wali,
		Active:     true,
	}
	if err := s.repo.Create(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}
	return record, nil
}

// Update applies a staff-side direct edit. Last write wins; the correction
// workflow is the audited path for contested fields.
func (s *StudentService) Update(ctx context.Context, id string, req dto.UpdateStudentRequest) (*models.StudentRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	if req.NIK != nil {
		record.NIK = *req.NIK
	}
	if req.FullName != nil {
		record.FullName = *req.FullName
	}
	if req.Gender != nil {
		record.Gender = *req.Gender
	}
	if req.BirthPlace != nil {
		record.BirthPlace = *req.BirthPlace
	}
	if req.BirthDate != nil {
		record.BirthDate = *req.BirthDate
	}
	if req.Phone != nil {
		record.Phone = *req.Phone
	}
	if req.Address != nil {
		record.Address = *req.Address
	}
	if req.Father != nil {
		record.Father = *req.Father
	}
	if req.Mother != nil {
		record.Mother = *req.Mother
	}
	if req.Wali != nil {
		record.Wali = *req.Wali
	}

	if err := s.repo.Update(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
	}
	if s.reports != nil {
		s.reports.Invalidate(ctx, id)
	}
	return record, nil
}

// Deactivate retires a student record keeping all history.
func (s *StudentService) Deactivate(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.ErrNotFound
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate student")
	}
	if s.reports != nil {
		s.reports.Invalidate(ctx, id)
	}
	return nil
}

func (s *StudentService) loadAnalyzerInput(ctx context.Context, record *models.StudentRecord) error {
	var err error
	if s.documents != nil {
		if record.Documents, err = s.documents.ListByStudent(ctx, record.ID); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load documents")
		}
	}
	if s.academics != nil {
		if record.AcademicRecords, err = s.academics.ListByStudent(ctx, record.ID); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load academic records")
		}
	}
	return nil
}
