package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/smpn3pacet/database-siswa-api/internal/dto"
	"github.com/smpn3pacet/database-siswa-api/internal/models"
	appErrors "github.com/smpn3pacet/database-siswa-api/pkg/errors"
)

type documentStore interface {
	Insert(ctx context.Context, doc *models.DocumentEntity) error
	ReplaceSlot(ctx context.Context, doc *models.DocumentEntity) ([]string, error)
	GetByID(ctx context.Context, id string) (*models.DocumentEntity, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.DocumentEntity, error)
	UpdateStatus(ctx context.Context, id string, status models.DocumentStatus, note *string) error
	DeleteByID(ctx context.Context, id string) (string, error)
}

type documentStudentStore interface {
	FindByID(ctx context.Context, id string) (*models.StudentRecord, error)
}

type documentFileStorage interface {
	SaveStream(filename string, r io.Reader) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
}

type documentSignedURLSigner interface {
	Generate(id, relPath string) (string, time.Time, error)
	Parse(token string, allowExpired bool) (id, relPath string, expiresAt time.Time, err error)
}

// DocumentUpload carries upload metadata and the stream reader.
type DocumentUpload struct {
	Filename string
	Size     int64
	MimeType string
	Content  io.ReadSeeker
}

// DocumentDownload bundles file reader metadata for streaming.
type DocumentDownload struct {
	File      *os.File
	Filename  string
	MediaKind models.MediaKind
	SizeBytes int64
	ExpiresAt time.Time
}

// DocumentServiceConfig holds validation parameters.
type DocumentServiceConfig struct {
	MaxFileSize  int64
	AllowedMIMEs []string
	APIPrefix    string
}

// DocumentService owns the per-student document registry and its
// verification state machine. Uploads replace whatever occupies the target
// slot; the initial status is a pure function of the upload originator.
type DocumentService struct {
	repo     documentStore
	students documentStudentStore
	storage  documentFileStorage
	signer   documentSignedURLSigner
	audit    auditLogger
	reports  reportInvalidator
	logger   *zap.Logger
	cfg      DocumentServiceConfig
	mimeSet  map[string]struct{}
}

// NewDocumentService constructs the service with defaults.
func NewDocumentService(
	repo documentStore,
	students documentStudentStore,
	storage documentFileStorage,
	signer documentSignedURLSigner,
	audit auditLogger,
	reports reportInvalidator,
	logger *zap.Logger,
	cfg DocumentServiceConfig,
) *DocumentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = 5 * 1024 * 1024
	}
	if len(cfg.AllowedMIMEs) == 0 {
		cfg.AllowedMIMEs = []string{"application/pdf", "image/jpeg", "image/png", "image/webp"}
	}
	if cfg.APIPrefix == "" {
		cfg.APIPrefix = "/api/v1"
	}
	mimeSet := make(map[string]struct{}, len(cfg.AllowedMIMEs))
	for _, mt := range cfg.AllowedMIMEs {
		mimeSet[strings.ToLower(mt)] = struct{}{}
	}
	return &DocumentService{
		repo:     repo,
		students: students,
		storage:  storage,
		signer:   signer,
		audit:    audit,
		reports:  reports,
		logger:   logger,
		cfg:      cfg,
		mimeSet:  mimeSet,
	}
}

// Upload stores a new document into its slot. Non-rapor categories key on the
// category alone; rapor keys on {semester, page}. Whatever occupied the slot
// is removed, metadata and file both. Staff uploads start APPROVED,
// self-service uploads start PENDING.
func (s *DocumentService) Upload(ctx context.Context, studentID string, meta dto.UploadDocumentRequest, upload DocumentUpload, originator models.UploadOriginator, uploadedBy string) (*models.DocumentEntity, error) {
	if err := s.validateSlot(meta); err != nil {
		return nil, err
	}
	if upload.Content == nil || upload.Size <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "file is required")
	}
	if upload.Size > s.cfg.MaxFileSize {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("file exceeds %d bytes limit", s.cfg.MaxFileSize))
	}
	if _, err := s.students.FindByID(ctx, studentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	mimeType, err := s.detectMime(upload)
	if err != nil {
		return nil, err
	}
	if _, allowed := s.mimeSet[strings.ToLower(mimeType)]; !allowed {
		return nil, appErrors.Clone(appErrors.ErrValidation, "mime type not allowed")
	}

	filename := s.generateFilename(studentID, meta, upload.Filename, mimeType)
	if _, err := upload.Content.Seek(0, io.SeekStart); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reset upload stream")
	}
	path, err := s.storage.SaveStream(filename, upload.Content)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist document file")
	}

	name := strings.TrimSpace(meta.Name)
	if name == "" {
		name = upload.Filename
	}
	doc := &models.DocumentEntity{
		StudentID:  studentID,
		Name:       name,
		MediaKind:  mediaKindFromMime(mimeType),
		FilePath:   path,
		Category:   meta.Category,
		Semester:   meta.Semester,
		Page:       meta.Page,
		Status:     originator.InitialStatus(),
		SizeBytes:  upload.Size,
		UploadedBy: uploadedBy,
	}
	displaced, err := s.repo.ReplaceSlot(ctx, doc)
	if err != nil {
		_ = s.storage.Delete(path)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store document")
	}
	for _, old := range displaced {
		if err := s.storage.Delete(old); err != nil {
			s.logger.Warn("failed to remove displaced document file", zap.Error(err), zap.String("path", old))
		}
	}

	if s.reports != nil {
		s.reports.Invalidate(ctx, studentID)
	}
	s.emitAudit(ctx, &models.AuditLog{
		UserID:     &uploadedBy,
		Action:     models.AuditActionDocumentUpload,
		Resource:   "document",
		ResourceID: &doc.ID,
		NewValues:  mustJSON(map[string]string{"category": string(doc.Category), "status": string(doc.Status)}),
	})
	return doc, nil
}

// ListByStudent returns the registry of one student.
func (s *DocumentService) ListByStudent(ctx context.Context, studentID string) ([]models.DocumentEntity, error) {
	docs, err := s.repo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list documents")
	}
	return docs, nil
}

// Get returns one document by id.
func (s *DocumentService) Get(ctx context.Context, id string) (*models.DocumentEntity, error) {
	doc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load document")
	}
	return doc, nil
}

// Approve marks a document verified. Any prior review note is cleared.
func (s *DocumentService) Approve(ctx context.Context, id string, reviewer string) (*models.DocumentEntity, error) {
	return s.review(ctx, id, models.DocumentStatusApproved, nil, reviewer)
}

// RequestRevision flags a document for re-upload with a mandatory note.
func (s *DocumentService) RequestRevision(ctx context.Context, id, note, reviewer string) (*models.DocumentEntity, error) {
	trimmed := strings.TrimSpace(note)
	if trimmed == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "revision note is required")
	}
	return s.review(ctx, id, models.DocumentStatusNeedsRevision, &trimmed, reviewer)
}

func (s *DocumentService) review(ctx context.Context, id string, status models.DocumentStatus, note *string, reviewer string) (*models.DocumentEntity, error) {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc.Status != models.DocumentStatusPending {
		return nil, appErrors.Clone(appErrors.ErrStateConflict, "document already reviewed")
	}
	if err := s.repo.UpdateStatus(ctx, id, status, note); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrStateConflict, "document already reviewed")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update document status")
	}
	doc.Status = status
	doc.ReviewNote = note

	s.emitAudit(ctx, &models.AuditLog{
		UserID:     &reviewer,
		Action:     models.AuditActionDocumentReview,
		Resource:   "document",
		ResourceID: &doc.ID,
		NewValues:  mustJSON(map[string]string{"status": string(status)}),
	})
	return doc, nil
}

// Remove deletes a document and its stored file. Removing an APPROVED
// document is a guarded transition reserved for admins; a missing id is a
// silent no-op since delete races from the UI are expected.
func (s *DocumentService) Remove(ctx context.Context, id string, actor *models.JWTClaims) error {
	if actor == nil {
		return appErrors.ErrUnauthorized
	}
	doc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load document")
	}
	if doc.Status == models.DocumentStatusApproved && actor.Role != models.RoleAdmin {
		return appErrors.Clone(appErrors.ErrForbidden, "approved documents can only be removed by an admin")
	}

	path, err := s.repo.DeleteByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete document")
	}
	if err := s.storage.Delete(path); err != nil {
		s.logger.Warn("failed to remove document file", zap.Error(err), zap.String("path", path))
	}

	if s.reports != nil {
		s.reports.Invalidate(ctx, doc.StudentID)
	}
	s.emitAudit(ctx, &models.AuditLog{
		UserID:     &actor.UserID,
		Action:     models.AuditActionDocumentDelete,
		Resource:   "document",
		ResourceID: &id,
		OldValues:  mustJSON(map[string]string{"category": string(doc.Category), "status": string(doc.Status)}),
	})
	return nil
}

// GetDownloadURL generates a signed URL for downloading the file.
func (s *DocumentService) GetDownloadURL(ctx context.Context, id string) (*dto.DocumentDownloadResponse, error) {
	if s.signer == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "download signer unavailable")
	}
	doc, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	token, expiresAt, err := s.signer.Generate(doc.ID, doc.FilePath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate download token")
	}
	base := strings.TrimRight(s.cfg.APIPrefix, "/")
	return &dto.DocumentDownloadResponse{
		URL:       fmt.Sprintf("%s/documents/%s/download?token=%s", base, doc.ID, token),
		ExpiresIn: int64(time.Until(expiresAt).Seconds()),
	}, nil
}

// Download validates the token and opens the stored file.
func (s *DocumentService) Download(ctx context.Context, id, token string) (*DocumentDownload, error) {
	if s.signer == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "download signer unavailable")
	}
	doc, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	docID, relPath, expiresAt, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired token")
	}
	if docID != doc.ID || relPath != doc.FilePath {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "token mismatch")
	}
	file, err := s.storage.Open(relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open document file")
	}
	info, err := file.Stat()
	if err != nil {
		file.Close() //nolint:errcheck
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read document metadata")
	}
	return &DocumentDownload{
		File:      file,
		Filename:  filepath.Base(relPath),
		MediaKind: doc.MediaKind,
		SizeBytes: info.Size(),
		ExpiresAt: expiresAt,
	}, nil
}

func (s *DocumentService) validateSlot(meta dto.UploadDocumentRequest) error {
	if !models.ValidCategory(meta.Category) {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown document category: %s", meta.Category))
	}
	if meta.Category == models.CategoryRapor {
		if meta.Semester == nil || meta.Page == nil {
			return appErrors.Clone(appErrors.ErrValidation, "semester and page are required for rapor uploads")
		}
		if *meta.Semester < models.SemesterMin || *meta.Semester > models.SemesterMax {
			return appErrors.Clone(appErrors.ErrValidation,
				fmt.Sprintf("semester must be between %d and %d", models.SemesterMin, models.SemesterMax))
		}
		if *meta.Page < 1 || *meta.Page > models.RaporPagesPerSemester {
			return appErrors.Clone(appErrors.ErrValidation,
				fmt.Sprintf("page must be between 1 and %d", models.RaporPagesPerSemester))
		}
		return nil
	}
	if meta.Semester != nil || meta.Page != nil {
		return appErrors.Clone(appErrors.ErrValidation, "semester and page apply to rapor uploads only")
	}
	return nil
}

func (s *DocumentService) detectMime(upload DocumentUpload) (string, error) {
	if upload.Content == nil {
		return "", appErrors.Clone(appErrors.ErrValidation, "file reader missing")
	}
	if upload.MimeType != "" {
		return upload.MimeType, nil
	}
	header := make([]byte, 512)
	n, err := upload.Content.Read(header)
	if err != nil && err != io.EOF {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to inspect file")
	}
	if _, err := upload.Content.Seek(0, io.SeekStart); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reset upload stream")
	}
	if n == 0 {
		return "", appErrors.Clone(appErrors.ErrValidation, "empty file")
	}
	return http.DetectContentType(header[:n]), nil
}

func (s *DocumentService) generateFilename(studentID string, meta dto.UploadDocumentRequest, original, mimeType string) string {
	ext := strings.ToLower(filepath.Ext(original))
	if ext == "" {
		ext = mimeExtension(mimeType)
	}
	slot := strings.ToLower(string(meta.Category))
	if meta.Category == models.CategoryRapor && meta.Semester != nil && meta.Page != nil {
		slot = fmt.Sprintf("%s-%d-%d", slot, *meta.Semester, *meta.Page)
	}
	return filepath.Join("documents", studentID, fmt.Sprintf("%s-%s%s", slot, uuid.NewString(), ext))
}

func mediaKindFromMime(mimeType string) models.MediaKind {
	if strings.Contains(strings.ToLower(mimeType), "pdf") {
		return models.MediaPDF
	}
	return models.MediaImage
}

func mimeExtension(mimeType string) string {
	switch strings.ToLower(mimeType) {
	case "application/pdf":
		return ".pdf"
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	default:
		return ".bin"
	}
}

func (s *DocumentService) emitAudit(ctx context.Context, entry *models.AuditLog) {
	if s.audit == nil || entry == nil {
		return
	}
	entry.IPAddress = "system"
	entry.UserAgent = "document-service"
	if err := s.audit.Insert(ctx, entry); err != nil {
		s.logger.Warn("failed to persist audit log", zap.Error(err))
	}
}
