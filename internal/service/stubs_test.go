package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/smpn3pacet/database-siswa-api/internal/models"
	"github.com/smpn3pacet/database-siswa-api/internal/repository"
	"github.com/smpn3pacet/database-siswa-api/pkg/jobs"
)

// In-memory stores shared by the service tests.

type stubStudentStore struct {
	records map[string]*models.StudentRecord
	updated int
}

func newStubStudentStore(records ...*models.StudentRecord) *stubStudentStore {
	store := &stubStudentStore{records: map[string]*models.StudentRecord{}}
	for _, r := range records {
		if r.ID == "" {
			r.ID = uuid.NewString()
		}
		store.records[r.ID] = r
	}
	return store
}

func (s *stubStudentStore) FindByID(_ context.Context, id string) (*models.StudentRecord, error) {
	record, ok := s.records[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *record
	return &clone, nil
}

func (s *stubStudentStore) Update(_ context.Context, record *models.StudentRecord) error {
	clone := *record
	s.records[record.ID] = &clone
	s.updated++
	return nil
}

func (s *stubStudentStore) List(_ context.Context, _ models.StudentFilter) ([]models.StudentRecord, int, error) {
	out := make([]models.StudentRecord, 0, len(s.records))
	for _, r := range s.records {
		out = append(out, *r)
	}
	return out, len(out), nil
}

func (s *stubStudentStore) ExistsByNISN(_ context.Context, nisn, excludeID string) (bool, error) {
	for _, r := range s.records {
		if r.NISN == nisn && r.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (s *stubStudentStore) Create(_ context.Context, record *models.StudentRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	clone := *record
	s.records[record.ID] = &clone
	return nil
}

func (s *stubStudentStore) Deactivate(_ context.Context, id string) error {
	if record, ok := s.records[id]; ok {
		record.Active = false
	}
	return nil
}

type stubCorrectionStore struct {
	items map[string]*models.CorrectionRequest
}

func newStubCorrectionStore() *stubCorrectionStore {
	return &stubCorrectionStore{items: map[string]*models.CorrectionRequest{}}
}

func (s *stubCorrectionStore) Create(_ context.Context, correction *models.CorrectionRequest) error {
	for id, existing := range s.items {
		if existing.StudentID == correction.StudentID &&
			existing.FieldPath == correction.FieldPath &&
			existing.Status == models.CorrectionStatusPending {
			delete(s.items, id)
		}
	}
	if correction.ID == "" {
		correction.ID = uuid.NewString()
	}
	if correction.SubmittedAt.IsZero() {
		correction.SubmittedAt = time.Now().UTC()
	}
	clone := *correction
	s.items[correction.ID] = &clone
	return nil
}

func (s *stubCorrectionStore) GetByID(_ context.Context, id string) (*models.CorrectionRequest, error) {
	correction, ok := s.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *correction
	return &clone, nil
}

func (s *stubCorrectionStore) ListByStudent(_ context.Context, studentID string) ([]models.CorrectionRequest, error) {
	out := make([]models.CorrectionRequest, 0)
	for _, c := range s.items {
		if c.StudentID == studentID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (s *stubCorrectionStore) ListPending(_ context.Context) ([]models.CorrectionRequest, error) {
	out := make([]models.CorrectionRequest, 0)
	for _, c := range s.items {
		if c.Status == models.CorrectionStatusPending {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (s *stubCorrectionStore) UpdateStatus(_ context.Context, params repository.UpdateReviewParams) error {
	correction, ok := s.items[params.ID]
	if !ok || correction.Status != models.CorrectionStatusPending {
		return sql.ErrNoRows
	}
	correction.Status = params.Status
	correction.ReviewedBy = &params.ReviewedBy
	processedAt := params.ProcessedAt
	correction.ProcessedAt = &processedAt
	correction.Note = params.Note
	return nil
}

type stubDocumentStore struct {
	items map[string]*models.DocumentEntity
}

func newStubDocumentStore() *stubDocumentStore {
	return &stubDocumentStore{items: map[string]*models.DocumentEntity{}}
}

func (s *stubDocumentStore) Insert(_ context.Context, doc *models.DocumentEntity) error {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if doc.UploadedAt.IsZero() {
		doc.UploadedAt = time.Now().UTC()
	}
	clone := *doc
	s.items[doc.ID] = &clone
	return nil
}

func (s *stubDocumentStore) ReplaceSlot(ctx context.Context, doc *models.DocumentEntity) ([]string, error) {
	var displaced []string
	for id, existing := range s.items {
		if existing.StudentID == doc.StudentID && existing.SameSlot(*doc) {
			displaced = append(displaced, existing.FilePath)
			delete(s.items, id)
		}
	}
	if err := s.Insert(ctx, doc); err != nil {
		return nil, err
	}
	return displaced, nil
}

func (s *stubDocumentStore) GetByID(_ context.Context, id string) (*models.DocumentEntity, error) {
	doc, ok := s.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *doc
	return &clone, nil
}

func (s *stubDocumentStore) ListByStudent(_ context.Context, studentID string) ([]models.DocumentEntity, error) {
	out := make([]models.DocumentEntity, 0)
	for _, d := range s.items {
		if d.StudentID == studentID {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (s *stubDocumentStore) UpdateStatus(_ context.Context, id string, status models.DocumentStatus, note *string) error {
	doc, ok := s.items[id]
	if !ok || doc.Status != models.DocumentStatusPending {
		return sql.ErrNoRows
	}
	doc.Status = status
	doc.ReviewNote = note
	return nil
}

func (s *stubDocumentStore) DeleteByID(_ context.Context, id string) (string, error) {
	doc, ok := s.items[id]
	if !ok {
		return "", sql.ErrNoRows
	}
	delete(s.items, id)
	return doc.FilePath, nil
}

type stubAcademicStore struct {
	records map[string]map[int]*models.AcademicRecord
}

func newStubAcademicStore() *stubAcademicStore {
	return &stubAcademicStore{records: map[string]map[int]*models.AcademicRecord{}}
}

func (s *stubAcademicStore) ListByStudent(_ context.Context, studentID string) (map[int]*models.AcademicRecord, error) {
	records, ok := s.records[studentID]
	if !ok {
		return map[int]*models.AcademicRecord{}, nil
	}
	return records, nil
}

func (s *stubAcademicStore) Upsert(_ context.Context, record *models.AcademicRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if s.records[record.StudentID] == nil {
		s.records[record.StudentID] = map[int]*models.AcademicRecord{}
	}
	s.records[record.StudentID][record.Semester] = record
	return nil
}

type stubNotificationStore struct {
	items []models.NotificationMessage
}

func (s *stubNotificationStore) Create(_ context.Context, msg *models.NotificationMessage) error {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	s.items = append(s.items, *msg)
	return nil
}

func (s *stubNotificationStore) ListByStudent(_ context.Context, studentID string) ([]models.NotificationMessage, error) {
	out := make([]models.NotificationMessage, 0)
	for _, m := range s.items {
		if m.StudentID == studentID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *stubNotificationStore) MarkRead(_ context.Context, id string) error {
	for i := range s.items {
		if s.items[i].ID == id {
			s.items[i].Read = true
			return nil
		}
	}
	return sql.ErrNoRows
}

func (s *stubNotificationStore) CountUnread(_ context.Context, studentID string) (int, error) {
	count := 0
	for _, m := range s.items {
		if m.StudentID == studentID && !m.Read {
			count++
		}
	}
	return count, nil
}

type stubAudit struct {
	entries []models.AuditLog
}

func (s *stubAudit) Insert(_ context.Context, entry *models.AuditLog) error {
	s.entries = append(s.entries, *entry)
	return nil
}

type stubInvalidator struct {
	calls []string
}

func (s *stubInvalidator) Invalidate(_ context.Context, studentID string) {
	s.calls = append(s.calls, studentID)
}

type stubQueue struct {
	jobs []jobs.Job
}

func (s *stubQueue) Enqueue(job jobs.Job) error {
	s.jobs = append(s.jobs, job)
	return nil
}
