package dto

import "github.com/smpn3pacet/database-siswa-api/internal/models"

// UploadDocumentRequest is the multipart metadata accompanying a file upload.
// Semester and Page are required when Category is RAPOR and rejected otherwise.
type UploadDocumentRequest struct {
	Category models.DocumentCategory `form:"category" validate:"required"`
	Semester *int                    `form:"semester"`
	Page     *int                    `form:"page"`
	Name     string                  `form:"name"`
}

// ReviewDocumentRequest carries a verification decision for one document.
type ReviewDocumentRequest struct {
	Note string `json:"note"`
}

// DocumentResponse is the API projection of a stored document.
type DocumentResponse struct {
	ID         string                  `json:"id"`
	StudentID  string                  `json:"student_id"`
	Name       string                  `json:"name"`
	Category   models.DocumentCategory `json:"category"`
	Label      string                  `json:"label"`
	MediaKind  models.MediaKind        `json:"media_kind"`
	Semester   *int                    `json:"semester,omitempty"`
	Page       *int                    `json:"page,omitempty"`
	Status     models.DocumentStatus   `json:"status"`
	ReviewNote *string                 `json:"review_note,omitempty"`
	SizeBytes  int64                   `json:"size_bytes"`
	UploadedBy string                  `json:"uploaded_by"`
	UploadedAt string                  `json:"uploaded_at"`
}

// DocumentDownloadResponse wraps a short-lived signed URL for one file.
type DocumentDownloadResponse struct {
	URL       string `json:"url"`
	ExpiresIn int64  `json:"expires_in"`
}

// NewDocumentResponse converts the storage entity into the API shape.
func NewDocumentResponse(d models.DocumentEntity) DocumentResponse {
	return DocumentResponse{
		ID:         d.ID,
		StudentID:  d.StudentID,
		Name:       d.Name,
		Category:   d.Category,
		Label:      models.CategoryLabels[d.Category],
		MediaKind:  d.MediaKind,
		Semester:   d.Semester,
		Page:       d.Page,
		Status:     d.Status,
		ReviewNote: d.ReviewNote,
		SizeBytes:  d.SizeBytes,
		UploadedBy: d.UploadedBy,
		UploadedAt: d.UploadedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// NewDocumentResponses converts a slice preserving order.
func NewDocumentResponses(docs []models.DocumentEntity) []DocumentResponse {
	out := make([]DocumentResponse, 0, len(docs))
	for _, d := range docs {
		out = append(out, NewDocumentResponse(d))
	}
	return out
}
