package dto

import "github.com/smpn3pacet/database-siswa-api/internal/models"

// ProposeCorrectionRequest opens a field correction for review. Evidence is
// uploaded in the same multipart request as the metadata below.
type ProposeCorrectionRequest struct {
	FieldPath     string `form:"field_path" json:"field_path" validate:"required"`
	ProposedValue string `form:"proposed_value" json:"proposed_value" validate:"required"`
}

// ReviewCorrectionRequest records the admin decision on a pending proposal.
type ReviewCorrectionRequest struct {
	Note string `json:"note"`
}

// CorrectionResponse is the API projection of a correction request.
type CorrectionResponse struct {
	ID            string                  `json:"id"`
	StudentID     string                  `json:"student_id"`
	FieldPath     string                  `json:"field_path"`
	Label         string                  `json:"label"`
	OriginalValue string                  `json:"original_value"`
	ProposedValue string                  `json:"proposed_value"`
	Evidence      *CorrectionEvidenceInfo `json:"evidence,omitempty"`
	Status        models.CorrectionStatus `json:"status"`
	Note          *string                 `json:"note,omitempty"`
	SubmittedBy   string                  `json:"submitted_by"`
	ReviewedBy    *string                 `json:"reviewed_by,omitempty"`
	SubmittedAt   string                  `json:"submitted_at"`
	ProcessedAt   *string                 `json:"processed_at,omitempty"`
}

// CorrectionEvidenceInfo describes the attachment without exposing the path.
type CorrectionEvidenceInfo struct {
	Name      string           `json:"name"`
	MediaKind models.MediaKind `json:"media_kind"`
}

// NewCorrectionResponse converts the ledger entry into the API shape.
func NewCorrectionResponse(c models.CorrectionRequest) CorrectionResponse {
	resp := CorrectionResponse{
		ID:            c.ID,
		StudentID:     c.StudentID,
		FieldPath:     c.FieldPath,
		Label:         c.Label,
		OriginalValue: c.OriginalValue,
		ProposedValue: c.ProposedValue,
		Status:        c.Status,
		Note:          c.Note,
		SubmittedBy:   c.SubmittedBy,
		ReviewedBy:    c.ReviewedBy,
		SubmittedAt:   c.SubmittedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	if !c.Evidence.Empty() {
		resp.Evidence = &CorrectionEvidenceInfo{Name: c.Evidence.Name, MediaKind: c.Evidence.MediaKind}
	}
	if c.ProcessedAt != nil {
		s := c.ProcessedAt.Format("2006-01-02T15:04:05Z07:00")
		resp.ProcessedAt = &s
	}
	return resp
}

// NewCorrectionResponses converts a slice preserving order.
func NewCorrectionResponses(corrections []models.CorrectionRequest) []CorrectionResponse {
	out := make([]CorrectionResponse, 0, len(corrections))
	for _, c := range corrections {
		out = append(out, NewCorrectionResponse(c))
	}
	return out
}

// CorrectableFieldResponse describes one entry of the closed field path set.
type CorrectableFieldResponse struct {
	FieldPath    string `json:"field_path"`
	Label        string `json:"label"`
	CurrentValue string `json:"current_value"`
	HasPending   bool   `json:"has_pending"`
}
