package models

import "time"

// CorrectionStatus captures workflow states for field correction proposals.
type CorrectionStatus string

const (
	CorrectionStatusPending  CorrectionStatus = "PENDING"
	CorrectionStatusApproved CorrectionStatus = "APPROVED"
	CorrectionStatusRejected CorrectionStatus = "REJECTED"
)

// CorrectionEvidence is the mandatory attachment backing a proposal.
type CorrectionEvidence struct {
	FilePath  string    `db:"file_path" json:"file_path"`
	Name      string    `db:"name" json:"name"`
	MediaKind MediaKind `db:"media_kind" json:"media_kind"`
}

// Empty reports whether no attachment was provided.
func (e CorrectionEvidence) Empty() bool {
	return e.FilePath == "" && e.Name == ""
}

// CorrectionRequest is one proposed edit to a scalar field of the student
// record, identified by its field path. Terminal requests are kept for audit
// and never mutated again.
type CorrectionRequest struct {
	ID            string             `db:"id" json:"id"`
	StudentID     string             `db:"student_id" json:"student_id"`
	FieldPath     string             `db:"field_path" json:"field_path"`
	Label         string             `db:"label" json:"label"`
	OriginalValue string             `db:"original_value" json:"original_value"`
	ProposedValue string             `db:"proposed_value" json:"proposed_value"`
	Evidence      CorrectionEvidence `db:"evidence" json:"evidence"`
	Status        CorrectionStatus   `db:"status" json:"status"`
	Note          *string            `db:"note" json:"note,omitempty"`
	SubmittedBy   string             `db:"submitted_by" json:"submitted_by"`
	ReviewedBy    *string            `db:"reviewed_by" json:"reviewed_by,omitempty"`
	SubmittedAt   time.Time          `db:"submitted_at" json:"submitted_at"`
	ProcessedAt   *time.Time         `db:"processed_at" json:"processed_at,omitempty"`
}

// FindPendingCorrection returns the pending proposal for a field path, if any.
// The supersede rule keeps at most one.
func FindPendingCorrection(corrections []CorrectionRequest, fieldPath string) *CorrectionRequest {
	for i := range corrections {
		c := &corrections[i]
		if c.FieldPath == fieldPath && c.Status == CorrectionStatusPending {
			return c
		}
	}
	return nil
}

// FindApprovedCorrection returns the most recently processed approved proposal
// for a field path, if any. Approved history persists alongside newer pending
// requests.
func FindApprovedCorrection(corrections []CorrectionRequest, fieldPath string) *CorrectionRequest {
	var latest *CorrectionRequest
	for i := range corrections {
		c := &corrections[i]
		if c.FieldPath != fieldPath || c.Status != CorrectionStatusApproved {
			continue
		}
		if latest == nil || (c.ProcessedAt != nil && latest.ProcessedAt != nil && c.ProcessedAt.After(*latest.ProcessedAt)) {
			latest = c
		}
	}
	return latest
}
