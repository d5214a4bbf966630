package models

import "time"

// DocumentCategory classifies an uploaded berkas into a fixed slot.
type DocumentCategory string

const (
	CategoryAktaKelahiran DocumentCategory = "AKTA_KELAHIRAN"
	CategoryKIA           DocumentCategory = "KIA"
	CategoryKartuKeluarga DocumentCategory = "KARTU_KELUARGA"
	CategoryKTPAyah       DocumentCategory = "KTP_AYAH"
	CategoryKTPIbu        DocumentCategory = "KTP_IBU"
	CategoryPasFoto       DocumentCategory = "PAS_FOTO"
	CategoryKartuPelajar  DocumentCategory = "KARTU_PELAJAR"
	CategoryKIP           DocumentCategory = "KIP"
	CategoryRapor         DocumentCategory = "RAPOR"
	CategoryLainnya       DocumentCategory = "LAINNYA"
)

// RequiredDocumentCategories are the slots counted by the completeness
// analyzer. Rapor and the optional cards are tracked separately.
var RequiredDocumentCategories = []DocumentCategory{
	CategoryAktaKelahiran,
	CategoryKIA,
	CategoryKartuKeluarga,
	CategoryKTPAyah,
	CategoryKTPIbu,
	CategoryPasFoto,
}

// CategoryLabels maps category ids to the labels shown to operators.
var CategoryLabels = map[DocumentCategory]string{
	CategoryAktaKelahiran: "Akta Kelahiran",
	CategoryKIA:           "Kartu Identitas Anak",
	CategoryKartuKeluarga: "Kartu Keluarga",
	CategoryKTPAyah:       "KTP Ayah",
	CategoryKTPIbu:        "KTP Ibu",
	CategoryPasFoto:       "Pas Foto",
	CategoryKartuPelajar:  "Kartu Pelajar",
	CategoryKIP:           "Kartu Indonesia Pintar",
	CategoryRapor:         "Rapor",
	CategoryLainnya:       "Lainnya",
}

// ValidCategory reports whether the id belongs to the fixed enumeration.
func ValidCategory(c DocumentCategory) bool {
	_, ok := CategoryLabels[c]
	return ok
}

const (
	// RaporPagesPerSemester is the fixed page grid for periodic report uploads.
	RaporPagesPerSemester = 5
	// SemesterMin and SemesterMax bound the reporting periods of an SMP student.
	SemesterMin = 1
	SemesterMax = 6
)

// MediaKind tags how a stored file should be rendered.
type MediaKind string

const (
	MediaPDF   MediaKind = "PDF"
	MediaImage MediaKind = "IMAGE"
)

// DocumentStatus captures verification workflow states.
type DocumentStatus string

const (
	DocumentStatusPending       DocumentStatus = "PENDING"
	DocumentStatusApproved      DocumentStatus = "APPROVED"
	DocumentStatusNeedsRevision DocumentStatus = "NEEDS_REVISION"
)

// UploadOriginator distinguishes self-service uploads from staff entry.
// It is the only input to the initial verification status.
type UploadOriginator string

const (
	OriginatorSelf  UploadOriginator = "SELF"
	OriginatorStaff UploadOriginator = "STAFF"
)

// InitialStatus returns the verification status a fresh upload starts in.
func (o UploadOriginator) InitialStatus() DocumentStatus {
	if o == OriginatorStaff {
		return DocumentStatusApproved
	}
	return DocumentStatusPending
}

// DocumentEntity is one uploaded file attached to a student. Semester and
// Page are set only for the RAPOR category and form the slot key together
// with the category; every other category keys on the category alone.
type DocumentEntity struct {
	ID         string           `db:"id" json:"id"`
	StudentID  string           `db:"student_id" json:"student_id"`
	Name       string           `db:"name" json:"name"`
	MediaKind  MediaKind        `db:"media_kind" json:"media_kind"`
	FilePath   string           `db:"file_path" json:"file_path"`
	Category   DocumentCategory `db:"category" json:"category"`
	Semester   *int             `db:"semester" json:"semester,omitempty"`
	Page       *int             `db:"page" json:"page,omitempty"`
	Status     DocumentStatus   `db:"status" json:"status"`
	ReviewNote *string          `db:"review_note" json:"review_note,omitempty"`
	SizeBytes  int64            `db:"size_bytes" json:"size_bytes"`
	UploadedBy string           `db:"uploaded_by" json:"uploaded_by"`
	UploadedAt time.Time        `db:"uploaded_at" json:"uploaded_at"`
}

// SameSlot reports whether another document occupies this document's slot.
func (d DocumentEntity) SameSlot(other DocumentEntity) bool {
	if d.Category != other.Category {
		return false
	}
	if d.Category != CategoryRapor {
		return true
	}
	return intPtrEqual(d.Semester, other.Semester) && intPtrEqual(d.Page, other.Page)
}

// FindDocumentByCategory returns the active document in a non-rapor slot.
func FindDocumentByCategory(documents []DocumentEntity, category DocumentCategory) *DocumentEntity {
	for i := range documents {
		if documents[i].Category == category {
			return &documents[i]
		}
	}
	return nil
}

// FindRaporPage returns the rapor upload for one {semester, page} slot.
func FindRaporPage(documents []DocumentEntity, semester, page int) *DocumentEntity {
	for i := range documents {
		d := &documents[i]
		if d.Category != CategoryRapor || d.Semester == nil || d.Page == nil {
			continue
		}
		if *d.Semester == semester && *d.Page == page {
			return d
		}
	}
	return nil
}

// CountRaporPages counts uploaded rapor pages for a semester regardless of
// verification status.
func CountRaporPages(documents []DocumentEntity, semester int) int {
	count := 0
	for i := range documents {
		d := &documents[i]
		if d.Category == CategoryRapor && d.Semester != nil && *d.Semester == semester {
			count++
		}
	}
	return count
}

func intPtrEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
