package dto

// FieldGap names one missing or placeholder scalar field.
type FieldGap struct {
	FieldPath string `json:"field_path"`
	Label     string `json:"label"`
}

// DocumentGap names one empty required document slot.
type DocumentGap struct {
	Category string `json:"category"`
	Label    string `json:"label"`
}

// RaporGap reports how far the semester's page grid is from complete.
type RaporGap struct {
	Semester     int   `json:"semester"`
	Uploaded     int   `json:"uploaded"`
	Expected     int   `json:"expected"`
	MissingPages []int `json:"missing_pages"`
}

// CategoryScore is the percent plus the filled/total counters behind it.
type CategoryScore struct {
	Percent int `json:"percent"`
	Filled  int `json:"filled"`
	Total   int `json:"total"`
}

// CompletenessReport is the analyzer output for one student and semester:
// four category scores, an overall average, and the concrete gaps that keep
// each category under 100.
type CompletenessReport struct {
	StudentID    string        `json:"student_id"`
	Semester     int           `json:"semester"`
	Overall      int           `json:"overall"`
	Biographical CategoryScore `json:"biographical"`
	Grades       CategoryScore `json:"grades"`
	Documents    CategoryScore `json:"documents"`
	Rapor        CategoryScore `json:"rapor"`
	FieldGaps    []FieldGap    `json:"field_gaps"`
	DocumentGaps []DocumentGap `json:"document_gaps"`
	RaporGap     *RaporGap     `json:"rapor_gap,omitempty"`
	GeneratedAt  string        `json:"generated_at"`
}

// CompletenessSummary is the compact per-student row used by list views and
// the recap export.
type CompletenessSummary struct {
	StudentID    string `json:"student_id"`
	NIS          string `json:"nis"`
	NISN         string `json:"nisn"`
	FullName     string `json:"full_name"`
	Biographical int    `json:"biographical"`
	Grades       int    `json:"grades"`
	Documents    int    `json:"documents"`
	Rapor        int    `json:"rapor"`
	Overall      int    `json:"overall"`
	GapCount     int    `json:"gap_count"`
}
