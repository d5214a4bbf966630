// Package fieldpath addresses scalar fields of a student record by a closed
// set of dot-separated paths (e.g. "father.name"). Correction proposals carry
// these paths; resolving them through a fixed accessor table keeps typos from
// silently writing into nonexistent fields.
package fieldpath

import (
	"sort"

	"github.com/smpn3pacet/database-siswa-api/internal/models"
)

type accessor struct {
	label string
	get   func(*models.StudentRecord) string
	set   func(*models.StudentRecord, string)
}

var accessors = map[string]accessor{
	"nisn": {
		label: "NISN",
		get:   func(r *models.StudentRecord) string { return r.NISN },
		set:   func(r *models.StudentRecord, v string) { r.NISN = v },
	},
	"nik": {
		label: "NIK",
		get:   func(r *models.StudentRecord) string { return r.NIK },
		set:   func(r *models.StudentRecord, v string) { r.NIK = v },
	},
	"name": {
		label: "Nama Lengkap",
		get:   func(r *models.StudentRecord) string { return r.FullName },
		set:   func(r *models.StudentRecord, v string) { r.FullName = v },
	},
	"gender": {
		label: "Jenis Kelamin",
		get:   func(r *models.StudentRecord) string { return r.Gender },
		set:   func(r *models.StudentRecord, v string) { r.Gender = v },
	},
	"birth_place": {
		label: "Tempat Lahir",
		get:   func(r *models.StudentRecord) string { return r.BirthPlace },
		set:   func(r *models.StudentRecord, v string) { r.BirthPlace = v },
	},
	"phone": {
		label: "No. Telepon",
		get:   func(r *models.StudentRecord) string { return r.Phone },
		set:   func(r *models.StudentRecord, v string) { r.Phone = v },
	},
	"address.street": {
		label: "Alamat",
		get:   func(r *models.StudentRecord) string { return r.Address.Street },
		set:   func(r *models.StudentRecord, v string) { r.Address.Street = v },
	},
	"address.village": {
		label: "Desa/Kelurahan",
		get:   func(r *models.StudentRecord) string { return r.Address.Village },
		set:   func(r *models.StudentRecord, v string) { r.Address.Village = v },
	},
	"address.district": {
		label: "Kecamatan",
		get:   func(r *models.StudentRecord) string { return r.Address.District },
		set:   func(r *models.StudentRecord, v string) { r.Address.District = v },
	},
	"address.regency": {
		label: "Kabupaten/Kota",
		get:   func(r *models.StudentRecord) string { return r.Address.Regency },
		set:   func(r *models.StudentRecord, v string) { r.Address.Regency = v },
	},
	"address.postal_code": {
		label: "Kode Pos",
		get:   func(r *models.StudentRecord) string { return r.Address.PostalCode },
		set:   func(r *models.StudentRecord, v string) { r.Address.PostalCode = v },
	},
	"father.name": {
		label: "Nama Ayah",
		get:   func(r *models.StudentRecord) string { return r.Father.Name },
		set:   func(r *models.StudentRecord, v string) { r.Father.Name = v },
	},
	"father.nik": {
		label: "NIK Ayah",
		get:   func(r *models.StudentRecord) string { return r.Father.NIK },
		set:   func(r *models.StudentRecord, v string) { r.Father.NIK = v },
	},
	"father.occupation": {
		label: "Pekerjaan Ayah",
		get:   func(r *models.StudentRecord) string { return r.Father.Occupation },
		set:   func(r *models.StudentRecord, v string) { r.Father.Occupation = v },
	},
	"father.phone": {
		label: "Telepon Ayah",
		get:   func(r *models.StudentRecord) string { return r.Father.Phone },
		set:   func(r *models.StudentRecord, v string) { r.Father.Phone = v },
	},
	"mother.name": {
		label: "Nama Ibu",
		get:   func(r *models.StudentRecord) string { return r.Mother.Name },
		set:   func(r *models.StudentRecord, v string) { r.Mother.Name = v },
	},
	"mother.nik": {
		label: "NIK Ibu",
		get:   func(r *models.StudentRecord) string { return r.Mother.NIK },
		set:   func(r *models.StudentRecord, v string) { r.Mother.NIK = v },
	},
	"mother.occupation": {
		label: "Pekerjaan Ibu",
		get:   func(r *models.StudentRecord) string { return r.Mother.Occupation },
		set:   func(r *models.StudentRecord, v string) { r.Mother.Occupation = v },
	},
	"mother.phone": {
		label: "Telepon Ibu",
		get:   func(r *models.StudentRecord) string { return r.Mother.Phone },
		set:   func(r *models.StudentRecord, v string) { r.Mother.Phone = v },
	},
	"wali.name": {
		label: "Nama Wali",
		get:   func(r *models.StudentRecord) string { return r.Wali.Name },
		set:   func(r *models.StudentRecord, v string) { r.Wali.Name = v },
	},
}

// Known reports whether the path belongs to the correctable set.
func Known(path string) bool {
	_, ok := accessors[path]
	return ok
}

// Label returns the operator-facing label for a known path.
func Label(path string) string {
	if acc, ok := accessors[path]; ok {
		return acc.label
	}
	return path
}

// Get reads the current value at the path. The boolean is false for unknown
// paths.
func Get(record *models.StudentRecord, path string) (string, bool) {
	acc, ok := accessors[path]
	if !ok || record == nil {
		return "", false
	}
	return acc.get(record), true
}

// Set writes a value at the path. The boolean is false for unknown paths, in
// which case the record is untouched.
func Set(record *models.StudentRecord, path, value string) bool {
	acc, ok := accessors[path]
	if !ok || record == nil {
		return false
	}
	acc.set(record, value)
	return true
}

// Paths lists every correctable path in stable order.
func Paths() []string {
	paths := make([]string, 0, len(accessors))
	for path := range accessors {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}
