package fieldpath

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/smpn3pacet/database-siswa-api/internal/models"
)

func TestGetAndSetRoundTrip(t *testing.T) {
	record := &models.StudentRecord{}
	record.Father.Name = "Nama Ayah"

	value, ok := Get(record, "father.name")
	require.True(t, ok)
	require.Equal(t, "Nama Ayah", value)

	require.True(t, Set(record, "father.name", "Budi Santoso"))
	require.Equal(t, "Budi Santoso", record.Father.Name)

	value, ok = Get(record, "father.name")
	require.True(t, ok)
	require.Equal(t, "Budi Santoso", value)
}

func TestUnknownPathLeavesRecordUntouched(t *testing.T) {
	record := &models.StudentRecord{FullName: "Siti"}

	_, ok := Get(record, "father.shoe_size")
	require.False(t, ok)

	require.False(t, Set(record, "guardian.name", "x"))
	require.Equal(t, "Siti", record.FullName)
	require.False(t, Known("guardian.name"))
}

func TestEveryPathHasWorkingAccessors(t *testing.T) {
	record := &models.StudentRecord{}
	for _, path := range Paths() {
		require.True(t, Known(path))
		require.NotEmpty(t, Label(path))

		require.True(t, Set(record, path, "value-"+path))
		value, ok := Get(record, path)
		require.True(t, ok)
		require.Equal(t, "value-"+path, value)
	}
}
