package database

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readInitialMigration(t *testing.T) string {
	t.Helper()
	raw, err := os.ReadFile(filepath.Join("..", "..", "migrations", "0001_init.up.sql"))
	require.NoError(t, err)
	return string(raw)
}

// Deleting a doctor must keep past appointments, so the schema detaches
// them instead of blocking the delete.
func TestInitialSchemaDetachesAppointmentsFromDeletedDoctor(t *testing.T) {
	schema := readInitialMigration(t)

	table := regexp.MustCompile(`(?s)CREATE TABLE appointments \((.*?)\);`).FindStringSubmatch(schema)
	require.Len(t, table, 2, "appointments table present in the initial migration")

	assert.Contains(t, table[1], "doctor_id BIGINT REFERENCES doctors (id) ON DELETE SET NULL",
		"appointments keep history when the doctor goes away")
	assert.NotContains(t, table[1], "doctor_id BIGINT NOT NULL",
		"doctor_id must stay nullable for detached and offline bookings")
}
