package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShouldApplyMigration(t *testing.T) {
	tests := []struct {
		file, current, target string
		want                  bool
	}{
		{"0.4.1", "0.3.1", "0.4.1", true},
		{"0.3.1", "0.3.1", "0.4.1", false},
		{"0.4.2", "0.3.1", "0.4.1", false},
		{"0.3.1", "", "0.4.1", true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, shouldApplyMigration(tt.file, tt.current, tt.target), "%s in (%s, %s]", tt.file, tt.current, tt.target)
	}
}

func TestSplitSQL(t *testing.T) {
	script := `-- comment; with a semicolon
CREATE TABLE a (id INT);
INSERT INTO a VALUES ('x;y'); -- trailing
SELECT 1`
	stmts := splitSQL(script)
	assert.Equal(t, []string{
		"CREATE TABLE a (id INT)",
		"INSERT INTO a VALUES ('x;y')",
		"SELECT 1",
	}, stmts)
}

func TestGetSchemaVersionOfMigrateScript(t *testing.T) {
	s := &Store{}
	v, err := s.getSchemaVersionOfMigrateScript("migration/sqlite/0.4/00__session.sql")
	assert.NoError(t, err)
	assert.Equal(t, "0.4.1", v)

	_, err = s.getSchemaVersionOfMigrateScript("migration/sqlite/0.4/xx__bad.sql")
	assert.Error(t, err)
}
