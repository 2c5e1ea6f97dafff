package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitStatements(t *testing.T) {
	script := `-- header
CREATE TABLE a (id INT);

-- comment only;
CREATE INDEX b ON a (id);
`
	got := splitStatements(script)
	assert.Equal(t, []string{"CREATE TABLE a (id INT)", "CREATE INDEX b ON a (id)"}, got)
}

func TestBundledSchemasParse(t *testing.T) {
	for _, driver := range []string{"mysql", "sqlite"} {
		raw, err := schemaFS.ReadFile("schema/" + driver + ".sql")
		assert.NoError(t, err)
		assert.NotEmpty(t, splitStatements(string(raw)), driver)
	}
}
