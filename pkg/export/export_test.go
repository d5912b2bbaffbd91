package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderCSV(t *testing.T) {
	table := Table{
		Columns: []string{"Name", "Email"},
		Rows: [][]string{
			{"Alice", "alice@example.com"},
			{"Bob"},
		},
	}

	out, err := RenderCSV(table)
	require.NoError(t, err)
	assert.Equal(t, "Name,Email\nAlice,alice@example.com\nBob,\n", string(out))
}

func TestRenderCSVRequiresColumns(t *testing.T) {
	_, err := RenderCSV(Table{})
	assert.Error(t, err)
}

func TestRenderPDF(t *testing.T) {
	table := Table{
		Columns: []string{"Name", "Role"},
		Rows:    [][]string{{"Alice", "Teacher"}},
	}

	out, err := RenderPDF(table, "Staff Roster")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}
