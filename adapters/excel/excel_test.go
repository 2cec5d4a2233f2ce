package excel

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCSV(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "input.csv")
	content := "pixel, region ,loan\n101, Rukwa ,1000000\n102,Dodoma,\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	table, err := NewDataReader(path).ReadData()
	require.NoError(t, err)

	// Headers and cells come back trimmed.
	assert.Equal(t, []string{"pixel", "region", "loan"}, table.Headers)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "Rukwa", table.Rows[0]["region"])
	assert.Equal(t, "", table.Rows[1]["loan"])
}

func TestReadCSVRaggedRows(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "input.csv")
	content := "a,b,c\n1,2\n1,2,3,4\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	table, err := NewDataReader(path).ReadData()
	require.NoError(t, err)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "", table.Rows[0]["c"])
	assert.Equal(t, "3", table.Rows[1]["c"])
}

func TestReadMissingFile(t *testing.T) {
	_, err := NewDataReader("/nonexistent/input.csv").ReadData()
	assert.Error(t, err)
}

func TestReadCSVHeaderOnly(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "input.csv")
	require.NoError(t, os.WriteFile(path, []byte("a,b\n"), 0o644))

	_, err := NewDataReader(path).ReadData()
	assert.Error(t, err)
}

func TestWorkbookRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.xlsx")

	w := NewWorkbookWriter()
	require.NoError(t, w.AddTable("Final Table",
		[]string{"pixel", "payout"},
		[][]interface{}{
			{101, 12345.5},
			{102, nil},
		}))
	require.NoError(t, w.AddTable("Pixel Stats",
		[]string{"pixel", "mean"},
		[][]interface{}{{101, 1.5}}))
	require.NoError(t, w.Save(path))

	table, err := NewDataReader(path).ReadData()
	require.NoError(t, err)

	// The reader consumes the first sheet.
	assert.Equal(t, []string{"pixel", "payout"}, table.Headers)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "101", table.Rows[0]["pixel"])
	assert.Equal(t, "12345.5", table.Rows[0]["payout"])
	// Nil cells stay blank, not zero.
	assert.Equal(t, "", table.Rows[1]["payout"])
}

func TestWorkbookRefusesEmptySave(t *testing.T) {
	err := NewWorkbookWriter().Save(filepath.Join(t.TempDir(), "empty.xlsx"))
	assert.Error(t, err)
}

func TestTableColumn(t *testing.T) {
	table := &Table{
		Headers: []string{"a", "b"},
		Rows: []RawRowData{
			{"a": "1", "b": "x"},
			{"a": "2", "b": "y"},
		},
	}
	assert.Equal(t, []string{"1", "2"}, table.Column("a"))
	assert.True(t, table.HasHeader("b"))
	assert.False(t, table.HasHeader("c"))
}
