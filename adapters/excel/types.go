package excel

// RawRowData represents one row as header -> trimmed cell string.
type RawRowData map[string]string

// Table holds a parsed CSV file or worksheet.
type Table struct {
	Headers []string
	Rows    []RawRowData
}

// Column collects one column's raw values in row order. Missing cells are
// returned as empty strings.
func (t *Table) Column(header string) []string {
	values := make([]string, len(t.Rows))
	for i, row := range t.Rows {
		values[i] = row[header]
	}
	return values
}

// HasHeader reports whether the table contains the exact header.
func (t *Table) HasHeader(header string) bool {
	for _, h := range t.Headers {
		if h == header {
			return true
		}
	}
	return false
}
