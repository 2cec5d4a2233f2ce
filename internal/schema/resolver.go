// Package schema resolves loosely-specified physical column names against
// the canonical logical fields the pipeline needs. Input vintages vary in
// casing, whitespace and underscores ("Pixel_ID", "pixel id", "pixelid"), so
// every field carries an ordered alias list and matching happens on a
// normalized form.
package schema

import (
	"fmt"
	"strings"

	"policypilot/internal/errors"
)

// Field is one canonical logical column with its accepted physical aliases,
// tried in order; the first header that matches wins.
type Field struct {
	Name     string
	Aliases  []string
	Required bool
}

// Resolution maps canonical field names to the physical header that matched.
// Optional fields with no match are absent from the map.
type Resolution map[string]string

// Header returns the physical header for a canonical field and whether it
// resolved.
func (r Resolution) Header(name string) (string, bool) {
	h, ok := r[name]
	return h, ok
}

// Resolve matches the given fields against the file's headers. All
// unresolved required fields are reported in a single fatal error, together
// with the columns that were actually available.
func Resolve(file string, headers []string, fields []Field) (Resolution, error) {
	normalized := make([]string, len(headers))
	for i, h := range headers {
		normalized[i] = Normalize(h)
	}

	resolution := make(Resolution, len(fields))
	var unresolved []string

	for _, field := range fields {
		header, ok := match(field, headers, normalized)
		if ok {
			resolution[field.Name] = header
			continue
		}
		if field.Required {
			unresolved = append(unresolved, fmt.Sprintf("%s (aliases: %s)",
				field.Name, strings.Join(field.Aliases, ", ")))
		}
	}

	if len(unresolved) > 0 {
		return nil, errors.SchemaError(file, unresolved, headers)
	}
	return resolution, nil
}

func match(field Field, headers, normalized []string) (string, bool) {
	for _, alias := range field.Aliases {
		aliasNorm := Normalize(alias)
		for i, headerNorm := range normalized {
			if headerNorm == aliasNorm {
				return headers[i], true
			}
		}
	}
	return "", false
}

// Normalize lowercases a column name and strips whitespace, underscores and
// hyphens, the variation observed across input vintages.
func Normalize(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch r {
		case ' ', '\t', '_', '-':
			continue
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
