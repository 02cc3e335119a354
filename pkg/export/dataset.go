// Package export renders tabular billing datasets into downloadable files.
package export

import "fmt"

// Dataset is an ordered table with an optional title and totals row.
type Dataset struct {
	Title   string
	Headers []string
	Rows    [][]string
	Totals  []string
}

func (d Dataset) validate(kind string) error {
	if len(d.Headers) == 0 {
		return fmt.Errorf("%s requires at least one header", kind)
	}
	for i, row := range d.Rows {
		if len(row) > len(d.Headers) {
			return fmt.Errorf("%s row %d has %d cells for %d headers", kind, i, len(row), len(d.Headers))
		}
	}
	return nil
}

// cell returns the value at idx or an empty string for short rows.
func cell(row []string, idx int) string {
	if idx < len(row) {
		return row[idx]
	}
	return ""
}

// Renderer turns a dataset into file bytes.
type Renderer interface {
	Render(data Dataset) ([]byte, error)
	ContentType() string
	Extension() string
}

// ForFormat returns the renderer registered for a file format.
func ForFormat(format string) (Renderer, error) {
	switch format {
	case "csv":
		return NewCSVRenderer(), nil
	case "pdf":
		return NewPDFRenderer(), nil
	case "xlsx":
		return NewXLSXRenderer(), nil
	default:
		return nil, fmt.Errorf("unsupported export format %q", format)
	}
}
