package export

import "fmt"

// Format selects the document encoding for a rendered dataset.
type Format string

const (
	FormatCSV Format = "csv"
	FormatPDF Format = "pdf"
)

// Dataset is tabular report content. Rows index their cells by header
// name; missing cells render empty. Title is only used by formats that
// carry a heading.
type Dataset struct {
	Title   string
	Headers []string
	Rows    []map[string]string
}

// Renderer turns a dataset into downloadable document bytes.
type Renderer interface {
	Render(data Dataset) ([]byte, error)
	Ext() string
}

// New returns the renderer for a format.
func New(format Format) (Renderer, error) {
	switch format {
	case FormatCSV:
		return csvRenderer{}, nil
	case FormatPDF:
		return pdfRenderer{}, nil
	default:
		return nil, fmt.Errorf("unsupported export format %q", format)
	}
}

func (d Dataset) record(row map[string]string) []string {
	cells := make([]string, len(d.Headers))
	for i, h := range d.Headers {
		cells[i] = row[h]
	}
	return cells
}
