package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

type csvRenderer struct{}

func (csvRenderer) Ext() string { return "csv" }

func (csvRenderer) Render(data Dataset) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("csv requires at least one header")
	}
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write(data.Headers)
	for _, row := range data.Rows {
		_ = w.Write(data.record(row))
	}
	// writes to a bytes.Buffer only fail on quoting state, surfaced here
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("encode csv: %w", err)
	}
	return buf.Bytes(), nil
}
