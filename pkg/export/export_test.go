package export

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDispatchesByFormat(t *testing.T) {
	csvR, err := New(FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "csv", csvR.Ext())

	pdfR, err := New(FormatPDF)
	require.NoError(t, err)
	assert.Equal(t, "pdf", pdfR.Ext())

	_, err = New(Format("xlsx"))
	require.Error(t, err)
}

func TestCSVRender(t *testing.T) {
	r, err := New(FormatCSV)
	require.NoError(t, err)

	out, err := r.Render(Dataset{
		Headers: []string{"USN", "Outstanding"},
		Rows: []map[string]string{
			{"USN": "1AB23CS001", "Outstanding": "25000"},
			{"USN": "1AB23CS002"},
		},
	})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "USN,Outstanding", lines[0])
	assert.Equal(t, "1AB23CS001,25000", lines[1])
	assert.Equal(t, "1AB23CS002,", lines[2])
}

func TestCSVRenderRequiresHeaders(t *testing.T) {
	r, err := New(FormatCSV)
	require.NoError(t, err)

	_, err = r.Render(Dataset{})
	require.Error(t, err)
}
