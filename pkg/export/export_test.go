package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTable() Table {
	return Table{
		Title:   "Rollups",
		Columns: []Column{{Header: "Item", Weight: 2}, {Header: "Cost", Right: true}},
		Rows:    [][]string{{"ITEM-1", "12.50"}, {"ITEM, 2", "0"}},
	}
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleTable())
	require.NoError(t, err)
	assert.Equal(t, "Item,Cost\nITEM-1,12.50\n\"ITEM, 2\",0\n", string(out))
}

func TestRenderRejectsRaggedRows(t *testing.T) {
	table := sampleTable()
	table.Rows = append(table.Rows, []string{"only one"})
	_, err := NewCSVExporter().Render(table)
	assert.Error(t, err)
	_, err = NewPDFExporter().Render(Table{})
	assert.Error(t, err)
}

func TestPDFExporterRenderPaginates(t *testing.T) {
	table := sampleTable()
	for i := 0; i < 80; i++ {
		table.Rows = append(table.Rows, []string{"ITEM", "1"})
	}
	exporter := NewPDFExporter()
	exporter.now = func() time.Time { return time.Date(2026, time.October, 15, 0, 0, 0, 0, time.UTC) }

	out, err := exporter.Render(table)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestColumnWidthsFollowWeights(t *testing.T) {
	widths := columnWidths([]Column{{Weight: 3}, {}})
	assert.InDelta(t, pdfUsableWidth*0.75, widths[0], 0.001)
	assert.InDelta(t, pdfUsableWidth*0.25, widths[1], 0.001)
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)
	f, err = ParseFormat("PDF")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", f.ContentType())
	_, err = ParseFormat("xlsx")
	assert.Error(t, err)
}
