package spreadsheet

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
)

func buildWorkbook(t *testing.T, sheets map[string][][]any, order ...string) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, name := range order {
		if i == 0 {
			require.NoError(t, f.SetSheetName("Sheet1", name))
		} else {
			_, err := f.NewSheet(name)
			require.NoError(t, err)
		}
		for r, row := range sheets[name] {
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			require.NoError(t, err)
			row := row
			require.NoError(t, f.SetSheetRow(name, cell, &row))
		}
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestParseXLSXPrefersNamedSheet(t *testing.T) {
	data := buildWorkbook(t, map[string][][]any{
		"Summary":         {{"ignored"}},
		"Raw Data Report": {{"campaignname", "impressions"}, {"C1", 100}},
	}, "Summary", "Raw Data Report")

	s, err := Parse(bytes.NewReader(data), "export.xlsx", "Raw Data Report")
	require.NoError(t, err)
	assert.Equal(t, "Raw Data Report", s.Name)
	assert.Equal(t, []string{"campaignname", "impressions"}, s.Header())
	assert.Equal(t, [][]string{{"C1", "100"}}, s.Data())
}

func TestParseXLSXFallsBackToFirstSheet(t *testing.T) {
	data := buildWorkbook(t, map[string][][]any{
		"Лист1": {{"a"}, {"1"}},
	}, "Лист1")

	// No extension: detected from the zip signature.
	s, err := Parse(bytes.NewReader(data), "upload", "Raw Data Report")
	require.NoError(t, err)
	assert.Equal(t, "Лист1", s.Name)
	assert.Len(t, s.Rows, 2)
}

func TestParseXLSXKeepsRawCellValues(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"Campaign name", "Impressions", "Day"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]any{"Spring", 1500, nil}))
	require.NoError(t, f.SetCellValue("Sheet1", "C2", time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	require.NoError(t, f.Close())

	s, err := Parse(bytes.NewReader(buf.Bytes()), "ads.xlsx")
	require.NoError(t, err)
	// 45672 is the Excel serial day of 2025-01-15.
	assert.Equal(t, [][]string{{"Spring", "1500", "45672"}}, s.Data())
}

func TestParseCSVStripsBOMAndTrims(t *testing.T) {
	in := "\xEF\xBB\xBFcampaign, date\nC1 ,2025-01-05\n,\n"
	s, err := Parse(strings.NewReader(in), "ads.csv")
	require.NoError(t, err)
	assert.Equal(t, []string{"campaign", "date"}, s.Header())

	recs := s.Records()
	require.Len(t, recs, 1)
	v, _ := recs[0].Get("campaign")
	assert.Equal(t, "C1", v)
}

func TestParseCSVWindows1251(t *testing.T) {
	utf := "SKU;Товары;Воронка продаж: Показы всего\n1001;Лампа;15\n"
	enc, err := charmap.Windows1251.NewEncoder().String(utf)
	require.NoError(t, err)

	s, err := Parse(strings.NewReader(enc), "report.csv")
	require.NoError(t, err)
	assert.Equal(t, []string{"SKU", "Товары", "Воронка продаж: Показы всего"}, s.Header())
	assert.Equal(t, [][]string{{"1001", "Лампа", "15"}}, s.Data())
}

func TestParseTSV(t *testing.T) {
	s, err := ParseDelimited([]byte("asin\tsessions\nB01\t5\n"), '\t')
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"B01", "5"}}, s.Data())
}

func TestParseRejects(t *testing.T) {
	_, err := Parse(strings.NewReader(""), "a.csv")
	assert.ErrorIs(t, err, ErrEmpty)

	_, err = Parse(strings.NewReader("x"), "old.xls")
	assert.ErrorIs(t, err, ErrUnsupported)
}
