// Package spreadsheet reads uploaded report files (XLSX, CSV, TSV) into rows
// of cell text.
package spreadsheet

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/ignite/commerce-ingest/internal/normalize"
)

// MaxUploadBytes bounds how much of an upload is read.
const MaxUploadBytes = 50 << 20

var (
	ErrEmpty       = errors.New("spreadsheet: no rows")
	ErrUnsupported = errors.New("spreadsheet: unsupported file type")
	ErrTooLarge    = errors.New("spreadsheet: file too large")
)

var (
	zipMagic = []byte("PK\x03\x04")
	utf8BOM  = []byte("\xEF\xBB\xBF")
)

// Sheet is one worksheet as rows of cell text. Trailing empty cells may be
// missing from a row.
type Sheet struct {
	Name string
	Rows [][]string
}

// Header returns the first row.
func (s *Sheet) Header() []string {
	if len(s.Rows) == 0 {
		return nil
	}
	return s.Rows[0]
}

// Data returns the rows after the header.
func (s *Sheet) Data() [][]string {
	if len(s.Rows) < 2 {
		return nil
	}
	return s.Rows[1:]
}

// Records zips every non-blank data row with the header.
func (s *Sheet) Records() []normalize.RawRow {
	header := s.Header()
	out := make([]normalize.RawRow, 0, len(s.Data()))
	for _, cells := range s.Data() {
		if blank(cells) {
			continue
		}
		out = append(out, normalize.RowFromCells(header, cells))
	}
	return out
}

// Parse reads an upload, choosing the format from the file name and falling
// back to sniffing the content. For workbooks the first sheet whose name is in
// preferred is used, else the first sheet.
func Parse(r io.Reader, filename string, preferred ...string) (*Sheet, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxUploadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if len(data) > MaxUploadBytes {
		return nil, ErrTooLarge
	}
	if len(data) == 0 {
		return nil, ErrEmpty
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm":
		return ParseXLSX(bytes.NewReader(data), preferred...)
	case ".csv", ".txt":
		return ParseDelimited(data, 0)
	case ".tsv":
		return ParseDelimited(data, '\t')
	case ".xls":
		return nil, fmt.Errorf("%w: legacy .xls, save as .xlsx", ErrUnsupported)
	}
	if bytes.HasPrefix(data, zipMagic) {
		return ParseXLSX(bytes.NewReader(data), preferred...)
	}
	return ParseDelimited(data, 0)
}

// ParseXLSX reads a workbook.
func ParseXLSX(r io.Reader, preferred ...string) (*Sheet, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	name := ""
	sheets := f.GetSheetList()
	for _, p := range preferred {
		for _, s := range sheets {
			if s == p {
				name = s
				break
			}
		}
		if name != "" {
			break
		}
	}
	if name == "" {
		name = f.GetSheetName(0)
	}
	if name == "" {
		return nil, ErrEmpty
	}

	// Raw values keep date cells as serial day numbers instead of whatever
	// display format the workbook carries.
	rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", name, err)
	}
	if len(rows) == 0 {
		return nil, ErrEmpty
	}
	return &Sheet{Name: name, Rows: rows}, nil
}

// ParseDelimited reads CSV-like text. A UTF-8 byte order mark is dropped and
// content that is not valid UTF-8 is decoded as Windows-1251, the encoding of
// Russian seller-portal exports. When comma is 0 the delimiter is detected
// from the first line.
func ParseDelimited(data []byte, comma rune) (*Sheet, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		decoded, _, err := transform.Bytes(charmap.Windows1251.NewDecoder(), data)
		if err != nil {
			return nil, fmt.Errorf("decode windows-1251: %w", err)
		}
		data = decoded
	}
	if comma == 0 {
		comma = sniffComma(data)
	}

	cr := csv.NewReader(bytes.NewReader(data))
	cr.Comma = comma
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	var rows [][]string
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse line %d: %w", len(rows)+1, err)
		}
		for i := range rec {
			rec[i] = strings.TrimSpace(rec[i])
		}
		rows = append(rows, rec)
	}
	if len(rows) == 0 {
		return nil, ErrEmpty
	}
	return &Sheet{Rows: rows}, nil
}

func sniffComma(data []byte) rune {
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}
	best, bestN := ',', bytes.Count(line, []byte(","))
	for _, c := range []rune{';', '\t'} {
		if n := bytes.Count(line, []byte(string(c))); n > bestN {
			best, bestN = c, n
		}
	}
	return best
}

func blank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
