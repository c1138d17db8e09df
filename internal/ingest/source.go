// Package ingest reads row-oriented tabular sources (CSV and XLSX) in
// bounded-size chunks, normalizes them against the expected column layout,
// and emits validated rows for indexing.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/FedeHorus/zipreport/services"
)

// OpenFile opens the tabular source at path, choosing the reader by file
// extension (.csv or .xlsx).
func OpenFile(path string) (services.RowSource, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return OpenCSVFile(path)
	case ".xlsx":
		return OpenXLSXFile(path)
	default:
		return nil, fmt.Errorf("unsupported source file type %q (want .csv or .xlsx)", filepath.Ext(path))
	}
}

// trimHeader normalizes header cells by trimming surrounding whitespace only.
// Column matching stays case-sensitive beyond that.
func trimHeader(cells []string) []string {
	header := make([]string, len(cells))
	for i, cell := range cells {
		header[i] = strings.TrimSpace(cell)
	}
	return header
}

// fitToHeader pads short rows with empty cells and drops cells beyond the
// header width, so every emitted row aligns with the header.
func fitToHeader(cells []string, width int) []string {
	if len(cells) == width {
		return cells
	}
	fitted := make([]string, width)
	copy(fitted, cells)
	return fitted
}

// CSVSource streams rows from a CSV file without loading it into memory.
type CSVSource struct {
	file   *os.File
	reader *csv.Reader
	header []string
}

// OpenCSVFile opens a CSV file and reads its header row.
func OpenCSVFile(path string) (*CSVSource, error) {
	file, err := os.Open(path) // #nosec G304 -- path comes from operator input, not remote users
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file %s: %w", path, err)
	}

	src, err := NewCSVSource(file)
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to read CSV header of %s: %w", path, err)
	}
	src.file = file
	return src, nil
}

// NewCSVSource reads the header row from r and returns a streaming source
// over the remaining rows.
func NewCSVSource(r io.Reader) (*CSVSource, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // ragged rows are fitted to the header later

	headerCells, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("CSV source has no header row")
		}
		return nil, err
	}

	return &CSVSource{reader: reader, header: trimHeader(headerCells)}, nil
}

// Header returns the trimmed header cells.
func (s *CSVSource) Header() []string {
	return s.header
}

// Next returns the next data row, fitted to the header width, or io.EOF.
func (s *CSVSource) Next() ([]string, error) {
	cells, err := s.reader.Read()
	if err != nil {
		return nil, err
	}
	return fitToHeader(cells, len(s.header)), nil
}

// Close closes the underlying file, if the source owns one.
func (s *CSVSource) Close() error {
	if s.file == nil {
		return nil
	}
	return s.file.Close()
}

// XLSXSource streams rows from the first sheet of an XLSX workbook using
// excelize's row iterator, so large workbooks are not held in memory.
type XLSXSource struct {
	book   *excelize.File
	rows   *excelize.Rows
	header []string
}

// OpenXLSXFile opens an XLSX workbook and positions the source on the first
// sheet's data rows.
func OpenXLSXFile(path string) (*XLSXSource, error) {
	book, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open XLSX file %s: %w", path, err)
	}
	src, err := newXLSXSource(book)
	if err != nil {
		_ = book.Close()
		return nil, fmt.Errorf("failed to read XLSX header of %s: %w", path, err)
	}
	return src, nil
}

// NewXLSXSource reads an XLSX workbook from r.
func NewXLSXSource(r io.Reader) (*XLSXSource, error) {
	book, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open XLSX source: %w", err)
	}
	src, err := newXLSXSource(book)
	if err != nil {
		_ = book.Close()
		return nil, err
	}
	return src, nil
}

func newXLSXSource(book *excelize.File) (*XLSXSource, error) {
	sheets := book.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("XLSX workbook has no sheets")
	}

	rows, err := book.Rows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to iterate sheet %q: %w", sheets[0], err)
	}

	if !rows.Next() {
		if err := rows.Error(); err != nil {
			return nil, fmt.Errorf("failed to read header row: %w", err)
		}
		return nil, fmt.Errorf("XLSX sheet %q has no header row", sheets[0])
	}
	headerCells, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read header row: %w", err)
	}

	return &XLSXSource{book: book, rows: rows, header: trimHeader(headerCells)}, nil
}

// Header returns the trimmed header cells.
func (s *XLSXSource) Header() []string {
	return s.header
}

// Next returns the next data row, fitted to the header width, or io.EOF.
func (s *XLSXSource) Next() ([]string, error) {
	if !s.rows.Next() {
		if err := s.rows.Error(); err != nil {
			return nil, err
		}
		return nil, io.EOF
	}
	cells, err := s.rows.Columns()
	if err != nil {
		return nil, err
	}
	return fitToHeader(cells, len(s.header)), nil
}

// Close releases the row iterator and the workbook.
func (s *XLSXSource) Close() error {
	if err := s.rows.Close(); err != nil {
		_ = s.book.Close()
		return err
	}
	return s.book.Close()
}

// SliceSource serves rows from memory. It is used by tests and by callers
// that already hold the table.
type SliceSource struct {
	header []string
	rows   [][]string
	pos    int
}

// NewSliceSource creates a source over the given header and rows.
func NewSliceSource(header []string, rows [][]string) *SliceSource {
	return &SliceSource{header: trimHeader(header), rows: rows}
}

// Header returns the trimmed header cells.
func (s *SliceSource) Header() []string { return s.header }

// Next returns the next row or io.EOF.
func (s *SliceSource) Next() ([]string, error) {
	if s.pos >= len(s.rows) {
		return nil, io.EOF
	}
	row := fitToHeader(s.rows[s.pos], len(s.header))
	s.pos++
	return row, nil
}

// Close is a no-op for in-memory sources.
func (s *SliceSource) Close() error { return nil }
