package report

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"
)

// workbook wraps an excelize file being assembled sheet by sheet. The first
// AddSheet renames the default sheet so workbooks never carry an empty
// "Sheet1".
type workbook struct {
	file   *excelize.File
	sheets int
}

func newWorkbook() *workbook {
	return &workbook{file: excelize.NewFile()}
}

// AddSheet appends a sheet with a header row followed by data rows.
func (w *workbook) AddSheet(name string, header []string, rows [][]interface{}) error {
	if w.sheets == 0 {
		if err := w.file.SetSheetName(w.file.GetSheetName(0), name); err != nil {
			return fmt.Errorf("failed to name sheet %q: %w", name, err)
		}
	} else {
		if _, err := w.file.NewSheet(name); err != nil {
			return fmt.Errorf("failed to create sheet %q: %w", name, err)
		}
	}
	w.sheets++

	headerCells := make([]interface{}, len(header))
	for i, cell := range header {
		headerCells[i] = cell
	}
	if err := w.file.SetSheetRow(name, "A1", &headerCells); err != nil {
		return fmt.Errorf("failed to write header of sheet %q: %w", name, err)
	}

	for i, row := range rows {
		cellRef, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("failed to address row %d of sheet %q: %w", i+2, name, err)
		}
		rowCopy := row
		if err := w.file.SetSheetRow(name, cellRef, &rowCopy); err != nil {
			return fmt.Errorf("failed to write row %d of sheet %q: %w", i+2, name, err)
		}
	}
	return nil
}

// Save writes the workbook to path atomically: the file is assembled under a
// temporary name and renamed into place only on success, so a failed render
// never clobbers a previously generated artifact.
func (w *workbook) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	tmp := path + ".tmp"
	// SaveAs rejects the ".tmp" extension, so write through a file handle.
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to write workbook %s: %w", tmp, err)
	}
	if _, err := w.file.WriteTo(f); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to write workbook %s: %w", tmp, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to write workbook %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to move workbook into place at %s: %w", path, err)
	}
	return nil
}

// Close releases the underlying excelize resources.
func (w *workbook) Close() error {
	return w.file.Close()
}
