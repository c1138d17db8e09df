package ingest

import (
	"fmt"
	"io"
	"strings"

	"github.com/FedeHorus/zipreport/internal/errors"
	"github.com/FedeHorus/zipreport/model"
	"github.com/FedeHorus/zipreport/services"
)

// Column names recognized in the main contract input. Names are matched
// case-sensitively after whitespace trimming.
const (
	ColContractName   = "Contract Name"
	ColZipCode        = "Zip Code"
	ColBuyerName      = "Buyer Name"
	ColBuyerID        = "Buyer ID"
	ColVerticalName   = "Vertical Name"
	ColStateID        = "State ID"
	ColContractStatus = "Contract Status"
	ColBuyerStatus    = "Buyer Status"
)

// activeStatus is the only status value the active filter retains.
const activeStatus = "active"

// Options controls one ingestion pass.
type Options struct {
	// ChunkSize bounds the number of validated rows emitted per chunk.
	ChunkSize int

	// ActiveOnly drops rows whose contract or buyer status (when those
	// columns exist) is not case-insensitively "active".
	ActiveOnly bool
}

// Progress carries the loader's observability counters. It is reported after
// every chunk and once more at the end of the pass.
type Progress struct {
	RowsSeen     int
	RowsRetained int
	Chunks       int
}

// ChunkFunc consumes one chunk of validated rows. Returning an error aborts
// the pass.
type ChunkFunc func(rows []model.SourceRow) error

// ProgressFunc observes loader progress. It must not retain the Progress
// value's address.
type ProgressFunc func(Progress)

// columnLayout maps the recognized columns to their positions in a source
// header, with -1 for columns the source does not carry.
type columnLayout struct {
	contractName   int
	zipCode        int
	buyerName      int
	buyerID        int
	verticalName   int
	stateID        int
	contractStatus int
	buyerStatus    int
}

// resolveColumns locates the recognized columns in the header. The contract
// name and ZIP code columns are required; their absence is a schema error
// surfaced before any row is processed.
func resolveColumns(header []string) (columnLayout, error) {
	layout := columnLayout{
		contractName:   -1,
		zipCode:        -1,
		buyerName:      -1,
		buyerID:        -1,
		verticalName:   -1,
		stateID:        -1,
		contractStatus: -1,
		buyerStatus:    -1,
	}

	for i, name := range header {
		switch name {
		case ColContractName:
			layout.contractName = i
		case ColZipCode:
			layout.zipCode = i
		case ColBuyerName:
			layout.buyerName = i
		case ColBuyerID:
			layout.buyerID = i
		case ColVerticalName:
			layout.verticalName = i
		case ColStateID:
			layout.stateID = i
		case ColContractStatus:
			layout.contractStatus = i
		case ColBuyerStatus:
			layout.buyerStatus = i
		}
	}

	if layout.contractName == -1 {
		return layout, errors.NewSchemaError("contracts", ColContractName)
	}
	if layout.zipCode == -1 {
		return layout, errors.NewSchemaError("contracts", ColZipCode)
	}
	return layout, nil
}

// nullMarkers are cell values treated as absent, matching the textual null
// representations that show up in exported spreadsheets.
var nullMarkers = map[string]struct{}{
	"null": {},
	"none": {},
	"nan":  {},
	"n/a":  {},
}

// NormalizeZip trims a raw ZIP value and returns "" when the value is empty
// or a null marker. Leading zeros are preserved; ZIPs are never parsed as
// numbers.
func NormalizeZip(raw string) string {
	zip := strings.TrimSpace(raw)
	if _, isNull := nullMarkers[strings.ToLower(zip)]; isNull {
		return ""
	}
	return zip
}

// Load streams validated rows from src to fn in chunks of at most
// opts.ChunkSize rows. Rows are dropped when the contract name or ZIP code
// is missing (or a null marker), and, with the active filter on, when a
// present status column is not "active". Dropped rows are visible only in
// the aggregate seen/retained counters, never individually.
func Load(src services.RowSource, opts Options, fn ChunkFunc, onProgress ProgressFunc) (Progress, error) {
	var progress Progress

	if opts.ChunkSize < 1 {
		return progress, fmt.Errorf("chunk size must be at least 1, got %d", opts.ChunkSize)
	}

	layout, err := resolveColumns(src.Header())
	if err != nil {
		return progress, err
	}

	chunk := make([]model.SourceRow, 0, opts.ChunkSize)

	flush := func() error {
		if len(chunk) == 0 {
			return nil
		}
		if err := fn(chunk); err != nil {
			return fmt.Errorf("chunk %d failed: %w", progress.Chunks+1, err)
		}
		progress.Chunks++
		chunk = chunk[:0]
		if onProgress != nil {
			onProgress(progress)
		}
		return nil
	}

	for {
		cells, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return progress, fmt.Errorf("failed to read source row %d: %w", progress.RowsSeen+1, err)
		}
		progress.RowsSeen++

		row, ok := validateRow(cells, layout, opts.ActiveOnly)
		if !ok {
			continue
		}
		progress.RowsRetained++
		chunk = append(chunk, row)

		if len(chunk) == opts.ChunkSize {
			if err := flush(); err != nil {
				return progress, err
			}
		}
	}

	if err := flush(); err != nil {
		return progress, err
	}
	if onProgress != nil {
		onProgress(progress)
	}
	return progress, nil
}

// validateRow applies the row-level rules from the load contract. It returns
// ok=false for rows that must be silently excluded.
func validateRow(cells []string, layout columnLayout, activeOnly bool) (model.SourceRow, bool) {
	cell := func(idx int) string {
		if idx < 0 {
			return ""
		}
		return strings.TrimSpace(cells[idx])
	}

	name := cell(layout.contractName)
	zip := NormalizeZip(cell(layout.zipCode))
	if name == "" || zip == "" {
		return model.SourceRow{}, false
	}

	if activeOnly {
		if layout.contractStatus >= 0 && !strings.EqualFold(cell(layout.contractStatus), activeStatus) {
			return model.SourceRow{}, false
		}
		if layout.buyerStatus >= 0 && !strings.EqualFold(cell(layout.buyerStatus), activeStatus) {
			return model.SourceRow{}, false
		}
	}

	row := model.SourceRow{
		ContractName: name,
		Zip:          zip,
		BuyerName:    cell(layout.buyerName),
		BuyerID:      cell(layout.buyerID),
		VerticalName: cell(layout.verticalName),
		Status:       cell(layout.contractStatus),
	}

	if layout.stateID >= 0 {
		if stateID := cell(layout.stateID); stateID != "" {
			row.StateID = &stateID
		}
	}
	return row, true
}
