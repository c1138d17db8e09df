// Package report renders the overlap tables into spreadsheet artifacts:
// the contract summary, the detailed per-ZIP matches, the per-contract match
// counts, the fixed-size batched exports, and the new-ZIP match report.
package report

import (
	"fmt"
	"path/filepath"

	"github.com/FedeHorus/zipreport/internal/overlap"
	"github.com/FedeHorus/zipreport/services"
)

// Sheet names used across the generated artifacts.
const (
	SheetContractSummary = "Contract Summary"
	SheetDetailedMatches = "Detailed Matches"
	SheetMatchCounts     = "Contract Match Counts"
	SheetActiveCounts    = "Active Counts"
	SheetZipMatches      = "ZIP Matches"
)

// Artifact file names. Each run writes fresh artifacts; a failed run leaves
// existing ones untouched (see workbook.Save).
const (
	ArtifactContractSummary = "contract_summary.xlsx"
	ArtifactDetailedMatches = "detailed_contract_zip_matches.xlsx"
	ArtifactZipMatches      = "new_zip_matches.xlsx"
	artifactBatchPattern    = "contract_matches_batch_%d.xlsx"
)

// Generator renders report artifacts from the overlap analyzer's snapshot
// views into a single output directory.
type Generator struct {
	analyzer  *overlap.Analyzer
	outputDir string
	batchSize int
}

// NewGenerator creates a Generator writing into outputDir with the given
// export batch size.
func NewGenerator(analyzer *overlap.Analyzer, outputDir string, batchSize int) (*Generator, error) {
	if analyzer == nil {
		return nil, fmt.Errorf("analyzer cannot be nil")
	}
	if batchSize < 1 {
		return nil, fmt.Errorf("batch size must be at least 1, got %d", batchSize)
	}
	return &Generator{analyzer: analyzer, outputDir: outputDir, batchSize: batchSize}, nil
}

// GenerateAll renders every artifact: the contract summary, the detailed
// matches, and one batched export per group of contracts-with-overlaps.
func (g *Generator) GenerateAll() (*services.ReportInfo, error) {
	summaries := g.analyzer.Summaries()
	active := overlap.ActiveCounts(summaries)

	info := &services.ReportInfo{Contracts: len(summaries)}
	for _, summary := range summaries {
		if summary.OverlapCount > 0 {
			info.Overlaps++
		}
	}

	summaryPath, err := g.writeContractSummary(summaries, active)
	if err != nil {
		return nil, err
	}
	info.Files = append(info.Files, summaryPath)

	detailPath, err := g.writeDetailedMatches(summaries, active)
	if err != nil {
		return nil, err
	}
	info.Files = append(info.Files, detailPath)

	batchPaths, err := g.writeBatches(summaries)
	if err != nil {
		return nil, err
	}
	info.Files = append(info.Files, batchPaths...)
	info.Batches = len(batchPaths)

	return info, nil
}

func (g *Generator) writeContractSummary(summaries []services.OverlapSummary, active services.ActiveCounts) (string, error) {
	wb := newWorkbook()
	defer func() { _ = wb.Close() }()

	rows := make([][]interface{}, 0, len(summaries))
	for _, s := range summaries {
		rows = append(rows, []interface{}{
			s.ContractName, s.BuyerName, s.BuyerID, s.VerticalName, s.Status,
			s.ZipCount, s.OverlapCount, s.OverlapContracts,
		})
	}
	header := []string{
		"Contract Name", "Buyer Name", "Buyer ID", "Vertical Name", "Contract Status",
		"Total Zip Count", "Zip Match Count", "Overlapping Contracts",
	}
	if err := wb.AddSheet(SheetContractSummary, header, rows); err != nil {
		return "", err
	}
	if err := addActiveCountsSheet(wb, active); err != nil {
		return "", err
	}

	path := filepath.Join(g.outputDir, ArtifactContractSummary)
	if err := wb.Save(path); err != nil {
		return "", err
	}
	return path, nil
}

func (g *Generator) writeDetailedMatches(summaries []services.OverlapSummary, active services.ActiveCounts) (string, error) {
	wb := newWorkbook()
	defer func() { _ = wb.Close() }()

	details := g.analyzer.DetailRows(summaries)
	if err := wb.AddSheet(SheetDetailedMatches, detailHeader(), detailCells(details)); err != nil {
		return "", err
	}

	counts := overlap.MatchCounts(summaries)
	countRows := make([][]interface{}, 0, len(counts))
	for _, c := range counts {
		countRows = append(countRows, []interface{}{c.ContractName, c.Matches})
	}
	if err := wb.AddSheet(SheetMatchCounts, []string{"Contract Name", "Match Count"}, countRows); err != nil {
		return "", err
	}
	if err := addActiveCountsSheet(wb, active); err != nil {
		return "", err
	}

	path := filepath.Join(g.outputDir, ArtifactDetailedMatches)
	if err := wb.Save(path); err != nil {
		return "", err
	}
	return path, nil
}

// writeBatches partitions the contracts-with-overlaps into fixed-size groups
// and writes one workbook per group, one sheet per contract.
func (g *Generator) writeBatches(summaries []services.OverlapSummary) ([]string, error) {
	batches := PartitionOverlaps(summaries, g.batchSize)

	paths := make([]string, 0, len(batches))
	for i, batch := range batches {
		wb := newWorkbook()
		namer := newSheetNamer()

		for _, summary := range batch {
			details := g.analyzer.DetailRowsFor(summary.ContractName)
			sheet := namer.Name(summary.ContractName)
			if err := wb.AddSheet(sheet, detailHeader(), detailCells(details)); err != nil {
				_ = wb.Close()
				return nil, fmt.Errorf("batch %d: %w", i+1, err)
			}
		}

		path := filepath.Join(g.outputDir, fmt.Sprintf(artifactBatchPattern, i+1))
		if err := wb.Save(path); err != nil {
			_ = wb.Close()
			return nil, fmt.Errorf("batch %d: %w", i+1, err)
		}
		_ = wb.Close()
		paths = append(paths, path)
	}
	return paths, nil
}

// WriteZipMatches renders the new-ZIP match report. The caller guarantees the
// result has at least one row; a zero-row match produces no artifact at all.
func WriteZipMatches(outputDir string, result *services.MatchResult) (string, error) {
	wb := newWorkbook()
	defer func() { _ = wb.Close() }()

	header := []string{
		"Zip Code", "State ID", "Contract Name", "Buyer Name", "Buyer ID",
		"Root Buyer", "Vertical Name", "Contract Status", "Total Zip Count",
	}
	rows := make([][]interface{}, 0, len(result.Rows))
	for _, m := range result.Rows {
		rows = append(rows, []interface{}{
			m.Zip, m.StateID, m.ContractName, m.BuyerName, m.BuyerID,
			m.RootBuyer, m.VerticalName, m.Status, m.ZipCount,
		})
	}
	if err := wb.AddSheet(SheetZipMatches, header, rows); err != nil {
		return "", err
	}

	countRows := make([][]interface{}, 0, len(result.Counts))
	for _, c := range result.Counts {
		countRows = append(countRows, []interface{}{c.ContractName, c.Matches})
	}
	if err := wb.AddSheet(SheetMatchCounts, []string{"Contract Name", "Match Count"}, countRows); err != nil {
		return "", err
	}
	if err := addActiveCountsSheet(wb, result.Active); err != nil {
		return "", err
	}

	path := filepath.Join(outputDir, ArtifactZipMatches)
	if err := wb.Save(path); err != nil {
		return "", err
	}
	return path, nil
}

func detailHeader() []string {
	return []string{"Contract Name", "Zip Code", "State ID", "Matches"}
}

func detailCells(details []services.DetailRow) [][]interface{} {
	rows := make([][]interface{}, 0, len(details))
	for _, d := range details {
		rows = append(rows, []interface{}{d.ContractName, d.Zip, d.StateID, d.Matches})
	}
	return rows
}

func addActiveCountsSheet(wb *workbook, active services.ActiveCounts) error {
	rows := [][]interface{}{
		{"Active Contracts", active.ActiveContracts},
		{"Distinct Buyers", active.DistinctBuyers},
	}
	return wb.AddSheet(SheetActiveCounts, []string{"Metric", "Count"}, rows)
}
