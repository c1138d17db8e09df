package report

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/FedeHorus/zipreport/index"
	"github.com/FedeHorus/zipreport/internal/indexing"
	"github.com/FedeHorus/zipreport/internal/overlap"
	"github.com/FedeHorus/zipreport/model"
	"github.com/FedeHorus/zipreport/services"
	"github.com/FedeHorus/zipreport/store"
)

func sourceRow(contract, zip string) model.SourceRow {
	return model.SourceRow{
		ContractName: contract,
		Zip:          zip,
		BuyerName:    "Buyer " + contract,
		BuyerID:      "B-" + contract,
		VerticalName: "home services",
		Status:       "Active",
	}
}

// testAnalyzer builds an analyzer over C1 and C2 sharing ZIP1, with C3 alone
// on ZIP2 and C1 additionally holding ZIP3.
func testAnalyzer(t *testing.T) *overlap.Analyzer {
	t.Helper()
	zipIdx := index.NewZipIndex()
	contracts := store.NewContractStore()
	svc, err := indexing.NewService(zipIdx, contracts)
	if err != nil {
		t.Fatalf("indexing.NewService() error = %v", err)
	}
	rows := []model.SourceRow{
		sourceRow("C1", "ZIP1"),
		sourceRow("C1", "ZIP3"),
		sourceRow("C2", "ZIP1"),
		sourceRow("C3", "ZIP2"),
	}
	if err := svc.Ingest(rows); err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	analyzer, err := overlap.NewAnalyzer(zipIdx, contracts)
	if err != nil {
		t.Fatalf("NewAnalyzer() error = %v", err)
	}
	return analyzer
}

func openWorkbook(t *testing.T, path string) *excelize.File {
	t.Helper()
	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("failed to open workbook %s: %v", path, err)
	}
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func cell(t *testing.T, f *excelize.File, sheet, ref string) string {
	t.Helper()
	value, err := f.GetCellValue(sheet, ref)
	if err != nil {
		t.Fatalf("failed to read %s!%s: %v", sheet, ref, err)
	}
	return value
}

func TestNewGenerator(t *testing.T) {
	analyzer := testAnalyzer(t)
	if _, err := NewGenerator(nil, t.TempDir(), 2); err == nil {
		t.Error("NewGenerator() with nil analyzer, wantErr, got nil")
	}
	if _, err := NewGenerator(analyzer, t.TempDir(), 0); err == nil {
		t.Error("NewGenerator() with batch size 0, wantErr, got nil")
	}
}

func TestGenerateAll(t *testing.T) {
	dir := t.TempDir()
	gen, err := NewGenerator(testAnalyzer(t), dir, 1)
	if err != nil {
		t.Fatalf("NewGenerator() error = %v", err)
	}

	info, err := gen.GenerateAll()
	if err != nil {
		t.Fatalf("GenerateAll() error = %v", err)
	}

	if info.Contracts != 3 {
		t.Errorf("Contracts = %d, want 3", info.Contracts)
	}
	if info.Overlaps != 2 {
		t.Errorf("Overlaps = %d, want 2 (C1 and C2)", info.Overlaps)
	}
	// Batch size 1 with two overlapping contracts -> two batch files.
	if info.Batches != 2 {
		t.Errorf("Batches = %d, want 2", info.Batches)
	}
	if len(info.Files) != 4 {
		t.Fatalf("Files = %v, want 4 paths", info.Files)
	}
	for _, path := range info.Files {
		if _, err := os.Stat(path); err != nil {
			t.Errorf("artifact %s not written: %v", path, err)
		}
	}
	// No temporary files left behind.
	leftovers, err := filepath.Glob(filepath.Join(dir, "*.tmp"))
	if err != nil {
		t.Fatalf("glob error = %v", err)
	}
	if len(leftovers) != 0 {
		t.Errorf("leftover temp files: %v", leftovers)
	}
}

func TestContractSummaryArtifact(t *testing.T) {
	dir := t.TempDir()
	gen, err := NewGenerator(testAnalyzer(t), dir, 20)
	if err != nil {
		t.Fatalf("NewGenerator() error = %v", err)
	}
	if _, err := gen.GenerateAll(); err != nil {
		t.Fatalf("GenerateAll() error = %v", err)
	}

	f := openWorkbook(t, filepath.Join(dir, ArtifactContractSummary))

	sheets := f.GetSheetList()
	if len(sheets) != 2 || sheets[0] != SheetContractSummary || sheets[1] != SheetActiveCounts {
		t.Fatalf("sheets = %v, want [%s %s]", sheets, SheetContractSummary, SheetActiveCounts)
	}

	if got := cell(t, f, SheetContractSummary, "A1"); got != "Contract Name" {
		t.Errorf("A1 = %q, want header", got)
	}
	// C1 has the most ZIPs so it sorts first.
	if got := cell(t, f, SheetContractSummary, "A2"); got != "C1" {
		t.Errorf("A2 = %q, want C1", got)
	}
	if got := cell(t, f, SheetContractSummary, "F2"); got != "2" {
		t.Errorf("F2 (total ZIP count) = %q, want 2", got)
	}
	if got := cell(t, f, SheetContractSummary, "G2"); got != "1" {
		t.Errorf("G2 (ZIP match count) = %q, want 1", got)
	}

	if got := cell(t, f, SheetActiveCounts, "A2"); got != "Active Contracts" {
		t.Errorf("active counts A2 = %q", got)
	}
	if got := cell(t, f, SheetActiveCounts, "B2"); got != "3" {
		t.Errorf("active contracts = %q, want 3", got)
	}
}

func TestDetailedMatchesArtifact(t *testing.T) {
	dir := t.TempDir()
	gen, err := NewGenerator(testAnalyzer(t), dir, 20)
	if err != nil {
		t.Fatalf("NewGenerator() error = %v", err)
	}
	if _, err := gen.GenerateAll(); err != nil {
		t.Fatalf("GenerateAll() error = %v", err)
	}

	f := openWorkbook(t, filepath.Join(dir, ArtifactDetailedMatches))

	sheets := f.GetSheetList()
	want := []string{SheetDetailedMatches, SheetMatchCounts, SheetActiveCounts}
	if len(sheets) != len(want) {
		t.Fatalf("sheets = %v, want %v", sheets, want)
	}
	for i := range want {
		if sheets[i] != want[i] {
			t.Errorf("sheets[%d] = %q, want %q", i, sheets[i], want[i])
		}
	}

	// C1 first (2 ZIPs), its ZIPs ascending: ZIP1 then ZIP3.
	if got := cell(t, f, SheetDetailedMatches, "A2"); got != "C1" {
		t.Errorf("first detail contract = %q, want C1", got)
	}
	if got := cell(t, f, SheetDetailedMatches, "B2"); got != "ZIP1" {
		t.Errorf("first detail ZIP = %q, want ZIP1", got)
	}
	if got := cell(t, f, SheetDetailedMatches, "D2"); got != "C2" {
		t.Errorf("ZIP1 matches = %q, want C2", got)
	}
	if got := cell(t, f, SheetDetailedMatches, "D3"); got != "" {
		t.Errorf("ZIP3 matches = %q, want empty", got)
	}
}

func TestBatchArtifacts(t *testing.T) {
	dir := t.TempDir()
	gen, err := NewGenerator(testAnalyzer(t), dir, 20)
	if err != nil {
		t.Fatalf("NewGenerator() error = %v", err)
	}
	info, err := gen.GenerateAll()
	if err != nil {
		t.Fatalf("GenerateAll() error = %v", err)
	}
	if info.Batches != 1 {
		t.Fatalf("Batches = %d, want 1 with batch size 20", info.Batches)
	}

	f := openWorkbook(t, filepath.Join(dir, "contract_matches_batch_1.xlsx"))

	// One sheet per contract with overlaps, named after the contract.
	sheets := f.GetSheetList()
	if len(sheets) != 2 || sheets[0] != "C1" || sheets[1] != "C2" {
		t.Fatalf("batch sheets = %v, want [C1 C2]", sheets)
	}
	if got := cell(t, f, "C2", "B2"); got != "ZIP1" {
		t.Errorf("C2 sheet ZIP = %q, want ZIP1", got)
	}
	if got := cell(t, f, "C2", "D2"); got != "C1" {
		t.Errorf("C2 sheet matches = %q, want C1", got)
	}
}

func TestWriteZipMatches(t *testing.T) {
	dir := t.TempDir()
	result := &services.MatchResult{
		Rows: []model.MatchRecord{
			{Zip: "78701", StateID: "TX", ContractName: "C1", BuyerName: "Acme Corp", BuyerID: "B-1", RootBuyer: "Acme", VerticalName: "home services", Status: "Active", ZipCount: 12},
			{Zip: "78701", ContractName: "C2", BuyerName: "Globex", BuyerID: "B-2", RootBuyer: "Globex", VerticalName: "home services", Status: "Inactive", ZipCount: 3},
		},
		Counts: []services.ContractMatchCount{
			{ContractName: "C1", Matches: 1},
			{ContractName: "C2", Matches: 1},
		},
		Active: services.ActiveCounts{ActiveContracts: 1, DistinctBuyers: 1},
	}

	path, err := WriteZipMatches(dir, result)
	if err != nil {
		t.Fatalf("WriteZipMatches() error = %v", err)
	}
	if filepath.Base(path) != ArtifactZipMatches {
		t.Errorf("artifact = %s, want %s", path, ArtifactZipMatches)
	}

	f := openWorkbook(t, path)
	sheets := f.GetSheetList()
	want := []string{SheetZipMatches, SheetMatchCounts, SheetActiveCounts}
	if len(sheets) != len(want) {
		t.Fatalf("sheets = %v, want %v", sheets, want)
	}
	for i := range want {
		if sheets[i] != want[i] {
			t.Errorf("sheets[%d] = %q, want %q", i, sheets[i], want[i])
		}
	}

	if got := cell(t, f, SheetZipMatches, "A2"); got != "78701" {
		t.Errorf("A2 = %q, want ZIP as text", got)
	}
	if got := cell(t, f, SheetZipMatches, "F2"); got != "Acme" {
		t.Errorf("F2 (root buyer) = %q, want Acme", got)
	}
	if got := cell(t, f, SheetZipMatches, "I3"); got != "3" {
		t.Errorf("I3 (ZIP count) = %q, want 3", got)
	}
	if got := cell(t, f, SheetActiveCounts, "B3"); got != "1" {
		t.Errorf("distinct buyers = %q, want 1", got)
	}
}

// A render into an unwritable location must not disturb an artifact from a
// previous successful run.
func TestSave_PreservesPreviousArtifactOnFailure(t *testing.T) {
	dir := t.TempDir()
	gen, err := NewGenerator(testAnalyzer(t), dir, 20)
	if err != nil {
		t.Fatalf("NewGenerator() error = %v", err)
	}
	if _, err := gen.GenerateAll(); err != nil {
		t.Fatalf("GenerateAll() error = %v", err)
	}

	summaryPath := filepath.Join(dir, ArtifactContractSummary)
	before, err := os.ReadFile(summaryPath)
	if err != nil {
		t.Fatalf("failed to read artifact: %v", err)
	}

	// Block the temp-file path with a directory so SaveAs fails.
	if err := os.Mkdir(summaryPath+".tmp", 0o750); err != nil {
		t.Fatalf("failed to plant blocking dir: %v", err)
	}
	if _, err := gen.GenerateAll(); err == nil {
		t.Fatal("GenerateAll() with blocked temp path, wantErr, got nil")
	}

	after, err := os.ReadFile(summaryPath)
	if err != nil {
		t.Fatalf("artifact missing after failed run: %v", err)
	}
	if string(before) != string(after) {
		t.Error("failed run modified the previous artifact")
	}
}
