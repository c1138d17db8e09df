package match

import (
	stderrors "errors"
	"testing"

	"github.com/FedeHorus/zipreport/index"
	zerrors "github.com/FedeHorus/zipreport/internal/errors"
	"github.com/FedeHorus/zipreport/internal/indexing"
	"github.com/FedeHorus/zipreport/internal/ingest"
	"github.com/FedeHorus/zipreport/model"
	"github.com/FedeHorus/zipreport/store"
)

func row(contract, zip, buyer, status string) model.SourceRow {
	return model.SourceRow{
		ContractName: contract,
		Zip:          zip,
		BuyerName:    buyer,
		BuyerID:      "B-" + contract,
		VerticalName: "home services",
		Status:       status,
	}
}

// builtMatcher indexes C1 and C2 both claiming ZIP1, C3 alone on ZIP2.
func builtMatcher(t *testing.T) *Service {
	t.Helper()
	zipIdx := index.NewZipIndex()
	contracts := store.NewContractStore()
	idx, err := indexing.NewService(zipIdx, contracts)
	if err != nil {
		t.Fatalf("indexing.NewService() error = %v", err)
	}
	rows := []model.SourceRow{
		row("C1", "ZIP1", "Acme Corp East", "Active"),
		row("C2", "ZIP1", "Globex Inc", "Inactive"),
		row("C3", "ZIP2", "Acme Corp West", "Active"),
	}
	if err := idx.Ingest(rows); err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	matcher, err := NewService(zipIdx, contracts)
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	return matcher
}

func zipList(zips ...string) *ingest.SliceSource {
	rows := make([][]string, len(zips))
	for i, zip := range zips {
		rows[i] = []string{zip}
	}
	return ingest.NewSliceSource([]string{"Zip Code"}, rows)
}

func TestNewService(t *testing.T) {
	if _, err := NewService(nil, store.NewContractStore()); err == nil {
		t.Error("NewService() with nil zip index, wantErr, got nil")
	}
	if _, err := NewService(index.NewZipIndex(), nil); err == nil {
		t.Error("NewService() with nil contract store, wantErr, got nil")
	}
}

func TestFindZipColumn(t *testing.T) {
	tests := []struct {
		name    string
		header  []string
		want    int
		wantErr bool
	}{
		{"exact", []string{"Zip Code"}, 0, false},
		{"case-insensitive substring", []string{"Name", "NEW ZIPS"}, 1, false},
		{"first of several", []string{"zip", "Zip Code"}, 0, false},
		{"no zip column", []string{"Name", "State"}, 0, true},
		{"empty header", nil, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := findZipColumn(tt.header)
			if (err != nil) != tt.wantErr {
				t.Fatalf("findZipColumn() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if !stderrors.Is(err, zerrors.ErrSchema) {
					t.Errorf("error = %v, want ErrSchema", err)
				}
				return
			}
			if got != tt.want {
				t.Errorf("findZipColumn() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestMatch(t *testing.T) {
	matcher := builtMatcher(t)

	// ZIP1 is claimed by two contracts; ZIP9 is unknown.
	result, err := matcher.Match(zipList("ZIP1", "ZIP9"), "")
	if err != nil {
		t.Fatalf("Match() error = %v", err)
	}

	if result.InputZips != 2 {
		t.Errorf("InputZips = %d, want 2", result.InputZips)
	}
	if result.MatchedZips != 1 {
		t.Errorf("MatchedZips = %d, want 1", result.MatchedZips)
	}
	if len(result.UnmatchedZips) != 1 || result.UnmatchedZips[0] != "ZIP9" {
		t.Errorf("UnmatchedZips = %v, want [ZIP9]", result.UnmatchedZips)
	}

	if len(result.Rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(result.Rows))
	}
	// Contracts per ZIP come out in lexicographic order.
	if result.Rows[0].ContractName != "C1" || result.Rows[1].ContractName != "C2" {
		t.Errorf("row contracts = [%s %s], want [C1 C2]", result.Rows[0].ContractName, result.Rows[1].ContractName)
	}
	first := result.Rows[0]
	if first.Zip != "ZIP1" || first.BuyerName != "Acme Corp East" || first.RootBuyer != "Acme" || first.ZipCount != 1 {
		t.Errorf("row = %+v, want ZIP1/Acme Corp East/Acme/1", first)
	}

	if len(result.Counts) != 2 || result.Counts[0].Matches != 1 {
		t.Errorf("Counts = %+v, want one match each", result.Counts)
	}
	// Only C1 is active among the matched rows.
	if result.Active.ActiveContracts != 1 || result.Active.DistinctBuyers != 1 {
		t.Errorf("Active = %+v, want 1 contract, 1 buyer", result.Active)
	}
}

func TestMatch_Deduplicates(t *testing.T) {
	matcher := builtMatcher(t)

	result, err := matcher.Match(zipList("ZIP1", "ZIP1", " ZIP1 "), "")
	if err != nil {
		t.Fatalf("Match() error = %v", err)
	}
	if result.InputZips != 1 {
		t.Errorf("InputZips = %d, want 1 after de-duplication", result.InputZips)
	}
	if len(result.Rows) != 2 {
		t.Errorf("got %d rows, want 2 (one per claiming contract)", len(result.Rows))
	}
}

func TestMatch_NullMarkersSkipped(t *testing.T) {
	matcher := builtMatcher(t)

	result, err := matcher.Match(zipList("null", "NaN", "", "ZIP2"), "")
	if err != nil {
		t.Fatalf("Match() error = %v", err)
	}
	if result.InputZips != 1 {
		t.Errorf("InputZips = %d, want 1 (null markers dropped)", result.InputZips)
	}
	if result.Rows[0].ContractName != "C3" {
		t.Errorf("matched contract = %s, want C3", result.Rows[0].ContractName)
	}
}

func TestMatch_NoMatches(t *testing.T) {
	matcher := builtMatcher(t)

	_, err := matcher.Match(zipList("ZIP8", "ZIP9"), "")
	if !stderrors.Is(err, zerrors.ErrNoMatches) {
		t.Errorf("Match() error = %v, want ErrNoMatches", err)
	}
}

func TestMatch_BuyerFilter(t *testing.T) {
	matcher := builtMatcher(t)

	result, err := matcher.Match(zipList("ZIP1", "ZIP2"), "acme")
	if err != nil {
		t.Fatalf("Match() error = %v", err)
	}
	if len(result.Rows) != 2 {
		t.Fatalf("got %d rows, want 2 (Globex filtered out)", len(result.Rows))
	}
	for _, r := range result.Rows {
		if r.RootBuyer != "Acme" {
			t.Errorf("row buyer = %q, want an Acme contract", r.BuyerName)
		}
	}

	// A filter that excludes every row yields ErrNoMatches.
	if _, err := matcher.Match(zipList("ZIP1"), "nonexistent buyer"); !stderrors.Is(err, zerrors.ErrNoMatches) {
		t.Errorf("Match() with excluding filter error = %v, want ErrNoMatches", err)
	}
}

func TestMatch_MissingZipColumn(t *testing.T) {
	matcher := builtMatcher(t)

	src := ingest.NewSliceSource([]string{"Name", "State"}, [][]string{{"x", "y"}})
	_, err := matcher.Match(src, "")
	if !stderrors.Is(err, zerrors.ErrSchema) {
		t.Errorf("Match() error = %v, want ErrSchema", err)
	}
}

func TestMatchCounts_Ordering(t *testing.T) {
	rows := []model.MatchRecord{
		{Zip: "Z1", ContractName: "C1"},
		{Zip: "Z1", ContractName: "C2"},
		{Zip: "Z2", ContractName: "C2"},
		{Zip: "Z3", ContractName: "C3"},
	}

	counts := matchCounts(rows)
	if len(counts) != 3 {
		t.Fatalf("got %d counts, want 3", len(counts))
	}
	if counts[0].ContractName != "C2" || counts[0].Matches != 2 {
		t.Errorf("counts[0] = %+v, want C2 with 2", counts[0])
	}
	// Ties keep first-appearance order.
	if counts[1].ContractName != "C1" || counts[2].ContractName != "C3" {
		t.Errorf("tie order = [%s %s], want [C1 C3]", counts[1].ContractName, counts[2].ContractName)
	}
}

func TestActiveCounts_DistinctOverRows(t *testing.T) {
	rows := []model.MatchRecord{
		{Zip: "Z1", ContractName: "C1", BuyerName: "Acme", Status: "Active"},
		{Zip: "Z2", ContractName: "C1", BuyerName: "Acme", Status: "Active"},
		{Zip: "Z1", ContractName: "C2", BuyerName: "Acme", Status: "ACTIVE"},
		{Zip: "Z1", ContractName: "C3", BuyerName: "Globex", Status: "Inactive"},
	}

	active := activeCounts(rows)
	if active.ActiveContracts != 2 {
		t.Errorf("ActiveContracts = %d, want 2 distinct", active.ActiveContracts)
	}
	if active.DistinctBuyers != 1 {
		t.Errorf("DistinctBuyers = %d, want 1", active.DistinctBuyers)
	}
}
