// Package overlap derives per-contract overlap statistics from the completed
// bidirectional index, without re-reading source rows.
package overlap

import (
	"fmt"
	"sort"
	"strings"

	"github.com/FedeHorus/zipreport/index"
	"github.com/FedeHorus/zipreport/services"
	"github.com/FedeHorus/zipreport/store"
)

// Analyzer computes overlap statistics over a read-only snapshot of the
// index. Results do not depend on the order contracts or ZIPs were ingested,
// except for the documented first-seen tie-break in the summary sort.
type Analyzer struct {
	zipIndex      *index.ZipIndex
	contractStore *store.ContractStore
}

// NewAnalyzer creates an Analyzer over the given index halves.
func NewAnalyzer(zipIndex *index.ZipIndex, contractStore *store.ContractStore) (*Analyzer, error) {
	if zipIndex == nil {
		return nil, fmt.Errorf("zip index cannot be nil")
	}
	if contractStore == nil {
		return nil, fmt.Errorf("contract store cannot be nil")
	}
	return &Analyzer{zipIndex: zipIndex, contractStore: contractStore}, nil
}

// Summaries returns one OverlapSummary per contract, sorted descending by
// total ZIP count with ties broken by first-seen order. The tie-break is
// deterministic within one load but is an implementation choice, not a
// semantic contract.
func (a *Analyzer) Summaries() []services.OverlapSummary {
	a.contractStore.Mu.RLock()
	a.zipIndex.Mu.RLock()
	defer a.contractStore.Mu.RUnlock()
	defer a.zipIndex.Mu.RUnlock()

	summaries := make([]services.OverlapSummary, 0, len(a.contractStore.Order))
	for _, name := range a.contractStore.Order {
		rec := a.contractStore.GetUnsafe(name)
		if rec == nil {
			continue
		}

		overlapCount := 0
		overlapping := make(map[string]struct{})
		for zip := range rec.Zips {
			for other := range a.zipIndex.ContractsForUnsafe(zip) {
				if other == name {
					continue
				}
				overlapCount++
				overlapping[other] = struct{}{}
			}
		}

		summaries = append(summaries, services.OverlapSummary{
			ContractName:     rec.Name,
			BuyerName:        rec.BuyerName,
			BuyerID:          rec.BuyerID,
			VerticalName:     rec.VerticalName,
			Status:           rec.Status,
			ZipCount:         rec.ZipCount(),
			OverlapCount:     overlapCount,
			OverlapContracts: len(overlapping),
		})
	}

	// Stable sort keeps the first-seen order for equal ZIP counts.
	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].ZipCount > summaries[j].ZipCount
	})
	return summaries
}

// DetailRows returns one row per (contract, ZIP) pair for the contracts in
// the given summary order, with each contract's ZIPs sorted ascending and the
// other contracts sharing each ZIP sorted lexicographically and comma-joined.
func (a *Analyzer) DetailRows(summaries []services.OverlapSummary) []services.DetailRow {
	var rows []services.DetailRow
	for _, summary := range summaries {
		rows = append(rows, a.DetailRowsFor(summary.ContractName)...)
	}
	return rows
}

// DetailRowsFor returns the detail rows for a single contract, ZIPs sorted
// ascending. It returns nil for unknown contracts.
func (a *Analyzer) DetailRowsFor(contract string) []services.DetailRow {
	a.contractStore.Mu.RLock()
	a.zipIndex.Mu.RLock()
	defer a.contractStore.Mu.RUnlock()
	defer a.zipIndex.Mu.RUnlock()

	rec := a.contractStore.GetUnsafe(contract)
	if rec == nil {
		return nil
	}

	zips := make([]string, 0, len(rec.Zips))
	for zip := range rec.Zips {
		zips = append(zips, zip)
	}
	sort.Strings(zips)

	rows := make([]services.DetailRow, 0, len(zips))
	for _, zip := range zips {
		others := a.zipIndex.ContractsForUnsafe(zip).Others(contract)
		rows = append(rows, services.DetailRow{
			ContractName: contract,
			Zip:          zip,
			StateID:      rec.StateID(zip),
			Matches:      strings.Join(others, ", "),
			MatchCount:   len(others),
		})
	}
	return rows
}

// MatchCounts aggregates the per-contract total of other-contract entries
// across detail rows, sorted descending by count (first-seen order breaks
// ties via the incoming summary order). The count for a contract equals its
// OverlapCount.
func MatchCounts(summaries []services.OverlapSummary) []services.ContractMatchCount {
	counts := make([]services.ContractMatchCount, 0, len(summaries))
	for _, summary := range summaries {
		counts = append(counts, services.ContractMatchCount{
			ContractName: summary.ContractName,
			Matches:      summary.OverlapCount,
		})
	}
	sort.SliceStable(counts, func(i, j int) bool {
		return counts[i].Matches > counts[j].Matches
	})
	return counts
}

// ActiveCounts computes the active-subset aggregates over summaries: the
// number of contracts whose status is case-insensitively "active" and the
// number of distinct buyer names among those.
func ActiveCounts(summaries []services.OverlapSummary) services.ActiveCounts {
	buyers := make(map[string]struct{})
	counts := services.ActiveCounts{}
	for _, summary := range summaries {
		if !strings.EqualFold(strings.TrimSpace(summary.Status), "active") {
			continue
		}
		counts.ActiveContracts++
		if summary.BuyerName != "" {
			buyers[summary.BuyerName] = struct{}{}
		}
	}
	counts.DistinctBuyers = len(buyers)
	return counts
}
