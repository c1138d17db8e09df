// Package match looks up externally supplied ZIP codes against the built
// contract index and produces a transient match report with its own
// aggregates. Matching never mutates the index.
package match

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/FedeHorus/zipreport/index"
	"github.com/FedeHorus/zipreport/internal/errors"
	"github.com/FedeHorus/zipreport/internal/ingest"
	"github.com/FedeHorus/zipreport/model"
	"github.com/FedeHorus/zipreport/services"
	"github.com/FedeHorus/zipreport/store"
)

// Service matches new-ZIP lists against a snapshot of the index. It uses
// whatever index currently exists: contracts excluded at load time by a
// different filter setting never show up, and that is intentional.
type Service struct {
	zipIndex      *index.ZipIndex
	contractStore *store.ContractStore
}

// NewService creates a matcher over the given index halves.
func NewService(zipIndex *index.ZipIndex, contractStore *store.ContractStore) (*Service, error) {
	if zipIndex == nil {
		return nil, fmt.Errorf("zip index cannot be nil")
	}
	if contractStore == nil {
		return nil, fmt.Errorf("contract store cannot be nil")
	}
	return &Service{zipIndex: zipIndex, contractStore: contractStore}, nil
}

// findZipColumn locates the first header column whose name contains "zip"
// case-insensitively. Its absence is a configuration error of the input, not
// a data error.
func findZipColumn(header []string) (int, error) {
	for i, name := range header {
		if strings.Contains(strings.ToLower(name), "zip") {
			return i, nil
		}
	}
	return -1, errors.NewSchemaError("zips", "any column containing \"zip\"")
}

// Match reads the ZIP list from src, de-duplicates it, and emits one match
// row per (ZIP, claiming contract) pair. ZIPs absent from the index produce
// no rows. buyerFilter, when non-empty, keeps only rows whose buyer name
// contains the substring (case-insensitive). A result with zero rows is
// reported as errors.ErrNoMatches rather than an empty table.
func (s *Service) Match(src services.RowSource, buyerFilter string) (*services.MatchResult, error) {
	zipCol, err := findZipColumn(src.Header())
	if err != nil {
		return nil, err
	}

	inputZips := make(map[string]struct{})
	for {
		cells, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read ZIP list row: %w", err)
		}
		if zip := ingest.NormalizeZip(cells[zipCol]); zip != "" {
			inputZips[zip] = struct{}{}
		}
	}

	queried := make([]string, 0, len(inputZips))
	for zip := range inputZips {
		queried = append(queried, zip)
	}
	sort.Strings(queried)

	s.contractStore.Mu.RLock()
	s.zipIndex.Mu.RLock()
	defer s.contractStore.Mu.RUnlock()
	defer s.zipIndex.Mu.RUnlock()

	result := &services.MatchResult{InputZips: len(queried)}
	matchedZips := 0
	for _, zip := range queried {
		contracts := s.zipIndex.ContractsForUnsafe(zip)
		if len(contracts) == 0 {
			result.UnmatchedZips = append(result.UnmatchedZips, zip)
			continue
		}
		matchedZips++

		for _, name := range contracts.Sorted() {
			rec := s.contractStore.GetUnsafe(name)
			if rec == nil {
				continue
			}
			if buyerFilter != "" && !strings.Contains(strings.ToLower(rec.BuyerName), strings.ToLower(buyerFilter)) {
				continue
			}
			result.Rows = append(result.Rows, model.MatchRecord{
				Zip:          zip,
				StateID:      rec.StateID(zip),
				ContractName: rec.Name,
				BuyerName:    rec.BuyerName,
				BuyerID:      rec.BuyerID,
				RootBuyer:    rec.RootBuyer(),
				VerticalName: rec.VerticalName,
				Status:       rec.Status,
				ZipCount:     rec.ZipCount(),
			})
		}
	}
	result.MatchedZips = matchedZips

	if len(result.Rows) == 0 {
		return nil, errors.ErrNoMatches
	}

	result.Counts = matchCounts(result.Rows)
	result.Active = activeCounts(result.Rows)
	return result, nil
}

// matchCounts aggregates match rows per contract, sorted descending by count
// with stable order for ties.
func matchCounts(rows []model.MatchRecord) []services.ContractMatchCount {
	perContract := make(map[string]int)
	var order []string
	for _, row := range rows {
		if _, seen := perContract[row.ContractName]; !seen {
			order = append(order, row.ContractName)
		}
		perContract[row.ContractName]++
	}

	counts := make([]services.ContractMatchCount, 0, len(order))
	for _, name := range order {
		counts = append(counts, services.ContractMatchCount{ContractName: name, Matches: perContract[name]})
	}
	sort.SliceStable(counts, func(i, j int) bool {
		return counts[i].Matches > counts[j].Matches
	})
	return counts
}

// activeCounts computes the active subset over the matched rows only. This
// is a separate filter from the load-time active filter: the match report
// can include inactive contracts and still count the active ones.
func activeCounts(rows []model.MatchRecord) services.ActiveCounts {
	activeContracts := make(map[string]struct{})
	buyers := make(map[string]struct{})
	for _, row := range rows {
		if !strings.EqualFold(strings.TrimSpace(row.Status), "active") {
			continue
		}
		activeContracts[row.ContractName] = struct{}{}
		if row.BuyerName != "" {
			buyers[row.BuyerName] = struct{}{}
		}
	}
	return services.ActiveCounts{
		ActiveContracts: len(activeContracts),
		DistinctBuyers:  len(buyers),
	}
}
