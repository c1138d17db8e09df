// Package indexing builds the bidirectional contract/ZIP index from validated
// source rows.
package indexing

import (
	"fmt"

	"github.com/FedeHorus/zipreport/index"
	"github.com/FedeHorus/zipreport/model"
	"github.com/FedeHorus/zipreport/store"
)

// Service maintains the two halves of the bidirectional index: the
// ZIP→contract map and the per-contract records (which carry the
// contract→ZIP half). After every successful Ingest call the two stay
// mutually consistent: c ∈ Zips[z] exactly when z ∈ Contracts[c].Zips.
type Service struct {
	zipIndex      *index.ZipIndex
	contractStore *store.ContractStore
}

// NewService creates an indexing Service over the given index halves.
func NewService(zipIndex *index.ZipIndex, contractStore *store.ContractStore) (*Service, error) {
	if zipIndex == nil {
		return nil, fmt.Errorf("zip index cannot be nil")
	}
	if contractStore == nil {
		return nil, fmt.Errorf("contract store cannot be nil")
	}
	if zipIndex.Zips == nil {
		zipIndex.Zips = make(map[string]index.ContractSet)
	}
	if contractStore.Contracts == nil {
		contractStore.Contracts = make(map[string]*model.ContractRecord)
	}
	return &Service{zipIndex: zipIndex, contractStore: contractStore}, nil
}

// Reset clears both maps and all metadata. It is the only way prior state is
// discarded and must run before a fresh load.
func (s *Service) Reset() {
	s.contractStore.Mu.Lock()
	s.zipIndex.Mu.Lock()
	defer s.contractStore.Mu.Unlock()
	defer s.zipIndex.Mu.Unlock()

	s.contractStore.ResetUnsafe()
	s.zipIndex.ResetUnsafe()
}

// Ingest inserts one chunk of validated rows into both index halves with set
// semantics: repeated identical rows have no effect, contract metadata and
// per-(contract, ZIP) state IDs are captured at first sighting only.
func (s *Service) Ingest(rows []model.SourceRow) error {
	s.contractStore.Mu.Lock()
	s.zipIndex.Mu.Lock()
	defer s.contractStore.Mu.Unlock()
	defer s.zipIndex.Mu.Unlock()

	for i, row := range rows {
		if row.ContractName == "" || row.Zip == "" {
			// The loader guarantees non-empty names and ZIPs; a violation
			// here means the caller bypassed validation.
			return fmt.Errorf("row %d has empty contract name or ZIP code", i)
		}
		rec := s.contractStore.EnsureUnsafe(row)
		rec.AddZip(row.Zip, row.StateID)
		s.zipIndex.AddUnsafe(row.Zip, row.ContractName)
	}
	return nil
}
