package store

import (
	"sync"

	"github.com/FedeHorus/zipreport/model"
)

// ContractStore holds one record per contract plus the order in which
// contracts were first seen during ingestion. First-seen order is the
// tie-break for equal-ZIP-count contracts in the summary sort; it is stable
// within one load but carries no semantic guarantee across loads.
type ContractStore struct {
	Mu        sync.RWMutex
	Contracts map[string]*model.ContractRecord
	Order     []string // contract names in first-seen order
}

// NewContractStore creates an empty contract store.
func NewContractStore() *ContractStore {
	return &ContractStore{Contracts: make(map[string]*model.ContractRecord)}
}

// GetUnsafe returns the record for a contract name, or nil if unknown.
// The caller must hold at least the read lock.
func (cs *ContractStore) GetUnsafe(name string) *model.ContractRecord {
	return cs.Contracts[name]
}

// EnsureUnsafe returns the record for the row's contract, creating it (and
// capturing the row's metadata) on first sighting. Metadata from later rows
// for the same contract is ignored. The caller must hold the write lock.
func (cs *ContractStore) EnsureUnsafe(row model.SourceRow) *model.ContractRecord {
	rec, ok := cs.Contracts[row.ContractName]
	if !ok {
		rec = model.NewContractRecord(row)
		cs.Contracts[row.ContractName] = rec
		cs.Order = append(cs.Order, row.ContractName)
	}
	return rec
}

// ResetUnsafe discards all records and the first-seen order.
// The caller must hold the write lock.
func (cs *ContractStore) ResetUnsafe() {
	cs.Contracts = make(map[string]*model.ContractRecord)
	cs.Order = nil
}

// InOrder returns the contract records in first-seen order.
func (cs *ContractStore) InOrder() []*model.ContractRecord {
	cs.Mu.RLock()
	defer cs.Mu.RUnlock()

	records := make([]*model.ContractRecord, 0, len(cs.Order))
	for _, name := range cs.Order {
		if rec, ok := cs.Contracts[name]; ok {
			records = append(records, rec)
		}
	}
	return records
}

// Len returns the number of distinct contracts in the store.
func (cs *ContractStore) Len() int {
	cs.Mu.RLock()
	defer cs.Mu.RUnlock()
	return len(cs.Contracts)
}
