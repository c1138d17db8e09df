package index

import (
	"sort"
	"sync"
)

// ContractSet is a set of contract names. ZIP codes are shared by few
// contracts in practice, so a plain map keeps membership checks O(1) without
// any ordering bookkeeping; callers that need deterministic output sort on
// the way out.
type ContractSet map[string]struct{}

// Add inserts a contract name into the set.
func (cs ContractSet) Add(name string) {
	cs[name] = struct{}{}
}

// Has reports whether the set contains the given contract name.
func (cs ContractSet) Has(name string) bool {
	_, ok := cs[name]
	return ok
}

// Sorted returns the contract names in lexicographic order.
func (cs ContractSet) Sorted() []string {
	names := make([]string, 0, len(cs))
	for name := range cs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Others returns the contract names excluding the given one, in lexicographic
// order. This is the per-ZIP "other contracts sharing this ZIP" view used by
// the overlap analyzer and the detailed report.
func (cs ContractSet) Others(exclude string) []string {
	names := make([]string, 0, len(cs))
	for name := range cs {
		if name != exclude {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// ZipIndex maps a ZIP code to the set of contracts that claim it. ZIP codes
// are kept as strings with leading zeros preserved; they are never treated as
// numeric. Together with the contract store's per-contract ZIP sets it forms
// the bidirectional index: a contract is in Zips[z] exactly when z is in that
// contract's ZIP set.
type ZipIndex struct {
	Mu   sync.RWMutex
	Zips map[string]ContractSet
}

// NewZipIndex creates an empty ZIP index.
func NewZipIndex() *ZipIndex {
	return &ZipIndex{Zips: make(map[string]ContractSet)}
}

// AddUnsafe inserts a (ZIP, contract) association with set semantics.
// The caller must hold the write lock.
func (zi *ZipIndex) AddUnsafe(zip, contract string) {
	set, ok := zi.Zips[zip]
	if !ok {
		set = make(ContractSet)
		zi.Zips[zip] = set
	}
	set.Add(contract)
}

// ContractsForUnsafe returns the contract set claiming the given ZIP, or nil
// if no contract claims it. The caller must hold at least the read lock.
func (zi *ZipIndex) ContractsForUnsafe(zip string) ContractSet {
	return zi.Zips[zip]
}

// ResetUnsafe discards all associations. The caller must hold the write lock.
func (zi *ZipIndex) ResetUnsafe() {
	zi.Zips = make(map[string]ContractSet)
}

// Len returns the number of distinct ZIP codes in the index.
func (zi *ZipIndex) Len() int {
	zi.Mu.RLock()
	defer zi.Mu.RUnlock()
	return len(zi.Zips)
}
