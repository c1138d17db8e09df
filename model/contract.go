package model

import "strings"

// SourceRow is a validated row from the main contract input, produced by the
// ingestion loader after column normalization and row-level filtering.
// StateID is nil when the source has no "State ID" column (or an empty cell),
// so downstream code can distinguish "absent" from "empty".
type SourceRow struct {
	ContractName string
	Zip          string
	BuyerName    string
	BuyerID      string
	VerticalName string
	Status       string
	StateID      *string
}

// ContractRecord holds everything known about a single contract: its metadata
// (captured at first sighting and never overwritten), the set of ZIP codes it
// claims, and the state ID recorded for each (contract, ZIP) pair.
type ContractRecord struct {
	Name         string
	BuyerName    string
	BuyerID      string
	VerticalName string
	Status       string
	Zips         map[string]struct{}
	StateIDs     map[string]string // ZIP code -> state ID at first sighting
}

// NewContractRecord creates a record with initialized ZIP maps. Metadata is
// taken from the first row that mentions the contract.
func NewContractRecord(row SourceRow) *ContractRecord {
	return &ContractRecord{
		Name:         row.ContractName,
		BuyerName:    row.BuyerName,
		BuyerID:      row.BuyerID,
		VerticalName: row.VerticalName,
		Status:       row.Status,
		Zips:         make(map[string]struct{}),
		StateIDs:     make(map[string]string),
	}
}

// AddZip associates a ZIP code with the contract. It returns true if the
// (contract, ZIP) pair was seen for the first time; repeated rows for the
// same pair have no effect on the stored state ID.
func (cr *ContractRecord) AddZip(zip string, stateID *string) bool {
	if _, exists := cr.Zips[zip]; exists {
		return false
	}
	cr.Zips[zip] = struct{}{}
	if stateID != nil {
		cr.StateIDs[zip] = *stateID
	}
	return true
}

// HasZip reports whether the contract claims the given ZIP code.
func (cr *ContractRecord) HasZip(zip string) bool {
	_, ok := cr.Zips[zip]
	return ok
}

// ZipCount returns the number of distinct ZIP codes claimed by the contract.
func (cr *ContractRecord) ZipCount() int {
	return len(cr.Zips)
}

// StateID returns the state ID recorded for the given ZIP, or "" if none was
// captured.
func (cr *ContractRecord) StateID(zip string) string {
	return cr.StateIDs[zip]
}

// IsActive reports whether the contract's status is "active", compared
// case-insensitively.
func (cr *ContractRecord) IsActive() bool {
	return strings.EqualFold(strings.TrimSpace(cr.Status), "active")
}

// RootBuyer returns the first whitespace-separated token of the buyer name,
// used to group contracts belonging to the same buyer family (e.g. "Acme
// Corp East" and "Acme Corp West" both root to "Acme").
func (cr *ContractRecord) RootBuyer() string {
	fields := strings.Fields(cr.BuyerName)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// MatchRecord is one row of a query-match result: a queried ZIP code paired
// with one contract that claims it. It is derived from the index snapshot and
// never stored.
type MatchRecord struct {
	Zip          string `json:"zip"`
	StateID      string `json:"state_id,omitempty"`
	ContractName string `json:"contract_name"`
	BuyerName    string `json:"buyer_name"`
	BuyerID      string `json:"buyer_id"`
	RootBuyer    string `json:"root_buyer"`
	VerticalName string `json:"vertical_name"`
	Status       string `json:"status"`
	ZipCount     int    `json:"zip_count"` // total ZIPs claimed by the contract
}
