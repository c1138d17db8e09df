package services

import (
	"github.com/FedeHorus/zipreport/config"
	"github.com/FedeHorus/zipreport/model"
)

// RowSource is a row-oriented tabular input with a header row. Next returns
// the cells of the next data row aligned with Header (short rows padded,
// long rows truncated) and io.EOF once the source is exhausted.
type RowSource interface {
	Header() []string
	Next() ([]string, error)
	Close() error
}

// LoadStats summarizes one full ingestion pass.
type LoadStats struct {
	RowsSeen     int `json:"rows_seen"`
	RowsRetained int `json:"rows_retained"`
	Chunks       int `json:"chunks"`
	Contracts    int `json:"contracts"`
	Zips         int `json:"zips"`
}

// OverlapSummary is the per-contract overlap view derived from the index:
// total ZIP count, multiplicity-counted ZIP matches against other contracts,
// and the number of distinct other contracts sharing at least one ZIP.
type OverlapSummary struct {
	ContractName     string `json:"contract_name"`
	BuyerName        string `json:"buyer_name"`
	BuyerID          string `json:"buyer_id"`
	VerticalName     string `json:"vertical_name"`
	Status           string `json:"status"`
	ZipCount         int    `json:"zip_count"`
	OverlapCount     int    `json:"overlap_count"`
	OverlapContracts int    `json:"overlap_contracts"`
}

// ActiveCounts are aggregate counts over the case-insensitively "active"
// subset of a result: how many contracts are active, and how many distinct
// buyer names those active contracts have.
type ActiveCounts struct {
	ActiveContracts int `json:"active_contracts"`
	DistinctBuyers  int `json:"distinct_buyers"`
}

// DetailRow is one (contract, ZIP) row of the detailed-matches table. Matches
// holds the lexicographically sorted, comma-joined names of the other
// contracts sharing the ZIP, or "" when the ZIP is unshared.
type DetailRow struct {
	ContractName string `json:"contract_name"`
	Zip          string `json:"zip"`
	StateID      string `json:"state_id,omitempty"`
	Matches      string `json:"matches"`
	MatchCount   int    `json:"match_count"`
}

// ContractMatchCount is one row of the per-contract match-count table.
type ContractMatchCount struct {
	ContractName string `json:"contract_name"`
	Matches      int    `json:"matches"`
}

// ReportInfo describes the artifacts produced by a report generation pass.
type ReportInfo struct {
	Files     []string `json:"files"`
	Contracts int      `json:"contracts"`
	Overlaps  int      `json:"overlaps"` // contracts with overlap_count > 0
	Batches   int      `json:"batches"`
}

// MatchResult is the outcome of matching an external ZIP list against the
// index snapshot. UnmatchedZips lists the input ZIPs no contract claims; it
// is informational and never written into the artifact.
type MatchResult struct {
	Rows          []model.MatchRecord  `json:"rows"`
	InputZips     int                  `json:"input_zips"`
	MatchedZips   int                  `json:"matched_zips"`
	UnmatchedZips []string             `json:"unmatched_zips,omitempty"`
	Counts        []ContractMatchCount `json:"counts"`
	Active        ActiveCounts         `json:"active"`
	ArtifactPath  string               `json:"artifact_path,omitempty"`
}

// OverlapEngine is the single owner of the contract/ZIP index. Loads
// destructively replace the index; summary, report, and match operations
// read a consistent snapshot of the most recent successful load.
type OverlapEngine interface {
	// Load ingests the full source chunk by chunk and swaps the resulting
	// index in on success. On failure the previous index stays live.
	Load(src RowSource) (LoadStats, error)

	// LoadAsync runs Load as a background job and returns the job ID.
	LoadAsync(src RowSource) (string, error)

	// Summary returns the per-contract overlap summaries in report order
	// plus the active-subset counts.
	Summary() ([]OverlapSummary, ActiveCounts, error)

	// GenerateReports renders all report artifacts from the current
	// snapshot into the configured output directory.
	GenerateReports() (*ReportInfo, error)

	// MatchZips matches an external ZIP list against the current snapshot
	// and writes the match artifact. buyerFilter, when non-empty, keeps
	// only rows whose buyer name contains the substring.
	MatchZips(src RowSource, buyerFilter string) (*MatchResult, error)

	// Settings returns a copy of the engine's configuration.
	Settings() config.Settings
}

// JobTracker exposes background job status for the API surface.
type JobTracker interface {
	GetJob(jobID string) (*model.Job, error)
	ListJobs(status *model.JobStatus) []*model.Job
}
