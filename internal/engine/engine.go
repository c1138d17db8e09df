// Package engine owns the contract/ZIP index and orchestrates the pipeline
// phases: chunked ingestion, overlap analysis, report generation, and ZIP
// matching. One engine instance holds one index; loads destructively replace
// it, reads see a consistent snapshot.
package engine

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/FedeHorus/zipreport/config"
	"github.com/FedeHorus/zipreport/index"
	zerrors "github.com/FedeHorus/zipreport/internal/errors"
	"github.com/FedeHorus/zipreport/internal/indexing"
	"github.com/FedeHorus/zipreport/internal/ingest"
	"github.com/FedeHorus/zipreport/internal/jobs"
	"github.com/FedeHorus/zipreport/internal/match"
	"github.com/FedeHorus/zipreport/internal/overlap"
	"github.com/FedeHorus/zipreport/internal/report"
	"github.com/FedeHorus/zipreport/model"
	"github.com/FedeHorus/zipreport/services"
	"github.com/FedeHorus/zipreport/store"
)

// maxConcurrentJobs bounds background work; the index mutex serializes the
// actual phases regardless, so more workers would only queue earlier.
const maxConcurrentJobs = 2

// Engine implements services.OverlapEngine. A single RWMutex serializes
// loads (write) against summary/report/match operations (read); loads build
// into staged index halves and swap them in only on full success, so a
// failed load never leaves readers on a partially populated index.
type Engine struct {
	mu         sync.RWMutex
	settings   config.Settings
	zipIndex   *index.ZipIndex
	contracts  *store.ContractStore
	loaded     bool
	jobManager *jobs.Manager
}

// NewEngine creates an engine with an empty index and starts its job manager.
func NewEngine(settings config.Settings) *Engine {
	eng := &Engine{
		settings:   settings,
		zipIndex:   index.NewZipIndex(),
		contracts:  store.NewContractStore(),
		jobManager: jobs.NewManager(maxConcurrentJobs),
	}
	eng.jobManager.Start()
	return eng
}

// Close stops the engine's background job manager.
func (e *Engine) Close() {
	e.jobManager.Stop()
}

// Settings returns a copy of the engine's configuration.
func (e *Engine) Settings() config.Settings {
	return e.settings
}

// Load ingests the full source chunk by chunk into a staged index and swaps
// it in on success. On any failure the previous index stays live and the
// error reports which stage failed.
func (e *Engine) Load(src services.RowSource) (services.LoadStats, error) {
	return e.load(src, nil, nil)
}

// load runs one full ingestion pass. onChunk (when set) observes loader
// progress; checkCancel (when set) is consulted between chunks so background
// loads can stop early.
func (e *Engine) load(src services.RowSource, onChunk ingest.ProgressFunc, checkCancel func() error) (services.LoadStats, error) {
	var stats services.LoadStats

	// Staged halves: nothing below touches the live index.
	stagedIndex := index.NewZipIndex()
	stagedStore := store.NewContractStore()

	indexer, err := indexing.NewService(stagedIndex, stagedStore)
	if err != nil {
		return stats, zerrors.NewStageError("index", err)
	}

	opts := ingest.Options{ChunkSize: e.settings.ChunkSize, ActiveOnly: e.settings.ActiveOnly}
	progress, err := ingest.Load(src, opts, func(rows []model.SourceRow) error {
		if checkCancel != nil {
			if err := checkCancel(); err != nil {
				return err
			}
		}
		return indexer.Ingest(rows)
	}, func(p ingest.Progress) {
		log.Printf("Load progress: %d rows seen, %d retained, %d chunks", p.RowsSeen, p.RowsRetained, p.Chunks)
		if onChunk != nil {
			onChunk(p)
		}
	})

	stats = services.LoadStats{
		RowsSeen:     progress.RowsSeen,
		RowsRetained: progress.RowsRetained,
		Chunks:       progress.Chunks,
		Contracts:    stagedStore.Len(),
		Zips:         stagedIndex.Len(),
	}
	if err != nil {
		return stats, zerrors.NewStageError("ingest", err)
	}

	e.mu.Lock()
	e.zipIndex = stagedIndex
	e.contracts = stagedStore
	e.loaded = true
	e.mu.Unlock()

	log.Printf("Load complete: %d contracts, %d ZIPs (%d/%d rows retained)",
		stats.Contracts, stats.Zips, stats.RowsRetained, stats.RowsSeen)
	return stats, nil
}

// LoadAsync runs Load as a background job and returns the job ID. The source
// is closed when the job finishes.
func (e *Engine) LoadAsync(src services.RowSource) (string, error) {
	jobID := e.jobManager.CreateJob(model.JobTypeLoadContracts, nil)

	err := e.jobManager.ExecuteJob(jobID, func(ctx context.Context, job *model.Job) error {
		defer func() { _ = src.Close() }()

		_, err := e.load(src, func(p ingest.Progress) {
			e.jobManager.UpdateJobProgress(jobID, p.RowsSeen, 0,
				fmt.Sprintf("%d rows retained in %d chunks", p.RowsRetained, p.Chunks))
		}, ctx.Err)
		return err
	})
	if err != nil {
		return "", err
	}
	return jobID, nil
}

// Summary returns the per-contract overlap summaries in report order plus the
// active-subset counts.
func (e *Engine) Summary() ([]services.OverlapSummary, services.ActiveCounts, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if !e.loaded {
		return nil, services.ActiveCounts{}, zerrors.ErrEmptyIndex
	}

	analyzer, err := overlap.NewAnalyzer(e.zipIndex, e.contracts)
	if err != nil {
		return nil, services.ActiveCounts{}, zerrors.NewStageError("analyze", err)
	}
	summaries := analyzer.Summaries()
	return summaries, overlap.ActiveCounts(summaries), nil
}

// GenerateReports renders all report artifacts from the current snapshot into
// the configured output directory.
func (e *Engine) GenerateReports() (*services.ReportInfo, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if !e.loaded {
		return nil, zerrors.ErrEmptyIndex
	}

	analyzer, err := overlap.NewAnalyzer(e.zipIndex, e.contracts)
	if err != nil {
		return nil, zerrors.NewStageError("analyze", err)
	}
	generator, err := report.NewGenerator(analyzer, e.settings.OutputDir, e.settings.BatchSize)
	if err != nil {
		return nil, zerrors.NewStageError("report", err)
	}

	info, err := generator.GenerateAll()
	if err != nil {
		return nil, zerrors.NewStageError("report", err)
	}
	log.Printf("Reports generated: %d files, %d contracts with overlaps in %d batches",
		len(info.Files), info.Overlaps, info.Batches)
	return info, nil
}

// MatchZips matches an external ZIP list against the current snapshot and
// writes the match artifact. A zero-row match returns errors.ErrNoMatches
// and produces no artifact.
func (e *Engine) MatchZips(src services.RowSource, buyerFilter string) (*services.MatchResult, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if !e.loaded {
		return nil, zerrors.ErrEmptyIndex
	}

	matcher, err := match.NewService(e.zipIndex, e.contracts)
	if err != nil {
		return nil, zerrors.NewStageError("match", err)
	}

	result, err := matcher.Match(src, buyerFilter)
	if err != nil {
		return nil, err
	}

	path, err := report.WriteZipMatches(e.settings.OutputDir, result)
	if err != nil {
		return nil, zerrors.NewStageError("report", err)
	}
	result.ArtifactPath = path

	log.Printf("ZIP match complete: %d/%d input ZIPs matched, %d rows",
		result.MatchedZips, result.InputZips, len(result.Rows))
	return result, nil
}

// GetJob exposes background job status. It satisfies services.JobTracker.
func (e *Engine) GetJob(jobID string) (*model.Job, error) {
	return e.jobManager.GetJob(jobID)
}

// ListJobs returns all jobs, optionally filtered by status.
func (e *Engine) ListJobs(status *model.JobStatus) []*model.Job {
	return e.jobManager.ListJobs(status)
}

// JobMetrics returns job execution counters.
func (e *Engine) JobMetrics() jobs.MetricsData {
	return e.jobManager.GetMetrics()
}
