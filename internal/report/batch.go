package report

import (
	"github.com/FedeHorus/zipreport/services"
)

// PartitionOverlaps keeps the contracts with at least one ZIP match, in the
// incoming summary order, and partitions them into consecutive groups of at
// most batchSize contracts. Every contract with overlap_count > 0 lands in
// exactly one batch; batch count is ceil(n / batchSize).
func PartitionOverlaps(summaries []services.OverlapSummary, batchSize int) [][]services.OverlapSummary {
	if batchSize < 1 {
		batchSize = 1
	}

	var withOverlaps []services.OverlapSummary
	for _, summary := range summaries {
		if summary.OverlapCount > 0 {
			withOverlaps = append(withOverlaps, summary)
		}
	}

	var batches [][]services.OverlapSummary
	for start := 0; start < len(withOverlaps); start += batchSize {
		end := start + batchSize
		if end > len(withOverlaps) {
			end = len(withOverlaps)
		}
		batches = append(batches, withOverlaps[start:end])
	}
	return batches
}
