// Package search filters the dataproduct candidate set against the parsed
// criteria. Stages are pure predicates over the frozen snapshot, so they
// compose in any order and parallelize without coordination.
package search

import (
	"sync"

	"github.com/metadex-cloud/metadex/internal/domain/entity"
	"github.com/metadex-cloud/metadex/internal/domain/snapshot"
	"github.com/metadex-cloud/metadex/internal/metrics"
)

// Stage is one membership predicate. Match must be safe for concurrent use.
type Stage struct {
	Name  string
	Match func(rec entity.Record, snap *snapshot.Snapshot) bool
}

// Pipeline applies stages in sequence, narrowing the candidate set.
type Pipeline struct {
	workers           int
	parallelThreshold int
}

// NewPipeline creates a pipeline. Candidate sets of parallelThreshold or more
// records are evaluated on workers goroutines; smaller sets run inline.
func NewPipeline(workers, parallelThreshold int) *Pipeline {
	if workers <= 0 {
		workers = 1
	}
	if parallelThreshold <= 0 {
		parallelThreshold = 100
	}
	return &Pipeline{workers: workers, parallelThreshold: parallelThreshold}
}

// Run narrows records through every stage and returns the survivors in their
// original order.
func (p *Pipeline) Run(snap *snapshot.Snapshot, records []entity.Record, stages []Stage) []entity.Record {
	for _, stage := range stages {
		before := len(records)
		if before == 0 {
			return records
		}
		if before >= p.parallelThreshold && p.workers > 1 {
			records = p.runParallel(snap, records, stage)
		} else {
			records = runSequential(snap, records, stage)
		}
		if dropped := before - len(records); dropped > 0 {
			metrics.FilterStageDroppedTotal.WithLabelValues(stage.Name).Add(float64(dropped))
		}
	}
	return records
}

func runSequential(snap *snapshot.Snapshot, records []entity.Record, stage Stage) []entity.Record {
	out := records[:0:0]
	for _, rec := range records {
		if stage.Match(rec, snap) {
			out = append(out, rec)
		}
	}
	return out
}

// runParallel splits the candidate set into contiguous chunks. Each worker
// writes only its own slice of the keep mask, so no locking is needed.
func (p *Pipeline) runParallel(snap *snapshot.Snapshot, records []entity.Record, stage Stage) []entity.Record {
	keep := make([]bool, len(records))
	chunk := (len(records) + p.workers - 1) / p.workers

	var wg sync.WaitGroup
	for start := 0; start < len(records); start += chunk {
		end := min(start+chunk, len(records))
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			for i := lo; i < hi; i++ {
				keep[i] = stage.Match(records[i], snap)
			}
		}(start, end)
	}
	wg.Wait()

	out := records[:0:0]
	for i, rec := range records {
		if keep[i] {
			out = append(out, rec)
		}
	}
	return out
}
