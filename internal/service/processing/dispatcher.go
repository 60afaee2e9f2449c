package processing

import (
	"context"
	"log/slog"
	"sync"

	"github.com/travelbuddy/backend/internal/adapter/worker"
	"github.com/travelbuddy/backend/internal/domain"
)

// BatchClient is the slice of the worker API the dispatcher needs.
type BatchClient interface {
	ProcessBatch(ctx context.Context, texts []string, sourceLanguages []*string) ([]worker.Result, error)
}

// Dispatcher splits a run's tips into sub-batches and fans them out to a
// bounded pool of workers, each issuing one ProcessBatch call at a time.
type Dispatcher struct {
	client       BatchClient
	subBatchSize int
	workers      int
	log          *slog.Logger
}

// NewDispatcher creates a Dispatcher. subBatchSize and workers must be
// positive; config validation guarantees that for configured values.
func NewDispatcher(client BatchClient, subBatchSize, workers int, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		client:       client,
		subBatchSize: subBatchSize,
		workers:      workers,
		log:          logger.With("component", "dispatcher"),
	}
}

type job struct {
	start int // offset of the sub-batch in the input slice
	tips  []domain.Tip
}

// Dispatch processes all tips through the worker node and returns a result
// slice index-aligned with the input. A failed sub-batch leaves its entries
// nil and never affects other sub-batches. The returned error is the first
// sub-batch error observed, kept only for logging; callers decide per entry.
func (d *Dispatcher) Dispatch(ctx context.Context, tips []domain.Tip) ([]*worker.Result, error) {
	results := make([]*worker.Result, len(tips))
	if len(tips) == 0 {
		return results, nil
	}

	jobs := make(chan job)
	var wg sync.WaitGroup

	var firstErr error
	var errOnce sync.Once

	workers := d.workers
	if n := (len(tips) + d.subBatchSize - 1) / d.subBatchSize; n < workers {
		workers = n
	}

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				if err := d.processSubBatch(ctx, j, results); err != nil {
					errOnce.Do(func() { firstErr = err })
				}
			}
		}()
	}

	for start := 0; start < len(tips); start += d.subBatchSize {
		end := start + d.subBatchSize
		if end > len(tips) {
			end = len(tips)
		}
		jobs <- job{start: start, tips: tips[start:end]}
	}
	close(jobs)
	wg.Wait()

	return results, firstErr
}

// processSubBatch issues one worker call and writes results into the shared
// slice. Each sub-batch owns a disjoint index range, so no lock is needed.
func (d *Dispatcher) processSubBatch(ctx context.Context, j job, results []*worker.Result) error {
	texts := make([]string, len(j.tips))
	langs := make([]*string, len(j.tips))
	for i, tip := range j.tips {
		texts[i] = tip.TipText
		langs[i] = tip.OriginalLanguage
	}

	batch, err := d.client.ProcessBatch(ctx, texts, langs)
	if err != nil {
		d.log.ErrorContext(ctx, "sub-batch failed",
			slog.Int("offset", j.start),
			slog.Int("size", len(j.tips)),
			slog.String("error", err.Error()),
		)
		return err
	}

	for i := range batch {
		results[j.start+i] = &batch[i]
	}

	d.log.DebugContext(ctx, "sub-batch processed",
		slog.Int("offset", j.start),
		slog.Int("size", len(j.tips)),
	)
	return nil
}
