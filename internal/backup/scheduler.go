package backup

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"

	"github.com/albumkeep/albumkeep/internal/dedup"
)

const (
	DefaultConcurrency = 3
	DefaultBatchSize   = 50
)

// Summary is the terminal outcome of one backup run.
type Summary struct {
	Groups   int
	Uploaded int
	Failed   int
	Canceled int
	Skipped  int
	Stopped  bool
}

// Scheduler walks groups of filtered items and drives upload tasks
// under a fixed concurrency limit, batch by batch. A cooperative stop
// finishes the in-flight batch and halts before the next one.
type Scheduler struct {
	transport   Transport
	store       dedup.Store
	progress    *Aggregator
	policy      RetryPolicy
	concurrency int
	batchSize   int

	// slots bounds in-flight tasks across the whole run, not per batch.
	slots chan struct{}

	stopped atomic.Bool
	cancel  context.CancelFunc
	cancelM sync.Mutex

	onDone func(Summary)
}

func NewScheduler(transport Transport, store dedup.Store, progress *Aggregator, policy RetryPolicy, concurrency, batchSize int, onDone func(Summary)) *Scheduler {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Scheduler{
		transport:   transport,
		store:       store,
		progress:    progress,
		policy:      policy,
		concurrency: concurrency,
		batchSize:   batchSize,
		slots:       make(chan struct{}, concurrency),
		onDone:      onDone,
	}
}

// RequestStop raises the cooperative stop flag and aborts in-flight
// transport operations. Idempotent; cleared when a new run starts.
func (s *Scheduler) RequestStop() {
	if s.stopped.Swap(true) {
		return
	}
	s.cancelM.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.cancelM.Unlock()
	log.Info().Msg("Stop requested, finishing current batch")
}

// Run processes every group the walker yields and returns a summary.
// The completion callback fires exactly once, whether the run finished
// or stopped early.
func (s *Scheduler) Run(ctx context.Context, walker GroupWalker) Summary {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.stopped.Store(false)
	s.cancelM.Lock()
	s.cancel = cancel
	s.cancelM.Unlock()

	var summary Summary

groups:
	for {
		group, ok := walker.Next()
		if !ok {
			break
		}
		summary.Groups++

		items, err := walker.Items(group)
		if err != nil {
			log.Error().Err(err).Str("group", group).Msg("Failed to list group items")
			continue
		}

		filtered := Filter(items, true, s.store)
		summary.Skipped += len(items) - len(filtered)
		s.progress.AddTotal(len(filtered))

		log.Info().
			Str("group", group).
			Int("candidates", len(items)).
			Int("queued", len(filtered)).
			Msg("Processing group")

		for start := 0; start < len(filtered); start += s.batchSize {
			if s.stopped.Load() {
				break groups
			}

			end := start + s.batchSize
			if end > len(filtered) {
				end = len(filtered)
			}
			s.runBatch(runCtx, filtered[start:end], &summary)
		}

		if s.stopped.Load() {
			break
		}
	}

	summary.Stopped = s.stopped.Load()

	log.Info().
		Int("uploaded", summary.Uploaded).
		Int("failed", summary.Failed).
		Int("canceled", summary.Canceled).
		Int("skipped", summary.Skipped).
		Bool("stopped", summary.Stopped).
		Msg("Backup run finished")

	// Run has a single exit path, so the callback fires exactly once
	// per run, for completed and stopped-early runs alike.
	if s.onDone != nil {
		s.onDone(summary)
	}
	return summary
}

// runBatch dispatches the batch in item order and blocks until every
// task in it reaches a terminal state. This is the only point where
// the coordinating flow waits on the worker pool.
func (s *Scheduler) runBatch(ctx context.Context, batch []Item, summary *Summary) {
	var wg sync.WaitGroup
	results := make(chan TaskResult, len(batch))

	for _, item := range batch {
		key, err := ItemKey(item)
		if err != nil {
			log.Warn().Err(err).Str("item", item.DisplayName()).Msg("Skipping item with invalid key")
			summary.Skipped++
			continue
		}

		s.slots <- struct{}{}
		wg.Add(1)
		task := NewTask(item, key, s.transport, s.store, s.progress, s.policy)
		go func() {
			defer wg.Done()
			defer func() { <-s.slots }()
			results <- task.Run(ctx)
		}()
	}

	wg.Wait()
	close(results)

	for res := range results {
		switch res.Outcome {
		case OutcomeCompleted:
			summary.Uploaded++
		case OutcomeCanceled:
			summary.Canceled++
		default:
			summary.Failed++
			log.Warn().
				Err(res.Err).
				Str("key", res.Key.String()).
				Int("attempts", res.Attempts).
				Msg("Upload failed")
		}
	}
}
