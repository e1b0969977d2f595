package backup

import (
	"context"
	"errors"
	"io"
	"math/rand"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/albumkeep/albumkeep/internal/dedup"
	"github.com/albumkeep/albumkeep/internal/wire"
)

// Transport sends one encoded upload payload to the ingestion service.
// Implementations must honor ctx cancellation by aborting the send.
type Transport interface {
	Upload(ctx context.Context, album string, payload *wire.Payload, onProgress func(sent, total int64)) error
}

// RetryPolicy bounds attempts for retryable failures. The delay before
// each retry is sampled uniformly from [DelayMin, DelayMax] so many
// failing tasks do not hammer the server in lockstep.
type RetryPolicy struct {
	MaxRetries int
	DelayMin   time.Duration
	DelayMax   time.Duration
}

// Outcome is the terminal result of a task.
type Outcome int

const (
	OutcomeCompleted Outcome = iota
	OutcomeFailed
	OutcomeCanceled
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCompleted:
		return "completed"
	case OutcomeFailed:
		return "failed"
	default:
		return "canceled"
	}
}

// TaskResult is reported to the scheduler exactly once per task.
type TaskResult struct {
	Key      Key
	Outcome  Outcome
	Attempts int
	Err      error
}

// Task uploads a single item: encode, send, classify, retry. Side
// effects are one request per attempt and one dedup mark on success.
type Task struct {
	item      Item
	key       Key
	transport Transport
	store     dedup.Store
	progress  *Aggregator
	policy    RetryPolicy
}

func NewTask(item Item, key Key, transport Transport, store dedup.Store, progress *Aggregator, policy RetryPolicy) *Task {
	return &Task{
		item:      item,
		key:       key,
		transport: transport,
		store:     store,
		progress:  progress,
		policy:    policy,
	}
}

// Run drives the task to a terminal state and returns its result.
func (t *Task) Run(ctx context.Context) TaskResult {
	t.progress.Begin(t.key, t.item.DisplayName())

	attempts := 0
	operation := func() error {
		attempts++
		err := t.attempt(ctx)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}
		if terminalError(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	b := backoff.WithContext(
		backoff.WithMaxRetries(newJitterBackoff(t.policy), uint64(t.policy.MaxRetries)),
		ctx,
	)
	err := backoff.Retry(operation, b)

	switch {
	case err == nil:
		if markErr := t.store.Mark(t.key.String()); markErr != nil {
			// The upload landed; losing the dedup record only risks a
			// duplicate transfer on the next run.
			err = markErr
		}
		t.progress.Update(t.key, 1)
		t.progress.Finish(t.key, StateCompleted)
		return TaskResult{Key: t.key, Outcome: OutcomeCompleted, Attempts: attempts, Err: err}

	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		t.progress.Finish(t.key, StateCanceled)
		return TaskResult{Key: t.key, Outcome: OutcomeCanceled, Attempts: attempts, Err: err}

	default:
		t.progress.Finish(t.key, StateFailed)
		return TaskResult{Key: t.key, Outcome: OutcomeFailed, Attempts: attempts, Err: err}
	}
}

// attempt performs one Encoding -> Sending pass.
func (t *Task) attempt(ctx context.Context) error {
	t.progress.SetState(t.key, StateEncoding)

	source, _, err := t.item.Open()
	if err != nil {
		return &SourceError{Err: err}
	}

	payload, err := encodeItem(t.item, source)
	source.Close()
	if err != nil {
		return &SourceError{Err: err}
	}

	t.progress.SetState(t.key, StateSending)
	return t.transport.Upload(ctx, t.item.Group(), payload, func(sent, total int64) {
		if total > 0 {
			t.progress.Update(t.key, float64(sent)/float64(total))
		}
	})
}

func encodeItem(item Item, source io.Reader) (*wire.Payload, error) {
	name := item.ID()
	if filepath.Ext(name) == "" {
		name += item.Kind().Ext()
	}
	return wire.Encode(item.Group(), []wire.File{{
		Name:        name,
		ContentType: item.Kind().ContentType(),
		Reader:      source,
	}})
}

// jitterBackoff samples each retry delay uniformly from the policy's
// window instead of growing exponentially.
type jitterBackoff struct {
	min time.Duration
	max time.Duration
}

func newJitterBackoff(policy RetryPolicy) backoff.BackOff {
	min, max := policy.DelayMin, policy.DelayMax
	if min < 0 {
		min = 0
	}
	if max < min {
		max = min
	}
	return &jitterBackoff{min: min, max: max}
}

func (b *jitterBackoff) NextBackOff() time.Duration {
	if b.max == b.min {
		return b.min
	}
	return b.min + time.Duration(rand.Int63n(int64(b.max-b.min)))
}

func (b *jitterBackoff) Reset() {}
