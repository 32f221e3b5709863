// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package dispatch fans a query out to all enabled source adapters
// concurrently and collects the per-source outcomes behind a fixed barrier.
package dispatch

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/atelier-commerce/stylesearch/internal/source"
	"github.com/atelier-commerce/stylesearch/pkg/types"
)

// ErrTimeout marks a source that did not respond within its budget.
var ErrTimeout = errors.New("timeout")

// DefaultSourceTimeout bounds one adapter call when no timeout is configured.
const DefaultSourceTimeout = 3 * time.Second

// Outcome is the result of one adapter call: records on success, Err on
// failure or timeout. A failed source contributes zero records; it never
// aborts the other sources.
type Outcome struct {
	SourceID string
	Records  []types.ProductRecord
	Err      error
}

// OK reports whether the source responded successfully.
func (o Outcome) OK() bool { return o.Err == nil }

// Dispatcher invokes adapters concurrently with per-source timeouts.
// There are no retries here; retry behavior belongs to the adapters.
type Dispatcher struct {
	timeout time.Duration
	logger  *zap.Logger
}

// New builds a dispatcher. A zero timeout uses DefaultSourceTimeout; a nil
// logger is replaced with a no-op.
func New(timeout time.Duration, logger *zap.Logger) *Dispatcher {
	if timeout <= 0 {
		timeout = DefaultSourceTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{timeout: timeout, logger: logger}
}

// Dispatch queries every adapter concurrently and returns one Outcome per
// adapter, in adapter order. It waits for every adapter to settle
// (success, failure, or timeout) before returning: a fixed barrier, not a
// race to first.
//
// A timed-out adapter call is not force-terminated: its goroutine runs to
// completion in the background and its eventual output is dropped.
func (d *Dispatcher) Dispatch(ctx context.Context, q types.SearchQuery, adapters []source.Adapter) []Outcome {
	outcomes := make([]Outcome, len(adapters))
	var wg sync.WaitGroup

	for i, a := range adapters {
		wg.Add(1)
		go func(i int, a source.Adapter) {
			defer wg.Done()
			outcomes[i] = d.query(ctx, q, a)
		}(i, a)
	}

	wg.Wait()
	return outcomes
}

type reply struct {
	records []types.ProductRecord
	err     error
}

func (d *Dispatcher) query(ctx context.Context, q types.SearchQuery, a source.Adapter) Outcome {
	cctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	// Buffered so a late reply after timeout does not block the sender.
	ch := make(chan reply, 1)
	go func() {
		records, err := a.Query(cctx, q)
		ch <- reply{records: records, err: err}
	}()

	start := time.Now()
	select {
	case rep := <-ch:
		if rep.err != nil {
			err := rep.err
			if errors.Is(err, context.DeadlineExceeded) {
				err = ErrTimeout
			}
			d.logger.Warn("source failed",
				zap.String("source", a.ID()),
				zap.Duration("elapsed", time.Since(start)),
				zap.Error(err))
			return Outcome{SourceID: a.ID(), Err: err}
		}
		return Outcome{SourceID: a.ID(), Records: rep.records}
	case <-cctx.Done():
		err := cctx.Err()
		if errors.Is(err, context.DeadlineExceeded) {
			err = ErrTimeout
		}
		d.logger.Warn("source timed out",
			zap.String("source", a.ID()),
			zap.Duration("budget", d.timeout))
		return Outcome{SourceID: a.ID(), Err: err}
	}
}
