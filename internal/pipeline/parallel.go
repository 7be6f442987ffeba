package pipeline

import (
	"context"
	"sync"

	"github.com/snpscan/snpscan/internal/reconcile"
)

// workItem holds one SNP ready for fetching and reconciliation.
type workItem struct {
	seq  int
	pair Pair
}

// workResult holds the reconciliation output for a single SNP.
type workResult struct {
	seq  int
	pair Pair
	res  *reconcile.Result
	err  error
}

// parallelProcess fetches and reconciles work items using a pool of workers.
// Results arrive on the returned channel in completion order (not sequence
// order); use orderedCollect to consume them in sequence-number order. Once
// ctx is cancelled, queued items are answered with the context error instead
// of being fetched. The reconciler has no cross-call state, so per-SNP
// independence holds at any worker count.
func (r *Runner) parallelProcess(ctx context.Context, items <-chan workItem) <-chan workResult {
	workers := r.workers
	results := make(chan workResult, 2*workers)

	var wg sync.WaitGroup
	wg.Add(workers)

	for range workers {
		go func() {
			defer wg.Done()
			for item := range items {
				if err := ctx.Err(); err != nil {
					results <- workResult{seq: item.seq, pair: item.pair, err: err}
					continue
				}
				results <- r.process(ctx, item)
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	return results
}

// process fetches one SNP's payload and reconciles it against its genotype.
func (r *Runner) process(ctx context.Context, item workItem) workResult {
	payload, err := r.source.Fetch(ctx, item.pair.RSID)
	if err != nil {
		return workResult{seq: item.seq, pair: item.pair, err: err}
	}

	observed := reconcile.ObservedAlleles(payload)
	res := r.reconciler.Reconcile(payload, item.pair.Genotype, observed)
	return workResult{seq: item.seq, pair: item.pair, res: res}
}

// orderedCollect calls fn for each result in sequence-number order.
// Out-of-order results wait in a pending map and are emitted as soon as the
// next expected sequence number arrives. Blocks until the results channel is
// closed.
func orderedCollect(results <-chan workResult, fn func(workResult) error) error {
	pending := make(map[int]workResult)
	nextSeq := 0

	for r := range results {
		pending[r.seq] = r

		for {
			rr, ok := pending[nextSeq]
			if !ok {
				break
			}
			delete(pending, nextSeq)
			nextSeq++
			if err := fn(rr); err != nil {
				// Drain remaining results to unblock workers.
				for range results {
				}
				return err
			}
		}
	}

	return nil
}
