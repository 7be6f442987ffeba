// Package pipeline drives the scan: fetch annotations per SNP, reconcile
// against the genotype, and fold pathogenic diseases into one accumulator.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/snpscan/snpscan/internal/clinvar"
	"github.com/snpscan/snpscan/internal/raw"
	"github.com/snpscan/snpscan/internal/reconcile"
)

// Source fetches the annotation payload for one SNP.
type Source interface {
	Fetch(ctx context.Context, rsid string) (clinvar.Payload, error)
}

// Pair binds a rsid to its genotype explicitly.
type Pair struct {
	RSID     string
	Genotype string
}

// PairLists pairs parallel rsid and genotype lists. Unequal lengths are an
// error, never a silent truncation.
func PairLists(rsids, genotypes []string) ([]Pair, error) {
	if len(rsids) != len(genotypes) {
		return nil, fmt.Errorf("pair lists: %d rsids but %d genotypes", len(rsids), len(genotypes))
	}
	pairs := make([]Pair, len(rsids))
	for i := range rsids {
		pairs[i] = Pair{RSID: rsids[i], Genotype: genotypes[i]}
	}
	return pairs, nil
}

// RunResult holds the outcome of one processing run.
type RunResult struct {
	// Diseases is the run-level pathogenic accumulator, insertion-ordered.
	Diseases *reconcile.DiseaseSet

	// Index maps each annotated rsid to its per-allele annotation index.
	Index map[string]*reconcile.Result

	// Order lists annotated rsids in input order for stable reporting.
	Order []string

	Processed int // SNPs reconciled
	Skipped   int // non-rs identifiers ignored
	Failed    int // SNPs whose annotation fetch failed
}

// Runner executes one scan over a record stream.
type Runner struct {
	source     Source
	reconciler *reconcile.Reconciler
	logger     *zap.Logger
	workers    int
}

// NewRunner creates a runner over the given annotation source.
func NewRunner(source Source) *Runner {
	return &Runner{
		source:     source,
		reconciler: reconcile.NewReconciler(),
		logger:     zap.NewNop(),
		workers:    1,
	}
}

// SetLogger sets the logger for the runner and its reconciler.
func (r *Runner) SetLogger(l *zap.Logger) {
	r.logger = l
	r.reconciler.SetLogger(l)
}

// SetWorkers sets the number of concurrent fetch workers. Values below 1
// select sequential processing. Results are folded in input order either way.
func (r *Runner) SetWorkers(n int) {
	if n < 1 {
		n = 1
	}
	r.workers = n
}

// Run processes every record from the parser in order: skip non-rs
// identifiers, fetch the payload, reconcile against the genotype, and fold
// the pathogenic diseases into the accumulator. Fetch failures are logged
// and contribute nothing; only a parser read failure or the accumulator's
// disease cap ends the run early, and partial results are returned in both
// cases alongside the error. Hitting the cap also stops the fetch side, so
// records past it are not sent to the annotation service.
func (r *Runner) Run(ctx context.Context, parser raw.RecordParser, diseases *reconcile.DiseaseSet) (*RunResult, error) {
	result := &RunResult{
		Diseases: diseases,
		Index:    make(map[string]*reconcile.Result),
	}

	// Cancelled when folding errors (disease cap hit), so the producer and
	// the workers stop issuing fetches for records past the failure point.
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	items := make(chan workItem, 2*r.workers)
	var parseErr error

	go func() {
		defer close(items)
		seq := 0
		for {
			rec, err := parser.Next()
			if err != nil {
				parseErr = fmt.Errorf("read record: %w", err)
				return
			}
			if rec == nil {
				return
			}

			if !strings.HasPrefix(rec.RSID, "rs") {
				r.logger.Debug("ignoring non-rs identifier",
					zap.String("id", rec.RSID),
					zap.Int("line", rec.Line))
				result.Skipped++
				continue
			}

			select {
			case items <- workItem{seq: seq, pair: Pair{RSID: rec.RSID, Genotype: rec.Genotype}}:
				seq++
			case <-runCtx.Done():
				// Nil when the fold cancelled runCtx itself; the fold's
				// error is reported through the collector in that case.
				parseErr = ctx.Err()
				return
			}
		}
	}()

	results := r.parallelProcess(runCtx, items)

	err := orderedCollect(results, func(wr workResult) error {
		if err := r.fold(result, wr); err != nil {
			cancel()
			return err
		}
		return nil
	})

	if err != nil {
		return result, err
	}
	if parseErr != nil {
		return result, parseErr
	}
	return result, nil
}

// RunPairs processes an explicit list of (rsid, genotype) pairs.
func (r *Runner) RunPairs(ctx context.Context, pairs []Pair, diseases *reconcile.DiseaseSet) (*RunResult, error) {
	return r.Run(ctx, &pairParser{pairs: pairs}, diseases)
}

// fold merges one SNP's reconciliation into the run result.
func (r *Runner) fold(result *RunResult, wr workResult) error {
	if wr.err != nil {
		var fe *clinvar.FetchError
		if errors.As(wr.err, &fe) {
			r.logger.Warn("annotation fetch failed, skipping SNP",
				zap.String("rsid", wr.pair.RSID),
				zap.Error(wr.err))
			result.Failed++
			return nil
		}
		return wr.err
	}

	result.Processed++
	if wr.res.Empty() {
		r.logger.Debug("no annotations", zap.String("rsid", wr.pair.RSID))
		return nil
	}

	if _, ok := result.Index[wr.pair.RSID]; !ok {
		result.Order = append(result.Order, wr.pair.RSID)
	}
	result.Index[wr.pair.RSID] = wr.res

	for _, disease := range wr.res.Pathogenic {
		if result.Diseases.Contains(disease) {
			continue
		}
		r.logger.Info("pathogenic disease found",
			zap.String("rsid", wr.pair.RSID),
			zap.String("disease", disease))
		if err := result.Diseases.Add(disease); err != nil {
			return err
		}
	}
	return nil
}

// pairParser adapts a pair slice to the RecordParser interface.
type pairParser struct {
	pairs []Pair
	pos   int
}

func (p *pairParser) Next() (*raw.Record, error) {
	if p.pos >= len(p.pairs) {
		return nil, nil
	}
	pair := p.pairs[p.pos]
	p.pos++
	return &raw.Record{RSID: pair.RSID, Genotype: pair.Genotype, Line: p.pos}, nil
}

func (p *pairParser) Close() error { return nil }

func (p *pairParser) LineNumber() int { return p.pos }
