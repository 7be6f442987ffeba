package reconcile

import (
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/snpscan/snpscan/internal/clinvar"
)

// SignificancePathogenic is the only classification that qualifies an entry
// for the pathogenic output. Matching is exact after trimming: compound
// values such as "Pathogenic/Likely pathogenic" do not qualify.
const SignificancePathogenic = "Pathogenic"

// NoDiseasePlaceholder stands in for an entry whose conditions were all
// excluded, so the entry still appears in the per-allele index.
const NoDiseasePlaceholder = "not provided"

// Flat is one annotation row in the per-allele index.
type Flat struct {
	Accession            string
	DiseaseNames         string
	ClinicalSignificance string
	Pathogenic           bool
}

// Result holds the outcome of reconciling one SNP's payload.
type Result struct {
	// Pathogenic lists the comma-joined disease names of qualifying
	// entries, deduplicated in insertion order.
	Pathogenic []string

	// ByAllele indexes every retained entry by its resolved allele.
	ByAllele map[string][]Flat
}

// Alleles returns the index keys in lexicographic order for display.
func (r *Result) Alleles() []string {
	alleles := make([]string, 0, len(r.ByAllele))
	for a := range r.ByAllele {
		alleles = append(alleles, a)
	}
	sort.Strings(alleles)
	return alleles
}

// Empty reports whether reconciliation produced no annotations at all.
func (r *Result) Empty() bool {
	return len(r.Pathogenic) == 0 && len(r.ByAllele) == 0
}

// Reconciler filters and classifies annotation entries against a genotype.
// It holds no cross-call state; reconciling the same payload twice yields
// identical results.
type Reconciler struct {
	logger *zap.Logger
}

// NewReconciler creates a reconciler.
func NewReconciler() *Reconciler {
	return &Reconciler{logger: zap.NewNop()}
}

// SetLogger sets the logger for diagnostic messages.
func (r *Reconciler) SetLogger(l *zap.Logger) {
	r.logger = l
}

// Reconcile flattens one SNP's payload, gates entries against the genotype,
// classifies clinical significance, and returns the pathogenic disease names
// together with the complete per-allele annotation index.
//
// An empty genotype skips the whole SNP. The genotype gate only applies when
// observed is non-empty: an entry whose resolved allele does not occur in the
// genotype is dropped from both outputs. Malformed entries are logged and
// skipped, never fatal.
func (r *Reconciler) Reconcile(payload clinvar.Payload, genotype string, observed map[string]bool) *Result {
	result := &Result{ByAllele: make(map[string][]Flat)}
	if genotype == "" {
		return result
	}

	seen := make(map[string]bool)

	for _, record := range payload {
		for _, entry := range record.Annotations() {
			if entry.Malformed {
				r.logger.Warn("skipping non-record annotation entry",
					zap.String("rsid", record.ID),
					zap.String("raw", entry.Raw))
				continue
			}

			allele := entry.Allele
			if allele == "" {
				allele = ExtractAllele(entry.PreferredName)
			}

			if len(observed) > 0 && !strings.Contains(genotype, allele) {
				r.logger.Debug("skipping unobserved allele",
					zap.String("rsid", record.ID),
					zap.String("allele", allele),
					zap.String("genotype", genotype))
				continue
			}

			significance := entry.ClinicalSignificance

			var diseases []string
			for _, cond := range entry.Conditions {
				name := cond.DiseaseName()
				if name == clinvar.UnknownDisease || strings.EqualFold(name, NoDiseasePlaceholder) {
					continue
				}
				diseases = append(diseases, name)
			}
			joined := strings.Join(diseases, ", ")

			pathogenic := strings.TrimSpace(significance) == SignificancePathogenic && len(diseases) > 0
			if pathogenic && !seen[joined] {
				seen[joined] = true
				result.Pathogenic = append(result.Pathogenic, joined)
			}

			names := joined
			if names == "" {
				names = NoDiseasePlaceholder
			}
			result.ByAllele[allele] = append(result.ByAllele[allele], Flat{
				Accession:            entry.Accession,
				DiseaseNames:         names,
				ClinicalSignificance: significance,
				Pathogenic:           pathogenic,
			})
		}
	}

	return result
}

// ObservedAlleles collects every resolvable allele mentioned anywhere in the
// payload. The set enables the genotype gate; UnknownAllele never counts as
// observed.
func ObservedAlleles(payload clinvar.Payload) map[string]bool {
	observed := make(map[string]bool)
	for _, record := range payload {
		for _, entry := range record.Annotations() {
			if entry.Malformed {
				continue
			}
			allele := entry.Allele
			if allele == "" {
				allele = ExtractAllele(entry.PreferredName)
			}
			if allele != "" && allele != UnknownAllele {
				observed[allele] = true
			}
		}
	}
	return observed
}
