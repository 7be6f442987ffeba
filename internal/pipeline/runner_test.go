package pipeline

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snpscan/snpscan/internal/clinvar"
	"github.com/snpscan/snpscan/internal/reconcile"
)

// fakeSource serves canned payloads keyed by rsid.
type fakeSource struct {
	mu       sync.Mutex
	payloads map[string]string
	fetched  []string
}

func (f *fakeSource) Fetch(ctx context.Context, rsid string) (clinvar.Payload, error) {
	f.mu.Lock()
	f.fetched = append(f.fetched, rsid)
	f.mu.Unlock()
	doc, ok := f.payloads[rsid]
	if !ok {
		return nil, &clinvar.FetchError{RSID: rsid, StatusCode: 404}
	}
	var p clinvar.Payload
	if err := json.Unmarshal([]byte(doc), &p); err != nil {
		return nil, err
	}
	return p, nil
}

func pathogenicDoc(rsid, allele, disease string) string {
	return `{"_id": "` + rsid + `", "clinvar": {"rcv": [{
		"accession": "RCV000001",
		"allele": "` + allele + `",
		"clinical_significance": "Pathogenic",
		"conditions": [{"name": "` + disease + `"}]
	}]}}`
}

func TestRunner_FoldsPathogenicDiseases(t *testing.T) {
	source := &fakeSource{payloads: map[string]string{
		"rs1": pathogenicDoc("rs1", "T", "Cystic Fibrosis"),
		"rs2": pathogenicDoc("rs2", "G", "Gaucher Disease"),
	}}

	runner := NewRunner(source)
	diseases := reconcile.NewDiseaseSet(0)

	result, err := runner.RunPairs(context.Background(), []Pair{
		{RSID: "rs1", Genotype: "CT"},
		{RSID: "rs2", Genotype: "AG"},
	}, diseases)
	require.NoError(t, err)

	assert.Equal(t, []string{"Cystic Fibrosis", "Gaucher Disease"}, diseases.Names())
	assert.Equal(t, []string{"rs1", "rs2"}, result.Order)
	assert.Equal(t, 2, result.Processed)
	assert.Zero(t, result.Failed)
}

func TestRunner_DuplicateDiseaseAcrossSNPs(t *testing.T) {
	source := &fakeSource{payloads: map[string]string{
		"rs429358": pathogenicDoc("rs429358", "C", "Alzheimer's Disease"),
		"rs7412":   pathogenicDoc("rs7412", "C", "Alzheimer's Disease"),
	}}

	runner := NewRunner(source)
	diseases := reconcile.NewDiseaseSet(0)

	_, err := runner.RunPairs(context.Background(), []Pair{
		{RSID: "rs429358", Genotype: "CC"},
		{RSID: "rs7412", Genotype: "CT"},
	}, diseases)
	require.NoError(t, err)

	assert.Equal(t, []string{"Alzheimer's Disease"}, diseases.Names())
}

func TestRunner_GenotypeGateExcludesContribution(t *testing.T) {
	source := &fakeSource{payloads: map[string]string{
		"rs113993960": pathogenicDoc("rs113993960", "T", "Cystic Fibrosis"),
	}}

	runner := NewRunner(source)
	diseases := reconcile.NewDiseaseSet(0)

	result, err := runner.RunPairs(context.Background(), []Pair{
		{RSID: "rs113993960", Genotype: "CC"},
	}, diseases)
	require.NoError(t, err)

	assert.Empty(t, diseases.Names())
	assert.Empty(t, result.Order)
	assert.Equal(t, 1, result.Processed)
}

func TestRunner_FetchFailureSkipsSNP(t *testing.T) {
	source := &fakeSource{payloads: map[string]string{
		"rs2": pathogenicDoc("rs2", "G", "Gaucher Disease"),
	}}

	runner := NewRunner(source)
	diseases := reconcile.NewDiseaseSet(0)

	result, err := runner.RunPairs(context.Background(), []Pair{
		{RSID: "rs1", Genotype: "AA"},
		{RSID: "rs2", Genotype: "AG"},
	}, diseases)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, []string{"Gaucher Disease"}, diseases.Names())
}

func TestRunner_SkipsNonRSIdentifiers(t *testing.T) {
	source := &fakeSource{payloads: map[string]string{}}

	runner := NewRunner(source)
	diseases := reconcile.NewDiseaseSet(0)

	result, err := runner.RunPairs(context.Background(), []Pair{
		{RSID: "i713426", Genotype: "CC"},
		{RSID: "VG01234", Genotype: "AA"},
	}, diseases)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Skipped)
	assert.Empty(t, source.fetched)
}

func TestRunner_DiseaseLimitStopsRun(t *testing.T) {
	source := &fakeSource{payloads: map[string]string{
		"rs1": pathogenicDoc("rs1", "T", "Disease A"),
		"rs2": pathogenicDoc("rs2", "T", "Disease B"),
		"rs3": pathogenicDoc("rs3", "T", "Disease C"),
	}}

	runner := NewRunner(source)
	diseases := reconcile.NewDiseaseSet(1)

	_, err := runner.RunPairs(context.Background(), []Pair{
		{RSID: "rs1", Genotype: "TT"},
		{RSID: "rs2", Genotype: "TT"},
		{RSID: "rs3", Genotype: "TT"},
	}, diseases)

	assert.ErrorIs(t, err, reconcile.ErrDiseaseLimit)
	assert.Equal(t, []string{"Disease A"}, diseases.Names())
}

// gatedSource answers rs1 and rs2 immediately and parks every later fetch on
// the context, recording only fetches that ran to completion.
type gatedSource struct {
	mu        sync.Mutex
	completed []string
}

func (s *gatedSource) Fetch(ctx context.Context, rsid string) (clinvar.Payload, error) {
	if rsid != "rs1" && rsid != "rs2" {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Second):
		}
	}
	s.mu.Lock()
	s.completed = append(s.completed, rsid)
	s.mu.Unlock()
	var p clinvar.Payload
	if err := json.Unmarshal([]byte(pathogenicDoc(rsid, "T", "Disease "+rsid)), &p); err != nil {
		return nil, err
	}
	return p, nil
}

func TestRunner_DiseaseLimitStopsFetching(t *testing.T) {
	pairs := []Pair{
		{RSID: "rs1", Genotype: "TT"},
		{RSID: "rs2", Genotype: "TT"},
		{RSID: "rs3", Genotype: "TT"},
		{RSID: "rs4", Genotype: "TT"},
		{RSID: "rs5", Genotype: "TT"},
		{RSID: "rs6", Genotype: "TT"},
	}

	for _, workers := range []int{1, 4} {
		source := &gatedSource{}
		runner := NewRunner(source)
		runner.SetWorkers(workers)
		diseases := reconcile.NewDiseaseSet(1)

		_, err := runner.RunPairs(context.Background(), pairs, diseases)

		assert.ErrorIs(t, err, reconcile.ErrDiseaseLimit)
		assert.Equal(t, []string{"Disease rs1"}, diseases.Names())
		// rs2's fold trips the cap and cancels the run; no fetch completes
		// for any record past it.
		source.mu.Lock()
		assert.ElementsMatch(t, []string{"rs1", "rs2"}, source.completed, "workers=%d", workers)
		source.mu.Unlock()
	}
}

func TestRunner_ParallelPreservesInputOrder(t *testing.T) {
	payloads := make(map[string]string)
	var pairs []Pair
	want := make([]string, 0, 12)
	for _, rsid := range []string{
		"rs1", "rs2", "rs3", "rs4", "rs5", "rs6",
		"rs7", "rs8", "rs9", "rs10", "rs11", "rs12",
	} {
		disease := "Disease " + rsid
		payloads[rsid] = pathogenicDoc(rsid, "T", disease)
		pairs = append(pairs, Pair{RSID: rsid, Genotype: "TT"})
		want = append(want, disease)
	}

	runner := NewRunner(&fakeSource{payloads: payloads})
	runner.SetWorkers(4)
	diseases := reconcile.NewDiseaseSet(0)

	result, err := runner.RunPairs(context.Background(), pairs, diseases)
	require.NoError(t, err)

	// Folding happens in input order regardless of worker count.
	assert.Equal(t, want, diseases.Names())
	require.Len(t, result.Order, 12)
	assert.Equal(t, "rs1", result.Order[0])
	assert.Equal(t, "rs12", result.Order[11])
}

func TestPairLists(t *testing.T) {
	pairs, err := PairLists([]string{"rs1", "rs2"}, []string{"AA", "AG"})
	require.NoError(t, err)
	assert.Equal(t, []Pair{{"rs1", "AA"}, {"rs2", "AG"}}, pairs)

	// Length mismatch is an error, never a silent truncation.
	_, err = PairLists([]string{"rs1", "rs2"}, []string{"AA"})
	require.Error(t, err)
}
