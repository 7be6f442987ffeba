// Package report renders scan results: the per-allele annotation index as a
// tab-delimited table and the pathogenic disease list as text or PDF.
package report

import (
	"bufio"
	"io"
	"strings"

	"github.com/snpscan/snpscan/internal/reconcile"
)

// IndexWriter writes the per-allele annotation index in tab-delimited format,
// one block of rows per SNP with alleles in sorted order.
type IndexWriter struct {
	w       *bufio.Writer
	columns []string
}

// NewIndexWriter creates a new index writer.
func NewIndexWriter(w io.Writer) *IndexWriter {
	return &IndexWriter{
		w: bufio.NewWriter(w),
		columns: []string{
			"#SNP",
			"Allele",
			"ClinVar_Accession",
			"Disease_Names",
			"Clinical_Significance",
		},
	}
}

// WriteHeader writes the header line.
func (iw *IndexWriter) WriteHeader() error {
	_, err := iw.w.WriteString(strings.Join(iw.columns, "\t") + "\n")
	return err
}

// Write writes all annotation rows for one SNP.
func (iw *IndexWriter) Write(rsid string, res *reconcile.Result) error {
	for _, allele := range res.Alleles() {
		for _, flat := range res.ByAllele[allele] {
			values := []string{
				rsid,
				allele,
				flat.Accession,
				flat.DiseaseNames,
				flat.ClinicalSignificance,
			}
			if _, err := iw.w.WriteString(strings.Join(values, "\t") + "\n"); err != nil {
				return err
			}
		}
	}
	return nil
}

// Flush flushes any buffered data to the underlying writer.
func (iw *IndexWriter) Flush() error {
	return iw.w.Flush()
}
