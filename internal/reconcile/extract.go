// Package reconcile reduces ClinVar annotation payloads to genotype-filtered
// pathogenic disease names and a per-allele annotation index.
package reconcile

import "regexp"

// UnknownAllele is the sentinel returned when no allele can be resolved.
// It is not an error: entries carrying it still reach the per-allele index,
// though they rarely pass the genotype gate.
const UnknownAllele = "Unknown Allele"

// cdsChange matches a coding-sequence substitution such as "c.677C>T".
// Uppercase only; the second group is the alternate allele.
var cdsChange = regexp.MustCompile(`c\.\d+([A-Z])>([A-Z])`)

// ExtractAllele recovers the alternate allele from a free-text variant
// description, e.g. "NM_000277.2(PAH):c.1222C>T (p.Arg408Trp)" yields "T".
// Returns UnknownAllele when the notation is absent.
func ExtractAllele(text string) string {
	m := cdsChange.FindStringSubmatch(text)
	if m == nil {
		return UnknownAllele
	}
	return m[2]
}
