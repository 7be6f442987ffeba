// Package clinvar provides access to ClinVar clinical annotations as served
// by the myvariant.info variant API, including normalization of the payload's
// polymorphic shapes into flat annotation entries.
package clinvar

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Sentinel values used when a field cannot be resolved from the payload.
const (
	// UnknownDisease marks a condition with no usable name.
	UnknownDisease = "Unknown disease"

	// SignificanceUnavailable is the default clinical significance.
	SignificanceUnavailable = "Not available"

	// AccessionUnavailable is the default accession identifier.
	AccessionUnavailable = "N/A"
)

// Payload is the annotation document for one SNP. The API returns either a
// single variant record or a list of records; both decode into an ordered
// slice.
type Payload []Record

// UnmarshalJSON normalizes the record-or-list top level into a slice.
func (p *Payload) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*p = nil
		return nil
	}

	if data[0] == '[' {
		var records []Record
		if err := json.Unmarshal(data, &records); err != nil {
			return fmt.Errorf("decode variant list: %w", err)
		}
		*p = records
		return nil
	}

	var record Record
	if err := json.Unmarshal(data, &record); err != nil {
		return fmt.Errorf("decode variant record: %w", err)
	}
	*p = Payload{record}
	return nil
}

// Record is one variant record from the annotation source.
type Record struct {
	ID      string  `json:"_id"`
	ClinVar ClinVar `json:"clinvar"`
}

// Annotations returns the record's flattened annotation entries.
// A record without a clinvar.rcv collection yields nil, which is valid
// ("no annotations"), not an error.
func (r *Record) Annotations() []Entry {
	return r.ClinVar.RCV
}

// ClinVar holds the clinvar field subset requested from the API.
type ClinVar struct {
	RCV EntryList `json:"rcv"`
}

// EntryList is the nested annotation collection under clinvar.rcv. The API
// serves it as a single entry object, a list of entries, or a keyed object
// whose values are entries.
type EntryList []Entry

// entryFieldKeys identifies a JSON object as a single annotation entry
// rather than a keyed collection of entries.
var entryFieldKeys = []string{
	"accession", "clinical_significance", "conditions", "allele", "preferred_name",
}

// UnmarshalJSON normalizes every collection shape into an ordered slice.
// Keyed collections are ordered by key so that repeated decoding of the same
// document yields the same entry order.
func (el *EntryList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*el = nil
		return nil
	}

	switch data[0] {
	case '[':
		var raws []json.RawMessage
		if err := json.Unmarshal(data, &raws); err != nil {
			return fmt.Errorf("decode annotation list: %w", err)
		}
		entries := make([]Entry, 0, len(raws))
		for _, raw := range raws {
			entries = append(entries, entryFromRaw(raw))
		}
		*el = entries
		return nil

	case '{':
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(data, &fields); err != nil {
			return fmt.Errorf("decode annotation object: %w", err)
		}
		for _, key := range entryFieldKeys {
			if _, ok := fields[key]; ok {
				*el = EntryList{entryFromRaw(data)}
				return nil
			}
		}
		// Keyed collection: values are the entries.
		keys := make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		entries := make([]Entry, 0, len(keys))
		for _, k := range keys {
			entries = append(entries, entryFromRaw(fields[k]))
		}
		*el = entries
		return nil

	default:
		// Scalar where a collection belongs: no annotations.
		*el = nil
		return nil
	}
}

// entryFromRaw decodes one collection element. Elements that are not JSON
// objects are retained as malformed markers so the reconciler can log and
// skip them instead of failing the whole payload.
func entryFromRaw(raw json.RawMessage) Entry {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return Entry{Malformed: true, Raw: string(trimmed)}
	}
	var e Entry
	if err := json.Unmarshal(trimmed, &e); err != nil {
		return Entry{Malformed: true, Raw: string(trimmed)}
	}
	return e
}

// Entry is one clinical annotation, flattened from the payload's variant
// field shapes. Zero or defaulted fields follow the reference behavior:
// accession defaults to "N/A" and clinical significance to "Not available".
type Entry struct {
	Allele               string
	PreferredName        string
	Accession            string
	ClinicalSignificance string
	Conditions           []Condition

	// Malformed marks a collection element that was not a structured
	// record; Raw holds its text for diagnostics.
	Malformed bool
	Raw       string
}

// UnmarshalJSON decodes an entry, normalizing the variant-typed
// clinical_significance and conditions fields and applying defaults.
func (e *Entry) UnmarshalJSON(data []byte) error {
	var aux struct {
		Allele        stringish       `json:"allele"`
		PreferredName stringish       `json:"preferred_name"`
		Accession     stringish       `json:"accession"`
		Significance  json.RawMessage `json:"clinical_significance"`
		Conditions    conditionList   `json:"conditions"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	e.Allele = string(aux.Allele)
	e.PreferredName = string(aux.PreferredName)
	e.Accession = string(aux.Accession)
	if e.Accession == "" {
		e.Accession = AccessionUnavailable
	}
	e.ClinicalSignificance = normalizeSignificance(aux.Significance)
	e.Conditions = aux.Conditions
	return nil
}

// normalizeSignificance reduces clinical_significance to a plain string:
// a string passes through, an object contributes its description field, a
// list is joined with ", ", anything else becomes "Not available".
func normalizeSignificance(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return SignificanceUnavailable
	}

	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return SignificanceUnavailable
		}
		return s
	case '{':
		var obj struct {
			Description stringish `json:"description"`
		}
		if err := json.Unmarshal(raw, &obj); err != nil || obj.Description == "" {
			return SignificanceUnavailable
		}
		return string(obj.Description)
	case '[':
		var items []any
		if err := json.Unmarshal(raw, &items); err != nil {
			return SignificanceUnavailable
		}
		parts := make([]string, 0, len(items))
		for _, item := range items {
			parts = append(parts, fmt.Sprint(item))
		}
		return strings.Join(parts, ", ")
	default:
		return SignificanceUnavailable
	}
}

// Condition is one condition reference attached to an annotation entry.
type Condition struct {
	Name          string
	PreferredName string
	Synonyms      []string
}

// DiseaseName normalizes a condition to a disease name: a trimmed non-empty
// name or preferred_name wins, else the non-empty synonyms joined with ", ",
// else the "Unknown disease" sentinel.
func (c *Condition) DiseaseName() string {
	if name := strings.TrimSpace(c.Name); name != "" {
		return name
	}
	if name := strings.TrimSpace(c.PreferredName); name != "" {
		return name
	}
	var parts []string
	for _, syn := range c.Synonyms {
		if s := strings.TrimSpace(syn); s != "" {
			parts = append(parts, s)
		}
	}
	if len(parts) > 0 {
		return strings.Join(parts, ", ")
	}
	return UnknownDisease
}

// UnmarshalJSON accepts both structured condition objects and bare strings.
// Anything else decodes to the zero Condition, whose DiseaseName is the
// "Unknown disease" sentinel.
func (c *Condition) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		c.Name = s
		return nil
	case '{':
		var aux struct {
			Name          stringish `json:"name"`
			PreferredName stringish `json:"preferred_name"`
			Synonyms      []any     `json:"synonyms"`
		}
		if err := json.Unmarshal(data, &aux); err != nil {
			return err
		}
		c.Name = string(aux.Name)
		c.PreferredName = string(aux.PreferredName)
		for _, syn := range aux.Synonyms {
			if s, ok := syn.(string); ok {
				c.Synonyms = append(c.Synonyms, s)
			}
		}
		return nil
	default:
		*c = Condition{}
		return nil
	}
}

// conditionList accepts a list of conditions or a bare single condition.
type conditionList []Condition

func (cl *conditionList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*cl = nil
		return nil
	}

	if data[0] == '[' {
		var conditions []Condition
		if err := json.Unmarshal(data, &conditions); err != nil {
			return err
		}
		*cl = conditions
		return nil
	}

	var c Condition
	if err := json.Unmarshal(data, &c); err != nil {
		return err
	}
	*cl = conditionList{c}
	return nil
}

// stringish decodes a JSON value that should be a string but occasionally
// arrives as a number or other scalar. Non-string scalars are formatted,
// composites decode to the empty string.
type stringish string

func (s *stringish) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}

	switch data[0] {
	case '"':
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = stringish(str)
	case '{', '[':
		*s = ""
	default:
		var v any
		if err := json.Unmarshal(data, &v); err != nil {
			*s = ""
			return nil
		}
		*s = stringish(fmt.Sprint(v))
	}
	return nil
}
