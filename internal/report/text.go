package report

import (
	"fmt"
	"io"
)

// NoneFound is printed when a run yields no pathogenic diseases.
const NoneFound = "None found."

// WriteText writes the two-section summary as plain text: the fixed
// disclaimer followed by one line per pathogenic disease in accumulator
// order.
func WriteText(w io.Writer, diseases []string) error {
	for _, line := range disclaimerLines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, "\n%s\n", resultsHeading); err != nil {
		return err
	}

	if len(diseases) == 0 {
		_, err := fmt.Fprintln(w, NoneFound)
		return err
	}
	for _, disease := range diseases {
		if _, err := fmt.Fprintln(w, disease); err != nil {
			return err
		}
	}
	return nil
}
