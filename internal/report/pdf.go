package report

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-pdf/fpdf"
)

// PDFFileName is the report's well-known filename.
const PDFFileName = "ExportedResults.pdf"

var disclaimerLines = []string{
	"Results from 23&Me",
	"Disclaimer: The information provided on this PDF file is not intended as medical advice.",
	"Always consult with a qualified healthcare provider for medical advice and treatment.",
}

const resultsHeading = "Top Twenty Hits"

// DefaultPDFPath returns the report's default location in the user's
// Documents directory.
func DefaultPDFPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("determine home directory: %w", err)
	}
	return filepath.Join(home, "Documents", PDFFileName), nil
}

// WritePDF renders the two-page report: page 1 carries the fixed disclaimer,
// page 2 the heading and one line per pathogenic disease in accumulator
// order, or a "None found." placeholder.
func WritePDF(path string, diseases []string) error {
	pdf := fpdf.New("P", "mm", "A4", "")

	pdf.AddPage()
	pdf.SetFont("Arial", "", 12)
	for _, line := range disclaimerLines {
		pdf.CellFormat(200, 10, line, "", 1, "C", false, 0, "")
	}

	pdf.AddPage()
	pdf.SetFont("Arial", "", 12)
	pdf.CellFormat(200, 10, resultsHeading, "", 1, "C", false, 0, "")

	pdf.SetFont("Arial", "", 10)
	if len(diseases) == 0 {
		pdf.CellFormat(200, 10, NoneFound, "", 1, "L", false, 0, "")
	} else {
		for _, disease := range diseases {
			pdf.CellFormat(200, 10, disease, "", 1, "L", false, 0, "")
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create report directory: %w", err)
	}
	if err := pdf.OutputFileAndClose(path); err != nil {
		return fmt.Errorf("write pdf report: %w", err)
	}
	return nil
}
