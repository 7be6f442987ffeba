// Package raw provides parsing of consumer genotyping raw-data files
// (23andMe and AncestryDNA exports).
package raw

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strings"
)

// Record is one genotype call read from a raw-data file. The rsid and
// genotype travel together so callers never pair them positionally.
type Record struct {
	RSID       string
	Chromosome string
	Position   string
	Genotype   string
	Line       int
}

// RecordParser is the interface for readers of genotype call records.
type RecordParser interface {
	// Next reads the next record.
	// Returns nil, nil when there are no more records.
	Next() (*Record, error)

	// Close closes the parser and releases resources.
	Close() error

	// LineNumber returns the current line number being processed.
	LineNumber() int
}

// Parser reads genotype calls from a raw-data file.
//
// The format is tab-separated text: column 0 = rsid, column 1 = chromosome,
// column 2 = position, column 3 = genotype. AncestryDNA files split the
// genotype into allele1/allele2 columns, which are joined. Lines starting
// with '#' and lines with 3 or fewer columns are skipped, as is a leading
// "rsid ..." column-header line.
type Parser struct {
	reader     *bufio.Reader
	file       *os.File
	gzipReader *gzip.Reader
	lineNumber int
}

// NewParser creates a parser for the given file.
// Supports both plain and gzipped raw-data files.
func NewParser(path string) (*Parser, error) {
	if path == "-" {
		return NewParserFromReader(os.Stdin), nil
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open raw data file: %w", err)
	}

	p := &Parser{file: file}

	// Check for gzip magic bytes
	buf := make([]byte, 2)
	_, err = file.Read(buf)
	if err != nil && err != io.EOF {
		file.Close()
		return nil, fmt.Errorf("read raw data file: %w", err)
	}

	if _, err := file.Seek(0, 0); err != nil {
		file.Close()
		return nil, fmt.Errorf("seek raw data file: %w", err)
	}

	if buf[0] == 0x1f && buf[1] == 0x8b {
		p.gzipReader, err = gzip.NewReader(file)
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("create gzip reader: %w", err)
		}
		p.reader = bufio.NewReader(p.gzipReader)
	} else {
		p.reader = bufio.NewReader(file)
	}

	return p, nil
}

// NewParserFromReader creates a parser from an io.Reader (e.g., stdin).
func NewParserFromReader(r io.Reader) *Parser {
	return &Parser{reader: bufio.NewReader(r)}
}

// Next reads the next genotype call record.
// Returns nil, nil when there are no more records.
func (p *Parser) Next() (*Record, error) {
	for {
		line, err := p.reader.ReadString('\n')
		if err != nil && err != io.EOF {
			return nil, fmt.Errorf("read raw data line: %w", err)
		}
		if line == "" && err == io.EOF {
			return nil, nil
		}
		p.lineNumber++

		line = strings.TrimRight(line, "\r\n")

		if line == "" || strings.HasPrefix(line, "#") {
			if err == io.EOF {
				return nil, nil
			}
			continue
		}

		fields := strings.Split(line, "\t")

		// AncestryDNA ships an uncommented header line.
		if fields[0] == "rsid" {
			if err == io.EOF {
				return nil, nil
			}
			continue
		}

		// A data line needs more than 3 columns; shorter lines carry no
		// genotype and are skipped.
		if len(fields) <= 3 {
			if err == io.EOF {
				return nil, nil
			}
			continue
		}

		genotype := fields[3]
		if len(fields) > 4 {
			// allele1/allele2 layout
			genotype = fields[3] + fields[4]
		}

		return &Record{
			RSID:       fields[0],
			Chromosome: fields[1],
			Position:   fields[2],
			Genotype:   genotype,
			Line:       p.lineNumber,
		}, nil
	}
}

// LineNumber returns the current line number being processed.
func (p *Parser) LineNumber() int {
	return p.lineNumber
}

// Close closes the parser and underlying file.
func (p *Parser) Close() error {
	if p.gzipReader != nil {
		p.gzipReader.Close()
	}
	if p.file != nil {
		return p.file.Close()
	}
	return nil
}
