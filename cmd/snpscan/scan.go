package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/snpscan/snpscan/internal/clinvar"
	"github.com/snpscan/snpscan/internal/pipeline"
	"github.com/snpscan/snpscan/internal/raw"
	"github.com/snpscan/snpscan/internal/reconcile"
	"github.com/snpscan/snpscan/internal/report"
	"github.com/snpscan/snpscan/internal/store"
)

func newScanCmd(verbose *bool) *cobra.Command {
	var (
		outputFile  string
		writePDF    bool
		pdfPath     string
		dbPath      string
		workers     int
		maxDiseases int
		timeout     time.Duration
		retries     int
		ratePerSec  float64
		baseURL     string
	)

	cmd := &cobra.Command{
		Use:   "scan <raw-file>",
		Short: "Scan a raw-data export for pathogenic variants",
		Example: `  snpscan scan genome_export.txt
  snpscan scan -o index.tsv --pdf genome_export.txt
  snpscan scan --db results.duckdb --workers 4 genome_export.txt
  cat genome_export.txt | snpscan scan -`,
		Args: usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd, args[0], scanOptions{
				verbose:     *verbose,
				outputFile:  outputFile,
				writePDF:    writePDF,
				pdfPath:     pdfPath,
				dbPath:      dbPath,
				workers:     workers,
				maxDiseases: maxDiseases,
				timeout:     timeout,
				retries:     retries,
				ratePerSec:  ratePerSec,
				baseURL:     baseURL,
			})
		},
	}

	cmd.Flags().StringVarP(&outputFile, "output", "o", "",
		"annotation index destination (default: stdout)")
	cmd.Flags().BoolVar(&writePDF, "pdf", false, "write the PDF report")
	cmd.Flags().StringVar(&pdfPath, "pdf-path", "",
		"PDF report path (default: ~/Documents/"+report.PDFFileName+")")
	cmd.Flags().StringVar(&dbPath, "db", "",
		"persist annotation rows to a DuckDB database at this path")
	cmd.Flags().IntVar(&workers, "workers", 0,
		"concurrent annotation fetches (default from config, 1)")
	cmd.Flags().IntVar(&maxDiseases, "max-diseases", 0,
		"stop after this many unique pathogenic diseases (0 = unlimited)")
	cmd.Flags().DurationVar(&timeout, "timeout", 0,
		"per-request timeout (default from config, 30s)")
	cmd.Flags().IntVar(&retries, "retries", -1,
		"retries on transient fetch failure (default from config, 2)")
	cmd.Flags().Float64Var(&ratePerSec, "rate", 0,
		"max annotation requests per second (default from config, 4)")
	cmd.Flags().StringVar(&baseURL, "base-url", "",
		"annotation service base URL (default: "+clinvar.DefaultBaseURL+")")

	return cmd
}

type scanOptions struct {
	verbose     bool
	outputFile  string
	writePDF    bool
	pdfPath     string
	dbPath      string
	workers     int
	maxDiseases int
	timeout     time.Duration
	retries     int
	ratePerSec  float64
	baseURL     string
}

func runScan(cmd *cobra.Command, inputPath string, opts scanOptions) error {
	logger, err := newLogger(opts.verbose)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	// Any failure opening or reading the input file aborts the run; no
	// partial report is generated.
	parser, err := raw.NewParser(inputPath)
	if err != nil {
		return err
	}
	defer parser.Close()

	timeout := opts.timeout
	if timeout <= 0 {
		timeout = viper.GetDuration("fetch.timeout")
	}
	retries := opts.retries
	if retries < 0 {
		retries = viper.GetInt("fetch.retries")
	}
	ratePerSec := opts.ratePerSec
	if ratePerSec <= 0 {
		ratePerSec = viper.GetFloat64("fetch.rate")
	}

	client, err := clinvar.NewClient(clinvar.Options{
		BaseURL:    opts.baseURL,
		Timeout:    timeout,
		Retries:    retries,
		RatePerSec: ratePerSec,
	})
	if err != nil {
		return err
	}
	client.SetLogger(logger)

	workers := opts.workers
	if workers < 1 {
		workers = viper.GetInt("scan.workers")
	}

	runner := pipeline.NewRunner(client)
	runner.SetLogger(logger)
	runner.SetWorkers(workers)

	diseases := reconcile.NewDiseaseSet(opts.maxDiseases)
	result, err := runner.Run(cmd.Context(), parser, diseases)
	switch {
	case err == nil:
	case errors.Is(err, reconcile.ErrDiseaseLimit):
		logger.Warn("pathogenic disease limit reached, reporting partial results",
			zap.Int("limit", opts.maxDiseases))
	default:
		return err
	}

	out := os.Stdout
	if opts.outputFile != "" {
		out, err = os.Create(opts.outputFile)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer out.Close()
	}

	iw := report.NewIndexWriter(out)
	if err := iw.WriteHeader(); err != nil {
		return fmt.Errorf("write index header: %w", err)
	}
	for _, rsid := range result.Order {
		if err := iw.Write(rsid, result.Index[rsid]); err != nil {
			return fmt.Errorf("write index: %w", err)
		}
	}
	if err := iw.Flush(); err != nil {
		return fmt.Errorf("flush index: %w", err)
	}

	if opts.dbPath != "" {
		st, err := store.Open(opts.dbPath)
		if err != nil {
			return err
		}
		defer st.Close()
		for _, rsid := range result.Order {
			if err := st.InsertResult(rsid, result.Index[rsid]); err != nil {
				return err
			}
		}
		fmt.Fprintf(os.Stderr, "Annotations saved to %s\n", opts.dbPath)
	}

	fmt.Fprintf(os.Stderr, "Processed %d SNPs (%d skipped, %d failed)\n",
		result.Processed, result.Skipped, result.Failed)

	fmt.Println()
	if err := report.WriteText(os.Stdout, diseases.Names()); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}

	if opts.writePDF {
		pdfPath := opts.pdfPath
		if pdfPath == "" {
			pdfPath = viper.GetString("report.pdf_path")
		}
		if pdfPath == "" {
			pdfPath, err = report.DefaultPDFPath()
			if err != nil {
				return err
			}
		}
		if err := report.WritePDF(pdfPath, diseases.Names()); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "PDF report exported to %s\n", pdfPath)
	}

	return nil
}
