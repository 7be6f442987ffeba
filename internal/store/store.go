// Package store persists reconciled annotation rows in DuckDB so a scan's
// output stays queryable after the run.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/marcboeker/go-duckdb"

	"github.com/snpscan/snpscan/internal/reconcile"
)

// Store manages a DuckDB connection for scan results.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates a DuckDB database at the given path.
// Use an empty string for an in-memory database.
func Open(path string) (*Store, error) {
	if path != "" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for direct access.
func (s *Store) DB() *sql.DB {
	return s.db
}

// ensureSchema creates tables if they don't exist.
func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS snp_annotations (
		rsid VARCHAR,
		allele VARCHAR,
		accession VARCHAR,
		disease_names VARCHAR,
		clinical_significance VARCHAR,
		pathogenic BOOLEAN
	)`)
	return err
}

// InsertResult appends every annotation row of one SNP's reconciliation.
func (s *Store) InsertResult(rsid string, res *reconcile.Result) error {
	stmt, err := s.db.Prepare(`INSERT INTO snp_annotations
		(rsid, allele, accession, disease_names, clinical_significance, pathogenic)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, allele := range res.Alleles() {
		for _, flat := range res.ByAllele[allele] {
			if _, err := stmt.Exec(rsid, allele, flat.Accession,
				flat.DiseaseNames, flat.ClinicalSignificance, flat.Pathogenic); err != nil {
				return fmt.Errorf("insert annotation for %s: %w", rsid, err)
			}
		}
	}
	return nil
}

// CountAnnotations returns the number of stored annotation rows.
func (s *Store) CountAnnotations() (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM snp_annotations`).Scan(&n)
	return n, err
}
