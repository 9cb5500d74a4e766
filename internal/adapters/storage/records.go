package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lcalzada-xor/cvewatch/internal/core/domain"
	"github.com/lcalzada-xor/cvewatch/internal/core/ports"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// RecordStore implements ports.VulnerabilityRepository using SQLite.
// Identifier sets and references are stored as JSON text columns; times
// as RFC3339 strings.
type RecordStore struct {
	db *sql.DB
}

// NewRecordStore opens (or creates) the record database at dbPath.
func NewRecordStore(dbPath string) (*RecordStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	// Initialize schema
	if _, err := db.Exec(schemaSQL); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &RecordStore{db: db}, nil
}

// Exists reports whether a record with the given identifier is stored.
func (s *RecordStore) Exists(ctx context.Context, id string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		"SELECT 1 FROM vulnerability_records WHERE cve_id = ?", id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("existence check failed: %w", err)
	}
	return true, nil
}

// CreateIfAbsent inserts the record unless one with the same identifier
// already exists. The conflict clause makes the insert-or-skip atomic, so
// concurrent runs cannot double-write or overwrite.
func (s *RecordStore) CreateIfAbsent(ctx context.Context, rec domain.VulnerabilityRecord) (bool, error) {
	vendorsJSON, err := json.Marshal(rec.Vendors)
	if err != nil {
		return false, fmt.Errorf("failed to marshal vendors: %w", err)
	}
	productsJSON, err := json.Marshal(rec.Products)
	if err != nil {
		return false, fmt.Errorf("failed to marshal products: %w", err)
	}
	refsJSON, err := json.Marshal(rec.References)
	if err != nil {
		return false, fmt.Errorf("failed to marshal references: %w", err)
	}

	query := `
		INSERT INTO vulnerability_records (
			cve_id, description, vendors, products, cvss_score, severity,
			cvss_vector, published_date, last_modified, refs, collected_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(cve_id) DO NOTHING
	`

	res, err := s.db.ExecContext(ctx, query,
		rec.ID, rec.Description, string(vendorsJSON), string(productsJSON),
		rec.CVSSScore, string(rec.Severity), rec.CVSSVector,
		rec.PublishedAt.UTC().Format(time.RFC3339),
		rec.LastModifiedAt.UTC().Format(time.RFC3339),
		string(refsJSON),
		rec.CollectedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return false, fmt.Errorf("insert failed: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// UpdateExtraction overwrites only the identifier sets and stamps
// reprocessed_at. All other columns, collected_at included, stay intact.
// Returns false when no record with the identifier exists.
func (s *RecordStore) UpdateExtraction(ctx context.Context, id string, vendors, products []string) (bool, error) {
	vendorsJSON, err := json.Marshal(vendors)
	if err != nil {
		return false, fmt.Errorf("failed to marshal vendors: %w", err)
	}
	productsJSON, err := json.Marshal(products)
	if err != nil {
		return false, fmt.Errorf("failed to marshal products: %w", err)
	}

	query := `
		UPDATE vulnerability_records
		SET vendors = ?,
		    products = ?,
		    reprocessed_at = ?
		WHERE cve_id = ?
	`

	res, err := s.db.ExecContext(ctx, query,
		string(vendorsJSON), string(productsJSON),
		time.Now().UTC().Format(time.RFC3339), id,
	)
	if err != nil {
		return false, fmt.Errorf("update failed: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// GetByID retrieves a record, or (nil, nil) when absent.
func (s *RecordStore) GetByID(ctx context.Context, id string) (*domain.VulnerabilityRecord, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+" WHERE cve_id = ?", id)
	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get record: %w", err)
	}
	return &rec, nil
}

// ListRecent returns up to limit records, most recently published first.
func (s *RecordStore) ListRecent(ctx context.Context, limit int) ([]domain.VulnerabilityRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		selectColumns+" ORDER BY published_date DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var recs []domain.VulnerabilityRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// CountAll returns the total number of stored records.
func (s *RecordStore) CountAll(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM vulnerability_records").Scan(&count)
	return count, err
}

// Close closes the database connection.
func (s *RecordStore) Close() error {
	return s.db.Close()
}

const selectColumns = `
	SELECT cve_id, description, vendors, products, cvss_score, severity,
	       cvss_vector, published_date, last_modified, refs,
	       collected_at, reprocessed_at
	FROM vulnerability_records
`

// scanner abstracts sql.Row and sql.Rows for the shared scan path.
type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (domain.VulnerabilityRecord, error) {
	var rec domain.VulnerabilityRecord
	var severity, vendorsJSON, productsJSON string
	var published, lastModified, collectedAt string
	var cvssVector, refsJSON, reprocessedAt sql.NullString

	err := row.Scan(
		&rec.ID, &rec.Description, &vendorsJSON, &productsJSON,
		&rec.CVSSScore, &severity, &cvssVector,
		&published, &lastModified, &refsJSON,
		&collectedAt, &reprocessedAt,
	)
	if err != nil {
		return rec, err
	}

	rec.Severity = domain.Severity(severity)
	rec.CVSSVector = cvssVector.String

	json.Unmarshal([]byte(vendorsJSON), &rec.Vendors)
	json.Unmarshal([]byte(productsJSON), &rec.Products)
	if refsJSON.String != "" {
		json.Unmarshal([]byte(refsJSON.String), &rec.References)
	}

	rec.PublishedAt, _ = time.Parse(time.RFC3339, published)
	rec.LastModifiedAt, _ = time.Parse(time.RFC3339, lastModified)
	rec.CollectedAt, _ = time.Parse(time.RFC3339, collectedAt)
	if reprocessedAt.Valid && reprocessedAt.String != "" {
		if t, err := time.Parse(time.RFC3339, reprocessedAt.String); err == nil {
			rec.ReprocessedAt = &t
		}
	}

	return rec, nil
}

// Ensure interface compliance
var _ ports.VulnerabilityRepository = (*RecordStore)(nil)
