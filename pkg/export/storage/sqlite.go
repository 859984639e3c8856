package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	"clearcourse-hq/exhibit/pkg/export"
)

// SQLiteConfig contains configuration for the SQLite storage backend.
type SQLiteConfig struct {
	// Path is the database file path.
	Path string

	// MaxOpenConns is the maximum number of open connections to the database.
	// Default: 10
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections.
	// Default: 5
	MaxIdleConns int

	// WALMode enables Write-Ahead Logging mode for better concurrency.
	// Default: true
	WALMode bool

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// DefaultSQLiteConfig returns the default SQLite configuration.
func DefaultSQLiteConfig() *SQLiteConfig {
	return &SQLiteConfig{
		Path:         "data/exports.db",
		MaxOpenConns: 10,
		MaxIdleConns: 5,
		WALMode:      true,
		BusyTimeout:  5 * time.Second,
	}
}

// SQLiteStorage implements the export Storage interface using SQLite.
type SQLiteStorage struct {
	db     *sql.DB
	config *SQLiteConfig
	logger *slog.Logger
}

// NewSQLiteStorage creates a new SQLite storage backend.
// It initializes the database schema and enables WAL mode if configured.
func NewSQLiteStorage(config *SQLiteConfig) (*SQLiteStorage, error) {
	if config == nil {
		config = DefaultSQLiteConfig()
	}

	logger := slog.Default().With("component", "export.storage.sqlite")

	db, err := sql.Open("sqlite", config.Path)
	if err != nil {
		return nil, export.NewStorageError("sqlite", "open", err)
	}

	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)

	s := &SQLiteStorage{
		db:     db,
		config: config,
		logger: logger,
	}

	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("SQLite storage initialized",
		"path", config.Path,
		"wal_mode", config.WALMode,
		"max_open_conns", config.MaxOpenConns,
	)

	return s, nil
}

// initialize sets up the database schema and enables WAL mode.
func (s *SQLiteStorage) initialize() error {
	if s.config.WALMode {
		_, err := s.db.Exec("PRAGMA journal_mode=WAL;")
		if err != nil {
			return export.NewStorageError("sqlite", "enable_wal", err)
		}
		s.logger.Debug("WAL mode enabled")
	}

	busyTimeoutMs := s.config.BusyTimeout.Milliseconds()
	_, err := s.db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d;", busyTimeoutMs))
	if err != nil {
		return export.NewStorageError("sqlite", "set_busy_timeout", err)
	}

	_, err = s.db.Exec(Schema)
	if err != nil {
		return export.NewStorageError("sqlite", "create_schema", err)
	}
	s.logger.Debug("database schema created")

	_, err = s.db.Exec(InsertSchemaVersion, SchemaVersion)
	if err != nil {
		return export.NewStorageError("sqlite", "insert_schema_version", err)
	}

	var version int
	err = s.db.QueryRow(GetSchemaVersion).Scan(&version)
	if err != nil && err != sql.ErrNoRows {
		return export.NewStorageError("sqlite", "get_schema_version", err)
	}
	if version != SchemaVersion {
		return export.NewStorageError("sqlite", "schema_version_mismatch",
			fmt.Errorf("expected schema version %d, got %d", SchemaVersion, version))
	}

	return nil
}

// exportColumns is the canonical column list scanned by scanExport.
const exportColumns = `
	id, case_id, export_number,
	package_type, claim_type, claim_description, date_start, date_end,
	redaction_level, message_content_redacted,
	sections_included, content_hash, chain_hash, prior_chain_hash,
	status, error_message,
	download_count, last_downloaded_at,
	expires_at, is_permanent,
	generated_at, generation_time`

// CreateExport persists a new export row in StatusGenerating.
func (s *SQLiteStorage) CreateExport(ctx context.Context, e *export.CaseExport) error {
	if e.Status != export.StatusGenerating {
		return export.NewStorageError("sqlite", "create",
			fmt.Errorf("export %s created with status %q, want %q", e.ID, e.Status, export.StatusGenerating))
	}

	sections, err := json.Marshal(e.SectionsIncluded)
	if err != nil {
		return export.NewStorageError("sqlite", "create", err)
	}

	query := `
		INSERT INTO case_exports (` + exportColumns + `
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = s.db.ExecContext(ctx, query,
		e.ID, e.CaseID, e.ExportNumber,
		string(e.PackageType), nullString(e.ClaimType), nullString(e.ClaimDescription), e.DateStart, e.DateEnd,
		string(e.RedactionLevel), e.MessageContentRedacted,
		string(sections), nullString(e.ContentHash), nullString(e.ChainHash), nullString(e.PriorChainHash),
		string(e.Status), nullString(e.ErrorMessage),
		e.DownloadCount, nullTime(e.LastDownloadedAt),
		nullTime(e.ExpiresAt), e.IsPermanent,
		e.GeneratedAt, e.GenerationTime.Milliseconds(),
	)
	if err != nil {
		return export.NewStorageError("sqlite", "create", err)
	}
	return nil
}

// GetExport retrieves an export by id.
func (s *SQLiteStorage) GetExport(ctx context.Context, id string) (*export.CaseExport, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+exportColumns+` FROM case_exports WHERE id = ?`, id)

	e, err := scanExport(row)
	if err == sql.ErrNoRows {
		return nil, export.NewNotFoundError(id)
	}
	if err != nil {
		return nil, export.NewStorageError("sqlite", "get", err)
	}
	return e, nil
}

// GetExportByNumber retrieves an export by its export number.
func (s *SQLiteStorage) GetExportByNumber(ctx context.Context, number string) (*export.CaseExport, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+exportColumns+` FROM case_exports WHERE export_number = ?`, number)

	e, err := scanExport(row)
	if err == sql.ErrNoRows {
		return nil, export.NewNotFoundError(number)
	}
	if err != nil {
		return nil, export.NewStorageError("sqlite", "get_by_number", err)
	}
	return e, nil
}

// ListExports returns all exports for a case, newest first.
func (s *SQLiteStorage) ListExports(ctx context.Context, caseID string) ([]*export.CaseExport, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+exportColumns+` FROM case_exports
		 WHERE case_id = ?
		 ORDER BY generated_at DESC, export_number DESC`, caseID)
	if err != nil {
		return nil, export.NewStorageError("sqlite", "list", err)
	}
	defer rows.Close()

	exports := []*export.CaseExport{}
	for rows.Next() {
		e, err := scanExport(rows)
		if err != nil {
			return nil, export.NewStorageError("sqlite", "scan", err)
		}
		exports = append(exports, e)
	}
	if err := rows.Err(); err != nil {
		return nil, export.NewStorageError("sqlite", "list", err)
	}
	return exports, nil
}

// LatestCompleted returns the most recently completed export for the case,
// excluding the given export id. Returns (nil, nil) when none exists.
func (s *SQLiteStorage) LatestCompleted(ctx context.Context, caseID, excludeID string) (*export.CaseExport, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+exportColumns+` FROM case_exports
		 WHERE case_id = ? AND status = ? AND id != ?
		 ORDER BY generated_at DESC, export_number DESC
		 LIMIT 1`,
		caseID, string(export.StatusCompleted), excludeID)

	e, err := scanExport(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, export.NewStorageError("sqlite", "latest_completed", err)
	}
	return e, nil
}

// CompleteExport atomically persists all section rows and transitions the
// export from StatusGenerating to StatusCompleted with its hashes. The
// transaction rolls back unless the row was still generating, so terminal
// rows can never be rewritten.
func (s *SQLiteStorage) CompleteExport(ctx context.Context, e *export.CaseExport, sections []*export.ExportSection) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return export.NewStorageError("sqlite", "complete", err)
	}
	defer tx.Rollback()

	sectionsIncluded, err := json.Marshal(e.SectionsIncluded)
	if err != nil {
		return export.NewStorageError("sqlite", "complete", err)
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE case_exports SET
			status = ?,
			sections_included = ?,
			content_hash = ?,
			chain_hash = ?,
			prior_chain_hash = ?,
			expires_at = ?,
			generation_time = ?
		WHERE id = ? AND status = ?`,
		string(export.StatusCompleted),
		string(sectionsIncluded),
		e.ContentHash, e.ChainHash, nullString(e.PriorChainHash),
		nullTime(e.ExpiresAt),
		e.GenerationTime.Milliseconds(),
		e.ID, string(export.StatusGenerating),
	)
	if err != nil {
		return export.NewStorageError("sqlite", "complete", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return export.NewStorageError("sqlite", "complete", err)
	}
	if affected != 1 {
		return export.NewStorageError("sqlite", "complete",
			fmt.Errorf("export %s is not in status %q", e.ID, export.StatusGenerating))
	}

	for _, sec := range sections {
		contentData, err := json.Marshal(sec.ContentData)
		if err != nil {
			return export.NewStorageError("sqlite", "complete", err)
		}
		dataSources, err := json.Marshal(sec.DataSources)
		if err != nil {
			return export.NewStorageError("sqlite", "complete", err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO export_sections (
				id, export_id, section_type, section_order, title,
				content_data, content_hash, evidence_count, data_sources,
				generation_time
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			sec.ID, sec.ExportID, sec.SectionType, sec.SectionOrder, sec.Title,
			string(contentData), sec.ContentHash, sec.EvidenceCount, string(dataSources),
			sec.GenerationTime.Milliseconds(),
		)
		if err != nil {
			return export.NewStorageError("sqlite", "complete", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return export.NewStorageError("sqlite", "complete", err)
	}

	s.logger.Debug("export completed",
		"export_id", e.ID,
		"export_number", e.ExportNumber,
		"sections", len(sections),
	)
	return nil
}

// FailExport transitions a generating export to StatusFailed with the given
// message. Any section rows written for the export are discarded.
func (s *SQLiteStorage) FailExport(ctx context.Context, id, errMsg string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return export.NewStorageError("sqlite", "fail", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE case_exports SET status = ?, error_message = ?
		WHERE id = ? AND status = ?`,
		string(export.StatusFailed), errMsg, id, string(export.StatusGenerating),
	)
	if err != nil {
		return export.NewStorageError("sqlite", "fail", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return export.NewStorageError("sqlite", "fail", err)
	}
	if affected != 1 {
		return export.NewStorageError("sqlite", "fail",
			fmt.Errorf("export %s is not in status %q", id, export.StatusGenerating))
	}

	_, err = tx.ExecContext(ctx, `DELETE FROM export_sections WHERE export_id = ?`, id)
	if err != nil {
		return export.NewStorageError("sqlite", "fail", err)
	}

	if err := tx.Commit(); err != nil {
		return export.NewStorageError("sqlite", "fail", err)
	}
	return nil
}

// GetSections returns the section rows for an export in section_order.
func (s *SQLiteStorage) GetSections(ctx context.Context, exportID string) ([]*export.ExportSection, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, export_id, section_type, section_order, title,
		       content_data, content_hash, evidence_count, data_sources,
		       generation_time
		FROM export_sections
		WHERE export_id = ?
		ORDER BY section_order`, exportID)
	if err != nil {
		return nil, export.NewStorageError("sqlite", "get_sections", err)
	}
	defer rows.Close()

	sections := []*export.ExportSection{}
	for rows.Next() {
		var sec export.ExportSection
		var contentData, dataSources string
		var genTimeMs int64

		err := rows.Scan(
			&sec.ID, &sec.ExportID, &sec.SectionType, &sec.SectionOrder, &sec.Title,
			&contentData, &sec.ContentHash, &sec.EvidenceCount, &dataSources,
			&genTimeMs,
		)
		if err != nil {
			return nil, export.NewStorageError("sqlite", "scan", err)
		}
		if err := json.Unmarshal([]byte(contentData), &sec.ContentData); err != nil {
			return nil, export.NewStorageError("sqlite", "unmarshal_content", err)
		}
		if err := json.Unmarshal([]byte(dataSources), &sec.DataSources); err != nil {
			return nil, export.NewStorageError("sqlite", "unmarshal_sources", err)
		}
		sec.GenerationTime = time.Duration(genTimeMs) * time.Millisecond
		sections = append(sections, &sec)
	}
	if err := rows.Err(); err != nil {
		return nil, export.NewStorageError("sqlite", "get_sections", err)
	}
	return sections, nil
}

// RecordDownload increments the download counter and stamps
// last_downloaded_at. Hashes and content are never touched.
func (s *SQLiteStorage) RecordDownload(ctx context.Context, id string, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE case_exports
		SET download_count = download_count + 1, last_downloaded_at = ?
		WHERE id = ?`, at, id)
	if err != nil {
		return export.NewStorageError("sqlite", "record_download", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return export.NewStorageError("sqlite", "record_download", err)
	}
	if affected == 0 {
		return export.NewNotFoundError(id)
	}
	return nil
}

// DeleteExpired removes expired, non-permanent exports and their sections.
// Returns the number of exports deleted.
func (s *SQLiteStorage) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, export.NewStorageError("sqlite", "delete_expired", err)
	}
	defer tx.Rollback()

	expiredWhere := `is_permanent = 0 AND expires_at IS NOT NULL AND expires_at < ?`

	_, err = tx.ExecContext(ctx, `
		DELETE FROM export_sections
		WHERE export_id IN (SELECT id FROM case_exports WHERE `+expiredWhere+`)`, now)
	if err != nil {
		return 0, export.NewStorageError("sqlite", "delete_expired", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM case_exports WHERE `+expiredWhere, now)
	if err != nil {
		return 0, export.NewStorageError("sqlite", "delete_expired", err)
	}
	count, err := res.RowsAffected()
	if err != nil {
		return 0, export.NewStorageError("sqlite", "delete_expired", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, export.NewStorageError("sqlite", "delete_expired", err)
	}

	if count > 0 {
		s.logger.Info("expired exports deleted", "count", count)
	}
	return count, nil
}

// Close releases resources held by the storage backend.
func (s *SQLiteStorage) Close() error {
	if err := s.db.Close(); err != nil {
		return export.NewStorageError("sqlite", "close", err)
	}
	s.logger.Info("SQLite storage closed")
	return nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanExport scans one case_exports row.
func scanExport(row rowScanner) (*export.CaseExport, error) {
	var e export.CaseExport
	var packageType, redactionLevel, status string
	var claimType, claimDescription, contentHash, chainHash, priorChainHash, errorMessage sql.NullString
	var sectionsIncluded string
	var lastDownloadedAt, expiresAt sql.NullTime
	var genTimeMs int64

	err := row.Scan(
		&e.ID, &e.CaseID, &e.ExportNumber,
		&packageType, &claimType, &claimDescription, &e.DateStart, &e.DateEnd,
		&redactionLevel, &e.MessageContentRedacted,
		&sectionsIncluded, &contentHash, &chainHash, &priorChainHash,
		&status, &errorMessage,
		&e.DownloadCount, &lastDownloadedAt,
		&expiresAt, &e.IsPermanent,
		&e.GeneratedAt, &genTimeMs,
	)
	if err != nil {
		return nil, err
	}

	e.PackageType = export.PackageType(packageType)
	e.RedactionLevel = export.RedactionLevel(redactionLevel)
	e.Status = export.Status(status)
	e.ClaimType = claimType.String
	e.ClaimDescription = claimDescription.String
	e.ContentHash = contentHash.String
	e.ChainHash = chainHash.String
	e.PriorChainHash = priorChainHash.String
	e.ErrorMessage = errorMessage.String
	e.GenerationTime = time.Duration(genTimeMs) * time.Millisecond

	if err := json.Unmarshal([]byte(sectionsIncluded), &e.SectionsIncluded); err != nil {
		return nil, fmt.Errorf("unmarshal sections_included: %w", err)
	}
	if lastDownloadedAt.Valid {
		t := lastDownloadedAt.Time
		e.LastDownloadedAt = &t
	}
	if expiresAt.Valid {
		t := expiresAt.Time
		e.ExpiresAt = &t
	}
	return &e, nil
}

// nullString converts an empty string to NULL for optional columns.
func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// nullTime converts a nil time pointer to NULL.
func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}
