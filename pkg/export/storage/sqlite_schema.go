package storage

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

// Schema contains the SQL statements to create the export database schema.
const Schema = `
-- Case export packages
CREATE TABLE IF NOT EXISTS case_exports (
    id TEXT PRIMARY KEY,
    case_id TEXT NOT NULL,
    export_number TEXT NOT NULL UNIQUE,

    -- Package scope
    package_type TEXT NOT NULL,
    claim_type TEXT,
    claim_description TEXT,
    date_start TIMESTAMP NOT NULL,
    date_end TIMESTAMP NOT NULL,

    -- Redaction
    redaction_level TEXT NOT NULL,
    message_content_redacted BOOLEAN NOT NULL DEFAULT 0,

    -- Integrity
    sections_included TEXT NOT NULL,
    content_hash TEXT,
    chain_hash TEXT,
    prior_chain_hash TEXT,

    -- Lifecycle
    status TEXT NOT NULL,
    error_message TEXT,

    -- Access tracking
    download_count INTEGER NOT NULL DEFAULT 0,
    last_downloaded_at TIMESTAMP,

    -- Retention
    expires_at TIMESTAMP,
    is_permanent BOOLEAN NOT NULL DEFAULT 0,

    -- Diagnostics
    generated_at TIMESTAMP NOT NULL,
    generation_time INTEGER NOT NULL DEFAULT 0
);

-- Generated sections, written only as part of a completed export
CREATE TABLE IF NOT EXISTS export_sections (
    id TEXT PRIMARY KEY,
    export_id TEXT NOT NULL,
    section_type TEXT NOT NULL,
    section_order INTEGER NOT NULL,
    title TEXT NOT NULL,
    content_data TEXT NOT NULL,
    content_hash TEXT NOT NULL,
    evidence_count INTEGER NOT NULL DEFAULT 0,
    data_sources TEXT NOT NULL,
    generation_time INTEGER NOT NULL DEFAULT 0,

    UNIQUE (export_id, section_type)
);

-- Schema version table
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TIMESTAMP NOT NULL
);

-- Indexes for common queries
CREATE INDEX IF NOT EXISTS idx_case_exports_case_id ON case_exports(case_id);
CREATE INDEX IF NOT EXISTS idx_case_exports_status ON case_exports(status);
CREATE INDEX IF NOT EXISTS idx_case_exports_generated_at ON case_exports(generated_at);
CREATE INDEX IF NOT EXISTS idx_case_exports_expires_at ON case_exports(expires_at);
CREATE INDEX IF NOT EXISTS idx_export_sections_export_id ON export_sections(export_id, section_order);
`

// InsertSchemaVersion inserts the schema version into the schema_version table.
const InsertSchemaVersion = `
INSERT INTO schema_version (version, applied_at)
VALUES (?, datetime('now'))
ON CONFLICT(version) DO NOTHING;
`

// GetSchemaVersion retrieves the current schema version from the database.
const GetSchemaVersion = `
SELECT version FROM schema_version ORDER BY version DESC LIMIT 1;
`
