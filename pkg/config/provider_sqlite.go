package config

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// Schema creates the configuration tables. Each table holds at most one row.
const Schema = `
CREATE TABLE IF NOT EXISTS source (
	id               INTEGER PRIMARY KEY CHECK (id = 1),
	path             TEXT NOT NULL,
	timestamp_header TEXT,
	timestamp_layout TEXT,
	timezone         TEXT,
	delimiter        TEXT
);

CREATE TABLE IF NOT EXISTS analysis (
	id                    INTEGER PRIMARY KEY CHECK (id = 1),
	generation_keywords   TEXT,
	preferred_correlation TEXT,
	default_bucket        TEXT,
	histogram_bins        INTEGER,
	missing_values        TEXT
);

CREATE TABLE IF NOT EXISTS server (
	id          INTEGER PRIMARY KEY CHECK (id = 1),
	listen_addr TEXT,
	http_port   INTEGER
);
`

// SQLiteProvider implements ConfigProvider for SQLite database configuration
type SQLiteProvider struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteProvider creates a new SQLite configuration provider
func NewSQLiteProvider(dbPath string) (*SQLiteProvider, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	return &SQLiteProvider{
		db:     db,
		dbPath: dbPath,
	}, nil
}

// InitSchema creates the configuration tables if they do not exist
func (s *SQLiteProvider) InitSchema() error {
	if _, err := s.db.Exec(Schema); err != nil {
		return fmt.Errorf("failed to create configuration schema: %w", err)
	}
	return nil
}

// LoadConfig loads the complete configuration from SQLite database
func (s *SQLiteProvider) LoadConfig() (*ConfigData, error) {
	config := &ConfigData{}

	source, err := s.GetSource()
	if err != nil {
		return nil, fmt.Errorf("failed to load source config: %w", err)
	}
	config.Source = *source

	analysis, err := s.GetAnalysis()
	if err != nil {
		return nil, fmt.Errorf("failed to load analysis config: %w", err)
	}
	config.Analysis = *analysis

	server, err := s.GetServer()
	if err != nil {
		return nil, fmt.Errorf("failed to load server config: %w", err)
	}
	config.Server = *server

	return config, nil
}

// GetSource returns the source row. A missing row yields an empty section.
func (s *SQLiteProvider) GetSource() (*SourceData, error) {
	var source SourceData
	var header, layout, tz, delim sql.NullString

	err := s.db.QueryRow(`
		SELECT path, timestamp_header, timestamp_layout, timezone, delimiter
		FROM source WHERE id = 1`).Scan(&source.Path, &header, &layout, &tz, &delim)
	if errors.Is(err, sql.ErrNoRows) {
		return &source, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query source: %w", err)
	}

	source.TimestampHeader = header.String
	source.TimestampLayout = layout.String
	source.Timezone = tz.String
	source.Delimiter = delim.String

	return &source, nil
}

// GetAnalysis returns the analysis row. Keywords are stored comma-separated.
func (s *SQLiteProvider) GetAnalysis() (*AnalysisData, error) {
	var analysis AnalysisData
	var keywords, preferred, bucket, missing sql.NullString
	var bins sql.NullInt64

	err := s.db.QueryRow(`
		SELECT generation_keywords, preferred_correlation, default_bucket, histogram_bins, missing_values
		FROM analysis WHERE id = 1`).Scan(&keywords, &preferred, &bucket, &bins, &missing)
	if errors.Is(err, sql.ErrNoRows) {
		return &analysis, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query analysis: %w", err)
	}

	if keywords.Valid {
		for _, k := range strings.Split(keywords.String, ",") {
			if k = strings.TrimSpace(k); k != "" {
				analysis.GenerationKeywords = append(analysis.GenerationKeywords, k)
			}
		}
	}
	analysis.PreferredCorrelation = preferred.String
	analysis.DefaultBucket = bucket.String
	if bins.Valid {
		analysis.HistogramBins = int(bins.Int64)
	}
	analysis.MissingValues = missing.String

	return &analysis, nil
}

// GetServer returns the server row
func (s *SQLiteProvider) GetServer() (*ServerData, error) {
	var server ServerData
	var addr sql.NullString
	var port sql.NullInt64

	err := s.db.QueryRow(`SELECT listen_addr, http_port FROM server WHERE id = 1`).Scan(&addr, &port)
	if errors.Is(err, sql.ErrNoRows) {
		return &server, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query server: %w", err)
	}

	server.ListenAddr = addr.String
	if port.Valid {
		server.HTTPPort = int(port.Int64)
	}

	return &server, nil
}

// SaveConfig replaces the stored configuration with cfg in one transaction
func (s *SQLiteProvider) SaveConfig(cfg *ConfigData) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`
		INSERT OR REPLACE INTO source (id, path, timestamp_header, timestamp_layout, timezone, delimiter)
		VALUES (1, ?, ?, ?, ?, ?)`,
		cfg.Source.Path, nullString(cfg.Source.TimestampHeader), nullString(cfg.Source.TimestampLayout),
		nullString(cfg.Source.Timezone), nullString(cfg.Source.Delimiter)); err != nil {
		return fmt.Errorf("failed to save source: %w", err)
	}

	if _, err := tx.Exec(`
		INSERT OR REPLACE INTO analysis (id, generation_keywords, preferred_correlation, default_bucket, histogram_bins, missing_values)
		VALUES (1, ?, ?, ?, ?, ?)`,
		nullString(strings.Join(cfg.Analysis.GenerationKeywords, ",")), nullString(cfg.Analysis.PreferredCorrelation),
		nullString(cfg.Analysis.DefaultBucket), nullInt(cfg.Analysis.HistogramBins),
		nullString(cfg.Analysis.MissingValues)); err != nil {
		return fmt.Errorf("failed to save analysis: %w", err)
	}

	if _, err := tx.Exec(`
		INSERT OR REPLACE INTO server (id, listen_addr, http_port) VALUES (1, ?, ?)`,
		nullString(cfg.Server.ListenAddr), nullInt(cfg.Server.HTTPPort)); err != nil {
		return fmt.Errorf("failed to save server: %w", err)
	}

	return tx.Commit()
}

// IsReadOnly returns false since SQLite supports writes
func (s *SQLiteProvider) IsReadOnly() bool {
	return false
}

// Close closes the database connection
func (s *SQLiteProvider) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func nullString(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}

func nullInt(v int) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(v), Valid: v != 0}
}
