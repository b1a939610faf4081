package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/firlift/firlift/constants"
	"github.com/firlift/firlift/internal/common"
	"github.com/firlift/firlift/internal/extract"
)

// HistoryArchive persists the full history sequence as one keyed record
// holding a JSON array, so restoring it is a single read.
type HistoryArchive struct {
	db     *sql.DB
	driver string
	key    string
	logger *slog.Logger
}

func NewHistoryArchive(db *sql.DB, driver string, logger *slog.Logger) *HistoryArchive {
	if logger == nil {
		logger = slog.Default()
	}
	return &HistoryArchive{
		db:     db,
		driver: driver,
		key:    constants.HistoryStorageKey,
		logger: logger,
	}
}

// Migrate ensures the history_state table is present.
func (a *HistoryArchive) Migrate(ctx context.Context) error {
	const stmt = `CREATE TABLE IF NOT EXISTS history_state (
		key TEXT PRIMARY KEY,
		payload TEXT NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`
	if _, err := a.db.ExecContext(ctx, stmt); err != nil {
		a.logger.Error("failed to migrate history_state", "error", err)
		return common.NewAppError("PERSISTENCE", "migrate history_state", err)
	}
	return nil
}

// LoadAll reads and decodes the stored sequence. A missing record is an empty
// history, not an error.
func (a *HistoryArchive) LoadAll(ctx context.Context) ([]extract.UploadResult, error) {
	query := `SELECT payload FROM history_state WHERE key = ?`
	if a.driver == DriverPostgres {
		query = `SELECT payload FROM history_state WHERE key = $1`
	}

	var payload string
	err := a.db.QueryRowContext(ctx, query, a.key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, common.NewAppError("PERSISTENCE", "read history record", err)
	}

	var entries []extract.UploadResult
	if err := json.Unmarshal([]byte(payload), &entries); err != nil {
		return nil, common.NewAppError("PERSISTENCE", "decode history record", err)
	}
	return entries, nil
}

// SaveAll overwrites the stored sequence with entries.
func (a *HistoryArchive) SaveAll(ctx context.Context, entries []extract.UploadResult) error {
	payload, err := json.Marshal(entries)
	if err != nil {
		return common.NewAppError("PERSISTENCE", "encode history record", err)
	}

	stmt := `INSERT INTO history_state (key, payload, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`
	if a.driver == DriverPostgres {
		stmt = `INSERT INTO history_state (key, payload, updated_at) VALUES ($1, $2, $3)
			ON CONFLICT(key) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`
	}

	if _, err := a.db.ExecContext(ctx, stmt, a.key, string(payload), time.Now().UTC()); err != nil {
		return common.NewAppError("PERSISTENCE", "write history record", err)
	}
	return nil
}
