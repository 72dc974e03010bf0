package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_storage.go -package=mocks doculens/internal/storage ConfigStore,ChatStore

// ConfigStore provides access to ingestion configurations.
type ConfigStore interface {
	List(ctx context.Context) ([]Configuration, error)
	GetByID(ctx context.Context, id int64) (Configuration, error)
	// GetActive returns the active configuration, or ErrNotFound when none
	// has been activated yet.
	GetActive(ctx context.Context) (Configuration, error)
	Create(ctx context.Context, cfg Configuration) (Configuration, error)
	Update(ctx context.Context, cfg Configuration) (Configuration, error)
	// SetActive marks one configuration active and deactivates the rest.
	SetActive(ctx context.Context, id int64) (Configuration, error)
	Delete(ctx context.Context, id int64) error
}

const configColumns = "id, name, documents_path, recursive, is_active, created_at, updated_at"

// ConfigRepo provides methods for configuration operations.
type ConfigRepo struct {
	db *sql.DB
}

// NewConfigRepo creates a new ConfigRepo.
func NewConfigRepo(db *sql.DB) *ConfigRepo {
	return &ConfigRepo{db: db}
}

// List returns all configurations ordered by name.
func (r *ConfigRepo) List(ctx context.Context) ([]Configuration, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+configColumns+" FROM configurations ORDER BY name",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var configs []Configuration
	for rows.Next() {
		cfg, err := scanConfiguration(rows)
		if err != nil {
			return nil, err
		}
		configs = append(configs, cfg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return configs, nil
}

// GetByID returns one configuration, or ErrNotFound.
func (r *ConfigRepo) GetByID(ctx context.Context, id int64) (Configuration, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+configColumns+" FROM configurations WHERE id = ?", id,
	)
	cfg, err := scanConfiguration(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Configuration{}, ErrNotFound
	}
	return cfg, err
}

// GetActive returns the active configuration, or ErrNotFound.
func (r *ConfigRepo) GetActive(ctx context.Context) (Configuration, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+configColumns+" FROM configurations WHERE is_active = 1 LIMIT 1",
	)
	cfg, err := scanConfiguration(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Configuration{}, ErrNotFound
	}
	return cfg, err
}

// Create inserts a configuration and returns it with its assigned ID.
func (r *ConfigRepo) Create(ctx context.Context, cfg Configuration) (Configuration, error) {
	result, err := r.db.ExecContext(ctx,
		"INSERT INTO configurations (name, documents_path, recursive) VALUES (?, ?, ?)",
		cfg.Name, cfg.DocumentsPath, cfg.Recursive,
	)
	if err != nil {
		return Configuration{}, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return Configuration{}, err
	}
	return r.GetByID(ctx, id)
}

// Update rewrites a configuration's name, documents path and recursion mode.
func (r *ConfigRepo) Update(ctx context.Context, cfg Configuration) (Configuration, error) {
	result, err := r.db.ExecContext(ctx,
		"UPDATE configurations SET name = ?, documents_path = ?, recursive = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		cfg.Name, cfg.DocumentsPath, cfg.Recursive, cfg.ID,
	)
	if err != nil {
		return Configuration{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return Configuration{}, err
	}
	if affected == 0 {
		return Configuration{}, ErrNotFound
	}
	return r.GetByID(ctx, cfg.ID)
}

// SetActive activates one configuration and deactivates all others in a
// single transaction.
func (r *ConfigRepo) SetActive(ctx context.Context, id int64) (Configuration, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return Configuration{}, err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	result, err := tx.ExecContext(ctx,
		"UPDATE configurations SET is_active = 1, updated_at = CURRENT_TIMESTAMP WHERE id = ?", id,
	)
	if err != nil {
		return Configuration{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return Configuration{}, err
	}
	if affected == 0 {
		return Configuration{}, ErrNotFound
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE configurations SET is_active = 0 WHERE id != ?", id,
	); err != nil {
		return Configuration{}, err
	}

	if err := tx.Commit(); err != nil {
		return Configuration{}, err
	}
	return r.GetByID(ctx, id)
}

// Delete removes a configuration.
func (r *ConfigRepo) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM configurations WHERE id = ?", id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanConfiguration(row rowScanner) (Configuration, error) {
	var cfg Configuration
	var createdAt, updatedAt string
	if err := row.Scan(&cfg.ID, &cfg.Name, &cfg.DocumentsPath, &cfg.Recursive, &cfg.IsActive, &createdAt, &updatedAt); err != nil {
		return Configuration{}, err
	}

	var err error
	cfg.CreatedAt, err = parseTimestamp(createdAt)
	if err != nil {
		return Configuration{}, err
	}
	cfg.UpdatedAt, err = parseTimestamp(updatedAt)
	if err != nil {
		return Configuration{}, err
	}
	return cfg, nil
}

// parseTimestamp handles the DATETIME formats SQLite emits.
func parseTimestamp(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02 15:04:05", s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp format: %q", s)
}
