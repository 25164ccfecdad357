// Package db implements the installed-package database.
package db

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.trai.ch/zerr"

	// SQLite driver
	_ "modernc.org/sqlite"

	"github.com/quarrypkg/quarry/internal/core/domain"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLite implements ports.Database on an embedded SQLite file. WAL mode
// plus a busy timeout give concurrent pipeline goroutines safe access; the
// process-level mutex serializes writers so a record replacement is always
// observed whole.
type SQLite struct {
	db *sql.DB
	mu sync.Mutex
}

// Open opens (creating if necessary) the database at path and applies
// pending schema migrations.
func Open(ctx context.Context, path string) (*SQLite, error) {
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL&_txlock=immediate", path)

	handle, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to open package database")
	}
	handle.SetMaxOpenConns(1)
	handle.SetConnMaxLifetime(5 * time.Minute)

	if err := handle.PingContext(ctx); err != nil {
		_ = handle.Close()
		return nil, zerr.Wrap(err, "failed to ping package database")
	}

	s := &SQLite{db: handle}
	if err := s.migrate(); err != nil {
		_ = handle.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLite) migrate() error {
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return zerr.Wrap(err, "failed to load migrations")
	}
	dbDriver, err := sqlite3.WithInstance(s.db, &sqlite3.Config{})
	if err != nil {
		return zerr.Wrap(err, "failed to create migration driver")
	}
	m, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite3", dbDriver)
	if err != nil {
		return zerr.Wrap(err, "failed to create migrator")
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return zerr.Wrap(err, "failed to run migrations")
	}
	return nil
}

// Get retrieves the record for a package name. Returns nil, nil when the
// package is not installed.
func (s *SQLite) Get(ctx context.Context, name string) (*domain.InstalledRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT name, version, checksum, files, installed_at, license, repository, description
		FROM packages WHERE name = ?`, name)

	var rec domain.InstalledRecord
	var files string
	var installedAt string
	err := row.Scan(&rec.Name, &rec.Version, &rec.Checksum, &files,
		&installedAt, &rec.License, &rec.Repository, &rec.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to read record"), "package", name)
	}

	if err := json.Unmarshal([]byte(files), &rec.Files); err != nil {
		return nil, zerr.With(zerr.Wrap(err, "corrupt file list in record"), "package", name)
	}
	rec.InstalledAt, err = time.Parse(time.RFC3339Nano, installedAt)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "corrupt timestamp in record"), "package", name)
	}
	return &rec, nil
}

// Put stores the record, atomically replacing any previous record for the
// same name.
func (s *SQLite) Put(ctx context.Context, rec domain.InstalledRecord) error {
	files, err := json.Marshal(rec.Files)
	if err != nil {
		return zerr.Wrap(err, "failed to encode file list")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO packages (name, version, checksum, files, installed_at, license, repository, description)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			version = excluded.version,
			checksum = excluded.checksum,
			files = excluded.files,
			installed_at = excluded.installed_at,
			license = excluded.license,
			repository = excluded.repository,
			description = excluded.description`,
		rec.Name, rec.Version, rec.Checksum, string(files),
		rec.InstalledAt.Format(time.RFC3339Nano), rec.License, rec.Repository, rec.Description)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to write record"), "package", rec.Name)
	}
	return nil
}

// List returns every installed record, ordered by name.
func (s *SQLite) List(ctx context.Context) ([]domain.InstalledRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, version, checksum, files, installed_at, license, repository, description
		FROM packages ORDER BY name`)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to list records")
	}
	defer func() { _ = rows.Close() }()

	var records []domain.InstalledRecord
	for rows.Next() {
		var rec domain.InstalledRecord
		var files string
		var installedAt string
		if err := rows.Scan(&rec.Name, &rec.Version, &rec.Checksum, &files,
			&installedAt, &rec.License, &rec.Repository, &rec.Description); err != nil {
			return nil, zerr.Wrap(err, "failed to scan record")
		}
		if err := json.Unmarshal([]byte(files), &rec.Files); err != nil {
			return nil, zerr.With(zerr.Wrap(err, "corrupt file list in record"), "package", rec.Name)
		}
		rec.InstalledAt, err = time.Parse(time.RFC3339Nano, installedAt)
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, "corrupt timestamp in record"), "package", rec.Name)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, zerr.Wrap(err, "failed to iterate records")
	}
	return records, nil
}

// Close closes the underlying store.
func (s *SQLite) Close() error {
	return s.db.Close()
}
