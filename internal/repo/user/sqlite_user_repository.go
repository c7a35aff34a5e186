package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mkrupp/followgraph/internal/domain"
	"github.com/mkrupp/followgraph/internal/infra/logging"
)

// SQLiteUserRepositoryConfig holds configuration for the SQLite user repository.
type SQLiteUserRepositoryConfig struct {
	// DatabasePath is the filesystem path to the SQLite database file
	DatabasePath string `env:"DATABASE_PATH" default:"var/storage/graphsvc.db"`
}

// SQLiteUserRepository implements Repository using SQLite as the storage backend.
type SQLiteUserRepository struct {
	db        *sql.DB
	log       logging.Logger
	writeLock *sync.Mutex // sqlite does not support concurrent writes
}

var _ Repository = (*SQLiteUserRepository)(nil)

// SQLiteUserRepositoryFactory creates a factory function that returns a new SQLiteUserRepository.
// The factory function implements the RepositoryFactory type.
func SQLiteUserRepositoryFactory(cfg SQLiteUserRepositoryConfig) RepositoryFactory {
	return func() (Repository, error) {
		return NewSQLiteUserRepository(cfg)
	}
}

// NewSQLiteUserRepository creates a new SQLiteUserRepository with the given configuration.
// It initializes the database connection and creates the schema if needed.
// Returns an error if database connection or initialization fails.
func NewSQLiteUserRepository(cfg SQLiteUserRepositoryConfig) (*SQLiteUserRepository, error) {
	log := logging.GetLogger("repo.user.sqlite_user_repository").With(
		logging.Group("db", "path", cfg.DatabasePath, "driver", sqliteDriverName),
	)

	db, err := sql.Open(sqliteDriverName, sqliteDSN(cfg.DatabasePath))
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if err := initializeSQLiteDB(db); err != nil {
		return nil, fmt.Errorf("initialize db: %w", err)
	}

	db.SetConnMaxLifetime(5 * time.Minute)

	log.Debug("repository opened")

	return &SQLiteUserRepository{
		db:        db,
		log:       log,
		writeLock: new(sync.Mutex),
	}, nil
}

func initializeSQLiteDB(db *sql.DB) error {
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			name       TEXT    UNIQUE NOT NULL,
			created_at INTEGER NOT NULL
		);
		CREATE TABLE IF NOT EXISTS followees (
			user_id  INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			name     TEXT    NOT NULL,
			PRIMARY KEY (user_id, position)
		)
	`); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	return nil
}

// CreateUser implements Repository.CreateUser using SQLite.
func (r *SQLiteUserRepository) CreateUser(ctx context.Context, name string) error {
	r.writeLock.Lock()
	defer r.writeLock.Unlock()

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO users (name, created_at) VALUES (?, ?)",
		name,
		time.Now().Unix(),
	)
	if err != nil {
		if isSQLiteUniqueViolation(err) {
			err = errors.Join(domain.ErrUserAlreadyExists, err)
		}

		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// GetUser implements Repository.GetUser using SQLite.
func (r *SQLiteUserRepository) GetUser(ctx context.Context, name string) (*domain.UserRecord, bool, error) {
	var rec domain.UserRecord

	err := r.db.QueryRowContext(ctx,
		"SELECT id, name, created_at FROM users WHERE name = ?",
		name,
	).Scan(&rec.ID, &rec.Name, &rec.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = errors.Join(domain.ErrUserNotFound, err)
		}

		return nil, false, fmt.Errorf("query user: %w", err)
	}

	rec.Followees, err = querySQLiteFollowees(ctx, r.db, rec.ID)
	if err != nil {
		return nil, false, err
	}

	return &rec, true, nil
}

// ListUsers implements Repository.ListUsers using SQLite.
func (r *SQLiteUserRepository) ListUsers(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT name FROM users ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	names := []string{}

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}

		names = append(names, name)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}

	return names, nil
}

// UpdateFollowees implements Repository.UpdateFollowees using SQLite.
// Transactions are opened with BEGIN IMMEDIATE, so the write lock on the
// database file is held from the first read.
func (r *SQLiteUserRepository) UpdateFollowees(ctx context.Context, name string, fn UpdateFunc) (err error) {
	r.writeLock.Lock()
	defer r.writeLock.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var userID int64

	if err := tx.QueryRowContext(ctx, "SELECT id FROM users WHERE name = ?", name).Scan(&userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = errors.Join(domain.ErrUserNotFound, err)
		}

		return fmt.Errorf("query user: %w", err)
	}

	current, err := querySQLiteFollowees(ctx, tx, userID)
	if err != nil {
		return err
	}

	followees, err := fn(current)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM followees WHERE user_id = ?", userID); err != nil {
		return fmt.Errorf("delete followees: %w", err)
	}

	for pos, followee := range followees {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO followees (user_id, position, name) VALUES (?, ?, ?)",
			userID, pos, followee,
		); err != nil {
			return fmt.Errorf("insert followee: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

type sqliteQuerier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func querySQLiteFollowees(ctx context.Context, q sqliteQuerier, userID int64) ([]string, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT name FROM followees WHERE user_id = ? ORDER BY position",
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query followees: %w", err)
	}
	defer rows.Close()

	followees := []string{}

	for rows.Next() {
		var followee string
		if err := rows.Scan(&followee); err != nil {
			return nil, fmt.Errorf("scan followee: %w", err)
		}

		followees = append(followees, followee)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate followees: %w", err)
	}

	return followees, nil
}

// Close implements Repository.Close by closing the database connection.
func (r *SQLiteUserRepository) Close() error {
	if err := r.db.Close(); err != nil {
		return fmt.Errorf("close db: %w", err)
	}

	return nil
}
