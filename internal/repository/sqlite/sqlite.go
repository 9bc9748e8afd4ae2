// Package sqlite implements the repository interfaces using SQLite as the
// storage backend.
//
// Likers and reposters live in join tables (quote_likes, quote_reposts)
// keyed (quote_id, user_id); comments are a child table. Keeping each
// membership as a primary-key row is what makes the toggle operations
// safe under concurrent requests: "add user to set" is a single
// conditional INSERT, not a fetch-mutate-save round trip, and a duplicate
// can never exist.
//
// We use modernc.org/sqlite (pure Go, no CGo) registered as driver name
// "sqlite" via the blank import below.
package sqlite

import (
	"database/sql"
	"fmt"

	// Side-effect import: registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool and implements the repository
// interfaces (UserRepository, SessionRepository, QuoteRepository).
type DB struct {
	conn *sql.DB
}

// New opens (or creates) the SQLite database at dbPath and runs
// migrations. Use ":memory:" for tests.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// One connection only. SQLite serialises writers anyway, and a pool
	// of one sidesteps two problems at once: SQLITE_BUSY under write
	// contention, and ":memory:" databases — where every pool
	// connection would otherwise get its own private, empty database.
	conn.SetMaxOpenConns(1)

	// Force an immediate connection so a bad path surfaces here rather
	// than on the first query.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL allows concurrent reads while a write is in flight — relevant
	// here because every page load reads the feed while toggles write.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the schema. CREATE TABLE IF NOT EXISTS keeps it safe to
// run on every start.
func (db *DB) migrate() error {
	// github_id is 0 for local accounts; the partial unique index makes
	// real GitHub IDs unique without constraining the zero value.
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			username      TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL DEFAULT '',
			github_id     INTEGER NOT NULL DEFAULT 0,
			created_at    DATETIME NOT NULL
		);
		CREATE UNIQUE INDEX IF NOT EXISTS idx_users_github_id
			ON users(github_id) WHERE github_id <> 0;
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	// original_quote_id is '' for non-reposts. It deliberately carries no
	// foreign key: deleting an original quote leaves its repost-copies
	// (and their original_quote_id references) in place. See the README
	// on the delete/repost asymmetry.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS quotes (
			id                TEXT PRIMARY KEY,
			text              TEXT NOT NULL,
			author_name       TEXT NOT NULL DEFAULT '',
			posted_by         TEXT NOT NULL REFERENCES users(id),
			is_repost         INTEGER NOT NULL DEFAULT 0,
			original_quote_id TEXT NOT NULL DEFAULT '',
			created_at        DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_quotes_created_at ON quotes(created_at);
		CREATE INDEX IF NOT EXISTS idx_quotes_posted_by ON quotes(posted_by);
		CREATE INDEX IF NOT EXISTS idx_quotes_original ON quotes(original_quote_id);
	`)
	if err != nil {
		return fmt.Errorf("creating quotes table: %w", err)
	}

	// The composite primary keys are what make likers/reposters sets:
	// a user can appear at most once per quote, and a concurrent double
	// toggle can never insert twice.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS quote_likes (
			quote_id   TEXT NOT NULL REFERENCES quotes(id) ON DELETE CASCADE,
			user_id    TEXT NOT NULL REFERENCES users(id),
			created_at DATETIME NOT NULL,
			PRIMARY KEY (quote_id, user_id)
		);
		CREATE TABLE IF NOT EXISTS quote_reposts (
			quote_id   TEXT NOT NULL REFERENCES quotes(id) ON DELETE CASCADE,
			user_id    TEXT NOT NULL REFERENCES users(id),
			created_at DATETIME NOT NULL,
			PRIMARY KEY (quote_id, user_id)
		);
	`)
	if err != nil {
		return fmt.Errorf("creating like/repost tables: %w", err)
	}

	// Comments are owned by their quote — deleting the quote deletes them.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS comments (
			id         TEXT PRIMARY KEY,
			quote_id   TEXT NOT NULL REFERENCES quotes(id) ON DELETE CASCADE,
			user_id    TEXT NOT NULL REFERENCES users(id),
			text       TEXT NOT NULL,
			created_at DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_comments_quote_id ON comments(quote_id);
	`)
	if err != nil {
		return fmt.Errorf("creating comments table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS sessions (
			token      TEXT PRIMARY KEY,
			user_id    TEXT NOT NULL REFERENCES users(id),
			created_at DATETIME NOT NULL,
			expires_at DATETIME NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("creating sessions table: %w", err)
	}

	return nil
}
