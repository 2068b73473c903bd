package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"repoexplorer/internal/repository"

	_ "modernc.org/sqlite"
)

// RootType is the primary type of the root node
const RootType = "rep:root"

// Repository implements repository.Repository using SQLite
type Repository struct {
	db *sql.DB
}

// New opens (and migrates) the SQLite content store at dbPath
func New(dbPath string) (*Repository, error) {
	dsn := dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	repo := &Repository{db: db}
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	if err := repo.seed(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to seed database: %w", err)
	}

	return repo, nil
}

func (r *Repository) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS nodes (
		id TEXT PRIMARY KEY,
		path TEXT NOT NULL UNIQUE,
		parent_id TEXT,
		name TEXT NOT NULL,
		primary_type TEXT NOT NULL,
		mixin_types JSON NOT NULL DEFAULT '[]',
		sort_order INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (parent_id) REFERENCES nodes(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS properties (
		node_id TEXT NOT NULL,
		name TEXT NOT NULL,
		type INTEGER NOT NULL,
		multiple INTEGER NOT NULL DEFAULT 0,
		vals JSON NOT NULL DEFAULT '[]',
		search_text TEXT NOT NULL DEFAULT '',
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (node_id, name),
		FOREIGN KEY (node_id) REFERENCES nodes(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS binaries (
		digest TEXT PRIMARY KEY,
		size INTEGER NOT NULL,
		data BLOB NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS node_types (
		name TEXT PRIMARY KEY,
		is_mixin INTEGER NOT NULL DEFAULT 0,
		definition JSON NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_nodes_parent ON nodes(parent_id, sort_order);
	CREATE INDEX IF NOT EXISTS idx_nodes_type ON nodes(primary_type);
	CREATE INDEX IF NOT EXISTS idx_properties_name ON properties(name);
	`

	_, err := r.db.Exec(schema)
	return err
}

// seed installs the built-in node types and the root node
func (r *Repository) seed(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, def := range builtinNodeTypes() {
		data, err := json.Marshal(def)
		if err != nil {
			return fmt.Errorf("marshal node type %s: %w", def.Name, err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO node_types (name, is_mixin, definition) VALUES (?, ?, ?)
		`, def.Name, boolToInt(def.Mixin), string(data)); err != nil {
			return fmt.Errorf("failed to insert node type %s: %w", def.Name, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT OR IGNORE INTO nodes (id, path, parent_id, name, primary_type, mixin_types, sort_order)
		VALUES (?, '/', NULL, '', ?, '[]', 0)
	`, newID(), RootType); err != nil {
		return fmt.Errorf("failed to insert root node: %w", err)
	}

	return tx.Commit()
}

// Login opens a new session. The underlying transaction starts on first use.
func (r *Repository) Login(ctx context.Context) (repository.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &session{repo: r, openedAt: time.Now()}, nil
}

// Close closes the database connection
func (r *Repository) Close() error {
	return r.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
