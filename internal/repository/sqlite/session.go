package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"repoexplorer/internal/repository"
)

// session is one lazily-begun transaction. Staged changes are visible only
// through this session until Save commits them.
type session struct {
	repo     *Repository
	openedAt time.Time

	mu     sync.Mutex
	tx     *sql.Tx
	closed bool
	spSeq  int
}

var errSessionClosed = errors.New("session is closed")

func newID() string {
	return uuid.NewString()
}

// conn returns the session transaction, beginning one if needed.
// The transaction is not bound to ctx so a finished request context
// cannot roll back work staged by an earlier call.
func (s *session) conn() (*sql.Tx, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, errSessionClosed
	}
	if s.tx == nil {
		tx, err := s.repo.db.BeginTx(context.Background(), nil)
		if err != nil {
			return nil, fmt.Errorf("failed to begin transaction: %w", err)
		}
		s.tx = tx
	}
	return s.tx, nil
}

// atomic runs fn inside a savepoint so a failing primitive leaves nothing behind
func (s *session) atomic(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.conn()
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.spSeq++
	sp := fmt.Sprintf("sp_%d", s.spSeq)
	s.mu.Unlock()

	if _, err := tx.ExecContext(ctx, "SAVEPOINT "+sp); err != nil {
		return fmt.Errorf("failed to open savepoint: %w", err)
	}
	if err := fn(tx); err != nil {
		if _, rbErr := tx.ExecContext(context.Background(), "ROLLBACK TO "+sp); rbErr != nil {
			return errors.Join(err, fmt.Errorf("failed to roll back savepoint: %w", rbErr))
		}
		tx.ExecContext(context.Background(), "RELEASE "+sp)
		return err
	}
	if _, err := tx.ExecContext(ctx, "RELEASE "+sp); err != nil {
		return fmt.Errorf("failed to release savepoint: %w", err)
	}
	return nil
}

// end finishes the current transaction with commit or rollback
func (s *session) end(commit bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errSessionClosed
	}
	if s.tx == nil {
		return nil
	}
	tx := s.tx
	s.tx = nil
	if commit {
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit: %w", err)
		}
		return nil
	}
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("failed to roll back: %w", err)
	}
	return nil
}

// ============================================================================
// Read Operations
// ============================================================================

func (s *session) RootNode(ctx context.Context) (repository.Node, error) {
	return s.nodeAt(ctx, "/")
}

func (s *session) Node(ctx context.Context, p string) (repository.Node, error) {
	return s.nodeAt(ctx, p)
}

func (s *session) nodeAt(ctx context.Context, p string) (*node, error) {
	np, err := normalizePath(p)
	if err != nil {
		return nil, err
	}
	return s.queryNode(ctx, "path = ?", np, "node "+np)
}

func (s *session) NodeByIdentifier(ctx context.Context, id string) (repository.Node, error) {
	return s.nodeByID(ctx, strings.TrimSpace(id))
}

func (s *session) nodeByID(ctx context.Context, id string) (*node, error) {
	return s.queryNode(ctx, "id = ?", id, "node with id "+id)
}

func (s *session) queryNode(ctx context.Context, where string, arg any, what string) (*node, error) {
	tx, err := s.conn()
	if err != nil {
		return nil, err
	}

	var row nodeRow
	err = tx.QueryRowContext(ctx, "SELECT "+nodeColumns+" FROM nodes WHERE "+where, arg).Scan(row.scanArgs()...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", repository.ErrItemNotFound, what)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", what, err)
	}
	return row.toNode(s)
}

// Item resolves a node path first, then a property path
func (s *session) Item(ctx context.Context, p string) (repository.Item, error) {
	n, err := s.nodeAt(ctx, p)
	if err == nil {
		return n, nil
	}
	if !errors.Is(err, repository.ErrItemNotFound) {
		return nil, err
	}

	np, nerr := normalizePath(p)
	if nerr != nil || np == "/" {
		return nil, err
	}
	owner, perr := s.nodeAt(ctx, parentPath(np))
	if perr != nil {
		return nil, err
	}
	prop, perr := owner.property(ctx, np[strings.LastIndex(np, "/")+1:])
	if perr != nil {
		return nil, perr
	}
	return prop, nil
}

func (s *session) NodeExists(ctx context.Context, p string) (bool, error) {
	_, err := s.nodeAt(ctx, p)
	if errors.Is(err, repository.ErrItemNotFound) {
		return false, nil
	}
	return err == nil, err
}

// ============================================================================
// Workspace Operations
// ============================================================================

// Move relocates the subtree at srcPath so that its root ends up at destPath
func (s *session) Move(ctx context.Context, srcPath, destPath string) error {
	src, dest, err := s.checkTransfer(ctx, srcPath, destPath)
	if err != nil {
		return err
	}
	return s.atomic(ctx, func(tx *sql.Tx) error {
		return moveSubtree(ctx, tx, src, dest)
	})
}

// Copy duplicates the subtree at srcPath to destPath with fresh identifiers
func (s *session) Copy(ctx context.Context, srcPath, destPath string) error {
	src, dest, err := s.checkTransfer(ctx, srcPath, destPath)
	if err != nil {
		return err
	}
	return s.atomic(ctx, func(tx *sql.Tx) error {
		return copySubtree(ctx, tx, src, dest)
	})
}

type transferTarget struct {
	parentID string
	path     string
	name     string
}

func (s *session) checkTransfer(ctx context.Context, srcPath, destPath string) (*node, transferTarget, error) {
	src, err := s.nodeAt(ctx, srcPath)
	if err != nil {
		return nil, transferTarget{}, err
	}
	if src.path == "/" {
		return nil, transferTarget{}, fmt.Errorf("%w: the root node cannot be moved or copied", repository.ErrConstraintViolation)
	}

	dest, err := normalizePath(destPath)
	if err != nil {
		return nil, transferTarget{}, err
	}
	if dest == "/" {
		return nil, transferTarget{}, fmt.Errorf("%w: %s already exists", repository.ErrItemExists, dest)
	}
	if dest == src.path || strings.HasPrefix(dest, src.path+"/") {
		return nil, transferTarget{}, fmt.Errorf("%w: %s is inside %s", repository.ErrConstraintViolation, dest, src.path)
	}

	name := dest[strings.LastIndex(dest, "/")+1:]
	if !validName(name) {
		return nil, transferTarget{}, fmt.Errorf("%w: invalid node name %q", repository.ErrConstraintViolation, name)
	}

	parent, err := s.nodeAt(ctx, parentPath(dest))
	if err != nil {
		return nil, transferTarget{}, err
	}
	exists, err := s.NodeExists(ctx, dest)
	if err != nil {
		return nil, transferTarget{}, err
	}
	if exists {
		return nil, transferTarget{}, fmt.Errorf("%w: %s", repository.ErrItemExists, dest)
	}

	return src, transferTarget{parentID: parent.id, path: dest, name: name}, nil
}

func moveSubtree(ctx context.Context, tx *sql.Tx, src *node, dest transferTarget) error {
	order, err := nextSortOrder(ctx, tx, dest.parentID)
	if err != nil {
		return err
	}

	// descendants first; the prefix comparison must see the old paths
	prefix := src.path + "/"
	if _, err := tx.ExecContext(ctx, `
		UPDATE nodes SET path = ? || substr(path, ?)
		WHERE substr(path, 1, ?) = ?
	`, dest.path, sqlLen(src.path)+1, sqlLen(prefix), prefix); err != nil {
		return fmt.Errorf("failed to move descendants of %s: %w", src.path, err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE nodes SET path = ?, name = ?, parent_id = ?, sort_order = ? WHERE id = ?
	`, dest.path, dest.name, dest.parentID, order, src.id); err != nil {
		return fmt.Errorf("failed to move %s: %w", src.path, err)
	}
	return nil
}

func copySubtree(ctx context.Context, tx *sql.Tx, src *node, dest transferTarget) error {
	prefix := src.path + "/"
	rows, err := tx.QueryContext(ctx, `
		SELECT `+nodeColumns+` FROM nodes
		WHERE path = ? OR substr(path, 1, ?) = ?
		ORDER BY length(path), sort_order
	`, src.path, sqlLen(prefix), prefix)
	if err != nil {
		return fmt.Errorf("failed to query subtree of %s: %w", src.path, err)
	}

	var subtree []nodeRow
	for rows.Next() {
		var row nodeRow
		if err := rows.Scan(row.scanArgs()...); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan node: %w", err)
		}
		subtree = append(subtree, row)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating subtree: %w", err)
	}

	order, err := nextSortOrder(ctx, tx, dest.parentID)
	if err != nil {
		return err
	}

	ids := make(map[string]string, len(subtree))
	for _, row := range subtree {
		newID := newID()
		ids[row.ID] = newID

		newPath, parentID, name, sortOrder := dest.path, dest.parentID, dest.name, order
		if row.ID != src.id {
			newPath = dest.path + row.Path[len(src.path):]
			parentID = ids[row.ParentID.String]
			name = row.Name
			sortOrder = row.SortOrder
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO nodes (id, path, parent_id, name, primary_type, mixin_types, sort_order)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, newID, newPath, parentID, name, row.PrimaryType, row.MixinJSON, sortOrder); err != nil {
			return fmt.Errorf("failed to copy node %s: %w", row.Path, err)
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO properties (node_id, name, type, multiple, vals, search_text)
			SELECT ?, name, type, multiple, vals, search_text FROM properties WHERE node_id = ?
		`, newID, row.ID); err != nil {
			return fmt.Errorf("failed to copy properties of %s: %w", row.Path, err)
		}
	}
	return nil
}

func nextSortOrder(ctx context.Context, tx *sql.Tx, parentID string) (int64, error) {
	var max sql.NullInt64
	if err := tx.QueryRowContext(ctx, `SELECT MAX(sort_order) FROM nodes WHERE parent_id = ?`, parentID).Scan(&max); err != nil {
		return 0, fmt.Errorf("failed to compute sort order: %w", err)
	}
	if !max.Valid {
		return 0, nil
	}
	return max.Int64 + 1, nil
}

// ============================================================================
// Lifecycle
// ============================================================================

func (s *session) Save(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.end(true)
}

func (s *session) Discard(ctx context.Context) error {
	return s.end(false)
}

func (s *session) QueryManager() repository.QueryManager {
	return &queryManager{sess: s}
}

func (s *session) NodeTypeManager() repository.NodeTypeManager {
	return &nodeTypeManager{sess: s}
}

func (s *session) Logout() {
	s.end(false)
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}
