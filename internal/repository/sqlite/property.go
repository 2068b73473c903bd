package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"repoexplorer/internal/repository"
)

// property implements repository.Property
type property struct {
	owner     *node
	name      string
	typ       repository.PropertyType
	multiple  bool
	protected bool
	values    []repository.Value
}

func (p *property) Path() string                  { return childPath(p.owner.path, p.name) }
func (p *property) Name() string                  { return p.name }
func (p *property) IsNode() bool                  { return false }
func (p *property) Type() repository.PropertyType { return p.typ }
func (p *property) IsMultiple() bool              { return p.multiple }
func (p *property) IsProtected() bool             { return p.protected }

func (p *property) Value() (repository.Value, error) {
	if p.multiple {
		return repository.Value{}, fmt.Errorf("%w: %s is multi-valued", repository.ErrValueFormat, p.name)
	}
	if len(p.values) == 0 {
		return repository.Value{}, fmt.Errorf("%w: %s has no value", repository.ErrValueFormat, p.name)
	}
	return p.values[0], nil
}

func (p *property) Values() []repository.Value {
	return append([]repository.Value(nil), p.values...)
}

func (p *property) Remove(ctx context.Context) error {
	if p.protected || isSynthetic(p.name) {
		return fmt.Errorf("%w: property %s is protected", repository.ErrConstraintViolation, p.name)
	}
	return p.owner.sess.atomic(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM properties WHERE node_id = ? AND name = ?`, p.owner.id, p.name)
		if err != nil {
			return fmt.Errorf("failed to remove property %s: %w", p.name, err)
		}
		if affected, _ := res.RowsAffected(); affected == 0 {
			return fmt.Errorf("%w: property %s at %s", repository.ErrItemNotFound, p.name, p.owner.path)
		}
		return nil
	})
}
