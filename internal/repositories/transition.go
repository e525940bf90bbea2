package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrStaleTransition means the row left the in-flight state before the token
// holder committed or rolled back.
var ErrStaleTransition = errors.New("transition token is stale")

// StateMismatchError is returned by Begin when the row is not in any of the
// expected states. Current lets callers tell "someone else is on it" apart
// from "this can never happen".
type StateMismatchError struct {
	Current  string
	Expected []string
}

func (e *StateMismatchError) Error() string {
	return fmt.Sprintf("state is %q, expected one of [%s]", e.Current, strings.Join(e.Expected, ", "))
}

// Transition is the token handed out by Begin. The row stays in To until the
// holder calls Commit or Rollback.
type Transition struct {
	ID   uint
	From string
	To   string
}

// TransitionGuard moves rows of one table through a status column with a
// short locked transaction per step, so a slow side effect can run between
// Begin and Commit without holding any lock. Any concurrent Begin that expects
// the pre-transition state sees To and fails fast.
type TransitionGuard struct {
	db       *gorm.DB
	newModel func() interface{}
	column   string
}

func NewTransitionGuard(db *gorm.DB, newModel func() interface{}, column string) *TransitionGuard {
	if column == "" {
		column = "status"
	}
	return &TransitionGuard{db: db, newModel: newModel, column: column}
}

// Begin locks the row, checks it is in one of expected and moves it to next.
func (g *TransitionGuard) Begin(ctx context.Context, id uint, expected []string, next string) (*Transition, error) {
	return g.Transit(ctx, id, expected, next, nil)
}

// Transit is Begin with extra column updates written in the same transaction.
func (g *TransitionGuard) Transit(ctx context.Context, id uint, expected []string, next string, fields map[string]interface{}) (*Transition, error) {
	var t *Transition
	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var states []string
		err := tx.Model(g.newModel()).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", id).
			Pluck(g.column, &states).Error
		if err != nil {
			return fmt.Errorf("failed to lock row: %w", err)
		}
		if len(states) == 0 {
			return gorm.ErrRecordNotFound
		}

		current := states[0]
		if !contains(expected, current) {
			return &StateMismatchError{Current: current, Expected: expected}
		}

		updates := map[string]interface{}{g.column: next}
		for k, v := range fields {
			updates[k] = v
		}
		if err := tx.Model(g.newModel()).Where("id = ?", id).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to apply transition: %w", err)
		}

		t = &Transition{ID: id, From: current, To: next}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// Commit moves the row from t.To to final and runs within in the same
// transaction, so a completion and its side records land together.
func (g *TransitionGuard) Commit(ctx context.Context, t *Transition, final string, fields map[string]interface{}, within func(tx *gorm.DB) error) error {
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := g.finish(tx, t, final, fields); err != nil {
			return err
		}
		if within != nil {
			return within(tx)
		}
		return nil
	})
}

// Rollback returns the row from t.To to revert.
func (g *TransitionGuard) Rollback(ctx context.Context, t *Transition, revert string) error {
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return g.finish(tx, t, revert, nil)
	})
}

func (g *TransitionGuard) finish(tx *gorm.DB, t *Transition, state string, fields map[string]interface{}) error {
	updates := map[string]interface{}{g.column: state}
	for k, v := range fields {
		updates[k] = v
	}
	res := tx.Model(g.newModel()).
		Where(map[string]interface{}{"id": t.ID, g.column: t.To}).
		Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("failed to finish transition: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrStaleTransition
	}
	return nil
}

func contains(states []string, s string) bool {
	for _, candidate := range states {
		if candidate == s {
			return true
		}
	}
	return false
}
