package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Activity is the append-only activity log. Records are inserted and
// counted, never updated or removed.
type Activity interface {
	Add(ctx context.Context, accountID uuid.UUID, at time.Time) error
	AddTx(ctx context.Context, tx bun.IDB, accountID uuid.UUID, at time.Time) error
	CountBetween(ctx context.Context, from, until time.Time) (int, error)
}

type activity struct {
	db *bun.DB
}

var _ Activity = (*activity)(nil)

// NewActivityRepository builds the Activity repository.
func NewActivityRepository(db *bun.DB) Activity {
	return &activity{db: db}
}

func (a *activity) Add(ctx context.Context, accountID uuid.UUID, at time.Time) error {
	return a.AddTx(ctx, a.db, accountID, at)
}

func (a *activity) AddTx(ctx context.Context, tx bun.IDB, accountID uuid.UUID, at time.Time) error {
	record := &ActivityRecord{
		ID:        uuid.New(),
		AccountID: accountID,
		CreatedAt: &at,
	}

	_, err := tx.NewInsert().Model(record).Exec(ctx)
	return err
}

// CountBetween counts records created in [from, until).
func (a *activity) CountBetween(ctx context.Context, from, until time.Time) (int, error) {
	return a.db.NewSelect().
		Model((*ActivityRecord)(nil)).
		Where("?TableAlias.created_at >= ? AND ?TableAlias.created_at < ?", from, until).
		Count(ctx)
}
