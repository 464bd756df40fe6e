package store

import (
	"context"

	"github.com/uptrace/bun"
)

// CreateTables creates the two persisted tables when absent. Used at
// startup and by tests running against an in-memory database.
func CreateTables(ctx context.Context, db *bun.DB) error {
	models := []any{
		(*Account)(nil),
		(*ActivityRecord)(nil),
	}

	for _, model := range models {
		if _, err := db.NewCreateTable().
			Model(model).
			IfNotExists().
			Exec(ctx); err != nil {
			return err
		}
	}

	return nil
}
