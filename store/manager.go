package store

import (
	"context"
	"database/sql"
	"errors"
	"log"

	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

// Manager exposes all repositories plus the per-request transactional
// unit of work. Handlers never hold a module-level DB singleton; they
// receive a Manager and run mutations through RunInTx.
type Manager interface {
	repository.Validator
	repository.TransactionManager
	Accounts() Accounts
	Activity() Activity
	Stats() Stats
}

type mngr struct {
	db       *bun.DB
	accounts Accounts
	activity Activity
	stats    Stats
}

// NewManager builds a Manager over a bun DB handle.
func NewManager(db *bun.DB) Manager {
	return &mngr{
		db:       db,
		accounts: NewAccountsRepository(db),
		activity: NewActivityRepository(db),
		stats:    NewStatsRepository(db),
	}
}

func (m mngr) Validate() error {
	if m.accounts == nil {
		return errors.New("repository accounts should be initialized")
	}

	if m.activity == nil {
		return errors.New("repository activity should be initialized")
	}

	if m.stats == nil {
		return errors.New("repository stats should be initialized")
	}

	return nil
}

func (m mngr) MustValidate() {
	if err := m.Validate(); err != nil {
		log.Panic(err)
	}
}

func (m mngr) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return m.db.RunInTx(ctx, opts, f)
	}
}

func (m mngr) Accounts() Accounts { return m.accounts }
func (m mngr) Activity() Activity { return m.activity }
func (m mngr) Stats() Stats       { return m.stats }
