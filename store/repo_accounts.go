package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Accounts is the account repository. Soft-deleted accounts are
// excluded from every lookup; bun applies the deleted_at guard on
// model selects and the raw updates repeat it explicitly.
type Accounts interface {
	repository.Repository[*Account]

	GetByEmail(ctx context.Context, email string) (*Account, error)
	GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*Account, error)

	GetByVerificationToken(ctx context.Context, token string) (*Account, error)
	GetByVerificationTokenTx(ctx context.Context, tx bun.IDB, token string) (*Account, error)

	// MarkVerifiedTx flips the verified flag and clears the
	// verification token. The token is part of the match condition, so
	// it can only ever be cleared once; a second call reports not found.
	MarkVerifiedTx(ctx context.Context, tx bun.IDB, token string) (*Account, error)

	// TouchActivityTx bumps the login counter and last-active
	// timestamp for a live account.
	TouchActivityTx(ctx context.Context, tx bun.IDB, id uuid.UUID, at time.Time) error

	SetPasswordTx(ctx context.Context, tx bun.IDB, id uuid.UUID, hash, salt string) error

	SetProfileTx(ctx context.Context, tx bun.IDB, id uuid.UUID, name, phone string) error

	// ListPage returns one page of non-deleted accounts ordered by
	// creation time, plus the total count before slicing.
	ListPage(ctx context.Context, offset, limit int) ([]*Account, int, error)
}

type accounts struct {
	repository.Repository[*Account]
	db *bun.DB
}

var _ Accounts = (*accounts)(nil)

// NewAccountsRepository builds the Accounts repository.
func NewAccountsRepository(db *bun.DB) Accounts {
	repo := repository.NewRepository[*Account](db, repository.ModelHandlers[*Account]{
		NewRecord: func() *Account { return &Account{} },
		GetID: func(a *Account) uuid.UUID {
			if a == nil {
				return uuid.Nil
			}
			return a.ID
		},
		SetID: func(a *Account, id uuid.UUID) {
			if a != nil {
				a.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	return &accounts{
		Repository: repo,
		db:         db,
	}
}

func (a *accounts) Create(ctx context.Context, record *Account, criteria ...repository.InsertCriteria) (*Account, error) {
	return a.CreateTx(ctx, a.db, record, criteria...)
}

func (a *accounts) CreateTx(ctx context.Context, tx bun.IDB, record *Account, criteria ...repository.InsertCriteria) (*Account, error) {
	prepareAccountDefaults(record)
	return a.Repository.CreateTx(ctx, tx, record, criteria...)
}

func (a *accounts) GetByEmail(ctx context.Context, email string) (*Account, error) {
	return a.GetByEmailTx(ctx, a.db, email)
}

func (a *accounts) GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*Account, error) {
	record := &Account{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.email = ?", email).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if isEmptyResult(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{"email": email})
		}
		return nil, err
	}

	return record, nil
}

func (a *accounts) GetByVerificationToken(ctx context.Context, token string) (*Account, error) {
	return a.GetByVerificationTokenTx(ctx, a.db, token)
}

func (a *accounts) GetByVerificationTokenTx(ctx context.Context, tx bun.IDB, token string) (*Account, error) {
	record := &Account{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.verification_token = ?", token).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if isEmptyResult(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{"verification_token": token})
		}
		return nil, err
	}

	return record, nil
}

func (a *accounts) MarkVerifiedTx(ctx context.Context, tx bun.IDB, token string) (*Account, error) {
	record, err := a.GetByVerificationTokenTx(ctx, tx, token)
	if err != nil {
		return nil, err
	}

	res, err := tx.NewUpdate().
		Model((*Account)(nil)).
		Set("is_verified = ?", true).
		Set("verification_token = NULL").
		Set("updated_at = ?", time.Now()).
		Where("id = ?", record.ID).
		Where("verification_token = ?", token).
		Where("deleted_at IS NULL").
		Exec(ctx)

	if err != nil {
		return nil, err
	}

	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return nil, repository.NewRecordNotFound().
			WithMetadata(map[string]any{"verification_token": token})
	}

	record.Verified = true
	record.VerificationToken = nil
	return record, nil
}

func (a *accounts) TouchActivityTx(ctx context.Context, tx bun.IDB, id uuid.UUID, at time.Time) error {
	_, err := tx.NewUpdate().
		Model((*Account)(nil)).
		Set("login_count = login_count + 1").
		Set("last_active_at = ?", at).
		Set("updated_at = ?", at).
		Where("id = ?", id).
		Where("deleted_at IS NULL").
		Exec(ctx)

	return err
}

func (a *accounts) SetPasswordTx(ctx context.Context, tx bun.IDB, id uuid.UUID, hash, salt string) error {
	res, err := tx.NewUpdate().
		Model((*Account)(nil)).
		Set("password_hash = ?", hash).
		Set("password_salt = ?", salt).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", id).
		Where("deleted_at IS NULL").
		Exec(ctx)

	if err != nil {
		return err
	}

	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return repository.NewRecordNotFound().
			WithMetadata(map[string]any{"id": id.String()})
	}

	return nil
}

func (a *accounts) SetProfileTx(ctx context.Context, tx bun.IDB, id uuid.UUID, name, phone string) error {
	res, err := tx.NewUpdate().
		Model((*Account)(nil)).
		Set("name = ?", name).
		Set("phone_number = ?", phone).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", id).
		Where("deleted_at IS NULL").
		Exec(ctx)

	if err != nil {
		return err
	}

	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return repository.NewRecordNotFound().
			WithMetadata(map[string]any{"id": id.String()})
	}

	return nil
}

func (a *accounts) ListPage(ctx context.Context, offset, limit int) ([]*Account, int, error) {
	var records []*Account

	count, err := a.db.NewSelect().
		Model(&records).
		Order("created_at ASC").
		Offset(offset).
		Limit(limit).
		ScanAndCount(ctx)

	if err != nil {
		return nil, 0, err
	}

	return records, count, nil
}

func prepareAccountDefaults(record *Account) {
	if record == nil {
		return
	}

	if record.Channel == "" {
		record.Channel = ChannelPassword
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
}

func isEmptyResult(err error) bool {
	return err == sql.ErrNoRows || repository.IsRecordNotFound(err)
}
