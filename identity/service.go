package identity

import (
	"context"
	"log/slog"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-storefront/credentials"
	"github.com/goliatone/go-storefront/mailer"
	"github.com/goliatone/go-storefront/store"
)

// ErrInvalidCredentials covers every failed password login: unknown
// email, wrong password, or an account with no password at all. One
// error for all three keeps account enumeration off the table.
var ErrInvalidCredentials = errors.New("invalid credentials", errors.CategoryAuth).
	WithTextCode("INVALID_CREDENTIALS").
	WithCode(errors.CodeUnauthorized)

// ErrAccountNotFound reports a subject or token that maps to no live
// account. Repository lookups carry their own database-flavored
// category, so they are translated here before they reach the HTTP
// error handler.
var ErrAccountNotFound = errors.New("account not found", errors.CategoryNotFound).
	WithTextCode("ACCOUNT_NOT_FOUND")

// Config carries the identity-service knobs that come from the
// environment.
type Config struct {
	// BackendURL is the base for verification links sent by email.
	BackendURL string
	// AllowCrossChannelAdoption lets an OAuth callback log into a
	// pre-existing password account with the same email. On by
	// default; switching it off rejects the mismatched login instead.
	AllowCrossChannelAdoption bool
}

// Service implements account lifecycle: signup, email verification,
// password login, OAuth find-or-create, password reset, and profile
// updates. All mutations for one call run in a single transaction.
type Service struct {
	repo   store.Manager
	creds  *credentials.Store
	mail   mailer.Sender
	logger *slog.Logger
	cfg    Config
}

// NewService builds the identity service.
func NewService(repo store.Manager, creds *credentials.Store, mail mailer.Sender, cfg Config) *Service {
	return &Service{
		repo:   repo,
		creds:  creds,
		mail:   mail,
		logger: slog.Default(),
		cfg:    cfg,
	}
}

func (s *Service) WithLogger(logger *slog.Logger) *Service {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// Resolve maps a token subject to its live account and records the
// activity. Lookup and bookkeeping share one transaction, so a request
// racing a delete either sees the account and touches it, or neither.
func (s *Service) Resolve(ctx context.Context, email string) (*store.Account, error) {
	var account *store.Account

	err := s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		record, err := s.repo.Accounts().GetByEmailTx(ctx, tx, email)
		if err != nil {
			return err
		}

		now := time.Now()
		if err := s.repo.Accounts().TouchActivityTx(ctx, tx, record.ID, now); err != nil {
			return err
		}
		if err := s.repo.Activity().AddTx(ctx, tx, record.ID, now); err != nil {
			return err
		}

		account = record
		return nil
	})

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrAccountNotFound
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to resolve account")
	}

	return account, nil
}

// Login verifies a password credential and records the login. The
// returned account reflects the state before the activity bump.
func (s *Service) Login(ctx context.Context, email, password string) (*store.Account, error) {
	account, err := s.repo.Accounts().GetByEmail(ctx, email)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "login lookup failed")
	}

	if !account.HasPassword() {
		return nil, ErrInvalidCredentials
	}

	if !s.creds.Verify(account.PasswordHash, account.PasswordSalt, password) {
		return nil, ErrInvalidCredentials
	}

	if err := s.Touch(ctx, account.ID); err != nil {
		return nil, err
	}

	return account, nil
}

// Touch bumps the login counter and last-active timestamp and appends
// one activity record, all in one transaction. Callers are responsible
// for invoking it at most once per inbound request.
func (s *Service) Touch(ctx context.Context, id uuid.UUID) error {
	now := time.Now()

	err := s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := s.repo.Accounts().TouchActivityTx(ctx, tx, id, now); err != nil {
			return err
		}
		return s.repo.Activity().AddTx(ctx, tx, id, now)
	})

	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to record account activity")
	}

	return nil
}
