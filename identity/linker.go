package identity

import (
	"context"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-storefront/store"
)

// ErrChannelMismatch is returned when cross-channel adoption is
// disabled and an OAuth login hits an account registered through a
// different channel.
var ErrChannelMismatch = errors.New(
	"account is registered through a different channel",
	errors.CategoryAuth,
).WithTextCode("CHANNEL_MISMATCH").WithCode(errors.CodeUnauthorized)

// FindOrCreate resolves an OAuth callback to an account. A new email
// creates a verified, passwordless account on the provider's channel.
// An existing email is treated as a returning login; when adoption is
// enabled that holds even if the account was registered through
// another channel, which lets whoever controls the mailbox take over a
// password account via OAuth.
func (s *Service) FindOrCreate(ctx context.Context, email, name string, channel store.Channel) (*store.Account, error) {
	account, err := s.repo.Accounts().GetByEmail(ctx, email)

	switch {
	case err == nil:
		if account.Channel != channel && !s.cfg.AllowCrossChannelAdoption {
			s.logger.Warn("rejected cross-channel login",
				"email", email,
				"account_channel", account.Channel,
				"login_channel", channel,
			)
			return nil, ErrChannelMismatch
		}

		if account.Channel != channel {
			s.logger.Info("cross-channel adoption",
				"email", email,
				"account_channel", account.Channel,
				"login_channel", channel,
			)
		}

	case repository.IsRecordNotFound(err):
		account = &store.Account{
			Email:    email,
			Name:     name,
			Channel:  channel,
			Verified: true,
		}

		txErr := s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			account, err = s.repo.Accounts().CreateTx(ctx, tx, account)
			return err
		})
		if txErr != nil {
			return nil, errors.Wrap(txErr, errors.CategoryInternal, "failed to create linked account")
		}

	default:
		return nil, errors.Wrap(err, errors.CategoryInternal, "account lookup failed")
	}

	if err := s.Touch(ctx, account.ID); err != nil {
		return nil, err
	}

	return account, nil
}
