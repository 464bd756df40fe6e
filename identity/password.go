package identity

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/goliatone/go-errors"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-storefront/store"
)

// ResetPasswordInput carries the current and replacement passwords.
// Both must satisfy the strength rules.
type ResetPasswordInput struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

func (in ResetPasswordInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.OldPassword, passwordRules()...),
		validation.Field(&in.NewPassword, passwordRules()...),
	)
}

// ResetPassword replaces the account's password after verifying the
// current one. OAuth-only accounts have no password to reset.
func (s *Service) ResetPassword(ctx context.Context, account *store.Account, in ResetPasswordInput) error {
	if err := in.Validate(); err != nil {
		return validationError(err)
	}

	if !account.HasPassword() {
		return ErrInvalidCredentials
	}

	if !s.creds.Verify(account.PasswordHash, account.PasswordSalt, in.OldPassword) {
		return ErrInvalidCredentials
	}

	salt, err := s.creds.NewSalt()
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to generate salt")
	}

	hash, err := s.creds.Hash(in.NewPassword, salt)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to hash password")
	}

	err = s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return s.repo.Accounts().SetPasswordTx(ctx, tx, account.ID, hash, salt)
	})

	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "password reset transaction failed")
	}

	return nil
}
