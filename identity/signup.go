package identity

import (
	"context"
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-storefront/mailer"
	"github.com/goliatone/go-storefront/store"
)

// SignupInput is the payload for password-channel registration.
type SignupInput struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

func (in SignupInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Email, validation.Required, is.Email),
		validation.Field(&in.Name, validation.Required),
		validation.Field(&in.Password, passwordRules()...),
	)
}

// Signup registers an unverified password-channel account and emails a
// single-use verification link. A duplicate email surfaces as a
// validation error on the email field, not a conflict.
func (s *Service) Signup(ctx context.Context, in SignupInput) (*store.Account, error) {
	if err := in.Validate(); err != nil {
		return nil, validationError(err)
	}

	salt, err := s.creds.NewSalt()
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to generate salt")
	}

	hash, err := s.creds.Hash(in.Password, salt)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to hash password")
	}

	token := uuid.NewString()
	account := &store.Account{
		Email:             in.Email,
		Name:              in.Name,
		Channel:           store.ChannelPassword,
		PasswordHash:      hash,
		PasswordSalt:      salt,
		VerificationToken: &token,
	}

	err = s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := s.repo.Accounts().GetByEmailTx(ctx, tx, in.Email); err == nil {
			return fieldError("email", "email is already registered")
		} else if !repository.IsRecordNotFound(err) {
			return err
		}

		account, err = s.repo.Accounts().CreateTx(ctx, tx, account)
		return err
	})

	if err != nil {
		var richErr *errors.Error
		if errors.As(err, &richErr) {
			return nil, richErr
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "signup transaction failed")
	}

	if err := s.sendVerificationMail(ctx, account, token); err != nil {
		s.logger.Error("verification mail dispatch failed",
			"email", account.Email,
			"error", err,
		)
		return nil, err
	}

	return account, nil
}

func (s *Service) sendVerificationMail(ctx context.Context, account *store.Account, token string) error {
	link := fmt.Sprintf("%s/user/verify/%s", s.cfg.BackendURL, token)

	return s.mail.Send(ctx, mailer.Message{
		To:      account.Email,
		ToName:  account.Name,
		Subject: "Verify your account",
		Body:    fmt.Sprintf("Hi %s,\n\nPlease verify your account by visiting:\n%s\n", account.Name, link),
	})
}

// VerifyToken redeems a verification token: the account becomes
// verified, the token is cleared, and the login is recorded. A token
// that was never issued, or was already redeemed, reports not found.
func (s *Service) VerifyToken(ctx context.Context, token string) (*store.Account, error) {
	var account *store.Account

	err := s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		record, err := s.repo.Accounts().MarkVerifiedTx(ctx, tx, token)
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
		var richErr *errors.Error
		if errors.As(err, &richErr) {
			return nil, richErr
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "verification transaction failed")
	}

	return account, nil
}
