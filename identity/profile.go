package identity

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/goliatone/go-errors"
	"github.com/nyaruka/phonenumbers"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-storefront/store"
)

// UpdateProfileInput is the payload for profile edits. Phone is
// optional; when present it must be a valid E.164 number and is stored
// normalized.
type UpdateProfileInput struct {
	Name  string `json:"name"`
	Phone string `json:"phone_number"`
}

func (in UpdateProfileInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Name, validation.Required),
		validation.Field(&in.Phone, validation.By(validPhone)),
	)
}

func validPhone(value any) error {
	raw, _ := value.(string)
	if raw == "" {
		return nil
	}

	num, err := phonenumbers.Parse(raw, "")
	if err != nil {
		return errors.New("must be an international phone number", errors.CategoryValidation)
	}

	if !phonenumbers.IsValidNumber(num) {
		return errors.New("must be a valid phone number", errors.CategoryValidation)
	}

	return nil
}

// UpdateProfile updates the account's display name and phone number.
func (s *Service) UpdateProfile(ctx context.Context, account *store.Account, in UpdateProfileInput) (*store.Account, error) {
	if err := in.Validate(); err != nil {
		return nil, validationError(err)
	}

	phone := in.Phone
	if phone != "" {
		num, err := phonenumbers.Parse(phone, "")
		if err == nil {
			phone = phonenumbers.Format(num, phonenumbers.E164)
		}
	}

	err := s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return s.repo.Accounts().SetProfileTx(ctx, tx, account.ID, in.Name, phone)
	})

	if err != nil {
		var richErr *errors.Error
		if errors.As(err, &richErr) {
			return nil, richErr
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "profile update transaction failed")
	}

	account.Name = in.Name
	account.Phone = phone
	return account, nil
}
