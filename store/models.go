package store

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Channel is the registration method for an account.
type Channel = string

const (
	// ChannelPassword marks accounts created through email signup.
	ChannelPassword Channel = "password"
	// ChannelGoogle marks accounts created through Google OAuth.
	ChannelGoogle Channel = "google"
	// ChannelFacebook marks accounts created through Facebook OAuth.
	ChannelFacebook Channel = "facebook"
)

// Account is the user model. Password hash and salt are present only
// for password-channel accounts; OAuth accounts carry neither.
type Account struct {
	bun.BaseModel     `bun:"table:accounts,alias:acc"`
	ID                uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Email             string     `bun:"email,notnull,unique" json:"email,omitempty"`
	Name              string     `bun:"name,notnull" json:"name,omitempty"`
	Channel           Channel    `bun:"channel,notnull" json:"channel,omitempty"`
	Phone             string     `bun:"phone_number" json:"phone_number,omitempty"`
	PasswordHash      string     `bun:"password_hash" json:"-"`
	PasswordSalt      string     `bun:"password_salt" json:"-"`
	Verified          bool       `bun:"is_verified" json:"is_verified"`
	VerificationToken *string    `bun:"verification_token,nullzero" json:"-"`
	LoginCount        int        `bun:"login_count" json:"login_count,omitempty"`
	LastActiveAt      *time.Time `bun:"last_active_at,nullzero" json:"last_active_at,omitempty"`
	CreatedAt         *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt         *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt         *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// HasPassword reports whether the account completed a password signup.
func (a *Account) HasPassword() bool {
	return a.PasswordHash != "" && a.PasswordSalt != ""
}

// ActivityRecord is one append-only marker of authenticated activity.
// Records are never updated or deleted; they feed aggregate counts only.
type ActivityRecord struct {
	bun.BaseModel `bun:"table:activity_records,alias:act"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	AccountID     uuid.UUID  `bun:"account_id,notnull,type:uuid" json:"account_id,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}
