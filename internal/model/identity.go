package model

import "time"

// Identity is the persisted record binding a login email to an IMAP
// username and display preferences. One identity exists per email; it
// is created on first successful login and reused afterwards.
type Identity struct {
	// ID is the internal unique identifier for this identity.
	ID int64 `json:"id" db:"id"`

	// Email is the login address. Unique across all identities.
	Email string `json:"email" db:"email"`

	// IMAPUsername is the username presented to the IMAP server.
	// Defaults to Email when not set explicitly.
	IMAPUsername string `json:"imap_username" db:"imap_username"`

	// Name is the display name shown on outgoing mail.
	Name string `json:"name" db:"name"`

	// ReplyTo is an optional Reply-To override address.
	ReplyTo string `json:"reply_to" db:"reply_to"`

	// Signature is the free-form signature text.
	Signature string `json:"signature" db:"signature"`

	// IsDefault marks the identity preselected for this user.
	IsDefault bool `json:"is_default" db:"is_default"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// IdentityProfile carries the mutable profile fields of an identity.
// The email and IMAP username bindings are not part of it.
type IdentityProfile struct {
	Name      string `json:"name"`
	ReplyTo   string `json:"reply_to"`
	Signature string `json:"signature"`
	IsDefault bool   `json:"is_default"`
}
