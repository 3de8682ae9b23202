// Package user resolves report-target identities from email strings.
package user

import (
	"fmt"
	"net/mail"
	"strings"
)

// User is one report target. Created from a bare email address or a full
// `"Some Name" <email@domain>` string; immutable after creation.
type User struct {
	Name  string
	Email string
}

// New parses a user identity from an email string.
func New(raw string) (User, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return User{}, fmt.Errorf("empty email address")
	}
	addr, err := mail.ParseAddress(raw)
	if err != nil {
		return User{}, fmt.Errorf("invalid email address %q: %w", raw, err)
	}
	return User{Name: addr.Name, Email: addr.Address}, nil
}

// Login returns the local part of the email address, used as the default
// account name for services that identify users by login rather than email.
func (u User) Login() string {
	if i := strings.IndexByte(u.Email, '@'); i > 0 {
		return u.Email[:i]
	}
	return u.Email
}

// String renders the identity the way it would appear in a mail header.
func (u User) String() string {
	if u.Name != "" {
		return fmt.Sprintf("%s <%s>", u.Name, u.Email)
	}
	return u.Email
}
