package models

import (
	"encoding/hex"
	"regexp"

	"github.com/dmitrijs2005/saverpwd/internal/common"
)

var usernameRe = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_-]*$`)

// User is a vault account. PasswordHash is hex(sha256(username + password)).
type User struct {
	ID           string
	Username     string
	PasswordHash string
}

func (User) Kind() Kind { return KindUser }

func (u User) Validate() error {
	if u.ID == "" {
		return common.NewValidationError("user", "id", "must not be empty")
	}
	if err := ValidateUsername(u.Username); err != nil {
		return err
	}
	if len(u.PasswordHash) != 64 {
		return common.NewValidationError("user", "password_hash", "must be 64 hex characters")
	}
	if _, err := hex.DecodeString(u.PasswordHash); err != nil {
		return common.NewValidationError("user", "password_hash", "must be 64 hex characters")
	}
	return nil
}

// ValidateUsername checks that name starts with a letter and contains only
// letters, digits, '_' and '-'.
func ValidateUsername(name string) error {
	if name == "" {
		return common.NewValidationError("user", "username", "must not be empty")
	}
	if !usernameRe.MatchString(name) {
		return common.NewValidationError("user", "username", "must start with a letter and contain only letters, digits, '_' or '-'")
	}
	return nil
}

// ValidatePassword rejects empty passwords.
func ValidatePassword(password string) error {
	if password == "" {
		return common.NewValidationError("user", "password", "must not be empty")
	}
	return nil
}
