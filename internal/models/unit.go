package models

import (
	"github.com/dmitrijs2005/saverpwd/internal/common"
	"github.com/dmitrijs2005/saverpwd/internal/cryptox"
)

// Unit is a stored login. Secret holds AES-GCM ciphertext sealed under the
// owner's derived key; the plaintext is never kept on the struct.
type Unit struct {
	ID          string
	Name        string
	Login       string
	Secret      []byte
	SecretNonce []byte
	URL         string
	UserID      string
	CategoryID  string
}

func (Unit) Kind() Kind { return KindUnit }

func (u Unit) Validate() error {
	switch {
	case u.ID == "":
		return common.NewValidationError("unit", "id", "must not be empty")
	case u.Name == "":
		return common.NewValidationError("unit", "name", "must not be empty")
	case u.Login == "":
		return common.NewValidationError("unit", "login", "must not be empty")
	case len(u.Secret) < cryptox.TagSize:
		return common.NewValidationError("unit", "secret", "must be ciphertext")
	case len(u.SecretNonce) != cryptox.NonceSize:
		return common.NewValidationError("unit", "secret_nonce", "must be 12 bytes")
	case u.UserID == "":
		return common.NewValidationError("unit", "user_id", "must not be empty")
	case u.CategoryID == "":
		return common.NewValidationError("unit", "category_id", "must not be empty")
	}
	return nil
}

// UnitSummary is the listing view of a unit. It never carries the secret.
type UnitSummary struct {
	Name     string
	Login    string
	URL      string
	Category string
}
