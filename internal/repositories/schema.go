package repositories

import (
	"github.com/dmitrijs2005/saverpwd/internal/common"
	"github.com/dmitrijs2005/saverpwd/internal/cryptox"
	"github.com/dmitrijs2005/saverpwd/internal/models"
)

type scanner interface {
	Scan(dest ...any) error
}

// schema describes how one record kind maps onto its table.
type schema[T models.Record] struct {
	kind    models.Kind
	table   string
	columns []string
	orderBy string
	values  func(*T) []any
	scan    func(scanner) (T, error)
	// mutable lists the columns Update may set, with an optional value check.
	mutable map[string]func(v any) error
	// forbidden columns fail Update with a dedicated error instead of a validation error.
	forbidden map[string]error
}

func (s schema[T]) hasColumn(name string) bool {
	for _, c := range s.columns {
		if c == name {
			return true
		}
	}
	return false
}

var userSchema = schema[models.User]{
	kind:    models.KindUser,
	table:   "users",
	columns: []string{"id", "username", "password_hash"},
	orderBy: "username, id",
	values: func(u *models.User) []any {
		return []any{u.ID, u.Username, u.PasswordHash}
	},
	scan: func(r scanner) (models.User, error) {
		var u models.User
		err := r.Scan(&u.ID, &u.Username, &u.PasswordHash)
		return u, err
	},
	mutable: map[string]func(any) error{
		"username": func(v any) error {
			s, ok := v.(string)
			if !ok {
				return common.NewValidationError("user", "username", "must be a string")
			}
			return models.ValidateUsername(s)
		},
		"password_hash": func(v any) error {
			s, ok := v.(string)
			if !ok || len(s) != 64 {
				return common.NewValidationError("user", "password_hash", "must be 64 hex characters")
			}
			return nil
		},
	},
}

var categorySchema = schema[models.Category]{
	kind:    models.KindCategory,
	table:   "categories",
	columns: []string{"id", "name", "user_id"},
	orderBy: "name, id",
	values: func(c *models.Category) []any {
		return []any{c.ID, c.Name, c.UserID}
	},
	scan: func(r scanner) (models.Category, error) {
		var c models.Category
		err := r.Scan(&c.ID, &c.Name, &c.UserID)
		return c, err
	},
	mutable: map[string]func(any) error{
		"name": nonEmptyString("category", "name"),
	},
}

var unitSchema = schema[models.Unit]{
	kind:    models.KindUnit,
	table:   "units",
	columns: []string{"id", "name", "login", "secret", "secret_nonce", "url", "user_id", "category_id"},
	orderBy: "name, login, id",
	values: func(u *models.Unit) []any {
		return []any{u.ID, u.Name, u.Login, u.Secret, u.SecretNonce, u.URL, u.UserID, u.CategoryID}
	},
	scan: func(r scanner) (models.Unit, error) {
		var u models.Unit
		err := r.Scan(&u.ID, &u.Name, &u.Login, &u.Secret, &u.SecretNonce, &u.URL, &u.UserID, &u.CategoryID)
		return u, err
	},
	mutable: map[string]func(any) error{
		"name":         nonEmptyString("unit", "name"),
		"login":        nonEmptyString("unit", "login"),
		"url":          stringValue("unit", "url"),
		"category_id":  nonEmptyString("unit", "category_id"),
		"secret":       bytesOfLen("unit", "secret", cryptox.TagSize, false),
		"secret_nonce": bytesOfLen("unit", "secret_nonce", cryptox.NonceSize, true),
	},
	forbidden: map[string]error{
		"user_id": common.ErrForbiddenOperation,
	},
}

func stringValue(entity, field string) func(any) error {
	return func(v any) error {
		if _, ok := v.(string); !ok {
			return common.NewValidationError(entity, field, "must be a string")
		}
		return nil
	}
}

func nonEmptyString(entity, field string) func(any) error {
	return func(v any) error {
		if s, ok := v.(string); !ok || s == "" {
			return common.NewValidationError(entity, field, "must be a non-empty string")
		}
		return nil
	}
}

// bytesOfLen checks a []byte value of exactly n bytes, or at least n when exact is false.
func bytesOfLen(entity, field string, n int, exact bool) func(any) error {
	return func(v any) error {
		b, ok := v.([]byte)
		if !ok || len(b) < n || (exact && len(b) != n) {
			return common.NewValidationError(entity, field, "has invalid length")
		}
		return nil
	}
}
