package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/saverpwd/internal/common"
	"github.com/dmitrijs2005/saverpwd/internal/cryptox"
	"github.com/dmitrijs2005/saverpwd/internal/dbx"
	"github.com/dmitrijs2005/saverpwd/internal/logging"
	"github.com/dmitrijs2005/saverpwd/internal/models"
	"github.com/dmitrijs2005/saverpwd/internal/repositories"
	"github.com/dmitrijs2005/saverpwd/internal/repositories/repomanager"
)

// UserUpdate carries the optional new credentials for UpdateUser. A nil field keeps the current value.
type UserUpdate struct {
	NewUsername *string
	NewPassword *string
}

// UserService manages vault accounts. Changing credentials re-encrypts every
// unit of the user in the same transaction as the user row update.
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	kdf         cryptox.KDF
	log         logging.Logger
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, kdf cryptox.KDF, log logging.Logger) *UserService {
	return &UserService{db: db, repomanager: m, kdf: kdf, log: log}
}

// AddUser registers a new account.
func (s *UserService) AddUser(ctx context.Context, username, password string) error {
	if err := models.ValidateUsername(username); err != nil {
		return err
	}
	if err := models.ValidatePassword(password); err != nil {
		return err
	}

	u := &models.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: cryptox.PasswordHash(username, password),
	}
	if err := s.repomanager.Users(s.db).Create(ctx, u); err != nil {
		return fmt.Errorf("add user %q: %w", username, err)
	}
	s.log.Info(ctx, "user added", "user", username)
	return nil
}

// VerifyUser reports whether the credentials match a stored account. An
// unknown username is reported as false without an error.
func (s *UserService) VerifyUser(ctx context.Context, username, password string) (bool, error) {
	_, err := authenticate(ctx, s.repomanager, s.db, username, password)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, common.ErrNotFound), errors.Is(err, common.ErrIncorrectPassword):
		return false, nil
	default:
		return false, err
	}
}

// UpdateUser changes the username, the password or both. All of the user's
// secrets are decrypted with the old key and re-encrypted with the new one;
// any failure leaves every row as it was.
func (s *UserService) UpdateUser(ctx context.Context, username, currentPassword string, in UserUpdate) error {
	if in.NewUsername == nil && in.NewPassword == nil {
		return common.ErrNothingToUpdate
	}
	if currentPassword == "" {
		return common.ErrMissingCredential
	}

	newUsername, newPassword := username, currentPassword
	if in.NewUsername != nil {
		if err := models.ValidateUsername(*in.NewUsername); err != nil {
			return err
		}
		newUsername = *in.NewUsername
	}
	if in.NewPassword != nil {
		if err := models.ValidatePassword(*in.NewPassword); err != nil {
			return err
		}
		newPassword = *in.NewPassword
	}

	user, err := authenticate(ctx, s.repomanager, s.db, username, currentPassword)
	if err != nil {
		return err
	}

	if newUsername != username {
		_, err := findUser(ctx, s.repomanager, s.db, newUsername)
		switch {
		case err == nil:
			return fmt.Errorf("user %q: %w", newUsername, common.ErrAlreadyExists)
		case !errors.Is(err, common.ErrNotFound):
			return err
		}
	}

	oldKey, err := s.kdf.DeriveKey(username, currentPassword)
	if err != nil {
		return fmt.Errorf("derive key: %w", err)
	}
	defer cryptox.Wipe(oldKey)
	newKey, err := s.kdf.DeriveKey(newUsername, newPassword)
	if err != nil {
		return fmt.Errorf("derive key: %w", err)
	}
	defer cryptox.Wipe(newKey)

	var reencrypted int
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		units := s.repomanager.Units(tx)
		list, err := units.GetObjects(ctx, repositories.Filter{"user_id": user.ID})
		if err != nil {
			return err
		}

		// every secret must open before anything is written
		plain := make([][]byte, len(list))
		defer func() {
			for _, p := range plain {
				cryptox.Wipe(p)
			}
		}()
		for i, u := range list {
			p, err := cryptox.Decrypt(oldKey, u.Secret, u.SecretNonce)
			if err != nil {
				return fmt.Errorf("re-encrypt unit %q/%q: %w", u.Name, u.Login, err)
			}
			plain[i] = p
		}

		for i, u := range list {
			ct, nonce, err := cryptox.Encrypt(newKey, plain[i])
			if err != nil {
				return err
			}
			if _, err := units.Update(ctx, repositories.Filter{"id": u.ID},
				repositories.Changes{"secret": ct, "secret_nonce": nonce}); err != nil {
				return err
			}
		}
		reencrypted = len(list)

		ch := repositories.Changes{"password_hash": cryptox.PasswordHash(newUsername, newPassword)}
		if newUsername != username {
			ch["username"] = newUsername
		}
		n, err := s.repomanager.Users(tx).Update(ctx, repositories.Filter{"id": user.ID}, ch)
		if err != nil {
			return err
		}
		if n != 1 {
			return fmt.Errorf("update user %q: %d rows affected: %w", username, n, common.ErrInconsistentState)
		}
		return nil
	})
	if err != nil {
		s.log.Warn(ctx, "user update rolled back", "user", username, "error", err)
		return fmt.Errorf("update user %q: %w", username, err)
	}

	s.log.Info(ctx, "user updated", "user", username, "new_username", newUsername, "units", reencrypted)
	return nil
}

// DeleteUser removes the account together with its units and categories.
func (s *UserService) DeleteUser(ctx context.Context, username string) error {
	n, err := s.repomanager.Users(s.db).Delete(ctx, repositories.Filter{"username": username})
	if err != nil {
		return fmt.Errorf("delete user %q: %w", username, err)
	}
	if n == 0 {
		return fmt.Errorf("user %q: %w", username, common.ErrNotFound)
	}
	s.log.Info(ctx, "user deleted", "user", username)
	return nil
}

// ListUsers returns every username in ascending order.
func (s *UserService) ListUsers(ctx context.Context) ([]string, error) {
	users, err := s.repomanager.Users(s.db).GetObjects(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	names := make([]string, len(users))
	for i, u := range users {
		names[i] = u.Username
	}
	return names, nil
}
