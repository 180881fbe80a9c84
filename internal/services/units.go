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

// NewUnit is the input of AddUnit. An empty Category means "default".
type NewUnit struct {
	Username string
	Password string
	Name     string
	Login    string
	Secret   string
	Category string
	URL      string
}

// UnitRef addresses one unit of a user. Password is only required when the
// operation touches the secret.
type UnitRef struct {
	Username string
	Password string
	Name     string
	Login    string
}

// UnitChanges lists the fields UpdateUnit should set. Nil fields are left alone.
// UserID exists only to be rejected: units never change owner.
type UnitChanges struct {
	Name     *string
	Login    *string
	Secret   *string
	Category *string
	URL      *string
	UserID   *string
}

func (c UnitChanges) empty() bool {
	return c.Name == nil && c.Login == nil && c.Secret == nil && c.Category == nil && c.URL == nil && c.UserID == nil
}

// UnitService stores, reveals and edits a user's encrypted units.
type UnitService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	kdf         cryptox.KDF
	categories  *CategoryService
	log         logging.Logger
}

func NewUnitService(db *sql.DB, m repomanager.RepositoryManager, kdf cryptox.KDF, categories *CategoryService, log logging.Logger) *UnitService {
	return &UnitService{db: db, repomanager: m, kdf: kdf, categories: categories, log: log}
}

// AddUnit encrypts in.Secret under the owner's key and stores the unit. The
// category is created on demand in the same transaction as the unit.
func (s *UnitService) AddUnit(ctx context.Context, in NewUnit) error {
	user, err := authenticate(ctx, s.repomanager, s.db, in.Username, in.Password)
	if err != nil {
		return err
	}

	dup, err := s.repomanager.Units(s.db).GetObjects(ctx, repositories.Filter{
		"name": in.Name, "login": in.Login, "user_id": user.ID,
	})
	if err != nil {
		return err
	}
	if len(dup) > 0 {
		return fmt.Errorf("unit %q/%q: %w", in.Name, in.Login, common.ErrAlreadyExists)
	}

	key, err := s.kdf.DeriveKey(in.Username, in.Password)
	if err != nil {
		return fmt.Errorf("derive key: %w", err)
	}
	defer cryptox.Wipe(key)

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		cat, err := s.categories.GetPrepared(ctx, tx, user.ID, in.Category)
		if err != nil {
			return err
		}
		ct, nonce, err := cryptox.Encrypt(key, []byte(in.Secret))
		if err != nil {
			return err
		}
		return s.repomanager.Units(tx).Create(ctx, &models.Unit{
			ID:          uuid.NewString(),
			Name:        in.Name,
			Login:       in.Login,
			Secret:      ct,
			SecretNonce: nonce,
			URL:         in.URL,
			UserID:      user.ID,
			CategoryID:  cat.ID,
		})
	})
	if err != nil {
		return fmt.Errorf("add unit %q/%q: %w", in.Name, in.Login, err)
	}
	s.log.Info(ctx, "unit added", "user", in.Username, "unit", in.Name, "login", in.Login)
	return nil
}

// GetUnitSecret decrypts and returns the secret of one unit. A wrong password
// shows up as a failed decryption and is reported as common.ErrIncorrectPassword.
func (s *UnitService) GetUnitSecret(ctx context.Context, username, password, name, login string) (string, error) {
	user, err := findUser(ctx, s.repomanager, s.db, username)
	if err != nil {
		return "", err
	}
	u, err := s.getUnit(ctx, s.db, user.ID, name, login)
	if err != nil {
		return "", err
	}

	key, err := s.kdf.DeriveKey(username, password)
	if err != nil {
		return "", fmt.Errorf("derive key: %w", err)
	}
	defer cryptox.Wipe(key)

	plain, err := cryptox.Decrypt(key, u.Secret, u.SecretNonce)
	if err != nil {
		if errors.Is(err, common.ErrDecryption) {
			return "", common.ErrIncorrectPassword
		}
		return "", err
	}
	defer cryptox.Wipe(plain)
	return string(plain), nil
}

// UpdateUnit applies ch to the unit addressed by ref.
func (s *UnitService) UpdateUnit(ctx context.Context, ref UnitRef, ch UnitChanges) error {
	if ch.UserID != nil {
		return fmt.Errorf("unit owner cannot be changed: %w", common.ErrForbiddenOperation)
	}
	if ch.empty() {
		return common.ErrNothingToUpdate
	}
	if ch.Secret != nil && ref.Password == "" {
		return common.ErrMissingCredential
	}

	var (
		user *models.User
		err  error
	)
	if ref.Password != "" {
		user, err = authenticate(ctx, s.repomanager, s.db, ref.Username, ref.Password)
	} else {
		user, err = findUser(ctx, s.repomanager, s.db, ref.Username)
	}
	if err != nil {
		return err
	}

	unit, err := s.getUnit(ctx, s.db, user.ID, ref.Name, ref.Login)
	if err != nil {
		return err
	}

	newName, newLogin := unit.Name, unit.Login
	if ch.Name != nil {
		newName = *ch.Name
	}
	if ch.Login != nil {
		newLogin = *ch.Login
	}
	if newName != unit.Name || newLogin != unit.Login {
		_, err := s.getUnit(ctx, s.db, user.ID, newName, newLogin)
		switch {
		case err == nil:
			return fmt.Errorf("unit %q/%q: %w", newName, newLogin, common.ErrAlreadyExists)
		case !errors.Is(err, common.ErrNotFound):
			return err
		}
	}

	var key []byte
	if ch.Secret != nil {
		if key, err = s.kdf.DeriveKey(ref.Username, ref.Password); err != nil {
			return fmt.Errorf("derive key: %w", err)
		}
		defer cryptox.Wipe(key)
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		changes := repositories.Changes{}
		if ch.Name != nil {
			changes["name"] = *ch.Name
		}
		if ch.Login != nil {
			changes["login"] = *ch.Login
		}
		if ch.URL != nil {
			changes["url"] = *ch.URL
		}
		if ch.Category != nil {
			cat, err := s.categories.GetPrepared(ctx, tx, user.ID, *ch.Category)
			if err != nil {
				return err
			}
			changes["category_id"] = cat.ID
		}
		if ch.Secret != nil {
			ct, nonce, err := cryptox.Encrypt(key, []byte(*ch.Secret))
			if err != nil {
				return err
			}
			changes["secret"] = ct
			changes["secret_nonce"] = nonce
		}

		_, err := s.repomanager.Units(tx).Update(ctx, repositories.Filter{"id": unit.ID}, changes)
		return err
	})
	if err != nil {
		return fmt.Errorf("update unit %q/%q: %w", ref.Name, ref.Login, err)
	}
	s.log.Info(ctx, "unit updated", "user", ref.Username, "unit", ref.Name, "login", ref.Login)
	return nil
}

// DeleteUnit removes one unit.
func (s *UnitService) DeleteUnit(ctx context.Context, username, name, login string) error {
	user, err := findUser(ctx, s.repomanager, s.db, username)
	if err != nil {
		return err
	}
	n, err := s.repomanager.Units(s.db).Delete(ctx, repositories.Filter{
		"name": name, "login": login, "user_id": user.ID,
	})
	if err != nil {
		return fmt.Errorf("delete unit %q/%q: %w", name, login, err)
	}
	if n == 0 {
		return fmt.Errorf("unit %q/%q: %w", name, login, common.ErrNotFound)
	}
	s.log.Info(ctx, "unit deleted", "user", username, "unit", name, "login", login)
	return nil
}

// ListUnits returns the user's units sorted by name then login, optionally
// restricted to one category. An unknown category gives an empty list.
func (s *UnitService) ListUnits(ctx context.Context, username, category string) ([]models.UnitSummary, error) {
	user, err := findUser(ctx, s.repomanager, s.db, username)
	if err != nil {
		return nil, err
	}

	cats, err := s.repomanager.Categories(s.db).GetObjects(ctx, repositories.Filter{"user_id": user.ID})
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(cats))
	f := repositories.Filter{"user_id": user.ID}
	found := category == ""
	for _, c := range cats {
		names[c.ID] = c.Name
		if category != "" && c.Name == category {
			f["category_id"] = c.ID
			found = true
		}
	}
	if !found {
		return []models.UnitSummary{}, nil
	}

	units, err := s.repomanager.Units(s.db).GetObjects(ctx, f)
	if err != nil {
		return nil, err
	}
	out := make([]models.UnitSummary, len(units))
	for i, u := range units {
		out[i] = models.UnitSummary{Name: u.Name, Login: u.Login, URL: u.URL, Category: names[u.CategoryID]}
	}
	return out, nil
}

func (s *UnitService) getUnit(ctx context.Context, db dbx.DBTX, userID, name, login string) (*models.Unit, error) {
	u, err := s.repomanager.Units(db).GetObj(ctx, repositories.Filter{
		"name": name, "login": login, "user_id": userID,
	})
	if err != nil {
		return nil, fmt.Errorf("unit %q/%q: %w", name, login, err)
	}
	return u, nil
}
