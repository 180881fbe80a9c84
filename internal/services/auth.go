// Package services implements the vault's access layer: user accounts, their
// encrypted units and the categories grouping them. Every operation that needs
// a secret takes the owner's credentials, derives the key and drops it on return.
package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/saverpwd/internal/common"
	"github.com/dmitrijs2005/saverpwd/internal/cryptox"
	"github.com/dmitrijs2005/saverpwd/internal/dbx"
	"github.com/dmitrijs2005/saverpwd/internal/models"
	"github.com/dmitrijs2005/saverpwd/internal/repositories"
	"github.com/dmitrijs2005/saverpwd/internal/repositories/repomanager"
)

// findUser loads the user by name. Absent users yield common.ErrNotFound.
func findUser(ctx context.Context, rm repomanager.RepositoryManager, db dbx.DBTX, username string) (*models.User, error) {
	u, err := rm.Users(db).GetObj(ctx, repositories.Filter{"username": username})
	if err != nil {
		return nil, fmt.Errorf("user %q: %w", username, err)
	}
	return u, nil
}

// authenticate loads the user and checks the password against the stored hash.
func authenticate(ctx context.Context, rm repomanager.RepositoryManager, db dbx.DBTX, username, password string) (*models.User, error) {
	u, err := findUser(ctx, rm, db, username)
	if err != nil {
		return nil, err
	}
	if !cryptox.CheckPasswordHash(u.PasswordHash, username, password) {
		return nil, common.ErrIncorrectPassword
	}
	return u, nil
}
