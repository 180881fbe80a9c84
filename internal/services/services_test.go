package services

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/saverpwd/internal/cryptox"
	"github.com/dmitrijs2005/saverpwd/internal/database"
	"github.com/dmitrijs2005/saverpwd/internal/logging"
	"github.com/dmitrijs2005/saverpwd/internal/repositories/repomanager"
)

type vault struct {
	db         *sql.DB
	users      *UserService
	units      *UnitService
	categories *CategoryService
}

func newVaultWith(t *testing.T, rm repomanager.RepositoryManager, kdf cryptox.KDF) *vault {
	t.Helper()
	ctx := context.Background()

	db, err := database.Open(ctx, filepath.Join(t.TempDir(), "vault.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, repomanager.NewSQLiteRepositoryManager().RunMigrations(ctx, db))

	log := logging.Nop()
	cats := NewCategoryService(db, rm, log)
	return &vault{
		db:         db,
		users:      NewUserService(db, rm, kdf, log),
		units:      NewUnitService(db, rm, kdf, cats, log),
		categories: cats,
	}
}

func newVault(t *testing.T) *vault {
	t.Helper()
	return newVaultWith(t, repomanager.NewSQLiteRepositoryManager(), cryptox.SHA256KDF{})
}

func ptr(s string) *string { return &s }

func (v *vault) mustAddUser(t *testing.T, username, password string) {
	t.Helper()
	require.NoError(t, v.users.AddUser(context.Background(), username, password))
}

func (v *vault) mustAddUnit(t *testing.T, in NewUnit) {
	t.Helper()
	require.NoError(t, v.units.AddUnit(context.Background(), in))
}

type rawUnit struct {
	Name, Login   string
	Secret, Nonce []byte
	UserID, CatID string
}

func (v *vault) rawUnits(t *testing.T) []rawUnit {
	t.Helper()
	rows, err := v.db.Query(`SELECT name, login, secret, secret_nonce, user_id, category_id FROM units ORDER BY name, login`)
	require.NoError(t, err)
	defer rows.Close()
	var out []rawUnit
	for rows.Next() {
		var r rawUnit
		require.NoError(t, rows.Scan(&r.Name, &r.Login, &r.Secret, &r.Nonce, &r.UserID, &r.CatID))
		out = append(out, r)
	}
	require.NoError(t, rows.Err())
	return out
}

func (v *vault) count(t *testing.T, table string) int {
	t.Helper()
	var n int
	require.NoError(t, v.db.QueryRow(`SELECT COUNT(*) FROM `+table).Scan(&n))
	return n
}
