package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/saverpwd/internal/common"
	"github.com/dmitrijs2005/saverpwd/internal/config"
	"github.com/dmitrijs2005/saverpwd/internal/database"
	"github.com/dmitrijs2005/saverpwd/internal/logging"
	"github.com/dmitrijs2005/saverpwd/internal/repositories/metadata"
	"github.com/dmitrijs2005/saverpwd/internal/repositories/repomanager"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		DataDir:    t.TempDir(),
		DBFile:     "prod.sqlite",
		TestDBFile: "test.sqlite",
		TestDB:     true,
		KDF:        "sha256",
		Log:        config.Log{Level: "info"},
	}
}

func TestNewApp_OpensSelectedStore(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()

	a, err := NewApp(ctx, cfg, logging.Nop())
	require.NoError(t, err)
	require.NoError(t, a.Users.AddUser(ctx, "alice", "pw1"))
	require.NoError(t, a.Close())

	_, err = os.Stat(filepath.Join(cfg.DataDir, "test.sqlite"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(cfg.DataDir, "prod.sqlite"))
	assert.True(t, os.IsNotExist(err))

	// reopening keeps the data
	a, err = NewApp(ctx, cfg, logging.Nop())
	require.NoError(t, err)
	defer a.Close()
	names, err := a.Users.ListUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, names)
}

func TestNewApp_KDFMismatch(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()

	a, err := NewApp(ctx, cfg, logging.Nop())
	require.NoError(t, err)
	require.NoError(t, a.Close())

	cfg.KDF = "argon2id"
	_, err = NewApp(ctx, cfg, logging.Nop())
	require.ErrorIs(t, err, common.ErrKDFMismatch)
	assert.ErrorIs(t, err, common.ErrInconsistentState)
}

func TestNewApp_UnknownKDF(t *testing.T) {
	cfg := testConfig(t)
	cfg.KDF = "rot13"
	_, err := NewApp(context.Background(), cfg, logging.Nop())
	require.Error(t, err)
}

func TestClose_Nil(t *testing.T) {
	var a *App
	assert.NoError(t, a.Close())
}

func TestBindKDF_RecordsFactsOnce(t *testing.T) {
	ctx := context.Background()
	db, err := database.Open(ctx, filepath.Join(t.TempDir(), "vault.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	rm := repomanager.NewSQLiteRepositoryManager()
	require.NoError(t, rm.RunMigrations(ctx, db))

	first, err := bindKDF(ctx, db, rm, "sha256")
	require.NoError(t, err)
	assert.Equal(t, []byte("sha256"), first[metadata.KeyKDF])
	_, err = time.Parse(time.RFC3339, string(first[metadata.KeyCreatedAt]))
	require.NoError(t, err)

	second, err := bindKDF(ctx, db, rm, "sha256")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	_, err = bindKDF(ctx, db, rm, "argon2id")
	assert.ErrorIs(t, err, common.ErrKDFMismatch)
}
