// Package app wires the vault together: it opens the store selected by the
// configuration, migrates it, binds the key derivation function and builds
// the services used by the command line.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/saverpwd/internal/common"
	"github.com/dmitrijs2005/saverpwd/internal/config"
	"github.com/dmitrijs2005/saverpwd/internal/cryptox"
	"github.com/dmitrijs2005/saverpwd/internal/database"
	"github.com/dmitrijs2005/saverpwd/internal/dbx"
	"github.com/dmitrijs2005/saverpwd/internal/logging"
	"github.com/dmitrijs2005/saverpwd/internal/repositories/metadata"
	"github.com/dmitrijs2005/saverpwd/internal/repositories/repomanager"
	"github.com/dmitrijs2005/saverpwd/internal/services"
)

type App struct {
	db *sql.DB

	Users      *services.UserService
	Units      *services.UnitService
	Categories *services.CategoryService
}

func NewApp(ctx context.Context, cfg *config.Config, logger logging.Logger) (*App, error) {
	kdf, err := cryptox.NewKDF(cfg.KDF)
	if err != nil {
		return nil, err
	}

	path := cfg.DatabasePath()
	db, err := database.Open(ctx, path)
	if err != nil {
		return nil, err
	}

	rm := repomanager.NewSQLiteRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate %s: %w", path, err)
	}
	facts, err := bindKDF(ctx, db, rm, kdf.Name())
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	logger.Debug(ctx, "vault opened", "path", path, "kdf", kdf.Name(),
		"created_at", string(facts[metadata.KeyCreatedAt]), "test_db", cfg.TestDB)

	cats := services.NewCategoryService(db, rm, logger)
	return &App{
		db:         db,
		Users:      services.NewUserService(db, rm, kdf, logger),
		Units:      services.NewUnitService(db, rm, kdf, cats, logger),
		Categories: cats,
	}, nil
}

// bindKDF records kdf in a fresh store and rejects a store created with another one.
// It returns every fact stored in vault_meta.
func bindKDF(ctx context.Context, db *sql.DB, rm repomanager.RepositoryManager, kdf string) (map[string][]byte, error) {
	var facts map[string][]byte
	err := dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		meta := rm.Metadata(tx)
		stored, err := meta.Get(ctx, metadata.KeyKDF)
		if err != nil {
			return err
		}
		switch {
		case stored == nil:
			if err := meta.Set(ctx, metadata.KeyKDF, []byte(kdf)); err != nil {
				return err
			}
			if err := meta.Set(ctx, metadata.KeyCreatedAt, []byte(time.Now().UTC().Format(time.RFC3339))); err != nil {
				return err
			}
		case string(stored) != kdf:
			return fmt.Errorf("store uses %q, configured %q: %w", stored, kdf, common.ErrKDFMismatch)
		}
		facts, err = meta.List(ctx)
		return err
	})
	return facts, err
}

// Close releases the database handle.
func (a *App) Close() error {
	if a == nil || a.db == nil {
		return nil
	}
	return a.db.Close()
}
