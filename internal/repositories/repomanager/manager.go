// Package repomanager vends vault stores bound to a database handle or a
// transaction, and applies the embedded schema migrations.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/saverpwd/internal/dbx"
	"github.com/dmitrijs2005/saverpwd/internal/migrations"
	"github.com/dmitrijs2005/saverpwd/internal/models"
	"github.com/dmitrijs2005/saverpwd/internal/repositories"
	"github.com/dmitrijs2005/saverpwd/internal/repositories/metadata"
)

type RepositoryManager interface {
	RunMigrations(ctx context.Context, db *sql.DB) error
	Users(db dbx.DBTX) repositories.Store[models.User]
	Categories(db dbx.DBTX) repositories.Store[models.Category]
	Units(db dbx.DBTX) repositories.Store[models.Unit]
	Metadata(db dbx.DBTX) metadata.Repository
}

// SQLiteRepositoryManager is the RepositoryManager for the SQLite vault.
type SQLiteRepositoryManager struct{}

func NewSQLiteRepositoryManager() *SQLiteRepositoryManager {
	return &SQLiteRepositoryManager{}
}

func (m *SQLiteRepositoryManager) Users(db dbx.DBTX) repositories.Store[models.User] {
	return repositories.NewUsers(db)
}

func (m *SQLiteRepositoryManager) Categories(db dbx.DBTX) repositories.Store[models.Category] {
	return repositories.NewCategories(db)
}

func (m *SQLiteRepositoryManager) Units(db dbx.DBTX) repositories.Store[models.Unit] {
	return repositories.NewUnits(db)
}

func (m *SQLiteRepositoryManager) Metadata(db dbx.DBTX) metadata.Repository {
	return metadata.NewSQLiteRepository(db)
}

// migrateUp is a seam for testing migrations.Up.
var migrateUp = migrations.Up

// RunMigrations brings the schema of db up to date.
func (m *SQLiteRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	_, err := migrateUp(ctx, db)
	return err
}
