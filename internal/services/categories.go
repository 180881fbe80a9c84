package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/saverpwd/internal/common"
	"github.com/dmitrijs2005/saverpwd/internal/dbx"
	"github.com/dmitrijs2005/saverpwd/internal/logging"
	"github.com/dmitrijs2005/saverpwd/internal/models"
	"github.com/dmitrijs2005/saverpwd/internal/repositories"
	"github.com/dmitrijs2005/saverpwd/internal/repositories/repomanager"
)

// CategoryService manages the per-user categories units are grouped in.
type CategoryService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	log         logging.Logger
}

func NewCategoryService(db *sql.DB, m repomanager.RepositoryManager, log logging.Logger) *CategoryService {
	return &CategoryService{db: db, repomanager: m, log: log}
}

// GetPrepared returns the user's category called name, creating it when absent.
// An empty name resolves to models.DefaultCategory. db may be a transaction.
func (s *CategoryService) GetPrepared(ctx context.Context, db dbx.DBTX, userID, name string) (*models.Category, error) {
	if name == "" {
		name = models.DefaultCategory
	}
	repo := s.repomanager.Categories(db)
	f := repositories.Filter{"name": name, "user_id": userID}

	c, err := repo.GetObj(ctx, f)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}

	if err := repo.Create(ctx, &models.Category{ID: uuid.NewString(), Name: name, UserID: userID}); err != nil {
		return nil, fmt.Errorf("create category %q: %w", name, err)
	}

	c, err = repo.GetObj(ctx, f)
	if errors.Is(err, common.ErrNotFound) {
		return nil, fmt.Errorf("category %q vanished after create: %w", name, common.ErrInconsistentState)
	}
	if err != nil {
		return nil, err
	}
	s.log.Debug(ctx, "category created", "category", name)
	return c, nil
}

// AddCategory creates an empty category for the user.
func (s *CategoryService) AddCategory(ctx context.Context, username, name string) error {
	user, err := findUser(ctx, s.repomanager, s.db, username)
	if err != nil {
		return err
	}
	if name == "" {
		name = models.DefaultCategory
	}
	c := &models.Category{ID: uuid.NewString(), Name: name, UserID: user.ID}
	if err := s.repomanager.Categories(s.db).Create(ctx, c); err != nil {
		return fmt.Errorf("add category %q: %w", name, err)
	}
	s.log.Info(ctx, "category added", "user", username, "category", name)
	return nil
}

// ListCategories returns the user's category names in ascending order.
func (s *CategoryService) ListCategories(ctx context.Context, username string) ([]string, error) {
	user, err := findUser(ctx, s.repomanager, s.db, username)
	if err != nil {
		return nil, err
	}
	cats, err := s.repomanager.Categories(s.db).GetObjects(ctx, repositories.Filter{"user_id": user.ID})
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	names := make([]string, len(cats))
	for i, c := range cats {
		names[i] = c.Name
	}
	return names, nil
}

// DeleteCategory removes the category and every unit in it.
func (s *CategoryService) DeleteCategory(ctx context.Context, username, name string) error {
	user, err := findUser(ctx, s.repomanager, s.db, username)
	if err != nil {
		return err
	}
	n, err := s.repomanager.Categories(s.db).Delete(ctx, repositories.Filter{"name": name, "user_id": user.ID})
	if err != nil {
		return fmt.Errorf("delete category %q: %w", name, err)
	}
	if n == 0 {
		return fmt.Errorf("category %q: %w", name, common.ErrNotFound)
	}
	s.log.Info(ctx, "category deleted", "user", username, "category", name)
	return nil
}
