package models

import "github.com/dmitrijs2005/saverpwd/internal/common"

// Category groups a user's units. Name is unique per user.
type Category struct {
	ID     string
	Name   string
	UserID string
}

func (Category) Kind() Kind { return KindCategory }

func (c Category) Validate() error {
	switch {
	case c.ID == "":
		return common.NewValidationError("category", "id", "must not be empty")
	case c.Name == "":
		return common.NewValidationError("category", "name", "must not be empty")
	case c.UserID == "":
		return common.NewValidationError("category", "user_id", "must not be empty")
	}
	return nil
}
