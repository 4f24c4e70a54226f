package users

import (
	"context"

	"github.com/dropnote/dropnote/internal/server/models"
)

type Repository interface {
	// Create inserts a new user; a duplicate email yields ErrorAlreadyExists.
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
}
