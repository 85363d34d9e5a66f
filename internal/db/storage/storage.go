// Package storage declares the document store contract shared by the
// file, memory and postgres backed implementations.
package storage

import (
	"context"

	"github.com/patric-chuzhbe/recipes/internal/models"
	"github.com/patric-chuzhbe/recipes/internal/user"
)

// Storage holds the whole document in memory. Every mutating call rewrites
// the persisted document before returning. Getters return copies.
type Storage interface {
	GetUsers(ctx context.Context) ([]user.User, error)

	InsertUser(ctx context.Context, usr user.User) error

	GetIngredients(ctx context.Context) ([]models.Ingredient, error)

	InsertIngredient(ctx context.Context, ingredient models.Ingredient) error

	GetRecipes(ctx context.Context) ([]models.Recipe, error)

	SetRecipes(ctx context.Context, recipes []models.Recipe) error

	GetStats(ctx context.Context) (models.InternalStatsResponse, error)

	Ping(ctx context.Context) error

	Close() error
}
