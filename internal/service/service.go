// Package service holds the domain operations behind the HTTP layer:
// the user directory, the ingredient directory and the recipe collection.
// Each service receives the document store at construction time.
package service

import (
	"context"
	"errors"

	"github.com/patric-chuzhbe/recipes/internal/models"
	"github.com/patric-chuzhbe/recipes/internal/user"
)

// ErrUserExists is returned by UserService.Add when the username is taken.
var ErrUserExists = errors.New("user already exists")

type usersKeeper interface {
	GetUsers(ctx context.Context) ([]user.User, error)
	InsertUser(ctx context.Context, usr user.User) error
}

type ingredientsKeeper interface {
	GetIngredients(ctx context.Context) ([]models.Ingredient, error)
	InsertIngredient(ctx context.Context, ingredient models.Ingredient) error
}

type recipesKeeper interface {
	GetRecipes(ctx context.Context) ([]models.Recipe, error)
	SetRecipes(ctx context.Context, recipes []models.Recipe) error
}

// UserService manages user records.
type UserService interface {
	Exists(ctx context.Context, username string) (bool, error)
	GetUserByUsername(ctx context.Context, username string) (*user.User, error)
	GetUserByID(ctx context.Context, userID int) (*user.User, error)
	Add(ctx context.Context, username, password string) (*user.User, error)
	Authorize(ctx context.Context, username, password string) (bool, error)
}

// IngredientService resolves ingredient names to records, creating them on first use.
type IngredientService interface {
	GetOrAdd(ctx context.Context, name string) (*models.Ingredient, error)
	GetOrAddMany(ctx context.Context, names []string) ([]models.Ingredient, error)
	List(ctx context.Context) ([]models.Ingredient, error)
	GetByID(ctx context.Context, ingredientID int) (*models.Ingredient, error)
}

// RecipeService replaces and reads the recipes collection.
type RecipeService interface {
	Replace(ctx context.Context, recipes []models.Recipe) error
	List(ctx context.Context) ([]models.Recipe, error)
	GetByID(ctx context.Context, recipeID string) (*models.Recipe, error)
}
