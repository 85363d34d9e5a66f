package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/patric-chuzhbe/recipes/internal/models"
)

// Recipes is the RecipeService backed by the document store.
type Recipes struct {
	db recipesKeeper
}

var _ RecipeService = (*Recipes)(nil)

func NewRecipes(db recipesKeeper) *Recipes {
	return &Recipes{db: db}
}

// Replace swaps the whole recipes collection as sent, drafts included.
// Recipes without an id get a UUID.
func (s *Recipes) Replace(ctx context.Context, recipes []models.Recipe) error {
	prepared := make([]models.Recipe, len(recipes))
	for i, recipe := range recipes {
		if recipe.ID == "" {
			recipe.ID = uuid.New().String()
		}
		prepared[i] = recipe
	}

	if err := s.db.SetRecipes(ctx, prepared); err != nil {
		return fmt.Errorf("in internal/service/recipes.go/Replace(): error while `s.db.SetRecipes()` calling: %w", err)
	}

	return nil
}

func (s *Recipes) List(ctx context.Context) ([]models.Recipe, error) {
	return s.db.GetRecipes(ctx)
}

// GetByID returns nil without an error when the recipe is absent.
func (s *Recipes) GetByID(ctx context.Context, recipeID string) (*models.Recipe, error) {
	recipes, err := s.db.GetRecipes(ctx)
	if err != nil {
		return nil, err
	}

	for _, recipe := range recipes {
		if recipe.ID == recipeID {
			found := recipe
			return &found, nil
		}
	}

	return nil, nil
}
