package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/thoas/go-funk"

	"github.com/patric-chuzhbe/recipes/internal/models"
)

// Ingredients is the IngredientService backed by the document store.
type Ingredients struct {
	mu sync.Mutex
	db ingredientsKeeper
}

var _ IngredientService = (*Ingredients)(nil)

func NewIngredients(db ingredientsKeeper) *Ingredients {
	return &Ingredients{db: db}
}

// nextIngredientID is max(ids)+1, or 1 for an empty collection.
func nextIngredientID(ingredients []models.Ingredient) int {
	if len(ingredients) == 0 {
		return 1
	}

	ids := funk.Map(ingredients, func(i models.Ingredient) int { return i.ID }).([]int)

	return funk.MaxInt(ids) + 1
}

func (s *Ingredients) getOrAdd(ctx context.Context, name string) (*models.Ingredient, error) {
	ingredients, err := s.db.GetIngredients(ctx)
	if err != nil {
		return nil, err
	}

	for _, existing := range ingredients {
		if existing.Name == name {
			found := existing
			return &found, nil
		}
	}

	ingredient := models.Ingredient{
		ID:   nextIngredientID(ingredients),
		Name: name,
	}
	if err := s.db.InsertIngredient(ctx, ingredient); err != nil {
		return nil, fmt.Errorf("in internal/service/ingredients.go/getOrAdd(): error while `s.db.InsertIngredient()` calling: %w", err)
	}

	return &ingredient, nil
}

// GetOrAdd returns the ingredient with exactly this name, creating it when absent.
func (s *Ingredients) GetOrAdd(ctx context.Context, name string) (*models.Ingredient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.getOrAdd(ctx, name)
}

// GetOrAddMany resolves every name in order. Repeated names resolve to the same record.
func (s *Ingredients) GetOrAddMany(ctx context.Context, names []string) ([]models.Ingredient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]models.Ingredient, 0, len(names))
	for _, name := range names {
		ingredient, err := s.getOrAdd(ctx, name)
		if err != nil {
			return nil, err
		}
		result = append(result, *ingredient)
	}

	return result, nil
}

func (s *Ingredients) List(ctx context.Context) ([]models.Ingredient, error) {
	return s.db.GetIngredients(ctx)
}

// GetByID returns nil without an error when the ingredient is absent.
func (s *Ingredients) GetByID(ctx context.Context, ingredientID int) (*models.Ingredient, error) {
	ingredients, err := s.db.GetIngredients(ctx)
	if err != nil {
		return nil, err
	}

	for _, ingredient := range ingredients {
		if ingredient.ID == ingredientID {
			found := ingredient
			return &found, nil
		}
	}

	return nil, nil
}
