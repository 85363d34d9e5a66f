// Package mockstorage provides a testify-based mock implementation
// of the document store used by the services and the router.
package mockstorage

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/patric-chuzhbe/recipes/internal/models"
	"github.com/patric-chuzhbe/recipes/internal/user"
)

// StorageMock is a testify mock implementing storage.Storage.
type StorageMock struct {
	mock.Mock
}

// GetUsers mocks reading the users collection.
func (m *StorageMock) GetUsers(ctx context.Context) ([]user.User, error) {
	args := m.Called(ctx)
	users, _ := args.Get(0).([]user.User)
	return users, args.Error(1)
}

// InsertUser mocks appending a user and flushing the document.
func (m *StorageMock) InsertUser(ctx context.Context, usr user.User) error {
	args := m.Called(ctx, usr)
	return args.Error(0)
}

// GetIngredients mocks reading the ingredients collection.
func (m *StorageMock) GetIngredients(ctx context.Context) ([]models.Ingredient, error) {
	args := m.Called(ctx)
	ingredients, _ := args.Get(0).([]models.Ingredient)
	return ingredients, args.Error(1)
}

// InsertIngredient mocks appending an ingredient and flushing the document.
func (m *StorageMock) InsertIngredient(ctx context.Context, ingredient models.Ingredient) error {
	args := m.Called(ctx, ingredient)
	return args.Error(0)
}

// GetRecipes mocks reading the recipes collection.
func (m *StorageMock) GetRecipes(ctx context.Context) ([]models.Recipe, error) {
	args := m.Called(ctx)
	recipes, _ := args.Get(0).([]models.Recipe)
	return recipes, args.Error(1)
}

// SetRecipes mocks replacing the recipes collection.
func (m *StorageMock) SetRecipes(ctx context.Context, recipes []models.Recipe) error {
	args := m.Called(ctx, recipes)
	return args.Error(0)
}

// GetStats mocks the collection counters.
func (m *StorageMock) GetStats(ctx context.Context) (models.InternalStatsResponse, error) {
	args := m.Called(ctx)
	stats, _ := args.Get(0).(models.InternalStatsResponse)
	return stats, args.Error(1)
}

// Ping mocks the storage health check.
func (m *StorageMock) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// Close mocks closing the storage.
func (m *StorageMock) Close() error {
	args := m.Called()
	return args.Error(0)
}
