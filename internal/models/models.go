package models

import "github.com/patric-chuzhbe/recipes/internal/user"

type Ingredient struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type RecipeUnit string

const (
	RecipeUnitPieces   RecipeUnit = "pcs"
	RecipeUnitKilogram RecipeUnit = "kg"
	RecipeUnitGrams    RecipeUnit = "g"
	RecipeUnitCup      RecipeUnit = "cup(s)"
	RecipeUnitTeaSpoon RecipeUnit = "tsp"
)

// RecipeItem is a single ingredient line of a recipe phase.
type RecipeItem struct {
	Ordinal    int        `json:"ordinal"`
	Ingredient Ingredient `json:"ingredient"`
	Amount     float64    `json:"amount"`
	Unit       RecipeUnit `json:"unit"`
}

// RecipePhase is a single preparation phase of a recipe.
type RecipePhase struct {
	Name  string       `json:"name"`
	Items []RecipeItem `json:"items"`
}

type Recipe struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	ImageURL    string        `json:"imageUrl"`
	Phases      []RecipePhase `json:"phases"`
}

// Document is the whole persisted state: every collection lives in one serialized blob.
type Document struct {
	Users       []user.User  `json:"users"`
	Ingredients []Ingredient `json:"ingredients"`
	Recipes     []Recipe     `json:"recipes"`
}

// NewDocument returns a document with all collections present and empty.
func NewDocument() *Document {
	return &Document{
		Users:       []user.User{},
		Ingredients: []Ingredient{},
		Recipes:     []Recipe{},
	}
}

type AuthRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	Token string `json:"token"`
}

const (
	StatusOK    = "OK"
	StatusError = "ERROR"
)

type GenericResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type IngredientRequest struct {
	IngredientNames []string `json:"ingredientNames" validate:"required"`
}

type InternalStatsResponse struct {
	Users       int64 `json:"users"`
	Ingredients int64 `json:"ingredients"`
	Recipes     int64 `json:"recipes"`
}

const (
	StorageTypeUnknown = iota
	StorageTypePostgresql
	StorageTypeFile
	StorageTypeMemory
)
