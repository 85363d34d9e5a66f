// Package jsondb implements the document store on top of a single JSON file.
// The document is read wholesale on start and rewritten wholesale after every mutation.
package jsondb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/patric-chuzhbe/recipes/internal/models"
	"github.com/patric-chuzhbe/recipes/internal/user"
)

// Flusher persists the whole document. It is called with the store lock held.
type Flusher func(ctx context.Context, doc *models.Document) error

type JSONDB struct {
	mu       sync.RWMutex
	fileName string
	flush    Flusher
	Cache    *models.Document
}

// New loads the document from fileName, creating the file with
// empty collections when it does not exist yet.
func New(fileName string) (*JSONDB, error) {
	db := &JSONDB{
		fileName: fileName,
		Cache:    models.NewDocument(),
	}
	db.flush = db.writeToJSONFile

	err := parseJSONFile(fileName, db.Cache)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("in internal/db/jsondb/jsondb.go/New(): error while `parseJSONFile()` calling: %w", err)
		}
		if err := db.writeToJSONFile(context.Background(), db.Cache); err != nil {
			return nil, fmt.Errorf("in internal/db/jsondb/jsondb.go/New(): error while `db.writeToJSONFile()` calling: %w", err)
		}
	}
	normalize(db.Cache)

	return db, nil
}

// NewWithFlusher wraps an already loaded document. A nil flusher keeps
// the document in memory only.
func NewWithFlusher(doc *models.Document, flusher Flusher) *JSONDB {
	if doc == nil {
		doc = models.NewDocument()
	}
	normalize(doc)

	return &JSONDB{
		flush: flusher,
		Cache: doc,
	}
}

func normalize(doc *models.Document) {
	if doc.Users == nil {
		doc.Users = []user.User{}
	}
	if doc.Ingredients == nil {
		doc.Ingredients = []models.Ingredient{}
	}
	if doc.Recipes == nil {
		doc.Recipes = []models.Recipe{}
	}
}

func parseJSONFile(fileName string, doc *models.Document) error {
	file, err := os.Open(fileName)
	if err != nil {
		return err
	}
	defer file.Close()

	// An empty file holds the default document.
	if err := json.NewDecoder(file).Decode(doc); err != nil && !errors.Is(err, io.EOF) {
		return err
	}

	return nil
}

func (db *JSONDB) writeToJSONFile(_ context.Context, doc *models.Document) error {
	jsonData, err := json.MarshalIndent(doc, "", "\t")
	if err != nil {
		return fmt.Errorf("error marshaling JSON: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(db.fileName), filepath.Base(db.fileName)+".*.tmp")
	if err != nil {
		return fmt.Errorf("error creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(jsonData); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("error writing to file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("error closing file: %w", err)
	}

	if err := os.Rename(tmpName, db.fileName); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("error replacing file: %w", err)
	}

	return nil
}

// commit flushes the candidate document and only then makes it current,
// so a failed write leaves the in-memory state untouched.
func (db *JSONDB) commit(ctx context.Context, candidate *models.Document) error {
	if db.flush != nil {
		if err := db.flush(ctx, candidate); err != nil {
			return err
		}
	}
	db.Cache = candidate

	return nil
}

func (db *JSONDB) GetUsers(_ context.Context) ([]user.User, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return slices.Clone(db.Cache.Users), nil
}

func (db *JSONDB) InsertUser(ctx context.Context, usr user.User) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	candidate := *db.Cache
	candidate.Users = append(slices.Clone(db.Cache.Users), usr)

	return db.commit(ctx, &candidate)
}

func (db *JSONDB) GetIngredients(_ context.Context) ([]models.Ingredient, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return slices.Clone(db.Cache.Ingredients), nil
}

func (db *JSONDB) InsertIngredient(ctx context.Context, ingredient models.Ingredient) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	candidate := *db.Cache
	candidate.Ingredients = append(slices.Clone(db.Cache.Ingredients), ingredient)

	return db.commit(ctx, &candidate)
}

func (db *JSONDB) GetRecipes(_ context.Context) ([]models.Recipe, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return slices.Clone(db.Cache.Recipes), nil
}

// SetRecipes replaces the whole recipes collection.
func (db *JSONDB) SetRecipes(ctx context.Context, recipes []models.Recipe) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	candidate := *db.Cache
	candidate.Recipes = slices.Clone(recipes)
	if candidate.Recipes == nil {
		candidate.Recipes = []models.Recipe{}
	}

	return db.commit(ctx, &candidate)
}

func (db *JSONDB) GetStats(_ context.Context) (models.InternalStatsResponse, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return models.InternalStatsResponse{
		Users:       int64(len(db.Cache.Users)),
		Ingredients: int64(len(db.Cache.Ingredients)),
		Recipes:     int64(len(db.Cache.Recipes)),
	}, nil
}

func (db *JSONDB) Ping(_ context.Context) error {
	if db.fileName == "" {
		return nil
	}
	_, err := os.Stat(db.fileName)

	return err
}

// Close writes the document one last time.
func (db *JSONDB) Close() error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.flush == nil {
		return nil
	}

	return db.flush(context.Background(), db.Cache)
}
