package memorystorage

import (
	"context"

	"github.com/patric-chuzhbe/recipes/internal/db/jsondb"
	"github.com/patric-chuzhbe/recipes/internal/models"
)

type MemoryStorage struct {
	*jsondb.JSONDB
}

func New() (*MemoryStorage, error) {
	return &MemoryStorage{
		JSONDB: jsondb.NewWithFlusher(models.NewDocument(), nil),
	}, nil
}

func (theStorage *MemoryStorage) Close() error {
	return nil
}

func (theStorage *MemoryStorage) Ping(ctx context.Context) error {
	return nil
}
