package a

import (
	"example.com/db/jsondb"
	"example.com/db/storage"
)

var theDB *jsondb.JSONDB // want `package-level variable theDB holds a store handle, inject it instead`

var store storage.Storage // want `package-level variable store holds a store handle, inject it instead`

var (
	name        = "recipes"
	fallback, _ = newStore(), 1 // want `package-level variable fallback holds a store handle, inject it instead`
)

var _ storage.Storage = (*jsondb.JSONDB)(nil)

type server struct {
	db storage.Storage
}

func newStore() storage.Storage {
	return &jsondb.JSONDB{}
}

func run() error {
	var local storage.Storage = &jsondb.JSONDB{}
	s := server{db: local}
	_ = name
	return s.db.Close()
}
