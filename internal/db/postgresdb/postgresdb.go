// Package postgresdb keeps the document in PostgreSQL as a single jsonb row.
// The row is loaded once on start and upserted whole after every mutation,
// so the storage semantics are the same as for the JSON file.
package postgresdb

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/patric-chuzhbe/recipes/internal/db/jsondb"
	"github.com/patric-chuzhbe/recipes/internal/models"
)

// DocumentName is the primary key of the row holding the document.
const DocumentName = "db"

//go:embed migrations/*.sql
var embedMigrations embed.FS

// PostgresDB is a PostgreSQL-backed document store.
type PostgresDB struct {
	*jsondb.JSONDB
	database          *sql.DB
	connectionTimeout time.Duration
}

type initOptions struct {
	DBPreReset bool
}

// InitOption defines a functional option for configuring database initialization.
type InitOption func(*initOptions)

// WithDBPreReset drops every table in the public schema before migrating.
// It is intended for test setups.
func WithDBPreReset(value bool) InitOption {
	return func(options *initOptions) {
		options.DBPreReset = value
	}
}

// New connects to PostgreSQL, applies the embedded migrations and loads the document.
func New(
	ctx context.Context,
	databaseDSN string,
	connectionTimeout time.Duration,
	optionsProto ...InitOption,
) (*PostgresDB, error) {
	options := &initOptions{
		DBPreReset: false,
	}
	for _, protoOption := range optionsProto {
		protoOption(options)
	}

	database, err := sql.Open("pgx", databaseDSN)
	if err != nil {
		return nil, err
	}

	return newWithDatabase(ctx, database, connectionTimeout, options)
}

// newWithDatabase takes ownership of database and closes it when preparation fails.
func newWithDatabase(
	ctx context.Context,
	database *sql.DB,
	connectionTimeout time.Duration,
	options *initOptions,
) (*PostgresDB, error) {
	result := &PostgresDB{
		database:          database,
		connectionTimeout: connectionTimeout,
	}

	doc, err := result.prepare(ctx, options)
	if err != nil {
		if closeErr := database.Close(); closeErr != nil {
			err = errors.Join(err, closeErr)
		}
		return nil, err
	}

	result.JSONDB = jsondb.NewWithFlusher(doc, result.saveDocument)

	return result, nil
}

// prepare resets the schema when asked, applies the migrations and loads the document.
func (db *PostgresDB) prepare(ctx context.Context, options *initOptions) (*models.Document, error) {
	if options.DBPreReset {
		if err := db.resetDB(ctx); err != nil {
			return nil,
				fmt.Errorf(
					"in internal/db/postgresdb/postgresdb.go/prepare(): error while `db.resetDB()` calling: %w",
					err,
				)
		}
	}

	goose.SetBaseFS(embedMigrations)

	if err := goose.SetDialect("postgres"); err != nil {
		return nil,
			fmt.Errorf(
				"in internal/db/postgresdb/postgresdb.go/prepare(): error while `goose.SetDialect()` calling: %w",
				err,
			)
	}

	if err := goose.Up(db.database, "migrations"); err != nil {
		return nil,
			fmt.Errorf(
				"in internal/db/postgresdb/postgresdb.go/prepare(): error while `goose.Up()` calling: %w",
				err,
			)
	}

	doc, err := db.loadDocument(ctx)
	if err != nil {
		return nil,
			fmt.Errorf(
				"in internal/db/postgresdb/postgresdb.go/prepare(): error while `db.loadDocument()` calling: %w",
				err,
			)
	}

	return doc, nil
}

func (db *PostgresDB) loadDocument(ctx context.Context) (*models.Document, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, db.connectionTimeout)
	defer cancel()

	var body []byte
	err := db.database.QueryRowContext(
		ctxWithTimeout,
		`SELECT body FROM documents WHERE name = $1`,
		DocumentName,
	).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return models.NewDocument(), nil
	}
	if err != nil {
		return nil, err
	}

	doc := models.NewDocument()
	if err := json.Unmarshal(body, doc); err != nil {
		return nil, err
	}

	return doc, nil
}

func (db *PostgresDB) saveDocument(ctx context.Context, doc *models.Document) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, db.connectionTimeout)
	defer cancel()

	_, err = db.database.ExecContext(
		ctxWithTimeout,
		`
			INSERT INTO documents (name, body, updated_at)
				VALUES ($1, $2, now())
				ON CONFLICT (name) DO UPDATE
				SET
					body = EXCLUDED.body,
					updated_at = EXCLUDED.updated_at
		`,
		DocumentName,
		body,
	)
	if err != nil {
		return fmt.Errorf(
			"in internal/db/postgresdb/postgresdb.go/saveDocument(): error while `db.database.ExecContext()` calling: %w",
			err,
		)
	}

	return nil
}

// Ping verifies connectivity with the PostgreSQL database within the configured timeout.
func (db *PostgresDB) Ping(ctx context.Context) error {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, db.connectionTimeout)
	defer cancel()

	return db.database.PingContext(ctxWithTimeout)
}

// Close closes the database connection. The document is already flushed
// after each mutation, so nothing is written here.
func (db *PostgresDB) Close() error {
	return db.database.Close()
}

func (db *PostgresDB) resetDB(ctx context.Context) error {
	_, err := db.database.ExecContext(
		ctx,
		`
			DO $$
			DECLARE
				r RECORD;
			BEGIN
				FOR r IN (SELECT tablename FROM pg_tables WHERE schemaname = 'public') LOOP
					EXECUTE 'DROP TABLE IF EXISTS ' || quote_ident(r.tablename) || ' CASCADE';
				END LOOP;
			END $$;
		`,
	)
	if err != nil {
		return fmt.Errorf(
			"in internal/db/postgresdb/postgresdb.go/resetDB(): error while `db.database.ExecContext()` calling: %w",
			err,
		)
	}
	return nil
}
