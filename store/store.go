// Package store implements the durable repositories behind the derivation
// pipeline: stops, routes, flights, datasets, graph metadata, and build
// claims, all backed by sqlite through gorm.
package store

import (
	"errors"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	_ "modernc.org/sqlite"
)

var (
	// ErrNoDataset means no dataset has been imported yet.
	ErrNoDataset = errors.New("store: no dataset")
	// ErrNotFound is returned for missing records on point lookups.
	ErrNotFound = errors.New("store: not found")
	// ErrClaimHeld means another run already claimed this stage for the
	// dataset version.
	ErrClaimHeld = errors.New("store: build claim already held")
)

// Store bundles all repositories over one database handle.
type Store struct {
	db *gorm.DB
}

// Open opens (or creates) the sqlite database and migrates the schema.
// The CGo-free modernc driver is used through gorm's sqlite dialector.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Dialector{
		DriverName: "sqlite",
		DSN:        path,
	}, &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}
	if path == ":memory:" {
		// Every pooled connection would otherwise open its own empty
		// in-memory database.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}
	if err := db.AutoMigrate(
		&stopModel{},
		&routeModel{},
		&flightModel{},
		&datasetModel{},
		&graphMetadataModel{},
		&buildClaimModel{},
	); err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// OpenMemory opens an in-memory database, used by tests.
func OpenMemory() (*Store, error) {
	return Open(":memory:")
}
