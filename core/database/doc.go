// Package database opens the connection backing the record store.
//
// The default driver is SQLite: each scanned volume carries its own database
// file at <root>/.fileIntegrity/FileIntegrity.db, and the store directory is
// created and hidden on first use. A MySQL server can be configured instead
// to keep the catalog of several volumes in one place.
//
// # Schema Inspection
//
// GetTableColumns and MissingColumns read the live schema so the record store
// can confirm that a migrated table carries every column it relies on.
//
// # Usage
//
//	cfg.Path = database.StorePath(root, ".fileIntegrity", "FileIntegrity.db")
//	db, err := database.Connect(cfg)
//	if err != nil {
//	    return err
//	}
//	defer database.Close(db)
package database
