// Package testutil provides shared test helpers for setting up databases and
// users.
package testutil

import (
	"context"
	"os"
	"testing"

	"github.com/starford/resumectl/internal/database"
	"github.com/starford/resumectl/internal/models"
)

// DefaultSections are seeded into every TestDB.
var DefaultSections = []string{"Education", "Experience", "Skills"}

// TestDB creates a temporary SQLite database, seeded with DefaultSections,
// that is automatically cleaned up.
func TestDB(t *testing.T) *database.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "resumectl-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() {
		os.Remove(dbFile.Name())
		os.Remove(dbFile.Name() + "-wal")
		os.Remove(dbFile.Name() + "-shm")
	})

	db, err := database.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.SeedSections(context.Background(), DefaultSections); err != nil {
		t.Fatal(err)
	}
	return db
}

// TestUser inserts a user with a placeholder password hash and its master
// document, and returns the master document.
func TestUser(t *testing.T, db *database.DB, username string) *models.Document {
	t.Helper()
	ctx := context.Background()
	var master *models.Document
	err := db.InTx(ctx, func(q database.Querier) error {
		if _, err := models.AddUser(ctx, q, username, "not-a-hash"); err != nil {
			return err
		}
		var err error
		master, err = models.AddDocument(ctx, q, models.NewDocument{
			DocumentName: models.MasterDocumentName,
			Owner:        username,
			IsMaster:     true,
		})
		return err
	})
	if err != nil {
		t.Fatal(err)
	}
	return master
}
