package database

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	f, err := os.CreateTemp("", "resumectl-test-*.db")
	require.NoError(t, err)
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := Open(f.Name())
	require.NoError(t, err, "Open")
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	for _, table := range []string{
		"users", "contact_info", "documents", "sections", "educations", "experiences",
		"text_snippets", "skills", "documents_x_sections", "documents_x_educations",
		"documents_x_experiences", "documents_x_skills", "experiences_x_text_snippets",
	} {
		var count int
		err := db.QueryRowContext(ctx, `SELECT count(*) FROM `+table).Scan(&count)
		assert.NoError(t, err, "table %s missing", table)
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	f, err := os.CreateTemp("", "resumectl-test-*.db")
	require.NoError(t, err)
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	first, err := Open(f.Name())
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := Open(f.Name())
	require.NoError(t, err)
	require.NoError(t, second.Close())
}

func TestSeedSections(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	require.NoError(t, db.SeedSections(ctx, []string{"Education", "Experience"}))
	require.NoError(t, db.SeedSections(ctx, []string{"Experience", "Skills"}))

	var count int
	require.NoError(t, db.QueryRowContext(ctx, `SELECT count(*) FROM sections`).Scan(&count))
	assert.Equal(t, 3, count)
}

func TestTranslateUniqueViolation(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	_, err := db.ExecContext(ctx, `INSERT INTO users (username, password) VALUES ('user1', 'x')`)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `INSERT INTO users (username, password) VALUES ('user1', 'y')`)
	assert.ErrorIs(t, err, ErrUniqueViolation)
}

func TestTranslateForeignKeyViolation(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	_, err := db.ExecContext(ctx,
		`INSERT INTO documents (document_name, owner, created_on) VALUES ('doc', 'ghost', CURRENT_TIMESTAMP)`)
	assert.ErrorIs(t, err, ErrForeignKeyViolation)
}

func TestTranslatePassesThroughOtherErrors(t *testing.T) {
	plain := errors.New("boom")
	assert.Same(t, plain, Translate(plain))
	assert.NoError(t, Translate(nil))
}

func TestInTxRollsBackOnError(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	sentinel := errors.New("abort")

	err := db.InTx(ctx, func(q Querier) error {
		if _, err := q.ExecContext(ctx, `INSERT INTO users (username, password) VALUES ('user1', 'x')`); err != nil {
			return err
		}
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)

	var count int
	require.NoError(t, db.QueryRowContext(ctx, `SELECT count(*) FROM users`).Scan(&count))
	assert.Zero(t, count)
}

func TestInTxCommits(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	err := db.InTx(ctx, func(q Querier) error {
		_, err := q.ExecContext(ctx, `INSERT INTO users (username, password) VALUES ('user1', 'x')`)
		return err
	})
	require.NoError(t, err)

	var count int
	require.NoError(t, db.QueryRowContext(ctx, `SELECT count(*) FROM users`).Scan(&count))
	assert.Equal(t, 1, count)
}
