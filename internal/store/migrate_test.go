package store

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readMigration(t *testing.T, rc io.ReadCloser) string {
	t.Helper()
	defer rc.Close()
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	return string(body)
}

func TestEmbeddedMigrationsPairUpAndDown(t *testing.T) {
	src, err := iofs.New(migrationFiles, "migrations")
	require.NoError(t, err)
	defer src.Close()

	version, err := src.First()
	require.NoError(t, err)

	var versions []uint
	var upSQL string
	for {
		versions = append(versions, version)

		up, _, err := src.ReadUp(version)
		require.NoError(t, err, "up migration for version %d", version)
		upSQL += readMigration(t, up)

		down, _, err := src.ReadDown(version)
		require.NoError(t, err, "down migration for version %d", version)
		assert.NotEmpty(t, readMigration(t, down))

		version, err = src.Next(version)
		if errors.Is(err, fs.ErrNotExist) {
			break
		}
		require.NoError(t, err)
	}

	assert.Equal(t, uint(1), versions[0])
	for _, table := range []string{
		"profiles", "orders", "order_items", "payments", "prescriptions",
		"saved_addresses", "favorite_products", "notifications",
	} {
		assert.Contains(t, upSQL, "CREATE TABLE IF NOT EXISTS "+table+" (")
	}
}

func TestMigrateReportsDriverError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT CURRENT_DATABASE\(\)`).WillReturnError(errors.New("connection reset"))

	err = Migrate(context.Background(), db)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "migration driver")
	assert.NoError(t, mock.ExpectationsWereMet())
}
