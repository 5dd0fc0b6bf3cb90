package db_test

import (
	"testing"

	"github.com/KAsare1/Postly-server/cmd/config"
	"github.com/KAsare1/Postly-server/cmd/models"
	"github.com/KAsare1/Postly-server/db"
	"github.com/KAsare1/Postly-server/db/dbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, "file:x.db?_foreign_keys=on", db.SQLiteDSN("file:x.db"))
	assert.Equal(t, "file:x?mode=memory&_foreign_keys=on", db.SQLiteDSN("file:x?mode=memory"))
	assert.Equal(t, "file:x?_fk=1", db.SQLiteDSN("file:x?_fk=1"))
}

func TestNewStorageRejectsUnknownDriver(t *testing.T) {
	_, err := db.NewStorage(config.Config{DBDriver: "oracle"}, dbtest.Logger(t))
	require.Error(t, err)
}

func TestMigrateAndDropAll(t *testing.T) {
	conn := dbtest.Open(t)

	for _, model := range models.All() {
		assert.True(t, conn.Migrator().HasTable(model), "%T", model)
	}
	assert.True(t, conn.Migrator().HasIndex(&models.Follow{}, "idx_follows_user_author"))

	require.NoError(t, db.DropAll(conn, dbtest.Logger(t)))
	for _, model := range models.All() {
		assert.False(t, conn.Migrator().HasTable(model), "%T", model)
	}
}
