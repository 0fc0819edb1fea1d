package seed

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"shareit/internal/database"
	"shareit/internal/models"
	"shareit/internal/service"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixtureYAML = `
users:
  - name: Ann
    email: ann@example.com
  - name: Bob
    email: bob@example.com
items:
  - name: Drill
    description: Cordless drill
    available: true
    owner_email: ann@example.com
  - name: Tent
    description: Four person tent
    available: false
    owner_email: bob@example.com
  - name: Orphan
    description: Nobody owns this
    available: true
    owner_email: nobody@example.com
`

func writeFixture(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(fixtureYAML), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	f, err := Load(writeFixture(t))
	require.NoError(t, err)

	require.Len(t, f.Users, 2)
	assert.Equal(t, "ann@example.com", f.Users[0].Email)
	require.Len(t, f.Items, 3)
	assert.Equal(t, "Drill", f.Items[0].Name)
	assert.True(t, f.Items[0].Available)
	assert.False(t, f.Items[1].Available)
	assert.Equal(t, "bob@example.com", f.Items[1].OwnerEmail)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("users: [oops"), 0o600))
	_, err = Load(path)
	assert.Error(t, err)
}

func TestApplyIsRepeatable(t *testing.T) {
	logger := zerolog.Nop()
	db, err := database.NewDB(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	users := service.NewUserService(db, &logger)
	items := service.NewItemService(db, &logger)
	ctx := context.Background()

	f, err := Load(writeFixture(t))
	require.NoError(t, err)

	res, err := Apply(ctx, users, items, f, &logger)
	require.NoError(t, err)
	assert.Equal(t, Result{Users: 2, Items: 2, Skipped: 1}, res)

	owned, err := db.GetItemsByOwner(ctx, 1, models.Page{Limit: 10})
	require.NoError(t, err)
	require.Len(t, owned, 1)
	assert.Equal(t, "Drill", owned[0].Name)

	res, err = Apply(ctx, users, items, f, &logger)
	require.NoError(t, err)
	assert.Equal(t, Result{Skipped: 5}, res)
}
