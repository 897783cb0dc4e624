package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"rwid/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "storage.json")
	store, err := NewFileStore(path)
	require.NoError(t, err)

	rec, err := store.Read(ctx)
	require.NoError(t, err)
	assert.Nil(t, rec, "missing file reads as no session")

	require.NoError(t, store.Write(ctx, Record{UserID: "u1", Role: models.RoleOwner, Token: "tok"}))

	rec, err = store.Read(ctx)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "u1", rec.UserID)
	assert.Equal(t, models.RoleOwner, rec.Role)
	assert.Equal(t, "tok", rec.Token)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	require.NoError(t, store.Clear(ctx))
	rec, err = store.Read(ctx)
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestFileStore_KeepsOtherKeys(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "storage.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"theme":"dark"}`), 0o600))

	store, err := NewFileStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Write(ctx, Record{UserID: "u1", Role: models.RoleMember}))
	require.NoError(t, store.Clear(ctx))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"theme": "dark"`)
	assert.NotContains(t, string(data), Key)
}

func TestFileStore_UnparseableRecord(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"corrupt file", `{not json`},
		{"corrupt record", `{"rwid_session":"{oops"}`},
		{"record without user", `{"rwid_session":"{\"role\":\"member\"}"}`},
		{"empty file", ``},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "storage.json")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o600))
			store, err := NewFileStore(path)
			require.NoError(t, err)

			rec, err := store.Read(context.Background())
			require.NoError(t, err)
			assert.Nil(t, rec)
		})
	}
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	rec, err := store.Read(ctx)
	require.NoError(t, err)
	assert.Nil(t, rec)

	require.NoError(t, store.Write(ctx, Record{UserID: "u2", Role: models.RoleMember}))
	rec, err = store.Read(ctx)
	require.NoError(t, err)
	require.NotNil(t, rec)
	rec.UserID = "mutated"

	again, err := store.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, "u2", again.UserID, "Read returns a copy")

	require.NoError(t, store.Clear(ctx))
	rec, err = store.Read(ctx)
	require.NoError(t, err)
	assert.Nil(t, rec)
}
