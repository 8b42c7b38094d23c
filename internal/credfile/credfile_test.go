package credfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonimelisma/webstore-go/internal/store"
)

var testCreds = store.Credentials{
	ClientID:     "cid.apps.example.com",
	ClientSecret: "secret-456",
	RefreshToken: "refresh-789",
	PublisherID:  "pub-1",
}

func TestLoad_FileNotFound(t *testing.T) {
	creds, err := Load("/nonexistent/path/credentials.json")
	assert.Nil(t, creds)
	assert.NoError(t, err)
}

func TestSave_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")

	require.NoError(t, Save(path, testCreds))

	creds, err := Load(path)
	require.NoError(t, err)
	require.NotNil(t, creds)
	assert.Equal(t, testCreds, *creds)
}

func TestSave_WireFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	require.NoError(t, Save(path, testCreds))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"client_id": "cid.apps.example.com",
		"client_secret": "secret-456",
		"refresh_token": "refresh-789",
		"publisher_id": "pub-1"
	}`, string(data))
}

func TestLoad_MissingRefreshTokenIsPartial(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"client_id":"a","client_secret":"b"}`), 0o600))

	creds, err := Load(path)
	require.NoError(t, err)
	require.NotNil(t, creds)
	assert.Equal(t, "a", creds.ClientID)
	assert.Empty(t, creds.RefreshToken)
}

func TestLoad_InvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	require.NoError(t, os.WriteFile(path, []byte(`{not json}`), 0o600))

	creds, err := Load(path)
	assert.Nil(t, creds)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decoding")
}

func TestSave_CreatesDirectory(t *testing.T) {
	dir := t.TempDir()
	nested := filepath.Join(dir, "sub", "dir", "credentials.json")

	require.NoError(t, Save(nested, testCreds))

	info, err := os.Stat(nested)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(FilePerms), info.Mode().Perm())

	dirInfo, err := os.Stat(filepath.Dir(nested))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(DirPerms), dirInfo.Mode().Perm()&os.FileMode(DirPerms))
}

func TestSave_OverwritesAndLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "credentials.json")

	require.NoError(t, Save(path, testCreds))

	updated := testCreds
	updated.RefreshToken = "refresh-new"
	require.NoError(t, Save(path, updated))

	creds, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "refresh-new", creds.RefreshToken)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestSave_RequiresRefreshToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")

	err := Save(path, store.Credentials{ClientID: "a"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "refusing")

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestRemove_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	require.NoError(t, Save(path, testCreds))

	existed, err := Remove(path)
	require.NoError(t, err)
	assert.True(t, existed)

	existed, err = Remove(path)
	require.NoError(t, err)
	assert.False(t, existed)
}
