package secret

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStoreFetch(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cdn_signing_key.pem"), []byte("key-material"), 0600))

	store := NewFileStore(dir)
	material, err := store.Fetch(context.Background(), "cdn_signing_key.pem")
	require.NoError(t, err)
	assert.Equal(t, []byte("key-material"), material)
}

func TestFileStoreMissingSecret(t *testing.T) {
	store := NewFileStore(t.TempDir())

	_, err := store.Fetch(context.Background(), "nope.pem")
	assert.Error(t, err)
}

func TestFileStorePath(t *testing.T) {
	store := NewFileStore("/etc/ariavault/secrets")
	assert.Equal(t, filepath.Join("/etc/ariavault/secrets", "k.pem"), store.Path("k.pem"))
}
