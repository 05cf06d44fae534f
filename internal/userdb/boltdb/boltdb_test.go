package boltdb

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goparley/internal/userdb"
)

func TestAddAuthenticate(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	d, err := New(filepath.Join(t.TempDir(), "users.db"))
	require.NoError(err)
	defer d.Close()

	assert.ErrorIs(d.Authenticate("alice", "pw1"), userdb.ErrNoSuchUser)

	require.NoError(d.Add("alice", "pw1"))
	assert.NoError(d.Authenticate("alice", "pw1"))
	assert.ErrorIs(d.Authenticate("alice", "wrong"), userdb.ErrWrongPassword)

	require.Error(d.Add("alice", "other"))
	require.Error(d.Add("", "pw"))
	require.Error(d.Add("with:colon", "pw"))
}

func TestReopenPersists(t *testing.T) {
	require := require.New(t)

	path := filepath.Join(t.TempDir(), "users.db")
	d, err := New(path)
	require.NoError(err)
	require.NoError(d.Add("bob", "pw2"))
	d.Close()

	d2, err := New(path)
	require.NoError(err)
	defer d2.Close()
	require.NoError(d2.Authenticate("bob", "pw2"))
}
