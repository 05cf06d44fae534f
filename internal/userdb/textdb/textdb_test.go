package textdb

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/op/go-logging.v1"

	"goparley/internal/userdb"
)

func testLogger() *logging.Logger {
	return logging.MustGetLogger("textdb_test")
}

func TestNewCreatesMissingFile(t *testing.T) {
	require := require.New(t)

	path := filepath.Join(t.TempDir(), "users.txt")
	d, err := New(path, testLogger())
	require.NoError(err)
	defer d.Close()

	_, err = os.Stat(path)
	require.NoError(err)
	require.ErrorIs(d.Authenticate("anyone", "pw"), userdb.ErrNoSuchUser)
}

func TestLoadSkipsMalformedLines(t *testing.T) {
	require := require.New(t)

	path := filepath.Join(t.TempDir(), "users.txt")
	records := "alice:pw1\n\nno-colon-here\n:orphan\nbob:pw2\n"
	require.NoError(os.WriteFile(path, []byte(records), 0600))

	d, err := New(path, testLogger())
	require.NoError(err)
	defer d.Close()

	require.NoError(d.Authenticate("alice", "pw1"))
	require.NoError(d.Authenticate("bob", "pw2"))
	require.ErrorIs(d.Authenticate("no-colon-here", ""), userdb.ErrNoSuchUser)
}

func TestAuthenticate(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	path := filepath.Join(t.TempDir(), "users.txt")
	require.NoError(os.WriteFile(path, []byte("alice:pw1\n"), 0600))

	d, err := New(path, testLogger())
	require.NoError(err)
	defer d.Close()

	assert.NoError(d.Authenticate("alice", "pw1"))
	assert.ErrorIs(d.Authenticate("alice", "wrong"), userdb.ErrWrongPassword)
	assert.ErrorIs(d.Authenticate("mallory", "pw1"), userdb.ErrNoSuchUser)
}

func TestAddPersists(t *testing.T) {
	require := require.New(t)

	path := filepath.Join(t.TempDir(), "users.txt")
	d, err := New(path, testLogger())
	require.NoError(err)

	require.NoError(d.Add("carol", "pw3"))
	require.NoError(d.Authenticate("carol", "pw3"))
	require.Error(d.Add("carol", "other"))
	d.Close()

	// A fresh load sees the appended record.
	d2, err := New(path, testLogger())
	require.NoError(err)
	defer d2.Close()
	require.NoError(d2.Authenticate("carol", "pw3"))
}

func TestAddRejectsInvalidNicknames(t *testing.T) {
	require := require.New(t)

	path := filepath.Join(t.TempDir(), "users.txt")
	d, err := New(path, testLogger())
	require.NoError(err)
	defer d.Close()

	require.Error(d.Add("", "pw"))
	require.Error(d.Add("with:colon", "pw"))
}
