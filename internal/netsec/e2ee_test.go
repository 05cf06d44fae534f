package netsec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewChatKey(t *testing.T) {
	require := require.New(t)

	a, err := NewChatKey()
	require.NoError(err)
	require.Len(a, KeySize)

	b, err := NewChatKey()
	require.NoError(err)
	require.NotEqual(a, b)
}

func TestSealOpenRoundTrip(t *testing.T) {
	require := require.New(t)

	key, err := NewChatKey()
	require.NoError(err)

	nonce, ct, err := Seal(key, []byte("hello"))
	require.NoError(err)
	require.Len(nonce, NonceSize)
	require.NotEqual([]byte("hello"), ct)

	pt, err := Open(key, nonce, ct)
	require.NoError(err)
	require.Equal([]byte("hello"), pt)
}

func TestSealFreshNonces(t *testing.T) {
	require := require.New(t)

	key, err := NewChatKey()
	require.NoError(err)

	n1, _, err := Seal(key, []byte("x"))
	require.NoError(err)
	n2, _, err := Seal(key, []byte("x"))
	require.NoError(err)
	require.NotEqual(n1, n2)
}

func TestOpenWrongKey(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	key, err := NewChatKey()
	require.NoError(err)
	other, err := NewChatKey()
	require.NoError(err)

	nonce, ct, err := Seal(key, []byte("secret"))
	require.NoError(err)

	pt, err := Open(other, nonce, ct)
	assert.ErrorIs(err, ErrDecrypt)
	assert.Nil(pt)
}

func TestOpenTamperedCiphertext(t *testing.T) {
	require := require.New(t)

	key, err := NewChatKey()
	require.NoError(err)
	nonce, ct, err := Seal(key, []byte("secret"))
	require.NoError(err)

	ct[0] ^= 0x01
	_, err = Open(key, nonce, ct)
	require.ErrorIs(err, ErrDecrypt)
}

func TestBadParameters(t *testing.T) {
	assert := assert.New(t)

	_, _, err := Seal(make([]byte, 7), []byte("x"))
	assert.Error(err)

	key, err := NewChatKey()
	assert.NoError(err)
	_, err = Open(key, make([]byte, 3), []byte("x"))
	assert.Error(err)
	assert.NotErrorIs(err, ErrDecrypt)
}
