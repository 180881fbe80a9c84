package cryptox

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/saverpwd/internal/common"
)

func TestPasswordHash_Snapshot(t *testing.T) {
	got := PasswordHash("alice", "pw1")
	assert.Equal(t, "520a220d8e47cd510977040451af943aafe65d68adcc3355ce019b97fa923779", got)
	assert.Len(t, got, 64)

	// the sha256 key is the raw form of the same digest
	assert.Equal(t, got, hex.EncodeToString(DeriveKey("alice", "pw1")))
}

func TestPasswordHash_DependsOnBothParts(t *testing.T) {
	base := PasswordHash("alice", "pw1")
	assert.NotEqual(t, base, PasswordHash("alice", "pw2"))
	assert.NotEqual(t, base, PasswordHash("bob", "pw1"))
}

func TestCheckPasswordHash(t *testing.T) {
	stored := PasswordHash("alice", "pw1")
	assert.True(t, CheckPasswordHash(stored, "alice", "pw1"))
	assert.False(t, CheckPasswordHash(stored, "alice", "wrong"))
	assert.False(t, CheckPasswordHash("", "alice", "pw1"))
}

func TestHash_Empty(t *testing.T) {
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", hex.EncodeToString(Hash(nil)))
}

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	key := DeriveKey("alice", "pw1")

	for _, pt := range [][]byte{[]byte("s3cr3t"), {}, bytes.Repeat([]byte{0xAB}, 4096)} {
		ct, nonce, err := Encrypt(key, pt)
		require.NoError(t, err)
		require.Len(t, nonce, NonceSize)
		require.Len(t, ct, len(pt)+TagSize)

		got, err := Decrypt(key, ct, nonce)
		require.NoError(t, err)
		assert.True(t, bytes.Equal(pt, got))
	}
}

func TestEncrypt_FreshNonce(t *testing.T) {
	key := DeriveKey("alice", "pw1")

	ct1, n1, err := Encrypt(key, []byte("same"))
	require.NoError(t, err)
	ct2, n2, err := Encrypt(key, []byte("same"))
	require.NoError(t, err)

	assert.NotEqual(t, n1, n2)
	assert.NotEqual(t, ct1, ct2)
}

func TestDecrypt_WrongKey(t *testing.T) {
	ct, nonce, err := Encrypt(DeriveKey("alice", "pw1"), []byte("s3cr3t"))
	require.NoError(t, err)

	_, err = Decrypt(DeriveKey("alice", "pw2"), ct, nonce)
	assert.ErrorIs(t, err, common.ErrDecryption)
}

func TestDecrypt_Tampered(t *testing.T) {
	key := DeriveKey("alice", "pw1")
	ct, nonce, err := Encrypt(key, []byte("s3cr3t"))
	require.NoError(t, err)

	ct[0] ^= 0x01
	_, err = Decrypt(key, ct, nonce)
	assert.ErrorIs(t, err, common.ErrDecryption)

	ct[0] ^= 0x01
	nonce[0] ^= 0x01
	_, err = Decrypt(key, ct, nonce)
	assert.ErrorIs(t, err, common.ErrDecryption)
}

func TestDecrypt_Malformed(t *testing.T) {
	key := DeriveKey("alice", "pw1")

	_, err := Decrypt(key, []byte("short"), make([]byte, NonceSize))
	assert.ErrorIs(t, err, common.ErrDecryption)

	_, err = Decrypt(key, make([]byte, 32), []byte("bad"))
	assert.ErrorIs(t, err, common.ErrDecryption)
}

func TestEncrypt_BadKeySize(t *testing.T) {
	_, _, err := Encrypt([]byte("short"), []byte("x"))
	require.Error(t, err)
}

func TestWipe(t *testing.T) {
	b := []byte{1, 2, 3}
	Wipe(b)
	assert.Equal(t, []byte{0, 0, 0}, b)
	Wipe(nil)
}
