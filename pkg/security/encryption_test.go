package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveKey(t *testing.T) {
	a, err := DeriveKey("passphrase", "salt", "records")
	require.NoError(t, err)
	assert.Len(t, a, 32)

	b, err := DeriveKey("passphrase", "salt", "records")
	require.NoError(t, err)
	assert.Equal(t, a, b)

	c, err := DeriveKey("passphrase", "salt", "other")
	require.NoError(t, err)
	assert.NotEqual(t, a, c)

	_, err = DeriveKey("", "salt", "records")
	assert.ErrorIs(t, err, ErrEmptySecret)
}

func TestEncryptDecryptString(t *testing.T) {
	enc, err := NewPassphraseEncryptor("passphrase", "salt", "records")
	require.NoError(t, err)

	sealed, err := EncryptString(enc, "allergic to penicillin")
	require.NoError(t, err)
	assert.NotContains(t, sealed, "penicillin")

	plain, err := DecryptString(enc, sealed)
	require.NoError(t, err)
	assert.Equal(t, "allergic to penicillin", plain)

	empty, err := EncryptString(enc, "")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestDecryptWithWrongKey(t *testing.T) {
	enc, err := NewPassphraseEncryptor("one", "salt", "records")
	require.NoError(t, err)
	other, err := NewPassphraseEncryptor("two", "salt", "records")
	require.NoError(t, err)

	sealed, err := EncryptString(enc, "notes")
	require.NoError(t, err)

	_, err = DecryptString(other, sealed)
	assert.ErrorIs(t, err, ErrDecryption)

	_, err = DecryptString(enc, "not base64!")
	assert.ErrorIs(t, err, ErrDecryption)
}

func TestNewAESEncryptorRejectsBadKey(t *testing.T) {
	_, err := NewAESEncryptor([]byte("short"))
	assert.ErrorIs(t, err, ErrInvalidKeySize)
}
