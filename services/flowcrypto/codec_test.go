package flowcrypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clientEncrypt builds the envelope exactly as a flow client does: an
// RSA-OAEP-wrapped AES key and base64(ciphertext || tag) flow data.
func clientEncrypt(t *testing.T, pub *rsa.PublicKey, aesKey, nonce, plaintext []byte) Envelope {
	t.Helper()

	wrappedKey, err := rsa.EncryptOAEP(sha256.New(), rand.Reader, pub, aesKey, nil)
	require.NoError(t, err)

	block, err := aes.NewCipher(aesKey)
	require.NoError(t, err)
	gcm, err := cipher.NewGCM(block)
	require.NoError(t, err)
	sealed := gcm.Seal(nil, nonce, plaintext, nil)

	return Envelope{
		EncryptedFlowData: base64.StdEncoding.EncodeToString(sealed),
		EncryptedAESKey:   base64.StdEncoding.EncodeToString(wrappedKey),
		InitialVector:     base64.StdEncoding.EncodeToString(nonce),
	}
}

func newTestKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return priv
}

func randomBytes(t *testing.T, n int) []byte {
	t.Helper()
	b := make([]byte, n)
	_, err := rand.Read(b)
	require.NoError(t, err)
	return b
}

func TestDecryptRequestRoundTrip(t *testing.T) {
	priv := newTestKey(t)
	for _, keySize := range []int{16, 32} {
		aesKey := randomBytes(t, keySize)
		nonce := randomBytes(t, 12)
		plaintext := []byte(`{"action":"ping","version":"3.0"}`)

		env := clientEncrypt(t, &priv.PublicKey, aesKey, nonce, plaintext)
		got, gotKey, gotNonce, err := DecryptRequest(env, priv)
		require.NoError(t, err)
		assert.Equal(t, plaintext, got)
		assert.Equal(t, aesKey, gotKey)
		assert.Equal(t, nonce, gotNonce)
	}
}

func TestEncryptResponseUsesFlippedNonce(t *testing.T) {
	aesKey := randomBytes(t, 16)
	nonce := randomBytes(t, 12)
	payload := map[string]any{"data": map[string]any{"status": "active"}}

	encoded, err := EncryptResponse(payload, aesKey, nonce)
	require.NoError(t, err)

	// The client recomputes the flipped nonce and opens the bare
	// base64(ciphertext || tag) body; nothing is prepended.
	sealed, err := base64.StdEncoding.DecodeString(encoded)
	require.NoError(t, err)
	block, err := aes.NewCipher(aesKey)
	require.NoError(t, err)
	gcm, err := cipher.NewGCM(block)
	require.NoError(t, err)

	plaintext, err := gcm.Open(nil, FlipNonce(nonce), sealed, nil)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(plaintext, &got))
	assert.Equal(t, "active", got["data"].(map[string]any)["status"])

	// Opening with the request nonce must fail.
	_, err = gcm.Open(nil, nonce, sealed, nil)
	assert.Error(t, err)
}

func TestDecryptRequestRejectsTampering(t *testing.T) {
	priv := newTestKey(t)
	aesKey := randomBytes(t, 16)
	nonce := randomBytes(t, 12)
	env := clientEncrypt(t, &priv.PublicKey, aesKey, nonce, []byte(`{"action":"ping"}`))

	sealed, err := base64.StdEncoding.DecodeString(env.EncryptedFlowData)
	require.NoError(t, err)

	// Flip one bit in every byte position in turn, covering both the
	// ciphertext and the trailing tag.
	for i := range sealed {
		tampered := make([]byte, len(sealed))
		copy(tampered, sealed)
		tampered[i] ^= 0x01

		bad := env
		bad.EncryptedFlowData = base64.StdEncoding.EncodeToString(tampered)
		_, _, _, err := DecryptRequest(bad, priv)
		assert.ErrorIs(t, err, ErrDecryptionFailed, "byte %d", i)
	}
}

func TestDecryptRequestRejectsBadInputs(t *testing.T) {
	priv := newTestKey(t)
	aesKey := randomBytes(t, 16)
	nonce := randomBytes(t, 12)
	good := clientEncrypt(t, &priv.PublicKey, aesKey, nonce, []byte(`{"action":"ping"}`))

	t.Run("bad base64", func(t *testing.T) {
		bad := good
		bad.EncryptedAESKey = "!!not-base64!!"
		_, _, _, err := DecryptRequest(bad, priv)
		assert.ErrorIs(t, err, ErrDecryptionFailed)
	})

	t.Run("wrong nonce size", func(t *testing.T) {
		bad := good
		bad.InitialVector = base64.StdEncoding.EncodeToString(randomBytes(t, 16))
		_, _, _, err := DecryptRequest(bad, priv)
		assert.ErrorIs(t, err, ErrDecryptionFailed)
	})

	t.Run("wrong private key", func(t *testing.T) {
		other := newTestKey(t)
		_, _, _, err := DecryptRequest(good, other)
		assert.ErrorIs(t, err, ErrDecryptionFailed)
	})

	t.Run("non-json payload", func(t *testing.T) {
		env := clientEncrypt(t, &priv.PublicKey, aesKey, nonce, []byte("not json at all"))
		_, _, _, err := DecryptRequest(env, priv)
		assert.ErrorIs(t, err, ErrDecryptionFailed)
	})
}

func TestFlipNonce(t *testing.T) {
	nonce := []byte{0x00, 0xFF, 0xA5, 0x3C}
	flipped := FlipNonce(nonce)
	assert.Equal(t, []byte{0xFF, 0x00, 0x5A, 0xC3}, flipped)
	assert.Equal(t, nonce, FlipNonce(flipped))
}
