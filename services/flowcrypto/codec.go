// Package flowcrypto implements the hybrid RSA/AES exchange used by
// WhatsApp Flow clients: an RSA-OAEP-wrapped AES key, AES-GCM payloads, and
// a bit-flipped request nonce for the response direction.
package flowcrypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
)

// ErrDecryptionFailed is the single condition surfaced for any failure while
// unwrapping a flow request. The wrapped cause is for logs only and must
// never reach the client.
var ErrDecryptionFailed = errors.New("decryption failed")

const nonceSize = 12

// Envelope is the encrypted request body; all fields are base64.
type Envelope struct {
	EncryptedFlowData string
	EncryptedAESKey   string
	InitialVector     string
}

// DecryptRequest unwraps a flow request: RSA-OAEP (SHA-256) decrypts the AES
// key, then AES-GCM opens the payload with the 12-byte initial vector. The
// returned key and nonce are needed to encrypt the response.
func DecryptRequest(env Envelope, priv *rsa.PrivateKey) (plaintext, aesKey, nonce []byte, err error) {
	wrappedKey, err := base64.StdEncoding.DecodeString(env.EncryptedAESKey)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%w: bad encrypted_aes_key encoding: %v", ErrDecryptionFailed, err)
	}
	flowData, err := base64.StdEncoding.DecodeString(env.EncryptedFlowData)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%w: bad encrypted_flow_data encoding: %v", ErrDecryptionFailed, err)
	}
	nonce, err = base64.StdEncoding.DecodeString(env.InitialVector)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%w: bad initial_vector encoding: %v", ErrDecryptionFailed, err)
	}
	if len(nonce) != nonceSize {
		return nil, nil, nil, fmt.Errorf("%w: initial_vector must be %d bytes", ErrDecryptionFailed, nonceSize)
	}

	aesKey, err = rsa.DecryptOAEP(sha256.New(), rand.Reader, priv, wrappedKey, nil)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%w: aes key unwrap: %v", ErrDecryptionFailed, err)
	}
	if len(aesKey) != 16 && len(aesKey) != 32 {
		return nil, nil, nil, fmt.Errorf("%w: unexpected aes key size %d", ErrDecryptionFailed, len(aesKey))
	}

	gcm, err := newGCM(aesKey)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%w: %v", ErrDecryptionFailed, err)
	}
	// The client appends the 16-byte auth tag to the ciphertext, which is
	// exactly the layout gcm.Open expects.
	plaintext, err = gcm.Open(nil, nonce, flowData, nil)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%w: payload open: %v", ErrDecryptionFailed, err)
	}
	if !json.Valid(plaintext) {
		return nil, nil, nil, fmt.Errorf("%w: payload is not valid JSON", ErrDecryptionFailed)
	}
	return plaintext, aesKey, nonce, nil
}

// EncryptResponse seals the JSON-serialized payload with the request's AES
// key and the bit-flipped request nonce. The output is
// base64(ciphertext || tag); the nonce is not prepended because the client
// recomputes the flipped nonce itself. Using a fresh nonce here would break
// interoperability.
func EncryptResponse(payload any, aesKey, requestNonce []byte) (string, error) {
	if len(requestNonce) != nonceSize {
		return "", fmt.Errorf("request nonce must be %d bytes", nonceSize)
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal response payload: %w", err)
	}

	gcm, err := newGCM(aesKey)
	if err != nil {
		return "", err
	}
	sealed := gcm.Seal(nil, FlipNonce(requestNonce), data, nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// FlipNonce returns the bytewise complement of the request nonce, the
// deterministic response nonce both sides derive independently.
func FlipNonce(nonce []byte) []byte {
	flipped := make([]byte, len(nonce))
	for i, b := range nonce {
		flipped[i] = b ^ 0xFF
	}
	return flipped
}

func newGCM(aesKey []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(aesKey)
	if err != nil {
		return nil, fmt.Errorf("failed to build cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to build gcm: %w", err)
	}
	return gcm, nil
}

// ParsePrivateKey loads an RSA private key from PEM, accepting both PKCS#8
// and PKCS#1 encodings.
func ParsePrivateKey(pemData string) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode([]byte(pemData))
	if block == nil {
		return nil, errors.New("no PEM block found in private key")
	}
	if key, err := x509.ParsePKCS8PrivateKey(block.Bytes); err == nil {
		rsaKey, ok := key.(*rsa.PrivateKey)
		if !ok {
			return nil, errors.New("private key is not RSA")
		}
		return rsaKey, nil
	}
	key, err := x509.ParsePKCS1PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}
	return key, nil
}
