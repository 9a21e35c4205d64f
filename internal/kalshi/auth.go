package kalshi

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Request signing headers.
const (
	HeaderAccessKey       = "KALSHI-ACCESS-KEY"
	HeaderAccessTimestamp = "KALSHI-ACCESS-TIMESTAMP"
	HeaderAccessSignature = "KALSHI-ACCESS-SIGNATURE"
)

// Credentials holds the API key ID and private key for signing requests.
type Credentials struct {
	KeyID      string
	PrivateKey *rsa.PrivateKey
}

// LoadCredentials loads credentials from a key ID and a PEM private key file.
func LoadCredentials(keyID, privateKeyPath string) (*Credentials, error) {
	if keyID == "" {
		return nil, errors.New("API key ID is required")
	}
	if privateKeyPath == "" {
		return nil, errors.New("private key path is required")
	}

	privateKey, err := LoadPrivateKey(privateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("load private key: %w", err)
	}

	return &Credentials{KeyID: keyID, PrivateKey: privateKey}, nil
}

// LoadPrivateKey reads an RSA private key from a PEM file in PKCS#8 or
// PKCS#1 form.
func LoadPrivateKey(path string) (*rsa.PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read key file: %w", err)
	}
	return ParsePrivateKey(data)
}

// ParsePrivateKey decodes a PEM-encoded RSA private key.
func ParsePrivateKey(data []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, errors.New("failed to decode PEM block")
	}

	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err == nil {
		rsaKey, ok := key.(*rsa.PrivateKey)
		if !ok {
			return nil, errors.New("key is not an RSA private key")
		}
		return rsaKey, nil
	}

	rsaKey, err := x509.ParsePKCS1PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	return rsaKey, nil
}

// SignRequest returns the authentication headers for one request. path is
// the URL path without the query string, e.g. "/trade-api/v2/markets".
func (c *Credentials) SignRequest(method, path string) (map[string]string, error) {
	return c.signAt(time.Now(), method, path)
}

func (c *Credentials) signAt(at time.Time, method, path string) (map[string]string, error) {
	timestampMs := strconv.FormatInt(at.UnixMilli(), 10)

	// Message format: timestamp_ms + method + path
	hashed := sha256.Sum256([]byte(timestampMs + method + path))
	signature, err := rsa.SignPSS(rand.Reader, c.PrivateKey, crypto.SHA256, hashed[:],
		&rsa.PSSOptions{SaltLength: rsa.PSSSaltLengthEqualsHash})
	if err != nil {
		return nil, fmt.Errorf("sign message: %w", err)
	}

	return map[string]string{
		HeaderAccessKey:       c.KeyID,
		HeaderAccessTimestamp: timestampMs,
		HeaderAccessSignature: base64.StdEncoding.EncodeToString(signature),
	}, nil
}
