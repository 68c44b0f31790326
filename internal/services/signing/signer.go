// Package signing implements the gateway's request signature scheme:
// RSA-SHA256 (PKCS#1 v1.5) over a colon-delimited canonical string, base64
// encoded.
package signing

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

// Signer holds the process-wide key pair. Either key may be nil; the
// operation needing it then fails with a configuration error.
type Signer struct {
	privateKey *rsa.PrivateKey
	publicKey  *rsa.PublicKey
}

func NewSigner(privateKey *rsa.PrivateKey, publicKey *rsa.PublicKey) *Signer {
	return &Signer{
		privateKey: privateKey,
		publicKey:  publicKey,
	}
}

// Sign returns the base64 RSA-SHA256 signature of the UTF-8 bytes of canonical.
func (s *Signer) Sign(canonical string) (string, error) {
	if s == nil || s.privateKey == nil {
		return "", ErrNoPrivateKey
	}
	digest := sha256.Sum256([]byte(canonical))
	sig, err := rsa.SignPKCS1v15(rand.Reader, s.privateKey, crypto.SHA256, digest[:])
	if err != nil {
		return "", fmt.Errorf("failed to sign canonical string: %w", err)
	}
	return base64.StdEncoding.EncodeToString(sig), nil
}

// Verify checks signature against canonical. A bad or undecodable signature
// yields false with a nil error; only a missing public key is an error.
func (s *Signer) Verify(canonical, signature string) (bool, error) {
	if s == nil || s.publicKey == nil {
		return false, ErrNoPublicKey
	}
	sig, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		return false, nil
	}
	digest := sha256.Sum256([]byte(canonical))
	if err := rsa.VerifyPKCS1v15(s.publicKey, crypto.SHA256, digest[:], sig); err != nil {
		return false, nil
	}
	return true, nil
}

func (s *Signer) CanSign() bool   { return s != nil && s.privateKey != nil }
func (s *Signer) CanVerify() bool { return s != nil && s.publicKey != nil }
