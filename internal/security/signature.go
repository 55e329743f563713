package security

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
)

var (
	ErrBadPublicKey = errors.New("unable to parse rsa public key")
	ErrBadSignature = errors.New("signature verification failed")
)

// SignatureVerifier checks RSA-SHA256 signatures on payment-gateway
// callbacks. A private key is only ever present in tests and tooling; the
// service itself is verify-only.
type SignatureVerifier struct {
	pub *rsa.PublicKey
	pri *rsa.PrivateKey
}

func NewSignatureVerifier(pubPEM []byte) (*SignatureVerifier, error) {
	block, _ := pem.Decode(pubPEM)
	if block == nil {
		return nil, ErrBadPublicKey
	}
	parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadPublicKey, err)
	}
	pub, ok := parsed.(*rsa.PublicKey)
	if !ok {
		return nil, ErrBadPublicKey
	}
	return &SignatureVerifier{pub: pub}, nil
}

// NewSignerVerifier builds a verifier that can also sign; used by tests and
// by the callback simulator tooling.
func NewSignerVerifier(pri *rsa.PrivateKey) *SignatureVerifier {
	return &SignatureVerifier{pub: &pri.PublicKey, pri: pri}
}

func (v *SignatureVerifier) Verify(payload, sig []byte) error {
	sum := sha256.Sum256(payload)
	if err := rsa.VerifyPKCS1v15(v.pub, crypto.SHA256, sum[:], sig); err != nil {
		return ErrBadSignature
	}
	return nil
}

func (v *SignatureVerifier) Sign(payload []byte) ([]byte, error) {
	if v.pri == nil {
		return nil, errors.New("no private key loaded")
	}
	sum := sha256.Sum256(payload)
	return rsa.SignPKCS1v15(rand.Reader, v.pri, crypto.SHA256, sum[:])
}
