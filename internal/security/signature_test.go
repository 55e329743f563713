package security

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"testing"
)

func TestSignVerifyRoundtrip(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatal(err)
	}
	sv := NewSignerVerifier(key)

	payload := []byte(`{"orderId":"ord-1","status":"PAID"}`)
	sig, err := sv.Sign(payload)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if err := sv.Verify(payload, sig); err != nil {
		t.Fatalf("verify: %v", err)
	}
}

func TestVerifyRejectsTamperedPayload(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatal(err)
	}
	sv := NewSignerVerifier(key)

	sig, err := sv.Sign([]byte(`{"orderId":"ord-1","status":"PAID"}`))
	if err != nil {
		t.Fatal(err)
	}
	err = sv.Verify([]byte(`{"orderId":"ord-1","status":"CANCELLED"}`), sig)
	if !errors.Is(err, ErrBadSignature) {
		t.Fatalf("err = %v, want ErrBadSignature", err)
	}
}

func TestNewSignatureVerifierFromPEM(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatal(err)
	}
	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		t.Fatal(err)
	}
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})

	v, err := NewSignatureVerifier(pubPEM)
	if err != nil {
		t.Fatalf("NewSignatureVerifier: %v", err)
	}

	signer := NewSignerVerifier(key)
	payload := []byte("hello")
	sig, err := signer.Sign(payload)
	if err != nil {
		t.Fatal(err)
	}
	if err := v.Verify(payload, sig); err != nil {
		t.Fatalf("verify with parsed key: %v", err)
	}
}

func TestNewSignatureVerifierBadInput(t *testing.T) {
	if _, err := NewSignatureVerifier(nil); !errors.Is(err, ErrBadPublicKey) {
		t.Fatalf("err = %v, want ErrBadPublicKey", err)
	}
	if _, err := NewSignatureVerifier([]byte("not pem at all")); !errors.Is(err, ErrBadPublicKey) {
		t.Fatalf("err = %v, want ErrBadPublicKey", err)
	}
}
