package cryptox

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveKey_Deterministic(t *testing.T) {
	password := []byte("secret-password")
	salt := []byte("fixed-salt")

	key1 := DeriveKey(password, salt)
	key2 := DeriveKey(password, salt)

	if !bytes.Equal(key1, key2) {
		t.Errorf("expected same result for same inputs, got different")
	}
	assert.Len(t, key1, 32)
}

func TestDeriveKey_DifferentSalts(t *testing.T) {
	password := []byte("secret-password")

	key1 := DeriveKey(password, []byte("salt-one"))
	key2 := DeriveKey(password, []byte("salt-two"))

	if bytes.Equal(key1, key2) {
		t.Errorf("expected different results for different salts, got same")
	}
}

func TestNewVerifier_CheckVerifier(t *testing.T) {
	salt, verifier := NewVerifier([]byte("pin-1234"))
	assert.Len(t, salt, SaltSize)
	assert.Len(t, verifier, 32)

	assert.True(t, CheckVerifier([]byte("pin-1234"), salt, verifier))
	assert.False(t, CheckVerifier([]byte("pin-0000"), salt, verifier))
	assert.False(t, CheckVerifier([]byte("pin-1234"), nil, verifier))
	assert.False(t, CheckVerifier([]byte("pin-1234"), salt, nil))
}

func TestNewVerifier_SaltsDiffer(t *testing.T) {
	s1, v1 := NewVerifier([]byte("same"))
	s2, v2 := NewVerifier([]byte("same"))
	assert.NotEqual(t, s1, s2)
	assert.NotEqual(t, v1, v2)
}
