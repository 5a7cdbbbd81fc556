package testutil

import (
	"bytes"
	"testing"

	"sip-go/internal/encryption"
	"sip-go/internal/sip"
	"sip-go/internal/vault"
)

// NewTestVault returns an empty in-memory archive vault.
func NewTestVault() sip.Vault {
	return vault.NewMemoryVault("test-vault")
}

// NewTestEncryptor returns an encryptor that is configured and unlocks with any
// passphrase, so archive round trips need no key setup.
func NewTestEncryptor() sip.Encryptor {
	return encryption.NewTestEncryptor()
}

// OpenArchive downloads an archive and decrypts it with enc, failing the test
// on any error.
func OpenArchive(t testing.TB, v sip.Vault, enc sip.Encryptor, instanceID, name string) []byte {
	t.Helper()

	var sealed bytes.Buffer
	if err := v.GetArchive(instanceID, name, &sealed); err != nil {
		t.Fatalf("GetArchive(%s) error = %v", name, err)
	}
	dc, err := enc.Unlock("")
	if err != nil {
		t.Fatalf("Unlock() error = %v", err)
	}
	var plain bytes.Buffer
	if err := dc.Decrypt(&sealed, &plain); err != nil {
		t.Fatalf("Decrypt(%s) error = %v", name, err)
	}
	return plain.Bytes()
}
