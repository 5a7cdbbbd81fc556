package encryption

import (
	"bytes"
	"fmt"
	"io"

	"sip-go/internal/sip"
)

// testMagic marks archives written by TestEncryptor.
var testMagic = []byte("SIPTEST1")

// TestEncryptor is a reversible, key-free stand-in for AgeEncryptor. It frames
// the archive with a magic prefix so tests can tell sealed bytes from plain ones.
// Unlock rejects any passphrase other than the one given to Setup.
type TestEncryptor struct {
	passphrase string
	configured bool
}

var _ sip.Encryptor = (*TestEncryptor)(nil)

// NewTestEncryptor creates a TestEncryptor that is already configured with an
// empty passphrase.
func NewTestEncryptor() *TestEncryptor {
	return &TestEncryptor{configured: true}
}

func (e *TestEncryptor) Setup(passphrase string) error {
	e.passphrase = passphrase
	e.configured = true
	return nil
}

func (e *TestEncryptor) Encrypt(r io.Reader, w io.Writer) error {
	if _, err := w.Write(testMagic); err != nil {
		return fmt.Errorf("writing archive prefix: %w", err)
	}
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("copying archive: %w", err)
	}
	return nil
}

func (e *TestEncryptor) Unlock(passphrase string) (sip.DecryptionContext, error) {
	if passphrase != e.passphrase {
		return nil, ErrWrongPassphrase
	}
	return testArchiveReader{}, nil
}

func (e *TestEncryptor) IsConfigured() bool {
	return e.configured
}

type testArchiveReader struct{}

func (testArchiveReader) Decrypt(r io.Reader, w io.Writer) error {
	prefix := make([]byte, len(testMagic))
	if _, err := io.ReadFull(r, prefix); err != nil {
		return fmt.Errorf("reading archive prefix: %w", err)
	}
	if !bytes.Equal(prefix, testMagic) {
		return fmt.Errorf("archive was not written by the test encryptor")
	}
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("copying archive: %w", err)
	}
	return nil
}
