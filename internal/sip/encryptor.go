package sip

import "io"

// Encryptor protects database archives before they leave the host.
// Encrypting needs only the public key; decrypting requires a passphrase to
// unlock the private key.
type Encryptor interface {
	// Setup generates a key pair once. The private key is stored encrypted
	// with passphrase.
	Setup(passphrase string) error

	// Encrypt encrypts data read from r and writes ciphertext to w.
	Encrypt(r io.Reader, w io.Writer) error

	// Unlock decrypts the private key with passphrase. Fails on a wrong passphrase.
	Unlock(passphrase string) (DecryptionContext, error)

	// IsConfigured reports whether both key files exist.
	IsConfigured() bool
}

// DecryptionContext holds an unlocked private key in memory for one archive pull.
type DecryptionContext interface {
	Decrypt(r io.Reader, w io.Writer) error
}
