package sip

import "io"

// Archive names stored in a vault.
const (
	ArchiveDatabase   = "db"
	ArchivePublicKey  = "public_key"
	ArchivePrivateKey = "private_key"
)

// Vault stores archived copies of an instance's database away from the host.
// Archives are streamed so a large ledger is never held in memory.
type Vault interface {
	// PutArchive stores a named archive for an instance, replacing any previous one.
	// size is the number of bytes that will be read from r. version is the
	// operation ID the archive was taken at.
	PutArchive(instanceID string, name string, r io.Reader, size int64, version int64) error

	// GetArchive writes a named archive for an instance to w.
	GetArchive(instanceID string, name string, w io.Writer) error

	// ArchiveVersion returns the version stored with an archive, or 0 if none exists.
	ArchiveVersion(instanceID string, name string) (int64, error)

	// ValidateSetup verifies that the vault is reachable and writable.
	ValidateSetup() error
}
