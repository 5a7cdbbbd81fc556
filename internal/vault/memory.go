package vault

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"sip-go/internal/sip"
)

type memoryArchive struct {
	data    []byte
	version int64
}

// MemoryVault keeps archives in memory. Useful for tests and for `memory`
// deployments where archives only need to survive the process.
// It is safe for concurrent use.
type MemoryVault struct {
	name     string
	mu       sync.RWMutex
	archives map[string]memoryArchive // "instanceID/name" -> archive
}

// NewMemoryVault creates a new in-memory vault with the given name.
func NewMemoryVault(name string) *MemoryVault {
	return &MemoryVault{
		name:     name,
		archives: make(map[string]memoryArchive),
	}
}

func archiveKey(instanceID, name string) string {
	return instanceID + "/" + name
}

func (m *MemoryVault) PutArchive(instanceID string, name string, r io.Reader, size int64, version int64) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read archive: %w", err)
	}
	if int64(len(data)) != size {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", size, len(data))
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.archives[archiveKey(instanceID, name)] = memoryArchive{data: data, version: version}
	return nil
}

func (m *MemoryVault) GetArchive(instanceID string, name string, w io.Writer) error {
	m.mu.RLock()
	a, ok := m.archives[archiveKey(instanceID, name)]
	m.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: archive %q for instance %s", ErrArchiveNotFound, name, instanceID)
	}

	if _, err := io.Copy(w, bytes.NewReader(a.data)); err != nil {
		return fmt.Errorf("failed to write archive: %w", err)
	}
	return nil
}

func (m *MemoryVault) ArchiveVersion(instanceID string, name string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.archives[archiveKey(instanceID, name)].version, nil
}

// ValidateSetup always succeeds for in-memory vault.
func (m *MemoryVault) ValidateSetup() error {
	return nil
}

var _ sip.Vault = (*MemoryVault)(nil)
