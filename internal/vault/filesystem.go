package vault

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"sip-go/internal/sip"
)

// ErrArchiveNotFound is returned by GetArchive when nothing has been pushed under a name.
var ErrArchiveNotFound = errors.New("archive not found")

// FileSystemVault stores archives under a directory, one subdirectory per instance:
//
//	<root>/
//	  <instanceID>/
//	    <name>          (archive bytes)
//	    <name>.version  (operation ID the archive was taken at)
type FileSystemVault struct {
	name string
	root string
}

// NewFileSystemVault creates a new filesystem vault rooted at the given path.
func NewFileSystemVault(name, root string) (*FileSystemVault, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create vault root: %w", err)
	}
	return &FileSystemVault{name: name, root: root}, nil
}

func (v *FileSystemVault) archivePath(instanceID, name string) string {
	return filepath.Join(v.root, instanceID, name)
}

// PutArchive writes the archive atomically, then its version marker. A reader
// never sees a partially written archive.
func (v *FileSystemVault) PutArchive(instanceID string, name string, r io.Reader, size int64, version int64) error {
	dest := v.archivePath(instanceID, name)
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return fmt.Errorf("failed to create instance directory: %w", err)
	}
	if err := writeAtomic(dest, r, size); err != nil {
		return err
	}

	marker := strings.NewReader(strconv.FormatInt(version, 10))
	if err := writeAtomic(dest+".version", marker, marker.Size()); err != nil {
		return fmt.Errorf("writing version marker: %w", err)
	}
	return nil
}

func (v *FileSystemVault) GetArchive(instanceID string, name string, w io.Writer) error {
	f, err := os.Open(v.archivePath(instanceID, name))
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: archive %q for instance %s", ErrArchiveNotFound, name, instanceID)
		}
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("failed to read archive: %w", err)
	}
	return nil
}

// ArchiveVersion returns 0 when no version marker exists.
func (v *FileSystemVault) ArchiveVersion(instanceID string, name string) (int64, error) {
	data, err := os.ReadFile(v.archivePath(instanceID, name) + ".version")
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("reading version marker: %w", err)
	}

	version, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing version: %w", err)
	}
	return version, nil
}

// ValidateSetup checks that the root is a writable directory.
func (v *FileSystemVault) ValidateSetup() error {
	info, err := os.Stat(v.root)
	if err != nil {
		return fmt.Errorf("vault root not accessible: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("vault root is not a directory: %s", v.root)
	}

	check, err := os.CreateTemp(v.root, ".writecheck-*")
	if err != nil {
		return fmt.Errorf("vault root not writable: %w", err)
	}
	check.Close()
	return os.Remove(check.Name())
}

// writeAtomic copies r to a temp file beside dest and renames it into place.
func writeAtomic(dest string, r io.Reader, expectedSize int64) error {
	tmp, err := os.CreateTemp(filepath.Dir(dest), ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	written, err := io.Copy(tmp, r)
	if err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write data: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if written != expectedSize {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", expectedSize, written)
	}

	if err := os.Rename(tmpPath, dest); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	success = true
	return nil
}

var _ sip.Vault = (*FileSystemVault)(nil)
