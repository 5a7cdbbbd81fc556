package app

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"sip-go/internal/config"
	"sip-go/internal/database"
	"sip-go/internal/encryption"
	"sip-go/internal/sip"
	"sip-go/internal/vault"
)

// PushArchive snapshots the database, encrypts the snapshot and uploads it with
// the latest operation ID as its version.
func (a *SipApp) PushArchive() error {
	if a.vault == nil {
		return fmt.Errorf("no vault configured")
	}
	if !a.encryptor.IsConfigured() {
		return fmt.Errorf("archive keys not configured: run `sip archive keygen`")
	}

	version, err := a.db.MaxOperationID()
	if err != nil {
		return fmt.Errorf("reading archive version: %w", err)
	}

	dir, err := os.MkdirTemp("", "sip-archive-*")
	if err != nil {
		return fmt.Errorf("creating temp dir for archive: %w", err)
	}
	defer os.RemoveAll(dir)

	snapshotPath := filepath.Join(dir, "snapshot.db")
	if err := a.db.BackupTo(snapshotPath); err != nil {
		return fmt.Errorf("backing up database: %w", err)
	}

	sealedPath := filepath.Join(dir, "snapshot.db.age")
	if err := encryptFile(a.encryptor, snapshotPath, sealedPath); err != nil {
		return err
	}

	if err := uploadFile(a.vault, a.cfg.InstanceID, sip.ArchiveDatabase, sealedPath, version); err != nil {
		return err
	}
	a.logger.Info("database archived", "instance", a.cfg.InstanceID, "version", version)
	return nil
}

// PullArchive replaces the local sqlite database with the vault's archive. The
// private key is unlocked with passphrase. Nothing else may have the database open.
func PullArchive(cfg *config.Config, passphrase string) (int64, error) {
	if cfg.Database.Type != "sqlite" {
		return 0, fmt.Errorf("archive pull requires an sqlite database, got %q", cfg.Database.Type)
	}
	if len(cfg.Vaults) == 0 {
		return 0, fmt.Errorf("no vault configured")
	}
	v, err := vault.NewVaultFromConfig(cfg.Vaults[0])
	if err != nil {
		return 0, fmt.Errorf("creating vault: %w", err)
	}
	enc, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
	if err != nil {
		return 0, fmt.Errorf("creating encryptor: %w", err)
	}

	version, err := v.ArchiveVersion(cfg.InstanceID, sip.ArchiveDatabase)
	if err != nil {
		return 0, fmt.Errorf("checking archive version: %w", err)
	}

	dc, err := enc.Unlock(passphrase)
	if err != nil {
		return 0, fmt.Errorf("unlocking private key: %w", err)
	}

	if err := os.MkdirAll(cfg.Database.DataDir, 0755); err != nil {
		return 0, fmt.Errorf("creating data directory: %w", err)
	}
	dest := database.DatabasePath(cfg.Database, cfg.InstanceID)

	tmp, err := os.CreateTemp(filepath.Dir(dest), ".pull-*")
	if err != nil {
		return 0, fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	pr, pw := io.Pipe()
	go func() {
		pw.CloseWithError(v.GetArchive(cfg.InstanceID, sip.ArchiveDatabase, pw))
	}()
	if err := dc.Decrypt(pr, tmp); err != nil {
		pr.Close()
		tmp.Close()
		return 0, fmt.Errorf("restoring archive: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("closing restored database: %w", err)
	}

	if err := os.Rename(tmpPath, dest); err != nil {
		return 0, fmt.Errorf("replacing database: %w", err)
	}
	return version, nil
}

// Keygen creates the archive key pair, sealing the private key with passphrase,
// and stores both keys in the vault so another host can pull archives.
func Keygen(cfg *config.Config, passphrase string) error {
	enc, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
	if err != nil {
		return fmt.Errorf("creating encryptor: %w", err)
	}
	if enc.IsConfigured() {
		return fmt.Errorf("archive keys already exist")
	}
	if err := enc.Setup(passphrase); err != nil {
		return fmt.Errorf("generating keys: %w", err)
	}

	if len(cfg.Vaults) == 0 {
		return nil
	}
	v, err := vault.NewVaultFromConfig(cfg.Vaults[0])
	if err != nil {
		return fmt.Errorf("creating vault: %w", err)
	}
	keys := map[string]string{
		sip.ArchivePublicKey:  cfg.Encryption.PublicKeyPath,
		sip.ArchivePrivateKey: cfg.Encryption.PrivateKeyPath,
	}
	for name, path := range keys {
		if path == "" {
			continue
		}
		if err := uploadFile(v, cfg.InstanceID, name, path, 0); err != nil {
			return err
		}
	}
	return nil
}

func encryptFile(enc sip.Encryptor, src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening database snapshot: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("creating sealed archive: %w", err)
	}
	if err := enc.Encrypt(in, out); err != nil {
		out.Close()
		return fmt.Errorf("encrypting archive: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("closing sealed archive: %w", err)
	}
	return nil
}

// uploadFile stores the file at path in the vault under name.
func uploadFile(v sip.Vault, instanceID, name, path string, version int64) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s for upload: %w", name, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", name, err)
	}

	if err := v.PutArchive(instanceID, name, f, info.Size(), version); err != nil {
		return fmt.Errorf("uploading %s to vault: %w", name, err)
	}
	return nil
}
