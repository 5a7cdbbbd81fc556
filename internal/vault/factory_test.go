package vault

import (
	"path/filepath"
	"testing"

	"sip-go/internal/config"
)

func TestNewVaultFromConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.VaultConfig
		wantErr bool
	}{
		{
			name: "memory vault",
			cfg: config.VaultConfig{
				Type: "memory",
				Name: "test-memory",
			},
			wantErr: false,
		},
		{
			name: "filesystem vault",
			cfg: config.VaultConfig{
				Type:        "filesystem",
				Name:        "test-fs",
				FSVaultRoot: filepath.Join(t.TempDir(), "vault"),
			},
			wantErr: false,
		},
		{
			name: "filesystem vault without root",
			cfg: config.VaultConfig{
				Type: "filesystem",
				Name: "test-fs",
			},
			wantErr: true,
		},
		{
			name: "s3 vault without bucket",
			cfg: config.VaultConfig{
				Type:     "s3",
				Name:     "test-s3",
				S3Region: "us-east-1",
			},
			wantErr: true,
		},
		{
			name: "unknown vault type",
			cfg: config.VaultConfig{
				Type: "unknown",
				Name: "test-unknown",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewVaultFromConfig(tt.cfg)

			if (err != nil) != tt.wantErr {
				t.Fatalf("NewVaultFromConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if got == nil {
				t.Fatal("NewVaultFromConfig() returned nil vault")
			}
			if err := got.ValidateSetup(); err != nil {
				t.Errorf("ValidateSetup() error = %v", err)
			}
		})
	}
}

func TestNewVaultFromConfig_S3(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "")

	got, err := NewVaultFromConfig(config.VaultConfig{
		Type:              "s3",
		Name:              "offsite",
		S3Bucket:          "sip-archives",
		S3Prefix:          "home",
		S3Region:          "eu-west-1",
		S3Endpoint:        "http://127.0.0.1:9000",
		S3AccessKeyID:     "minio",
		S3SecretAccessKey: "minio-secret",
	})
	if err != nil {
		t.Fatalf("NewVaultFromConfig() error = %v", err)
	}

	s3v, ok := got.(*S3Vault)
	if !ok {
		t.Fatalf("NewVaultFromConfig() = %T, want *S3Vault", got)
	}
	if s3v.bucket != "sip-archives" {
		t.Errorf("bucket = %q, want sip-archives", s3v.bucket)
	}
	if key := s3v.key("inst", "db"); key != "home/inst/db" {
		t.Errorf("key() = %q, want home/inst/db", key)
	}
}
