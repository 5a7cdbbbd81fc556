package app

import (
	"os"
	"path/filepath"
	"testing"
)

func TestGetDefaults(t *testing.T) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home directory: %v", err)
	}

	tests := []struct {
		name       string
		configPath string
		home       string
		wantConfig string
		wantBase   string
	}{
		{
			name:       "env vars win",
			configPath: "/custom/sip.toml",
			home:       "/srv/sip",
			wantConfig: "/custom/sip.toml",
			wantBase:   "/srv/sip",
		},
		{
			name:       "only SIP_HOME set",
			home:       "/srv/sip",
			wantConfig: filepath.Join(homeDir, ".config", "sip.toml"),
			wantBase:   "/srv/sip",
		},
		{
			name:       "home dir fallbacks",
			wantConfig: filepath.Join(homeDir, ".config", "sip.toml"),
			wantBase:   filepath.Join(homeDir, ".local", "share", "sip"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("SIP_CONFIG_PATH", tt.configPath)
			t.Setenv("SIP_HOME", tt.home)

			defaults, err := GetDefaults()
			if err != nil {
				t.Fatalf("GetDefaults() error = %v", err)
			}

			if defaults["config_path"] != tt.wantConfig {
				t.Errorf("config_path = %q, want %q", defaults["config_path"], tt.wantConfig)
			}
			if defaults["base_dir"] != tt.wantBase {
				t.Errorf("base_dir = %q, want %q", defaults["base_dir"], tt.wantBase)
			}
			if want := filepath.Join(tt.wantBase, "log"); defaults["log_dir"] != want {
				t.Errorf("log_dir = %q, want %q", defaults["log_dir"], want)
			}
		})
	}
}
