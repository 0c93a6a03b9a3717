package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestManager_ReadWrite_RoundTrip(t *testing.T) {
	original := &Config{
		HostID:  "test-host-abc",
		BaseDir: "/home/user/.local/share/smsg",
		LogDir:  "/home/user/.local/share/smsg/log",
		Vaults: []VaultConfig{
			{Type: "filesystem", Name: "local", FSVaultRoot: "/backup/vault"},
		},
		Crypto: CryptoConfig{
			Type:     "exec",
			ToolPath: "/usr/local/bin/crypto",
			KeysDir:  "/home/user/.local/share/smsg/keys",
			TempDir:  "/home/user/.local/share/smsg/temp",
			Timeout:  Duration{3 * time.Second},
		},
		Database: DatabaseConfig{Type: "sqlite", DataDir: "/home/user/.local/share/smsg/data"},
	}

	var buf bytes.Buffer
	m := &Manager{}

	if err := m.Write(&buf, original); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	got, err := m.Read(&buf)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	if got.HostID != original.HostID {
		t.Errorf("HostID = %q, want %q", got.HostID, original.HostID)
	}
	if got.BaseDir != original.BaseDir {
		t.Errorf("BaseDir = %q, want %q", got.BaseDir, original.BaseDir)
	}
	if got.LogDir != original.LogDir {
		t.Errorf("LogDir = %q, want %q", got.LogDir, original.LogDir)
	}
	if len(got.Vaults) != 1 {
		t.Fatalf("len(Vaults) = %d, want 1", len(got.Vaults))
	}
	if got.Vaults[0].FSVaultRoot != "/backup/vault" {
		t.Errorf("Vault.FSVaultRoot = %q, want %q", got.Vaults[0].FSVaultRoot, "/backup/vault")
	}
	if got.Crypto != original.Crypto {
		t.Errorf("Crypto = %+v, want %+v", got.Crypto, original.Crypto)
	}
	if got.Database.Type != "sqlite" {
		t.Errorf("Database.Type = %q, want %q", got.Database.Type, "sqlite")
	}
}

func TestDuration_Text(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    time.Duration
		wantErr bool
	}{
		{name: "seconds", input: "10s", want: 10 * time.Second},
		{name: "milliseconds", input: "250ms", want: 250 * time.Millisecond},
		{name: "compound", input: "1m30s", want: 90 * time.Second},
		{name: "bare number", input: "10", wantErr: true},
		{name: "garbage", input: "soon", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Duration
			err := d.UnmarshalText([]byte(tt.input))
			if (err != nil) != tt.wantErr {
				t.Fatalf("UnmarshalText(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && d.Duration != tt.want {
				t.Errorf("UnmarshalText(%q) = %v, want %v", tt.input, d.Duration, tt.want)
			}
		})
	}
}

func TestManager_Read_TimeoutAsString(t *testing.T) {
	input := `
host_id = "h"

[crypto]
type = "age"
timeout = "2s"
`
	cfg, err := (&Manager{}).Read(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if cfg.Crypto.Timeout.Duration != 2*time.Second {
		t.Errorf("Crypto.Timeout = %v, want 2s", cfg.Crypto.Timeout.Duration)
	}
	if cfg.Crypto.Type != "age" {
		t.Errorf("Crypto.Type = %q, want %q", cfg.Crypto.Type, "age")
	}
}

func TestNewConfig(t *testing.T) {
	cfg := NewConfig("host-1", "/data/smsg")

	if cfg.HostID != "host-1" {
		t.Errorf("HostID = %q, want %q", cfg.HostID, "host-1")
	}
	if cfg.BaseDir != "/data/smsg" {
		t.Errorf("BaseDir = %q, want %q", cfg.BaseDir, "/data/smsg")
	}
	if cfg.LogDir != "/data/smsg/log" {
		t.Errorf("LogDir = %q, want %q", cfg.LogDir, "/data/smsg/log")
	}
	if cfg.Crypto.KeysDir != "/data/smsg/keys" {
		t.Errorf("Crypto.KeysDir = %q, want %q", cfg.Crypto.KeysDir, "/data/smsg/keys")
	}
	if cfg.Crypto.TempDir != "/data/smsg/temp" {
		t.Errorf("Crypto.TempDir = %q, want %q", cfg.Crypto.TempDir, "/data/smsg/temp")
	}
	if cfg.Crypto.Timeout.Duration != DefaultToolTimeout {
		t.Errorf("Crypto.Timeout = %v, want %v", cfg.Crypto.Timeout.Duration, DefaultToolTimeout)
	}
	if cfg.Database.DataDir != "/data/smsg/data" {
		t.Errorf("Database.DataDir = %q, want %q", cfg.Database.DataDir, "/data/smsg/data")
	}
}

func TestInit(t *testing.T) {
	t.Run("creates config file", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "smsg.toml")
		cfg := NewConfig("h1", dir)

		if err := Init(path, cfg); err != nil {
			t.Fatalf("Init() error = %v", err)
		}

		if _, err := os.Stat(path); err != nil {
			t.Fatalf("config file not created: %v", err)
		}
	})

	t.Run("fails if file already exists", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "smsg.toml")
		cfg := NewConfig("h1", dir)

		if err := Init(path, cfg); err != nil {
			t.Fatalf("first Init() error = %v", err)
		}

		err := Init(path, cfg)
		if err == nil {
			t.Fatal("second Init() expected error")
		}
	})
}

func TestReadFromFile(t *testing.T) {
	t.Run("reads valid config", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "smsg.toml")
		cfg := NewConfig("read-test", dir)
		cfg.Database = DatabaseConfig{Type: "memory"}

		if err := Init(path, cfg); err != nil {
			t.Fatalf("Init() error = %v", err)
		}

		got, err := ReadFromFile(path)
		if err != nil {
			t.Fatalf("ReadFromFile() error = %v", err)
		}
		if got.HostID != "read-test" {
			t.Errorf("HostID = %q, want %q", got.HostID, "read-test")
		}
		if got.Crypto.Timeout.Duration != DefaultToolTimeout {
			t.Errorf("Crypto.Timeout = %v, want %v", got.Crypto.Timeout.Duration, DefaultToolTimeout)
		}
	})

	t.Run("returns error for missing file", func(t *testing.T) {
		_, err := ReadFromFile("/nonexistent/path/smsg.toml")
		if err == nil {
			t.Fatal("ReadFromFile() expected error for missing file")
		}
	})
}
