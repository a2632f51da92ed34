package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("Expected no error for missing file, got %v", err)
	}

	if cfg.Download.Dir != DefaultDownloadDir {
		t.Errorf("Expected default download dir, got %q", cfg.Download.Dir)
	}
	if cfg.Server.Port != DefaultPort {
		t.Errorf("Expected default port %d, got %d", DefaultPort, cfg.Server.Port)
	}
	if cfg.Download.SegmentSeconds != DefaultSegmentSeconds {
		t.Errorf("Expected default segment length, got %d", cfg.Download.SegmentSeconds)
	}
}

func TestLoad_PartialFileFillsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := "[download]\ndir = \"/data/audio\"\n\n[server]\nport = 9000\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Download.Dir != "/data/audio" {
		t.Errorf("Expected configured dir, got %q", cfg.Download.Dir)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("Expected configured port, got %d", cfg.Server.Port)
	}
	if cfg.Download.Bitrate != DefaultAudioBitrate {
		t.Errorf("Expected default bitrate to fill in, got %q", cfg.Download.Bitrate)
	}
}

func TestLoad_EnvOverridesCredentials(t *testing.T) {
	t.Setenv(EnvSpotifyClientID, "env-id")
	t.Setenv(EnvSpotifyClientSecret, "env-secret")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Spotify.ClientID != "env-id" || cfg.Spotify.ClientSecret != "env-secret" {
		t.Errorf("Expected env credentials to apply, got %+v", cfg.Spotify)
	}
}

func TestLoad_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("not [valid toml"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Error("Expected error for malformed config")
	}
}

func TestServerConfig_Addr(t *testing.T) {
	cfg := ServerConfig{Host: "127.0.0.1", Port: 8080}
	if cfg.Addr() != "127.0.0.1:8080" {
		t.Errorf("Addr() = %q", cfg.Addr())
	}
}
