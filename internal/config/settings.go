// Package config loads application settings from a TOML file with sensible
// defaults for everything but credentials.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Default values
const (
	DefaultDownloadDir    = "downloads"
	DefaultEngineDir      = "ffmpeg_local"
	DefaultAudioBitrate   = "320k"
	DefaultSegmentSeconds = 10
	DefaultHost           = "0.0.0.0"
	DefaultPort           = 5000
	DefaultSpotdlCommand  = "spotdl"
	DefaultRecognizerURL  = "https://api.audd.io/"
)

// Environment variable names for credential overrides
const (
	EnvSpotifyClientID     = "SPOTIFY_CLIENT_ID"
	EnvSpotifyClientSecret = "SPOTIFY_CLIENT_SECRET"
	EnvRecognizerToken     = "RECOGNIZER_API_TOKEN"
)

// Config is the full application configuration
type Config struct {
	Download   DownloadConfig   `toml:"download"`
	Server     ServerConfig     `toml:"server"`
	Recognizer RecognizerConfig `toml:"recognizer"`
	Spotify    SpotifyConfig    `toml:"spotify"`
}

// DownloadConfig controls where and how audio is acquired
type DownloadConfig struct {
	// Dir is the shared working/output directory for all jobs
	Dir string `toml:"dir"`

	// EngineDir is the bundled ffmpeg directory, preferred over PATH
	EngineDir string `toml:"engine_dir"`

	// Bitrate for the constant-bitrate MP3 re-encode
	Bitrate string `toml:"bitrate"`

	// SegmentSeconds is the excerpt length used for fingerprint sampling
	SegmentSeconds int `toml:"segment_seconds"`

	// SpotdlCommand is the streaming-service download tool binary
	SpotdlCommand string `toml:"spotdl_command"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// RecognizerConfig points at the external fingerprint recognition service
type RecognizerConfig struct {
	URL   string `toml:"url"`
	Token string `toml:"token"`

	// LaunchLocal opens a verified streaming link with the OS default
	// handler after a successful recognition
	LaunchLocal bool `toml:"launch_local"`
}

// SpotifyConfig contains the credential-gated metadata-lookup service keys.
// Both fields empty disables the authenticated lookup and recognition falls
// back to constructed search links.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
}

// Addr returns the host:port string for the HTTP listener
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Default returns a Config with all defaults applied
func Default() *Config {
	return &Config{
		Download: DownloadConfig{
			Dir:            DefaultDownloadDir,
			EngineDir:      DefaultEngineDir,
			Bitrate:        DefaultAudioBitrate,
			SegmentSeconds: DefaultSegmentSeconds,
			SpotdlCommand:  DefaultSpotdlCommand,
		},
		Server: ServerConfig{
			Host: DefaultHost,
			Port: DefaultPort,
		},
		Recognizer: RecognizerConfig{
			URL: DefaultRecognizerURL,
		},
	}
}

// Load reads a TOML configuration file, fills unset fields with defaults and
// applies credential overrides from the environment. A missing file is not an
// error; the defaults are returned.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			if err := toml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	cfg.applyDefaults()
	cfg.applyEnvOverrides()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Download.Dir == "" {
		c.Download.Dir = DefaultDownloadDir
	}
	if c.Download.EngineDir == "" {
		c.Download.EngineDir = DefaultEngineDir
	}
	if c.Download.Bitrate == "" {
		c.Download.Bitrate = DefaultAudioBitrate
	}
	if c.Download.SegmentSeconds <= 0 {
		c.Download.SegmentSeconds = DefaultSegmentSeconds
	}
	if c.Download.SpotdlCommand == "" {
		c.Download.SpotdlCommand = DefaultSpotdlCommand
	}
	if c.Server.Host == "" {
		c.Server.Host = DefaultHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Recognizer.URL == "" {
		c.Recognizer.URL = DefaultRecognizerURL
	}
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(EnvSpotifyClientID); v != "" {
		c.Spotify.ClientID = v
	}
	if v := os.Getenv(EnvSpotifyClientSecret); v != "" {
		c.Spotify.ClientSecret = v
	}
	if v := os.Getenv(EnvRecognizerToken); v != "" {
		c.Recognizer.Token = v
	}
}

// EnsureDirs creates the working directories the configuration points at
func (c *Config) EnsureDirs() error {
	for _, dir := range []string{c.Download.Dir, c.Download.EngineDir} {
		if err := os.MkdirAll(filepath.Clean(dir), 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}
