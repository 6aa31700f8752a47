// Package config provides the configuration structure for the voice-clone client.
//
// Configuration is read from a voice-clone.toml discovered by walking up the
// directory tree from the working directory. Every field has a built-in
// default so the client works without a configuration file at all.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// ConfigFileName is the file searched for up the directory tree.
const ConfigFileName = "voice-clone.toml"

// Built-in defaults.
const (
	defaultServiceURL     = "http://localhost:8000"
	defaultTimeoutSeconds = 120
	defaultPlayerCommand  = "aplay"
	defaultExaggeration   = 0.5
	defaultCFGWeight      = 0.5
	defaultSampleRate     = 24000
	voiceSamplesDirName   = "voice-samples"
	logsDirName           = "voice-clone"
)

// ErrConfigRead indicates the configuration file exists but could not be read.
var ErrConfigRead = errors.New("failed to read configuration file")

// ServiceConfig holds the connection settings for the synthesis service.
type ServiceConfig struct {
	URL            string `toml:"url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	// DefaultSampleRate is used when the returned WAV container cannot be
	// parsed.
	DefaultSampleRate int `toml:"default_sample_rate"`
}

// VoicesConfig holds the voice-sample lookup settings.
type VoicesConfig struct {
	// SampleDir is scanned for *.wav voice-sample candidates.
	SampleDir string `toml:"sample_dir"`
}

// PlayerConfig holds the external audio player invocation settings.
type PlayerConfig struct {
	Command string   `toml:"command"`
	Args    []string `toml:"args"`
}

// SynthesisConfig holds the default synthesis parameters.
type SynthesisConfig struct {
	Exaggeration float64 `toml:"exaggeration"`
	CFGWeight    float64 `toml:"cfg_weight"`
}

// PathsConfig holds the file-system paths used by the client.
type PathsConfig struct {
	LogsDir string `toml:"logs_dir"`
}

// Config is the root configuration structure.
type Config struct {
	Service   ServiceConfig   `toml:"service"`
	Voices    VoicesConfig    `toml:"voices"`
	Player    PlayerConfig    `toml:"player"`
	Synthesis SynthesisConfig `toml:"synthesis"`
	Paths     PathsConfig     `toml:"paths"`
}

// Load resolves the configuration for the client. It walks up the directory
// tree from startDir looking for voice-clone.toml; when none is found the
// built-in defaults are returned. The second return value is the directory
// the file was found in, or "" when defaults are in effect.
func Load(startDir string) (*Config, string, error) {
	cfg := Default()

	path, found, findErr := findConfigFile(startDir)
	if findErr != nil {
		return nil, "", findErr
	}

	if !found {
		return cfg, "", nil
	}

	data, readErr := os.ReadFile(path)
	if readErr != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrConfigRead, readErr)
	}

	unmarshalErr := toml.Unmarshal(data, cfg)
	if unmarshalErr != nil {
		return nil, "", fmt.Errorf("failed to parse %s: %w", path, unmarshalErr)
	}

	applyDefaults(cfg)

	return cfg, filepath.Dir(path), nil
}

// Default returns a configuration populated entirely from built-in defaults.
func Default() *Config {
	homeDir, homeErr := os.UserHomeDir()
	if homeErr != nil {
		homeDir = os.TempDir()
	}

	return &Config{
		Service: ServiceConfig{
			URL:               defaultServiceURL,
			TimeoutSeconds:    defaultTimeoutSeconds,
			DefaultSampleRate: defaultSampleRate,
		},
		Voices: VoicesConfig{
			SampleDir: filepath.Join(homeDir, voiceSamplesDirName),
		},
		Player: PlayerConfig{
			Command: defaultPlayerCommand,
			Args:    nil,
		},
		Synthesis: SynthesisConfig{
			Exaggeration: defaultExaggeration,
			CFGWeight:    defaultCFGWeight,
		},
		Paths: PathsConfig{
			LogsDir: filepath.Join(os.TempDir(), logsDirName),
		},
	}
}

// applyDefaults replaces explicitly invalid values (empty strings,
// non-positive numbers) with their defaults. Unset fields already carry
// defaults because Load unmarshals into a Default()-populated struct.
func applyDefaults(cfg *Config) {
	defaults := Default()

	if cfg.Service.URL == "" {
		cfg.Service.URL = defaults.Service.URL
	}

	if cfg.Service.TimeoutSeconds <= 0 {
		cfg.Service.TimeoutSeconds = defaults.Service.TimeoutSeconds
	}

	if cfg.Service.DefaultSampleRate <= 0 {
		cfg.Service.DefaultSampleRate = defaults.Service.DefaultSampleRate
	}

	if cfg.Voices.SampleDir == "" {
		cfg.Voices.SampleDir = defaults.Voices.SampleDir
	}

	if cfg.Player.Command == "" {
		cfg.Player.Command = defaults.Player.Command
	}

	if cfg.Paths.LogsDir == "" {
		cfg.Paths.LogsDir = defaults.Paths.LogsDir
	}
}

// findConfigFile walks up the directory tree from startDir until it finds
// voice-clone.toml or reaches the filesystem root.
func findConfigFile(startDir string) (string, bool, error) {
	dir, absErr := filepath.Abs(startDir)
	if absErr != nil {
		return "", false, fmt.Errorf(
			"could not resolve absolute path for %q: %w",
			startDir,
			absErr,
		)
	}

	for {
		candidate := filepath.Join(dir, ConfigFileName)

		_, statErr := os.Stat(candidate)
		if statErr == nil {
			return candidate, true, nil
		}

		if !os.IsNotExist(statErr) {
			return "", false, fmt.Errorf(
				"error checking config path %q: %w",
				candidate,
				statErr,
			)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false, nil
		}

		dir = parent
	}
}
