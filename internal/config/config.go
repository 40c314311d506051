// Package config provides configuration management for the macro recorder.
package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/caarlos0/env/v11"
)

// EnvPrefix is prepended to every environment override.
const EnvPrefix = "INPUTMACRO_"

// Config represents the application configuration
type Config struct {
	// Hotkeys are the global shortcuts, e.g. "Ctrl+Shift+R"
	Hotkeys HotkeyConfig `json:"hotkeys"`

	// Playback holds the defaults used by the tray and hotkeys
	Playback PlaybackConfig `json:"playback"`

	Capture CaptureConfig `json:"capture"`
	Storage StorageConfig `json:"storage"`
	Logging LoggingConfig `json:"logging"`
}

// HotkeyConfig contains the global shortcuts. An empty string leaves the
// action unbound.
type HotkeyConfig struct {
	ToggleRecording string `json:"toggle_recording" env:"HOTKEY_TOGGLE_RECORDING"`
	Play            string `json:"play" env:"HOTKEY_PLAY"`
	StopPlayback    string `json:"stop_playback" env:"HOTKEY_STOP_PLAYBACK"`
}

// PlaybackConfig contains playback defaults
type PlaybackConfig struct {
	// Speed is the playback rate multiplier (1.0 = recorded pace)
	Speed float64 `json:"speed" env:"PLAYBACK_SPEED"`

	// Repeat is the number of passes; 0 repeats until stopped
	Repeat int `json:"repeat" env:"PLAYBACK_REPEAT"`
}

// CaptureConfig contains recording settings
type CaptureConfig struct {
	// MoveDebounceMs drops repeated identical moves inside this window.
	// 0 selects the default, a negative value disables debouncing.
	MoveDebounceMs int `json:"move_debounce_ms" env:"CAPTURE_MOVE_DEBOUNCE_MS"`

	// QueueSize bounds the buffer between the hook and the recording
	QueueSize int `json:"queue_size" env:"CAPTURE_QUEUE_SIZE"`
}

// StorageConfig controls where recordings are kept
type StorageConfig struct {
	MacroDir    string `json:"macro_dir" env:"STORAGE_MACRO_DIR"`
	DefaultFile string `json:"default_file" env:"STORAGE_DEFAULT_FILE"`
}

// LoggingConfig selects the log level ("debug", "info", "warn", "error") and
// format ("text", "json")
type LoggingConfig struct {
	Level  string `json:"level" env:"LOG_LEVEL"`
	Format string `json:"format" env:"LOG_FORMAT"`
}

// DefaultConfig returns a new Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Hotkeys: HotkeyConfig{
			ToggleRecording: "Ctrl+Shift+R",
			Play:            "Ctrl+Shift+P",
			StopPlayback:    "Ctrl+Shift+S",
		},
		Playback: PlaybackConfig{Speed: 1.0, Repeat: 1},
		Capture:  CaptureConfig{MoveDebounceMs: 5, QueueSize: 4096},
		Storage:  StorageConfig{DefaultFile: "recording.macro.json"},
		Logging:  LoggingConfig{Level: "info", Format: "text"},
	}
}

// Normalize replaces out-of-range values with their defaults.
func (c *Config) Normalize() {
	d := DefaultConfig()
	if c.Playback.Speed <= 0 || math.IsNaN(c.Playback.Speed) || math.IsInf(c.Playback.Speed, 0) {
		c.Playback.Speed = d.Playback.Speed
	}
	if c.Playback.Repeat < 0 {
		c.Playback.Repeat = d.Playback.Repeat
	}
	if c.Capture.QueueSize <= 0 {
		c.Capture.QueueSize = d.Capture.QueueSize
	}
	if c.Storage.DefaultFile == "" {
		c.Storage.DefaultFile = d.Storage.DefaultFile
	}
	if c.Logging.Level == "" {
		c.Logging.Level = d.Logging.Level
	}
	if c.Logging.Format == "" {
		c.Logging.Format = d.Logging.Format
	}
}

// DefaultMacroPath is where the tray and hotkeys save and load recordings.
func (c Config) DefaultMacroPath() string {
	return filepath.Join(c.Storage.MacroDir, c.Storage.DefaultFile)
}

// ApplyEnv overrides fields from INPUTMACRO_* environment variables.
func ApplyEnv(c *Config) error {
	if err := env.ParseWithOptions(c, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Manager handles loading and saving configuration
type Manager struct {
	mu         sync.Mutex
	configPath string
	config     *Config
	onChanged  func(*Config)
}

// NewManager creates a configuration manager for the per-user config file.
func NewManager() (*Manager, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return nil, err
	}
	return NewManagerAt(configPath), nil
}

// NewManagerAt creates a configuration manager for an explicit file. Macros
// default to a "macros" directory beside it.
func NewManagerAt(configPath string) *Manager {
	cfg := DefaultConfig()
	cfg.Storage.MacroDir = filepath.Join(filepath.Dir(configPath), "macros")
	return &Manager{
		configPath: configPath,
		config:     cfg,
	}
}

// getConfigPath returns the path to the configuration file
func getConfigPath() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, "Library", "Application Support", "inputmacro")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			appData = filepath.Join(home, "AppData", "Roaming")
		}
		configDir = filepath.Join(appData, "inputmacro")
	default:
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, ".config", "inputmacro")
	}

	return filepath.Join(configDir, "config.json"), nil
}

// Path returns the configuration file location.
func (m *Manager) Path() string {
	return m.configPath
}

// Load reads the configuration from disk, then applies environment overrides.
// A missing file leaves the defaults in place.
func (m *Manager) Load() error {
	m.mu.Lock()

	cfg := *m.config
	data, err := os.ReadFile(m.configPath)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		m.mu.Unlock()
		return err
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			m.mu.Unlock()
			return fmt.Errorf("parse %s: %w", m.configPath, err)
		}
	}

	if err := ApplyEnv(&cfg); err != nil {
		m.mu.Unlock()
		return err
	}
	cfg.Normalize()
	m.config = &cfg
	fn := m.onChanged
	m.mu.Unlock()

	if fn != nil {
		fn(m.Get())
	}
	return nil
}

// Save writes the configuration to disk
func (m *Manager) Save() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := json.MarshalIndent(m.config, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(m.configPath), 0755); err != nil {
		return err
	}
	slog.Info("Config: saving configuration", "path", m.configPath, "bytes", len(data))
	return os.WriteFile(m.configPath, data, 0644)
}

// Get returns a copy of the current configuration
func (m *Manager) Get() *Config {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *m.config
	return &c
}

// Set updates the configuration
func (m *Manager) Set(config *Config) {
	c := *config
	c.Normalize()

	m.mu.Lock()
	m.config = &c
	fn := m.onChanged
	m.mu.Unlock()

	if fn != nil {
		fn(m.Get())
	}
}

// RegisterChangeCallback registers a function to be called when config changes
func (m *Manager) RegisterChangeCallback(fn func(*Config)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onChanged = fn
}
