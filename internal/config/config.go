// Package config implements configuration management for the Research Study
// Chat Console. A profile names the backend host and the participant context
// (study identifiers) used to open a session; themes control transcript
// styling. Profiles live in a yaml file under the user config directory.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/studychat/console/internal/interfaces"
)

// Config represents the complete configuration file structure
type Config struct {
	Profiles map[string]interfaces.Profile `yaml:"profiles"`
	Themes   map[string]interfaces.Theme   `yaml:"themes"`
}

// Manager implements the ConfigManager interface
type Manager struct {
	configPath   string
	cachedConfig *Config
}

// NewManager creates a configuration manager with OS-appropriate paths
func NewManager() (*Manager, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return nil, fmt.Errorf("failed to determine configuration path: %w", err)
	}

	manager := &Manager{
		configPath: configPath,
	}

	if err := manager.ensureConfigDirectory(); err != nil {
		return nil, fmt.Errorf("failed to create configuration directory: %w", err)
	}

	return manager, nil
}

// getConfigPath determines the OS-appropriate configuration file path
func getConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to determine home directory: %w", err)
	}

	var configDir string
	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		configDir = filepath.Join(xdgConfigHome, "studychat")
	} else {
		configDir = filepath.Join(homeDir, ".config", "studychat")
	}

	return filepath.Join(configDir, "profiles.yaml"), nil
}

// ensureConfigDirectory creates the configuration directory with secure permissions
func (m *Manager) ensureConfigDirectory() error {
	configDir := filepath.Dir(m.configPath)

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory %s: %w", configDir, err)
	}

	return nil
}

// loadConfig reads and parses the configuration file, creating defaults if necessary
func (m *Manager) loadConfig() (*Config, error) {
	if m.cachedConfig != nil {
		return m.cachedConfig, nil
	}

	if _, err := os.Stat(m.configPath); os.IsNotExist(err) {
		config := m.createDefaultConfig()
		if err := m.saveConfig(config); err != nil {
			return nil, fmt.Errorf("failed to create default configuration: %w", err)
		}
		m.cachedConfig = config
		return config, nil
	}

	data, err := os.ReadFile(m.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file: %w", err)
	}

	m.cachedConfig = &config
	return &config, nil
}

// saveConfig writes the configuration to disk
func (m *Manager) saveConfig(config *Config) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal configuration: %w", err)
	}

	// Profiles carry study identifiers, so keep the file owner-only
	if err := os.WriteFile(m.configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}

	return nil
}

// createDefaultConfig generates a sensible default configuration
func (m *Manager) createDefaultConfig() *Config {
	return &Config{
		Profiles: map[string]interfaces.Profile{
			"default": {
				Name:  "default",
				Host:  "localhost:8000",
				Theme: "catppuccin",
			},
		},
		Themes: map[string]interfaces.Theme{
			"catppuccin": {
				Name:  "catppuccin",
				User:  "#89B4FA",
				Bot:   "#A6E3A1",
				Error: "#F38BA8",
				Info:  "#6C7086",
			},
			"plain": {
				Name:  "plain",
				User:  "#0366D6",
				Bot:   "#22863A",
				Error: "#D73A49",
				Info:  "#6A737D",
			},
		},
	}
}

// LoadProfile retrieves a profile by name from the configuration file
func (m *Manager) LoadProfile(name string) (*interfaces.Profile, error) {
	config, err := m.loadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	profile, exists := config.Profiles[name]
	if !exists {
		return nil, fmt.Errorf("profile '%s' not found", name)
	}

	// Set the name field to ensure consistency
	profile.Name = name

	if err := m.ValidateProfile(&profile); err != nil {
		return nil, fmt.Errorf("profile '%s' is invalid: %w", name, err)
	}

	return &profile, nil
}

// SaveProfile persists a profile to the configuration file
func (m *Manager) SaveProfile(profile *interfaces.Profile) error {
	if err := m.ValidateProfile(profile); err != nil {
		return fmt.Errorf("cannot save invalid profile: %w", err)
	}

	config, err := m.loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if config.Profiles == nil {
		config.Profiles = make(map[string]interfaces.Profile)
	}

	config.Profiles[profile.Name] = *profile

	if err := m.saveConfig(config); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	m.cachedConfig = config
	return nil
}

// ListProfiles returns all available profile names
func (m *Manager) ListProfiles() ([]string, error) {
	config, err := m.loadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	var profileNames []string
	for name := range config.Profiles {
		profileNames = append(profileNames, name)
	}

	return profileNames, nil
}

// LoadTheme retrieves theme configuration by name
func (m *Manager) LoadTheme(name string) (*interfaces.Theme, error) {
	config, err := m.loadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	theme, exists := config.Themes[name]
	if !exists {
		return nil, fmt.Errorf("theme '%s' not found", name)
	}

	theme.Name = name
	return &theme, nil
}

// ValidateProfile ensures profile has all required fields. Participant
// identifiers may stay empty in the profile when supplied on the command line;
// completeness of the bundle is enforced before the session starts.
func (m *Manager) ValidateProfile(profile *interfaces.Profile) error {
	if profile == nil {
		return fmt.Errorf("profile cannot be nil")
	}

	if strings.TrimSpace(profile.Name) == "" {
		return fmt.Errorf("profile name cannot be empty")
	}

	if strings.TrimSpace(profile.Host) == "" {
		return fmt.Errorf("profile host cannot be empty")
	}

	return nil
}

// GetConfigPath returns the path to the configuration file
func (m *Manager) GetConfigPath() string {
	return m.configPath
}

// InvalidateCache clears the cached configuration, forcing a reload on next access
func (m *Manager) InvalidateCache() {
	m.cachedConfig = nil
}

// DeleteProfile removes a profile from the configuration
func (m *Manager) DeleteProfile(name string) error {
	config, err := m.loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if _, exists := config.Profiles[name]; !exists {
		return fmt.Errorf("profile '%s' does not exist", name)
	}

	if name == "default" {
		return fmt.Errorf("cannot delete the default profile")
	}

	delete(config.Profiles, name)

	if err := m.saveConfig(config); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	m.cachedConfig = config
	return nil
}
