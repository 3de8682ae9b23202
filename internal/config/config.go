// Package config loads the standup configuration file and exposes the
// typed errors the failure classifier maps to exit codes.
package config

import (
	"fmt"
	"os"
	osuser "os/user"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// DefaultWidth is the report width used when the config file does not set one.
const DefaultWidth = 79

// EnvConfigPath overrides the default config file location.
const EnvConfigPath = "STANDUP_CONFIG"

// Error is a configuration problem the operator has to fix. Classified as
// exit code 1.
type Error struct {
	Reason string
}

func (e *Error) Error() string {
	return e.Reason
}

// Errorf creates a configuration error from a format string.
func Errorf(format string, args ...any) *Error {
	return &Error{Reason: fmt.Sprintf(format, args...)}
}

// SectionError signals a config file with no usable [general] section, the
// "no email configured anywhere" case. Classified as exit code 3.
type SectionError struct {
	Section string
	Path    string
}

func (e *SectionError) Error() string {
	return fmt.Sprintf("no [%s] section found in config file %s", e.Section, e.Path)
}

// Config is the parsed configuration file. Read-only after Load.
type Config struct {
	General *GeneralConfig `toml:"general"`
	Git     GitConfig      `toml:"git"`
	GitHub  GitHubConfig   `toml:"github"`

	path string
}

// GeneralConfig holds user identity and display defaults.
type GeneralConfig struct {
	Email EmailList `toml:"email"`
	Width int       `toml:"width"`
}

// GitConfig configures the git stats group.
type GitConfig struct {
	Repos []string `toml:"repos"`
}

// GitHubConfig configures the github stats group.
type GitHubConfig struct {
	Login string `toml:"login"`
	Token string `toml:"token"`
}

// EmailList accepts either a single comma-separated string or a list of
// strings in the config file.
type EmailList []string

// UnmarshalTOML implements toml.Unmarshaler.
func (l *EmailList) UnmarshalTOML(value any) error {
	switch v := value.(type) {
	case string:
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				*l = append(*l, part)
			}
		}
		return nil
	case []any:
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return fmt.Errorf("email entries must be strings, got %T", item)
			}
			if s = strings.TrimSpace(s); s != "" {
				*l = append(*l, s)
			}
		}
		return nil
	default:
		return fmt.Errorf("email must be a string or a list of strings, got %T", value)
	}
}

// DefaultPath returns the config file location under the XDG config home.
func DefaultPath() string {
	return filepath.Join(xdgConfigHome(), "standup", "config.toml")
}

func xdgConfigHome() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(home, ".config")
}

// Load reads the config file from STANDUP_CONFIG or the default location.
// A missing file is not an error: the [general] section check is deferred
// until the email list is actually needed. Environment variables from a
// local .env file are loaded first so GITHUB_TOKEN can live there.
func Load() (*Config, error) {
	_ = godotenv.Load() // Silently ignore if .env file doesn't exist

	path := os.Getenv(EnvConfigPath)
	if path == "" {
		path = DefaultPath()
	}
	return LoadFile(path)
}

// LoadFile reads the config file from an explicit path.
func LoadFile(path string) (*Config, error) {
	cfg := &Config{path: path}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, Errorf("cannot read config file %s: %v", path, err)
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, Errorf("invalid config file %s: %v", path, err)
	}

	// Environment token takes precedence over the config file
	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		cfg.GitHub.Token = token
	}
	return cfg, nil
}

// Path returns the location the config was loaded from (or would have been).
func (c *Config) Path() string {
	if c.path == "" {
		return DefaultPath()
	}
	return c.path
}

// Emails returns the default email list from the [general] section. A
// missing section is a SectionError so the caller can print config
// bootstrap guidance.
func (c *Config) Emails() ([]string, error) {
	if c.General == nil {
		return nil, &SectionError{Section: "general", Path: c.Path()}
	}
	return c.General.Email, nil
}

// Width returns the configured report width or the default.
func (c *Config) Width() int {
	if c.General != nil && c.General.Width > 0 {
		return c.General.Width
	}
	return DefaultWidth
}

// Example renders a minimal config file for the current OS user, shown
// when no email is configured anywhere.
func Example() string {
	username := "user"
	if u, err := osuser.Current(); err == nil && u.Username != "" {
		username = u.Username
	}
	return fmt.Sprintf("[general]\nemail = \"My Name <%s@domain.com>\"\n", username)
}
