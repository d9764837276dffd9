package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// applyDefaults seeds Viper with defaults defined in GetConfigOptions.
// This centralizes default values and descriptions in one place.
func applyDefaults(v *viper.Viper) {
	for _, o := range GetConfigOptions() {
		v.SetDefault(o.Key, o.Default)
	}
}

// Load resolves configuration with precedence: defaults < file < env.
// The provided Viper instance is mutated with defaults, file contents, and env.
func Load(ctx context.Context, v *viper.Viper) error {
	// Configure Viper search paths. If SetConfigFile was provided upstream,
	// it takes precedence; these paths are harmless fallbacks.
	if v.ConfigFileUsed() == "" {
		v.SetConfigName("config")
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			v.AddConfigPath(filepath.Join(xdg, "inkpad"))
		}
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "inkpad"))
		}
		v.AddConfigPath(".")
	}

	// Apply centralized defaults (lowest precedence)
	applyDefaults(v)

	// Read config file if present (overrides defaults)
	_ = v.ReadInConfig()

	// Environment variables: INKPAD_* (highest among these sources)
	v.SetEnvPrefix("inkpad")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Normalize dependent values post-merge
	if v.GetString("data_dir") == "" {
		v.Set("data_dir", defaultDataDir())
	}
	return nil
}

// CheckConfigValidity reports every problem in one error so operators can fix
// a config file in a single pass.
func CheckConfigValidity(v *viper.Viper) error {
	var problems []string
	if strings.TrimSpace(v.GetString("data_dir")) == "" {
		problems = append(problems, "data_dir is required")
	}
	if strings.TrimSpace(v.GetString("http_addr")) == "" {
		problems = append(problems, "http_addr is required")
	}
	if v.GetInt("export.page_size") <= 0 {
		problems = append(problems, "export.page_size must be greater than 0")
	}
	if v.GetInt("render.word_wrap") <= 0 {
		problems = append(problems, "render.word_wrap must be greater than 0")
	}
	if v.GetInt("live.send_buffer") <= 0 {
		problems = append(problems, "live.send_buffer must be greater than 0")
	}
	if v.GetDuration("live.ping_interval") <= 0 {
		problems = append(problems, "live.ping_interval must be greater than 0")
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// defaultDataDir resolves default data dir: $XDG_DATA_HOME/inkpad or ~/.local/share/inkpad
func defaultDataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "inkpad")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "inkpad")
}

// DefaultConfigPath resolves the standard config.toml location.
func DefaultConfigPath() string {
	xdg := os.Getenv("XDG_CONFIG_HOME")
	if xdg == "" {
		home, _ := os.UserHomeDir()
		xdg = filepath.Join(home, ".config")
	}
	return filepath.Join(xdg, "inkpad", "config.toml")
}

type ConfigOption struct {
	Key     string
	Default any
	Comment string
}

// GetConfigOptions returns the default configuration options and their meanings.
// This is the single source of truth for defaults and generator output.
func GetConfigOptions() []ConfigOption {
	return []ConfigOption{
		// Core paths and conventions
		{Key: "data_dir", Default: defaultDataDir(), Comment: "Directory for local state; DB is data_dir/inkpad.db"},
		{Key: "default_tags", Default: []string{}, Comment: "Tags applied when creating a document without explicit tags"},

		{Key: "http_addr", Default: ":10101", Comment: "HTTP listen address for the editor/preview server"},
		{Key: "render.word_wrap", Default: 80, Comment: "Column width for terminal (glamour) markdown output"},
		{Key: "auth.token", Default: "", Comment: "Optional bearer token guarding mutating API routes; empty disables auth"},
		{Key: "export.page_size", Default: 200, Comment: "Batch size for list/search export paging"},

		{Key: "live.send_buffer", Default: 64, Comment: "Per-connection buffered previews before a slow client is dropped"},
		{Key: "live.ping_interval", Default: "30s", Comment: "WebSocket keepalive ping interval"},

		{Key: "editor.delete_empty", Default: true, Comment: "Delete document if editor exits with no content"},
	}
}

// ResolveDBPath uses data_dir to return the sqlite DB file path.
func ResolveDBPath(v *viper.Viper) string {
	dir := v.GetString("data_dir")
	if dir == "" {
		dir = defaultDataDir()
	}
	// Expand ~ for convenience
	if len(dir) > 0 && dir[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, dir[1:])
		}
	}
	return filepath.Join(dir, "inkpad.db")
}
