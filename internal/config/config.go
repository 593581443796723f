// Package config manages CLI configuration from the config file, a project
// file and the environment.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/marcozac/go-jsonc"
	"github.com/spf13/viper"

	"github.com/kittycad/kittycad-go/internal/format"
	"github.com/kittycad/kittycad-go/option"
)

// Config is the main configuration structure for the CLI.
type Config struct {
	Host          string `mapstructure:"host" json:"host,omitempty"`
	APIToken      string `mapstructure:"api_token" json:"api_token,omitempty"`
	Output        string `mapstructure:"output" json:"output,omitempty"`
	LogLevel      string `mapstructure:"log_level" json:"log_level,omitempty"`
	DataDir       string `mapstructure:"data_dir" json:"data_dir,omitempty"`
	OAuthClientID string `mapstructure:"oauth_client_id" json:"oauth_client_id,omitempty"`
	MaxRetries    int    `mapstructure:"max_retries" json:"max_retries,omitempty"`
	Debug         bool   `mapstructure:"debug" json:"debug,omitempty"`

	WorkingDir string `mapstructure:"-" json:"-"`
	// File is the global config file that was read, if any.
	File string `mapstructure:"-" json:"-"`
}

// Application constants
const (
	appName          = "zoo"
	configName       = "config"
	localConfigName  = "zoo.jsonc"
	defaultLogLevel  = "info"
	defaultOutput    = "text"
	defaultTokenMode = 0o600
)

// ErrInvalidConfig wraps a project config file that could not be parsed.
type ErrInvalidConfig struct {
	Path   string
	source error
}

func (e ErrInvalidConfig) Error() string {
	return fmt.Sprintf("invalid config %s: %v", e.Path, e.source)
}

func (e ErrInvalidConfig) Unwrap() error {
	return e.source
}

var (
	mu  sync.Mutex
	cfg *Config
)

// Load initializes the configuration from environment variables and config files.
// If debug is true, the log level is forced to debug.
// Later calls return the first result.
func Load(workingDir string, debug bool) (*Config, error) {
	mu.Lock()
	defer mu.Unlock()
	if cfg != nil {
		return cfg, nil
	}

	loaded, err := load(workingDir, debug)
	if err != nil {
		return loaded, err
	}
	cfg = loaded
	return cfg, nil
}

func load(workingDir string, debug bool) (*Config, error) {
	vp := viper.New()
	configureViper(vp)
	setDefaults(vp, debug)

	// Read global config
	if err := readConfig(vp.ReadInConfig()); err != nil {
		return nil, err
	}

	// Load and merge local config
	if err := mergeLocalConfig(vp, workingDir); err != nil {
		return nil, err
	}

	loaded := &Config{WorkingDir: workingDir, File: vp.ConfigFileUsed()}
	if err := vp.Unmarshal(loaded); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if debug {
		loaded.LogLevel = "debug"
	}

	if err := loaded.Validate(); err != nil {
		return loaded, fmt.Errorf("config validation failed: %w", err)
	}
	return loaded, nil
}

// configureViper sets up viper's configuration paths and environment variables.
func configureViper(vp *viper.Viper) {
	vp.SetConfigName(configName)
	vp.SetConfigType("json")
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		vp.AddConfigPath(filepath.Join(xdg, appName))
	}
	vp.AddConfigPath(fmt.Sprintf("$HOME/.config/%s", appName))
	vp.SetEnvPrefix(strings.ToUpper(appName))
	vp.AutomaticEnv()

	// The older KITTYCAD_ names are still honored.
	vp.BindEnv("api_token", "ZOO_API_TOKEN", "KITTYCAD_API_TOKEN", "KITTYCAD_TOKEN")
	vp.BindEnv("host", "ZOO_HOST", "KITTYCAD_HOST")
}

// setDefaults configures default values for configuration options.
func setDefaults(vp *viper.Viper, debug bool) {
	vp.SetDefault("host", "")
	vp.SetDefault("api_token", "")
	vp.SetDefault("output", defaultOutput)
	vp.SetDefault("data_dir", defaultDataDir())
	vp.SetDefault("oauth_client_id", "")
	vp.SetDefault("max_retries", 0)
	vp.SetDefault("debug", debug)
	vp.SetDefault("log_level", defaultLogLevel)
}

func defaultDataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "."+appName)
	}
	return filepath.Join(home, ".local", "share", appName)
}

// readConfig handles the result of reading a configuration file.
func readConfig(err error) error {
	if err == nil {
		return nil
	}

	// It's okay if the config file doesn't exist
	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) {
		return nil
	}

	return fmt.Errorf("failed to read config: %w", err)
}

// mergeLocalConfig merges zoo.jsonc from the working directory, which may
// carry comments. Trailing commas are not accepted.
func mergeLocalConfig(vp *viper.Viper, workingDir string) error {
	if workingDir == "" {
		return nil
	}
	path := filepath.Join(workingDir, localConfigName)
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	local := map[string]any{}
	if err := jsonc.Unmarshal(data, &local); err != nil {
		return ErrInvalidConfig{Path: path, source: err}
	}
	return vp.MergeConfigMap(local)
}

// Validate checks that the loaded values are usable and normalizes Output.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("config not loaded")
	}
	out, err := format.Parse(c.Output)
	if err != nil {
		return err
	}
	c.Output = string(out)
	if c.MaxRetries < 0 {
		return fmt.Errorf("max_retries must not be negative, got %d", c.MaxRetries)
	}
	if c.Host != "" {
		u, err := url.Parse(c.Host)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("host %q is not an absolute URL", c.Host)
		}
	}
	return nil
}

// Get returns the current configuration.
// It's safe to call this function multiple times.
func Get() *Config {
	mu.Lock()
	defer mu.Unlock()
	return cfg
}

// ClientOptions are the SDK options this configuration implies.
func (c *Config) ClientOptions() []option.RequestOption {
	var opts []option.RequestOption
	if c.Host != "" {
		opts = append(opts, option.WithBaseURL(c.Host))
	}
	if c.APIToken != "" {
		opts = append(opts, option.WithAPIToken(c.APIToken))
	}
	if c.MaxRetries > 0 {
		opts = append(opts, option.WithMaxRetries(c.MaxRetries))
	}
	return opts
}

// Path is where the global config file is read from, or would be created.
func (c *Config) Path() (string, error) {
	if c.File != "" {
		return c.File, nil
	}
	return defaultConfigPath()
}

func defaultConfigPath() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appName, configName+".json"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".config", appName, configName+".json"), nil
}

// updateCfgFile rewrites the global config file in place. Keys the CLI does
// not know are kept.
func (c *Config) updateCfgFile(update func(settings map[string]any)) error {
	configFile, err := c.Path()
	if err != nil {
		return err
	}

	configData := []byte(`{}`)
	data, err := os.ReadFile(configFile)
	switch {
	case err == nil:
		configData = data
	case errors.Is(err, os.ErrNotExist):
		slog.Info("config file not found, creating new one", "path", configFile)
		if err := os.MkdirAll(filepath.Dir(configFile), 0o700); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	default:
		return fmt.Errorf("failed to read config file: %w", err)
	}

	settings := map[string]any{}
	if err := json.Unmarshal(configData, &settings); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	update(settings)

	updatedData, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	// The file holds a credential.
	if err := os.WriteFile(configFile, updatedData, defaultTokenMode); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	c.File = configFile
	return nil
}

// SaveToken stores token in memory and in the global config file.
func (c *Config) SaveToken(token string) error {
	c.APIToken = token
	return c.updateCfgFile(func(settings map[string]any) {
		settings["api_token"] = token
	})
}

// ClearToken removes the stored token.
func (c *Config) ClearToken() error {
	c.APIToken = ""
	return c.updateCfgFile(func(settings map[string]any) {
		delete(settings, "api_token")
	})
}

// TokenSource reports where the active API token would come from: "env",
// "config" or "" when none is set.
func (c *Config) TokenSource() string {
	for _, k := range []string{"ZOO_API_TOKEN", "KITTYCAD_API_TOKEN", "KITTYCAD_TOKEN"} {
		if os.Getenv(k) != "" {
			return "env"
		}
	}
	if c.APIToken != "" {
		return "config"
	}
	return ""
}
