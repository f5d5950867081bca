//file: config/config.go

package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// DefaultServerURL is used when neither the config file nor OBOT_URL set one
const DefaultServerURL = "http://localhost:8080"

type Config struct {
	Server     ServerConfig     `json:"server" yaml:"server" mapstructure:"server"`
	Credential CredentialConfig `json:"credential" yaml:"credential" mapstructure:"credential"`
	Poll       PollConfig       `json:"poll" yaml:"poll" mapstructure:"poll"`
	Prompt     PromptConfig     `json:"prompt" yaml:"prompt" mapstructure:"prompt"`
	Browser    BrowserConfig    `json:"browser" yaml:"browser" mapstructure:"browser"`
	Logging    LogConfig        `json:"logging" yaml:"logging" mapstructure:"logging"`
	Metrics    MetricsConfig    `json:"metrics" yaml:"metrics" mapstructure:"metrics"`
}

type ServerConfig struct {
	URL string `json:"url" yaml:"url" mapstructure:"url"`

	// Zero means requests are never cut short, which matches the
	// behaviour of the interactive flow.
	RequestTimeout time.Duration `json:"requestTimeout" yaml:"requestTimeout" mapstructure:"requestTimeout"`
}

// CredentialConfig holds the serialized credential from a previous run.
// It is normally only ever supplied through the environment.
type CredentialConfig struct {
	Existing string `json:"existing" yaml:"existing" mapstructure:"existing"`
}

type PollConfig struct {
	Interval time.Duration `json:"interval" yaml:"interval" mapstructure:"interval"`
}

type PromptConfig struct {
	// Command is an external program receiving the prompt as JSON on stdin.
	// Empty selects the terminal prompter.
	Command []string `json:"command" yaml:"command" mapstructure:"command"`
}

type BrowserConfig struct {
	Disabled bool `json:"disabled" yaml:"disabled" mapstructure:"disabled"`
}

type LogConfig struct {
	Level      string `json:"level" yaml:"level" mapstructure:"level"`                // debug, info, warn, error
	OutputPath string `json:"outputPath" yaml:"outputPath" mapstructure:"outputPath"` // file path or "stderr"
	Encoding   string `json:"encoding" yaml:"encoding" mapstructure:"encoding"`       // json or console
}

type MetricsConfig struct {
	// Textfile is a node-exporter textfile collector path written on exit
	Textfile string `json:"textfile" yaml:"textfile" mapstructure:"textfile"`
}

// Load reads the optional configuration file, applies environment
// overrides and validates the result. An empty path skips the file.
func Load(path string) (*Config, error) {
	var config Config

	if path != "" {
		if err := loadFile(path, &config); err != nil {
			return nil, err
		}
	}

	applyEnv(&config, newEnv())
	setDefaults(&config)

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func loadFile(path string, config *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	var parseErr error

	switch ext {
	case ".yaml", ".yml":
		parseErr = yaml.Unmarshal(data, config)
	case ".json":
		parseErr = json.Unmarshal(data, config)
	default:
		// Try JSON first, then YAML if JSON fails
		parseErr = json.Unmarshal(data, config)
		if parseErr != nil {
			if yamlErr := yaml.Unmarshal(data, config); yamlErr != nil {
				return fmt.Errorf("failed to parse config file (tried JSON and YAML): %w", parseErr)
			}
			parseErr = nil
		}
	}

	if parseErr != nil {
		return fmt.Errorf("failed to parse config file: %w", parseErr)
	}
	return nil
}

// newEnv builds a viper instance that only resolves environment variables.
// The well-known variables shared with the host keep their historical names;
// everything else lives under OBOT_CRED_.
func newEnv() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("OBOT_CRED")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	_ = v.BindEnv("server.url", "OBOT_URL")
	_ = v.BindEnv("credential.existing", "GPTSCRIPT_EXISTING_CREDENTIAL")
	return v
}

// applyEnv copies every environment value that is set over the file values
func applyEnv(cfg *Config, v *viper.Viper) {
	if v.IsSet("server.url") {
		cfg.Server.URL = v.GetString("server.url")
	}
	if v.IsSet("server.requesttimeout") {
		cfg.Server.RequestTimeout = v.GetDuration("server.requesttimeout")
	}
	if v.IsSet("credential.existing") {
		cfg.Credential.Existing = v.GetString("credential.existing")
	}
	if v.IsSet("poll.interval") {
		cfg.Poll.Interval = v.GetDuration("poll.interval")
	}
	if v.IsSet("prompt.command") {
		cfg.Prompt.Command = strings.Fields(v.GetString("prompt.command"))
	}
	if v.IsSet("browser.disabled") {
		cfg.Browser.Disabled = v.GetBool("browser.disabled")
	}
	if v.IsSet("logging.level") {
		cfg.Logging.Level = v.GetString("logging.level")
	}
	if v.IsSet("logging.encoding") {
		cfg.Logging.Encoding = v.GetString("logging.encoding")
	}
	if v.IsSet("logging.outputpath") {
		cfg.Logging.OutputPath = v.GetString("logging.outputpath")
	}
	if v.IsSet("metrics.textfile") {
		cfg.Metrics.Textfile = v.GetString("metrics.textfile")
	}
}

// setDefaults sets default values for configuration
func setDefaults(cfg *Config) {
	if cfg.Server.URL == "" {
		cfg.Server.URL = DefaultServerURL
	}
	cfg.Server.URL = strings.TrimRight(cfg.Server.URL, "/")

	if cfg.Poll.Interval == 0 {
		cfg.Poll.Interval = time.Second
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "warn"
	}
	if cfg.Logging.OutputPath == "" {
		cfg.Logging.OutputPath = "stderr"
	}
	if cfg.Logging.Encoding == "" {
		cfg.Logging.Encoding = "console"
	}
}

// validateConfig performs validation of all configuration values
func validateConfig(cfg *Config) error {
	u, err := url.Parse(cfg.Server.URL)
	if err != nil {
		return fmt.Errorf("invalid server URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("server URL must use http or https, got %q", cfg.Server.URL)
	}
	if u.Host == "" {
		return fmt.Errorf("server URL has no host: %q", cfg.Server.URL)
	}

	if cfg.Server.RequestTimeout < 0 {
		return fmt.Errorf("request timeout cannot be negative")
	}
	if cfg.Poll.Interval <= 0 {
		return fmt.Errorf("poll interval must be greater than 0")
	}

	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", cfg.Logging.Level)
	}

	switch cfg.Logging.Encoding {
	case "json", "console":
	default:
		return fmt.Errorf("invalid log encoding: %s", cfg.Logging.Encoding)
	}

	if cfg.Logging.OutputPath == "stdout" {
		return fmt.Errorf("log output path cannot be stdout, it carries the credential")
	}

	return nil
}

// ApplyOverrides applies command line flag overrides to the configuration.
// Zero values leave the current setting untouched.
func (c *Config) ApplyOverrides(serverURL string, requestTimeout, pollInterval time.Duration, promptCommand []string, noBrowser bool, logLevel, metricsTextfile string) error {
	if serverURL != "" {
		c.Server.URL = strings.TrimRight(serverURL, "/")
	}
	if requestTimeout > 0 {
		c.Server.RequestTimeout = requestTimeout
	}
	if pollInterval > 0 {
		c.Poll.Interval = pollInterval
	}
	if len(promptCommand) > 0 {
		c.Prompt.Command = promptCommand
	}
	if noBrowser {
		c.Browser.Disabled = true
	}
	if logLevel != "" {
		c.Logging.Level = logLevel
	}
	if metricsTextfile != "" {
		c.Metrics.Textfile = metricsTextfile
	}
	return validateConfig(c)
}
