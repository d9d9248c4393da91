package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	securejoin "github.com/cyphar/filepath-securejoin"
	"github.com/joho/godotenv"

	"github.com/gido-dev/gido/internal/errors"
)

// targetNameRegex validates monitor target names.
// Names are used as file names in the audit directory, so they follow the
// same rules as DNS labels: lowercase letters, digits, underscores or
// hyphens, starting with a letter or digit, at most 63 characters.
var targetNameRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,62}$`)

// ValidateTargetName checks if a target name is valid.
func ValidateTargetName(name string) error {
	if name == "" {
		return fmt.Errorf("target name cannot be empty")
	}

	if !targetNameRegex.MatchString(name) {
		return fmt.Errorf("invalid target name %q: must start with a lowercase letter or digit, contain only lowercase letters, digits, underscores, or hyphens, and be at most 63 characters", name)
	}

	return nil
}

const (
	DefaultConfigDir  = "/etc/gido"
	DefaultStateDir   = "/var/lib/gido"
	DefaultSecretsDir = "/run/gido-secrets"
	ConfigFileName    = "config.toml"
)

// Proxy defaults.
const (
	DefaultProxyHost       = "0.0.0.0"
	DefaultProxyPort       = 5000
	DefaultUpstreamURL     = "https://openrouter.ai/api/v1/chat/completions"
	DefaultModel           = "arcee-ai/trinity-mini:free"
	DefaultTemperature     = 0.2
	DefaultMaxTokens       = 500
	DefaultUpstreamTimeout = 60 * time.Second
)

// Monitor defaults.
const (
	DefaultTargetName    = "educationplannerbc"
	DefaultMonitorURL    = "https://www.educationplannerbc.ca/"
	DefaultCheckInterval = 60 * time.Second
	DefaultMarker        = "undergoing temporary system maintenance"
	DefaultFetchTimeout  = 10 * time.Second
	DefaultSubject       = "UBC EducationPlannerBC is Back Online!"
	DefaultBodyIntro     = "The EducationPlannerBC application is now available."
	DefaultHookTimeout   = 30 * time.Second
)

// SMTP defaults.
const (
	DefaultSMTPHost    = "smtp.gmail.com"
	DefaultSMTPPort    = 465
	DefaultSMTPTimeout = 10 * time.Second
)

// Secret is a string that never prints, logs or serializes its value.
type Secret string

const redacted = "[redacted]"

// Reveal returns the raw secret value.
func (s Secret) Reveal() string {
	return string(s)
}

// IsSet reports whether the secret holds a value.
func (s Secret) IsSet() bool {
	return s != ""
}

func (s Secret) String() string {
	if s == "" {
		return ""
	}
	return redacted
}

// LogValue implements slog.LogValuer.
func (s Secret) LogValue() slog.Value {
	return slog.StringValue(s.String())
}

// MarshalText implements encoding.TextMarshaler so JSON and TOML encoders
// emit the redacted form.
func (s Secret) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Secret) UnmarshalText(text []byte) error {
	*s = Secret(text)
	return nil
}

// Config is the gido configuration, loaded from config.toml with
// environment overrides.
type Config struct {
	StateDir   string `toml:"state_dir"`
	SecretsDir string `toml:"secrets_dir"`

	Proxy   ProxyConfig   `toml:"proxy"`
	Monitor MonitorConfig `toml:"monitor"`
	SMTP    SMTPConfig    `toml:"smtp"`
}

// ProxyConfig configures the chat proxy.
type ProxyConfig struct {
	Host        string        `toml:"host"`
	Port        int           `toml:"port"`
	UpstreamURL string        `toml:"upstream_url"`
	APIKey      Secret        `toml:"api_key"`
	APIKeyFile  string        `toml:"api_key_file"` // relative to secrets_dir
	Timeout     time.Duration `toml:"timeout"`
	AppTitle    string        `toml:"app_title"`
	AuditLog    string        `toml:"audit_log"` // empty = no request audit

	DefaultModel       string  `toml:"default_model"`
	DefaultTemperature float64 `toml:"default_temperature"`
	DefaultMaxTokens   int     `toml:"default_max_tokens"`
}

// ListenAddr returns the host:port the proxy listens on.
func (p ProxyConfig) ListenAddr() string {
	return fmt.Sprintf("%s:%d", p.Host, p.Port)
}

// MonitorConfig configures the maintenance monitor.
type MonitorConfig struct {
	Name      string        `toml:"name"`
	URL       string        `toml:"url"`
	Interval  time.Duration `toml:"interval"`
	Marker    string        `toml:"marker"`
	Timeout   time.Duration `toml:"timeout"`
	Subject   string        `toml:"subject"`
	BodyIntro string        `toml:"body_intro"`

	// OnOnline is an optional shell-style command run when the page comes back.
	OnOnline    string        `toml:"on_online"`
	HookTimeout time.Duration `toml:"hook_timeout"`
}

// SMTPConfig configures email notifications. SMTP is considered
// configured when Username is set.
type SMTPConfig struct {
	Host         string        `toml:"host"`
	Port         int           `toml:"port"`
	Username     string        `toml:"username"`
	Password     Secret        `toml:"password"`
	PasswordFile string        `toml:"password_file"` // relative to secrets_dir
	From         string        `toml:"from"`
	To           []string      `toml:"to"`
	Timeout      time.Duration `toml:"timeout"`
}

// Enabled reports whether SMTP delivery is configured.
func (s SMTPConfig) Enabled() bool {
	return s.Host != "" && s.Username != ""
}

// Default returns a Config populated with defaults.
func Default() *Config {
	return &Config{
		StateDir:   DefaultStateDir,
		SecretsDir: DefaultSecretsDir,
		Proxy: ProxyConfig{
			Host:               DefaultProxyHost,
			Port:               DefaultProxyPort,
			UpstreamURL:        DefaultUpstreamURL,
			Timeout:            DefaultUpstreamTimeout,
			DefaultModel:       DefaultModel,
			DefaultTemperature: DefaultTemperature,
			DefaultMaxTokens:   DefaultMaxTokens,
		},
		Monitor: MonitorConfig{
			Name:        DefaultTargetName,
			URL:         DefaultMonitorURL,
			Interval:    DefaultCheckInterval,
			Marker:      DefaultMarker,
			Timeout:     DefaultFetchTimeout,
			Subject:     DefaultSubject,
			BodyIntro:   DefaultBodyIntro,
			HookTimeout: DefaultHookTimeout,
		},
		SMTP: SMTPConfig{
			Host:    DefaultSMTPHost,
			Port:    DefaultSMTPPort,
			Timeout: DefaultSMTPTimeout,
		},
	}
}

// LoadDotEnv loads KEY=value pairs from the given files (".env" when none
// are given) into the process environment. Variables that are already set
// win, and missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	var existing []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return errors.ConfigError("failed to load env file", err)
	}
	return nil
}

// Load reads the configuration file at path, applies environment overrides,
// resolves secret files and validates the result. A missing file yields the
// defaults.
func Load(path string) (*Config, error) {
	return load(path, os.Getenv)
}

func load(path string, getenv func(string) string) (*Config, error) {
	cfg := Default()

	if path != "" {
		md, err := toml.DecodeFile(path, cfg)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, errors.ConfigError(fmt.Sprintf("failed to parse %s", path), err)
			}
		} else {
			cfg.integerSeconds(md)
		}
	}

	if err := cfg.applyEnv(getenv); err != nil {
		return nil, err
	}

	if err := cfg.resolveSecrets(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.ConfigError("invalid configuration", err)
	}

	return cfg, nil
}

// integerSeconds rescales duration keys written as bare integers. The TOML
// decoder reads those as nanoseconds; in the file, as on the command line
// and in the environment, "interval = 60" means sixty seconds.
func (c *Config) integerSeconds(md toml.MetaData) {
	durations := []struct {
		key []string
		d   *time.Duration
	}{
		{[]string{"proxy", "timeout"}, &c.Proxy.Timeout},
		{[]string{"monitor", "interval"}, &c.Monitor.Interval},
		{[]string{"monitor", "timeout"}, &c.Monitor.Timeout},
		{[]string{"monitor", "hook_timeout"}, &c.Monitor.HookTimeout},
		{[]string{"smtp", "timeout"}, &c.SMTP.Timeout},
	}
	for _, f := range durations {
		if md.Type(f.key...) == "Integer" {
			*f.d *= time.Second
		}
	}
}

// applyEnv overlays environment variables onto the configuration.
func (c *Config) applyEnv(getenv func(string) string) error {
	if v := getenv("OPENROUTER_API_KEY"); v != "" {
		c.Proxy.APIKey = Secret(strings.TrimSpace(v))
	}
	if v := getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return errors.ConfigError("invalid PORT", err)
		}
		c.Proxy.Port = port
	}
	if v := getenv("GIDO_UPSTREAM_URL"); v != "" {
		c.Proxy.UpstreamURL = v
	}
	if v := getenv("GIDO_MONITOR_URL"); v != "" {
		c.Monitor.URL = v
	}
	if v := getenv("GIDO_MONITOR_INTERVAL"); v != "" {
		d, err := ParseInterval(v)
		if err != nil {
			return errors.ConfigError("invalid GIDO_MONITOR_INTERVAL", err)
		}
		c.Monitor.Interval = d
	}
	if v := getenv("GIDO_SMTP_HOST"); v != "" {
		c.SMTP.Host = v
	}
	if v := getenv("GIDO_SMTP_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return errors.ConfigError("invalid GIDO_SMTP_PORT", err)
		}
		c.SMTP.Port = port
	}
	if v := getenv("GIDO_SMTP_USERNAME"); v != "" {
		c.SMTP.Username = v
	}
	if v := getenv("GIDO_SMTP_PASSWORD"); v != "" {
		c.SMTP.Password = Secret(v)
	}
	if v := getenv("GIDO_SMTP_FROM"); v != "" {
		c.SMTP.From = v
	}
	if v := getenv("GIDO_SMTP_TO"); v != "" {
		c.SMTP.To = splitList(v)
	}
	return nil
}

// resolveSecrets fills secrets that are configured by file name only.
func (c *Config) resolveSecrets() error {
	if !c.Proxy.APIKey.IsSet() && c.Proxy.APIKeyFile != "" {
		key, err := ReadSecret(c.SecretsDir, c.Proxy.APIKeyFile)
		if err != nil {
			return errors.ConfigError("failed to read api key file", err)
		}
		c.Proxy.APIKey = key
	}
	if !c.SMTP.Password.IsSet() && c.SMTP.PasswordFile != "" {
		pass, err := ReadSecret(c.SecretsDir, c.SMTP.PasswordFile)
		if err != nil {
			return errors.ConfigError("failed to read smtp password file", err)
		}
		c.SMTP.Password = pass
	}
	if c.SMTP.From == "" {
		c.SMTP.From = c.SMTP.Username
	}
	return nil
}

// ReadSecret reads a secret file below secretsDir. The name is resolved
// with SecureJoin, so "../" components and symlinks cannot leave the
// directory.
func ReadSecret(secretsDir, name string) (Secret, error) {
	if secretsDir == "" {
		return "", fmt.Errorf("secrets directory is not configured")
	}
	path, err := securejoin.SecureJoin(secretsDir, name)
	if err != nil {
		return "", fmt.Errorf("invalid secret name %q: %w", name, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read secret %s: %w", name, err)
	}
	return Secret(strings.TrimSpace(string(data))), nil
}

// Validate checks that the Config is valid.
func (c *Config) Validate() error {
	if err := c.Proxy.Validate(); err != nil {
		return fmt.Errorf("proxy: %w", err)
	}
	if err := c.Monitor.Validate(); err != nil {
		return fmt.Errorf("monitor: %w", err)
	}
	if err := c.SMTP.Validate(); err != nil {
		return fmt.Errorf("smtp: %w", err)
	}
	return nil
}

// Validate checks that the ProxyConfig is valid. A missing API key is not
// an error: the proxy starts and answers chat requests with 500.
func (p *ProxyConfig) Validate() error {
	if p.Port < 1 || p.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535 (got %d)", p.Port)
	}
	u, err := url.Parse(p.UpstreamURL)
	if err != nil {
		return fmt.Errorf("invalid upstream_url: %w", err)
	}
	if u.Scheme != "https" {
		return fmt.Errorf("upstream_url must use https to protect the api key in transit (got %q)", u.Scheme)
	}
	if p.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if p.DefaultModel == "" {
		return fmt.Errorf("default_model is required")
	}
	if p.DefaultMaxTokens <= 0 {
		return fmt.Errorf("default_max_tokens must be positive")
	}
	return nil
}

// Validate checks that the MonitorConfig is valid.
func (m *MonitorConfig) Validate() error {
	if err := ValidateTargetName(m.Name); err != nil {
		return err
	}
	u, err := url.Parse(m.URL)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("url must be http or https (got %q)", m.URL)
	}
	if u.Host == "" {
		return fmt.Errorf("url has no host: %q", m.URL)
	}
	if m.Interval <= 0 {
		return fmt.Errorf("interval must be positive")
	}
	if m.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if strings.TrimSpace(m.Marker) == "" {
		return fmt.Errorf("marker is required")
	}
	if m.Subject == "" {
		return fmt.Errorf("subject is required")
	}
	return nil
}

// Validate checks that the SMTPConfig is valid. Only an enabled
// configuration needs a recipient and a password.
func (s *SMTPConfig) Validate() error {
	if s.Port < 1 || s.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535 (got %d)", s.Port)
	}
	if s.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if !s.Enabled() {
		return nil
	}
	if !s.Password.IsSet() {
		return fmt.Errorf("password is required when username is set")
	}
	if len(s.To) == 0 {
		return fmt.Errorf("at least one recipient is required when username is set")
	}
	return nil
}

// ParseInterval accepts either a Go duration ("90s", "2m") or a plain
// number of seconds ("60").
func ParseInterval(v string) (time.Duration, error) {
	v = strings.TrimSpace(v)
	if secs, err := strconv.Atoi(v); err == nil {
		if secs <= 0 {
			return 0, fmt.Errorf("interval must be positive (got %d)", secs)
		}
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("interval must be positive (got %s)", d)
	}
	return d, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Paths holds the configured paths
type Paths struct {
	ConfigDir  string
	ConfigFile string
	StateDir   string
	SecretsDir string
	TargetsDir string
}

// DefaultPaths returns the default path configuration
func DefaultPaths() *Paths {
	return PathsFor(DefaultConfigDir, DefaultStateDir, DefaultSecretsDir)
}

// PathsFor derives the path layout from its three roots.
func PathsFor(configDir, stateDir, secretsDir string) *Paths {
	return &Paths{
		ConfigDir:  configDir,
		ConfigFile: filepath.Join(configDir, ConfigFileName),
		StateDir:   stateDir,
		SecretsDir: secretsDir,
		TargetsDir: filepath.Join(stateDir, "targets"),
	}
}
