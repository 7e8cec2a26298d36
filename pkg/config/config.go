package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the Social Schools photo downloader
type Config struct {
	// Social Schools site and login settings
	SocialSchools SocialSchoolsConfig `yaml:"social_schools" json:"social_schools"`

	// Gmail notification search settings
	Gmail GmailConfig `yaml:"gmail" json:"gmail"`

	// Browser automation settings
	Browser BrowserConfig `yaml:"browser" json:"browser"`

	// Carousel scraping settings
	Scrape ScrapeConfig `yaml:"scrape" json:"scrape"`

	// Output settings
	Output OutputConfig `yaml:"output" json:"output"`

	// Download settings
	Download DownloadConfig `yaml:"download" json:"download"`

	// Rate limiting configuration
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// SocialSchoolsConfig holds site-specific configuration
type SocialSchoolsConfig struct {
	BaseURL string `yaml:"base_url" json:"base_url"`
	// Email of the Social Schools account, used to look up stored
	// credentials for login prefill.
	Email string `yaml:"email" json:"email"`
	// LoginPath is appended to BaseURL to reach the login form.
	LoginPath string `yaml:"login_path" json:"login_path"`
	// FeedPath is appended to BaseURL for the feed-listing fallback.
	FeedPath string `yaml:"feed_path" json:"feed_path"`
	// HomeSelector is an element only present once login has completed.
	HomeSelector string `yaml:"home_selector" json:"home_selector"`
}

// GmailConfig holds Gmail API settings for notification search
type GmailConfig struct {
	CredentialsFile string `yaml:"credentials_file" json:"credentials_file"`
	TokenFile       string `yaml:"token_file" json:"token_file"`
	Query           string `yaml:"query" json:"query"`
	MaxResults      int64  `yaml:"max_results" json:"max_results"`
	// LinkPattern is a regular expression matching post links inside
	// notification email bodies.
	LinkPattern string `yaml:"link_pattern" json:"link_pattern"`
}

// BrowserConfig holds Chrome session settings
type BrowserConfig struct {
	Headless    bool   `yaml:"headless" json:"headless"`
	UserDataDir string `yaml:"user_data_dir" json:"user_data_dir"`
	ExecPath    string `yaml:"exec_path" json:"exec_path"`
	// LoginTimeout bounds the interactive login wait. Generous, since a
	// human may have to type credentials and answer a 2FA prompt.
	LoginTimeout time.Duration `yaml:"login_timeout" json:"login_timeout"`
}

// ScrapeConfig holds carousel walker settings. The marker selectors are
// configuration because the Social Schools frontend generates its class
// names; these are the only stable hooks observed.
type ScrapeConfig struct {
	PostMarkerSelector string `yaml:"post_marker_selector" json:"post_marker_selector"`
	LightboxSelector   string `yaml:"lightbox_selector" json:"lightbox_selector"`
	// NextControlMarkers are markup fragments identifying the
	// navigate-right control inside the lightbox.
	NextControlMarkers []string      `yaml:"next_control_markers" json:"next_control_markers"`
	NavTimeout         time.Duration `yaml:"nav_timeout" json:"nav_timeout"`
	ElementTimeout     time.Duration `yaml:"element_timeout" json:"element_timeout"`
	// SettleDelay is how long to wait after a "next" activation before
	// reading the newly displayed media element.
	SettleDelay time.Duration `yaml:"settle_delay" json:"settle_delay"`
	// MaxCarouselItems is a safety bound on the carousel walk; a page
	// whose next control never reports disabled would otherwise spin
	// forever.
	MaxCarouselItems int `yaml:"max_carousel_items" json:"max_carousel_items"`
}

// OutputConfig holds output directory configuration
type OutputConfig struct {
	BaseDirectory string `yaml:"base_directory" json:"base_directory"`
	// LinksFile is the persisted corpus of candidate posts produced by
	// the fetch command and consumed by the run command.
	LinksFile string `yaml:"links_file" json:"links_file"`
	// DebugDir receives failure screenshots when set.
	DebugDir string `yaml:"debug_dir" json:"debug_dir"`
}

// DownloadConfig holds download-specific configuration
type DownloadConfig struct {
	ConcurrentDownloads int           `yaml:"concurrent_downloads" json:"concurrent_downloads"`
	DownloadTimeout     time.Duration `yaml:"download_timeout" json:"download_timeout"`
	RetryAttempts       int           `yaml:"retry_attempts" json:"retry_attempts"`
	OverwriteExisting   bool          `yaml:"overwrite_existing" json:"overwrite_existing"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerMinute int           `yaml:"requests_per_minute" json:"requests_per_minute"`
	RetryDelay        time.Duration `yaml:"retry_delay" json:"retry_delay"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		SocialSchools: SocialSchoolsConfig{
			BaseURL:      "https://app.socialschools.eu",
			LoginPath:    "/login",
			FeedPath:     "/feed",
			HomeSelector: `[class*="CommunityPost"]`,
		},
		Gmail: GmailConfig{
			CredentialsFile: "credentials.json",
			TokenFile:       "token.json",
			Query:           `from:socialschools subject:(foto OR photo)`,
			MaxResults:      200,
			LinkPattern:     `https://app\.socialschools\.(eu|nl)/[^\s"']*post[^\s"']*`,
		},
		Browser: BrowserConfig{
			Headless:     false,
			LoginTimeout: 10 * time.Minute,
		},
		Scrape: ScrapeConfig{
			PostMarkerSelector: `[class*="CommunityPost"]`,
			LightboxSelector:   `[class*="Lightbox"]`,
			NextControlMarkers: []string{"chevron-right", "chevron_right", "icon-arrow-right"},
			NavTimeout:         20 * time.Second,
			ElementTimeout:     10 * time.Second,
			SettleDelay:        300 * time.Millisecond,
			MaxCarouselItems:   500,
		},
		Output: OutputConfig{
			BaseDirectory: "./photos",
			LinksFile:     "links.json",
		},
		Download: DownloadConfig{
			ConcurrentDownloads: 1,
			DownloadTimeout:     30 * time.Second,
			RetryAttempts:       3,
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 60,
			RetryDelay:        5 * time.Second,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if baseURL := os.Getenv("SSPD_BASE_URL"); baseURL != "" {
		c.SocialSchools.BaseURL = baseURL
	}
	if email := os.Getenv("SSPD_EMAIL"); email != "" {
		c.SocialSchools.Email = email
	}
	if query := os.Getenv("SSPD_GMAIL_QUERY"); query != "" {
		c.Gmail.Query = query
	}
	if outputDir := os.Getenv("SSPD_OUTPUT_DIR"); outputDir != "" {
		c.Output.BaseDirectory = outputDir
	}
	if linksFile := os.Getenv("SSPD_LINKS_FILE"); linksFile != "" {
		c.Output.LinksFile = linksFile
	}
	if headless := os.Getenv("SSPD_HEADLESS"); headless != "" {
		c.Browser.Headless = strings.ToLower(headless) == "true"
	}
	if concurrent := os.Getenv("SSPD_CONCURRENT_DOWNLOADS"); concurrent != "" {
		var val int
		fmt.Sscanf(concurrent, "%d", &val)
		if val > 0 {
			c.Download.ConcurrentDownloads = val
		}
	}
	if rpm := os.Getenv("SSPD_REQUESTS_PER_MINUTE"); rpm != "" {
		var val int
		fmt.Sscanf(rpm, "%d", &val)
		if val > 0 {
			c.RateLimit.RequestsPerMinute = val
		}
	}
	if logLevel := os.Getenv("SSPD_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	locations := []string{
		".sspd.yaml",
		".sspd.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "sspd", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".config", "sspd", "config.yml"),
		filepath.Join(os.Getenv("HOME"), ".sspd.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.SocialSchools.BaseURL == "" {
		errs = append(errs, errors.New("social schools base URL is required"))
	}
	if c.Scrape.PostMarkerSelector == "" {
		errs = append(errs, errors.New("post marker selector is required"))
	}
	if c.Scrape.LightboxSelector == "" {
		errs = append(errs, errors.New("lightbox selector is required"))
	}
	if len(c.Scrape.NextControlMarkers) == 0 {
		errs = append(errs, errors.New("at least one next-control marker is required"))
	}
	if c.Scrape.NavTimeout <= 0 || c.Scrape.ElementTimeout <= 0 {
		errs = append(errs, errors.New("scrape timeouts must be positive"))
	}
	if c.Scrape.MaxCarouselItems <= 0 {
		errs = append(errs, errors.New("max carousel items must be positive"))
	}
	if c.Download.ConcurrentDownloads <= 0 {
		errs = append(errs, errors.New("concurrent downloads must be positive"))
	}
	if c.Download.ConcurrentDownloads > 10 {
		errs = append(errs, errors.New("concurrent downloads should not exceed 10"))
	}
	if c.Download.DownloadTimeout <= 0 {
		errs = append(errs, errors.New("download timeout must be positive"))
	}
	if c.Output.BaseDirectory == "" {
		errs = append(errs, errors.New("output directory is required"))
	}
	if c.RateLimit.RequestsPerMinute <= 0 {
		errs = append(errs, errors.New("requests per minute must be positive"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if email, ok := flags["email"].(string); ok && email != "" {
		c.SocialSchools.Email = email
	}
	if outputDir, ok := flags["output"].(string); ok && outputDir != "" {
		c.Output.BaseDirectory = outputDir
	}
	if linksFile, ok := flags["links"].(string); ok && linksFile != "" {
		c.Output.LinksFile = linksFile
	}
	if query, ok := flags["query"].(string); ok && query != "" {
		c.Gmail.Query = query
	}
	if headless, ok := flags["headless"].(bool); ok {
		c.Browser.Headless = headless
	}
	if debugDir, ok := flags["debug-dir"].(string); ok && debugDir != "" {
		c.Output.DebugDir = debugDir
	}
	if concurrent, ok := flags["concurrent"].(int); ok && concurrent > 0 {
		c.Download.ConcurrentDownloads = concurrent
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".sspd.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
