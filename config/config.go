package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Crawl modes.
const (
	ModeSequential = "sequential"
	ModeConcurrent = "concurrent"
)

// Fetch backends.
const (
	FetchHTTP    = "http"
	FetchBrowser = "browser"
)

// Config holds all application configuration. Values are layered: defaults,
// then an optional YAML file, then .env / environment variables, then CLI flags.
type Config struct {
	SearchURL           string `yaml:"search_url"`
	PropertyURLTemplate string `yaml:"property_url_template"`
	IDPlaceholder       string `yaml:"id_placeholder"`
	PageParam           string `yaml:"page_param"`

	MaxPages        int           `yaml:"max_pages"`
	IncludeLastPage bool          `yaml:"include_last_page"`
	Mode            string        `yaml:"mode"`
	Workers         int           `yaml:"workers"`
	RateLimitMs     int           `yaml:"rate_limit_ms"`
	MaxRetries      int           `yaml:"max_retries"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`

	FetchMode string `yaml:"fetch_mode"`
	ChromeBin string `yaml:"chrome_bin"`
	UserAgent string `yaml:"user_agent"`

	OutputBase    string `yaml:"output_base"`
	LoadExisting  bool   `yaml:"load_existing"`
	SeedFile      string `yaml:"seed_file"`
	CSVOutputPath string `yaml:"csv_output_path"`

	PostgresEnabled  bool   `yaml:"postgres_enabled"`
	PostgresHost     string `yaml:"postgres_host"`
	PostgresPort     string `yaml:"postgres_port"`
	PostgresUser     string `yaml:"postgres_user"`
	PostgresPassword string `yaml:"postgres_password"`
	PostgresDB       string `yaml:"postgres_db"`
	PostgresSSLMode  string `yaml:"postgres_sslmode"`

	LogLevel string `yaml:"log_level"`
}

// Default returns the configuration the scraper runs with when nothing is
// overridden.
func Default() *Config {
	return &Config{
		SearchURL: "http://www.zoopla.co.uk/for-sale/property/london/?include_retirement_homes=true" +
			"&include_shared_ownership=true&new_homes=include&price_max=1000000&price_min=350000" +
			"&q=London&results_sort=newest_listings&search_source=home",
		PropertyURLTemplate: "http://www.zoopla.co.uk/for-sale/details/IDENTIFIER",
		IDPlaceholder:       "IDENTIFIER",
		PageParam:           "&pn=",

		MaxPages:       80,
		Mode:           ModeConcurrent,
		Workers:        25,
		MaxRetries:     1,
		RequestTimeout: 30 * time.Second,

		FetchMode: FetchHTTP,
		UserAgent: "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 " +
			"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",

		OutputBase:   "ZooplaScrape",
		LoadExisting: true,

		PostgresHost:    "localhost",
		PostgresPort:    "5432",
		PostgresUser:    "scraper",
		PostgresDB:      "zoopla",
		PostgresSSLMode: "disable",

		LogLevel: "info",
	}
}

// Load builds a Config from defaults, the optional YAML file at path and the
// environment (.env is read when present).
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %q: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %q: %w", path, err)
		}
	}

	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}
	cfg.applyEnv()

	return cfg, nil
}

func (c *Config) applyEnv() {
	c.SearchURL = getEnv("SEARCH_URL", c.SearchURL)
	c.PropertyURLTemplate = getEnv("PROPERTY_URL_TEMPLATE", c.PropertyURLTemplate)
	c.IDPlaceholder = getEnv("ID_PLACEHOLDER", c.IDPlaceholder)
	c.PageParam = getEnv("PAGE_PARAM", c.PageParam)

	c.MaxPages = getEnvInt("MAX_PAGES", c.MaxPages)
	c.IncludeLastPage = getEnvBool("INCLUDE_LAST_PAGE", c.IncludeLastPage)
	c.Mode = getEnv("CRAWL_MODE", c.Mode)
	c.Workers = getEnvInt("WORKERS", c.Workers)
	c.RateLimitMs = getEnvInt("RATE_LIMIT_MS", c.RateLimitMs)
	c.MaxRetries = getEnvInt("MAX_RETRIES", c.MaxRetries)
	c.RequestTimeout = getEnvDuration("REQUEST_TIMEOUT", c.RequestTimeout)

	c.FetchMode = getEnv("FETCH_MODE", c.FetchMode)
	c.ChromeBin = getEnv("CHROME_BIN", c.ChromeBin)
	c.UserAgent = getEnv("USER_AGENT", c.UserAgent)

	c.OutputBase = getEnv("OUTPUT_BASE", c.OutputBase)
	c.LoadExisting = getEnvBool("LOAD_EXISTING", c.LoadExisting)
	c.SeedFile = getEnv("SEED_FILE", c.SeedFile)
	c.CSVOutputPath = getEnv("CSV_OUTPUT_PATH", c.CSVOutputPath)

	c.PostgresEnabled = getEnvBool("POSTGRES_ENABLED", c.PostgresEnabled)
	c.PostgresHost = getEnv("POSTGRES_HOST", c.PostgresHost)
	c.PostgresPort = getEnv("POSTGRES_PORT", c.PostgresPort)
	c.PostgresUser = getEnv("POSTGRES_USER", c.PostgresUser)
	c.PostgresPassword = getEnv("POSTGRES_PASSWORD", c.PostgresPassword)
	c.PostgresDB = getEnv("POSTGRES_DB", c.PostgresDB)
	c.PostgresSSLMode = getEnv("POSTGRES_SSLMODE", c.PostgresSSLMode)

	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
}

// Validate reports the first setting the crawler cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.SearchURL) == "" {
		errs = append(errs, errors.New("search url is empty"))
	}
	if !strings.Contains(c.PropertyURLTemplate, c.IDPlaceholder) || c.IDPlaceholder == "" {
		errs = append(errs, fmt.Errorf("property url template %q lacks placeholder %q",
			c.PropertyURLTemplate, c.IDPlaceholder))
	}
	if c.MaxPages < 1 {
		errs = append(errs, fmt.Errorf("max pages must be positive, got %d", c.MaxPages))
	}
	if c.Workers < 1 {
		errs = append(errs, fmt.Errorf("workers must be positive, got %d", c.Workers))
	}
	if c.Mode != ModeSequential && c.Mode != ModeConcurrent {
		errs = append(errs, fmt.Errorf("unknown crawl mode %q", c.Mode))
	}
	if c.FetchMode != FetchHTTP && c.FetchMode != FetchBrowser {
		errs = append(errs, fmt.Errorf("unknown fetch mode %q", c.FetchMode))
	}
	if c.OutputBase == "" {
		errs = append(errs, errors.New("output base name is empty"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// OutputPath is the spreadsheet the dataset is persisted to.
func (c *Config) OutputPath() string {
	if strings.HasSuffix(strings.ToLower(c.OutputBase), ".xlsx") {
		return c.OutputBase
	}
	return c.OutputBase + ".xlsx"
}

// SeedPath is the spreadsheet the dataset is hydrated from, or "" when the
// run starts empty. An explicit seed file wins over the previous output.
func (c *Config) SeedPath() string {
	if c.SeedFile != "" {
		return c.SeedFile
	}
	if c.LoadExisting {
		return c.OutputPath()
	}
	return ""
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		d, err := time.ParseDuration(val)
		if err == nil {
			return d
		}
	}
	return fallback
}
