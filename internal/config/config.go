package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/PontusDahlberg/Semesterappen/pkg/dateutil"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/spf13/viper"
)

// Holiday sources
const (
	SourceBuiltin = "builtin"
	SourceFile    = "file"
	SourceNager   = "nager"
)

// Storage backends
const (
	BackendFS     = "fs"
	BackendSQLite = "sqlite"
	BackendNone   = "none"
)

// Config represents application configuration
type Config struct {
	Calendar CalendarConfig `mapstructure:"calendar"`
	Budget   BudgetConfig   `mapstructure:"budget"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	Secrets  SecretsConfig  `mapstructure:"secrets"`
}

// CalendarConfig represents the planning range and holiday source
type CalendarConfig struct {
	Start          string `mapstructure:"start"`
	End            string `mapstructure:"end"`
	Country        string `mapstructure:"country"`
	Source         string `mapstructure:"source"` // "builtin", "file" or "nager"
	HolidaysFile   string `mapstructure:"holidays_file"`
	APIURL         string `mapstructure:"api_url"`
	CacheTTL       string `mapstructure:"cache_ttl"`
	LockoutFridays bool   `mapstructure:"lockout_fridays"` // Lock Fridays of even ISO weeks
}

// BudgetConfig represents the default vacation budget for a new plan
type BudgetConfig struct {
	Days float64 `mapstructure:"days"`
}

// StorageConfig represents where the plan blob is kept
type StorageConfig struct {
	Backend    string `mapstructure:"backend"` // "fs", "sqlite" or "none"
	Folder     string `mapstructure:"folder"`  // Directory, folder id or folder URL
	Filename   string `mapstructure:"filename"`
	SQLitePath string `mapstructure:"sqlite_path"`
}

// ServerConfig represents the HTTP edit surface
type ServerConfig struct {
	Address          string `mapstructure:"address"`
	AuthToken        string `mapstructure:"auth_token"`
	SystemTray       bool   `mapstructure:"system_tray"`       // Show system tray icon (Windows only)
	AutosaveInterval string `mapstructure:"autosave_interval"` // Empty disables autosave
}

// LogConfig represents logging configuration
type LogConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// SecretsConfig points at the TOML secrets file checked by validate-secrets
type SecretsConfig struct {
	File string `mapstructure:"file"`
}

var defaults = map[string]any{
	"calendar.start":           "2026-01-01",
	"calendar.end":             "2027-10-15",
	"calendar.country":         "SE",
	"calendar.source":          SourceBuiltin,
	"calendar.holidays_file":   "",
	"calendar.api_url":         "https://date.nager.at",
	"calendar.cache_ttl":       "24h",
	"calendar.lockout_fridays": true,
	"budget.days":              108.0,
	"storage.backend":          BackendFS,
	"storage.folder":           "./data",
	"storage.filename":         "semester_databas.json",
	"storage.sqlite_path":      "./data/semesterplan.db",
	"server.address":           ":8080",
	"server.auth_token":        "",
	"server.system_tray":       false,
	"server.autosave_interval": "",
	"log.file":                 "",
	"log.level":                "info",
	"secrets.file":             ".streamlit/secrets.toml",
}

// Load loads configuration from file, environment and defaults.
// With an empty configPath a missing config file is not an error.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.semesterplan")
		v.AddConfigPath("/etc/semesterplan")
	}

	// SEMESTERPLAN_STORAGE_BACKEND overrides storage.backend
	v.SetEnvPrefix("SEMESTERPLAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// Default returns the configuration used when no file or environment is set
func Default() *Config {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	var config Config
	_ = v.Unmarshal(&config)
	return &config
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := c.Calendar.Validate(); err != nil {
		return fmt.Errorf("calendar: %w", err)
	}
	if err := c.Budget.Validate(); err != nil {
		return fmt.Errorf("budget: %w", err)
	}
	if err := c.Storage.Validate(); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Log.Validate(); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	return nil
}

// Validate validates the calendar configuration
func (c *CalendarConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Start, validation.Required, validation.By(isDate)),
		validation.Field(&c.End, validation.Required, validation.By(isDate)),
		validation.Field(&c.Country, validation.Required, validation.Length(2, 2)),
		validation.Field(&c.Source, validation.Required, validation.In(SourceBuiltin, SourceFile, SourceNager)),
		validation.Field(&c.HolidaysFile, validation.When(c.Source == SourceFile, validation.Required)),
		validation.Field(&c.APIURL, validation.When(c.Source == SourceNager, validation.Required)),
		validation.Field(&c.CacheTTL, validation.By(isDuration)),
	); err != nil {
		return err
	}

	start, end, err := c.Range()
	if err != nil {
		return err
	}
	if start.After(end) {
		return fmt.Errorf("start %s is after end %s", c.Start, c.End)
	}
	return nil
}

// Range returns the parsed planning range
func (c *CalendarConfig) Range() (time.Time, time.Time, error) {
	start, err := dateutil.ParseDate(c.Start)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("start: %w", err)
	}
	end, err := dateutil.ParseDate(c.End)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("end: %w", err)
	}
	return start, end, nil
}

// GetCacheTTL returns cache TTL duration
func (c *CalendarConfig) GetCacheTTL() time.Duration {
	if c.CacheTTL == "" {
		return 24 * time.Hour
	}
	duration, err := time.ParseDuration(c.CacheTTL)
	if err != nil {
		return 24 * time.Hour
	}
	return duration
}

// Validate validates the budget configuration
func (c *BudgetConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Days, validation.Required, validation.Min(0.0).Exclusive()),
	)
}

// Validate validates the storage configuration
func (c *StorageConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Backend, validation.Required, validation.In(BackendFS, BackendSQLite, BackendNone)),
		validation.Field(&c.Folder, validation.When(c.Backend == BackendFS, validation.Required)),
		validation.Field(&c.Filename, validation.Required, validation.By(isBareName)),
		validation.Field(&c.SQLitePath, validation.When(c.Backend == BackendSQLite, validation.Required)),
	)
}

// FolderID returns the container id, accepting a bare id, a path or a folder URL
func (c *StorageConfig) FolderID() string {
	return ExtractFolderID(c.Folder)
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Address, validation.Required),
		validation.Field(&c.AutosaveInterval, validation.By(isDuration)),
	)
}

// GetAutosaveInterval returns the autosave interval; zero means disabled
func (c *ServerConfig) GetAutosaveInterval() time.Duration {
	duration, err := time.ParseDuration(c.AutosaveInterval)
	if err != nil || duration < 0 {
		return 0
	}
	return duration
}

// AuthEnabled returns true when a bearer token is required
func (c *ServerConfig) AuthEnabled() bool {
	return c.AuthToken != ""
}

// Validate validates the logging configuration
func (c *LogConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Level, validation.In("debug", "info", "warn", "error")),
	)
}

var folderURLPattern = regexp.MustCompile(`/folders/([a-zA-Z0-9_-]+)`)

// ExtractFolderID returns the id part of a folder URL such as
// https://drive.google.com/drive/folders/<id>?usp=sharing. Any other value is
// returned trimmed.
func ExtractFolderID(value string) string {
	value = strings.TrimSpace(value)
	if m := folderURLPattern.FindStringSubmatch(value); m != nil {
		return m[1]
	}
	return value
}

func isDate(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if _, err := dateutil.ParseDate(s); err != nil {
		return errors.New("must be a date (YYYY-MM-DD)")
	}
	return nil
}

func isDuration(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if _, err := time.ParseDuration(s); err != nil {
		return errors.New("must be a duration such as 24h")
	}
	return nil
}

func isBareName(value any) error {
	s, _ := value.(string)
	if strings.ContainsAny(s, `/\`) || s == "." || s == ".." {
		return errors.New("must be a file name without directories")
	}
	return nil
}
