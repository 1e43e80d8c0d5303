// Load envs from .env
// Load settings.yaml + profile.yaml
// Apply env overrides, defaults and validation

package config

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go-lancers-scout/internal/apperr"
	"go-lancers-scout/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

const (
	SettingsFile = "settings.yaml"
	ProfileFile  = "profile.yaml"
	dirEnv       = "SCOUT_CONFIG_DIR"
)

type HumanLikeConfig struct {
	Enabled  bool    `yaml:"enabled"`
	MinDelay float64 `yaml:"min_delay" validate:"gte=0,ltefield=MaxDelay"`
	MaxDelay float64 `yaml:"max_delay" validate:"gte=0"`
}

// TimeoutConfig values are milliseconds.
type TimeoutConfig struct {
	PageLoad    int `yaml:"page_load" validate:"gt=0"`
	ElementWait int `yaml:"element_wait" validate:"gt=0"`
	Page        int `yaml:"page" validate:"gt=0"`
	Detail      int `yaml:"detail" validate:"gt=0"`
}

type RetryConfig struct {
	MaxAttempts int `yaml:"max_attempts" validate:"gte=1"`
	Delay       int `yaml:"delay" validate:"gte=0"` // seconds
}

type ScrapingConfig struct {
	Headless          bool            `yaml:"headless"`
	HumanLike         HumanLikeConfig `yaml:"human_like"`
	Timeout           TimeoutConfig   `yaml:"timeout"`
	Retry             RetryConfig     `yaml:"retry"`
	MaxItems          int             `yaml:"max_items" validate:"gt=0"`
	Concurrency       int             `yaml:"concurrency" validate:"gte=1,lte=8"`
	LastPageThreshold int             `yaml:"last_page_threshold" validate:"gte=0"`
	Screenshots       bool            `yaml:"screenshots"`
}

type GeminiConfig struct {
	APIKey          string  `yaml:"-"`
	Model           string  `yaml:"model" validate:"required"`
	Temperature     float32 `yaml:"temperature" validate:"gte=0,lte=2"`
	TopP            float32 `yaml:"top_p" validate:"gte=0,lte=1"`
	MaxOutputTokens int32   `yaml:"max_output_tokens" validate:"gt=0"`
}

type AIConfig struct {
	Provider  string `yaml:"provider" validate:"oneof=gemini groq"`
	GroqKey   string `yaml:"-"`
	GroqModel string `yaml:"groq_model"`
}

type TelegramConfig struct {
	Token  string `yaml:"-"`
	ChatID int64  `yaml:"chat_id"`
	TopN   int    `yaml:"top_n" validate:"gte=0"`
}

func (t TelegramConfig) Enabled() bool {
	return t.Token != "" && t.ChatID != 0
}

type DatabaseConfig struct {
	URL         string `yaml:"-"`
	SupabaseURL string `yaml:"supabase_url"`
	SupabaseKey string `yaml:"-"`
	FilePath    string `yaml:"file_path"`
}

type ScheduleConfig struct {
	Categories   []string `yaml:"categories"`
	JobTypes     []string `yaml:"job_types" validate:"dive,oneof=project task competition"`
	MaxPages     int      `yaml:"max_pages" validate:"gte=0,lte=100"`
	Cron         string   `yaml:"cron" validate:"required"`
	FetchDetails bool     `yaml:"fetch_details"`
}

type GitHubConfig struct {
	Username string `yaml:"username"`
	Token    string `yaml:"-"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format" validate:"omitempty,oneof=text json"`
}

type Config struct {
	Scraping ScrapingConfig `yaml:"scraping"`
	Gemini   GeminiConfig   `yaml:"gemini"`
	AI       AIConfig       `yaml:"ai"`
	Telegram TelegramConfig `yaml:"telegram"`
	Database DatabaseConfig `yaml:"database"`
	Schedule ScheduleConfig `yaml:"schedule"`
	GitHub   GitHubConfig   `yaml:"github"`
	Log      LogConfig      `yaml:"log"`

	//Paths
	SessionDir string `yaml:"session_dir"`
	CachePath  string `yaml:"cache_path"`
	ReportDir  string `yaml:"report_dir"`

	Profile models.UserProfile `yaml:"-"`
	// Dir is the directory the yaml files were read from, "" if none.
	Dir string `yaml:"-"`
}

func Default() *Config {
	home, _ := os.UserHomeDir()
	base := filepath.Join(home, ".lancers-scout")

	return &Config{
		Scraping: ScrapingConfig{
			Headless:          true,
			HumanLike:         HumanLikeConfig{Enabled: true, MinDelay: 2.0, MaxDelay: 4.0},
			Timeout:           TimeoutConfig{PageLoad: 30000, ElementWait: 10000, Page: 90000, Detail: 60000},
			Retry:             RetryConfig{MaxAttempts: 3, Delay: 5},
			MaxItems:          50,
			Concurrency:       1,
			LastPageThreshold: 20,
		},
		Gemini: GeminiConfig{
			Model:           "gemini-2.0-flash",
			Temperature:     0.7,
			TopP:            0.9,
			MaxOutputTokens: 2048,
		},
		AI:       AIConfig{Provider: "gemini", GroqModel: "llama-3.3-70b-versatile"},
		Telegram: TelegramConfig{TopN: 5},
		Database: DatabaseConfig{FilePath: filepath.Join(base, "jobs.json")},
		Schedule: ScheduleConfig{
			Categories: []string{"system", "web"},
			JobTypes:   []string{"project"},
			MaxPages:   3,
			Cron:       "@every 6h",
		},
		Log:        LogConfig{Level: "info", Format: "text"},
		SessionDir: filepath.Join(base, "sessions"),
		CachePath:  filepath.Join(base, "cache"),
		ReportDir:  "reports",
		Profile:    models.DefaultProfile(),
	}
}

// Load reads .env, then the yaml files from the first existing config dir.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return LoadFrom(resolveDir())
}

// LoadFrom loads config from dir. An empty dir means defaults + env only.
func LoadFrom(dir string) (*Config, error) {
	cfg := Default()
	cfg.Dir = dir

	if dir != "" {
		if err := readYAML(filepath.Join(dir, SettingsFile), cfg); err != nil {
			return nil, err
		}
		if err := readYAML(filepath.Join(dir, ProfileFile), &cfg.Profile); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func resolveDir() string {
	candidates := []string{os.Getenv(dirEnv), "configs"}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".lancers-scout"))
	}
	for _, dir := range candidates {
		if dir == "" {
			continue
		}
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir
		}
	}
	return ""
}

func readYAML(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Debugf("config file %s not found, using defaults", path)
			return nil
		}
		return apperr.Config(err, "read %s", path)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return apperr.Config(err, "parse %s", path)
	}
	return nil
}

func (c *Config) applyEnv() error {
	if token := os.Getenv("TELEGRAM_BOT_TOKEN"); token != "" {
		c.Telegram.Token = token
	}
	if chatID := os.Getenv("TELEGRAM_CHAT_ID"); chatID != "" {
		id, err := strconv.ParseInt(chatID, 10, 64)
		if err != nil {
			return apperr.Config(err, "invalid TELEGRAM_CHAT_ID")
		}
		c.Telegram.ChatID = id
	}

	overrideString(&c.Database.URL, "DATABASE_URL")
	overrideString(&c.Database.SupabaseURL, "SUPABASE_URL")
	overrideString(&c.Database.SupabaseKey, "SUPABASE_SERVICE_ROLE_KEY")
	overrideString(&c.Gemini.APIKey, "GEMINI_API_KEY")
	overrideString(&c.AI.GroqKey, "GROQ_API_KEY")
	overrideString(&c.GitHub.Token, "GITHUB_TOKEN")
	overrideString(&c.Schedule.Cron, "SCRAPE_CRON")
	overrideString(&c.Log.Level, "LOG_LEVEL")

	if cats := os.Getenv("SCRAPE_CATEGORIES"); cats != "" {
		c.Schedule.Categories = splitList(cats)
	}
	if types := os.Getenv("SCRAPE_JOB_TYPES"); types != "" {
		c.Schedule.JobTypes = splitList(types)
	}
	if pages := os.Getenv("SCRAPE_MAX_PAGES"); pages != "" {
		n, err := strconv.Atoi(pages)
		if err != nil {
			return apperr.Config(err, "invalid SCRAPE_MAX_PAGES")
		}
		c.Schedule.MaxPages = n
	}
	if headless := os.Getenv("SCRAPE_HEADLESS"); headless != "" {
		v, err := strconv.ParseBool(headless)
		if err != nil {
			return apperr.Config(err, "invalid SCRAPE_HEADLESS")
		}
		c.Scraping.Headless = v
	}
	if c.GitHub.Username == "" {
		c.GitHub.Username = c.Profile.GitHubUsername
	}
	return nil
}

func overrideString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

var validate = validator.New()

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return apperr.Config(err, "invalid settings")
	}
	if err := validate.Struct(c.Profile); err != nil {
		return apperr.Config(err, "invalid profile")
	}
	for _, cat := range c.Profile.PreferredCategories {
		if !cat.Valid() {
			return apperr.Config(nil, "invalid preferred category %q", cat)
		}
	}
	return nil
}

// GeminiReady reports whether proposal generation can use Gemini.
func (c *Config) GeminiReady() error {
	if c.Gemini.APIKey == "" {
		return apperr.Config(nil, "GEMINI_API_KEY is required")
	}
	return nil
}
