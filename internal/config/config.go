package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"stockmon/internal/dedup"
	"stockmon/internal/domain"
	"stockmon/internal/evaluator"
	"stockmon/internal/logging"
)

const (
	ModeLocal  = "local"
	ModeRemote = "remote"
)

// Config materialises application configuration.
type Config struct {
	App          AppConfig                       `mapstructure:"app"`
	Logging      logging.Config                  `mapstructure:"logging"`
	SilenceHours float64                         `mapstructure:"silence_hours"`
	Tickers      map[string]domain.ThresholdSpec `mapstructure:"tickers"`
	State        StateConfig                     `mapstructure:"state"`
	Evaluation   EvaluationConfig                `mapstructure:"evaluation"`
	Market       MarketConfig                    `mapstructure:"market"`
	Fetch        FetchConfig                     `mapstructure:"fetch"`
	Server       ServerConfig                    `mapstructure:"server"`
	Email        EmailConfig                     `mapstructure:"email"`
	Telegram     TelegramConfig                  `mapstructure:"telegram"`
	Scheduler    SchedulerConfig                 `mapstructure:"scheduler"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name string `mapstructure:"name"`
}

// StateConfig locates the notification state file.
type StateConfig struct {
	Path string `mapstructure:"path"`
}

// EvaluationConfig selects where tickers are evaluated.
type EvaluationConfig struct {
	Mode        string        `mapstructure:"mode"`
	Endpoint    string        `mapstructure:"endpoint"`
	APIKey      string        `mapstructure:"api_key"`
	Timeout     time.Duration `mapstructure:"timeout"`
	MaxAttempts int           `mapstructure:"max_attempts"`
}

// MarketConfig describes the trading session.
type MarketConfig struct {
	Timezone string `mapstructure:"timezone"`
	Open     string `mapstructure:"open"`
	Close    string `mapstructure:"close"`
}

// FetchConfig tunes market data retrieval.
type FetchConfig struct {
	Timeout     time.Duration `mapstructure:"timeout"`
	Concurrency int           `mapstructure:"concurrency"`
	Period      string        `mapstructure:"period"`
	Interval    string        `mapstructure:"interval"`
}

// ServerConfig configures the evaluation API.
type ServerConfig struct {
	Addr         string        `mapstructure:"addr"`
	APIKey       string        `mapstructure:"api_key"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// EmailConfig configures SMTP delivery.
type EmailConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	SMTPHost  string        `mapstructure:"smtp_host"`
	SMTPPort  int           `mapstructure:"smtp_port"`
	SMTPUser  string        `mapstructure:"smtp_user"`
	SMTPPass  string        `mapstructure:"smtp_pass"`
	From      string        `mapstructure:"from"`
	Recipient string        `mapstructure:"recipient"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// TelegramConfig describes Telegram delivery.
type TelegramConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
	APIBase  string `mapstructure:"api_base"`
}

// SchedulerConfig governs the watch loop.
type SchedulerConfig struct {
	Cron       string `mapstructure:"cron"`
	RunOnStart bool   `mapstructure:"run_on_start"`
}

// Load builds configuration from file, .env, environment, and defaults.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("STOCKMON")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	if err := bindEnv(v); err != nil {
		return nil, err
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	// legacy client config.json carries the endpoint as api_url
	if v.GetString("evaluation.endpoint") == "" && v.GetString("api_url") != "" {
		v.Set("evaluation.endpoint", v.GetString("api_url"))
	}
	if !v.IsSet("email.enabled") && v.GetString("email.smtp_host") != "" {
		v.Set("email.enabled", true)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.normalise()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "stockmon")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("silence_hours", 48)
	v.SetDefault("state.path", "notified.json")

	v.SetDefault("evaluation.timeout", "60s")
	v.SetDefault("evaluation.max_attempts", 2)

	v.SetDefault("market.timezone", "America/New_York")
	v.SetDefault("market.open", "09:30")
	v.SetDefault("market.close", "16:00")

	v.SetDefault("fetch.timeout", "10s")
	v.SetDefault("fetch.concurrency", 5)
	v.SetDefault("fetch.period", "1d")
	v.SetDefault("fetch.interval", "1h")

	v.SetDefault("server.addr", ":8000")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "90s")

	v.SetDefault("email.smtp_port", 587)
	v.SetDefault("email.timeout", "30s")

	v.SetDefault("telegram.api_base", "https://api.telegram.org")

	v.SetDefault("scheduler.cron", "*/15 9-16 * * MON-FRI")
	v.SetDefault("scheduler.run_on_start", false)
}

func bindEnv(v *viper.Viper) error {
	bindings := map[string][]string{
		"evaluation.endpoint": {"STOCKMON_EVALUATION_ENDPOINT", "API_URL"},
		"evaluation.api_key":  {"STOCKMON_EVALUATION_API_KEY", "API_KEY"},
		"server.api_key":      {"STOCKMON_SERVER_API_KEY", "API_KEY"},
		"email.smtp_host":     {"STOCKMON_EMAIL_SMTP_HOST", "SMTP_HOST"},
		"email.smtp_port":     {"STOCKMON_EMAIL_SMTP_PORT", "SMTP_PORT"},
		"email.smtp_user":     {"STOCKMON_EMAIL_SMTP_USER", "SMTP_USER"},
		"email.smtp_pass":     {"STOCKMON_EMAIL_SMTP_PASS", "SMTP_PASS"},
		"email.recipient":     {"STOCKMON_EMAIL_RECIPIENT", "NOTIFY_EMAIL"},
	}
	for key, envs := range bindings {
		args := append([]string{key}, envs...)
		if err := v.BindEnv(args...); err != nil {
			return fmt.Errorf("bind env %s: %w", key, err)
		}
	}
	return nil
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// viper lower-cases map keys; ticker symbols are upper case.
func (c *Config) normalise() {
	tickers := make(map[string]domain.ThresholdSpec, len(c.Tickers))
	for symbol, spec := range c.Tickers {
		tickers[strings.ToUpper(strings.TrimSpace(symbol))] = spec
	}
	c.Tickers = tickers
	c.Evaluation.Mode = strings.ToLower(strings.TrimSpace(c.Evaluation.Mode))
	if c.Evaluation.Mode == "" {
		c.Evaluation.Mode = ModeLocal
		if c.Evaluation.Endpoint != "" {
			c.Evaluation.Mode = ModeRemote
		}
	}
	if c.Email.From == "" {
		c.Email.From = c.Email.SMTPUser
	}
}

// Validate performs basic sanity checks on the configuration values.
func (c *Config) Validate() error {
	if c.SilenceHours <= 0 {
		return fmt.Errorf("silence_hours must be greater than zero")
	}
	if err := evaluator.Validate(c.Request()); err != nil {
		return fmt.Errorf("tickers: %w", err)
	}
	switch c.Evaluation.Mode {
	case ModeLocal:
	case ModeRemote:
		if c.Evaluation.Endpoint == "" {
			return fmt.Errorf("evaluation.endpoint must be configured in remote mode")
		}
	default:
		return fmt.Errorf("evaluation.mode must be %q or %q, got %q", ModeLocal, ModeRemote, c.Evaluation.Mode)
	}
	if c.Evaluation.Timeout <= 0 {
		return fmt.Errorf("evaluation.timeout must be greater than zero")
	}
	if c.Evaluation.MaxAttempts <= 0 {
		return fmt.Errorf("evaluation.max_attempts must be greater than zero")
	}
	if c.Fetch.Concurrency <= 0 {
		return fmt.Errorf("fetch.concurrency must be greater than zero")
	}
	if c.State.Path == "" {
		return fmt.Errorf("state.path must be configured")
	}
	if c.Email.Enabled {
		if c.Email.SMTPHost == "" {
			return fmt.Errorf("email.smtp_host must be configured")
		}
		if c.Email.SMTPUser == "" {
			return fmt.Errorf("email.smtp_user must be configured")
		}
		if c.Email.Recipient == "" {
			return fmt.Errorf("email.recipient must be configured")
		}
	}
	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token must be configured")
		}
		if c.Telegram.ChatID == "" {
			return fmt.Errorf("telegram.chat_id must be configured")
		}
	}
	return nil
}

// Request returns the configured tickers as an evaluation request.
func (c *Config) Request() domain.Request {
	req := make(domain.Request, len(c.Tickers))
	for symbol, spec := range c.Tickers {
		req[symbol] = spec
	}
	return req
}

// SilenceWindow converts silence_hours into a duration.
func (c *Config) SilenceWindow() time.Duration {
	return dedup.SilenceHours(c.SilenceHours)
}
