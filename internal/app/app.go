package app

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"stockmon/internal/alerting"
	"stockmon/internal/config"
	"stockmon/internal/evaluator"
	"stockmon/internal/fetcher"
	"stockmon/internal/marketclock"
	"stockmon/internal/remote"
	"stockmon/internal/service"
	"stockmon/internal/storage"
	"stockmon/internal/version"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
	Out    io.Writer

	now func() time.Time
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{
		Config: cfg,
		Logger: logger.With().Str("component", "app").Logger(),
		Out:    os.Stdout,
		now:    time.Now,
	}
}

// CheckOptions configure a single check run.
type CheckOptions struct {
	DryRun bool
}

// NotifyTestOptions configure the synthetic notification.
type NotifyTestOptions struct {
	Ticker string
	Type   string
	Price  float64
}

func signalContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
}

func (a *App) newClock() (*marketclock.Clock, error) {
	return marketclock.New(marketclock.Options{
		Timezone: a.Config.Market.Timezone,
		Open:     a.Config.Market.Open,
		Close:    a.Config.Market.Close,
	})
}

func (a *App) newChecker(clock *marketclock.Clock) *evaluator.Checker {
	yahoo := fetcher.NewYahoo(fetcher.YahooOptions{
		Period:   a.Config.Fetch.Period,
		Interval: a.Config.Fetch.Interval,
		Timeout:  a.Config.Fetch.Timeout,
	}, a.Logger)

	return evaluator.NewChecker(yahoo, clock, evaluator.CheckerOptions{
		Concurrency: a.Config.Fetch.Concurrency,
		Now:         a.now,
	}, a.Logger)
}

func (a *App) newEvaluator(clock *marketclock.Clock) service.Evaluator {
	if a.Config.Evaluation.Mode == config.ModeRemote {
		return remote.New(remote.Options{
			Endpoint:  a.Config.Evaluation.Endpoint,
			APIKey:    a.Config.Evaluation.APIKey,
			Timeout:   a.Config.Evaluation.Timeout,
			UserAgent: version.UserAgent(),
		}, a.Logger)
	}
	return a.newChecker(clock)
}

func (a *App) newNotifier() alerting.Notifier {
	var channels alerting.Multi
	if a.Config.Email.Enabled {
		cfg := a.Config.Email
		channels = append(channels, alerting.NewEmailNotifier(alerting.EmailOptions{
			Host:      cfg.SMTPHost,
			Port:      cfg.SMTPPort,
			Username:  cfg.SMTPUser,
			Password:  cfg.SMTPPass,
			From:      cfg.From,
			Recipient: cfg.Recipient,
			Timeout:   cfg.Timeout,
		}, a.Logger))
	}
	if a.Config.Telegram.Enabled {
		cfg := a.Config.Telegram
		channels = append(channels, alerting.NewTelegramNotifier(cfg.BotToken, cfg.ChatID, cfg.APIBase, 10*time.Second, a.Logger))
	}

	switch len(channels) {
	case 0:
		return nil
	case 1:
		return channels[0]
	default:
		return channels
	}
}

func (a *App) newStore() *storage.FileStore {
	return storage.NewFileStore(a.Config.State.Path, a.Logger)
}

func (a *App) newService(dryRun bool) (*service.Service, error) {
	clock, err := a.newClock()
	if err != nil {
		return nil, err
	}

	notifier := a.newNotifier()
	if notifier == nil && !dryRun {
		a.Logger.Warn().Msg("no notification channel enabled; alerts will stay pending")
	}

	return service.New(a.newEvaluator(clock), clock, a.newStore(), notifier, service.Options{
		Tickers:        a.Config.Request(),
		SilenceWindow:  a.Config.SilenceWindow(),
		Recipient:      a.Config.Email.Recipient,
		AttemptTimeout: a.Config.Evaluation.Timeout,
		MaxAttempts:    a.Config.Evaluation.MaxAttempts,
		DryRun:         dryRun,
		Now:            a.now,
	}, a.Logger), nil
}
