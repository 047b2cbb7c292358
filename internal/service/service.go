package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"stockmon/internal/alerting"
	"stockmon/internal/dedup"
	"stockmon/internal/domain"
)

// Evaluator produces a CheckResult for a request, locally or over the network.
type Evaluator interface {
	Check(ctx context.Context, req domain.Request) (domain.CheckResult, error)
}

// StateStore loads and commits the notification state.
type StateStore interface {
	Load() dedup.State
	Save(state dedup.State) error
}

// MarketClock gates a run on trading hours.
type MarketClock interface {
	IsOpen(now time.Time) bool
}

// Outcome is the terminal state of one run.
type Outcome string

const (
	OutcomeShortCircuit      Outcome = "short_circuit"
	OutcomeDone              Outcome = "done"
	OutcomeFailed            Outcome = "failed"
	OutcomeAuthFailure       Outcome = "auth_failure"
	OutcomeValidationFailure Outcome = "validation_failure"
)

// Decision records what happened to one notification candidate.
type Decision struct {
	Key       string
	Alert     *domain.Alert
	Message   alerting.Message
	Notify    bool
	Delivered bool
	Err       error
}

// Report summarises a run.
type Report struct {
	Outcome   Outcome
	Attempts  int
	DryRun    bool
	Result    domain.CheckResult
	Decisions []Decision
}

// Options configure the orchestrator.
type Options struct {
	Tickers        domain.Request
	SilenceWindow  time.Duration
	Recipient      string
	AttemptTimeout time.Duration
	MaxAttempts    int
	DryRun         bool
	Now            func() time.Time
}

var errNoNotifier = errors.New("no notification channel configured")

// Service runs one evaluation end to end: gate, evaluate, deduplicate,
// notify and commit state.
type Service struct {
	evaluator Evaluator
	clock     MarketClock
	store     StateStore
	notifier  alerting.Notifier
	dedup     *dedup.Deduplicator
	opts      Options
	logger    zerolog.Logger
}

// New constructs the orchestrator. clock may be nil to always evaluate.
func New(evaluator Evaluator, clock MarketClock, store StateStore, notifier alerting.Notifier, opts Options, logger zerolog.Logger) *Service {
	if opts.AttemptTimeout <= 0 {
		opts.AttemptTimeout = 60 * time.Second
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 2
	}
	if opts.SilenceWindow <= 0 {
		opts.SilenceWindow = dedup.SilenceHours(48)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Service{
		evaluator: evaluator,
		clock:     clock,
		store:     store,
		notifier:  notifier,
		dedup:     dedup.New(opts.SilenceWindow),
		opts:      opts,
		logger:    logger.With().Str("component", "service").Logger(),
	}
}

// RunOnce executes a single run. The error is non-nil only for
// authentication or validation failures and for a failed state commit.
func (s *Service) RunOnce(ctx context.Context) (Report, error) {
	report := Report{DryRun: s.opts.DryRun}

	now := s.opts.Now()
	if s.clock != nil && !s.clock.IsOpen(now) {
		report.Outcome = OutcomeShortCircuit
		report.Result = domain.ClosedResult(now.UTC())
		s.logger.Info().Time("now", now).Msg("market closed; run short-circuited")
		return report, nil
	}

	result, attempts, err := s.evaluate(ctx)
	report.Attempts = attempts
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrAuth):
		report.Outcome = OutcomeAuthFailure
		s.logger.Error().Err(err).Msg("evaluation rejected credentials")
		return report, fmt.Errorf("evaluate: %w", err)
	case errors.Is(err, domain.ErrValidation):
		report.Outcome = OutcomeValidationFailure
		s.logger.Error().Err(err).Msg("evaluation rejected request")
		return report, fmt.Errorf("evaluate: %w", err)
	default:
		report.Outcome = OutcomeFailed
		s.logger.Error().Err(err).Int("attempts", attempts).Msg("evaluation failed; waiting for next run")
		return report, nil
	}

	report.Result = result
	if !result.MarketOpen {
		report.Outcome = OutcomeShortCircuit
		s.logger.Info().Msg("evaluator reported market closed")
		return report, nil
	}

	for _, tickerErr := range result.Errors {
		s.logger.Warn().Str("ticker", tickerErr.Ticker).Str("reason", tickerErr.Reason).Msg("ticker not evaluated")
	}

	decisions, commitErr := s.process(ctx, result)
	report.Decisions = decisions
	report.Outcome = OutcomeDone
	if commitErr != nil {
		return report, commitErr
	}
	return report, nil
}

func (s *Service) evaluate(ctx context.Context) (domain.CheckResult, int, error) {
	var lastErr error
	for attempt := 1; attempt <= s.opts.MaxAttempts; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, s.opts.AttemptTimeout)
		result, err := s.evaluator.Check(attemptCtx, s.opts.Tickers)
		cancel()
		if err == nil {
			return result, attempt, nil
		}
		if errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, domain.ErrTransient) {
			err = fmt.Errorf("%w: %v", domain.ErrTransient, err)
		}
		lastErr = err

		if !errors.Is(err, domain.ErrTransient) {
			return domain.CheckResult{}, attempt, err
		}
		if ctx.Err() != nil {
			return domain.CheckResult{}, attempt, err
		}
		s.logger.Warn().Err(err).Int("attempt", attempt).Int("max_attempts", s.opts.MaxAttempts).Msg("evaluation attempt failed")
	}
	return domain.CheckResult{}, s.opts.MaxAttempts, lastErr
}

func (s *Service) process(ctx context.Context, result domain.CheckResult) ([]Decision, error) {
	loaded := s.store.Load()
	now := s.opts.Now()

	state := s.dedup.Prune(loaded, now)
	changed := len(state) != len(loaded)

	decisions := s.candidates(result)
	for i := range decisions {
		d := &decisions[i]
		d.Notify = s.dedup.ShouldNotify(state, d.Key, now)
		if !d.Notify {
			s.logger.Debug().Str("key", d.Key).Msg("suppressed by silence window")
			continue
		}
		if s.opts.DryRun {
			continue
		}
		if s.notifier == nil {
			d.Err = errNoNotifier
			s.logger.Error().Str("key", d.Key).Msg("notification dropped: no channel configured")
			continue
		}
		if err := s.notifier.Send(ctx, d.Message); err != nil {
			d.Err = err
			s.logger.Error().Err(err).Str("key", d.Key).Msg("notification delivery failed")
			continue
		}
		d.Delivered = true
		state = dedup.Record(state, d.Key, now)
		changed = true
	}

	if s.opts.DryRun {
		s.logger.Info().Int("candidates", len(decisions)).Msg("dry run; state not persisted")
		return decisions, nil
	}
	if !changed {
		return decisions, nil
	}
	if err := s.store.Save(state); err != nil {
		return decisions, fmt.Errorf("persist notification state: %w", err)
	}
	return decisions, nil
}

func (s *Service) candidates(result domain.CheckResult) []Decision {
	decisions := make([]Decision, 0, len(result.Alerts)+1)
	for i := range result.Alerts {
		alert := result.Alerts[i]
		decisions = append(decisions, Decision{
			Key:     dedup.AlertKey(alert),
			Alert:   &alert,
			Message: alerting.AlertMessage(alert, s.opts.Recipient),
		})
	}
	if result.ServiceDegraded {
		decisions = append(decisions, Decision{
			Key:     dedup.DegradedKey,
			Message: alerting.DegradedMessage(len(result.Errors), s.opts.Recipient),
		})
	}
	return decisions
}
