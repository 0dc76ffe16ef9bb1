// Package sweep runs the periodic expiry pass that tears down temporary
// accounts once their expiry time has passed.
package sweep

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/jellyrequest/jellyrequest/internal/ledger"
	"github.com/jellyrequest/jellyrequest/internal/provision"
)

// readyPollInterval is how often the sweeper checks whether the chat
// transport is connected before its first pass.
const readyPollInterval = time.Second

// expiredMessage is the best-effort DM sent to a user whose temporary
// account was just removed.
const expiredMessage = "Your temporary access to the media server has expired and your account has been deleted."

// Store lists the accounts that can expire.
type Store interface {
	ListExpiring(ctx context.Context) ([]ledger.LinkedAccount, error)
}

// Deprovisioner tears one account down across both services.
type Deprovisioner interface {
	Deprovision(ctx context.Context, target provision.Target) (provision.DeprovisionResult, error)
}

// Transport reports whether the chat connection is up. The sweeper holds its
// first pass until then so expiry DMs have a chance of being delivered.
type Transport interface {
	Ready() bool
}

// Sweeper schedules expiry passes: one immediately after the transport
// connects, then on the configured cron pattern.
type Sweeper struct {
	store     Store
	deprov    Deprovisioner
	notifier  provision.Notifier
	transport Transport
	pattern   string
	now       func() time.Time
	cron      *cron.Cron
	logger    *slog.Logger
}

// New creates a sweeper. pattern is a cron spec, typically "@every 24h".
func New(
	log *slog.Logger,
	store Store,
	deprov Deprovisioner,
	notifier provision.Notifier,
	transport Transport,
	pattern string,
) *Sweeper {
	if log == nil {
		log = slog.Default()
	}
	return &Sweeper{
		store:     store,
		deprov:    deprov,
		notifier:  notifier,
		transport: transport,
		pattern:   pattern,
		now:       time.Now,
		cron:      cron.New(),
		logger:    log.With(slog.String("service", "sweeper")),
	}
}

// Start launches the sweep loop in the background. It returns an error only
// when the cron pattern is invalid, so misconfiguration fails at startup
// rather than silently never sweeping.
func (s *Sweeper) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.pattern, func() {
		s.RunPass(ctx)
	}); err != nil {
		return err
	}
	go func() {
		if !s.waitReady(ctx) {
			return
		}
		s.RunPass(ctx)
		s.cron.Start()
	}()
	return nil
}

// Stop halts the schedule. A pass already running is not interrupted.
func (s *Sweeper) Stop() {
	s.cron.Stop()
}

func (s *Sweeper) waitReady(ctx context.Context) bool {
	ticker := time.NewTicker(readyPollInterval)
	defer ticker.Stop()
	for !s.transport.Ready() {
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
		}
	}
	return true
}

// RunPass removes every account whose expiry has passed. Failures are logged
// per account and never stop the pass.
func (s *Sweeper) RunPass(ctx context.Context) {
	accounts, err := s.store.ListExpiring(ctx)
	if err != nil {
		s.logger.Error("listing expiring accounts failed", slog.Any("error", err))
		return
	}
	s.logger.Info("expiry pass", slog.Int("candidates", len(accounts)))

	now := s.now()
	for _, account := range accounts {
		if !account.Expired(now) {
			continue
		}
		log := s.logger.With(
			slog.String("telegram_id", account.TelegramID),
			slog.String("username", account.Username))
		if _, err := s.deprov.Deprovision(ctx, provision.Target{
			TelegramID:   account.TelegramID,
			JellyfinID:   account.JellyfinID,
			JellyseerrID: account.JellyseerrID,
		}); err != nil {
			log.Error("expiry teardown failed", slog.Any("error", err))
			continue
		}
		log.Info("expired account removed")
		if err := s.notifier.SendDirectMessage(ctx, account.TelegramID, expiredMessage); err != nil {
			log.Warn("expiry DM failed", slog.Any("error", err))
		}
	}
}
