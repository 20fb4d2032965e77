// Package scheduler drives recurring discovery runs from per-account cron
// schedules and sweeps expired opportunities.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"sparrow/internal/discovery"
	"sparrow/internal/domain"
	"sparrow/internal/repository"
)

// jobTimeout bounds a single scheduled discovery run.
const jobTimeout = 2 * time.Minute

// Discoverer runs one discovery pass. Satisfied by *discovery.Engine.
type Discoverer interface {
	Discover(ctx context.Context, accountID string, typ domain.DiscoveryType) (discovery.Result, error)
}

// Scheduler registers one cron entry per enabled (account, discovery type)
// pair. Job failures are isolated: a failing run logs and records its error
// on the account, and the entry stays registered.
type Scheduler struct {
	accounts repository.AccountRepo
	engine   Discoverer
	logger   *zap.Logger

	mu      sync.Mutex
	cron    *cron.Cron
	entries map[string]cron.EntryID
	running bool
}

func New(accounts repository.AccountRepo, engine Discoverer, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		accounts: accounts,
		engine:   engine,
		logger:   logger,
		cron: cron.New(
			cron.WithLogger(zapCronLogger{logger}),
			cron.WithChain(cron.Recover(zapCronLogger{logger})),
		),
		entries:  make(map[string]cron.EntryID),
	}
}

func jobKey(accountID string, typ domain.DiscoveryType) string {
	return accountID + ":" + string(typ)
}

// Initialize loads all accounts and registers cron entries for every enabled
// schedule on active accounts. Calling it again reconciles the entry table
// against current state.
func (s *Scheduler) Initialize(ctx context.Context) error {
	accounts, err := s.accounts.List(ctx)
	if err != nil {
		return fmt.Errorf("listing accounts: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	wanted := make(map[string]domain.DiscoverySchedule)
	for _, account := range accounts {
		if account.Status != domain.AccountActive {
			continue
		}
		for _, sched := range account.Schedules {
			if sched.Enabled {
				wanted[jobKey(account.ID, sched.Type)] = sched
			}
		}
	}

	for key, id := range s.entries {
		if _, ok := wanted[key]; !ok {
			s.cron.Remove(id)
			delete(s.entries, key)
		}
	}

	for key, sched := range wanted {
		if _, ok := s.entries[key]; ok {
			continue
		}
		accountID, typ := sched.AccountID, sched.Type
		id, err := s.cron.AddFunc(sched.CronExpression, func() {
			s.runJob(accountID, typ)
		})
		if err != nil {
			s.logger.Error("registering discovery schedule",
				zap.String("account_id", accountID),
				zap.String("type", string(typ)),
				zap.String("cron", sched.CronExpression),
				zap.Error(err))
			continue
		}
		s.entries[key] = id
	}

	s.logger.Info("scheduler initialized", zap.Int("jobs", len(s.entries)))
	return nil
}

// Reload re-reads account schedules. Exposed for config-change paths.
func (s *Scheduler) Reload(ctx context.Context) error {
	return s.Initialize(ctx)
}

func (s *Scheduler) runJob(accountID string, typ domain.DiscoveryType) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	if _, err := s.engine.Discover(ctx, accountID, typ); err != nil {
		// Already recorded on the account by the engine.
		s.logger.Warn("scheduled discovery failed",
			zap.String("account_id", accountID),
			zap.String("type", string(typ)),
			zap.Error(err))
	}
}

// TriggerNow runs discovery for one schedule immediately, outside its cron
// cadence. Overlap with a concurrent scheduled run is tolerated; the
// post-level uniqueness constraint dedups their output.
func (s *Scheduler) TriggerNow(ctx context.Context, accountID string, typ domain.DiscoveryType) (discovery.Result, error) {
	return s.engine.Discover(ctx, accountID, typ)
}

// JobCount returns the number of registered cron entries.
func (s *Scheduler) JobCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Start begins cron dispatch. Idempotent.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.cron.Start()
	s.running = true
}

// Stop halts dispatch and waits for in-flight jobs to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	<-s.cron.Stop().Done()
}

func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// zapCronLogger adapts zap to the cron logger contract.
type zapCronLogger struct {
	logger *zap.Logger
}

func (l zapCronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, zap.Any("details", keysAndValues))
}

func (l zapCronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, zap.Error(err), zap.Any("details", keysAndValues))
}
