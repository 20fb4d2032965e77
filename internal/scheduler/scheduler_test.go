package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"sparrow/internal/discovery"
	"sparrow/internal/domain"
	"sparrow/internal/repository"
	"sparrow/internal/testutil"
)

type recordingDiscoverer struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (r *recordingDiscoverer) Discover(_ context.Context, accountID string, typ domain.DiscoveryType) (discovery.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, accountID+":"+string(typ))
	return discovery.Result{}, r.err
}

func (r *recordingDiscoverer) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func setupAccounts(t *testing.T) (repository.AccountRepo, *domain.Account) {
	t.Helper()
	database := testutil.NewTestDB(t)
	profiles := repository.NewSQLiteProfileRepo(database)
	accounts := repository.NewSQLiteAccountRepo(database)

	ctx := context.Background()
	profile := testutil.NewTestProfile("alex")
	require.NoError(t, profiles.Create(ctx, profile))

	account := testutil.NewTestAccount(profile.ID,
		testutil.WithSchedule(domain.DiscoveryReplies, "*/15 * * * *", nil),
		testutil.WithDisabledSchedule(domain.DiscoverySearch, "0 * * * *"))
	require.NoError(t, accounts.Create(ctx, account))
	return accounts, account
}

func TestInitialize_RegistersOnlyEnabledSchedules(t *testing.T) {
	accounts, _ := setupAccounts(t)
	s := New(accounts, &recordingDiscoverer{}, zap.NewNop())

	require.NoError(t, s.Initialize(context.Background()))
	assert.Equal(t, 1, s.JobCount(), "disabled schedule must not register")
}

func TestInitialize_SkipsInactiveAccounts(t *testing.T) {
	accounts, account := setupAccounts(t)
	s := New(accounts, &recordingDiscoverer{}, zap.NewNop())
	require.NoError(t, s.Initialize(context.Background()))
	require.Equal(t, 1, s.JobCount())

	account.Status = domain.AccountPaused
	require.NoError(t, accounts.Update(context.Background(), account))

	require.NoError(t, s.Reload(context.Background()))
	assert.Zero(t, s.JobCount(), "reload must drop jobs for paused accounts")
}

func TestInitialize_Idempotent(t *testing.T) {
	accounts, _ := setupAccounts(t)
	s := New(accounts, &recordingDiscoverer{}, zap.NewNop())

	require.NoError(t, s.Initialize(context.Background()))
	require.NoError(t, s.Initialize(context.Background()))
	assert.Equal(t, 1, s.JobCount())
}

func TestInitialize_BadCronExpressionIsolated(t *testing.T) {
	accounts, account := setupAccounts(t)
	account.Schedules[0].CronExpression = "not a cron line"
	require.NoError(t, accounts.Update(context.Background(), account))

	s := New(accounts, &recordingDiscoverer{}, zap.NewNop())
	require.NoError(t, s.Initialize(context.Background()))
	assert.Zero(t, s.JobCount())
}

func TestTriggerNow_RunsImmediately(t *testing.T) {
	accounts, account := setupAccounts(t)
	rec := &recordingDiscoverer{}
	s := New(accounts, rec, zap.NewNop())

	_, err := s.TriggerNow(context.Background(), account.ID, domain.DiscoveryReplies)
	require.NoError(t, err)
	assert.Equal(t, 1, rec.callCount())
}

func TestStartStop_Idempotent(t *testing.T) {
	accounts, _ := setupAccounts(t)
	s := New(accounts, &recordingDiscoverer{}, zap.NewNop())

	assert.False(t, s.IsRunning())
	s.Start()
	s.Start()
	assert.True(t, s.IsRunning())
	s.Stop()
	s.Stop()
	assert.False(t, s.IsRunning())
}

func TestSweeper_RunOnceExpires(t *testing.T) {
	database := testutil.NewTestDB(t)
	profiles := repository.NewSQLiteProfileRepo(database)
	accounts := repository.NewSQLiteAccountRepo(database)
	authors := repository.NewSQLiteAuthorRepo(database)
	opportunities := repository.NewSQLiteOpportunityRepo(database)

	ctx := context.Background()
	profile := testutil.NewTestProfile("alex")
	require.NoError(t, profiles.Create(ctx, profile))
	account := testutil.NewTestAccount(profile.ID)
	require.NoError(t, accounts.Create(ctx, account))
	author := testutil.NewTestAuthor("u1")
	require.NoError(t, authors.Upsert(ctx, author))

	now := time.Now().UTC()
	overdue := testutil.NewTestOpportunity(account.ID, author.ID,
		testutil.WithExpiresAt(now.Add(-time.Minute)))
	fresh := testutil.NewTestOpportunity(account.ID, author.ID,
		testutil.WithExpiresAt(now.Add(time.Hour)))
	require.NoError(t, opportunities.Create(ctx, overdue))
	require.NoError(t, opportunities.Create(ctx, fresh))

	sweeper := NewSweeper(opportunities, time.Minute, nil, zap.NewNop())
	n, err := sweeper.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	reloaded, err := opportunities.GetByID(ctx, overdue.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OpportunityExpired, reloaded.Status)

	untouched, err := opportunities.GetByID(ctx, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OpportunityPending, untouched.Status)
}
