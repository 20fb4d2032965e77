package discovery

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"sparrow/internal/db"
	"sparrow/internal/domain"
	"sparrow/internal/platform"
	"sparrow/internal/repository"
	"sparrow/internal/testutil"
)

type engineFixture struct {
	engine        *Engine
	adapter       *testutil.FakeAdapter
	database      *sql.DB
	accounts      repository.AccountRepo
	profiles      repository.ProfileRepo
	authors       repository.AuthorRepo
	opportunities repository.OpportunityRepo
	account       *domain.Account
	profile       *domain.Profile
	now           time.Time
}

func newEngineFixture(t *testing.T, accountOpts ...testutil.AccountOption) *engineFixture {
	t.Helper()
	return newEngineFixtureWithDB(t, testutil.NewTestDB(t), accountOpts...)
}

func newEngineFixtureWithDB(t *testing.T, database *sql.DB, accountOpts ...testutil.AccountOption) *engineFixture {
	t.Helper()

	profiles := repository.NewSQLiteProfileRepo(database)
	accounts := repository.NewSQLiteAccountRepo(database)
	authors := repository.NewSQLiteAuthorRepo(database)
	opportunities := repository.NewSQLiteOpportunityRepo(database)

	ctx := context.Background()
	profile := testutil.NewTestProfile("alex",
		testutil.WithKeywords("sqlite", "wal"),
		testutil.WithInterests("databases"))
	require.NoError(t, profiles.Create(ctx, profile))

	account := testutil.NewTestAccount(profile.ID, accountOpts...)
	require.NoError(t, accounts.Create(ctx, account))

	adapter := testutil.NewFakeAdapter()
	engine := NewEngine(accounts, profiles, authors, opportunities,
		platform.NewRegistry(adapter), testutil.NewTestUoW(database), nil, zap.NewNop())

	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	engine.now = func() time.Time { return now }

	return &engineFixture{
		engine:        engine,
		adapter:       adapter,
		database:      database,
		accounts:      accounts,
		profiles:      profiles,
		authors:       authors,
		opportunities: opportunities,
		account:       account,
		profile:       profile,
		now:           now,
	}
}

func relevantPost(id string, age time.Duration, base time.Time) platform.Post {
	return platform.Post{
		ID:       id,
		AuthorID: "u100",
		Text:     "benchmarking sqlite wal mode on nvme",
		PostedAt: base.Add(-age),
	}
}

func TestDiscover_FirstRunUsesLookbackWindow(t *testing.T) {
	f := newEngineFixture(t, testutil.WithSchedule(domain.DiscoveryReplies, "*/30 * * * *", nil))

	_, err := f.engine.Discover(context.Background(), f.account.ID, domain.DiscoveryReplies)
	require.NoError(t, err)

	assert.Equal(t, 1, f.adapter.FetchRepliesCalls)
	assert.True(t, f.adapter.LastRepliesSince.Equal(f.now.Add(-2*time.Hour)),
		"first run should look back two hours, got %v", f.adapter.LastRepliesSince)
}

func TestDiscover_SubsequentRunResumesFromLastRun(t *testing.T) {
	lastRun := time.Date(2026, 3, 14, 11, 30, 0, 0, time.UTC)
	f := newEngineFixture(t, testutil.WithSchedule(domain.DiscoveryReplies, "*/30 * * * *", &lastRun))

	_, err := f.engine.Discover(context.Background(), f.account.ID, domain.DiscoveryReplies)
	require.NoError(t, err)
	assert.True(t, f.adapter.LastRepliesSince.Equal(lastRun))
}

func TestDiscover_SuccessAdvancesWindowToRunStart(t *testing.T) {
	f := newEngineFixture(t, testutil.WithSchedule(domain.DiscoveryReplies, "*/30 * * * *", nil))

	_, err := f.engine.Discover(context.Background(), f.account.ID, domain.DiscoveryReplies)
	require.NoError(t, err)

	reloaded, err := f.accounts.GetByID(context.Background(), f.account.ID)
	require.NoError(t, err)
	sched := reloaded.Schedule(domain.DiscoveryReplies)
	require.NotNil(t, sched)
	require.NotNil(t, sched.LastRunAt)
	assert.True(t, sched.LastRunAt.Equal(f.now))
	require.NotNil(t, reloaded.DiscoveryLastAt)
	assert.Nil(t, reloaded.DiscoveryError)
}

func TestDiscover_FailureLeavesWindowAndRecordsError(t *testing.T) {
	lastRun := time.Date(2026, 3, 14, 11, 0, 0, 0, time.UTC)
	f := newEngineFixture(t, testutil.WithSchedule(domain.DiscoveryReplies, "*/30 * * * *", &lastRun))
	f.adapter.RepliesErr = errors.New("rate limited")

	_, err := f.engine.Discover(context.Background(), f.account.ID, domain.DiscoveryReplies)
	require.Error(t, err)

	reloaded, err := f.accounts.GetByID(context.Background(), f.account.ID)
	require.NoError(t, err)
	sched := reloaded.Schedule(domain.DiscoveryReplies)
	require.NotNil(t, sched.LastRunAt)
	assert.True(t, sched.LastRunAt.Equal(lastRun), "failed run must not advance the window")
	require.NotNil(t, reloaded.DiscoveryError)
	assert.Contains(t, *reloaded.DiscoveryError, "rate limited")
}

func TestDiscover_CreatesScoredOpportunities(t *testing.T) {
	f := newEngineFixture(t)
	f.adapter.Replies = []platform.Post{relevantPost("p1", 5*time.Minute, f.now)}

	res, err := f.engine.Discover(context.Background(), f.account.ID, domain.DiscoveryReplies)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Found)
	assert.Equal(t, 1, res.Created)
	assert.Equal(t, 0, res.Skipped)
	require.Len(t, res.Opportunities, 1)
	assert.Equal(t, "p1", res.Opportunities[0].PostID)

	pending := domain.OpportunityPending
	opps, err := f.opportunities.List(context.Background(), repository.OpportunityQuery{
		AccountID: f.account.ID,
		Status:    &pending,
		Now:       f.now,
	})
	require.NoError(t, err)
	require.Len(t, opps, 1)
	opp := opps[0]
	assert.Equal(t, "p1", opp.PostID)
	assert.Equal(t, domain.DiscoveryReplies, opp.DiscoveryType)
	assert.True(t, opp.ExpiresAt.Equal(f.now.Add(domain.OpportunityTTL)))
	assert.GreaterOrEqual(t, opp.Scoring.Total, domain.ScoreThreshold)
}

func TestDiscover_BelowThresholdSkipped(t *testing.T) {
	f := newEngineFixture(t)
	// Old post, no keyword overlap, tiny author: scores under threshold.
	f.adapter.Replies = []platform.Post{{
		ID:       "p-low",
		AuthorID: "u-small",
		Text:     "gm everyone",
		PostedAt: f.now.Add(-5 * time.Hour),
	}}
	f.adapter.Authors["u-small"] = platform.AuthorInfo{
		PlatformUserID: "u-small", Handle: "small", FollowerCount: 3,
	}

	res, err := f.engine.Discover(context.Background(), f.account.ID, domain.DiscoveryReplies)
	require.NoError(t, err)
	assert.Equal(t, Result{Found: 1, Created: 0, Skipped: 1}, res)
}

func TestDiscover_DuplicatePostSkipped(t *testing.T) {
	f := newEngineFixture(t)
	f.adapter.Replies = []platform.Post{relevantPost("p1", 5*time.Minute, f.now)}

	_, err := f.engine.Discover(context.Background(), f.account.ID, domain.DiscoveryReplies)
	require.NoError(t, err)

	res, err := f.engine.Discover(context.Background(), f.account.ID, domain.DiscoveryReplies)
	require.NoError(t, err)
	assert.Equal(t, Result{Found: 1, Created: 0, Skipped: 1}, res)
}

func TestDiscover_DuplicatePostStillRefreshesAuthor(t *testing.T) {
	f := newEngineFixture(t)
	f.adapter.Replies = []platform.Post{relevantPost("p1", 5*time.Minute, f.now)}

	_, err := f.engine.Discover(context.Background(), f.account.ID, domain.DiscoveryReplies)
	require.NoError(t, err)

	f.adapter.Authors["u100"] = platform.AuthorInfo{
		PlatformUserID: "u100",
		Handle:         "author_u100",
		DisplayName:    "Author u100",
		FollowerCount:  9000,
	}

	res, err := f.engine.Discover(context.Background(), f.account.ID, domain.DiscoveryReplies)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Skipped)

	author, err := f.authors.GetByPlatformUserID(context.Background(), f.account.Platform, "u100")
	require.NoError(t, err)
	assert.Equal(t, 9000, author.FollowerCount, "re-encountered post must refresh the cached author")
}

func TestDiscover_BookkeepingRollsBackTogether(t *testing.T) {
	lastRun := time.Date(2026, 3, 14, 11, 0, 0, 0, time.UTC)
	f := newEngineFixture(t, testutil.WithSchedule(domain.DiscoveryReplies, "*/30 * * * *", &lastRun))

	// First write inside the bookkeeping transaction succeeds, second fails.
	f.engine.uow = &testutil.FailOnNthExecUoW{
		DB:     f.database,
		FailOn: 2,
		Err:    errors.New("disk I/O error"),
	}

	_, err := f.engine.Discover(context.Background(), f.account.ID, domain.DiscoveryReplies)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "advancing discovery window")

	reloaded, err := f.accounts.GetByID(context.Background(), f.account.ID)
	require.NoError(t, err)
	assert.Nil(t, reloaded.DiscoveryLastAt, "account bookkeeping must roll back with the schedule update")
	sched := reloaded.Schedule(domain.DiscoveryReplies)
	require.NotNil(t, sched)
	require.NotNil(t, sched.LastRunAt)
	assert.True(t, sched.LastRunAt.Equal(lastRun), "window must not advance when bookkeeping fails partway")
}

func TestDiscover_ConcurrentRunsCreateSingleOpportunity(t *testing.T) {
	// File-backed database: unlike :memory:, all pooled connections share
	// state, which is required for real concurrent access under WAL.
	dbPath := filepath.Join(t.TempDir(), "discovery_test.db")
	database, err := db.OpenDB(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	f := newEngineFixtureWithDB(t, database)
	f.adapter.Replies = []platform.Post{relevantPost("p1", 5*time.Minute, f.now)}

	const runs = 4
	errs := make([]error, runs)
	var wg sync.WaitGroup
	for i := 0; i < runs; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.engine.Discover(context.Background(), f.account.ID, domain.DiscoveryReplies)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		require.NoError(t, err, "run %d: a lost duplicate race must be a silent skip", i)
	}

	pending := domain.OpportunityPending
	opps, err := f.opportunities.List(context.Background(), repository.OpportunityQuery{
		AccountID: f.account.ID,
		Status:    &pending,
		Now:       f.now,
	})
	require.NoError(t, err)
	assert.Len(t, opps, 1, "concurrent runs over the same post must create exactly one opportunity")
}

func TestDiscover_SearchWithoutKeywordsSkipsAdapter(t *testing.T) {
	f := newEngineFixture(t)
	f.profile.Keywords = nil
	require.NoError(t, f.profiles.Update(context.Background(), f.profile))

	res, err := f.engine.Discover(context.Background(), f.account.ID, domain.DiscoverySearch)
	require.NoError(t, err)
	assert.Equal(t, Result{}, res)
	assert.Zero(t, f.adapter.SearchCalls, "adapter must not be called without keywords")
}

func TestDiscover_InactiveAccountRejected(t *testing.T) {
	f := newEngineFixture(t, testutil.WithAccountStatus(domain.AccountPaused))

	_, err := f.engine.Discover(context.Background(), f.account.ID, domain.DiscoveryReplies)
	assert.ErrorIs(t, err, ErrAccountInactive)
	assert.Zero(t, f.adapter.FetchRepliesCalls)
}

func TestDiscover_UnknownAccount(t *testing.T) {
	f := newEngineFixture(t)
	_, err := f.engine.Discover(context.Background(), "missing", domain.DiscoveryReplies)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
