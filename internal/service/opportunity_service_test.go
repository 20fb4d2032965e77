package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sparrow/internal/domain"
	"sparrow/internal/repository"
	"sparrow/internal/testutil"
)

func newOpportunityFixture(t *testing.T) (OpportunityService, repository.OpportunityRepo, *domain.Account, *domain.Author, *sql.DB) {
	t.Helper()
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

	return NewOpportunityService(opportunities), opportunities, account, author, database
}

func TestUpdateStatus_PendingTransitions(t *testing.T) {
	svc, opportunities, account, author, _ := newOpportunityFixture(t)
	ctx := context.Background()

	for _, target := range []domain.OpportunityStatus{domain.OpportunityDismissed, domain.OpportunityResponded} {
		opp := testutil.NewTestOpportunity(account.ID, author.ID)
		require.NoError(t, opportunities.Create(ctx, opp))

		require.NoError(t, svc.UpdateStatus(ctx, opp.ID, target))
		reloaded, err := opportunities.GetByID(ctx, opp.ID)
		require.NoError(t, err)
		assert.Equal(t, target, reloaded.Status)
	}
}

func TestUpdateStatus_TerminalStatesRejected(t *testing.T) {
	svc, opportunities, account, author, _ := newOpportunityFixture(t)
	ctx := context.Background()

	opp := testutil.NewTestOpportunity(account.ID, author.ID,
		testutil.WithOpportunityStatus(domain.OpportunityDismissed))
	require.NoError(t, opportunities.Create(ctx, opp))

	err := svc.UpdateStatus(ctx, opp.ID, domain.OpportunityResponded)
	var ise *InvalidStatusError
	require.ErrorAs(t, err, &ise)
	assert.Equal(t, "dismissed", ise.Current)
}

func TestUpdateStatus_UnknownStatusRejected(t *testing.T) {
	svc, opportunities, account, author, _ := newOpportunityFixture(t)
	ctx := context.Background()

	opp := testutil.NewTestOpportunity(account.ID, author.ID)
	require.NoError(t, opportunities.Create(ctx, opp))

	assert.Error(t, svc.UpdateStatus(ctx, opp.ID, domain.OpportunityStatus("archived")))
}

func TestUpdateStatus_NotFound(t *testing.T) {
	svc, _, _, _, _ := newOpportunityFixture(t)
	err := svc.UpdateStatus(context.Background(), "missing", domain.OpportunityDismissed)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestList_PendingFilterExcludesExpiredBeforeSweep(t *testing.T) {
	svc, opportunities, account, author, _ := newOpportunityFixture(t)
	ctx := context.Background()
	now := time.Now().UTC()

	fresh := testutil.NewTestOpportunity(account.ID, author.ID,
		testutil.WithExpiresAt(now.Add(3*time.Hour)))
	stale := testutil.NewTestOpportunity(account.ID, author.ID,
		testutil.WithExpiresAt(now.Add(-time.Second)))
	require.NoError(t, opportunities.Create(ctx, fresh))
	require.NoError(t, opportunities.Create(ctx, stale))

	pending := domain.OpportunityPending
	listed, err := svc.List(ctx, repository.OpportunityQuery{AccountID: account.ID, Status: &pending})
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, fresh.ID, listed[0].ID)

	// The sweep then converges stored state with what readers already saw.
	n, err := svc.Expire(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	flipped, err := opportunities.GetByID(ctx, stale.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OpportunityExpired, flipped.Status)
}
