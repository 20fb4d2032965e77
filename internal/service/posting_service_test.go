package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"sparrow/internal/domain"
	"sparrow/internal/platform"
	"sparrow/internal/repository"
	"sparrow/internal/testutil"
)

type postingFixture struct {
	svc           PostingService
	adapter       *testutil.FakeAdapter
	database      *sql.DB
	responses     repository.ResponseRepo
	opportunities repository.OpportunityRepo
	accounts      repository.AccountRepo
	opportunity   *domain.Opportunity
	response      *domain.Response
}

func newPostingFixture(t *testing.T, responseOpts ...testutil.ResponseOption) *postingFixture {
	t.Helper()
	database := testutil.NewTestDB(t)

	profiles := repository.NewSQLiteProfileRepo(database)
	accounts := repository.NewSQLiteAccountRepo(database)
	authors := repository.NewSQLiteAuthorRepo(database)
	opportunities := repository.NewSQLiteOpportunityRepo(database)
	responses := repository.NewSQLiteResponseRepo(database)

	ctx := context.Background()
	profile := testutil.NewTestProfile("alex")
	require.NoError(t, profiles.Create(ctx, profile))
	account := testutil.NewTestAccount(profile.ID)
	require.NoError(t, accounts.Create(ctx, account))
	author := testutil.NewTestAuthor("u1")
	require.NoError(t, authors.Upsert(ctx, author))
	opp := testutil.NewTestOpportunity(account.ID, author.ID)
	require.NoError(t, opportunities.Create(ctx, opp))
	resp := testutil.NewTestResponse(opp.ID, account.ID, responseOpts...)
	require.NoError(t, responses.Create(ctx, resp))

	adapter := testutil.NewFakeAdapter()
	svc := NewPostingService(responses, opportunities, accounts,
		platform.NewRegistry(adapter), testutil.NewTestUoW(database), nil, zap.NewNop())

	return &postingFixture{
		svc:           svc,
		adapter:       adapter,
		database:      database,
		responses:     responses,
		opportunities: opportunities,
		accounts:      accounts,
		opportunity:   opp,
		response:      resp,
	}
}

func TestPost_Success(t *testing.T) {
	f := newPostingFixture(t)

	posted, err := f.svc.Post(context.Background(), f.response.ID)
	require.NoError(t, err)

	assert.Equal(t, domain.ResponsePosted, posted.Status)
	assert.Equal(t, "fake-post-1", posted.PlatformPostID)
	assert.Equal(t, "https://x.com/testhandle/status/fake-post-1", posted.PlatformPostURL)
	require.NotNil(t, posted.PostedAt)

	opp, err := f.opportunities.GetByID(context.Background(), f.opportunity.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OpportunityResponded, opp.Status)
	assert.Equal(t, 1, f.adapter.PostCalls)
	assert.Equal(t, []string{f.response.Text}, f.adapter.PostedTexts)
}

func TestPost_NonDraftNeverCallsAdapter(t *testing.T) {
	for _, status := range []domain.ResponseStatus{domain.ResponsePosted, domain.ResponseDismissed} {
		t.Run(string(status), func(t *testing.T) {
			f := newPostingFixture(t, testutil.WithResponseStatus(status))

			_, err := f.svc.Post(context.Background(), f.response.ID)
			var ise *InvalidStatusError
			require.ErrorAs(t, err, &ise)
			assert.Equal(t, string(status), ise.Current)
			assert.Zero(t, f.adapter.PostCalls)
		})
	}
}

func TestPost_TwiceIsIdempotent(t *testing.T) {
	f := newPostingFixture(t)
	ctx := context.Background()

	_, err := f.svc.Post(ctx, f.response.ID)
	require.NoError(t, err)

	_, err = f.svc.Post(ctx, f.response.ID)
	var ise *InvalidStatusError
	require.ErrorAs(t, err, &ise)
	assert.Equal(t, "posted", ise.Current)
	assert.Equal(t, 1, f.adapter.PostCalls, "adapter invoked exactly once total")
}

func TestPost_AdapterFailureLeavesRowsUntouched(t *testing.T) {
	f := newPostingFixture(t)
	f.adapter.PostErr = &platform.RateLimitError{RetryAfter: 30 * time.Second}

	_, err := f.svc.Post(context.Background(), f.response.ID)
	require.Error(t, err)
	var rle *platform.RateLimitError
	assert.ErrorAs(t, err, &rle)

	resp, err := f.responses.GetByID(context.Background(), f.response.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ResponseDraft, resp.Status)

	opp, err := f.opportunities.GetByID(context.Background(), f.opportunity.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OpportunityPending, opp.Status)
}

func TestPost_StoreFailureRollsBackBothRows(t *testing.T) {
	f := newPostingFixture(t)

	failing := &testutil.FailOnNthExecUoW{
		DB:     f.database,
		FailOn: 2,
		Err:    errors.New("disk full"),
	}
	svc := NewPostingService(f.responses, f.opportunities, f.accounts,
		platform.NewRegistry(f.adapter), failing, nil, zap.NewNop())

	_, err := svc.Post(context.Background(), f.response.ID)
	require.Error(t, err)

	// Neither update may be visible: posted response with pending
	// opportunity would break the pairing invariant.
	resp, err := f.responses.GetByID(context.Background(), f.response.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ResponseDraft, resp.Status)

	opp, err := f.opportunities.GetByID(context.Background(), f.opportunity.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OpportunityPending, opp.Status)
}

func TestPost_UnknownResponse(t *testing.T) {
	f := newPostingFixture(t)
	_, err := f.svc.Post(context.Background(), "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.Zero(t, f.adapter.PostCalls)
}
