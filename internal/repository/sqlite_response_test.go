package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sparrow/internal/domain"
	"sparrow/internal/repository"
	"sparrow/internal/testutil"
)

func seedResponseDeps(t *testing.T) (*repository.SQLiteResponseRepo, *domain.Opportunity) {
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
	return responses, opp
}

func TestResponseRoundTrip_MetadataSurvives(t *testing.T) {
	responses, opp := seedResponseDeps(t)
	ctx := context.Background()

	r := testutil.NewTestResponse(opp.ID, opp.AccountID)
	r.Metadata = domain.ResponseMetadata{
		Keywords:     []string{"sqlite", "wal"},
		Topic:        "sqlite wal mode",
		Domain:       "technology",
		Question:     "is wal faster?",
		ChunkCount:   2,
		Model:        "llama3.2",
		AnalysisMs:   120,
		RetrievalMs:  40,
		GenerationMs: 900,
		MaxLength:    280,
	}
	require.NoError(t, responses.Create(ctx, r))

	got, err := responses.GetByID(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, r.Metadata, got.Metadata)
	assert.Equal(t, 1, got.Version)
	assert.Nil(t, got.PostedAt)
}

func TestMaxVersion(t *testing.T) {
	responses, opp := seedResponseDeps(t)
	ctx := context.Background()

	v, err := responses.MaxVersion(ctx, opp.ID)
	require.NoError(t, err)
	assert.Zero(t, v, "no responses yet")

	require.NoError(t, responses.Create(ctx, testutil.NewTestResponse(opp.ID, opp.AccountID, testutil.WithVersion(1))))
	require.NoError(t, responses.Create(ctx, testutil.NewTestResponse(opp.ID, opp.AccountID, testutil.WithVersion(2))))

	v, err = responses.MaxVersion(ctx, opp.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, v)
}

func TestResponseCreate_DuplicateVersionRejected(t *testing.T) {
	responses, opp := seedResponseDeps(t)
	ctx := context.Background()

	require.NoError(t, responses.Create(ctx, testutil.NewTestResponse(opp.ID, opp.AccountID, testutil.WithVersion(1))))
	err := responses.Create(ctx, testutil.NewTestResponse(opp.ID, opp.AccountID, testutil.WithVersion(1)))
	assert.ErrorIs(t, err, repository.ErrDuplicate)
}

func TestMarkPosted(t *testing.T) {
	responses, opp := seedResponseDeps(t)
	ctx := context.Background()

	r := testutil.NewTestResponse(opp.ID, opp.AccountID)
	require.NoError(t, responses.Create(ctx, r))

	postedAt := time.Date(2026, 3, 14, 12, 30, 0, 0, time.UTC)
	require.NoError(t, responses.MarkPosted(ctx, r.ID, "190234", "https://x.com/testhandle/status/190234", postedAt))

	got, err := responses.GetByID(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ResponsePosted, got.Status)
	assert.Equal(t, "190234", got.PlatformPostID)
	assert.Equal(t, "https://x.com/testhandle/status/190234", got.PlatformPostURL)
	require.NotNil(t, got.PostedAt)
	assert.True(t, got.PostedAt.Equal(postedAt))
}

func TestUpdateText_OnlyDraftRows(t *testing.T) {
	responses, opp := seedResponseDeps(t)
	ctx := context.Background()

	r := testutil.NewTestResponse(opp.ID, opp.AccountID, testutil.WithResponseStatus(domain.ResponsePosted))
	require.NoError(t, responses.Create(ctx, r))

	err := responses.UpdateText(ctx, r.ID, "rewrite attempt")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	got, err := responses.GetByID(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, r.Text, got.Text)
}

func TestListByOpportunity_OrderedByVersion(t *testing.T) {
	responses, opp := seedResponseDeps(t)
	ctx := context.Background()

	require.NoError(t, responses.Create(ctx, testutil.NewTestResponse(opp.ID, opp.AccountID, testutil.WithVersion(2))))
	require.NoError(t, responses.Create(ctx, testutil.NewTestResponse(opp.ID, opp.AccountID, testutil.WithVersion(1))))

	got, err := responses.ListByOpportunity(ctx, opp.ID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].Version)
	assert.Equal(t, 2, got[1].Version)
}
