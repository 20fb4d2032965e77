package formatter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"sparrow/internal/domain"
	"sparrow/internal/testutil"
)

func TestFormatOpportunityList_Empty(t *testing.T) {
	out := FormatOpportunityList(nil)
	assert.Contains(t, out, "No opportunities")
}

func TestFormatOpportunityList_RendersRows(t *testing.T) {
	opp := testutil.NewTestOpportunity("acct", "auth",
		testutil.WithContent("short question about   wal\nmode"))
	out := FormatOpportunityList([]*domain.Opportunity{opp})

	assert.Contains(t, out, "Score")
	assert.Contains(t, out, "short question about wal mode", "whitespace collapsed")
	assert.Contains(t, out, "replies")
}

func TestFormatResponse_ShowsMetadataAndURL(t *testing.T) {
	now := time.Now().UTC()
	r := testutil.NewTestResponse("opp", "acct", testutil.WithResponseStatus(domain.ResponsePosted))
	r.PlatformPostURL = "https://x.com/testhandle/status/1"
	r.PostedAt = &now
	r.Metadata.Topic = "sqlite"

	out := FormatResponse(r)
	assert.Contains(t, out, "sqlite")
	assert.Contains(t, out, "https://x.com/testhandle/status/1")
	assert.Contains(t, out, "v1")
}

func TestExcerpt(t *testing.T) {
	assert.Equal(t, "abc", Excerpt("  abc  ", 10))
	assert.Equal(t, "abcd…", Excerpt("abcdefgh", 5))
}

func TestExpiresInFrom(t *testing.T) {
	now := time.Now()
	assert.Contains(t, expiresInFrom(now.Add(-time.Minute), now), "expired")
	assert.Contains(t, expiresInFrom(now.Add(10*time.Minute), now), "10m left")
	assert.Contains(t, expiresInFrom(now.Add(3*time.Hour+5*time.Minute), now), "3h")
}
