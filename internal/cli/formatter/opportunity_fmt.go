package formatter

import (
	"fmt"
	"strings"

	"sparrow/internal/domain"
)

// FormatOpportunityList renders opportunities as an aligned table.
func FormatOpportunityList(opps []*domain.Opportunity) string {
	if len(opps) == 0 {
		return Dim("No opportunities.") + "\n"
	}

	rows := make([][]string, 0, len(opps))
	for _, o := range opps {
		rows = append(rows, []string{
			TruncID(o.ID),
			ScoreStyled(o.Scoring.Total),
			OpportunityStatusPill(o.Status),
			string(o.DiscoveryType),
			Excerpt(o.Content, 48),
			ExpiresIn(o.ExpiresAt),
		})
	}
	return RenderTable([]string{"ID", "Score", "Status", "Type", "Content", "TTL"}, rows)
}

// FormatOpportunityDetail renders one opportunity with its score breakdown.
func FormatOpportunityDetail(o *domain.Opportunity, author *domain.Author) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s  %s\n", Bold(o.ID), OpportunityStatusPill(o.Status))
	if author != nil {
		fmt.Fprintf(&b, "%s @%s %s\n",
			StyleFg.Render(author.DisplayName),
			author.Handle,
			Dim(fmt.Sprintf("(%d followers)", author.FollowerCount)))
	}
	fmt.Fprintf(&b, "%s %s\n", Dim("Posted"), HumanTimestamp(o.ContentPostedAt))
	fmt.Fprintf(&b, "%s %s\n\n", Dim("Expires"), ExpiresIn(o.ExpiresAt))

	b.WriteString(o.Content + "\n\n")

	fmt.Fprintf(&b, "%s recency %d + impact %d = %s\n",
		Dim("Score:"), o.Scoring.Recency, o.Scoring.Impact, ScoreStyled(o.Scoring.Total))
	return RenderBox("Opportunity", b.String())
}

// FormatResponse renders a drafted or posted response with its metadata.
func FormatResponse(r *domain.Response) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s  %s  %s\n\n",
		Bold(fmt.Sprintf("v%d", r.Version)),
		ResponseStatusPill(r.Status),
		Dim(r.ID))
	b.WriteString(StyleFg.Render(r.Text) + "\n\n")

	meta := r.Metadata
	fmt.Fprintf(&b, "%s %s", Dim("Topic:"), meta.Topic)
	if meta.Question != "" {
		fmt.Fprintf(&b, "  %s %s", Dim("Question:"), meta.Question)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "%s %s  %s %d chunks  %s %dms/%dms/%dms\n",
		Dim("Model:"), meta.Model,
		Dim("Retrieved:"), meta.ChunkCount,
		Dim("Timing:"), meta.AnalysisMs, meta.RetrievalMs, meta.GenerationMs)
	if r.Status == domain.ResponsePosted && r.PlatformPostURL != "" {
		fmt.Fprintf(&b, "%s %s\n", Dim("Posted:"), StyleBlue.Render(r.PlatformPostURL))
	}
	return RenderBox("Response", b.String())
}
