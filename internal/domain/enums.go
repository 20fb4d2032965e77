package domain

type AccountStatus string

const (
	AccountActive AccountStatus = "active"
	AccountPaused AccountStatus = "paused"
	AccountError  AccountStatus = "error"
)

type DiscoveryType string

const (
	DiscoveryReplies DiscoveryType = "replies"
	DiscoverySearch  DiscoveryType = "search"
)

// ValidDiscoveryTypes is the canonical set of accepted discovery type strings.
var ValidDiscoveryTypes = map[string]bool{
	"replies": true, "search": true,
}

type OpportunityStatus string

const (
	OpportunityPending   OpportunityStatus = "pending"
	OpportunityDismissed OpportunityStatus = "dismissed"
	OpportunityResponded OpportunityStatus = "responded"
	OpportunityExpired   OpportunityStatus = "expired"
)

// ValidOpportunityStatuses is the canonical set of accepted opportunity status strings.
var ValidOpportunityStatuses = map[string]bool{
	"pending": true, "dismissed": true, "responded": true, "expired": true,
}

type ResponseStatus string

const (
	ResponseDraft     ResponseStatus = "draft"
	ResponsePosted    ResponseStatus = "posted"
	ResponseDismissed ResponseStatus = "dismissed"
)
