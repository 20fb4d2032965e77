package domain

import "time"

// ResponseMetadata captures how a draft was produced: the analysis output,
// retrieval stats, model identity, per-stage timings, and the platform
// constraints that were applied during validation.
type ResponseMetadata struct {
	Keywords     []string `json:"keywords,omitempty"`
	Topic        string   `json:"topic,omitempty"`
	Domain       string   `json:"domain,omitempty"`
	Question     string   `json:"question,omitempty"`
	ChunkCount   int      `json:"chunk_count"`
	Model        string   `json:"model,omitempty"`
	AnalysisMs   int64    `json:"analysis_ms"`
	RetrievalMs  int64    `json:"retrieval_ms"`
	GenerationMs int64    `json:"generation_ms"`
	MaxLength    int      `json:"max_length"`
}

// Response is a drafted or posted reply to an opportunity. Version starts at
// 1 and increments on every regeneration for the same opportunity; posted and
// dismissed are terminal for a version, and text is editable only while draft.
type Response struct {
	ID            string
	OpportunityID string
	AccountID     string
	Text          string
	Status        ResponseStatus
	Version       int
	Metadata      ResponseMetadata

	// Set on successful posting.
	PlatformPostID  string
	PlatformPostURL string
	PostedAt        *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}
