// Package generation drafts responses to opportunities with a two-stage LLM
// pipeline: structured analysis of the untrusted post, best-effort knowledge
// retrieval, then voice-constrained drafting.
package generation

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"sparrow/internal/domain"
	"sparrow/internal/knowledge"
	"sparrow/internal/llm"
	"sparrow/internal/platform"
	"sparrow/internal/repository"
)

// ErrDraftEchoesContent is returned when the model keeps producing text that
// merely repeats the untrusted post, the signature of an executed injection.
var ErrDraftEchoesContent = errors.New("generated draft echoes post content")

// ConstraintViolationError reports a draft exceeding the platform's length
// limit. The draft is never truncated.
type ConstraintViolationError struct {
	Length    int
	MaxLength int
}

func (e *ConstraintViolationError) Error() string {
	return fmt.Sprintf("generated text is %d characters, platform limit is %d", e.Length, e.MaxLength)
}

// contentAnalysis is the structured output of the analysis stage.
type contentAnalysis struct {
	MainTopic string   `json:"main_topic"`
	Keywords  []string `json:"keywords"`
	Domain    string   `json:"domain"`
	Question  string   `json:"question"`
}

func validateAnalysis(a contentAnalysis) error {
	if a.MainTopic == "" {
		return fmt.Errorf("main_topic is required")
	}
	return nil
}

// Pipeline produces draft responses for opportunities.
type Pipeline struct {
	opportunities repository.OpportunityRepo
	profiles      repository.ProfileRepo
	responses     repository.ResponseRepo
	registry      *platform.Registry
	client        llm.LLMClient
	searcher      knowledge.Searcher
	topK          int
	logger        *zap.Logger
	now           func() time.Time
}

func NewPipeline(
	opportunities repository.OpportunityRepo,
	profiles repository.ProfileRepo,
	responses repository.ResponseRepo,
	registry *platform.Registry,
	client llm.LLMClient,
	searcher knowledge.Searcher,
	topK int,
	logger *zap.Logger,
) *Pipeline {
	if topK <= 0 {
		topK = 5
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		opportunities: opportunities,
		profiles:      profiles,
		responses:     responses,
		registry:      registry,
		client:        client,
		searcher:      searcher,
		topK:          topK,
		logger:        logger,
		now:           time.Now,
	}
}

// Generate drafts a new response version for the opportunity. The
// opportunity itself is never mutated here; a failed pipeline persists
// nothing.
func (p *Pipeline) Generate(ctx context.Context, opportunityID, profileID string) (*domain.Response, error) {
	opp, err := p.opportunities.GetByID(ctx, opportunityID)
	if err != nil {
		return nil, err
	}
	profile, err := p.profiles.GetByID(ctx, profileID)
	if err != nil {
		return nil, err
	}
	adapter, err := p.registry.Get(opp.Platform)
	if err != nil {
		return nil, err
	}
	constraints, err := adapter.ResponseConstraints(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading platform constraints: %w", err)
	}

	analysis, analysisMs, model, err := p.analyze(ctx, opp.Content)
	if err != nil {
		return nil, fmt.Errorf("analysis stage: %w", err)
	}

	retrievalStart := p.now()
	chunks := knowledge.BestEffortSearch(ctx, p.searcher, analysis.Keywords, p.topK)
	retrievalMs := p.now().Sub(retrievalStart).Milliseconds()

	text, generationMs, err := p.draft(ctx, profile, analysis, chunks, opp.Content, constraints.MaxLength)
	if err != nil {
		return nil, fmt.Errorf("generation stage: %w", err)
	}
	// Platform limits count characters, not bytes.
	if n := utf8.RuneCountInString(text); n > constraints.MaxLength {
		return nil, &ConstraintViolationError{Length: n, MaxLength: constraints.MaxLength}
	}

	maxVersion, err := p.responses.MaxVersion(ctx, opp.ID)
	if err != nil {
		return nil, fmt.Errorf("resolving version: %w", err)
	}

	now := p.now()
	resp := &domain.Response{
		ID:            uuid.NewString(),
		OpportunityID: opp.ID,
		AccountID:     opp.AccountID,
		Text:          text,
		Status:        domain.ResponseDraft,
		Version:       maxVersion + 1,
		Metadata: domain.ResponseMetadata{
			Keywords:     analysis.Keywords,
			Topic:        analysis.MainTopic,
			Domain:       analysis.Domain,
			Question:     analysis.Question,
			ChunkCount:   len(chunks),
			Model:        model,
			AnalysisMs:   analysisMs,
			RetrievalMs:  retrievalMs,
			GenerationMs: generationMs,
			MaxLength:    constraints.MaxLength,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := p.responses.Create(ctx, resp); err != nil {
		return nil, fmt.Errorf("persisting draft: %w", err)
	}

	p.logger.Info("draft generated",
		zap.String("opportunity_id", opp.ID),
		zap.String("response_id", resp.ID),
		zap.Int("version", resp.Version),
		zap.Int("chunks", len(chunks)))
	return resp, nil
}

// analyze runs the analysis stage, retrying once when the model returns
// something ExtractJSON cannot parse.
func (p *Pipeline) analyze(ctx context.Context, content string) (contentAnalysis, int64, string, error) {
	start := p.now()
	userPrompt := buildAnalyzeUserPrompt(content)

	var lastErr error
	model := ""
	for attempt := 0; attempt < 2; attempt++ {
		resp, err := p.client.Generate(ctx, llm.GenerateRequest{
			Task:         llm.TaskAnalyze,
			SystemPrompt: analyzeSystemPrompt,
			UserPrompt:   userPrompt,
		})
		if err != nil {
			return contentAnalysis{}, 0, "", err
		}
		model = resp.Model

		analysis, err := llm.ExtractJSON[contentAnalysis](resp.Text, validateAnalysis)
		if err == nil {
			return analysis, p.now().Sub(start).Milliseconds(), model, nil
		}
		lastErr = err
		if !errors.Is(err, llm.ErrInvalidOutput) {
			break
		}
	}
	return contentAnalysis{}, 0, model, lastErr
}

// draft runs the generation stage, retrying once when the output looks like
// an executed injection rather than a reply.
func (p *Pipeline) draft(ctx context.Context, profile *domain.Profile, analysis contentAnalysis, chunks []knowledge.Chunk, content string, maxLength int) (string, int64, error) {
	start := p.now()
	userPrompt := buildGenerateUserPrompt(profile, analysis, chunks, content, maxLength)

	for attempt := 0; attempt < 2; attempt++ {
		resp, err := p.client.Generate(ctx, llm.GenerateRequest{
			Task:         llm.TaskGenerate,
			SystemPrompt: generateSystemPrompt,
			UserPrompt:   userPrompt,
		})
		if err != nil {
			return "", 0, err
		}
		text := trimDraft(resp.Text)
		if !echoesInjection(text, content) {
			return text, p.now().Sub(start).Milliseconds(), nil
		}
		p.logger.Warn("draft rejected as injection echo", zap.Int("attempt", attempt+1))
	}
	return "", 0, ErrDraftEchoesContent
}
