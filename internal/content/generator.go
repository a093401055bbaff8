package content

import (
	"context"
	"fmt"
	"time"

	"github.com/hondana/buyback-mailer/internal/domain"
	"github.com/hondana/buyback-mailer/internal/pkg/logger"
)

// Completer is one LLM backend able to answer a generation prompt.
type Completer interface {
	Name() string
	Complete(ctx context.Context, prompt string) (string, error)
}

// Service turns admitted decisions into finished emails. Backends are
// tried in order; when all fail the deterministic templates take over.
type Service struct {
	prompts  *PromptBuilder
	backends []Completer
	catalog  Catalog
}

// NewService builds a content service over the given backend chain.
func NewService(catalog Catalog, backends ...Completer) *Service {
	return &Service{
		prompts:  NewPromptBuilder(),
		backends: backends,
		catalog:  catalog,
	}
}

// Generate produces subject and body for one admitted decision.
// SKIP decisions are rejected; the caller filters those out.
func (s *Service) Generate(ctx context.Context, c domain.CustomerProfile, d domain.EmailDecision, now time.Time) (EmailContent, error) {
	if d.EmailType == domain.EmailSkip {
		return EmailContent{}, fmt.Errorf("cannot generate content for a skipped customer %s", c.ID)
	}

	el := s.catalog.BuildElements(c, d, now)
	prompt, err := s.prompts.Build(c, d, el, now)
	if err != nil {
		return EmailContent{}, err
	}

	for _, backend := range s.backends {
		reply, err := backend.Complete(ctx, prompt)
		if err != nil {
			logger.Warn("content backend failed, trying next",
				"backend", backend.Name(),
				"customer_id", c.ID,
				"error", err.Error())
			continue
		}

		ec, err := ParseReply(reply)
		if err != nil {
			logger.Warn("content backend reply unparseable",
				"backend", backend.Name(),
				"customer_id", c.ID,
				"error", err.Error())
			continue
		}

		ec.Source = backend.Name()
		return ec, nil
	}

	logger.Info("all content backends unavailable, using template",
		"customer_id", c.ID,
		"email_type", string(d.EmailType))
	return FallbackContent(c, d, now), nil
}

// GenerateBatch generates content for every non-SKIP decision in a plan.
// Failures on individual customers do not stop the batch.
func (s *Service) GenerateBatch(ctx context.Context, roster []domain.CustomerProfile, decisions []domain.EmailDecision, now time.Time) (map[string]EmailContent, error) {
	if len(roster) != len(decisions) {
		return nil, fmt.Errorf("roster and decisions length mismatch: %d vs %d", len(roster), len(decisions))
	}

	out := make(map[string]EmailContent)
	for i, d := range decisions {
		if d.EmailType == domain.EmailSkip {
			continue
		}
		ec, err := s.Generate(ctx, roster[i], d, now)
		if err != nil {
			logger.Error("content generation failed",
				"customer_id", d.CustomerID,
				"error", err.Error())
			continue
		}
		out[d.CustomerID] = ec
	}
	return out, nil
}
