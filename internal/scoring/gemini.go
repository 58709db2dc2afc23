package scoring

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jonathan/job-autopilot/internal/llm"
	"github.com/jonathan/job-autopilot/internal/schemas"
	"github.com/jonathan/job-autopilot/internal/types"
)

// RelevanceSchemaPath is the JSON Schema the model response must satisfy.
const RelevanceSchemaPath = "schemas/relevance.schema.json"

// GeminiScorer scores jobs with an LLM judge. The applicant profile is
// embedded in the prompt so the score reflects fit, not just the posting.
type GeminiScorer struct {
	client    llm.Client
	applicant *types.ApplicantProfile
	// schemaPath overrides RelevanceSchemaPath resolution; empty means
	// resolve from the repo layout.
	schemaPath string
}

// NewGeminiScorer creates a scorer backed by the given model client.
func NewGeminiScorer(client llm.Client, applicant *types.ApplicantProfile) *GeminiScorer {
	return &GeminiScorer{
		client:     client,
		applicant:  applicant,
		schemaPath: schemas.ResolveSchemaPath(RelevanceSchemaPath),
	}
}

// Score evaluates one job and returns its relevance with breakdown.
func (s *GeminiScorer) Score(ctx context.Context, job *types.Job) (*types.Relevance, error) {
	prompt := buildScoringPrompt(job, s.applicant)

	raw, err := s.client.GenerateJSON(ctx, prompt, llm.TierLite)
	if err != nil {
		return nil, fmt.Errorf("scoring %q: %w", job.Title, err)
	}

	if s.schemaPath != "" {
		if err := schemas.ValidateBytes(s.schemaPath, []byte(raw)); err != nil {
			return nil, fmt.Errorf("scoring response for %q failed schema validation: %w", job.Title, err)
		}
	}

	var rel types.Relevance
	if err := json.Unmarshal([]byte(raw), &rel); err != nil {
		return nil, fmt.Errorf("parsing scoring response: %w (content: %s)", err, raw)
	}

	// Clamp defensively even though the schema bounds the score.
	if rel.Score < 0 {
		rel.Score = 0
	}
	if rel.Score > 100 {
		rel.Score = 100
	}

	return &rel, nil
}

// buildScoringPrompt renders the judge prompt for one job.
func buildScoringPrompt(job *types.Job, applicant *types.ApplicantProfile) string {
	var sb strings.Builder
	sb.WriteString("You are scoring how relevant a job posting is for a candidate.\n\n")
	sb.WriteString("Candidate profile:\n")
	sb.WriteString(fmt.Sprintf("Summary: %s\n\n", applicant.Summary))
	sb.WriteString("Job posting:\n")
	sb.WriteString(fmt.Sprintf("Title: %s\nCompany: %s\nLocation: %s\n\n%s\n\n", job.Title, job.Company, job.Location, job.Description))
	sb.WriteString(`Respond with JSON only, in this exact shape:
{"relevance_score": <number 0-100>, "breakdown": {"<feature>": <numeric contribution>, ...}}
The breakdown features should name the main factors (for example "skills", "seniority", "location", "domain") and their contributions should sum approximately to the score.`)
	return sb.String()
}
