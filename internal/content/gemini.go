package content

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jonathan/job-autopilot/internal/llm"
	"github.com/jonathan/job-autopilot/internal/schemas"
	"github.com/jonathan/job-autopilot/internal/types"
)

// ContentSchemaPath is the JSON Schema the model response must satisfy.
const ContentSchemaPath = "schemas/content.schema.json"

// GeminiGenerator produces application content with the advanced model tier.
type GeminiGenerator struct {
	client     llm.Client
	schemaPath string
}

// NewGeminiGenerator creates a generator backed by the given model client.
func NewGeminiGenerator(client llm.Client) *GeminiGenerator {
	return &GeminiGenerator{
		client:     client,
		schemaPath: schemas.ResolveSchemaPath(ContentSchemaPath),
	}
}

// Generate produces summary, resume points, cover letter and screening
// answers tailored to the job.
func (g *GeminiGenerator) Generate(ctx context.Context, job *types.Job, applicant *types.ApplicantProfile) (*types.GeneratedContent, error) {
	prompt := buildContentPrompt(job, applicant)

	raw, err := g.client.GenerateJSON(ctx, prompt, llm.TierAdvanced)
	if err != nil {
		return nil, fmt.Errorf("generating content for %q: %w", job.Title, err)
	}

	if g.schemaPath != "" {
		if err := schemas.ValidateBytes(g.schemaPath, []byte(raw)); err != nil {
			return nil, fmt.Errorf("content response for %q failed schema validation: %w", job.Title, err)
		}
	}

	var content types.GeneratedContent
	if err := json.Unmarshal([]byte(raw), &content); err != nil {
		return nil, fmt.Errorf("parsing content response: %w (content: %s)", err, raw)
	}

	return &content, nil
}

func buildContentPrompt(job *types.Job, applicant *types.ApplicantProfile) string {
	var sb strings.Builder
	sb.WriteString("Write tailored application content for the candidate below.\n\n")
	sb.WriteString(fmt.Sprintf("Candidate: %s\nBackground: %s\n\n", applicant.Name, applicant.Summary))
	sb.WriteString(fmt.Sprintf("Job posting:\nTitle: %s\nCompany: %s\n\n%s\n\n", job.Title, job.Company, job.Description))
	sb.WriteString(`Respond with JSON only, in this exact shape:
{"summary": "<2-3 sentence professional summary>", "resume_points": ["<bullet>", ...], "cover_letter": "<3 short paragraphs>", "answers": {"<common screening question>": "<answer>", ...}}
Keep every field factual to the candidate background; never invent employers or credentials.`)
	return sb.String()
}
