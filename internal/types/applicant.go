package types

// ApplicantProfile holds the applicant data used to populate application
// forms and API payloads: identity fields plus default answers for common
// screening questions.
type ApplicantProfile struct {
	Name      string            `json:"name" validate:"required"`
	Email     string            `json:"email" validate:"required,email"`
	Phone     string            `json:"phone,omitempty"`
	Summary   string            `json:"summary,omitempty"`
	ResumeURL string            `json:"resume_url,omitempty"`
	Answers   map[string]string `json:"answers,omitempty"`
}

// AnswerFor returns the applicant's stored answer for a screening question,
// falling back to generated per-job answers when provided.
func (a *ApplicantProfile) AnswerFor(question string, generated map[string]string) string {
	if v, ok := generated[question]; ok && v != "" {
		return v
	}
	return a.Answers[question]
}
