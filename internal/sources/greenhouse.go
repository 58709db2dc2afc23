package sources

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jonathan/job-autopilot/internal/types"
)

// DefaultTimeout is the default HTTP request timeout for adapters.
const DefaultTimeout = 30 * time.Second

// DefaultUserAgent is the user agent string for adapter HTTP requests.
const DefaultUserAgent = "Mozilla/5.0 (compatible; JobAutopilot/1.0)"

// greenhousePageSize is the number of postings requested per page.
const greenhousePageSize = 50

// GreenhouseAdapter searches a Greenhouse-style structured board and
// submits applications through its JSON application API. It is the only
// built-in adapter with full search+API capability.
type GreenhouseAdapter struct {
	// BaseURL is the board API root, e.g. https://boards-api.greenhouse.io/v1.
	BaseURL string
	// Board is the organization's board token.
	Board  string
	Client *http.Client
}

// NewGreenhouseAdapter creates an adapter for one Greenhouse board.
func NewGreenhouseAdapter(baseURL, board string) *GreenhouseAdapter {
	return &GreenhouseAdapter{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Board:   board,
		Client:  &http.Client{Timeout: DefaultTimeout},
	}
}

// Name identifies the source.
func (a *GreenhouseAdapter) Name() types.JobSource { return types.SourceGreenhouse }

// SupportsApplicationAPI reports that Greenhouse accepts API submissions.
func (a *GreenhouseAdapter) SupportsApplicationAPI() bool { return true }

// DefaultApplicationType returns the application type for discovered postings.
func (a *GreenhouseAdapter) DefaultApplicationType() types.ApplicationType {
	return types.ApplyStructuredAPI
}

// greenhouseJob mirrors the board API's posting shape.
type greenhouseJob struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	URL      string `json:"absolute_url"`
	Location struct {
		Name string `json:"name"`
	} `json:"location"`
	Company struct {
		Name string `json:"name"`
	} `json:"company"`
}

type greenhouseSearchResponse struct {
	Jobs []greenhouseJob `json:"jobs"`
	Meta struct {
		Total int `json:"total"`
	} `json:"meta"`
}

// Search returns postings matching the query, paged through the board API.
func (a *GreenhouseAdapter) Search(ctx context.Context, q Query) (*Iterator, error) {
	fetch := func(ctx context.Context, page int) ([]Posting, bool, error) {
		searchURL := fmt.Sprintf("%s/boards/%s/jobs?content=true&page=%d&per_page=%d",
			a.BaseURL, a.Board, page, greenhousePageSize)

		body, err := a.get(ctx, searchURL)
		if err != nil {
			return nil, false, err
		}

		var resp greenhouseSearchResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, false, &TransportError{Source: a.Name(), URL: searchURL,
				Err: fmt.Errorf("decoding search response: %w", err)}
		}

		var postings []Posting
		for _, j := range resp.Jobs {
			if !matchesQuery(j.Title, j.Content, q) {
				continue
			}
			postings = append(postings, Posting{
				Title:           j.Title,
				Company:         j.Company.Name,
				Location:        j.Location.Name,
				Description:     j.Content,
				URL:             j.URL,
				ApplicationType: a.DefaultApplicationType(),
			})
		}

		more := len(resp.Jobs) == greenhousePageSize
		return postings, more, nil
	}

	return NewIterator(fetch, q.Limit), nil
}

// greenhouseApplication is the API submission payload.
type greenhouseApplication struct {
	FirstName   string            `json:"first_name"`
	LastName    string            `json:"last_name"`
	Email       string            `json:"email"`
	Phone       string            `json:"phone,omitempty"`
	CoverLetter string            `json:"cover_letter,omitempty"`
	ResumeURL   string            `json:"resume_url,omitempty"`
	Answers     map[string]string `json:"answers,omitempty"`
}

// SubmitViaAPI posts a structured application to the board API. A non-2xx
// response is returned as a plain error so the strategy treats it as fatal
// for itself; only network-level failures surface as *TransportError.
func (a *GreenhouseAdapter) SubmitViaAPI(ctx context.Context, job *types.Job, applicant *types.ApplicantProfile) error {
	first, last := splitName(applicant.Name)
	payload := greenhouseApplication{
		FirstName: first,
		LastName:  last,
		Email:     applicant.Email,
		Phone:     applicant.Phone,
		ResumeURL: applicant.ResumeURL,
	}
	if job.Content != nil {
		payload.CoverLetter = job.Content.CoverLetter
		payload.Answers = job.Content.Answers
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding application: %w", err)
	}

	applyURL := strings.TrimRight(job.URL, "/") + "/apply"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, applyURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building apply request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", DefaultUserAgent)

	resp, err := a.Client.Do(req)
	if err != nil {
		return &TransportError{Source: a.Name(), URL: applyURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("application rejected with HTTP %d", resp.StatusCode)
	}
	return nil
}

func (a *GreenhouseAdapter) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("User-Agent", DefaultUserAgent)

	resp, err := a.Client.Do(req)
	if err != nil {
		return nil, &TransportError{Source: a.Name(), URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &TransportError{Source: a.Name(), URL: url,
			Err: fmt.Errorf("unexpected HTTP %d", resp.StatusCode)}
	}

	return io.ReadAll(resp.Body)
}

// matchesQuery applies keyword and location filtering client-side for
// boards whose API has no server-side search.
func matchesQuery(title, content string, q Query) bool {
	if q.Keywords == "" {
		return true
	}
	haystack := strings.ToLower(title + " " + content)
	for _, kw := range strings.Fields(strings.ToLower(q.Keywords)) {
		if strings.Contains(haystack, kw) {
			return true
		}
	}
	return false
}

// splitName splits a full name into first and last parts.
func splitName(full string) (string, string) {
	parts := strings.Fields(full)
	if len(parts) == 0 {
		return "", ""
	}
	if len(parts) == 1 {
		return parts[0], ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}
