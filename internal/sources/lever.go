package sources

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonathan/job-autopilot/internal/types"
)

// LeverAdapter searches a Lever-style board by scraping its public listing
// page. Lever postings carry an embedded quick-apply form, so the adapter
// declares easy-apply capability but no structured API.
type LeverAdapter struct {
	// BaseURL is the public board root, e.g. https://jobs.lever.co.
	BaseURL string
	// Org is the organization slug in the board URL.
	Org    string
	Client *http.Client
}

// NewLeverAdapter creates an adapter for one Lever board.
func NewLeverAdapter(baseURL, org string) *LeverAdapter {
	return &LeverAdapter{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Org:     org,
		Client:  &http.Client{Timeout: DefaultTimeout},
	}
}

// Name identifies the source.
func (a *LeverAdapter) Name() types.JobSource { return types.SourceLever }

// SupportsApplicationAPI reports that Lever has no structured submission API.
func (a *LeverAdapter) SupportsApplicationAPI() bool { return false }

// DefaultApplicationType returns the application type for discovered postings.
func (a *LeverAdapter) DefaultApplicationType() types.ApplicationType {
	return types.ApplyEasyApply
}

// SubmitViaAPI always fails: this source declares no API capability.
func (a *LeverAdapter) SubmitViaAPI(_ context.Context, _ *types.Job, _ *types.ApplicantProfile) error {
	return &CapabilityError{Source: a.Name(), Capability: "structured application API"}
}

// Search scrapes the board listing page. Lever boards render all postings
// on a single page, so the sequence has exactly one page.
func (a *LeverAdapter) Search(ctx context.Context, q Query) (*Iterator, error) {
	fetch := func(ctx context.Context, page int) ([]Posting, bool, error) {
		if page > 1 {
			return nil, false, nil
		}

		boardURL := fmt.Sprintf("%s/%s", a.BaseURL, a.Org)
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, boardURL, nil)
		if err != nil {
			return nil, false, fmt.Errorf("building request: %w", err)
		}
		req.Header.Set("User-Agent", DefaultUserAgent)

		resp, err := a.Client.Do(req)
		if err != nil {
			return nil, false, &TransportError{Source: a.Name(), URL: boardURL, Err: err}
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, false, &TransportError{Source: a.Name(), URL: boardURL,
				Err: fmt.Errorf("unexpected HTTP %d", resp.StatusCode)}
		}

		doc, err := goquery.NewDocumentFromReader(resp.Body)
		if err != nil {
			return nil, false, &TransportError{Source: a.Name(), URL: boardURL,
				Err: fmt.Errorf("parsing listing HTML: %w", err)}
		}

		postings := a.parseListing(doc, q)
		return postings, false, nil
	}

	return NewIterator(fetch, q.Limit), nil
}

// parseListing extracts postings from a Lever board document.
func (a *LeverAdapter) parseListing(doc *goquery.Document, q Query) []Posting {
	var postings []Posting
	doc.Find(".posting").Each(func(_ int, s *goquery.Selection) {
		title := strings.TrimSpace(s.Find("h5").First().Text())
		location := strings.TrimSpace(s.Find(".posting-categories .location").First().Text())
		href, _ := s.Find("a.posting-title").First().Attr("href")
		if href == "" {
			href, _ = s.Find("a").First().Attr("href")
		}
		if title == "" || href == "" {
			return
		}
		if !matchesQuery(title, location, q) {
			return
		}
		postings = append(postings, Posting{
			Title:           title,
			Company:         a.Org,
			Location:        location,
			URL:             href,
			ApplicationType: a.DefaultApplicationType(),
		})
	})
	return postings
}
