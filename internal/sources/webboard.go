package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonathan/job-autopilot/internal/types"
)

// WebBoardAdapter scrapes a generic listing site that offers search only.
// It declares no submission capability of any kind: every posting it
// discovers ends up in the assisted external flow.
type WebBoardAdapter struct {
	// BaseURL is the listing root; search pages are fetched from
	// BaseURL/search?q=...&page=N.
	BaseURL string
	Client  *http.Client

	// Selectors for the listing markup, overridable per site.
	RowSelector      string
	TitleSelector    string
	CompanySelector  string
	LocationSelector string
}

// NewWebBoardAdapter creates a generic board adapter with default selectors.
func NewWebBoardAdapter(baseURL string) *WebBoardAdapter {
	return &WebBoardAdapter{
		BaseURL:          strings.TrimRight(baseURL, "/"),
		Client:           &http.Client{Timeout: DefaultTimeout},
		RowSelector:      ".job-listing",
		TitleSelector:    ".job-title",
		CompanySelector:  ".job-company",
		LocationSelector: ".job-location",
	}
}

// Name identifies the source.
func (a *WebBoardAdapter) Name() types.JobSource { return types.SourceWebBoard }

// SupportsApplicationAPI reports that generic boards have no API.
func (a *WebBoardAdapter) SupportsApplicationAPI() bool { return false }

// DefaultApplicationType returns the application type for discovered postings.
func (a *WebBoardAdapter) DefaultApplicationType() types.ApplicationType {
	return types.ApplyExternalAssisted
}

// SubmitViaAPI always fails: this source declares no API capability.
func (a *WebBoardAdapter) SubmitViaAPI(_ context.Context, _ *types.Job, _ *types.ApplicantProfile) error {
	return &CapabilityError{Source: a.Name(), Capability: "structured application API"}
}

// Search pages through the board's search results until an empty page.
func (a *WebBoardAdapter) Search(ctx context.Context, q Query) (*Iterator, error) {
	fetch := func(ctx context.Context, page int) ([]Posting, bool, error) {
		searchURL := fmt.Sprintf("%s/search?q=%s&l=%s&page=%d",
			a.BaseURL, url.QueryEscape(q.Keywords), url.QueryEscape(q.Location), page)

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
		if err != nil {
			return nil, false, fmt.Errorf("building request: %w", err)
		}
		req.Header.Set("User-Agent", DefaultUserAgent)

		resp, err := a.Client.Do(req)
		if err != nil {
			return nil, false, &TransportError{Source: a.Name(), URL: searchURL, Err: err}
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, false, &TransportError{Source: a.Name(), URL: searchURL,
				Err: fmt.Errorf("unexpected HTTP %d", resp.StatusCode)}
		}

		doc, err := goquery.NewDocumentFromReader(resp.Body)
		if err != nil {
			return nil, false, &TransportError{Source: a.Name(), URL: searchURL,
				Err: fmt.Errorf("parsing search HTML: %w", err)}
		}

		postings := a.parsePage(doc)
		// An empty page means the previous page was the last one.
		return postings, len(postings) > 0, nil
	}

	return NewIterator(fetch, q.Limit), nil
}

func (a *WebBoardAdapter) parsePage(doc *goquery.Document) []Posting {
	var postings []Posting
	doc.Find(a.RowSelector).Each(func(_ int, s *goquery.Selection) {
		title := strings.TrimSpace(s.Find(a.TitleSelector).First().Text())
		href, _ := s.Find("a").First().Attr("href")
		if title == "" || href == "" {
			return
		}
		if !strings.HasPrefix(href, "http") {
			href = a.BaseURL + href
		}
		postings = append(postings, Posting{
			Title:           title,
			Company:         strings.TrimSpace(s.Find(a.CompanySelector).First().Text()),
			Location:        strings.TrimSpace(s.Find(a.LocationSelector).First().Text()),
			URL:             href,
			ApplicationType: a.DefaultApplicationType(),
		})
	})
	return postings
}
