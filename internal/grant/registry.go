package grant

// registry.go — HTTP client for the grant registry's query-by-code endpoint.
//
// Wire contract: GET {base}/projects?q=<raw code> requesting the richest
// JSON representation. Only the first candidate is examined and its
// identifier must equal the submitted code exactly. Fail-closed: any
// transport error, non-200 status, or parse failure yields nil — never an
// error, never a retry.

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"
)

const (
	defaultTimeout = 10 * time.Second

	// acceptHeader selects the richest versioned JSON representation the
	// registry serves.
	acceptHeader = "application/vnd.rcuk.gtr.json-v7"

	// metadataRel marks the project link carrying funding metadata.
	metadataRel = "FUND"
)

// Client queries a grant registry over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient returns a Client for the registry at baseURL. A zero timeout
// falls back to the 10s default; lookups are never allowed to hang the
// decision pipeline.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// queryResponse mirrors the registry's project-query envelope.
type queryResponse struct {
	Project []projectResult `json:"project"`
}

type projectResult struct {
	GrantReference string `json:"grantReference"`
	Href           string `json:"href"`
	Links          struct {
		Link []projectLink `json:"link"`
	} `json:"links"`
}

type projectLink struct {
	Href string `json:"href"`
	Rel  string `json:"rel"`
}

// Lookup implements the Lookup interface. Returns a validated Record when the
// first candidate's identifier equals code exactly, nil otherwise.
func (c *Client) Lookup(ctx context.Context, code string) *Record {
	u := c.baseURL + "/projects?q=" + url.QueryEscape(code)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil
	}
	req.Header.Set("Accept", acceptHeader)

	resp, err := c.http.Do(req)
	if err != nil {
		// Timeout, connection refused, DNS failure — all degrade to no match.
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil
	}

	var body queryResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil
	}
	if len(body.Project) == 0 {
		return nil
	}

	first := body.Project[0]
	if first.GrantReference != code {
		return nil
	}

	rec := &Record{
		Reference:    first.GrantReference,
		CanonicalURL: first.Href,
	}
	for _, l := range first.Links.Link {
		if l.Rel == metadataRel {
			rec.MetadataURL = l.Href
			break
		}
	}
	return rec
}
