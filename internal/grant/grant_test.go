package grant

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

// newRegistry starts a fake registry that serves body for every project query
// and counts requests.
func newRegistry(t *testing.T, status int, body string) (*Client, *atomic.Int64) {
	t.Helper()
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if got := r.Header.Get("Accept"); got != acceptHeader {
			t.Errorf("Accept = %q, want %q", got, acceptHeader)
		}
		w.WriteHeader(status)
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, time.Second), &hits
}

// projectBody builds a single-candidate response.
func projectBody(ref, href, fundHref string) string {
	links := ""
	if fundHref != "" {
		links = fmt.Sprintf(`{"href":%q,"rel":"FUND"}`, fundHref)
	}
	return fmt.Sprintf(`{"project":[{"grantReference":%q,"href":%q,"links":{"link":[%s]}}]}`,
		ref, href, links)
}

// ---------------------------------------------------------------------------
// Client.Lookup
// ---------------------------------------------------------------------------

func TestLookupExactMatch(t *testing.T) {
	c, _ := newRegistry(t, http.StatusOK,
		projectBody("EP/X012345/1", "https://registry/projects/1", "https://registry/funds/1"))

	rec := c.Lookup(context.Background(), "EP/X012345/1")
	if rec == nil {
		t.Fatal("expected a record for an exact match")
	}
	if rec.Reference != "EP/X012345/1" {
		t.Errorf("Reference = %q", rec.Reference)
	}
	if rec.CanonicalURL != "https://registry/projects/1" {
		t.Errorf("CanonicalURL = %q", rec.CanonicalURL)
	}
	if rec.MetadataURL != "https://registry/funds/1" {
		t.Errorf("MetadataURL = %q", rec.MetadataURL)
	}
}

func TestLookupMetadataLinkOptional(t *testing.T) {
	c, _ := newRegistry(t, http.StatusOK,
		projectBody("EP/X012345/1", "https://registry/projects/1", ""))

	rec := c.Lookup(context.Background(), "EP/X012345/1")
	if rec == nil {
		t.Fatal("metadata link absence must not fail the lookup")
	}
	if rec.MetadataURL != "" {
		t.Errorf("MetadataURL = %q, want empty", rec.MetadataURL)
	}
}

func TestLookupDegradesToNil(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"empty result set", http.StatusOK, `{"project":[]}`},
		{"identifier mismatch", http.StatusOK, projectBody("EP/OTHER/1", "https://x", "")},
		{"server error", http.StatusInternalServerError, "boom"},
		{"not found", http.StatusNotFound, ""},
		{"malformed json", http.StatusOK, `{"project":[{`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c, _ := newRegistry(t, tc.status, tc.body)
			if rec := c.Lookup(context.Background(), "EP/X012345/1"); rec != nil {
				t.Errorf("expected nil, got %+v", rec)
			}
		})
	}
}

func TestLookupUnreachableRegistry(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", 200*time.Millisecond)
	if rec := c.Lookup(context.Background(), "EP/X012345/1"); rec != nil {
		t.Errorf("expected nil for unreachable registry, got %+v", rec)
	}
}

func TestLookupQueryEscapesCode(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		fmt.Fprint(w, `{"project":[]}`)
	}))
	defer srv.Close()

	NewClient(srv.URL, time.Second).Lookup(context.Background(), "EP/X 1&2/1")
	if gotQuery != "EP/X 1&2/1" {
		t.Errorf("registry saw q=%q, want the raw code", gotQuery)
	}
}

// ---------------------------------------------------------------------------
// Resolver
// ---------------------------------------------------------------------------

func TestResolveAbsentCodes(t *testing.T) {
	c, hits := newRegistry(t, http.StatusOK, projectBody("X", "https://x", ""))
	r := NewResolver(c)

	for _, code := range []string{"", "   ", "\t", strings.Repeat("A", 17)} {
		if rec := r.Resolve(context.Background(), code); rec != nil {
			t.Errorf("Resolve(%q) = %+v, want nil", code, rec)
		}
	}
	if n := hits.Load(); n != 0 {
		t.Errorf("absent codes reached the registry %d times", n)
	}
}

func TestResolveCachesByExactCode(t *testing.T) {
	code := "EP/X012345/1"
	c, hits := newRegistry(t, http.StatusOK, projectBody(code, "https://registry/projects/1", ""))
	r := NewResolver(c)

	first := r.Resolve(context.Background(), code)
	if first == nil {
		t.Fatal("first resolve failed")
	}
	second := r.Resolve(context.Background(), code)
	if second != first {
		t.Error("cache hit should return the cached record unchanged")
	}
	if n := hits.Load(); n != 1 {
		t.Errorf("registry hit %d times, want 1", n)
	}
}

func TestResolveCacheNotNormalized(t *testing.T) {
	code := "EP/X012345/1"
	c, hits := newRegistry(t, http.StatusOK, projectBody(code, "https://x", ""))
	r := NewResolver(c)

	r.Resolve(context.Background(), code)
	// A differently-cased code is a different code: lookup again.
	r.Resolve(context.Background(), strings.ToLower(code))
	if n := hits.Load(); n != 2 {
		t.Errorf("registry hit %d times, want 2", n)
	}
}

func TestResolveChangedCodeInvalidatesCache(t *testing.T) {
	c, _ := newRegistry(t, http.StatusOK, projectBody("EP/A/1", "https://x", ""))
	r := NewResolver(c)

	if rec := r.Resolve(context.Background(), "EP/A/1"); rec == nil {
		t.Fatal("setup resolve failed")
	}
	// A code the registry does not know clears the cached record.
	if rec := r.Resolve(context.Background(), "EP/B/1"); rec != nil {
		t.Fatalf("Resolve(EP/B/1) = %+v, want nil", rec)
	}
	if r.Cached() != nil {
		t.Error("failed lookup must clear the cached record")
	}
}

// badLookup returns a record whose identifier differs from the request.
type badLookup struct{}

func (badLookup) Lookup(_ context.Context, _ string) *Record {
	return &Record{Reference: "SOMETHING/ELSE"}
}

func TestResolveRejectsMismatchedClientRecord(t *testing.T) {
	r := NewResolver(badLookup{})
	if rec := r.Resolve(context.Background(), "EP/A/1"); rec != nil {
		t.Errorf("mismatched record must not validate, got %+v", rec)
	}
	if r.Cached() != nil {
		t.Error("mismatched record must not be cached")
	}
}
