// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package arxiv is a streaming client for the arXiv search API.
//
// Results are produced page by page as the caller ranges over them, so a
// consumer can process entries before the full result set has arrived and
// can stop early without fetching the remaining pages.
package arxiv

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"iter"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/arxiv-digest/internal/httputil"
)

// apiBase is the arXiv search endpoint. Declared as a var so tests
// can substitute an httptest server.
var apiBase = "https://export.arxiv.org/api/query"

const (
	defaultPageSize   = 100
	defaultPageDelay  = 3 * time.Second
	defaultMaxResults = 1000

	defaultEmptyPageRetries = 3
)

// ErrEmptyPage is returned when the API keeps answering with an empty page
// although totalResults says more entries exist.
var ErrEmptyPage = errors.New("arXiv API returned an empty page inside the result set")

// Sort criteria and orders understood by the API.
const (
	SortSubmittedDate   = "submittedDate"
	SortLastUpdatedDate = "lastUpdatedDate"
	SortRelevance       = "relevance"

	OrderDescending = "descending"
	OrderAscending  = "ascending"
)

// Query describes one search.
type Query struct {
	// SearchQuery is an arXiv query expression, e.g. the output of DateWindow.
	SearchQuery string

	// MaxResults caps the number of entries produced (default 1000).
	MaxResults int

	SortBy    string
	SortOrder string
}

// DateWindow returns a query expression selecting entries submitted between
// the start of start's day and the end of end's day.
func DateWindow(start, end time.Time) string {
	return fmt.Sprintf("submittedDate:[%s000000 TO %s235959]",
		start.Format("20060102"), end.Format("20060102"))
}

// Client talks to the arXiv API.
type Client struct {
	HTTP       *http.Client
	UserAgent  string
	PageSize   int
	PageDelay  time.Duration
	MaxRetries int
	Logger     *zap.Logger

	// EmptyPageRetries bounds how often an unexpectedly empty page is
	// requested again. Zero means 3.
	EmptyPageRetries int
}

// NewClient returns a client with arXiv's recommended paging: 100 entries
// per request and three seconds between requests.
func NewClient(httpClient *http.Client, userAgent string, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		HTTP:      httpClient,
		UserAgent: userAgent,
		PageSize:  defaultPageSize,
		PageDelay: defaultPageDelay,
		Logger:    logger,
	}
}

// Results streams the entries matching q. Each page is requested only when
// the previous one has been consumed. Any failure is yielded once as the
// final element; iteration stops after it.
func (c *Client) Results(ctx context.Context, q Query) iter.Seq2[Entry, error] {
	return func(yield func(Entry, error) bool) {
		maxResults := q.MaxResults
		if maxResults <= 0 {
			maxResults = defaultMaxResults
		}
		pageSize := c.PageSize
		if pageSize <= 0 {
			pageSize = defaultPageSize
		}

		produced := 0
		for start := 0; produced < maxResults; {
			if start > 0 && c.PageDelay > 0 {
				select {
				case <-ctx.Done():
					yield(Entry{}, ctx.Err())
					return
				case <-time.After(c.PageDelay):
				}
			}

			size := min(pageSize, maxResults-produced)
			feed, err := c.fetchFilledPage(ctx, q, start, size)
			if err != nil {
				yield(Entry{}, err)
				return
			}
			if len(feed.Entries) == 0 {
				return
			}

			for _, raw := range feed.Entries {
				if !yield(raw.toEntry(), nil) {
					return
				}
				produced++
				if produced >= maxResults {
					return
				}
			}

			start += len(feed.Entries)
			if start >= feed.TotalResults {
				return
			}
		}
	}
}

// fetchFilledPage fetches one page. The API sometimes answers with an empty
// page inside a result set; such a page is requested again, up to
// EmptyPageRetries times, before the stream fails with ErrEmptyPage. An
// empty page at or past totalResults is the normal end of the results.
func (c *Client) fetchFilledPage(ctx context.Context, q Query, start, size int) (*atomFeed, error) {
	retries := c.EmptyPageRetries
	if retries <= 0 {
		retries = defaultEmptyPageRetries
	}
	for attempt := 0; ; attempt++ {
		feed, err := c.fetchPage(ctx, q, start, size)
		if err != nil {
			return nil, err
		}
		c.Logger.Debug("fetched arXiv page",
			zap.Int("start", start),
			zap.Int("entries", len(feed.Entries)),
			zap.Int("total", feed.TotalResults),
		)
		if len(feed.Entries) > 0 || start >= feed.TotalResults {
			return feed, nil
		}
		if attempt >= retries {
			return nil, fmt.Errorf("%w: start=%d total=%d after %d attempts",
				ErrEmptyPage, start, feed.TotalResults, attempt+1)
		}
		c.Logger.Warn("empty arXiv page inside result set, retrying",
			zap.Int("start", start),
			zap.Int("total", feed.TotalResults),
			zap.Int("attempt", attempt+1),
		)
		if c.PageDelay > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.PageDelay):
			}
		}
	}
}

func (c *Client) fetchPage(ctx context.Context, q Query, start, size int) (*atomFeed, error) {
	params := url.Values{}
	params.Set("search_query", q.SearchQuery)
	params.Set("start", strconv.Itoa(start))
	params.Set("max_results", strconv.Itoa(size))
	if q.SortBy != "" {
		params.Set("sortBy", q.SortBy)
	}
	if q.SortOrder != "" {
		params.Set("sortOrder", q.SortOrder)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	resp, err := httputil.DoWithRetry(ctx, c.HTTP, req, c.MaxRetries, c.Logger)
	if err != nil {
		return nil, fmt.Errorf("arXiv API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("arXiv API returned HTTP %d", resp.StatusCode)
	}

	var feed atomFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("parsing arXiv response: %w", err)
	}

	// The API reports query errors as a single pseudo-entry.
	if len(feed.Entries) == 1 && strings.Contains(feed.Entries[0].ID, "/api/errors") {
		return nil, fmt.Errorf("arXiv API error: %s", strings.TrimSpace(feed.Entries[0].Summary))
	}
	return &feed, nil
}
