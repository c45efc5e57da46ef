// Package catalog fetches utility rate records from a USURDB-compatible
// catalog API and decides which of them are eligible for evaluation.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/chargecost/chargecost/pkg/common"
	"github.com/chargecost/chargecost/pkg/log"
	"github.com/chargecost/chargecost/pkg/types"
	"github.com/levenlabs/go-lflag"
)

const defaultBaseURL = "https://api.openei.org/utility_rates"

// Client pages through the rate catalog. The catalog caps responses at a
// few hundred records, so callers walk it with FetchAll or FetchPage.
type Client struct {
	baseURL  string
	apiKey   string
	pageSize int
	params   map[string]string

	client *http.Client
}

// NewClient returns a client for the catalog at baseURL without consulting
// flags. Most callers want Configured instead.
func NewClient(baseURL, apiKey string, pageSize int) *Client {
	return &Client{
		baseURL:  baseURL,
		apiKey:   apiKey,
		pageSize: pageSize,
		client:   common.HTTPClient(10 * time.Second),
	}
}

// Configured sets up flags for the catalog client and returns the instance.
func Configured() *Client {
	c := &Client{
		client: common.HTTPClient(10 * time.Second),
	}
	baseURL := lflag.String("catalog-url", defaultBaseURL, "Base URL for the utility rate catalog API")
	apiKey := lflag.String("catalog-api-key", "", "API key for the rate catalog")
	pageSize := lflag.Int("catalog-page-size", 500, "Records requested per catalog page")
	params := map[string]string{"version": "latest", "sector": "Residential"}
	lflag.JSON(&params, "catalog-params", params, "JSON map of extra query parameters sent with every catalog request")

	lflag.Do(func() {
		c.baseURL = *baseURL
		c.apiKey = *apiKey
		c.pageSize = *pageSize
		c.params = params
	})

	return c
}

// Validate ensures the configuration is valid.
func (c *Client) Validate() error {
	if c.baseURL == "" {
		return fmt.Errorf("catalog-url is required")
	}
	if _, err := url.Parse(c.baseURL); err != nil {
		return fmt.Errorf("failed to parse catalog url (%s): %w", c.baseURL, err)
	}
	if c.apiKey == "" {
		return fmt.Errorf("catalog-api-key is required")
	}
	if c.pageSize <= 0 {
		return fmt.Errorf("catalog-page-size must be positive")
	}
	return nil
}

// FetchPage retrieves one page of rate records starting at offset.
func (c *Client) FetchPage(ctx context.Context, offset int) ([]types.RateRecord, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid catalog url: %w", err)
	}

	params := url.Values{}
	for k, v := range c.params {
		params.Set(k, v)
	}
	params.Set("api_key", c.apiKey)
	params.Set("format", "json")
	params.Set("detail", "full")
	params.Set("limit", strconv.Itoa(c.pageSize))
	params.Set("offset", strconv.Itoa(offset))
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	log.Ctx(ctx).DebugContext(ctx, "fetching rate records", slog.Int("offset", offset), slog.Int("limit", c.pageSize))

	resp, err := c.client.Do(req)
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to fetch rate records", slog.Any("error", err))
		return nil, fmt.Errorf("failed to fetch rate records: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog api returned status: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var page struct {
		Items []types.RateRecord `json:"items"`
	}
	if err := json.Unmarshal(sanitizeJSON(body), &page); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to decode catalog response", slog.Any("error", err))
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	log.Ctx(ctx).DebugContext(
		ctx,
		"fetched rate records",
		slog.Int("offset", offset),
		slog.Int("count", len(page.Items)),
	)

	return page.Items, nil
}

// FetchAll pages through the whole catalog, calling fn once per non-empty
// page. Pagination advances by the number of records actually returned and
// stops at the first empty page. It returns the total number of records
// fetched, including the page that fn may have failed on.
func (c *Client) FetchAll(ctx context.Context, fn func([]types.RateRecord) error) (int, error) {
	var total int
	for offset := 0; ; {
		items, err := c.FetchPage(ctx, offset)
		if err != nil {
			return total, fmt.Errorf("failed to fetch page at offset %d: %w", offset, err)
		}
		if len(items) == 0 {
			return total, nil
		}
		total += len(items)
		offset += len(items)
		if err := fn(items); err != nil {
			return total, err
		}
	}
}

// sanitizeJSON replaces raw control bytes with spaces. The catalog is known
// to emit unescaped control characters inside strings, which encoding/json
// rejects; a space is valid JSON both inside a string and between tokens.
func sanitizeJSON(b []byte) []byte {
	for i, c := range b {
		if c < 0x20 {
			b[i] = ' '
		}
	}
	return b
}
