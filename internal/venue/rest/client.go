package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"tradeaudit/internal/models"
	"tradeaudit/internal/venue"
)

// Client implements venue.DataSource against the venue's public audit API.
type Client struct {
	host       string
	httpClient *http.Client
	pageLimit  int
	maxPages   int
}

type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("venue API error (%d): %s", e.Status, e.Body)
}

func NewClient(httpClient *http.Client, host string, pageLimit, maxPages int) *Client {
	host = strings.TrimRight(host, "/")
	if pageLimit <= 0 {
		pageLimit = 500
	}
	if maxPages <= 0 {
		maxPages = 50
	}
	return &Client{
		host:       host,
		httpClient: httpClient,
		pageLimit:  pageLimit,
		maxPages:   maxPages,
	}
}

var _ venue.DataSource = (*Client)(nil)

func (c *Client) doRequest(ctx context.Context, path string, query url.Values) ([]byte, error) {
	fullURL := c.host + path
	if len(query) > 0 {
		fullURL = fullURL + "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{Status: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}

// FetchFills walks the cursor-paginated fills endpoint until exhaustion and
// returns canonical fills deduplicated by trade id. Zero-size fills are
// rejected here so they never reach the reconstruction machine.
func (c *Client) FetchFills(ctx context.Context, account string, q venue.FillQuery) ([]models.Fill, error) {
	if strings.TrimSpace(account) == "" {
		return nil, fmt.Errorf("account is required")
	}
	var out []models.Fill
	seen := map[string]struct{}{}
	cursor := ""
	for page := 0; page < c.maxPages; page++ {
		query := url.Values{}
		query.Set("account", account)
		query.Set("limit", strconv.Itoa(c.pageLimit))
		if q.Coin != "" {
			query.Set("coin", q.Coin)
		}
		if q.From != nil {
			query.Set("startTime", strconv.FormatInt(q.From.UnixMilli(), 10))
		}
		if q.To != nil {
			query.Set("endTime", strconv.FormatInt(q.To.UnixMilli(), 10))
		}
		if cursor != "" {
			query.Set("cursor", cursor)
		}
		body, err := c.doRequest(ctx, "/fills", query)
		if err != nil {
			return nil, err
		}
		var pageResp fillsPage
		if err := json.Unmarshal(body, &pageResp); err != nil {
			return nil, fmt.Errorf("decode fills page: %w", err)
		}
		for _, w := range pageResp.Fills {
			fill, err := parseFill(account, w)
			if err != nil {
				return nil, err
			}
			if !fill.Size.IsPositive() {
				continue
			}
			if _, ok := seen[fill.ExternalID]; ok {
				continue
			}
			seen[fill.ExternalID] = struct{}{}
			out = append(out, fill)
		}
		if pageResp.NextCursor == nil || *pageResp.NextCursor == "" {
			break
		}
		cursor = *pageResp.NextCursor
	}
	return out, nil
}

func (c *Client) FetchEquityAt(ctx context.Context, account string, at time.Time) (decimal.Decimal, error) {
	if strings.TrimSpace(account) == "" {
		return decimal.Zero, fmt.Errorf("account is required")
	}
	query := url.Values{}
	query.Set("account", account)
	query.Set("time", strconv.FormatInt(at.UnixMilli(), 10))
	body, err := c.doRequest(ctx, "/equity", query)
	if err != nil {
		return decimal.Zero, err
	}
	var resp equityResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return decimal.Zero, fmt.Errorf("decode equity: %w", err)
	}
	equity, err := decimal.NewFromString(resp.Equity)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse equity %q: %w", resp.Equity, err)
	}
	return equity, nil
}

func (c *Client) FetchDeposits(ctx context.Context, account string, q venue.DepositQuery) ([]models.Deposit, error) {
	if strings.TrimSpace(account) == "" {
		return nil, fmt.Errorf("account is required")
	}
	query := url.Values{}
	query.Set("account", account)
	if q.From != nil {
		query.Set("startTime", strconv.FormatInt(q.From.UnixMilli(), 10))
	}
	body, err := c.doRequest(ctx, "/deposits", query)
	if err != nil {
		return nil, err
	}
	var resp depositsPage
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode deposits: %w", err)
	}
	out := make([]models.Deposit, 0, len(resp.Deposits))
	for _, w := range resp.Deposits {
		dep, err := parseDeposit(account, w)
		if err != nil {
			return nil, err
		}
		out = append(out, dep)
	}
	return out, nil
}

func (c *Client) HealthCheck(ctx context.Context) error {
	_, err := c.doRequest(ctx, "/health", nil)
	return err
}
