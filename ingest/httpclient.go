package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/warp/cashflow-engine/core"
)

// HTTPClient is the default Client: a thin JSON/REST adapter against the
// operator's bookkeeping service, grounded on aristath-sentinel's
// exchangerate.Client (bare http.Client with a timeout, logged requests,
// json.Decoder straight off the response body).
type HTTPClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
	log     zerolog.Logger
}

// NewHTTPClient builds a client against baseURL, sending apiKey as a
// Bearer token on every request. baseURL should not have a trailing slash.
func NewHTTPClient(baseURL, apiKey string, log zerolog.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 30 * time.Second},
		log:     log.With().Str("client", "upstream-http").Logger(),
	}
}

type wireTransaction struct {
	ExternalID         string `json:"external_id"`
	AccountExternalID  string `json:"account_external_id"`
	AccountName        string `json:"account_name"`
	PostedAt           string `json:"posted_at"`
	AmountCents        int64  `json:"amount_cents"`
	Payee              string `json:"payee"`
	Memo               string `json:"memo"`
	Cleared            bool   `json:"cleared"`
	CategoryExternalID string `json:"category_external_id"`
}

type wireDeltaResponse struct {
	Transactions []wireTransaction `json:"transactions"`
	Cursor       string            `json:"cursor"`
}

type wireCategory struct {
	ExternalID string `json:"external_id"`
	Name       string `json:"name"`
	ParentName string `json:"parent_name"`
}

func (c *HTTPClient) FetchDelta(ctx context.Context, since string) ([]UpstreamTransaction, string, error) {
	q := url.Values{}
	if since != "" {
		q.Set("since", since)
	}
	var resp wireDeltaResponse
	if err := c.getJSON(ctx, "/transactions/delta", q, &resp); err != nil {
		return nil, "", err
	}
	return wireToUpstream(resp.Transactions), resp.Cursor, nil
}

func (c *HTTPClient) FetchBackfill(ctx context.Context, months int) ([]UpstreamTransaction, string, error) {
	q := url.Values{}
	q.Set("months", strconv.Itoa(months))
	var resp wireDeltaResponse
	if err := c.getJSON(ctx, "/transactions/backfill", q, &resp); err != nil {
		return nil, "", err
	}
	return wireToUpstream(resp.Transactions), resp.Cursor, nil
}

func (c *HTTPClient) FetchCategories(ctx context.Context) ([]UpstreamCategory, error) {
	var resp struct {
		Categories []wireCategory `json:"categories"`
	}
	if err := c.getJSON(ctx, "/categories", nil, &resp); err != nil {
		return nil, err
	}
	out := make([]UpstreamCategory, 0, len(resp.Categories))
	for _, wc := range resp.Categories {
		out = append(out, UpstreamCategory{ExternalID: wc.ExternalID, Name: wc.Name, ParentName: wc.ParentName})
	}
	return out, nil
}

func (c *HTTPClient) getJSON(ctx context.Context, path string, q url.Values, out interface{}) error {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	req.Header.Set("Accept", "application/json")

	c.log.Debug().Str("url", u).Msg("fetching upstream")
	resp, err := c.client.Do(req)
	if err != nil {
		return &core.UpstreamError{Source: "http", Op: path, Retryable: true, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &core.UpstreamError{
			Source:    "http",
			Op:        path,
			Retryable: resp.StatusCode >= 500,
			Err:       fmt.Errorf("status %d", resp.StatusCode),
		}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &core.UpstreamError{Source: "http", Op: path, Retryable: false, Err: err}
	}
	return nil
}

func wireToUpstream(txs []wireTransaction) []UpstreamTransaction {
	out := make([]UpstreamTransaction, 0, len(txs))
	for _, wt := range txs {
		day, err := core.ParseDay(wt.PostedAt)
		if err != nil {
			continue
		}
		out = append(out, UpstreamTransaction{
			AccountExternalID:  wt.AccountExternalID,
			AccountName:        wt.AccountName,
			ExternalID:         wt.ExternalID,
			PostedAt:           day,
			AmountCents:        core.Money(wt.AmountCents),
			Payee:              wt.Payee,
			Memo:               wt.Memo,
			IsCleared:          wt.Cleared,
			CategoryExternalID: wt.CategoryExternalID,
		})
	}
	return out
}
