// Package postgrest implements the remote ledger gateway against a hosted
// Postgres row API (PostgREST-style): one REST collection per table, filtered
// and ordered through query parameters, rows scoped by owner_id.
package postgrest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/dvloznov/ledgerboard/internal/gateway"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	accountsPath     = "/rest/v1/accounts"
	transactionsPath = "/rest/v1/transactions"
	recurringPath    = "/rest/v1/recurring_payments"
	billsPath        = "/rest/v1/bill_reminders"

	dateFormat = "2006-01-02"
)

// Client is a thin request/response wrapper around the row API. It applies no
// retry policy; a failed call means no remote state change and is reported to
// the caller as an error.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	log     zerolog.Logger
}

// NewClient creates a Client for the row API at baseURL. apiKey may be empty
// for unauthenticated local development stores.
func NewClient(baseURL, apiKey string, timeout time.Duration, log zerolog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
		log:     log,
	}
}

// Ledger returns the four collection gateways backed by this client.
func (c *Client) Ledger() gateway.Ledger {
	return gateway.Ledger{
		Accounts:  &accountsGateway{c},
		Txs:       &transactionsGateway{c},
		Recurring: &recurringGateway{c},
		Bills:     &billsGateway{c},
	}
}

// do issues one request. Mutating requests carry a client-generated
// idempotency key so an ambiguous timeout cannot double-apply on retry by a
// future caller-side policy.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("do: encoding body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("do: building request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("apikey", c.apiKey)
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	if method != http.MethodGet {
		req.Header.Set("Prefer", "return=representation")
		req.Header.Set("Idempotency-Key", uuid.New().String())
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Error().Err(err).Str("method", method).Str("path", path).Msg("Remote ledger request failed")
		return fmt.Errorf("do: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.log.Error().
			Int("status", resp.StatusCode).
			Str("method", method).
			Str("path", path).
			Str("body", string(snippet)).
			Msg("Remote ledger rejected request")
		return fmt.Errorf("do: %s %s: status %d: %s", method, path, resp.StatusCode, snippet)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("do: decoding response: %w", err)
		}
	}
	return nil
}

// one unwraps the single-row representation returned for mutations. An empty
// result set means the filter matched nothing.
func one[T any](rows []T) (*T, error) {
	if len(rows) == 0 {
		return nil, gateway.ErrNotFound
	}
	return &rows[0], nil
}

func ownerFilter(ownerID string) url.Values {
	q := url.Values{}
	q.Set("owner_id", "eq."+ownerID)
	return q
}

func idFilter(id string) url.Values {
	q := url.Values{}
	q.Set("id", "eq."+id)
	return q
}
