// Package remote implements storage.Destination against the destination
// store's batch-query execution endpoint: SQL goes out as JSON, a JSON
// result set comes back.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/custodia/walletmigrate/storage"
)

const defaultTimeout = 15 * time.Second

// Client executes queries against the destination store's remote query
// endpoint.
type Client struct {
	endpoint string
	token    string
	client   *http.Client
}

var _ storage.Destination = (*Client)(nil)

// NewClient returns a destination client for the given query endpoint and
// bearer token.
func NewClient(endpoint, token string) *Client {
	return &Client{
		endpoint: endpoint,
		token:    token,
		client: &http.Client{
			Timeout: defaultTimeout,
		},
	}
}

type queryRequest struct {
	SQL string `json:"sql"`
}

type queryResponse struct {
	Success bool             `json:"success"`
	Results []map[string]any `json:"results"`
	Error   string           `json:"error,omitempty"`
}

const sampleQuery = `SELECT encrypted_jwk, salt, address FROM wallets WHERE encrypted_jwk IS NOT NULL AND encrypted_jwk <> '' LIMIT 1`

// SampleEncryptedWallet fetches one already-encrypted wallet row. Which row
// comes back is unspecified; the validator only needs any production
// ciphertext. Returns storage.ErrNoRows when the destination has none.
func (c *Client) SampleEncryptedWallet(ctx context.Context) (*storage.EncryptedSample, error) {
	rows, err := c.query(ctx, sampleQuery)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, storage.ErrNoRows
	}

	row := rows[0]
	sample := &storage.EncryptedSample{
		EncryptedJWK: stringField(row, "encrypted_jwk"),
		Salt:         stringField(row, "salt"),
		Address:      stringField(row, "address"),
	}
	if sample.EncryptedJWK == "" || sample.Salt == "" {
		return nil, fmt.Errorf("sample row missing encrypted_jwk or salt: %v", row)
	}
	return sample, nil
}

func (c *Client) query(ctx context.Context, sql string) ([]map[string]any, error) {
	body, err := json.Marshal(queryRequest{SQL: sql})
	if err != nil {
		return nil, fmt.Errorf("marshaling query request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building query request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing remote query: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("reading query response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("remote query returned status %d: %s", resp.StatusCode, raw)
	}

	var parsed queryResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("decoding query response: %w", err)
	}
	if !parsed.Success {
		return nil, fmt.Errorf("remote query failed: %s", parsed.Error)
	}

	return parsed.Results, nil
}

func stringField(row map[string]any, key string) string {
	s, _ := row[key].(string)
	return s
}
