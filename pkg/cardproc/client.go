// Package cardproc is a thin client for the remote card processor's
// payment-intent API.
package cardproc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

// ErrUnavailable marks network-level failures: the processor could not be
// reached at all, as opposed to answering with a rejection.
var ErrUnavailable = errors.New("card processor unreachable")

const (
	IntentStatusPending   = "pending"
	IntentStatusSucceeded = "succeeded"
	IntentStatusFailed    = "failed"
)

type Client struct {
	BaseURL   string
	SecretKey string
	client    *http.Client
}

func NewClient(baseURL, secretKey string) *Client {
	return &Client{
		BaseURL:   baseURL,
		SecretKey: secretKey,
		client:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Configured reports whether the operator has wired processor credentials.
func (c *Client) Configured() bool {
	return c.BaseURL != "" && c.SecretKey != ""
}

type Intent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
	Status       string `json:"status"`
	ChargeID     string `json:"charge_id"`
	AmountCents  int64  `json:"amount"`
	Currency     string `json:"currency"`
	CreatedAt    string `json:"created_at"`
}

type CreateIntentParams struct {
	AmountCents    int64             `json:"amount"`
	Currency       string            `json:"currency"`
	Description    string            `json:"description"`
	IdempotencyKey string            `json:"idempotency_key"`
	Metadata       map[string]string `json:"metadata"`
}

func (c *Client) CreateIntent(ctx context.Context, params CreateIntentParams) (*Intent, error) {
	body, _ := json.Marshal(params)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v1/payment_intents", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.SecretKey)
	log.Printf("[CARDPROC] POST /v1/payment_intents amount=%d idempotency_key=%s", params.AmountCents, params.IdempotencyKey)
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		log.Printf("[CARDPROC] create intent status=%d body=%s", resp.StatusCode, string(respBody))
		return nil, fmt.Errorf("create intent: %d", resp.StatusCode)
	}
	var out Intent
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetIntent(ctx context.Context, id string) (*Intent, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/v1/payment_intents/"+id, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.SecretKey)
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("intent %s not found", id)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("get intent: %d", resp.StatusCode)
	}
	var out Intent
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}
