// Package mail sends transactional email through the external mail API.
package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/firstcbu/bank-api/internal/domain"
	"github.com/firstcbu/bank-api/internal/infra/resilience"
)

var tracer = otel.Tracer("infra/mail")

// Client calls the mail delivery API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	cb         *gobreaker.CircuitBreaker
	cfg        resilience.Config
}

// NewClient creates a mail client.
func NewClient(httpClient *http.Client, baseURL string, cb *gobreaker.CircuitBreaker, cfg resilience.Config) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		cb:         cb,
		cfg:        cfg,
	}
}

type sendRequest struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

type sendResponse struct {
	OK bool `json:"ok"`
}

// Send delivers one email. The mail API accepts {to, subject, html} and
// answers {ok: true} on acceptance.
func (c *Client) Send(ctx context.Context, to, subject, html string) error {
	ctx, span := tracer.Start(ctx, "MailClient.Send")
	defer span.End()
	span.SetAttributes(attribute.String("mail.subject", subject))

	_, err := c.cb.Execute(func() (any, error) {
		innerErr := resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			body, err := json.Marshal(sendRequest{To: to, Subject: subject, HTML: html})
			if err != nil {
				return err
			}

			httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
			if err != nil {
				return err
			}
			httpReq.Header.Set("Content-Type", "application/json")

			resp, err := c.httpClient.Do(httpReq)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("mail API returned status %d", resp.StatusCode)
			}

			var out sendResponse
			if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
				return err
			}
			if !out.OK {
				return fmt.Errorf("mail API rejected message")
			}
			return nil
		})
		if innerErr != nil {
			return nil, innerErr
		}
		return nil, nil
	})

	if err != nil {
		return &domain.ErrExternalService{Service: "mail", Err: err}
	}
	return nil
}
