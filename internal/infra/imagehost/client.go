// Package imagehost uploads KYC documents and avatars to the external
// image hosting service and returns their public URLs.
package imagehost

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/firstcbu/bank-api/internal/domain"
	"github.com/firstcbu/bank-api/internal/infra/resilience"
)

var tracer = otel.Tracer("infra/imagehost")

// Client calls the unsigned-upload endpoint of the image host.
type Client struct {
	httpClient *http.Client
	uploadURL  string
	preset     string
	cb         *gobreaker.CircuitBreaker
	cfg        resilience.Config
}

// NewClient creates an image host client.
func NewClient(httpClient *http.Client, uploadURL, preset string, cb *gobreaker.CircuitBreaker, cfg resilience.Config) *Client {
	return &Client{
		httpClient: httpClient,
		uploadURL:  uploadURL,
		preset:     preset,
		cb:         cb,
		cfg:        cfg,
	}
}

type uploadResponse struct {
	SecureURL string `json:"secure_url"`
}

// Upload posts the file as multipart form data with the upload preset
// and returns the hosted URL. The file is buffered up front so retries
// can resend the same bytes.
func (c *Client) Upload(ctx context.Context, filename string, r io.Reader) (string, error) {
	ctx, span := tracer.Start(ctx, "ImageHostClient.Upload")
	defer span.End()
	span.SetAttributes(attribute.String("upload.filename", filename))

	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}

	result, err := c.cb.Execute(func() (any, error) {
		var url string
		innerErr := resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			var body bytes.Buffer
			mw := multipart.NewWriter(&body)

			part, err := mw.CreateFormFile("file", filename)
			if err != nil {
				return err
			}
			if _, err := part.Write(data); err != nil {
				return err
			}
			if err := mw.WriteField("upload_preset", c.preset); err != nil {
				return err
			}
			if err := mw.Close(); err != nil {
				return err
			}

			httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.uploadURL, &body)
			if err != nil {
				return err
			}
			httpReq.Header.Set("Content-Type", mw.FormDataContentType())

			resp, err := c.httpClient.Do(httpReq)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("image host returned status %d", resp.StatusCode)
			}

			var out uploadResponse
			if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
				return err
			}
			if out.SecureURL == "" {
				return fmt.Errorf("image host returned empty url")
			}
			url = out.SecureURL
			return nil
		})
		if innerErr != nil {
			return nil, innerErr
		}
		return url, nil
	})

	if err != nil {
		return "", &domain.ErrExternalService{Service: "imagehost", Err: err}
	}
	return result.(string), nil
}
