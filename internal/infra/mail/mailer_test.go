package mail_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/firstcbu/bank-api/internal/domain"
	"github.com/firstcbu/bank-api/internal/infra/mail"
	"github.com/firstcbu/bank-api/internal/infra/resilience"
)

func testConfig() resilience.Config {
	return resilience.Config{MaxRetries: 1, InitialBackoff: 10 * time.Millisecond, MaxConcurrency: 10}
}

func TestSend_PostsMessage(t *testing.T) {
	var got struct {
		To      string `json:"to"`
		Subject string `json:"subject"`
		HTML    string `json:"html"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]bool{"ok": true})
	}))
	defer server.Close()

	client := mail.NewClient(&http.Client{Timeout: 5 * time.Second}, server.URL,
		resilience.NewCircuitBreaker("mail-test"), testConfig())

	err := client.Send(context.Background(), "alice@example.com", "Welcome", "<p>hi</p>")
	if err != nil {
		t.Fatalf("expected send to succeed, got %v", err)
	}
	if got.To != "alice@example.com" || got.Subject != "Welcome" || got.HTML != "<p>hi</p>" {
		t.Errorf("unexpected payload: %+v", got)
	}
}

func TestSend_RejectedMessageFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]bool{"ok": false})
	}))
	defer server.Close()

	client := mail.NewClient(&http.Client{Timeout: 5 * time.Second}, server.URL,
		resilience.NewCircuitBreaker("mail-test-reject"), testConfig())

	err := client.Send(context.Background(), "alice@example.com", "Welcome", "<p>hi</p>")
	var external *domain.ErrExternalService
	if !errors.As(err, &external) {
		t.Fatalf("expected external service error, got %v", err)
	}
	if external.Service != "mail" {
		t.Errorf("expected mail service, got %s", external.Service)
	}
}

func TestSend_RetriesServerErrors(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(map[string]bool{"ok": true})
	}))
	defer server.Close()

	client := mail.NewClient(&http.Client{Timeout: 5 * time.Second}, server.URL,
		resilience.NewCircuitBreaker("mail-test-retry"), testConfig())

	if err := client.Send(context.Background(), "alice@example.com", "Welcome", "<p>hi</p>"); err != nil {
		t.Fatalf("expected retry to recover, got %v", err)
	}
	if attempts != 2 {
		t.Errorf("expected 2 attempts, got %d", attempts)
	}
}
