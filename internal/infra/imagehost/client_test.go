package imagehost_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/firstcbu/bank-api/internal/domain"
	"github.com/firstcbu/bank-api/internal/infra/imagehost"
	"github.com/firstcbu/bank-api/internal/infra/resilience"
)

func testConfig() resilience.Config {
	return resilience.Config{MaxRetries: 1, InitialBackoff: 10 * time.Millisecond, MaxConcurrency: 10}
}

func TestUpload_ReturnsHostedURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		if got := r.FormValue("upload_preset"); got != "bank_kyc" {
			t.Errorf("expected preset bank_kyc, got %q", got)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		defer file.Close()
		if header.Filename != "id_front.jpg" {
			t.Errorf("expected filename id_front.jpg, got %q", header.Filename)
		}
		json.NewEncoder(w).Encode(map[string]string{"secure_url": "https://img.example.com/abc.jpg"})
	}))
	defer server.Close()

	client := imagehost.NewClient(&http.Client{Timeout: 5 * time.Second}, server.URL, "bank_kyc",
		resilience.NewCircuitBreaker("imagehost-test"), testConfig())

	url, err := client.Upload(context.Background(), "id_front.jpg", strings.NewReader("fake image bytes"))
	if err != nil {
		t.Fatalf("expected upload to succeed, got %v", err)
	}
	if url != "https://img.example.com/abc.jpg" {
		t.Errorf("unexpected url: %q", url)
	}
}

func TestUpload_EmptyURLFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{})
	}))
	defer server.Close()

	client := imagehost.NewClient(&http.Client{Timeout: 5 * time.Second}, server.URL, "bank_kyc",
		resilience.NewCircuitBreaker("imagehost-test-empty"), testConfig())

	_, err := client.Upload(context.Background(), "id_front.jpg", strings.NewReader("fake image bytes"))
	var external *domain.ErrExternalService
	if !errors.As(err, &external) {
		t.Fatalf("expected external service error, got %v", err)
	}
}

func TestUpload_RetriesResendSameBytes(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		defer file.Close()
		buf := make([]byte, 32)
		n, _ := file.Read(buf)
		if string(buf[:n]) != "fake image bytes" {
			t.Errorf("retry must resend the same bytes, got %q", buf[:n])
		}
		json.NewEncoder(w).Encode(map[string]string{"secure_url": "https://img.example.com/abc.jpg"})
	}))
	defer server.Close()

	client := imagehost.NewClient(&http.Client{Timeout: 5 * time.Second}, server.URL, "bank_kyc",
		resilience.NewCircuitBreaker("imagehost-test-retry"), testConfig())

	if _, err := client.Upload(context.Background(), "id_front.jpg", strings.NewReader("fake image bytes")); err != nil {
		t.Fatalf("expected retry to recover, got %v", err)
	}
	if attempts != 2 {
		t.Errorf("expected 2 attempts, got %d", attempts)
	}
}
