package github

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNewClient(t *testing.T) {
	ctx := context.Background()
	client, err := NewClient(ctx, "test-token")
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	if client.Client == nil || client.HTTP == nil {
		t.Fatalf("expected client to be initialized")
	}

	// No token still yields a usable, unauthenticated client.
	client, err = NewClient(ctx, "")
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	if client.Client == nil {
		t.Fatalf("expected client to be initialized without token")
	}
	if got := client.Client.BaseURL.String(); got != "https://api.github.com/" {
		t.Fatalf("unexpected default base url: %s", got)
	}
}

func TestNewClient_NilContextReturnsError(t *testing.T) {
	var nilCtx context.Context
	_, err := NewClient(nilCtx, "")
	if err == nil || !strings.Contains(err.Error(), "ctx is nil") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNewClient_WithBaseURL_AddsTrailingSlash(t *testing.T) {
	c, err := NewClient(context.Background(), "", WithBaseURL("https://ghe.example.com/api/v3"))
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	if got := c.Client.BaseURL.String(); got != "https://ghe.example.com/api/v3/" {
		t.Fatalf("unexpected base url: %s", got)
	}

	if _, err := NewClient(context.Background(), "", WithBaseURL("://bad")); err == nil {
		t.Fatalf("expected error for invalid base url")
	}
}

func TestNewClient_WithVerbose_LogsAndAuthHeader(t *testing.T) {
	ctx := context.Background()

	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("{}"))
	}))
	t.Cleanup(server.Close)

	for _, token := range []string{"", "test-token"} {
		gotAuth = ""
		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

		c, err := NewClient(ctx, token, WithVerbose(true, logger), WithBaseURL(server.URL+"/"))
		if err != nil {
			t.Fatalf("NewClient failed: %v", err)
		}
		req, err := c.Client.NewRequest("GET", "rate_limit", nil)
		if err != nil {
			t.Fatalf("NewRequest: %v", err)
		}
		if _, err := c.Client.Do(ctx, req, nil); err != nil {
			t.Fatalf("Do: %v", err)
		}

		logs := buf.String()
		if !strings.Contains(logs, "github api request") || !strings.Contains(logs, "method=GET") {
			t.Fatalf("expected request log, got: %q", logs)
		}
		if !strings.Contains(logs, "status=200") {
			t.Fatalf("expected response log, got: %q", logs)
		}
		if strings.Contains(logs, "test-token") {
			t.Fatalf("token leaked into logs: %q", logs)
		}

		if token == "" && gotAuth != "" {
			t.Fatalf("expected no Authorization header, got %q", gotAuth)
		}
		if token != "" && !strings.Contains(gotAuth, token) {
			t.Fatalf("expected Authorization header to contain token, got %q", gotAuth)
		}
	}
}
