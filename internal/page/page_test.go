package page

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gido-dev/gido/internal/errors"
)

const maintenanceHTML = `<!DOCTYPE html>
<html><head><title>EducationPlannerBC</title></head>
<body>
  <div class="banner">
    <h1>Sorry!</h1>
    <p>The site is <strong>undergoing temporary
       system maintenance</strong>. Please check back later.</p>
  </div>
</body></html>`

func TestText(t *testing.T) {
	text, err := Text(strings.NewReader(maintenanceHTML))
	if err != nil {
		t.Fatalf("Text failed: %v", err)
	}

	if !strings.Contains(text, "undergoing temporary system maintenance") {
		t.Errorf("text should contain the joined sentence, got %q", text)
	}
	if strings.Contains(text, "<strong>") {
		t.Errorf("text should not contain markup, got %q", text)
	}
	if strings.Contains(text, "  ") || strings.Contains(text, "\n") {
		t.Errorf("whitespace should be collapsed, got %q", text)
	}
}

func TestText_Plain(t *testing.T) {
	text, err := Text(strings.NewReader("just text"))
	if err != nil {
		t.Fatalf("Text failed: %v", err)
	}
	if text != "just text" {
		t.Errorf("Text = %q, want %q", text, "just text")
	}
}

func TestFetcher_Fetch(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(maintenanceHTML))
	}))
	defer srv.Close()

	f := NewFetcher(srv.Client(), time.Second)
	text, err := f.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if !strings.Contains(text, "Please check back later.") {
		t.Errorf("unexpected text %q", text)
	}
	if gotUA != userAgent {
		t.Errorf("User-Agent = %q, want %q", gotUA, userAgent)
	}
}

func TestFetcher_Errors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}},
		{"not found", func(w http.ResponseWriter, r *http.Request) {
			http.NotFound(w, r)
		}},
		{"service unavailable", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("undergoing temporary system maintenance"))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			_, err := NewFetcher(srv.Client(), time.Second).Fetch(context.Background(), srv.URL)
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.IsKind(err, errors.KindFetch) {
				t.Errorf("expected fetch error, got %v", err)
			}
		})
	}
}

func TestFetcher_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	f := NewFetcher(srv.Client(), 50*time.Millisecond)
	start := time.Now()
	_, err := f.Fetch(context.Background(), srv.URL)
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if !errors.IsKind(err, errors.KindFetch) {
		t.Errorf("expected fetch error, got %v", err)
	}
	if time.Since(start) > 2*time.Second {
		t.Errorf("fetch took %v, timeout not applied", time.Since(start))
	}
}

func TestFetcher_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewFetcher(srv.Client(), time.Second).Fetch(ctx, srv.URL); err == nil {
		t.Error("expected error for cancelled context")
	}
}

func TestFetcher_BadURL(t *testing.T) {
	_, err := NewFetcher(nil, time.Second).Fetch(context.Background(), "://bad")
	if !errors.IsKind(err, errors.KindFetch) {
		t.Errorf("expected fetch error, got %v", err)
	}
}

func TestNewFetcher_DoesNotMutateClient(t *testing.T) {
	client := &http.Client{Timeout: time.Minute}
	f := NewFetcher(client, time.Second)

	if client.Timeout != time.Minute {
		t.Errorf("caller's client timeout changed to %v", client.Timeout)
	}
	if f.Timeout() != time.Second {
		t.Errorf("Timeout() = %v, want 1s", f.Timeout())
	}
}
