package httpc

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestNewClientTimeout(t *testing.T) {
	if c := NewClient(0); c.Timeout != DefaultTimeout {
		t.Errorf("Timeout = %v, want %v", c.Timeout, DefaultTimeout)
	}
	if c := NewClient(2 * time.Second); c.Timeout != 2*time.Second {
		t.Errorf("Timeout = %v", c.Timeout)
	}
}

func TestPostContextHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		if r.Header.Get("Accept") != "application/json" {
			t.Errorf("Accept = %q", r.Header.Get("Accept"))
		}
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("Content-Type", r.Header.Get("Content-Type"))
		w.Write(body)
	}))
	defer srv.Close()

	resp, err := PostContext(context.Background(), nil, srv.URL, "text/plain", strings.NewReader("ping"))
	if err != nil {
		t.Fatalf("PostContext: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "ping" || resp.Header.Get("Content-Type") != "text/plain" {
		t.Errorf("echo = %q, %q", body, resp.Header.Get("Content-Type"))
	}
}

func TestPostContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := PostContext(ctx, NewClient(time.Second), srv.URL, "text/plain", nil); err == nil {
		t.Error("expected an error for a cancelled context")
	}
}
