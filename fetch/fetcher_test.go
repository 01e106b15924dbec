package fetch

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
	"time"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("Expected GET, got %s", r.Method)
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Write([]byte(`{"東京1区": [{"name": "山田"}], "大阪2区": []}`))
	}))
	defer server.Close()

	f := New(Config{URL: server.URL}, WithLogger(quietLogger()))
	res, err := f.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if !res.JSONContent {
		t.Error("Expected JSONContent to be true")
	}
	if res.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", res.StatusCode)
	}
	want := []string{"東京1区", "大阪2区"}
	if got := res.Snapshot.Keys(); !reflect.DeepEqual(got, want) {
		t.Errorf("Keys() = %v, want %v", got, want)
	}
}

func TestFetchFollowsRedirects(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/exec", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/echo", http.StatusFound)
	})
	mux.HandleFunc("/echo", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"A": 1}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	res, err := New(Config{URL: server.URL + "/exec"}, WithLogger(quietLogger())).Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if !strings.HasSuffix(res.FinalURL, "/echo") {
		t.Errorf("Expected final URL to end in /echo, got %s", res.FinalURL)
	}
	if res.Snapshot.Len() != 1 {
		t.Errorf("Expected 1 key, got %d", res.Snapshot.Len())
	}
}

func TestFetchLenientContentType(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(`{"A": 1, "B": 2}`))
	}))
	defer server.Close()

	res, err := New(Config{URL: server.URL}, WithLogger(logger)).Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if res.JSONContent {
		t.Error("Expected JSONContent to be false")
	}
	if res.Snapshot.Len() != 2 {
		t.Errorf("Expected 2 keys, got %d", res.Snapshot.Len())
	}
	if !strings.Contains(logs.String(), "not labelled as JSON") {
		t.Errorf("Expected a content-type warning in logs, got %q", logs.String())
	}
}

func TestFetchErrors(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		contentType string
		body        string
		kind        Kind
	}{
		{name: "server error", status: http.StatusInternalServerError, contentType: "application/json", body: `{}`, kind: KindTransport},
		{name: "not found", status: http.StatusNotFound, contentType: "text/html", body: "missing", kind: KindTransport},
		{name: "invalid json with json content type", status: http.StatusOK, contentType: "application/json", body: `{"A": `, kind: KindParse},
		{name: "html page", status: http.StatusOK, contentType: "text/html", body: "<html><body>Sign in</body></html>", kind: KindFormat},
		{name: "top-level array", status: http.StatusOK, contentType: "application/json", body: `[1, 2]`, kind: KindFormat},
		{name: "top-level array without json content type", status: http.StatusOK, contentType: "text/plain", body: `[1, 2]`, kind: KindFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", tt.contentType)
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := New(Config{URL: server.URL}, WithLogger(quietLogger())).Fetch(context.Background())
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			if got := KindOf(err); got != tt.kind {
				t.Errorf("KindOf() = %v, want %v (err: %v)", got, tt.kind, err)
			}
		})
	}

	t.Run("format error names content type", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.Write([]byte("<html></html>"))
		}))
		defer server.Close()

		_, err := New(Config{URL: server.URL}, WithLogger(quietLogger())).Fetch(context.Background())
		var fe *Error
		if !errors.As(err, &fe) {
			t.Fatalf("Expected *Error, got %T", err)
		}
		if !strings.Contains(err.Error(), "text/html; charset=utf-8") {
			t.Errorf("Expected content type in error message, got %q", err.Error())
		}
	})

	t.Run("invalid URL", func(t *testing.T) {
		_, err := New(Config{URL: "http://invalid-url.invalid"}, WithLogger(quietLogger())).Fetch(context.Background())
		if KindOf(err) != KindTransport {
			t.Errorf("Expected transport error, got %v", err)
		}
	})

	t.Run("timeout", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(300 * time.Millisecond)
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{}`))
		}))
		defer server.Close()

		_, err := New(Config{URL: server.URL, Timeout: 50 * time.Millisecond}, WithLogger(quietLogger())).Fetch(context.Background())
		if KindOf(err) != KindTransport {
			t.Errorf("Expected transport error, got %v", err)
		}
	})

	t.Run("redirect loop", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, r.URL.Path, http.StatusFound)
		}))
		defer server.Close()

		_, err := New(Config{URL: server.URL + "/loop", MaxRedirects: 3}, WithLogger(quietLogger())).Fetch(context.Background())
		if KindOf(err) != KindTransport {
			t.Errorf("Expected transport error, got %v", err)
		}
	})

	t.Run("body too large", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"A": "0123456789"}`))
		}))
		defer server.Close()

		_, err := New(Config{URL: server.URL, MaxBytes: 8}, WithLogger(quietLogger())).Fetch(context.Background())
		if KindOf(err) != KindTransport {
			t.Errorf("Expected transport error, got %v", err)
		}
	})
}

func TestIsJSONContentType(t *testing.T) {
	tests := []struct {
		ct   string
		want bool
	}{
		{"application/json", true},
		{"application/json; charset=utf-8", true},
		{"Application/JSON", true},
		{"text/json", true},
		{"application/problem+json", true},
		{"text/html; charset=utf-8", false},
		{"text/plain", false},
		{"", false},
		{"application/json;;", true},
	}
	for _, tt := range tests {
		t.Run(tt.ct, func(t *testing.T) {
			if got := IsJSONContentType(tt.ct); got != tt.want {
				t.Errorf("IsJSONContentType(%q) = %v, want %v", tt.ct, got, tt.want)
			}
		})
	}
}

func TestPreview(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		n        int
		expected string
	}{
		{name: "short body", body: "abc", n: 500, expected: "abc"},
		{name: "truncated", body: "abcdef", n: 3, expected: "abc"},
		{name: "counts characters not bytes", body: "山田太郎", n: 2, expected: "山田"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Preview([]byte(tt.body), tt.n); got != tt.expected {
				t.Errorf("Preview() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestKindOf(t *testing.T) {
	if got := KindOf(errors.New("disk full")); got != KindUnexpected {
		t.Errorf("KindOf(plain error) = %v", got)
	}
	if got := KindOf(&Error{Kind: KindFormat, Err: errors.New("x")}); got != KindFormat {
		t.Errorf("KindOf(*Error) = %v", got)
	}
	if KindTransport.String() != "transport error" {
		t.Errorf("Unexpected label %q", KindTransport.String())
	}
}
