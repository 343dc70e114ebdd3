package update

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/matheuskafuri/menuscore/internal/fetch"
)

func TestCheck(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"tag_name":"v1.4.0"}`)
	}))
	defer srv.Close()
	client := fetch.New(fetch.Options{Attempts: 1, Timeout: time.Second}, nil)

	tests := []struct {
		current string
		newer   bool
	}{
		{"v1.4.0", false},
		{"1.4.0", false},
		{"1.3.2", true},
		{"dev", true},
	}
	for _, tt := range tests {
		res, err := Check(context.Background(), client, srv.URL, tt.current)
		if err != nil {
			t.Fatalf("Check(%q): %v", tt.current, err)
		}
		if res.LatestVersion != "1.4.0" || res.Newer() != tt.newer {
			t.Errorf("Check(%q) = %+v, newer=%v, want newer=%v", tt.current, res, res.Newer(), tt.newer)
		}
	}
}

func TestCheckErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, "not json")
	}))
	defer srv.Close()
	client := fetch.New(fetch.Options{Attempts: 1, Timeout: time.Second}, nil)

	for _, path := range []string{"/missing", "/garbage"} {
		res, err := Check(context.Background(), client, srv.URL+path, "1.0.0")
		if err == nil {
			t.Errorf("%s: expected error", path)
		}
		if res.Newer() {
			t.Errorf("%s: expected no update reported", path)
		}
	}
}
