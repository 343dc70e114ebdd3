package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/matheuskafuri/menuscore/internal/dining"
)

func testClient(opts Options) (*Client, *[]time.Duration) {
	c := New(opts, nil)
	var (
		mu    sync.Mutex
		waits []time.Duration
	)
	c.sleep = func(ctx context.Context, d time.Duration) error {
		mu.Lock()
		waits = append(waits, d)
		mu.Unlock()
		return ctx.Err()
	}
	return c, &waits
}

func TestGetRetriesTransientStatus(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, "ok")
	}))
	defer srv.Close()

	c, waits := testClient(Options{Attempts: 3, Backoff: 100 * time.Millisecond})
	page, err := c.Get(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(page.Body) != "ok" {
		t.Errorf("unexpected body %q", page.Body)
	}
	if calls.Load() != 3 {
		t.Errorf("expected 3 calls, got %d", calls.Load())
	}
	want := []time.Duration{100 * time.Millisecond, 200 * time.Millisecond}
	if len(*waits) != 2 || (*waits)[0] != want[0] || (*waits)[1] != want[1] {
		t.Errorf("expected exponential backoff %v, got %v", want, *waits)
	}
}

func TestGetGivesUpAfterAttempts(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c, _ := testClient(Options{Attempts: 3})
	_, err := c.Get(context.Background(), srv.URL)
	var fe *Error
	if !errors.As(err, &fe) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if fe.Status != http.StatusServiceUnavailable || fe.Attempts != 3 || !fe.Transient {
		t.Errorf("unexpected error %+v", fe)
	}
	if calls.Load() != 3 {
		t.Errorf("expected 3 calls, got %d", calls.Load())
	}
}

func TestGetClientErrorIsTerminal(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c, _ := testClient(Options{Attempts: 3})
	_, err := c.Get(context.Background(), srv.URL)
	var fe *Error
	if !errors.As(err, &fe) || fe.Status != http.StatusNotFound {
		t.Fatalf("expected 404 error, got %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("expected no retries on 404, got %d calls", calls.Load())
	}
}

func TestGetTimeoutIsRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer srv.Close()

	c, _ := testClient(Options{Attempts: 2, Timeout: 20 * time.Millisecond})
	_, err := c.Get(context.Background(), srv.URL)
	var fe *Error
	if !errors.As(err, &fe) || !fe.Transient {
		t.Fatalf("expected transient timeout error, got %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("expected 2 attempts, got %d", calls.Load())
	}
}

func TestPostSendsForm(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if ua := r.Header.Get("User-Agent"); ua != UserAgent {
			t.Errorf("unexpected user agent %q", ua)
		}
		r.ParseForm()
		fmt.Fprint(w, r.PostForm.Get("selCampus"))
	}))
	defer srv.Close()

	c, _ := testClient(Options{})
	page, err := c.Post(context.Background(), srv.URL, map[string][]string{"selCampus": {"46"}})
	if err != nil {
		t.Fatalf("Post: %v", err)
	}
	if string(page.Body) != "46" {
		t.Errorf("expected echoed campus, got %q", page.Body)
	}
}

func TestFetchAllPartialFailure(t *testing.T) {
	var inFlight, peak atomic.Int32
	var mu sync.Mutex
	hits := make(map[string]int)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		mu.Lock()
		hits[r.URL.Path]++
		mu.Unlock()
		time.Sleep(5 * time.Millisecond)
		if strings.HasSuffix(r.URL.Path, "/bad") {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, r.URL.Path)
	}))
	defer srv.Close()

	var urls []string
	for i := 0; i < 10; i++ {
		urls = append(urls, fmt.Sprintf("%s/item/%d", srv.URL, i))
	}
	urls = append(urls, srv.URL+"/bad", srv.URL+"/item/0")

	c, _ := testClient(Options{Workers: 3})
	results := c.FetchAll(context.Background(), urls)

	if len(results) != 11 {
		t.Fatalf("expected 11 distinct results, got %d", len(results))
	}
	if results[srv.URL+"/bad"].Err == nil {
		t.Error("expected failure for /bad")
	}
	if got := string(results[srv.URL+"/item/3"].Page.Body); got != "/item/3" {
		t.Errorf("unexpected body %q", got)
	}
	if hits["/item/0"] != 1 {
		t.Errorf("expected duplicate url fetched once, got %d", hits["/item/0"])
	}
	if peak.Load() > 3 {
		t.Errorf("expected at most 3 in flight, saw %d", peak.Load())
	}
}

func TestFetchAllCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c, _ := testClient(Options{})
	results := c.FetchAll(ctx, []string{"http://127.0.0.1:1/a", "http://127.0.0.1:1/b"})
	for u, r := range results {
		if r.Err == nil {
			t.Errorf("%s: expected error on cancelled context", u)
		}
	}
}

const landingPage = `<form>
<select name="selCampus"><option value="46">Altoona - Port Sky Cafe</option></select>
<select name="selMeal"><option value="B">Breakfast</option><option value="L">Lunch</option></select>
<select name="selMenuDate"><option value="3/14/2025">Friday, March 14</option></select>
</form>`

func TestFetchMenuThroughForm(t *testing.T) {
	var gets atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			gets.Add(1)
			fmt.Fprint(w, landingPage)
			return
		}
		r.ParseForm()
		if r.PostForm.Get("selCampus") != "46" || r.PostForm.Get("selMenuDate") != "3/14/2025" {
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}
		if r.PostForm.Get("selMeal") == "L" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprintf(w, "<a href='label.cfm?recNum=1'>Meal %s</a>", r.PostForm.Get("selMeal"))
	}))
	defer srv.Close()

	c, _ := testClient(Options{Attempts: 1})
	site := NewMenuSite(c, srv.URL)
	day := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)

	pages, err := site.FetchMenu(context.Background(), "altoona", day)
	if err != nil {
		t.Fatalf("FetchMenu: %v", err)
	}
	if len(pages) != 1 || pages[0].Meal != dining.Breakfast {
		t.Fatalf("expected only the breakfast page, got %+v", pages)
	}

	// the form is reused on the next call
	site.FetchMenu(context.Background(), "altoona", day)
	if gets.Load() != 1 {
		t.Errorf("expected landing page fetched once, got %d", gets.Load())
	}

	if _, err := site.FetchMenu(context.Background(), "harrisburg", day); !errors.Is(err, ErrCampusNotListed) {
		t.Errorf("expected ErrCampusNotListed, got %v", err)
	}
	if _, err := site.FetchMenu(context.Background(), "altoona", day.AddDate(0, 0, 1)); !errors.Is(err, ErrDateNotListed) {
		t.Errorf("expected ErrDateNotListed, got %v", err)
	}
}

func TestFetchMenuWithoutForm(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<h2>Lunch</h2><a href='/n/1'>Grilled Chicken Breast</a>")
	}))
	defer srv.Close()

	c, _ := testClient(Options{})
	pages, err := NewMenuSite(c, srv.URL).FetchMenu(context.Background(), "altoona", time.Now())
	if err != nil {
		t.Fatalf("FetchMenu: %v", err)
	}
	if len(pages) != 1 || pages[0].Meal != dining.Other {
		t.Errorf("expected the landing page as the menu, got %+v", pages)
	}
}

func TestFetchMenuUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c, _ := testClient(Options{Attempts: 3})
	_, err := NewMenuSite(c, srv.URL).FetchMenu(context.Background(), "altoona", time.Now())
	var fe *Error
	if !errors.As(err, &fe) || fe.Status != http.StatusServiceUnavailable {
		t.Errorf("expected 503 error, got %v", err)
	}
}
