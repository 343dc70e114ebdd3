package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"net/url"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
)

// UserAgent is sent with every upstream request.
const UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

const maxBody = 4 << 20

// Options tune the client. Zero values take the defaults.
type Options struct {
	Workers  int
	Timeout  time.Duration
	Attempts int
	Backoff  time.Duration
}

func (o Options) withDefaults() Options {
	if o.Workers <= 0 {
		o.Workers = 6
	}
	if o.Timeout <= 0 {
		o.Timeout = 10 * time.Second
	}
	if o.Attempts <= 0 {
		o.Attempts = 3
	}
	if o.Backoff <= 0 {
		o.Backoff = 500 * time.Millisecond
	}
	return o
}

// Error is a terminal fetch failure.
type Error struct {
	URL       string
	Status    int
	Attempts  int
	Transient bool
	Err       error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetching %s: status %d after %d attempt(s)", e.URL, e.Status, e.Attempts)
	}
	return fmt.Sprintf("fetching %s after %d attempt(s): %v", e.URL, e.Attempts, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Page is a fetched document.
type Page struct {
	URL  string
	Body []byte
}

// Result is the outcome of one URL in a batch.
type Result struct {
	Page Page
	Err  error
}

// Client fetches upstream pages with retries.
type Client struct {
	http   *http.Client
	opts   Options
	logger *log.Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

// New returns a Client. A nil logger discards output.
func New(opts Options, logger *log.Logger) *Client {
	opts = opts.withDefaults()
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Client{
		http:   &http.Client{Timeout: opts.Timeout},
		opts:   opts,
		logger: logger,
		sleep:  sleepCtx,
	}
}

// Get fetches rawURL.
func (c *Client) Get(ctx context.Context, rawURL string) (Page, error) {
	return c.do(ctx, http.MethodGet, rawURL, nil)
}

// Post submits form to rawURL.
func (c *Client) Post(ctx context.Context, rawURL string, form url.Values) (Page, error) {
	return c.do(ctx, http.MethodPost, rawURL, form)
}

// FetchAll fetches every URL with at most Workers requests in flight. Each
// URL is fetched once however often it appears. One failure never stops the
// others; a cancelled context fails the URLs still outstanding.
func (c *Client) FetchAll(ctx context.Context, urls []string) map[string]Result {
	results := make(map[string]Result, len(urls))
	unique := make([]string, 0, len(urls))
	for _, u := range urls {
		if _, ok := results[u]; ok {
			continue
		}
		results[u] = Result{}
		unique = append(unique, u)
	}

	out := make([]Result, len(unique))
	g := new(errgroup.Group)
	g.SetLimit(c.opts.Workers)
	for i, u := range unique {
		if ctx.Err() != nil {
			out[i] = Result{Err: &Error{URL: u, Err: ctx.Err()}}
			continue
		}
		i, u := i, u
		g.Go(func() error {
			page, err := c.Get(ctx, u)
			out[i] = Result{Page: page, Err: err}
			return nil
		})
	}
	g.Wait()

	for i, u := range unique {
		results[u] = out[i]
	}
	return results
}

func (c *Client) do(ctx context.Context, method, rawURL string, form url.Values) (Page, error) {
	var last *Error
	for attempt := 1; attempt <= c.opts.Attempts; attempt++ {
		if attempt > 1 {
			wait := c.opts.Backoff << (attempt - 2)
			if err := c.sleep(ctx, wait); err != nil {
				return Page{}, &Error{URL: rawURL, Attempts: attempt - 1, Err: err}
			}
		}

		page, err := c.once(ctx, method, rawURL, form)
		if err == nil {
			return page, nil
		}
		var fe *Error
		if !errors.As(err, &fe) {
			fe = &Error{URL: rawURL, Err: err}
		}
		fe.Attempts = attempt
		last = fe
		if !fe.Transient || ctx.Err() != nil {
			return Page{}, fe
		}
		c.logger.Printf("retrying %s %s (attempt %d/%d): %v", method, rawURL, attempt, c.opts.Attempts, fe)
	}
	return Page{}, last
}

func (c *Client) once(ctx context.Context, method, rawURL string, form url.Values) (Page, error) {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return Page{}, &Error{URL: rawURL, Err: err}
	}
	req.Header.Set("User-Agent", UserAgent)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Page{}, &Error{URL: rawURL, Err: err, Transient: transient(err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))
		return Page{}, &Error{URL: rawURL, Status: resp.StatusCode, Transient: resp.StatusCode >= 500}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return Page{}, &Error{URL: rawURL, Err: fmt.Errorf("reading body: %w", err), Transient: transient(err)}
	}
	return Page{URL: resp.Request.URL.String(), Body: data}, nil
}

// transient reports whether a transport error is worth retrying: timeouts,
// resets and truncated responses.
func transient(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	return errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, context.DeadlineExceeded)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
