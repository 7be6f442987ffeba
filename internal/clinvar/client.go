package clinvar

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// DefaultBaseURL is the public myvariant.info endpoint.
const DefaultBaseURL = "https://myvariant.info"

const defaultMemoSize = 4096

// FetchError reports a failed annotation fetch for one SNP. Callers treat it
// as "no data" for that SNP and continue the run.
type FetchError struct {
	RSID       string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch annotations for %s: HTTP %d", e.RSID, e.StatusCode)
	}
	return fmt.Sprintf("fetch annotations for %s: %v", e.RSID, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Options configures a Client. Zero values select the defaults.
type Options struct {
	BaseURL    string
	Timeout    time.Duration // per-request timeout, default 30s
	Retries    int           // retries on transient failure, default 2
	RatePerSec float64       // request pacing, <= 0 means unlimited
	MemoSize   int           // per-run memoization entries, default 4096
}

// Client fetches ClinVar annotation payloads from the variant API.
// Results are memoized for the lifetime of the client so a rsid repeated
// within one run is fetched once; nothing persists across runs.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	retries    uint64
	memo       *lru.Cache[string, Payload]
	logger     *zap.Logger
}

// NewClient creates an annotation client.
func NewClient(opts Options) (*Client, error) {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	retries := opts.Retries
	if retries < 0 {
		retries = 0
	}
	memoSize := opts.MemoSize
	if memoSize <= 0 {
		memoSize = defaultMemoSize
	}

	memo, err := lru.New[string, Payload](memoSize)
	if err != nil {
		return nil, fmt.Errorf("create memo cache: %w", err)
	}

	limit := rate.Inf
	if opts.RatePerSec > 0 {
		limit = rate.Limit(opts.RatePerSec)
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(limit, 1),
		retries:    uint64(retries),
		memo:       memo,
		logger:     zap.NewNop(),
	}, nil
}

// SetLogger sets the logger for diagnostic messages.
func (c *Client) SetLogger(l *zap.Logger) {
	c.logger = l
}

// Fetch retrieves the ClinVar payload for a rsid, requesting only the
// clinvar field subset. Non-2xx responses and transport failures return a
// *FetchError; server errors are retried with constant backoff.
func (c *Client) Fetch(ctx context.Context, rsid string) (Payload, error) {
	if payload, ok := c.memo.Get(rsid); ok {
		c.logger.Debug("annotation memo hit", zap.String("rsid", rsid))
		return payload, nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &FetchError{RSID: rsid, Err: err}
	}

	reqURL := fmt.Sprintf("%s/v1/variant/%s?fields=clinvar", c.baseURL, url.PathEscape(rsid))

	var payload Payload
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return backoff.Permanent(err)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 {
			io.Copy(io.Discard, resp.Body)
			return &FetchError{RSID: rsid, StatusCode: resp.StatusCode}
		}
		if resp.StatusCode != http.StatusOK {
			io.Copy(io.Discard, resp.Body)
			return backoff.Permanent(&FetchError{RSID: rsid, StatusCode: resp.StatusCode})
		}

		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			return backoff.Permanent(fmt.Errorf("decode annotation response: %w", err))
		}
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(500*time.Millisecond), c.retries), ctx)

	if err := backoff.Retry(op, policy); err != nil {
		if fe, ok := err.(*FetchError); ok {
			return nil, fe
		}
		return nil, &FetchError{RSID: rsid, Err: err}
	}

	c.memo.Add(rsid, payload)
	return payload, nil
}
