package mangadex

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"mangacover/internal/apperr"
	"mangacover/internal/httpclient"
)

const (
	DefaultTimeout = 5 * time.Second
	userAgent      = "mangacover/1.0"
	maxErrorBody   = 512
)

// TransportError means the provider could not be reached, answered with a
// non-2xx status, or timed out. It matches apperr.ErrUpstream.
type TransportError struct {
	Op         string
	URL        string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("mangadex %s: status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("mangadex %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Is(target error) bool { return target == apperr.ErrUpstream }

// Client talks to the MangaDex API. Every call is a single GET; nothing is retried.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    httpclient.NewTraceClient("mangadex", timeout),
	}
}

func (c *Client) FetchRandom(ctx context.Context) (Manga, error) {
	var resp entityResponse
	if err := c.get(ctx, "random", "/manga/random", nil, &resp); err != nil {
		return Manga{}, err
	}
	if err := checkResult(resp.Result); err != nil {
		return Manga{}, fmt.Errorf("mangadex random: %w", err)
	}
	return resp.Data, nil
}

func (c *Client) FetchByID(ctx context.Context, id string) (Manga, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Manga{}, fmt.Errorf("manga id required: %w", apperr.ErrInvalidArgument)
	}
	var resp entityResponse
	if err := c.get(ctx, "manga", "/manga/"+url.PathEscape(id), nil, &resp); err != nil {
		return Manga{}, err
	}
	if err := checkResult(resp.Result); err != nil {
		return Manga{}, fmt.Errorf("mangadex manga %s: %w", id, err)
	}
	return resp.Data, nil
}

// FetchPopular lists manga ordered by follower count. The provider caps limit.
// Only the envelope is decoded here; each item is decoded by the caller.
func (c *Client) FetchPopular(ctx context.Context, limit int) ([]RawManga, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be a positive integer, got %d: %w", limit, apperr.ErrInvalidArgument)
	}
	q := url.Values{}
	q.Set("order[followedCount]", "desc")
	q.Set("limit", strconv.Itoa(limit))

	var resp collectionResponse
	if err := c.get(ctx, "popular", "/manga", q, &resp); err != nil {
		return nil, err
	}
	if err := checkResult(resp.Result); err != nil {
		return nil, fmt.Errorf("mangadex popular: %w", err)
	}
	out := make([]RawManga, 0, len(resp.Data))
	for _, item := range resp.Data {
		out = append(out, RawManga(item))
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, op, path string, q url.Values, out any) error {
	if q == nil {
		q = url.Values{}
	}
	q.Add("includes[]", relCoverArt)
	u := c.BaseURL + path + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("mangadex %s: build request: %w", op, err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return &TransportError{Op: op, URL: u, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &TransportError{
			Op:         op,
			URL:        u,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		// a deadline hit while streaming the body is still a transport failure
		var netErr net.Error
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) || (errors.As(err, &netErr) && netErr.Timeout()) {
			return &TransportError{Op: op, URL: u, Err: err}
		}
		return fmt.Errorf("mangadex %s: decode: %v: %w", op, err, apperr.ErrInvalidUpstreamResponse)
	}
	return nil
}

func checkResult(result string) error {
	if result == "" || result == "ok" {
		return nil
	}
	return fmt.Errorf("result %q: %w", result, apperr.ErrInvalidUpstreamResponse)
}
