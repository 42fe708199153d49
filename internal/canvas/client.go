package canvas

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	perPage  = 100
	maxPages = 500
)

// Cache stores raw Canvas responses. Implementations live in internal/cache.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
}

type Config struct {
	BaseURL string
	Token   string

	Timeout    time.Duration
	RetryCount int
	RetryWait  time.Duration

	// Requests per second; 0 disables client-side limiting.
	RateLimit float64
	Burst     int

	Cache    Cache
	CacheTTL time.Duration
	Logger   *slog.Logger
}

// StatusError is a non-2xx Canvas response.
type StatusError struct {
	Method string
	URI    string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s failed: %d", e.Method, e.URI, e.Status)
	}
	return fmt.Sprintf("%s %s failed: %d %s", e.Method, e.URI, e.Status, e.Body)
}

// IsNotFound reports whether err is a Canvas 404.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Status == http.StatusNotFound
}

type Client struct {
	rc      *resty.Client
	base    string
	tokenID string
	cache   Cache
	ttl     time.Duration
	log     *slog.Logger
}

func New(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errors.New("canvas: base url required")
	}
	if _, err := url.ParseRequestURI(base); err != nil {
		return nil, fmt.Errorf("canvas: base url: %w", err)
	}
	if cfg.Token == "" {
		return nil, errors.New("canvas: token required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.RetryWait <= 0 {
		cfg.RetryWait = 500 * time.Millisecond
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 10 * time.Minute
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token, TokenType: "Bearer"})
	hc := oauth2.NewClient(context.Background(), ts)

	rc := resty.NewWithClient(hc).
		SetBaseURL(base).
		SetHeader("Accept", "application/json").
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(cfg.RetryWait).
		SetRetryMaxWaitTime(8 * cfg.RetryWait).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return r.StatusCode() == http.StatusTooManyRequests || r.StatusCode() >= 500
		})

	if cfg.RateLimit > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		lim := rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
		rc.OnBeforeRequest(func(_ *resty.Client, r *resty.Request) error {
			return lim.Wait(r.Context())
		})
	}

	sum := sha256.Sum256([]byte(cfg.Token))
	return &Client{
		rc:      rc,
		base:    base,
		tokenID: hex.EncodeToString(sum[:8]),
		cache:   cfg.Cache,
		ttl:     cfg.CacheTTL,
		log:     cfg.Logger,
	}, nil
}

// BaseURL returns the normalized Canvas base URL.
func (c *Client) BaseURL() string { return c.base }

// ListCourses returns the caller's courses with the given enrollment state.
func (c *Client) ListCourses(ctx context.Context, state EnrollmentState) ([]Course, error) {
	q := url.Values{}
	q.Set("enrollment_state", string(state))
	return getPaged[Course](ctx, c, "/api/v1/courses", q)
}

func (c *Client) GetCourse(ctx context.Context, courseID int64) (Course, error) {
	var out Course
	err := c.getJSON(ctx, "/api/v1/courses/"+strconv.FormatInt(courseID, 10), &out)
	return out, err
}

func (c *Client) ListAssignmentGroups(ctx context.Context, courseID int64) ([]AssignmentGroup, error) {
	return getPaged[AssignmentGroup](ctx, c, "/api/v1/courses/"+strconv.FormatInt(courseID, 10)+"/assignment_groups", url.Values{})
}

// ListAssignments returns every assignment of the course with the caller's submission embedded.
func (c *Client) ListAssignments(ctx context.Context, courseID int64) ([]Assignment, error) {
	q := url.Values{}
	q.Add("include[]", "submission")
	return getPaged[Assignment](ctx, c, "/api/v1/courses/"+strconv.FormatInt(courseID, 10)+"/assignments", q)
}

func (c *Client) getJSON(ctx context.Context, uri string, out any) error {
	body, err := c.cached(ctx, uri, func() ([]byte, error) {
		b, _, err := c.fetch(ctx, uri)
		return b, err
	})
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s: %w", uri, err)
	}
	return nil
}

// getPaged follows rel="next" links until exhausted and returns the concatenated pages.
func getPaged[T any](ctx context.Context, c *Client, path string, q url.Values) ([]T, error) {
	q.Set("per_page", strconv.Itoa(perPage))
	first := path + "?" + q.Encode()

	body, err := c.cached(ctx, first, func() ([]byte, error) {
		var all []T
		next := first
		for page := 0; next != ""; page++ {
			if page >= maxPages {
				return nil, fmt.Errorf("GET %s: more than %d pages", path, maxPages)
			}
			b, link, err := c.fetch(ctx, next)
			if err != nil {
				return nil, err
			}
			var batch []T
			if err := json.Unmarshal(b, &batch); err != nil {
				return nil, fmt.Errorf("decode %s: %w", path, err)
			}
			all = append(all, batch...)
			next = nextLink(link)
		}
		if all == nil {
			all = []T{}
		}
		return json.Marshal(all)
	})
	if err != nil {
		return nil, err
	}
	var out []T
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return out, nil
}

func (c *Client) fetch(ctx context.Context, uri string) ([]byte, string, error) {
	resp, err := c.rc.R().SetContext(ctx).Get(uri)
	if err != nil {
		return nil, "", fmt.Errorf("GET %s: %w", uri, err)
	}
	if resp.IsError() {
		return nil, "", &StatusError{Method: http.MethodGet, URI: uri, Status: resp.StatusCode(), Body: truncate(resp.String(), 200)}
	}
	c.log.Debug("canvas request", "uri", uri, "status", resp.StatusCode(), "elapsed", resp.Time())
	return resp.Body(), resp.Header().Get("Link"), nil
}

// cached serves uri from the cache when present, otherwise calls load and stores its result.
// Cache failures are logged and never fail the request.
func (c *Client) cached(ctx context.Context, uri string, load func() ([]byte, error)) ([]byte, error) {
	if c.cache == nil {
		return load()
	}
	key := c.cacheKey(uri)
	if b, ok, err := c.cache.Get(ctx, key); err != nil {
		c.log.Warn("canvas cache get failed", "uri", uri, "err", err)
	} else if ok {
		return b, nil
	}
	b, err := load()
	if err != nil {
		return nil, err
	}
	if err := c.cache.Set(ctx, key, b, c.ttl); err != nil {
		c.log.Warn("canvas cache set failed", "uri", uri, "err", err)
	}
	return b, nil
}

func (c *Client) cacheKey(uri string) string {
	sum := sha256.Sum256([]byte(c.base + "\x00" + c.tokenID + "\x00" + uri))
	return "canvas:" + hex.EncodeToString(sum[:])
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
