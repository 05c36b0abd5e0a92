package solcast

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/Adda-Baaj/solcast-pv/pkg/httpclient"
)

const (
	// Version is reported in the User-Agent header.
	Version = "1.0.0"

	// DefaultTimeout bounds a full request/response round trip.
	DefaultTimeout = 10 * time.Second

	apiOrigin = "https://api.solcast.com.au/"
	userAgent = "GoSolcastPV/" + Version

	opRooftopSites   = "rooftop_sites"
	opUsageAllowance = "json/reply/GetUserUsageAllowance"
)

var errClosed = errors.New("client is closed")

// Client talks to the Solcast API. It is safe for concurrent use.
type Client struct {
	token   string
	timeout time.Duration
	origin  string
	log     Logger

	mu           sync.Mutex
	session      httpclient.Client
	ownsSession  bool
	closed       bool
	newTransport func(time.Duration) httpclient.Client
}

// Option customises a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout. Non-positive values keep the default.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithSession makes the client use a caller-owned transport. Close never releases it.
func WithSession(session httpclient.Client) Option {
	return func(c *Client) {
		c.session = session
	}
}

// WithLogger attaches a logger for request diagnostics.
func WithLogger(log Logger) Option {
	return func(c *Client) {
		c.log = ensureLogger(log)
	}
}

// New builds a client for the given API key.
func New(token string, opts ...Option) (*Client, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, errors.New("solcast: api token is required")
	}

	c := &Client{
		token:   token,
		timeout: DefaultTimeout,
		origin:  apiOrigin,
		log:     noopLogger{},
		newTransport: func(timeout time.Duration) httpclient.Client {
			return httpclient.NewRestyClient(timeout)
		},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

// WithClient runs fn with a fresh client and closes it on every exit path.
func WithClient(ctx context.Context, token string, fn func(context.Context, *Client) error, opts ...Option) (err error) {
	c, err := New(token, opts...)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := c.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(ctx, c)
}

// GetRooftopSites lists the rooftop sites registered on the account.
func (c *Client) GetRooftopSites(ctx context.Context) ([]RooftopSite, error) {
	resp, err := c.Request(ctx, http.MethodGet, opRooftopSites, nil)
	if err != nil {
		return nil, err
	}
	return DecodeRooftopSiteList(resp)
}

// GetRateLimitStatus returns the daily usage allowance of the API key.
func (c *Client) GetRateLimitStatus(ctx context.Context) (RateLimit, error) {
	resp, err := c.Request(ctx, http.MethodGet, opUsageAllowance, nil)
	if err != nil {
		return RateLimit{}, err
	}
	obj, ok := resp.(map[string]any)
	if !ok {
		return RateLimit{}, newError(KindGeneric, decodeFailedMsg, fmt.Errorf("response is %T, not an object", resp))
	}
	return DecodeRateLimit(obj)
}

// Request performs a call against the API and returns the decoded JSON body.
// uri is resolved against the API root, so it may contain path segments.
func (c *Client) Request(ctx context.Context, method, uri string, params map[string]any) (any, error) {
	if strings.TrimSpace(uri) == "" {
		return nil, newError(KindGeneric, "Request path must not be empty.", nil)
	}
	if method == "" {
		method = http.MethodGet
	}

	target, err := c.resolve(uri)
	if err != nil {
		return nil, err
	}

	session, err := c.ensureSession()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	resp, err := session.Do(ctx, httpclient.Request{
		Method: method,
		URL:    target,
		Headers: map[string]string{
			"Authorization": "Bearer " + c.token,
			"Accept":        "application/json",
			"User-Agent":    userAgent,
		},
		Query: formatParams(params),
	})
	if err != nil {
		return nil, c.transportError(uri, err)
	}

	status := resp.StatusCode()
	c.log.DebugObj("solcast request completed", "solcast_request", map[string]any{
		"operation":  uri,
		"method":     method,
		"status":     status,
		"elapsed_ms": time.Since(start).Milliseconds(),
	})

	if err := classifyStatus(status); err != nil {
		return nil, err
	}

	contentType := resp.Header("Content-Type")
	if !strings.Contains(contentType, "application/json") {
		return nil, &Error{
			Kind:       KindGeneric,
			Message:    "Unexpected content type response from API.",
			StatusCode: status,
			Content: &ContentDetails{
				ContentType: contentType,
				Text:        string(resp.Body()),
			},
		}
	}

	dec := json.NewDecoder(bytes.NewReader(resp.Body()))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, &Error{Kind: KindGeneric, Message: decodeFailedMsg, StatusCode: status, Err: err}
	}
	return out, nil
}

// Close releases the transport if the client created it. It is safe to call repeatedly.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	if c.session == nil || !c.ownsSession {
		return nil
	}
	err := c.session.Close()
	c.session = nil
	c.ownsSession = false
	return err
}

func (c *Client) ensureSession() (httpclient.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, newError(KindGeneric, "Client has been closed.", errClosed)
	}
	if c.session == nil {
		c.session = c.newTransport(c.timeout)
		c.ownsSession = true
	}
	return c.session, nil
}

func (c *Client) resolve(uri string) (string, error) {
	base, err := url.Parse(c.origin)
	if err != nil {
		return "", newError(KindGeneric, "Invalid API origin.", err)
	}
	ref, err := url.Parse(uri)
	if err != nil {
		return "", newError(KindGeneric, "Invalid request path.", err)
	}
	target := base.ResolveReference(ref)
	if target.Scheme != "https" {
		return "", newError(KindGeneric, "Refusing to send credentials over an insecure connection.", fmt.Errorf("scheme %q", target.Scheme))
	}
	return target.String(), nil
}

func (c *Client) transportError(uri string, err error) error {
	c.log.DebugObj("solcast request failed", "solcast_request", map[string]any{
		"operation": uri,
		"error":     err.Error(),
	})
	if isTimeout(err) {
		return newError(KindConnection, "Timeout occurred while connecting to API.", err)
	}
	return newError(KindConnection, "Error occurred while connecting to API.", err)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func classifyStatus(status int) error {
	if status >= 200 && status < 300 {
		return nil
	}
	cause := &StatusError{StatusCode: status}
	var e *Error
	switch status {
	case http.StatusUnauthorized:
		e = newError(KindAuthentication, "Invalid API key provided.", cause)
	case http.StatusForbidden:
		e = newError(KindAuthentication, "API key does not have access to the requested resource.", cause)
	case http.StatusNotFound:
		e = newError(KindGeneric, "Requested resource was not found.", cause)
	default:
		e = newError(KindConnection, "Error occurred while connecting to API.", cause)
	}
	e.StatusCode = status
	return e
}

func formatParams(params map[string]any) map[string]string {
	if len(params) == 0 {
		return nil
	}
	out := make(map[string]string, len(params))
	for k, v := range params {
		if v == nil {
			continue
		}
		out[k] = fmt.Sprint(v)
	}
	return out
}
