package roomapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goold/roomsched/libs/domain"
	"github.com/goold/roomsched/libs/httpx"
	"github.com/goold/roomsched/libs/session"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// RequestInterceptor may modify an outgoing request before it is sent.
type RequestInterceptor func(*http.Request) error

type Client struct {
	base         *url.URL
	hc           *http.Client
	tokens       session.TokenSource
	expirer      session.Expirer
	logger       *slog.Logger
	interceptors []RequestInterceptor
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.hc = hc }
}

// WithSession attaches the bearer token of tokens to every request and expires it on a 401.
func WithSession(tokens session.TokenSource, expirer session.Expirer) Option {
	return func(c *Client) {
		c.tokens = tokens
		c.expirer = expirer
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

func WithInterceptor(i RequestInterceptor) Option {
	return func(c *Client) { c.interceptors = append(c.interceptors, i) }
}

func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(strings.TrimSpace(baseURL), "/"))
	if err != nil {
		return nil, fmt.Errorf("parse api url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("api url %q must be absolute", baseURL)
	}
	c := &Client{
		base: u,
		hc: &http.Client{
			Timeout:   15 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: slog.Default(),
	}
	for _, o := range opts {
		o(c)
	}
	c.interceptors = append([]RequestInterceptor{requestIDInterceptor}, c.interceptors...)
	return c, nil
}

// requestIDInterceptor forwards the request id of an inbound HTTP request, if any.
func requestIDInterceptor(r *http.Request) error {
	if id := httpx.RequestIDFromContext(r.Context()); id != "" {
		r.Header.Set(httpx.RequestIDHeader, id)
	}
	return nil
}

type call struct {
	method string
	path   string
	query  url.Values
	body   any
	header http.Header
}

// do sends c and decodes a 2xx JSON body into out (when out is non-nil).
func (c *Client) do(ctx context.Context, in call, out any) error {
	if in.body != nil {
		if err := domain.Validate(in.body); err != nil {
			return &APIError{Kind: KindValidation, Message: err.Error(), Err: err}
		}
	}

	req, err := c.newRequest(ctx, in)
	if err != nil {
		return &APIError{Kind: KindNetwork, Err: err}
	}
	token := ""
	if c.tokens != nil {
		token = c.tokens.Token()
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for _, i := range c.interceptors {
		if err := i(req); err != nil {
			return &APIError{Kind: KindNetwork, Err: err}
		}
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return &APIError{Kind: KindNetwork, Err: err}
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return &APIError{Kind: KindNetwork, Status: resp.StatusCode, Err: err}
	}

	if resp.StatusCode >= 300 {
		apiErr := &APIError{
			Kind:    kindForStatus(resp.StatusCode),
			Status:  resp.StatusCode,
			Message: errorMessage(data),
		}
		if apiErr.Kind == KindAuth && c.expirer != nil {
			// A 401 ends the session regardless of what the caller does with the error.
			if c.expirer.Expire(ctx, token) {
				c.logger.Info("session expired by api", "method", in.method, "path", in.path)
			}
		}
		return apiErr
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &APIError{Kind: KindNetwork, Status: resp.StatusCode, Message: "invalid response body", Err: err}
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, in call) (*http.Request, error) {
	u := *c.base
	u.Path = c.base.Path + in.path
	if len(in.query) > 0 {
		u.RawQuery = in.query.Encode()
	}

	var body io.Reader
	if in.body != nil {
		data, err := json.Marshal(in.body)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, in.method, u.String(), body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if in.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, vals := range in.header {
		for _, v := range vals {
			req.Header.Add(k, v)
		}
	}
	return req, nil
}

func errorMessage(data []byte) string {
	var body httpx.ErrorBody
	if err := json.Unmarshal(data, &body); err == nil && body.Message != "" {
		return body.Message
	}
	msg := strings.TrimSpace(string(data))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return msg
}

func pageQuery(page, limit int) url.Values {
	q := url.Values{}
	if page > 0 {
		q.Set("page", fmt.Sprint(page))
	}
	if limit > 0 {
		q.Set("limit", fmt.Sprint(limit))
	}
	return q
}

func idPath(prefix string, id int64, suffix ...string) string {
	p := fmt.Sprintf("%s/%d", prefix, id)
	for _, s := range suffix {
		p += "/" + s
	}
	return p
}

var errNilID = errors.New("id must be positive")

func checkID(id int64) error {
	if id <= 0 {
		return &APIError{Kind: KindValidation, Message: errNilID.Error(), Err: errNilID}
	}
	return nil
}
