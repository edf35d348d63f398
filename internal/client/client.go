// Package client talks to a hit-counter server.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

type Response struct {
	ID             string `json:"id"`
	Count          int64  `json:"count"`
	FormattedCount string `json:"formatted_count"`
	Timestamp      string `json:"timestamp"`
	ImageURL       string `json:"image_url"`
	Message        string `json:"message,omitempty"`
	Note           string `json:"note,omitempty"`
}

// APIError is returned for non-2xx answers.
type APIError struct {
	StatusCode int
	ErrorText  string `json:"error"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("status=%d, %s: %s", e.StatusCode, e.ErrorText, e.Message)
	}
	return fmt.Sprintf("status=%d, %s", e.StatusCode, e.ErrorText)
}

type Client struct {
	base *url.URL
	http *http.Client
}

type Option func(c *Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// New returns a client for the counter endpoint at baseURL, e.g.
// "http://localhost:8080/api/counter".
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("url.Parse: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base url must be absolute: %s", baseURL)
	}
	c := &Client{base: u, http: http.DefaultClient}
	for _, e := range opts {
		e(c)
	}
	return c, nil
}

func (c *Client) endpoint(id, format string) string {
	u := *c.base
	if u.Path == "" {
		u.Path = "/"
	}
	q := url.Values{}
	if id != "" {
		q.Set("id", id)
	}
	q.Set("format", format)
	u.RawQuery = q.Encode()
	return u.String()
}

func (c *Client) Get(ctx context.Context, id string) (*Response, error) {
	return c.doJSON(ctx, http.MethodGet, id)
}

func (c *Client) Increment(ctx context.Context, id string) (*Response, error) {
	return c.doJSON(ctx, http.MethodPost, id)
}

func (c *Client) Reset(ctx context.Context, id string) (*Response, error) {
	return c.doJSON(ctx, http.MethodDelete, id)
}

// Badge returns the SVG badge of id.
func (c *Client) Badge(ctx context.Context, id string) ([]byte, error) {
	return c.do(ctx, http.MethodGet, c.endpoint(id, "image"))
}

func (c *Client) doJSON(ctx context.Context, method, id string) (*Response, error) {
	b, err := c.do(ctx, method, c.endpoint(id, "json"))
	if err != nil {
		return nil, err
	}
	var res Response
	if err := json.Unmarshal(b, &res); err != nil {
		return nil, fmt.Errorf("json.Unmarshal: %w", err)
	}
	return &res, nil
}

func (c *Client) do(ctx context.Context, method, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, u, nil)
	if err != nil {
		return nil, fmt.Errorf("http.NewRequestWithContext: %w", err)
	}
	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http.Do: %w", err)
	}
	defer res.Body.Close()

	b, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("io.ReadAll: %w", err)
	}

	if res.StatusCode/100 != 2 {
		apiErr := &APIError{StatusCode: res.StatusCode}
		if strings.HasPrefix(res.Header.Get("Content-Type"), "application/json") {
			_ = json.Unmarshal(b, apiErr)
		}
		if apiErr.ErrorText == "" {
			apiErr.ErrorText = http.StatusText(res.StatusCode)
		}
		return nil, apiErr
	}
	return b, nil
}
