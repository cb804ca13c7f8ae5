package steam

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	DefaultStoreURL = "https://store.steampowered.com"
	DefaultSpyURL   = "https://steamspy.com"

	defaultTimeout = 20 * time.Second
	userAgent      = "steam-insights-backend/1.0"
	maxBodyBytes   = 8 << 20
)

var (
	// ErrAppNotFound is returned when Steam reports no data for an app.
	ErrAppNotFound = errors.New("steam app not found")
	// ErrUpstream wraps non-success responses from Steam or SteamSpy.
	ErrUpstream = errors.New("steam upstream error")
)

// Option configures a client.
type Option func(*options)

type options struct {
	baseURL    string
	httpClient *http.Client
}

// WithBaseURL points the client at another host, e.g. an httptest server.
func WithBaseURL(u string) Option {
	return func(o *options) {
		if strings.TrimSpace(u) != "" {
			o.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithHTTPClient replaces the default client.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		if c != nil {
			o.httpClient = c
		}
	}
}

func buildOptions(defaultURL string, opts []Option) options {
	o := options{
		baseURL:    defaultURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func get(ctx context.Context, client *http.Client, url string, cookies string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	if cookies != "" {
		req.Header.Set("Cookie", cookies)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrUpstream, err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrAppNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: http status %d", ErrUpstream, resp.StatusCode)
	}
	return body, nil
}
